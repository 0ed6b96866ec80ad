package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// maxLevenshteinDistance is the maximum edit distance for "did you mean?"
// suggestions when unknown config keys are detected.
const maxLevenshteinDistance = 3

// knownGlobalKeys are the valid field names inside the global sections
// ([retry], [pool], [proxy], [logging], [network]). These correspond to
// fields in those sub-config structs.
var knownGlobalKeys = map[string]bool{
	// Retry settings
	"max_attempts": true, "max_elapsed_millis": true, "backoff": true,
	// Pool settings
	"max_per_route": true, "max_total": true,
	// Proxy settings
	"url": true,
	// Logging settings
	"log_level": true, "log_file": true, "log_format": true,
	// Network settings
	"connect_timeout": true, "request_timeout": true, "user_agent": true,
	"rate_limit_rps": true, "rate_limit_burst": true,
}

// knownGlobalKeysList is the sorted slice form of knownGlobalKeys for
// Levenshtein matching. Sorted for deterministic suggestions when two
// candidates have the same edit distance.
var knownGlobalKeysList = sortedKeys(knownGlobalKeys)

// knownProfileKeys are the valid keys inside an [org.<name>] section.
var knownProfileKeys = map[string]bool{
	"base_url": true, "auth_type": true, "api_token": true,
	"client_id": true, "client_secret": true, "token_url": true, "scopes": true,
	"retry": true, "pool": true, "proxy": true, "logging": true, "network": true,
}

// knownProfileKeysList is the sorted slice form for Levenshtein matching.
var knownProfileKeysList = sortedKeys(knownProfileKeys)

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}

// checkUnknownKeys inspects TOML metadata for undecoded keys and returns an
// error with "did you mean?" suggestions for each unknown key. Keys under
// "org.<name>." are checked against knownProfileKeys; everything else is
// checked against knownGlobalKeys.
func checkUnknownKeys(md *toml.MetaData) error {
	undecoded := md.Undecoded()
	if len(undecoded) == 0 {
		return nil
	}

	var errs []error

	for _, key := range undecoded {
		keyStr := key.String()

		if strings.HasPrefix(keyStr, "org.") {
			if err := buildProfileKeyError(keyStr); err != nil {
				errs = append(errs, err)
			}

			continue
		}

		if err := buildGlobalKeyError(keyStr); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// knownSectionNames are the top-level struct-valued sections of Config.
// An undecoded key under one of these (e.g. "network.rate_limit_rps") names
// a field inside that section rather than a bare top-level key.
var knownSectionNames = map[string]bool{
	"retry": true, "pool": true, "proxy": true, "logging": true, "network": true,
}

// buildGlobalKeyError creates a descriptive error for an unknown top-level
// key, optionally suggesting the closest known key.
func buildGlobalKeyError(keyStr string) error {
	parts := strings.SplitN(keyStr, ".", 2)
	fieldName := parts[0]

	if len(parts) > 1 {
		if knownSectionNames[fieldName] {
			return buildSectionFieldError(fieldName, parts[1])
		}

		if knownGlobalKeys[fieldName] {
			return nil // parent section is known, sub-field is expected
		}
	}

	suggestion := closestMatch(fieldName, knownGlobalKeysList)
	if suggestion != "" {
		return fmt.Errorf("unknown config key %q — did you mean %q?", fieldName, suggestion)
	}

	return fmt.Errorf("unknown config key %q", fieldName)
}

// buildSectionFieldError checks a dotted key inside a known struct-valued
// section (e.g. "rate_limit_rps" inside "network"). Since field names don't
// collide across sections in this config shape, it reuses knownGlobalKeys.
func buildSectionFieldError(section, leaf string) error {
	fieldName := strings.SplitN(leaf, ".", 2)[0]
	if knownGlobalKeys[fieldName] {
		return nil
	}

	suggestion := closestMatch(fieldName, knownGlobalKeysList)
	if suggestion != "" {
		return fmt.Errorf("unknown config key %q in [%s] — did you mean %q?", fieldName, section, suggestion)
	}

	return fmt.Errorf("unknown config key %q in [%s]", fieldName, section)
}

// buildProfileKeyError creates a descriptive error for an unknown key inside
// an [org.<name>] section. keyStr has the form "org.<name>.<field>[...]".
func buildProfileKeyError(keyStr string) error {
	parts := strings.SplitN(keyStr, ".", 3)
	if len(parts) < 3 {
		return nil // "org.<name>" itself — the profile table, not a field
	}

	fieldName := strings.SplitN(parts[2], ".", 2)[0]
	if knownProfileKeys[fieldName] {
		return nil
	}

	suggestion := closestMatch(fieldName, knownProfileKeysList)
	if suggestion != "" {
		return fmt.Errorf("unknown key %q in org profile %q — did you mean %q?", fieldName, parts[1], suggestion)
	}

	return fmt.Errorf("unknown key %q in org profile %q", fieldName, parts[1])
}

// closestMatch finds the closest known key by Levenshtein distance.
// Returns empty string if no match is within maxLevenshteinDistance.
func closestMatch(unknown string, known []string) string {
	best := ""
	bestDist := maxLevenshteinDistance + 1

	for _, k := range known {
		d := levenshtein(unknown, k)
		if d < bestDist {
			bestDist = d
			best = k
		}
	}

	if bestDist <= maxLevenshteinDistance {
		return best
	}

	return ""
}

// levenshtein computes the edit distance between two strings.
func levenshtein(a, b string) int {
	if a == "" {
		return len(b)
	}

	if b == "" {
		return len(a)
	}

	// Use single-row optimization to avoid allocating a full matrix.
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)

	for j := range prev {
		prev[j] = j
	}

	for i := range len(a) {
		curr[0] = i + 1

		for j := range len(b) {
			cost := 1
			if a[i] == b[j] {
				cost = 0
			}

			curr[j+1] = minOf(curr[j]+1, prev[j+1]+1, prev[j]+cost)
		}

		prev, curr = curr, prev
	}

	return prev[len(b)]
}

// minOf returns the minimum of three integers.
func minOf(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}

	if c < m {
		m = c
	}

	return m
}
