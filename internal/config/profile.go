package config

import (
	"fmt"
	"path/filepath"
)

// Valid auth_type values for a profile.
const (
	AuthTypeSSWS                   = "ssws"
	AuthTypeOAuthClientCredentials = "oauth_client_credentials"
)

// Default profile name when --profile is omitted.
const defaultProfileName = "default"

// Profile represents a single Okta org configuration within a TOML config
// file. Per-profile section overrides (e.g. [org.work.retry]) completely
// replace the corresponding global section — individual fields are not
// merged.
type Profile struct {
	BaseURL      string   `toml:"base_url"`
	AuthType     string   `toml:"auth_type"`
	APIToken     string   `toml:"api_token,omitempty"`
	ClientID     string   `toml:"client_id,omitempty"`
	ClientSecret string   `toml:"client_secret,omitempty"`
	TokenURL     string   `toml:"token_url,omitempty"`
	Scopes       []string `toml:"scopes,omitempty"`

	// Per-profile section overrides (completely replace global sections).
	Retry   *RetryConfig    `toml:"retry,omitempty"`
	Pool    *PoolConfigTOML `toml:"pool,omitempty"`
	Proxy   *ProxyConfig    `toml:"proxy,omitempty"`
	Logging *LoggingConfig  `toml:"logging,omitempty"`
	Network *NetworkConfig  `toml:"network,omitempty"`
}

// ResolvedProfile contains profile fields plus effective config sections
// after merging global defaults with per-profile overrides. This is the
// final product consumed by the CLI and the oktahttp executors.
type ResolvedProfile struct {
	Name         string
	BaseURL      string
	AuthType     string
	APIToken     string
	ClientID     string
	ClientSecret string
	TokenURL     string
	Scopes       []string

	Retry   RetryConfig
	Pool    PoolConfigTOML
	Proxy   ProxyConfig
	Logging LoggingConfig
	Network NetworkConfig
}

// ResolveProfile merges global defaults with profile-specific overrides.
// If profileName is empty, the default profile is selected. Section-level
// override semantics are "replace, not merge" — if a profile defines
// [org.work.retry], that entire RetryConfig replaces the global one.
// Secret env overrides (EnvAPIToken/EnvClientSecret) are applied last, since
// they represent operator intent to keep credentials out of the TOML file
// entirely.
func ResolveProfile(cfg *Config, profileName string, env EnvOverrides) (*ResolvedProfile, error) {
	name, err := resolveProfileName(cfg, profileName)
	if err != nil {
		return nil, err
	}

	profile := cfg.Profiles[name]

	resolved := &ResolvedProfile{
		Name:         name,
		BaseURL:      profile.BaseURL,
		AuthType:     profile.AuthType,
		APIToken:     profile.APIToken,
		ClientID:     profile.ClientID,
		ClientSecret: profile.ClientSecret,
		TokenURL:     profile.TokenURL,
		Scopes:       profile.Scopes,
	}

	resolveProfileSections(resolved, &profile, cfg)

	if env.APIToken != "" {
		resolved.APIToken = env.APIToken
	}

	if env.ClientSecret != "" {
		resolved.ClientSecret = env.ClientSecret
	}

	return resolved, nil
}

// resolveProfileSections fills effective config sections on the resolved profile.
func resolveProfileSections(resolved *ResolvedProfile, profile *Profile, cfg *Config) {
	resolved.Retry = resolveSection(profile.Retry, cfg.Retry)
	resolved.Pool = resolveSection(profile.Pool, cfg.Pool)
	resolved.Proxy = resolveSection(profile.Proxy, cfg.Proxy)
	resolved.Logging = resolveSection(profile.Logging, cfg.Logging)
	resolved.Network = resolveSection(profile.Network, cfg.Network)
}

// resolveSection returns the profile override if present, otherwise the global value.
func resolveSection[T any](profileOverride *T, global T) T {
	if profileOverride != nil {
		return *profileOverride
	}

	return global
}

// resolveProfileName determines which profile to use.
func resolveProfileName(cfg *Config, profileName string) (string, error) {
	if len(cfg.Profiles) == 0 {
		return "", fmt.Errorf("no org profiles defined in config")
	}

	if profileName != "" {
		return lookupExplicitProfile(cfg, profileName)
	}

	return lookupDefaultProfile(cfg)
}

// lookupExplicitProfile validates that the named profile exists.
func lookupExplicitProfile(cfg *Config, name string) (string, error) {
	if _, ok := cfg.Profiles[name]; !ok {
		return "", fmt.Errorf("org profile %q not found in config", name)
	}

	return name, nil
}

// lookupDefaultProfile finds the default profile when no name is given.
func lookupDefaultProfile(cfg *Config) (string, error) {
	if _, ok := cfg.Profiles[defaultProfileName]; ok {
		return defaultProfileName, nil
	}

	if len(cfg.Profiles) == 1 {
		for name := range cfg.Profiles {
			return name, nil
		}
	}

	return "", fmt.Errorf(
		"multiple org profiles defined but none named %q; use --profile to select one",
		defaultProfileName)
}

// ProfileCachePath returns the oktacache SQLite database path for a profile.
// Format: {dataDir}/cache/{profile}.db
func ProfileCachePath(profileName string) string {
	dataDir := DefaultDataDir()
	if dataDir == "" {
		return ""
	}

	return filepath.Join(dataDir, "cache", profileName+".db")
}

// ProfileTokenPath returns the cached-token file path for a profile.
// Format: {configDir}/tokens/{profile}.json
func ProfileTokenPath(profileName string) string {
	configDir := DefaultConfigDir()
	if configDir == "" {
		return ""
	}

	return filepath.Join(configDir, "tokens", profileName+".json")
}
