package config

import (
	"fmt"
	"net/url"
)

// validAuthTypes enumerates accepted auth_type values.
var validAuthTypes = map[string]bool{
	AuthTypeSSWS:                   true,
	AuthTypeOAuthClientCredentials: true,
}

// validateProfiles checks all org-profile-level constraints found directly
// in the raw config file. Constraints that depend on env-var overrides (a
// missing api_token that OKTA_CLIENT_TOKEN would supply) are deferred to
// ValidateResolved, which runs after the override chain is applied.
func validateProfiles(profiles map[string]Profile) []error {
	if len(profiles) == 0 {
		return nil
	}

	var errs []error

	baseURLs := make(map[string]string, len(profiles))

	for name := range profiles {
		p := profiles[name]
		errs = append(errs, validateSingleProfile(name, &p)...)
		errs = append(errs, checkDuplicateBaseURL(name, &p, baseURLs)...)
	}

	return errs
}

// validateSingleProfile validates one profile's fields.
func validateSingleProfile(name string, p *Profile) []error {
	var errs []error

	errs = append(errs, validateBaseURL(name, p.BaseURL)...)
	errs = append(errs, validateAuthType(name, p.AuthType)...)
	errs = append(errs, validateProfileOverrides(p)...)

	return errs
}

// validateBaseURL checks that base_url, if set, is an absolute http(s) URL.
// An empty base_url is allowed here — ValidateResolved rejects it, since a
// profile might inherit it from nowhere and that's a resolved-config concern.
func validateBaseURL(profileName, baseURL string) []error {
	if baseURL == "" {
		return nil
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return []error{fmt.Errorf("org.%s.base_url: invalid URL %q: %w", profileName, baseURL, err)}
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return []error{fmt.Errorf("org.%s.base_url: must be http or https, got %q", profileName, baseURL)}
	}

	if u.Host == "" {
		return []error{fmt.Errorf("org.%s.base_url: must include a host, got %q", profileName, baseURL)}
	}

	return nil
}

// validateAuthType checks that auth_type is one of the valid values.
func validateAuthType(profileName, authType string) []error {
	if authType == "" {
		return nil // resolved against the global default is not modeled; ValidateResolved catches it
	}

	if !validAuthTypes[authType] {
		return []error{fmt.Errorf(
			"org.%s.auth_type: must be one of %q, %q; got %q",
			profileName, AuthTypeSSWS, AuthTypeOAuthClientCredentials, authType)}
	}

	return nil
}

// checkDuplicateBaseURL reports a validation error when two profiles point
// at the same org,
// which usually indicates a copy-paste mistake in the config file.
func checkDuplicateBaseURL(name string, p *Profile, seen map[string]string) []error {
	if p.BaseURL == "" {
		return nil
	}

	if other, exists := seen[p.BaseURL]; exists {
		return []error{fmt.Errorf(
			"org.%s.base_url: %q conflicts with org.%s (same org)",
			name, p.BaseURL, other)}
	}

	seen[p.BaseURL] = name

	return nil
}

// validateProfileOverrides validates per-profile section overrides.
func validateProfileOverrides(p *Profile) []error {
	var errs []error

	if p.Retry != nil {
		errs = append(errs, validateRetry(p.Retry)...)
	}

	if p.Pool != nil {
		errs = append(errs, validatePool(p.Pool)...)
	}

	if p.Logging != nil {
		errs = append(errs, validateLogging(p.Logging)...)
	}

	if p.Network != nil {
		errs = append(errs, validateNetwork(p.Network)...)
	}

	return errs
}
