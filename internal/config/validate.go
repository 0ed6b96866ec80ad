package config

import (
	"errors"
	"fmt"
	"time"
)

// Validation range constants.
const (
	minMaxAttempts    = 1
	maxMaxAttempts    = 20
	minMaxElapsedMs   = 1_000
	minConnectTimeout = 1 * time.Second
	minRequestTimeout = 1 * time.Second
	minRateLimitBurst = 1
)

// Validate checks all configuration values and returns all errors found.
// It accumulates every error rather than stopping at the first, so users
// see a complete report and can fix all issues in one pass.
func Validate(cfg *Config) error {
	var errs []error

	errs = append(errs, validateProfiles(cfg.Profiles)...)
	errs = append(errs, validateRetry(&cfg.Retry)...)
	errs = append(errs, validatePool(&cfg.Pool)...)
	errs = append(errs, validateLogging(&cfg.Logging)...)
	errs = append(errs, validateNetwork(&cfg.Network)...)

	return errors.Join(errs...)
}

// ValidateResolved checks cross-field constraints on a fully resolved
// profile. Unlike Validate(), which checks raw config file values, this runs
// after the override chain (defaults -> file -> env) has been applied.
func ValidateResolved(rp *ResolvedProfile) error {
	var errs []error

	if rp.BaseURL == "" {
		errs = append(errs, fmt.Errorf("org.%s.base_url: must not be empty", rp.Name))
	}

	switch rp.AuthType {
	case AuthTypeSSWS:
		if rp.APIToken == "" {
			errs = append(errs, fmt.Errorf(
				"org.%s.api_token: required when auth_type is %q (or set %s)",
				rp.Name, AuthTypeSSWS, EnvAPIToken))
		}
	case AuthTypeOAuthClientCredentials:
		if rp.ClientID == "" {
			errs = append(errs, fmt.Errorf("org.%s.client_id: required for oauth_client_credentials", rp.Name))
		}

		if rp.ClientSecret == "" {
			errs = append(errs, fmt.Errorf(
				"org.%s.client_secret: required for oauth_client_credentials (or set %s)",
				rp.Name, EnvClientSecret))
		}

		if rp.TokenURL == "" {
			errs = append(errs, fmt.Errorf("org.%s.token_url: required for oauth_client_credentials", rp.Name))
		}
	default:
		errs = append(errs, fmt.Errorf(
			"org.%s.auth_type: must be one of %q, %q; got %q",
			rp.Name, AuthTypeSSWS, AuthTypeOAuthClientCredentials, rp.AuthType))
	}

	return errors.Join(errs...)
}

func validateRetry(r *RetryConfig) []error {
	var errs []error

	if r.MaxAttempts < minMaxAttempts || r.MaxAttempts > maxMaxAttempts {
		errs = append(errs, fmt.Errorf("retry.max_attempts: must be between %d and %d, got %d",
			minMaxAttempts, maxMaxAttempts, r.MaxAttempts))
	}

	if r.MaxElapsedMillis < minMaxElapsedMs {
		errs = append(errs, fmt.Errorf("retry.max_elapsed_millis: must be >= %d, got %d",
			minMaxElapsedMs, r.MaxElapsedMillis))
	}

	errs = append(errs, validateBackoffName(r.Backoff)...)

	return errs
}

var validBackoffNames = map[string]bool{
	"default":      true,
	"equal_jitter": true,
	"fibonacci":    true,
}

func validateBackoffName(name string) []error {
	if !validBackoffNames[name] {
		return []error{fmt.Errorf(
			"retry.backoff: must be one of default, equal_jitter, fibonacci; got %q", name)}
	}

	return nil
}

func validatePool(p *PoolConfigTOML) []error {
	var errs []error

	if p.MaxPerRoute < 0 {
		errs = append(errs, fmt.Errorf("pool.max_per_route: must be >= 0, got %d", p.MaxPerRoute))
	}

	if p.MaxTotal < 0 {
		errs = append(errs, fmt.Errorf("pool.max_total: must be >= 0, got %d", p.MaxTotal))
	}

	if p.MaxPerRoute > 0 && p.MaxTotal > 0 && p.MaxTotal < p.MaxPerRoute {
		errs = append(errs, fmt.Errorf(
			"pool.max_total (%d) must be >= pool.max_per_route (%d)", p.MaxTotal, p.MaxPerRoute))
	}

	return errs
}

func validateLogging(l *LoggingConfig) []error {
	var errs []error

	errs = append(errs, validateLogLevel(l.LogLevel)...)
	errs = append(errs, validateLogFormat(l.LogFormat)...)

	return errs
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

func validateLogLevel(level string) []error {
	if !validLogLevels[level] {
		return []error{fmt.Errorf("log_level: must be one of debug, info, warn, error; got %q", level)}
	}

	return nil
}

var validLogFormats = map[string]bool{
	"auto": true,
	"text": true,
	"json": true,
}

func validateLogFormat(format string) []error {
	if !validLogFormats[format] {
		return []error{fmt.Errorf("log_format: must be one of auto, text, json; got %q", format)}
	}

	return nil
}

func validateNetwork(n *NetworkConfig) []error {
	var errs []error

	errs = append(errs, validateDurationMin("connect_timeout", n.ConnectTimeout, minConnectTimeout)...)
	errs = append(errs, validateDurationMin("request_timeout", n.RequestTimeout, minRequestTimeout)...)

	if n.RateLimitRPS < 0 {
		errs = append(errs, fmt.Errorf("rate_limit_rps: must be >= 0, got %f", n.RateLimitRPS))
	}

	if n.RateLimitRPS > 0 && n.RateLimitBurst < minRateLimitBurst {
		errs = append(errs, fmt.Errorf("rate_limit_burst: must be >= %d when rate_limit_rps is set, got %d",
			minRateLimitBurst, n.RateLimitBurst))
	}

	return errs
}

// validateDuration checks that a duration string is valid and meets a minimum.
func validateDuration(field, value string, minimum time.Duration) error {
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("%s: invalid duration %q: %w", field, value, err)
	}

	if d < minimum {
		return fmt.Errorf("%s: must be >= %s, got %s", field, minimum, d)
	}

	return nil
}

func validateDurationMin(field, value string, minimum time.Duration) []error {
	if err := validateDuration(field, value, minimum); err != nil {
		return []error{err}
	}

	return nil
}
