// Package config implements TOML configuration loading, validation, and
// platform-specific path resolution for the Okta HTTP client.
package config

// Config is the top-level configuration structure. It contains named org
// profiles plus global configuration sections. Per-profile section overrides
// completely replace the corresponding global section — individual fields
// are not merged.
type Config struct {
	Profiles map[string]Profile `toml:"org"`
	Retry    RetryConfig        `toml:"retry"`
	Pool     PoolConfigTOML     `toml:"pool"`
	Proxy    ProxyConfig        `toml:"proxy"`
	Logging  LoggingConfig      `toml:"logging"`
	Network  NetworkConfig      `toml:"network"`
}

// RetryConfig controls RetryExecutor's attempt cap, elapsed-time budget, and
// backoff selection.
type RetryConfig struct {
	MaxAttempts      int    `toml:"max_attempts"`
	MaxElapsedMillis int64  `toml:"max_elapsed_millis"`
	Backoff          string `toml:"backoff"` // "default", "equal_jitter", "fibonacci"
}

// PoolConfigTOML mirrors oktahttp.PoolConfig as a TOML-decodable section.
// Kept distinct from oktahttp.PoolConfig so this package has no import-cycle
// dependency on oktahttp; Load callers translate it field-by-field.
type PoolConfigTOML struct {
	MaxPerRoute int `toml:"max_per_route"`
	MaxTotal    int `toml:"max_total"`
}

// ProxyConfig controls outbound proxying. An empty URL means "respect the
// standard HTTP_PROXY/HTTPS_PROXY/NO_PROXY environment variables".
type ProxyConfig struct {
	URL string `toml:"url"`
}

// LoggingConfig controls log output behavior.
type LoggingConfig struct {
	LogLevel  string `toml:"log_level"`
	LogFile   string `toml:"log_file"`
	LogFormat string `toml:"log_format"`
}

// NetworkConfig controls HTTP client behavior shared across profiles: the
// identifying User-Agent and the optional proactive client-side rate limiter
// (additive to, never a replacement for, honoring server-dictated 429
// responses). ConnectTimeout and RequestTimeout are validated but not
// applied: the HTTP client built for a profile sets no connect or request
// timeout from them.
type NetworkConfig struct {
	ConnectTimeout string  `toml:"connect_timeout"`
	RequestTimeout string  `toml:"request_timeout"`
	UserAgent      string  `toml:"user_agent"`
	RateLimitRPS   float64 `toml:"rate_limit_rps"`
	RateLimitBurst int     `toml:"rate_limit_burst"`
}
