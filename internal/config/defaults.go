package config

// Default values for configuration options. These represent the "layer 0"
// of the override chain (defaults -> config file -> environment variables)
// and are chosen to be safe, reasonable starting points that work without
// any config file at all.
const (
	defaultMaxAttempts      = 4
	defaultMaxElapsedMillis = 60_000
	defaultBackoffStrategy  = "default"
	defaultUserAgentString  = "okta-sdk-go/1.0"
	defaultConnectTimeout   = "10s"
	defaultRequestTimeout   = "60s"
	defaultLogLevel         = "info"
	defaultLogFormat        = "auto"
)

// DefaultConfig returns a Config populated with all default values. This is
// used both as the starting point for TOML decoding (so unset fields retain
// defaults) and as the fallback when no config file exists.
func DefaultConfig() *Config {
	return &Config{
		Profiles: make(map[string]Profile),
		Retry:    defaultRetryConfig(),
		Pool:     defaultPoolConfigTOML(),
		Logging:  defaultLoggingConfig(),
		Network:  defaultNetworkConfig(),
	}
}

func defaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:      defaultMaxAttempts,
		MaxElapsedMillis: defaultMaxElapsedMillis,
		Backoff:          defaultBackoffStrategy,
	}
}

// defaultPoolConfigTOML leaves MaxPerRoute/MaxTotal at zero, which Load
// callers interpret as "use oktahttp.DefaultPoolConfig()" — the process-wide
// defaults already carry math.MaxInt32-scale ceilings that don't belong in
// this package.
func defaultPoolConfigTOML() PoolConfigTOML {
	return PoolConfigTOML{}
}

func defaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		LogLevel:  defaultLogLevel,
		LogFormat: defaultLogFormat,
	}
}

func defaultNetworkConfig() NetworkConfig {
	return NetworkConfig{
		ConnectTimeout: defaultConnectTimeout,
		RequestTimeout: defaultRequestTimeout,
		UserAgent:      defaultUserAgentString,
	}
}
