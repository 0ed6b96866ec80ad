package config

import "os"

// Environment variable names for overrides.
const (
	EnvConfig       = "OKTA_CLIENT_CONFIG"
	EnvProfile      = "OKTA_CLIENT_PROFILE"
	EnvAPIToken     = "OKTA_CLIENT_TOKEN"
	EnvClientSecret = "OKTA_CLIENT_SECRET"
)

// EnvOverrides holds values derived from environment variables. These are
// resolved by ReadEnvOverrides and made available to callers. APIToken and
// ClientSecret let operators keep credentials out of the TOML file entirely
// (CI, containers) instead of forcing every secret through disk.
type EnvOverrides struct {
	ConfigPath   string // OKTA_CLIENT_CONFIG: override config file path
	Profile      string // OKTA_CLIENT_PROFILE: active profile name
	APIToken     string // OKTA_CLIENT_TOKEN: SSWS token override
	ClientSecret string // OKTA_CLIENT_SECRET: OAuth client secret override
}

// ReadEnvOverrides reads environment variables and returns any overrides found.
// This does not modify the Config; callers apply the relevant fields.
func ReadEnvOverrides() EnvOverrides {
	return EnvOverrides{
		ConfigPath:   os.Getenv(EnvConfig),
		Profile:      os.Getenv(EnvProfile),
		APIToken:     os.Getenv(EnvAPIToken),
		ClientSecret: os.Getenv(EnvClientSecret),
	}
}
