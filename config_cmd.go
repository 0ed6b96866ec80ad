package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/michaelmarley-sas/okta-sdk-go/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the resolved configuration",
	}

	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigPathCmd())

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the active profile's fully resolved configuration",
		Long: `Prints the effective configuration for the active profile after applying the
override chain: built-in defaults, the config file's global sections, the
profile's own section overrides, and finally environment variable secret
overrides (OKTA_CLIENT_TOKEN / OKTA_CLIENT_SECRET). Secrets are redacted.`,
		RunE: runConfigShow,
	}
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "path",
		Short:       "Print the resolved config file path",
		Annotations: map[string]string{skipConfigAnnotation: "true"},
		RunE:        runConfigPath,
	}
}

// redactedProfile mirrors config.ResolvedProfile but masks secret fields —
// "config show" is a diagnostic command, not a credential-dumping one.
type redactedProfile struct {
	Name           string   `json:"name"`
	BaseURL        string   `json:"base_url"`
	AuthType       string   `json:"auth_type"`
	APIToken       string   `json:"api_token,omitempty"`
	ClientID       string   `json:"client_id,omitempty"`
	ClientSecret   string   `json:"client_secret,omitempty"`
	TokenURL       string   `json:"token_url,omitempty"`
	Scopes         []string `json:"scopes,omitempty"`
	MaxAttempts    int      `json:"retry_max_attempts"`
	Backoff        string   `json:"retry_backoff"`
	RateLimitRPS   float64  `json:"rate_limit_rps"`
	RateLimitBurst int      `json:"rate_limit_burst"`
	UserAgent      string   `json:"user_agent"`
	CachePath      string   `json:"cache_path"`
	TokenPath      string   `json:"token_path"`
}

const redactedValue = "********"

func runConfigShow(cmd *cobra.Command, _ []string) error {
	cc := mustCLIContext(cmd.Context())
	p := cc.Profile

	out := redactedProfile{
		Name:           p.Name,
		BaseURL:        p.BaseURL,
		AuthType:       p.AuthType,
		TokenURL:       p.TokenURL,
		Scopes:         p.Scopes,
		MaxAttempts:    p.Retry.MaxAttempts,
		Backoff:        p.Retry.Backoff,
		RateLimitRPS:   p.Network.RateLimitRPS,
		RateLimitBurst: p.Network.RateLimitBurst,
		UserAgent:      p.Network.UserAgent,
		CachePath:      config.ProfileCachePath(p.Name),
		TokenPath:      config.ProfileTokenPath(p.Name),
	}

	if p.APIToken != "" {
		out.APIToken = redactedValue
	}

	if p.ClientID != "" {
		out.ClientID = p.ClientID
	}

	if p.ClientSecret != "" {
		out.ClientSecret = redactedValue
	}

	if cc.Flags.JSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")

		return enc.Encode(out)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%-16s %s\n", "profile", out.Name)
	fmt.Fprintf(w, "%-16s %s\n", "base_url", out.BaseURL)
	fmt.Fprintf(w, "%-16s %s\n", "auth_type", out.AuthType)
	fmt.Fprintf(w, "%-16s %d\n", "max_attempts", out.MaxAttempts)
	fmt.Fprintf(w, "%-16s %s\n", "backoff", out.Backoff)
	fmt.Fprintf(w, "%-16s %s\n", "user_agent", out.UserAgent)
	fmt.Fprintf(w, "%-16s %s\n", "cache_path", out.CachePath)

	return nil
}

func runConfigPath(cmd *cobra.Command, _ []string) error {
	env := config.ReadEnvOverrides()
	cli := config.CLIOverrides{ConfigPath: flagConfigPath, Profile: flagProfile}
	logger := buildLogger(config.LoggingConfig{})

	fmt.Fprintln(cmd.OutOrStdout(), config.ResolveConfigPath(env, cli, logger))

	return nil
}
