package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
	"golang.org/x/oauth2"

	"github.com/michaelmarley-sas/okta-sdk-go/internal/config"
	"github.com/michaelmarley-sas/okta-sdk-go/internal/oktacache"
	"github.com/michaelmarley-sas/okta-sdk-go/internal/oktahttp"
	"github.com/michaelmarley-sas/okta-sdk-go/internal/tokenfile"
)

// sswsTokenType marks a cached token record as wrapping a static SSWS token
// rather than an OAuth bearer token — there is no refresh flow for it.
const sswsTokenType = "SSWS"

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authentication diagnostics for the active profile",
	}

	cmd.AddCommand(newAuthLoginCmd())
	cmd.AddCommand(newAuthWhoamiCmd())
	cmd.AddCommand(newAuthStatsCmd())

	return cmd
}

func newAuthLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Verify the active profile's credentials and cache the org's user info",
		Long: `Issues a GET /api/v1/users/me request using the credentials already configured
for the active profile (api_token, or client_id/client_secret for OAuth client
credentials — see the [org.<name>] section of the config file). Credential
resolution itself is out of scope here; this only confirms the configured
credentials are accepted by the org and saves the result to the profile's
token file.`,
		RunE: runAuthLogin,
	}
}

func newAuthWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Display the authenticated user for the active profile",
		RunE:  runAuthWhoami,
	}
}

func newAuthStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show request latency percentiles and recent failure counts",
		RunE:  runAuthStats,
	}
}

// whoamiUser is the subset of Okta's user resource auth commands display.
type whoamiUser struct {
	ID          string `json:"id"`
	Login       string `json:"login"`
	DisplayName string `json:"displayName"`
	Status      string `json:"status"`
}

func runAuthLogin(cmd *cobra.Command, _ []string) error {
	cc := mustCLIContext(cmd.Context())

	me, err := fetchMe(cmd.Context(), cc.Executor)
	if err != nil {
		return fmt.Errorf("verifying credentials: %w", err)
	}

	if err := cacheWhoami(cc.Profile, me); err != nil {
		cc.Logger.Warn("failed to cache auth metadata", "error", err.Error())
	}

	cc.Statusf("Authenticated as %s (%s) against %s\n", me.Login, me.ID, cc.Profile.BaseURL)

	return printWhoami(cc, me)
}

func runAuthWhoami(cmd *cobra.Command, _ []string) error {
	cc := mustCLIContext(cmd.Context())

	me, err := fetchMe(cmd.Context(), cc.Executor)
	if err != nil {
		return fmt.Errorf("fetching current user: %w", err)
	}

	return printWhoami(cc, me)
}

func runAuthStats(cmd *cobra.Command, _ []string) error {
	cc := mustCLIContext(cmd.Context())
	ctx := cmd.Context()

	snapshot := cc.Metrics.Snapshot()

	var total, recentFailures int

	if cc.Cache != nil {
		log := oktacache.NewAttemptLog(cc.Cache)

		var err error

		total, err = log.TotalCount(ctx)
		if err != nil {
			return fmt.Errorf("reading attempt log: %w", err)
		}

		recentFailures, err = log.RecentFailureCount(ctx, time.Now().Add(-1*time.Hour))
		if err != nil {
			return fmt.Errorf("reading attempt log: %w", err)
		}
	}

	if cc.Flags.JSON {
		out := struct {
			Count          int64  `json:"attempt_count"`
			P50            string `json:"p50"`
			P90            string `json:"p90"`
			P99            string `json:"p99"`
			Max            string `json:"max"`
			LoggedAttempts int    `json:"logged_attempts"`
			RecentFailures int    `json:"recent_failures_1h"`
		}{
			Count:          snapshot.Count,
			P50:            formatDuration(snapshot.P50),
			P90:            formatDuration(snapshot.P90),
			P99:            formatDuration(snapshot.P99),
			Max:            formatDuration(snapshot.Max),
			LoggedAttempts: total,
			RecentFailures: recentFailures,
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")

		return enc.Encode(out)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "calls observed:     %d\n", snapshot.Count)
	fmt.Fprintf(cmd.OutOrStdout(), "  p50: %s   p90: %s   p99: %s   max: %s\n",
		formatDuration(snapshot.P50), formatDuration(snapshot.P90), formatDuration(snapshot.P99), formatDuration(snapshot.Max))

	if cc.Cache != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "attempts logged:    %d\n", total)
		fmt.Fprintf(cmd.OutOrStdout(), "failures (last 1h): %d\n", recentFailures)
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), "(attempt log unavailable: rate-limit cache could not be opened)")
	}

	return nil
}

// fetchMe issues GET /api/v1/users/me and extracts the fields auth commands
// display, via gjson rather than a full user-resource decoder — the general
// REST/resource layer stays out of scope here.
func fetchMe(ctx context.Context, exec oktahttp.Executor) (*whoamiUser, error) {
	resp, err := exec.Execute(ctx, oktahttp.NewRequest(http.MethodGet, "/api/v1/users/me"))
	if err != nil {
		return nil, err
	}

	body := resp.Body()

	return &whoamiUser{
		ID:          gjson.GetBytes(body, "id").String(),
		Login:       gjson.GetBytes(body, "profile.login").String(),
		DisplayName: gjson.GetBytes(body, "profile.displayName").String(),
		Status:      gjson.GetBytes(body, "status").String(),
	}, nil
}

// cacheWhoami persists the authenticated user's id/login alongside a token
// record in the profile's token file. "auth whoami" does not read this file;
// it always fetches the user over the network. tokenfile.File requires a
// non-nil oauth2.Token; for an SSWS
// profile there is no OAuth token to cache, so the static API token is
// wrapped as a non-expiring token with TokenType "SSWS" purely so the same
// on-disk format and Save/Load helpers serve both auth types.
func cacheWhoami(profile *config.ResolvedProfile, me *whoamiUser) error {
	path := config.ProfileTokenPath(profile.Name)
	if path == "" {
		return fmt.Errorf("no token directory available for profile %q", profile.Name)
	}

	tok := &oauth2.Token{AccessToken: profile.APIToken, TokenType: sswsTokenType}
	if profile.AuthType == config.AuthTypeOAuthClientCredentials {
		tok = &oauth2.Token{TokenType: "Bearer"}
	}

	meta := map[string]string{
		"id":           me.ID,
		"login":        me.Login,
		"display_name": me.DisplayName,
		"base_url":     profile.BaseURL,
	}

	return tokenfile.Save(path, tok, meta)
}

func printWhoami(cc *CLIContext, me *whoamiUser) error {
	if cc.Flags.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		return enc.Encode(me)
	}

	fmt.Printf("%-16s %s\n", "ID", me.ID)
	fmt.Printf("%-16s %s\n", "Login", me.Login)
	fmt.Printf("%-16s %s\n", "Display name", me.DisplayName)
	fmt.Printf("%-16s %s\n", "Status", me.Status)

	return nil
}
