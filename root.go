package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/michaelmarley-sas/okta-sdk-go/internal/config"
	"github.com/michaelmarley-sas/okta-sdk-go/internal/oktacache"
	"github.com/michaelmarley-sas/okta-sdk-go/internal/oktahttp"
	"github.com/michaelmarley-sas/okta-sdk-go/internal/oktametrics"
)

// version is set at build time via ldflags.
var version = "dev"

// Global persistent flags, bound in newRootCmd().
var (
	flagConfigPath string
	flagProfile    string
	flagJSON       bool
	flagVerbose    bool
	flagDebug      bool
	flagQuiet      bool
)

// skipConfigAnnotation marks commands that handle config loading themselves.
// Commands annotated with this key skip the automatic override-chain
// resolution in PersistentPreRunE.
const skipConfigAnnotation = "skipConfig"

// CLIContext bundles the resolved profile, logger, and wired executors.
// Created once in PersistentPreRunE; eliminates redundant setup in RunE
// handlers.
type CLIContext struct {
	Profile  *config.ResolvedProfile
	Logger   *slog.Logger
	Executor oktahttp.Executor
	Metrics  *oktametrics.Recorder
	Cache    *oktacache.Store
	Flags    struct {
		JSON  bool
		Quiet bool
	}
}

// Statusf prints a status message to stderr unless quiet mode is set.
func (cc *CLIContext) Statusf(format string, args ...any) {
	statusf(cc.Flags.Quiet, format, args...)
}

// cliContextKey is the context key for CLIContext.
type cliContextKey struct{}

// cliContextFrom extracts the CLIContext from the command's context. Returns
// nil if no config was loaded (e.g., commands that skip config).
func cliContextFrom(ctx context.Context) *CLIContext {
	cc, ok := ctx.Value(cliContextKey{}).(*CLIContext)
	if !ok {
		return nil
	}

	return cc
}

// mustCLIContext extracts the CLIContext or panics with an actionable
// message. Panics are always programmer errors — the command tree should
// guarantee the context is populated by PersistentPreRunE before RunE runs.
func mustCLIContext(ctx context.Context) *CLIContext {
	cc := cliContextFrom(ctx)
	if cc == nil {
		panic("BUG: CLIContext not found in context — ensure the command " +
			"does not skip config loading (no skipConfigAnnotation) or " +
			"explicitly loads config in its RunE")
	}

	return cc
}

// newRootCmd builds and returns the fully-assembled root command with all
// subcommands registered. Called once from main().
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "oktactl",
		Short:   "Okta API client CLI",
		Long:    "A demo CLI built on the Okta HTTP request execution core: retry/backoff/rate-limit aware requests against an Okta org.",
		Version: version,
		// Silence Cobra's default error/usage printing — we handle it ourselves.
		SilenceErrors: true,
		SilenceUsage:  true,
		// PersistentPreRunE loads configuration before every command. Commands
		// annotated with skipConfigAnnotation handle config access themselves.
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Annotations[skipConfigAnnotation] == "true" {
				return nil
			}

			return loadConfig(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "config file path")
	cmd.PersistentFlags().StringVar(&flagProfile, "profile", "", "org profile to use (see [org.<name>] in the config file)")
	cmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output in JSON format")
	cmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "show detailed output")
	cmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "enable debug logging (HTTP requests, config resolution)")
	cmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "suppress informational output")

	cmd.MarkFlagsMutuallyExclusive("verbose", "debug", "quiet")

	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newAuthCmd())
	cmd.AddCommand(newRequestCmd())
	cmd.AddCommand(newUsersCmd())

	return cmd
}

// loadConfig resolves the effective profile from the override chain and
// stores the result, a logger, and wired executors in the command's context
// for use by subcommands.
func loadConfig(cmd *cobra.Command) error {
	// Bootstrap logger derived from CLI flags only (config doesn't exist yet).
	logger := buildLogger(config.LoggingConfig{})

	cli := config.CLIOverrides{
		ConfigPath: flagConfigPath,
		Profile:    flagProfile,
	}

	env := config.ReadEnvOverrides()

	logger.Debug("resolving config",
		slog.String("config_path", cli.ConfigPath),
		slog.String("cli_profile", cli.Profile),
		slog.String("env_config", env.ConfigPath),
		slog.String("env_profile", env.Profile),
	)

	resolved, _, err := config.ResolveActiveProfile(env, cli, logger)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Build the final logger incorporating config-file log level.
	finalLogger := buildLogger(resolved.Logging)

	executor, cache, err := buildExecutor(cmd.Context(), resolved, finalLogger)
	if err != nil {
		return fmt.Errorf("building HTTP executor: %w", err)
	}

	recorder := oktametrics.NewRecorder()

	cc := &CLIContext{
		Profile:  resolved,
		Logger:   finalLogger,
		Executor: oktametrics.Wrap(executor, recorder),
		Metrics:  recorder,
		Cache:    cache,
	}
	cc.Flags.JSON = flagJSON
	cc.Flags.Quiet = flagQuiet

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cmd.SetContext(context.WithValue(ctx, cliContextKey{}, cc))

	return nil
}

// buildExecutor constructs the RetryExecutor/TransportExecutor pair for the
// resolved profile: an authenticator chosen by auth_type, an optional
// proactive rate limiter, an optional persisted rate-limit pre-flight cache,
// and a backoff strategy chosen by the retry.backoff config name.
func buildExecutor(ctx context.Context, resolved *config.ResolvedProfile, logger *slog.Logger) (oktahttp.Executor, *oktacache.Store, error) {
	authenticator, err := buildAuthenticator(ctx, resolved)
	if err != nil {
		return nil, nil, err
	}

	pool := poolFromConfig(resolved.Pool)

	var proxy func(*http.Request) (*url.URL, error)
	if resolved.Proxy.URL != "" {
		proxyURL, err := url.Parse(resolved.Proxy.URL)
		if err != nil {
			return nil, nil, fmt.Errorf("parsing proxy.url: %w", err)
		}

		proxy = http.ProxyURL(proxyURL)
	}

	var limiter *oktahttp.RequestLimiter
	if resolved.Network.RateLimitRPS > 0 {
		limiter = oktahttp.NewRequestLimiter(resolved.Network.RateLimitRPS, resolved.Network.RateLimitBurst)
	}

	var cache *oktacache.Store

	var rlCache oktahttp.RateLimitCache

	cachePath := config.ProfileCachePath(resolved.Name)
	if cachePath != "" {
		store, err := oktacache.Open(cachePath, logger)
		if err != nil {
			logger.Warn("failed to open rate-limit cache, continuing without it", slog.String("error", err.Error()))
		} else {
			cache = store
			rlCache = oktacache.NewRateLimitCache(store)
		}
	}

	transport, err := oktahttp.NewTransportExecutor(oktahttp.TransportExecutorConfig{
		BaseURL:        resolved.BaseURL,
		Authenticator:  authenticator,
		Pool:           pool,
		Limiter:        limiter,
		RateLimitCache: rlCache,
		UserAgent:      resolved.Network.UserAgent,
		Logger:         logger,
		Proxy:          proxy,
	})
	if err != nil {
		return nil, cache, err
	}

	var inner oktahttp.Executor = transport
	if cache != nil {
		inner = oktacache.NewAuditingExecutor(transport, oktacache.NewAttemptLog(cache))
	}

	retryCfg := oktahttp.RetryExecutorConfig{
		MaxAttempts:      resolved.Retry.MaxAttempts,
		MaxElapsedMillis: resolved.Retry.MaxElapsedMillis,
		BackoffStrategy:  buildBackoffStrategy(resolved.Retry.Backoff),
	}

	return oktahttp.NewRetryExecutor(inner, retryCfg, logger), cache, nil
}

// buildAuthenticator selects a RequestAuthenticator by the profile's
// auth_type. ValidateResolved already guarantees the required credential
// fields are present by the time this runs.
func buildAuthenticator(ctx context.Context, resolved *config.ResolvedProfile) (oktahttp.RequestAuthenticator, error) {
	switch resolved.AuthType {
	case config.AuthTypeSSWS:
		return oktahttp.NewSSWSTokenAuthenticator(resolved.APIToken), nil
	case config.AuthTypeOAuthClientCredentials:
		return oktahttp.NewOAuthClientCredentialsAuthenticator(
			ctx, resolved.ClientID, resolved.ClientSecret, resolved.TokenURL, resolved.Scopes,
		), nil
	default:
		return nil, fmt.Errorf("unsupported auth_type %q", resolved.AuthType)
	}
}

// buildBackoffStrategy maps a config backoff name to a BackoffStrategy.
// "default" (and any unrecognized name) leaves the field nil, which lets
// RetryExecutor's own 429-aware/default-schedule precedence apply.
func buildBackoffStrategy(name string) oktahttp.BackoffStrategy {
	switch name {
	case "equal_jitter":
		return oktahttp.NewEqualJitterBackoff()
	case "fibonacci":
		return oktahttp.NewFibonacciBackoff()
	default:
		return nil
	}
}

// buildLogger creates an slog.Logger configured by the resolved logging
// section and CLI flags. Config-file log level provides the baseline;
// --verbose, --debug, and --quiet override it because CLI flags always win.
// The flags are mutually exclusive (enforced by Cobra). Output goes to stderr
// through a JSON handler when stderr isn't a terminal (or --json was passed),
// and through slog's plain text handler otherwise.
func buildLogger(cfg config.LoggingConfig) *slog.Logger {
	level := slog.LevelWarn

	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	if flagVerbose {
		level = slog.LevelInfo
	}

	if flagDebug {
		level = slog.LevelDebug
	}

	if flagQuiet {
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	if flagJSON || !isatty.IsTerminal(os.Stderr.Fd()) {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}

	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// exitOnError prints a user-friendly error message to stderr and exits.
func exitOnError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

// poolFromConfig translates the config package's PoolConfigTOML into
// oktahttp.PoolConfig. A zero-valued section (the TOML default) means
// "fall back to oktahttp.DefaultPoolConfig()".
func poolFromConfig(p config.PoolConfigTOML) oktahttp.PoolConfig {
	if p.MaxPerRoute == 0 && p.MaxTotal == 0 {
		return oktahttp.DefaultPoolConfig()
	}

	return oktahttp.PoolConfig{MaxPerRoute: p.MaxPerRoute, MaxTotal: p.MaxTotal}
}

// hostOf extracts the host:port of a base URL for display/cache-key
// purposes, defaulting to the raw string on a parse failure.
func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	return u.Host
}
