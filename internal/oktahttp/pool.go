package oktahttp

import (
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"golang.org/x/net/http/httpproxy"
)

// Environment variables overriding the process-wide pool defaults (spec §5:
// "expose these as explicit constructor parameters with optional
// environment-variable fallback to preserve operator ergonomics").
const (
	envMaxPerRoute = "OKTA_HTTP_POOL_MAX_PER_ROUTE"
	envMaxTotal    = "OKTA_HTTP_POOL_MAX_TOTAL"
)

// PoolConfig holds the two process-wide connection pool properties from
// spec §5. Defaults are maxPerRoute = MaxInt32/2, maxTotal = MaxInt32,
// mirroring the source's INT_MAX/2 and INT_MAX.
type PoolConfig struct {
	MaxPerRoute int
	MaxTotal    int
}

// DefaultPoolConfig returns spec §5's documented defaults, with any
// OKTA_HTTP_POOL_* environment overrides applied.
func DefaultPoolConfig() PoolConfig {
	cfg := PoolConfig{
		MaxPerRoute: math.MaxInt32 / 2,
		MaxTotal:    math.MaxInt32,
	}

	if v, ok := envInt(envMaxPerRoute); ok {
		cfg.MaxPerRoute = v
	}

	if v, ok := envInt(envMaxTotal); ok {
		cfg.MaxTotal = v
	}

	return cfg
}

func envInt(name string) (int, bool) {
	raw := os.Getenv(name)
	if raw == "" {
		return 0, false
	}

	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return 0, false
	}

	return v, true
}

// normalize reverts both properties to the defaults and logs a warning if
// the caller's configuration inverts them (total < per-route), per spec §5.
func (p PoolConfig) normalize(logger *slog.Logger) PoolConfig {
	if p.MaxTotal < p.MaxPerRoute {
		if logger == nil {
			logger = slog.Default()
		}

		logger.Warn("connection pool configuration inverted (maxTotal < maxPerRoute), reverting to defaults",
			slog.Int("max_per_route", p.MaxPerRoute),
			slog.Int("max_total", p.MaxTotal),
		)

		return DefaultPoolConfig()
	}

	return p
}

// newPooledTransport builds the shared *http.Transport backing the process-
// wide pool (spec §5: "a single pool shared across calls"). Proxy
// resolution falls back to the standard HTTP_PROXY/HTTPS_PROXY/NO_PROXY
// environment variables via httpproxy when no explicit proxy is given.
func newPooledTransport(cfg PoolConfig, logger *slog.Logger, proxyFunc func(*http.Request) (*url.URL, error)) *http.Transport {
	cfg = cfg.normalize(logger)

	t := &http.Transport{
		MaxConnsPerHost:     cfg.MaxPerRoute,
		MaxIdleConnsPerHost: cfg.MaxPerRoute,
		MaxIdleConns:        cfg.MaxTotal,
		IdleConnTimeout:     90 * time.Second,
	}

	if proxyFunc != nil {
		t.Proxy = proxyFunc
	} else {
		proxyCfg := httpproxy.FromEnvironment()
		t.Proxy = func(req *http.Request) (*url.URL, error) {
			return proxyCfg.ProxyFunc()(req.URL)
		}
	}

	return t
}
