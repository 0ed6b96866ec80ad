package oktahttp

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"go.uber.org/multierr"
)

const (
	defaultUserAgent  = "okta-sdk-go/1.0"
	acceptEncodingGz  = "gzip"
	contentEncodingGz = "gzip"
)

// RateLimitCache is an optional pre-flight check consulted before every
// attempt: a client-side optimization layered on top of spec §4.1's 429
// handling, never changing what it computes. internal/oktacache implements
// this against a persisted per-host reset timestamp; nil (the default)
// never blocks.
type RateLimitCache interface {
	WaitIfLimited(ctx context.Context, host string) error
}

// TransportExecutor is the single-attempt executor (spec §4.2): it
// authenticates the request, builds a concrete wire request, submits it
// through the pooled transport, and normalizes the response back into the
// abstract Request/Response form. It holds the connection pool and
// transport-level (not request-level) credential wiring.
type TransportExecutor struct {
	baseURL        *url.URL
	httpClient     *http.Client
	authenticator  RequestAuthenticator
	limiter        *RequestLimiter
	rateLimitCache RateLimitCache
	logger         *slog.Logger
	userAgent      string
}

// TransportExecutorConfig bundles TransportExecutor's dependencies.
type TransportExecutorConfig struct {
	BaseURL       string
	Authenticator RequestAuthenticator
	Pool          PoolConfig
	Limiter       *RequestLimiter
	UserAgent     string
	Logger        *slog.Logger

	// RateLimitCache, if set, is consulted before every attempt so a
	// freshly started process can avoid repeating a 429 a prior process
	// already paid for.
	RateLimitCache RateLimitCache

	// Proxy overrides environment-based proxy resolution. Nil uses
	// HTTP_PROXY/HTTPS_PROXY/NO_PROXY via httpproxy.
	Proxy func(*http.Request) (*url.URL, error)
}

// NewTransportExecutor builds a TransportExecutor with its own pooled
// *http.Transport sized per cfg.Pool (spec §5).
func NewTransportExecutor(cfg TransportExecutorConfig) (*TransportExecutor, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("oktahttp: parsing base URL: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	transport := newPooledTransport(cfg.Pool, logger, cfg.Proxy)

	return &TransportExecutor{
		baseURL:        base,
		httpClient:     &http.Client{Transport: transport},
		authenticator:  cfg.Authenticator,
		limiter:        cfg.Limiter,
		rateLimitCache: cfg.RateLimitCache,
		logger:         logger,
		userAgent:      userAgent,
	}, nil
}

// Execute performs exactly one network exchange for req (spec §4.2). It
// never retries — that is the RetryExecutor's job.
func (t *TransportExecutor) Execute(ctx context.Context, req *Request) (*Response, error) {
	if t.rateLimitCache != nil {
		if err := t.rateLimitCache.WaitIfLimited(ctx, t.baseURL.Host); err != nil {
			return nil, newNetworkError(errOther, err)
		}
	}

	if t.limiter != nil {
		if err := t.limiter.Wait(ctx); err != nil {
			return nil, newNetworkError(errOther, err)
		}
	}

	wireReq, err := t.buildWireRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	httpResp, err := t.httpClient.Do(wireReq)
	if err != nil {
		return nil, newNetworkError(classifyNetworkError(err), err)
	}

	return t.normalizeResponse(httpResp)
}

// buildWireRequest authenticates req and converts it into a concrete
// *http.Request (spec §4.2 steps 1-2).
func (t *TransportExecutor) buildWireRequest(ctx context.Context, req *Request) (*http.Request, error) {
	authz, err := t.authenticator.Authorize(ctx)
	if err != nil {
		return nil, newNetworkError(errOther, err)
	}

	target := *t.baseURL
	target.Path = joinPath(target.Path, req.Path)
	target.RawQuery = req.Query.Encode()

	wireReq, err := http.NewRequestWithContext(ctx, req.Method, target.String(), req.Body)
	if err != nil {
		return nil, newNetworkError(errOther, err)
	}

	for _, key := range req.Headers.keys() {
		for _, v := range req.Headers.Values(key) {
			wireReq.Header.Add(key, v)
		}
	}

	wireReq.Header.Set(authorizationHeader, authz)
	wireReq.Header.Set("User-Agent", t.userAgent)
	wireReq.Header.Set("Accept-Encoding", acceptEncodingGz)
	wireReq.Header.Set(ClientTraceHeader, newClientTraceID())

	return wireReq, nil
}

// normalizeResponse reads, gzip-decodes if needed, and fully buffers the
// response body, then releases the underlying connection (spec §4.2 step 4
// and §5's "resource scoping": the stream is released on every exit path,
// including read errors). Close failures are combined into one logged
// warning and never change the returned response or error.
func (t *TransportExecutor) normalizeResponse(httpResp *http.Response) (resp *Response, err error) {
	var gz *gzip.Reader

	defer func() {
		var closeErr error
		if gz != nil {
			closeErr = multierr.Append(closeErr, gz.Close())
		}

		closeErr = multierr.Append(closeErr, httpResp.Body.Close())
		if closeErr != nil {
			t.logger.Warn("closing response body", slog.String("error", closeErr.Error()))
		}
	}()

	var reader io.Reader = httpResp.Body

	if httpResp.Header.Get("Content-Encoding") == contentEncodingGz {
		var gzErr error

		gz, gzErr = gzip.NewReader(httpResp.Body)
		if gzErr != nil {
			return nil, newNetworkError(errOther, fmt.Errorf("decompressing gzip response: %w", gzErr))
		}

		reader = gz
	}

	body, readErr := io.ReadAll(reader)
	if readErr != nil {
		return nil, newNetworkError(errReadTimeout, fmt.Errorf("reading response body: %w", readErr))
	}

	headers := FromHTTPHeader(httpResp.Header)

	return NewResponse(httpResp.StatusCode, headers, httpResp.ContentLength, body), nil
}

// classifyNetworkError maps a net/http client error to the errorKind
// taxonomy (spec §9's replacement for instanceof checks on Java socket
// exception types).
func classifyNetworkError(err error) errorKind {
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return errConnectTimeout
	}

	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return errNoResponse
	}

	return errOtherSocket
}

// joinPath concatenates a base path and a request path without producing a
// doubled or missing slash.
func joinPath(base, reqPath string) string {
	if base == "" {
		base = "/"
	}

	if len(base) > 0 && base[len(base)-1] == '/' {
		base = base[:len(base)-1]
	}

	if len(reqPath) == 0 || reqPath[0] != '/' {
		reqPath = "/" + reqPath
	}

	return base + reqPath
}
