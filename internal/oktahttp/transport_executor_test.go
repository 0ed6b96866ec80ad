package oktahttp

import (
	"bytes"
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTransportExecutor(t *testing.T, srv *httptest.Server, authz string) *TransportExecutor {
	t.Helper()

	exec, err := NewTransportExecutor(TransportExecutorConfig{
		BaseURL:       srv.URL,
		Authenticator: NewSSWSTokenAuthenticator(authz),
		Pool:          DefaultPoolConfig(),
	})
	require.NoError(t, err)

	return exec
}

func TestTransportExecutor_SetsAuthorizationAndUserAgent(t *testing.T) {
	var gotAuthz, gotUA string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuthz = r.Header.Get("Authorization")
		gotUA = r.Header.Get("User-Agent")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	exec := newTestTransportExecutor(t, srv, "00abc")

	resp, err := exec.Execute(context.Background(), NewRequest(http.MethodGet, "/api/v1/users"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, "SSWS 00abc", gotAuthz)
	assert.Equal(t, defaultUserAgent, gotUA)
}

func TestTransportExecutor_EncodesQueryAndPath(t *testing.T) {
	var gotPath, gotQuery string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	exec := newTestTransportExecutor(t, srv, "tok")

	req := NewRequest(http.MethodGet, "/api/v1/users")
	req.Query.Add("filter", `status eq "ACTIVE"`)
	req.Query.Add("limit", "20")

	_, err := exec.Execute(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "/api/v1/users", gotPath)
	assert.Equal(t, "filter=status+eq+%22ACTIVE%22&limit=20", gotQuery)
}

func TestTransportExecutor_DecodesGzipBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		gz := gzip.NewWriter(&buf)
		_, _ = gz.Write([]byte(`{"id":"00u1"}`))
		_ = gz.Close()

		w.Header().Set("Content-Encoding", "gzip")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(buf.Bytes())
	}))
	defer srv.Close()

	exec := newTestTransportExecutor(t, srv, "tok")

	resp, err := exec.Execute(context.Background(), NewRequest(http.MethodGet, "/api/v1/users/00u1"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"00u1"}`, string(resp.Body()))
}

func TestTransportExecutor_SurfacesRequestIDAndLinkHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(RequestIDHeader, "req-77")
		w.Header().Add("Link", `<https://example.okta.com/api/v1/users?after=2>; rel="next"`)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	exec := newTestTransportExecutor(t, srv, "tok")

	resp, err := exec.Execute(context.Background(), NewRequest(http.MethodGet, "/api/v1/users"))
	require.NoError(t, err)
	assert.Equal(t, "req-77", resp.RequestID())
	assert.Len(t, resp.Headers.Link(), 1)
}

func TestTransportExecutor_AuthenticatorErrorSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("server should not be contacted when authentication fails")
	}))
	defer srv.Close()

	exec, err := NewTransportExecutor(TransportExecutorConfig{
		BaseURL:       srv.URL,
		Authenticator: failingAuthenticator{},
		Pool:          DefaultPoolConfig(),
	})
	require.NoError(t, err)

	resp, execErr := exec.Execute(context.Background(), NewRequest(http.MethodGet, "/api/v1/users"))
	assert.Nil(t, resp)
	require.Error(t, execErr)
}

type failingAuthenticator struct{}

func (failingAuthenticator) Authorize(context.Context) (string, error) {
	return "", assertError("no credentials configured")
}

type fakeRateLimitCache struct {
	waitErr    error
	calledHost string
}

func (f *fakeRateLimitCache) WaitIfLimited(_ context.Context, host string) error {
	f.calledHost = host

	return f.waitErr
}

func TestTransportExecutor_ConsultsRateLimitCacheBeforeRequest(t *testing.T) {
	called := false

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cache := &fakeRateLimitCache{}

	exec, err := NewTransportExecutor(TransportExecutorConfig{
		BaseURL:        srv.URL,
		Authenticator:  NewSSWSTokenAuthenticator("tok"),
		Pool:           DefaultPoolConfig(),
		RateLimitCache: cache,
	})
	require.NoError(t, err)

	_, err = exec.Execute(context.Background(), NewRequest(http.MethodGet, "/api/v1/users"))
	require.NoError(t, err)
	assert.True(t, called)

	parsed, parseErr := url.Parse(srv.URL)
	require.NoError(t, parseErr)
	assert.Equal(t, parsed.Host, cache.calledHost)
}

func TestTransportExecutor_RateLimitCacheBlocksRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("server should not be contacted when the rate-limit cache blocks")
	}))
	defer srv.Close()

	cache := &fakeRateLimitCache{waitErr: assertError("still rate limited")}

	exec, err := NewTransportExecutor(TransportExecutorConfig{
		BaseURL:        srv.URL,
		Authenticator:  NewSSWSTokenAuthenticator("tok"),
		Pool:           DefaultPoolConfig(),
		RateLimitCache: cache,
	})
	require.NoError(t, err)

	resp, execErr := exec.Execute(context.Background(), NewRequest(http.MethodGet, "/api/v1/users"))
	assert.Nil(t, resp)
	require.Error(t, execErr)
}
