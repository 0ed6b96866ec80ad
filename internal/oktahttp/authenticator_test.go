package oktahttp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSSWSTokenAuthenticator(t *testing.T) {
	a := NewSSWSTokenAuthenticator("00abcXYZ")

	got, err := a.Authorize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "SSWS 00abcXYZ", got)
}

func TestOAuthClientCredentialsAuthenticator_FetchesAndFormatsBearerToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok-1","token_type":"Bearer","expires_in":3600}`))
	}))
	defer srv.Close()

	a := NewOAuthClientCredentialsAuthenticator(context.Background(), "client-id", "secret", srv.URL, []string{"okta.users.read"})

	got, err := a.Authorize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-1", got)
}

func TestOAuthClientCredentialsAuthenticator_TokenErrorSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"invalid_client"}`))
	}))
	defer srv.Close()

	a := NewOAuthClientCredentialsAuthenticator(context.Background(), "client-id", "wrong-secret", srv.URL, nil)

	_, err := a.Authorize(context.Background())
	require.Error(t, err)
}
