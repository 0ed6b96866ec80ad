package oktahttp

import (
	"context"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// authorizationHeader is the HTTP header TransportExecutor fills in from
// RequestAuthenticator's output.
const authorizationHeader = "Authorization"

// RequestAuthenticator supplies the Authorization header value for an
// outgoing request. It is an external collaborator to the retry/transport
// core (spec §5.1: "authentication is delegated, not owned"), invoked once
// per attempt so a refreshed token is picked up on retry.
type RequestAuthenticator interface {
	Authorize(ctx context.Context) (string, error)
}

// SSWSTokenAuthenticator authenticates with a static Okta API token (the
// "SSWS" scheme), Okta's simplest supported credential.
type SSWSTokenAuthenticator struct {
	token string
}

// NewSSWSTokenAuthenticator wraps a pre-issued Okta API token.
func NewSSWSTokenAuthenticator(token string) *SSWSTokenAuthenticator {
	return &SSWSTokenAuthenticator{token: token}
}

func (a *SSWSTokenAuthenticator) Authorize(context.Context) (string, error) {
	return "SSWS " + a.token, nil
}

// OAuthClientCredentialsAuthenticator authenticates via the OAuth2 client
// credentials grant, caching and silently refreshing the bearer token
// between requests.
type OAuthClientCredentialsAuthenticator struct {
	src oauth2.TokenSource
}

// NewOAuthClientCredentialsAuthenticator builds an authenticator that
// exchanges clientID/clientSecret for bearer tokens against tokenURL,
// requesting the given scopes. Token acquisition and silent refresh are
// handled by clientcredentials.Config; the result is cached by
// oauth2.ReuseTokenSource so steady-state calls avoid a network round trip.
func NewOAuthClientCredentialsAuthenticator(ctx context.Context, clientID, clientSecret, tokenURL string, scopes []string) *OAuthClientCredentialsAuthenticator {
	cfg := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     tokenURL,
		Scopes:       scopes,
	}

	return &OAuthClientCredentialsAuthenticator{src: cfg.TokenSource(ctx)}
}

func (a *OAuthClientCredentialsAuthenticator) Authorize(ctx context.Context) (string, error) {
	tok, err := a.src.Token()
	if err != nil {
		return "", &TransportError{Message: "obtaining client-credentials token", Cause: err}
	}

	return tok.Type() + " " + tok.AccessToken, nil
}
