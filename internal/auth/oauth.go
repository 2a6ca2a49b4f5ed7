package auth

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
)

const (
	authorizeURL = "https://claude.ai/oauth/authorize"
	tokenURL     = "https://console.anthropic.com/v1/oauth/token"
	redirectURI  = "http://localhost:54545/callback"
	clientID     = "9d1c250a-e61b-44d9-88ed-5944d1962f5e"
)

// Flow drives one PKCE-based OAuth login.
type Flow struct {
	config *oauth2.Config
	pkce   *PKCE
}

// NewFlow generates a fresh PKCE pair and builds the oauth2.Config for the
// login endpoints.
func NewFlow() (*Flow, error) {
	pkce, err := NewPKCE()
	if err != nil {
		return nil, fmt.Errorf("failed to generate PKCE parameters: %w", err)
	}
	return &Flow{
		pkce: pkce,
		config: &oauth2.Config{
			ClientID:    clientID,
			RedirectURL: redirectURI,
			Scopes:      []string{"org:create_api_key", "user:profile", "user:inference"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  authorizeURL,
				TokenURL: tokenURL,
			},
		},
	}, nil
}

// AuthURL returns the browser URL the user should open to approve login.
func (f *Flow) AuthURL() string {
	return f.config.AuthCodeURL(f.pkce.State,
		oauth2.SetAuthURLParam("code_challenge", f.pkce.Challenge),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
		oauth2.SetAuthURLParam("response_type", "code"),
	)
}

// Exchange completes the flow given the authorization code returned to
// the redirect URI (rejecting a state mismatch).
func (f *Flow) Exchange(ctx context.Context, code, state string) (*oauth2.Token, error) {
	if state != f.pkce.State {
		return nil, fmt.Errorf("oauth state mismatch")
	}
	return f.config.Exchange(ctx, code,
		oauth2.SetAuthURLParam("code_verifier", f.pkce.Verifier),
	)
}

// Client returns an *http.Client that attaches tok as a bearer token and
// refreshes it automatically via tokenSource, for calls other than the
// Messages API (which attaches its own bearer header per request).
func (f *Flow) Client(ctx context.Context, tok *oauth2.Token) *http.Client {
	return oauth2.NewClient(ctx, f.config.TokenSource(ctx, tok))
}
