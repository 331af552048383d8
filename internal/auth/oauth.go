package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

// GitHubUser is the slice of GitHub's /user API response we care about.
// GitHub returns a much larger object; we only unmarshal these fields.
type GitHubUser struct {
	ID    int64  `json:"id"`    // GitHub's numeric user ID — stable, never changes
	Login string `json:"login"` // GitHub username
	Email string `json:"email"` // primary public email (empty if hidden)
}

// GitHubProvider wraps golang.org/x/oauth2 for the GitHub Authorization
// Code flow: redirect the user out with AuthURL, trade the returned code
// for a profile with Exchange. The code→token exchange runs server-to-
// server with the client secret; the access token never reaches a browser.
type GitHubProvider struct {
	config *oauth2.Config
}

// NewGitHubProvider creates a GitHubProvider with the given OAuth App
// credentials. callbackURL must exactly match the callback registered on
// GitHub, e.g. "http://localhost:8080/auth/github/callback".
func NewGitHubProvider(clientID, clientSecret, callbackURL string) *GitHubProvider {
	return &GitHubProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes:       []string{"read:user", "user:email"},
			Endpoint:     github.Endpoint,
		},
	}
}

// AuthURL returns the GitHub authorization URL to redirect the user to.
// state is a random value the callback handler verifies against a cookie
// to stop cross-site forgery of the flow.
func (p *GitHubProvider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange trades the authorization code for a GitHub user profile:
// code → access token → GET /user.
func (p *GitHubProvider) Exchange(ctx context.Context, code string) (*GitHubUser, error) {
	oauthToken, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("auth: exchanging OAuth code: %w", err)
	}

	// Client returns an *http.Client that attaches the bearer token to
	// every request.
	client := p.config.Client(ctx, oauthToken)

	resp, err := client.Get("https://api.github.com/user")
	if err != nil {
		return nil, fmt.Errorf("auth: calling GitHub /user API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("auth: GitHub /user API returned status %d", resp.StatusCode)
	}

	var ghUser GitHubUser
	if err := json.NewDecoder(resp.Body).Decode(&ghUser); err != nil {
		return nil, fmt.Errorf("auth: decoding GitHub /user response: %w", err)
	}

	if ghUser.ID == 0 {
		return nil, fmt.Errorf("auth: GitHub returned an invalid user (ID = 0)")
	}

	return &ghUser, nil
}
