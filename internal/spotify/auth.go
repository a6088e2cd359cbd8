package spotify

import (
	"context"
	"fmt"

	"github.com/desertthunder/tandem/internal/shared"
	"golang.org/x/oauth2"
)

// Scopes required to read and steer playback on a listener's device.
var playbackScopes = []string{
	"user-read-private",
	"user-read-playback-state",
	"user-modify-playback-state",
}

// Authenticator drives the OAuth2 authorization-code flow for Spotify.
type Authenticator struct {
	config *oauth2.Config
}

// NewAuthenticator creates an Authenticator from app credentials.
func NewAuthenticator(clientID, clientSecret, redirectURI string) (*Authenticator, error) {
	if clientID == "" || clientSecret == "" {
		return nil, fmt.Errorf("%w: Spotify client_id and client_secret are required", shared.ErrMissingCredentials)
	}
	if redirectURI == "" {
		redirectURI = "http://localhost:3000/callback"
	}

	return &Authenticator{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURI,
			Scopes:       playbackScopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  spotifyAuthURL,
				TokenURL: spotifyTokenURL,
			},
		},
	}, nil
}

// AuthURL returns the authorization URL for user login.
func (a *Authenticator) AuthURL(state string) string {
	return a.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Exchange trades an authorization code for a token.
func (a *Authenticator) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := a.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange auth code: %w", err)
	}
	return token, nil
}

// OAuthConfig exposes the underlying [oauth2.Config] for callback handlers.
func (a *Authenticator) OAuthConfig() *oauth2.Config {
	return a.config
}
