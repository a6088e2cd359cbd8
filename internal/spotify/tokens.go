package spotify

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tandem/internal/shared"
	"golang.org/x/oauth2"
)

// TokenStore persists OAuth tokens per user.
//
// Implemented by repositories.TokenRepository.
type TokenStore interface {
	Get(ctx context.Context, userID string) (*oauth2.Token, error)
	Save(ctx context.Context, userID string, token *oauth2.Token) error
}

// TokenService hands out Spotify access tokens for users, refreshing
// expired tokens through the OAuth2 refresh flow and writing the refreshed
// token back to the store.
type TokenService struct {
	config *oauth2.Config
	store  TokenStore
	logger *log.Logger
}

// NewTokenService creates a TokenService backed by the given store.
func NewTokenService(auth *Authenticator, store TokenStore, logger *log.Logger) *TokenService {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &TokenService{
		config: auth.OAuthConfig(),
		store:  store,
		logger: shared.WithLogger(logger, "component", "tokens"),
	}
}

// AccessToken returns a bearer token for the user.
//
// When refreshIfExpired is false an expired token is returned as-is; the
// caller gets the resulting 401 instead of a refresh round-trip. Users with
// no stored token fail with [shared.ErrNotAuthenticated].
func (s *TokenService) AccessToken(ctx context.Context, userID string, refreshIfExpired bool) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("%w: user id", shared.ErrMissingArgument)
	}

	token, err := s.store.Get(ctx, shared.CanonicalID(userID))
	if err != nil {
		return "", fmt.Errorf("failed to load token: %w", err)
	}
	if token == nil {
		return "", fmt.Errorf("%w: no Spotify token for user %s", shared.ErrNotAuthenticated, userID)
	}

	if token.Valid() || !refreshIfExpired {
		return token.AccessToken, nil
	}

	refreshed, err := s.config.TokenSource(ctx, token).Token()
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrRefreshFailed, err)
	}

	if refreshed.AccessToken != token.AccessToken {
		s.logger.Debug("refreshed access token", "user", userID)
		if err := s.store.Save(ctx, shared.CanonicalID(userID), refreshed); err != nil {
			// The refreshed token still works for this request.
			s.logger.Warn("failed to persist refreshed token", "user", userID, "error", err)
		}
	}

	return refreshed.AccessToken, nil
}
