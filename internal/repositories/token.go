package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/tandem/internal/shared"
	"golang.org/x/oauth2"
)

// TokenRepository implements [spotify.TokenStore] over SQLite, one OAuth
// token per user.
type TokenRepository struct {
	db *sql.DB
}

// NewTokenRepository creates a new [TokenRepository] with the given database connection.
func NewTokenRepository(db *sql.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

// Get retrieves the user's token, returning nil when none is stored.
func (r *TokenRepository) Get(ctx context.Context, userID string) (*oauth2.Token, error) {
	query := `
		SELECT access_token, refresh_token, token_type, expiry
		FROM tokens
		WHERE user_id = ?
	`

	var (
		accessToken  string
		refreshToken sql.NullString
		tokenType    string
		expiry       sql.NullTime
	)

	err := r.db.QueryRowContext(ctx, query, shared.CanonicalID(userID)).
		Scan(&accessToken, &refreshToken, &tokenType, &expiry)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query token: %w", err)
	}

	token := &oauth2.Token{
		AccessToken: accessToken,
		TokenType:   tokenType,
	}
	if refreshToken.Valid {
		token.RefreshToken = refreshToken.String
	}
	if expiry.Valid {
		token.Expiry = expiry.Time
	}

	return token, nil
}

// Save stores the user's token, replacing any previous one.
func (r *TokenRepository) Save(ctx context.Context, userID string, token *oauth2.Token) error {
	if token == nil || token.AccessToken == "" {
		return fmt.Errorf("%w: token", shared.ErrMissingArgument)
	}

	query := `
		INSERT INTO tokens (user_id, access_token, refresh_token, token_type, expiry, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			token_type = excluded.token_type,
			expiry = excluded.expiry,
			updated_at = excluded.updated_at
	`

	tokenType := token.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}

	_, err := r.db.ExecContext(ctx, query,
		shared.CanonicalID(userID), token.AccessToken, nullString(token.RefreshToken),
		tokenType, nullTime(token.Expiry), time.Now())
	if err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}

	return nil
}
