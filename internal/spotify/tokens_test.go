package spotify

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tandem/internal/shared"
	"golang.org/x/oauth2"
)

func newTestTokenService(store TokenStore, tokenURL string) *TokenService {
	return &TokenService{
		config: &oauth2.Config{
			ClientID:     "client-id",
			ClientSecret: "client-secret",
			Endpoint:     oauth2.Endpoint{TokenURL: tokenURL},
		},
		store:  store,
		logger: log.New(io.Discard),
	}
}

func TestTokenService(t *testing.T) {
	ctx := context.Background()

	t.Run("Missing User ID", func(t *testing.T) {
		svc := newTestTokenService(&memStore{}, "")

		_, err := svc.AccessToken(ctx, "", true)
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Fatalf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("No Stored Token", func(t *testing.T) {
		svc := newTestTokenService(&memStore{}, "")

		_, err := svc.AccessToken(ctx, "alice", true)
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Fatalf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("Valid Token Returned As Is", func(t *testing.T) {
		store := &memStore{tokens: map[string]*oauth2.Token{
			"alice": {AccessToken: "fresh", Expiry: time.Now().Add(time.Hour)},
		}}
		svc := newTestTokenService(store, "")

		got, err := svc.AccessToken(ctx, "Alice", true)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got != "fresh" {
			t.Errorf("expected stored token, got %q", got)
		}
	})

	t.Run("Expired Token Without Refresh", func(t *testing.T) {
		store := &memStore{tokens: map[string]*oauth2.Token{
			"alice": {AccessToken: "stale", RefreshToken: "refresh", Expiry: time.Now().Add(-time.Hour)},
		}}
		svc := newTestTokenService(store, "")

		got, err := svc.AccessToken(ctx, "alice", false)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got != "stale" {
			t.Errorf("expected expired token as-is, got %q", got)
		}
	})

	t.Run("Refreshes Expired Token", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"access_token": "renewed", "token_type": "Bearer", "refresh_token": "refresh-2", "expires_in": 3600}`))
		}))
		defer srv.Close()

		store := &memStore{tokens: map[string]*oauth2.Token{
			"alice": {AccessToken: "stale", RefreshToken: "refresh", Expiry: time.Now().Add(-time.Hour)},
		}}
		svc := newTestTokenService(store, srv.URL)

		got, err := svc.AccessToken(ctx, "alice", true)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got != "renewed" {
			t.Errorf("expected refreshed token, got %q", got)
		}

		saved := store.tokens["alice"]
		if saved == nil || saved.AccessToken != "renewed" {
			t.Errorf("expected refreshed token to be persisted, got %+v", saved)
		}
	})

	t.Run("Refresh Failure", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error": "invalid_grant"}`))
		}))
		defer srv.Close()

		store := &memStore{tokens: map[string]*oauth2.Token{
			"alice": {AccessToken: "stale", RefreshToken: "revoked", Expiry: time.Now().Add(-time.Hour)},
		}}
		svc := newTestTokenService(store, srv.URL)

		_, err := svc.AccessToken(ctx, "alice", true)
		if !errors.Is(err, shared.ErrRefreshFailed) {
			t.Fatalf("expected ErrRefreshFailed, got %v", err)
		}
	})
}

// memStore is an in-memory TokenStore.
type memStore struct {
	tokens map[string]*oauth2.Token
}

func (m *memStore) Get(_ context.Context, userID string) (*oauth2.Token, error) {
	return m.tokens[userID], nil
}

func (m *memStore) Save(_ context.Context, userID string, token *oauth2.Token) error {
	if m.tokens == nil {
		m.tokens = map[string]*oauth2.Token{}
	}
	m.tokens[userID] = token
	return nil
}
