package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/desertthunder/tandem/internal/server"
	"github.com/desertthunder/tandem/internal/shared"
	"github.com/urfave/cli/v3"
)

// AuthLogin runs the OAuth2 authorization code flow in the browser and
// stores the resulting token under the Spotify profile's user ID.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	d, err := r.connect()
	if err != nil {
		return err
	}
	defer d.Close()

	redirect, err := url.Parse(r.config.Credentials.Spotify.RedirectURI)
	if err != nil {
		return fmt.Errorf("%w: invalid redirect_uri: %v", shared.ErrInvalidConfig, err)
	}

	state := shared.GenerateID()
	handler := server.NewOAuthHandler(d.auth.OAuthConfig(), state)

	router := server.NewBasicRouter()
	router.Handler(handler)

	srv := &http.Server{Addr: net.JoinHostPort("", redirect.Port()), Handler: router}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			r.logger.Error("callback server failed", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	authURL := d.auth.AuthURL(state)
	r.writePlain("Opening browser for Spotify authorization...\n")
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warn("failed to open browser", "error", err)
		r.writePlain("Visit this URL to authorize:\n%s\n", authURL)
	}

	var result server.OAuthResult
	select {
	case result = <-handler.Result():
	case <-ctx.Done():
		return ctx.Err()
	}
	if result.Error() != nil {
		return fmt.Errorf("%w: %v", shared.ErrAuthFailed, result.Error())
	}

	user, err := d.client.Me(ctx, result.Token.AccessToken)
	if err != nil {
		return fmt.Errorf("failed to load Spotify profile: %w", err)
	}

	if err := d.tokens.Save(ctx, user.ID, result.Token); err != nil {
		return err
	}

	r.logger.Info("authenticated", "user", user.ID)
	return r.writePlain("✓ Authenticated as %s (%s)\n", user.DisplayName, user.ID)
}

// AuthStatus reports whether a user has a stored Spotify token.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	userID := cmd.StringArg("user")
	if userID == "" {
		return fmt.Errorf("%w: user", shared.ErrMissingArgument)
	}

	d, err := r.connect()
	if err != nil {
		return err
	}
	defer d.Close()

	token, err := d.tokens.Get(ctx, userID)
	if err != nil {
		return err
	}
	if token == nil {
		return r.writePlain("✗ No Spotify token stored for %s\n", userID)
	}

	if token.Valid() {
		return r.writePlain("✓ %s is authenticated (token valid until %s)\n", userID, token.Expiry.Format(time.RFC3339))
	}
	if token.RefreshToken != "" {
		return r.writePlain("✓ %s is authenticated (token expired, refresh available)\n", userID)
	}
	return r.writePlain("✗ Token for %s expired with no refresh token, log in again\n", userID)
}
