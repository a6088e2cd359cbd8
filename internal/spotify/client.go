package spotify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tandem/internal/shared"
	"golang.org/x/time/rate"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"
)

// RepeatOff is the repeat_state value that disables repeat on a device.
const RepeatOff = "off"

// Client is a multi-user Spotify Web API client.
//
// Unlike a per-session client it holds no token; callers pass the acting
// user's access token with every request.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *log.Logger
}

// ClientOpts contains configuration options for creating a [Client].
type ClientOpts struct {
	BaseURL         string
	HTTPClient      *http.Client
	RateLimitPerSec int
	Logger          *log.Logger
}

// NewClient creates a Spotify Web API client.
func NewClient(opts ClientOpts) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = spotifyBaseURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.RateLimitPerSec <= 0 {
		opts.RateLimitPerSec = 10
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &Client{
		baseURL:    opts.BaseURL,
		httpClient: opts.HTTPClient,
		limiter:    rate.NewLimiter(rate.Limit(opts.RateLimitPerSec), 1),
		logger:     shared.WithLogger(opts.Logger, "component", "spotify"),
	}
}

// doRequest performs an authenticated HTTP request against the Spotify API.
//
// A nil result is allowed for endpoints that return no body (the player
// control endpoints answer 204).
func (c *Client) doRequest(ctx context.Context, method, endpoint, token string, body any, result any) (int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, fmt.Errorf("rate limiter: %w", err)
	}

	var reqBody *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reqBody)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return resp.StatusCode, fmt.Errorf("%w: %s %s", shared.ErrTokenExpired, method, endpoint)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return resp.StatusCode, fmt.Errorf("%w: %s %s: status %d", shared.ErrAPIRequest, method, endpoint, resp.StatusCode)
	}

	if result != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return resp.StatusCode, nil
}

// Me retrieves the profile of the user the token belongs to.
func (c *Client) Me(ctx context.Context, token string) (*User, error) {
	var user User
	if _, err := c.doRequest(ctx, http.MethodGet, "/me", token, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// CurrentPlayback retrieves the user's player state.
//
// Returns (nil, nil) when the user has no active device: Spotify answers
// 204 with an empty body in that case and it is a normal outcome, not an
// error.
func (c *Client) CurrentPlayback(ctx context.Context, token string) (*CurrentPlayback, error) {
	var playback CurrentPlayback
	status, err := c.doRequest(ctx, http.MethodGet, "/me/player", token, nil, &playback)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNoContent {
		return nil, nil
	}
	return &playback, nil
}

// PlayContextOffset starts playback of a context (album or playlist) at a
// specific track and position on the user's active device.
func (c *Client) PlayContextOffset(ctx context.Context, token, contextURI, trackID string, positionMs int64) error {
	body := struct {
		ContextURI string `json:"context_uri"`
		Offset     struct {
			URI string `json:"uri"`
		} `json:"offset"`
		PositionMs int64 `json:"position_ms"`
	}{ContextURI: contextURI, PositionMs: positionMs}
	body.Offset.URI = "spotify:track:" + trackID

	c.logger.Debug("play context at offset", "context", contextURI, "track", trackID, "position_ms", positionMs)

	_, err := c.doRequest(ctx, http.MethodPut, "/me/player/play", token, body, nil)
	return err
}

// SetVolume sets the device volume as a percentage (0..100).
func (c *Client) SetVolume(ctx context.Context, token, deviceID string, percent int) error {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}

	endpoint := fmt.Sprintf("/me/player/volume?volume_percent=%d&device_id=%s", percent, url.QueryEscape(deviceID))
	_, err := c.doRequest(ctx, http.MethodPut, endpoint, token, nil, nil)
	return err
}

// SetShuffle toggles shuffle on the device.
func (c *Client) SetShuffle(ctx context.Context, token, deviceID string, on bool) error {
	endpoint := fmt.Sprintf("/me/player/shuffle?state=%s&device_id=%s", strconv.FormatBool(on), url.QueryEscape(deviceID))
	_, err := c.doRequest(ctx, http.MethodPut, endpoint, token, nil, nil)
	return err
}

// SetRepeat sets the device repeat state ("off", "track" or "context").
func (c *Client) SetRepeat(ctx context.Context, token, deviceID, state string) error {
	endpoint := fmt.Sprintf("/me/player/repeat?state=%s&device_id=%s", url.QueryEscape(state), url.QueryEscape(deviceID))
	_, err := c.doRequest(ctx, http.MethodPut, endpoint, token, nil, nil)
	return err
}
