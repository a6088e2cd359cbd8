package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrTokenExpired     = fmt.Errorf("access token expired")
	ErrRefreshFailed    = fmt.Errorf("token refresh failed")
	ErrTimeout          = fmt.Errorf("operation timed out")

	// API and playback errors
	ErrAPIRequest          = fmt.Errorf("API request failed")
	ErrPlaybackUnavailable = fmt.Errorf("playback information unavailable")
	ErrContextNotSupported = fmt.Errorf("playback context not supported")
	ErrRetryExhausted      = fmt.Errorf("retry attempts exhausted")

	// Persistence errors
	ErrStationNotFound     = fmt.Errorf("station not found")
	ErrStationExists       = fmt.Errorf("station already exists")
	ErrConcurrencyConflict = fmt.Errorf("concurrent modification detected")
	ErrStationLeaseHeld    = fmt.Errorf("station lease held by another request")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
