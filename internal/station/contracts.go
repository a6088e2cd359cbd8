package station

import (
	"context"
	"time"

	"github.com/desertthunder/tandem/internal/spotify"
)

// TokenProvider hands out Spotify access tokens for users.
//
// Implemented by spotify.TokenService.
type TokenProvider interface {
	AccessToken(ctx context.Context, userID string, refreshIfExpired bool) (string, error)
}

// PlaybackAPI is the slice of the Spotify Web API the engine drives.
//
// Implemented by spotify.Client.
type PlaybackAPI interface {
	CurrentPlayback(ctx context.Context, token string) (*spotify.CurrentPlayback, error)
	PlayContextOffset(ctx context.Context, token, contextURI, trackID string, positionMs int64) error
	SetVolume(ctx context.Context, token, deviceID string, percent int) error
	SetShuffle(ctx context.Context, token, deviceID string, on bool) error
	SetRepeat(ctx context.Context, token, deviceID, state string) error
}

// StationStore persists stations.
//
// Implemented by repositories.StationRepository.
type StationStore interface {
	// GetOrDefault returns nil (not an error) when no station has the id.
	GetOrDefault(ctx context.Context, id string) (*Station, error)

	// Create fails with [shared.ErrStationExists] on an id collision.
	Create(ctx context.Context, station *Station) error

	// Replace overwrites the station if its stored version still equals
	// expectedVersion, else fails with [shared.ErrConcurrencyConflict].
	Replace(ctx context.Context, station *Station, expectedVersion int64) error

	// AcquireLease takes the station's exclusive synchronization lease or
	// fails with [shared.ErrStationLeaseHeld] while another holder's lease
	// is unexpired.
	AcquireLease(ctx context.Context, id, token string, ttl time.Duration) error

	// ReleaseLease drops the lease if token still holds it.
	ReleaseLease(ctx context.Context, id, token string) error
}

// PlayerStore persists per-user playback snapshots.
//
// Implemented by repositories.PlayerRepository.
type PlayerStore interface {
	Upsert(ctx context.Context, stationID, userID string, np *NowPlaying) error
}
