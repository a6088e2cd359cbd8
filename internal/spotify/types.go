// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package spotify

// User represents the authenticated Spotify user profile.
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Product     string `json:"product"` // premium, free, etc.
}

// Device represents the active playback device.
type Device struct {
	ID            string `json:"id"`
	IsActive      bool   `json:"is_active"`
	Name          string `json:"name"`
	Type          string `json:"type"`
	VolumePercent *int   `json:"volume_percent"`
}

// PlaybackContext represents the construct being played (album, playlist, ...).
type PlaybackContext struct {
	Type string `json:"type"`
	URI  string `json:"uri"`
}

// Artist represents a Spotify artist.
type Artist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// Track represents a Spotify track.
type Track struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Artists    []Artist `json:"artists"`
	DurationMs int      `json:"duration_ms"`
	URI        string   `json:"uri"`
}

// CurrentPlayback represents the player state returned by GET /me/player.
//
// ProgressMs is a pointer because Spotify omits it in ambiguous states
// (e.g. private sessions); Device and Item can likewise be absent.
type CurrentPlayback struct {
	Device       *Device          `json:"device"`
	RepeatState  string           `json:"repeat_state"`
	ShuffleState bool             `json:"shuffle_state"`
	Context      *PlaybackContext `json:"context"`
	Timestamp    int64            `json:"timestamp"`
	ProgressMs   *int64           `json:"progress_ms"`
	IsPlaying    bool             `json:"is_playing"`
	Item         *Track           `json:"item"`
}
