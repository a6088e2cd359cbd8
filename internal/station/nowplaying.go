package station

import "time"

// Contexts a station can synchronize. Single tracks, podcasts and artist
// radio have no stable playback order across devices.
var supportedContexts = map[string]bool{
	"album":    true,
	"playlist": true,
}

// NowPlaying is a point-in-time snapshot of one user's player state.
//
// When IsPlaying is false the snapshot carries no usable position and
// Offset is nil.
type NowPlaying struct {
	IsPlaying   bool
	TrackID     string
	TrackName   string
	Artist      string
	Duration    time.Duration
	ContextType string
	ContextURI  string
	DeviceID    string

	// VolumePercent is the device volume at probe time, used to restore
	// audio after a muted seek. Defaults to 100 when the device does not
	// report one.
	VolumePercent int

	ShuffleOn bool
	RepeatOn  bool

	Offset *Offset
}

// ContextSupported reports whether the playback context can be joined.
func (np *NowPlaying) ContextSupported() bool {
	return supportedContexts[np.ContextType]
}
