package station

import "time"

// Offset is an immutable estimate of a device's playhead, derived from one
// timed sample of the Spotify player API.
type Offset struct {
	// Epoch is the local time the sample response was received.
	Epoch time.Time

	// ServerPosition is the playhead position the server reported.
	ServerPosition time.Duration

	// RoundTripTime is the measured latency of the sample request.
	RoundTripTime time.Duration

	// Duration is the total track duration.
	Duration time.Duration

	// ServerFetchTime is the server-side timestamp of its own observation.
	// Diagnostic only; zero when the server did not report one.
	ServerFetchTime time.Time
}

// PositionAtEpoch estimates the playhead at Epoch.
//
// The server's reported position is half a round trip old when it arrives,
// so half the RTT is added back. A zero RTT means no measurement was taken
// and the server position is used as-is.
func (o Offset) PositionAtEpoch() time.Duration {
	if o.RoundTripTime > 0 {
		return o.ServerPosition + o.RoundTripTime/2
	}
	return o.ServerPosition
}

// PositionNow extrapolates the playhead to now, clamped to the track
// duration. A zero now means time.Now().
func (o Offset) PositionNow(now time.Time) time.Duration {
	if now.IsZero() {
		now = time.Now()
	}
	position := o.PositionAtEpoch() + now.Sub(o.Epoch)
	if position > o.Duration {
		return o.Duration
	}
	return position
}

// EndOfTrack reports whether the estimated playhead has reached the end of
// the track.
func (o Offset) EndOfTrack(now time.Time) bool {
	return o.PositionNow(now) == o.Duration
}
