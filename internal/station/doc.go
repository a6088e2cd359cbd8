// Package station implements the playback synchronization engine behind
// tandem's group listening sessions.
//
// # Time model
//
// The Spotify player API reports a playhead position that is already stale
// by the time the response arrives. [Offset] applies classic half-RTT
// compensation: the position at the moment the client observed it is the
// reported position plus half the measured round trip, and any later
// estimate extrapolates from that epoch, clamped to the track duration.
//
// # Workflows
//
// [Coordinator] owns the three workflows. Start promotes a user to station
// owner from whatever album or playlist they are playing. Join aligns a
// listener's device with the owner's estimated playhead: seek, remeasure,
// and correct up to two more times or until the devices are within the
// convergence threshold. ChangeOwner is deliberately unimplemented.
//
// Probes and device commands go through [Prober] and [DeviceController],
// which talk to the Spotify Web API via the collaborator interfaces in
// contracts.go. All outcomes are reported as a [Result]; only unexpected
// remote failures surface as errors.
package station
