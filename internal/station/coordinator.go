package station

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tandem/internal/shared"
)

// maxCorrectiveRounds bounds the Join convergence loop. With the initial
// seek that is at most three play commands per join.
const maxCorrectiveRounds = 2

// Coordinator runs the station workflows: create, start, join and owner
// transfer.
type Coordinator struct {
	stations StationStore
	players  PlayerStore
	prober   *Prober
	devices  *DeviceController
	logger   *log.Logger
	maxError time.Duration
	leaseTTL time.Duration
	now      func() time.Time
}

// CoordinatorOpts contains configuration options for creating a
// [Coordinator].
type CoordinatorOpts struct {
	Stations StationStore
	Players  PlayerStore
	Prober   *Prober
	Devices  *DeviceController
	Logger   *log.Logger

	// MaxError is the convergence threshold: a measured playhead error at
	// or under it stops the corrective loop. Defaults to 500ms.
	MaxError time.Duration

	// LeaseTTL caps how long a crashed workflow can keep a station locked.
	// Defaults to 30s.
	LeaseTTL time.Duration

	// Now overrides the clock in tests.
	Now func() time.Time
}

// NewCoordinator creates a Coordinator.
func NewCoordinator(opts CoordinatorOpts) *Coordinator {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.MaxError <= 0 {
		opts.MaxError = 500 * time.Millisecond
	}
	if opts.LeaseTTL <= 0 {
		opts.LeaseTTL = 30 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Coordinator{
		stations: opts.Stations,
		players:  opts.Players,
		prober:   opts.Prober,
		devices:  opts.Devices,
		logger:   shared.WithLogger(opts.Logger, "component", "coordinator"),
		maxError: opts.MaxError,
		leaseTTL: opts.LeaseTTL,
		now:      opts.Now,
	}
}

// CreateStation registers a new, ownerless station.
func (c *Coordinator) CreateStation(ctx context.Context, stationID, name string) (*Result, error) {
	if stationID == "" {
		return nil, fmt.Errorf("%w: station id", shared.ErrMissingArgument)
	}

	res := newResult()
	st := NewStation(stationID, name)

	err := c.stations.Create(ctx, st)
	if errors.Is(err, shared.ErrStationExists) {
		return res.fail(StatusConflict, "", fmt.Sprintf("Station (%s) already exists.", st.ID)), nil
	}
	if err != nil {
		return nil, err
	}

	c.logger.Info("created station", "station", st.ID)
	return res.succeed(fmt.Sprintf("Station (%s) created.", st.ID)), nil
}

// Start makes the user the station's owner, capturing their current
// playback as the station's reference.
func (c *Coordinator) Start(ctx context.Context, userID, stationID string) (*Result, error) {
	uid, sid, err := canonicalArgs(userID, stationID)
	if err != nil {
		return nil, err
	}

	res := newResult()
	st, err := c.stations.GetOrDefault(ctx, sid)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return res.fail(StatusNotFound, "", fmt.Sprintf("Station (%s) does not exist.", sid)), nil
	}
	if st.HasOwner() && st.OwnerUserID != uid {
		return res.fail(StatusPreconditionFailed, ReasonStationHasOwner,
			fmt.Sprintf("Station (%s) already has an owner.", sid)), nil
	}

	leaseToken := shared.GenerateID()
	if err := c.stations.AcquireLease(ctx, sid, leaseToken, c.leaseTTL); err != nil {
		if errors.Is(err, shared.ErrStationLeaseHeld) {
			return res.fail(StatusConflict, "",
				fmt.Sprintf("Station (%s) is busy with another synchronization. Retry shortly.", sid)), nil
		}
		return nil, err
	}
	defer c.releaseLease(ctx, sid, leaseToken)

	np, err := c.prober.Probe(ctx, uid, res)
	if err != nil {
		return nil, err
	}
	if !np.IsPlaying {
		return res.fail(StatusPending, ReasonUserDeviceNotActive,
			"Your Spotify device is not playing anything. Start playing an album or playlist and try again."), nil
	}
	if !np.ContextSupported() {
		return res.fail(StatusPreconditionFailed, ReasonContextNotSupported,
			fmt.Sprintf("Playback of a %q cannot be shared. Play an album or playlist instead.", np.ContextType)), nil
	}

	if err := c.players.Upsert(ctx, sid, uid, np); err != nil {
		return nil, err
	}

	st.OwnerUserID = uid
	st.StartedAt = c.now()
	if err := c.stations.Replace(ctx, st, st.Version); err != nil {
		if errors.Is(err, shared.ErrConcurrencyConflict) {
			return res.fail(StatusConflict, "",
				fmt.Sprintf("Station (%s) was modified concurrently. Try again.", sid)), nil
		}
		return nil, err
	}

	c.logger.Info("started station", "station", sid, "owner", uid, "track", np.TrackName)
	return res.succeed(fmt.Sprintf("Station (%s) is now playing %s.", sid, np.TrackName)), nil
}

// Join synchronizes the user's device with the station owner's playhead.
//
// The joiner's device is muted, seeked to the owner's estimated position
// and remeasured; up to two corrective seeks follow until the playhead
// error is within the convergence threshold. The device is unmuted no
// matter how the attempt ends.
func (c *Coordinator) Join(ctx context.Context, userID, stationID string) (*Result, error) {
	uid, sid, err := canonicalArgs(userID, stationID)
	if err != nil {
		return nil, err
	}

	res := newResult()
	st, err := c.stations.GetOrDefault(ctx, sid)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return res.fail(StatusNotFound, "", fmt.Sprintf("Station (%s) does not exist.", sid)), nil
	}
	if !st.HasOwner() {
		return res.fail(StatusPreconditionFailed, ReasonStationHasNoOwner,
			fmt.Sprintf("Station (%s) has not been started yet.", sid)), nil
	}

	leaseToken := shared.GenerateID()
	if err := c.stations.AcquireLease(ctx, sid, leaseToken, c.leaseTTL); err != nil {
		if errors.Is(err, shared.ErrStationLeaseHeld) {
			return res.fail(StatusConflict, "",
				fmt.Sprintf("Station (%s) is busy with another synchronization. Retry shortly.", sid)), nil
		}
		return nil, err
	}
	defer c.releaseLease(ctx, sid, leaseToken)

	ownerNP, err := c.prober.Probe(ctx, st.OwnerUserID, res)
	if err != nil {
		return nil, err
	}
	if !ownerNP.IsPlaying {
		if err := c.players.Upsert(ctx, sid, st.OwnerUserID, ownerNP); err != nil {
			return nil, err
		}
		return res.fail(StatusPending, ReasonStationOwnersDeviceNotActive,
			fmt.Sprintf("The owner of station (%s) is not playing anything right now.", sid)), nil
	}
	if !ownerNP.ContextSupported() {
		if err := c.players.Upsert(ctx, sid, st.OwnerUserID, ownerNP); err != nil {
			return nil, err
		}
		return res.fail(StatusPreconditionFailed, ReasonContextNotSupported,
			fmt.Sprintf("Station (%s) is playing a %q, which cannot be joined.", sid, ownerNP.ContextType)), nil
	}

	joinerNP, err := c.prober.Probe(ctx, uid, res)
	if err != nil {
		return nil, err
	}
	if !joinerNP.IsPlaying {
		if err := c.players.Upsert(ctx, sid, uid, joinerNP); err != nil {
			return nil, err
		}
		return res.fail(StatusPending, ReasonUserDeviceNotActive,
			"Your Spotify device is not active. Start playing anything on it and try again."), nil
	}

	if err := c.devices.DisableShuffleRepeat(ctx, uid, joinerNP); err != nil {
		return nil, err
	}

	if err := c.converge(ctx, uid, st.OwnerUserID, ownerNP, joinerNP, res); err != nil {
		return nil, err
	}

	if err := c.players.Upsert(ctx, sid, st.OwnerUserID, ownerNP); err != nil {
		return nil, err
	}
	if err := c.players.Upsert(ctx, sid, uid, joinerNP); err != nil {
		return nil, err
	}

	c.logger.Info("user joined station", "station", sid, "user", uid)
	return res.succeed(fmt.Sprintf("Joined station (%s), now playing %s.", sid, ownerNP.TrackName)), nil
}

// converge seeks the joiner to the owner's playhead and corrects the
// residual error up to maxCorrectiveRounds more times. The joiner stays
// muted for the whole loop; the deferred unmute runs even when a seek or
// probe fails.
func (c *Coordinator) converge(ctx context.Context, uid, ownerID string, ownerNP, joinerNP *NowPlaying, res *Result) error {
	defer c.devices.Unmute(ctx, uid, joinerNP, res)
	c.devices.Mute(ctx, uid, joinerNP, res)

	reference := ownerNP
	adjustment := time.Duration(0)
	for round := 0; ; round++ {
		if err := c.devices.PlayFromOffset(ctx, uid, reference, adjustment, res); err != nil {
			return err
		}

		ownerAgain, err := c.prober.Probe(ctx, ownerID, res)
		if err != nil {
			return err
		}
		joinerAgain, err := c.prober.Probe(ctx, uid, res)
		if err != nil {
			return err
		}
		if ownerAgain.Offset == nil || joinerAgain.Offset == nil {
			return fmt.Errorf("%w: a device stopped during synchronization", shared.ErrPlaybackUnavailable)
		}

		drift := c.measureError(ownerAgain, joinerAgain, res)
		if round == maxCorrectiveRounds || absDuration(drift) <= c.maxError {
			return nil
		}

		reference = ownerAgain
		adjustment = drift
	}
}

// measureError returns how far the joiner's playhead is from the owner's,
// positive when the joiner is ahead. Both estimates share one clock
// reading.
func (c *Coordinator) measureError(ownerNP, joinerNP *NowPlaying, res *Result) time.Duration {
	now := c.now()
	drift := joinerNP.Offset.PositionNow(now) - ownerNP.Offset.PositionNow(now)

	c.logger.Debug("measured playhead error", "error", drift)
	res.appendLog("measured playhead error", nil,
		map[string]float64{"ErrorMS": float64(drift.Milliseconds())})
	return drift
}

// ChangeOwner transfers station ownership. Not implemented: no transfer
// policy has been settled (owner consent, cooldowns), so this fails loudly
// rather than guessing one.
func (c *Coordinator) ChangeOwner(ctx context.Context, userID, stationID string) (*Result, error) {
	if _, _, err := canonicalArgs(userID, stationID); err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("%w: change station owner", shared.ErrNotImplemented)
}

// releaseLease drops the station lease on a context immune to the caller's
// cancellation so an aborted workflow still unlocks the station.
func (c *Coordinator) releaseLease(ctx context.Context, sid, token string) {
	if err := c.stations.ReleaseLease(context.WithoutCancel(ctx), sid, token); err != nil {
		c.logger.Warn("failed to release station lease", "station", sid, "error", err)
	}
}

func canonicalArgs(userID, stationID string) (string, string, error) {
	if userID == "" {
		return "", "", fmt.Errorf("%w: user id", shared.ErrMissingArgument)
	}
	if stationID == "" {
		return "", "", fmt.Errorf("%w: station id", shared.ErrMissingArgument)
	}
	return shared.CanonicalID(userID), shared.CanonicalID(stationID), nil
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
