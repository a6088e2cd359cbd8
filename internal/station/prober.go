package station

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tandem/internal/shared"
	"github.com/desertthunder/tandem/internal/spotify"
)

// Prober takes timed samples of a user's player state and turns them into
// [NowPlaying] snapshots with half-RTT compensated offsets.
type Prober struct {
	tokens   TokenProvider
	player   PlaybackAPI
	logger   *log.Logger
	attempts int
	delay    time.Duration
	now      func() time.Time
}

// ProberOpts contains configuration options for creating a [Prober].
type ProberOpts struct {
	Tokens TokenProvider
	Player PlaybackAPI
	Logger *log.Logger

	// Attempts is how many samples to take before giving up on a player
	// that reports state without a current item. Defaults to 3.
	Attempts int

	// Delay is the pause between attempts. Defaults to 333ms.
	Delay time.Duration

	// Now overrides the clock in tests.
	Now func() time.Time
}

// NewProber creates a Prober.
func NewProber(opts ProberOpts) *Prober {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Attempts <= 0 {
		opts.Attempts = 3
	}
	if opts.Delay <= 0 {
		opts.Delay = 333 * time.Millisecond
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Prober{
		tokens:   opts.Tokens,
		player:   opts.Player,
		logger:   shared.WithLogger(opts.Logger, "component", "prober"),
		attempts: opts.Attempts,
		delay:    opts.Delay,
		now:      opts.Now,
	}
}

type probeSample struct {
	info   *spotify.CurrentPlayback
	rtt    time.Duration
	finish time.Time
}

// Probe samples the user's player state once.
//
// A user with no active device yields a snapshot with IsPlaying false; that
// is a normal outcome. A player that keeps answering without a current item
// is retried and eventually fails with [shared.ErrPlaybackUnavailable].
// Diagnostic timings are appended to result.
func (p *Prober) Probe(ctx context.Context, userID string, result *Result) (*NowPlaying, error) {
	token, err := p.tokens.AccessToken(ctx, userID, true)
	if err != nil {
		return nil, err
	}

	sample, err := shared.Retry(ctx, p.attempts, p.delay, func(ctx context.Context) (probeSample, bool, error) {
		start := p.now()
		info, err := p.player.CurrentPlayback(ctx, token)
		if err != nil {
			return probeSample{}, false, err
		}

		finish := p.now()
		sample := probeSample{info: info, rtt: finish.Sub(start), finish: finish}
		if info != nil && info.Item == nil {
			p.logger.Warn("playback info has no current item", "user", userID)
			result.appendLog("playback info has no current item", map[string]string{"UserId": userID}, nil)
			return sample, true, nil
		}
		return sample, false, nil
	})
	if err != nil {
		if errors.Is(err, shared.ErrRetryExhausted) {
			return nil, fmt.Errorf("%w: no current item for user %s", shared.ErrPlaybackUnavailable, userID)
		}
		return nil, err
	}

	if sample.info == nil {
		// No active device.
		return &NowPlaying{IsPlaying: false, VolumePercent: 100}, nil
	}

	return p.snapshot(userID, sample, result), nil
}

func (p *Prober) snapshot(userID string, sample probeSample, result *Result) *NowPlaying {
	info := sample.info
	np := &NowPlaying{
		IsPlaying:     info.IsPlaying,
		TrackID:       info.Item.ID,
		TrackName:     info.Item.Name,
		Duration:      time.Duration(info.Item.DurationMs) * time.Millisecond,
		ShuffleOn:     info.ShuffleState,
		RepeatOn:      info.RepeatState != spotify.RepeatOff,
		VolumePercent: 100,
	}
	if len(info.Item.Artists) > 0 {
		np.Artist = info.Item.Artists[0].Name
	}
	if info.Context != nil {
		np.ContextType = info.Context.Type
		np.ContextURI = info.Context.URI
	}
	if info.Device != nil {
		np.DeviceID = info.Device.ID
		if info.Device.VolumePercent != nil {
			np.VolumePercent = *info.Device.VolumePercent
		}
	}

	// A player without a progress report cannot be synchronized even if it
	// claims to be playing (private sessions do this).
	if info.ProgressMs == nil {
		np.IsPlaying = false
	}

	if np.IsPlaying {
		np.Offset = &Offset{
			Epoch:           sample.finish,
			ServerPosition:  time.Duration(*info.ProgressMs) * time.Millisecond,
			RoundTripTime:   sample.rtt,
			Duration:        np.Duration,
			ServerFetchTime: time.UnixMilli(info.Timestamp),
		}

		p.logger.Debug("probed playback",
			"user", userID,
			"track", np.TrackName,
			"rtt", sample.rtt,
			"position", np.Offset.PositionAtEpoch())
		result.appendLog("probed playback",
			map[string]string{"UserId": userID, "TrackId": np.TrackID},
			map[string]float64{
				"RttMS":             float64(sample.rtt.Milliseconds()),
				"ServerPositionMS":  float64(np.Offset.ServerPosition.Milliseconds()),
				"PositionAtEpochMS": float64(np.Offset.PositionAtEpoch().Milliseconds()),
			})
	}

	return np
}
