package station

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tandem/internal/shared"
	"github.com/desertthunder/tandem/internal/spotify"
)

// DeviceController issues playback commands against a user's device.
type DeviceController struct {
	tokens TokenProvider
	player PlaybackAPI
	logger *log.Logger
	now    func() time.Time
}

// NewDeviceController creates a DeviceController.
func NewDeviceController(tokens TokenProvider, player PlaybackAPI, logger *log.Logger) *DeviceController {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &DeviceController{
		tokens: tokens,
		player: player,
		logger: shared.WithLogger(logger, "component", "device"),
		now:    time.Now,
	}
}

// DisableShuffleRepeat turns off shuffle and repeat on the device when the
// snapshot shows either is on. Both must be off for two devices to step
// through a context in the same order.
func (d *DeviceController) DisableShuffleRepeat(ctx context.Context, userID string, np *NowPlaying) error {
	if !np.ShuffleOn && !np.RepeatOn {
		return nil
	}

	token, err := d.tokens.AccessToken(ctx, userID, true)
	if err != nil {
		return err
	}

	if np.ShuffleOn {
		if err := d.player.SetShuffle(ctx, token, np.DeviceID, false); err != nil {
			return fmt.Errorf("failed to disable shuffle: %w", err)
		}
		np.ShuffleOn = false
	}
	if np.RepeatOn {
		if err := d.player.SetRepeat(ctx, token, np.DeviceID, spotify.RepeatOff); err != nil {
			return fmt.Errorf("failed to disable repeat: %w", err)
		}
		np.RepeatOn = false
	}

	d.logger.Debug("disabled shuffle and repeat", "user", userID)
	return nil
}

// Mute silences the device. Best effort: muting only masks the audible jump
// while the playhead is corrected, so failures are logged and swallowed.
func (d *DeviceController) Mute(ctx context.Context, userID string, np *NowPlaying, result *Result) {
	d.setVolume(ctx, userID, np, 0, result)
}

// Unmute restores the device to the volume captured at probe time. Best
// effort, same as [DeviceController.Mute].
func (d *DeviceController) Unmute(ctx context.Context, userID string, np *NowPlaying, result *Result) {
	d.setVolume(ctx, userID, np, np.VolumePercent, result)
}

func (d *DeviceController) setVolume(ctx context.Context, userID string, np *NowPlaying, percent int, result *Result) {
	token, err := d.tokens.AccessToken(ctx, userID, true)
	if err == nil {
		err = d.player.SetVolume(ctx, token, np.DeviceID, percent)
	}
	if err != nil {
		d.logger.Error("volume change failed", "user", userID, "percent", percent, "error", err)
		result.appendLog("volume change failed",
			map[string]string{"UserId": userID, "Error": err.Error()},
			map[string]float64{"VolumePercent": float64(percent)})
	}
}

// PlayFromOffset starts playback on the user's device at the reference
// snapshot's estimated current position plus errorAdjustment.
func (d *DeviceController) PlayFromOffset(ctx context.Context, userID string, reference *NowPlaying, errorAdjustment time.Duration, result *Result) error {
	if !reference.ContextSupported() {
		return fmt.Errorf("%w: %q", shared.ErrContextNotSupported, reference.ContextType)
	}

	token, err := d.tokens.AccessToken(ctx, userID, true)
	if err != nil {
		return err
	}

	position := reference.Offset.PositionNow(d.now()) + errorAdjustment
	if position < 0 {
		position = 0
	}

	if err := d.player.PlayContextOffset(ctx, token, reference.ContextURI, reference.TrackID, position.Milliseconds()); err != nil {
		return err
	}

	d.logger.Info("play from offset",
		"user", userID,
		"track", reference.TrackID,
		"position", position,
		"adjustment", errorAdjustment)
	result.appendLog("play from offset",
		map[string]string{"UserId": userID, "TrackId": reference.TrackID},
		map[string]float64{
			"PositionMS":        float64(position.Milliseconds()),
			"ErrorAdjustmentMS": float64(errorAdjustment.Milliseconds()),
		})
	return nil
}
