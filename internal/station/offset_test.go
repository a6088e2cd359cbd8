package station

import (
	"testing"
	"time"
)

func TestOffset(t *testing.T) {
	epoch := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("PositionAtEpoch", func(t *testing.T) {
		t.Run("Adds Half The Round Trip", func(t *testing.T) {
			o := Offset{
				Epoch:          epoch,
				ServerPosition: 30 * time.Second,
				RoundTripTime:  200 * time.Millisecond,
				Duration:       4 * time.Minute,
			}

			want := 30*time.Second + 100*time.Millisecond
			if got := o.PositionAtEpoch(); got != want {
				t.Errorf("expected %v, got %v", want, got)
			}
		})

		t.Run("Zero Round Trip Uses Server Position", func(t *testing.T) {
			o := Offset{
				Epoch:          epoch,
				ServerPosition: 30 * time.Second,
				Duration:       4 * time.Minute,
			}

			if got := o.PositionAtEpoch(); got != 30*time.Second {
				t.Errorf("expected server position, got %v", got)
			}
		})
	})

	t.Run("PositionNow", func(t *testing.T) {
		o := Offset{
			Epoch:          epoch,
			ServerPosition: 30 * time.Second,
			RoundTripTime:  200 * time.Millisecond,
			Duration:       4 * time.Minute,
		}

		t.Run("Extrapolates From Epoch", func(t *testing.T) {
			got := o.PositionNow(epoch.Add(2 * time.Second))
			want := o.PositionAtEpoch() + 2*time.Second
			if got != want {
				t.Errorf("expected %v, got %v", want, got)
			}
		})

		t.Run("Monotonic", func(t *testing.T) {
			earlier := o.PositionNow(epoch.Add(time.Second))
			later := o.PositionNow(epoch.Add(2 * time.Second))
			if later < earlier {
				t.Errorf("position went backwards: %v then %v", earlier, later)
			}
		})

		t.Run("Clamps To Duration", func(t *testing.T) {
			got := o.PositionNow(epoch.Add(10 * time.Minute))
			if got != o.Duration {
				t.Errorf("expected clamp to %v, got %v", o.Duration, got)
			}
		})

		t.Run("Zero Now Uses Wall Clock", func(t *testing.T) {
			recent := Offset{
				Epoch:          time.Now(),
				ServerPosition: 30 * time.Second,
				Duration:       4 * time.Minute,
			}

			got := recent.PositionNow(time.Time{})
			if got < recent.PositionAtEpoch() {
				t.Errorf("expected at least %v, got %v", recent.PositionAtEpoch(), got)
			}
			if got > recent.Duration {
				t.Errorf("expected at most %v, got %v", recent.Duration, got)
			}
		})
	})

	t.Run("EndOfTrack", func(t *testing.T) {
		o := Offset{
			Epoch:          epoch,
			ServerPosition: 3*time.Minute + 59*time.Second,
			Duration:       4 * time.Minute,
		}

		if o.EndOfTrack(epoch) {
			t.Error("expected track not to be over at epoch")
		}
		if !o.EndOfTrack(epoch.Add(time.Minute)) {
			t.Error("expected track to be over a minute later")
		}
	})
}
