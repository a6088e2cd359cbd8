package repositories

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/tandem/internal/shared"
	"github.com/desertthunder/tandem/internal/station"
	"golang.org/x/oauth2"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

func TestStationRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("Create And Get", func(t *testing.T) {
		repo := NewStationRepository(openTestDB(t))

		st := station.NewStation("Groove", "Groove Session")
		if err := repo.Create(ctx, st); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		got, err := repo.GetOrDefault(ctx, "GROOVE")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got == nil {
			t.Fatal("expected station")
		}
		if got.ID != "groove" {
			t.Errorf("expected canonical id, got %q", got.ID)
		}
		if got.Name != "Groove Session" {
			t.Errorf("expected display name, got %q", got.Name)
		}
		if got.Version != 1 {
			t.Errorf("expected version 1, got %d", got.Version)
		}
		if got.HasOwner() {
			t.Error("expected no owner on a fresh station")
		}
	})

	t.Run("Get Missing Returns Nil", func(t *testing.T) {
		repo := NewStationRepository(openTestDB(t))

		got, err := repo.GetOrDefault(ctx, "nowhere")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got != nil {
			t.Errorf("expected nil for a missing station, got %+v", got)
		}
	})

	t.Run("Duplicate ID", func(t *testing.T) {
		repo := NewStationRepository(openTestDB(t))

		if err := repo.Create(ctx, station.NewStation("groove", "")); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		err := repo.Create(ctx, station.NewStation("groove", ""))
		if !errors.Is(err, shared.ErrStationExists) {
			t.Fatalf("expected ErrStationExists, got %v", err)
		}
	})

	t.Run("Replace", func(t *testing.T) {
		t.Run("Bumps Version", func(t *testing.T) {
			repo := NewStationRepository(openTestDB(t))

			st := station.NewStation("groove", "")
			if err := repo.Create(ctx, st); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			st.OwnerUserID = "alice"
			st.StartedAt = time.Now()
			if err := repo.Replace(ctx, st, 1); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if st.Version != 2 {
				t.Errorf("expected version 2 after replace, got %d", st.Version)
			}

			got, _ := repo.GetOrDefault(ctx, "groove")
			if got.OwnerUserID != "alice" {
				t.Errorf("expected owner persisted, got %q", got.OwnerUserID)
			}
			if got.Version != 2 {
				t.Errorf("expected stored version 2, got %d", got.Version)
			}
		})

		t.Run("Stale Version Conflicts", func(t *testing.T) {
			repo := NewStationRepository(openTestDB(t))

			st := station.NewStation("groove", "")
			if err := repo.Create(ctx, st); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if err := repo.Replace(ctx, st, 1); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			err := repo.Replace(ctx, st, 1)
			if !errors.Is(err, shared.ErrConcurrencyConflict) {
				t.Fatalf("expected ErrConcurrencyConflict, got %v", err)
			}
		})
	})

	t.Run("Leases", func(t *testing.T) {
		t.Run("Acquire And Release", func(t *testing.T) {
			repo := NewStationRepository(openTestDB(t))
			if err := repo.Create(ctx, station.NewStation("groove", "")); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if err := repo.AcquireLease(ctx, "groove", "holder-1", 30*time.Second); err != nil {
				t.Fatalf("expected lease acquired, got %v", err)
			}

			err := repo.AcquireLease(ctx, "groove", "holder-2", 30*time.Second)
			if !errors.Is(err, shared.ErrStationLeaseHeld) {
				t.Fatalf("expected ErrStationLeaseHeld, got %v", err)
			}

			if err := repo.ReleaseLease(ctx, "groove", "holder-1"); err != nil {
				t.Fatalf("expected release, got %v", err)
			}
			if err := repo.AcquireLease(ctx, "groove", "holder-2", 30*time.Second); err != nil {
				t.Fatalf("expected lease acquired after release, got %v", err)
			}
		})

		t.Run("Expired Lease Can Be Taken", func(t *testing.T) {
			repo := NewStationRepository(openTestDB(t))
			if err := repo.Create(ctx, station.NewStation("groove", "")); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if err := repo.AcquireLease(ctx, "groove", "crashed", -time.Second); err != nil {
				t.Fatalf("expected lease acquired, got %v", err)
			}
			if err := repo.AcquireLease(ctx, "groove", "holder-2", 30*time.Second); err != nil {
				t.Fatalf("expected expired lease to be taken over, got %v", err)
			}
		})

		t.Run("Release By Non Holder Is Harmless", func(t *testing.T) {
			repo := NewStationRepository(openTestDB(t))
			if err := repo.Create(ctx, station.NewStation("groove", "")); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if err := repo.AcquireLease(ctx, "groove", "holder-1", 30*time.Second); err != nil {
				t.Fatalf("expected lease acquired, got %v", err)
			}

			if err := repo.ReleaseLease(ctx, "groove", "someone-else"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			err := repo.AcquireLease(ctx, "groove", "holder-2", 30*time.Second)
			if !errors.Is(err, shared.ErrStationLeaseHeld) {
				t.Fatalf("expected original lease intact, got %v", err)
			}
		})

		t.Run("Missing Station", func(t *testing.T) {
			repo := NewStationRepository(openTestDB(t))

			err := repo.AcquireLease(ctx, "nowhere", "holder", 30*time.Second)
			if !errors.Is(err, shared.ErrStationNotFound) {
				t.Fatalf("expected ErrStationNotFound, got %v", err)
			}
		})
	})
}

func TestPlayerRepository(t *testing.T) {
	ctx := context.Background()
	epoch := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	snapshot := func(position time.Duration) *station.NowPlaying {
		return &station.NowPlaying{
			IsPlaying:   true,
			TrackID:     "track-1",
			TrackName:   "First Song",
			Artist:      "The Band",
			Duration:    4 * time.Minute,
			ContextType: "album",
			ContextURI:  "spotify:album:abc",
			Offset: &station.Offset{
				Epoch:          epoch,
				ServerPosition: position,
				Duration:       4 * time.Minute,
			},
		}
	}

	t.Run("Upsert And List", func(t *testing.T) {
		repo := NewPlayerRepository(openTestDB(t))

		if err := repo.Upsert(ctx, "groove", "Alice", snapshot(30*time.Second)); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if err := repo.Upsert(ctx, "groove", "bob", snapshot(31*time.Second)); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		players, err := repo.List(ctx, "GROOVE")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(players) != 2 {
			t.Fatalf("expected 2 snapshots, got %d", len(players))
		}

		byUser := map[string]PlayerRow{}
		for _, p := range players {
			byUser[p.UserID] = p
		}

		alice, ok := byUser["alice"]
		if !ok {
			t.Fatal("expected snapshot stored under canonical user id")
		}
		if alice.TrackName != "First Song" || alice.Artist != "The Band" {
			t.Errorf("unexpected track metadata: %q by %q", alice.TrackName, alice.Artist)
		}
		if alice.PositionAtEpoch != 30*time.Second {
			t.Errorf("expected 30s position, got %v", alice.PositionAtEpoch)
		}
		if !alice.Epoch.Equal(epoch) {
			t.Errorf("expected epoch %v, got %v", epoch, alice.Epoch)
		}
	})

	t.Run("Upsert Replaces", func(t *testing.T) {
		repo := NewPlayerRepository(openTestDB(t))

		if err := repo.Upsert(ctx, "groove", "alice", snapshot(30*time.Second)); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if err := repo.Upsert(ctx, "groove", "alice", snapshot(90*time.Second)); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		players, err := repo.List(ctx, "groove")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(players) != 1 {
			t.Fatalf("expected a single snapshot, got %d", len(players))
		}
		if players[0].PositionAtEpoch != 90*time.Second {
			t.Errorf("expected updated position 90s, got %v", players[0].PositionAtEpoch)
		}
	})

	t.Run("Idle Snapshot Has No Offset", func(t *testing.T) {
		repo := NewPlayerRepository(openTestDB(t))

		if err := repo.Upsert(ctx, "groove", "alice", &station.NowPlaying{IsPlaying: false}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		players, err := repo.List(ctx, "groove")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if players[0].IsPlaying {
			t.Error("expected idle snapshot")
		}
		if got := players[0].PositionNow(time.Now()); got != 0 {
			t.Errorf("expected idle position to stay put, got %v", got)
		}
	})

	t.Run("PositionNow Extrapolates", func(t *testing.T) {
		row := PlayerRow{
			IsPlaying:       true,
			Duration:        4 * time.Minute,
			Epoch:           epoch,
			PositionAtEpoch: 30 * time.Second,
		}

		if got := row.PositionNow(epoch.Add(5 * time.Second)); got != 35*time.Second {
			t.Errorf("expected 35s, got %v", got)
		}
		if got := row.PositionNow(epoch.Add(time.Hour)); got != 4*time.Minute {
			t.Errorf("expected clamp to duration, got %v", got)
		}
	})
}

func TestTokenRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("Get Missing Returns Nil", func(t *testing.T) {
		repo := NewTokenRepository(openTestDB(t))

		token, err := repo.Get(ctx, "alice")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if token != nil {
			t.Errorf("expected nil token, got %+v", token)
		}
	})

	t.Run("Save And Get", func(t *testing.T) {
		repo := NewTokenRepository(openTestDB(t))
		expiry := time.Now().Add(time.Hour).UTC().Truncate(time.Second)

		err := repo.Save(ctx, "Alice", &oauth2.Token{
			AccessToken:  "access-1",
			RefreshToken: "refresh-1",
			TokenType:    "Bearer",
			Expiry:       expiry,
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		token, err := repo.Get(ctx, "alice")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if token == nil {
			t.Fatal("expected token")
		}
		if token.AccessToken != "access-1" || token.RefreshToken != "refresh-1" {
			t.Errorf("unexpected token contents: %+v", token)
		}
		if !token.Expiry.Equal(expiry) {
			t.Errorf("expected expiry %v, got %v", expiry, token.Expiry)
		}
	})

	t.Run("Save Replaces", func(t *testing.T) {
		repo := NewTokenRepository(openTestDB(t))

		if err := repo.Save(ctx, "alice", &oauth2.Token{AccessToken: "access-1"}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if err := repo.Save(ctx, "alice", &oauth2.Token{AccessToken: "access-2"}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		token, err := repo.Get(ctx, "alice")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if token.AccessToken != "access-2" {
			t.Errorf("expected replaced token, got %q", token.AccessToken)
		}
	})

	t.Run("Rejects Empty Token", func(t *testing.T) {
		repo := NewTokenRepository(openTestDB(t))

		if err := repo.Save(ctx, "alice", nil); err == nil {
			t.Error("expected error for nil token")
		}
		if err := repo.Save(ctx, "alice", &oauth2.Token{}); err == nil {
			t.Error("expected error for empty access token")
		}
	})
}
