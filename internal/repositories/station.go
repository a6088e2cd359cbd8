package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/tandem/internal/shared"
	"github.com/desertthunder/tandem/internal/station"
	"github.com/mattn/go-sqlite3"
)

// StationRepository implements [station.StationStore] over SQLite.
type StationRepository struct {
	db *sql.DB
}

// NewStationRepository creates a new [StationRepository] with the given database connection.
func NewStationRepository(db *sql.DB) *StationRepository {
	return &StationRepository{db: db}
}

// GetOrDefault retrieves a station by canonical ID, returning nil when the
// station does not exist.
func (r *StationRepository) GetOrDefault(ctx context.Context, id string) (*station.Station, error) {
	query := `
		SELECT id, name, owner_user_id, started_at, version, created_at, updated_at
		FROM stations
		WHERE id = ?
	`

	var (
		stationID string
		name      string
		owner     sql.NullString
		startedAt sql.NullTime
		version   int64
		createdAt time.Time
		updatedAt time.Time
	)

	err := r.db.QueryRowContext(ctx, query, shared.CanonicalID(id)).
		Scan(&stationID, &name, &owner, &startedAt, &version, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query station: %w", err)
	}

	st := &station.Station{
		ID:        stationID,
		Name:      name,
		Version:   version,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}
	if owner.Valid {
		st.OwnerUserID = owner.String
	}
	if startedAt.Valid {
		st.StartedAt = startedAt.Time
	}

	return st, nil
}

// Create inserts a new station, failing with [shared.ErrStationExists] when
// the ID is taken.
func (r *StationRepository) Create(ctx context.Context, st *station.Station) error {
	query := `
		INSERT INTO stations (id, name, owner_user_id, started_at, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	now := time.Now()
	_, err := r.db.ExecContext(ctx, query,
		st.ID, st.Name, nullString(st.OwnerUserID), nullTime(st.StartedAt), st.Version, now, now)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			return fmt.Errorf("%w: %s", shared.ErrStationExists, st.ID)
		}
		return fmt.Errorf("failed to insert station: %w", err)
	}

	st.CreatedAt = now
	st.UpdatedAt = now
	return nil
}

// Replace overwrites a station guarded by its version, failing with
// [shared.ErrConcurrencyConflict] when the stored version moved.
func (r *StationRepository) Replace(ctx context.Context, st *station.Station, expectedVersion int64) error {
	query := `
		UPDATE stations
		SET name = ?, owner_user_id = ?, started_at = ?, version = ?, updated_at = ?
		WHERE id = ? AND version = ?
	`

	now := time.Now()
	result, err := r.db.ExecContext(ctx, query,
		st.Name, nullString(st.OwnerUserID), nullTime(st.StartedAt), expectedVersion+1, now,
		st.ID, expectedVersion)
	if err != nil {
		return fmt.Errorf("failed to update station: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: station %s at version %d", shared.ErrConcurrencyConflict, st.ID, expectedVersion)
	}

	st.Version = expectedVersion + 1
	st.UpdatedAt = now
	return nil
}

// AcquireLease takes the station's synchronization lease. The update only
// lands when no lease is recorded or the recorded one has expired, so a
// crashed holder cannot lock a station for good.
func (r *StationRepository) AcquireLease(ctx context.Context, id, token string, ttl time.Duration) error {
	query := `
		UPDATE stations
		SET lease_token = ?, lease_expires_at = ?
		WHERE id = ? AND (lease_token IS NULL OR lease_expires_at < ?)
	`

	now := time.Now()
	result, err := r.db.ExecContext(ctx, query, token, now.Add(ttl), shared.CanonicalID(id), now)
	if err != nil {
		return fmt.Errorf("failed to acquire lease: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		st, err := r.GetOrDefault(ctx, id)
		if err != nil {
			return err
		}
		if st == nil {
			return fmt.Errorf("%w: %s", shared.ErrStationNotFound, id)
		}
		return fmt.Errorf("%w: station %s", shared.ErrStationLeaseHeld, id)
	}

	return nil
}

// ReleaseLease drops the lease if token still holds it. A lease that
// already expired and moved on is not an error.
func (r *StationRepository) ReleaseLease(ctx context.Context, id, token string) error {
	query := `
		UPDATE stations
		SET lease_token = NULL, lease_expires_at = NULL
		WHERE id = ? AND lease_token = ?
	`

	if _, err := r.db.ExecContext(ctx, query, shared.CanonicalID(id), token); err != nil {
		return fmt.Errorf("failed to release lease: %w", err)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
