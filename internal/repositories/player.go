package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/tandem/internal/shared"
	"github.com/desertthunder/tandem/internal/station"
)

// PlayerRow is a persisted playback snapshot for one listener on one
// station.
type PlayerRow struct {
	StationID       string
	UserID          string
	IsPlaying       bool
	TrackID         string
	TrackName       string
	Artist          string
	Duration        time.Duration
	ContextType     string
	ContextURI      string
	Epoch           time.Time
	PositionAtEpoch time.Duration
	UpdatedAt       time.Time
}

// PositionNow extrapolates the persisted playhead to now. Estimates only,
// for status displays; the engine always re-probes before acting.
func (p PlayerRow) PositionNow(now time.Time) time.Duration {
	if !p.IsPlaying {
		return p.PositionAtEpoch
	}
	o := station.Offset{
		Epoch:          p.Epoch,
		ServerPosition: p.PositionAtEpoch,
		Duration:       p.Duration,
	}
	return o.PositionNow(now)
}

// PlayerRepository implements [station.PlayerStore] over SQLite.
type PlayerRepository struct {
	db *sql.DB
}

// NewPlayerRepository creates a new [PlayerRepository] with the given database connection.
func NewPlayerRepository(db *sql.DB) *PlayerRepository {
	return &PlayerRepository{db: db}
}

// Upsert writes the snapshot for a (station, user) pair, replacing any
// previous one.
func (r *PlayerRepository) Upsert(ctx context.Context, stationID, userID string, np *station.NowPlaying) error {
	query := `
		INSERT INTO players (
			station_id, user_id, is_playing, track_id, track_name, artist,
			duration_ms, context_type, context_uri, epoch_ms, position_at_epoch_ms, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (station_id, user_id) DO UPDATE SET
			is_playing = excluded.is_playing,
			track_id = excluded.track_id,
			track_name = excluded.track_name,
			artist = excluded.artist,
			duration_ms = excluded.duration_ms,
			context_type = excluded.context_type,
			context_uri = excluded.context_uri,
			epoch_ms = excluded.epoch_ms,
			position_at_epoch_ms = excluded.position_at_epoch_ms,
			updated_at = excluded.updated_at
	`

	var epochMs, positionMs int64
	if np.Offset != nil {
		epochMs = np.Offset.Epoch.UnixMilli()
		positionMs = np.Offset.PositionAtEpoch().Milliseconds()
	}

	_, err := r.db.ExecContext(ctx, query,
		shared.CanonicalID(stationID), shared.CanonicalID(userID),
		np.IsPlaying, np.TrackID, np.TrackName, np.Artist,
		np.Duration.Milliseconds(), np.ContextType, np.ContextURI,
		epochMs, positionMs, time.Now())
	if err != nil {
		return fmt.Errorf("failed to upsert player snapshot: %w", err)
	}

	return nil
}

// List retrieves all snapshots for a station, owner-agnostic, most recently
// updated first.
func (r *PlayerRepository) List(ctx context.Context, stationID string) ([]PlayerRow, error) {
	query := `
		SELECT station_id, user_id, is_playing, track_id, track_name, artist,
			duration_ms, context_type, context_uri, epoch_ms, position_at_epoch_ms, updated_at
		FROM players
		WHERE station_id = ?
		ORDER BY updated_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, shared.CanonicalID(stationID))
	if err != nil {
		return nil, fmt.Errorf("failed to query players: %w", err)
	}
	defer rows.Close()

	var players []PlayerRow
	for rows.Next() {
		var (
			row        PlayerRow
			trackID    sql.NullString
			trackName  sql.NullString
			artist     sql.NullString
			durationMs int64
			ctxType    sql.NullString
			ctxURI     sql.NullString
			epochMs    int64
			positionMs int64
		)

		err := rows.Scan(&row.StationID, &row.UserID, &row.IsPlaying, &trackID, &trackName, &artist,
			&durationMs, &ctxType, &ctxURI, &epochMs, &positionMs, &row.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan player snapshot: %w", err)
		}

		row.TrackID = trackID.String
		row.TrackName = trackName.String
		row.Artist = artist.String
		row.Duration = time.Duration(durationMs) * time.Millisecond
		row.ContextType = ctxType.String
		row.ContextURI = ctxURI.String
		row.Epoch = time.UnixMilli(epochMs)
		row.PositionAtEpoch = time.Duration(positionMs) * time.Millisecond

		players = append(players, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return players, nil
}
