package main

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/tandem/internal/shared"
	"github.com/desertthunder/tandem/internal/ui"
	"github.com/urfave/cli/v3"
)

// StationCreate registers a new station.
func (r *Runner) StationCreate(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: station id", shared.ErrMissingArgument)
	}

	d, err := r.connect()
	if err != nil {
		return err
	}
	defer d.Close()

	res, err := d.coordinator.CreateStation(ctx, id, cmd.String("name"))
	if err != nil {
		return err
	}
	return r.writeResult(res)
}

// StationStart makes the acting user the station's owner.
func (r *Runner) StationStart(ctx context.Context, cmd *cli.Command) error {
	d, err := r.connect()
	if err != nil {
		return err
	}
	defer d.Close()

	res, err := d.coordinator.Start(ctx, cmd.String("user"), cmd.StringArg("id"))
	if err != nil {
		return err
	}
	return r.writeResult(res)
}

// StationJoin synchronizes the acting user's device with the station.
func (r *Runner) StationJoin(ctx context.Context, cmd *cli.Command) error {
	d, err := r.connect()
	if err != nil {
		return err
	}
	defer d.Close()

	res, err := d.coordinator.Join(ctx, cmd.String("user"), cmd.StringArg("id"))
	if err != nil {
		return err
	}
	return r.writeResult(res)
}

// StationOwner transfers station ownership.
func (r *Runner) StationOwner(ctx context.Context, cmd *cli.Command) error {
	d, err := r.connect()
	if err != nil {
		return err
	}
	defer d.Close()

	res, err := d.coordinator.ChangeOwner(ctx, cmd.String("user"), cmd.StringArg("id"))
	if err != nil {
		return err
	}
	return r.writeResult(res)
}

// stationStatusView is the status command's output shape.
type stationStatusView struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	OwnerUserID string              `json:"owner_user_id,omitempty"`
	StartedAt   time.Time           `json:"started_at,omitzero"`
	Listeners   []listenerStatusRow `json:"listeners"`
}

type listenerStatusRow struct {
	UserID     string `json:"user_id"`
	IsPlaying  bool   `json:"is_playing"`
	TrackName  string `json:"track_name,omitempty"`
	Artist     string `json:"artist,omitempty"`
	PositionMs int64  `json:"position_ms"`
}

// StationStatus shows the station and its persisted listener snapshots.
func (r *Runner) StationStatus(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: station id", shared.ErrMissingArgument)
	}

	d, err := r.connect()
	if err != nil {
		return err
	}
	defer d.Close()

	st, err := d.stations.GetOrDefault(ctx, id)
	if err != nil {
		return err
	}
	if st == nil {
		return fmt.Errorf("%w: %s", shared.ErrStationNotFound, id)
	}

	rows, err := d.players.List(ctx, st.ID)
	if err != nil {
		return err
	}

	now := time.Now()
	view := stationStatusView{
		ID:          st.ID,
		Name:        st.Name,
		OwnerUserID: st.OwnerUserID,
		StartedAt:   st.StartedAt,
		Listeners:   make([]listenerStatusRow, 0, len(rows)),
	}
	for _, row := range rows {
		view.Listeners = append(view.Listeners, listenerStatusRow{
			UserID:     row.UserID,
			IsPlaying:  row.IsPlaying,
			TrackName:  row.TrackName,
			Artist:     row.Artist,
			PositionMs: row.PositionNow(now).Milliseconds(),
		})
	}

	if cmd.Bool("json") {
		return r.writeJSON(view, cmd.Bool("pretty"))
	}

	r.writePlain("Station: %s (%s)\n", st.Name, st.ID)
	if st.HasOwner() {
		r.writePlain("Owner: %s, started %s\n", st.OwnerUserID, st.StartedAt.Format(time.RFC3339))
	} else {
		r.writePlain("Not started yet\n")
	}

	for _, l := range view.Listeners {
		if !l.IsPlaying {
			r.writePlain("  %s: not playing\n", l.UserID)
			continue
		}
		position := shared.FormatPosition(time.Duration(l.PositionMs) * time.Millisecond)
		r.writePlain("  %s: %s • %s (%s)\n", l.UserID, l.TrackName, l.Artist, position)
	}

	return nil
}

// Watch launches the live station TUI.
func (r *Runner) Watch(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: station id", shared.ErrMissingArgument)
	}

	d, err := r.connect()
	if err != nil {
		return err
	}
	defer d.Close()

	model := ui.NewModel(ctx, d.stations, d.players, shared.CanonicalID(id))
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("watch TUI failed: %w", err)
	}
	return nil
}
