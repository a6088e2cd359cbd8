package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tandem/internal/repositories"
	"github.com/desertthunder/tandem/internal/shared"
	"github.com/desertthunder/tandem/internal/station"
)

// SyncService is the slice of the coordinator the HTTP layer drives.
type SyncService interface {
	CreateStation(ctx context.Context, stationID, name string) (*station.Result, error)
	Start(ctx context.Context, userID, stationID string) (*station.Result, error)
	Join(ctx context.Context, userID, stationID string) (*station.Result, error)
	ChangeOwner(ctx context.Context, userID, stationID string) (*station.Result, error)
}

// StationReader loads stations for the read endpoints.
type StationReader interface {
	GetOrDefault(ctx context.Context, id string) (*station.Station, error)
}

// PlayerLister loads the persisted listener snapshots of a station.
type PlayerLister interface {
	List(ctx context.Context, stationID string) ([]repositories.PlayerRow, error)
}

// StationHandler serves the station API. Implements [Handler].
type StationHandler struct {
	sync     SyncService
	stations StationReader
	players  PlayerLister
	logger   *log.Logger
}

// NewStationHandler creates a StationHandler.
func NewStationHandler(sync SyncService, stations StationReader, players PlayerLister, logger *log.Logger) *StationHandler {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &StationHandler{
		sync:     sync,
		stations: stations,
		players:  players,
		logger:   shared.WithLogger(logger, "component", "api"),
	}
}

// Routes returns the mux patterns this handler serves.
func (h *StationHandler) Routes() []string {
	return []string{
		"POST /stations/{id}",
		"GET /stations/{id}",
		"PUT /stations/{id}/start",
		"PUT /stations/{id}/join",
		"PUT /stations/{id}/owner",
	}
}

// ServeHTTP dispatches to the operation the matched pattern describes.
func (h *StationHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	switch {
	case r.Method == http.MethodPost:
		h.create(w, r, id)
	case r.Method == http.MethodGet:
		h.get(w, r, id)
	case strings.HasSuffix(r.URL.Path, "/start"):
		h.workflow(w, r, id, h.sync.Start)
	case strings.HasSuffix(r.URL.Path, "/join"):
		h.workflow(w, r, id, h.sync.Join)
	case strings.HasSuffix(r.URL.Path, "/owner"):
		h.workflow(w, r, id, h.sync.ChangeOwner)
	default:
		http.NotFound(w, r)
	}
}

func (h *StationHandler) create(w http.ResponseWriter, r *http.Request, id string) {
	var body struct {
		Name string `json:"name"`
	}
	if r.Body != nil {
		// An empty or absent body means the id doubles as the name.
		_ = json.NewDecoder(r.Body).Decode(&body)
	}

	res, err := h.sync.CreateStation(r.Context(), id, body.Name)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeResult(w, http.StatusCreated, res)
}

func (h *StationHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	st, err := h.stations.GetOrDefault(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if st == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "station not found"})
		return
	}

	rows, err := h.players.List(r.Context(), st.ID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	now := time.Now()
	players := make([]playerView, 0, len(rows))
	for _, row := range rows {
		players = append(players, playerView{
			UserID:     row.UserID,
			IsPlaying:  row.IsPlaying,
			TrackName:  row.TrackName,
			Artist:     row.Artist,
			PositionMs: row.PositionNow(now).Milliseconds(),
			UpdatedAt:  row.UpdatedAt,
		})
	}

	writeJSON(w, http.StatusOK, stationView{
		ID:          st.ID,
		Name:        st.Name,
		OwnerUserID: st.OwnerUserID,
		StartedAt:   st.StartedAt,
		Players:     players,
	})
}

func (h *StationHandler) workflow(w http.ResponseWriter, r *http.Request, id string, op func(context.Context, string, string) (*station.Result, error)) {
	userID := r.Header.Get("X-User-ID")
	if userID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "X-User-ID header is required"})
		return
	}

	res, err := op(r.Context(), userID, id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeResult(w, http.StatusOK, res)
}

// writeResult maps a workflow outcome onto an HTTP status. successStatus is
// used for successful outcomes so creation can answer 201.
func (h *StationHandler) writeResult(w http.ResponseWriter, successStatus int, res *station.Result) {
	status := successStatus
	switch res.Status {
	case station.StatusPending:
		status = http.StatusAccepted
	case station.StatusNotFound:
		status = http.StatusNotFound
	case station.StatusPreconditionFailed, station.StatusConflict:
		status = http.StatusConflict
	}
	writeJSON(w, status, res)
}

func (h *StationHandler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, shared.ErrNotImplemented):
		status = http.StatusNotImplemented
	case errors.Is(err, shared.ErrMissingArgument), errors.Is(err, shared.ErrInvalidArgument):
		status = http.StatusBadRequest
	case errors.Is(err, shared.ErrNotAuthenticated):
		status = http.StatusUnauthorized
	case errors.Is(err, shared.ErrPlaybackUnavailable), errors.Is(err, shared.ErrAPIRequest), errors.Is(err, shared.ErrTokenExpired):
		status = http.StatusBadGateway
	}

	h.logger.Error("request failed", "status", status, "error", err)
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

type stationView struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	OwnerUserID string       `json:"owner_user_id,omitempty"`
	StartedAt   time.Time    `json:"started_at,omitzero"`
	Players     []playerView `json:"players"`
}

type playerView struct {
	UserID     string    `json:"user_id"`
	IsPlaying  bool      `json:"is_playing"`
	TrackName  string    `json:"track_name,omitempty"`
	Artist     string    `json:"artist,omitempty"`
	PositionMs int64     `json:"position_ms"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// HealthHandler answers liveness checks.
func HealthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
}
