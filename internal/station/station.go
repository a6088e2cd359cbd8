package station

import (
	"time"

	"github.com/desertthunder/tandem/internal/shared"
)

// Station is a named listening session one user owns and others join.
type Station struct {
	// ID is the canonical (lowercased) station identifier.
	ID string

	// Name preserves the caller's original casing for display.
	Name string

	// OwnerUserID is the canonical id of the owning user, empty until
	// someone starts the station.
	OwnerUserID string

	// StartedAt is when the current owner started playback.
	StartedAt time.Time

	CreatedAt time.Time
	UpdatedAt time.Time

	// Version increments on every replace and guards optimistic
	// concurrency in the store.
	Version int64
}

// NewStation creates a station with a canonical ID and the given display
// name. An empty name falls back to the raw id.
func NewStation(id, name string) *Station {
	if name == "" {
		name = id
	}
	return &Station{
		ID:      shared.CanonicalID(id),
		Name:    name,
		Version: 1,
	}
}

// HasOwner reports whether the station has been started.
func (s *Station) HasOwner() bool {
	return s.OwnerUserID != ""
}
