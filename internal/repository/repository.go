package repository

import (
	"context"
	"errors"

	"cortexsoc/internal/models"
)

var (
	// ErrIncidentNotFound is returned for lookups by unknown incident ID.
	ErrIncidentNotFound = errors.New("incident not found")
)

// LogStore is the append-only ordered sequence of ingested log records. The
// detection engine treats List output as stable, chronological insertion
// order.
type LogStore interface {
	// Append assigns the next identity, stores the record, and returns the
	// stored representation.
	Append(ctx context.Context, record models.LogRecord) (models.LogRecord, error)
	// List returns up to limit most recent records in insertion order.
	// limit <= 0 means all records.
	List(ctx context.Context, limit int) ([]models.LogRecord, error)
	// Len reports the number of stored records.
	Len(ctx context.Context) (int64, error)
}

// IncidentStore persists incidents keyed by their numeric identity.
// Implementations must serialize identity assignment so IDs stay unique and
// monotonically increasing under concurrent responders.
type IncidentStore interface {
	// Create assigns the next identity to the incident and persists it.
	Create(ctx context.Context, incident *models.Incident) error
	// Update replaces the stored incident with the given one.
	Update(ctx context.Context, incident *models.Incident) error
	// Get returns the incident with the given ID or ErrIncidentNotFound.
	Get(ctx context.Context, id int64) (*models.Incident, error)
	// List returns all incidents in creation order.
	List(ctx context.Context) ([]*models.Incident, error)
}
