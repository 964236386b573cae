package memory

import (
	"context"
	"sync"

	"cortexsoc/internal/models"
	"cortexsoc/internal/repository"
)

// IncidentStore is the in-process incident store. A single mutex serializes
// identity assignment and appends, keeping incident IDs unique and
// monotonically increasing under concurrent responders.
type IncidentStore struct {
	mu        sync.RWMutex
	incidents []*models.Incident
	byID      map[int64]*models.Incident
	nextID    int64
}

// NewIncidentStore creates an empty in-memory incident store.
func NewIncidentStore() *IncidentStore {
	return &IncidentStore{
		byID:   make(map[int64]*models.Incident),
		nextID: 1,
	}
}

// Create assigns the next identity and persists the incident.
func (s *IncidentStore) Create(_ context.Context, incident *models.Incident) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	incident.ID = s.nextID
	s.nextID++
	stored := cloneIncident(incident)
	s.incidents = append(s.incidents, stored)
	s.byID[stored.ID] = stored
	return nil
}

// Update replaces the stored incident with the given one.
func (s *IncidentStore) Update(_ context.Context, incident *models.Incident) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.byID[incident.ID]
	if !ok {
		return repository.ErrIncidentNotFound
	}
	*stored = *cloneIncident(incident)
	return nil
}

// Get returns the incident with the given ID.
func (s *IncidentStore) Get(_ context.Context, id int64) (*models.Incident, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored, ok := s.byID[id]
	if !ok {
		return nil, repository.ErrIncidentNotFound
	}
	return cloneIncident(stored), nil
}

// List returns all incidents in creation order.
func (s *IncidentStore) List(_ context.Context) ([]*models.Incident, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Incident, len(s.incidents))
	for i, inc := range s.incidents {
		out[i] = cloneIncident(inc)
	}
	return out, nil
}

// cloneIncident copies an incident and its action history so callers can
// never mutate stored state without going through Update.
func cloneIncident(in *models.Incident) *models.Incident {
	out := *in
	out.Actions = make([]models.ActionRecord, len(in.Actions))
	copy(out.Actions, in.Actions)
	return &out
}
