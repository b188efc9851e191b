package service

import (
	"context"
	"sync"
	"time"

	"github.com/campuskit/reservas/internal/availability"
	"github.com/campuskit/reservas/internal/model"
	"github.com/campuskit/reservas/internal/workflow"
	"github.com/google/uuid"
)

// memStore is the in-memory test double for the store interfaces. It copies
// entities on the way in and out so compare-and-swap semantics match the SQL
// implementation, and it serializes WithResourceLock callbacks the way the
// advisory lock does.
type memStore struct {
	mu     sync.Mutex
	lockMu sync.Mutex
	now    func() time.Time

	resources    map[uuid.UUID]*model.Resource
	reservations map[uuid.UUID]*model.Reservation
	history      []*model.HistoryEntry
}

func newMemStore(now func() time.Time) *memStore {
	return &memStore{
		now:          now,
		resources:    make(map[uuid.UUID]*model.Resource),
		reservations: make(map[uuid.UUID]*model.Reservation),
	}
}

func (s *memStore) WithResourceLock(ctx context.Context, _ uuid.UUID, fn func(ctx context.Context) error) error {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()
	return fn(ctx)
}

// ResourceStore

func (s *memStore) Create(ctx context.Context, resource *model.Resource) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	resource.ID = uuid.New()
	resource.CreatedAt = s.now()
	resource.UpdatedAt = resource.CreatedAt
	c := *resource
	s.resources[resource.ID] = &c
	return nil
}

func (s *memStore) GetByID(ctx context.Context, id uuid.UUID) (*model.Resource, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.resources[id]
	if !ok {
		return nil, nil
	}
	c := *r
	return &c, nil
}

func (s *memStore) GetByCode(ctx context.Context, code string) (*model.Resource, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.resources {
		if r.Code == code {
			c := *r
			return &c, nil
		}
	}
	return nil, nil
}

func (s *memStore) Update(ctx context.Context, resource *model.Resource) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	resource.UpdatedAt = s.now()
	c := *resource
	s.resources[resource.ID] = &c
	return nil
}

func (s *memStore) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.resources[id]; ok {
		r.Active = active
		r.UpdatedAt = s.now()
	}
	return nil
}

func (s *memStore) List(ctx context.Context, activeOnly bool) ([]*model.Resource, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.Resource
	for _, r := range s.resources {
		if activeOnly && !r.Active {
			continue
		}
		c := *r
		out = append(out, &c)
	}
	return out, nil
}

// reservationStore adapts memStore to the ReservationStore interface; the
// method sets of resources and reservations would collide on one type.
type reservationStore struct {
	s *memStore
}

func (rs reservationStore) Create(ctx context.Context, res *model.Reservation) error {
	s := rs.s
	s.mu.Lock()
	defer s.mu.Unlock()
	res.ID = uuid.New()
	res.CreatedAt = s.now()
	res.UpdatedAt = res.CreatedAt
	c := *res
	s.reservations[res.ID] = &c
	return nil
}

func (rs reservationStore) GetByID(ctx context.Context, id uuid.UUID) (*model.Reservation, error) {
	s := rs.s
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reservations[id]
	if !ok {
		return nil, nil
	}
	c := *r
	return &c, nil
}

func (rs reservationStore) Update(ctx context.Context, res *model.Reservation) error {
	s := rs.s
	s.mu.Lock()
	defer s.mu.Unlock()
	res.UpdatedAt = s.now()
	c := *res
	s.reservations[res.ID] = &c
	return nil
}

func (rs reservationStore) CompareAndSwapState(ctx context.Context, res *model.Reservation, from workflow.State) (bool, error) {
	s := rs.s
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.reservations[res.ID]
	if !ok || stored.State != from {
		return false, nil
	}
	res.UpdatedAt = s.now()
	c := *res
	s.reservations[res.ID] = &c
	return true, nil
}

func (rs reservationStore) ListOccupying(ctx context.Context, resourceID uuid.UUID, start, end time.Time, exclude uuid.UUID) ([]*model.Reservation, error) {
	s := rs.s
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.Reservation
	for _, r := range s.reservations {
		if r.ResourceID != resourceID || r.ID == exclude {
			continue
		}
		if !availability.IsOccupying(r.State) {
			continue
		}
		if availability.Overlaps(r.StartTime, r.EndTime, start, end) {
			c := *r
			out = append(out, &c)
		}
	}
	return out, nil
}

func (rs reservationStore) ListByOwner(ctx context.Context, userID uuid.UUID) ([]*model.Reservation, error) {
	s := rs.s
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.Reservation
	for _, r := range s.reservations {
		if r.UserID == userID {
			c := *r
			out = append(out, &c)
		}
	}
	return out, nil
}

func (rs reservationStore) ListByResource(ctx context.Context, resourceID uuid.UUID, filter model.ReservationFilter) ([]*model.Reservation, error) {
	s := rs.s
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.Reservation
	for _, r := range s.reservations {
		if r.ResourceID != resourceID {
			continue
		}
		if len(filter.States) > 0 && !containsState(filter.States, r.State) {
			continue
		}
		if filter.From != nil && r.StartTime.Before(*filter.From) {
			continue
		}
		if filter.To != nil && !r.StartTime.Before(*filter.To) {
			continue
		}
		c := *r
		out = append(out, &c)
	}
	return out, nil
}

func (rs reservationStore) ListPending(ctx context.Context) ([]*model.Reservation, error) {
	s := rs.s
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.Reservation
	for _, r := range s.reservations {
		if r.State == workflow.StatePending {
			c := *r
			out = append(out, &c)
		}
	}
	return out, nil
}

func (rs reservationStore) ListSweepDue(ctx context.Context, now time.Time) ([]*model.Reservation, error) {
	s := rs.s
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.Reservation
	for _, r := range s.reservations {
		due := (r.State == workflow.StateApproved && !r.StartTime.After(now)) ||
			(r.State == workflow.StateInProgress && !r.EndTime.After(now))
		if due {
			c := *r
			out = append(out, &c)
		}
	}
	return out, nil
}

func (rs reservationStore) CountByState(ctx context.Context, resourceID uuid.UUID) (map[workflow.State]int, error) {
	s := rs.s
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := make(map[workflow.State]int)
	for _, r := range s.reservations {
		if r.ResourceID == resourceID {
			counts[r.State]++
		}
	}
	return counts, nil
}

// HistoryStore

type historyStore struct {
	s *memStore
}

func (hs historyStore) Append(ctx context.Context, entry *model.HistoryEntry) error {
	s := hs.s
	s.mu.Lock()
	defer s.mu.Unlock()
	entry.ID = uuid.New()
	entry.Timestamp = s.now()
	c := *entry
	s.history = append(s.history, &c)
	return nil
}

func (hs historyStore) ForReservation(ctx context.Context, reservationID uuid.UUID) ([]*model.HistoryEntry, error) {
	s := hs.s
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.HistoryEntry
	// newest first; the slice is in append order
	for i := len(s.history) - 1; i >= 0; i-- {
		if s.history[i].ReservationID == reservationID {
			c := *s.history[i]
			out = append(out, &c)
		}
	}
	return out, nil
}

func containsState(states []workflow.State, s workflow.State) bool {
	for _, candidate := range states {
		if candidate == s {
			return true
		}
	}
	return false
}
