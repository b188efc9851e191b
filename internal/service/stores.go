package service

import (
	"context"
	"time"

	"github.com/campuskit/reservas/internal/model"
	"github.com/campuskit/reservas/internal/workflow"
	"github.com/google/uuid"
)

// Store interfaces the services depend on. The pgx repositories satisfy them;
// tests use an in-memory implementation. Get methods return nil, nil when the
// entity does not exist.

type ResourceStore interface {
	Create(ctx context.Context, resource *model.Resource) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Resource, error)
	GetByCode(ctx context.Context, code string) (*model.Resource, error)
	Update(ctx context.Context, resource *model.Resource) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	List(ctx context.Context, activeOnly bool) ([]*model.Resource, error)
}

type ReservationStore interface {
	Create(ctx context.Context, res *model.Reservation) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Reservation, error)
	Update(ctx context.Context, res *model.Reservation) error
	CompareAndSwapState(ctx context.Context, res *model.Reservation, from workflow.State) (bool, error)
	ListOccupying(ctx context.Context, resourceID uuid.UUID, start, end time.Time, exclude uuid.UUID) ([]*model.Reservation, error)
	ListByOwner(ctx context.Context, userID uuid.UUID) ([]*model.Reservation, error)
	ListByResource(ctx context.Context, resourceID uuid.UUID, filter model.ReservationFilter) ([]*model.Reservation, error)
	ListPending(ctx context.Context) ([]*model.Reservation, error)
	ListSweepDue(ctx context.Context, now time.Time) ([]*model.Reservation, error)
	CountByState(ctx context.Context, resourceID uuid.UUID) (map[workflow.State]int, error)
}

type HistoryStore interface {
	Append(ctx context.Context, entry *model.HistoryEntry) error
	ForReservation(ctx context.Context, reservationID uuid.UUID) ([]*model.HistoryEntry, error)
}

// ResourceLocker serializes the availability check with the write it gates,
// per resource. The pgx store backs it with a transaction plus an advisory
// lock keyed by the resource id.
type ResourceLocker interface {
	WithResourceLock(ctx context.Context, resourceID uuid.UUID, fn func(ctx context.Context) error) error
}
