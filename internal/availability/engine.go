// Package availability holds the interval policy and conflict detection for
// resource reservations. Conflict scans cover only occupying states, so
// drafts and abandoned or finished bookings never block a new one.
package availability

import (
	"context"
	"time"

	"github.com/campuskit/reservas/internal/model"
	"github.com/campuskit/reservas/internal/workflow"
	"github.com/google/uuid"
)

const (
	MinDuration = 30 * time.Minute
	MaxDuration = 8 * time.Hour
)

// OccupyingStates are the reservation states that count toward conflicts.
var OccupyingStates = []workflow.State{
	workflow.StatePending,
	workflow.StateApproved,
	workflow.StateInProgress,
}

// IsOccupying reports whether a reservation in the given state blocks the
// interval it covers.
func IsOccupying(s workflow.State) bool {
	for _, o := range OccupyingStates {
		if s == o {
			return true
		}
	}
	return false
}

// Overlaps implements half-open interval semantics: [a1,a2) and [b1,b2)
// overlap iff a1 < b2 and b1 < a2. Back-to-back intervals do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// ValidateInterval enforces the interval policy: start strictly before end
// and a duration between 30 minutes and 8 hours.
func ValidateInterval(start, end time.Time) error {
	if !start.Before(end) {
		return model.NewInvalidInterval("end time must be after start time")
	}
	d := end.Sub(start)
	if d < MinDuration {
		return model.NewDurationOutOfRange("reservations must last at least %s", MinDuration)
	}
	if d > MaxDuration {
		return model.NewDurationOutOfRange("reservations must not last more than %s", MaxDuration)
	}
	return nil
}

// ValidateFutureStart rejects intervals that do not start strictly after now.
// Checked at creation only; updating an already approved future reservation
// does not re-apply it.
func ValidateFutureStart(start, now time.Time) error {
	if !start.After(now) {
		return model.NewPastReservation("reservations cannot start in the past")
	}
	return nil
}

// CheckCapacity rejects attendee counts above the resource capacity.
func CheckCapacity(resource *model.Resource, expectedAttendees int) error {
	if expectedAttendees <= 0 {
		return model.NewValidationError("expected attendees must be positive")
	}
	if expectedAttendees > resource.Capacity {
		return model.NewCapacityExceeded(expectedAttendees, resource.Capacity)
	}
	return nil
}

// OccupancySource yields the occupying reservations on a resource that
// overlap [start, end), excluding at most one reservation id so an in-place
// edit can ignore itself.
type OccupancySource interface {
	ListOccupying(ctx context.Context, resourceID uuid.UUID, start, end time.Time, exclude uuid.UUID) ([]*model.Reservation, error)
}

// Engine answers availability questions for one store. It is pure query
// logic; callers decide what lock or transaction it runs under.
type Engine struct {
	source OccupancySource
}

func NewEngine(source OccupancySource) *Engine {
	return &Engine{source: source}
}

// Conflicts returns the occupying reservations that overlap the interval.
func (e *Engine) Conflicts(ctx context.Context, resourceID uuid.UUID, start, end time.Time, exclude uuid.UUID) ([]*model.Reservation, error) {
	return e.source.ListOccupying(ctx, resourceID, start, end, exclude)
}

// HasConflict reports whether any occupying reservation overlaps the interval.
func (e *Engine) HasConflict(ctx context.Context, resourceID uuid.UUID, start, end time.Time, exclude uuid.UUID) (bool, error) {
	conflicts, err := e.Conflicts(ctx, resourceID, start, end, exclude)
	if err != nil {
		return false, err
	}
	return len(conflicts) > 0, nil
}

// IsAvailable reports whether the resource is active and conflict-free over
// the interval.
func (e *Engine) IsAvailable(ctx context.Context, resource *model.Resource, start, end time.Time, exclude uuid.UUID) (bool, error) {
	if !resource.Active {
		return false, nil
	}
	conflict, err := e.HasConflict(ctx, resource.ID, start, end, exclude)
	if err != nil {
		return false, err
	}
	return !conflict, nil
}

// ValidateBooking runs the full validation set for creating or editing a
// reservation: capacity, interval policy, future start (new bookings only),
// resource active, no conflicts. The first violated rule is returned;
// capacity goes first so an oversized request reports CAPACITY_EXCEEDED even
// when the interval is malformed too.
func (e *Engine) ValidateBooking(ctx context.Context, resource *model.Resource, start, end time.Time, expectedAttendees int, exclude uuid.UUID, now time.Time, isNew bool) error {
	if err := CheckCapacity(resource, expectedAttendees); err != nil {
		return err
	}
	if err := ValidateInterval(start, end); err != nil {
		return err
	}
	if isNew {
		if err := ValidateFutureStart(start, now); err != nil {
			return err
		}
	}
	if !resource.Active {
		return model.NewValidationError("resource %s is not active", resource.Code)
	}
	conflict, err := e.HasConflict(ctx, resource.ID, start, end, exclude)
	if err != nil {
		return err
	}
	if conflict {
		return model.NewConflict("resource is not available in the selected time range")
	}
	return nil
}
