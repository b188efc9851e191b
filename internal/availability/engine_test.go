package availability

import (
	"context"
	"testing"
	"time"

	"github.com/campuskit/reservas/internal/model"
	"github.com/campuskit/reservas/internal/workflow"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

func at(h, m int) time.Time {
	return time.Date(2025, 6, 1, h, m, 0, 0, time.UTC)
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name                       string
		aStart, aEnd, bStart, bEnd time.Time
		want                       bool
	}{
		{"identical", at(10, 0), at(11, 0), at(10, 0), at(11, 0), true},
		{"partial overlap", at(10, 0), at(11, 0), at(10, 30), at(11, 30), true},
		{"contained", at(10, 0), at(12, 0), at(10, 30), at(11, 0), true},
		{"back to back", at(10, 0), at(11, 0), at(11, 0), at(12, 0), false},
		{"back to back reversed", at(11, 0), at(12, 0), at(10, 0), at(11, 0), false},
		{"disjoint", at(10, 0), at(11, 0), at(13, 0), at(14, 0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Overlaps(tt.aStart, tt.aEnd, tt.bStart, tt.bEnd))
		})
	}
}

func TestValidateInterval(t *testing.T) {
	assert.NoError(t, ValidateInterval(at(10, 0), at(11, 0)))
	assert.NoError(t, ValidateInterval(at(10, 0), at(10, 30)), "minimum duration is allowed")
	assert.NoError(t, ValidateInterval(at(10, 0), at(18, 0)), "maximum duration is allowed")

	err := ValidateInterval(at(11, 0), at(10, 0))
	assert.True(t, model.IsCode(err, model.CodeInvalidInterval))

	err = ValidateInterval(at(10, 0), at(10, 0))
	assert.True(t, model.IsCode(err, model.CodeInvalidInterval), "zero-length interval is invalid")

	err = ValidateInterval(at(10, 0), at(10, 15))
	assert.True(t, model.IsCode(err, model.CodeDurationOutOfRange), "below 30 minutes")

	err = ValidateInterval(at(10, 0), at(18, 30))
	assert.True(t, model.IsCode(err, model.CodeDurationOutOfRange), "above 8 hours")
}

func TestValidateFutureStart(t *testing.T) {
	now := base
	assert.NoError(t, ValidateFutureStart(now.Add(time.Minute), now))

	err := ValidateFutureStart(now, now)
	assert.True(t, model.IsCode(err, model.CodePastReservation), "start equal to now is rejected")

	err = ValidateFutureStart(now.Add(-time.Hour), now)
	assert.True(t, model.IsCode(err, model.CodePastReservation))
}

func TestCheckCapacity(t *testing.T) {
	resource := &model.Resource{Capacity: 20}

	assert.NoError(t, CheckCapacity(resource, 20))
	assert.NoError(t, CheckCapacity(resource, 1))

	err := CheckCapacity(resource, 21)
	assert.True(t, model.IsCode(err, model.CodeCapacityExceeded))

	err = CheckCapacity(resource, 0)
	assert.True(t, model.IsCode(err, model.CodeValidation))
}

func TestIsOccupying(t *testing.T) {
	assert.True(t, IsOccupying(workflow.StatePending))
	assert.True(t, IsOccupying(workflow.StateApproved))
	assert.True(t, IsOccupying(workflow.StateInProgress))

	assert.False(t, IsOccupying(workflow.StateDraft))
	assert.False(t, IsOccupying(workflow.StateRejected))
	assert.False(t, IsOccupying(workflow.StateCanceled))
	assert.False(t, IsOccupying(workflow.StateFinished))
}

// stubSource serves a fixed set of reservations, applying the same state and
// overlap filters the real store does.
type stubSource struct {
	reservations []*model.Reservation
}

func (s *stubSource) ListOccupying(_ context.Context, resourceID uuid.UUID, start, end time.Time, exclude uuid.UUID) ([]*model.Reservation, error) {
	var out []*model.Reservation
	for _, r := range s.reservations {
		if r.ResourceID != resourceID || r.ID == exclude {
			continue
		}
		if !IsOccupying(r.State) {
			continue
		}
		if Overlaps(r.StartTime, r.EndTime, start, end) {
			out = append(out, r)
		}
	}
	return out, nil
}

func TestEngineConflicts(t *testing.T) {
	resourceID := uuid.New()
	approved := &model.Reservation{
		ID:         uuid.New(),
		ResourceID: resourceID,
		StartTime:  at(10, 0),
		EndTime:    at(11, 0),
		State:      workflow.StateApproved,
	}
	draft := &model.Reservation{
		ID:         uuid.New(),
		ResourceID: resourceID,
		StartTime:  at(10, 0),
		EndTime:    at(11, 0),
		State:      workflow.StateDraft,
	}
	engine := NewEngine(&stubSource{reservations: []*model.Reservation{approved, draft}})
	ctx := context.Background()

	conflict, err := engine.HasConflict(ctx, resourceID, at(10, 30), at(11, 30), uuid.Nil)
	require.NoError(t, err)
	assert.True(t, conflict, "overlapping approved reservation conflicts")

	conflict, err = engine.HasConflict(ctx, resourceID, at(11, 0), at(12, 0), uuid.Nil)
	require.NoError(t, err)
	assert.False(t, conflict, "back-to-back booking does not conflict")

	conflict, err = engine.HasConflict(ctx, resourceID, at(10, 30), at(11, 30), approved.ID)
	require.NoError(t, err)
	assert.False(t, conflict, "excluded reservation does not conflict with itself")

	conflict, err = engine.HasConflict(ctx, uuid.New(), at(10, 30), at(11, 30), uuid.Nil)
	require.NoError(t, err)
	assert.False(t, conflict, "other resources are not scanned")
}

func TestEngineIsAvailable(t *testing.T) {
	resource := &model.Resource{ID: uuid.New(), Active: true, Capacity: 10}
	engine := NewEngine(&stubSource{})
	ctx := context.Background()

	ok, err := engine.IsAvailable(ctx, resource, at(10, 0), at(11, 0), uuid.Nil)
	require.NoError(t, err)
	assert.True(t, ok)

	resource.Active = false
	ok, err = engine.IsAvailable(ctx, resource, at(10, 0), at(11, 0), uuid.Nil)
	require.NoError(t, err)
	assert.False(t, ok, "inactive resource is never available")
}

func TestEngineValidateBookingCapacityFirst(t *testing.T) {
	resource := &model.Resource{ID: uuid.New(), Active: true, Capacity: 20}
	engine := NewEngine(&stubSource{})

	// interval is malformed too, but capacity wins
	err := engine.ValidateBooking(context.Background(), resource, at(11, 0), at(10, 0), 25, uuid.Nil, base, true)
	assert.True(t, model.IsCode(err, model.CodeCapacityExceeded))
}

func TestEngineValidateBookingConflict(t *testing.T) {
	resource := &model.Resource{ID: uuid.New(), Active: true, Capacity: 20}
	occupied := &model.Reservation{
		ID:         uuid.New(),
		ResourceID: resource.ID,
		StartTime:  at(10, 0),
		EndTime:    at(11, 0),
		State:      workflow.StatePending,
	}
	engine := NewEngine(&stubSource{reservations: []*model.Reservation{occupied}})

	now := at(8, 0)
	err := engine.ValidateBooking(context.Background(), resource, at(10, 30), at(11, 30), 5, uuid.Nil, now, true)
	assert.True(t, model.IsCode(err, model.CodeConflict))
}
