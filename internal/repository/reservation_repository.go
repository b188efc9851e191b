package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/campuskit/reservas/internal/model"
	"github.com/campuskit/reservas/internal/repository/base"
	"github.com/campuskit/reservas/internal/workflow"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ReservationRepository struct {
	*base.Repository
}

func NewReservationRepository(pool *pgxpool.Pool) *ReservationRepository {
	return &ReservationRepository{Repository: base.NewRepository(pool)}
}

const reservationColumns = `
	id, user_id, resource_id, start_time, end_time, purpose, purpose_detail,
	expected_attendees, responsible_name, responsible_phone, responsible_email,
	setup_requirements, state, observation, deadline, approved_by, approved_at,
	rejection_reason, cancellation_reason, created_at, updated_at`

// Create inserts a new reservation row.
func (r *ReservationRepository) Create(ctx context.Context, res *model.Reservation) error {
	query := `
		INSERT INTO reservations (
			user_id, resource_id, start_time, end_time, purpose, purpose_detail,
			expected_attendees, responsible_name, responsible_phone, responsible_email,
			setup_requirements, state, observation, deadline
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, created_at, updated_at
	`

	err := r.Q(ctx).QueryRow(
		ctx, query,
		res.UserID,
		res.ResourceID,
		res.StartTime,
		res.EndTime,
		res.Purpose,
		res.PurposeDetail,
		res.ExpectedAttendees,
		res.ResponsibleName,
		res.ResponsiblePhone,
		res.ResponsibleEmail,
		res.SetupRequirements,
		res.State,
		res.Observation,
		res.Deadline,
	).Scan(&res.ID, &res.CreatedAt, &res.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create reservation: %w", err)
	}

	return nil
}

// GetByID returns the reservation or nil when it does not exist.
func (r *ReservationRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Reservation, error) {
	query := `SELECT` + reservationColumns + ` FROM reservations WHERE id = $1`

	var res model.Reservation
	err := scanReservation(r.Q(ctx).QueryRow(ctx, query, id), &res)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get reservation by id: %w", err)
	}

	return &res, nil
}

// Update persists the fields editable while a reservation is a draft or
// pending. State changes go through CompareAndSwapState instead.
func (r *ReservationRepository) Update(ctx context.Context, res *model.Reservation) error {
	query := `
		UPDATE reservations
		SET resource_id = $2, start_time = $3, end_time = $4, purpose = $5,
		    purpose_detail = $6, expected_attendees = $7, responsible_name = $8,
		    responsible_phone = $9, responsible_email = $10, setup_requirements = $11,
		    observation = $12, deadline = $13, updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.Q(ctx).QueryRow(
		ctx, query,
		res.ID,
		res.ResourceID,
		res.StartTime,
		res.EndTime,
		res.Purpose,
		res.PurposeDetail,
		res.ExpectedAttendees,
		res.ResponsibleName,
		res.ResponsiblePhone,
		res.ResponsibleEmail,
		res.SetupRequirements,
		res.Observation,
		res.Deadline,
	).Scan(&res.UpdatedAt)

	if err != nil {
		if base.IsNotFound(err) {
			return fmt.Errorf("update reservation: reservation not found")
		}
		return fmt.Errorf("update reservation: %w", err)
	}

	return nil
}

// CompareAndSwapState writes the reservation's state and transition metadata
// only if the row is still in the expected state. It reports whether the swap
// happened, so a racing sweep or user transition loses cleanly.
func (r *ReservationRepository) CompareAndSwapState(ctx context.Context, res *model.Reservation, from workflow.State) (bool, error) {
	query := `
		UPDATE reservations
		SET state = $2, approved_by = $3, approved_at = $4,
		    rejection_reason = $5, cancellation_reason = $6,
		    observation = $7, updated_at = now()
		WHERE id = $1 AND state = $8
	`

	tag, err := r.Q(ctx).Exec(
		ctx, query,
		res.ID,
		res.State,
		res.ApprovedBy,
		res.ApprovedAt,
		res.RejectionReason,
		res.CancellationReason,
		res.Observation,
		from,
	)
	if err != nil {
		return false, fmt.Errorf("swap reservation state: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// ListOccupying returns the reservations in an occupying state on a resource
// whose interval overlaps [start, end) under half-open semantics. Passing a
// non-nil exclude id lets an edit ignore its own row. Runs a range scan over
// the (resource_id, start_time, end_time) index; the caller holds the
// per-resource lock when the result gates a write.
func (r *ReservationRepository) ListOccupying(ctx context.Context, resourceID uuid.UUID, start, end time.Time, exclude uuid.UUID) ([]*model.Reservation, error) {
	query := `
		SELECT` + reservationColumns + `
		FROM reservations
		WHERE resource_id = $1
		  AND state = ANY($2)
		  AND start_time < $3
		  AND end_time > $4
		  AND id <> $5
		ORDER BY start_time
	`

	rows, err := r.Q(ctx).Query(ctx, query, resourceID, occupyingStates(), end, start, exclude)
	if err != nil {
		return nil, fmt.Errorf("list occupying reservations: %w", err)
	}
	defer rows.Close()

	return collectReservations(rows)
}

// ListByOwner returns every reservation requested by the principal,
// most recent first.
func (r *ReservationRepository) ListByOwner(ctx context.Context, userID uuid.UUID) ([]*model.Reservation, error) {
	query := `
		SELECT` + reservationColumns + `
		FROM reservations
		WHERE user_id = $1
		ORDER BY start_time DESC
	`

	rows, err := r.Q(ctx).Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list reservations by owner: %w", err)
	}
	defer rows.Close()

	return collectReservations(rows)
}

// ListByResource returns a resource's reservations, optionally filtered by
// state and date range, ordered by start time.
func (r *ReservationRepository) ListByResource(ctx context.Context, resourceID uuid.UUID, filter model.ReservationFilter) ([]*model.Reservation, error) {
	query := `SELECT` + reservationColumns + ` FROM reservations WHERE resource_id = $1`
	args := []any{resourceID}

	if len(filter.States) > 0 {
		states := make([]string, len(filter.States))
		for i, s := range filter.States {
			states[i] = string(s)
		}
		args = append(args, states)
		query += fmt.Sprintf(" AND state = ANY($%d)", len(args))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		query += fmt.Sprintf(" AND start_time >= $%d", len(args))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		query += fmt.Sprintf(" AND start_time < $%d", len(args))
	}
	query += " ORDER BY start_time"

	rows, err := r.Q(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reservations by resource: %w", err)
	}
	defer rows.Close()

	return collectReservations(rows)
}

// ListPending returns every reservation awaiting approval, oldest first.
func (r *ReservationRepository) ListPending(ctx context.Context) ([]*model.Reservation, error) {
	query := `
		SELECT` + reservationColumns + `
		FROM reservations
		WHERE state = $1
		ORDER BY created_at ASC
	`

	rows, err := r.Q(ctx).Query(ctx, query, workflow.StatePending)
	if err != nil {
		return nil, fmt.Errorf("list pending reservations: %w", err)
	}
	defer rows.Close()

	return collectReservations(rows)
}

// ListSweepDue returns reservations whose time window has advanced past a
// boundary: approved ones that should have started (or finished), and
// in-progress ones that should have finished.
func (r *ReservationRepository) ListSweepDue(ctx context.Context, now time.Time) ([]*model.Reservation, error) {
	query := `
		SELECT` + reservationColumns + `
		FROM reservations
		WHERE (state = $1 AND start_time <= $3)
		   OR (state = $2 AND end_time <= $3)
		ORDER BY start_time
	`

	rows, err := r.Q(ctx).Query(ctx, query, workflow.StateApproved, workflow.StateInProgress, now)
	if err != nil {
		return nil, fmt.Errorf("list sweep-due reservations: %w", err)
	}
	defer rows.Close()

	return collectReservations(rows)
}

// CountByState returns per-state reservation counts for one resource.
func (r *ReservationRepository) CountByState(ctx context.Context, resourceID uuid.UUID) (map[workflow.State]int, error) {
	query := `
		SELECT state, count(*)
		FROM reservations
		WHERE resource_id = $1
		GROUP BY state
	`

	rows, err := r.Q(ctx).Query(ctx, query, resourceID)
	if err != nil {
		return nil, fmt.Errorf("count reservations by state: %w", err)
	}
	defer rows.Close()

	counts := make(map[workflow.State]int)
	for rows.Next() {
		var state workflow.State
		var count int
		if err := rows.Scan(&state, &count); err != nil {
			return nil, fmt.Errorf("scan state count: %w", err)
		}
		counts[state] = count
	}

	return counts, rows.Err()
}

func occupyingStates() []string {
	return []string{
		string(workflow.StatePending),
		string(workflow.StateApproved),
		string(workflow.StateInProgress),
	}
}

func collectReservations(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}) ([]*model.Reservation, error) {
	var reservations []*model.Reservation
	for rows.Next() {
		var res model.Reservation
		if err := scanReservation(rows, &res); err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		reservations = append(reservations, &res)
	}
	return reservations, rows.Err()
}

func scanReservation(src row, res *model.Reservation) error {
	return src.Scan(
		&res.ID,
		&res.UserID,
		&res.ResourceID,
		&res.StartTime,
		&res.EndTime,
		&res.Purpose,
		&res.PurposeDetail,
		&res.ExpectedAttendees,
		&res.ResponsibleName,
		&res.ResponsiblePhone,
		&res.ResponsibleEmail,
		&res.SetupRequirements,
		&res.State,
		&res.Observation,
		&res.Deadline,
		&res.ApprovedBy,
		&res.ApprovedAt,
		&res.RejectionReason,
		&res.CancellationReason,
		&res.CreatedAt,
		&res.UpdatedAt,
	)
}
