package service

import (
	"context"
	"errors"
	"time"

	"github.com/campuskit/reservas/internal/availability"
	"github.com/campuskit/reservas/internal/model"
	"github.com/campuskit/reservas/internal/workflow"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReservationService orchestrates the reservation workflow: validation,
// transitions, audit history and notification events. Every mutating
// operation is one unit of work: validate, mutate, append history, notify,
// return the updated snapshot.
type ReservationService struct {
	reservations ReservationStore
	resources    ResourceStore
	history      HistoryStore
	locker       ResourceLocker
	engine       *availability.Engine
	machine      *workflow.Machine
	notifier     Notifier
	logger       *zap.Logger
	now          func() time.Time
}

type Option func(*ReservationService)

// WithClock overrides the service clock. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *ReservationService) {
		s.now = now
	}
}

func NewReservationService(
	reservations ReservationStore,
	resources ResourceStore,
	history HistoryStore,
	locker ResourceLocker,
	notifier Notifier,
	logger *zap.Logger,
	opts ...Option,
) *ReservationService {
	s := &ReservationService{
		reservations: reservations,
		resources:    resources,
		history:      history,
		locker:       locker,
		engine:       availability.NewEngine(reservations),
		machine:      workflow.Reservations(),
		notifier:     notifier,
		logger:       logger,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type CreateReservationInput struct {
	ResourceID        uuid.UUID
	StartTime         time.Time
	EndTime           time.Time
	Purpose           model.ReservationPurpose
	PurposeDetail     string
	ExpectedAttendees int
	ResponsibleName   string
	ResponsiblePhone  string
	ResponsibleEmail  string
	SetupRequirements string
	Observation       string
	Deadline          *time.Time
}

func (in *CreateReservationInput) validate(now time.Time) error {
	if in.Purpose == "" {
		return model.NewValidationError("a reservation purpose is required")
	}
	if in.ResponsibleName == "" {
		return model.NewValidationError("a responsible contact name is required")
	}
	if in.ResponsibleEmail == "" {
		return model.NewValidationError("a responsible contact email is required")
	}
	if in.Deadline != nil && !in.Deadline.After(now) {
		return model.NewValidationError("the deadline must be in the future")
	}
	return nil
}

// Create validates the request against the availability engine and persists
// a new reservation in DRAFT. The validation and the insert run under the
// resource lock so a concurrent booking cannot slip between them.
func (s *ReservationService) Create(ctx context.Context, actor model.Principal, in CreateReservationInput) (*model.Reservation, error) {
	if err := requireAuthenticated(actor); err != nil {
		return nil, err
	}
	now := s.now()
	if err := in.validate(now); err != nil {
		return nil, err
	}

	resource, err := s.getResource(ctx, in.ResourceID)
	if err != nil {
		return nil, err
	}

	res := &model.Reservation{
		UserID:            actor.ID,
		ResourceID:        resource.ID,
		StartTime:         in.StartTime,
		EndTime:           in.EndTime,
		Purpose:           in.Purpose,
		PurposeDetail:     in.PurposeDetail,
		ExpectedAttendees: in.ExpectedAttendees,
		ResponsibleName:   in.ResponsibleName,
		ResponsiblePhone:  in.ResponsiblePhone,
		ResponsibleEmail:  in.ResponsibleEmail,
		SetupRequirements: in.SetupRequirements,
		State:             workflow.StateDraft,
		Observation:       in.Observation,
		Deadline:          in.Deadline,
	}

	var entry *model.HistoryEntry
	err = s.locker.WithResourceLock(ctx, resource.ID, func(ctx context.Context) error {
		if err := s.engine.ValidateBooking(ctx, resource, in.StartTime, in.EndTime, in.ExpectedAttendees, uuid.Nil, now, true); err != nil {
			return err
		}
		if err := s.reservations.Create(ctx, res); err != nil {
			return err
		}
		entry, err = s.appendHistory(ctx, res, &actor.ID, model.ActionCreated, map[string]any{
			"resource_code": resource.Code,
			"start_time":    in.StartTime.Format(time.RFC3339),
			"end_time":      in.EndTime.Format(time.RFC3339),
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	res.Resource = resource
	s.notifier.ReservationChanged(ctx, res, entry)
	s.logger.Info("Reservation created",
		zap.String("reservation_id", res.ID.String()),
		zap.String("resource_code", resource.Code),
		zap.String("user_id", actor.ID.String()),
	)

	return res, nil
}

type UpdateReservationInput struct {
	ResourceID        uuid.UUID
	StartTime         time.Time
	EndTime           time.Time
	Purpose           model.ReservationPurpose
	PurposeDetail     string
	ExpectedAttendees int
	ResponsibleName   string
	ResponsiblePhone  string
	ResponsibleEmail  string
	SetupRequirements string
	Observation       string
	Deadline          *time.Time
}

// Update edits a reservation in place. Only drafts and pending reservations
// are editable; the full availability validation runs again with the
// reservation excluded from its own conflict scan.
func (s *ReservationService) Update(ctx context.Context, actor model.Principal, id uuid.UUID, in UpdateReservationInput) (*model.Reservation, error) {
	res, err := s.getReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireOwnerOrStaff(actor, res, "edit this reservation"); err != nil {
		return nil, err
	}

	targetID := in.ResourceID
	if targetID == uuid.Nil {
		targetID = res.ResourceID
	}
	resource, err := s.getResource(ctx, targetID)
	if err != nil {
		return nil, err
	}

	var entry *model.HistoryEntry
	err = s.locker.WithResourceLock(ctx, resource.ID, func(ctx context.Context) error {
		cur, err := s.getReservation(ctx, id)
		if err != nil {
			return err
		}
		now := s.now()
		if !cur.CanBeEdited(now) {
			return model.NewValidationError("only draft or pending reservations can be edited")
		}
		if err := s.engine.ValidateBooking(ctx, resource, in.StartTime, in.EndTime, in.ExpectedAttendees, cur.ID, now, false); err != nil {
			return err
		}

		cur.ResourceID = resource.ID
		cur.StartTime = in.StartTime
		cur.EndTime = in.EndTime
		cur.Purpose = in.Purpose
		cur.PurposeDetail = in.PurposeDetail
		cur.ExpectedAttendees = in.ExpectedAttendees
		cur.ResponsibleName = in.ResponsibleName
		cur.ResponsiblePhone = in.ResponsiblePhone
		cur.ResponsibleEmail = in.ResponsibleEmail
		cur.SetupRequirements = in.SetupRequirements
		cur.Observation = in.Observation
		cur.Deadline = in.Deadline

		if err := s.reservations.Update(ctx, cur); err != nil {
			return err
		}
		entry, err = s.appendHistory(ctx, cur, &actor.ID, model.ActionUpdated, map[string]any{
			"resource_code": resource.Code,
			"start_time":    in.StartTime.Format(time.RFC3339),
			"end_time":      in.EndTime.Format(time.RFC3339),
		})
		if err != nil {
			return err
		}
		res = cur
		return nil
	})
	if err != nil {
		return nil, err
	}

	res.Resource = resource
	s.notifier.ReservationChanged(ctx, res, entry)
	s.logger.Info("Reservation updated",
		zap.String("reservation_id", res.ID.String()),
		zap.String("resource_code", resource.Code),
		zap.String("actor_id", actor.ID.String()),
	)

	return res, nil
}

// Submit moves a draft into the approval flow: PENDING when the resource
// requires approval, APPROVED otherwise. The draft was not occupying its
// interval, so availability is re-checked under the resource lock before the
// reservation starts counting toward conflicts.
func (s *ReservationService) Submit(ctx context.Context, actor model.Principal, id uuid.UUID) (*model.Reservation, error) {
	res, err := s.getReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireOwnerOrStaff(actor, res, "submit this reservation"); err != nil {
		return nil, err
	}

	resource, err := s.getResource(ctx, res.ResourceID)
	if err != nil {
		return nil, err
	}

	var entry *model.HistoryEntry
	err = s.locker.WithResourceLock(ctx, resource.ID, func(ctx context.Context) error {
		cur, err := s.getReservation(ctx, id)
		if err != nil {
			return err
		}
		from := cur.State
		policy := workflow.ApprovalPolicy{RequiresApproval: resource.RequiresApproval}
		target := policy.SubmitTarget()
		if !s.machine.Permits(from, workflow.EventSubmit, target) {
			return model.NewInvalidTransition(string(from), string(workflow.EventSubmit))
		}
		now := s.now()
		if err := s.engine.ValidateBooking(ctx, resource, cur.StartTime, cur.EndTime, cur.ExpectedAttendees, cur.ID, now, false); err != nil {
			return err
		}

		cur.State = target
		if target == workflow.StateApproved {
			cur.ApprovedAt = &now
		}
		swapped, err := s.reservations.CompareAndSwapState(ctx, cur, from)
		if err != nil {
			return err
		}
		if !swapped {
			return model.NewInvalidTransition(string(from), string(workflow.EventSubmit))
		}
		entry, err = s.appendHistory(ctx, cur, &actor.ID, model.ActionSubmitted, map[string]any{
			"to": string(target),
		})
		if err != nil {
			return err
		}
		res = cur
		return nil
	})
	if err != nil {
		return nil, err
	}

	res.Resource = resource
	s.notifier.ReservationChanged(ctx, res, entry)
	s.logger.Info("Reservation submitted",
		zap.String("reservation_id", res.ID.String()),
		zap.String("resource_code", resource.Code),
		zap.String("state", string(res.State)),
	)

	return res, nil
}

// Approve confirms a pending reservation. Staff only.
func (s *ReservationService) Approve(ctx context.Context, actor model.Principal, id uuid.UUID, observation string) (*model.Reservation, error) {
	if err := requireStaff(actor, "approve reservations"); err != nil {
		return nil, err
	}
	res, err := s.getReservation(ctx, id)
	if err != nil {
		return nil, err
	}

	from := res.State
	if !s.machine.Permits(from, workflow.EventApprove, workflow.StateApproved) {
		return nil, model.NewInvalidTransition(string(from), string(workflow.EventApprove))
	}

	now := s.now()
	res.State = workflow.StateApproved
	res.ApprovedBy = &actor.ID
	res.ApprovedAt = &now
	if observation != "" {
		res.Observation = observation
	}

	entry, err := s.swapAndRecord(ctx, res, from, &actor.ID, model.ActionApproved, map[string]any{
		"approved_by": actor.ID.String(),
	}, workflow.EventApprove)
	if err != nil {
		return nil, err
	}

	s.notifier.ReservationChanged(ctx, res, entry)
	s.logger.Info("Reservation approved",
		zap.String("reservation_id", res.ID.String()),
		zap.String("approved_by", actor.ID.String()),
	)

	return res, nil
}

// Reject declines a pending reservation with a mandatory reason. Staff only.
func (s *ReservationService) Reject(ctx context.Context, actor model.Principal, id uuid.UUID, reason string) (*model.Reservation, error) {
	if err := requireStaff(actor, "reject reservations"); err != nil {
		return nil, err
	}
	if reason == "" {
		return nil, model.NewValidationError("a rejection reason is required")
	}
	res, err := s.getReservation(ctx, id)
	if err != nil {
		return nil, err
	}

	from := res.State
	if !s.machine.Permits(from, workflow.EventReject, workflow.StateRejected) {
		return nil, model.NewInvalidTransition(string(from), string(workflow.EventReject))
	}

	res.State = workflow.StateRejected
	res.RejectionReason = reason

	entry, err := s.swapAndRecord(ctx, res, from, &actor.ID, model.ActionRejected, map[string]any{
		"reason": reason,
	}, workflow.EventReject)
	if err != nil {
		return nil, err
	}

	s.notifier.ReservationChanged(ctx, res, entry)
	s.logger.Info("Reservation rejected",
		zap.String("reservation_id", res.ID.String()),
		zap.String("actor_id", actor.ID.String()),
	)

	return res, nil
}

// Cancel withdraws a pending or approved reservation before its window
// starts. The owner or staff may cancel; a reason is mandatory.
func (s *ReservationService) Cancel(ctx context.Context, actor model.Principal, id uuid.UUID, reason string) (*model.Reservation, error) {
	res, err := s.getReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireOwnerOrStaff(actor, res, "cancel this reservation"); err != nil {
		return nil, err
	}
	if reason == "" {
		return nil, model.NewValidationError("a cancellation reason is required")
	}

	from := res.State
	if !s.machine.Permits(from, workflow.EventCancel, workflow.StateCanceled) {
		return nil, model.NewInvalidTransition(string(from), string(workflow.EventCancel))
	}
	if !res.StartTime.After(s.now()) {
		return nil, model.NewValidationError("a reservation that has already started cannot be canceled")
	}

	res.State = workflow.StateCanceled
	res.CancellationReason = reason

	entry, err := s.swapAndRecord(ctx, res, from, &actor.ID, model.ActionCanceled, map[string]any{
		"reason": reason,
	}, workflow.EventCancel)
	if err != nil {
		return nil, err
	}

	s.notifier.ReservationChanged(ctx, res, entry)
	s.logger.Info("Reservation canceled",
		zap.String("reservation_id", res.ID.String()),
		zap.String("actor_id", actor.ID.String()),
	)

	return res, nil
}

// Get returns a reservation to its owner or to staff.
func (s *ReservationService) Get(ctx context.Context, actor model.Principal, id uuid.UUID) (*model.Reservation, error) {
	res, err := s.getReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireOwnerOrStaff(actor, res, "view this reservation"); err != nil {
		return nil, err
	}
	return res, nil
}

// ListMine returns the acting principal's reservations, most recent first.
func (s *ReservationService) ListMine(ctx context.Context, actor model.Principal) ([]*model.Reservation, error) {
	if err := requireAuthenticated(actor); err != nil {
		return nil, err
	}
	return s.reservations.ListByOwner(ctx, actor.ID)
}

// ListPending returns the approval queue. Staff only.
func (s *ReservationService) ListPending(ctx context.Context, actor model.Principal) ([]*model.Reservation, error) {
	if err := requireStaff(actor, "review pending reservations"); err != nil {
		return nil, err
	}
	return s.reservations.ListPending(ctx)
}

// History returns the audit trail of a reservation, most recent first.
func (s *ReservationService) History(ctx context.Context, actor model.Principal, id uuid.UUID) ([]*model.HistoryEntry, error) {
	res, err := s.getReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireOwnerOrStaff(actor, res, "view this reservation"); err != nil {
		return nil, err
	}
	return s.history.ForReservation(ctx, res.ID)
}

// SweepResult summarizes one time sweep run.
type SweepResult struct {
	Started  int
	Finished int
}

// RunTimeSweep advances reservations across time-driven boundaries:
// APPROVED -> IN_PROGRESS once the window opens, APPROVED/IN_PROGRESS ->
// FINISHED once it closes. Each transition is a compare-and-set against the
// state read here, so a sweep racing a user transition loses atomically and
// skips the row. Re-running the sweep converges: rows it already moved are
// no longer due.
func (s *ReservationService) RunTimeSweep(ctx context.Context) (SweepResult, error) {
	now := s.now()
	var result SweepResult

	due, err := s.reservations.ListSweepDue(ctx, now)
	if err != nil {
		return result, err
	}

	var errs []error
	for _, res := range due {
		from := res.State
		var action model.HistoryAction

		switch {
		case from == workflow.StateApproved && !res.EndTime.After(now):
			// window fully elapsed without starting; finish directly
			res.State = workflow.StateFinished
			action = model.ActionAutoFinished
		case from == workflow.StateApproved && !res.StartTime.After(now):
			res.State = workflow.StateInProgress
			action = model.ActionAutoStarted
		case from == workflow.StateInProgress && !res.EndTime.After(now):
			res.State = workflow.StateFinished
			action = model.ActionAutoFinished
		default:
			continue
		}

		swapped, err := s.reservations.CompareAndSwapState(ctx, res, from)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !swapped {
			// a user transition won the race; nothing to do
			continue
		}

		entry, err := s.appendHistory(ctx, res, nil, action, map[string]any{
			"swept_at": now.Format(time.RFC3339),
		})
		if err != nil {
			errs = append(errs, err)
			continue
		}
		s.notifier.ReservationChanged(ctx, res, entry)

		if action == model.ActionAutoStarted {
			result.Started++
		} else {
			result.Finished++
		}
	}

	if result.Started > 0 || result.Finished > 0 {
		s.logger.Info("Time sweep applied transitions",
			zap.Int("started", result.Started),
			zap.Int("finished", result.Finished),
		)
	}

	return result, errors.Join(errs...)
}

func (s *ReservationService) getReservation(ctx context.Context, id uuid.UUID) (*model.Reservation, error) {
	res, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, model.NewNotFound("reservation", id)
	}
	return res, nil
}

func (s *ReservationService) getResource(ctx context.Context, id uuid.UUID) (*model.Resource, error) {
	resource, err := s.resources.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if resource == nil {
		return nil, model.NewNotFound("resource", id)
	}
	return resource, nil
}

// swapAndRecord applies a prepared state change with CAS semantics and
// appends its history entry.
func (s *ReservationService) swapAndRecord(ctx context.Context, res *model.Reservation, from workflow.State, actorID *uuid.UUID, action model.HistoryAction, details map[string]any, event workflow.Event) (*model.HistoryEntry, error) {
	swapped, err := s.reservations.CompareAndSwapState(ctx, res, from)
	if err != nil {
		return nil, err
	}
	if !swapped {
		return nil, model.NewInvalidTransition(string(from), string(event))
	}
	return s.appendHistory(ctx, res, actorID, action, details)
}

func (s *ReservationService) appendHistory(ctx context.Context, res *model.Reservation, actorID *uuid.UUID, action model.HistoryAction, details map[string]any) (*model.HistoryEntry, error) {
	entry := &model.HistoryEntry{
		ReservationID: res.ID,
		ActorID:       actorID,
		Action:        action,
		Details:       details,
	}
	if err := s.history.Append(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}
