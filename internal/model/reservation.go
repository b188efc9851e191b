package model

import (
	"time"

	"github.com/campuskit/reservas/internal/workflow"
	"github.com/google/uuid"
)

type ReservationPurpose string

const (
	PurposeClass      ReservationPurpose = "CLASS"
	PurposeExam       ReservationPurpose = "EXAM"
	PurposeMeeting    ReservationPurpose = "MEETING"
	PurposeEvent      ReservationPurpose = "EVENT"
	PurposeWorkshop   ReservationPurpose = "WORKSHOP"
	PurposeConference ReservationPurpose = "CONFERENCE"
	PurposeStudyGroup ReservationPurpose = "STUDY_GROUP"
	PurposeOther      ReservationPurpose = "OTHER"
)

// Reservation is a workflow-tracked request to occupy one resource over the
// half-open interval [StartTime, EndTime). It holds a workflow state; it is
// mutated only through the reservation transition table.
type Reservation struct {
	ID         uuid.UUID `json:"id"`
	UserID     uuid.UUID `json:"user_id"` // requesting principal
	ResourceID uuid.UUID `json:"resource_id"`

	StartTime         time.Time          `json:"start_time"`
	EndTime           time.Time          `json:"end_time"`
	Purpose           ReservationPurpose `json:"purpose"`
	PurposeDetail     string             `json:"purpose_detail"`
	ExpectedAttendees int                `json:"expected_attendees"`
	ResponsibleName   string             `json:"responsible_name"`
	ResponsiblePhone  string             `json:"responsible_phone"`
	ResponsibleEmail  string             `json:"responsible_email"`
	SetupRequirements string             `json:"setup_requirements"`

	State       workflow.State `json:"state"`
	Observation string         `json:"observation"`
	Deadline    *time.Time     `json:"deadline,omitempty"`

	ApprovedBy         *uuid.UUID `json:"approved_by,omitempty"`
	ApprovedAt         *time.Time `json:"approved_at,omitempty"`
	RejectionReason    string     `json:"rejection_reason"`
	CancellationReason string     `json:"cancellation_reason"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Populated for notification payloads, not stored on the row.
	Resource *Resource `json:"resource,omitempty"`
}

// OwnerID implements workflow.Owned.
func (r *Reservation) OwnerID() uuid.UUID {
	return r.UserID
}

func (r *Reservation) Duration() time.Duration {
	return r.EndTime.Sub(r.StartTime)
}

func (r *Reservation) IsPast(now time.Time) bool {
	return !r.EndTime.After(now)
}

func (r *Reservation) IsUpcoming(now time.Time) bool {
	return r.State == workflow.StateApproved && r.StartTime.After(now)
}

// CanBeEdited reports whether start/end/resource may still change. Edits are
// allowed only while the reservation is a draft or awaiting approval.
func (r *Reservation) CanBeEdited(now time.Time) bool {
	return (r.State == workflow.StateDraft || r.State == workflow.StatePending) && !r.IsPast(now)
}

// CanBeCanceled reports whether the cancel guard holds: pending or approved,
// and the reserved window has not started yet.
func (r *Reservation) CanBeCanceled(now time.Time) bool {
	return (r.State == workflow.StatePending || r.State == workflow.StateApproved) &&
		r.StartTime.After(now)
}

// ReservationFilter narrows reservation listings. Empty fields mean "any".
type ReservationFilter struct {
	States []workflow.State
	From   *time.Time
	To     *time.Time
}
