package model

import (
	"time"

	"github.com/google/uuid"
)

type HistoryAction string

const (
	ActionCreated      HistoryAction = "CREATED"
	ActionUpdated      HistoryAction = "UPDATED"
	ActionSubmitted    HistoryAction = "SUBMITTED"
	ActionApproved     HistoryAction = "APPROVED"
	ActionRejected     HistoryAction = "REJECTED"
	ActionCanceled     HistoryAction = "CANCELED"
	ActionAutoStarted  HistoryAction = "AUTO_STARTED"
	ActionAutoFinished HistoryAction = "AUTO_FINISHED"
)

// HistoryEntry is one append-only audit record for a reservation. ActorID is
// nil for transitions driven by the time sweep.
type HistoryEntry struct {
	ID            uuid.UUID      `json:"id"`
	ReservationID uuid.UUID      `json:"reservation_id"`
	ActorID       *uuid.UUID     `json:"actor_id,omitempty"`
	Action        HistoryAction  `json:"action"`
	Details       map[string]any `json:"details"`
	Timestamp     time.Time      `json:"timestamp"`
}
