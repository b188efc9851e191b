package model

import (
	"time"

	"github.com/google/uuid"
)

type ResourceType string

const (
	ResourceTypeClassroom   ResourceType = "CLASSROOM"
	ResourceTypeLab         ResourceType = "LAB"
	ResourceTypeAuditorium  ResourceType = "AUDITORIUM"
	ResourceTypeMeetingRoom ResourceType = "MEETING_ROOM"
	ResourceTypeLibrary     ResourceType = "LIBRARY"
	ResourceTypeGym         ResourceType = "GYM"
	ResourceTypeCafeteria   ResourceType = "CAFETERIA"
	ResourceTypeOther       ResourceType = "OTHER"
)

// Resource is a reservable physical space (a classroom, a lab) with finite
// capacity and an approval policy. Resources are never deleted while
// reservations reference them; they are deactivated instead.
type Resource struct {
	ID               uuid.UUID    `json:"id"`
	Code             string       `json:"code"` // unique, stored upper-case
	Name             string       `json:"name"`
	Type             ResourceType `json:"type"`
	Capacity         int          `json:"capacity"`
	Description      string       `json:"description"`
	Active           bool         `json:"active"`
	RequiresApproval bool         `json:"requires_approval"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
}
