package model

import "github.com/google/uuid"

// Principal is the authenticated actor the identity collaborator hands us.
// It is passed explicitly into every service call; there is no ambient
// current user.
type Principal struct {
	ID      uuid.UUID `json:"id"`
	IsStaff bool      `json:"is_staff"`
}

// System is the principal-shaped zero value used for time-driven transitions.
// Its history entries carry a nil actor.
var System = Principal{}

func (p Principal) IsZero() bool {
	return p.ID == uuid.Nil
}
