package service

import (
	"github.com/campuskit/reservas/internal/model"
	"github.com/campuskit/reservas/internal/workflow"
)

// Permission checks. Capabilities come from the identity collaborator as the
// principal's staff flag plus ownership through workflow.Owned; nothing here
// inspects concrete entity types.

func requireAuthenticated(p model.Principal) error {
	if p.IsZero() {
		return model.NewPermissionDenied("authentication required")
	}
	return nil
}

func requireStaff(p model.Principal, action string) error {
	if err := requireAuthenticated(p); err != nil {
		return err
	}
	if !p.IsStaff {
		return model.NewPermissionDenied("only staff may " + action)
	}
	return nil
}

func requireOwnerOrStaff(p model.Principal, entity workflow.Owned, action string) error {
	if err := requireAuthenticated(p); err != nil {
		return err
	}
	if p.IsStaff || entity.OwnerID() == p.ID {
		return nil
	}
	return model.NewPermissionDenied("only the owner or staff may " + action)
}
