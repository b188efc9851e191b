package service

import (
	"context"
	"strings"
	"time"

	"github.com/campuskit/reservas/internal/availability"
	"github.com/campuskit/reservas/internal/model"
	"github.com/campuskit/reservas/internal/workflow"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ResourceService manages the reservable spaces and answers availability
// queries against them.
type ResourceService struct {
	resources    ResourceStore
	reservations ReservationStore
	engine       *availability.Engine
	logger       *zap.Logger
	now          func() time.Time
}

func NewResourceService(resources ResourceStore, reservations ReservationStore, logger *zap.Logger) *ResourceService {
	return &ResourceService{
		resources:    resources,
		reservations: reservations,
		engine:       availability.NewEngine(reservations),
		logger:       logger,
		now:          time.Now,
	}
}

type CreateResourceInput struct {
	Code             string
	Name             string
	Type             model.ResourceType
	Capacity         int
	Description      string
	RequiresApproval bool
}

// Create registers a new resource. Staff only. Codes are normalized to
// upper-case and must be unique.
func (s *ResourceService) Create(ctx context.Context, actor model.Principal, in CreateResourceInput) (*model.Resource, error) {
	if err := requireStaff(actor, "manage resources"); err != nil {
		return nil, err
	}

	code := strings.ToUpper(strings.TrimSpace(in.Code))
	if code == "" {
		return nil, model.NewValidationError("a resource code is required")
	}
	if in.Name == "" {
		return nil, model.NewValidationError("a resource name is required")
	}
	if in.Capacity <= 0 {
		return nil, model.NewValidationError("capacity must be a positive integer")
	}

	existing, err := s.resources.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, model.NewValidationError("a resource with code %s already exists", code)
	}

	resource := &model.Resource{
		Code:             code,
		Name:             in.Name,
		Type:             in.Type,
		Capacity:         in.Capacity,
		Description:      in.Description,
		Active:           true,
		RequiresApproval: in.RequiresApproval,
	}
	if resource.Type == "" {
		resource.Type = model.ResourceTypeOther
	}

	if err := s.resources.Create(ctx, resource); err != nil {
		return nil, err
	}

	s.logger.Info("Resource created",
		zap.String("resource_id", resource.ID.String()),
		zap.String("code", resource.Code),
		zap.Int("capacity", resource.Capacity),
	)

	return resource, nil
}

type UpdateResourceInput struct {
	Name             string
	Type             model.ResourceType
	Capacity         int
	Description      string
	RequiresApproval bool
}

// Update edits a resource's descriptive fields and approval policy. Staff
// only. The code is immutable once assigned.
func (s *ResourceService) Update(ctx context.Context, actor model.Principal, id uuid.UUID, in UpdateResourceInput) (*model.Resource, error) {
	if err := requireStaff(actor, "manage resources"); err != nil {
		return nil, err
	}
	if in.Capacity <= 0 {
		return nil, model.NewValidationError("capacity must be a positive integer")
	}

	resource, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	resource.Name = in.Name
	resource.Type = in.Type
	resource.Capacity = in.Capacity
	resource.Description = in.Description
	resource.RequiresApproval = in.RequiresApproval

	if err := s.resources.Update(ctx, resource); err != nil {
		return nil, err
	}

	s.logger.Info("Resource updated",
		zap.String("resource_id", resource.ID.String()),
		zap.String("code", resource.Code),
	)

	return resource, nil
}

// Deactivate soft-removes a resource: existing reservations stand, new ones
// are rejected. Resources referenced by reservations are never deleted.
func (s *ResourceService) Deactivate(ctx context.Context, actor model.Principal, id uuid.UUID) error {
	if err := requireStaff(actor, "manage resources"); err != nil {
		return err
	}
	resource, err := s.get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.resources.SetActive(ctx, resource.ID, false); err != nil {
		return err
	}

	s.logger.Info("Resource deactivated",
		zap.String("resource_id", resource.ID.String()),
		zap.String("code", resource.Code),
	)

	return nil
}

func (s *ResourceService) Get(ctx context.Context, id uuid.UUID) (*model.Resource, error) {
	return s.get(ctx, id)
}

func (s *ResourceService) GetByCode(ctx context.Context, code string) (*model.Resource, error) {
	resource, err := s.resources.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if resource == nil {
		return nil, model.NewNotFound("resource", code)
	}
	return resource, nil
}

func (s *ResourceService) List(ctx context.Context, activeOnly bool) ([]*model.Resource, error) {
	return s.resources.List(ctx, activeOnly)
}

// Availability is the answer to an availability query, with the conflicting
// reservations when the interval is taken.
type Availability struct {
	Available bool                 `json:"available"`
	Conflicts []*model.Reservation `json:"conflicts,omitempty"`
}

// CheckAvailability reports whether the resource is free over [start, end).
// Exclude lets an edit ignore its own reservation.
func (s *ResourceService) CheckAvailability(ctx context.Context, id uuid.UUID, start, end time.Time, exclude uuid.UUID) (*Availability, error) {
	if err := availability.ValidateInterval(start, end); err != nil {
		return nil, err
	}
	resource, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !resource.Active {
		return &Availability{Available: false}, nil
	}

	conflicts, err := s.engine.Conflicts(ctx, resource.ID, start, end, exclude)
	if err != nil {
		return nil, err
	}

	return &Availability{Available: len(conflicts) == 0, Conflicts: conflicts}, nil
}

// ResourceStatistics aggregates a resource's reservation activity.
type ResourceStatistics struct {
	Total                int                    `json:"total"`
	ByState              map[workflow.State]int `json:"by_state"`
	Upcoming             int                    `json:"upcoming"`
	AverageDurationHours float64                `json:"average_duration_hours"`
}

// Statistics summarizes reservation activity on one resource. Staff only.
func (s *ResourceService) Statistics(ctx context.Context, actor model.Principal, id uuid.UUID) (*ResourceStatistics, error) {
	if err := requireStaff(actor, "view resource statistics"); err != nil {
		return nil, err
	}
	resource, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	counts, err := s.reservations.CountByState(ctx, resource.ID)
	if err != nil {
		return nil, err
	}

	stats := &ResourceStatistics{ByState: counts}
	for _, n := range counts {
		stats.Total += n
	}

	now := s.now()
	approved, err := s.reservations.ListByResource(ctx, resource.ID, model.ReservationFilter{
		States: []workflow.State{workflow.StateApproved},
	})
	if err != nil {
		return nil, err
	}
	var totalHours float64
	for _, res := range approved {
		totalHours += res.Duration().Hours()
		if res.StartTime.After(now) {
			stats.Upcoming++
		}
	}
	if len(approved) > 0 {
		stats.AverageDurationHours = totalHours / float64(len(approved))
	}

	return stats, nil
}

// DaySchedule returns the occupying reservations on a resource for one
// calendar day, ordered by start time.
func (s *ResourceService) DaySchedule(ctx context.Context, id uuid.UUID, day time.Time) ([]*model.Reservation, error) {
	resource, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	startOfDay := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	endOfDay := startOfDay.Add(24 * time.Hour)

	return s.reservations.ListByResource(ctx, resource.ID, model.ReservationFilter{
		States: []workflow.State{workflow.StateApproved, workflow.StateInProgress},
		From:   &startOfDay,
		To:     &endOfDay,
	})
}

func (s *ResourceService) get(ctx context.Context, id uuid.UUID) (*model.Resource, error) {
	resource, err := s.resources.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if resource == nil {
		return nil, model.NewNotFound("resource", id)
	}
	return resource, nil
}
