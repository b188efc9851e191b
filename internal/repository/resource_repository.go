package repository

import (
	"context"
	"fmt"

	"github.com/campuskit/reservas/internal/model"
	"github.com/campuskit/reservas/internal/repository/base"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ResourceRepository struct {
	*base.Repository
}

func NewResourceRepository(pool *pgxpool.Pool) *ResourceRepository {
	return &ResourceRepository{Repository: base.NewRepository(pool)}
}

const resourceColumns = `id, code, name, type, capacity, description, active, requires_approval, created_at, updated_at`

// Create inserts a resource. Codes are stored upper-case and must be unique.
func (r *ResourceRepository) Create(ctx context.Context, resource *model.Resource) error {
	query := `
		INSERT INTO resources (code, name, type, capacity, description, active, requires_approval)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`

	err := r.Q(ctx).QueryRow(
		ctx, query,
		resource.Code,
		resource.Name,
		resource.Type,
		resource.Capacity,
		resource.Description,
		resource.Active,
		resource.RequiresApproval,
	).Scan(&resource.ID, &resource.CreatedAt, &resource.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create resource: %w", err)
	}

	return nil
}

// GetByID returns the resource or nil when it does not exist.
func (r *ResourceRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Resource, error) {
	query := `SELECT ` + resourceColumns + ` FROM resources WHERE id = $1`

	resource, err := r.scanOne(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("get resource by id: %w", err)
	}
	return resource, nil
}

// GetByCode looks a resource up by its normalized code.
func (r *ResourceRepository) GetByCode(ctx context.Context, code string) (*model.Resource, error) {
	query := `SELECT ` + resourceColumns + ` FROM resources WHERE code = upper($1)`

	resource, err := r.scanOne(ctx, query, code)
	if err != nil {
		return nil, fmt.Errorf("get resource by code: %w", err)
	}
	return resource, nil
}

// Update persists the editable resource fields.
func (r *ResourceRepository) Update(ctx context.Context, resource *model.Resource) error {
	query := `
		UPDATE resources
		SET name = $2, type = $3, capacity = $4, description = $5,
		    active = $6, requires_approval = $7, updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.Q(ctx).QueryRow(
		ctx, query,
		resource.ID,
		resource.Name,
		resource.Type,
		resource.Capacity,
		resource.Description,
		resource.Active,
		resource.RequiresApproval,
	).Scan(&resource.UpdatedAt)

	if err != nil {
		if base.IsNotFound(err) {
			return fmt.Errorf("update resource: resource not found")
		}
		return fmt.Errorf("update resource: %w", err)
	}

	return nil
}

// SetActive toggles availability for new reservations. Existing reservations
// are untouched.
func (r *ResourceRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	query := `UPDATE resources SET active = $2, updated_at = now() WHERE id = $1`

	tag, err := r.Q(ctx).Exec(ctx, query, id, active)
	if err != nil {
		return fmt.Errorf("set resource active: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("set resource active: resource not found")
	}

	return nil
}

// List returns resources ordered by code, optionally only active ones.
func (r *ResourceRepository) List(ctx context.Context, activeOnly bool) ([]*model.Resource, error) {
	query := `SELECT ` + resourceColumns + ` FROM resources`
	if activeOnly {
		query += ` WHERE active`
	}
	query += ` ORDER BY code`

	rows, err := r.Q(ctx).Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list resources: %w", err)
	}
	defer rows.Close()

	var resources []*model.Resource
	for rows.Next() {
		var resource model.Resource
		if err := scanResource(rows, &resource); err != nil {
			return nil, fmt.Errorf("scan resource: %w", err)
		}
		resources = append(resources, &resource)
	}

	return resources, rows.Err()
}

func (r *ResourceRepository) scanOne(ctx context.Context, query string, arg any) (*model.Resource, error) {
	var resource model.Resource
	err := scanResource(r.Q(ctx).QueryRow(ctx, query, arg), &resource)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &resource, nil
}

type row interface {
	Scan(dest ...any) error
}

func scanResource(src row, resource *model.Resource) error {
	return src.Scan(
		&resource.ID,
		&resource.Code,
		&resource.Name,
		&resource.Type,
		&resource.Capacity,
		&resource.Description,
		&resource.Active,
		&resource.RequiresApproval,
		&resource.CreatedAt,
		&resource.UpdatedAt,
	)
}
