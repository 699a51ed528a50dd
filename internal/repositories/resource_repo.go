package repositories

import (
	"context"
	"fmt"

	"tailtown/internal/common"
	"tailtown/internal/models"
	"tailtown/internal/tenancy"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type ResourceRepository interface {
	Create(ctx context.Context, scope tenancy.Scope, resource *models.Resource) error
	GetByID(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (*models.Resource, error)
	GetByName(ctx context.Context, scope tenancy.Scope, name string) (*models.Resource, error)
	Update(ctx context.Context, scope tenancy.Scope, resource *models.Resource) error
	Deactivate(ctx context.Context, scope tenancy.Scope, id uuid.UUID) error
	List(ctx context.Context, scope tenancy.Scope, resourceType string, includeInactive bool, limit, offset int) ([]*models.Resource, int, error)
	ListActiveByType(ctx context.Context, scope tenancy.Scope, resourceType string) ([]*models.Resource, error)
}

type resourceRepo struct {
	db DB
}

func NewResourceRepo(db DB) ResourceRepository {
	return &resourceRepo{db: db}
}

const resourceColumns = `id, tenant_id, name, type, capacity, description, is_active, created_at, updated_at`

func scanResource(row pgx.Row) (*models.Resource, error) {
	r := &models.Resource{}
	err := row.Scan(&r.ID, &r.TenantID, &r.Name, &r.Type, &r.Capacity, &r.Description, &r.IsActive, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func collectResources(rows pgx.Rows) ([]*models.Resource, error) {
	defer rows.Close()
	out := []*models.Resource{}
	for rows.Next() {
		r, err := scanResource(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (r *resourceRepo) Create(ctx context.Context, scope tenancy.Scope, res *models.Resource) error {
	tenantID, err := scope.Require()
	if err != nil {
		return err
	}
	res.TenantID = tenantID
	query := `
		INSERT INTO resources (id, tenant_id, name, type, capacity, description, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	err = r.db.QueryRow(ctx, query, res.ID, tenantID, res.Name, res.Type, res.Capacity, res.Description, res.IsActive).
		Scan(&res.CreatedAt, &res.UpdatedAt)
	return mapErr(err, common.ErrResourceNotFound)
}

func (r *resourceRepo) GetByID(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (*models.Resource, error) {
	tenantID, err := scope.Require()
	if err != nil {
		return nil, err
	}
	res, err := scanResource(r.db.QueryRow(ctx, `SELECT `+resourceColumns+` FROM resources WHERE tenant_id = $1 AND id = $2`, tenantID, id))
	if err != nil {
		return nil, mapErr(err, common.ErrResourceNotFound)
	}
	return res, nil
}

func (r *resourceRepo) GetByName(ctx context.Context, scope tenancy.Scope, name string) (*models.Resource, error) {
	tenantID, err := scope.Require()
	if err != nil {
		return nil, err
	}
	res, err := scanResource(r.db.QueryRow(ctx, `SELECT `+resourceColumns+` FROM resources WHERE tenant_id = $1 AND name = $2`, tenantID, name))
	if err != nil {
		return nil, mapErr(err, common.ErrResourceNotFound)
	}
	return res, nil
}

func (r *resourceRepo) Update(ctx context.Context, scope tenancy.Scope, res *models.Resource) error {
	tenantID, err := scope.Require()
	if err != nil {
		return err
	}
	query := `
		UPDATE resources
		SET name = $1, type = $2, capacity = $3, description = $4, is_active = $5, updated_at = NOW()
		WHERE tenant_id = $6 AND id = $7
	`
	tag, err := r.db.Exec(ctx, query, res.Name, res.Type, res.Capacity, res.Description, res.IsActive, tenantID, res.ID)
	if err != nil {
		return mapErr(err, common.ErrResourceNotFound)
	}
	return affected(tag, common.ErrResourceNotFound)
}

func (r *resourceRepo) Deactivate(ctx context.Context, scope tenancy.Scope, id uuid.UUID) error {
	tenantID, err := scope.Require()
	if err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, `UPDATE resources SET is_active = FALSE, updated_at = NOW() WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return err
	}
	return affected(tag, common.ErrResourceNotFound)
}

func (r *resourceRepo) List(ctx context.Context, scope tenancy.Scope, resourceType string, includeInactive bool, limit, offset int) ([]*models.Resource, int, error) {
	tenantID, err := scope.Require()
	if err != nil {
		return nil, 0, err
	}
	where := `WHERE tenant_id = $1`
	args := []any{tenantID}
	if resourceType != "" {
		args = append(args, resourceType)
		where += fmt.Sprintf(` AND type = $%d`, len(args))
	}
	if !includeInactive {
		where += ` AND is_active = TRUE`
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM resources `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	query := fmt.Sprintf(`SELECT %s FROM resources %s ORDER BY name, id LIMIT $%d OFFSET $%d`, resourceColumns, where, len(args)-1, len(args))
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	resources, err := collectResources(rows)
	if err != nil {
		return nil, 0, err
	}
	return resources, total, nil
}

// ListActiveByType returns the bookable resources considered for alternatives.
func (r *resourceRepo) ListActiveByType(ctx context.Context, scope tenancy.Scope, resourceType string) ([]*models.Resource, error) {
	tenantID, err := scope.Require()
	if err != nil {
		return nil, err
	}
	query := `SELECT ` + resourceColumns + ` FROM resources WHERE tenant_id = $1 AND type = $2 AND is_active = TRUE ORDER BY name, id`
	rows, err := r.db.Query(ctx, query, tenantID, resourceType)
	if err != nil {
		return nil, err
	}
	return collectResources(rows)
}
