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

// ServiceRepository stores the catalog of bookable services.
type ServiceRepository interface {
	Create(ctx context.Context, scope tenancy.Scope, service *models.Service) error
	GetByID(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (*models.Service, error)
	GetByName(ctx context.Context, scope tenancy.Scope, name string) (*models.Service, error)
	Update(ctx context.Context, scope tenancy.Scope, service *models.Service) error
	Deactivate(ctx context.Context, scope tenancy.Scope, id uuid.UUID) error
	List(ctx context.Context, scope tenancy.Scope, category string, limit, offset int) ([]*models.Service, int, error)
}

type serviceRepo struct {
	db DB
}

func NewServiceRepo(db DB) ServiceRepository {
	return &serviceRepo{db: db}
}

const serviceColumns = `id, tenant_id, name, category, description, base_price, price_unit, is_active, created_at, updated_at`

func scanService(row pgx.Row) (*models.Service, error) {
	s := &models.Service{}
	err := row.Scan(&s.ID, &s.TenantID, &s.Name, &s.Category, &s.Description, &s.BasePrice, &s.PriceUnit, &s.IsActive,
		&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *serviceRepo) Create(ctx context.Context, scope tenancy.Scope, s *models.Service) error {
	tenantID, err := scope.Require()
	if err != nil {
		return err
	}
	s.TenantID = tenantID
	query := `
		INSERT INTO services (id, tenant_id, name, category, description, base_price, price_unit, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	err = r.db.QueryRow(ctx, query, s.ID, tenantID, s.Name, s.Category, s.Description, s.BasePrice, s.PriceUnit, s.IsActive).
		Scan(&s.CreatedAt, &s.UpdatedAt)
	return mapErr(err, common.ErrServiceNotFound)
}

func (r *serviceRepo) GetByID(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (*models.Service, error) {
	tenantID, err := scope.Require()
	if err != nil {
		return nil, err
	}
	s, err := scanService(r.db.QueryRow(ctx, `SELECT `+serviceColumns+` FROM services WHERE tenant_id = $1 AND id = $2`, tenantID, id))
	if err != nil {
		return nil, mapErr(err, common.ErrServiceNotFound)
	}
	return s, nil
}

func (r *serviceRepo) GetByName(ctx context.Context, scope tenancy.Scope, name string) (*models.Service, error) {
	tenantID, err := scope.Require()
	if err != nil {
		return nil, err
	}
	s, err := scanService(r.db.QueryRow(ctx, `SELECT `+serviceColumns+` FROM services WHERE tenant_id = $1 AND name = $2`, tenantID, name))
	if err != nil {
		return nil, mapErr(err, common.ErrServiceNotFound)
	}
	return s, nil
}

func (r *serviceRepo) Update(ctx context.Context, scope tenancy.Scope, s *models.Service) error {
	tenantID, err := scope.Require()
	if err != nil {
		return err
	}
	query := `
		UPDATE services
		SET name = $1, category = $2, description = $3, base_price = $4, price_unit = $5, is_active = $6, updated_at = NOW()
		WHERE tenant_id = $7 AND id = $8
	`
	tag, err := r.db.Exec(ctx, query, s.Name, s.Category, s.Description, s.BasePrice, s.PriceUnit, s.IsActive, tenantID, s.ID)
	if err != nil {
		return mapErr(err, common.ErrServiceNotFound)
	}
	return affected(tag, common.ErrServiceNotFound)
}

func (r *serviceRepo) Deactivate(ctx context.Context, scope tenancy.Scope, id uuid.UUID) error {
	tenantID, err := scope.Require()
	if err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, `UPDATE services SET is_active = FALSE, updated_at = NOW() WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return err
	}
	return affected(tag, common.ErrServiceNotFound)
}

func (r *serviceRepo) List(ctx context.Context, scope tenancy.Scope, category string, limit, offset int) ([]*models.Service, int, error) {
	tenantID, err := scope.Require()
	if err != nil {
		return nil, 0, err
	}
	where := `WHERE tenant_id = $1 AND is_active = TRUE`
	args := []any{tenantID}
	if category != "" {
		args = append(args, category)
		where += fmt.Sprintf(` AND category = $%d`, len(args))
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM services `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	query := fmt.Sprintf(`SELECT %s FROM services %s ORDER BY category, name LIMIT $%d OFFSET $%d`, serviceColumns, where, len(args)-1, len(args))
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	services := []*models.Service{}
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, 0, err
		}
		services = append(services, s)
	}
	return services, total, rows.Err()
}
