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

type CustomerRepository interface {
	Create(ctx context.Context, scope tenancy.Scope, customer *models.Customer) error
	GetByID(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (*models.Customer, error)
	GetByExternalID(ctx context.Context, scope tenancy.Scope, externalID string) (*models.Customer, error)
	Update(ctx context.Context, scope tenancy.Scope, customer *models.Customer) error
	Deactivate(ctx context.Context, scope tenancy.Scope, id uuid.UUID) error
	List(ctx context.Context, scope tenancy.Scope, filter models.CustomerFilter) ([]*models.Customer, int, error)
}

type customerRepo struct {
	db DB
}

func NewCustomerRepo(db DB) CustomerRepository {
	return &customerRepo{db: db}
}

const customerColumns = `id, tenant_id, first_name, last_name, email, phone, address, notes, external_id, is_active, created_at, updated_at`

func scanCustomer(row pgx.Row) (*models.Customer, error) {
	c := &models.Customer{}
	err := row.Scan(&c.ID, &c.TenantID, &c.FirstName, &c.LastName, &c.Email, &c.Phone, &c.Address,
		&c.Notes, &c.ExternalID, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *customerRepo) Create(ctx context.Context, scope tenancy.Scope, c *models.Customer) error {
	tenantID, err := scope.Require()
	if err != nil {
		return err
	}
	c.TenantID = tenantID

	query := `
		INSERT INTO customers (id, tenant_id, first_name, last_name, email, phone, address, notes, external_id, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	err = r.db.QueryRow(ctx, query, c.ID, tenantID, c.FirstName, c.LastName, c.Email, c.Phone, c.Address,
		c.Notes, c.ExternalID, c.IsActive).Scan(&c.CreatedAt, &c.UpdatedAt)
	return mapErr(err, common.ErrCustomerNotFound)
}

func (r *customerRepo) GetByID(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (*models.Customer, error) {
	tenantID, err := scope.Require()
	if err != nil {
		return nil, err
	}
	query := `SELECT ` + customerColumns + ` FROM customers WHERE tenant_id = $1 AND id = $2`
	c, err := scanCustomer(r.db.QueryRow(ctx, query, tenantID, id))
	if err != nil {
		return nil, mapErr(err, common.ErrCustomerNotFound)
	}
	return c, nil
}

func (r *customerRepo) GetByExternalID(ctx context.Context, scope tenancy.Scope, externalID string) (*models.Customer, error) {
	tenantID, err := scope.Require()
	if err != nil {
		return nil, err
	}
	query := `SELECT ` + customerColumns + ` FROM customers WHERE tenant_id = $1 AND external_id = $2`
	c, err := scanCustomer(r.db.QueryRow(ctx, query, tenantID, externalID))
	if err != nil {
		return nil, mapErr(err, common.ErrCustomerNotFound)
	}
	return c, nil
}

func (r *customerRepo) Update(ctx context.Context, scope tenancy.Scope, c *models.Customer) error {
	tenantID, err := scope.Require()
	if err != nil {
		return err
	}
	query := `
		UPDATE customers
		SET first_name = $1, last_name = $2, email = $3, phone = $4, address = $5, notes = $6, is_active = $7, updated_at = NOW()
		WHERE tenant_id = $8 AND id = $9
	`
	tag, err := r.db.Exec(ctx, query, c.FirstName, c.LastName, c.Email, c.Phone, c.Address, c.Notes, c.IsActive, tenantID, c.ID)
	if err != nil {
		return mapErr(err, common.ErrCustomerNotFound)
	}
	return affected(tag, common.ErrCustomerNotFound)
}

func (r *customerRepo) Deactivate(ctx context.Context, scope tenancy.Scope, id uuid.UUID) error {
	tenantID, err := scope.Require()
	if err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, `UPDATE customers SET is_active = FALSE, updated_at = NOW() WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return err
	}
	return affected(tag, common.ErrCustomerNotFound)
}

func (r *customerRepo) List(ctx context.Context, scope tenancy.Scope, f models.CustomerFilter) ([]*models.Customer, int, error) {
	tenantID, err := scope.Require()
	if err != nil {
		return nil, 0, err
	}

	where := `WHERE tenant_id = $1`
	args := []any{tenantID}
	if !f.IncludeInactive {
		where += ` AND is_active = TRUE`
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		where += fmt.Sprintf(` AND (first_name ILIKE $%d OR last_name ILIKE $%d OR email ILIKE $%d OR phone ILIKE $%d)`,
			len(args), len(args), len(args), len(args))
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM customers `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, f.Limit, f.Offset)
	query := fmt.Sprintf(`SELECT %s FROM customers %s ORDER BY last_name, first_name, id LIMIT $%d OFFSET $%d`,
		customerColumns, where, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	customers := []*models.Customer{}
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, 0, err
		}
		customers = append(customers, c)
	}
	return customers, total, rows.Err()
}
