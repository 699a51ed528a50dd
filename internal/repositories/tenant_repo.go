package repositories

import (
	"context"
	"errors"

	"tailtown/internal/common"
	"tailtown/internal/models"
	"tailtown/internal/tenancy"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type TenantRepository interface {
	Create(ctx context.Context, tenant *models.Tenant) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
	GetBySubdomain(ctx context.Context, subdomain string) (*models.Tenant, error)
	Update(ctx context.Context, tenant *models.Tenant) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*models.Tenant, int, error)
	ListServing(ctx context.Context) ([]*models.Tenant, error)
	GetSettings(ctx context.Context, scope tenancy.Scope) (*models.TenantSettings, error)
	UpsertSettings(ctx context.Context, scope tenancy.Scope, settings *models.TenantSettings) error
}

type tenantRepo struct {
	db DB
}

func NewTenantRepo(db DB) TenantRepository {
	return &tenantRepo{db: db}
}

const tenantColumns = `id, name, subdomain, status, contact_email, timezone, created_at, updated_at`

func scanTenant(row pgx.Row) (*models.Tenant, error) {
	t := &models.Tenant{}
	err := row.Scan(&t.ID, &t.Name, &t.Subdomain, &t.Status, &t.ContactEmail, &t.Timezone, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *tenantRepo) Create(ctx context.Context, tenant *models.Tenant) (err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	query := `
		INSERT INTO tenants (id, name, subdomain, status, contact_email, timezone, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
	`
	if _, err = tx.Exec(ctx, query, tenant.ID, tenant.Name, tenant.Subdomain, tenant.Status, tenant.ContactEmail, tenant.Timezone); err != nil {
		return mapErr(err, common.ErrTenantNotFound)
	}

	if _, err = tx.Exec(ctx, `INSERT INTO tenant_settings (tenant_id) VALUES ($1)`, tenant.ID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *tenantRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE id = $1`
	t, err := scanTenant(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapErr(err, common.ErrTenantNotFound)
	}
	return t, nil
}

func (r *tenantRepo) GetBySubdomain(ctx context.Context, subdomain string) (*models.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE subdomain = $1`
	t, err := scanTenant(r.db.QueryRow(ctx, query, subdomain))
	if err != nil {
		return nil, mapErr(err, common.ErrTenantNotFound)
	}
	return t, nil
}

func (r *tenantRepo) Update(ctx context.Context, tenant *models.Tenant) error {
	query := `
		UPDATE tenants
		SET name = $1, subdomain = $2, status = $3, contact_email = $4, timezone = $5, updated_at = NOW()
		WHERE id = $6
	`
	tag, err := r.db.Exec(ctx, query, tenant.Name, tenant.Subdomain, tenant.Status, tenant.ContactEmail, tenant.Timezone, tenant.ID)
	if err != nil {
		return mapErr(err, common.ErrTenantNotFound)
	}
	return affected(tag, common.ErrTenantNotFound)
}

func (r *tenantRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM tenants WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return affected(tag, common.ErrTenantNotFound)
}

func (r *tenantRepo) List(ctx context.Context, limit, offset int) ([]*models.Tenant, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM tenants`).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT ` + tenantColumns + `
		FROM tenants
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`
	tenants, err := r.queryTenants(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return tenants, total, nil
}

// ListServing returns tenants whose requests are served, for background fan-out.
func (r *tenantRepo) ListServing(ctx context.Context) ([]*models.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE status IN ('trial', 'active') ORDER BY subdomain`
	return r.queryTenants(ctx, query)
}

func (r *tenantRepo) queryTenants(ctx context.Context, query string, args ...any) ([]*models.Tenant, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tenants := []*models.Tenant{}
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, err
		}
		tenants = append(tenants, t)
	}
	return tenants, rows.Err()
}

// GetSettings returns stored settings, or the defaults when the tenant has none yet.
func (r *tenantRepo) GetSettings(ctx context.Context, scope tenancy.Scope) (*models.TenantSettings, error) {
	tenantID, err := scope.Require()
	if err != nil {
		return nil, err
	}

	s := &models.TenantSettings{}
	query := `
		SELECT tenant_id, default_deposit_type, default_deposit_value, default_refund_policy,
		       pricing_match_mode, tax_rate, turnover_buffer_minutes, updated_at
		FROM tenant_settings
		WHERE tenant_id = $1
	`
	err = r.db.QueryRow(ctx, query, tenantID).Scan(&s.TenantID, &s.DefaultDepositType, &s.DefaultDepositValue,
		&s.DefaultRefundPolicy, &s.PricingMatchMode, &s.TaxRate, &s.TurnoverBufferMinutes, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.DefaultTenantSettings(tenantID), nil
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *tenantRepo) UpsertSettings(ctx context.Context, scope tenancy.Scope, s *models.TenantSettings) error {
	tenantID, err := scope.Require()
	if err != nil {
		return err
	}
	query := `
		INSERT INTO tenant_settings (tenant_id, default_deposit_type, default_deposit_value, default_refund_policy,
		                             pricing_match_mode, tax_rate, turnover_buffer_minutes, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (tenant_id) DO UPDATE SET
			default_deposit_type = EXCLUDED.default_deposit_type,
			default_deposit_value = EXCLUDED.default_deposit_value,
			default_refund_policy = EXCLUDED.default_refund_policy,
			pricing_match_mode = EXCLUDED.pricing_match_mode,
			tax_rate = EXCLUDED.tax_rate,
			turnover_buffer_minutes = EXCLUDED.turnover_buffer_minutes,
			updated_at = NOW()
	`
	_, err = r.db.Exec(ctx, query, tenantID, s.DefaultDepositType, s.DefaultDepositValue, s.DefaultRefundPolicy,
		s.PricingMatchMode, s.TaxRate, s.TurnoverBufferMinutes)
	return err
}
