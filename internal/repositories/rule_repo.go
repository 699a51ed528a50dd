package repositories

import (
	"context"

	"tailtown/internal/common"
	"tailtown/internal/models"
	"tailtown/internal/tenancy"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// RuleRepository stores deposit and pricing rules. Listings come back in evaluation
// order: priority, then name, then id.
type RuleRepository interface {
	CreateDepositRule(ctx context.Context, scope tenancy.Scope, rule *models.DepositRule) error
	GetDepositRule(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (*models.DepositRule, error)
	UpdateDepositRule(ctx context.Context, scope tenancy.Scope, rule *models.DepositRule) error
	DeleteDepositRule(ctx context.Context, scope tenancy.Scope, id uuid.UUID) error
	ListDepositRules(ctx context.Context, scope tenancy.Scope, activeOnly bool) ([]*models.DepositRule, error)

	CreatePricingRule(ctx context.Context, scope tenancy.Scope, rule *models.PricingRule) error
	GetPricingRule(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (*models.PricingRule, error)
	UpdatePricingRule(ctx context.Context, scope tenancy.Scope, rule *models.PricingRule) error
	DeletePricingRule(ctx context.Context, scope tenancy.Scope, id uuid.UUID) error
	ListPricingRules(ctx context.Context, scope tenancy.Scope, activeOnly bool) ([]*models.PricingRule, error)
}

type ruleRepo struct {
	db DB
}

func NewRuleRepo(db DB) RuleRepository {
	return &ruleRepo{db: db}
}

const depositRuleColumns = `id, tenant_id, name, priority, is_active, condition, deposit_type, deposit_value, refund_policy, created_at, updated_at`

const pricingRuleColumns = `id, tenant_id, name, priority, is_active, condition, adjustment_type, adjustment_value, created_at, updated_at`

func scanDepositRule(row pgx.Row) (*models.DepositRule, error) {
	d := &models.DepositRule{}
	err := row.Scan(&d.ID, &d.TenantID, &d.Name, &d.Priority, &d.IsActive, &d.Condition, &d.DepositType, &d.DepositValue,
		&d.RefundPolicy, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func scanPricingRule(row pgx.Row) (*models.PricingRule, error) {
	p := &models.PricingRule{}
	err := row.Scan(&p.ID, &p.TenantID, &p.Name, &p.Priority, &p.IsActive, &p.Condition, &p.AdjustmentType, &p.AdjustmentValue,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *ruleRepo) CreateDepositRule(ctx context.Context, scope tenancy.Scope, d *models.DepositRule) error {
	tenantID, err := scope.Require()
	if err != nil {
		return err
	}
	d.TenantID = tenantID
	query := `
		INSERT INTO deposit_rules (id, tenant_id, name, priority, is_active, condition, deposit_type, deposit_value, refund_policy, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	err = r.db.QueryRow(ctx, query, d.ID, tenantID, d.Name, d.Priority, d.IsActive, d.Condition, d.DepositType, d.DepositValue,
		d.RefundPolicy).Scan(&d.CreatedAt, &d.UpdatedAt)
	return mapErr(err, common.ErrDepositRuleNotFound)
}

func (r *ruleRepo) GetDepositRule(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (*models.DepositRule, error) {
	tenantID, err := scope.Require()
	if err != nil {
		return nil, err
	}
	d, err := scanDepositRule(r.db.QueryRow(ctx, `SELECT `+depositRuleColumns+` FROM deposit_rules WHERE tenant_id = $1 AND id = $2`, tenantID, id))
	if err != nil {
		return nil, mapErr(err, common.ErrDepositRuleNotFound)
	}
	return d, nil
}

func (r *ruleRepo) UpdateDepositRule(ctx context.Context, scope tenancy.Scope, d *models.DepositRule) error {
	tenantID, err := scope.Require()
	if err != nil {
		return err
	}
	query := `
		UPDATE deposit_rules
		SET name = $1, priority = $2, is_active = $3, condition = $4, deposit_type = $5, deposit_value = $6,
		    refund_policy = $7, updated_at = NOW()
		WHERE tenant_id = $8 AND id = $9
	`
	tag, err := r.db.Exec(ctx, query, d.Name, d.Priority, d.IsActive, d.Condition, d.DepositType, d.DepositValue, d.RefundPolicy,
		tenantID, d.ID)
	if err != nil {
		return err
	}
	return affected(tag, common.ErrDepositRuleNotFound)
}

func (r *ruleRepo) DeleteDepositRule(ctx context.Context, scope tenancy.Scope, id uuid.UUID) error {
	tenantID, err := scope.Require()
	if err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, `DELETE FROM deposit_rules WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return err
	}
	return affected(tag, common.ErrDepositRuleNotFound)
}

func (r *ruleRepo) ListDepositRules(ctx context.Context, scope tenancy.Scope, activeOnly bool) ([]*models.DepositRule, error) {
	tenantID, err := scope.Require()
	if err != nil {
		return nil, err
	}
	query := `SELECT ` + depositRuleColumns + ` FROM deposit_rules WHERE tenant_id = $1 AND (is_active OR NOT $2) ORDER BY priority, name, id`
	rows, err := r.db.Query(ctx, query, tenantID, activeOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rules := []*models.DepositRule{}
	for rows.Next() {
		d, err := scanDepositRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, d)
	}
	return rules, rows.Err()
}

func (r *ruleRepo) CreatePricingRule(ctx context.Context, scope tenancy.Scope, p *models.PricingRule) error {
	tenantID, err := scope.Require()
	if err != nil {
		return err
	}
	p.TenantID = tenantID
	query := `
		INSERT INTO pricing_rules (id, tenant_id, name, priority, is_active, condition, adjustment_type, adjustment_value, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	err = r.db.QueryRow(ctx, query, p.ID, tenantID, p.Name, p.Priority, p.IsActive, p.Condition, p.AdjustmentType, p.AdjustmentValue).
		Scan(&p.CreatedAt, &p.UpdatedAt)
	return mapErr(err, common.ErrPricingRuleNotFound)
}

func (r *ruleRepo) GetPricingRule(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (*models.PricingRule, error) {
	tenantID, err := scope.Require()
	if err != nil {
		return nil, err
	}
	p, err := scanPricingRule(r.db.QueryRow(ctx, `SELECT `+pricingRuleColumns+` FROM pricing_rules WHERE tenant_id = $1 AND id = $2`, tenantID, id))
	if err != nil {
		return nil, mapErr(err, common.ErrPricingRuleNotFound)
	}
	return p, nil
}

func (r *ruleRepo) UpdatePricingRule(ctx context.Context, scope tenancy.Scope, p *models.PricingRule) error {
	tenantID, err := scope.Require()
	if err != nil {
		return err
	}
	query := `
		UPDATE pricing_rules
		SET name = $1, priority = $2, is_active = $3, condition = $4, adjustment_type = $5, adjustment_value = $6, updated_at = NOW()
		WHERE tenant_id = $7 AND id = $8
	`
	tag, err := r.db.Exec(ctx, query, p.Name, p.Priority, p.IsActive, p.Condition, p.AdjustmentType, p.AdjustmentValue, tenantID, p.ID)
	if err != nil {
		return err
	}
	return affected(tag, common.ErrPricingRuleNotFound)
}

func (r *ruleRepo) DeletePricingRule(ctx context.Context, scope tenancy.Scope, id uuid.UUID) error {
	tenantID, err := scope.Require()
	if err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, `DELETE FROM pricing_rules WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return err
	}
	return affected(tag, common.ErrPricingRuleNotFound)
}

func (r *ruleRepo) ListPricingRules(ctx context.Context, scope tenancy.Scope, activeOnly bool) ([]*models.PricingRule, error) {
	tenantID, err := scope.Require()
	if err != nil {
		return nil, err
	}
	query := `SELECT ` + pricingRuleColumns + ` FROM pricing_rules WHERE tenant_id = $1 AND (is_active OR NOT $2) ORDER BY priority, name, id`
	rows, err := r.db.Query(ctx, query, tenantID, activeOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rules := []*models.PricingRule{}
	for rows.Next() {
		p, err := scanPricingRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, p)
	}
	return rules, rows.Err()
}
