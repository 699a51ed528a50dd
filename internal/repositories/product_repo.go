package repositories

import (
	"context"
	"errors"
	"fmt"

	"tailtown/internal/common"
	"tailtown/internal/models"
	"tailtown/internal/tenancy"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type ProductRepository interface {
	Create(ctx context.Context, scope tenancy.Scope, product *models.Product) error
	GetByID(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (*models.Product, error)
	GetBySKU(ctx context.Context, scope tenancy.Scope, sku string) (*models.Product, error)
	Update(ctx context.Context, scope tenancy.Scope, product *models.Product) error
	AdjustStock(ctx context.Context, scope tenancy.Scope, id uuid.UUID, delta int) (int, error)
	Deactivate(ctx context.Context, scope tenancy.Scope, id uuid.UUID) error
	List(ctx context.Context, scope tenancy.Scope, search string, limit, offset int) ([]*models.Product, int, error)
}

type productRepo struct {
	db DB
}

func NewProductRepo(db DB) ProductRepository {
	return &productRepo{db: db}
}

const productColumns = `id, tenant_id, sku, name, description, price, stock, is_active, created_at, updated_at`

func scanProduct(row pgx.Row) (*models.Product, error) {
	p := &models.Product{}
	err := row.Scan(&p.ID, &p.TenantID, &p.SKU, &p.Name, &p.Description, &p.Price, &p.Stock, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *productRepo) Create(ctx context.Context, scope tenancy.Scope, p *models.Product) error {
	tenantID, err := scope.Require()
	if err != nil {
		return err
	}
	p.TenantID = tenantID
	query := `
		INSERT INTO products (id, tenant_id, sku, name, description, price, stock, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	err = r.db.QueryRow(ctx, query, p.ID, tenantID, p.SKU, p.Name, p.Description, p.Price, p.Stock, p.IsActive).
		Scan(&p.CreatedAt, &p.UpdatedAt)
	return mapErr(err, common.ErrProductNotFound)
}

func (r *productRepo) GetByID(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (*models.Product, error) {
	tenantID, err := scope.Require()
	if err != nil {
		return nil, err
	}
	p, err := scanProduct(r.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE tenant_id = $1 AND id = $2`, tenantID, id))
	if err != nil {
		return nil, mapErr(err, common.ErrProductNotFound)
	}
	return p, nil
}

func (r *productRepo) GetBySKU(ctx context.Context, scope tenancy.Scope, sku string) (*models.Product, error) {
	tenantID, err := scope.Require()
	if err != nil {
		return nil, err
	}
	p, err := scanProduct(r.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE tenant_id = $1 AND sku = $2`, tenantID, sku))
	if err != nil {
		return nil, mapErr(err, common.ErrProductNotFound)
	}
	return p, nil
}

func (r *productRepo) Update(ctx context.Context, scope tenancy.Scope, p *models.Product) error {
	tenantID, err := scope.Require()
	if err != nil {
		return err
	}
	query := `
		UPDATE products
		SET sku = $1, name = $2, description = $3, price = $4, stock = $5, is_active = $6, updated_at = NOW()
		WHERE tenant_id = $7 AND id = $8
	`
	tag, err := r.db.Exec(ctx, query, p.SKU, p.Name, p.Description, p.Price, p.Stock, p.IsActive, tenantID, p.ID)
	if err != nil {
		return mapErr(err, common.ErrProductNotFound)
	}
	return affected(tag, common.ErrProductNotFound)
}

// AdjustStock applies delta atomically and returns the new stock level.
// Stock never goes negative; an oversell is a conflict.
func (r *productRepo) AdjustStock(ctx context.Context, scope tenancy.Scope, id uuid.UUID, delta int) (int, error) {
	tenantID, err := scope.Require()
	if err != nil {
		return 0, err
	}
	var stock int
	err = r.db.QueryRow(ctx, `
		UPDATE products SET stock = stock + $1, updated_at = NOW()
		WHERE tenant_id = $2 AND id = $3 AND stock + $1 >= 0
		RETURNING stock`, delta, tenantID, id).Scan(&stock)
	if err == nil {
		return stock, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, err
	}
	// distinguish a missing product from insufficient stock
	if _, getErr := r.GetByID(ctx, scope, id); getErr != nil {
		return 0, getErr
	}
	return 0, &common.ConflictError{Message: "insufficient stock"}
}

func (r *productRepo) Deactivate(ctx context.Context, scope tenancy.Scope, id uuid.UUID) error {
	tenantID, err := scope.Require()
	if err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, `UPDATE products SET is_active = FALSE, updated_at = NOW() WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return err
	}
	return affected(tag, common.ErrProductNotFound)
}

func (r *productRepo) List(ctx context.Context, scope tenancy.Scope, search string, limit, offset int) ([]*models.Product, int, error) {
	tenantID, err := scope.Require()
	if err != nil {
		return nil, 0, err
	}
	where := `WHERE tenant_id = $1 AND is_active = TRUE`
	args := []any{tenantID}
	if search != "" {
		args = append(args, "%"+search+"%")
		where += fmt.Sprintf(` AND (name ILIKE $%d OR sku ILIKE $%d)`, len(args), len(args))
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM products `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	query := fmt.Sprintf(`SELECT %s FROM products %s ORDER BY name, id LIMIT $%d OFFSET $%d`, productColumns, where, len(args)-1, len(args))
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	products := []*models.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		products = append(products, p)
	}
	return products, total, rows.Err()
}
