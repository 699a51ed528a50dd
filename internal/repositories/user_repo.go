package repositories

import (
	"context"

	"tailtown/internal/common"
	"tailtown/internal/models"
	"tailtown/internal/tenancy"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// UserRepository stores staff accounts.
type UserRepository interface {
	Create(ctx context.Context, scope tenancy.Scope, user *models.User) error
	GetByID(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, scope tenancy.Scope, email string) (*models.User, error)
	Update(ctx context.Context, scope tenancy.Scope, user *models.User) error
	UpdatePassword(ctx context.Context, scope tenancy.Scope, id uuid.UUID, passwordHash string) error
	TouchLogin(ctx context.Context, scope tenancy.Scope, id uuid.UUID) error
	Deactivate(ctx context.Context, scope tenancy.Scope, id uuid.UUID) error
	List(ctx context.Context, scope tenancy.Scope, limit, offset int) ([]*models.User, int, error)
}

type userRepo struct {
	db DB
}

func NewUserRepo(db DB) UserRepository {
	return &userRepo{db: db}
}

const userColumns = `id, tenant_id, email, password_hash, first_name, last_name, role, phone, position, status,
	last_login_at, created_at, updated_at`

func scanUser(row pgx.Row) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(&u.ID, &u.TenantID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.Role, &u.Phone,
		&u.Position, &u.Status, &u.LastLoginAt, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *userRepo) Create(ctx context.Context, scope tenancy.Scope, u *models.User) error {
	tenantID, err := scope.Require()
	if err != nil {
		return err
	}
	u.TenantID = tenantID
	query := `
		INSERT INTO users (id, tenant_id, email, password_hash, first_name, last_name, role, phone, position, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	err = r.db.QueryRow(ctx, query, u.ID, tenantID, u.Email, u.PasswordHash, u.FirstName, u.LastName, u.Role, u.Phone,
		u.Position, u.Status).Scan(&u.CreatedAt, &u.UpdatedAt)
	return mapErr(err, common.ErrUserNotFound)
}

func (r *userRepo) GetByID(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (*models.User, error) {
	tenantID, err := scope.Require()
	if err != nil {
		return nil, err
	}
	u, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE tenant_id = $1 AND id = $2`, tenantID, id))
	if err != nil {
		return nil, mapErr(err, common.ErrUserNotFound)
	}
	return u, nil
}

// GetByEmail matches case-insensitively; emails are stored lowercased.
func (r *userRepo) GetByEmail(ctx context.Context, scope tenancy.Scope, email string) (*models.User, error) {
	tenantID, err := scope.Require()
	if err != nil {
		return nil, err
	}
	u, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE tenant_id = $1 AND LOWER(email) = LOWER($2)`, tenantID, email))
	if err != nil {
		return nil, mapErr(err, common.ErrUserNotFound)
	}
	return u, nil
}

func (r *userRepo) Update(ctx context.Context, scope tenancy.Scope, u *models.User) error {
	tenantID, err := scope.Require()
	if err != nil {
		return err
	}
	query := `
		UPDATE users
		SET email = $1, first_name = $2, last_name = $3, role = $4, phone = $5, position = $6, status = $7, updated_at = NOW()
		WHERE tenant_id = $8 AND id = $9
	`
	tag, err := r.db.Exec(ctx, query, u.Email, u.FirstName, u.LastName, u.Role, u.Phone, u.Position, u.Status, tenantID, u.ID)
	if err != nil {
		return mapErr(err, common.ErrUserNotFound)
	}
	return affected(tag, common.ErrUserNotFound)
}

func (r *userRepo) UpdatePassword(ctx context.Context, scope tenancy.Scope, id uuid.UUID, passwordHash string) error {
	tenantID, err := scope.Require()
	if err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, `UPDATE users SET password_hash = $1, updated_at = NOW() WHERE tenant_id = $2 AND id = $3`,
		passwordHash, tenantID, id)
	if err != nil {
		return err
	}
	return affected(tag, common.ErrUserNotFound)
}

func (r *userRepo) TouchLogin(ctx context.Context, scope tenancy.Scope, id uuid.UUID) error {
	tenantID, err := scope.Require()
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `UPDATE users SET last_login_at = NOW() WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	return err
}

func (r *userRepo) Deactivate(ctx context.Context, scope tenancy.Scope, id uuid.UUID) error {
	tenantID, err := scope.Require()
	if err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, `UPDATE users SET status = 'inactive', updated_at = NOW() WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return err
	}
	return affected(tag, common.ErrUserNotFound)
}

func (r *userRepo) List(ctx context.Context, scope tenancy.Scope, limit, offset int) ([]*models.User, int, error) {
	tenantID, err := scope.Require()
	if err != nil {
		return nil, 0, err
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE tenant_id = $1`, tenantID).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE tenant_id = $1
		ORDER BY last_name, first_name, id
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, tenantID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	users := []*models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, u)
	}
	return users, total, rows.Err()
}
