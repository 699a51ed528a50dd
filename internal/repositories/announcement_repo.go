package repositories

import (
	"context"
	"time"

	"tailtown/internal/common"
	"tailtown/internal/models"
	"tailtown/internal/tenancy"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type AnnouncementRepository interface {
	Create(ctx context.Context, scope tenancy.Scope, announcement *models.Announcement) error
	GetByID(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (*models.Announcement, error)
	Update(ctx context.Context, scope tenancy.Scope, announcement *models.Announcement) error
	Deactivate(ctx context.Context, scope tenancy.Scope, id uuid.UUID) error
	List(ctx context.Context, scope tenancy.Scope, limit, offset int) ([]*models.Announcement, int, error)
	ListActive(ctx context.Context, scope tenancy.Scope, at time.Time) ([]*models.Announcement, error)
}

type announcementRepo struct {
	db DB
}

func NewAnnouncementRepo(db DB) AnnouncementRepository {
	return &announcementRepo{db: db}
}

const announcementColumns = `id, tenant_id, title, body, priority, starts_at, ends_at, is_active, created_by, created_at, updated_at`

func scanAnnouncement(row pgx.Row) (*models.Announcement, error) {
	a := &models.Announcement{}
	err := row.Scan(&a.ID, &a.TenantID, &a.Title, &a.Body, &a.Priority, &a.StartsAt, &a.EndsAt, &a.IsActive, &a.CreatedBy,
		&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func collectAnnouncements(rows pgx.Rows) ([]*models.Announcement, error) {
	defer rows.Close()
	out := []*models.Announcement{}
	for rows.Next() {
		a, err := scanAnnouncement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *announcementRepo) Create(ctx context.Context, scope tenancy.Scope, a *models.Announcement) error {
	tenantID, err := scope.Require()
	if err != nil {
		return err
	}
	a.TenantID = tenantID
	query := `
		INSERT INTO announcements (id, tenant_id, title, body, priority, starts_at, ends_at, is_active, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	err = r.db.QueryRow(ctx, query, a.ID, tenantID, a.Title, a.Body, a.Priority, a.StartsAt, a.EndsAt, a.IsActive, a.CreatedBy).
		Scan(&a.CreatedAt, &a.UpdatedAt)
	return mapErr(err, common.ErrAnnouncementNotFound)
}

func (r *announcementRepo) GetByID(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (*models.Announcement, error) {
	tenantID, err := scope.Require()
	if err != nil {
		return nil, err
	}
	a, err := scanAnnouncement(r.db.QueryRow(ctx, `SELECT `+announcementColumns+` FROM announcements WHERE tenant_id = $1 AND id = $2`, tenantID, id))
	if err != nil {
		return nil, mapErr(err, common.ErrAnnouncementNotFound)
	}
	return a, nil
}

func (r *announcementRepo) Update(ctx context.Context, scope tenancy.Scope, a *models.Announcement) error {
	tenantID, err := scope.Require()
	if err != nil {
		return err
	}
	query := `
		UPDATE announcements
		SET title = $1, body = $2, priority = $3, starts_at = $4, ends_at = $5, is_active = $6, updated_at = NOW()
		WHERE tenant_id = $7 AND id = $8
	`
	tag, err := r.db.Exec(ctx, query, a.Title, a.Body, a.Priority, a.StartsAt, a.EndsAt, a.IsActive, tenantID, a.ID)
	if err != nil {
		return err
	}
	return affected(tag, common.ErrAnnouncementNotFound)
}

func (r *announcementRepo) Deactivate(ctx context.Context, scope tenancy.Scope, id uuid.UUID) error {
	tenantID, err := scope.Require()
	if err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, `UPDATE announcements SET is_active = FALSE, updated_at = NOW() WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return err
	}
	return affected(tag, common.ErrAnnouncementNotFound)
}

func (r *announcementRepo) List(ctx context.Context, scope tenancy.Scope, limit, offset int) ([]*models.Announcement, int, error) {
	tenantID, err := scope.Require()
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM announcements WHERE tenant_id = $1`, tenantID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.db.Query(ctx, `SELECT `+announcementColumns+` FROM announcements WHERE tenant_id = $1 ORDER BY starts_at DESC, id LIMIT $2 OFFSET $3`,
		tenantID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	items, err := collectAnnouncements(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// ListActive returns announcements visible at the given instant, urgent first.
func (r *announcementRepo) ListActive(ctx context.Context, scope tenancy.Scope, at time.Time) ([]*models.Announcement, error) {
	tenantID, err := scope.Require()
	if err != nil {
		return nil, err
	}
	query := `
		SELECT ` + announcementColumns + `
		FROM announcements
		WHERE tenant_id = $1 AND is_active = TRUE AND starts_at <= $2 AND (ends_at IS NULL OR ends_at > $2)
		ORDER BY CASE priority WHEN 'URGENT' THEN 0 WHEN 'NORMAL' THEN 1 ELSE 2 END, starts_at DESC
	`
	rows, err := r.db.Query(ctx, query, tenantID, at)
	if err != nil {
		return nil, err
	}
	return collectAnnouncements(rows)
}
