package repositories

import (
	"context"
	"time"

	"tailtown/internal/models"
	"tailtown/internal/tenancy"
)

// ReportRepository runs read-only aggregate queries.
type ReportRepository interface {
	KennelDistribution(ctx context.Context, scope tenancy.Scope, start, end time.Time) ([]models.ResourceReservationCount, error)
	ImportSummary(ctx context.Context, scope tenancy.Scope) (*models.ImportSummary, error)
	Occupancy(ctx context.Context, scope tenancy.Scope, dayStart, dayEnd time.Time) ([]models.ResourceOccupancy, error)
}

type reportRepo struct {
	db DB
}

func NewReportRepo(db DB) ReportRepository {
	return &reportRepo{db: db}
}

// KennelDistribution counts non-cancelled reservations per resource that overlap [start, end).
func (r *reportRepo) KennelDistribution(ctx context.Context, scope tenancy.Scope, start, end time.Time) ([]models.ResourceReservationCount, error) {
	tenantID, err := scope.Require()
	if err != nil {
		return nil, err
	}
	query := `
		SELECT res.id, res.name, res.type, COUNT(rv.id)
		FROM resources res
		LEFT JOIN reservations rv
		       ON rv.resource_id = res.id
		      AND rv.tenant_id = res.tenant_id
		      AND rv.status <> 'CANCELLED'
		      AND rv.start_date < $3
		      AND rv.end_date > $2
		WHERE res.tenant_id = $1
		GROUP BY res.id, res.name, res.type
		ORDER BY COUNT(rv.id) DESC, res.name
	`
	rows, err := r.db.Query(ctx, query, tenantID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.ResourceReservationCount{}
	for rows.Next() {
		var c models.ResourceReservationCount
		if err := rows.Scan(&c.ResourceID, &c.ResourceName, &c.ResourceType, &c.Count); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ImportSummary treats reservations carrying an external id as imported.
func (r *reportRepo) ImportSummary(ctx context.Context, scope tenancy.Scope) (*models.ImportSummary, error) {
	tenantID, err := scope.Require()
	if err != nil {
		return nil, err
	}
	query := `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE external_id IS NOT NULL),
		       COUNT(*) FILTER (WHERE resource_id IS NULL),
		       MIN(start_date) FILTER (WHERE external_id IS NOT NULL),
		       MAX(start_date) FILTER (WHERE external_id IS NOT NULL)
		FROM reservations
		WHERE tenant_id = $1
	`
	s := &models.ImportSummary{}
	err = r.db.QueryRow(ctx, query, tenantID).Scan(&s.TotalReservations, &s.ImportedReservations, &s.WithoutResource,
		&s.EarliestImportedStart, &s.LatestImportedStart)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Occupancy reports active reservations per active resource that overlap [dayStart, dayEnd).
func (r *reportRepo) Occupancy(ctx context.Context, scope tenancy.Scope, dayStart, dayEnd time.Time) ([]models.ResourceOccupancy, error) {
	tenantID, err := scope.Require()
	if err != nil {
		return nil, err
	}
	query := `
		SELECT res.id, res.name, res.type, res.capacity, COUNT(rv.id)
		FROM resources res
		LEFT JOIN reservations rv
		       ON rv.resource_id = res.id
		      AND rv.tenant_id = res.tenant_id
		      AND rv.status = ANY($4)
		      AND rv.start_date < $3
		      AND rv.end_date > $2
		WHERE res.tenant_id = $1 AND res.is_active = TRUE
		GROUP BY res.id, res.name, res.type, res.capacity
		ORDER BY res.type, res.name
	`
	rows, err := r.db.Query(ctx, query, tenantID, dayStart, dayEnd, models.ActiveReservationStatuses)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.ResourceOccupancy{}
	for rows.Next() {
		var o models.ResourceOccupancy
		if err := rows.Scan(&o.ResourceID, &o.ResourceName, &o.ResourceType, &o.Capacity, &o.Occupied); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
