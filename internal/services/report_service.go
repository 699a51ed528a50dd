package services

import (
	"context"
	"time"

	"tailtown/internal/common"
	"tailtown/internal/models"
	"tailtown/internal/repositories"
	"tailtown/internal/tenancy"
)

type ReportService interface {
	KennelDistribution(ctx context.Context, scope tenancy.Scope, start, end time.Time) ([]models.ResourceReservationCount, error)
	ImportSummary(ctx context.Context, scope tenancy.Scope) (*models.ImportSummary, error)
	Occupancy(ctx context.Context, scope tenancy.Scope, day time.Time) ([]models.ResourceOccupancy, error)
}

type reportService struct {
	reportRepo repositories.ReportRepository
	tenantRepo repositories.TenantRepository
}

func NewReportService(reportRepo repositories.ReportRepository, tenantRepo repositories.TenantRepository) ReportService {
	return &reportService{reportRepo: reportRepo, tenantRepo: tenantRepo}
}

func (s *reportService) KennelDistribution(ctx context.Context, scope tenancy.Scope, start, end time.Time) ([]models.ResourceReservationCount, error) {
	if err := validateWindow(start, end); err != nil {
		return nil, err
	}
	return s.reportRepo.KennelDistribution(ctx, scope, start, end)
}

func (s *reportService) ImportSummary(ctx context.Context, scope tenancy.Scope) (*models.ImportSummary, error) {
	return s.reportRepo.ImportSummary(ctx, scope)
}

// Occupancy reports the resources held during the calendar day containing day, in the
// tenant's timezone.
func (s *reportService) Occupancy(ctx context.Context, scope tenancy.Scope, day time.Time) ([]models.ResourceOccupancy, error) {
	if day.IsZero() {
		return nil, common.NewValidationError("date", "is required")
	}
	tenant, err := s.tenantRepo.GetByID(ctx, scope.TenantID())
	if err != nil {
		return nil, err
	}
	loc, err := time.LoadLocation(tenant.Timezone)
	if err != nil {
		loc = time.UTC
	}
	y, m, d := day.Date()
	dayStart := time.Date(y, m, d, 0, 0, 0, 0, loc)
	return s.reportRepo.Occupancy(ctx, scope, dayStart, dayStart.AddDate(0, 0, 1))
}
