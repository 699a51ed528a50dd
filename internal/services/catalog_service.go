package services

import (
	"context"
	"strings"

	"tailtown/internal/common"
	"tailtown/internal/models"
	"tailtown/internal/repositories"
	"tailtown/internal/tenancy"

	"github.com/google/uuid"
)

// CatalogService manages the bookable services a tenant offers.
type CatalogService interface {
	Create(ctx context.Context, scope tenancy.Scope, service *models.Service) error
	GetByID(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (*models.Service, error)
	Update(ctx context.Context, scope tenancy.Scope, service *models.Service) error
	Deactivate(ctx context.Context, scope tenancy.Scope, id uuid.UUID) error
	List(ctx context.Context, scope tenancy.Scope, category string, limit, offset int) ([]*models.Service, int, error)
}

type catalogService struct {
	serviceRepo repositories.ServiceRepository
}

func NewCatalogService(serviceRepo repositories.ServiceRepository) CatalogService {
	return &catalogService{serviceRepo: serviceRepo}
}

func normalizeService(svc *models.Service) error {
	svc.Name = strings.TrimSpace(svc.Name)
	if svc.Name == "" {
		return common.NewValidationError("name", "is required")
	}
	svc.Category = strings.ToUpper(svc.Category)
	switch svc.Category {
	case models.ServiceCategoryBoarding, models.ServiceCategoryDaycare, models.ServiceCategoryGrooming, models.ServiceCategoryTraining:
	default:
		return common.NewValidationError("category", "must be BOARDING, DAYCARE, GROOMING or TRAINING")
	}
	svc.PriceUnit = strings.ToUpper(svc.PriceUnit)
	switch svc.PriceUnit {
	case models.PriceUnitPerNight, models.PriceUnitPerDay, models.PriceUnitFlat:
	case "":
		svc.PriceUnit = models.PriceUnitPerNight
	default:
		return common.NewValidationError("price_unit", "must be PER_NIGHT, PER_DAY or FLAT")
	}
	if svc.BasePrice.IsNegative() {
		return common.NewValidationError("base_price", "cannot be negative")
	}
	return nil
}

func (s *catalogService) Create(ctx context.Context, scope tenancy.Scope, svc *models.Service) error {
	if err := normalizeService(svc); err != nil {
		return err
	}
	svc.ID = uuid.New()
	svc.IsActive = true
	return s.serviceRepo.Create(ctx, scope, svc)
}

func (s *catalogService) GetByID(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (*models.Service, error) {
	return s.serviceRepo.GetByID(ctx, scope, id)
}

func (s *catalogService) Update(ctx context.Context, scope tenancy.Scope, svc *models.Service) error {
	if err := normalizeService(svc); err != nil {
		return err
	}
	return s.serviceRepo.Update(ctx, scope, svc)
}

func (s *catalogService) Deactivate(ctx context.Context, scope tenancy.Scope, id uuid.UUID) error {
	return s.serviceRepo.Deactivate(ctx, scope, id)
}

func (s *catalogService) List(ctx context.Context, scope tenancy.Scope, category string, limit, offset int) ([]*models.Service, int, error) {
	return s.serviceRepo.List(ctx, scope, strings.ToUpper(category), limit, offset)
}
