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

type ResourceService interface {
	Create(ctx context.Context, scope tenancy.Scope, resource *models.Resource) error
	GetByID(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (*models.Resource, error)
	Update(ctx context.Context, scope tenancy.Scope, resource *models.Resource) error
	Deactivate(ctx context.Context, scope tenancy.Scope, id uuid.UUID) error
	List(ctx context.Context, scope tenancy.Scope, resourceType string, includeInactive bool, limit, offset int) ([]*models.Resource, int, error)
}

type resourceService struct {
	resourceRepo repositories.ResourceRepository
}

func NewResourceService(resourceRepo repositories.ResourceRepository) ResourceService {
	return &resourceService{resourceRepo: resourceRepo}
}

func validResourceType(t string) bool {
	for _, rt := range models.ResourceTypes {
		if rt == t {
			return true
		}
	}
	return false
}

func normalizeResource(r *models.Resource) error {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return common.NewValidationError("name", "is required")
	}
	r.Type = strings.ToUpper(r.Type)
	if !validResourceType(r.Type) {
		return common.NewValidationError("type", "is not a valid resource type")
	}
	if r.Capacity == 0 {
		r.Capacity = 1
	}
	if r.Capacity < 1 {
		return common.NewValidationError("capacity", "must be at least 1")
	}
	return nil
}

func (s *resourceService) Create(ctx context.Context, scope tenancy.Scope, resource *models.Resource) error {
	if err := normalizeResource(resource); err != nil {
		return err
	}
	resource.ID = uuid.New()
	resource.IsActive = true
	return s.resourceRepo.Create(ctx, scope, resource)
}

func (s *resourceService) GetByID(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (*models.Resource, error) {
	return s.resourceRepo.GetByID(ctx, scope, id)
}

// Update changes a resource. Lowering capacity does not touch existing reservations; it
// only constrains new bookings.
func (s *resourceService) Update(ctx context.Context, scope tenancy.Scope, resource *models.Resource) error {
	if err := normalizeResource(resource); err != nil {
		return err
	}
	return s.resourceRepo.Update(ctx, scope, resource)
}

func (s *resourceService) Deactivate(ctx context.Context, scope tenancy.Scope, id uuid.UUID) error {
	return s.resourceRepo.Deactivate(ctx, scope, id)
}

func (s *resourceService) List(ctx context.Context, scope tenancy.Scope, resourceType string, includeInactive bool, limit, offset int) ([]*models.Resource, int, error) {
	resourceType = strings.ToUpper(resourceType)
	if resourceType != "" && !validResourceType(resourceType) {
		return nil, 0, common.NewValidationError("type", "is not a valid resource type")
	}
	return s.resourceRepo.List(ctx, scope, resourceType, includeInactive, limit, offset)
}
