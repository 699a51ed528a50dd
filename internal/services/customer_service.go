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

type CustomerService interface {
	Create(ctx context.Context, scope tenancy.Scope, customer *models.Customer) error
	GetByID(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (*models.Customer, error)
	Update(ctx context.Context, scope tenancy.Scope, customer *models.Customer) error
	Deactivate(ctx context.Context, scope tenancy.Scope, id uuid.UUID) error
	List(ctx context.Context, scope tenancy.Scope, filter models.CustomerFilter) ([]*models.Customer, int, error)
}

type customerService struct {
	customerRepo repositories.CustomerRepository
}

func NewCustomerService(customerRepo repositories.CustomerRepository) CustomerService {
	return &customerService{customerRepo: customerRepo}
}

func normalizeCustomer(c *models.Customer) error {
	c.FirstName = strings.TrimSpace(c.FirstName)
	c.LastName = strings.TrimSpace(c.LastName)
	if c.FirstName == "" {
		return common.NewValidationError("first_name", "is required")
	}
	if c.LastName == "" {
		return common.NewValidationError("last_name", "is required")
	}
	if c.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*c.Email))
		if email == "" {
			c.Email = nil
		} else if !strings.Contains(email, "@") {
			return common.NewValidationError("email", "must be a valid email address")
		} else {
			c.Email = &email
		}
	}
	return nil
}

func (s *customerService) Create(ctx context.Context, scope tenancy.Scope, customer *models.Customer) error {
	if err := normalizeCustomer(customer); err != nil {
		return err
	}
	customer.ID = uuid.New()
	customer.IsActive = true
	return s.customerRepo.Create(ctx, scope, customer)
}

func (s *customerService) GetByID(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (*models.Customer, error) {
	return s.customerRepo.GetByID(ctx, scope, id)
}

func (s *customerService) Update(ctx context.Context, scope tenancy.Scope, customer *models.Customer) error {
	if err := normalizeCustomer(customer); err != nil {
		return err
	}
	return s.customerRepo.Update(ctx, scope, customer)
}

func (s *customerService) Deactivate(ctx context.Context, scope tenancy.Scope, id uuid.UUID) error {
	return s.customerRepo.Deactivate(ctx, scope, id)
}

func (s *customerService) List(ctx context.Context, scope tenancy.Scope, filter models.CustomerFilter) ([]*models.Customer, int, error) {
	filter.Search = strings.TrimSpace(filter.Search)
	return s.customerRepo.List(ctx, scope, filter)
}
