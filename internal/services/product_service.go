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

type ProductService interface {
	Create(ctx context.Context, scope tenancy.Scope, product *models.Product) error
	GetByID(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (*models.Product, error)
	Update(ctx context.Context, scope tenancy.Scope, product *models.Product) error
	Deactivate(ctx context.Context, scope tenancy.Scope, id uuid.UUID) error
	List(ctx context.Context, scope tenancy.Scope, search string, limit, offset int) ([]*models.Product, int, error)
	UpdateStock(ctx context.Context, scope tenancy.Scope, id uuid.UUID, change int) (*models.Product, error)
}

type productService struct {
	productRepo repositories.ProductRepository
}

func NewProductService(productRepo repositories.ProductRepository) ProductService {
	return &productService{productRepo: productRepo}
}

func validateProduct(p *models.Product) error {
	p.Name = strings.TrimSpace(p.Name)
	p.SKU = strings.ToUpper(strings.TrimSpace(p.SKU))
	if p.Name == "" {
		return common.NewValidationError("name", "is required")
	}
	if p.SKU == "" {
		return common.NewValidationError("sku", "is required")
	}
	if p.Price.IsNegative() {
		return common.NewValidationError("price", "cannot be negative")
	}
	if p.Stock < 0 {
		return common.NewValidationError("stock", "cannot be negative")
	}
	return nil
}

func (s *productService) Create(ctx context.Context, scope tenancy.Scope, product *models.Product) error {
	if err := validateProduct(product); err != nil {
		return err
	}
	if _, err := s.productRepo.GetBySKU(ctx, scope, product.SKU); err == nil {
		return &common.ConflictError{Message: "sku " + product.SKU + " already exists"}
	} else if !common.IsNotFound(err) {
		return err
	}
	product.ID = uuid.New()
	product.IsActive = true
	return s.productRepo.Create(ctx, scope, product)
}

func (s *productService) GetByID(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (*models.Product, error) {
	return s.productRepo.GetByID(ctx, scope, id)
}

func (s *productService) Update(ctx context.Context, scope tenancy.Scope, product *models.Product) error {
	if err := validateProduct(product); err != nil {
		return err
	}
	existing, err := s.productRepo.GetBySKU(ctx, scope, product.SKU)
	if err == nil && existing.ID != product.ID {
		return &common.ConflictError{Message: "sku " + product.SKU + " already exists"}
	}
	if err != nil && !common.IsNotFound(err) {
		return err
	}
	return s.productRepo.Update(ctx, scope, product)
}

func (s *productService) Deactivate(ctx context.Context, scope tenancy.Scope, id uuid.UUID) error {
	return s.productRepo.Deactivate(ctx, scope, id)
}

func (s *productService) List(ctx context.Context, scope tenancy.Scope, search string, limit, offset int) ([]*models.Product, int, error) {
	return s.productRepo.List(ctx, scope, strings.TrimSpace(search), limit, offset)
}

// UpdateStock applies a signed stock change. Stock never goes below zero.
func (s *productService) UpdateStock(ctx context.Context, scope tenancy.Scope, id uuid.UUID, change int) (*models.Product, error) {
	if change == 0 {
		return nil, common.NewValidationError("change", "cannot be zero")
	}
	stock, err := s.productRepo.AdjustStock(ctx, scope, id, change)
	if err != nil {
		return nil, err
	}
	product, err := s.productRepo.GetByID(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	product.Stock = stock
	return product, nil
}
