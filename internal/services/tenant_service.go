package services

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"tailtown/internal/caching"
	"tailtown/internal/common"
	"tailtown/internal/models"
	"tailtown/internal/pricing"
	"tailtown/internal/repositories"
	"tailtown/internal/tenancy"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var subdomainPattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?$`)

var reservedSubdomains = map[string]bool{"www": true, "api": true, "admin": true, "app": true}

type TenantService interface {
	Create(ctx context.Context, req *CreateTenantRequest) (*models.Tenant, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
	Update(ctx context.Context, id uuid.UUID, req *UpdateTenantRequest) (*models.Tenant, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*models.Tenant, int, error)

	// Resolve maps a subdomain or tenant id to a tenant that may serve requests.
	Resolve(ctx context.Context, key string) (*models.Tenant, error)
	WarmCache(ctx context.Context) (int, error)

	GetSettings(ctx context.Context, scope tenancy.Scope) (*models.TenantSettings, error)
	UpdateSettings(ctx context.Context, scope tenancy.Scope, req *UpdateTenantSettingsRequest) (*models.TenantSettings, error)
}

type tenantService struct {
	tenantRepo repositories.TenantRepository
	cache      caching.CacheService
	cacheTTL   time.Duration
	log        *zap.Logger
}

func NewTenantService(tenantRepo repositories.TenantRepository, cache caching.CacheService, cacheTTL time.Duration, log *zap.Logger) TenantService {
	return &tenantService{tenantRepo: tenantRepo, cache: cache, cacheTTL: cacheTTL, log: log}
}

type CreateTenantRequest struct {
	Name         string  `json:"name" validate:"required,max=200"`
	Subdomain    string  `json:"subdomain" validate:"required,max=63"`
	ContactEmail *string `json:"contact_email" validate:"omitempty,email"`
	Timezone     string  `json:"timezone"`
}

type UpdateTenantRequest struct {
	Name         string  `json:"name" validate:"required,max=200"`
	Status       string  `json:"status" validate:"required,oneof=trial active suspended deleted"`
	ContactEmail *string `json:"contact_email" validate:"omitempty,email"`
	Timezone     string  `json:"timezone"`
}

type UpdateTenantSettingsRequest struct {
	DefaultDepositType    string              `json:"default_deposit_type" validate:"required,oneof=PERCENTAGE FIXED FULL NONE"`
	DefaultDepositValue   decimal.Decimal     `json:"default_deposit_value"`
	DefaultRefundPolicy   models.RefundPolicy `json:"default_refund_policy"`
	PricingMatchMode      string              `json:"pricing_match_mode" validate:"required,oneof=FIRST_MATCH CUMULATIVE"`
	TaxRate               decimal.Decimal     `json:"tax_rate"`
	TurnoverBufferMinutes int                 `json:"turnover_buffer_minutes" validate:"gte=0,lte=1440"`
}

func validateSubdomain(subdomain string) error {
	if !subdomainPattern.MatchString(subdomain) {
		return common.NewValidationError("subdomain", "must be lowercase letters, digits and hyphens")
	}
	if reservedSubdomains[subdomain] {
		return common.NewValidationError("subdomain", "is reserved")
	}
	return nil
}

func loadLocation(tz string) (string, error) {
	if tz == "" {
		return "UTC", nil
	}
	if _, err := time.LoadLocation(tz); err != nil {
		return "", common.NewValidationError("timezone", "unknown time zone")
	}
	return tz, nil
}

func (s *tenantService) Create(ctx context.Context, req *CreateTenantRequest) (*models.Tenant, error) {
	subdomain := strings.ToLower(strings.TrimSpace(req.Subdomain))
	if err := validateSubdomain(subdomain); err != nil {
		return nil, err
	}
	tz, err := loadLocation(req.Timezone)
	if err != nil {
		return nil, err
	}

	tenant := &models.Tenant{
		ID:           uuid.New(),
		Name:         strings.TrimSpace(req.Name),
		Subdomain:    subdomain,
		Status:       models.TenantStatusTrial,
		ContactEmail: req.ContactEmail,
		Timezone:     tz,
	}
	if err := s.tenantRepo.Create(ctx, tenant); err != nil {
		return nil, err
	}

	s.log.Info("tenant created", zap.String("tenant_id", tenant.ID.String()), zap.String("subdomain", tenant.Subdomain))
	return tenant, nil
}

func (s *tenantService) GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	return s.tenantRepo.GetByID(ctx, id)
}

func (s *tenantService) Update(ctx context.Context, id uuid.UUID, req *UpdateTenantRequest) (*models.Tenant, error) {
	tenant, err := s.tenantRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	tz, err := loadLocation(req.Timezone)
	if err != nil {
		return nil, err
	}

	tenant.Name = strings.TrimSpace(req.Name)
	tenant.Status = req.Status
	tenant.ContactEmail = req.ContactEmail
	tenant.Timezone = tz
	if err := s.tenantRepo.Update(ctx, tenant); err != nil {
		return nil, err
	}

	// status changes must take effect before the cache TTL runs out
	s.evict(ctx, tenant)
	return tenant, nil
}

func (s *tenantService) Delete(ctx context.Context, id uuid.UUID) error {
	tenant, err := s.tenantRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.tenantRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.evict(ctx, tenant)
	if err := s.cache.InvalidateTenantCache(ctx, id); err != nil {
		s.log.Warn("failed to invalidate tenant cache", zap.String("tenant_id", id.String()), zap.Error(err))
	}
	return nil
}

func (s *tenantService) List(ctx context.Context, limit, offset int) ([]*models.Tenant, int, error) {
	return s.tenantRepo.List(ctx, limit, offset)
}

// Resolve looks the key up exactly, first as a tenant id and otherwise as a subdomain.
// There is no fallback tenant: an empty or unknown key is an error.
func (s *tenantService) Resolve(ctx context.Context, key string) (*models.Tenant, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, &common.TenantError{Kind: common.TenantRequired}
	}

	tenant, err := s.lookup(ctx, key)
	if errors.Is(err, common.ErrTenantNotFound) {
		return nil, &common.TenantError{Kind: common.TenantNotFound, Key: key}
	}
	if err != nil {
		return nil, err
	}

	if !tenant.CanServeRequests() {
		return nil, &common.TenantError{Kind: common.TenantInactive, Key: key}
	}
	return tenant, nil
}

func (s *tenantService) lookup(ctx context.Context, key string) (*models.Tenant, error) {
	id, parseErr := uuid.Parse(key)
	isID := parseErr == nil

	var cached *models.Tenant
	var cacheErr error
	if isID {
		cached, cacheErr = s.cache.GetTenantByID(ctx, id)
	} else {
		cached, cacheErr = s.cache.GetTenantBySubdomain(ctx, key)
	}
	if cacheErr != nil {
		s.log.Warn("tenant cache read failed", zap.String("key", key), zap.Error(cacheErr))
	}
	if cached != nil {
		return cached, nil
	}

	var tenant *models.Tenant
	var err error
	if isID {
		tenant, err = s.tenantRepo.GetByID(ctx, id)
	} else {
		tenant, err = s.tenantRepo.GetBySubdomain(ctx, key)
	}
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetTenant(ctx, tenant, s.cacheTTL); err != nil {
		s.log.Warn("tenant cache write failed", zap.String("key", key), zap.Error(err))
	}
	return tenant, nil
}

func (s *tenantService) evict(ctx context.Context, tenant *models.Tenant) {
	if err := s.cache.DeleteTenant(ctx, tenant); err != nil {
		s.log.Warn("tenant cache eviction failed", zap.String("tenant_id", tenant.ID.String()), zap.Error(err))
	}
}

// WarmCache loads every serving tenant into the cache and returns how many were stored.
func (s *tenantService) WarmCache(ctx context.Context) (int, error) {
	tenants, err := s.tenantRepo.ListServing(ctx)
	if err != nil {
		return 0, err
	}
	warmed := 0
	for _, t := range tenants {
		if err := s.cache.SetTenant(ctx, t, s.cacheTTL); err != nil {
			s.log.Warn("tenant cache warm failed", zap.String("tenant_id", t.ID.String()), zap.Error(err))
			continue
		}
		warmed++
	}
	return warmed, nil
}

func (s *tenantService) GetSettings(ctx context.Context, scope tenancy.Scope) (*models.TenantSettings, error) {
	return s.tenantRepo.GetSettings(ctx, scope)
}

func (s *tenantService) UpdateSettings(ctx context.Context, scope tenancy.Scope, req *UpdateTenantSettingsRequest) (*models.TenantSettings, error) {
	tenantID, err := scope.Require()
	if err != nil {
		return nil, err
	}
	if req.DefaultRefundPolicy.Type == "" {
		req.DefaultRefundPolicy.Type = models.RefundTypeFull
	}
	if err := pricing.ValidateDepositEffect(req.DefaultDepositType, req.DefaultDepositValue, req.DefaultRefundPolicy); err != nil {
		return nil, common.NewValidationError("default_deposit_type", err.Error())
	}
	if req.TaxRate.IsNegative() || req.TaxRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return nil, common.NewValidationError("tax_rate", "must be a fraction between 0 and 1")
	}

	settings := &models.TenantSettings{
		TenantID:              tenantID,
		DefaultDepositType:    req.DefaultDepositType,
		DefaultDepositValue:   req.DefaultDepositValue,
		DefaultRefundPolicy:   req.DefaultRefundPolicy,
		PricingMatchMode:      req.PricingMatchMode,
		TaxRate:               req.TaxRate,
		TurnoverBufferMinutes: req.TurnoverBufferMinutes,
	}
	if err := s.tenantRepo.UpsertSettings(ctx, scope, settings); err != nil {
		return nil, err
	}
	settings.UpdatedAt = time.Now().UTC()
	return settings, nil
}
