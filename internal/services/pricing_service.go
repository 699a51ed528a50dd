package services

import (
	"context"
	"strings"
	"time"

	"tailtown/internal/common"
	"tailtown/internal/metrics"
	"tailtown/internal/models"
	"tailtown/internal/pricing"
	"tailtown/internal/repositories"
	"tailtown/internal/tenancy"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PricingService manages tenant pricing and deposit rules and quotes reservations against them.
type PricingService interface {
	CreateDepositRule(ctx context.Context, scope tenancy.Scope, rule *models.DepositRule) error
	GetDepositRule(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (*models.DepositRule, error)
	UpdateDepositRule(ctx context.Context, scope tenancy.Scope, rule *models.DepositRule) error
	DeleteDepositRule(ctx context.Context, scope tenancy.Scope, id uuid.UUID) error
	ListDepositRules(ctx context.Context, scope tenancy.Scope) ([]*models.DepositRule, error)

	CreatePricingRule(ctx context.Context, scope tenancy.Scope, rule *models.PricingRule) error
	GetPricingRule(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (*models.PricingRule, error)
	UpdatePricingRule(ctx context.Context, scope tenancy.Scope, rule *models.PricingRule) error
	DeletePricingRule(ctx context.Context, scope tenancy.Scope, id uuid.UUID) error
	ListPricingRules(ctx context.Context, scope tenancy.Scope) ([]*models.PricingRule, error)

	// ValidateRules reports every stored rule that cannot be evaluated.
	ValidateRules(ctx context.Context, scope tenancy.Scope) ([]pricing.RuleConfigError, error)

	Quote(ctx context.Context, scope tenancy.Scope, req *QuoteRequest) (*Quote, error)
	EvaluateDeposit(ctx context.Context, scope tenancy.Scope, d pricing.Draft) (*pricing.DepositQuote, error)
}

type QuoteRequest struct {
	ServiceID  uuid.UUID        `json:"service_id" validate:"required"`
	ResourceID *uuid.UUID       `json:"resource_id,omitempty"`
	CustomerID *uuid.UUID       `json:"customer_id,omitempty"`
	StartDate  time.Time        `json:"start_date" validate:"required"`
	EndDate    time.Time        `json:"end_date" validate:"required"`
	BookedAt   *time.Time       `json:"booked_at,omitempty"`
	TotalCost  *decimal.Decimal `json:"total_cost,omitempty"`
}

// Quote is a priced stay plus the deposit it would require.
type Quote struct {
	Price   pricing.PriceQuote   `json:"price"`
	Deposit pricing.DepositQuote `json:"deposit"`
}

type pricingService struct {
	ruleRepo        repositories.RuleRepository
	tenantRepo      repositories.TenantRepository
	serviceRepo     repositories.ServiceRepository
	resourceRepo    repositories.ResourceRepository
	reservationRepo repositories.ReservationRepository
	now             func() time.Time
	log             *zap.Logger
}

func NewPricingService(
	ruleRepo repositories.RuleRepository,
	tenantRepo repositories.TenantRepository,
	serviceRepo repositories.ServiceRepository,
	resourceRepo repositories.ResourceRepository,
	reservationRepo repositories.ReservationRepository,
	log *zap.Logger,
) PricingService {
	return &pricingService{
		ruleRepo:        ruleRepo,
		tenantRepo:      tenantRepo,
		serviceRepo:     serviceRepo,
		resourceRepo:    resourceRepo,
		reservationRepo: reservationRepo,
		now:             time.Now,
		log:             log,
	}
}

func validateRuleHeader(name string, priority int, cond models.RuleCondition) error {
	if strings.TrimSpace(name) == "" {
		return common.NewValidationError("name", "is required")
	}
	if priority < 0 {
		return common.NewValidationError("priority", "cannot be negative")
	}
	if _, err := pricing.Decode(cond); err != nil {
		return common.NewValidationError("condition", err.Error())
	}
	return nil
}

func validateDepositRule(rule *models.DepositRule) error {
	if err := validateRuleHeader(rule.Name, rule.Priority, rule.Condition); err != nil {
		return err
	}
	rule.DepositType = strings.ToUpper(rule.DepositType)
	rule.RefundPolicy.Type = strings.ToUpper(rule.RefundPolicy.Type)
	if err := pricing.ValidateDepositEffect(rule.DepositType, rule.DepositValue, rule.RefundPolicy); err != nil {
		return common.NewValidationError("deposit_type", err.Error())
	}
	return nil
}

func validatePricingRule(rule *models.PricingRule) error {
	if err := validateRuleHeader(rule.Name, rule.Priority, rule.Condition); err != nil {
		return err
	}
	rule.AdjustmentType = strings.ToUpper(rule.AdjustmentType)
	if err := pricing.ValidateAdjustment(rule.AdjustmentType, rule.AdjustmentValue); err != nil {
		return common.NewValidationError("adjustment_type", err.Error())
	}
	return nil
}

func (s *pricingService) CreateDepositRule(ctx context.Context, scope tenancy.Scope, rule *models.DepositRule) error {
	if err := validateDepositRule(rule); err != nil {
		return err
	}
	rule.ID = uuid.New()
	return s.ruleRepo.CreateDepositRule(ctx, scope, rule)
}

func (s *pricingService) GetDepositRule(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (*models.DepositRule, error) {
	return s.ruleRepo.GetDepositRule(ctx, scope, id)
}

func (s *pricingService) UpdateDepositRule(ctx context.Context, scope tenancy.Scope, rule *models.DepositRule) error {
	if err := validateDepositRule(rule); err != nil {
		return err
	}
	return s.ruleRepo.UpdateDepositRule(ctx, scope, rule)
}

func (s *pricingService) DeleteDepositRule(ctx context.Context, scope tenancy.Scope, id uuid.UUID) error {
	return s.ruleRepo.DeleteDepositRule(ctx, scope, id)
}

func (s *pricingService) ListDepositRules(ctx context.Context, scope tenancy.Scope) ([]*models.DepositRule, error) {
	return s.ruleRepo.ListDepositRules(ctx, scope, false)
}

func (s *pricingService) CreatePricingRule(ctx context.Context, scope tenancy.Scope, rule *models.PricingRule) error {
	if err := validatePricingRule(rule); err != nil {
		return err
	}
	rule.ID = uuid.New()
	return s.ruleRepo.CreatePricingRule(ctx, scope, rule)
}

func (s *pricingService) GetPricingRule(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (*models.PricingRule, error) {
	return s.ruleRepo.GetPricingRule(ctx, scope, id)
}

func (s *pricingService) UpdatePricingRule(ctx context.Context, scope tenancy.Scope, rule *models.PricingRule) error {
	if err := validatePricingRule(rule); err != nil {
		return err
	}
	return s.ruleRepo.UpdatePricingRule(ctx, scope, rule)
}

func (s *pricingService) DeletePricingRule(ctx context.Context, scope tenancy.Scope, id uuid.UUID) error {
	return s.ruleRepo.DeletePricingRule(ctx, scope, id)
}

func (s *pricingService) ListPricingRules(ctx context.Context, scope tenancy.Scope) ([]*models.PricingRule, error) {
	return s.ruleRepo.ListPricingRules(ctx, scope, false)
}

func (s *pricingService) ValidateRules(ctx context.Context, scope tenancy.Scope) ([]pricing.RuleConfigError, error) {
	deposits, err := s.ruleRepo.ListDepositRules(ctx, scope, false)
	if err != nil {
		return nil, err
	}
	prices, err := s.ruleRepo.ListPricingRules(ctx, scope, false)
	if err != nil {
		return nil, err
	}

	problems := []pricing.RuleConfigError{}
	for _, r := range deposits {
		if _, err := pricing.Decode(r.Condition); err != nil {
			problems = append(problems, pricing.RuleConfigError{RuleID: r.ID, RuleName: r.Name, Message: err.Error()})
			continue
		}
		if err := pricing.ValidateDepositEffect(r.DepositType, r.DepositValue, r.RefundPolicy); err != nil {
			problems = append(problems, pricing.RuleConfigError{RuleID: r.ID, RuleName: r.Name, Message: err.Error()})
		}
	}
	for _, r := range prices {
		if _, err := pricing.Decode(r.Condition); err != nil {
			problems = append(problems, pricing.RuleConfigError{RuleID: r.ID, RuleName: r.Name, Message: err.Error()})
			continue
		}
		if err := pricing.ValidateAdjustment(r.AdjustmentType, r.AdjustmentValue); err != nil {
			problems = append(problems, pricing.RuleConfigError{RuleID: r.ID, RuleName: r.Name, Message: err.Error()})
		}
	}
	return problems, nil
}

// EvaluateDeposit applies the tenant's active deposit rules to d.
func (s *pricingService) EvaluateDeposit(ctx context.Context, scope tenancy.Scope, d pricing.Draft) (*pricing.DepositQuote, error) {
	rules, err := s.ruleRepo.ListDepositRules(ctx, scope, true)
	if err != nil {
		return nil, err
	}
	settings, err := s.tenantRepo.GetSettings(ctx, scope)
	if err != nil {
		return nil, err
	}
	quote := pricing.EvaluateDeposit(derefRules(rules), settings, d)
	s.logConfigErrors("deposit", quote.ConfigErrors)
	return &quote, nil
}

func (s *pricingService) Quote(ctx context.Context, scope tenancy.Scope, req *QuoteRequest) (*Quote, error) {
	if err := validateWindow(req.StartDate, req.EndDate); err != nil {
		return nil, err
	}
	service, err := s.serviceRepo.GetByID(ctx, scope, req.ServiceID)
	if err != nil {
		return nil, err
	}

	d := pricing.Draft{
		ServiceCategory: service.Category,
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		BookedAt:        s.now(),
	}
	if req.BookedAt != nil {
		d.BookedAt = *req.BookedAt
	}
	if req.ResourceID != nil {
		resource, err := s.resourceRepo.GetByID(ctx, scope, *req.ResourceID)
		if err != nil {
			return nil, err
		}
		d.ResourceType = resource.Type
	}
	if req.CustomerID != nil {
		d.CustomerID = *req.CustomerID
		// Only bookings made before this one count, so repricing an existing stay
		// does not see the stay itself.
		count, err := s.reservationRepo.CountForCustomer(ctx, scope, *req.CustomerID, d.BookedAt)
		if err != nil {
			return nil, err
		}
		d.FirstTimeCustomer = count == 0
	}

	settings, err := s.tenantRepo.GetSettings(ctx, scope)
	if err != nil {
		return nil, err
	}
	rules, err := s.ruleRepo.ListPricingRules(ctx, scope, true)
	if err != nil {
		return nil, err
	}
	price := pricing.QuotePrice(derefRules(rules), settings.PricingMatchMode, service, d)
	s.logConfigErrors("pricing", price.ConfigErrors)

	d.TotalCost = price.Total
	if req.TotalCost != nil {
		d.TotalCost = *req.TotalCost
	}
	deposit, err := s.EvaluateDeposit(ctx, scope, d)
	if err != nil {
		return nil, err
	}
	return &Quote{Price: price, Deposit: *deposit}, nil
}

func (s *pricingService) logConfigErrors(ruleType string, errs []pricing.RuleConfigError) {
	for _, e := range errs {
		metrics.RuleConfigErrors.WithLabelValues(ruleType).Inc()
		s.log.Warn("skipping misconfigured rule",
			zap.String("rule_type", ruleType),
			zap.String("rule_id", e.RuleID.String()),
			zap.String("rule_name", e.RuleName),
			zap.String("reason", e.Message),
		)
	}
}
