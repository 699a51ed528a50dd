package handlers

import (
	"net/http"
	"time"

	"tailtown/internal/models"
	"tailtown/internal/pricing"
	"tailtown/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// PricingHandlers handles deposit rules, pricing rules and quotes
type PricingHandlers struct {
	pricingService services.PricingService
}

// NewPricingHandlers creates a new pricing handlers instance
func NewPricingHandlers(pricingService services.PricingService) *PricingHandlers {
	return &PricingHandlers{pricingService: pricingService}
}

// EvaluateDepositRequest describes a prospective booking for deposit evaluation.
type EvaluateDepositRequest struct {
	CustomerID        uuid.UUID       `json:"customer_id"`
	ServiceCategory   string          `json:"service_category"`
	ResourceType      string          `json:"resource_type"`
	StartDate         time.Time       `json:"start_date" validate:"required"`
	EndDate           time.Time       `json:"end_date" validate:"required"`
	BookedAt          *time.Time      `json:"booked_at,omitempty"`
	TotalCost         decimal.Decimal `json:"total_cost"`
	FirstTimeCustomer bool            `json:"first_time_customer"`
}

// ValidateRulesResponse lists rules that cannot be evaluated.
type ValidateRulesResponse struct {
	Valid  bool                      `json:"valid"`
	Errors []pricing.RuleConfigError `json:"errors"`
}

// ListDepositRules handles GET /api/deposit-rules
func (h *PricingHandlers) ListDepositRules(c echo.Context) error {
	scope, err := requestScope(c)
	if err != nil {
		return err
	}
	rules, err := h.pricingService.ListDepositRules(c.Request().Context(), scope)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rules)
}

// GetDepositRule handles GET /api/deposit-rules/:id
func (h *PricingHandlers) GetDepositRule(c echo.Context) error {
	scope, id, err := scopeAndID(c)
	if err != nil {
		return err
	}
	rule, err := h.pricingService.GetDepositRule(c.Request().Context(), scope, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rule)
}

// CreateDepositRule handles POST /api/deposit-rules
// @Summary Create a deposit rule
// @Description Conditions are validated against the known condition types before the rule is stored
// @Tags pricing
// @Accept json
// @Produce json
// @Param rule body models.DepositRule true "Rule"
// @Success 201 {object} models.DepositRule
// @Failure 400 {object} common.ErrorResponse
// @Security BearerAuth
// @Router /deposit-rules [post]
func (h *PricingHandlers) CreateDepositRule(c echo.Context) error {
	scope, err := requestScope(c)
	if err != nil {
		return err
	}
	var rule models.DepositRule
	if err := bind(c, &rule); err != nil {
		return err
	}
	if err := h.pricingService.CreateDepositRule(c.Request().Context(), scope, &rule); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, rule)
}

// UpdateDepositRule handles PUT /api/deposit-rules/:id
func (h *PricingHandlers) UpdateDepositRule(c echo.Context) error {
	scope, id, err := scopeAndID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	rule, err := h.pricingService.GetDepositRule(ctx, scope, id)
	if err != nil {
		return err
	}
	if err := bind(c, rule); err != nil {
		return err
	}
	rule.ID = id
	rule.TenantID = scope.TenantID()

	if err := h.pricingService.UpdateDepositRule(ctx, scope, rule); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rule)
}

// DeleteDepositRule handles DELETE /api/deposit-rules/:id
func (h *PricingHandlers) DeleteDepositRule(c echo.Context) error {
	scope, id, err := scopeAndID(c)
	if err != nil {
		return err
	}
	if err := h.pricingService.DeleteDepositRule(c.Request().Context(), scope, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// EvaluateDeposit handles POST /api/deposit-rules/evaluate
// @Summary Evaluate the deposit for a prospective booking
// @Tags pricing
// @Accept json
// @Produce json
// @Param draft body EvaluateDepositRequest true "Booking draft"
// @Success 200 {object} pricing.DepositQuote
// @Failure 400 {object} common.ErrorResponse
// @Security BearerAuth
// @Router /deposit-rules/evaluate [post]
func (h *PricingHandlers) EvaluateDeposit(c echo.Context) error {
	scope, err := requestScope(c)
	if err != nil {
		return err
	}
	var req EvaluateDepositRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	bookedAt := time.Now().UTC()
	if req.BookedAt != nil {
		bookedAt = *req.BookedAt
	}
	quote, err := h.pricingService.EvaluateDeposit(c.Request().Context(), scope, pricing.Draft{
		CustomerID:        req.CustomerID,
		ServiceCategory:   req.ServiceCategory,
		ResourceType:      req.ResourceType,
		StartDate:         req.StartDate,
		EndDate:           req.EndDate,
		BookedAt:          bookedAt,
		TotalCost:         req.TotalCost,
		FirstTimeCustomer: req.FirstTimeCustomer,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, quote)
}

// ValidateRules handles GET /api/deposit-rules/validate. Pricing rules are checked too.
func (h *PricingHandlers) ValidateRules(c echo.Context) error {
	scope, err := requestScope(c)
	if err != nil {
		return err
	}
	errs, err := h.pricingService.ValidateRules(c.Request().Context(), scope)
	if err != nil {
		return err
	}
	if errs == nil {
		errs = []pricing.RuleConfigError{}
	}
	return c.JSON(http.StatusOK, ValidateRulesResponse{Valid: len(errs) == 0, Errors: errs})
}

// ListPricingRules handles GET /api/pricing-rules
func (h *PricingHandlers) ListPricingRules(c echo.Context) error {
	scope, err := requestScope(c)
	if err != nil {
		return err
	}
	rules, err := h.pricingService.ListPricingRules(c.Request().Context(), scope)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rules)
}

// GetPricingRule handles GET /api/pricing-rules/:id
func (h *PricingHandlers) GetPricingRule(c echo.Context) error {
	scope, id, err := scopeAndID(c)
	if err != nil {
		return err
	}
	rule, err := h.pricingService.GetPricingRule(c.Request().Context(), scope, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rule)
}

// CreatePricingRule handles POST /api/pricing-rules
func (h *PricingHandlers) CreatePricingRule(c echo.Context) error {
	scope, err := requestScope(c)
	if err != nil {
		return err
	}
	var rule models.PricingRule
	if err := bind(c, &rule); err != nil {
		return err
	}
	if err := h.pricingService.CreatePricingRule(c.Request().Context(), scope, &rule); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, rule)
}

// UpdatePricingRule handles PUT /api/pricing-rules/:id
func (h *PricingHandlers) UpdatePricingRule(c echo.Context) error {
	scope, id, err := scopeAndID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	rule, err := h.pricingService.GetPricingRule(ctx, scope, id)
	if err != nil {
		return err
	}
	if err := bind(c, rule); err != nil {
		return err
	}
	rule.ID = id
	rule.TenantID = scope.TenantID()

	if err := h.pricingService.UpdatePricingRule(ctx, scope, rule); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rule)
}

// DeletePricingRule handles DELETE /api/pricing-rules/:id
func (h *PricingHandlers) DeletePricingRule(c echo.Context) error {
	scope, id, err := scopeAndID(c)
	if err != nil {
		return err
	}
	if err := h.pricingService.DeletePricingRule(c.Request().Context(), scope, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// QuoteStay handles POST /api/pricing/quote
// @Summary Price a stay
// @Tags pricing
// @Accept json
// @Produce json
// @Param quote body services.QuoteRequest true "Stay"
// @Success 200 {object} services.Quote
// @Failure 400 {object} common.ErrorResponse
// @Failure 404 {object} common.ErrorResponse
// @Security BearerAuth
// @Router /pricing/quote [post]
func (h *PricingHandlers) QuoteStay(c echo.Context) error {
	scope, err := requestScope(c)
	if err != nil {
		return err
	}
	var req services.QuoteRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	quote, err := h.pricingService.Quote(c.Request().Context(), scope, &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, quote)
}
