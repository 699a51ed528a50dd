package handlers

import (
	"net/http"

	"tailtown/internal/common"
	"tailtown/internal/models"
	"tailtown/internal/services"

	"github.com/labstack/echo/v4"
)

// CustomerHandlers handles HTTP requests for pet owners
type CustomerHandlers struct {
	customerService services.CustomerService
}

// NewCustomerHandlers creates a new customer handlers instance
func NewCustomerHandlers(customerService services.CustomerService) *CustomerHandlers {
	return &CustomerHandlers{customerService: customerService}
}

// ListCustomers handles GET /api/customers
// @Summary List customers
// @Tags customers
// @Produce json
// @Param search query string false "Name, email or phone"
// @Param include_inactive query bool false "Include deactivated customers"
// @Param limit query int false "Page size" default(50)
// @Param offset query int false "Offset"
// @Success 200 {object} common.ListResponse
// @Failure 400 {object} common.ErrorResponse
// @Security BearerAuth
// @Router /customers [get]
func (h *CustomerHandlers) ListCustomers(c echo.Context) error {
	scope, err := requestScope(c)
	if err != nil {
		return err
	}
	limit, offset, err := common.PaginationFromQuery(c)
	if err != nil {
		return err
	}

	customers, total, err := h.customerService.List(c.Request().Context(), scope, models.CustomerFilter{
		Search:          common.SanitizeSearchQuery(c.QueryParam("search")),
		IncludeInactive: queryBool(c, "include_inactive"),
		Limit:           limit,
		Offset:          offset,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, common.NewListResponse(customers, limit, offset, total))
}

// GetCustomer handles GET /api/customers/:id
// @Summary Get a customer
// @Tags customers
// @Produce json
// @Param id path string true "Customer ID"
// @Success 200 {object} models.Customer
// @Failure 404 {object} common.ErrorResponse
// @Security BearerAuth
// @Router /customers/{id} [get]
func (h *CustomerHandlers) GetCustomer(c echo.Context) error {
	scope, id, err := scopeAndID(c)
	if err != nil {
		return err
	}
	customer, err := h.customerService.GetByID(c.Request().Context(), scope, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, customer)
}

// CreateCustomer handles POST /api/customers
// @Summary Create a customer
// @Tags customers
// @Accept json
// @Produce json
// @Param customer body models.Customer true "Customer"
// @Success 201 {object} models.Customer
// @Failure 400 {object} common.ErrorResponse
// @Failure 409 {object} common.ErrorResponse
// @Security BearerAuth
// @Router /customers [post]
func (h *CustomerHandlers) CreateCustomer(c echo.Context) error {
	scope, err := requestScope(c)
	if err != nil {
		return err
	}
	var customer models.Customer
	if err := bind(c, &customer); err != nil {
		return err
	}
	if err := h.customerService.Create(c.Request().Context(), scope, &customer); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, customer)
}

// UpdateCustomer handles PUT /api/customers/:id
func (h *CustomerHandlers) UpdateCustomer(c echo.Context) error {
	scope, id, err := scopeAndID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	customer, err := h.customerService.GetByID(ctx, scope, id)
	if err != nil {
		return err
	}
	if err := bind(c, customer); err != nil {
		return err
	}
	customer.ID = id
	customer.TenantID = scope.TenantID()

	if err := h.customerService.Update(ctx, scope, customer); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, customer)
}

// DeleteCustomer handles DELETE /api/customers/:id. Customers are deactivated, not removed.
func (h *CustomerHandlers) DeleteCustomer(c echo.Context) error {
	scope, id, err := scopeAndID(c)
	if err != nil {
		return err
	}
	if err := h.customerService.Deactivate(c.Request().Context(), scope, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
