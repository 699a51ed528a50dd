package handlers

import (
	"net/http"

	"tailtown/internal/common"
	"tailtown/internal/middleware"
	"tailtown/internal/services"

	"github.com/labstack/echo/v4"
)

// TenantHandlers handles tenant-related HTTP requests. The /admin routes manage every
// tenant and sit behind the admin API key; the rest act on the resolved tenant.
type TenantHandlers struct {
	tenantService services.TenantService
}

// NewTenantHandlers creates a new tenant handlers instance
func NewTenantHandlers(tenantService services.TenantService) *TenantHandlers {
	return &TenantHandlers{tenantService: tenantService}
}

// ListTenants handles GET /admin/tenants
func (h *TenantHandlers) ListTenants(c echo.Context) error {
	limit, offset, err := common.PaginationFromQuery(c)
	if err != nil {
		return err
	}
	tenants, total, err := h.tenantService.List(c.Request().Context(), limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, common.NewListResponse(tenants, limit, offset, total))
}

// CreateTenant handles POST /admin/tenants
func (h *TenantHandlers) CreateTenant(c echo.Context) error {
	var req services.CreateTenantRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	tenant, err := h.tenantService.Create(c.Request().Context(), &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, tenant)
}

// GetTenant handles GET /admin/tenants/:id
func (h *TenantHandlers) GetTenant(c echo.Context) error {
	id, err := common.ParamUUID(c, "id")
	if err != nil {
		return err
	}
	tenant, err := h.tenantService.GetByID(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tenant)
}

// UpdateTenant handles PUT /admin/tenants/:id
func (h *TenantHandlers) UpdateTenant(c echo.Context) error {
	id, err := common.ParamUUID(c, "id")
	if err != nil {
		return err
	}
	var req services.UpdateTenantRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	tenant, err := h.tenantService.Update(c.Request().Context(), id, &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tenant)
}

// DeleteTenant handles DELETE /admin/tenants/:id
func (h *TenantHandlers) DeleteTenant(c echo.Context) error {
	id, err := common.ParamUUID(c, "id")
	if err != nil {
		return err
	}
	if err := h.tenantService.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// GetCurrentTenant handles GET /api/tenant
func (h *TenantHandlers) GetCurrentTenant(c echo.Context) error {
	tenant, ok := middleware.TenantFrom(c)
	if !ok {
		return common.ErrMissingTenantScope
	}
	return c.JSON(http.StatusOK, tenant)
}

// GetSettings handles GET /api/tenant/settings
func (h *TenantHandlers) GetSettings(c echo.Context) error {
	scope, err := requestScope(c)
	if err != nil {
		return err
	}
	settings, err := h.tenantService.GetSettings(c.Request().Context(), scope)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, settings)
}

// UpdateSettings handles PUT /api/tenant/settings
// @Summary Update tenant booking settings
// @Description Deposit default, refund policy, pricing match mode, tax rate and turnover buffer
// @Tags tenant
// @Accept json
// @Produce json
// @Param settings body services.UpdateTenantSettingsRequest true "Settings"
// @Success 200 {object} models.TenantSettings
// @Failure 400 {object} common.ErrorResponse
// @Security BearerAuth
// @Router /tenant/settings [put]
func (h *TenantHandlers) UpdateSettings(c echo.Context) error {
	scope, err := requestScope(c)
	if err != nil {
		return err
	}
	var req services.UpdateTenantSettingsRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	settings, err := h.tenantService.UpdateSettings(c.Request().Context(), scope, &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, settings)
}
