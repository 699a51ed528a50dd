package handlers

import (
	"net/http"
	"strings"

	"tailtown/internal/common"
	"tailtown/internal/models"
	"tailtown/internal/services"

	"github.com/labstack/echo/v4"
)

// ServiceHandlers handles the catalog of bookable services
type ServiceHandlers struct {
	catalogService services.CatalogService
}

func NewServiceHandlers(catalogService services.CatalogService) *ServiceHandlers {
	return &ServiceHandlers{catalogService: catalogService}
}

// ListServices handles GET /api/services?category=
func (h *ServiceHandlers) ListServices(c echo.Context) error {
	scope, err := requestScope(c)
	if err != nil {
		return err
	}
	limit, offset, err := common.PaginationFromQuery(c)
	if err != nil {
		return err
	}

	category := strings.ToUpper(strings.TrimSpace(c.QueryParam("category")))
	items, total, err := h.catalogService.List(c.Request().Context(), scope, category, limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, common.NewListResponse(items, limit, offset, total))
}

// GetService handles GET /api/services/:id
func (h *ServiceHandlers) GetService(c echo.Context) error {
	scope, id, err := scopeAndID(c)
	if err != nil {
		return err
	}
	svc, err := h.catalogService.GetByID(c.Request().Context(), scope, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, svc)
}

// CreateService handles POST /api/services
func (h *ServiceHandlers) CreateService(c echo.Context) error {
	scope, err := requestScope(c)
	if err != nil {
		return err
	}
	var svc models.Service
	if err := bind(c, &svc); err != nil {
		return err
	}
	if err := h.catalogService.Create(c.Request().Context(), scope, &svc); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, svc)
}

// UpdateService handles PUT /api/services/:id
func (h *ServiceHandlers) UpdateService(c echo.Context) error {
	scope, id, err := scopeAndID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	svc, err := h.catalogService.GetByID(ctx, scope, id)
	if err != nil {
		return err
	}
	if err := bind(c, svc); err != nil {
		return err
	}
	svc.ID = id
	svc.TenantID = scope.TenantID()

	if err := h.catalogService.Update(ctx, scope, svc); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, svc)
}

// DeleteService handles DELETE /api/services/:id
func (h *ServiceHandlers) DeleteService(c echo.Context) error {
	scope, id, err := scopeAndID(c)
	if err != nil {
		return err
	}
	if err := h.catalogService.Deactivate(c.Request().Context(), scope, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
