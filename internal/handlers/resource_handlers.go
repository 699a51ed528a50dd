package handlers

import (
	"net/http"
	"strings"

	"tailtown/internal/common"
	"tailtown/internal/models"
	"tailtown/internal/services"

	"github.com/labstack/echo/v4"
)

// ResourceHandlers handles bookable resources (suites, runs, grooming tables)
type ResourceHandlers struct {
	resourceService services.ResourceService
}

// NewResourceHandlers creates a new resource handlers instance
func NewResourceHandlers(resourceService services.ResourceService) *ResourceHandlers {
	return &ResourceHandlers{resourceService: resourceService}
}

// ListResources handles GET /api/resources
// @Summary List resources
// @Tags resources
// @Produce json
// @Param type query string false "Resource type"
// @Param include_inactive query bool false "Include retired resources"
// @Param limit query int false "Page size" default(50)
// @Param offset query int false "Offset"
// @Success 200 {object} common.ListResponse
// @Security BearerAuth
// @Router /resources [get]
func (h *ResourceHandlers) ListResources(c echo.Context) error {
	scope, err := requestScope(c)
	if err != nil {
		return err
	}
	limit, offset, err := common.PaginationFromQuery(c)
	if err != nil {
		return err
	}

	resourceType := strings.ToUpper(strings.TrimSpace(c.QueryParam("type")))
	resources, total, err := h.resourceService.List(c.Request().Context(), scope, resourceType, queryBool(c, "include_inactive"), limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, common.NewListResponse(resources, limit, offset, total))
}

// GetResource handles GET /api/resources/:id
func (h *ResourceHandlers) GetResource(c echo.Context) error {
	scope, id, err := scopeAndID(c)
	if err != nil {
		return err
	}
	resource, err := h.resourceService.GetByID(c.Request().Context(), scope, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resource)
}

// CreateResource handles POST /api/resources
func (h *ResourceHandlers) CreateResource(c echo.Context) error {
	scope, err := requestScope(c)
	if err != nil {
		return err
	}
	var resource models.Resource
	if err := bind(c, &resource); err != nil {
		return err
	}
	if err := h.resourceService.Create(c.Request().Context(), scope, &resource); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, resource)
}

// UpdateResource handles PUT /api/resources/:id
func (h *ResourceHandlers) UpdateResource(c echo.Context) error {
	scope, id, err := scopeAndID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	resource, err := h.resourceService.GetByID(ctx, scope, id)
	if err != nil {
		return err
	}
	if err := bind(c, resource); err != nil {
		return err
	}
	resource.ID = id
	resource.TenantID = scope.TenantID()

	if err := h.resourceService.Update(ctx, scope, resource); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resource)
}

// DeleteResource handles DELETE /api/resources/:id
func (h *ResourceHandlers) DeleteResource(c echo.Context) error {
	scope, id, err := scopeAndID(c)
	if err != nil {
		return err
	}
	if err := h.resourceService.Deactivate(c.Request().Context(), scope, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
