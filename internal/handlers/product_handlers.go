package handlers

import (
	"net/http"

	"tailtown/internal/common"
	"tailtown/internal/models"
	"tailtown/internal/services"

	"github.com/labstack/echo/v4"
)

// ProductHandlers handles retail product requests
type ProductHandlers struct {
	productService services.ProductService
}

// NewProductHandlers creates a new product handlers instance
func NewProductHandlers(productService services.ProductService) *ProductHandlers {
	return &ProductHandlers{productService: productService}
}

// StockAdjustmentRequest moves stock by a signed amount.
type StockAdjustmentRequest struct {
	Change int `json:"change" validate:"required,ne=0"`
}

// ListProducts handles GET /api/products
// @Summary List products
// @Tags products
// @Produce json
// @Param search query string false "Name or SKU"
// @Param limit query int false "Page size" default(50)
// @Param offset query int false "Offset"
// @Success 200 {object} common.ListResponse
// @Security BearerAuth
// @Router /products [get]
func (h *ProductHandlers) ListProducts(c echo.Context) error {
	scope, err := requestScope(c)
	if err != nil {
		return err
	}
	limit, offset, err := common.PaginationFromQuery(c)
	if err != nil {
		return err
	}

	search := common.SanitizeSearchQuery(c.QueryParam("search"))
	products, total, err := h.productService.List(c.Request().Context(), scope, search, limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, common.NewListResponse(products, limit, offset, total))
}

// GetProduct handles GET /api/products/:id
func (h *ProductHandlers) GetProduct(c echo.Context) error {
	scope, id, err := scopeAndID(c)
	if err != nil {
		return err
	}
	product, err := h.productService.GetByID(c.Request().Context(), scope, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, product)
}

// CreateProduct handles POST /api/products
func (h *ProductHandlers) CreateProduct(c echo.Context) error {
	scope, err := requestScope(c)
	if err != nil {
		return err
	}
	var product models.Product
	if err := bind(c, &product); err != nil {
		return err
	}
	if err := h.productService.Create(c.Request().Context(), scope, &product); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, product)
}

// UpdateProduct handles PUT /api/products/:id
func (h *ProductHandlers) UpdateProduct(c echo.Context) error {
	scope, id, err := scopeAndID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	product, err := h.productService.GetByID(ctx, scope, id)
	if err != nil {
		return err
	}
	if err := bind(c, product); err != nil {
		return err
	}
	product.ID = id
	product.TenantID = scope.TenantID()

	if err := h.productService.Update(ctx, scope, product); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, product)
}

// DeleteProduct handles DELETE /api/products/:id
func (h *ProductHandlers) DeleteProduct(c echo.Context) error {
	scope, id, err := scopeAndID(c)
	if err != nil {
		return err
	}
	if err := h.productService.Deactivate(c.Request().Context(), scope, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// AdjustStock handles POST /api/products/:id/stock
// @Summary Adjust stock on hand
// @Tags products
// @Accept json
// @Produce json
// @Param id path string true "Product ID"
// @Param adjustment body StockAdjustmentRequest true "Signed change"
// @Success 200 {object} models.Product
// @Failure 409 {object} common.ErrorResponse "Not enough stock"
// @Security BearerAuth
// @Router /products/{id}/stock [post]
func (h *ProductHandlers) AdjustStock(c echo.Context) error {
	scope, id, err := scopeAndID(c)
	if err != nil {
		return err
	}
	var req StockAdjustmentRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	product, err := h.productService.UpdateStock(c.Request().Context(), scope, id, req.Change)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, product)
}
