package handlers

import (
	"net/http"

	"tailtown/internal/common"
	"tailtown/internal/services"

	"github.com/labstack/echo/v4"
)

// StaffHandlers handles staff account management
type StaffHandlers struct {
	staffService services.StaffService
}

// NewStaffHandlers creates a new staff handlers instance
func NewStaffHandlers(staffService services.StaffService) *StaffHandlers {
	return &StaffHandlers{staffService: staffService}
}

// ChangePasswordRequest is the body of PUT /api/staff/:id/password
type ChangePasswordRequest struct {
	Password string `json:"password" validate:"required,min=8"`
}

// ListStaff handles GET /api/staff
// @Summary List staff accounts
// @Tags staff
// @Produce json
// @Param limit query int false "Page size" default(50)
// @Param offset query int false "Offset"
// @Success 200 {object} common.ListResponse
// @Security BearerAuth
// @Router /staff [get]
func (h *StaffHandlers) ListStaff(c echo.Context) error {
	scope, err := requestScope(c)
	if err != nil {
		return err
	}
	limit, offset, err := common.PaginationFromQuery(c)
	if err != nil {
		return err
	}

	users, total, err := h.staffService.List(c.Request().Context(), scope, limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, common.NewListResponse(users, limit, offset, total))
}

// CreateStaff handles POST /api/staff
// @Summary Create a staff account
// @Tags staff
// @Accept json
// @Produce json
// @Param staff body services.CreateStaffRequest true "Staff member"
// @Success 201 {object} models.User
// @Failure 400 {object} common.ErrorResponse
// @Failure 409 {object} common.ErrorResponse "Email already in use"
// @Security BearerAuth
// @Router /staff [post]
func (h *StaffHandlers) CreateStaff(c echo.Context) error {
	scope, err := requestScope(c)
	if err != nil {
		return err
	}
	var req services.CreateStaffRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	user, err := h.staffService.Create(c.Request().Context(), scope, &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, user)
}

// GetStaff handles GET /api/staff/:id
func (h *StaffHandlers) GetStaff(c echo.Context) error {
	scope, id, err := scopeAndID(c)
	if err != nil {
		return err
	}
	user, err := h.staffService.GetByID(c.Request().Context(), scope, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// UpdateStaff handles PUT /api/staff/:id
func (h *StaffHandlers) UpdateStaff(c echo.Context) error {
	scope, id, err := scopeAndID(c)
	if err != nil {
		return err
	}
	var req services.UpdateStaffRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	user, err := h.staffService.Update(c.Request().Context(), scope, id, &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// ChangePassword handles PUT /api/staff/:id/password
func (h *StaffHandlers) ChangePassword(c echo.Context) error {
	scope, id, err := scopeAndID(c)
	if err != nil {
		return err
	}
	var req ChangePasswordRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := h.staffService.ChangePassword(c.Request().Context(), scope, id, req.Password); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// DeleteStaff handles DELETE /api/staff/:id
func (h *StaffHandlers) DeleteStaff(c echo.Context) error {
	scope, id, err := scopeAndID(c)
	if err != nil {
		return err
	}
	if err := h.staffService.Deactivate(c.Request().Context(), scope, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
