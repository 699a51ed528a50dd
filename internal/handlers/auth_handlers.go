package handlers

import (
	"net/http"

	"tailtown/internal/common"
	"tailtown/internal/models"
	"tailtown/internal/services"

	"github.com/labstack/echo/v4"
)

// AuthHandlers handles authentication-related HTTP requests
type AuthHandlers struct {
	authService  services.AuthService
	staffService services.StaffService
}

// NewAuthHandlers creates a new auth handlers instance
func NewAuthHandlers(authService services.AuthService, staffService services.StaffService) *AuthHandlers {
	return &AuthHandlers{
		authService:  authService,
		staffService: staffService,
	}
}

// Login handles POST /api/auth/login. Credentials are checked against the resolved tenant only.
// @Summary Log in
// @Tags auth
// @Accept json
// @Produce json
// @Param X-Tenant-ID header string false "Tenant subdomain or id"
// @Param credentials body services.LoginRequest true "Credentials"
// @Success 200 {object} models.TokenResponse
// @Failure 400 {object} common.ErrorResponse
// @Failure 401 {object} common.ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandlers) Login(c echo.Context) error {
	scope, err := requestScope(c)
	if err != nil {
		return err
	}
	var req services.LoginRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	tokens, err := h.authService.Login(c.Request().Context(), scope, &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tokens)
}

// Refresh handles POST /api/auth/refresh
func (h *AuthHandlers) Refresh(c echo.Context) error {
	scope, err := requestScope(c)
	if err != nil {
		return err
	}
	var req models.RefreshTokenRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	tokens, err := h.authService.Refresh(c.Request().Context(), scope, req.RefreshToken)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tokens)
}

// Logout handles POST /api/auth/logout by revoking the refresh token
func (h *AuthHandlers) Logout(c echo.Context) error {
	var req models.RefreshTokenRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := h.authService.Logout(c.Request().Context(), req.RefreshToken); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Me handles GET /api/auth/me
func (h *AuthHandlers) Me(c echo.Context) error {
	scope, err := requestScope(c)
	if err != nil {
		return err
	}
	userID, ok := common.GetUserIDFromContext(c.Request().Context())
	if !ok {
		return &common.AuthenticationError{Message: "user not authenticated"}
	}

	user, err := h.staffService.GetByID(c.Request().Context(), scope, userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}
