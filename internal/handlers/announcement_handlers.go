package handlers

import (
	"net/http"

	"tailtown/internal/common"
	"tailtown/internal/models"
	"tailtown/internal/services"

	"github.com/labstack/echo/v4"
)

// AnnouncementHandlers handles staff announcements
type AnnouncementHandlers struct {
	announcementService services.AnnouncementService
}

func NewAnnouncementHandlers(announcementService services.AnnouncementService) *AnnouncementHandlers {
	return &AnnouncementHandlers{announcementService: announcementService}
}

// ListAnnouncements handles GET /api/announcements
func (h *AnnouncementHandlers) ListAnnouncements(c echo.Context) error {
	scope, err := requestScope(c)
	if err != nil {
		return err
	}
	limit, offset, err := common.PaginationFromQuery(c)
	if err != nil {
		return err
	}

	items, total, err := h.announcementService.List(c.Request().Context(), scope, limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, common.NewListResponse(items, limit, offset, total))
}

// ListActiveAnnouncements handles GET /api/announcements/active
func (h *AnnouncementHandlers) ListActiveAnnouncements(c echo.Context) error {
	scope, err := requestScope(c)
	if err != nil {
		return err
	}
	items, err := h.announcementService.ListActive(c.Request().Context(), scope)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

// GetAnnouncement handles GET /api/announcements/:id
func (h *AnnouncementHandlers) GetAnnouncement(c echo.Context) error {
	scope, id, err := scopeAndID(c)
	if err != nil {
		return err
	}
	a, err := h.announcementService.GetByID(c.Request().Context(), scope, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, a)
}

// CreateAnnouncement handles POST /api/announcements
func (h *AnnouncementHandlers) CreateAnnouncement(c echo.Context) error {
	scope, err := requestScope(c)
	if err != nil {
		return err
	}
	var a models.Announcement
	if err := bind(c, &a); err != nil {
		return err
	}
	a.CreatedBy = currentUserID(c)
	if err := h.announcementService.Create(c.Request().Context(), scope, &a); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, a)
}

// UpdateAnnouncement handles PUT /api/announcements/:id
func (h *AnnouncementHandlers) UpdateAnnouncement(c echo.Context) error {
	scope, id, err := scopeAndID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	a, err := h.announcementService.GetByID(ctx, scope, id)
	if err != nil {
		return err
	}
	if err := bind(c, a); err != nil {
		return err
	}
	a.ID = id
	a.TenantID = scope.TenantID()

	if err := h.announcementService.Update(ctx, scope, a); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, a)
}

// DeleteAnnouncement handles DELETE /api/announcements/:id
func (h *AnnouncementHandlers) DeleteAnnouncement(c echo.Context) error {
	scope, id, err := scopeAndID(c)
	if err != nil {
		return err
	}
	if err := h.announcementService.Deactivate(c.Request().Context(), scope, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
