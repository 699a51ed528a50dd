package handlers

import (
	"net/http"

	"tailtown/internal/common"
	"tailtown/internal/services"

	"github.com/labstack/echo/v4"
)

// AvailabilityHandlers answers "can this resource take this stay" questions
type AvailabilityHandlers struct {
	availabilityService services.AvailabilityService
}

func NewAvailabilityHandlers(availabilityService services.AvailabilityService) *AvailabilityHandlers {
	return &AvailabilityHandlers{availabilityService: availabilityService}
}

// availabilityRequestFromQuery reads resource_id, start_date, end_date,
// exclude_reservation_id and service_id from the query string.
func availabilityRequestFromQuery(c echo.Context) (*services.AvailabilityRequest, error) {
	resourceID, err := common.ValidateUUID(c.QueryParam("resource_id"), "resource_id")
	if err != nil {
		return nil, err
	}
	start, err := common.ParseDateTime(c.QueryParam("start_date"), "start_date")
	if err != nil {
		return nil, err
	}
	end, err := common.ParseDateTime(c.QueryParam("end_date"), "end_date")
	if err != nil {
		return nil, err
	}
	if err := common.ValidateDateRange(start, end); err != nil {
		return nil, err
	}
	exclude, err := queryUUID(c, "exclude_reservation_id")
	if err != nil {
		return nil, err
	}
	serviceID, err := queryUUID(c, "service_id")
	if err != nil {
		return nil, err
	}
	return &services.AvailabilityRequest{
		ResourceID:           resourceID,
		StartDate:            start,
		EndDate:              end,
		ExcludeReservationID: exclude,
		ServiceID:            serviceID,
	}, nil
}

// CheckAvailability handles GET /api/availability
// @Summary Check a resource for a stay
// @Description Reports capacity, peak load, conflicting reservations and, when unavailable, alternative suites or dates
// @Tags availability
// @Produce json
// @Param resource_id query string true "Resource"
// @Param start_date query string true "RFC3339 or YYYY-MM-DD"
// @Param end_date query string true "RFC3339 or YYYY-MM-DD"
// @Param exclude_reservation_id query string false "Ignore this reservation (rebooking)"
// @Param service_id query string false "Service"
// @Success 200 {object} services.AvailabilityResult
// @Failure 400 {object} common.ErrorResponse
// @Failure 404 {object} common.ErrorResponse
// @Security BearerAuth
// @Router /availability [get]
func (h *AvailabilityHandlers) CheckAvailability(c echo.Context) error {
	scope, err := requestScope(c)
	if err != nil {
		return err
	}
	req, err := availabilityRequestFromQuery(c)
	if err != nil {
		return err
	}

	result, err := h.availabilityService.Check(c.Request().Context(), scope, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// ListConflicts handles GET /api/availability/conflicts
func (h *AvailabilityHandlers) ListConflicts(c echo.Context) error {
	scope, err := requestScope(c)
	if err != nil {
		return err
	}
	req, err := availabilityRequestFromQuery(c)
	if err != nil {
		return err
	}

	conflicts, err := h.availabilityService.FindConflicts(c.Request().Context(), scope, req.ResourceID, req.StartDate, req.EndDate, req.ExcludeReservationID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, conflicts)
}

// ListAlternatives handles GET /api/availability/alternatives
func (h *AvailabilityHandlers) ListAlternatives(c echo.Context) error {
	scope, err := requestScope(c)
	if err != nil {
		return err
	}
	req, err := availabilityRequestFromQuery(c)
	if err != nil {
		return err
	}

	suggestions, err := h.availabilityService.Alternatives(c.Request().Context(), scope, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, suggestions)
}
