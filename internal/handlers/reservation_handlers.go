package handlers

import (
	"net/http"
	"strings"

	"tailtown/internal/common"
	"tailtown/internal/models"
	"tailtown/internal/services"

	"github.com/labstack/echo/v4"
)

// ReservationHandlers handles bookings and their lifecycle transitions
type ReservationHandlers struct {
	reservationService services.ReservationService
}

// NewReservationHandlers creates a new reservation handlers instance
func NewReservationHandlers(reservationService services.ReservationService) *ReservationHandlers {
	return &ReservationHandlers{reservationService: reservationService}
}

// CancelReservationRequest is the optional body of POST /api/reservations/:id/cancel
type CancelReservationRequest struct {
	Reason *string `json:"reason,omitempty" validate:"omitempty,max=500"`
}

// ListReservations handles GET /api/reservations
// @Summary List reservations
// @Description Reservations overlapping [start_date, end_date) when both are given
// @Tags reservations
// @Produce json
// @Param start_date query string false "RFC3339 or YYYY-MM-DD"
// @Param end_date query string false "RFC3339 or YYYY-MM-DD"
// @Param status query string false "PENDING, CONFIRMED, CHECKED_IN, CHECKED_OUT, COMPLETED or CANCELLED"
// @Param resource_id query string false "Resource"
// @Param customer_id query string false "Customer"
// @Param limit query int false "Page size" default(50)
// @Param offset query int false "Offset"
// @Success 200 {object} common.ListResponse
// @Failure 400 {object} common.ErrorResponse
// @Security BearerAuth
// @Router /reservations [get]
func (h *ReservationHandlers) ListReservations(c echo.Context) error {
	scope, err := requestScope(c)
	if err != nil {
		return err
	}
	filter, err := reservationFilterFromQuery(c)
	if err != nil {
		return err
	}

	items, total, err := h.reservationService.List(c.Request().Context(), scope, filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, common.NewListResponse(items, filter.Limit, filter.Offset, total))
}

func reservationFilterFromQuery(c echo.Context) (models.ReservationFilter, error) {
	var filter models.ReservationFilter
	var err error

	if filter.Limit, filter.Offset, err = common.PaginationFromQuery(c); err != nil {
		return filter, err
	}
	if filter.StartDate, err = common.ParseOptionalDateTime(c.QueryParam("start_date"), "start_date"); err != nil {
		return filter, err
	}
	if filter.EndDate, err = common.ParseOptionalDateTime(c.QueryParam("end_date"), "end_date"); err != nil {
		return filter, err
	}
	if filter.StartDate != nil && filter.EndDate != nil {
		if err := common.ValidateDateRange(*filter.StartDate, *filter.EndDate); err != nil {
			return filter, err
		}
	}
	if status := strings.ToUpper(strings.TrimSpace(c.QueryParam("status"))); status != "" {
		filter.Status = &status
	}
	if filter.ResourceID, err = queryUUID(c, "resource_id"); err != nil {
		return filter, err
	}
	if filter.CustomerID, err = queryUUID(c, "customer_id"); err != nil {
		return filter, err
	}
	return filter, nil
}

// GetReservation handles GET /api/reservations/:id
func (h *ReservationHandlers) GetReservation(c echo.Context) error {
	scope, id, err := scopeAndID(c)
	if err != nil {
		return err
	}
	r, err := h.reservationService.GetByID(c.Request().Context(), scope, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, r)
}

// CreateReservation handles POST /api/reservations
// @Summary Book a stay
// @Description Checks availability and capacity, prices the stay and records it in one transaction
// @Tags reservations
// @Accept json
// @Produce json
// @Param reservation body services.CreateReservationRequest true "Booking"
// @Success 201 {object} models.Reservation
// @Failure 400 {object} common.ErrorResponse
// @Failure 404 {object} common.ErrorResponse
// @Failure 409 {object} common.ErrorResponse "Resource already booked"
// @Security BearerAuth
// @Router /reservations [post]
func (h *ReservationHandlers) CreateReservation(c echo.Context) error {
	scope, err := requestScope(c)
	if err != nil {
		return err
	}
	var req services.CreateReservationRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	r, err := h.reservationService.Create(c.Request().Context(), scope, &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, r)
}

// UpdateReservation handles PUT /api/reservations/:id
func (h *ReservationHandlers) UpdateReservation(c echo.Context) error {
	scope, id, err := scopeAndID(c)
	if err != nil {
		return err
	}
	var req services.UpdateReservationRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	r, err := h.reservationService.Update(c.Request().Context(), scope, id, &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, r)
}

// ConfirmReservation handles POST /api/reservations/:id/confirm
func (h *ReservationHandlers) ConfirmReservation(c echo.Context) error {
	scope, id, err := scopeAndID(c)
	if err != nil {
		return err
	}
	r, err := h.reservationService.Confirm(c.Request().Context(), scope, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, r)
}

// CheckIn handles POST /api/reservations/:id/check-in
func (h *ReservationHandlers) CheckIn(c echo.Context) error {
	scope, id, err := scopeAndID(c)
	if err != nil {
		return err
	}
	r, err := h.reservationService.CheckIn(c.Request().Context(), scope, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, r)
}

// CheckOut handles POST /api/reservations/:id/check-out. The response carries the stay's invoice.
func (h *ReservationHandlers) CheckOut(c echo.Context) error {
	scope, id, err := scopeAndID(c)
	if err != nil {
		return err
	}
	result, err := h.reservationService.CheckOut(c.Request().Context(), scope, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// CompleteReservation handles POST /api/reservations/:id/complete
func (h *ReservationHandlers) CompleteReservation(c echo.Context) error {
	scope, id, err := scopeAndID(c)
	if err != nil {
		return err
	}
	r, err := h.reservationService.Complete(c.Request().Context(), scope, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, r)
}

// CancelReservation handles POST /api/reservations/:id/cancel
// @Summary Cancel a reservation
// @Description Applies the tenant refund policy to any deposit already paid
// @Tags reservations
// @Accept json
// @Produce json
// @Param id path string true "Reservation ID"
// @Param body body CancelReservationRequest false "Reason"
// @Success 200 {object} services.CancelResult
// @Failure 409 {object} common.ErrorResponse "Status does not allow cancellation"
// @Security BearerAuth
// @Router /reservations/{id}/cancel [post]
func (h *ReservationHandlers) CancelReservation(c echo.Context) error {
	scope, id, err := scopeAndID(c)
	if err != nil {
		return err
	}
	var req CancelReservationRequest
	if c.Request().ContentLength != 0 {
		if err := bind(c, &req); err != nil {
			return err
		}
	}

	result, err := h.reservationService.Cancel(c.Request().Context(), scope, id, req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}
