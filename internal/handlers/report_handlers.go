package handlers

import (
	"net/http"
	"time"

	"tailtown/internal/common"
	"tailtown/internal/services"

	"github.com/labstack/echo/v4"
)

// ReportHandlers serves operational reports
type ReportHandlers struct {
	reportService services.ReportService
}

func NewReportHandlers(reportService services.ReportService) *ReportHandlers {
	return &ReportHandlers{reportService: reportService}
}

// KennelDistribution handles GET /api/reports/kennel-distribution
// @Summary Reservations per resource
// @Tags reports
// @Produce json
// @Param start_date query string true "RFC3339 or YYYY-MM-DD"
// @Param end_date query string true "RFC3339 or YYYY-MM-DD"
// @Success 200 {array} models.ResourceReservationCount
// @Failure 400 {object} common.ErrorResponse
// @Security BearerAuth
// @Router /reports/kennel-distribution [get]
func (h *ReportHandlers) KennelDistribution(c echo.Context) error {
	scope, err := requestScope(c)
	if err != nil {
		return err
	}
	start, err := common.ParseDateTime(c.QueryParam("start_date"), "start_date")
	if err != nil {
		return err
	}
	end, err := common.ParseDateTime(c.QueryParam("end_date"), "end_date")
	if err != nil {
		return err
	}
	if err := common.ValidateDateRange(start, end); err != nil {
		return err
	}

	rows, err := h.reportService.KennelDistribution(c.Request().Context(), scope, start, end)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rows)
}

// ImportSummary handles GET /api/reports/import-summary
func (h *ReportHandlers) ImportSummary(c echo.Context) error {
	scope, err := requestScope(c)
	if err != nil {
		return err
	}
	summary, err := h.reportService.ImportSummary(c.Request().Context(), scope)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, summary)
}

// Occupancy handles GET /api/reports/occupancy?date=YYYY-MM-DD (defaults to today)
func (h *ReportHandlers) Occupancy(c echo.Context) error {
	scope, err := requestScope(c)
	if err != nil {
		return err
	}
	day := time.Now().UTC().Truncate(24 * time.Hour)
	if v := c.QueryParam("date"); v != "" {
		if day, err = common.ParseDateTime(v, "date"); err != nil {
			return err
		}
	}

	rows, err := h.reportService.Occupancy(c.Request().Context(), scope, day)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rows)
}
