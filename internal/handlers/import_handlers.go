package handlers

import (
	"encoding/csv"
	"net/http"

	"tailtown/internal/common"
	"tailtown/internal/services"

	"github.com/labstack/echo/v4"
)

// ImportHandlers handles historical reservation imports
type ImportHandlers struct {
	importService services.ImportService
}

// NewImportHandlers creates a new import handlers instance
func NewImportHandlers(importService services.ImportService) *ImportHandlers {
	return &ImportHandlers{importService: importService}
}

// UploadImport handles POST /api/imports/reservations (multipart field "file")
// @Summary Import historical reservations from CSV
// @Description Rows whose external_id was imported before are skipped, so re-uploading a file is safe.
// @Description Large files are processed in the background; poll the returned job.
// @Tags imports
// @Accept mpfd
// @Produce json
// @Param file formData file true "CSV file"
// @Success 202 {object} models.ImportJob
// @Failure 400 {object} common.ErrorResponse
// @Security BearerAuth
// @Router /imports/reservations [post]
func (h *ImportHandlers) UploadImport(c echo.Context) error {
	scope, err := requestScope(c)
	if err != nil {
		return err
	}
	file, err := c.FormFile("file")
	if err != nil {
		return common.NewValidationError("file", "is required")
	}
	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	job, err := h.importService.Submit(c.Request().Context(), scope, src, file.Size)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusAccepted, job)
}

// GetImport handles GET /api/imports/:id
func (h *ImportHandlers) GetImport(c echo.Context) error {
	scope, id, err := scopeAndID(c)
	if err != nil {
		return err
	}
	job, err := h.importService.Get(c.Request().Context(), scope, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, job)
}

// Template handles GET /api/imports/template
func (h *ImportHandlers) Template(c echo.Context) error {
	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/csv")
	res.Header().Set(echo.HeaderContentDisposition, `attachment; filename="reservations-import.csv"`)
	res.WriteHeader(http.StatusOK)

	w := csv.NewWriter(res)
	if err := w.Write(services.ImportColumns); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}
