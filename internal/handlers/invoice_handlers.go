package handlers

import (
	"net/http"
	"strings"

	"tailtown/internal/common"
	"tailtown/internal/services"

	"github.com/labstack/echo/v4"
)

// InvoiceHandlers handles HTTP requests for invoices and payments
type InvoiceHandlers struct {
	invoiceService services.InvoiceService
}

// NewInvoiceHandlers creates a new invoice handlers instance
func NewInvoiceHandlers(invoiceService services.InvoiceService) *InvoiceHandlers {
	return &InvoiceHandlers{invoiceService: invoiceService}
}

// PDFResponse carries a short-lived download link.
type PDFResponse struct {
	URL string `json:"url"`
}

// ListInvoices handles GET /api/invoices
// @Summary List invoices
// @Tags invoices
// @Produce json
// @Param status query string false "DRAFT, FINALIZED, PAID or VOID"
// @Param customer_id query string false "Customer"
// @Param limit query int false "Page size" default(50)
// @Param offset query int false "Offset"
// @Success 200 {object} common.ListResponse
// @Security BearerAuth
// @Router /invoices [get]
func (h *InvoiceHandlers) ListInvoices(c echo.Context) error {
	scope, err := requestScope(c)
	if err != nil {
		return err
	}
	limit, offset, err := common.PaginationFromQuery(c)
	if err != nil {
		return err
	}
	customerID, err := queryUUID(c, "customer_id")
	if err != nil {
		return err
	}

	status := strings.ToUpper(strings.TrimSpace(c.QueryParam("status")))
	invoices, total, err := h.invoiceService.List(c.Request().Context(), scope, status, customerID, limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, common.NewListResponse(invoices, limit, offset, total))
}

// GetInvoice handles GET /api/invoices/:id
func (h *InvoiceHandlers) GetInvoice(c echo.Context) error {
	scope, id, err := scopeAndID(c)
	if err != nil {
		return err
	}
	inv, err := h.invoiceService.GetByID(c.Request().Context(), scope, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, inv)
}

// CreateFromReservation handles POST /api/invoices/from-reservation/:id
// Returns the existing invoice when the reservation already has one.
func (h *InvoiceHandlers) CreateFromReservation(c echo.Context) error {
	scope, id, err := scopeAndID(c)
	if err != nil {
		return err
	}
	inv, err := h.invoiceService.CreateFromReservation(c.Request().Context(), scope, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, inv)
}

// UpdateInvoice handles PUT /api/invoices/:id. Only drafts can be edited.
func (h *InvoiceHandlers) UpdateInvoice(c echo.Context) error {
	scope, id, err := scopeAndID(c)
	if err != nil {
		return err
	}
	var req services.UpdateInvoiceRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	inv, err := h.invoiceService.UpdateDraft(c.Request().Context(), scope, id, &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, inv)
}

// FinalizeInvoice handles POST /api/invoices/:id/finalize
func (h *InvoiceHandlers) FinalizeInvoice(c echo.Context) error {
	scope, id, err := scopeAndID(c)
	if err != nil {
		return err
	}
	inv, err := h.invoiceService.Finalize(c.Request().Context(), scope, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, inv)
}

// VoidInvoice handles POST /api/invoices/:id/void
func (h *InvoiceHandlers) VoidInvoice(c echo.Context) error {
	scope, id, err := scopeAndID(c)
	if err != nil {
		return err
	}
	if err := h.invoiceService.Void(c.Request().Context(), scope, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ListPayments handles GET /api/invoices/:id/payments
func (h *InvoiceHandlers) ListPayments(c echo.Context) error {
	scope, id, err := scopeAndID(c)
	if err != nil {
		return err
	}
	payments, err := h.invoiceService.ListPayments(c.Request().Context(), scope, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, payments)
}

// RecordPayment handles POST /api/invoices/:id/payments
// @Summary Record a payment or deposit
// @Tags invoices
// @Accept json
// @Produce json
// @Param id path string true "Invoice ID"
// @Param payment body services.PaymentRequest true "Payment"
// @Success 201 {object} models.Invoice
// @Failure 400 {object} common.ErrorResponse
// @Failure 409 {object} common.ErrorResponse "Invoice is void or already paid"
// @Security BearerAuth
// @Router /invoices/{id}/payments [post]
func (h *InvoiceHandlers) RecordPayment(c echo.Context) error {
	scope, id, err := scopeAndID(c)
	if err != nil {
		return err
	}
	var req services.PaymentRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	inv, err := h.invoiceService.RecordPayment(c.Request().Context(), scope, id, &req, currentUserID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, inv)
}

// RefundPayment handles POST /api/invoices/:id/refunds
func (h *InvoiceHandlers) RefundPayment(c echo.Context) error {
	scope, id, err := scopeAndID(c)
	if err != nil {
		return err
	}
	var req services.RefundRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	inv, err := h.invoiceService.Refund(c.Request().Context(), scope, id, &req, currentUserID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, inv)
}

// GetInvoicePDF handles GET /api/invoices/:id/pdf
// @Summary Download link for the invoice PDF
// @Description Renders the PDF, stores it in object storage and returns a presigned URL
// @Tags invoices
// @Produce json
// @Param id path string true "Invoice ID"
// @Success 200 {object} PDFResponse
// @Failure 404 {object} common.ErrorResponse
// @Security BearerAuth
// @Router /invoices/{id}/pdf [get]
func (h *InvoiceHandlers) GetInvoicePDF(c echo.Context) error {
	scope, id, err := scopeAndID(c)
	if err != nil {
		return err
	}
	url, err := h.invoiceService.PDFURL(c.Request().Context(), scope, id)
	if err != nil {
		return err
	}
	if c.QueryParam("redirect") == "true" {
		return c.Redirect(http.StatusFound, url)
	}
	return c.JSON(http.StatusOK, PDFResponse{URL: url})
}
