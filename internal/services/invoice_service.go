package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"tailtown/internal/common"
	"tailtown/internal/models"
	"tailtown/internal/pricing"
	"tailtown/internal/repositories"
	"tailtown/internal/tenancy"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	invoiceDueDays   = 14
	invoicePDFExpiry = 15 * time.Minute
)

type InvoiceService interface {
	CreateFromReservation(ctx context.Context, scope tenancy.Scope, reservationID uuid.UUID) (*models.Invoice, error)
	GetByID(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (*models.Invoice, error)
	List(ctx context.Context, scope tenancy.Scope, status string, customerID *uuid.UUID, limit, offset int) ([]*models.Invoice, int, error)
	UpdateDraft(ctx context.Context, scope tenancy.Scope, id uuid.UUID, req *UpdateInvoiceRequest) (*models.Invoice, error)
	Finalize(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (*models.Invoice, error)
	Void(ctx context.Context, scope tenancy.Scope, id uuid.UUID) error
	RecordPayment(ctx context.Context, scope tenancy.Scope, invoiceID uuid.UUID, req *PaymentRequest, createdBy *uuid.UUID) (*models.Invoice, error)
	Refund(ctx context.Context, scope tenancy.Scope, invoiceID uuid.UUID, req *RefundRequest, createdBy *uuid.UUID) (*models.Invoice, error)
	ListPayments(ctx context.Context, scope tenancy.Scope, invoiceID uuid.UUID) ([]*models.Payment, error)
	SettleCancellation(ctx context.Context, scope tenancy.Scope, reservation *models.Reservation, policy models.RefundPolicy) (*models.Invoice, decimal.Decimal, error)
	PDFURL(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (string, error)
}

type UpdateInvoiceRequest struct {
	LineItems []models.InvoiceLineItem `json:"line_items" validate:"required,min=1,dive"`
}

type PaymentRequest struct {
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"method" validate:"required,oneof=CASH CARD CHECK OTHER"`
	Kind      string          `json:"kind" validate:"omitempty,oneof=PAYMENT DEPOSIT"`
	Reference *string         `json:"reference,omitempty"`
}

type RefundRequest struct {
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"method" validate:"required,oneof=CASH CARD CHECK OTHER"`
	Reference *string         `json:"reference,omitempty"`
}

type invoiceService struct {
	invoiceRepo     repositories.InvoiceRepository
	reservationRepo repositories.ReservationRepository
	serviceRepo     repositories.ServiceRepository
	customerRepo    repositories.CustomerRepository
	tenantRepo      repositories.TenantRepository
	minioService    MinioService
	now             func() time.Time
	log             *zap.Logger
}

func NewInvoiceService(
	invoiceRepo repositories.InvoiceRepository,
	reservationRepo repositories.ReservationRepository,
	serviceRepo repositories.ServiceRepository,
	customerRepo repositories.CustomerRepository,
	tenantRepo repositories.TenantRepository,
	minioService MinioService,
	log *zap.Logger,
) InvoiceService {
	return &invoiceService{
		invoiceRepo:     invoiceRepo,
		reservationRepo: reservationRepo,
		serviceRepo:     serviceRepo,
		customerRepo:    customerRepo,
		tenantRepo:      tenantRepo,
		minioService:    minioService,
		now:             time.Now,
		log:             log,
	}
}

// reservationLines bills the service units at list price, plus one line carrying the
// difference to the quoted reservation price when pricing rules changed it.
func reservationLines(res *models.Reservation, svc *models.Service) []models.InvoiceLineItem {
	units := pricing.BillableUnits(svc.PriceUnit, pricing.Draft{StartDate: res.StartDate, EndDate: res.EndDate})
	base := svc.BasePrice.Mul(units).Round(2)
	lines := []models.InvoiceLineItem{{
		Description: fmt.Sprintf("%s (%s to %s)", svc.Name, res.StartDate.Format("2006-01-02"), res.EndDate.Format("2006-01-02")),
		Quantity:    units,
		UnitPrice:   svc.BasePrice,
		Amount:      base,
	}}
	if diff := res.Price.Sub(base); !diff.IsZero() {
		lines = append(lines, models.InvoiceLineItem{
			Description: "Pricing adjustments",
			Quantity:    decimal.NewFromInt(1),
			UnitPrice:   diff,
			Amount:      diff,
		})
	}
	return lines
}

// applyTotals recomputes subtotal, tax and total from the line items.
func applyTotals(inv *models.Invoice, taxRate decimal.Decimal) {
	subtotal := decimal.Zero
	for _, l := range inv.LineItems {
		subtotal = subtotal.Add(l.Amount)
	}
	inv.Subtotal = subtotal.Round(2)
	inv.TaxRate = taxRate
	inv.TaxAmount = inv.Subtotal.Mul(taxRate).Round(2)
	inv.Total = inv.Subtotal.Add(inv.TaxAmount)
}

// CreateFromReservation opens a draft invoice for the reservation. An existing draft has
// its lines rebuilt; an invoice already finalized is returned unchanged.
func (s *invoiceService) CreateFromReservation(ctx context.Context, scope tenancy.Scope, reservationID uuid.UUID) (*models.Invoice, error) {
	res, err := s.reservationRepo.GetByID(ctx, scope, reservationID)
	if err != nil {
		return nil, err
	}
	if res.Status == models.ReservationCancelled {
		return nil, &common.ConflictError{Message: "reservation is cancelled"}
	}
	svc, err := s.serviceRepo.GetByID(ctx, scope, res.ServiceID)
	if err != nil {
		return nil, err
	}
	settings, err := s.tenantRepo.GetSettings(ctx, scope)
	if err != nil {
		return nil, err
	}

	existing, err := s.invoiceRepo.GetByReservation(ctx, scope, reservationID)
	switch {
	case err == nil:
		if !existing.IsEditable() {
			return existing, nil
		}
		existing.LineItems = reservationLines(res, svc)
		applyTotals(existing, settings.TaxRate)
		if err := s.invoiceRepo.UpdateDraft(ctx, scope, existing); err != nil {
			return nil, err
		}
		return existing, nil
	case !common.IsNotFound(err):
		return nil, err
	}

	id := res.ID
	inv := &models.Invoice{
		ID:             uuid.New(),
		ReservationID:  &id,
		CustomerID:     res.CustomerID,
		LineItems:      reservationLines(res, svc),
		DepositCredit:  decimal.Zero,
		AmountPaid:     decimal.Zero,
		AmountRefunded: decimal.Zero,
		Status:         models.InvoiceDraft,
	}
	applyTotals(inv, settings.TaxRate)
	if err := s.invoiceRepo.Create(ctx, scope, inv); err != nil {
		return nil, err
	}
	s.log.Info("invoice created",
		zap.String("tenant_id", scope.TenantID().String()),
		zap.String("invoice_number", inv.InvoiceNumber),
		zap.String("reservation_id", reservationID.String()),
	)
	return inv, nil
}

func (s *invoiceService) GetByID(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (*models.Invoice, error) {
	return s.invoiceRepo.GetByID(ctx, scope, id)
}

func (s *invoiceService) List(ctx context.Context, scope tenancy.Scope, status string, customerID *uuid.UUID, limit, offset int) ([]*models.Invoice, int, error) {
	status = strings.ToUpper(status)
	switch status {
	case "", models.InvoiceDraft, models.InvoiceFinalized, models.InvoicePaid, models.InvoiceVoid:
	default:
		return nil, 0, common.NewValidationError("status", "is not a valid invoice status")
	}
	return s.invoiceRepo.List(ctx, scope, status, customerID, limit, offset)
}

func (s *invoiceService) UpdateDraft(ctx context.Context, scope tenancy.Scope, id uuid.UUID, req *UpdateInvoiceRequest) (*models.Invoice, error) {
	inv, err := s.invoiceRepo.GetByID(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	if !inv.IsEditable() {
		return nil, common.ErrInvoiceFinalized
	}
	if len(req.LineItems) == 0 {
		return nil, common.NewValidationError("line_items", "must contain at least one item")
	}

	lines := make([]models.InvoiceLineItem, len(req.LineItems))
	for i, l := range req.LineItems {
		if strings.TrimSpace(l.Description) == "" {
			return nil, common.NewValidationError("description", "is required")
		}
		if !l.Quantity.IsPositive() {
			return nil, common.NewValidationError("quantity", "must be positive")
		}
		l.Amount = l.Quantity.Mul(l.UnitPrice).Round(2)
		lines[i] = l
	}
	inv.LineItems = lines
	applyTotals(inv, inv.TaxRate)

	if err := s.invoiceRepo.UpdateDraft(ctx, scope, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

// Finalize issues the invoice. One whose balance is already covered by the deposit goes straight to PAID.
func (s *invoiceService) Finalize(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (*models.Invoice, error) {
	issuedAt := s.now().UTC()
	if err := s.invoiceRepo.Finalize(ctx, scope, id, issuedAt, issuedAt.AddDate(0, 0, invoiceDueDays)); err != nil {
		return nil, err
	}
	inv, err := s.invoiceRepo.GetByID(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	if inv.Status == models.InvoiceFinalized && inv.BalanceDue().IsZero() {
		if err := s.invoiceRepo.MarkPaid(ctx, scope, id); err != nil {
			return nil, err
		}
		inv.Status = models.InvoicePaid
	}
	return inv, nil
}

func (s *invoiceService) Void(ctx context.Context, scope tenancy.Scope, id uuid.UUID) error {
	return s.invoiceRepo.Void(ctx, scope, id)
}

func validateMoney(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return common.NewValidationError("amount", "must be positive")
	}
	if !amount.Equal(amount.Round(2)) {
		return common.NewValidationError("amount", "must have at most two decimal places")
	}
	return nil
}

func (s *invoiceService) RecordPayment(ctx context.Context, scope tenancy.Scope, invoiceID uuid.UUID, req *PaymentRequest, createdBy *uuid.UUID) (*models.Invoice, error) {
	if err := validateMoney(req.Amount); err != nil {
		return nil, err
	}
	kind := strings.ToUpper(req.Kind)
	if kind == "" {
		kind = models.PaymentKindPayment
	}

	payment := &models.Payment{
		ID:        uuid.New(),
		InvoiceID: invoiceID,
		Amount:    req.Amount,
		Method:    strings.ToUpper(req.Method),
		Kind:      kind,
		Reference: req.Reference,
		CreatedBy: createdBy,
	}
	return s.invoiceRepo.RecordPayment(ctx, scope, payment, func(inv *models.Invoice) error {
		switch kind {
		case models.PaymentKindDeposit:
			if inv.Status != models.InvoiceDraft {
				return &common.ConflictError{Message: "deposits can only be taken on a draft invoice"}
			}
			inv.DepositCredit = inv.DepositCredit.Add(req.Amount)
		case models.PaymentKindPayment:
			if inv.Status != models.InvoiceFinalized {
				return &common.ConflictError{Message: fmt.Sprintf("invoice is %s", strings.ToLower(inv.Status))}
			}
			if req.Amount.GreaterThan(inv.BalanceDue()) {
				return common.NewValidationError("amount", "exceeds the balance due")
			}
			inv.AmountPaid = inv.AmountPaid.Add(req.Amount)
		default:
			return common.NewValidationError("kind", "must be PAYMENT or DEPOSIT")
		}
		settle(inv)
		return nil
	})
}

// Refund returns money taken as deposit or payment. The amount cannot exceed what is still held.
func (s *invoiceService) Refund(ctx context.Context, scope tenancy.Scope, invoiceID uuid.UUID, req *RefundRequest, createdBy *uuid.UUID) (*models.Invoice, error) {
	if err := validateMoney(req.Amount); err != nil {
		return nil, err
	}
	payment := &models.Payment{
		ID:        uuid.New(),
		InvoiceID: invoiceID,
		Amount:    req.Amount,
		Method:    strings.ToUpper(req.Method),
		Kind:      models.PaymentKindRefund,
		Reference: req.Reference,
		CreatedBy: createdBy,
	}
	return s.invoiceRepo.RecordPayment(ctx, scope, payment, func(inv *models.Invoice) error {
		if inv.Status != models.InvoiceFinalized && inv.Status != models.InvoicePaid {
			return &common.ConflictError{Message: "refunds need a finalized invoice"}
		}
		held := inv.DepositCredit.Add(inv.AmountPaid).Sub(inv.AmountRefunded)
		if req.Amount.GreaterThan(held) {
			return common.NewValidationError("amount", fmt.Sprintf("exceeds refundable amount %s", held.StringFixed(2)))
		}
		inv.AmountRefunded = inv.AmountRefunded.Add(req.Amount)
		settle(inv)
		return nil
	})
}

func settle(inv *models.Invoice) {
	if inv.Status == models.InvoiceFinalized && inv.BalanceDue().IsZero() {
		inv.Status = models.InvoicePaid
	}
}

func (s *invoiceService) ListPayments(ctx context.Context, scope tenancy.Scope, invoiceID uuid.UUID) ([]*models.Payment, error) {
	if _, err := s.invoiceRepo.GetByID(ctx, scope, invoiceID); err != nil {
		return nil, err
	}
	return s.invoiceRepo.ListPayments(ctx, scope, invoiceID)
}

const cancellationFeeLine = "Cancellation fee (retained deposit)"

// SettleCancellation closes the draft invoice of a cancelled reservation. The deposit is
// refunded under policy and the retained part becomes the only charge. A draft without a
// deposit is voided; without a draft there is nothing to settle. Running it again on an
// invoice it already finalized only pays out the part of the refund still missing.
func (s *invoiceService) SettleCancellation(ctx context.Context, scope tenancy.Scope, res *models.Reservation, policy models.RefundPolicy) (*models.Invoice, decimal.Decimal, error) {
	inv, err := s.invoiceRepo.GetByReservation(ctx, scope, res.ID)
	if common.IsNotFound(err) {
		return nil, decimal.Zero, nil
	}
	if err != nil {
		return nil, decimal.Zero, err
	}
	if !inv.IsEditable() {
		if !isCancellationInvoice(inv) {
			return inv, decimal.Zero, nil
		}
		return s.refundCancellation(ctx, scope, inv, res, policy)
	}
	if !inv.DepositCredit.IsPositive() {
		if err := s.invoiceRepo.Void(ctx, scope, inv.ID); err != nil {
			return nil, decimal.Zero, err
		}
		inv.Status = models.InvoiceVoid
		return inv, decimal.Zero, nil
	}

	retained := inv.DepositCredit.Sub(cancellationRefund(inv, res, policy, s.now()))
	inv.LineItems = []models.InvoiceLineItem{{
		Description: cancellationFeeLine,
		Quantity:    decimal.NewFromInt(1),
		UnitPrice:   retained,
		Amount:      retained,
	}}
	applyTotals(inv, decimal.Zero)
	if err := s.invoiceRepo.UpdateDraft(ctx, scope, inv); err != nil {
		return nil, decimal.Zero, err
	}

	final, err := s.Finalize(ctx, scope, inv.ID)
	if err != nil {
		return nil, decimal.Zero, err
	}
	return s.refundCancellation(ctx, scope, final, res, policy)
}

func cancellationRefund(inv *models.Invoice, res *models.Reservation, policy models.RefundPolicy, now time.Time) decimal.Decimal {
	cancelledAt := now
	if res.CancelledAt != nil {
		cancelledAt = *res.CancelledAt
	}
	return pricing.RefundAmount(policy, inv.DepositCredit, res.StartDate, cancelledAt)
}

func isCancellationInvoice(inv *models.Invoice) bool {
	return inv.Status != models.InvoiceVoid && len(inv.LineItems) == 1 && inv.LineItems[0].Description == cancellationFeeLine
}

// refundCancellation pays out whatever the policy owes beyond what was already refunded.
func (s *invoiceService) refundCancellation(ctx context.Context, scope tenancy.Scope, inv *models.Invoice, res *models.Reservation, policy models.RefundPolicy) (*models.Invoice, decimal.Decimal, error) {
	owed := cancellationRefund(inv, res, policy, s.now())
	due := owed.Sub(inv.AmountRefunded)
	if !due.IsPositive() {
		return inv, owed, nil
	}
	inv, err := s.Refund(ctx, scope, inv.ID, &RefundRequest{Amount: due, Method: models.PaymentMethodOther}, nil)
	if err != nil {
		return nil, decimal.Zero, err
	}
	return inv, owed, nil
}

// PDFURL renders the invoice, stores it and returns a short lived download link.
// Drafts are rendered fresh each time; issued invoices reuse the stored copy.
func (s *invoiceService) PDFURL(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (string, error) {
	inv, err := s.invoiceRepo.GetByID(ctx, scope, id)
	if err != nil {
		return "", err
	}
	if inv.PDFObjectKey != nil && !inv.IsEditable() {
		return s.minioService.GetPresignedURL(ctx, *inv.PDFObjectKey, invoicePDFExpiry)
	}

	tenant, err := s.tenantRepo.GetByID(ctx, scope.TenantID())
	if err != nil {
		return "", err
	}
	customer, err := s.customerRepo.GetByID(ctx, scope, inv.CustomerID)
	if err != nil && !common.IsNotFound(err) {
		return "", err
	}

	body, err := renderInvoicePDF(tenant, customer, inv)
	if err != nil {
		return "", err
	}
	key := fmt.Sprintf("invoices/%s/%s.pdf", scope.TenantID(), inv.ID)
	if err := s.minioService.Upload(ctx, key, bytes.NewReader(body), int64(len(body)), "application/pdf"); err != nil {
		return "", fmt.Errorf("failed to store invoice pdf: %w", err)
	}
	if err := s.invoiceRepo.SetPDFKey(ctx, scope, inv.ID, key); err != nil {
		return "", err
	}
	return s.minioService.GetPresignedURL(ctx, key, invoicePDFExpiry)
}
