package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	InvoiceDraft     = "DRAFT"
	InvoiceFinalized = "FINALIZED"
	InvoicePaid      = "PAID"
	InvoiceVoid      = "VOID"
)

const (
	PaymentKindPayment = "PAYMENT"
	PaymentKindDeposit = "DEPOSIT"
	PaymentKindRefund  = "REFUND"
)

const (
	PaymentMethodCash  = "CASH"
	PaymentMethodCard  = "CARD"
	PaymentMethodCheck = "CHECK"
	PaymentMethodOther = "OTHER"
)

type Invoice struct {
	ID             uuid.UUID         `json:"id" db:"id"`
	TenantID       uuid.UUID         `json:"tenant_id" db:"tenant_id"`
	ReservationID  *uuid.UUID        `json:"reservation_id,omitempty" db:"reservation_id"`
	CustomerID     uuid.UUID         `json:"customer_id" db:"customer_id"`
	InvoiceNumber  string            `json:"invoice_number" db:"invoice_number"`
	LineItems      []InvoiceLineItem `json:"line_items" db:"line_items"`
	Subtotal       decimal.Decimal   `json:"subtotal" db:"subtotal"`
	TaxRate        decimal.Decimal   `json:"tax_rate" db:"tax_rate"`
	TaxAmount      decimal.Decimal   `json:"tax_amount" db:"tax_amount"`
	Total          decimal.Decimal   `json:"total" db:"total"`
	DepositCredit  decimal.Decimal   `json:"deposit_credit" db:"deposit_credit"`
	AmountPaid     decimal.Decimal   `json:"amount_paid" db:"amount_paid"`
	AmountRefunded decimal.Decimal   `json:"amount_refunded" db:"amount_refunded"`
	Status         string            `json:"status" db:"status"`
	PDFObjectKey   *string           `json:"-" db:"pdf_object_key"`
	IssuedAt       *time.Time        `json:"issued_at,omitempty" db:"issued_at"`
	DueDate        *time.Time        `json:"due_date,omitempty" db:"due_date"`
	CreatedAt      time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at" db:"updated_at"`
}

// BalanceDue is what the customer still owes after deposit credit and payments.
func (i *Invoice) BalanceDue() decimal.Decimal {
	due := i.Total.Sub(i.DepositCredit).Sub(i.AmountPaid).Add(i.AmountRefunded)
	if due.IsNegative() {
		return decimal.Zero
	}
	return due
}

// IsEditable reports whether line items may still change.
func (i *Invoice) IsEditable() bool {
	return i.Status == InvoiceDraft
}

type InvoiceLineItem struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Amount      decimal.Decimal `json:"amount"`
}

// Payment records money moving against an invoice. Refunds carry kind REFUND and a positive amount.
type Payment struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	TenantID  uuid.UUID       `json:"tenant_id" db:"tenant_id"`
	InvoiceID uuid.UUID       `json:"invoice_id" db:"invoice_id"`
	Amount    decimal.Decimal `json:"amount" db:"amount"`
	Method    string          `json:"method" db:"method"`
	Kind      string          `json:"kind" db:"kind"`
	Reference *string         `json:"reference,omitempty" db:"reference"`
	CreatedBy *uuid.UUID      `json:"created_by,omitempty" db:"created_by"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}
