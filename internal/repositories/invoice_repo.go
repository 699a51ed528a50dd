package repositories

import (
	"context"
	"fmt"
	"time"

	"tailtown/internal/common"
	"tailtown/internal/models"
	"tailtown/internal/tenancy"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// InvoiceRepository stores invoices and the payments recorded against them.
type InvoiceRepository interface {
	Create(ctx context.Context, scope tenancy.Scope, invoice *models.Invoice) error
	GetByID(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (*models.Invoice, error)
	GetByReservation(ctx context.Context, scope tenancy.Scope, reservationID uuid.UUID) (*models.Invoice, error)
	UpdateDraft(ctx context.Context, scope tenancy.Scope, invoice *models.Invoice) error
	Finalize(ctx context.Context, scope tenancy.Scope, id uuid.UUID, issuedAt, dueDate time.Time) error
	MarkPaid(ctx context.Context, scope tenancy.Scope, id uuid.UUID) error
	Void(ctx context.Context, scope tenancy.Scope, id uuid.UUID) error
	SetPDFKey(ctx context.Context, scope tenancy.Scope, id uuid.UUID, objectKey string) error
	List(ctx context.Context, scope tenancy.Scope, status string, customerID *uuid.UUID, limit, offset int) ([]*models.Invoice, int, error)
	RecordPayment(ctx context.Context, scope tenancy.Scope, payment *models.Payment, apply func(invoice *models.Invoice) error) (*models.Invoice, error)
	ListPayments(ctx context.Context, scope tenancy.Scope, invoiceID uuid.UUID) ([]*models.Payment, error)
}

type invoiceRepo struct {
	db DB
}

func NewInvoiceRepo(db DB) InvoiceRepository {
	return &invoiceRepo{db: db}
}

const invoiceColumns = `id, tenant_id, reservation_id, customer_id, invoice_number, line_items, subtotal, tax_rate, tax_amount,
	total, deposit_credit, amount_paid, amount_refunded, status, pdf_object_key, issued_at, due_date, created_at, updated_at`

func scanInvoice(row pgx.Row) (*models.Invoice, error) {
	i := &models.Invoice{}
	err := row.Scan(&i.ID, &i.TenantID, &i.ReservationID, &i.CustomerID, &i.InvoiceNumber, &i.LineItems, &i.Subtotal, &i.TaxRate,
		&i.TaxAmount, &i.Total, &i.DepositCredit, &i.AmountPaid, &i.AmountRefunded, &i.Status, &i.PDFObjectKey, &i.IssuedAt,
		&i.DueDate, &i.CreatedAt, &i.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return i, nil
}

// nextInvoiceNumber bumps the tenant's monthly sequence and formats
// INV-<last 8 of tenant id>-YYYY-MM-NNNNNN.
func nextInvoiceNumber(ctx context.Context, q querier, tenantID uuid.UUID, at time.Time) (string, error) {
	period := at.UTC().Format("2006-01")
	query := `
		INSERT INTO invoice_sequences (tenant_id, period, last_value)
		VALUES ($1, $2, 1)
		ON CONFLICT (tenant_id, period)
		DO UPDATE SET last_value = invoice_sequences.last_value + 1
		RETURNING last_value
	`
	var seq int
	if err := q.QueryRow(ctx, query, tenantID, period).Scan(&seq); err != nil {
		return "", fmt.Errorf("failed to generate invoice sequence: %w", err)
	}
	id := tenantID.String()
	return fmt.Sprintf("INV-%s-%s-%06d", id[len(id)-8:], period, seq), nil
}

// Create assigns the invoice number and inserts the invoice in one transaction.
func (r *invoiceRepo) Create(ctx context.Context, scope tenancy.Scope, inv *models.Invoice) (err error) {
	tenantID, err := scope.Require()
	if err != nil {
		return err
	}
	inv.TenantID = tenantID

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if inv.InvoiceNumber, err = nextInvoiceNumber(ctx, tx, tenantID, time.Now()); err != nil {
		return err
	}

	query := `
		INSERT INTO invoices (id, tenant_id, reservation_id, customer_id, invoice_number, line_items, subtotal, tax_rate, tax_amount,
		                      total, deposit_credit, amount_paid, amount_refunded, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	err = tx.QueryRow(ctx, query, inv.ID, tenantID, inv.ReservationID, inv.CustomerID, inv.InvoiceNumber, inv.LineItems,
		inv.Subtotal, inv.TaxRate, inv.TaxAmount, inv.Total, inv.DepositCredit, inv.AmountPaid, inv.AmountRefunded, inv.Status).
		Scan(&inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return mapErr(err, common.ErrInvoiceNotFound)
	}

	return tx.Commit(ctx)
}

func (r *invoiceRepo) GetByID(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (*models.Invoice, error) {
	tenantID, err := scope.Require()
	if err != nil {
		return nil, err
	}
	inv, err := scanInvoice(r.db.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE tenant_id = $1 AND id = $2`, tenantID, id))
	if err != nil {
		return nil, mapErr(err, common.ErrInvoiceNotFound)
	}
	return inv, nil
}

// GetByReservation returns the reservation's live (non-void) invoice.
func (r *invoiceRepo) GetByReservation(ctx context.Context, scope tenancy.Scope, reservationID uuid.UUID) (*models.Invoice, error) {
	tenantID, err := scope.Require()
	if err != nil {
		return nil, err
	}
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE tenant_id = $1 AND reservation_id = $2 AND status <> 'VOID'`
	inv, err := scanInvoice(r.db.QueryRow(ctx, query, tenantID, reservationID))
	if err != nil {
		return nil, mapErr(err, common.ErrInvoiceNotFound)
	}
	return inv, nil
}

// UpdateDraft rewrites line items and totals. Only drafts change; anything else is ErrInvoiceFinalized.
func (r *invoiceRepo) UpdateDraft(ctx context.Context, scope tenancy.Scope, inv *models.Invoice) error {
	tenantID, err := scope.Require()
	if err != nil {
		return err
	}
	query := `
		UPDATE invoices
		SET line_items = $1, subtotal = $2, tax_rate = $3, tax_amount = $4, total = $5, deposit_credit = $6, updated_at = NOW()
		WHERE tenant_id = $7 AND id = $8 AND status = 'DRAFT'
	`
	tag, err := r.db.Exec(ctx, query, inv.LineItems, inv.Subtotal, inv.TaxRate, inv.TaxAmount, inv.Total, inv.DepositCredit, tenantID, inv.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return r.notDraft(ctx, scope, inv.ID)
	}
	return nil
}

func (r *invoiceRepo) Finalize(ctx context.Context, scope tenancy.Scope, id uuid.UUID, issuedAt, dueDate time.Time) error {
	tenantID, err := scope.Require()
	if err != nil {
		return err
	}
	query := `
		UPDATE invoices
		SET status = 'FINALIZED', issued_at = $1, due_date = $2, updated_at = NOW()
		WHERE tenant_id = $3 AND id = $4 AND status = 'DRAFT'
	`
	tag, err := r.db.Exec(ctx, query, issuedAt, dueDate, tenantID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return r.notDraft(ctx, scope, id)
	}
	return nil
}

// MarkPaid settles a finalized invoice whose balance is already covered.
func (r *invoiceRepo) MarkPaid(ctx context.Context, scope tenancy.Scope, id uuid.UUID) error {
	tenantID, err := scope.Require()
	if err != nil {
		return err
	}
	query := `
		UPDATE invoices
		SET status = 'PAID', updated_at = NOW()
		WHERE tenant_id = $1 AND id = $2 AND status = 'FINALIZED'
	`
	tag, err := r.db.Exec(ctx, query, tenantID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.GetByID(ctx, scope, id); err != nil {
			return err
		}
		return &common.ConflictError{Message: "invoice is not finalized"}
	}
	return nil
}

// Void cancels an invoice that has taken no money.
func (r *invoiceRepo) Void(ctx context.Context, scope tenancy.Scope, id uuid.UUID) error {
	tenantID, err := scope.Require()
	if err != nil {
		return err
	}
	query := `
		UPDATE invoices
		SET status = 'VOID', updated_at = NOW()
		WHERE tenant_id = $1 AND id = $2 AND status IN ('DRAFT', 'FINALIZED') AND amount_paid = 0
	`
	tag, err := r.db.Exec(ctx, query, tenantID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.GetByID(ctx, scope, id); err != nil {
			return err
		}
		return &common.ConflictError{Message: "invoice cannot be voided"}
	}
	return nil
}

func (r *invoiceRepo) notDraft(ctx context.Context, scope tenancy.Scope, id uuid.UUID) error {
	if _, err := r.GetByID(ctx, scope, id); err != nil {
		return err
	}
	return common.ErrInvoiceFinalized
}

func (r *invoiceRepo) SetPDFKey(ctx context.Context, scope tenancy.Scope, id uuid.UUID, objectKey string) error {
	tenantID, err := scope.Require()
	if err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, `UPDATE invoices SET pdf_object_key = $1, updated_at = NOW() WHERE tenant_id = $2 AND id = $3`,
		objectKey, tenantID, id)
	if err != nil {
		return err
	}
	return affected(tag, common.ErrInvoiceNotFound)
}

func (r *invoiceRepo) List(ctx context.Context, scope tenancy.Scope, status string, customerID *uuid.UUID, limit, offset int) ([]*models.Invoice, int, error) {
	tenantID, err := scope.Require()
	if err != nil {
		return nil, 0, err
	}
	where := `WHERE tenant_id = $1`
	args := []any{tenantID}
	if status != "" {
		args = append(args, status)
		where += fmt.Sprintf(` AND status = $%d`, len(args))
	}
	if customerID != nil {
		args = append(args, *customerID)
		where += fmt.Sprintf(` AND customer_id = $%d`, len(args))
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM invoices `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	query := fmt.Sprintf(`SELECT %s FROM invoices %s ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d`, invoiceColumns, where, len(args)-1, len(args))
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	invoices := []*models.Invoice{}
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, 0, err
		}
		invoices = append(invoices, inv)
	}
	return invoices, total, rows.Err()
}

// RecordPayment locks the invoice, lets apply validate the payment and adjust the
// invoice totals and status, then stores both. apply errors abort the transaction.
func (r *invoiceRepo) RecordPayment(ctx context.Context, scope tenancy.Scope, p *models.Payment, apply func(invoice *models.Invoice) error) (inv *models.Invoice, err error) {
	tenantID, err := scope.Require()
	if err != nil {
		return nil, err
	}
	p.TenantID = tenantID

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	inv, err = scanInvoice(tx.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE tenant_id = $1 AND id = $2 FOR UPDATE`,
		tenantID, p.InvoiceID))
	if err != nil {
		return nil, mapErr(err, common.ErrInvoiceNotFound)
	}

	if err = apply(inv); err != nil {
		return nil, err
	}

	query := `
		INSERT INTO payments (id, tenant_id, invoice_id, amount, method, kind, reference, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		RETURNING created_at
	`
	if err = tx.QueryRow(ctx, query, p.ID, tenantID, p.InvoiceID, p.Amount, p.Method, p.Kind, p.Reference, p.CreatedBy).
		Scan(&p.CreatedAt); err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx, `
		UPDATE invoices
		SET amount_paid = $1, amount_refunded = $2, deposit_credit = $3, status = $4, updated_at = NOW()
		WHERE tenant_id = $5 AND id = $6`,
		inv.AmountPaid, inv.AmountRefunded, inv.DepositCredit, inv.Status, tenantID, inv.ID)
	if err != nil {
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, err
	}
	return inv, nil
}

func (r *invoiceRepo) ListPayments(ctx context.Context, scope tenancy.Scope, invoiceID uuid.UUID) ([]*models.Payment, error) {
	tenantID, err := scope.Require()
	if err != nil {
		return nil, err
	}
	query := `
		SELECT id, tenant_id, invoice_id, amount, method, kind, reference, created_by, created_at
		FROM payments
		WHERE tenant_id = $1 AND invoice_id = $2
		ORDER BY created_at, id
	`
	rows, err := r.db.Query(ctx, query, tenantID, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payments := []*models.Payment{}
	for rows.Next() {
		p := &models.Payment{}
		if err := rows.Scan(&p.ID, &p.TenantID, &p.InvoiceID, &p.Amount, &p.Method, &p.Kind, &p.Reference, &p.CreatedBy, &p.CreatedAt); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}
