package services

import (
	"bytes"
	"fmt"

	"tailtown/internal/models"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
)

// renderInvoicePDF lays out an A4 invoice with line items, totals and payment state.
func renderInvoicePDF(tenant *models.Tenant, customer *models.Customer, invoice *models.Invoice) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	marginX := 15.0
	marginY := 20.0
	pdf.SetMargins(marginX, marginY, marginX)
	pdf.SetAutoPageBreak(true, marginY)

	pdf.SetFont("Arial", "B", 16)
	pdf.SetTextColor(33, 37, 41)
	pdf.SetXY(marginX, marginY)
	pdf.Cell(0, 10, tenant.Name)
	pdf.Ln(12)

	pdf.SetFont("Arial", "B", 11)
	pdf.Cell(0, 7, fmt.Sprintf("Invoice %s", invoice.InvoiceNumber))
	pdf.Ln(7)
	pdf.SetFont("Arial", "", 10)
	if invoice.IssuedAt != nil {
		pdf.Cell(0, 6, fmt.Sprintf("Issued: %s", invoice.IssuedAt.Format("02 Jan 2006")))
		pdf.Ln(6)
	}
	if invoice.DueDate != nil {
		pdf.Cell(0, 6, fmt.Sprintf("Due: %s", invoice.DueDate.Format("02 Jan 2006")))
		pdf.Ln(6)
	}
	pdf.Cell(0, 6, fmt.Sprintf("Status: %s", invoice.Status))
	pdf.Ln(10)

	pdf.SetFont("Arial", "B", 11)
	pdf.Cell(0, 7, "BILL TO:")
	pdf.Ln(6)
	pdf.SetFont("Arial", "", 10)
	if customer != nil {
		pdf.Cell(0, 6, customer.FirstName+" "+customer.LastName)
		pdf.Ln(6)
		if customer.Email != nil {
			pdf.Cell(0, 6, *customer.Email)
			pdf.Ln(6)
		}
		if customer.Address != nil {
			pdf.Cell(0, 6, *customer.Address)
			pdf.Ln(6)
		}
	}
	pdf.Ln(6)

	colWidths := []float64{90, 25, 30, 35}
	headers := []string{"Description", "Qty", "Unit Price", "Amount"}
	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(240, 240, 240)
	for i, h := range headers {
		pdf.CellFormat(colWidths[i], 8, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(8)

	pdf.SetFont("Arial", "", 10)
	for _, item := range invoice.LineItems {
		pdf.CellFormat(colWidths[0], 8, item.Description, "1", 0, "L", false, 0, "")
		pdf.CellFormat(colWidths[1], 8, item.Quantity.String(), "1", 0, "C", false, 0, "")
		pdf.CellFormat(colWidths[2], 8, item.UnitPrice.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.CellFormat(colWidths[3], 8, item.Amount.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.Ln(8)
	}
	pdf.Ln(4)

	totals := []struct {
		label string
		value decimal.Decimal
	}{
		{"Subtotal:", invoice.Subtotal},
		{fmt.Sprintf("Tax (%s%%):", invoice.TaxRate.Mul(decimal.NewFromInt(100)).StringFixed(2)), invoice.TaxAmount},
		{"Total:", invoice.Total},
		{"Deposit credit:", invoice.DepositCredit},
		{"Paid:", invoice.AmountPaid},
		{"Refunded:", invoice.AmountRefunded},
	}
	pdf.SetFont("Arial", "", 10)
	for _, t := range totals {
		pdf.CellFormat(145, 6, t.label, "", 0, "R", false, 0, "")
		pdf.CellFormat(35, 6, t.value.StringFixed(2), "", 0, "R", false, 0, "")
		pdf.Ln(6)
	}

	pdf.SetFont("Arial", "B", 11)
	pdf.SetTextColor(220, 20, 60)
	pdf.CellFormat(145, 8, "BALANCE DUE:", "", 0, "R", false, 0, "")
	pdf.CellFormat(35, 8, invoice.BalanceDue().StringFixed(2), "", 0, "R", false, 0, "")
	pdf.Ln(12)

	pdf.SetTextColor(128, 128, 128)
	pdf.SetFont("Arial", "I", 8)
	pdf.Cell(0, 5, "Thank you for staying with us!")
	if tenant.ContactEmail != nil {
		pdf.Ln(5)
		pdf.Cell(0, 5, "Questions: "+*tenant.ContactEmail)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return buf.Bytes(), nil
}
