// Package invoicepdf lays invoices out as single-page A4 PDF documents.
package invoicepdf

import (
	"bytes"
	"fmt"

	"github.com/phpdave11/gofpdf"

	"service-marketplace-api/internal/entity"
)

const (
	descriptionWidth = 60
	paymentTerms     = "Payment due within 30 days of the invoice date."
)

type Renderer struct {
	// Issuer is printed in the header, typically the marketplace name.
	Issuer string
}

func New(issuer string) *Renderer {
	return &Renderer{Issuer: issuer}
}

// truncate cuts s to max runes, marking the cut with "...".
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}

	return string(r[:max-3]) + "..."
}

func (r *Renderer) Render(doc *entity.InvoiceDocument) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Invoice "+doc.InvoiceId, true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(0, 12, "Invoice", "", 1, "L", false, 0, "")
	if r.Issuer != "" {
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(0, 6, tr(r.Issuer), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, "Invoice no. "+doc.InvoiceId, "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Date: "+doc.IssuedAt.Format("2006-01-02"), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(95, 6, "From", "", 0, "L", false, 0, "")
	pdf.CellFormat(95, 6, "Bill to", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(95, 6, tr(doc.ProviderName), "", 0, "L", false, 0, "")
	pdf.CellFormat(95, 6, tr(doc.ClientName), "", 1, "L", false, 0, "")
	pdf.Ln(8)

	description := doc.ProjectTitle
	if doc.ProjectDescription != "" {
		description += " - " + doc.ProjectDescription
	}
	total := fmt.Sprintf("%s %s", doc.Amount.StringFixed(2), doc.Currency)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(130, 8, "Description", "1", 0, "L", true, 0, "")
	pdf.CellFormat(20, 8, "Qty", "1", 0, "C", true, 0, "")
	pdf.CellFormat(40, 8, "Amount", "1", 1, "R", true, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(130, 8, tr(truncate(description, descriptionWidth)), "1", 0, "L", false, 0, "")
	pdf.CellFormat(20, 8, "1", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 8, total, "1", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(150, 10, "Total", "", 0, "R", false, 0, "")
	pdf.CellFormat(40, 10, total, "", 1, "R", false, 0, "")
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "", 9)
	if doc.Note != "" {
		pdf.MultiCell(0, 5, tr(doc.Note), "", "L", false)
		pdf.Ln(2)
	}
	pdf.MultiCell(0, 5, paymentTerms, "", "L", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("invoicepdf: %w", err)
	}

	return buf.Bytes(), nil
}
