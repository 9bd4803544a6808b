package report

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"

	"fintrack/internal/core"
)

// Column widths in mm; they sum to the A4 printable width at 10mm margins.
var pdfWidths = []float64{28, 38, 72, 24, 28}

// WritePDF renders an A4 portrait table of the document's transactions.
func WritePDF(w io.Writer, d Document) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AliasNbPages("")
	pdf.SetTitle("Financial Transaction Report", true)
	pdf.SetCreator("fintrack", true)

	first := true
	pdf.SetHeaderFunc(func() {
		if first {
			pdf.SetFont("Helvetica", "B", 16)
			pdf.CellFormat(0, 10, "Financial Transaction Report", "", 1, "L", false, 0, "")
			pdf.SetFont("Helvetica", "", 11)
			pdf.CellFormat(0, 7, fmt.Sprintf("Period: %s to %s", d.From, d.To), "", 1, "L", false, 0, "")
			pdf.Ln(3)
			first = false
		}
		tableHeader(pdf)
	})
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 8, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()
	pdf.SetFont("Helvetica", "", 9)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	for _, tx := range d.Transactions {
		for i, cell := range row(tx) {
			align := "L"
			if i == len(pdfWidths)-1 {
				align = "R"
			}
			pdf.CellFormat(pdfWidths[i], 7, tr(truncate(cell, pdfWidths[i])), "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(0, 7, fmt.Sprintf("Total income: %s   Total expense: %s   Balance: %s",
		core.FormatAmount(d.Summary.TotalIncome),
		core.FormatAmount(d.Summary.TotalExpense),
		core.FormatAmount(d.Summary.Balance)), "", 1, "L", false, 0, "")

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return pdf.Output(w)
}

func tableHeader(pdf *fpdf.Fpdf) {
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(41, 128, 185)
	pdf.SetTextColor(255, 255, 255)
	for i, name := range columns {
		pdf.CellFormat(pdfWidths[i], 8, name, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Helvetica", "", 9)
}

// truncate shortens s so it roughly fits a cell of width mm at 9pt.
func truncate(s string, width float64) string {
	limit := int(width / 1.8)
	r := []rune(s)
	if len(r) <= limit || limit < 4 {
		return s
	}
	return string(r[:limit-3]) + "..."
}
