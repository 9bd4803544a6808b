package report

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"fintrack/internal/core"
)

// Format is the output document type.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatXLSX Format = "xlsx"
)

var ErrUnsupportedFormat = errors.New("unsupported report format")

func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatPDF:
		return FormatPDF, nil
	case FormatXLSX:
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("%w %q", ErrUnsupportedFormat, s)
}

func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "application/pdf"
}

// Document is a date-bounded set of transactions ready to render.
type Document struct {
	From         string
	To           string
	Transactions []core.Transaction
	Summary      core.Summary
	GeneratedAt  time.Time
}

func NewDocument(txs []core.Transaction, from, to time.Time, now time.Time) Document {
	return Document{
		From:         core.DayKey(from),
		To:           core.DayKey(to),
		Transactions: txs,
		Summary:      core.Summarize(txs),
		GeneratedAt:  now.UTC(),
	}
}

// FileName is Finance_Report_{from}_to_{to} with the format's extension.
func (d Document) FileName(f Format) string {
	return fmt.Sprintf("Finance_Report_%s_to_%s.%s", d.From, d.To, f)
}

// Render writes the document in the requested format.
func Render(w io.Writer, d Document, f Format) error {
	switch f {
	case FormatPDF:
		return WritePDF(w, d)
	case FormatXLSX:
		return WriteXLSX(w, d)
	}
	return fmt.Errorf("%w %q", ErrUnsupportedFormat, f)
}

// FilterRange keeps transactions whose UTC day lies in [from, to], preserving order.
func FilterRange(txs []core.Transaction, from, to time.Time) []core.Transaction {
	lo, hi := core.DayKey(from), core.DayKey(to)
	out := make([]core.Transaction, 0, len(txs))
	for _, tx := range txs {
		if day := tx.DayKey(); day >= lo && day <= hi {
			out = append(out, tx)
		}
	}
	return out
}

var columns = []string{"Date", "Category", "Description", "Type", "Amount"}

func row(tx core.Transaction) []string {
	return []string{
		tx.DayKey(),
		tx.Category,
		tx.Description,
		strings.ToUpper(tx.Type.String()),
		core.FormatAmount(tx.Amount),
	}
}
