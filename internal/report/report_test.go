package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"fintrack/internal/core"
)

func day(s string) time.Time {
	t, _ := core.ParseDay(s)
	return t
}

func fixture() []core.Transaction {
	// Store order: newest first.
	return []core.Transaction{
		{Date: day("2024-03-10"), Amount: decimal.RequireFromString("40"), Category: "Food", Type: core.Expense, Description: "Dinner"},
		{Date: time.Date(2024, 3, 5, 23, 59, 0, 0, time.UTC), Amount: decimal.NewFromInt(2000), Category: "Salary", Type: core.Income},
		{Date: day("2024-03-01"), Amount: decimal.RequireFromString("12.5"), Category: "Transport", Type: core.Expense},
		{Date: day("2024-02-28"), Amount: decimal.NewFromInt(99), Category: "Food", Type: core.Expense},
	}
}

func TestFilterRange(t *testing.T) {
	got := FilterRange(fixture(), day("2024-03-01"), day("2024-03-05"))
	require.Len(t, got, 2)
	assert.Equal(t, "2024-03-05", got[0].DayKey())
	assert.Equal(t, "2024-03-01", got[1].DayKey())

	assert.Empty(t, FilterRange(fixture(), day("2025-01-01"), day("2025-12-31")))
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatPDF, f)

	f, err = ParseFormat("XLSX")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, f)

	_, err = ParseFormat("docx")
	assert.Error(t, err)
}

func TestFileName(t *testing.T) {
	d := NewDocument(nil, day("2024-03-01"), day("2024-03-31"), time.Now())
	assert.Equal(t, "Finance_Report_2024-03-01_to_2024-03-31.pdf", d.FileName(FormatPDF))
	assert.Equal(t, "Finance_Report_2024-03-01_to_2024-03-31.xlsx", d.FileName(FormatXLSX))
}

func TestWritePDF(t *testing.T) {
	d := NewDocument(fixture(), day("2024-02-01"), day("2024-03-31"), time.Now())
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, d, FormatPDF))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	assert.Greater(t, buf.Len(), 500)
}

func TestWritePDFManyRowsPaginates(t *testing.T) {
	var txs []core.Transaction
	for i := 0; i < 120; i++ {
		txs = append(txs, core.Transaction{Date: day("2024-03-01"), Amount: decimal.NewFromInt(int64(i + 1)), Category: "Misc", Type: core.Expense})
	}
	var buf bytes.Buffer
	require.NoError(t, WritePDF(&buf, NewDocument(txs, day("2024-03-01"), day("2024-03-01"), time.Now())))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestWriteXLSX(t *testing.T) {
	d := NewDocument(fixture(), day("2024-02-01"), day("2024-03-31"), time.Now())
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, d, FormatXLSX))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{transactionsSheet, summarySheet}, f.GetSheetList())

	header, err := f.GetCellValue(transactionsSheet, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Date", header)

	date, _ := f.GetCellValue(transactionsSheet, "A2")
	typ, _ := f.GetCellValue(transactionsSheet, "D2")
	assert.Equal(t, "2024-03-10", date)
	assert.Equal(t, "EXPENSE", typ)

	rows, err := f.GetRows(transactionsSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 1+len(fixture()))

	label, _ := f.GetCellValue(summarySheet, "A5")
	balance, _ := f.GetCellValue(summarySheet, "B5")
	assert.Equal(t, "Balance", label)
	assert.Equal(t, "1848.5", balance)
}
