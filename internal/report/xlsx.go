package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const (
	transactionsSheet = "Transactions"
	summarySheet      = "Summary"
)

// WriteXLSX renders a workbook with a Transactions sheet and a Summary sheet.
func WriteXLSX(w io.Writer, d Document) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), transactionsSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	for i, name := range columns {
		if err := setCell(f, transactionsSheet, i+1, 1, name); err != nil {
			return err
		}
	}
	for r, tx := range d.Transactions {
		values := []any{tx.DayKey(), tx.Category, tx.Description, row(tx)[3], tx.Amount.InexactFloat64()}
		for c, v := range values {
			if err := setCell(f, transactionsSheet, c+1, r+2, v); err != nil {
				return err
			}
		}
	}

	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("create summary sheet: %w", err)
	}
	summary := [][]any{
		{"Period", d.From + " to " + d.To},
		{"Transactions", len(d.Transactions)},
		{"Total income", d.Summary.TotalIncome.InexactFloat64()},
		{"Total expense", d.Summary.TotalExpense.InexactFloat64()},
		{"Balance", d.Summary.Balance.InexactFloat64()},
		{},
		{"Category", "Expense"},
	}
	for _, c := range d.Summary.ExpenseByCategory {
		summary = append(summary, []any{c.Name, c.Amount.InexactFloat64()})
	}
	for r, line := range summary {
		for c, v := range line {
			if err := setCell(f, summarySheet, c+1, r+1, v); err != nil {
				return err
			}
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

func setCell(f *excelize.File, sheet string, col, row int, v any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	return f.SetCellValue(sheet, cell, v)
}
