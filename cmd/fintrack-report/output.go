package main

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"gopkg.in/yaml.v3"

	"fintrack/internal/aggregate"
	"fintrack/internal/core"
	"fintrack/internal/report"
)

type categoryRow struct {
	Name   string `yaml:"name"`
	Amount string `yaml:"amount"`
}

type summaryView struct {
	From       string        `yaml:"from"`
	To         string        `yaml:"to"`
	Income     string        `yaml:"total_income"`
	Expense    string        `yaml:"total_expense"`
	Balance    string        `yaml:"balance"`
	Categories []categoryRow `yaml:"expense_by_category"`
}

type transactionRow struct {
	Date        string `yaml:"date"`
	Type        string `yaml:"type"`
	Category    string `yaml:"category"`
	Description string `yaml:"description,omitempty"`
	Amount      string `yaml:"amount"`
}

type transactionsView struct {
	From         string           `yaml:"from"`
	To           string           `yaml:"to"`
	Transactions []transactionRow `yaml:"transactions"`
}

type dayRow struct {
	Date   string `yaml:"date"`
	Amount string `yaml:"amount"`
	Tier   string `yaml:"tier,omitempty"`
}

type forecastView struct {
	Series    []dayRow `yaml:"series"`
	Projected string   `yaml:"projected_30d"`
}

type heatmapView struct {
	Window int      `yaml:"window"`
	Max    string   `yaml:"max"`
	Days   []dayRow `yaml:"days"`
}

func newSummaryView(doc report.Document) summaryView {
	v := summaryView{
		From:       doc.From,
		To:         doc.To,
		Income:     doc.Summary.TotalIncome.StringFixed(2),
		Expense:    doc.Summary.TotalExpense.StringFixed(2),
		Balance:    doc.Summary.Balance.StringFixed(2),
		Categories: make([]categoryRow, 0, len(doc.Summary.ExpenseByCategory)),
	}
	for _, c := range doc.Summary.ExpenseByCategory {
		v.Categories = append(v.Categories, categoryRow{Name: c.Name, Amount: c.Amount.StringFixed(2)})
	}
	return v
}

func newTransactionsView(doc report.Document) transactionsView {
	v := transactionsView{From: doc.From, To: doc.To, Transactions: make([]transactionRow, 0, len(doc.Transactions))}
	for _, tx := range doc.Transactions {
		v.Transactions = append(v.Transactions, transactionRow{
			Date:        tx.DayKey(),
			Type:        tx.Type.String(),
			Category:    tx.Category,
			Description: tx.Description,
			Amount:      tx.Amount.StringFixed(2),
		})
	}
	return v
}

func newForecastView(f aggregate.Forecast) forecastView {
	v := forecastView{Series: make([]dayRow, 0, len(f.Series)), Projected: f.Projected.StringFixed(2)}
	for _, d := range f.Series {
		v.Series = append(v.Series, dayRow{Date: d.Date, Amount: d.Amount.StringFixed(2)})
	}
	return v
}

func newHeatmapView(hm aggregate.Heatmap) heatmapView {
	v := heatmapView{Window: hm.Window, Max: hm.Max.StringFixed(2), Days: make([]dayRow, 0, len(hm.Cells))}
	for _, c := range hm.Cells {
		v.Days = append(v.Days, dayRow{Date: c.Date, Amount: c.Amount.StringFixed(2), Tier: c.Tier.String()})
	}
	return v
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}

func writeTable(w io.Writer, v any) error {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.Style().Format.Header = text.FormatDefault
	t.Style().Format.Footer = text.FormatDefault

	switch v := v.(type) {
	case summaryView:
		t.SetTitle(fmt.Sprintf("%s to %s", v.From, v.To))
		t.AppendHeader(table.Row{"Category", "Amount"})
		for _, c := range v.Categories {
			t.AppendRow(table.Row{c.Name, c.Amount})
		}
		t.AppendSeparator()
		t.AppendRow(table.Row{"Total income", v.Income})
		t.AppendRow(table.Row{"Total expense", v.Expense})
		t.AppendFooter(table.Row{text.Bold.Sprint("Balance"), text.Bold.Sprint(v.Balance)})
		t.SetColumnConfigs([]table.ColumnConfig{{Number: 2, Align: text.AlignRight}})
	case transactionsView:
		t.SetTitle(fmt.Sprintf("%s to %s", v.From, v.To))
		t.AppendHeader(table.Row{"Date", "Type", "Category", "Description", "Amount"})
		for _, tx := range v.Transactions {
			typ := text.FgRed.Sprint(tx.Type)
			if tx.Type == core.Income.String() {
				typ = text.FgGreen.Sprint(tx.Type)
			}
			t.AppendRow(table.Row{tx.Date, typ, tx.Category, tx.Description, tx.Amount})
		}
		t.AppendFooter(table.Row{"", "", "", "Count", len(v.Transactions)})
		t.SetColumnConfigs([]table.ColumnConfig{{Number: 5, Align: text.AlignRight}})
	case forecastView:
		t.AppendHeader(table.Row{"Date", "Expense"})
		for _, d := range v.Series {
			t.AppendRow(table.Row{d.Date, d.Amount})
		}
		t.AppendFooter(table.Row{text.Bold.Sprint("Next 30 days"), text.Bold.Sprint(v.Projected)})
		t.SetColumnConfigs([]table.ColumnConfig{{Number: 2, Align: text.AlignRight}})
	case heatmapView:
		t.AppendHeader(table.Row{"Date", "Expense", "Tier"})
		for _, d := range v.Days {
			t.AppendRow(table.Row{d.Date, d.Amount, tierColor(d.Tier).Sprint(d.Tier)})
		}
		t.AppendFooter(table.Row{fmt.Sprintf("%d days", v.Window), "Max " + v.Max, ""})
		t.SetColumnConfigs([]table.ColumnConfig{{Number: 2, Align: text.AlignRight}})
	default:
		return fmt.Errorf("no table layout for %T", v)
	}

	t.Render()
	return nil
}

func tierColor(tier string) text.Colors {
	switch tier {
	case aggregate.TierLow.String():
		return text.Colors{text.FgGreen}
	case aggregate.TierMedium.String():
		return text.Colors{text.FgYellow}
	case aggregate.TierHigh.String():
		return text.Colors{text.FgHiRed}
	case aggregate.TierExtreme.String():
		return text.Colors{text.FgRed, text.Bold}
	}
	return text.Colors{text.FgHiBlack}
}
