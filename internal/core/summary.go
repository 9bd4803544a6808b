package core

import (
	"sort"

	"github.com/shopspring/decimal"
)

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount decimal.Decimal
}

// Summary holds the dashboard totals for a set of transactions.
type Summary struct {
	TotalIncome       decimal.Decimal
	TotalExpense      decimal.Decimal
	Balance           decimal.Decimal
	ExpenseByCategory []CategoryAmount
}

// Summarize computes income/expense totals and the expense breakdown by category.
// Categories are ordered by amount descending, then by name.
func Summarize(txs []Transaction) Summary {
	s := Summary{TotalIncome: decimal.Zero, TotalExpense: decimal.Zero}
	byCat := make(map[string]decimal.Decimal)
	for _, t := range txs {
		amt := NormalizeAmount(t.Amount)
		switch t.Type {
		case Income:
			s.TotalIncome = s.TotalIncome.Add(amt)
		case Expense:
			s.TotalExpense = s.TotalExpense.Add(amt)
			byCat[t.Category] = byCat[t.Category].Add(amt)
		}
	}
	s.Balance = s.TotalIncome.Sub(s.TotalExpense)

	s.ExpenseByCategory = make([]CategoryAmount, 0, len(byCat))
	for name, amt := range byCat {
		s.ExpenseByCategory = append(s.ExpenseByCategory, CategoryAmount{Name: name, Amount: amt})
	}
	sort.Slice(s.ExpenseByCategory, func(i, j int) bool {
		a, b := s.ExpenseByCategory[i], s.ExpenseByCategory[j]
		if c := a.Amount.Cmp(b.Amount); c != 0 {
			return c > 0
		}
		return a.Name < b.Name
	})
	return s
}
