package core

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func validTx() Transaction {
	return Transaction{
		UserID:   "u1",
		Amount:   decimal.NewFromInt(10),
		Date:     time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
		Category: "Food",
		Type:     Expense,
	}
}

func TestTransactionValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Transaction)
		want   error
	}{
		{"valid", func(*Transaction) {}, nil},
		{"missing user", func(tx *Transaction) { tx.UserID = " " }, ErrMissingUser},
		{"bad type", func(tx *Transaction) { tx.Type = "transfer" }, ErrInvalidType},
		{"zero amount", func(tx *Transaction) { tx.Amount = decimal.Zero }, ErrInvalidAmount},
		{"negative amount", func(tx *Transaction) { tx.Amount = decimal.NewFromInt(-3) }, ErrInvalidAmount},
		{"zero date", func(tx *Transaction) { tx.Date = time.Time{} }, ErrMalformedDate},
		{"empty category", func(tx *Transaction) { tx.Category = "" }, ErrEmptyCategory},
		{"long description", func(tx *Transaction) { tx.Description = strings.Repeat("x", 201) }, ErrTooLong},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tx := validTx()
			tc.mutate(&tx)
			err := tx.Validate()
			if tc.want == nil && err != nil {
				t.Fatalf("expected ok, got %v", err)
			}
			if tc.want != nil && !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestParseTransactionType(t *testing.T) {
	if got, err := ParseTransactionType(" Expense "); err != nil || got != Expense {
		t.Fatalf("got %q, %v", got, err)
	}
	if got, err := ParseTransactionType("INCOME"); err != nil || got != Income {
		t.Fatalf("got %q, %v", got, err)
	}
	if _, err := ParseTransactionType("refund"); !errors.Is(err, ErrInvalidType) {
		t.Fatalf("expected ErrInvalidType, got %v", err)
	}
}

func TestGoalValidateAndProgress(t *testing.T) {
	g := Goal{UserID: "u1", Title: "Bike", TargetAmount: decimal.NewFromInt(200), CurrentAmount: decimal.NewFromInt(50)}
	if err := g.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if !g.Progress().Equal(decimal.RequireFromString("0.25")) {
		t.Fatalf("progress = %s", g.Progress())
	}
	g.CurrentAmount = decimal.NewFromInt(500)
	if !g.Progress().Equal(decimal.NewFromInt(1)) || !g.Reached() {
		t.Fatalf("expected capped progress and reached goal")
	}
	if err := (Goal{UserID: "u1", TargetAmount: decimal.NewFromInt(1)}).Validate(); !errors.Is(err, ErrEmptyTitle) {
		t.Fatalf("expected ErrEmptyTitle, got %v", err)
	}
	if err := (Goal{UserID: "u1", Title: "x"}).Validate(); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestParseDate(t *testing.T) {
	want := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, in := range []string{"2024-01-01", "2024-01-01T00:00:00Z", "2024-01-01 00:00:00", "2024-01-01T01:00:00+01:00"} {
		got, err := ParseDate(in)
		if err != nil || !got.Equal(want) {
			t.Fatalf("ParseDate(%q) = %v, %v", in, got, err)
		}
		if got.Location() != time.UTC {
			t.Fatalf("ParseDate(%q) not in UTC", in)
		}
	}
	for _, in := range []string{"", "yesterday", "2024-13-01", "01/02/2024"} {
		if _, err := ParseDate(in); !errors.Is(err, ErrMalformedDate) {
			t.Fatalf("ParseDate(%q) expected ErrMalformedDate, got %v", in, err)
		}
	}
}

func TestDayKeyUsesUTC(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	ts := time.Date(2024, 1, 1, 22, 0, 0, 0, loc) // 03:00 UTC next day
	if got := DayKey(ts); got != "2024-01-02" {
		t.Fatalf("DayKey = %s", got)
	}
	if got := TruncateDay(ts); !got.Equal(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("TruncateDay = %v", got)
	}
}

func TestSummarize(t *testing.T) {
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	txs := []Transaction{
		{Type: Income, Amount: decimal.NewFromInt(1000), Category: "Salary", Date: day},
		{Type: Expense, Amount: decimal.NewFromInt(30), Category: "Food", Date: day},
		{Type: Expense, Amount: decimal.NewFromInt(-20), Category: "Food", Date: day},
		{Type: Expense, Amount: decimal.NewFromInt(50), Category: "Bills", Date: day},
		{Type: Expense, Amount: decimal.NewFromInt(50), Category: "Arts", Date: day},
	}
	s := Summarize(txs)
	if !s.TotalIncome.Equal(decimal.NewFromInt(1000)) || !s.TotalExpense.Equal(decimal.NewFromInt(150)) {
		t.Fatalf("totals = %s / %s", s.TotalIncome, s.TotalExpense)
	}
	if !s.Balance.Equal(decimal.NewFromInt(850)) {
		t.Fatalf("balance = %s", s.Balance)
	}
	names := []string{}
	for _, c := range s.ExpenseByCategory {
		names = append(names, c.Name)
	}
	if strings.Join(names, ",") != "Arts,Bills,Food" {
		t.Fatalf("order = %v", names)
	}

	empty := Summarize(nil)
	if !empty.Balance.IsZero() || len(empty.ExpenseByCategory) != 0 {
		t.Fatalf("empty summary = %+v", empty)
	}
}
