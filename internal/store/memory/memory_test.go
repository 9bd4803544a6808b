package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/ports"
)

func mustDay(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := core.ParseDay(s)
	if err != nil {
		t.Fatalf("parse %s: %v", s, err)
	}
	return d
}

func newTx(t *testing.T, user, date, amount string, typ core.TransactionType) core.Transaction {
	t.Helper()
	return core.Transaction{
		UserID:   user,
		Amount:   decimal.RequireFromString(amount),
		Date:     mustDay(t, date),
		Category: "Food",
		Type:     typ,
	}
}

func TestInsertAssignsIDAndValidates(t *testing.T) {
	s := New()
	ctx := context.Background()

	got, err := s.Insert(ctx, newTx(t, "u1", "2024-01-01", "12.50", core.Expense))
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if got.ID == "" || got.CreatedAt.IsZero() {
		t.Fatalf("expected ID and CreatedAt, got %+v", got)
	}

	bad := newTx(t, "u1", "2024-01-01", "0", core.Expense)
	if _, err := s.Insert(ctx, bad); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestListTransactionsScopesAndOrders(t *testing.T) {
	s := New()
	ctx := context.Background()
	for _, tx := range []core.Transaction{
		newTx(t, "u1", "2024-01-03", "3", core.Expense),
		newTx(t, "u1", "2024-01-01", "1", core.Expense),
		newTx(t, "u1", "2024-01-02", "2", core.Income),
		newTx(t, "u2", "2024-01-02", "99", core.Expense),
	} {
		if _, err := s.Insert(ctx, tx); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	all, _ := s.ListTransactions(ctx, ports.TransactionQuery{UserID: "u1"})
	if len(all) != 3 || core.DayKey(all[0].Date) != "2024-01-03" {
		t.Fatalf("default order should be newest first, got %v", all)
	}

	asc, _ := s.ListTransactions(ctx, ports.TransactionQuery{UserID: "u1", Order: ports.OrderAsc})
	if core.DayKey(asc[0].Date) != "2024-01-01" {
		t.Fatalf("ascending order wrong: %v", asc)
	}

	expenses, _ := s.ListTransactions(ctx, ports.TransactionQuery{UserID: "u1", Type: core.Expense})
	if len(expenses) != 2 {
		t.Fatalf("type filter: got %d", len(expenses))
	}

	ranged, _ := s.ListTransactions(ctx, ports.TransactionQuery{
		UserID: "u1",
		Since:  mustDay(t, "2024-01-02"),
		Until:  mustDay(t, "2024-01-02"),
	})
	if len(ranged) != 1 || ranged[0].Type != core.Income {
		t.Fatalf("inclusive range: got %v", ranged)
	}

	limited, _ := s.ListTransactions(ctx, ports.TransactionQuery{UserID: "u1", Limit: 2})
	if len(limited) != 2 {
		t.Fatalf("limit: got %d", len(limited))
	}
}

func TestDeleteIsScopedToOwner(t *testing.T) {
	s := New()
	ctx := context.Background()
	tx, _ := s.Insert(ctx, newTx(t, "u1", "2024-01-01", "5", core.Expense))

	if err := s.Delete(ctx, "intruder", tx.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign delete, got %v", err)
	}
	if err := s.Delete(ctx, "u1", tx.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.GetTransaction(ctx, tx.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestSyncTracking(t *testing.T) {
	s := New()
	ctx := context.Background()
	a, _ := s.Insert(ctx, newTx(t, "u1", "2024-01-01", "5", core.Expense))
	s.Insert(ctx, newTx(t, "u1", "2024-01-02", "6", core.Expense))

	pending, _ := s.ListUnsynced(ctx, 10)
	if len(pending) != 2 {
		t.Fatalf("expected 2 unsynced, got %d", len(pending))
	}
	s.MarkSynced(ctx, a.ID)
	pending, _ = s.ListUnsynced(ctx, 10)
	if len(pending) != 1 || pending[0].ID == a.ID {
		t.Fatalf("unexpected unsynced after mark: %v", pending)
	}
}

func TestGoals(t *testing.T) {
	s := New()
	ctx := context.Background()

	g, err := s.CreateGoal(ctx, core.Goal{UserID: "u1", Title: "Bike", TargetAmount: decimal.NewFromInt(500)})
	if err != nil {
		t.Fatalf("CreateGoal: %v", err)
	}
	if !g.CurrentAmount.IsZero() {
		t.Fatalf("new goal should start at zero, got %s", g.CurrentAmount)
	}

	g, err = s.AddSavings(ctx, "u1", g.ID, decimal.NewFromInt(120))
	if err != nil {
		t.Fatalf("AddSavings: %v", err)
	}
	g, _ = s.AddSavings(ctx, "u1", g.ID, decimal.RequireFromString("30.5"))
	if !g.CurrentAmount.Equal(decimal.RequireFromString("150.5")) {
		t.Fatalf("current amount = %s", g.CurrentAmount)
	}

	if _, err := s.AddSavings(ctx, "u2", g.ID, decimal.NewFromInt(1)); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("foreign AddSavings should be not found, got %v", err)
	}

	goals, _ := s.ListGoals(ctx, "u1")
	if len(goals) != 1 {
		t.Fatalf("ListGoals: got %d", len(goals))
	}
	if other, _ := s.ListGoals(ctx, "u2"); other == nil || len(other) != 0 {
		t.Fatalf("expected empty non-nil list, got %v", other)
	}

	if err := s.DeleteGoal(ctx, "u1", g.ID); err != nil {
		t.Fatalf("DeleteGoal: %v", err)
	}
	if err := s.DeleteGoal(ctx, "u1", g.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("second delete should be not found, got %v", err)
	}
}

func TestNewFromFileSeeds(t *testing.T) {
	dir := t.TempDir()

	s, err := NewFromFile(filepath.Join(dir, "missing.json"))
	if err != nil {
		t.Fatalf("missing seed file should be empty store, got %v", err)
	}
	if all, _ := s.ListTransactions(context.Background(), ports.TransactionQuery{UserID: "u1"}); len(all) != 0 {
		t.Fatalf("expected empty store")
	}

	path := filepath.Join(dir, "seed.json")
	content := `{
	  "transactions": [
	    {"user_id": "u1", "amount": "12,50", "date": "2024-02-01", "category": "Food", "type": "Expense"},
	    {"user_id": "u1", "amount": "2000", "date": "2024-02-01T09:00:00Z", "category": "Salary", "type": "income"}
	  ],
	  "goals": [
	    {"user_id": "u1", "title": "Trip", "target_amount": "900", "current_amount": "100"}
	  ]
	}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}

	s, err = NewFromFile(path)
	if err != nil {
		t.Fatalf("NewFromFile: %v", err)
	}
	txs, _ := s.ListTransactions(context.Background(), ports.TransactionQuery{UserID: "u1"})
	if len(txs) != 2 {
		t.Fatalf("expected 2 seeded transactions, got %d", len(txs))
	}
	goals, _ := s.ListGoals(context.Background(), "u1")
	if len(goals) != 1 || !goals[0].CurrentAmount.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("unexpected goals %v", goals)
	}

	if err := os.WriteFile(path, []byte(`{"transactions":[{"amount":"x"}]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFromFile(path); err == nil {
		t.Fatal("expected error for malformed seed")
	}
}
