//go:build integration

package google

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// Requires a real spreadsheet shared with the service account:
// go test -tags=integration ./internal/sheets/google
func TestIntegration_MirrorRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	spreadsheetID := os.Getenv("GOOGLE_SPREADSHEET_ID")
	if spreadsheetID == "" {
		t.Skip("GOOGLE_SPREADSHEET_ID not set, skipping integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	m, err := NewMirror(ctx, spreadsheetID, os.Getenv("GOOGLE_SHEET_NAME"))
	if err != nil {
		t.Fatalf("NewMirror: %v", err)
	}
	if err := m.EnsureHeader(ctx); err != nil {
		t.Fatalf("EnsureHeader: %v", err)
	}

	tx := core.Transaction{
		ID:       uuid.NewString(),
		UserID:   "integration",
		Amount:   decimal.RequireFromString("1.23"),
		Date:     time.Now().UTC(),
		Category: "Test",
		Type:     core.Expense,
	}
	if err := m.AppendTransaction(ctx, tx); err != nil {
		t.Fatalf("AppendTransaction: %v", err)
	}
	if err := m.DeleteTransaction(ctx, tx.ID); err != nil {
		t.Fatalf("DeleteTransaction: %v", err)
	}
}
