package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/aggregate"
	"fintrack/internal/core"
	"fintrack/internal/report"
)

func TestTransactionsTable(t *testing.T) {
	txs := []core.Transaction{
		{Date: time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC), Type: core.Income, Category: "Salary", Amount: decimal.NewFromInt(100)},
		{Date: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), Type: core.Expense, Category: "Food", Description: "lunch", Amount: decimal.RequireFromString("12.5")},
	}
	doc := report.NewDocument(txs, txs[1].Date, txs[0].Date, time.Now())
	v := newTransactionsView(doc)
	require.Len(t, v.Transactions, 2)
	assert.Equal(t, "12.50", v.Transactions[1].Amount)

	var out bytes.Buffer
	require.NoError(t, writeTable(&out, v))
	assert.Contains(t, out.String(), "lunch")
	assert.Contains(t, out.String(), "Salary")
}

func TestHeatmapViewCarriesTiers(t *testing.T) {
	hm := aggregate.Heatmap{
		Window: 2,
		Max:    decimal.NewFromInt(1200),
		Cells: []aggregate.HeatmapCell{
			{Date: "2024-01-01", Amount: decimal.Zero, Tier: aggregate.TierNone},
			{Date: "2024-01-02", Amount: decimal.NewFromInt(1200), Tier: aggregate.TierExtreme},
		},
	}
	v := newHeatmapView(hm)
	assert.Equal(t, "1200.00", v.Max)
	assert.Equal(t, "extreme", v.Days[1].Tier)

	var out bytes.Buffer
	require.NoError(t, writeTable(&out, v))
	assert.Contains(t, out.String(), "2 days")
	assert.Contains(t, out.String(), "extreme")
}

func TestWriteTableRejectsUnknownView(t *testing.T) {
	assert.Error(t, writeTable(&bytes.Buffer{}, 42))
}
