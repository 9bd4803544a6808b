package aggregate

import (
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

const (
	// DefaultHeatmapWindow is the length of the heatmap grid in days.
	DefaultHeatmapWindow = 365
	// ProjectionDays is the horizon of the spend projection.
	ProjectionDays = 30
	// AverageWindowDays is the trailing window the daily spend rate is averaged over.
	AverageWindowDays = 90
	// MaxWindowDays bounds caller-supplied windows; Dense allocates one entry per day.
	MaxWindowDays = 3660
)

// HeatmapCell is one day of the expense heatmap.
type HeatmapCell struct {
	Date   string
	Amount decimal.Decimal
	Tier   Tier
}

// Heatmap is a dense, gap-free grid of daily expenses.
type Heatmap struct {
	Window int
	Cells  []HeatmapCell
	Max    decimal.Decimal
}

// Forecast is the daily expense series plus a naive projection of the next
// ProjectionDays days at the trailing average rate.
type Forecast struct {
	Series    []DayAmount
	Projected decimal.Decimal
}

// BuildHeatmap aggregates expenses over the trailing window ending at ref.
func BuildHeatmap(txs []core.Transaction, window int, ref time.Time) (Heatmap, error) {
	days, err := Dense(txs, core.Expense, window, ref)
	if err != nil {
		return Heatmap{}, err
	}
	hm := Heatmap{Window: len(days), Cells: make([]HeatmapCell, len(days)), Max: Max(days)}
	for i, d := range days {
		hm.Cells[i] = HeatmapCell{Date: d.Date, Amount: d.Amount, Tier: Classify(d.Amount)}
	}
	return hm, nil
}

// BuildForecast returns the sparse expense series, restricted to the trailing
// days window when days > 0, and the projected spend for the next
// ProjectionDays days.
func BuildForecast(txs []core.Transaction, days int, ref time.Time) (Forecast, error) {
	bucket, err := Sparse(txs, core.Expense)
	if err != nil {
		return Forecast{}, err
	}
	series := bucket.Series()
	if days > 0 {
		window := Window(days, ref)
		series = clip(series, window[0], window[len(window)-1])
	}

	recent, err := Dense(txs, core.Expense, AverageWindowDays, ref)
	if err != nil {
		return Forecast{}, err
	}
	projected := Total(recent).
		Div(decimal.NewFromInt(AverageWindowDays)).
		Mul(decimal.NewFromInt(ProjectionDays)).
		Round(2)

	return Forecast{Series: series, Projected: projected}, nil
}

func clip(series []DayAmount, from, to string) []DayAmount {
	out := make([]DayAmount, 0, len(series))
	for _, d := range series {
		if d.Date >= from && d.Date <= to {
			out = append(out, d)
		}
	}
	return out
}
