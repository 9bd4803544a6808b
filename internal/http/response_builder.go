package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/aggregate"
	"fintrack/internal/core"
	"fintrack/internal/insight"
	applog "fintrack/internal/log"
	"fintrack/internal/report"
	"fintrack/internal/services"
)

// money renders an amount as a JSON number with two decimals.
func money(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(2))
}

type transactionJSON struct {
	ID          string      `json:"id"`
	UserID      string      `json:"user_id"`
	Amount      json.Number `json:"amount"`
	Date        string      `json:"date"`
	Category    string      `json:"category"`
	Type        string      `json:"type"`
	Description string      `json:"description"`
	CreatedAt   string      `json:"created_at,omitempty"`
}

func toTransactionJSON(tx core.Transaction) transactionJSON {
	out := transactionJSON{
		ID:          tx.ID,
		UserID:      tx.UserID,
		Amount:      money(tx.Amount),
		Date:        tx.Date.UTC().Format(time.RFC3339),
		Category:    tx.Category,
		Type:        tx.Type.String(),
		Description: tx.Description,
	}
	if !tx.CreatedAt.IsZero() {
		out.CreatedAt = tx.CreatedAt.UTC().Format(time.RFC3339)
	}
	return out
}

type goalJSON struct {
	ID            string      `json:"id"`
	Title         string      `json:"title"`
	TargetAmount  json.Number `json:"target_amount"`
	CurrentAmount json.Number `json:"current_amount"`
	Deadline      *string     `json:"deadline"`
	Progress      json.Number `json:"progress"`
	Reached       bool        `json:"reached"`
	CreatedAt     string      `json:"created_at,omitempty"`
}

func toGoalJSON(g core.Goal) goalJSON {
	out := goalJSON{
		ID:            g.ID,
		Title:         g.Title,
		TargetAmount:  money(g.TargetAmount),
		CurrentAmount: money(g.CurrentAmount),
		Progress:      json.Number(g.Progress().StringFixed(4)),
		Reached:       g.Reached(),
	}
	if g.Deadline != nil {
		d := core.DayKey(*g.Deadline)
		out.Deadline = &d
	}
	if !g.CreatedAt.IsZero() {
		out.CreatedAt = g.CreatedAt.UTC().Format(time.RFC3339)
	}
	return out
}

type dayJSON struct {
	Date   string      `json:"date"`
	Amount json.Number `json:"amount"`
}

type forecastJSON struct {
	Forecast     []dayJSON   `json:"forecast"`
	Projected30d json.Number `json:"projected_30d"`
}

func toForecastJSON(f aggregate.Forecast) forecastJSON {
	out := forecastJSON{Forecast: make([]dayJSON, len(f.Series)), Projected30d: money(f.Projected)}
	for i, d := range f.Series {
		out.Forecast[i] = dayJSON{Date: d.Date, Amount: money(d.Amount)}
	}
	return out
}

type heatCellJSON struct {
	Date   string      `json:"date"`
	Amount json.Number `json:"amount"`
	Tier   string      `json:"tier"`
}

type heatmapJSON struct {
	Days   []heatCellJSON `json:"days"`
	Max    json.Number    `json:"max"`
	Window int            `json:"window"`
}

func toHeatmapJSON(h aggregate.Heatmap) heatmapJSON {
	out := heatmapJSON{Days: make([]heatCellJSON, len(h.Cells)), Max: money(h.Max), Window: h.Window}
	for i, c := range h.Cells {
		out.Days[i] = heatCellJSON{Date: c.Date, Amount: money(c.Amount), Tier: c.Tier.String()}
	}
	return out
}

type categoryJSON struct {
	Name   string      `json:"name"`
	Amount json.Number `json:"amount"`
}

type summaryJSON struct {
	TotalIncome       json.Number    `json:"total_income"`
	TotalExpense      json.Number    `json:"total_expense"`
	Balance           json.Number    `json:"balance"`
	ExpenseByCategory []categoryJSON `json:"expense_by_category"`
}

func toSummaryJSON(s core.Summary) summaryJSON {
	out := summaryJSON{
		TotalIncome:       money(s.TotalIncome),
		TotalExpense:      money(s.TotalExpense),
		Balance:           money(s.Balance),
		ExpenseByCategory: make([]categoryJSON, len(s.ExpenseByCategory)),
	}
	for i, c := range s.ExpenseByCategory {
		out.ExpenseByCategory[i] = categoryJSON{Name: c.Name, Amount: money(c.Amount)}
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("Failed to encode response", applog.FieldError, err)
	}
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errUnauthorized), errors.Is(err, core.ErrMissingUser):
		return http.StatusUnauthorized
	case errors.Is(err, core.ErrNotFound), errors.Is(err, services.ErrNoTransactions):
		return http.StatusNotFound
	case errors.Is(err, errBadRequest),
		errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidType),
		errors.Is(err, core.ErrMalformedDate),
		errors.Is(err, core.ErrEmptyCategory),
		errors.Is(err, core.ErrEmptyTitle),
		errors.Is(err, core.ErrTooLong),
		errors.Is(err, services.ErrInvalidRange),
		errors.Is(err, report.ErrUnsupportedFormat):
		return http.StatusUnprocessableEntity
	case errors.Is(err, insight.ErrUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// writeError answers {"error": "..."}. Internal failures are logged and
// their details are not sent to the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	switch status {
	case http.StatusInternalServerError:
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			applog.NewFields().WithError(err).ToSlice()...)
		msg = "internal error"
	case http.StatusNotFound:
		if errors.Is(err, services.ErrNoTransactions) {
			msg = services.ErrNoTransactions.Error()
		} else {
			msg = "not found"
		}
	case http.StatusUnauthorized:
		msg = errUnauthorized.Error()
	}
	writeJSON(w, status, map[string]string{"error": msg})
}
