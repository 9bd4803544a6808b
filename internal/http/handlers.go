package http

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"fintrack/internal/aggregate"
	"fintrack/internal/core"
	"fintrack/internal/insight"
	applog "fintrack/internal/log"
	"fintrack/internal/report"
	"fintrack/internal/services"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": s.deps.Now().UTC().Format(time.RFC3339),
		"uptime":    s.deps.Now().Sub(s.started).Round(time.Second).String(),
	})
}

// handleReady reports whether the store answers within the store timeout.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
	defer cancel()

	status, code := "ready", http.StatusOK
	checks := map[string]string{}
	if s.deps.Store == nil {
		checks["store"] = "not_configured"
		status, code = "not_ready", http.StatusServiceUnavailable
	} else if err := s.deps.Store.Ping(ctx); err != nil {
		checks["store"] = "failed: " + err.Error()
		status, code = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["store"] = "ok"
	}
	if s.deps.Insight.Enabled() {
		checks["insight"] = "enabled"
	} else {
		checks["insight"] = "disabled"
	}
	checks["rate_limit_clients"] = strconv.Itoa(s.limiter.ActiveClients())

	writeJSON(w, code, map[string]any{
		"status":    status,
		"timestamp": s.deps.Now().UTC().Format(time.RFC3339),
		"checks":    checks,
	})
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	userID, err := resolveUser(r, "")
	if err != nil {
		writeError(w, r, err)
		return
	}
	q, err := parseTransactionQuery(r, userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
	defer cancel()

	txs, err := s.deps.Transactions.List(ctx, q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]transactionJSON, len(txs))
	for i, tx := range txs {
		out[i] = toTransactionJSON(tx)
	}
	writeJSON(w, http.StatusOK, map[string]any{"transactions": out})
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	req, err := parseTransactionRequest(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	userID, err := resolveUser(r, req.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	tx, err := req.toTransaction(userID, s.deps.Now())
	if err != nil {
		writeError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
	defer cancel()
	created, err := s.deps.Transactions.Create(ctx, tx)
	if err != nil {
		writeError(w, r, err)
		return
	}
	applog.FromContext(ctx).InfoContext(ctx, "Transaction created",
		applog.NewFields().
			WithUser(userID).
			WithOperation(applog.OpCreate).
			WithTransaction(created.ID, created.Type.String(), created.Amount.StringFixed(2), created.Category).
			ToSlice()...)
	writeJSON(w, http.StatusCreated, toTransactionJSON(created))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	userID, err := resolveUser(r, "")
	if err != nil {
		writeError(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
	defer cancel()

	id := r.PathValue("id")
	if err := s.deps.Transactions.Delete(ctx, userID, id); err != nil {
		writeError(w, r, err)
		return
	}
	applog.FromContext(ctx).InfoContext(ctx, "Transaction deleted",
		applog.FieldUserID, userID, applog.FieldTxID, id, applog.FieldOperation, applog.OpDelete)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	userID, err := resolveUser(r, "")
	if err != nil {
		writeError(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
	defer cancel()

	summary, err := s.deps.Analytics.Summary(ctx, userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSummaryJSON(summary))
}

// handleForecast accepts days as a query parameter or, on POST, in the body.
func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	var req forecastRequest
	if r.Method == http.MethodPost && isJSON(r) {
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}
	}
	userID, err := resolveUser(r, req.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	days := req.Days
	if days == 0 {
		if days, err = queryInt(r, "days", aggregate.MaxWindowDays); err != nil {
			writeError(w, r, err)
			return
		}
	}
	if days < 0 {
		writeError(w, r, fmt.Errorf("%w: days must not be negative", errBadRequest))
		return
	}
	if err := checkWindow("days", days, aggregate.MaxWindowDays); err != nil {
		writeError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
	defer cancel()
	f, err := s.deps.Analytics.Forecast(ctx, userID, days)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toForecastJSON(f))
}

func (s *Server) handleHeatmap(w http.ResponseWriter, r *http.Request) {
	userID, err := resolveUser(r, "")
	if err != nil {
		writeError(w, r, err)
		return
	}
	window, err := queryInt(r, "window", aggregate.MaxWindowDays)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var ref time.Time
	if v := r.URL.Query().Get("ref"); v != "" {
		if ref, err = core.ParseDay(v); err != nil {
			writeError(w, r, err)
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
	defer cancel()
	hm, err := s.deps.Analytics.Heatmap(ctx, userID, window, ref)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toHeatmapJSON(hm))
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	userID, err := resolveUser(r, "")
	if err != nil {
		writeError(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
	defer cancel()

	goals, err := s.deps.Goals.List(ctx, userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]goalJSON, len(goals))
	for i, g := range goals {
		out[i] = toGoalJSON(g)
	}
	writeJSON(w, http.StatusOK, map[string]any{"goals": out})
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	var req goalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	userID, err := resolveUser(r, req.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	g, err := req.toGoal(userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
	defer cancel()
	created, err := s.deps.Goals.Create(ctx, g)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "goal": toGoalJSON(created)})
}

func (s *Server) handleAddSavings(w http.ResponseWriter, r *http.Request) {
	var req savingsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	userID, err := resolveUser(r, req.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
	defer cancel()
	g, err := s.deps.Goals.AddSavings(ctx, userID, r.PathValue("id"), amount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "goal": toGoalJSON(g)})
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	userID, err := resolveUser(r, "")
	if err != nil {
		writeError(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
	defer cancel()

	if err := s.deps.Goals.Delete(ctx, userID, r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleInsight answers 200 with the fallback text when the model fails and
// 503 only when no model is configured.
func (s *Server) handleInsight(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if isJSON(r) {
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}
	}
	userID, err := resolveUser(r, req.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !s.deps.Insight.Enabled() {
		writeError(w, r, insight.ErrUnavailable)
		return
	}

	storeCtx, cancel := context.WithTimeout(r.Context(), storeTimeout)
	txs, err := s.deps.Analytics.Transactions(storeCtx, userID)
	cancel()
	if err != nil {
		writeError(w, r, err)
		return
	}

	res, err := s.deps.Insight.Generate(r.Context(), txs)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"text": res.Text, "fallback": res.Fallback})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	userID, err := resolveUser(r, "")
	if err != nil {
		writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	format, err := report.ParseFormat(q.Get("format"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
	defer cancel()
	out, err := s.deps.Reports.Generate(ctx, services.ReportRequest{
		UserID: userID,
		From:   strings.TrimSpace(q.Get("from")),
		To:     strings.TrimSpace(q.Get("to")),
		Format: format,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", out.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", out.FileName))
	w.Header().Set("Content-Length", strconv.Itoa(len(out.Data)))
	if out.ArchiveURI != "" {
		w.Header().Set("X-Report-Archive", out.ArchiveURI)
	}
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(out.Data); err != nil {
		applog.FromContext(ctx).WarnContext(ctx, "Failed to write report", applog.FieldError, err)
	}
}
