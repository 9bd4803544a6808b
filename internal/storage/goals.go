package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

const goalColumns = `id, user_id, title, target_amount, current_amount, deadline, created_at`

func (r *Repository) CreateGoal(ctx context.Context, g core.Goal) (core.Goal, error) {
	if err := g.Validate(); err != nil {
		return core.Goal{}, err
	}
	g.ID = uuid.NewString()
	g.CreatedAt = r.now()

	var deadline sql.NullString
	if g.Deadline != nil {
		deadline = sql.NullString{String: core.DayKey(*g.Deadline), Valid: true}
	}
	_, err := r.db.ExecContext(ctx, r.rebind(`INSERT INTO goals (`+goalColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`),
		g.ID, g.UserID, g.Title, g.TargetAmount.String(), g.CurrentAmount.String(), deadline, formatTime(g.CreatedAt))
	if err != nil {
		return core.Goal{}, fmt.Errorf("insert goal: %w", err)
	}
	return g, nil
}

func (r *Repository) ListGoals(ctx context.Context, userID string) ([]core.Goal, error) {
	rows, err := r.db.QueryContext(ctx, r.rebind(`SELECT `+goalColumns+` FROM goals WHERE user_id = ? ORDER BY created_at ASC`), userID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	out := []core.Goal{}
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate goals: %w", err)
	}
	return out, nil
}

// AddSavings reads, increments and writes the current amount inside one SQL transaction.
func (r *Repository) AddSavings(ctx context.Context, userID, goalID string, amount decimal.Decimal) (core.Goal, error) {
	sqlTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Goal{}, fmt.Errorf("begin: %w", err)
	}
	defer sqlTx.Rollback()

	row := sqlTx.QueryRowContext(ctx, r.rebind(`SELECT `+goalColumns+` FROM goals WHERE id = ? AND user_id = ?`), goalID, userID)
	g, err := scanGoal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Goal{}, fmt.Errorf("goal %s: %w", goalID, core.ErrNotFound)
	}
	if err != nil {
		return core.Goal{}, err
	}

	g.CurrentAmount = g.CurrentAmount.Add(amount)
	if _, err := sqlTx.ExecContext(ctx, r.rebind(`UPDATE goals SET current_amount = ? WHERE id = ?`), g.CurrentAmount.String(), g.ID); err != nil {
		return core.Goal{}, fmt.Errorf("update goal: %w", err)
	}
	if err := sqlTx.Commit(); err != nil {
		return core.Goal{}, fmt.Errorf("commit: %w", err)
	}
	return g, nil
}

func (r *Repository) DeleteGoal(ctx context.Context, userID, goalID string) error {
	res, err := r.db.ExecContext(ctx, r.rebind(`DELETE FROM goals WHERE id = ? AND user_id = ?`), goalID, userID)
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	return requireAffected(res, "goal", goalID)
}

func scanGoal(s scanner) (core.Goal, error) {
	var (
		g                       core.Goal
		target, current, created string
		deadline                sql.NullString
	)
	if err := s.Scan(&g.ID, &g.UserID, &g.Title, &target, &current, &deadline, &created); err != nil {
		return core.Goal{}, err
	}
	var err error
	if g.TargetAmount, err = decimal.NewFromString(target); err != nil {
		return core.Goal{}, fmt.Errorf("goal %s: target %q: %w", g.ID, target, err)
	}
	if g.CurrentAmount, err = decimal.NewFromString(current); err != nil {
		return core.Goal{}, fmt.Errorf("goal %s: current %q: %w", g.ID, current, err)
	}
	if deadline.Valid {
		d, err := core.ParseDay(deadline.String)
		if err != nil {
			return core.Goal{}, fmt.Errorf("goal %s: %w", g.ID, err)
		}
		g.Deadline = &d
	}
	g.CreatedAt, _ = core.ParseDate(created)
	return g, nil
}
