package services

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/ports"
)

type GoalService struct {
	store ports.GoalStore
}

func NewGoalService(store ports.GoalStore) *GoalService {
	return &GoalService{store: store}
}

// Create stores a new goal. Saved progress always starts at zero.
func (s *GoalService) Create(ctx context.Context, g core.Goal) (core.Goal, error) {
	g.CurrentAmount = decimal.Zero
	if err := g.Validate(); err != nil {
		return core.Goal{}, err
	}
	created, err := s.store.CreateGoal(ctx, g)
	if err != nil {
		return core.Goal{}, fmt.Errorf("create goal: %w", err)
	}
	return created, nil
}

func (s *GoalService) List(ctx context.Context, userID string) ([]core.Goal, error) {
	if userID == "" {
		return nil, core.ErrMissingUser
	}
	return s.store.ListGoals(ctx, userID)
}

// AddSavings increases a goal's saved amount by a positive amount.
func (s *GoalService) AddSavings(ctx context.Context, userID, goalID string, amount decimal.Decimal) (core.Goal, error) {
	if !amount.IsPositive() {
		return core.Goal{}, core.ErrInvalidAmount
	}
	return s.store.AddSavings(ctx, userID, goalID, amount.Round(2))
}

func (s *GoalService) Delete(ctx context.Context, userID, goalID string) error {
	return s.store.DeleteGoal(ctx, userID, goalID)
}
