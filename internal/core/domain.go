package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

type (
	TransactionType string

	Transaction struct {
		ID          string
		UserID      string
		Amount      decimal.Decimal
		Date        time.Time
		Category    string
		Type        TransactionType
		Description string
		CreatedAt   time.Time
	}

	Goal struct {
		ID            string
		UserID        string
		Title         string
		TargetAmount  decimal.Decimal
		CurrentAmount decimal.Decimal
		Deadline      *time.Time
		CreatedAt     time.Time
	}
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidType   = errors.New("invalid transaction type")
	ErrMalformedDate = errors.New("malformed date")
	ErrEmptyCategory = errors.New("empty category")
	ErrEmptyTitle    = errors.New("empty goal title")
	ErrMissingUser   = errors.New("missing user id")
	ErrNotFound      = errors.New("not found")
	ErrTooLong       = errors.New("value too long")
)

const (
	maxCategoryLen    = 100
	maxDescriptionLen = 200
	maxTitleLen       = 120
)

// ParseTransactionType accepts "income" or "expense" in any case.
func ParseTransactionType(s string) (TransactionType, error) {
	switch TransactionType(strings.ToLower(strings.TrimSpace(s))) {
	case Income:
		return Income, nil
	case Expense:
		return Expense, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidType, s)
}

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

func (t TransactionType) String() string {
	return string(t)
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.UserID) == "" {
		return ErrMissingUser
	}
	if !t.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidType, t.Type)
	}
	if !t.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if t.Date.IsZero() {
		return ErrMalformedDate
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if len(t.Category) > maxCategoryLen {
		return fmt.Errorf("%w: category (max %d characters)", ErrTooLong, maxCategoryLen)
	}
	if len(t.Description) > maxDescriptionLen {
		return fmt.Errorf("%w: description (max %d characters)", ErrTooLong, maxDescriptionLen)
	}
	return nil
}

// DayKey returns the UTC calendar day of the transaction.
func (t Transaction) DayKey() string {
	return DayKey(t.Date)
}

func (g Goal) Validate() error {
	if strings.TrimSpace(g.UserID) == "" {
		return ErrMissingUser
	}
	if strings.TrimSpace(g.Title) == "" {
		return ErrEmptyTitle
	}
	if len(g.Title) > maxTitleLen {
		return fmt.Errorf("%w: title (max %d characters)", ErrTooLong, maxTitleLen)
	}
	if !g.TargetAmount.IsPositive() {
		return ErrInvalidAmount
	}
	if g.CurrentAmount.IsNegative() {
		return ErrInvalidAmount
	}
	return nil
}

// Progress returns CurrentAmount/TargetAmount capped at 1.
func (g Goal) Progress() decimal.Decimal {
	if !g.TargetAmount.IsPositive() {
		return decimal.Zero
	}
	p := g.CurrentAmount.Div(g.TargetAmount)
	if p.GreaterThan(decimal.NewFromInt(1)) {
		return decimal.NewFromInt(1)
	}
	return p
}

// Reached reports whether the goal target has been met.
func (g Goal) Reached() bool {
	return g.CurrentAmount.GreaterThanOrEqual(g.TargetAmount)
}
