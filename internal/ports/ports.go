package ports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
)

// SortOrder controls the date ordering of listed transactions.
type SortOrder string

const (
	OrderDesc SortOrder = "desc"
	OrderAsc  SortOrder = "asc"
)

// TransactionQuery scopes a listing to one user. Since and Until are
// inclusive UTC days; zero values leave the bound open.
type TransactionQuery struct {
	UserID string
	Type   core.TransactionType
	Since  time.Time
	Until  time.Time
	Order  SortOrder
	Limit  int
}

// Ports for outbound adapters.
type (
	TransactionWriter interface {
		// Insert assigns an ID and creation time and returns the stored transaction.
		Insert(ctx context.Context, tx core.Transaction) (core.Transaction, error)
		// Delete removes a transaction owned by userID. Missing rows wrap core.ErrNotFound.
		Delete(ctx context.Context, userID, id string) error
	}

	TransactionLister interface {
		ListTransactions(ctx context.Context, q TransactionQuery) ([]core.Transaction, error)
	}

	TransactionReader interface {
		GetTransaction(ctx context.Context, id string) (core.Transaction, error)
	}

	// SyncStore tracks which transactions have been mirrored downstream.
	SyncStore interface {
		ListUnsynced(ctx context.Context, limit int) ([]core.Transaction, error)
		MarkSynced(ctx context.Context, id string) error
	}

	GoalStore interface {
		CreateGoal(ctx context.Context, g core.Goal) (core.Goal, error)
		ListGoals(ctx context.Context, userID string) ([]core.Goal, error)
		// AddSavings atomically increments the goal's current amount.
		AddSavings(ctx context.Context, userID, goalID string, amount decimal.Decimal) (core.Goal, error)
		DeleteGoal(ctx context.Context, userID, goalID string) error
	}

	EventPublisher interface {
		PublishTransactionEvent(ctx context.Context, ev amqp.TransactionEvent) error
	}

	Pinger interface {
		Ping(ctx context.Context) error
	}
)
