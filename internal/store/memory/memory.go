package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/ports"
)

// Store keeps transactions and goals in process memory.
type Store struct {
	mu     sync.Mutex
	txs    []core.Transaction
	synced map[string]bool
	goals  []core.Goal
	now    func() time.Time
}

func New() *Store {
	return &Store{synced: map[string]bool{}, now: func() time.Time { return time.Now().UTC() }}
}

type seedFile struct {
	Transactions []seedTransaction `json:"transactions"`
	Goals        []seedGoal        `json:"goals"`
}

type seedTransaction struct {
	UserID      string `json:"user_id"`
	Amount      string `json:"amount"`
	Date        string `json:"date"`
	Category    string `json:"category"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

type seedGoal struct {
	UserID        string `json:"user_id"`
	Title         string `json:"title"`
	TargetAmount  string `json:"target_amount"`
	CurrentAmount string `json:"current_amount"`
}

// NewFromFile seeds a store from a JSON document. A missing file yields an
// empty store; a malformed one is an error.
func NewFromFile(path string) (*Store, error) {
	s := New()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var seed seedFile
	if err := json.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("decode seed file: %w", err)
	}

	ctx := context.Background()
	for i, st := range seed.Transactions {
		tx, err := st.toTransaction()
		if err != nil {
			return nil, fmt.Errorf("seed transaction %d: %w", i, err)
		}
		if _, err := s.Insert(ctx, tx); err != nil {
			return nil, fmt.Errorf("seed transaction %d: %w", i, err)
		}
	}
	for i, sg := range seed.Goals {
		g := core.Goal{UserID: sg.UserID, Title: sg.Title}
		if g.TargetAmount, err = core.ParseAmount(sg.TargetAmount); err != nil {
			return nil, fmt.Errorf("seed goal %d: %w", i, err)
		}
		if sg.CurrentAmount != "" {
			if g.CurrentAmount, err = decimal.NewFromString(sg.CurrentAmount); err != nil {
				return nil, fmt.Errorf("seed goal %d: %w", i, err)
			}
		}
		if _, err := s.CreateGoal(ctx, g); err != nil {
			return nil, fmt.Errorf("seed goal %d: %w", i, err)
		}
	}
	return s, nil
}

func (st seedTransaction) toTransaction() (core.Transaction, error) {
	amount, err := core.ParseAmount(st.Amount)
	if err != nil {
		return core.Transaction{}, err
	}
	date, err := core.ParseDate(st.Date)
	if err != nil {
		return core.Transaction{}, err
	}
	typ, err := core.ParseTransactionType(st.Type)
	if err != nil {
		return core.Transaction{}, err
	}
	return core.Transaction{
		UserID:      st.UserID,
		Amount:      amount,
		Date:        date,
		Category:    st.Category,
		Type:        typ,
		Description: st.Description,
	}, nil
}

func (s *Store) Insert(_ context.Context, tx core.Transaction) (core.Transaction, error) {
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	tx.ID = uuid.NewString()
	tx.Amount = core.NormalizeAmount(tx.Amount)
	tx.Date = tx.Date.UTC()
	tx.CreatedAt = s.now()
	s.txs = append(s.txs, tx)
	return tx, nil
}

func (s *Store) Delete(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, tx := range s.txs {
		if tx.ID == id && tx.UserID == userID {
			s.txs = append(s.txs[:i], s.txs[i+1:]...)
			delete(s.synced, id)
			return nil
		}
	}
	return fmt.Errorf("transaction %s: %w", id, core.ErrNotFound)
}

func (s *Store) GetTransaction(_ context.Context, id string) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, tx := range s.txs {
		if tx.ID == id {
			return tx, nil
		}
	}
	return core.Transaction{}, fmt.Errorf("transaction %s: %w", id, core.ErrNotFound)
}

func (s *Store) ListTransactions(_ context.Context, q ports.TransactionQuery) ([]core.Transaction, error) {
	s.mu.Lock()
	out := make([]core.Transaction, 0, len(s.txs))
	for _, tx := range s.txs {
		if matches(tx, q) {
			out = append(out, tx)
		}
	}
	s.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		if q.Order == ports.OrderAsc {
			return less(out[i], out[j])
		}
		return less(out[j], out[i])
	})
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func matches(tx core.Transaction, q ports.TransactionQuery) bool {
	if tx.UserID != q.UserID {
		return false
	}
	if q.Type != "" && tx.Type != q.Type {
		return false
	}
	day := core.TruncateDay(tx.Date)
	if !q.Since.IsZero() && day.Before(core.TruncateDay(q.Since)) {
		return false
	}
	if !q.Until.IsZero() && day.After(core.TruncateDay(q.Until)) {
		return false
	}
	return true
}

func less(a, b core.Transaction) bool {
	if !a.Date.Equal(b.Date) {
		return a.Date.Before(b.Date)
	}
	return a.CreatedAt.Before(b.CreatedAt)
}

func (s *Store) ListUnsynced(_ context.Context, limit int) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Transaction
	for _, tx := range s.txs {
		if s.synced[tx.ID] {
			continue
		}
		out = append(out, tx)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *Store) MarkSynced(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.synced[id] = true
	return nil
}

func (s *Store) CreateGoal(_ context.Context, g core.Goal) (core.Goal, error) {
	if err := g.Validate(); err != nil {
		return core.Goal{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	g.ID = uuid.NewString()
	g.CreatedAt = s.now()
	s.goals = append(s.goals, g)
	return g, nil
}

func (s *Store) ListGoals(_ context.Context, userID string) ([]core.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []core.Goal{}
	for _, g := range s.goals {
		if g.UserID == userID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (s *Store) AddSavings(_ context.Context, userID, goalID string, amount decimal.Decimal) (core.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.goals {
		if s.goals[i].ID == goalID && s.goals[i].UserID == userID {
			s.goals[i].CurrentAmount = s.goals[i].CurrentAmount.Add(amount)
			return s.goals[i], nil
		}
	}
	return core.Goal{}, fmt.Errorf("goal %s: %w", goalID, core.ErrNotFound)
}

func (s *Store) DeleteGoal(_ context.Context, userID, goalID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, g := range s.goals {
		if g.ID == goalID && g.UserID == userID {
			s.goals = append(s.goals[:i], s.goals[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("goal %s: %w", goalID, core.ErrNotFound)
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }
