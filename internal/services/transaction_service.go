package services

import (
	"context"
	"fmt"
	"log/slog"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/ports"
)

// TransactionStore is the persistence the transaction service needs.
type TransactionStore interface {
	ports.TransactionWriter
	ports.TransactionLister
}

// Invalidator drops cached per-user state after a write.
type Invalidator interface {
	Invalidate(userID string)
}

// TransactionService writes transactions, then announces the change. The
// store is the source of truth: a failed publish is logged and the worker's
// pending sweep catches the row up later.
type TransactionService struct {
	store       TransactionStore
	publisher   ports.EventPublisher
	invalidator Invalidator
}

func NewTransactionService(store TransactionStore, publisher ports.EventPublisher, invalidator Invalidator) *TransactionService {
	return &TransactionService{store: store, publisher: publisher, invalidator: invalidator}
}

func (s *TransactionService) Create(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	saved, err := s.store.Insert(ctx, tx)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}
	s.invalidate(saved.UserID)
	s.publish(ctx, amqp.NewTransactionEvent(saved.ID, saved.UserID, amqp.OpCreated))
	return saved, nil
}

func (s *TransactionService) Delete(ctx context.Context, userID, id string) error {
	if err := s.store.Delete(ctx, userID, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	s.invalidate(userID)
	s.publish(ctx, amqp.NewTransactionEvent(id, userID, amqp.OpDeleted))
	return nil
}

func (s *TransactionService) List(ctx context.Context, q ports.TransactionQuery) ([]core.Transaction, error) {
	if q.UserID == "" {
		return nil, core.ErrMissingUser
	}
	return s.store.ListTransactions(ctx, q)
}

func (s *TransactionService) invalidate(userID string) {
	if s.invalidator != nil {
		s.invalidator.Invalidate(userID)
	}
}

func (s *TransactionService) publish(ctx context.Context, ev amqp.TransactionEvent) {
	if s.publisher == nil {
		slog.DebugContext(ctx, "No event publisher configured, skipping event", "id", ev.ID, "op", ev.Op)
		return
	}
	if err := s.publisher.PublishTransactionEvent(ctx, ev); err != nil {
		slog.ErrorContext(ctx, "Failed to publish transaction event",
			"id", ev.ID,
			"op", ev.Op,
			"error", err)
	}
}
