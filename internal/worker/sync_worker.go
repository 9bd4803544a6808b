package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/ports"
)

// Mirror is the downstream copy kept in step with the transaction store.
type Mirror interface {
	AppendTransaction(ctx context.Context, tx core.Transaction) error
	DeleteTransaction(ctx context.Context, id string) error
}

// Store is what the worker needs from the transaction store.
type Store interface {
	ports.TransactionReader
	ports.SyncStore
}

// SyncWorker mirrors stored transactions to the spreadsheet.
type SyncWorker struct {
	store     Store
	mirror    Mirror
	batchSize int
}

func NewSyncWorker(store Store, mirror Mirror, batchSize int) *SyncWorker {
	if batchSize <= 0 {
		batchSize = 10
	}
	return &SyncWorker{store: store, mirror: mirror, batchSize: batchSize}
}

// HandleEvent applies one transaction event to the mirror. It satisfies amqp.Handler.
func (w *SyncWorker) HandleEvent(ctx context.Context, ev amqp.TransactionEvent) error {
	slog.InfoContext(ctx, "Processing transaction event", "id", ev.ID, "op", ev.Op)

	switch ev.Op {
	case amqp.OpCreated:
		err := w.syncByID(ctx, ev.ID)
		if errors.Is(err, errGone) {
			slog.InfoContext(ctx, "Transaction no longer stored, skipping", "id", ev.ID)
			return nil
		}
		return err
	case amqp.OpDeleted:
		if err := w.mirror.DeleteTransaction(ctx, ev.ID); err != nil {
			return fmt.Errorf("delete %s from mirror: %w", ev.ID, err)
		}
		slog.InfoContext(ctx, "Removed transaction from mirror", "id", ev.ID)
		return nil
	default:
		return fmt.Errorf("unknown event op %q", ev.Op)
	}
}

// ProcessPending mirrors up to one batch of unsynced transactions. It covers
// events lost while the broker or worker was down.
func (w *SyncWorker) ProcessPending(ctx context.Context) (synced int, err error) {
	return w.drain(ctx, w.batchSize)
}

// StartupSyncCheck drains a larger backlog once when the worker starts.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	synced, err := w.drain(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("startup sync: %w", err)
	}
	slog.InfoContext(ctx, "Startup sync completed", "synced", synced)
	return nil
}

func (w *SyncWorker) drain(ctx context.Context, limit int) (int, error) {
	pending, err := w.store.ListUnsynced(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("list unsynced: %w", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}
	slog.InfoContext(ctx, "Processing pending transactions", "count", len(pending))

	synced := 0
	for _, tx := range pending {
		if ctx.Err() != nil {
			return synced, ctx.Err()
		}
		err := w.syncByID(ctx, tx.ID)
		switch {
		case errors.Is(err, errGone):
			slog.InfoContext(ctx, "Transaction no longer stored, skipping", "id", tx.ID)
		case err != nil:
			slog.ErrorContext(ctx, "Failed to sync transaction", "id", tx.ID, "error", err)
		default:
			synced++
		}
	}
	return synced, nil
}

// errGone marks a transaction deleted from the store before it was mirrored.
var errGone = errors.New("transaction no longer stored")

// syncByID mirrors the stored version of a transaction. A swept row may
// have been deleted since it was listed.
func (w *SyncWorker) syncByID(ctx context.Context, id string) error {
	tx, err := w.store.GetTransaction(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		return errGone
	}
	if err != nil {
		return fmt.Errorf("get transaction %s: %w", id, err)
	}
	return w.sync(ctx, tx)
}

func (w *SyncWorker) sync(ctx context.Context, tx core.Transaction) error {
	if err := w.mirror.AppendTransaction(ctx, tx); err != nil {
		return fmt.Errorf("append to mirror: %w", err)
	}
	// A delete that landed during the append may have been handled before
	// the row existed on the sheet, so remove it here.
	if _, err := w.store.GetTransaction(ctx, tx.ID); errors.Is(err, core.ErrNotFound) {
		if err := w.mirror.DeleteTransaction(ctx, tx.ID); err != nil {
			return fmt.Errorf("remove deleted %s from mirror: %w", tx.ID, err)
		}
		return errGone
	}
	if err := w.store.MarkSynced(ctx, tx.ID); err != nil {
		// The row is mirrored; a later replay is a no-op on the sheet.
		slog.ErrorContext(ctx, "Failed to mark as synced", "id", tx.ID, "error", err)
	}
	slog.InfoContext(ctx, "Mirrored transaction",
		"id", tx.ID,
		"user_id", tx.UserID,
		"type", tx.Type.String(),
		"amount", tx.Amount.StringFixed(2))
	return nil
}
