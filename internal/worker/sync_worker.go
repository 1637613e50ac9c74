package worker

import (
	"context"
	"errors"
	"fmt"

	"expensetracker/internal/amqp"
	"expensetracker/internal/core"
	applog "expensetracker/internal/log"
	"expensetracker/internal/sheets"
	"expensetracker/internal/storage"
)

var (
	ErrNilMessage     = errors.New("nil change message")
	ErrMissingExpense = errors.New("change message carries no expense")
)

// Source reads the authoritative rows; *storage.Repository satisfies it.
type Source interface {
	Get(ctx context.Context, id int64) (core.Expense, error)
	List(ctx context.Context, f core.ListFilter) ([]core.Expense, error)
}

// SyncWorker applies expense change messages to a mirror.
type SyncWorker struct {
	source    Source
	mirror    sheets.ExpenseMirror
	batchSize int
}

func NewSyncWorker(source Source, mirror sheets.ExpenseMirror, batchSize int) *SyncWorker {
	if batchSize < 1 {
		batchSize = 1
	}
	return &SyncWorker{
		source:    source,
		mirror:    mirror,
		batchSize: batchSize,
	}
}

// HandleChange applies one message. For created and updated the current
// row is re-read from the store when a source is configured, so a message
// that arrives late never overwrites a newer value; a row deleted in the
// meantime is removed from the mirror instead. Without a source the
// message must carry the expense.
func (w *SyncWorker) HandleChange(ctx context.Context, msg *amqp.ExpenseChangeMessage) error {
	if msg == nil {
		return ErrNilMessage
	}
	logger().InfoContext(ctx, "Processing change message",
		applog.NewFields().WithOperation(applog.OpSync).WithExpense(msg.ID, "").ToSlice()...)

	switch msg.Action {
	case amqp.ActionDeleted:
		if err := w.mirror.Remove(ctx, msg.ID); err != nil {
			return fmt.Errorf("remove expense %d from mirror: %w", msg.ID, err)
		}
		return nil

	case amqp.ActionCreated, amqp.ActionUpdated:
		var e core.Expense
		switch {
		case w.source != nil:
			current, err := w.source.Get(ctx, msg.ID)
			if errors.Is(err, storage.ErrNotFound) {
				logger().InfoContext(ctx, "Expense gone before sync, removing from mirror", applog.FieldExpenseID, msg.ID)
				return w.mirror.Remove(ctx, msg.ID)
			}
			if err != nil {
				return fmt.Errorf("get expense from storage: %w", err)
			}
			e = current
		case msg.Expense != nil:
			e = *msg.Expense
		default:
			return fmt.Errorf("%s message for expense %d: %w", msg.Action, msg.ID, ErrMissingExpense)
		}
		if err := w.mirror.Upsert(ctx, e); err != nil {
			return fmt.Errorf("upsert expense %d into mirror: %w", msg.ID, err)
		}
		return nil

	default:
		return fmt.Errorf("unknown action %q", msg.Action)
	}
}

// Backfill copies every stored expense into the mirror. It runs on worker
// startup to cover messages published while no worker was listening.
func (w *SyncWorker) Backfill(ctx context.Context) (int, error) {
	if w.source == nil {
		return 0, nil
	}

	expenses, err := w.source.List(ctx, core.ListFilter{})
	if err != nil {
		return 0, fmt.Errorf("list expenses: %w", err)
	}

	synced := 0
	for i, e := range expenses {
		if err := ctx.Err(); err != nil {
			return synced, err
		}
		if err := w.mirror.Upsert(ctx, e); err != nil {
			return synced, fmt.Errorf("upsert expense %d into mirror: %w", e.ID, err)
		}
		synced++

		if (i+1)%w.batchSize == 0 {
			logger().InfoContext(ctx, "Backfill progress", "synced", synced, "total", len(expenses))
		}
	}

	logger().InfoContext(ctx, "Backfill complete",
		applog.FieldOperation, applog.OpSync, applog.FieldCount, synced)
	return synced, nil
}

func logger() *applog.Logger {
	return applog.ForComponent(applog.ComponentWorker)
}
