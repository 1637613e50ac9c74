package services

import (
	"context"
	"fmt"
	"os"

	"expensetracker/internal/amqp"
	"expensetracker/internal/core"
	applog "expensetracker/internal/log"
	"expensetracker/internal/storage"
)

// Store is the persistence the service needs; *storage.Repository
// satisfies it.
type Store interface {
	Add(ctx context.Context, e core.Expense) (int64, error)
	List(ctx context.Context, f core.ListFilter) ([]core.Expense, error)
	Update(ctx context.Context, e core.Expense) (int64, error)
	Delete(ctx context.Context, id int64) (int64, error)
	SumByCategory(ctx context.Context, start, end string) ([]core.CategoryTotal, error)
	Close() error
}

// ChangePublisher announces committed changes; *amqp.Client satisfies it.
type ChangePublisher interface {
	PublishExpenseChange(ctx context.Context, msg *amqp.ExpenseChangeMessage) error
}

// ExpenseService runs expense operations against the store and, when a
// publisher is configured, announces every committed change. Store errors
// are returned wrapped but otherwise untouched; publish errors are only
// logged.
type ExpenseService struct {
	store     Store
	publisher ChangePublisher
	location  storage.Location
	getenv    func(string) string
}

// NewExpenseService wires the service. publisher may be nil.
func NewExpenseService(store Store, publisher ChangePublisher, location storage.Location) *ExpenseService {
	return &ExpenseService{
		store:     store,
		publisher: publisher,
		location:  location,
		getenv:    os.Getenv,
	}
}

// AddExpense inserts e and returns the new id.
func (s *ExpenseService) AddExpense(ctx context.Context, e core.Expense) (int64, error) {
	id, err := s.store.Add(ctx, e)
	if err != nil {
		return 0, fmt.Errorf("add expense: %w", err)
	}

	e.ID = id
	s.publish(ctx, amqp.NewExpenseChangeMessage(amqp.ActionCreated, id, &e))
	return id, nil
}

// ListExpenses returns matching expenses in ascending id order.
func (s *ExpenseService) ListExpenses(ctx context.Context, f core.ListFilter) ([]core.Expense, error) {
	expenses, err := s.store.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return expenses, nil
}

// UpdateExpense replaces every field of e.ID. An unknown id is a silent
// no-op; the returned count tells the two apart for callers that care.
func (s *ExpenseService) UpdateExpense(ctx context.Context, e core.Expense) (int64, error) {
	n, err := s.store.Update(ctx, e)
	if err != nil {
		return 0, fmt.Errorf("update expense %d: %w", e.ID, err)
	}
	logAffected(ctx, applog.OpUpdate, e.ID, n)

	if n > 0 {
		s.publish(ctx, amqp.NewExpenseChangeMessage(amqp.ActionUpdated, e.ID, &e))
	}
	return n, nil
}

// DeleteExpense removes id. An unknown id is a silent no-op.
func (s *ExpenseService) DeleteExpense(ctx context.Context, id int64) (int64, error) {
	n, err := s.store.Delete(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("delete expense %d: %w", id, err)
	}
	logAffected(ctx, applog.OpDelete, id, n)

	if n > 0 {
		s.publish(ctx, amqp.NewExpenseChangeMessage(amqp.ActionDeleted, id, nil))
	}
	return n, nil
}

// SummarizeExpenses renders category totals for the inclusive range
// [start, end]. Dates are compared as strings.
func (s *ExpenseService) SummarizeExpenses(ctx context.Context, start, end string) (string, error) {
	totals, err := s.store.SumByCategory(ctx, start, end)
	if err != nil {
		return "", fmt.Errorf("summarize expenses: %w", err)
	}
	return core.FormatSummary(start, end, totals), nil
}

// DBInfo reports where the store lives and whether it is writable.
func (s *ExpenseService) DBInfo() storage.DBInfo {
	return storage.Probe(s.location, s.getenv)
}

func logAffected(ctx context.Context, op string, id int64, n int64) {
	fields := applog.NewFields().WithOperation(op).WithExpense(id, "")
	fields[applog.FieldRows] = n
	logger().DebugContext(ctx, "Expense statement applied", fields.ToSlice()...)
}

func (s *ExpenseService) publish(ctx context.Context, msg *amqp.ExpenseChangeMessage) {
	if s.publisher == nil {
		logger().DebugContext(ctx, "No change publisher configured, skipping message",
			applog.FieldExpenseID, msg.ID, "action", msg.Action)
		return
	}

	// The row is already committed; a lost notification must not fail the call
	if err := s.publisher.PublishExpenseChange(ctx, msg); err != nil {
		logger().ErrorContext(ctx, "Failed to publish expense change",
			applog.FieldExpenseID, msg.ID,
			"action", msg.Action,
			applog.FieldError, err)
	}
}

// Close closes the store.
func (s *ExpenseService) Close() error {
	if s.store == nil {
		return nil
	}
	if err := s.store.Close(); err != nil {
		return fmt.Errorf("close expense service: %w", err)
	}
	return nil
}

func logger() *applog.Logger {
	return applog.ForComponent(applog.ComponentExpense)
}
