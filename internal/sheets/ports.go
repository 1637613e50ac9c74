package sheets

import (
	"context"

	"expensetracker/internal/core"
)

// Ports for outbound adapters.
type (
	// ExpenseMirror keeps a copy of the expenses table somewhere else,
	// keyed by expense id.
	ExpenseMirror interface {
		// Upsert writes e, replacing any row with the same id.
		Upsert(ctx context.Context, e core.Expense) error
		// Remove drops the row for id. An absent id is not an error.
		Remove(ctx context.Context, id int64) error
	}
)
