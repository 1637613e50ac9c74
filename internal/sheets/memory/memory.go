package memory

import (
	"context"
	"sort"
	"sync"

	"expensetracker/internal/core"
	ports "expensetracker/internal/sheets"
)

// Mirror is an in-process ExpenseMirror, used when no spreadsheet is
// configured and in tests.
type Mirror struct {
	mu   sync.RWMutex
	rows map[int64]core.Expense
}

var _ ports.ExpenseMirror = (*Mirror)(nil)

func New() *Mirror {
	return &Mirror{rows: make(map[int64]core.Expense)}
}

func (m *Mirror) Upsert(_ context.Context, e core.Expense) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[e.ID] = e
	return nil
}

func (m *Mirror) Remove(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, id)
	return nil
}

// Snapshot returns the mirrored rows ordered by id.
func (m *Mirror) Snapshot() []core.Expense {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]core.Expense, 0, len(m.rows))
	for _, e := range m.rows {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
