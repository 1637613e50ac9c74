package memory

import (
	"context"
	"testing"

	"expensetracker/internal/core"
)

func TestMirrorUpsertAndRemove(t *testing.T) {
	ctx := context.Background()
	m := New()

	_ = m.Upsert(ctx, core.Expense{ID: 2, Name: "b"})
	_ = m.Upsert(ctx, core.Expense{ID: 1, Name: "a"})
	_ = m.Upsert(ctx, core.Expense{ID: 2, Name: "b2"})

	got := m.Snapshot()
	if len(got) != 2 || got[0].ID != 1 || got[1].Name != "b2" {
		t.Fatalf("unexpected snapshot: %+v", got)
	}

	if err := m.Remove(ctx, 1); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := m.Remove(ctx, 99); err != nil {
		t.Fatalf("remove missing should be a no-op: %v", err)
	}
	if got := m.Snapshot(); len(got) != 1 || got[0].ID != 2 {
		t.Fatalf("unexpected snapshot after remove: %+v", got)
	}
}
