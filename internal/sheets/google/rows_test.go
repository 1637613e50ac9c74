package google

import (
	"context"
	"testing"

	"expensetracker/internal/core"
)

func TestFindRow(t *testing.T) {
	values := [][]any{
		{"id"},
		{"1"},
		{},
		{float64(12)},
		{" 7 "},
	}
	cases := []struct {
		id   int64
		want int
	}{
		{1, 2},
		{12, 4},
		{7, 5},
		{3, 0},
	}
	for _, tc := range cases {
		if got := findRow(values, tc.id); got != tc.want {
			t.Errorf("findRow(%d) = %d, want %d", tc.id, got, tc.want)
		}
	}
}

func TestRowForExpense(t *testing.T) {
	row := rowForExpense(core.Expense{ID: 3, Date: "2025-01-01", Name: "n", Amount: 1.5, Category: "c", Subcategory: "s", Note: "x"})
	if len(row) != len(header) {
		t.Fatalf("row has %d cells, header has %d", len(row), len(header))
	}
	if row[0] != int64(3) || row[3] != 1.5 || row[6] != "x" {
		t.Fatalf("unexpected row: %v", row)
	}
}

func TestRowRange(t *testing.T) {
	if got := rowRange("Expenses", 4); got != "Expenses!A4:G4" {
		t.Fatalf("rowRange = %q", got)
	}
}

func TestLoadCredentials(t *testing.T) {
	if b, err := LoadCredentials(`{"type":"service_account"}`, "/ignored"); err != nil || string(b) != `{"type":"service_account"}` {
		t.Fatalf("inline credentials: %q, %v", b, err)
	}
	if _, err := LoadCredentials("", ""); err == nil {
		t.Fatal("expected error without credentials")
	}
	if _, err := LoadCredentials("", "/does/not/exist.json"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestNewRequiresIDs(t *testing.T) {
	if _, err := New(context.Background(), "", "Expenses", nil); err == nil {
		t.Fatal("expected error for missing spreadsheet ID")
	}
	if _, err := New(context.Background(), "id", " ", nil); err == nil {
		t.Fatal("expected error for missing sheet name")
	}
}
