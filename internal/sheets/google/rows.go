package google

import (
	"fmt"
	"strconv"
	"strings"

	"expensetracker/internal/core"
)

// header is written to row 1 of an empty sheet. Columns follow the
// expenses table.
var header = []any{"id", "date", "name", "amount", "category", "subcategory", "note"}

const lastColumn = "G"

func rowForExpense(e core.Expense) []any {
	return []any{e.ID, e.Date, e.Name, e.Amount, e.Category, e.Subcategory, e.Note}
}

// findRow returns the 1-based sheet row whose first cell equals id, or 0.
// values is column A as returned by the Sheets API.
func findRow(values [][]any, id int64) int {
	want := strconv.FormatInt(id, 10)
	for i, row := range values {
		if len(row) == 0 {
			continue
		}
		if cellString(row[0]) == want {
			return i + 1
		}
	}
	return 0
}

// cellString normalises a cell: formatted reads return strings, unformatted
// reads return float64 for numbers.
func cellString(v any) string {
	switch x := v.(type) {
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

func rowRange(sheet string, row int) string {
	return fmt.Sprintf("%s!A%d:%s%d", sheet, row, lastColumn, row)
}
