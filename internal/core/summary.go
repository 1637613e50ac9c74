package core

import (
	"fmt"
	"strings"
)

// NoExpensesMessage is returned by FormatSummary when nothing matched.
const NoExpensesMessage = "No expenses found in the specified date range."

const summaryRule = "--------------------------------------------------"

// CategoryTotal is the summed amount of one category.
type CategoryTotal struct {
	Category string  `json:"category"`
	Total    float64 `json:"total"`
}

// FormatSummary renders per-category totals for the inclusive range
// [start, end] as a human-readable report. Categories are printed in the
// order given.
func FormatSummary(start, end string, totals []CategoryTotal) string {
	if len(totals) == 0 {
		return NoExpensesMessage
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Expense Summary (%s to %s):\n", start, end)
	b.WriteString(summaryRule + "\n")

	var total float64
	for _, ct := range totals {
		fmt.Fprintf(&b, "%s: %s\n", ct.Category, FormatDollars(ct.Total))
		total += ct.Total
	}

	b.WriteString(summaryRule + "\n")
	b.WriteString("Total: " + FormatDollars(total))
	return b.String()
}

// FormatDollars formats an amount with a dollar sign and exactly two
// decimal places.
func FormatDollars(amount float64) string {
	return fmt.Sprintf("$%.2f", amount)
}
