package core

import "errors"

type (
	// Expense is one row of the expenses table.
	Expense struct {
		ID          int64   `json:"id"`
		Date        string  `json:"date"`
		Name        string  `json:"name"`
		Amount      float64 `json:"amount"`
		Category    string  `json:"category"`
		Subcategory string  `json:"subcategory"`
		Note        string  `json:"note"`
	}

	// ListFilter narrows ListExpenses. Zero values impose no constraint.
	ListFilter struct {
		Subcategory string // exact match
		Note        string // case-sensitive substring
		Category    string // exact match
		StartDate   string // inclusive, compared as string
		EndDate     string // inclusive, compared as string
	}
)

var (
	ErrEmptyDate     = errors.New("empty date")
	ErrEmptyName     = errors.New("empty name")
	ErrEmptyCategory = errors.New("empty category")
)

// Validate checks that the required text fields are non-empty. Whitespace
// counts as content; date format and amount sign are not checked.
func (e Expense) Validate() error {
	if e.Date == "" {
		return ErrEmptyDate
	}
	if e.Name == "" {
		return ErrEmptyName
	}
	if e.Category == "" {
		return ErrEmptyCategory
	}
	return nil
}

// IsEmpty reports whether the filter matches every record.
func (f ListFilter) IsEmpty() bool {
	return f == ListFilter{}
}
