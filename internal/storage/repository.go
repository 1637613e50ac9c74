package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"expensetracker/internal/core"
	applog "expensetracker/internal/log"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned by Get when no row has the requested id.
var ErrNotFound = errors.New("expense not found")

// busyTimeoutMs lets concurrent writers wait on the file lock instead of
// failing with SQLITE_BUSY.
const busyTimeoutMs = 5000

const expenseColumns = "id, date, name, amount, category, COALESCE(subcategory, ''), COALESCE(note, '')"

// Repository runs expense statements against the SQLite store. Every
// method takes its own connection from the pool and gives it back before
// returning.
type Repository struct {
	db *sql.DB
}

// DSN builds the modernc sqlite data source name for path.
func DSN(path string) string {
	return fmt.Sprintf("%s?_pragma=busy_timeout(%d)", path, busyTimeoutMs)
}

// NewRepository opens the store at dbPath, creating the directory and the
// expenses table if absent.
func NewRepository(ctx context.Context, dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	dsn := DSN(dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

// NewRepositoryWithDB wraps an already opened database. The schema is
// assumed to exist.
func NewRepositoryWithDB(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Ping reports whether the store is reachable.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Add inserts e and returns the id assigned by the store. e.ID is ignored.
func (r *Repository) Add(ctx context.Context, e core.Expense) (int64, error) {
	conn, err := r.db.Conn(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()

	res, err := conn.ExecContext(ctx,
		`INSERT INTO expenses (date, name, amount, category, subcategory, note) VALUES (?, ?, ?, ?, ?, ?)`,
		e.Date, e.Name, e.Amount, e.Category, e.Subcategory, e.Note)
	if err != nil {
		return 0, fmt.Errorf("insert expense: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}

	logger().DebugContext(ctx, "Expense inserted", "id", id, "category", e.Category)
	return id, nil
}

// List returns the expenses matching f ordered by ascending id. The result
// is never nil.
func (r *Repository) List(ctx context.Context, f core.ListFilter) ([]core.Expense, error) {
	var (
		clauses []string
		args    []any
	)
	if f.Subcategory != "" {
		clauses = append(clauses, "subcategory = ?")
		args = append(args, f.Subcategory)
	}
	if f.Note != "" {
		// instr is case-sensitive, LIKE is not
		clauses = append(clauses, "instr(note, ?) > 0")
		args = append(args, f.Note)
	}
	if f.Category != "" {
		clauses = append(clauses, "category = ?")
		args = append(args, f.Category)
	}
	if f.StartDate != "" {
		clauses = append(clauses, "date >= ?")
		args = append(args, f.StartDate)
	}
	if f.EndDate != "" {
		clauses = append(clauses, "date <= ?")
		args = append(args, f.EndDate)
	}

	query := "SELECT " + expenseColumns + " FROM expenses"
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY id ASC"

	conn, err := r.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()

	rows, err := conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	defer rows.Close()

	expenses := make([]core.Expense, 0)
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}

	return expenses, nil
}

// Get returns the expense with the given id, or ErrNotFound.
func (r *Repository) Get(ctx context.Context, id int64) (core.Expense, error) {
	conn, err := r.db.Conn(ctx)
	if err != nil {
		return core.Expense{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()

	row := conn.QueryRowContext(ctx, "SELECT "+expenseColumns+" FROM expenses WHERE id = ?", id)
	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, fmt.Errorf("get expense %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return core.Expense{}, err
	}
	return e, nil
}

// Update replaces every column of the row with id e.ID and returns the
// number of rows affected. A missing id affects zero rows and is not an
// error.
func (r *Repository) Update(ctx context.Context, e core.Expense) (int64, error) {
	conn, err := r.db.Conn(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()

	res, err := conn.ExecContext(ctx,
		`UPDATE expenses SET date = ?, name = ?, amount = ?, category = ?, subcategory = ?, note = ? WHERE id = ?`,
		e.Date, e.Name, e.Amount, e.Category, e.Subcategory, e.Note, e.ID)
	if err != nil {
		return 0, fmt.Errorf("update expense: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

// Delete removes the row with the given id and returns the number of rows
// affected. A missing id is not an error.
func (r *Repository) Delete(ctx context.Context, id int64) (int64, error) {
	conn, err := r.db.Conn(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()

	res, err := conn.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id)
	if err != nil {
		return 0, fmt.Errorf("delete expense: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

// SumByCategory sums amounts per category for rows whose date lies in the
// inclusive string range [start, end]. Row order is the store's.
func (r *Repository) SumByCategory(ctx context.Context, start, end string) ([]core.CategoryTotal, error) {
	conn, err := r.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()

	rows, err := conn.QueryContext(ctx,
		`SELECT category, SUM(amount) FROM expenses WHERE date BETWEEN ? AND ? GROUP BY category`,
		start, end)
	if err != nil {
		return nil, fmt.Errorf("sum by category: %w", err)
	}
	defer rows.Close()

	var totals []core.CategoryTotal
	for rows.Next() {
		var ct core.CategoryTotal
		if err := rows.Scan(&ct.Category, &ct.Total); err != nil {
			return nil, fmt.Errorf("scan category total: %w", err)
		}
		totals = append(totals, ct)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate category totals: %w", err)
	}

	return totals, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanExpense(s scanner) (core.Expense, error) {
	var e core.Expense
	err := s.Scan(&e.ID, &e.Date, &e.Name, &e.Amount, &e.Category, &e.Subcategory, &e.Note)
	if errors.Is(err, sql.ErrNoRows) {
		return e, err
	}
	if err != nil {
		return e, fmt.Errorf("scan expense: %w", err)
	}
	return e, nil
}

func logger() *applog.Logger {
	return applog.ForComponent(applog.ComponentStorage)
}
