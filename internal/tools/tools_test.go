package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expensetracker/internal/core"
	applog "expensetracker/internal/log"
	"expensetracker/internal/services"
	"expensetracker/internal/storage"
)

func newTestTools(t *testing.T) *ExpenseTools {
	t.Helper()
	dir := t.TempDir()
	loc := storage.Location{Dir: dir, Path: filepath.Join(dir, storage.DefaultDBFile)}

	repo, err := storage.NewRepository(context.Background(), loc.Path)
	require.NoError(t, err)

	svc := services.NewExpenseService(repo, nil, loc)
	t.Cleanup(func() { svc.Close() })

	logger := applog.New(applog.Config{Component: applog.ComponentTools, Output: &bytes.Buffer{}})
	return New(svc, logger)
}

func request(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func textOf(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)
	switch c := res.Content[0].(type) {
	case mcp.TextContent:
		return c.Text
	case *mcp.TextContent:
		return c.Text
	}
	t.Fatalf("unexpected content type %T", res.Content[0])
	return ""
}

func addExpense(t *testing.T, tools *ExpenseTools, args map[string]any) int64 {
	t.Helper()
	res, err := tools.addExpense(context.Background(), request(args))
	require.NoError(t, err)
	require.False(t, res.IsError, textOf(t, res))

	var out AddResult
	require.NoError(t, json.Unmarshal([]byte(textOf(t, res)), &out))
	assert.Equal(t, StatusOK, out.Status)
	return out.ID
}

func listExpenses(t *testing.T, tools *ExpenseTools, args map[string]any) []core.Expense {
	t.Helper()
	res, err := tools.listExpenses(context.Background(), request(args))
	require.NoError(t, err)
	require.False(t, res.IsError, textOf(t, res))

	var out []core.Expense
	require.NoError(t, json.Unmarshal([]byte(textOf(t, res)), &out))
	return out
}

func TestAddThenList(t *testing.T) {
	tools := newTestTools(t)

	id := addExpense(t, tools, map[string]any{
		"date": "2025-06-01", "name": "Taxi", "amount": 23.4, "category": "Transport",
	})
	assert.Positive(t, id)

	got := listExpenses(t, tools, nil)
	require.Len(t, got, 1)
	assert.Equal(t, core.Expense{ID: id, Date: "2025-06-01", Name: "Taxi", Amount: 23.4, Category: "Transport"}, got[0])

	second := addExpense(t, tools, map[string]any{
		"date": "2025-06-02", "name": "Bus", "amount": 2.0, "category": "Transport",
	})
	assert.Greater(t, second, id)
}

func TestListReturnsMappingsWithColumnNames(t *testing.T) {
	tools := newTestTools(t)
	addExpense(t, tools, map[string]any{
		"date": "2025-06-01", "name": "Tea", "amount": 3.0, "category": "Food", "subcategory": "Cafe", "note": "green",
	})

	res, err := tools.listExpenses(context.Background(), request(nil))
	require.NoError(t, err)

	var rows []map[string]any
	require.NoError(t, json.Unmarshal([]byte(textOf(t, res)), &rows))
	require.Len(t, rows, 1)
	for _, key := range []string{"id", "date", "name", "amount", "category", "subcategory", "note"} {
		assert.Contains(t, rows[0], key)
	}
	assert.Len(t, rows[0], 7)
}

func TestListEmptyIsEmptyArray(t *testing.T) {
	tools := newTestTools(t)

	res, err := tools.listExpenses(context.Background(), request(nil))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, "[]", textOf(t, res))
}

func TestListFilters(t *testing.T) {
	tools := newTestTools(t)
	a := addExpense(t, tools, map[string]any{"date": "2025-01-01", "name": "a", "amount": 1.0, "category": "Food", "subcategory": "Bars", "note": "late Night"})
	b := addExpense(t, tools, map[string]any{"date": "2025-01-02", "name": "b", "amount": 1.0, "category": "Food", "subcategory": "Bars", "note": "night out"})
	c := addExpense(t, tools, map[string]any{"date": "2025-01-03", "name": "c", "amount": 1.0, "category": "Food", "subcategory": "Cafe", "note": "night coffee"})

	ids := func(es []core.Expense) []int64 {
		var out []int64
		for _, e := range es {
			out = append(out, e.ID)
		}
		return out
	}

	assert.Equal(t, []int64{a, b, c}, ids(listExpenses(t, tools, map[string]any{"subcategory": "", "note": ""})))
	assert.Equal(t, []int64{a, b}, ids(listExpenses(t, tools, map[string]any{"subcategory": "Bars"})))
	assert.Equal(t, []int64{b, c}, ids(listExpenses(t, tools, map[string]any{"note": "night"})))
	assert.Equal(t, []int64{b}, ids(listExpenses(t, tools, map[string]any{"subcategory": "Bars", "note": "night"})))
	assert.Equal(t, []int64{b, c}, ids(listExpenses(t, tools, map[string]any{"start_date": "2025-01-02"})))
}

func TestUpdateRoundTrip(t *testing.T) {
	tools := newTestTools(t)
	id := addExpense(t, tools, map[string]any{
		"date": "2025-01-01", "name": "Old", "amount": 5.0, "category": "OldCat", "subcategory": "OldSub", "note": "old",
	})

	res, err := tools.updateExpense(context.Background(), request(map[string]any{
		"id": float64(id), "date": "2025-02-02", "name": "New", "amount": 7.25, "category": "NewCat",
	}))
	require.NoError(t, err)
	require.False(t, res.IsError)
	assert.JSONEq(t, `{"status":"OK"}`, textOf(t, res))

	got := listExpenses(t, tools, nil)
	require.Len(t, got, 1)
	assert.Equal(t, core.Expense{ID: id, Date: "2025-02-02", Name: "New", Amount: 7.25, Category: "NewCat"}, got[0])
}

func TestUpdateUnknownIDSucceedsWithoutCreating(t *testing.T) {
	tools := newTestTools(t)
	id := addExpense(t, tools, map[string]any{"date": "2025-01-01", "name": "Keep", "amount": 1.0, "category": "c"})

	res, err := tools.updateExpense(context.Background(), request(map[string]any{
		"id": float64(id + 1000), "date": "2025-01-01", "name": "Ghost", "amount": 1.0, "category": "c",
	}))
	require.NoError(t, err)
	require.False(t, res.IsError)
	assert.JSONEq(t, `{"status":"OK"}`, textOf(t, res))

	got := listExpenses(t, tools, nil)
	require.Len(t, got, 1)
	assert.Equal(t, "Keep", got[0].Name)
}

func TestDelete(t *testing.T) {
	tools := newTestTools(t)
	id := addExpense(t, tools, map[string]any{"date": "2025-01-01", "name": "x", "amount": 1.0, "category": "c"})

	for _, target := range []int64{id + 1, id, id} {
		res, err := tools.deleteExpense(context.Background(), request(map[string]any{"id": float64(target)}))
		require.NoError(t, err)
		assert.False(t, res.IsError)
		assert.Empty(t, res.Content)
	}

	assert.Empty(t, listExpenses(t, tools, nil))
}

func TestSummarize(t *testing.T) {
	tools := newTestTools(t)
	summarize := func(start, end string) string {
		res, err := tools.summarizeExpenses(context.Background(), request(map[string]any{"start_date": start, "end_date": end}))
		require.NoError(t, err)
		require.False(t, res.IsError)
		return textOf(t, res)
	}

	assert.Equal(t, "No expenses found in the specified date range.", summarize("2025-01-01", "2025-12-31"))

	addExpense(t, tools, map[string]any{"date": "2025-03-01", "name": "a", "amount": 10.5, "category": "Food"})
	addExpense(t, tools, map[string]any{"date": "2025-03-31", "name": "b", "amount": 4.5, "category": "Food"})

	got := summarize("2025-03-01", "2025-03-31")
	lines := strings.Split(got, "\n")
	assert.Equal(t, "Expense Summary (2025-03-01 to 2025-03-31):", lines[0])
	assert.Contains(t, lines, "Food: $15.00")
	assert.Equal(t, "Total: $15.00", lines[len(lines)-1])

	// Boundaries are inclusive on both ends
	assert.Contains(t, summarize("2025-03-31", "2025-03-31"), "Food: $4.50")
	assert.Contains(t, summarize("2025-03-01", "2025-03-01"), "Food: $10.50")
}

func TestMissingRequiredArguments(t *testing.T) {
	tools := newTestTools(t)
	ctx := context.Background()

	cases := []struct {
		name string
		call func() (*mcp.CallToolResult, error)
	}{
		{"add without amount", func() (*mcp.CallToolResult, error) {
			return tools.addExpense(ctx, request(map[string]any{"date": "d", "name": "n", "category": "c"}))
		}},
		{"add with empty name", func() (*mcp.CallToolResult, error) {
			return tools.addExpense(ctx, request(map[string]any{"date": "d", "name": "", "amount": 1.0, "category": "c"}))
		}},
		{"update without id", func() (*mcp.CallToolResult, error) {
			return tools.updateExpense(ctx, request(map[string]any{"date": "d", "name": "n", "amount": 1.0, "category": "c"}))
		}},
		{"delete without id", func() (*mcp.CallToolResult, error) {
			return tools.deleteExpense(ctx, request(nil))
		}},
		{"summarize without end", func() (*mcp.CallToolResult, error) {
			return tools.summarizeExpenses(ctx, request(map[string]any{"start_date": "2025-01-01"}))
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := tc.call()
			require.NoError(t, err)
			assert.True(t, res.IsError)
		})
	}

	assert.Empty(t, listExpenses(t, tools, nil), "rejected calls must not write")
}

func TestDBInfo(t *testing.T) {
	tools := newTestTools(t)

	res, err := tools.dbInfo(context.Background(), request(nil))
	require.NoError(t, err)

	var info storage.DBInfo
	require.NoError(t, json.Unmarshal([]byte(textOf(t, res)), &info))
	assert.True(t, info.Exists)
	assert.True(t, info.CanWriteDir)
	assert.Equal(t, storage.DefaultDBFile, filepath.Base(info.Path))
}

type brokenAPI struct{ ExpenseAPI }

func (brokenAPI) AddExpense(context.Context, core.Expense) (int64, error) {
	return 0, errors.New("unable to open database file")
}

func TestStoreErrorBecomesToolError(t *testing.T) {
	var buf bytes.Buffer
	tools := New(brokenAPI{}, applog.New(applog.Config{Output: &buf}))

	handler := tools.observe(ToolAddExpense, applog.OpCreate, tools.addExpense)
	res, err := handler(context.Background(), request(map[string]any{
		"date": "2025-01-01", "name": "n", "amount": 1.0, "category": "c",
	}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, textOf(t, res), "unable to open database file")

	assert.Contains(t, buf.String(), "Tool call failed")
	assert.Contains(t, buf.String(), "tool=add_expense")
}

func TestIDMustBeAnInteger(t *testing.T) {
	tools := newTestTools(t)
	ctx := context.Background()
	id := addExpense(t, tools, map[string]any{
		"date": "2025-01-01", "name": "Keep", "amount": 1.0, "category": "c", "note": "keep me",
	})

	for _, bad := range []any{float64(id) + 0.7, "1", true, nil} {
		res, err := tools.deleteExpense(ctx, request(map[string]any{"id": bad}))
		require.NoError(t, err)
		assert.True(t, res.IsError, "delete with id %#v", bad)

		res, err = tools.updateExpense(ctx, request(map[string]any{
			"id": bad, "date": "2025-02-02", "name": "Changed", "amount": 2.0, "category": "c",
		}))
		require.NoError(t, err)
		assert.True(t, res.IsError, "update with id %#v", bad)
	}

	got := listExpenses(t, tools, nil)
	require.Len(t, got, 1)
	assert.Equal(t, core.Expense{ID: id, Date: "2025-01-01", Name: "Keep", Amount: 1.0, Category: "c", Note: "keep me"}, got[0])

	res, err := tools.deleteExpense(ctx, request(map[string]any{"id": float64(id)}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Empty(t, listExpenses(t, tools, nil))
}

func TestWronglyTypedArgumentsAreRejected(t *testing.T) {
	tools := newTestTools(t)
	ctx := context.Background()
	id := addExpense(t, tools, map[string]any{
		"date": "2025-01-01", "name": "Lunch", "amount": 9.5, "category": "Food", "subcategory": "Work", "note": "keep me",
	})

	full := func(overrides map[string]any) map[string]any {
		args := map[string]any{
			"id": float64(id), "date": "2025-01-01", "name": "Lunch", "amount": 9.5, "category": "Food",
			"subcategory": "Work", "note": "keep me",
		}
		for k, v := range overrides {
			args[k] = v
		}
		return args
	}

	updates := []map[string]any{
		{"note": 42},
		{"subcategory": false},
		{"amount": "12"},
		{"name": 7.0},
		{"date": []any{"2025"}},
	}
	for _, o := range updates {
		res, err := tools.updateExpense(ctx, request(full(o)))
		require.NoError(t, err)
		assert.True(t, res.IsError, "update with %v", o)
	}

	res, err := tools.addExpense(ctx, request(map[string]any{"date": "2025-01-02", "name": "x", "amount": 1.0, "category": "c", "note": 1.0}))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	for _, key := range []string{"subcategory", "note", "category", "start_date", "end_date"} {
		res, err := tools.listExpenses(ctx, request(map[string]any{key: 5.0}))
		require.NoError(t, err)
		assert.True(t, res.IsError, "list with numeric %s", key)
	}

	res, err = tools.summarizeExpenses(ctx, request(map[string]any{"start_date": 20250101.0, "end_date": "2025-12-31"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	got := listExpenses(t, tools, nil)
	require.Len(t, got, 1)
	assert.Equal(t, "keep me", got[0].Note)
	assert.Equal(t, "Work", got[0].Subcategory)
	assert.Equal(t, 9.5, got[0].Amount)
}

func TestNullOptionalArgumentsDefaultToEmpty(t *testing.T) {
	tools := newTestTools(t)
	id := addExpense(t, tools, map[string]any{
		"date": "2025-01-01", "name": " ", "amount": 1.0, "category": "c", "subcategory": nil, "note": nil,
	})

	got := listExpenses(t, tools, map[string]any{"note": nil})
	require.Len(t, got, 1)
	assert.Equal(t, core.Expense{ID: id, Date: "2025-01-01", Name: " ", Amount: 1.0, Category: "c"}, got[0])
}

func TestToolLogCarriesRequestID(t *testing.T) {
	var buf bytes.Buffer
	tools := New(brokenAPI{}, applog.New(applog.Config{Output: &buf}))

	ctx := context.WithValue(context.Background(), applog.RequestIDKey, "req_abc")
	handler := tools.observe(ToolAddExpense, applog.OpCreate, tools.addExpense)
	_, err := handler(ctx, request(map[string]any{"date": "2025-01-01", "name": "n", "amount": 1.0, "category": "c"}))
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "request_id=req_abc")
}

func TestIDSchemaIsInteger(t *testing.T) {
	for _, tool := range []mcp.Tool{deleteExpenseTool(), updateExpenseTool()} {
		prop, ok := tool.InputSchema.Properties["id"].(map[string]any)
		require.True(t, ok, tool.Name)
		assert.Equal(t, "integer", prop["type"], tool.Name)
	}
}
