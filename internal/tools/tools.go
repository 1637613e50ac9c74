// Package tools exposes the expense operations as MCP tools.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"expensetracker/internal/core"
	applog "expensetracker/internal/log"
	"expensetracker/internal/storage"
)

// Tool names as seen by MCP clients.
const (
	ToolAddExpense        = "add_expense"
	ToolListExpenses      = "list_expenses"
	ToolDeleteExpense     = "delete_expense"
	ToolUpdateExpense     = "update_expense"
	ToolSummarizeExpenses = "summarize_expenses"
	ToolDBInfo            = "get_db_info"
)

// StatusOK is the status value returned by mutating tools.
const StatusOK = "OK"

// ExpenseAPI is what the tools call into; *services.ExpenseService
// satisfies it.
type ExpenseAPI interface {
	AddExpense(ctx context.Context, e core.Expense) (int64, error)
	ListExpenses(ctx context.Context, f core.ListFilter) ([]core.Expense, error)
	UpdateExpense(ctx context.Context, e core.Expense) (int64, error)
	DeleteExpense(ctx context.Context, id int64) (int64, error)
	SummarizeExpenses(ctx context.Context, start, end string) (string, error)
	DBInfo() storage.DBInfo
}

// AddResult is the add_expense payload.
type AddResult struct {
	Status string `json:"status"`
	ID     int64  `json:"id"`
}

// StatusResult is the update_expense payload.
type StatusResult struct {
	Status string `json:"status"`
}

// ExpenseTools holds the tool handlers.
type ExpenseTools struct {
	api    ExpenseAPI
	logger *applog.Logger
}

func New(api ExpenseAPI, logger *applog.Logger) *ExpenseTools {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &ExpenseTools{
		api:    api,
		logger: logger.WithComponent(applog.ComponentTools),
	}
}

// NewServer builds an MCP server with every expense tool registered.
func NewServer(name, version string, t *ExpenseTools) *server.MCPServer {
	s := server.NewMCPServer(name, version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)
	t.Register(s)
	return s
}

// Register adds the tools to s.
func (t *ExpenseTools) Register(s *server.MCPServer) {
	s.AddTool(addExpenseTool(), t.observe(ToolAddExpense, applog.OpCreate, t.addExpense))
	s.AddTool(listExpensesTool(), t.observe(ToolListExpenses, applog.OpList, t.listExpenses))
	s.AddTool(deleteExpenseTool(), t.observe(ToolDeleteExpense, applog.OpDelete, t.deleteExpense))
	s.AddTool(updateExpenseTool(), t.observe(ToolUpdateExpense, applog.OpUpdate, t.updateExpense))
	s.AddTool(summarizeExpensesTool(), t.observe(ToolSummarizeExpenses, applog.OpSummarize, t.summarizeExpenses))
	s.AddTool(dbInfoTool(), t.observe(ToolDBInfo, applog.OpInspect, t.dbInfo))
}

func (t *ExpenseTools) addExpense(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	e, err := expenseFromRequest(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	id, err := t.api.AddExpense(ctx, e)
	if err != nil {
		return mcp.NewToolResultErrorFromErr("failed to add expense", err), nil
	}

	return structuredResult(AddResult{Status: StatusOK, ID: id})
}

func (t *ExpenseTools) listExpenses(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var f core.ListFilter
	for _, arg := range []struct {
		key string
		dst *string
	}{
		{"subcategory", &f.Subcategory},
		{"note", &f.Note},
		{"category", &f.Category},
		{"start_date", &f.StartDate},
		{"end_date", &f.EndDate},
	} {
		v, err := optionalString(req, arg.key)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		*arg.dst = v
	}

	expenses, err := t.api.ListExpenses(ctx, f)
	if err != nil {
		return mcp.NewToolResultErrorFromErr("failed to list expenses", err), nil
	}

	text, err := json.Marshal(expenses)
	if err != nil {
		return nil, fmt.Errorf("marshal expenses: %w", err)
	}
	// Structured content must be an object, so the list is wrapped.
	return mcp.NewToolResultStructured(map[string]any{"result": expenses}, string(text)), nil
}

func (t *ExpenseTools) deleteExpense(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireInteger(req, "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if _, err := t.api.DeleteExpense(ctx, id); err != nil {
		return mcp.NewToolResultErrorFromErr("failed to delete expense", err), nil
	}

	return &mcp.CallToolResult{Content: []mcp.Content{}}, nil
}

func (t *ExpenseTools) updateExpense(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireInteger(req, "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	e, err := expenseFromRequest(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	e.ID = id

	if _, err := t.api.UpdateExpense(ctx, e); err != nil {
		return mcp.NewToolResultErrorFromErr("failed to update expense", err), nil
	}

	return structuredResult(StatusResult{Status: StatusOK})
}

func (t *ExpenseTools) summarizeExpenses(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start, err := requireString(req, "start_date")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	end, err := requireString(req, "end_date")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	summary, err := t.api.SummarizeExpenses(ctx, start, end)
	if err != nil {
		return mcp.NewToolResultErrorFromErr("failed to summarize expenses", err), nil
	}

	return mcp.NewToolResultText(summary), nil
}

func (t *ExpenseTools) dbInfo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return structuredResult(t.api.DBInfo())
}

// expenseFromRequest reads the full field set shared by add and update.
func expenseFromRequest(req mcp.CallToolRequest) (core.Expense, error) {
	var (
		e   core.Expense
		err error
	)
	if e.Date, err = requireString(req, "date"); err != nil {
		return e, err
	}
	if e.Name, err = requireString(req, "name"); err != nil {
		return e, err
	}
	if e.Amount, err = requireNumber(req, "amount"); err != nil {
		return e, err
	}
	if e.Category, err = requireString(req, "category"); err != nil {
		return e, err
	}
	if e.Subcategory, err = optionalString(req, "subcategory"); err != nil {
		return e, err
	}
	if e.Note, err = optionalString(req, "note"); err != nil {
		return e, err
	}

	if err := e.Validate(); err != nil {
		return e, err
	}
	return e, nil
}

func structuredResult(v any) (*mcp.CallToolResult, error) {
	text, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return mcp.NewToolResultStructured(v, string(text)), nil
}

// observe logs one line per tool call with its outcome and duration.
func (t *ExpenseTools) observe(tool, op string, next server.ToolHandlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		res, err := next(ctx, req)

		failed := err != nil || (res != nil && res.IsError)
		fields := applog.NewFields().
			WithTool(tool, op).
			WithResult(time.Since(start).Milliseconds(), !failed).
			WithError(err)
		if id := applog.RequestIDFromContext(ctx); id != "" {
			fields[applog.FieldRequestID] = id
		}
		if failed && res != nil && len(res.Content) > 0 {
			if tc, ok := res.Content[0].(mcp.TextContent); ok {
				fields[applog.FieldError] = tc.Text
			}
		}

		if failed {
			t.logger.ErrorContext(ctx, "Tool call failed", fields.ToSlice()...)
		} else {
			t.logger.InfoContext(ctx, "Tool call completed", fields.ToSlice()...)
		}
		return res, err
	}
}
