package tools

import (
	"context"
	"sort"
	"testing"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServerOverMCP(t *testing.T) {
	ctx := context.Background()
	s := NewServer("expense-tracker", "test", newTestTools(t))

	c, err := client.NewInProcessClient(s)
	require.NoError(t, err)
	defer c.Close()
	require.NoError(t, c.Start(ctx))

	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{Name: "tools-test", Version: "1.0.0"}
	_, err = c.Initialize(ctx, initReq)
	require.NoError(t, err)

	list, err := c.ListTools(ctx, mcp.ListToolsRequest{})
	require.NoError(t, err)
	var names []string
	for _, tool := range list.Tools {
		names = append(names, tool.Name)
	}
	sort.Strings(names)
	assert.Equal(t, []string{
		ToolAddExpense, ToolDeleteExpense, ToolDBInfo, ToolListExpenses, ToolSummarizeExpenses, ToolUpdateExpense,
	}, names)

	call := func(name string, args map[string]any) *mcp.CallToolResult {
		req := mcp.CallToolRequest{}
		req.Params.Name = name
		req.Params.Arguments = args
		res, err := c.CallTool(ctx, req)
		require.NoError(t, err)
		return res
	}

	res := call(ToolAddExpense, map[string]any{"date": "2025-04-01", "name": "Lunch", "amount": 10.5, "category": "Food"})
	require.False(t, res.IsError)
	assert.JSONEq(t, `{"status":"OK","id":1}`, textOf(t, res))

	res = call(ToolAddExpense, map[string]any{"date": "2025-04-02", "name": "Dinner", "amount": 4.5, "category": "Food"})
	require.False(t, res.IsError)

	res = call(ToolSummarizeExpenses, map[string]any{"start_date": "2025-04-01", "end_date": "2025-04-30"})
	require.False(t, res.IsError)
	assert.Contains(t, textOf(t, res), "Food: $15.00")
	assert.Contains(t, textOf(t, res), "Total: $15.00")

	res = call(ToolDeleteExpense, map[string]any{"id": 1.5})
	assert.True(t, res.IsError, "fractional ids are rejected, not truncated")
	res = call(ToolUpdateExpense, map[string]any{"id": "1", "date": "2025-04-01", "name": "Lunch", "amount": 10.5, "category": "Food"})
	assert.True(t, res.IsError, "string ids are rejected")
	res = call(ToolUpdateExpense, map[string]any{"id": 1, "date": "2025-04-01", "name": "Lunch", "amount": 10.5, "category": "Food", "note": 42})
	assert.True(t, res.IsError, "non-string note is rejected")

	res = call(ToolDeleteExpense, map[string]any{"id": 1})
	assert.False(t, res.IsError)

	res = call(ToolListExpenses, nil)
	require.False(t, res.IsError)
	assert.JSONEq(t, `[{"id":2,"date":"2025-04-02","name":"Dinner","amount":4.5,"category":"Food","subcategory":"","note":""}]`, textOf(t, res))
}
