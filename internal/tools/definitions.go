package tools

import "github.com/mark3labs/mcp-go/mcp"

// integer narrows a WithNumber property to JSON Schema "integer".
func integer() mcp.PropertyOption {
	return func(schema map[string]any) {
		schema["type"] = "integer"
	}
}

func expenseFieldOptions() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("date", mcp.Required(),
			mcp.Description("Expense date. Use YYYY-MM-DD so date ranges sort correctly.")),
		mcp.WithString("name", mcp.Required(),
			mcp.Description("Short name of the expense.")),
		mcp.WithNumber("amount", mcp.Required(),
			mcp.Description("Amount spent.")),
		mcp.WithString("category", mcp.Required(),
			mcp.Description("Expense category, e.g. Food.")),
		mcp.WithString("subcategory", mcp.DefaultString(""),
			mcp.Description("Optional subcategory.")),
		mcp.WithString("note", mcp.DefaultString(""),
			mcp.Description("Optional free-text note.")),
	}
}

func addExpenseTool() mcp.Tool {
	opts := append([]mcp.ToolOption{
		mcp.WithDescription("Adds an expense to the database."),
	}, expenseFieldOptions()...)
	return mcp.NewTool(ToolAddExpense, opts...)
}

func listExpensesTool() mcp.Tool {
	return mcp.NewTool(ToolListExpenses,
		mcp.WithDescription("Lists expenses ordered by id. All filters are optional and combined with AND."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("subcategory", mcp.DefaultString(""),
			mcp.Description("Only expenses with exactly this subcategory.")),
		mcp.WithString("note", mcp.DefaultString(""),
			mcp.Description("Only expenses whose note contains this text (case-sensitive).")),
		mcp.WithString("category", mcp.DefaultString(""),
			mcp.Description("Only expenses with exactly this category.")),
		mcp.WithString("start_date", mcp.DefaultString(""),
			mcp.Description("Only expenses dated on or after this date.")),
		mcp.WithString("end_date", mcp.DefaultString(""),
			mcp.Description("Only expenses dated on or before this date.")),
	)
}

func deleteExpenseTool() mcp.Tool {
	return mcp.NewTool(ToolDeleteExpense,
		mcp.WithDescription("Deletes an expense from the database. Unknown ids are ignored."),
		mcp.WithDestructiveHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithNumber("id", mcp.Required(), integer(),
			mcp.Description("Id of the expense to delete.")),
	)
}

func updateExpenseTool() mcp.Tool {
	opts := append([]mcp.ToolOption{
		mcp.WithDescription("Updates an expense in the database, replacing every field. Unknown ids are ignored."),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithNumber("id", mcp.Required(), integer(),
			mcp.Description("Id of the expense to update.")),
	}, expenseFieldOptions()...)
	return mcp.NewTool(ToolUpdateExpense, opts...)
}

func summarizeExpensesTool() mcp.Tool {
	return mcp.NewTool(ToolSummarizeExpenses,
		mcp.WithDescription("Summarize expenses by category within an inclusive date range."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("start_date", mcp.Required(),
			mcp.Description("First date of the range, inclusive.")),
		mcp.WithString("end_date", mcp.Required(),
			mcp.Description("Last date of the range, inclusive.")),
	)
}

func dbInfoTool() mcp.Tool {
	return mcp.NewTool(ToolDBInfo,
		mcp.WithDescription("Diagnostics: returns the database path and writability info."),
		mcp.WithReadOnlyHintAnnotation(true),
	)
}
