package tools

import (
	"github.com/peacockclub/assistant/core"
)

// ClubToolDefinitions returns the definitions for all club assistant tools:
// the semantic memory search plus the typed Peacock API operations.
func ClubToolDefinitions() []core.ToolDefinition {
	return []core.ToolDefinition{
		// Read operations (thought optional)
		{
			ToolName:        "search_finance_memory",
			ToolDescription: "Search the finance memory store using semantic search. Use this when the user asks about accounts, transaction history, financial patterns, member information, or any finance-related queries. This tool searches across accounts, transactions, and monthly summaries using natural language queries.",
			InputSchema: BuildSchemaWithThought(map[string]interface{}{
				"query": StringProperty("Natural language query to search for"),
				"k":     IntegerProperty("Number of results to return (default: 6, max: 12)"),
			}, false, "query"),
		},
		{
			ToolName:        "get_member_details",
			ToolDescription: "Get detailed information about a member by their username. Returns member account information, loan history, club statistics, and membership duration. Use this when the user asks about a specific member or wants member information.",
			InputSchema: BuildSchemaWithThought(map[string]interface{}{
				"username": StringProperty("The username of the member to look up (e.g., 'john.doe')"),
			}, false, "username"),
		},
		{
			ToolName:        "get_loan_accounts",
			ToolDescription: "Get all member accounts with loan information, including active loans and loan history. Results are sorted by name and active status. Use this when the user asks about loans, loan accounts, or wants to see all members with loans.",
			InputSchema:     BuildSchemaWithThought(map[string]interface{}{}, false),
		},
		{
			ToolName:        "get_transactions",
			ToolDescription: "Get a paginated list of transactions with filtering and sorting options. Use this when the user asks about transactions, transaction history, or wants to see financial records. You can filter by account, transaction type, date range, and sort by various fields.",
			InputSchema: BuildSchemaWithThought(map[string]interface{}{
				"page":            IntegerProperty("Page number for pagination (default: 1)"),
				"limit":           IntegerProperty("Number of transactions per page (default: 10, max: 100)"),
				"accountId":       StringProperty("Filter by account ID (from or to)"),
				"transactionType": StringEnumProperty("Filter by transaction type", "DEPOSIT", "WITHDRAWAL", "LOAN", "LOAN_REPAYMENT", "INTEREST", "FEE", "TRANSFER", "LOAN_ALL"),
				"startDate":       StringProperty("Start date for date range filter (format: YYYY-MM-DD)"),
				"endDate":         StringProperty("End date for date range filter (format: YYYY-MM-DD)"),
				"sortField":       StringEnumProperty("Field to sort by (default: occurredAt)", "occurredAt", "createdAt", "amount"),
				"sortOrder":       StringEnumProperty("Sort order (default: desc)", "asc", "desc"),
			}, false),
		},
		{
			ToolName:        "search_records",
			ToolDescription: "Search across members, vendors, loans, and transactions. Use this when the user wants to search for something but doesn't specify a particular member username, or when they want to find information across multiple entities.",
			InputSchema: BuildSchemaWithThought(map[string]interface{}{
				"query": StringProperty("The search query string to search for"),
			}, false, "query"),
		},

		// Write operations (thought required)
		{
			ToolName:                 "create_transaction",
			ToolDescription:          "Create a new financial transaction between accounts. Use this when the user wants to create a deposit, withdrawal, loan, loan repayment, interest payment, fee, or transfer. Requires confirmation.",
			RequiresUserConfirmation: true,
			SummaryTemplate:          "Create {{.transactionType}} transaction of {{.amount}} from {{.fromId}} to {{.toId}}",
			InputSchema: BuildSchemaWithThought(map[string]interface{}{
				"fromId":          StringProperty("Source account ID (the account sending money)"),
				"toId":            StringProperty("Destination account ID (the account receiving money)"),
				"amount":          NumberProperty("Transaction amount (must be positive, minimum 0.01)"),
				"transactionType": StringEnumProperty("Type of transaction", "DEPOSIT", "WITHDRAWAL", "LOAN", "LOAN_REPAYMENT", "INTEREST", "FEE", "TRANSFER"),
				"occurredAt":      StringProperty("Transaction timestamp in ISO format (YYYY-MM-DDTHH:mm:ssZ). Defaults to current time if not provided."),
				"description":     StringProperty("Optional transaction description or notes"),
			}, true, "fromId", "toId", "amount", "transactionType"),
		},
		{
			ToolName:                 "delete_transaction",
			ToolDescription:          "Delete a transaction by its ID. Use this when the user wants to remove or cancel a specific transaction. Requires confirmation.",
			RequiresUserConfirmation: true,
			SummaryTemplate:          "Delete transaction {{.transactionId}}",
			InputSchema: BuildSchemaWithThought(map[string]interface{}{
				"transactionId": StringProperty("The ID of the transaction to delete"),
			}, true, "transactionId"),
		},
	}
}

// ClubTools creates Tool instances for all club tools using the given executor.
func ClubTools(executor core.ToolExecutor) []core.Tool {
	definitions := ClubToolDefinitions()
	tools := make([]core.Tool, len(definitions))
	for i, def := range definitions {
		tools[i] = core.NewExecutorTool(def, executor)
	}
	return tools
}
