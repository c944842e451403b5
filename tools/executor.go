package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/peacockclub/assistant/core"
	"github.com/peacockclub/assistant/memory"
	"github.com/peacockclub/assistant/peacock"
)

// ClubExecutor executes club tools against the memory search service and
// the Peacock API client.
type ClubExecutor struct {
	search *memory.SearchService
	client *peacock.Client
	log    zerolog.Logger
}

// NewClubExecutor creates an executor backed by the given services.
func NewClubExecutor(search *memory.SearchService, client *peacock.Client, log zerolog.Logger) *ClubExecutor {
	return &ClubExecutor{search: search, client: client, log: log}
}

// Execute dispatches one tool call by name. Upstream failures are returned
// as unsuccessful results rather than errors so the agent can relay the
// user-facing message.
func (e *ClubExecutor) Execute(ctx context.Context, toolName string, params *core.ToolParams) (*core.ToolResult, error) {
	e.log.Debug().Str("tool", toolName).Str("request_id", params.RequestID).Msg("executing tool")

	switch toolName {
	case "search_finance_memory":
		return e.searchMemory(ctx, params.Input)
	case "get_member_details":
		return e.getMemberDetails(ctx, params.Input)
	case "get_loan_accounts":
		return e.wrap(e.client.GetLoanAccounts(ctx))
	case "get_transactions":
		return e.getTransactions(ctx, params.Input)
	case "search_records":
		return e.searchRecords(ctx, params.Input)
	case "create_transaction":
		return e.createTransaction(ctx, params.Input)
	case "delete_transaction":
		return e.deleteTransaction(ctx, params.Input)
	default:
		return nil, fmt.Errorf("unknown tool: %s", toolName)
	}
}

func (e *ClubExecutor) searchMemory(ctx context.Context, input json.RawMessage) (*core.ToolResult, error) {
	var args struct {
		Query string `json:"query"`
		K     int    `json:"k"`
	}
	if err := json.Unmarshal(input, &args); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}
	if args.Query == "" {
		return &core.ToolResult{Success: false, Error: "query is required"}, nil
	}

	formatted, err := e.search.Search(ctx, args.Query, args.K)
	if err != nil {
		return &core.ToolResult{
			Success: false,
			Error:   fmt.Sprintf("Error searching memory store: %s", err),
		}, nil
	}
	return &core.ToolResult{Success: true, Data: formatted}, nil
}

func (e *ClubExecutor) getMemberDetails(ctx context.Context, input json.RawMessage) (*core.ToolResult, error) {
	var args struct {
		Username string `json:"username"`
	}
	if err := json.Unmarshal(input, &args); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}
	if args.Username == "" {
		return &core.ToolResult{Success: false, Error: "username is required"}, nil
	}
	return e.wrap(e.client.GetMemberDetails(ctx, args.Username))
}

func (e *ClubExecutor) getTransactions(ctx context.Context, input json.RawMessage) (*core.ToolResult, error) {
	var args struct {
		Page            int    `json:"page"`
		Limit           int    `json:"limit"`
		AccountID       string `json:"accountId"`
		TransactionType string `json:"transactionType"`
		StartDate       string `json:"startDate"`
		EndDate         string `json:"endDate"`
		SortField       string `json:"sortField"`
		SortOrder       string `json:"sortOrder"`
	}
	if err := json.Unmarshal(input, &args); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}
	return e.wrap(e.client.GetTransactions(ctx, peacock.TransactionFilters{
		Page:            args.Page,
		Limit:           args.Limit,
		AccountID:       args.AccountID,
		TransactionType: args.TransactionType,
		StartDate:       args.StartDate,
		EndDate:         args.EndDate,
		SortField:       args.SortField,
		SortOrder:       args.SortOrder,
	}))
}

func (e *ClubExecutor) searchRecords(ctx context.Context, input json.RawMessage) (*core.ToolResult, error) {
	var args struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal(input, &args); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}
	if args.Query == "" {
		return &core.ToolResult{Success: false, Error: "query is required"}, nil
	}
	return e.wrap(e.client.Search(ctx, args.Query))
}

func (e *ClubExecutor) createTransaction(ctx context.Context, input json.RawMessage) (*core.ToolResult, error) {
	var args struct {
		FromID          string  `json:"fromId"`
		ToID            string  `json:"toId"`
		Amount          float64 `json:"amount"`
		TransactionType string  `json:"transactionType"`
		OccurredAt      string  `json:"occurredAt"`
		Description     string  `json:"description"`
	}
	if err := json.Unmarshal(input, &args); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}
	if args.FromID == "" || args.ToID == "" {
		return &core.ToolResult{Success: false, Error: "fromId and toId are required"}, nil
	}
	if args.Amount < 0.01 {
		return &core.ToolResult{Success: false, Error: "amount must be at least 0.01"}, nil
	}
	if args.TransactionType == "" {
		return &core.ToolResult{Success: false, Error: "transactionType is required"}, nil
	}
	return e.wrap(e.client.CreateTransaction(ctx, peacock.CreateTransactionParams{
		FromID:          args.FromID,
		ToID:            args.ToID,
		Amount:          args.Amount,
		TransactionType: args.TransactionType,
		OccurredAt:      args.OccurredAt,
		Description:     args.Description,
	}))
}

func (e *ClubExecutor) deleteTransaction(ctx context.Context, input json.RawMessage) (*core.ToolResult, error) {
	var args struct {
		TransactionID string `json:"transactionId"`
	}
	if err := json.Unmarshal(input, &args); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}
	if args.TransactionID == "" {
		return &core.ToolResult{Success: false, Error: "transactionId is required"}, nil
	}
	return e.wrap(e.client.DeleteTransaction(ctx, args.TransactionID))
}

// wrap converts an API client call into a tool result, surfacing the
// classified user-facing message on failure.
func (e *ClubExecutor) wrap(data json.RawMessage, err error) (*core.ToolResult, error) {
	if err != nil {
		e.log.Warn().Err(err).Msg("tool API call failed")
		return &core.ToolResult{Success: false, Error: err.Error()}, nil
	}
	return &core.ToolResult{Success: true, Data: data}, nil
}
