package core

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"text/template"
)

// Tool is a single capability the agent can invoke.
type Tool interface {
	Name() string
	Description() string
	InputSchema() map[string]interface{}

	// RequiresConfirmation reports whether the tool mutates upstream state
	// and must be approved by the user before execution.
	RequiresConfirmation() bool

	// GetSummary renders a human-readable one-liner describing what the
	// tool would do with the given input. Used in confirmation prompts.
	GetSummary(input json.RawMessage) string

	Execute(ctx context.Context, params *ToolParams) (*ToolResult, error)
}

// ToolDefinition is the declarative description of a tool.
type ToolDefinition struct {
	ToolName                 string
	ToolDescription          string
	InputSchema              map[string]interface{}
	RequiresUserConfirmation bool

	// SummaryTemplate is a text/template over the tool input fields,
	// e.g. "Record {{.amount}} from {{.fromId}} to {{.toId}}".
	SummaryTemplate string
}

// ToolParams carries the execution context for one tool call.
type ToolParams struct {
	UserID         string
	Input          json.RawMessage
	ConfirmationID string
	RequestID      string
}

// ToolResult is the outcome of one tool execution.
type ToolResult struct {
	Success bool
	Data    interface{}
	Error   string
}

// ToolExecutor dispatches tool calls by name. Implementations bind tool
// names to concrete backends (memory search, upstream API operations).
type ToolExecutor interface {
	Execute(ctx context.Context, toolName string, params *ToolParams) (*ToolResult, error)
}

// ExecutorTool adapts a ToolDefinition plus a ToolExecutor into a Tool.
type ExecutorTool struct {
	def      ToolDefinition
	executor ToolExecutor
}

// NewExecutorTool creates a Tool backed by the given executor.
func NewExecutorTool(def ToolDefinition, executor ToolExecutor) *ExecutorTool {
	return &ExecutorTool{def: def, executor: executor}
}

func (t *ExecutorTool) Name() string                        { return t.def.ToolName }
func (t *ExecutorTool) Description() string                 { return t.def.ToolDescription }
func (t *ExecutorTool) InputSchema() map[string]interface{} { return t.def.InputSchema }
func (t *ExecutorTool) RequiresConfirmation() bool          { return t.def.RequiresUserConfirmation }

func (t *ExecutorTool) GetSummary(input json.RawMessage) string {
	if t.def.SummaryTemplate == "" {
		return t.def.ToolName
	}

	var fields map[string]interface{}
	if err := json.Unmarshal(input, &fields); err != nil {
		return t.def.ToolName
	}

	tmpl, err := template.New("summary").Parse(t.def.SummaryTemplate)
	if err != nil {
		return t.def.ToolName
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, fields); err != nil {
		return t.def.ToolName
	}
	return buf.String()
}

func (t *ExecutorTool) Execute(ctx context.Context, params *ToolParams) (*ToolResult, error) {
	return t.executor.Execute(ctx, t.def.ToolName, params)
}

// PendingAction is a write operation awaiting user confirmation.
type PendingAction struct {
	ID             string
	IdempotencyKey string
	SessionID      string
	UserID         string
	Tool           string
	Input          json.RawMessage
	Thought        string
	Summary        string
	BlockID        string
	CreatedAt      int64
	ExpiresAt      int64
}

// GenerateIdempotencyKey derives a stable key for a (user, tool, input)
// triple so a confirmed action is not executed twice.
func GenerateIdempotencyKey(userID, toolName string, input json.RawMessage) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s:%s:", userID, toolName)
	h.Write(input)
	return hex.EncodeToString(h.Sum(nil))[:32]
}
