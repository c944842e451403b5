package engine

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peacockclub/assistant/core"
)

// nilResultTool returns neither a result nor an error.
type nilResultTool struct{}

func (nilResultTool) Name() string                          { return "nil_result" }
func (nilResultTool) Description() string                   { return "returns nothing" }
func (nilResultTool) InputSchema() map[string]interface{}   { return nil }
func (nilResultTool) RequiresConfirmation() bool            { return false }
func (nilResultTool) GetSummary(json.RawMessage) string     { return "nil_result" }
func (nilResultTool) Execute(context.Context, *core.ToolParams) (*core.ToolResult, error) {
	return nil, nil
}

func TestExecuteToolNilResult(t *testing.T) {
	e := NewEngine(nil, NewToolRegistry(), WithEngineLogger(zerolog.Nop()))

	execution, block := e.executeTool(context.Background(), nilResultTool{}, &core.ToolParams{
		UserID: "u1",
		Input:  json.RawMessage(`{}`),
	}, "block-1")

	assert.Equal(t, "nil_result", execution.Tool)
	assert.Empty(t, execution.Error)
	assert.Nil(t, execution.Result)

	require.NotNil(t, block.OfToolResult)
	assert.False(t, block.OfToolResult.IsError.Value)
}
