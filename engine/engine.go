package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/peacockclub/assistant/core"
)

const (
	defaultModel     = "claude-sonnet-4-20250514"
	defaultMaxTokens = 4096
	defaultMaxTurns  = 20

	confirmationTTL = 10 * time.Minute
)

// Engine drives Claude turns and executes registered tools.
type Engine struct {
	client   *anthropic.Client
	registry *ToolRegistry
	log      zerolog.Logger
}

// Option configures the engine.
type Option func(*Engine)

// WithEngineLogger sets the engine's logger.
func WithEngineLogger(log zerolog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// NewEngine creates an engine with the given Anthropic client and registry.
func NewEngine(client *anthropic.Client, registry *ToolRegistry, opts ...Option) *Engine {
	e := &Engine{
		client:   client,
		registry: registry,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Registry returns the engine's tool registry.
func (e *Engine) Registry() *ToolRegistry {
	return e.registry
}

// Input represents the input to an agent run.
type Input struct {
	// UserMessage is the user's message to process.
	UserMessage string

	// UserID identifies the requesting user.
	UserID string

	// History contains previous messages in the conversation.
	History []anthropic.MessageParam

	// SystemPrompt is the system prompt to use.
	SystemPrompt string

	// Model is the Claude model to use.
	Model string

	// MaxTokens is the maximum response tokens.
	MaxTokens int64

	// MaxTurns bounds the tool-use loop. Defaults to 20.
	MaxTurns int

	// StreamCallback is an optional callback for streaming responses.
	StreamCallback func(chunk string, done bool)
}

// runSettings is an Input with defaults applied.
type runSettings struct {
	model        string
	maxTokens    int64
	maxTurns     int
	systemPrompt string
}

func (in *Input) settings() runSettings {
	s := runSettings{
		model:        in.Model,
		maxTokens:    in.MaxTokens,
		maxTurns:     in.MaxTurns,
		systemPrompt: in.SystemPrompt,
	}
	if s.model == "" {
		s.model = defaultModel
	}
	if s.maxTokens == 0 {
		s.maxTokens = defaultMaxTokens
	}
	if s.maxTurns == 0 {
		s.maxTurns = defaultMaxTurns
	}
	if s.systemPrompt == "" {
		s.systemPrompt = ClubSystemPrompt
	}
	return s
}

func (s runSettings) messageParams(messages []anthropic.MessageParam, tools []anthropic.ToolUnionParam) anthropic.MessageNewParams {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(s.model),
		MaxTokens: s.maxTokens,
		Messages:  messages,
		System:    []anthropic.TextBlockParam{{Text: s.systemPrompt}},
	}
	if len(tools) > 0 {
		params.Tools = tools
	}
	return params
}

// Output represents the output from an agent run.
type Output struct {
	// Type indicates the kind of output.
	Type OutputType

	// Text is the agent's text response.
	Text string

	// PendingAction is set when Type is OutputConfirmationNeeded.
	PendingAction *core.PendingAction

	// ToolsUsed records all tools invoked during this run.
	ToolsUsed []core.ToolExecution

	// History is the full conversation after this run, for persistence.
	History []anthropic.MessageParam

	// TokensUsed tracks Claude API token consumption for this run.
	TokensUsed core.TokenUsage

	// Error is set when Type is OutputError.
	Error error
}

// OutputType indicates the kind of output from an agent run.
type OutputType int

const (
	// OutputComplete indicates the agent finished successfully.
	OutputComplete OutputType = iota

	// OutputConfirmationNeeded indicates a write operation needs user confirmation.
	OutputConfirmationNeeded

	// OutputError indicates an error occurred.
	OutputError
)

func failedOutput(err error, session *Session, usage core.TokenUsage) *Output {
	return &Output{
		Type:       OutputError,
		Error:      err,
		History:    session.Messages(),
		TokensUsed: usage,
	}
}

const missingThoughtMessage = `Error: the "thought" field is missing or empty. Write operations must state their reasoning before they run.
Explain:
1. What you've verified (e.g., "Both accounts exist and the amount matches the user's request")
2. Why you're taking this action (e.g., "User asked to record this month's deposit")
3. What you expect to happen (e.g., "This will record a DEPOSIT transaction")`

// Run executes the agent loop until completion or confirmation is needed.
func (e *Engine) Run(ctx context.Context, input *Input) (*Output, error) {
	cfg := input.settings()

	session := NewSession(input.UserID)
	session.RestoreHistory(input.History)
	if input.UserMessage != "" {
		session.AddUserMessage(input.UserMessage)
	}

	apiTools := e.registry.ToAPITools()

	var usage core.TokenUsage
	var toolsUsed []core.ToolExecution

	for {
		if ctx.Err() != nil {
			return failedOutput(fmt.Errorf("run aborted: %w", ctx.Err()), session, usage), nil
		}
		if session.TurnCount >= cfg.maxTurns {
			return failedOutput(fmt.Errorf("gave up after %d turns", cfg.maxTurns), session, usage), nil
		}
		session.IncrementTurnCount()

		resp, err := e.createMessage(ctx, cfg.messageParams(session.Messages(), apiTools), input.StreamCallback)
		if err != nil {
			return failedOutput(fmt.Errorf("anthropic API: %w", err), session, usage), err
		}
		usage.InputTokens += int(resp.Usage.InputTokens)
		usage.OutputTokens += int(resp.Usage.OutputTokens)

		var toolResults []anthropic.ContentBlockParamUnion
		var text string
		var pending *core.PendingAction

	blocks:
		for _, block := range resp.Content {
			switch block.Type {
			case "text":
				text += block.Text

			case "tool_use":
				result, p := e.handleToolUse(ctx, session, block)
				if p != nil {
					pending = p
					break blocks
				}
				toolResults = append(toolResults, result.block)
				if result.execution != nil {
					toolsUsed = append(toolsUsed, *result.execution)
				}
			}
		}

		if pending != nil {
			session.AddAssistantResponse(resp)
			return &Output{
				Type:          OutputConfirmationNeeded,
				Text:          text,
				PendingAction: pending,
				ToolsUsed:     toolsUsed,
				History:       session.Messages(),
				TokensUsed:    usage,
			}, nil
		}

		if len(toolResults) == 0 {
			session.AddAssistantMessage(text)
			if input.StreamCallback != nil {
				input.StreamCallback("", true)
			}
			return &Output{
				Type:       OutputComplete,
				Text:       text,
				ToolsUsed:  toolsUsed,
				History:    session.Messages(),
				TokensUsed: usage,
			}, nil
		}

		session.AddAssistantResponse(resp)
		session.AddToolResults(toolResults)
	}
}

type toolUseResult struct {
	block     anthropic.ContentBlockParamUnion
	execution *core.ToolExecution
}

// handleToolUse processes one tool_use block. Read tools execute inline;
// confirmation-gated tools return a PendingAction instead of a result block.
func (e *Engine) handleToolUse(ctx context.Context, session *Session, block anthropic.ContentBlockUnion) (toolUseResult, *core.PendingAction) {
	name := block.Name
	inputBytes := json.RawMessage(block.Input)

	fail := func(msg string) toolUseResult {
		return toolUseResult{block: anthropic.NewToolResultBlock(block.ID, msg, true)}
	}

	var base core.BaseInput
	if err := json.Unmarshal(inputBytes, &base); err != nil {
		return fail(fmt.Sprintf("invalid tool input JSON: %s", err.Error())), nil
	}
	thought := strings.TrimSpace(base.Thought)

	tool, ok := e.registry.Get(name)
	if !ok {
		return fail(fmt.Sprintf("unknown tool: %s", name)), nil
	}

	if tool.RequiresConfirmation() {
		if thought == "" {
			return fail(missingThoughtMessage), nil
		}
		now := time.Now()
		pending := &core.PendingAction{
			ID:             uuid.New().String(),
			IdempotencyKey: core.GenerateIdempotencyKey(session.UserID, name, inputBytes),
			SessionID:      session.ID,
			UserID:         session.UserID,
			Tool:           name,
			Input:          inputBytes,
			Thought:        thought,
			Summary:        tool.GetSummary(inputBytes),
			BlockID:        block.ID,
			CreatedAt:      now.Unix(),
			ExpiresAt:      now.Add(confirmationTTL).Unix(),
		}
		e.log.Info().
			Str("tool", name).
			Str("confirmation_id", pending.ID).
			Msg("write operation awaiting confirmation")
		return toolUseResult{}, pending
	}

	execution, resultBlock := e.executeTool(ctx, tool, &core.ToolParams{
		UserID:    session.UserID,
		Input:     inputBytes,
		RequestID: session.ID,
	}, block.ID)
	return toolUseResult{block: resultBlock, execution: &execution}, nil
}

// executeTool runs one read-only tool call and builds its result block.
func (e *Engine) executeTool(ctx context.Context, tool core.Tool, params *core.ToolParams, blockID string) (core.ToolExecution, anthropic.ContentBlockParamUnion) {
	start := time.Now()
	result, err := tool.Execute(ctx, params)

	execution := core.ToolExecution{
		Tool:       tool.Name(),
		Input:      params.Input,
		DurationMs: time.Since(start).Milliseconds(),
	}

	switch {
	case err != nil:
		execution.Error = err.Error()
		e.log.Warn().Err(err).Str("tool", tool.Name()).Msg("tool execution error")
		return execution, anthropic.NewToolResultBlock(blockID, err.Error(), true)
	case result != nil && !result.Success:
		execution.Error = result.Error
		e.log.Warn().Str("tool", tool.Name()).Str("error", result.Error).Msg("tool execution failed")
		return execution, anthropic.NewToolResultBlock(blockID, result.Error, true)
	default:
		var resultBytes []byte
		if result != nil {
			execution.Result = result.Data
			resultBytes, _ = json.Marshal(result.Data)
		}
		e.log.Debug().
			Str("tool", tool.Name()).
			Int64("duration_ms", execution.DurationMs).
			Msg("tool executed")
		return execution, anthropic.NewToolResultBlock(blockID, string(resultBytes), false)
	}
}

// ExecuteTool executes a confirmed write operation directly.
func (e *Engine) ExecuteTool(ctx context.Context, userID, toolName string, input json.RawMessage, confirmationID string) (*core.ToolResult, error) {
	tool, ok := e.registry.Get(toolName)
	if !ok {
		return nil, fmt.Errorf("unknown tool: %s", toolName)
	}

	return tool.Execute(ctx, &core.ToolParams{
		UserID:         userID,
		Input:          input,
		ConfirmationID: confirmationID,
		RequestID:      confirmationID,
	})
}

// RunConfirmedAction executes a confirmed write operation and resumes the
// conversation so Claude can respond to the result. The history must still
// contain the assistant turn with the original tool_use block.
func (e *Engine) RunConfirmedAction(ctx context.Context, input *Input, action *core.PendingAction) (*Output, error) {
	if time.Now().Unix() > action.ExpiresAt {
		return nil, fmt.Errorf("confirmation expired for action %s", action.ID)
	}

	tool, ok := e.registry.Get(action.Tool)
	if !ok {
		return nil, fmt.Errorf("unknown tool: %s", action.Tool)
	}

	session := NewSession(input.UserID)
	session.RestoreHistory(input.History)

	start := time.Now()
	result, toolErr := tool.Execute(ctx, &core.ToolParams{
		UserID:         action.UserID,
		Input:          action.Input,
		ConfirmationID: action.ID,
		RequestID:      session.ID,
	})
	durationMs := time.Since(start).Milliseconds()

	var toolResult anthropic.ContentBlockParamUnion
	switch {
	case toolErr != nil:
		e.log.Warn().Err(toolErr).Str("tool", action.Tool).Msg("confirmed action error")
		toolResult = anthropic.NewToolResultBlock(action.BlockID, toolErr.Error(), true)
	case result != nil && !result.Success:
		e.log.Warn().Str("tool", action.Tool).Str("error", result.Error).Msg("confirmed action failed")
		toolResult = anthropic.NewToolResultBlock(action.BlockID, result.Error, true)
	default:
		e.log.Info().Str("tool", action.Tool).Msg("confirmed action executed")
		var resultBytes []byte
		if result != nil {
			resultBytes, _ = json.Marshal(result.Data)
		}
		toolResult = anthropic.NewToolResultBlock(action.BlockID, string(resultBytes), false)
	}
	session.AddToolResults([]anthropic.ContentBlockParamUnion{toolResult})

	cfg := input.settings()
	resp, err := e.client.Messages.New(ctx, cfg.messageParams(session.Messages(), nil))
	if err != nil {
		return nil, fmt.Errorf("anthropic API after confirmation: %w", err)
	}

	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	session.AddAssistantResponse(resp)

	execution := core.ToolExecution{
		Tool:       action.Tool,
		Input:      action.Input,
		DurationMs: durationMs,
	}
	if toolErr != nil {
		execution.Error = toolErr.Error()
	} else if result != nil {
		if !result.Success {
			execution.Error = result.Error
		} else {
			execution.Result = result.Data
		}
	}

	return &Output{
		Type:      OutputComplete,
		Text:      text,
		ToolsUsed: []core.ToolExecution{execution},
		History:   session.Messages(),
		TokensUsed: core.TokenUsage{
			InputTokens:  int(resp.Usage.InputTokens),
			OutputTokens: int(resp.Usage.OutputTokens),
		},
	}, nil
}

// createMessage issues one message call, streaming when a callback is set.
func (e *Engine) createMessage(ctx context.Context, params anthropic.MessageNewParams, cb func(string, bool)) (*anthropic.Message, error) {
	if cb == nil {
		return e.client.Messages.New(ctx, params)
	}

	stream := e.client.Messages.NewStreaming(ctx, params)
	defer stream.Close()

	var msg anthropic.Message
	for stream.Next() {
		event := stream.Current()
		if err := msg.Accumulate(event); err != nil {
			e.log.Debug().Err(err).Msg("stream accumulate error")
		}
		if evt, ok := event.AsAny().(anthropic.ContentBlockDeltaEvent); ok {
			if delta, ok := evt.Delta.AsAny().(anthropic.TextDelta); ok {
				cb(delta.Text, false)
			}
		}
	}
	if err := stream.Err(); err != nil {
		return nil, err
	}
	return &msg, nil
}
