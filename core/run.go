package core

// ToolExecution records one tool invocation during an agent run.
type ToolExecution struct {
	Tool       string
	Input      interface{}
	Result     interface{}
	Error      string
	DurationMs int64
}

// TokenUsage tracks model token consumption across a run.
type TokenUsage struct {
	InputTokens  int
	OutputTokens int
}
