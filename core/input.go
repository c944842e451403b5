package core

// BaseInput provides common fields for all tool inputs.
// Tools embed this struct to automatically include reasoning support.
type BaseInput struct {
	// Thought contains the agent's reasoning about why it's using this tool.
	// Optional for read operations; required for write operations
	// (transaction create/delete).
	Thought string `json:"thought,omitempty"`
}
