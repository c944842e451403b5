package engine

import (
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/google/uuid"
)

// Session tracks one conversation's message history across agent turns.
type Session struct {
	ID        string
	UserID    string
	TurnCount int

	messages []anthropic.MessageParam
}

// NewSession creates a session for the given user.
func NewSession(userID string) *Session {
	return &Session{
		ID:     uuid.New().String(),
		UserID: userID,
	}
}

// RestoreHistory seeds the session with prior messages.
func (s *Session) RestoreHistory(history []anthropic.MessageParam) {
	s.messages = append(s.messages, history...)
}

// Messages returns the conversation so far.
func (s *Session) Messages() []anthropic.MessageParam {
	return s.messages
}

// AddUserMessage appends a user text message.
func (s *Session) AddUserMessage(text string) {
	s.messages = append(s.messages, anthropic.NewUserMessage(anthropic.NewTextBlock(text)))
}

// AddAssistantMessage appends a plain assistant text message.
func (s *Session) AddAssistantMessage(text string) {
	s.messages = append(s.messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(text)))
}

// AddAssistantResponse appends a full assistant response, preserving
// tool_use blocks.
func (s *Session) AddAssistantResponse(resp *anthropic.Message) {
	s.messages = append(s.messages, resp.ToParam())
}

// AddToolResults appends tool results as a user message.
func (s *Session) AddToolResults(results []anthropic.ContentBlockParamUnion) {
	s.messages = append(s.messages, anthropic.NewUserMessage(results...))
}

// IncrementTurnCount bumps the turn counter.
func (s *Session) IncrementTurnCount() {
	s.TurnCount++
}
