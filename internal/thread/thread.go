// Package thread holds the conversation data model and its durable store.
package thread

import (
	"time"

	altronErrors "github.com/TheAdaptoid/Altron-Core/internal/errors"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

// ValidateRole rejects roles the backend adapter does not recognize.
func ValidateRole(r Role) error {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem, RoleTool:
		return nil
	default:
		return altronErrors.UnsupportedRole(string(r))
	}
}

// ToolCall is one tool invocation requested by the model within a turn.
// Arguments is the raw JSON argument string, parsed lazily by the executor.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Message is one entry in a thread. Messages are immutable once appended;
// ordering within a thread is append-only and significant.
type Message struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content"`
	Reasoning  string     `json:"reasoning,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	Timestamp  time.Time  `json:"timestamp"`
}

// NewMessage stamps a message with the current time.
func NewMessage(role Role, content string) Message {
	return Message{
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// Thread is a named, ordered list of messages. The id is generated once at
// creation and never reused.
type Thread struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Append adds a message to the end of the thread.
func (t *Thread) Append(msg Message) {
	t.Messages = append(t.Messages, msg)
}
