package session

import (
	"encoding/json"
	"time"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is one entry of the conversation. Persisted messages come from
// the message store and are never mutated locally; optimistic messages
// are created by Send and live only until the turn's terminal event.
type Message struct {
	ID          string    `json:"id"`
	Role        Role      `json:"role"`
	Content     string    `json:"content"`
	CreatedAt   time.Time `json:"createdAt"`
	PageContext string    `json:"pageContext,omitempty"`
	ThreadStart bool      `json:"threadStart,omitempty"`
	Extra       *Extra    `json:"extra,omitempty"`
}

// Extra carries server-side annotations, currently the historical
// snapshot of a turn's tool calls.
type Extra struct {
	ToolCalls []ToolCallSnapshot `json:"toolCalls,omitempty"`
}

// ToolCallSnapshot is the settled form of a tool call as the server
// persists it inside a message.
type ToolCallSnapshot struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Input      json.RawMessage `json:"input,omitempty"`
	Status     string          `json:"status"`
	Summary    string          `json:"summary,omitempty"`
	Output     json.RawMessage `json:"output,omitempty"`
	DurationMs int64           `json:"durationMs,omitempty"`
}
