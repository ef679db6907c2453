package stream

import "encoding/json"

// Type discriminates the wire events emitted by the assistant endpoint.
type Type string

const (
	TypeChunk         Type = "chunk"
	TypeToolStart     Type = "tool_start"
	TypeToolResult    Type = "tool_result"
	TypeThinking      Type = "thinking"
	TypeDone          Type = "done"
	TypeError         Type = "error"
	TypeAnalysisStart Type = "analysis_start"
	TypeAnalysisChunk Type = "analysis_chunk"
	TypeAnalysisDone  Type = "analysis_done"
)

// Event is one decoded wire event. A single flat struct covers every
// variant; the Type field selects which fields are meaningful.
type Event struct {
	Type Type `json:"type"`

	// chunk / thinking / analysis_chunk
	Text string `json:"text,omitempty"`

	// tool_start / tool_result
	ToolCallID string          `json:"toolCallId,omitempty"`
	ToolName   string          `json:"toolName,omitempty"`
	Input      json.RawMessage `json:"input,omitempty"`
	Status     string          `json:"status,omitempty"`
	Summary    string          `json:"summary,omitempty"`
	Output     json.RawMessage `json:"output,omitempty"`
	DurationMs int64           `json:"durationMs,omitempty"`

	// done / analysis_done
	MessageID       string         `json:"messageId,omitempty"`
	ToolCalls       []ToolCallInfo `json:"toolCalls,omitempty"`
	DocumentChanged bool           `json:"documentChanged,omitempty"`
	ChangesSummary  string         `json:"changesSummary,omitempty"`
	Suggestions     []string       `json:"suggestions,omitempty"`

	// error
	Message string `json:"message,omitempty"`
}

// ToolCallInfo is the per-call summary the server embeds in a done event.
type ToolCallInfo struct {
	ToolName string `json:"toolName"`
	Status   string `json:"status"`
}

const (
	StatusRunning = "running"
	StatusSuccess = "success"
	StatusError   = "error"
)
