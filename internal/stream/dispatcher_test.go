package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDispatch_RoutesEachTypeOnce(t *testing.T) {
	var calls []string
	h := Handlers{
		OnChunk:         func(text string) { calls = append(calls, "chunk:"+text) },
		OnToolStart:     func(evt Event) { calls = append(calls, "tool_start:"+evt.ToolCallID) },
		OnToolResult:    func(evt Event) { calls = append(calls, "tool_result:"+evt.ToolCallID) },
		OnThinking:      func(text string) { calls = append(calls, "thinking:"+text) },
		OnDone:          func(evt Event) { calls = append(calls, "done:"+evt.MessageID) },
		OnError:         func(message string) { calls = append(calls, "error:"+message) },
		OnAnalysisStart: func() { calls = append(calls, "analysis_start") },
		OnAnalysisChunk: func(text string) { calls = append(calls, "analysis_chunk:"+text) },
		OnAnalysisDone:  func(evt Event) { calls = append(calls, "analysis_done:"+evt.MessageID) },
	}

	events := []Event{
		{Type: TypeThinking, Text: "hm"},
		{Type: TypeChunk, Text: "Hi"},
		{Type: TypeToolStart, ToolCallID: "tc-1"},
		{Type: TypeToolResult, ToolCallID: "tc-1"},
		{Type: TypeAnalysisStart},
		{Type: TypeAnalysisChunk, Text: "a"},
		{Type: TypeAnalysisDone, MessageID: "m2"},
		{Type: TypeDone, MessageID: "m1"},
		{Type: TypeError, Message: "boom"},
	}
	for _, evt := range events {
		h.Dispatch(evt)
	}

	assert.Equal(t, []string{
		"thinking:hm",
		"chunk:Hi",
		"tool_start:tc-1",
		"tool_result:tc-1",
		"analysis_start",
		"analysis_chunk:a",
		"analysis_done:m2",
		"done:m1",
		"error:boom",
	}, calls)
}

func TestDispatch_NilCallbacksSkipped(t *testing.T) {
	var chunks int
	h := Handlers{OnChunk: func(string) { chunks++ }}

	// Every other callback unset; none of these may panic.
	h.Dispatch(Event{Type: TypeChunk, Text: "x"})
	h.Dispatch(Event{Type: TypeToolStart})
	h.Dispatch(Event{Type: TypeToolResult})
	h.Dispatch(Event{Type: TypeThinking})
	h.Dispatch(Event{Type: TypeDone})
	h.Dispatch(Event{Type: TypeError})
	h.Dispatch(Event{Type: TypeAnalysisStart})
	h.Dispatch(Event{Type: TypeAnalysisChunk})
	h.Dispatch(Event{Type: TypeAnalysisDone})

	assert.Equal(t, 1, chunks)
}

func TestDispatch_UnknownTypeProducesNoDispatch(t *testing.T) {
	called := false
	h := Handlers{
		OnChunk: func(string) { called = true },
		OnError: func(string) { called = true },
	}

	h.Dispatch(Event{Type: Type("telemetry"), Text: "x"})

	assert.False(t, called)
}
