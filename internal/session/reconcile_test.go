package session

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/leadwise/leadwise/internal/stream"
)

func TestDocumentChange(t *testing.T) {
	r := NewReconciler(nil)

	t.Run("explicit flag wins", func(t *testing.T) {
		summary, ok := r.DocumentChange(stream.Event{
			Type:            stream.TypeDone,
			DocumentChanged: true,
			ChangesSummary:  "Pricing section updated",
		})
		assert.True(t, ok)
		assert.Equal(t, "Pricing section updated", summary)
	})

	t.Run("successful mutating tool implies change", func(t *testing.T) {
		summary, ok := r.DocumentChange(stream.Event{
			Type: stream.TypeDone,
			ToolCalls: []stream.ToolCallInfo{
				{ToolName: "search_contacts", Status: stream.StatusSuccess},
				{ToolName: "update_document", Status: stream.StatusSuccess},
			},
		})
		assert.True(t, ok)
		assert.Equal(t, "Document updated", summary, "missing summary falls back to a generic one")
	})

	t.Run("failed mutating tool does not count", func(t *testing.T) {
		_, ok := r.DocumentChange(stream.Event{
			Type: stream.TypeDone,
			ToolCalls: []stream.ToolCallInfo{
				{ToolName: "update_document", Status: stream.StatusError},
			},
		})
		assert.False(t, ok)
	})

	t.Run("read-only turn is silent", func(t *testing.T) {
		_, ok := r.DocumentChange(stream.Event{
			Type: stream.TypeDone,
			ToolCalls: []stream.ToolCallInfo{
				{ToolName: "search_contacts", Status: stream.StatusSuccess},
			},
		})
		assert.False(t, ok)
	})

	t.Run("non-done events never signal", func(t *testing.T) {
		_, ok := r.DocumentChange(stream.Event{Type: stream.TypeChunk, Text: "hi"})
		assert.False(t, ok)
	})
}
