package session

import (
	"context"
	"log/slog"

	"github.com/leadwise/leadwise/internal/stream"
	"github.com/leadwise/leadwise/internal/toolcall"
)

// Reconciler replaces a finished turn's transient state with server truth.
// It never mutates persisted messages; it only refetches them.
type Reconciler struct {
	backend Backend
}

func NewReconciler(backend Backend) *Reconciler {
	return &Reconciler{backend: backend}
}

// Refetch loads the authoritative message list. A refetch failure leaves
// the previous list in place; the caller keeps whatever it had.
func (r *Reconciler) Refetch(ctx context.Context) ([]Message, bool) {
	messages, err := r.backend.ListMessages(ctx)
	if err != nil {
		slog.Warn("Failed to refetch messages", "error", err)
		return nil, false
	}
	return messages, true
}

// DocumentChange inspects a done event and returns the change summary when
// any successful tool call is classified as document-mutating. The second
// return value reports whether a change signal should be emitted.
func (r *Reconciler) DocumentChange(evt stream.Event) (string, bool) {
	if evt.Type != stream.TypeDone {
		return "", false
	}

	changed := evt.DocumentChanged
	for _, tc := range evt.ToolCalls {
		if tc.Status == stream.StatusSuccess && toolcall.IsDocumentMutating(tc.ToolName) {
			changed = true
			break
		}
	}
	if !changed {
		return "", false
	}

	summary := evt.ChangesSummary
	if summary == "" {
		summary = "Document updated"
	}
	return summary, true
}
