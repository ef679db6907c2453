package session

import (
	"context"
	"io"

	"github.com/leadwise/leadwise/internal/stream"
	"github.com/leadwise/leadwise/internal/toolcall"
)

// State is an immutable snapshot of the session handed to the host UI.
type State struct {
	Messages      []Message
	StreamingText string
	ToolCalls     []toolcall.Record
	IsThinking    bool
	IsStreaming   bool
}

// Opener opens the assistant stream. *stream.Transport satisfies it; tests
// substitute fakes.
type Opener interface {
	Open(ctx context.Context, req stream.Request) (io.ReadCloser, error)
}

// Backend is the authoritative message store and thread API.
type Backend interface {
	ListMessages(ctx context.Context) ([]Message, error)
	NewThread(ctx context.Context) error
}
