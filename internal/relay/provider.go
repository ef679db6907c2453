// Package relay serves the assistant wire protocol over HTTP: the
// streaming endpoint, the message history, and thread management. It
// turns any configured model provider into a conforming stream source,
// which makes it both a dev server and an integration fixture.
package relay

import (
	"context"

	"github.com/leadwise/leadwise/internal/session"
	"github.com/leadwise/leadwise/internal/stream"
)

// Emitter delivers one wire event to the connected client. Providers
// call it for intermediate events only; the server owns the terminal
// done and error events.
type Emitter func(evt stream.Event) error

// Request is one turn handed to a provider.
type Request struct {
	Message     string
	PageContext string
	History     []session.Message
}

// Provider generates a model response for a turn, pushing chunk and
// tool events through emit as they become available. The returned
// string is the final assembled assistant text.
type Provider interface {
	Name() string
	Stream(ctx context.Context, req Request, emit Emitter) (string, error)
}
