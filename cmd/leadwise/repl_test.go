package main

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/leadwise/leadwise/internal/prefs"
	"github.com/leadwise/leadwise/internal/session"
	"github.com/leadwise/leadwise/internal/stream"
	"github.com/leadwise/leadwise/internal/toolcall"
)

type failOpener struct{ message string }

func (f failOpener) Open(ctx context.Context, req stream.Request) (io.ReadCloser, error) {
	return nil, errors.New(f.message)
}

type emptyBackend struct{}

func (emptyBackend) ListMessages(ctx context.Context) ([]session.Message, error) {
	return nil, nil
}

func (emptyBackend) NewThread(ctx context.Context) error { return nil }

// An error arriving before followTurn starts must survive the per-turn
// reset, so the reset happens in beginTurn ahead of Send.
func TestREPL_InstantSendErrorIsNotLost(t *testing.T) {
	store, err := prefs.NewStore(filepath.Join(t.TempDir(), "prefs.json"), prefs.Options{})
	require.NoError(t, err)

	repl := NewREPL(store, newRenderer())
	repl.controller = session.NewController(session.Options{
		Transport: failOpener{message: "connection refused"},
		Backend:   emptyBackend{},
		Clock:     toolcall.SystemClock(),
		OnChange:  repl.onChange,
		OnError:   repl.onError,
	})

	repl.beginTurn()
	require.NoError(t, repl.controller.Send(context.Background(), "hello", ""))

	require.Eventually(t, func() bool {
		repl.mu.Lock()
		defer repl.mu.Unlock()
		return repl.errText == "connection refused"
	}, 2*time.Second, 2*time.Millisecond, "turn error was dropped")
}
