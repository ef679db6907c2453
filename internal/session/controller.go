package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	lwerrors "github.com/leadwise/leadwise/internal/errors"
	"github.com/leadwise/leadwise/internal/stream"
	"github.com/leadwise/leadwise/internal/toolcall"
)

// Options wires a Controller to its collaborators. Transport and Backend
// are required; everything else has a usable zero value.
type Options struct {
	Transport    Opener
	Backend      Backend
	DisplayFloor time.Duration
	Clock        toolcall.Clock

	// OnChange fires after every visible state mutation.
	OnChange func()
	// OnError receives exactly one message per failed turn. Cancellations
	// never reach it.
	OnError func(message string)
	// OnDocumentChanged fires when a finished turn mutated the working
	// document; the summary is display text for the host UI.
	OnDocumentChanged func(summary string)

	OnAnalysisStart func()
	OnAnalysisChunk func(text string)
	OnAnalysisDone  func(messageID string, suggestions []string)
}

// Controller is the single writer of session state. It owns the streaming
// buffer, the optimistic messages, and the lifecycle of the one active
// transport; every callback from the stream serializes on its lock.
type Controller struct {
	transport  Opener
	backend    Backend
	reconciler *Reconciler
	floor      time.Duration
	clock      toolcall.Clock

	onChange          func()
	onError           func(string)
	onDocumentChanged func(string)
	onAnalysisStart   func()
	onAnalysisChunk   func(string)
	onAnalysisDone    func(string, []string)

	mu            sync.Mutex
	persisted     []Message
	optimistic    []Message
	streamingText string
	isThinking    bool
	isStreaming   bool
	cancelActive  context.CancelFunc
	tracker       *toolcall.Tracker
	turn          uint64
}

func NewController(opts Options) *Controller {
	return &Controller{
		transport:         opts.Transport,
		backend:           opts.Backend,
		reconciler:        NewReconciler(opts.Backend),
		floor:             opts.DisplayFloor,
		clock:             opts.Clock,
		onChange:          opts.OnChange,
		onError:           opts.OnError,
		onDocumentChanged: opts.OnDocumentChanged,
		onAnalysisStart:   opts.OnAnalysisStart,
		onAnalysisChunk:   opts.OnAnalysisChunk,
		onAnalysisDone:    opts.OnAnalysisDone,
	}
}

// Load fetches the persisted history. Hosts call it once at startup.
func (c *Controller) Load(ctx context.Context) error {
	messages, err := c.backend.ListMessages(ctx)
	if err != nil {
		return fmt.Errorf("load messages: %w", err)
	}

	c.mu.Lock()
	c.persisted = messages
	c.mu.Unlock()

	c.notify()
	return nil
}

// Send starts a new turn. Any in-flight turn is cancelled first, so at
// most one transport is ever active. The user message appears
// optimistically until the turn's terminal event reconciles it away.
func (c *Controller) Send(ctx context.Context, text, pageContext string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("message content cannot be empty")
	}

	turnCtx, cancel := context.WithCancel(ctx)

	c.mu.Lock()
	prevCancel := c.cancelActive
	prevTracker := c.tracker
	c.turn++
	turn := c.turn
	tracker := toolcall.NewTracker(c.floor, c.clock, c.notify)
	c.tracker = tracker
	c.cancelActive = cancel
	c.isStreaming = true
	c.isThinking = true
	c.streamingText = ""
	c.optimistic = []Message{{
		ID:          ulid.Make().String(),
		Role:        RoleUser,
		Content:     text,
		CreatedAt:   time.Now(),
		PageContext: pageContext,
	}}
	c.mu.Unlock()

	// Cancel-before-replace: the previous turn's transport stops reading
	// and its floor timers die without firing.
	if prevCancel != nil {
		prevCancel()
	}
	if prevTracker != nil {
		prevTracker.Clear()
	}
	c.notify()

	go c.runTurn(turnCtx, cancel, turn, tracker, stream.Request{
		Message:     text,
		PageContext: pageContext,
	})
	return nil
}

// Cancel aborts the active transport, if any. Buffered streaming text is
// kept; the caller decides whether to discard it. The optimistic user
// message is dropped: a cancelled turn never got a terminal event, so the
// server never persisted it and a later refetch would not bring it back.
// Never reported through OnError.
func (c *Controller) Cancel() {
	c.mu.Lock()
	cancel := c.cancelActive
	tracker := c.tracker
	wasStreaming := c.isStreaming
	c.cancelActive = nil
	c.isStreaming = false
	c.isThinking = false
	if wasStreaming {
		c.optimistic = nil
	}
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if tracker != nil {
		tracker.Clear()
	}
	if wasStreaming {
		c.notify()
	}
}

// NewThread cancels any active stream, asks the server for a fresh
// conversation, and reloads history. Cancelling first is deliberate: a
// turn still streaming into a thread that no longer exists helps nobody.
func (c *Controller) NewThread(ctx context.Context) error {
	c.Cancel()

	if err := c.backend.NewThread(ctx); err != nil {
		return fmt.Errorf("new thread: %w", err)
	}

	c.mu.Lock()
	c.optimistic = nil
	c.streamingText = ""
	c.mu.Unlock()

	if messages, ok := c.reconciler.Refetch(ctx); ok {
		c.mu.Lock()
		c.persisted = messages
		c.mu.Unlock()
	}

	c.notify()
	return nil
}

// Snapshot returns the current state for rendering. Persisted messages
// come first, optimistic ones after, both in order.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	messages := make([]Message, 0, len(c.persisted)+len(c.optimistic))
	messages = append(messages, c.persisted...)
	messages = append(messages, c.optimistic...)
	st := State{
		Messages:      messages,
		StreamingText: c.streamingText,
		IsThinking:    c.isThinking,
		IsStreaming:   c.isStreaming,
	}
	tracker := c.tracker
	c.mu.Unlock()

	if tracker != nil {
		st.ToolCalls = tracker.Records()
	}
	return st
}

func (c *Controller) runTurn(ctx context.Context, cancel context.CancelFunc, turn uint64, tracker *toolcall.Tracker, req stream.Request) {
	defer cancel()

	body, err := c.transport.Open(ctx, req)
	if err != nil {
		if lwerrors.IsCancellation(err) {
			return
		}
		c.failTurn(turn, tracker, err.Error())
		return
	}
	defer body.Close()

	handlers := c.handlersFor(turn, tracker)
	decoder := stream.NewDecoder(body)
	for {
		evt, err := decoder.Next()
		if err != nil {
			if lwerrors.IsCancellation(err) {
				return
			}
			if errors.Is(err, io.EOF) {
				if c.ownsTurn(turn) {
					// The server always closes a turn with done or error;
					// a bare EOF means the connection died underneath us.
					c.failTurn(turn, tracker, "Stream ended unexpectedly")
				}
				return
			}
			c.failTurn(turn, tracker, err.Error())
			return
		}

		handlers.Dispatch(evt)

		if !c.ownsTurn(turn) {
			return
		}
	}
}

func (c *Controller) handlersFor(turn uint64, tracker *toolcall.Tracker) stream.Handlers {
	return stream.Handlers{
		OnChunk: func(text string) {
			c.mu.Lock()
			if c.turn != turn || !c.isStreaming {
				c.mu.Unlock()
				return
			}
			c.streamingText += text
			c.isThinking = false
			c.mu.Unlock()
			c.notify()
		},
		OnThinking: func(string) {
			c.mu.Lock()
			if c.turn != turn || !c.isStreaming {
				c.mu.Unlock()
				return
			}
			c.isThinking = true
			c.mu.Unlock()
			c.notify()
		},
		OnToolStart: func(evt stream.Event) {
			if c.ownsTurn(turn) {
				tracker.Start(evt)
			}
		},
		OnToolResult: func(evt stream.Event) {
			if c.ownsTurn(turn) {
				tracker.Resolve(evt)
			}
		},
		OnDone: func(evt stream.Event) {
			c.finishTurn(turn, tracker, evt)
		},
		OnError: func(message string) {
			c.failTurn(turn, tracker, message)
		},
		OnAnalysisStart: func() {
			if c.ownsTurn(turn) && c.onAnalysisStart != nil {
				c.onAnalysisStart()
			}
		},
		OnAnalysisChunk: func(text string) {
			if c.ownsTurn(turn) && c.onAnalysisChunk != nil {
				c.onAnalysisChunk(text)
			}
		},
		OnAnalysisDone: func(evt stream.Event) {
			if c.ownsTurn(turn) && c.onAnalysisDone != nil {
				c.onAnalysisDone(evt.MessageID, evt.Suggestions)
			}
		},
	}
}

// finishTurn handles a done event: drop transients, stop timers, signal
// document changes, then pull server truth.
func (c *Controller) finishTurn(turn uint64, tracker *toolcall.Tracker, evt stream.Event) {
	tracker.Clear()
	if !c.clearTransient(turn) {
		return
	}

	if summary, ok := c.reconciler.DocumentChange(evt); ok && c.onDocumentChanged != nil {
		c.onDocumentChanged(summary)
	}

	c.refetch(turn)
	c.notify()
}

// failTurn handles transport and application errors identically: same
// clearing as done, no document signal, one OnError per turn.
func (c *Controller) failTurn(turn uint64, tracker *toolcall.Tracker, message string) {
	tracker.Clear()
	if !c.clearTransient(turn) {
		return
	}

	if c.onError != nil {
		c.onError(message)
	}

	c.refetch(turn)
	c.notify()
}

// clearTransient resets turn-scoped state. It reports false when the turn
// is no longer current, in which case nothing was touched.
func (c *Controller) clearTransient(turn uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.turn != turn || !c.isStreaming {
		return false
	}
	c.optimistic = nil
	c.streamingText = ""
	c.isThinking = false
	c.isStreaming = false
	c.cancelActive = nil
	return true
}

// refetch applies the authoritative list unless a newer turn started while
// the request was in flight.
func (c *Controller) refetch(turn uint64) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	messages, ok := c.reconciler.Refetch(ctx)
	if !ok {
		return
	}

	c.mu.Lock()
	if c.turn == turn {
		c.persisted = messages
	}
	c.mu.Unlock()
}

func (c *Controller) ownsTurn(turn uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.turn == turn && c.isStreaming
}

func (c *Controller) notify() {
	if c.onChange != nil {
		c.onChange()
	}
}
