package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/google/shlex"

	"github.com/leadwise/leadwise/internal/prefs"
	"github.com/leadwise/leadwise/internal/session"
)

// REPL drives an interactive chat session on stdin/stdout. It renders
// controller state changes incrementally: text chunks print as they
// arrive and tool calls print each time their display status moves.
type REPL struct {
	controller *session.Controller
	store      *prefs.Store
	render     *renderer
	reader     *bufio.Reader

	pageContext string

	// changed wakes the print loop; the buffer of one collapses bursts.
	changed chan struct{}

	mu          sync.Mutex
	printedText int
	printedTool map[string]string
	errText     string
	docSummary  string
}

func NewREPL(store *prefs.Store, render *renderer) *REPL {
	return &REPL{
		store:       store,
		render:      render,
		reader:      bufio.NewReader(os.Stdin),
		changed:     make(chan struct{}, 1),
		printedTool: make(map[string]string),
	}
}

func (r *REPL) onChange() {
	select {
	case r.changed <- struct{}{}:
	default:
	}
}

func (r *REPL) onError(message string) {
	r.mu.Lock()
	r.errText = message
	r.mu.Unlock()
	r.onChange()
}

func (r *REPL) onDocumentChanged(summary string) {
	r.mu.Lock()
	r.docSummary = summary
	r.mu.Unlock()
	r.onChange()
}

func (r *REPL) Run(ctx context.Context) error {
	if err := r.store.SetPanelOpen(true); err != nil {
		return err
	}
	defer r.store.SetPanelOpen(false)

	r.printHistory()
	fmt.Println(r.render.muted("Type a message, or /help for commands."))

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		fmt.Print("> ")
		line, err := r.reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			quit, err := r.command(ctx, line)
			if err != nil {
				fmt.Println(r.render.errorLine(err.Error()))
			}
			if quit {
				return nil
			}
			continue
		}

		// Reset print state before Send: the turn's first callback can
		// land the instant the goroutine starts.
		r.beginTurn()
		if err := r.controller.Send(ctx, line, r.pageContext); err != nil {
			fmt.Println(r.render.errorLine(err.Error()))
			continue
		}
		r.followTurn(ctx)
	}
}

func (r *REPL) command(ctx context.Context, line string) (quit bool, err error) {
	parts, err := shlex.Split(line)
	if err != nil {
		return false, fmt.Errorf("parse command: %w", err)
	}

	switch parts[0] {
	case "/exit", "/quit":
		return true, nil
	case "/cancel":
		r.controller.Cancel()
		fmt.Println(r.render.muted("Cancelled."))
		return false, nil
	case "/new":
		if err := r.controller.NewThread(ctx); err != nil {
			return false, err
		}
		fmt.Println(r.render.muted("Started a new thread."))
		return false, nil
	case "/history":
		r.printHistory()
		return false, nil
	case "/context":
		if len(parts) < 2 {
			fmt.Println(r.render.muted(fmt.Sprintf("Page context: %q", r.pageContext)))
			return false, nil
		}
		r.pageContext = parts[1]
		fmt.Println(r.render.muted(fmt.Sprintf("Page context set to %q.", r.pageContext)))
		return false, nil
	case "/help":
		fmt.Println(r.render.muted("/cancel stop the current response  /new start a fresh thread\n/history reprint the conversation  /context [page] get or set page context\n/exit leave"))
		return false, nil
	default:
		return false, fmt.Errorf("unknown command %q", parts[0])
	}
}

// beginTurn clears per-turn print state. Call it before Send, never
// after: errors from a fast-failing turn arrive concurrently.
func (r *REPL) beginTurn() {
	r.mu.Lock()
	r.printedText = 0
	r.printedTool = make(map[string]string)
	r.errText = ""
	r.docSummary = ""
	r.mu.Unlock()
}

// followTurn prints the active turn until it reaches a terminal state.
// Reading stdin resumes afterwards, so /cancel during a stream is not
// available here; Ctrl+C cancels via the signal context.
func (r *REPL) followTurn(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			r.controller.Cancel()
			fmt.Println()
			return
		case <-r.changed:
		}

		st := r.controller.Snapshot()
		r.printProgress(st)

		if !st.IsStreaming {
			r.finishPrint(st)
			return
		}
	}
}

func (r *REPL) printProgress(st session.State) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(st.StreamingText) > r.printedText {
		fmt.Print(st.StreamingText[r.printedText:])
		r.printedText = len(st.StreamingText)
	}

	for _, rec := range st.ToolCalls {
		if r.printedTool[rec.ID] == rec.DisplayStatus {
			continue
		}
		r.printedTool[rec.ID] = rec.DisplayStatus
		fmt.Println()
		fmt.Println(r.render.toolStatus(rec))
	}
}

func (r *REPL) finishPrint(st session.State) {
	r.mu.Lock()
	errText := r.errText
	docSummary := r.docSummary
	r.mu.Unlock()

	fmt.Println()
	if errText != "" {
		fmt.Println(r.render.errorLine(errText))
	}
	if docSummary != "" {
		fmt.Println(r.render.muted("Document changed: " + docSummary))
	}

	if len(st.Messages) > 0 {
		last := st.Messages[len(st.Messages)-1]
		if last.Role == session.RoleAssistant {
			r.store.SetLastSeenMessageID(last.ID)
		}
	}
}

func (r *REPL) printHistory() {
	st := r.controller.Snapshot()
	for _, m := range st.Messages {
		fmt.Println(r.render.message(m))
	}
}
