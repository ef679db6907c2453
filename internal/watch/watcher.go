// Package watch polls the message history on a cron schedule and raises
// a signal when the assistant has replied since the user last looked.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/leadwise/leadwise/internal/session"
)

// Seen tracks the newest message the user has acknowledged. The prefs
// store satisfies it.
type Seen interface {
	LastSeenMessageID() string
	SetLastSeenMessageID(id string) error
}

// Watcher runs the poll loop. OnUnread fires at most once per newly
// observed assistant message.
type Watcher struct {
	backend  session.Backend
	seen     Seen
	schedule cron.Schedule
	onUnread func(msg session.Message)

	tickInterval time.Duration
	nextFire     time.Time

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

type Options struct {
	// Schedule is a standard cron expression; descriptors like
	// "@every 1m" work too.
	Schedule string
	OnUnread func(msg session.Message)
	// TickInterval bounds how late a fire can be. Defaults to 10s.
	TickInterval time.Duration
}

func NewWatcher(backend session.Backend, seen Seen, opts Options) (*Watcher, error) {
	schedule, err := cron.ParseStandard(opts.Schedule)
	if err != nil {
		return nil, fmt.Errorf("invalid watch schedule %q: %w", opts.Schedule, err)
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = 10 * time.Second
	}
	return &Watcher{
		backend:      backend,
		seen:         seen,
		schedule:     schedule,
		onUnread:     opts.OnUnread,
		tickInterval: opts.TickInterval,
	}, nil
}

func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	ctx, w.cancel = context.WithCancel(ctx)
	w.done = make(chan struct{})
	w.nextFire = w.schedule.Next(time.Now())
	w.mu.Unlock()

	go w.run(ctx)

	slog.Info("Watcher started", "next_fire", w.nextFire.Format(time.RFC3339))
	return nil
}

func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	cancel := w.cancel
	done := w.done
	w.mu.Unlock()

	cancel()
	<-done
	slog.Info("Watcher stopped")
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.done)

	ticker := time.NewTicker(w.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.onTick(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (w *Watcher) onTick(ctx context.Context) {
	now := time.Now()

	w.mu.Lock()
	due := !now.Before(w.nextFire)
	if due {
		w.nextFire = w.schedule.Next(now)
	}
	w.mu.Unlock()

	if due {
		w.Poll(ctx)
	}
}

// Poll checks once for a new assistant message. Exposed so hosts can
// force a check outside the schedule.
func (w *Watcher) Poll(ctx context.Context) {
	messages, err := w.backend.ListMessages(ctx)
	if err != nil {
		slog.Warn("Watch poll failed", "error", err)
		return
	}

	latest, ok := latestAssistant(messages)
	if !ok {
		return
	}

	if latest.ID == w.seen.LastSeenMessageID() {
		return
	}

	if err := w.seen.SetLastSeenMessageID(latest.ID); err != nil {
		slog.Warn("Failed to persist last seen message", "error", err)
	}
	if w.onUnread != nil {
		w.onUnread(latest)
	}
	slog.Info("New assistant message", "id", latest.ID)
}

func latestAssistant(messages []session.Message) (session.Message, bool) {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == session.RoleAssistant {
			return messages[i], true
		}
	}
	return session.Message{}, false
}
