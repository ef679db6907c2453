package toolcall

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/leadwise/leadwise/internal/stream"
)

// DefaultDisplayFloor is the minimum time a call is shown as running so
// fast results don't flicker through the UI.
const DefaultDisplayFloor = 300 * time.Millisecond

// Record is one in-flight or settled tool call of the current turn.
// Status is server truth; DisplayStatus lags it by at most the floor and
// always converges to it.
type Record struct {
	ID            string
	Name          string
	Input         json.RawMessage
	Status        string
	DisplayStatus string
	Summary       string
	Output        json.RawMessage
	DurationMs    int64
	StartedAt     time.Time
}

// Tracker owns the tool-call records of the current turn. All methods are
// safe for concurrent use; floor timers fire on the clock's goroutine and
// serialize on the tracker's lock.
type Tracker struct {
	mu       sync.Mutex
	clock    Clock
	floor    time.Duration
	order    []string
	records  map[string]*Record
	timers   map[string]Timer
	onChange func()
}

// NewTracker builds a tracker. onChange, when non-nil, is invoked after
// every visible mutation so a host UI can re-render; it runs with the
// tracker unlocked.
func NewTracker(floor time.Duration, clock Clock, onChange func()) *Tracker {
	if floor <= 0 {
		floor = DefaultDisplayFloor
	}
	if clock == nil {
		clock = SystemClock()
	}
	return &Tracker{
		clock:    clock,
		floor:    floor,
		records:  make(map[string]*Record),
		timers:   make(map[string]Timer),
		onChange: onChange,
	}
}

// Start registers a tool_start event.
func (t *Tracker) Start(evt stream.Event) {
	t.mu.Lock()
	if _, exists := t.records[evt.ToolCallID]; exists {
		t.mu.Unlock()
		return
	}
	t.records[evt.ToolCallID] = &Record{
		ID:            evt.ToolCallID,
		Name:          evt.ToolName,
		Input:         evt.Input,
		Status:        stream.StatusRunning,
		DisplayStatus: stream.StatusRunning,
		StartedAt:     t.clock.Now(),
	}
	t.order = append(t.order, evt.ToolCallID)
	t.mu.Unlock()

	t.notify()
}

// Resolve applies a tool_result event. The true status flips immediately;
// the display status flips once the record has been visible for the floor
// duration.
func (t *Tracker) Resolve(evt stream.Event) {
	t.mu.Lock()
	rec, ok := t.records[evt.ToolCallID]
	if !ok {
		// Result for a call we never saw start; register it now so the
		// turn summary stays complete.
		rec = &Record{
			ID:            evt.ToolCallID,
			Name:          evt.ToolName,
			DisplayStatus: stream.StatusRunning,
			StartedAt:     t.clock.Now(),
		}
		t.records[evt.ToolCallID] = rec
		t.order = append(t.order, evt.ToolCallID)
	}

	rec.Status = evt.Status
	rec.Summary = evt.Summary
	rec.Output = evt.Output
	rec.DurationMs = evt.DurationMs
	if rec.Name == "" {
		rec.Name = evt.ToolName
	}

	elapsed := t.clock.Now().Sub(rec.StartedAt)
	if elapsed >= t.floor {
		rec.DisplayStatus = rec.Status
		t.mu.Unlock()
		t.notify()
		return
	}

	id := evt.ToolCallID
	if timer, exists := t.timers[id]; exists {
		timer.Stop()
	}
	t.timers[id] = t.clock.AfterFunc(t.floor-elapsed, func() {
		t.activate(id)
	})
	t.mu.Unlock()

	t.notify()
}

// activate flips the display status to the true status once the floor has
// passed. A record cleared in the meantime stays cleared.
func (t *Tracker) activate(id string) {
	t.mu.Lock()
	rec, ok := t.records[id]
	if !ok {
		t.mu.Unlock()
		return
	}
	delete(t.timers, id)
	rec.DisplayStatus = rec.Status
	t.mu.Unlock()

	t.notify()
}

// Records returns a snapshot of all records in arrival order.
func (t *Tracker) Records() []Record {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Record, 0, len(t.order))
	for _, id := range t.order {
		if rec, ok := t.records[id]; ok {
			out = append(out, *rec)
		}
	}
	return out
}

// Clear discards every record and stops pending floor timers without
// firing them. Used at turn end and on cancellation.
func (t *Tracker) Clear() {
	t.mu.Lock()
	for id, timer := range t.timers {
		timer.Stop()
		delete(t.timers, id)
	}
	t.records = make(map[string]*Record)
	t.order = nil
	t.mu.Unlock()

	t.notify()
}

func (t *Tracker) notify() {
	if t.onChange != nil {
		t.onChange()
	}
}
