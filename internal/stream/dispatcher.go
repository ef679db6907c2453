package stream

// Handlers routes decoded events to typed callbacks. Nil callbacks are
// skipped, as are events with an unrecognized type. Handlers holds no
// state of its own; callers own any state their callbacks mutate.
type Handlers struct {
	OnChunk         func(text string)
	OnToolStart     func(evt Event)
	OnToolResult    func(evt Event)
	OnThinking      func(text string)
	OnDone          func(evt Event)
	OnError         func(message string)
	OnAnalysisStart func()
	OnAnalysisChunk func(text string)
	OnAnalysisDone  func(evt Event)
}

// Dispatch invokes exactly one callback for evt, in the caller's
// goroutine. Events arrive in wire order and are dispatched in the
// same order.
func (h Handlers) Dispatch(evt Event) {
	switch evt.Type {
	case TypeChunk:
		if h.OnChunk != nil {
			h.OnChunk(evt.Text)
		}
	case TypeToolStart:
		if h.OnToolStart != nil {
			h.OnToolStart(evt)
		}
	case TypeToolResult:
		if h.OnToolResult != nil {
			h.OnToolResult(evt)
		}
	case TypeThinking:
		if h.OnThinking != nil {
			h.OnThinking(evt.Text)
		}
	case TypeDone:
		if h.OnDone != nil {
			h.OnDone(evt)
		}
	case TypeError:
		if h.OnError != nil {
			h.OnError(evt.Message)
		}
	case TypeAnalysisStart:
		if h.OnAnalysisStart != nil {
			h.OnAnalysisStart()
		}
	case TypeAnalysisChunk:
		if h.OnAnalysisChunk != nil {
			h.OnAnalysisChunk(evt.Text)
		}
	case TypeAnalysisDone:
		if h.OnAnalysisDone != nil {
			h.OnAnalysisDone(evt)
		}
	}
}
