package engine

// TraceEvent is one entry in the engine's in-memory scheduling trace.
// Seq is the logical clock tick at record time; events sort by Seq into
// a single total order across all goroutines.
type TraceEvent struct {
	Seq    int64  `json:"seq"`
	Kind   string `json:"kind"`
	Task   string `json:"task"`
	Name   string `json:"name,omitempty"`
	Detail string `json:"detail,omitempty"`
}

// record stamps the event with the next clock tick and appends it.
func (e *Engine) record(ev TraceEvent) {
	ev.Seq = e.clock.Next()
	e.traceMu.Lock()
	e.trace = append(e.trace, ev)
	e.traceMu.Unlock()
}

// Trace copies the events recorded so far.
func (e *Engine) Trace() []TraceEvent {
	e.traceMu.Lock()
	defer e.traceMu.Unlock()
	out := make([]TraceEvent, len(e.trace))
	copy(out, e.trace)
	return out
}
