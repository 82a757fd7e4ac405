package tracker

import (
	"sync"
	"time"

	"moneyminder/internal/analytics"
)

const summaryLimit = 200

// Record is one tool execution observed by the tracker.
type Record struct {
	Tool      string
	Args      analytics.Args
	StartedAt time.Time
	EndedAt   time.Time
	Duration  time.Duration
	Result    string
	Summary   string
}

// Completed reports whether the record has been paired with its end event.
func (r *Record) Completed() bool { return !r.EndedAt.IsZero() }

// Tracker pairs tool start and end notifications within one query. End
// events carry no identity, so each one completes the oldest pending start.
type Tracker struct {
	mu        sync.Mutex
	pending   []*Record
	completed []*Record
}

func New() *Tracker {
	return &Tracker{}
}

// Begin records a tool call start and returns its pending record.
func (t *Tracker) Begin(tool string, args analytics.Args, at time.Time) *Record {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec := &Record{Tool: tool, Args: args, StartedAt: at}
	t.pending = append(t.pending, rec)
	return rec
}

// Finish completes the oldest pending record with the given result payload.
// It returns nil when no start is pending; such end events are dropped.
func (t *Tracker) Finish(payload string, at time.Time) *Record {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.pending) == 0 {
		return nil
	}
	rec := t.pending[0]
	t.pending = t.pending[1:]
	rec.EndedAt = at
	rec.Duration = at.Sub(rec.StartedAt)
	rec.Result = payload
	rec.Summary = Summarize(payload)
	t.completed = append(t.completed, rec)
	return rec
}

// Completed returns the finished records in completion order.
func (t *Tracker) Completed() []*Record {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*Record, len(t.completed))
	copy(out, t.completed)
	return out
}

// PendingCount reports how many starts still await their end event.
func (t *Tracker) PendingCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}

// LastCompleted returns the most recently finished record, or nil.
func (t *Tracker) LastCompleted() *Record {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.completed) == 0 {
		return nil
	}
	return t.completed[len(t.completed)-1]
}

// Summarize truncates a result payload for logging and history display.
// Payloads over 200 characters keep their first 200 plus an ellipsis.
func Summarize(payload string) string {
	runes := []rune(payload)
	if len(runes) <= summaryLimit {
		return payload
	}
	return string(runes[:summaryLimit]) + "..."
}
