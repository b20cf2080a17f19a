package metrics

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"
)

// Recorder provides a convenient API for recording pass metrics
type Recorder struct {
	collector *Collector
	rules     int
}

// NewRecorder creates a recorder for a run with the given number of active
// rules.
func NewRecorder(collector *Collector, rules int) *Recorder {
	return &Recorder{
		collector: collector,
		rules:     rules,
	}
}

// Collector returns the collector events are recorded into.
func (r *Recorder) Collector() *Collector { return r.collector }

// Outcome is what linting one file produced.
type Outcome struct {
	Passes       int
	Diagnostics  int
	Errors       int
	Warnings     int
	FixesApplied int
	Conflicts    int
	Faults       int
}

// PassBuilder helps build a PassEvent incrementally
type PassBuilder struct {
	recorder *Recorder
	event    PassEvent
	timing   *PassTiming
	mu       sync.Mutex
}

// StartPass begins recording a file. The queue clock starts now.
func (r *Recorder) StartPass(path, language string) *PassBuilder {
	return &PassBuilder{
		recorder: r,
		event: PassEvent{
			ID:        generateID(path),
			Timestamp: time.Now(),
			Path:      path,
			Language:  language,
			RuleCount: r.rules,
		},
		timing: NewTiming(),
	}
}

// WithSource sets the size information for the file.
func (b *PassBuilder) WithSource(content []byte) *PassBuilder {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.event.FileSize = len(content)
	b.event.LineCount = bytes.Count(content, []byte("\n")) + 1
	return b
}

// MarkStarted marks the file as picked up by a worker.
func (b *PassBuilder) MarkStarted() *PassBuilder {
	b.timing.Start()
	return b
}

// Complete finishes recording and submits the event
func (b *PassBuilder) Complete(o Outcome) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.timing.Complete()

	b.event.Passes = o.Passes
	b.event.Diagnostics = o.Diagnostics
	b.event.Errors = o.Errors
	b.event.Warnings = o.Warnings
	b.event.FixesApplied = o.FixesApplied
	b.event.Conflicts = o.Conflicts
	b.event.Faults = o.Faults
	b.finish()
}

// CompleteWithError finishes recording with an error
func (b *PassBuilder) CompleteWithError(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.timing.Complete()

	b.event.Error = err.Error()
	b.finish()
}

func (b *PassBuilder) finish() {
	b.event.QueueDuration = b.timing.QueueDuration()
	b.event.LintDuration = b.timing.LintDuration()
	b.event.TotalDuration = b.timing.TotalDuration()
	b.recorder.collector.Record(b.event)
}

// generateID generates a unique ID for a pass event
func generateID(path string) string {
	now := time.Now()
	data := fmt.Sprintf("%s-%d", path, now.UnixNano())
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:8])
}

type contextKey string

const recorderContextKey contextKey = "metrics_recorder"

// WithRecorder adds a recorder to the context
func WithRecorder(ctx context.Context, recorder *Recorder) context.Context {
	return context.WithValue(ctx, recorderContextKey, recorder)
}

// RecorderFromContext retrieves a recorder from the context, or a recorder
// that discards everything when there is none.
func RecorderFromContext(ctx context.Context) *Recorder {
	if r, ok := ctx.Value(recorderContextKey).(*Recorder); ok && r != nil {
		return r
	}
	return NoOpRecorder()
}

// NoOpRecorder returns a recorder that retains no events.
func NoOpRecorder() *Recorder {
	return &Recorder{
		collector: NewCollector(WithMaxEvents(0)),
	}
}
