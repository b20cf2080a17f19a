package metrics

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// PassEvent captures the metrics of linting one file, including every
// verify/fix pass run over it.
type PassEvent struct {
	// Identification
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Path      string    `json:"path"`
	Language  string    `json:"language"`

	// Input characteristics
	FileSize  int `json:"file_size"` // bytes
	LineCount int `json:"line_count"`
	RuleCount int `json:"rule_count"`

	// Timing
	QueueDuration time.Duration `json:"queue_duration"` // waiting for a worker
	LintDuration  time.Duration `json:"lint_duration"`  // parse, verify and fix
	TotalDuration time.Duration `json:"total_duration"`

	// Results
	Passes       int `json:"passes"`
	Diagnostics  int `json:"diagnostics"`
	Errors       int `json:"errors"`
	Warnings     int `json:"warnings"`
	FixesApplied int `json:"fixes_applied"`
	Conflicts    int `json:"conflicts"`
	Faults       int `json:"faults"`

	// Error is set when the file could not be linted at all.
	Error string `json:"error,omitempty"`
}

// PassTiming tracks the timing of one file.
type PassTiming struct {
	queuedAt    time.Time
	startedAt   time.Time
	completedAt time.Time
}

// NewTiming creates a new timing tracker, marking queue time as now
func NewTiming() *PassTiming {
	return &PassTiming{queuedAt: time.Now()}
}

// Start marks the file as picked up by a worker.
func (t *PassTiming) Start() {
	t.startedAt = time.Now()
}

// Complete marks the file as done.
func (t *PassTiming) Complete() {
	t.completedAt = time.Now()
}

// QueueDuration returns time spent waiting for a worker.
func (t *PassTiming) QueueDuration() time.Duration {
	if t.startedAt.IsZero() {
		return 0
	}
	return t.startedAt.Sub(t.queuedAt)
}

// LintDuration returns time spent linting.
func (t *PassTiming) LintDuration() time.Duration {
	if t.completedAt.IsZero() || t.startedAt.IsZero() {
		return 0
	}
	return t.completedAt.Sub(t.startedAt)
}

// TotalDuration returns total end-to-end time
func (t *PassTiming) TotalDuration() time.Duration {
	if t.completedAt.IsZero() {
		return 0
	}
	return t.completedAt.Sub(t.queuedAt)
}

// AggregateStats holds computed aggregate statistics
type AggregateStats struct {
	// Counts
	TotalFiles       int64 `json:"total_files"`
	TotalFailures    int64 `json:"total_failures"`
	TotalPasses      int64 `json:"total_passes"`
	TotalDiagnostics int64 `json:"total_diagnostics"`
	TotalErrors      int64 `json:"total_errors"`
	TotalWarnings    int64 `json:"total_warnings"`
	TotalFixes       int64 `json:"total_fixes"`
	TotalConflicts   int64 `json:"total_conflicts"`
	TotalFaults      int64 `json:"total_faults"`

	// Latency stats (in milliseconds for JSON readability)
	AvgLintDurationMs float64 `json:"avg_lint_duration_ms"`
	P50LintDurationMs float64 `json:"p50_lint_duration_ms"`
	P95LintDurationMs float64 `json:"p95_lint_duration_ms"`
	P99LintDurationMs float64 `json:"p99_lint_duration_ms"`
	MaxLintDurationMs float64 `json:"max_lint_duration_ms"`

	AvgQueueDurationMs float64 `json:"avg_queue_duration_ms"`
	AvgTotalDurationMs float64 `json:"avg_total_duration_ms"`

	// Throughput
	FilesPerSecond     float64 `json:"files_per_second"`
	DiagnosticsPerFile float64 `json:"diagnostics_per_file"`
	BytesLinted        int64   `json:"bytes_linted"`

	// By language breakdown
	ByLanguage map[string]*LanguageStats `json:"by_language"`

	// Time window
	WindowStart time.Time `json:"window_start"`
	WindowEnd   time.Time `json:"window_end"`
}

// LanguageStats holds stats for one language.
type LanguageStats struct {
	Files             int64   `json:"files"`
	Diagnostics       int64   `json:"diagnostics"`
	AvgLintDurationMs float64 `json:"avg_lint_duration_ms"`
	FailureRate       float64 `json:"failure_rate"`
}

// atomicCounters holds atomic counters for real-time stats
type atomicCounters struct {
	files       atomic.Int64
	failures    atomic.Int64
	passes      atomic.Int64
	diagnostics atomic.Int64
	errors      atomic.Int64
	warnings    atomic.Int64
	fixes       atomic.Int64
	conflicts   atomic.Int64
	faults      atomic.Int64
	bytes       atomic.Int64
}

// Collector collects pass events. It is safe for concurrent use by the
// runner's workers.
type Collector struct {
	mu       sync.RWMutex
	events   []PassEvent
	counters atomicCounters

	// Configuration
	maxEvents  int
	windowSize time.Duration
	sink       *Instruments

	// Start time for throughput calculation
	startTime time.Time
}

// CollectorOption configures a Collector
type CollectorOption func(*Collector)

// WithMaxEvents sets the maximum number of events to retain
func WithMaxEvents(n int) CollectorOption {
	return func(c *Collector) {
		c.maxEvents = n
	}
}

// WithWindowSize sets the time window for aggregate stats
func WithWindowSize(d time.Duration) CollectorOption {
	return func(c *Collector) {
		c.windowSize = d
	}
}

// WithInstruments forwards every recorded event to OpenTelemetry instruments.
func WithInstruments(in *Instruments) CollectorOption {
	return func(c *Collector) {
		c.sink = in
	}
}

// NewCollector creates a new metrics collector
func NewCollector(opts ...CollectorOption) *Collector {
	c := &Collector{
		events:     make([]PassEvent, 0, 256),
		maxEvents:  10000,
		windowSize: 1 * time.Hour,
		startTime:  time.Now(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Record adds a pass event to the collector
func (c *Collector) Record(event PassEvent) {
	c.counters.files.Add(1)
	c.counters.passes.Add(int64(event.Passes))
	c.counters.diagnostics.Add(int64(event.Diagnostics))
	c.counters.errors.Add(int64(event.Errors))
	c.counters.warnings.Add(int64(event.Warnings))
	c.counters.fixes.Add(int64(event.FixesApplied))
	c.counters.conflicts.Add(int64(event.Conflicts))
	c.counters.faults.Add(int64(event.Faults))
	c.counters.bytes.Add(int64(event.FileSize))
	if event.Error != "" {
		c.counters.failures.Add(1)
	}

	if c.sink != nil {
		c.sink.record(event)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.maxEvents <= 0 {
		return
	}
	c.events = append(c.events, event)

	// Prune old events if needed
	if len(c.events) > c.maxEvents {
		// Remove oldest 10%
		pruneCount := max(c.maxEvents/10, 1)
		c.events = c.events[pruneCount:]
	}
}

// GetStats computes aggregate statistics from collected events
func (c *Collector) GetStats() AggregateStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	now := time.Now()
	windowStart := now.Add(-c.windowSize)

	stats := AggregateStats{
		TotalFiles:       c.counters.files.Load(),
		TotalFailures:    c.counters.failures.Load(),
		TotalPasses:      c.counters.passes.Load(),
		TotalDiagnostics: c.counters.diagnostics.Load(),
		TotalErrors:      c.counters.errors.Load(),
		TotalWarnings:    c.counters.warnings.Load(),
		TotalFixes:       c.counters.fixes.Load(),
		TotalConflicts:   c.counters.conflicts.Load(),
		TotalFaults:      c.counters.faults.Load(),
		BytesLinted:      c.counters.bytes.Load(),
		ByLanguage:       make(map[string]*LanguageStats),
		WindowStart:      windowStart,
		WindowEnd:        now,
	}

	if stats.TotalFiles > 0 {
		stats.DiagnosticsPerFile = float64(stats.TotalDiagnostics) / float64(stats.TotalFiles)
	}
	if elapsed := now.Sub(c.startTime).Seconds(); elapsed > 0 {
		stats.FilesPerSecond = float64(stats.TotalFiles) / elapsed
	}

	// Filter events within window and compute detailed stats
	var windowEvents []PassEvent
	for _, e := range c.events {
		if e.Timestamp.After(windowStart) {
			windowEvents = append(windowEvents, e)
		}
	}

	if len(windowEvents) == 0 {
		return stats
	}

	durations := make([]float64, 0, len(windowEvents))
	var sumLint, sumQueue, sumTotal float64
	langDurations := make(map[string]float64)
	langFailures := make(map[string]int64)

	for _, e := range windowEvents {
		ms := durationMs(e.LintDuration)
		durations = append(durations, ms)
		sumLint += ms
		sumQueue += durationMs(e.QueueDuration)
		sumTotal += durationMs(e.TotalDuration)

		ls, ok := stats.ByLanguage[e.Language]
		if !ok {
			ls = &LanguageStats{}
			stats.ByLanguage[e.Language] = ls
		}
		ls.Files++
		ls.Diagnostics += int64(e.Diagnostics)
		langDurations[e.Language] += ms
		if e.Error != "" {
			langFailures[e.Language]++
		}
	}

	n := float64(len(windowEvents))
	stats.AvgLintDurationMs = sumLint / n
	stats.AvgQueueDurationMs = sumQueue / n
	stats.AvgTotalDurationMs = sumTotal / n

	sort.Float64s(durations)
	stats.P50LintDurationMs = percentile(durations, 0.50)
	stats.P95LintDurationMs = percentile(durations, 0.95)
	stats.P99LintDurationMs = percentile(durations, 0.99)
	stats.MaxLintDurationMs = durations[len(durations)-1]

	for lang, ls := range stats.ByLanguage {
		ls.AvgLintDurationMs = langDurations[lang] / float64(ls.Files)
		ls.FailureRate = float64(langFailures[lang]) / float64(ls.Files)
	}

	return stats
}

// GetRecentEvents returns the most recent n events
func (c *Collector) GetRecentEvents(n int) []PassEvent {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if n > len(c.events) {
		n = len(c.events)
	}
	if n <= 0 {
		return nil
	}

	result := make([]PassEvent, n)
	copy(result, c.events[len(c.events)-n:])
	return result
}

// Reset clears all collected metrics
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.events = c.events[:0]
	c.counters = atomicCounters{}
	c.startTime = time.Now()
}

func durationMs(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// percentile returns the value at the given percentile (0.0-1.0)
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(float64(len(sorted)-1) * p)
	return sorted[idx]
}
