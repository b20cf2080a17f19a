package metrics

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"
)

// Exporter handles exporting metrics to various formats
type Exporter struct {
	collector *Collector
}

// NewExporter creates a new metrics exporter
func NewExporter(collector *Collector) *Exporter {
	return &Exporter{collector: collector}
}

// ExportJSON writes aggregate stats and recent events to a JSON file.
func (e *Exporter) ExportJSON(path string) error {
	report := struct {
		GeneratedAt time.Time      `json:"generated_at"`
		Stats       AggregateStats `json:"stats"`
		Events      []PassEvent    `json:"events"`
	}{
		GeneratedAt: time.Now(),
		Stats:       e.collector.GetStats(),
		Events:      e.collector.GetRecentEvents(1000),
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling metrics: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// WriteReport writes a human-readable report to the given writer
func (e *Exporter) WriteReport(w io.Writer) error {
	stats := e.collector.GetStats()

	fmt.Fprintf(w, "=== Summary ===\n")
	fmt.Fprintf(w, "Files:          %d (%d failed)\n", stats.TotalFiles, stats.TotalFailures)
	fmt.Fprintf(w, "Passes:         %d\n", stats.TotalPasses)
	fmt.Fprintf(w, "Diagnostics:    %d (%d errors, %d warnings)\n", stats.TotalDiagnostics, stats.TotalErrors, stats.TotalWarnings)
	fmt.Fprintf(w, "Fixes applied:  %d\n", stats.TotalFixes)
	fmt.Fprintf(w, "Fix conflicts:  %d\n", stats.TotalConflicts)
	fmt.Fprintf(w, "Rule faults:    %d\n\n", stats.TotalFaults)

	fmt.Fprintf(w, "=== Latency ===\n")
	fmt.Fprintf(w, "Average:  %.2fms\n", stats.AvgLintDurationMs)
	fmt.Fprintf(w, "P50:      %.2fms\n", stats.P50LintDurationMs)
	fmt.Fprintf(w, "P95:      %.2fms\n", stats.P95LintDurationMs)
	fmt.Fprintf(w, "P99:      %.2fms\n", stats.P99LintDurationMs)
	fmt.Fprintf(w, "Max:      %.2fms\n", stats.MaxLintDurationMs)
	fmt.Fprintf(w, "Avg Queue: %.2fms\n\n", stats.AvgQueueDurationMs)

	fmt.Fprintf(w, "=== Throughput ===\n")
	fmt.Fprintf(w, "Files/s:        %.2f\n", stats.FilesPerSecond)
	fmt.Fprintf(w, "Bytes:          %d\n", stats.BytesLinted)
	fmt.Fprintf(w, "Diagnostics/file: %.2f\n", stats.DiagnosticsPerFile)

	if len(stats.ByLanguage) > 0 {
		langs := make([]string, 0, len(stats.ByLanguage))
		for lang := range stats.ByLanguage {
			langs = append(langs, lang)
		}
		sort.Strings(langs)

		fmt.Fprintf(w, "\n=== By Language ===\n")
		for _, lang := range langs {
			ls := stats.ByLanguage[lang]
			fmt.Fprintf(w, "%s:\n", lang)
			fmt.Fprintf(w, "  Files:        %d\n", ls.Files)
			fmt.Fprintf(w, "  Diagnostics:  %d\n", ls.Diagnostics)
			fmt.Fprintf(w, "  Avg Latency:  %.2fms\n", ls.AvgLintDurationMs)
			fmt.Fprintf(w, "  Failure Rate: %.1f%%\n", ls.FailureRate*100)
		}
	}

	return nil
}

// WriteCSV writes events in CSV format for external analysis
func (e *Exporter) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{
		"id", "timestamp", "path", "language", "file_size", "line_count", "rule_count",
		"queue_duration_ms", "lint_duration_ms", "total_duration_ms",
		"passes", "diagnostics", "errors", "warnings", "fixes_applied", "conflicts", "faults", "error",
	}); err != nil {
		return err
	}

	for _, ev := range e.collector.GetRecentEvents(e.collector.maxEvents) {
		row := []string{
			ev.ID,
			ev.Timestamp.Format(time.RFC3339),
			ev.Path,
			ev.Language,
			strconv.Itoa(ev.FileSize),
			strconv.Itoa(ev.LineCount),
			strconv.Itoa(ev.RuleCount),
			strconv.FormatInt(ev.QueueDuration.Milliseconds(), 10),
			strconv.FormatInt(ev.LintDuration.Milliseconds(), 10),
			strconv.FormatInt(ev.TotalDuration.Milliseconds(), 10),
			strconv.Itoa(ev.Passes),
			strconv.Itoa(ev.Diagnostics),
			strconv.Itoa(ev.Errors),
			strconv.Itoa(ev.Warnings),
			strconv.Itoa(ev.FixesApplied),
			strconv.Itoa(ev.Conflicts),
			strconv.Itoa(ev.Faults),
			ev.Error,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
