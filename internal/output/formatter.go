// Package output provides formatters for rendering lint results in different
// output formats (JSON, SARIF, Markdown, pretty terminal).
package output

import (
	"fmt"
	"sort"
	"strings"

	"github.com/chris-regnier/lintel/internal/evaluator"
	"github.com/chris-regnier/lintel/internal/metrics"
	"github.com/chris-regnier/lintel/internal/sarif"
)

// Formatter renders an AnalysisOutput into a byte slice in a specific format.
type Formatter interface {
	Format(result *AnalysisOutput) ([]byte, error)
}

// AnalysisOutput holds the complete results of a lint run, combining the
// gate verdict, the SARIF log, and optional pass statistics.
type AnalysisOutput struct {
	Verdict  *evaluator.Verdict
	SARIFLog *sarif.Log
	Stats    *metrics.AggregateStats // optional, nil if not collected
	// Sources maps artifact URIs to the text the results were reported
	// against. Optional; the pretty formatter uses it for excerpts.
	Sources map[string][]byte
}

// ResolveFormat determines the output format to use. If flagValue is non-empty,
// it is returned directly. Otherwise, "pretty" is returned for TTY output and
// "json" for non-TTY (piped) output.
func ResolveFormat(flagValue string, stdoutIsTTY bool) string {
	if flagValue != "" {
		return flagValue
	}
	if stdoutIsTTY {
		return "pretty"
	}
	return "json"
}

// NewFormatter returns a Formatter for the given format name.
// Supported formats: "json", "sarif", "markdown", "pretty".
// Returns an error for unknown format names.
func NewFormatter(format string) (Formatter, error) {
	switch format {
	case "json":
		return &JSONFormatter{}, nil
	case "sarif":
		return &SARIFFormatter{}, nil
	case "markdown":
		return &MarkdownFormatter{}, nil
	case "pretty":
		return &PrettyFormatter{}, nil
	default:
		return nil, fmt.Errorf("unknown output format: %q (supported: json, sarif, markdown, pretty)", format)
	}
}

// resultFilePath extracts the file URI from the first location of a SARIF result.
func resultFilePath(r sarif.Result) string {
	if len(r.Locations) > 0 {
		return r.Locations[0].PhysicalLocation.ArtifactLocation.URI
	}
	return ""
}

func resultRegion(r sarif.Result) sarif.Region {
	if len(r.Locations) > 0 {
		return r.Locations[0].PhysicalLocation.Region
	}
	return sarif.Region{}
}

func runResults(log *sarif.Log) []sarif.Result {
	if log == nil || len(log.Runs) == 0 {
		return nil
	}
	return log.Runs[0].Results
}

// groupByFile returns the result files in sorted order and each file's
// results ordered by start position.
func groupByFile(results []sarif.Result) ([]string, map[string][]sarif.Result) {
	byFile := make(map[string][]sarif.Result)
	for _, r := range results {
		fp := resultFilePath(r)
		byFile[fp] = append(byFile[fp], r)
	}
	files := make([]string, 0, len(byFile))
	for fp, rs := range byFile {
		files = append(files, fp)
		sort.SliceStable(rs, func(i, j int) bool {
			ri, rj := resultRegion(rs[i]), resultRegion(rs[j])
			if ri.StartLine != rj.StartLine {
				return ri.StartLine < rj.StartLine
			}
			return ri.StartColumn < rj.StartColumn
		})
	}
	sort.Strings(files)
	return files, byFile
}

func runNotifications(log *sarif.Log) []sarif.Notification {
	if log == nil || len(log.Runs) == 0 {
		return nil
	}
	var out []sarif.Notification
	for _, inv := range log.Runs[0].Invocations {
		out = append(out, inv.ToolExecutionNotifications...)
	}
	return out
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	if strings.HasSuffix(word, "x") || strings.HasSuffix(word, "s") {
		return fmt.Sprintf("%d %ses", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
