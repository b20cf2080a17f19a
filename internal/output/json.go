package output

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/chris-regnier/lintel/internal/metrics"
	"github.com/chris-regnier/lintel/internal/sarif"
)

// JSONFormatter renders analysis output as indented JSON: the verdict plus
// one entry per file with its messages.
type JSONFormatter struct{}

type jsonReport struct {
	Decision string                  `json:"decision"`
	Reason   string                  `json:"reason"`
	Files    []jsonFile              `json:"files"`
	Errors   []jsonNotification      `json:"errors,omitempty"`
	Stats    *metrics.AggregateStats `json:"stats,omitempty"`
}

type jsonFile struct {
	Path         string        `json:"path"`
	ErrorCount   int           `json:"error_count"`
	WarningCount int           `json:"warning_count"`
	FixableCount int           `json:"fixable_count"`
	Messages     []jsonMessage `json:"messages"`
}

type jsonMessage struct {
	RuleID    string            `json:"rule_id"`
	Level     string            `json:"level"`
	Message   string            `json:"message"`
	Line      int               `json:"line"`
	Column    int               `json:"column"`
	EndLine   int               `json:"end_line,omitempty"`
	EndColumn int               `json:"end_column,omitempty"`
	Data      map[string]string `json:"data,omitempty"`
	Fix       *jsonFix          `json:"fix,omitempty"`
}

type jsonFix struct {
	Range [2]int `json:"range"`
	Text  string `json:"text"`
}

type jsonNotification struct {
	Path    string `json:"path,omitempty"`
	RuleID  string `json:"rule_id,omitempty"`
	Message string `json:"message"`
}

// Format serializes the report as pretty-printed JSON with a trailing newline.
func (f *JSONFormatter) Format(result *AnalysisOutput) ([]byte, error) {
	if result == nil || result.Verdict == nil {
		return nil, fmt.Errorf("json formatter: verdict is required")
	}

	report := jsonReport{
		Decision: result.Verdict.Decision,
		Reason:   result.Verdict.Reason,
		Files:    []jsonFile{},
		Stats:    result.Stats,
	}

	byPath := make(map[string]*jsonFile)
	var order []string
	for _, r := range runResults(result.SARIFLog) {
		path := resultFilePath(r)
		jf, ok := byPath[path]
		if !ok {
			jf = &jsonFile{Path: path, Messages: []jsonMessage{}}
			byPath[path] = jf
			order = append(order, path)
		}
		switch r.Level {
		case "error":
			jf.ErrorCount++
		case "warning":
			jf.WarningCount++
		}
		msg := toJSONMessage(r)
		if msg.Fix != nil {
			jf.FixableCount++
		}
		jf.Messages = append(jf.Messages, msg)
	}
	sort.Strings(order)
	for _, p := range order {
		report.Files = append(report.Files, *byPath[p])
	}

	for _, n := range runNotifications(result.SARIFLog) {
		jn := jsonNotification{Message: n.Message.Text}
		if len(n.Locations) > 0 {
			jn.Path = n.Locations[0].PhysicalLocation.ArtifactLocation.URI
		}
		if n.Descriptor != nil {
			jn.RuleID = n.Descriptor.ID
		}
		report.Errors = append(report.Errors, jn)
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("json formatter: %w", err)
	}
	return append(data, '\n'), nil
}

func toJSONMessage(r sarif.Result) jsonMessage {
	region := resultRegion(r)
	m := jsonMessage{
		RuleID:    r.RuleID,
		Level:     r.Level,
		Message:   r.Message.Text,
		Line:      region.StartLine,
		Column:    region.StartColumn,
		EndLine:   region.EndLine,
		EndColumn: region.EndColumn,
	}
	if data, ok := r.Properties[sarif.DataProperty].(map[string]string); ok {
		m.Data = data
	}
	if len(r.Fixes) == 0 || len(r.Fixes[0].ArtifactChanges) == 0 {
		return m
	}
	reps := r.Fixes[0].ArtifactChanges[0].Replacements
	if len(reps) == 0 || reps[0].DeletedRegion.ByteOffset == nil {
		return m
	}
	rep := reps[0]
	start := *rep.DeletedRegion.ByteOffset
	end := start
	if rep.DeletedRegion.ByteLength != nil {
		end += *rep.DeletedRegion.ByteLength
	}
	m.Fix = &jsonFix{Range: [2]int{start, end}}
	if rep.InsertedContent != nil {
		m.Fix.Text = rep.InsertedContent.Text
	}
	return m
}
