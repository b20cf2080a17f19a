package sarif

import (
	"bytes"
	"maps"

	"github.com/chris-regnier/lintel/internal/lint"
	"github.com/chris-regnier/lintel/internal/syntax"
)

// DataProperty is the result property holding the values substituted into
// the diagnostic message.
const DataProperty = "lintel/data"

// FromDiagnostic converts a diagnostic reported on the file at uri. src is the
// text the diagnostic was reported against; it is used to compute the end of
// the region and the fix's byte region.
func FromDiagnostic(uri string, src []byte, d lint.Diagnostic) Result {
	endLine, endCol := lineCol(src, d.Span.End)
	r := Result{
		RuleID:  d.RuleID,
		Level:   d.Severity.Level(),
		Message: Message{Text: d.Message},
		Locations: []Location{{
			PhysicalLocation: PhysicalLocation{
				ArtifactLocation: ArtifactLocation{URI: uri},
				Region: Region{
					StartLine:   d.Pos.Line,
					StartColumn: d.Pos.Column + 1,
					EndLine:     endLine,
					EndColumn:   endCol + 1,
				},
			},
		}},
	}
	if len(d.Data) > 0 {
		r.Properties = map[string]any{DataProperty: maps.Clone(d.Data)}
	}
	if d.Span.End <= d.Span.Start {
		r.Locations[0].PhysicalLocation.Region.EndLine = 0
		r.Locations[0].PhysicalLocation.Region.EndColumn = 0
	}

	if d.Fix != nil {
		offset, length := d.Fix.Start, d.Fix.End-d.Fix.Start
		rep := Replacement{
			DeletedRegion: Region{ByteOffset: &offset, ByteLength: &length},
		}
		if d.Fix.Text != "" {
			rep.InsertedContent = &ArtifactContent{Text: d.Fix.Text}
		}
		r.Fixes = []Fix{{
			Description: Message{Text: fixDescription(src, d)},
			ArtifactChanges: []ArtifactChange{{
				ArtifactLocation: ArtifactLocation{URI: uri},
				Replacements:     []Replacement{rep},
			}},
		}}
	}
	return r
}

func fixDescription(src []byte, d lint.Diagnostic) string {
	f := d.Fix
	if f.Text == "" && f.End <= len(src) && f.Start <= f.End {
		return "Remove '" + string(src[f.Start:f.End]) + "'"
	}
	return "Replace with '" + f.Text + "'"
}

// lineCol converts a byte offset to a 1-based line and 0-based byte column.
func lineCol(src []byte, offset int) (int, int) {
	if offset > len(src) {
		offset = len(src)
	}
	if offset < 0 {
		offset = 0
	}
	before := src[:offset]
	line := bytes.Count(before, []byte("\n")) + 1
	col := offset
	if i := bytes.LastIndexByte(before, '\n'); i >= 0 {
		col = offset - i - 1
	}
	return line, col
}

// Position returns the 1-based line and column of a syntax position as
// SARIF expects them.
func Position(p syntax.Position) (line, column int) {
	return p.Line, p.Column + 1
}

// Descriptors builds reporting descriptors for the active rules. levels maps
// rule ids to their configured SARIF level.
func Descriptors(metas []lint.Meta, levels map[string]string) []ReportingDescriptor {
	out := make([]ReportingDescriptor, 0, len(metas))
	for _, m := range metas {
		d := ReportingDescriptor{
			ID:               m.ID,
			ShortDescription: Message{Text: m.Description},
			Properties: map[string]any{
				"lintel/category": m.Category,
				"lintel/fixable":  m.Fixable,
			},
		}
		if lvl, ok := levels[m.ID]; ok {
			d.DefaultConfig = &ReportingConfiguration{Level: lvl}
		}
		out = append(out, d)
	}
	return out
}

// FaultNotification converts a rule fault into a tool execution notification.
func FaultNotification(uri string, f lint.Fault) Notification {
	line, col := Position(f.Pos)
	return Notification{
		Level:   "error",
		Message: Message{Text: f.Error()},
		Locations: []Location{{
			PhysicalLocation: PhysicalLocation{
				ArtifactLocation: ArtifactLocation{URI: uri},
				Region:           Region{StartLine: line, StartColumn: col},
			},
		}},
		Descriptor: &ReportingDescRef{ID: f.RuleID},
	}
}

// FileNotification reports a file that could not be linted.
func FileNotification(uri string, err error) Notification {
	return Notification{
		Level:   "error",
		Message: Message{Text: err.Error()},
		Locations: []Location{{
			PhysicalLocation: PhysicalLocation{ArtifactLocation: ArtifactLocation{URI: uri}},
		}},
	}
}
