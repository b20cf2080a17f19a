package output

import (
	"fmt"
	"strings"

	"github.com/chris-regnier/lintel/internal/evaluator"
	"github.com/chris-regnier/lintel/internal/sarif"
)

// MarkdownFormatter renders a GitHub-Flavored Markdown report for PR
// comments: one table of problems per file, with proposed fixes folded
// into a <details> block under the table.
type MarkdownFormatter struct{}

func severityEmoji(level string) string {
	switch level {
	case "error":
		return ":red_circle:"
	case "warning":
		return ":warning:"
	case "note":
		return ":information_source:"
	default:
		return ":grey_question:"
	}
}

func decisionBanner(decision string) string {
	switch decision {
	case evaluator.DecisionPass:
		return ":white_check_mark: Pass"
	case evaluator.DecisionFail:
		return ":x: Fail"
	default:
		return decision
	}
}

// resultPosition returns "line:column" for the start of a result.
func resultPosition(r sarif.Result) string {
	region := resultRegion(r)
	switch {
	case region.StartLine == 0:
		return "-"
	case region.StartColumn == 0:
		return fmt.Sprint(region.StartLine)
	default:
		return fmt.Sprintf("%d:%d", region.StartLine, region.StartColumn)
	}
}

// cell makes text safe inside a table cell.
var cell = strings.NewReplacer("|", `\|`, "\r\n", " ", "\n", " ")

func (f *MarkdownFormatter) Format(result *AnalysisOutput) ([]byte, error) {
	if result == nil {
		return nil, fmt.Errorf("markdown formatter: result is required")
	}
	if result.Verdict == nil {
		return nil, fmt.Errorf("markdown formatter: verdict is required")
	}

	var b strings.Builder
	results := runResults(result.SARIFLog)
	files, byFile := groupByFile(results)

	counts := make(map[string]int)
	fixable := 0
	for _, r := range results {
		counts[r.Level]++
		if len(r.Fixes) > 0 {
			fixable++
		}
	}

	fmt.Fprintf(&b, "## lintel: %s\n\n", decisionBanner(result.Verdict.Decision))
	if len(results) == 0 {
		b.WriteString("No problems found.\n")
	} else {
		fmt.Fprintf(&b, "%s (%s, %s) in %s.",
			plural(len(results), "problem"),
			plural(counts["error"], "error"),
			plural(counts["warning"], "warning"),
			plural(len(files), "file"))
		if fixable > 0 {
			fmt.Fprintf(&b, " %s can be fixed with `lintel lint --fix`.", plural(fixable, "problem"))
		}
		b.WriteString("\n")
	}

	for _, fp := range files {
		writeFileSection(&b, fp, byFile[fp])
	}

	if notes := runNotifications(result.SARIFLog); len(notes) > 0 {
		b.WriteString("\n### Problems\n\n")
		for _, n := range notes {
			if len(n.Locations) > 0 {
				fmt.Fprintf(&b, "- `%s`: %s\n", n.Locations[0].PhysicalLocation.ArtifactLocation.URI, n.Message.Text)
			} else {
				fmt.Fprintf(&b, "- %s\n", n.Message.Text)
			}
		}
	}

	b.WriteString("\n---\n")
	if s := result.Stats; s != nil && s.TotalFiles > 0 {
		fmt.Fprintf(&b, "*Generated by [lintel](%s) · %s in %.1fms avg*\n",
			InformationURI, plural(int(s.TotalFiles), "file"), s.AvgLintDurationMs)
	} else {
		fmt.Fprintf(&b, "*Generated by [lintel](%s)*\n", InformationURI)
	}
	return []byte(b.String()), nil
}

func writeFileSection(b *strings.Builder, path string, rs []sarif.Result) {
	fmt.Fprintf(b, "\n### `%s`\n\n", path)
	b.WriteString("| Position | Severity | Rule | Message |\n")
	b.WriteString("|----------|----------|------|---------|\n")

	var fixes []string
	for _, r := range rs {
		pos := resultPosition(r)
		msg := cell.Replace(r.Message.Text)
		if len(r.Fixes) > 0 {
			msg += " :wrench:"
			fixes = append(fixes, fmt.Sprintf("- `%s` %s", pos, r.Fixes[0].Description.Text))
		}
		fmt.Fprintf(b, "| %s | %s %s | `%s` | %s |\n", pos, severityEmoji(r.Level), r.Level, r.RuleID, msg)
	}

	if len(fixes) > 0 {
		fmt.Fprintf(b, "\n<details>\n<summary>%s</summary>\n\n", plural(len(fixes), "proposed fix"))
		b.WriteString(strings.Join(fixes, "\n"))
		b.WriteString("\n\n</details>\n")
	}
}
