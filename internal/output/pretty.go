package output

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/chris-regnier/lintel/internal/evaluator"
	"github.com/chris-regnier/lintel/internal/sarif"
)

var (
	fileStyle = lipgloss.NewStyle().
			Bold(true).
			Underline(true)

	positionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	noteStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	ruleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	fixableStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	gutterStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Width(6).
			Align(lipgloss.Right)

	passStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	failStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)
)

// PrettyFormatter renders analysis output as colored, human-readable
// terminal output grouped by file.
type PrettyFormatter struct {
	// Highlight enables syntax highlighting of source excerpts. It should
	// only be set when writing to a color terminal.
	Highlight bool
}

// Format produces pretty terminal output.
func (f *PrettyFormatter) Format(result *AnalysisOutput) ([]byte, error) {
	if result == nil {
		return nil, fmt.Errorf("pretty formatter: result is required")
	}

	var b strings.Builder
	results := runResults(result.SARIFLog)

	files, byFile := groupByFile(results)

	counts := make(map[string]int)
	fixable := 0
	for _, fp := range files {
		rs := byFile[fp]
		b.WriteString(fileStyle.Render(fp))
		b.WriteString("\n")
		src := result.Sources[fp]
		for _, r := range rs {
			counts[r.Level]++
			if len(r.Fixes) > 0 {
				fixable++
			}
			f.writeResult(&b, fp, src, r)
		}
		b.WriteString("\n")
	}

	if len(results) == 0 {
		b.WriteString("No findings.\n")
	} else {
		summary := fmt.Sprintf("%s (%s, %s, %s)",
			plural(len(results), "problem"),
			plural(counts["error"], "error"),
			plural(counts["warning"], "warning"),
			plural(counts["note"], "note"))
		if counts["error"] > 0 {
			b.WriteString(errorStyle.Render("✖ " + summary))
		} else {
			b.WriteString(warningStyle.Render("⚠ " + summary))
		}
		b.WriteString("\n")
		if fixable > 0 {
			b.WriteString(fixableStyle.Render(fmt.Sprintf("  %s potentially fixable with the `--fix` option.", plural(fixable, "problem"))))
			b.WriteString("\n")
		}
	}

	for _, n := range runNotifications(result.SARIFLog) {
		path := ""
		if len(n.Locations) > 0 {
			path = n.Locations[0].PhysicalLocation.ArtifactLocation.URI + ": "
		}
		b.WriteString(errorStyle.Render("error") + " " + path + n.Message.Text + "\n")
	}

	if s := result.Stats; s != nil {
		b.WriteString(positionStyle.Render(fmt.Sprintf("%s linted, %.1fms avg, %.1fms p95, %s applied",
			plural(int(s.TotalFiles), "file"), s.AvgLintDurationMs, s.P95LintDurationMs, plural(int(s.TotalFixes), "fix"))))
		b.WriteString("\n")
	}

	if result.Verdict != nil {
		style := failStyle
		if result.Verdict.Decision == evaluator.DecisionPass {
			style = passStyle
		}
		b.WriteString("Decision: " + style.Render(result.Verdict.Decision))
		if result.Verdict.Reason != "" {
			b.WriteString(positionStyle.Render(" (" + result.Verdict.Reason + ")"))
		}
		b.WriteString("\n")
	}

	return []byte(b.String()), nil
}

func (f *PrettyFormatter) writeResult(b *strings.Builder, path string, src []byte, r sarif.Result) {
	region := resultRegion(r)
	pos := fmt.Sprintf("%d:%d", region.StartLine, region.StartColumn)

	line := fmt.Sprintf("  %s  %s  %s  %s",
		positionStyle.Render(fmt.Sprintf("%-7s", pos)),
		levelStyle(r.Level).Render(fmt.Sprintf("%-7s", r.Level)),
		r.Message.Text,
		ruleStyle.Render(r.RuleID))
	if len(r.Fixes) > 0 {
		line += " " + fixableStyle.Render("[fixable]")
	}
	b.WriteString(line)
	b.WriteString("\n")

	if excerpt := f.excerpt(path, src, region); excerpt != "" {
		b.WriteString(excerpt)
	}
}

func levelStyle(level string) lipgloss.Style {
	switch level {
	case "error":
		return errorStyle
	case "warning":
		return warningStyle
	default:
		return noteStyle
	}
}

// excerpt renders the first line of region with a caret marker under the
// reported range.
func (f *PrettyFormatter) excerpt(path string, src []byte, region sarif.Region) string {
	if len(src) == 0 || region.StartLine < 1 {
		return ""
	}
	lines := bytes.Split(src, []byte("\n"))
	if region.StartLine > len(lines) {
		return ""
	}
	text := strings.TrimRight(string(lines[region.StartLine-1]), "\r")

	rendered := text
	if f.Highlight {
		if h, err := highlightLine(text, path); err == nil {
			rendered = h
		}
	}

	col := region.StartColumn - 1
	if col < 0 || col > len(text) {
		col = 0
	}
	end := col + 1
	if region.EndLine == region.StartLine && region.EndColumn > region.StartColumn {
		end = region.EndColumn - 1
	} else if region.EndLine > region.StartLine {
		end = len(text)
	}
	end = min(end, len(text))
	// Columns are byte offsets; pad and caret are measured in display cells
	// so they line up under wide characters. Tabs are kept as tabs.
	var pad strings.Builder
	for _, c := range text[:col] {
		if c == '\t' {
			pad.WriteByte('\t')
		} else {
			pad.WriteString(strings.Repeat(" ", runewidth.RuneWidth(c)))
		}
	}
	width := 1
	if end > col {
		width = max(runewidth.StringWidth(text[col:end]), 1)
	}

	var b strings.Builder
	b.WriteString(gutterStyle.Render(fmt.Sprintf("%d", region.StartLine)))
	b.WriteString(" │ ")
	b.WriteString(rendered)
	b.WriteString("\n")
	b.WriteString(gutterStyle.Render(""))
	b.WriteString(" │ ")
	b.WriteString(pad.String())
	b.WriteString(levelStyle("error").Render(strings.Repeat("^", width)))
	b.WriteString("\n")
	return b.String()
}

// highlightLine applies syntax highlighting to a single line of code.
func highlightLine(line, path string) (string, error) {
	lexer := lexers.Match(path)
	if lexer == nil {
		lexer = lexers.Get("javascript")
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, line)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	style := styles.Get("monokai")
	if style == nil {
		style = styles.Fallback
	}
	if err := formatters.TTY16m.Format(&b, style, iterator); err != nil {
		return "", err
	}
	return strings.TrimSuffix(b.String(), "\n"), nil
}
