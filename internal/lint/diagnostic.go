package lint

import (
	"fmt"
	"regexp"

	"github.com/chris-regnier/lintel/internal/fix"
	"github.com/chris-regnier/lintel/internal/syntax"
)

// Diagnostic is a reported policy violation.
type Diagnostic struct {
	RuleID   string
	Severity Severity
	// Message is the resolved text; Data holds the values substituted into
	// its template.
	Message string
	Data    map[string]string
	// Pos is where the diagnostic is anchored.
	Pos syntax.Position
	// Span is the byte range of the anchor node.
	Span syntax.Span
	Fix  *fix.Edit
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s %s %s (%s)", d.Pos, d.Severity, d.Message, d.RuleID)
}

// RejectedFix is a fix that failed validation when it was proposed.
type RejectedFix struct {
	RuleID string
	Pos    syntax.Position
	Edit   fix.Edit
	Err    error
}

var placeholder = regexp.MustCompile(`\{\{\s*([^{}\s]+)\s*\}\}`)

// FormatMessage replaces {{name}} placeholders with values from data.
// Placeholders without a value are left as written.
func FormatMessage(template string, data map[string]string) string {
	if len(data) == 0 {
		return template
	}
	return placeholder.ReplaceAllStringFunc(template, func(m string) string {
		key := placeholder.FindStringSubmatch(m)[1]
		if v, ok := data[key]; ok {
			return v
		}
		return m
	})
}

type diagKey struct {
	ruleID string
	pos    syntax.Position
	msg    string
}

// Collector accumulates the diagnostics of one pass in report order.
// Identical reports (same rule, position and message) are kept once.
// A Collector is owned by a single pass and is not safe for concurrent use.
type Collector struct {
	items    []Diagnostic
	seen     map[diagKey]struct{}
	rejected []RejectedFix
}

// NewCollector returns an empty collector.
func NewCollector() *Collector {
	return &Collector{seen: make(map[diagKey]struct{})}
}

// Add appends d. It returns false if an identical diagnostic was already
// recorded.
func (c *Collector) Add(d Diagnostic) bool {
	k := diagKey{ruleID: d.RuleID, pos: d.Pos, msg: d.Message}
	if _, ok := c.seen[k]; ok {
		return false
	}
	c.seen[k] = struct{}{}
	c.items = append(c.items, d)
	return true
}

func (c *Collector) reject(r RejectedFix) {
	c.rejected = append(c.rejected, r)
}

// Len returns the number of diagnostics collected so far.
func (c *Collector) Len() int { return len(c.items) }

// Diagnostics returns the collected diagnostics. The slice is owned by the
// collector.
func (c *Collector) Diagnostics() []Diagnostic { return c.items }

// Rejected returns the fixes dropped at proposal time.
func (c *Collector) Rejected() []RejectedFix { return c.rejected }

// Fixes returns the batch of proposed edits together with the index of the
// diagnostic that proposed each one.
func (c *Collector) Fixes() (edits []fix.Edit, owners []int) {
	for i, d := range c.items {
		if d.Fix == nil {
			continue
		}
		edits = append(edits, *d.Fix)
		owners = append(owners, i)
	}
	return edits, owners
}
