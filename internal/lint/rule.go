package lint

import (
	"maps"

	"github.com/chris-regnier/lintel/internal/fix"
	"github.com/chris-regnier/lintel/internal/syntax"
)

// Meta describes a rule.
type Meta struct {
	// ID is the unique identifier used in configuration (e.g. "no-useless-rename").
	ID          string
	Description string
	Category    string
	Recommended bool
	// Fixable is true when the rule proposes fixes.
	Fixable bool
}

// Rule is a pluggable checker. Configure validates the options once and
// returns the handlers for one activation; the returned handlers close over
// an immutable copy of the resolved configuration.
type Rule interface {
	Meta() Meta
	Configure(opts Options) (*Handlers, error)
}

// Handler processes one node. parent is nil for the root. A returned error is
// treated as an internal fault of the rule, not as a diagnostic.
type Handler func(c *Context, n, parent syntax.Node) error

// Handlers maps node kinds to the handlers a rule runs on enter and exit.
type Handlers struct {
	enter map[syntax.Kind][]Handler
	exit  map[syntax.Kind][]Handler
}

// NewHandlers returns an empty handler map.
func NewHandlers() *Handlers {
	return &Handlers{
		enter: make(map[syntax.Kind][]Handler),
		exit:  make(map[syntax.Kind][]Handler),
	}
}

// On registers fn to run when a node of kind k is entered.
func (h *Handlers) On(k syntax.Kind, fn Handler) *Handlers {
	h.enter[k] = append(h.enter[k], fn)
	return h
}

// OnExit registers fn to run after all children of a node of kind k.
func (h *Handlers) OnExit(k syntax.Kind, fn Handler) *Handlers {
	h.exit[k] = append(h.exit[k], fn)
	return h
}

// Kinds returns the number of distinct kinds with at least one handler.
func (h *Handlers) Kinds() int {
	seen := make(map[syntax.Kind]bool, len(h.enter)+len(h.exit))
	for k := range h.enter {
		seen[k] = true
	}
	for k := range h.exit {
		seen[k] = true
	}
	return len(seen)
}

// Descriptor is what a handler passes to Context.Report.
type Descriptor struct {
	// Node anchors the diagnostic. Its span and start position are used
	// unless Loc is set.
	Node syntax.Node
	// Loc overrides the reported start position.
	Loc *syntax.Position
	// Message may contain {{name}} placeholders filled from Data.
	Message string
	Data    map[string]string
	Fix     *fix.Edit
}

// Context is handed to every handler of one rule during one pass.
type Context struct {
	ruleID    string
	severity  Severity
	source    []byte
	collector *Collector
}

// RuleID returns the id of the rule the context belongs to.
func (c *Context) RuleID() string { return c.ruleID }

// Source returns the source buffer being analyzed. It must not be modified.
func (c *Context) Source() []byte { return c.source }

// Report records a diagnostic. The message is resolved immediately. A fix
// that fails validation is dropped and recorded as rejected; the diagnostic
// itself is kept.
func (c *Context) Report(d Descriptor) {
	diag := Diagnostic{
		RuleID:   c.ruleID,
		Severity: c.severity,
		Message:  FormatMessage(d.Message, d.Data),
		Data:     maps.Clone(d.Data),
	}
	if d.Node != nil {
		diag.Span = d.Node.Span()
		diag.Pos = d.Node.Pos()
	}
	if d.Loc != nil {
		diag.Pos = *d.Loc
	}
	if d.Fix != nil {
		if err := d.Fix.Validate(len(c.source)); err != nil {
			c.collector.reject(RejectedFix{RuleID: c.ruleID, Pos: diag.Pos, Edit: *d.Fix, Err: err})
		} else {
			edit := *d.Fix
			diag.Fix = &edit
		}
	}
	c.collector.Add(diag)
}
