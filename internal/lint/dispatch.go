package lint

import (
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/chris-regnier/lintel/internal/syntax"
)

// Fault is an unexpected failure inside a rule's handler. The rule stops
// running for the rest of the pass; other rules continue.
type Fault struct {
	RuleID string
	Kind   syntax.Kind
	Pos    syntax.Position
	Err    error
}

func (f Fault) Error() string {
	return fmt.Sprintf("rule %q failed on %s at %s: %v", f.RuleID, f.Kind, f.Pos, f.Err)
}

func (f Fault) Unwrap() error { return f.Err }

type entry struct {
	slot    int
	handler Handler
}

type slot struct {
	ctx    *Context
	failed bool
}

// Dispatcher walks a tree once and invokes the handlers registered for each
// node's kind, in registration order.
type Dispatcher struct {
	logger *slog.Logger
	slots  []slot
	enter  map[syntax.Kind][]entry
	exit   map[syntax.Kind][]entry
	faults []Fault
}

// NewDispatcher returns an empty dispatcher. A nil logger uses slog.Default().
func NewDispatcher(logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		logger: logger,
		enter:  make(map[syntax.Kind][]entry),
		exit:   make(map[syntax.Kind][]entry),
	}
}

// Add merges a rule's handlers. Handlers run with ctx as their context.
func (d *Dispatcher) Add(ctx *Context, h *Handlers) {
	idx := len(d.slots)
	d.slots = append(d.slots, slot{ctx: ctx})
	for k, fns := range h.enter {
		for _, fn := range fns {
			d.enter[k] = append(d.enter[k], entry{slot: idx, handler: fn})
		}
	}
	for k, fns := range h.exit {
		for _, fn := range fns {
			d.exit[k] = append(d.exit[k], entry{slot: idx, handler: fn})
		}
	}
}

// Run traverses root and returns the faults raised by handlers.
func (d *Dispatcher) Run(root syntax.Node) []Fault {
	d.faults = nil
	for i := range d.slots {
		d.slots[i].failed = false
	}
	syntax.Walk(root, d)
	return d.faults
}

// Enter implements syntax.Visitor.
func (d *Dispatcher) Enter(n, parent syntax.Node) {
	d.dispatch(d.enter[n.Kind()], n, parent)
}

// Leave implements syntax.Visitor.
func (d *Dispatcher) Leave(n, parent syntax.Node) {
	d.dispatch(d.exit[n.Kind()], n, parent)
}

func (d *Dispatcher) dispatch(entries []entry, n, parent syntax.Node) {
	for _, e := range entries {
		s := &d.slots[e.slot]
		if s.failed {
			continue
		}
		if err := d.call(s.ctx, e.handler, n, parent); err != nil {
			s.failed = true
			f := Fault{RuleID: s.ctx.ruleID, Kind: n.Kind(), Pos: n.Pos(), Err: err}
			d.faults = append(d.faults, f)
			d.logger.Warn("rule failed, skipping it for the rest of the pass",
				"rule", f.RuleID, "node", f.Kind.String(), "pos", f.Pos.String(), "error", err)
		}
	}
}

func (d *Dispatcher) call(ctx *Context, h Handler, n, parent syntax.Node) (err error) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Debug("handler panic", "rule", ctx.ruleID, "stack", string(debug.Stack()))
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return h(ctx, n, parent)
}
