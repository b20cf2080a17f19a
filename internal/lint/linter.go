package lint

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/chris-regnier/lintel/internal/fix"
	"github.com/chris-regnier/lintel/internal/syntax"
)

var lintTracer = otel.Tracer("github.com/chris-regnier/lintel/internal/lint")

// MaxFixPasses bounds the verify/fix loop in VerifyAndFix.
const MaxFixPasses = 10

// RuleSource looks rules up by id. *astcheck.Registry satisfies it.
type RuleSource interface {
	Get(id string) (Rule, bool)
}

// Parser turns source text into a syntax tree.
type Parser interface {
	Parse(ctx context.Context, src []byte) (syntax.Node, error)
}

// Setting activates a rule.
type Setting struct {
	Severity Severity
	Options  Options
}

type activeRule struct {
	meta     Meta
	severity Severity
	handlers *Handlers
}

// Linter runs a fixed, configured set of rules over syntax trees. A Linter
// holds no per-pass state and may be shared by concurrent passes.
type Linter struct {
	rules  []activeRule
	logger *slog.Logger
}

// Option configures a Linter.
type Option func(*Linter)

// WithLogger sets the logger used for faults, rejected fixes and conflicts.
func WithLogger(l *slog.Logger) Option {
	return func(lt *Linter) {
		lt.logger = l
	}
}

// New constructs and configures every rule named in settings. Rules whose
// severity is off are skipped.
//
// Configuration errors are collected per rule and returned joined, as
// *ConfigError values. The returned Linter is usable even then: it runs every
// rule that configured successfully.
func New(src RuleSource, settings map[string]Setting, opts ...Option) (*Linter, error) {
	l := &Linter{logger: slog.Default()}
	for _, opt := range opts {
		opt(l)
	}

	ids := make([]string, 0, len(settings))
	for id := range settings {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var errs []error
	for _, id := range ids {
		s := settings[id]
		if s.Severity == SeverityOff {
			continue
		}
		rule, ok := src.Get(id)
		if !ok {
			errs = append(errs, &ConfigError{RuleID: id, Err: errors.New("unknown rule")})
			continue
		}
		h, err := rule.Configure(s.Options)
		if err != nil {
			errs = append(errs, &ConfigError{RuleID: id, Err: err})
			continue
		}
		l.rules = append(l.rules, activeRule{meta: rule.Meta(), severity: s.Severity, handlers: h})
	}

	return l, errors.Join(errs...)
}

// Rules returns the metadata of the active rules in execution order.
func (l *Linter) Rules() []Meta {
	out := make([]Meta, len(l.rules))
	for i, r := range l.rules {
		out[i] = r.meta
	}
	return out
}

// Report is the outcome of one pass.
type Report struct {
	Diagnostics []Diagnostic
	Faults      []Fault
	Rejected    []RejectedFix
}

// Verify runs every active rule over root in a single traversal.
func (l *Linter) Verify(ctx context.Context, src []byte, root syntax.Node) *Report {
	_, span := lintTracer.Start(ctx, "lint verify")
	defer span.End()

	collector := NewCollector()
	d := NewDispatcher(l.logger)
	kinds := 0
	for _, r := range l.rules {
		kinds += r.handlers.Kinds()
		d.Add(&Context{
			ruleID:    r.meta.ID,
			severity:  r.severity,
			source:    src,
			collector: collector,
		}, r.handlers)
	}

	faults := d.Run(root)
	for _, rj := range collector.Rejected() {
		l.logger.Warn("rejected invalid fix", "rule", rj.RuleID, "pos", rj.Pos.String(), "error", rj.Err)
	}

	span.SetAttributes(
		attribute.Int("lint.rules", len(l.rules)),
		attribute.Int("lint.subscriptions", kinds),
		attribute.Int("lint.diagnostics", collector.Len()),
		attribute.Int("lint.faults", len(faults)),
	)
	if len(faults) > 0 {
		span.SetStatus(codes.Error, fmt.Sprintf("%d rule fault(s)", len(faults)))
	}

	return &Report{
		Diagnostics: collector.Diagnostics(),
		Faults:      faults,
		Rejected:    collector.Rejected(),
	}
}

// FixOutcome is the result of applying a report's fixes.
type FixOutcome struct {
	Output []byte
	// Fixed holds the indexes of diagnostics whose fix was applied.
	Fixed []int
	// Conflicted holds the indexes of diagnostics whose fix was skipped
	// because it overlapped another fix.
	Conflicted []int
}

// ApplyFixes composes the fixes proposed in r onto src. Conflicting fixes
// are skipped and logged; their diagnostics stay unfixed.
func (l *Linter) ApplyFixes(src []byte, r *Report) (*FixOutcome, error) {
	collector := &Collector{items: r.Diagnostics}
	edits, owners := collector.Fixes()

	res, err := fix.Apply(src, edits)
	var conflictErr *fix.ConflictError
	if err != nil && !errors.As(err, &conflictErr) {
		return nil, fmt.Errorf("applying fixes: %w", err)
	}

	out := &FixOutcome{Output: res.Output}
	for _, idx := range res.Applied {
		out.Fixed = append(out.Fixed, owners[idx])
	}
	for _, c := range res.Conflicts {
		owner := r.Diagnostics[owners[c.Index]]
		out.Conflicted = append(out.Conflicted, owners[c.Index])
		l.logger.Warn("skipping conflicting fix", "rule", owner.RuleID, "pos", owner.Pos.String())
	}
	sort.Ints(out.Fixed)
	return out, nil
}

// FixReport is the outcome of VerifyAndFix.
type FixReport struct {
	// Report holds the diagnostics remaining after the last pass.
	*Report
	Output []byte
	// Passes is the number of verify passes run.
	Passes int
	// FixCount is the total number of fixes applied across passes.
	FixCount int
	// Conflicts is the number of fixes skipped because they overlapped
	// another fix, summed over passes. A fix skipped in one pass and applied
	// in the next is counted once here and once in FixCount.
	Conflicts int
}

// Changed reports whether the output differs from the input.
func (r *FixReport) Changed(src []byte) bool {
	return string(r.Output) != string(src)
}

// VerifyAndFix verifies src, applies the proposed fixes, and re-verifies the
// result until a pass applies no fix or MaxFixPasses is reached. Fixes skipped
// for conflicts in one pass get another chance in the next.
func (l *Linter) VerifyAndFix(ctx context.Context, src []byte, p Parser) (*FixReport, error) {
	ctx, span := lintTracer.Start(ctx, "lint verify and fix")
	defer span.End()

	current := src
	out := &FixReport{}
	for out.Passes < MaxFixPasses {
		root, err := p.Parse(ctx, current)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			if out.Passes > 0 {
				return nil, fmt.Errorf("fixed output no longer parses after pass %d: %w", out.Passes, err)
			}
			return nil, err
		}

		report := l.Verify(ctx, current, root)
		out.Passes++
		out.Report = report
		out.Output = current

		applied, err := l.ApplyFixes(current, report)
		if err != nil {
			return nil, err
		}
		out.Conflicts += len(applied.Conflicted)
		if len(applied.Fixed) == 0 {
			break
		}
		out.FixCount += len(applied.Fixed)
		current = applied.Output
		out.Output = current

		if out.Passes == MaxFixPasses {
			// Re-verify the final output so the remaining diagnostics match it.
			root, err := p.Parse(ctx, current)
			if err != nil {
				return nil, fmt.Errorf("fixed output no longer parses: %w", err)
			}
			out.Report = l.Verify(ctx, current, root)
		}
	}

	span.SetAttributes(
		attribute.Int("lint.passes", out.Passes),
		attribute.Int("lint.fixes", out.FixCount),
		attribute.Int("lint.conflicts", out.Conflicts),
	)
	return out, nil
}
