// Package runner lints many files in parallel. Each file gets its own
// independent pass; passes share only the immutable, configured linter.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/chris-regnier/lintel/internal/input"
	"github.com/chris-regnier/lintel/internal/lint"
	"github.com/chris-regnier/lintel/internal/metrics"
	"github.com/chris-regnier/lintel/internal/parse"
)

var runnerTracer = otel.Tracer("github.com/chris-regnier/lintel/internal/runner")

// Mode selects what a run does with proposed fixes.
type Mode int

const (
	// ModeCheck reports diagnostics and leaves files alone.
	ModeCheck Mode = iota
	// ModeFix applies fixes and writes changed files back.
	ModeFix
	// ModeFixDryRun applies fixes in memory only.
	ModeFixDryRun
)

func (m Mode) String() string {
	switch m {
	case ModeCheck:
		return "check"
	case ModeFix:
		return "fix"
	case ModeFixDryRun:
		return "fix-dry-run"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Options configures a Runner.
type Options struct {
	// Workers bounds the number of files linted at once. Zero means
	// GOMAXPROCS.
	Workers int
	Mode    Mode
	Logger  *slog.Logger
}

// FileResult is the outcome of linting one file.
type FileResult struct {
	Path     string
	Language string
	// Source is the text as read; Output is the text after fixes. They are
	// equal in check mode.
	Source []byte
	Output []byte
	// Diagnostics were reported against Output.
	Diagnostics []lint.Diagnostic
	Faults      []lint.Fault
	Passes      int
	FixCount    int
	// Conflicts counts fixes skipped for overlapping another fix.
	Conflicts int
	// Unfixed counts remaining diagnostics that still propose a fix.
	Unfixed int
	Written bool
	// Err is set when the file could not be linted, e.g. a parse error.
	Err error
}

// Changed reports whether fixes altered the file.
func (r *FileResult) Changed() bool {
	return string(r.Output) != string(r.Source)
}

// Counts returns the number of error and warning diagnostics.
func (r *FileResult) Counts() (errs, warns int) {
	for _, d := range r.Diagnostics {
		switch d.Severity {
		case lint.SeverityError:
			errs++
		case lint.SeverityWarn:
			warns++
		}
	}
	return errs, warns
}

// Runner lints files with a shared linter.
type Runner struct {
	linter *lint.Linter
	opts   Options
}

// New returns a Runner.
func New(l *lint.Linter, opts Options) *Runner {
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Runner{linter: l, opts: opts}
}

// Run lints every source and returns one result per source, in input order.
// Failures of individual files are reported in their FileResult; Run only
// returns an error when ctx is cancelled.
func (r *Runner) Run(ctx context.Context, sources []input.Source) ([]FileResult, error) {
	ctx, span := runnerTracer.Start(ctx, "lint run")
	defer span.End()
	span.SetAttributes(
		attribute.Int("runner.files", len(sources)),
		attribute.Int("runner.workers", r.opts.Workers),
		attribute.String("runner.mode", r.opts.Mode.String()),
	)

	recorder := metrics.RecorderFromContext(ctx)
	results := make([]FileResult, len(sources))
	if len(sources) == 0 {
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(r.opts.Workers, len(sources)))

	for i, src := range sources {
		pb := recorder.StartPass(src.Path, src.Language.Name).WithSource(src.Content)
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			pb.MarkStarted()
			results[i] = r.lintFile(gctx, src)
			res := &results[i]
			if res.Err != nil {
				pb.CompleteWithError(res.Err)
				return nil
			}
			errs, warns := res.Counts()
			pb.Complete(metrics.Outcome{
				Passes:       res.Passes,
				Diagnostics:  len(res.Diagnostics),
				Errors:       errs,
				Warnings:     warns,
				FixesApplied: res.FixCount,
				Conflicts:    res.Conflicts,
				Faults:       len(res.Faults),
			})
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return results, err
	}
	return results, nil
}

func (r *Runner) lintFile(ctx context.Context, src input.Source) FileResult {
	ctx, span := runnerTracer.Start(ctx, "lint file")
	defer span.End()
	span.SetAttributes(
		attribute.String("file.path", src.Path),
		attribute.String("file.language", src.Language.Name),
	)

	res := FileResult{
		Path:     src.Path,
		Language: src.Language.Name,
		Source:   src.Content,
		Output:   src.Content,
	}
	parser := parse.New(src.Language)
	log := r.opts.Logger.With("path", src.Path)

	if r.opts.Mode == ModeCheck {
		root, err := parser.Parse(ctx, src.Content)
		if err != nil {
			return r.failed(span, log, res, err)
		}
		report := r.linter.Verify(ctx, src.Content, root)
		res.Diagnostics = report.Diagnostics
		res.Faults = report.Faults
		res.Passes = 1
	} else {
		fr, err := r.linter.VerifyAndFix(ctx, src.Content, parser)
		if err != nil {
			return r.failed(span, log, res, err)
		}
		res.Output = fr.Output
		res.Diagnostics = fr.Diagnostics
		res.Faults = fr.Faults
		res.Passes = fr.Passes
		res.FixCount = fr.FixCount
		res.Conflicts = fr.Conflicts
	}
	for _, d := range res.Diagnostics {
		if d.Fix != nil && r.opts.Mode != ModeCheck {
			res.Unfixed++
		}
	}

	if r.opts.Mode == ModeFix && res.Changed() {
		if err := os.WriteFile(src.Path, res.Output, src.Mode); err != nil {
			return r.failed(span, log, res, fmt.Errorf("writing fixed file: %w", err))
		}
		res.Written = true
		log.Info("wrote fixes", "fixes", res.FixCount, "passes", res.Passes)
	}

	span.SetAttributes(
		attribute.Int("file.diagnostics", len(res.Diagnostics)),
		attribute.Int("file.fixes", res.FixCount),
	)
	log.Debug("linted file", "diagnostics", len(res.Diagnostics), "passes", res.Passes)
	return res
}

func (r *Runner) failed(span trace.Span, log *slog.Logger, res FileResult, err error) FileResult {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	log.Warn("could not lint file", "error", err)
	res.Err = err
	res.Diagnostics = nil
	return res
}
