package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/term"

	"github.com/chris-regnier/lintel/internal/astcheck"
	"github.com/chris-regnier/lintel/internal/config"
	"github.com/chris-regnier/lintel/internal/evaluator"
	"github.com/chris-regnier/lintel/internal/input"
	"github.com/chris-regnier/lintel/internal/lint"
	"github.com/chris-regnier/lintel/internal/metrics"
	"github.com/chris-regnier/lintel/internal/output"
	"github.com/chris-regnier/lintel/internal/runner"
	"github.com/chris-regnier/lintel/internal/sarif"
	"github.com/chris-regnier/lintel/internal/telemetry"
)

var lintTracer = otel.Tracer("github.com/chris-regnier/lintel/cmd/lintel")

type lintFlags struct {
	config      string
	fix         bool
	fixDryRun   bool
	format      string
	outputFile  string
	regoDir     string
	workers     int
	maxWarnings int
	stats       bool
	statsJSON   string
	quiet       bool
	verbose     bool
	debug       bool
	logJSON     bool
}

var errNoSources = errors.New("no lintable files found")

func newLintCmd() *cobra.Command {
	f := &lintFlags{}
	cmd := &cobra.Command{
		Use:   "lint [paths...]",
		Short: "Lint files and directories",
		Long: `Lint JavaScript and TypeScript files. Directories are walked recursively;
hidden directories and the configured ignore list are skipped.

Exit status is 0 when the gate passes, 1 when it fails, and 2 when lintel
could not run.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				args = []string{"."}
			}
			return runLint(cmd, f, args)
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&f.config, "config", "c", config.ProjectConfigPath, "Project configuration file")
	fl.BoolVar(&f.fix, "fix", false, "Apply fixes and write changed files")
	fl.BoolVar(&f.fixDryRun, "fix-dry-run", false, "Apply fixes in memory without writing files")
	fl.StringVarP(&f.format, "format", "f", "", "Output format: json, sarif, markdown, pretty (default: pretty on a terminal, json otherwise)")
	fl.StringVarP(&f.outputFile, "output-file", "o", "", "Write the report to a file instead of stdout")
	fl.StringVar(&f.regoDir, "rego", "", "Directory of Rego policies overriding the default gate")
	fl.IntVar(&f.workers, "workers", 0, "Files linted in parallel (default: config, then GOMAXPROCS)")
	fl.IntVar(&f.maxWarnings, "max-warnings", -1, "Fail when the number of warnings exceeds this value (-1 disables)")
	fl.BoolVar(&f.stats, "stats", false, "Print pass statistics to stderr")
	fl.StringVar(&f.statsJSON, "stats-json", "", "Write pass statistics and events to a JSON file")
	fl.BoolVarP(&f.quiet, "quiet", "q", false, "Suppress all log output")
	fl.BoolVarP(&f.verbose, "verbose", "v", false, "Log progress")
	fl.BoolVar(&f.debug, "debug", false, "Log debugging detail")
	fl.BoolVar(&f.logJSON, "log-json", false, "Write logs as JSON")
	cmd.MarkFlagsMutuallyExclusive("fix", "fix-dry-run")
	return cmd
}

func runLint(cmd *cobra.Command, f *lintFlags, paths []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	logger := output.SetupLogger(output.LogOptions{
		Quiet:   f.quiet,
		Verbose: f.verbose,
		Debug:   f.debug,
		JSON:    f.logJSON,
	}, cmd.ErrOrStderr())
	slog.SetDefault(logger)

	cfg, err := loadConfig(f)
	if err != nil {
		return &exitCodeError{code: exitError, err: err}
	}

	tcfg := cfg.Telemetry
	if tcfg.ServiceVersion == "" {
		tcfg.ServiceVersion = version
	}
	shutdownTelemetry, err := telemetry.Init(ctx, tcfg)
	if err != nil {
		return &exitCodeError{code: exitError, err: fmt.Errorf("initializing telemetry: %w", err)}
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			logger.Warn("telemetry shutdown error", "error", err)
		}
	}()

	ctx, span := lintTracer.Start(ctx, "lint")
	defer span.End()

	linter, err := lint.New(astcheck.DefaultRegistry(), cfg.Settings(), lint.WithLogger(logger))
	if err != nil {
		return &exitCodeError{code: exitError, err: fmt.Errorf("invalid rule configuration:\n%w", err)}
	}

	sources, err := input.NewHandler(cfg.Runner.Ignore...).ReadPaths(paths)
	if err != nil {
		return &exitCodeError{code: exitError, err: fmt.Errorf("reading input: %w", err)}
	}
	if len(sources) == 0 {
		return &exitCodeError{code: exitError, err: fmt.Errorf("%w in %v", errNoSources, paths)}
	}
	logger.Info("linting", "files", len(sources), "rules", cfg.EnabledRules())

	instruments, err := metrics.NewInstruments()
	if err != nil {
		logger.Warn("metrics instruments unavailable", "error", err)
		instruments = nil
	}
	collector := metrics.NewCollector(metrics.WithInstruments(instruments))
	ctx = metrics.WithRecorder(ctx, metrics.NewRecorder(collector, len(linter.Rules())))

	mode := runner.ModeCheck
	switch {
	case f.fix:
		mode = runner.ModeFix
	case f.fixDryRun:
		mode = runner.ModeFixDryRun
	}
	results, err := runner.New(linter, runner.Options{
		Workers: cfg.Runner.Workers,
		Mode:    mode,
		Logger:  logger,
	}).Run(ctx, sources)
	if err != nil {
		return &exitCodeError{code: exitError, err: err}
	}

	log := buildLog(cfg, linter, results, paths)

	eval, err := evaluator.NewEvaluator(cfg.Gate.RegoDir)
	if err != nil {
		return &exitCodeError{code: exitError, err: fmt.Errorf("creating evaluator: %w", err)}
	}
	verdict, err := eval.Evaluate(ctx, log)
	if err != nil {
		return &exitCodeError{code: exitError, err: fmt.Errorf("evaluating: %w", err)}
	}

	stats := collector.GetStats()
	span.SetAttributes(
		attribute.Int("lint.files", len(sources)),
		attribute.String("lint.decision", verdict.Decision),
	)

	if err := writeReport(cmd, f, &output.AnalysisOutput{
		Verdict:  verdict,
		SARIFLog: log,
		Stats:    statsIf(f.stats, &stats),
		Sources:  runner.Sources(results),
	}); err != nil {
		return &exitCodeError{code: exitError, err: err}
	}

	exporter := metrics.NewExporter(collector)
	if f.stats {
		if err := exporter.WriteReport(cmd.ErrOrStderr()); err != nil {
			logger.Warn("writing stats", "error", err)
		}
	}
	if f.statsJSON != "" {
		if err := exporter.ExportJSON(f.statsJSON); err != nil {
			logger.Warn("exporting stats", "path", f.statsJSON, "error", err)
		}
	}

	if !verdict.Passed() {
		return &exitCodeError{code: exitFail}
	}
	if f.maxWarnings >= 0 && stats.TotalWarnings > int64(f.maxWarnings) {
		return &exitCodeError{code: exitFail, err: fmt.Errorf("too many warnings (%d); maximum allowed is %d", stats.TotalWarnings, f.maxWarnings)}
	}
	return nil
}

// loadConfig merges the configuration tiers and applies flag overrides.
func loadConfig(f *lintFlags) (*config.Config, error) {
	cfg, err := config.LoadTiered(config.MachineConfigPath(), f.config)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if f.regoDir != "" {
		cfg.Gate.RegoDir = f.regoDir
	}
	if f.workers > 0 {
		cfg.Runner.Workers = f.workers
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func buildLog(cfg *config.Config, linter *lint.Linter, results []runner.FileResult, paths []string) *sarif.Log {
	levels := make(map[string]string, len(cfg.Rules))
	for id, r := range cfg.Rules {
		levels[id] = r.Severity.Level()
	}
	sarifResults, notes := runner.Report(results)

	scope := "files"
	for _, p := range paths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			scope = "directory"
			break
		}
	}
	wd, _ := os.Getwd()

	return sarif.NewAssembler(version).
		AddResults(sarifResults).
		AddRules(sarif.Descriptors(linter.Rules(), levels)).
		AddNotifications(notes).
		WithInputScope(scope).
		WithWorkingDirectory(wd).
		Build()
}

func writeReport(cmd *cobra.Command, f *lintFlags, result *output.AnalysisOutput) error {
	var w io.Writer = cmd.OutOrStdout()
	tty := f.outputFile == "" && isTerminal(w)

	formatter, err := output.NewFormatter(output.ResolveFormat(f.format, tty))
	if err != nil {
		return err
	}
	if p, ok := formatter.(*output.PrettyFormatter); ok {
		p.Highlight = tty && os.Getenv("NO_COLOR") == ""
	}

	data, err := formatter.Format(result)
	if err != nil {
		return err
	}

	if f.outputFile != "" {
		if err := os.WriteFile(f.outputFile, data, 0o644); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
		return nil
	}
	_, err = w.Write(data)
	return err
}

func statsIf(enabled bool, s *metrics.AggregateStats) *metrics.AggregateStats {
	if !enabled {
		return nil
	}
	return s
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}
