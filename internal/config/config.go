package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/chris-regnier/lintel/internal/lint"
)

// RuleSetting is one entry of the rules map. In YAML it is either a bare
// severity (`error`, `warn`, `off`, 0, 1, 2) or a sequence whose first item is
// the severity and whose remaining items are the rule's positional options:
//
//	arrow-body-style: [warn, as-needed, {allowObjectLiteralBody: true}]
type RuleSetting struct {
	Severity lint.Severity
	Options  lint.Options
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (r *RuleSetting) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var v any
		if err := value.Decode(&v); err != nil {
			return err
		}
		sev, err := lint.ParseSeverity(v)
		if err != nil {
			return fmt.Errorf("line %d: %w", value.Line, err)
		}
		*r = RuleSetting{Severity: sev}
		return nil
	case yaml.SequenceNode:
		var items []any
		if err := value.Decode(&items); err != nil {
			return err
		}
		if len(items) == 0 {
			return fmt.Errorf("line %d: rule setting must start with a severity", value.Line)
		}
		sev, err := lint.ParseSeverity(items[0])
		if err != nil {
			return fmt.Errorf("line %d: %w", value.Line, err)
		}
		*r = RuleSetting{Severity: sev}
		if len(items) > 1 {
			r.Options = lint.Options(items[1:])
		}
		return nil
	default:
		return fmt.Errorf("line %d: rule setting must be a severity or a [severity, options...] list", value.Line)
	}
}

// MarshalYAML implements yaml.Marshaler, producing the same shapes
// UnmarshalYAML accepts.
func (r RuleSetting) MarshalYAML() (any, error) {
	if len(r.Options) == 0 {
		return r.Severity.String(), nil
	}
	return append([]any{r.Severity.String()}, r.Options...), nil
}

// RunnerConfig controls how files are processed.
type RunnerConfig struct {
	// Workers bounds the number of files linted in parallel. Zero means one
	// per CPU.
	Workers int `yaml:"workers"`
	// Ignore lists directory names skipped during directory walks.
	Ignore []string `yaml:"ignore,omitempty"`
}

// GateConfig configures the Rego pass/fail gate.
type GateConfig struct {
	// RegoDir is a directory of .rego files replacing the built-in policy.
	RegoDir string `yaml:"rego_dir"`
}

// TelemetryConfig configures OpenTelemetry export.
type TelemetryConfig struct {
	Enabled        bool              `yaml:"enabled"`
	Endpoint       string            `yaml:"endpoint"`
	Protocol       string            `yaml:"protocol"`
	Insecure       bool              `yaml:"insecure"`
	Headers        map[string]string `yaml:"headers,omitempty"`
	SampleRate     float64           `yaml:"sample_rate"`
	ServiceName    string            `yaml:"service_name"`
	ServiceVersion string            `yaml:"service_version,omitempty"`
}

// Config holds the full lintel configuration.
type Config struct {
	Rules     map[string]RuleSetting `yaml:"rules"`
	Runner    RunnerConfig           `yaml:"runner"`
	Gate      GateConfig             `yaml:"gate"`
	Telemetry TelemetryConfig        `yaml:"telemetry"`
}

// Validate checks the parts of the configuration that do not depend on the
// rule catalog. Rule ids and rule options are checked when the linter is
// constructed.
func (c *Config) Validate() error {
	var errs []error
	if c.Runner.Workers < 0 {
		errs = append(errs, fmt.Errorf("runner.workers must not be negative, got: %d", c.Runner.Workers))
	}
	switch c.Telemetry.Protocol {
	case "", "grpc", "http":
	default:
		errs = append(errs, fmt.Errorf("telemetry.protocol must be 'grpc' or 'http', got: %s", c.Telemetry.Protocol))
	}
	if c.Telemetry.SampleRate < 0 || c.Telemetry.SampleRate > 1 {
		errs = append(errs, fmt.Errorf("telemetry.sample_rate must be between 0 and 1, got: %g", c.Telemetry.SampleRate))
	}
	if c.Gate.RegoDir != "" {
		if info, err := os.Stat(c.Gate.RegoDir); err != nil || !info.IsDir() {
			errs = append(errs, fmt.Errorf("gate.rego_dir %s is not a directory", c.Gate.RegoDir))
		}
	}
	return errors.Join(errs...)
}

// Settings converts the rules map into linter settings.
func (c *Config) Settings() map[string]lint.Setting {
	out := make(map[string]lint.Setting, len(c.Rules))
	for id, r := range c.Rules {
		out[id] = lint.Setting{Severity: r.Severity, Options: r.Options}
	}
	return out
}

// EnabledRules returns the ids of rules whose severity is not off, sorted.
func (c *Config) EnabledRules() []string {
	var ids []string
	for id, r := range c.Rules {
		if r.Severity != lint.SeverityOff {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// MergeConfigs merges configs in order of increasing precedence.
// Later configs override earlier ones. A rule setting from a higher tier
// replaces the severity; its options replace the lower tier's only when it
// carries any, so `rule: off` and `rule: error` keep earlier options.
func MergeConfigs(configs ...*Config) *Config {
	result := &Config{
		Rules: make(map[string]RuleSetting),
	}

	for _, cfg := range configs {
		if cfg == nil {
			continue
		}

		for id, setting := range cfg.Rules {
			existing, ok := result.Rules[id]
			if !ok || len(setting.Options) > 0 {
				result.Rules[id] = setting
				continue
			}
			existing.Severity = setting.Severity
			result.Rules[id] = existing
		}

		if cfg.Runner.Workers != 0 {
			result.Runner.Workers = cfg.Runner.Workers
		}
		if len(cfg.Runner.Ignore) > 0 {
			result.Runner.Ignore = cfg.Runner.Ignore
		}

		if cfg.Gate.RegoDir != "" {
			result.Gate.RegoDir = cfg.Gate.RegoDir
		}

		// Telemetry: non-zero fields override; Enabled only switches on.
		t := cfg.Telemetry
		if t.Enabled {
			result.Telemetry.Enabled = true
		}
		if t.Endpoint != "" {
			result.Telemetry.Endpoint = t.Endpoint
		}
		if t.Protocol != "" {
			result.Telemetry.Protocol = t.Protocol
		}
		if t.Insecure {
			result.Telemetry.Insecure = true
		}
		if len(t.Headers) > 0 {
			result.Telemetry.Headers = t.Headers
		}
		if t.SampleRate != 0 {
			result.Telemetry.SampleRate = t.SampleRate
		}
		if t.ServiceName != "" {
			result.Telemetry.ServiceName = t.ServiceName
		}
		if t.ServiceVersion != "" {
			result.Telemetry.ServiceVersion = t.ServiceVersion
		}
	}

	return result
}

// Parse decodes a YAML configuration document. Unknown top-level keys are
// errors.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return &cfg, nil
}

// LoadFromFile reads a YAML config file. Returns nil, nil if the file doesn't exist.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	return cfg, nil
}

// LoadTiered loads system defaults, then machine config, then project config,
// and merges them in order of increasing precedence.
func LoadTiered(machinePath, projectPath string) (*Config, error) {
	system := SystemDefaults()

	machine, err := LoadFromFile(machinePath)
	if err != nil {
		return nil, fmt.Errorf("loading machine config: %w", err)
	}

	project, err := LoadFromFile(projectPath)
	if err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	return MergeConfigs(system, machine, project), nil
}
