package config

import (
	"os"
	"path/filepath"

	"github.com/chris-regnier/lintel/internal/lint"
)

// ProjectConfigPath is the project-level config file, relative to the
// working directory.
const ProjectConfigPath = ".lintel/config.yaml"

// MachineConfigPath returns the machine-level config file path, or "" when
// the home directory cannot be determined.
func MachineConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "lintel", "config.yaml")
}

// SystemDefaults returns the built-in rule settings and runtime config.
func SystemDefaults() *Config {
	return &Config{
		Rules: map[string]RuleSetting{
			"arrow-body-style":  {Severity: lint.SeverityWarn, Options: lint.Options{"as-needed"}},
			"no-useless-rename": {Severity: lint.SeverityError},
		},
		Runner: RunnerConfig{
			Ignore: []string{"node_modules", "dist", "build", "vendor"},
		},
		Telemetry: TelemetryConfig{
			Endpoint:    "localhost:4317",
			Protocol:    "grpc",
			SampleRate:  1.0,
			ServiceName: "lintel",
		},
	}
}
