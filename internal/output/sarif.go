package output

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"

	"github.com/chris-regnier/lintel/internal/sarif"
)

// InformationURI is written into the SARIF tool driver.
const InformationURI = "https://github.com/chris-regnier/lintel"

// SARIFFormatter renders analysis output as a SARIF 2.1.0 JSON document
// enriched with GitHub Code Scanning properties (problem.severity, precision,
// tags, partial fingerprints, and invocation metadata).
type SARIFFormatter struct{}

// Format enriches the SARIF log in-place and serializes it as indented JSON
// with a trailing newline.
func (f *SARIFFormatter) Format(result *AnalysisOutput) ([]byte, error) {
	if result == nil || result.SARIFLog == nil {
		return nil, fmt.Errorf("sarif formatter: SARIF log is required")
	}

	log := result.SARIFLog
	for i := range log.Runs {
		enrichRun(&log.Runs[i])
	}

	data, err := json.MarshalIndent(log, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("sarif formatter: %w", err)
	}
	return append(data, '\n'), nil
}

// enrichRun applies GitHub Code Scanning enrichments to a single run.
func enrichRun(run *sarif.Run) {
	run.Tool.Driver.InformationURI = InformationURI

	if len(run.Invocations) == 0 {
		run.Invocations = []sarif.Invocation{{ExecutionSuccessful: true}}
	}
	for i := range run.Invocations {
		if run.Invocations[i].WorkingDirectory.URI == "" {
			wd, _ := os.Getwd()
			run.Invocations[i].WorkingDirectory = sarif.ArtifactLocation{URI: wd}
		}
	}

	for i := range run.Tool.Driver.Rules {
		enrichRule(&run.Tool.Driver.Rules[i])
	}
	for j := range run.Results {
		enrichResult(&run.Results[j])
	}
}

// enrichRule adds the rule-level properties Code Scanning reads for
// non-security alerts.
func enrichRule(d *sarif.ReportingDescriptor) {
	if d.Properties == nil {
		d.Properties = make(map[string]any)
	}
	level := ""
	if d.DefaultConfig != nil {
		level = d.DefaultConfig.Level
	}
	d.Properties["problem.severity"] = problemSeverity(level)
	// AST rules are deterministic.
	d.Properties["precision"] = "very-high"
	tags := []string{"maintainability"}
	if c, ok := d.Properties["lintel/category"].(string); ok && c != "" {
		tags = append(tags, c)
	}
	d.Properties["tags"] = tags
}

// enrichResult adds a partial fingerprint to a single SARIF result.
func enrichResult(r *sarif.Result) {
	if r.PartialFingerprints == nil {
		r.PartialFingerprints = make(map[string]string)
	}

	uri := resultFilePath(*r)
	region := resultRegion(*r)
	fingerprintInput := fmt.Sprintf("%s|%s|%d|%d|%s", r.RuleID, uri, region.StartLine, region.StartColumn, r.Message.Text)
	hash := sha256.Sum256([]byte(fingerprintInput))
	r.PartialFingerprints["primaryLocationLineHash"] = fmt.Sprintf("%x", hash[:16]) // first 32 hex chars (16 bytes)
}

// problemSeverity maps SARIF levels to Code Scanning problem.severity values.
func problemSeverity(level string) string {
	switch level {
	case "error":
		return "error"
	case "warning":
		return "warning"
	default:
		return "recommendation"
	}
}
