package sarif

import (
	"sort"
)

// Assembler provides a builder pattern for constructing SARIF logs.
type Assembler struct {
	version       string
	results       []Result
	rules         []ReportingDescriptor
	notifications []Notification
	inputScope    string
	workingDir    string
}

// NewAssembler creates a new Assembler for the given tool version.
func NewAssembler(version string) *Assembler {
	return &Assembler{
		version: version,
		results: []Result{},
		rules:   []ReportingDescriptor{},
	}
}

// AddResults adds SARIF results to the assembler
func (a *Assembler) AddResults(results []Result) *Assembler {
	a.results = append(a.results, results...)
	return a
}

// AddRules adds reporting descriptors (rules) to the assembler
func (a *Assembler) AddRules(rules []ReportingDescriptor) *Assembler {
	a.rules = append(a.rules, rules...)
	return a
}

// AddNotifications records tool execution notifications. Any notification of
// level error marks the invocation as unsuccessful.
func (a *Assembler) AddNotifications(n []Notification) *Assembler {
	a.notifications = append(a.notifications, n...)
	return a
}

// WithInputScope sets the input scope for the SARIF log
func (a *Assembler) WithInputScope(scope string) *Assembler {
	a.inputScope = scope
	return a
}

// WithWorkingDirectory records the directory relative URIs resolve against.
func (a *Assembler) WithWorkingDirectory(dir string) *Assembler {
	a.workingDir = dir
	return a
}

// Build constructs the final SARIF log.
func (a *Assembler) Build() *Log {
	log := NewLog(ToolName, a.version)
	run := &log.Runs[0]
	run.Tool.Driver.Rules = a.rules
	run.Results = dedup(a.results)

	successful := true
	for _, n := range a.notifications {
		if n.Level == "error" {
			successful = false
			break
		}
	}
	run.Invocations = []Invocation{{
		WorkingDirectory:           ArtifactLocation{URI: a.workingDir},
		ExecutionSuccessful:        successful,
		ToolExecutionNotifications: a.notifications,
	}}

	if a.inputScope != "" {
		run.Properties = map[string]any{
			"lintel/inputScope": a.inputScope,
		}
	}
	return log
}

// Assemble creates a SARIF log from results in one call.
func Assemble(results []Result, rules []ReportingDescriptor, inputScope, version string) *Log {
	return NewAssembler(version).
		AddResults(results).
		AddRules(rules).
		WithInputScope(inputScope).
		Build()
}

type resultKey struct {
	ruleID  string
	uri     string
	line    int
	column  int
	message string
}

// dedup drops exact repeats (same rule, file, start and message) and orders
// results by file. Results within a file keep their report order.
func dedup(results []Result) []Result {
	seen := make(map[resultKey]bool, len(results))
	out := make([]Result, 0, len(results))
	for _, r := range results {
		k := keyOf(r)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return uriOf(out[i]) < uriOf(out[j])
	})
	return out
}

func keyOf(r Result) resultKey {
	k := resultKey{ruleID: r.RuleID, message: r.Message.Text}
	if len(r.Locations) > 0 {
		loc := r.Locations[0].PhysicalLocation
		k.uri = loc.ArtifactLocation.URI
		k.line = loc.Region.StartLine
		k.column = loc.Region.StartColumn
	}
	return k
}

func uriOf(r Result) string {
	if len(r.Locations) == 0 {
		return ""
	}
	return r.Locations[0].PhysicalLocation.ArtifactLocation.URI
}
