// Package evaluator gates a lint run with a Rego policy evaluated over its
// SARIF log.
package evaluator

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/open-policy-agent/opa/v1/rego"

	"github.com/chris-regnier/lintel/internal/sarif"
)

//go:embed default.rego
var defaultPolicy string

const query = "data.lintel.gate.decision"

// Decisions the gate can return.
const (
	DecisionPass = "pass"
	DecisionFail = "fail"
)

// Verdict is the outcome of the gate.
type Verdict struct {
	Decision         string         `json:"decision"`
	Reason           string         `json:"reason"`
	RelevantFindings []sarif.Result `json:"relevant_findings,omitempty"`
}

// Passed reports whether the run passed the gate.
func (v *Verdict) Passed() bool { return v.Decision == DecisionPass }

type Evaluator struct {
	query rego.PreparedEvalQuery
}

// NewEvaluator creates an evaluator. If policyDir is empty, uses the default policy.
// If policyDir holds .rego files, they replace the default policy; they must
// define data.lintel.gate.decision.
func NewEvaluator(policyDir string) (*Evaluator, error) {
	ctx := context.Background()

	modules, err := loadPolicies(policyDir)
	if err != nil {
		return nil, err
	}
	opts := []func(*rego.Rego){rego.Query(query)}
	for _, name := range sortedKeys(modules) {
		opts = append(opts, rego.Module(name, modules[name]))
	}

	q, err := rego.New(opts...).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("preparing rego query: %w", err)
	}

	return &Evaluator{query: q}, nil
}

func loadPolicies(dir string) (map[string]string, error) {
	def := map[string]string{"default.rego": defaultPolicy}
	if dir == "" {
		return def, nil
	}
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return def, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading policy dir: %w", err)
	}
	custom := make(map[string]string)
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".rego") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading policy %s: %w", e.Name(), err)
		}
		custom[e.Name()] = string(data)
	}
	if len(custom) == 0 {
		return def, nil
	}
	return custom, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Evaluate runs the policy with the SARIF log as input.
func (e *Evaluator) Evaluate(ctx context.Context, log *sarif.Log) (*Verdict, error) {
	data, err := json.Marshal(log)
	if err != nil {
		return nil, err
	}
	var input any
	if err := json.Unmarshal(data, &input); err != nil {
		return nil, err
	}

	results, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return nil, fmt.Errorf("evaluating rego: %w", err)
	}

	decision := DecisionFail
	if len(results) > 0 && len(results[0].Expressions) > 0 {
		if d, ok := results[0].Expressions[0].Value.(string); ok {
			decision = d
		}
	}

	var relevant []sarif.Result
	errorCount, warnCount := 0, 0
	if len(log.Runs) > 0 {
		for _, r := range log.Runs[0].Results {
			switch r.Level {
			case "error":
				errorCount++
				if decision == DecisionFail {
					relevant = append(relevant, r)
				}
			case "warning":
				warnCount++
			}
		}
	}

	return &Verdict{
		Decision:         decision,
		Reason:           fmt.Sprintf("Decision: %s based on %d error(s) and %d warning(s)", decision, errorCount, warnCount),
		RelevantFindings: relevant,
	}, nil
}
