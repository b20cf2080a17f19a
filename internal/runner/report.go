package runner

import (
	"github.com/chris-regnier/lintel/internal/sarif"
)

// Report converts file results into SARIF results and tool execution
// notifications. Diagnostics are located against each file's final text.
func Report(results []FileResult) ([]sarif.Result, []sarif.Notification) {
	var out []sarif.Result
	var notes []sarif.Notification
	for _, r := range results {
		if r.Err != nil {
			notes = append(notes, sarif.FileNotification(r.Path, r.Err))
			continue
		}
		for _, f := range r.Faults {
			notes = append(notes, sarif.FaultNotification(r.Path, f))
		}
		for _, d := range r.Diagnostics {
			out = append(out, sarif.FromDiagnostic(r.Path, r.Output, d))
		}
	}
	return out, notes
}

// Sources maps each path to the text its diagnostics refer to.
func Sources(results []FileResult) map[string][]byte {
	m := make(map[string][]byte, len(results))
	for _, r := range results {
		m[r.Path] = r.Output
	}
	return m
}
