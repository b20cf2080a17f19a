package fix

import (
	"fmt"
	"sort"
	"strings"
)

// Conflict records an edit that was dropped because it overlaps an edit that
// was already accepted. Index and With are positions in the slice passed to
// Apply.
type Conflict struct {
	Index int
	With  int
}

// ConflictError is returned by Apply when one or more edits were dropped.
// The accompanying Result is still valid.
type ConflictError struct {
	Conflicts []Conflict
	edits     []Edit
}

func (e *ConflictError) Error() string {
	parts := make([]string, 0, len(e.Conflicts))
	for _, c := range e.Conflicts {
		parts = append(parts, fmt.Sprintf("%s overlaps %s", e.edits[c.Index], e.edits[c.With]))
	}
	return fmt.Sprintf("%d conflicting fix(es) skipped: %s", len(e.Conflicts), strings.Join(parts, "; "))
}

// Result is the outcome of composing a batch of edits.
type Result struct {
	// Output is the rewritten source. It equals the input when nothing applied.
	Output []byte
	// Applied holds the indexes of the edits that were applied, in source order.
	Applied []int
	// Conflicts holds the edits that were skipped.
	Conflicts []Conflict
}

// Changed reports whether any edit was applied.
func (r *Result) Changed() bool { return len(r.Applied) > 0 }

// Apply composes edits onto src in a single linear scan.
//
// Edits are ordered by start offset (ties keep proposal order, insertions
// before replacements). An edit whose start lies strictly inside the previous
// accepted edit is skipped and reported; touching edits are both applied.
// Invalid edits are rejected with ErrInvalidEdit before anything is applied.
//
// When conflicts occur, Apply returns the partially fixed Result together
// with a *ConflictError.
func Apply(src []byte, edits []Edit) (*Result, error) {
	for i, e := range edits {
		if err := e.Validate(len(src)); err != nil {
			return nil, fmt.Errorf("edit %d: %w", i, err)
		}
	}

	order := make([]int, len(edits))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ea, eb := edits[order[a]], edits[order[b]]
		if ea.Start != eb.Start {
			return ea.Start < eb.Start
		}
		return ea.End < eb.End
	})

	res := &Result{}
	accepted := make([]int, 0, len(order))
	for _, idx := range order {
		if n := len(accepted); n > 0 {
			prev := accepted[n-1]
			if overlaps(edits[prev], edits[idx]) {
				res.Conflicts = append(res.Conflicts, Conflict{Index: idx, With: prev})
				continue
			}
		}
		accepted = append(accepted, idx)
	}

	var out strings.Builder
	out.Grow(len(src))
	cursor := 0
	for _, idx := range accepted {
		e := edits[idx]
		out.Write(src[cursor:e.Start])
		out.WriteString(e.Text)
		cursor = e.End
	}
	out.Write(src[cursor:])

	res.Output = []byte(out.String())
	res.Applied = accepted

	if len(res.Conflicts) > 0 {
		return res, &ConflictError{Conflicts: res.Conflicts, edits: edits}
	}
	return res, nil
}
