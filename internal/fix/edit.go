// Package fix provides text edits proposed by rules and the composer that
// applies a batch of them to a source buffer.
package fix

import (
	"errors"
	"fmt"
)

// ErrInvalidEdit is returned by Validate for edits that are out of bounds,
// inverted, or do nothing.
var ErrInvalidEdit = errors.New("invalid fix")

// Edit replaces the bytes [Start, End) with Text. An empty Text deletes the
// range; an empty range inserts Text at Start.
type Edit struct {
	Start int
	End   int
	Text  string
}

func (e Edit) String() string {
	return fmt.Sprintf("[%d,%d)->%q", e.Start, e.End, e.Text)
}

// Validate checks that e is a usable edit for a source of srcLen bytes.
func (e Edit) Validate(srcLen int) error {
	switch {
	case e.Start < 0 || e.End > srcLen:
		return fmt.Errorf("%w: range [%d,%d) outside source of %d bytes", ErrInvalidEdit, e.Start, e.End, srcLen)
	case e.End < e.Start:
		return fmt.Errorf("%w: range [%d,%d) ends before it starts", ErrInvalidEdit, e.Start, e.End)
	case e.Start == e.End && e.Text == "":
		return fmt.Errorf("%w: empty range with empty replacement at %d", ErrInvalidEdit, e.Start)
	}
	return nil
}

// overlaps reports whether next starts inside prev. Edits that only touch at
// a boundary do not overlap.
func overlaps(prev, next Edit) bool {
	return next.Start < prev.End
}

// RemoveRange returns an edit deleting [start, end).
func RemoveRange(start, end int) Edit {
	return Edit{Start: start, End: end}
}
