package astcheck

import (
	"fmt"

	"github.com/chris-regnier/lintel/internal/syntax"
)

// category is the category shared by the built-in rules.
const category = "ECMAScript 6"

// as asserts that n has the concrete type a handler was registered for. A
// mismatch means the tree is malformed and is returned as a rule fault.
func as[T syntax.Node](n syntax.Node) (T, error) {
	v, ok := n.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("expected %T, got %T", zero, n)
	}
	return v, nil
}

// unparen strips any number of enclosing parentheses.
func unparen(n syntax.Node) syntax.Node {
	for {
		p, ok := n.(*syntax.ParenthesizedExpression)
		if !ok || p.Expression == nil {
			return n
		}
		n = p.Expression
	}
}
