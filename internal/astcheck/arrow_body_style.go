package astcheck

import (
	"fmt"

	"github.com/chris-regnier/lintel/internal/lint"
	"github.com/chris-regnier/lintel/internal/syntax"
)

// Arrow body modes.
const (
	BodyAlways   = "always"
	BodyAsNeeded = "as-needed"
)

const (
	msgUnexpectedBlock = "Unexpected block statement surrounding arrow body."
	msgExpectedBlock   = "Expected block statement surrounding arrow body."
)

// ArrowBodyStyle enforces braces around arrow function bodies, either always
// or only where a block is needed.
type ArrowBodyStyle struct{}

// ArrowBodyStyleOptions is the resolved configuration of ArrowBodyStyle.
type ArrowBodyStyleOptions struct {
	Mode                   string
	AllowObjectLiteralBody bool `yaml:"allowObjectLiteralBody"`
}

func (*ArrowBodyStyle) Meta() lint.Meta {
	return lint.Meta{
		ID:          "arrow-body-style",
		Description: "require braces around arrow function bodies",
		Category:    category,
	}
}

// ParseArrowBodyStyleOptions validates ["always"] or
// ["as-needed", {allowObjectLiteralBody: bool}]. Both options may be omitted.
func ParseArrowBodyStyleOptions(opts lint.Options) (ArrowBodyStyleOptions, error) {
	if err := opts.MaxLen(2); err != nil {
		return ArrowBodyStyleOptions{}, err
	}
	mode, err := opts.Enum(0, BodyAsNeeded, BodyAlways, BodyAsNeeded)
	if err != nil {
		return ArrowBodyStyleOptions{}, err
	}
	out := ArrowBodyStyleOptions{Mode: mode}
	if !opts.Has(1) {
		return out, nil
	}
	if mode != BodyAsNeeded {
		return ArrowBodyStyleOptions{}, fmt.Errorf("option 2 is only allowed with %q", BodyAsNeeded)
	}
	var obj struct {
		AllowObjectLiteralBody bool `yaml:"allowObjectLiteralBody"`
	}
	if err := opts.Decode(1, &obj); err != nil {
		return ArrowBodyStyleOptions{}, err
	}
	out.AllowObjectLiteralBody = obj.AllowObjectLiteralBody
	return out, nil
}

func (r *ArrowBodyStyle) Configure(opts lint.Options) (*lint.Handlers, error) {
	o, err := ParseArrowBodyStyleOptions(opts)
	if err != nil {
		return nil, err
	}
	return lint.NewHandlers().On(syntax.KindArrowFunction, o.check), nil
}

func (o ArrowBodyStyleOptions) check(c *lint.Context, n, _ syntax.Node) error {
	fn, err := as[*syntax.ArrowFunction](n)
	if err != nil {
		return err
	}
	if fn.Body == nil {
		return fmt.Errorf("arrow function at %s has no body", fn.Pos())
	}
	asNeeded := o.Mode == BodyAsNeeded
	loc := fn.Body.Pos()

	if block, ok := fn.Body.(*syntax.BlockStatement); ok {
		if len(block.Body) != 1 || !asNeeded {
			return nil
		}
		ret, ok := block.Body[0].(*syntax.ReturnStatement)
		if !ok {
			return nil
		}
		if o.AllowObjectLiteralBody && ret.Argument != nil &&
			unparen(ret.Argument).Kind() == syntax.KindObjectExpression {
			return nil
		}
		c.Report(lint.Descriptor{Node: fn, Loc: &loc, Message: msgUnexpectedBlock})
		return nil
	}

	if !asNeeded || (o.AllowObjectLiteralBody && fn.Body.Kind() == syntax.KindObjectExpression) {
		c.Report(lint.Descriptor{Node: fn, Loc: &loc, Message: msgExpectedBlock})
	}
	return nil
}
