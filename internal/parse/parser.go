// Package parse turns JavaScript and TypeScript source into syntax trees
// using tree-sitter.
package parse

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/chris-regnier/lintel/internal/syntax"
)

var parseTracer = otel.Tracer("github.com/chris-regnier/lintel/internal/parse")

// Error is a fatal parse error. Pos is the first erroneous or missing token.
type Error struct {
	Pos syntax.Position
	Msg string
}

func (e *Error) Error() string {
	return fmt.Sprintf("parse error at %s: %s", e.Pos, e.Msg)
}

// Parser parses source for one language. It holds no tree-sitter state
// between calls and is safe for concurrent use.
type Parser struct {
	lang Language
}

// New returns a parser for lang.
func New(lang Language) *Parser {
	return &Parser{lang: lang}
}

// ForPath returns a parser for the language of path.
func ForPath(path string) (*Parser, bool) {
	lang, ok := Detect(path)
	if !ok {
		return nil, false
	}
	return New(lang), true
}

// Language returns the parser's language.
func (p *Parser) Language() Language { return p.lang }

// Parse parses src and converts the result into a syntax tree. Source with
// syntax errors yields a *Error.
func (p *Parser) Parse(ctx context.Context, src []byte) (syntax.Node, error) {
	ctx, span := parseTracer.Start(ctx, "parse")
	defer span.End()
	span.SetAttributes(
		attribute.String("parse.language", p.lang.Name),
		attribute.Int("parse.bytes", len(src)),
	)

	sp := sitter.NewParser()
	defer sp.Close()
	sp.SetLanguage(p.lang.grammar)

	tree, err := sp.ParseCtx(ctx, nil, src)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("parsing %s: %w", p.lang.Name, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		perr := firstError(root, src)
		span.RecordError(perr)
		span.SetStatus(codes.Error, perr.Error())
		return nil, perr
	}

	c := converter{src: src}
	return c.program(root), nil
}

// firstError finds the first ERROR or MISSING node in document order.
func firstError(root *sitter.Node, src []byte) *Error {
	stack := []*sitter.Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if n.IsMissing() {
			return &Error{Pos: position(n), Msg: fmt.Sprintf("missing %q", n.Type())}
		}
		if n.IsError() {
			return &Error{Pos: position(n), Msg: fmt.Sprintf("unexpected %q", excerpt(n.Content(src)))}
		}
		if !n.HasError() {
			continue
		}
		for i := int(n.ChildCount()) - 1; i >= 0; i-- {
			stack = append(stack, n.Child(i))
		}
	}
	return &Error{Pos: position(root), Msg: "invalid syntax"}
}

func excerpt(s string) string {
	const max = 20
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}

func position(n *sitter.Node) syntax.Position {
	p := n.StartPoint()
	return syntax.Position{Line: int(p.Row) + 1, Column: int(p.Column)}
}
