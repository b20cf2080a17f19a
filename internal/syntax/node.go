// Package syntax defines the read-only syntax tree the lint engine walks.
//
// Trees are produced once per pass by a parser (see internal/parse) and are
// never mutated afterwards. Parent-to-child links are ownership; nodes hold no
// back-pointers, so handlers that need a parent receive it from the walker.
package syntax

import "fmt"

// Kind is the category tag of a node.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindProgram
	KindArrowFunction
	KindBlockStatement
	KindReturnStatement
	KindObjectExpression
	KindObjectPattern
	KindProperty
	KindIdentifier
	KindImportSpecifier
	KindExportSpecifier
	KindParenthesizedExpression
	KindLiteral
	KindOther

	kindCount
)

var kindNames = [...]string{
	KindUnknown:                 "Unknown",
	KindProgram:                 "Program",
	KindArrowFunction:           "ArrowFunctionExpression",
	KindBlockStatement:          "BlockStatement",
	KindReturnStatement:         "ReturnStatement",
	KindObjectExpression:        "ObjectExpression",
	KindObjectPattern:           "ObjectPattern",
	KindProperty:                "Property",
	KindIdentifier:              "Identifier",
	KindImportSpecifier:         "ImportSpecifier",
	KindExportSpecifier:         "ExportSpecifier",
	KindParenthesizedExpression: "ParenthesizedExpression",
	KindLiteral:                 "Literal",
	KindOther:                   "Other",
}

func (k Kind) String() string {
	if k < kindCount {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Span is a half-open byte range [Start, End) into the source buffer.
type Span struct {
	Start int
	End   int
}

// Len returns the number of bytes covered by the span.
func (s Span) Len() int { return s.End - s.Start }

// Position is a source location. Line is 1-based, Column is a 0-based byte
// offset within the line.
type Position struct {
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Node is satisfied by every element of the tree.
type Node interface {
	Kind() Kind
	Span() Span
	Pos() Position
	// Children returns the owned children in source order. A node is never
	// returned twice, even when two fields refer to it.
	Children() []Node
}

// Base carries the attributes shared by all nodes. Concrete node types embed it.
type Base struct {
	Range Span
	Start Position
}

func (b *Base) Span() Span    { return b.Range }
func (b *Base) Pos() Position { return b.Start }

// Program is the root of a parsed file.
type Program struct {
	Base
	Body []Node
}

func (*Program) Kind() Kind         { return KindProgram }
func (n *Program) Children() []Node { return n.Body }

// ArrowFunction is `(params) => body`. Body is either a *BlockStatement or an
// expression node.
type ArrowFunction struct {
	Base
	Params []Node
	Body   Node
}

func (*ArrowFunction) Kind() Kind { return KindArrowFunction }

func (n *ArrowFunction) Children() []Node {
	return appendNonNil(append([]Node(nil), n.Params...), n.Body)
}

// BlockStatement is a `{ ... }` statement list.
type BlockStatement struct {
	Base
	Body []Node
}

func (*BlockStatement) Kind() Kind         { return KindBlockStatement }
func (n *BlockStatement) Children() []Node { return n.Body }

// ReturnStatement is `return [argument]`. Argument is nil for a bare return.
type ReturnStatement struct {
	Base
	Argument Node
}

func (*ReturnStatement) Kind() Kind         { return KindReturnStatement }
func (n *ReturnStatement) Children() []Node { return appendNonNil(nil, n.Argument) }

// ObjectExpression is an object literal `{ ... }` in expression position.
type ObjectExpression struct {
	Base
	Properties []Node
}

func (*ObjectExpression) Kind() Kind         { return KindObjectExpression }
func (n *ObjectExpression) Children() []Node { return n.Properties }

// ObjectPattern is an object destructuring pattern. Properties holds *Property
// nodes and, for rest elements, other nodes.
type ObjectPattern struct {
	Base
	Properties []Node
}

func (*ObjectPattern) Kind() Kind         { return KindObjectPattern }
func (n *ObjectPattern) Children() []Node { return n.Properties }

// Property is a key/value entry of an object literal or pattern. For a
// shorthand property Key and Value are the same node.
type Property struct {
	Base
	Key       Node
	Value     Node
	Shorthand bool
	Computed  bool
}

func (*Property) Kind() Kind { return KindProperty }

func (n *Property) Children() []Node {
	if n.Shorthand || n.Key == n.Value {
		return appendNonNil(nil, n.Value)
	}
	return appendNonNil(appendNonNil(nil, n.Key), n.Value)
}

// Identifier is a name reference or binding.
type Identifier struct {
	Base
	Name string
}

func (*Identifier) Kind() Kind       { return KindIdentifier }
func (*Identifier) Children() []Node { return nil }

// ImportSpecifier is one `imported [as local]` entry of a named import. When
// the specifier is not aliased, Imported and Local are the same node.
type ImportSpecifier struct {
	Base
	Imported Node
	Local    *Identifier
}

func (*ImportSpecifier) Kind() Kind { return KindImportSpecifier }

func (n *ImportSpecifier) Children() []Node {
	if n.Local == nil || Node(n.Local) == n.Imported {
		return appendNonNil(nil, n.Imported)
	}
	return appendNonNil([]Node{n.Imported}, n.Local)
}

// ExportSpecifier is one `local [as exported]` entry of a named export. When
// the specifier is not aliased, Local and Exported are the same node.
type ExportSpecifier struct {
	Base
	Local    Node
	Exported Node
}

func (*ExportSpecifier) Kind() Kind { return KindExportSpecifier }

func (n *ExportSpecifier) Children() []Node {
	if n.Exported == nil || n.Exported == n.Local {
		return appendNonNil(nil, n.Local)
	}
	return appendNonNil(appendNonNil(nil, n.Local), n.Exported)
}

// ParenthesizedExpression is `( expression )`. It is kept as its own node so
// rules can tell `() => ({})` apart from a bare object body.
type ParenthesizedExpression struct {
	Base
	Expression Node
}

func (*ParenthesizedExpression) Kind() Kind         { return KindParenthesizedExpression }
func (n *ParenthesizedExpression) Children() []Node { return appendNonNil(nil, n.Expression) }

// Literal is a string, number, boolean, null, regex or template literal.
// Raw holds the source text; Value holds the unquoted text for strings.
type Literal struct {
	Base
	Raw   string
	Value string
}

func (*Literal) Kind() Kind       { return KindLiteral }
func (*Literal) Children() []Node { return nil }

// Generic stands for every category the engine has no dedicated type for.
// Type is the parser's name for the category.
type Generic struct {
	Base
	Type  string
	Nodes []Node
}

func (*Generic) Kind() Kind         { return KindOther }
func (n *Generic) Children() []Node { return n.Nodes }

// Text returns the source text covered by n.
func Text(src []byte, n Node) string {
	s := n.Span()
	if s.Start < 0 || s.End > len(src) || s.Start > s.End {
		return ""
	}
	return string(src[s.Start:s.End])
}

// NameOf returns the identifier name of n, or "" if n is not an identifier.
func NameOf(n Node) (string, bool) {
	id, ok := n.(*Identifier)
	if !ok || id == nil {
		return "", false
	}
	return id.Name, true
}

func appendNonNil(nodes []Node, n Node) []Node {
	if isNil(n) {
		return nodes
	}
	return append(nodes, n)
}

// isNil catches typed nil pointers stored in a Node interface.
func isNil(n Node) bool {
	if n == nil {
		return true
	}
	switch v := n.(type) {
	case *Identifier:
		return v == nil
	case *BlockStatement:
		return v == nil
	case *Generic:
		return v == nil
	}
	return false
}
