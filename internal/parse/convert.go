package parse

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/chris-regnier/lintel/internal/syntax"
)

type converter struct {
	src []byte
}

func (c *converter) base(n *sitter.Node) syntax.Base {
	return syntax.Base{
		Range: syntax.Span{Start: int(n.StartByte()), End: int(n.EndByte())},
		Start: position(n),
	}
}

func (c *converter) program(n *sitter.Node) syntax.Node {
	return &syntax.Program{
		Base: syntax.Base{
			Range: syntax.Span{Start: 0, End: len(c.src)},
			Start: syntax.Position{Line: 1, Column: 0},
		},
		Body: c.children(n),
	}
}

// children converts the named, non-comment children of n.
func (c *converter) children(n *sitter.Node) []syntax.Node {
	count := int(n.NamedChildCount())
	if count == 0 {
		return nil
	}
	out := make([]syntax.Node, 0, count)
	for i := 0; i < count; i++ {
		child := n.NamedChild(i)
		if child == nil || child.Type() == "comment" {
			continue
		}
		out = append(out, c.node(child))
	}
	return out
}

// first converts the first named, non-comment child of n, or returns nil.
func (c *converter) first(n *sitter.Node) syntax.Node {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child != nil && child.Type() != "comment" {
			return c.node(child)
		}
	}
	return nil
}

func (c *converter) node(n *sitter.Node) syntax.Node {
	switch n.Type() {
	case "arrow_function":
		return c.arrow(n)
	case "statement_block":
		return &syntax.BlockStatement{Base: c.base(n), Body: c.children(n)}
	case "return_statement":
		return &syntax.ReturnStatement{Base: c.base(n), Argument: c.first(n)}
	case "object":
		return &syntax.ObjectExpression{Base: c.base(n), Properties: c.properties(n)}
	case "object_pattern":
		return &syntax.ObjectPattern{Base: c.base(n), Properties: c.properties(n)}
	case "pair", "pair_pattern":
		return c.pair(n)
	case "identifier", "property_identifier", "shorthand_property_identifier",
		"shorthand_property_identifier_pattern", "type_identifier":
		return c.ident(n)
	case "import_specifier":
		return c.importSpecifier(n)
	case "export_specifier":
		return c.exportSpecifier(n)
	case "parenthesized_expression":
		return &syntax.ParenthesizedExpression{Base: c.base(n), Expression: c.first(n)}
	case "string", "number", "true", "false", "null", "undefined", "regex":
		return c.literal(n)
	}
	return &syntax.Generic{Base: c.base(n), Type: n.Type(), Nodes: c.children(n)}
}

func (c *converter) ident(n *sitter.Node) *syntax.Identifier {
	return &syntax.Identifier{Base: c.base(n), Name: n.Content(c.src)}
}

func (c *converter) literal(n *sitter.Node) *syntax.Literal {
	raw := n.Content(c.src)
	lit := &syntax.Literal{Base: c.base(n), Raw: raw, Value: raw}
	if n.Type() == "string" && len(raw) >= 2 {
		lit.Value = raw[1 : len(raw)-1]
	}
	return lit
}

func (c *converter) arrow(n *sitter.Node) syntax.Node {
	fn := &syntax.ArrowFunction{Base: c.base(n)}
	if params := n.ChildByFieldName("parameters"); params != nil {
		fn.Params = c.children(params)
	} else if param := n.ChildByFieldName("parameter"); param != nil {
		fn.Params = []syntax.Node{c.node(param)}
	}
	if body := n.ChildByFieldName("body"); body != nil {
		fn.Body = c.node(body)
	}
	return fn
}

// properties converts the entries of an object literal or pattern. Shorthand
// entries become shorthand properties whose key and value are one node.
func (c *converter) properties(n *sitter.Node) []syntax.Node {
	var out []syntax.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child == nil {
			continue
		}
		switch child.Type() {
		case "comment":
			continue
		case "shorthand_property_identifier", "shorthand_property_identifier_pattern":
			id := c.ident(child)
			out = append(out, &syntax.Property{Base: c.base(child), Key: id, Value: id, Shorthand: true})
		case "object_assignment_pattern":
			// {a = 1}: the key is the binding; the value keeps the default.
			value := &syntax.Generic{Base: c.base(child), Type: child.Type(), Nodes: c.children(child)}
			var key syntax.Node = value
			if left := child.ChildByFieldName("left"); left != nil && len(value.Nodes) > 0 {
				key = value.Nodes[0]
			}
			out = append(out, &syntax.Property{Base: c.base(child), Key: key, Value: value, Shorthand: true})
		default:
			out = append(out, c.node(child))
		}
	}
	return out
}

func (c *converter) pair(n *sitter.Node) syntax.Node {
	p := &syntax.Property{Base: c.base(n)}
	if key := n.ChildByFieldName("key"); key != nil {
		p.Key = c.node(key)
		p.Computed = key.Type() == "computed_property_name"
	}
	if value := n.ChildByFieldName("value"); value != nil {
		p.Value = c.node(value)
	}
	return p
}

func (c *converter) importSpecifier(n *sitter.Node) syntax.Node {
	spec := &syntax.ImportSpecifier{Base: c.base(n)}
	name := n.ChildByFieldName("name")
	alias := n.ChildByFieldName("alias")
	if name != nil {
		spec.Imported = c.node(name)
	}
	switch {
	case alias != nil:
		spec.Local = c.ident(alias)
	case spec.Imported != nil:
		if id, ok := spec.Imported.(*syntax.Identifier); ok {
			spec.Local = id
		}
	}
	return spec
}

func (c *converter) exportSpecifier(n *sitter.Node) syntax.Node {
	spec := &syntax.ExportSpecifier{Base: c.base(n)}
	if name := n.ChildByFieldName("name"); name != nil {
		spec.Local = c.node(name)
	}
	if alias := n.ChildByFieldName("alias"); alias != nil {
		spec.Exported = c.node(alias)
	} else {
		spec.Exported = spec.Local
	}
	return spec
}
