package parse

import (
	"context"
	"errors"
	"testing"

	"github.com/chris-regnier/lintel/internal/syntax"
)

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

func parseJS(t *testing.T, source string) syntax.Node {
	t.Helper()
	return parseWith(t, source, JavaScript)
}

func parseWith(t *testing.T, source string, lang Language) syntax.Node {
	t.Helper()
	root, err := New(lang).Parse(context.Background(), []byte(source))
	if err != nil {
		t.Fatalf("failed to parse source: %v", err)
	}
	return root
}

// findAll returns every node of kind k in pre-order.
func findAll(root syntax.Node, k syntax.Kind) []syntax.Node {
	var out []syntax.Node
	syntax.Inspect(root, func(n, _ syntax.Node) {
		if n.Kind() == k {
			out = append(out, n)
		}
	})
	return out
}

func findFirst(t *testing.T, root syntax.Node, k syntax.Kind) syntax.Node {
	t.Helper()
	nodes := findAll(root, k)
	if len(nodes) == 0 {
		t.Fatalf("no %s node found", k)
	}
	return nodes[0]
}

// ---------------------------------------------------------------------------
// Language detection
// ---------------------------------------------------------------------------

func TestDetect(t *testing.T) {
	tests := []struct {
		path     string
		wantName string
		wantOK   bool
	}{
		{"app.js", "javascript", true},
		{"app.jsx", "javascript", true},
		{"app.mjs", "javascript", true},
		{"app.cjs", "javascript", true},
		{"app.ts", "typescript", true},
		{"app.mts", "typescript", true},
		{"app.tsx", "tsx", true},
		{"/path/to/APP.JS", "javascript", true}, // case insensitive
		{"main.go", "", false},
		{"readme.md", "", false},
		{"Makefile", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			lang, ok := Detect(tt.path)
			if ok != tt.wantOK {
				t.Fatalf("Detect(%q) ok=%v, want %v", tt.path, ok, tt.wantOK)
			}
			if lang.Name != tt.wantName {
				t.Errorf("Detect(%q) name=%q, want %q", tt.path, lang.Name, tt.wantName)
			}
			if ok && lang.grammar == nil {
				t.Errorf("Detect(%q) returned nil grammar", tt.path)
			}
		})
	}
}

func TestExtensions(t *testing.T) {
	exts := Extensions()
	if len(exts) != len(extToLang) {
		t.Fatalf("expected %d extensions, got %d", len(extToLang), len(exts))
	}
	for _, ext := range exts {
		if _, ok := Detect("file" + ext); !ok {
			t.Errorf("extension %q not detected", ext)
		}
	}
}

// ---------------------------------------------------------------------------
// Conversion
// ---------------------------------------------------------------------------

func TestParseArrowBlockBody(t *testing.T) {
	src := "const f = () => { return 1; };"
	root := parseJS(t, src)

	if root.Kind() != syntax.KindProgram {
		t.Fatalf("root kind = %s, want Program", root.Kind())
	}
	if root.Span() != (syntax.Span{Start: 0, End: len(src)}) {
		t.Errorf("program span = %v", root.Span())
	}

	fn := findFirst(t, root, syntax.KindArrowFunction).(*syntax.ArrowFunction)
	block, ok := fn.Body.(*syntax.BlockStatement)
	if !ok {
		t.Fatalf("body is %T, want *syntax.BlockStatement", fn.Body)
	}
	if got := syntax.Text([]byte(src), block); got != "{ return 1; }" {
		t.Errorf("block text = %q", got)
	}
	if block.Pos() != (syntax.Position{Line: 1, Column: 16}) {
		t.Errorf("block pos = %s, want 1:16", block.Pos())
	}
	if len(block.Body) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(block.Body))
	}
	ret, ok := block.Body[0].(*syntax.ReturnStatement)
	if !ok {
		t.Fatalf("statement is %T, want *syntax.ReturnStatement", block.Body[0])
	}
	lit, ok := ret.Argument.(*syntax.Literal)
	if !ok || lit.Raw != "1" {
		t.Fatalf("return argument = %#v, want literal 1", ret.Argument)
	}
}

func TestParseArrowExpressionBodies(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		wantKind syntax.Kind
		params   int
	}{
		{"identifier", "const f = x => x;", syntax.KindIdentifier, 1},
		{"parenthesized object", "const f = () => ({ a: 1 });", syntax.KindParenthesizedExpression, 0},
		{"call", "const f = (a, b) => g(a, b);", syntax.KindOther, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fn := findFirst(t, parseJS(t, tt.src), syntax.KindArrowFunction).(*syntax.ArrowFunction)
			if fn.Body.Kind() != tt.wantKind {
				t.Errorf("body kind = %s, want %s", fn.Body.Kind(), tt.wantKind)
			}
			if len(fn.Params) != tt.params {
				t.Errorf("params = %d, want %d", len(fn.Params), tt.params)
			}
		})
	}
}

func TestParseParenthesizedObject(t *testing.T) {
	fn := findFirst(t, parseJS(t, "() => ({ a: 1 })"), syntax.KindArrowFunction).(*syntax.ArrowFunction)
	paren := fn.Body.(*syntax.ParenthesizedExpression)
	obj, ok := paren.Expression.(*syntax.ObjectExpression)
	if !ok {
		t.Fatalf("expression is %T, want *syntax.ObjectExpression", paren.Expression)
	}
	if len(obj.Properties) != 1 {
		t.Fatalf("expected 1 property, got %d", len(obj.Properties))
	}
}

func TestParseObjectPattern(t *testing.T) {
	src := "const { a: a, b, c = 1, [d]: d, ...rest } = o;"
	pattern := findFirst(t, parseJS(t, src), syntax.KindObjectPattern).(*syntax.ObjectPattern)
	if len(pattern.Properties) != 5 {
		t.Fatalf("expected 5 entries, got %d", len(pattern.Properties))
	}

	renamed := pattern.Properties[0].(*syntax.Property)
	if renamed.Shorthand || renamed.Computed {
		t.Errorf("a: a should be a plain property: %+v", renamed)
	}
	key, _ := syntax.NameOf(renamed.Key)
	value, _ := syntax.NameOf(renamed.Value)
	if key != "a" || value != "a" {
		t.Errorf("key=%q value=%q, want a/a", key, value)
	}
	if renamed.Value.Pos() != (syntax.Position{Line: 1, Column: 11}) {
		t.Errorf("value pos = %s, want 1:11", renamed.Value.Pos())
	}

	short := pattern.Properties[1].(*syntax.Property)
	if !short.Shorthand || short.Key != short.Value {
		t.Errorf("b should be shorthand with shared key/value: %+v", short)
	}

	withDefault := pattern.Properties[2].(*syntax.Property)
	if !withDefault.Shorthand {
		t.Errorf("c = 1 should be shorthand")
	}
	if name, _ := syntax.NameOf(withDefault.Key); name != "c" {
		t.Errorf("default key = %q, want c", name)
	}

	computed := pattern.Properties[3].(*syntax.Property)
	if !computed.Computed {
		t.Errorf("[d]: d should be computed")
	}

	if pattern.Properties[4].Kind() != syntax.KindOther {
		t.Errorf("rest element kind = %s, want Other", pattern.Properties[4].Kind())
	}
}

func TestParseObjectExpressionShorthand(t *testing.T) {
	obj := findFirst(t, parseJS(t, "x = { a, b: 2 };"), syntax.KindObjectExpression).(*syntax.ObjectExpression)
	if len(obj.Properties) != 2 {
		t.Fatalf("expected 2 properties, got %d", len(obj.Properties))
	}
	if p := obj.Properties[0].(*syntax.Property); !p.Shorthand {
		t.Errorf("a should be shorthand")
	}
	if p := obj.Properties[1].(*syntax.Property); p.Shorthand {
		t.Errorf("b: 2 should not be shorthand")
	}
}

func TestParseImportSpecifiers(t *testing.T) {
	src := `import { x as x, y, z as w } from "m";`
	specs := findAll(parseJS(t, src), syntax.KindImportSpecifier)
	if len(specs) != 3 {
		t.Fatalf("expected 3 specifiers, got %d", len(specs))
	}

	aliased := specs[0].(*syntax.ImportSpecifier)
	if syntax.Node(aliased.Local) == aliased.Imported {
		t.Error("x as x should have distinct imported and local nodes")
	}
	if aliased.Local.Name != "x" {
		t.Errorf("local = %q, want x", aliased.Local.Name)
	}
	if aliased.Local.Pos() != (syntax.Position{Line: 1, Column: 14}) {
		t.Errorf("local pos = %s, want 1:14", aliased.Local.Pos())
	}

	plain := specs[1].(*syntax.ImportSpecifier)
	if syntax.Node(plain.Local) != plain.Imported {
		t.Error("y should share imported and local")
	}
	if len(plain.Children()) != 1 {
		t.Errorf("plain specifier children = %d, want 1", len(plain.Children()))
	}

	renamed := specs[2].(*syntax.ImportSpecifier)
	if imported, _ := syntax.NameOf(renamed.Imported); imported != "z" || renamed.Local.Name != "w" {
		t.Errorf("z as w parsed as %q as %q", imported, renamed.Local.Name)
	}
}

func TestParseExportSpecifiers(t *testing.T) {
	src := "const a = 1, b = 2;\nexport { a as a, b };"
	specs := findAll(parseJS(t, src), syntax.KindExportSpecifier)
	if len(specs) != 2 {
		t.Fatalf("expected 2 specifiers, got %d", len(specs))
	}
	aliased := specs[0].(*syntax.ExportSpecifier)
	if aliased.Local == aliased.Exported {
		t.Error("a as a should have distinct local and exported nodes")
	}
	if aliased.Exported.Pos() != (syntax.Position{Line: 2, Column: 14}) {
		t.Errorf("exported pos = %s, want 2:14", aliased.Exported.Pos())
	}
	plain := specs[1].(*syntax.ExportSpecifier)
	if plain.Local != plain.Exported {
		t.Error("b should share local and exported")
	}
}

func TestParseDropsComments(t *testing.T) {
	src := "const f = () => {\n  // note\n  return 1; /* trailing */\n};"
	fn := findFirst(t, parseJS(t, src), syntax.KindArrowFunction).(*syntax.ArrowFunction)
	block := fn.Body.(*syntax.BlockStatement)
	if len(block.Body) != 1 {
		t.Fatalf("expected comments to be dropped, got %d statements", len(block.Body))
	}
	if block.Body[0].Pos() != (syntax.Position{Line: 3, Column: 2}) {
		t.Errorf("return pos = %s, want 3:2", block.Body[0].Pos())
	}
}

func TestParseBareReturn(t *testing.T) {
	ret := findFirst(t, parseJS(t, "() => { return; }"), syntax.KindReturnStatement).(*syntax.ReturnStatement)
	if ret.Argument != nil {
		t.Errorf("bare return argument = %#v, want nil", ret.Argument)
	}
}

func TestParseStringLiteral(t *testing.T) {
	lit := findFirst(t, parseJS(t, `x = "hello";`), syntax.KindLiteral).(*syntax.Literal)
	if lit.Raw != `"hello"` || lit.Value != "hello" {
		t.Errorf("literal raw=%q value=%q", lit.Raw, lit.Value)
	}
}

func TestParseTypeScript(t *testing.T) {
	src := "const f = (a: number): number => { return a; };\nimport { T as T } from './t';"
	root := parseWith(t, src, TypeScript)
	fn := findFirst(t, root, syntax.KindArrowFunction).(*syntax.ArrowFunction)
	if fn.Body.Kind() != syntax.KindBlockStatement {
		t.Errorf("body kind = %s, want BlockStatement", fn.Body.Kind())
	}
	if len(findAll(root, syntax.KindImportSpecifier)) != 1 {
		t.Error("expected one import specifier")
	}
}

func TestParseTSX(t *testing.T) {
	src := "const C = () => { return <div>{items.map(i => ({ i }))}</div>; };"
	root := parseWith(t, src, TSX)
	if n := len(findAll(root, syntax.KindArrowFunction)); n != 2 {
		t.Errorf("expected 2 arrow functions, got %d", n)
	}
}

func TestParseVisitsEachNodeOnce(t *testing.T) {
	src := `
import { a as a, b } from "m";
const { c: c, d } = obj;
export { a as e };
const f = (x) => { return { y: (z) => z + x }; };
`
	root := parseJS(t, src)
	seen := make(map[syntax.Node]int)
	syntax.Inspect(root, func(n, _ syntax.Node) {
		seen[n]++
	})
	for n, count := range seen {
		if count != 1 {
			t.Errorf("%s at %s visited %d times", n.Kind(), n.Pos(), count)
		}
	}
	if len(findAll(root, syntax.KindArrowFunction)) != 2 {
		t.Error("expected both arrow functions to be reachable")
	}
}

func TestParseError(t *testing.T) {
	_, err := New(JavaScript).Parse(context.Background(), []byte("const x = {;\n"))
	if err == nil {
		t.Fatal("expected a parse error")
	}
	var perr *Error
	if !errors.As(err, &perr) {
		t.Fatalf("expected *Error, got %T: %v", err, err)
	}
	if perr.Pos.Line != 1 {
		t.Errorf("error line = %d, want 1", perr.Pos.Line)
	}
}

func TestForPath(t *testing.T) {
	p, ok := ForPath("src/index.ts")
	if !ok || p.Language().Name != "typescript" {
		t.Fatalf("ForPath(index.ts) = %v, %v", p, ok)
	}
	if _, ok := ForPath("README"); ok {
		t.Error("ForPath(README) should not match")
	}
}
