package astcheck

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/chris-regnier/lintel/internal/lint"
	"github.com/chris-regnier/lintel/internal/parse"
	"github.com/chris-regnier/lintel/internal/syntax"
)

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func newLinter(t *testing.T, id string, opts ...any) *lint.Linter {
	t.Helper()
	l, err := lint.New(DefaultRegistry(), map[string]lint.Setting{
		id: {Severity: lint.SeverityError, Options: lint.Options(opts)},
	}, lint.WithLogger(quietLogger))
	if err != nil {
		t.Fatalf("configuring %s: %v", id, err)
	}
	return l
}

// verify parses source as JavaScript and runs a single pass of the rule.
func verify(t *testing.T, source, id string, opts ...any) []lint.Diagnostic {
	t.Helper()
	root, err := parse.New(parse.JavaScript).Parse(context.Background(), []byte(source))
	if err != nil {
		t.Fatalf("failed to parse source: %v", err)
	}
	report := newLinter(t, id, opts...).Verify(context.Background(), []byte(source), root)
	if len(report.Faults) > 0 {
		t.Fatalf("unexpected faults: %v", report.Faults)
	}
	return report.Diagnostics
}

// fixAll runs the rule to a fixed point and returns the rewritten source.
func fixAll(t *testing.T, source, id string, opts ...any) *lint.FixReport {
	t.Helper()
	res, err := newLinter(t, id, opts...).VerifyAndFix(context.Background(), []byte(source), parse.New(parse.JavaScript))
	if err != nil {
		t.Fatalf("fixing: %v", err)
	}
	return res
}

func messages(diags []lint.Diagnostic) []string {
	out := make([]string, len(diags))
	for i, d := range diags {
		out[i] = d.Message
	}
	return out
}

// ---------------------------------------------------------------------------
// Registry tests
// ---------------------------------------------------------------------------

func TestRegistryBasics(t *testing.T) {
	r := NewRegistry()
	if len(r.Names()) != 0 {
		t.Fatal("new registry should be empty")
	}

	r.Register(&NoUselessRename{})
	r.Register(&ArrowBodyStyle{})

	names := r.Names()
	if len(names) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(names))
	}
	// Names() returns sorted
	if names[0] != "arrow-body-style" || names[1] != "no-useless-rename" {
		t.Fatalf("unexpected names: %v", names)
	}

	rule, ok := r.Get("no-useless-rename")
	if !ok || rule == nil {
		t.Fatal("expected to find no-useless-rename")
	}

	if _, ok := r.Get("nonexistent"); ok {
		t.Fatal("should not find nonexistent rule")
	}
}

func TestDefaultRegistryMeta(t *testing.T) {
	metas := DefaultRegistry().Metas()
	if len(metas) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(metas))
	}
	for _, m := range metas {
		if m.Category != "ECMAScript 6" {
			t.Errorf("%s category = %q", m.ID, m.Category)
		}
		if m.Description == "" {
			t.Errorf("%s has no description", m.ID)
		}
		if m.Recommended {
			t.Errorf("%s should not be recommended", m.ID)
		}
	}
	if metas[0].Fixable {
		t.Error("arrow-body-style should not be fixable")
	}
	if !metas[1].Fixable {
		t.Error("no-useless-rename should be fixable")
	}
}

// ---------------------------------------------------------------------------
// arrow-body-style
// ---------------------------------------------------------------------------

func TestArrowBodyStyle(t *testing.T) {
	allow := map[string]any{"allowObjectLiteralBody": true}

	tests := []struct {
		name string
		src  string
		opts []any
		want []string
	}{
		{"single return as-needed", "const f = () => { return 1; };", nil,
			[]string{msgUnexpectedBlock}},
		{"single return explicit as-needed", "const f = () => { return 1; };", []any{"as-needed"},
			[]string{msgUnexpectedBlock}},
		{"single return always", "const f = () => { return 1; };", []any{"always"}, nil},
		{"expression always", "const f = () => 1;", []any{"always"},
			[]string{msgExpectedBlock}},
		{"expression as-needed", "const f = () => 1;", nil, nil},
		{"parenthesized object allowed", "const f = () => ({ a: 1 });", []any{"as-needed", allow}, nil},
		{"parenthesized object default", "const f = () => ({ a: 1 });", nil, nil},
		{"returned object allowed", "const f = () => { return { a: 1 }; };", []any{"as-needed", allow}, nil},
		{"returned parenthesized object allowed", "const f = () => { return ({ a: 1 }); };", []any{"as-needed", allow}, nil},
		{"returned object not allowed", "const f = () => { return { a: 1 }; };", []any{"as-needed"},
			[]string{msgUnexpectedBlock}},
		{"returned object allow false", "const f = () => { return { a: 1 }; };",
			[]any{"as-needed", map[string]any{"allowObjectLiteralBody": false}},
			[]string{msgUnexpectedBlock}},
		{"bare return", "const f = () => { return; };", nil, []string{msgUnexpectedBlock}},
		{"bare return with allow", "const f = () => { return; };", []any{"as-needed", allow},
			[]string{msgUnexpectedBlock}},
		{"empty block", "const f = () => {};", nil, nil},
		{"multiple statements", "const f = () => { g(); return 1; };", nil, nil},
		{"single non-return", "const f = () => { g(); };", nil, nil},
		{"nested arrows", "const f = () => { return () => { return 1; }; };", nil,
			[]string{msgUnexpectedBlock, msgUnexpectedBlock}},
		{"nested mixed always", "const f = () => { return x => x; };", []any{"always"},
			[]string{msgExpectedBlock}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := messages(verify(t, tt.src, "arrow-body-style", tt.opts...))
			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestArrowBodyStyleLocation(t *testing.T) {
	src := "const f = () => {\n  return 1;\n};\nconst g = x =>\n  x;"

	diags := verify(t, src, "arrow-body-style")
	if len(diags) != 1 {
		t.Fatalf("expected 1 diagnostic, got %d", len(diags))
	}
	d := diags[0]
	if d.Pos != (syntax.Position{Line: 1, Column: 16}) {
		t.Errorf("pos = %s, want 1:16 (block start)", d.Pos)
	}
	if d.Fix != nil {
		t.Error("arrow-body-style must not propose fixes")
	}
	if d.Severity != lint.SeverityError || d.RuleID != "arrow-body-style" {
		t.Errorf("unexpected diagnostic %v", d)
	}

	diags = verify(t, src, "arrow-body-style", "always")
	if len(diags) != 1 {
		t.Fatalf("expected 1 diagnostic, got %d", len(diags))
	}
	if diags[0].Pos != (syntax.Position{Line: 5, Column: 2}) {
		t.Errorf("pos = %s, want 5:2 (expression start)", diags[0].Pos)
	}
}

func TestArrowBodyStyleBareObjectBody(t *testing.T) {
	// A bare object body cannot come out of the parser, which reads `{` as a
	// block, but the node model allows it.
	obj := &syntax.ObjectExpression{Base: syntax.Base{Start: syntax.Position{Line: 1, Column: 6}}}
	fn := &syntax.ArrowFunction{Body: obj}
	root := &syntax.Program{Body: []syntax.Node{fn}}

	run := func(opts ...any) []lint.Diagnostic {
		return newLinter(t, "arrow-body-style", opts...).Verify(context.Background(), nil, root).Diagnostics
	}

	if got := run("as-needed", map[string]any{"allowObjectLiteralBody": true}); len(got) != 1 || got[0].Message != msgExpectedBlock {
		t.Errorf("expected one %q, got %v", msgExpectedBlock, got)
	}
	if got := run(); len(got) != 0 {
		t.Errorf("expected no diagnostics without allowObjectLiteralBody, got %v", got)
	}
}

func TestParseArrowBodyStyleOptions(t *testing.T) {
	tests := []struct {
		name    string
		opts    lint.Options
		want    ArrowBodyStyleOptions
		wantErr string
	}{
		{"default", nil, ArrowBodyStyleOptions{Mode: BodyAsNeeded}, ""},
		{"always", lint.Options{"always"}, ArrowBodyStyleOptions{Mode: BodyAlways}, ""},
		{"as-needed with object", lint.Options{"as-needed", map[string]any{"allowObjectLiteralBody": true}},
			ArrowBodyStyleOptions{Mode: BodyAsNeeded, AllowObjectLiteralBody: true}, ""},
		{"unknown mode", lint.Options{"sometimes"}, ArrowBodyStyleOptions{}, "sometimes"},
		{"object with always", lint.Options{"always", map[string]any{"allowObjectLiteralBody": true}},
			ArrowBodyStyleOptions{}, "only allowed"},
		{"unknown field", lint.Options{"as-needed", map[string]any{"allowObjectLiteral": true}},
			ArrowBodyStyleOptions{}, "allowObjectLiteral"},
		{"wrong type", lint.Options{"as-needed", map[string]any{"allowObjectLiteralBody": "yes please"}},
			ArrowBodyStyleOptions{}, "option 2"},
		{"too many", lint.Options{"as-needed", map[string]any{}, "extra"}, ArrowBodyStyleOptions{}, "at most 2"},
		{"null mode with object", lint.Options{nil, map[string]any{"allowObjectLiteralBody": true}},
			ArrowBodyStyleOptions{}, "got null"},
		{"trailing null", lint.Options{"always", nil}, ArrowBodyStyleOptions{Mode: BodyAlways}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseArrowBodyStyleOptions(tt.opts)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("err = %v, want containing %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// no-useless-rename
// ---------------------------------------------------------------------------

func TestNoUselessRename(t *testing.T) {
	tests := []struct {
		name string
		src  string
		opts []any
		want []string
	}{
		{"destructuring", "const { a: a, b: c } = o;", nil,
			[]string{"Destructured assignment a unnecessarily renamed."}},
		{"shorthand first", "const { b, a: a } = o;", nil,
			[]string{"Destructured assignment a unnecessarily renamed."}},
		{"several in one pattern", "const { a: a, b: b } = o;", nil,
			[]string{"Destructured assignment a unnecessarily renamed.", "Destructured assignment b unnecessarily renamed."}},
		{"parameter pattern", "function f({ a: a }) {}", nil,
			[]string{"Destructured assignment a unnecessarily renamed."}},
		{"nested pattern", "const { a: { b: b } } = o;", nil,
			[]string{"Destructured assignment b unnecessarily renamed."}},
		{"assignment pattern", "({ a: a } = o);", nil,
			[]string{"Destructured assignment a unnecessarily renamed."}},
		{"real rename", "const { a: b } = o;", nil, nil},
		{"shorthand only", "const { a, b } = o;", nil, nil},
		{"computed key", "const { [a]: a } = o;", nil, nil},
		{"default value", "const { a: a = 1 } = o;", nil, nil},
		{"string key", `const { "a": a } = o;`, nil, nil},
		{"object literal", "const x = { a: a };", nil, nil},
		{"import", `import { x as x } from "m";`, nil,
			[]string{"Import x unnecessarily renamed."}},
		{"import plain", `import { x } from "m";`, nil, nil},
		{"import real rename", `import { x as y } from "m";`, nil, nil},
		{"import default", `import x from "m";`, nil, nil},
		{"export", "const a = 1;\nexport { a as a };", nil,
			[]string{"Export a unnecessarily renamed."}},
		{"export plain", "const a = 1;\nexport { a };", nil, nil},
		{"export real rename", "const a = 1;\nexport { a as b };", nil, nil},
		{"re-export", `export { a as a } from "m";`, nil,
			[]string{"Export a unnecessarily renamed."}},
		{"ignore destructuring", "const { a: a } = o;", []any{map[string]any{"ignoreDestructuring": true}}, nil},
		{"ignore import", `import { x as x } from "m";`, []any{map[string]any{"ignoreImport": true}}, nil},
		{"ignore export", "const a = 1;\nexport { a as a };", []any{map[string]any{"ignoreExport": true}}, nil},
		{"ignore import keeps export", "import { x as x } from \"m\";\nexport { x as x };",
			[]any{map[string]any{"ignoreImport": true}},
			[]string{"Export x unnecessarily renamed."}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := messages(verify(t, tt.src, "no-useless-rename", tt.opts...))
			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNoUselessRenameLocations(t *testing.T) {
	src := "import { x as x } from \"m\";\nconst { a: a } = o;\nexport { a as a };"
	diags := verify(t, src, "no-useless-rename")
	if len(diags) != 3 {
		t.Fatalf("expected 3 diagnostics, got %d", len(diags))
	}

	want := []syntax.Position{
		{Line: 1, Column: 14}, // local x
		{Line: 2, Column: 11}, // value a
		{Line: 3, Column: 14}, // exported a
	}
	for i, d := range diags {
		if d.Pos != want[i] {
			t.Errorf("diagnostic %d pos = %s, want %s", i, d.Pos, want[i])
		}
		if d.Fix == nil {
			t.Errorf("diagnostic %d has no fix", i)
		}
	}

	// The fix spans from the end of the first name to the end of the second.
	if got := src[diags[0].Fix.Start:diags[0].Fix.End]; got != " as x" {
		t.Errorf("import fix removes %q, want %q", got, " as x")
	}
	if got := src[diags[1].Fix.Start:diags[1].Fix.End]; got != ": a" {
		t.Errorf("destructuring fix removes %q, want %q", got, ": a")
	}
}

func TestNoUselessRenameFixes(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"destructuring", "const { a: a, b: c } = o;", "const { a, b: c } = o;"},
		{"several", "const { a: a, b: b } = o;", "const { a, b } = o;"},
		{"import", `import { x as x } from "m";`, `import { x } from "m";`},
		{"export", "const a = 1;\nexport { a as a };", "const a = 1;\nexport { a };"},
		{"mixed", "import { x as x, y as z } from \"m\";\nconst { p: p } = x;\nexport { p as p, z };",
			"import { x, y as z } from \"m\";\nconst { p } = x;\nexport { p, z };"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := fixAll(t, tt.src, "no-useless-rename")
			if got := string(res.Output); got != tt.want {
				t.Errorf("fixed output:\n got: %q\nwant: %q", got, tt.want)
			}
			if len(res.Diagnostics) != 0 {
				t.Errorf("fixed output still has diagnostics: %v", res.Diagnostics)
			}
		})
	}
}

func TestNoUselessRenameFixIsIdempotent(t *testing.T) {
	src := "import { x as x } from \"m\";\nconst { a: a } = o;\nexport { a as a };"
	first := fixAll(t, src, "no-useless-rename")
	if first.FixCount != 3 {
		t.Fatalf("expected 3 fixes, got %d", first.FixCount)
	}
	second := fixAll(t, string(first.Output), "no-useless-rename")
	if second.FixCount != 0 || second.Changed(first.Output) {
		t.Errorf("second run changed output: %q", second.Output)
	}
	if second.Passes != 1 {
		t.Errorf("second run took %d passes, want 1", second.Passes)
	}
}

func TestNoUselessRenameOptionErrors(t *testing.T) {
	tests := []struct {
		name string
		opts lint.Options
	}{
		{"unknown field", lint.Options{map[string]any{"ignoreEverything": true}}},
		{"wrong type", lint.Options{map[string]any{"ignoreImport": "yes please"}}},
		{"not an object", lint.Options{"ignoreImport"}},
		{"too many", lint.Options{map[string]any{}, map[string]any{}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := (&NoUselessRename{}).Configure(tt.opts); err == nil {
				t.Fatal("expected a configuration error")
			}
		})
	}
}

func TestRulesTogether(t *testing.T) {
	src := "import { f as f } from \"m\";\nconst g = ({ a: a }) => { return a; };"
	l, err := lint.New(DefaultRegistry(), map[string]lint.Setting{
		"arrow-body-style":  {Severity: lint.SeverityWarn},
		"no-useless-rename": {Severity: lint.SeverityError},
	}, lint.WithLogger(quietLogger))
	if err != nil {
		t.Fatal(err)
	}
	res, err := l.VerifyAndFix(context.Background(), []byte(src), parse.New(parse.JavaScript))
	if err != nil {
		t.Fatal(err)
	}
	want := "import { f } from \"m\";\nconst g = ({ a }) => { return a; };"
	if string(res.Output) != want {
		t.Errorf("output = %q, want %q", res.Output, want)
	}
	if len(res.Diagnostics) != 1 || res.Diagnostics[0].RuleID != "arrow-body-style" {
		t.Fatalf("expected only the unfixable arrow diagnostic, got %v", res.Diagnostics)
	}
	if res.Diagnostics[0].Severity != lint.SeverityWarn {
		t.Errorf("severity = %s, want warn", res.Diagnostics[0].Severity)
	}
}
