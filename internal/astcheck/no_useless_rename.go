package astcheck

import (
	"github.com/chris-regnier/lintel/internal/fix"
	"github.com/chris-regnier/lintel/internal/lint"
	"github.com/chris-regnier/lintel/internal/syntax"
)

const (
	msgRenamedDestructuring = "Destructured assignment {{name}} unnecessarily renamed."
	msgRenamedImport        = "Import {{name}} unnecessarily renamed."
	msgRenamedExport        = "Export {{name}} unnecessarily renamed."
)

// NoUselessRename reports destructuring, import and export renames to the
// same name, and proposes removing the redundant half.
type NoUselessRename struct{}

// NoUselessRenameOptions is the resolved configuration of NoUselessRename.
type NoUselessRenameOptions struct {
	IgnoreDestructuring bool `yaml:"ignoreDestructuring"`
	IgnoreImport        bool `yaml:"ignoreImport"`
	IgnoreExport        bool `yaml:"ignoreExport"`
}

func (*NoUselessRename) Meta() lint.Meta {
	return lint.Meta{
		ID:          "no-useless-rename",
		Description: "disallow renaming import, export, and destructured assignments to the same name",
		Category:    category,
		Fixable:     true,
	}
}

func (r *NoUselessRename) Configure(opts lint.Options) (*lint.Handlers, error) {
	if err := opts.MaxLen(1); err != nil {
		return nil, err
	}
	var o NoUselessRenameOptions
	if err := opts.Decode(0, &o); err != nil {
		return nil, err
	}

	h := lint.NewHandlers()
	if !o.IgnoreDestructuring {
		h.On(syntax.KindObjectPattern, checkDestructured)
	}
	if !o.IgnoreImport {
		h.On(syntax.KindImportSpecifier, checkImport)
	}
	if !o.IgnoreExport {
		h.On(syntax.KindExportSpecifier, checkExport)
	}
	return h, nil
}

func checkDestructured(c *lint.Context, n, _ syntax.Node) error {
	pattern, err := as[*syntax.ObjectPattern](n)
	if err != nil {
		return err
	}
	for _, entry := range pattern.Properties {
		p, ok := entry.(*syntax.Property)
		if !ok || p.Shorthand || p.Computed || p.Key == nil || p.Value == nil {
			continue
		}
		key, ok := syntax.NameOf(p.Key)
		if !ok {
			continue
		}
		if value, ok := syntax.NameOf(p.Value); !ok || value != key {
			continue
		}
		loc := p.Value.Pos()
		edit := fix.RemoveRange(p.Key.Span().End, p.Value.Span().End)
		c.Report(lint.Descriptor{
			Node:    p,
			Loc:     &loc,
			Message: msgRenamedDestructuring,
			Data:    map[string]string{"name": key},
			Fix:     &edit,
		})
	}
	return nil
}

func checkImport(c *lint.Context, n, _ syntax.Node) error {
	spec, err := as[*syntax.ImportSpecifier](n)
	if err != nil {
		return err
	}
	if spec.Local == nil || spec.Imported == nil || syntax.Node(spec.Local) == spec.Imported {
		return nil
	}
	imported, ok := syntax.NameOf(spec.Imported)
	if !ok || imported != spec.Local.Name {
		return nil
	}
	loc := spec.Local.Pos()
	edit := fix.RemoveRange(spec.Imported.Span().End, spec.Local.Span().End)
	c.Report(lint.Descriptor{
		Node:    spec,
		Loc:     &loc,
		Message: msgRenamedImport,
		Data:    map[string]string{"name": imported},
		Fix:     &edit,
	})
	return nil
}

func checkExport(c *lint.Context, n, _ syntax.Node) error {
	spec, err := as[*syntax.ExportSpecifier](n)
	if err != nil {
		return err
	}
	if spec.Local == nil || spec.Exported == nil || spec.Local == spec.Exported {
		return nil
	}
	local, ok := syntax.NameOf(spec.Local)
	if !ok {
		return nil
	}
	if exported, ok := syntax.NameOf(spec.Exported); !ok || exported != local {
		return nil
	}
	loc := spec.Exported.Pos()
	edit := fix.RemoveRange(spec.Local.Span().End, spec.Exported.Span().End)
	c.Report(lint.Descriptor{
		Node:    spec,
		Loc:     &loc,
		Message: msgRenamedExport,
		Data:    map[string]string{"name": local},
		Fix:     &edit,
	})
	return nil
}
