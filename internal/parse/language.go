package parse

import (
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// Language is a grammar the parser can load.
type Language struct {
	// Name is "javascript", "typescript" or "tsx".
	Name    string
	grammar *sitter.Language
}

var (
	JavaScript = Language{Name: "javascript", grammar: javascript.GetLanguage()}
	TypeScript = Language{Name: "typescript", grammar: typescript.GetLanguage()}
	TSX        = Language{Name: "tsx", grammar: tsx.GetLanguage()}
)

var extToLang = map[string]Language{
	".js":  JavaScript,
	".jsx": JavaScript,
	".mjs": JavaScript,
	".cjs": JavaScript,
	".ts":  TypeScript,
	".mts": TypeScript,
	".cts": TypeScript,
	".tsx": TSX,
}

// Detect returns the language for a file path and whether the extension was
// recognized. Matching is case-insensitive.
func Detect(path string) (Language, bool) {
	lang, ok := extToLang[strings.ToLower(filepath.Ext(path))]
	return lang, ok
}

// Extensions returns the recognized file extensions.
func Extensions() []string {
	exts := make([]string, 0, len(extToLang))
	for ext := range extToLang {
		exts = append(exts, ext)
	}
	return exts
}
