// Package input discovers and reads the source files to lint.
package input

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/chris-regnier/lintel/internal/parse"
)

// Source is a file read into memory together with the language it parses as.
type Source struct {
	Path     string
	Content  []byte
	Mode     fs.FileMode
	Language parse.Language
}

// Handler reads sources from the filesystem.
type Handler struct {
	ignore map[string]bool
}

// NewHandler returns a Handler that skips directories named in ignore during
// directory walks. Hidden directories are always skipped.
func NewHandler(ignore ...string) *Handler {
	h := &Handler{ignore: make(map[string]bool, len(ignore))}
	for _, name := range ignore {
		h.ignore[name] = true
	}
	return h
}

// ReadPaths reads every path, walking directories and reading files directly.
func (h *Handler) ReadPaths(paths []string) ([]Source, error) {
	var sources []Source
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		var got []Source
		if info.IsDir() {
			got, err = h.ReadDirectory(p)
		} else {
			got, err = h.ReadFiles([]string{p})
		}
		if err != nil {
			return nil, err
		}
		sources = append(sources, got...)
	}
	return sources, nil
}

// ReadFiles reads the named files. Files in an unrecognized language or with
// invalid UTF-8 are skipped with a warning.
func (h *Handler) ReadFiles(paths []string) ([]Source, error) {
	var sources []Source
	for _, p := range paths {
		lang, ok := parse.Detect(p)
		if !ok {
			slog.Warn("skipping file in unsupported language", "path", p)
			continue
		}
		src, ok, err := read(p, lang)
		if err != nil {
			return nil, err
		}
		if ok {
			sources = append(sources, src)
		}
	}
	return sources, nil
}

// ReadDirectory walks dir and reads every file in a recognized language.
func (h *Handler) ReadDirectory(dir string) ([]Source, error) {
	var sources []Source
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && (strings.HasPrefix(d.Name(), ".") || h.ignore[d.Name()]) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		lang, ok := parse.Detect(path)
		if !ok {
			return nil
		}
		src, ok, err := read(path, lang)
		if err != nil {
			return err
		}
		if ok {
			sources = append(sources, src)
		}
		return nil
	})
	return sources, err
}

func read(path string, lang parse.Language) (Source, bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Source{}, false, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Source{}, false, fmt.Errorf("reading %s: %w", path, err)
	}
	if !utf8.Valid(data) {
		slog.Warn("skipping file with invalid UTF-8", "path", path)
		return Source{}, false, nil
	}
	return Source{Path: path, Content: data, Mode: info.Mode().Perm(), Language: lang}, true, nil
}
