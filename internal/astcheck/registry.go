// Package astcheck holds the built-in lint rules and the registry they are
// looked up from.
package astcheck

import (
	"sort"

	"github.com/chris-regnier/lintel/internal/lint"
)

// Registry holds a set of rules keyed by id.
type Registry struct {
	rules map[string]lint.Rule
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{rules: make(map[string]lint.Rule)}
}

// Register adds a rule to the registry, keyed by its Meta().ID. A later
// registration with the same id replaces the earlier one.
func (r *Registry) Register(rule lint.Rule) {
	r.rules[rule.Meta().ID] = rule
}

// Get retrieves a rule by id.
func (r *Registry) Get(id string) (lint.Rule, bool) {
	rule, ok := r.rules[id]
	return rule, ok
}

// Names returns all registered rule ids in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.rules))
	for name := range r.rules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Metas returns the metadata of every registered rule, sorted by id.
func (r *Registry) Metas() []lint.Meta {
	names := r.Names()
	out := make([]lint.Meta, len(names))
	for i, name := range names {
		out[i] = r.rules[name].Meta()
	}
	return out
}
