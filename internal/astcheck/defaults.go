package astcheck

// DefaultRegistry returns a Registry pre-loaded with all built-in rules.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&ArrowBodyStyle{})
	r.Register(&NoUselessRename{})
	return r
}
