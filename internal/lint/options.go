package lint

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Options are the positional options that follow a rule's severity in
// configuration, e.g. ["as-needed", {allowObjectLiteralBody: true}].
type Options []any

// ConfigError is a malformed or unrecognized rule configuration. It is raised
// while a rule is being constructed, never during traversal.
type ConfigError struct {
	RuleID string
	Err    error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("rule %q: invalid configuration: %v", e.RuleID, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Has reports whether a non-null option exists at index i.
func (o Options) Has(i int) bool {
	return i >= 0 && i < len(o) && o[i] != nil
}

// MaxLen fails if more than n positional options were given.
func (o Options) MaxLen(n int) error {
	if len(o) > n {
		return fmt.Errorf("expected at most %d option(s), got %d", n, len(o))
	}
	return nil
}

// Enum returns option i as a string, which must be one of allowed. def is
// returned when the option is absent. A null option is only treated as absent
// when no later option follows it.
func (o Options) Enum(i int, def string, allowed ...string) (string, error) {
	if !o.Has(i) {
		if i >= 0 && i < len(o)-1 {
			return "", fmt.Errorf("option %d: expected one of %q, got null", i+1, allowed)
		}
		return def, nil
	}
	s, ok := o[i].(string)
	if !ok {
		return "", fmt.Errorf("option %d: expected one of %q, got %T", i+1, allowed, o[i])
	}
	for _, a := range allowed {
		if s == a {
			return s, nil
		}
	}
	return "", fmt.Errorf("option %d: expected one of %q, got %q", i+1, allowed, s)
}

// Decode strictly decodes option i into dst. Unknown fields and type
// mismatches are errors. dst is left untouched when the option is absent.
func (o Options) Decode(i int, dst any) error {
	if !o.Has(i) {
		return nil
	}
	data, err := yaml.Marshal(o[i])
	if err != nil {
		return fmt.Errorf("option %d: %w", i+1, err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("option %d: %w", i+1, err)
	}
	return nil
}
