package lint

import (
	"fmt"
	"strings"
)

// Severity is how a rule's diagnostics are reported.
type Severity int

const (
	SeverityOff Severity = iota
	SeverityWarn
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityOff:
		return "off"
	case SeverityWarn:
		return "warn"
	case SeverityError:
		return "error"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// Level returns the SARIF level for the severity.
func (s Severity) Level() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarn:
		return "warning"
	default:
		return "none"
	}
}

// ParseSeverity accepts "off", "warn", "warning", "error" or 0, 1, 2.
func ParseSeverity(v any) (Severity, error) {
	switch val := v.(type) {
	case string:
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "off":
			return SeverityOff, nil
		case "warn", "warning":
			return SeverityWarn, nil
		case "error":
			return SeverityError, nil
		}
	case int:
		if val >= 0 && val <= 2 {
			return Severity(val), nil
		}
	case int64:
		if val >= 0 && val <= 2 {
			return Severity(val), nil
		}
	case float64:
		if val == float64(int(val)) && val >= 0 && val <= 2 {
			return Severity(int(val)), nil
		}
	}
	return SeverityOff, fmt.Errorf("invalid severity %v: expected off, warn, error, 0, 1 or 2", v)
}
