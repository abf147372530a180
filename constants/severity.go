package constants

import "strings"

// Severity is one of exactly three ordered levels.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityMajor    Severity = "MAJOR"
	SeverityMinor    Severity = "MINOR"
)

// Severities lists the levels in reporting order.
var Severities = []Severity{SeverityCritical, SeverityMajor, SeverityMinor}

// Rank is 0 for CRITICAL, 1 for MAJOR, 2 for MINOR and anything unknown.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityMajor:
		return 1
	default:
		return 2
	}
}

// Valid reports whether s is one of the three known levels.
func (s Severity) Valid() bool {
	return s == SeverityCritical || s == SeverityMajor || s == SeverityMinor
}

// ParseSeverity maps free-form upstream input to a known level. Unknown or empty values become MINOR.
func ParseSeverity(input string) Severity {
	switch strings.ToUpper(strings.TrimSpace(input)) {
	case "CRITICAL", "FATAL", "BLOCKER":
		return SeverityCritical
	case "MAJOR", "HIGH", "IMPORTANT":
		return SeverityMajor
	default:
		return SeverityMinor
	}
}
