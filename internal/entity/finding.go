package entity

import (
	"strings"

	"github.com/joseph-ayodele/thesis-checker/constants"
)

// Finding is one detected violation in a submitted document.
type Finding struct {
	PageNumber     int                `json:"page_number"` // 0-based, 0 when unknown
	Severity       constants.Severity `json:"severity"`
	Message        string             `json:"message"`
	Category       string             `json:"category"`
	FixInstruction string             `json:"fix_instruction,omitempty"`
}

// NewFinding builds a Finding with coerced severity and defaulted category.
func NewFinding(page int, severity, message, category string) Finding {
	if page < 0 {
		page = 0
	}
	cat := strings.TrimSpace(category)
	if cat == "" {
		cat = string(constants.CategoryFormatting)
	}
	return Finding{
		PageNumber: page,
		Severity:   constants.ParseSeverity(severity),
		Message:    strings.TrimSpace(message),
		Category:   cat,
	}
}

// SeverityCounts tallies findings per severity; every known level is present in the result.
func SeverityCounts(findings []Finding) map[constants.Severity]int {
	counts := make(map[constants.Severity]int, len(constants.Severities))
	for _, s := range constants.Severities {
		counts[s] = 0
	}
	for _, f := range findings {
		counts[f.Severity]++
	}
	return counts
}

// CloneFindings returns an independent copy; nil stays nil.
func CloneFindings(findings []Finding) []Finding {
	if findings == nil {
		return nil
	}
	out := make([]Finding, len(findings))
	copy(out, findings)
	return out
}
