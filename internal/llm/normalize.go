package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/joseph-ayodele/thesis-checker/constants"
	"github.com/joseph-ayodele/thesis-checker/internal/common"
	"github.com/joseph-ayodele/thesis-checker/internal/entity"
)

// Parse tiers reported in ParseResult.Tier.
const (
	TierStructured = "structured"
	TierHeuristic  = "heuristic"
)

// Heuristic fallback tuning.
const (
	minFallbackLength = 50
	fallbackQuoteLen  = 200
)

// triggerWords start a new finding in the heuristic tier.
var triggerWords = []string{"CRITICAL", "MAJOR", "MINOR", "ERROR", "VIOLATION", "WRONG", "MISSING", "MUST", "IMPORTANT"}

// ParseResult is the outcome of normalising one raw judgment response.
type ParseResult struct {
	Findings []entity.Finding
	Tier     string
	Dropped  []string // coercion notes from the structured tier
	Err      error    // why the structured tier was abandoned, if it was
}

// ParseFindings turns a raw model response into findings. It has no side effects.
func ParseFindings(raw string) []entity.Finding {
	return Parse(raw).Findings
}

// Parse runs the structured tier and falls back to the heuristic tier when the
// response holds no decodable bracketed list.
func Parse(raw string) ParseResult {
	findings, dropped, err := ParseStructured(raw)
	if err == nil {
		return ParseResult{Findings: findings, Tier: TierStructured, Dropped: dropped}
	}
	return ParseResult{Findings: ParseHeuristic(raw), Tier: TierHeuristic, Err: err}
}

// ParseStructured decodes the text between the first '[' and the last ']' as a list of
// finding records. Failures wrap common.ErrMalformedJudgment. An empty list is valid.
func ParseStructured(raw string) ([]entity.Finding, []string, error) {
	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start == -1 || end < start {
		return nil, nil, fmt.Errorf("%w: no bracketed list", common.ErrMalformedJudgment)
	}
	segment := []byte(raw[start : end+1])

	if err := validateWith(findingsSchema, segment); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", common.ErrMalformedJudgment, err)
	}
	var records []map[string]any
	if err := json.Unmarshal(segment, &records); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", common.ErrMalformedJudgment, err)
	}

	findings := make([]entity.Finding, 0, len(records))
	var dropped []string
	for i, rec := range records {
		f, ok, notes := sanitizeRecord(rec)
		for _, n := range notes {
			dropped = append(dropped, fmt.Sprintf("%d.%s", i, n))
		}
		if ok {
			findings = append(findings, f)
		}
	}
	return findings, dropped, nil
}

// ParseHeuristic scans free text line by line. Every line containing a trigger word
// becomes one finding; severity is CRITICAL for CRITICAL/MUST, MAJOR for MAJOR/IMPORTANT,
// MINOR otherwise. A non-trivial response without trigger lines yields one MAJOR finding
// quoting its beginning, so a model answer never disappears silently.
func ParseHeuristic(raw string) []entity.Finding {
	var out []entity.Finding
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		upper := strings.ToUpper(line)
		if !containsAny(upper, triggerWords...) {
			continue
		}
		severity := constants.SeverityMinor
		switch {
		case containsAny(upper, "CRITICAL", "MUST"):
			severity = constants.SeverityCritical
		case containsAny(upper, "MAJOR", "IMPORTANT"):
			severity = constants.SeverityMajor
		}
		out = append(out, entity.NewFinding(0, string(severity), line, string(constants.CategoryFormatting)))
	}

	trimmed := strings.TrimSpace(raw)
	if len(out) == 0 && len([]rune(trimmed)) > minFallbackLength {
		quote := []rune(trimmed)
		if len(quote) > fallbackQuoteLen {
			quote = quote[:fallbackQuoteLen]
		}
		msg := fmt.Sprintf("Validation completed. AI response: %s...", string(quote))
		out = append(out, entity.NewFinding(0, string(constants.SeverityMajor), msg, "analysis"))
	}
	return out
}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
