package rules

import (
	"fmt"
	"strings"

	"github.com/joseph-ayodele/thesis-checker/constants"
)

// RenderInstructions turns the catalog into checklist text for a judgment prompt.
// Groups are ordered by severity, then category priority. When only is non-empty,
// categories outside it are skipped.
func (c *Catalog) RenderInstructions(only ...constants.Category) string {
	allowed := func(constants.Category) bool { return true }
	if len(only) > 0 {
		set := make(map[constants.Category]struct{}, len(only))
		for _, cat := range only {
			set[cat] = struct{}{}
		}
		allowed = func(cat constants.Category) bool {
			_, ok := set[cat]
			return ok
		}
	}

	var b strings.Builder
	group := 0
	for _, sev := range constants.Severities {
		for _, cat := range constants.RuleCategories() {
			if !allowed(cat) {
				continue
			}
			var lines []string
			for _, r := range c.rules {
				if r.Severity == sev && r.Category == cat {
					lines = append(lines, ruleLine(r))
				}
			}
			if len(lines) == 0 {
				continue
			}
			group++
			if b.Len() > 0 {
				b.WriteString("\n")
			}
			fmt.Fprintf(&b, "GROUP %d - %s %s:\n", group, sev, strings.ToUpper(string(cat)))
			for _, l := range lines {
				b.WriteString(l)
				b.WriteString("\n")
			}
		}
	}
	return b.String()
}

// RenderRequiredSections lists the sections a complete thesis must contain.
func (c *Catalog) RenderRequiredSections() string {
	var b strings.Builder
	for _, r := range c.rules {
		if len(r.SearchTerms) == 0 || (r.Severity != constants.SeverityCritical && r.Category != constants.CategoryContent) {
			continue
		}
		fmt.Fprintf(&b, "✓ %s (look for: %s)\n", r.Description, strings.Join(r.SearchTerms, ", "))
	}
	return b.String()
}

func ruleLine(r Rule) string {
	line := fmt.Sprintf("✓ [%s] %s", r.ID, r.Description)
	if r.Location != "" {
		line += " | Location: " + r.Location
	}
	return line
}
