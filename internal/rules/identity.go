package rules

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/joseph-ayodele/thesis-checker/constants"
	"github.com/joseph-ayodele/thesis-checker/internal/entity"
)

// CheckIdentity applies the zero-tolerance identity rules to the front page text.
// Each expected string that is not present verbatim yields one CRITICAL finding;
// when a differently-cased variant or a known common error appears, it is quoted.
func (c *Catalog) CheckIdentity(frontText string) []entity.Finding {
	text := norm.NFC.String(frontText)
	fold := cases.Fold()
	lines := strings.Split(text, "\n")

	var out []entity.Finding
	for _, r := range c.Identity() {
		expected := norm.NFC.String(r.ExpectedValue)
		if strings.Contains(text, expected) {
			continue
		}

		found := ""
		needles := append([]string{expected}, r.CommonErrors...)
	search:
		for _, needle := range needles {
			n := fold.String(norm.NFC.String(needle))
			for _, line := range lines {
				if strings.Contains(fold.String(line), n) {
					found = strings.TrimSpace(line)
					break search
				}
			}
		}

		var msg string
		if found != "" {
			msg = fmt.Sprintf("%s; found %q", r.Description, found)
		} else {
			msg = fmt.Sprintf("%s; not found on the front page", r.Description)
		}
		f := entity.NewFinding(0, string(constants.SeverityCritical), msg, string(constants.CategoryIdentity))
		f.FixInstruction = r.Fix
		out = append(out, f)
	}
	return out
}
