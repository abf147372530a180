// Package rules holds the static catalog of FDV thesis requirements and renders it
// for the judgment prompt and the report's instructional section.
package rules

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/joseph-ayodele/thesis-checker/constants"
)

//go:embed catalog.yaml
var embeddedCatalog []byte

// Rule is one required property of a valid document.
type Rule struct {
	ID            string             `yaml:"id" json:"id"`
	Category      constants.Category `yaml:"category" json:"category"`
	Severity      constants.Severity `yaml:"severity" json:"severity"`
	Description   string             `yaml:"description" json:"description"`
	Location      string             `yaml:"location,omitempty" json:"location,omitempty"`
	ExpectedValue string             `yaml:"expected_value,omitempty" json:"expected_value,omitempty"`
	SearchTerms   []string           `yaml:"search_terms,omitempty" json:"search_terms,omitempty"`
	CommonErrors  []string           `yaml:"common_errors,omitempty" json:"common_errors,omitempty"`
	Fix           string             `yaml:"fix,omitempty" json:"fix,omitempty"`
}

func (r Rule) clone() Rule {
	r.SearchTerms = append([]string(nil), r.SearchTerms...)
	r.CommonErrors = append([]string(nil), r.CommonErrors...)
	return r
}

type catalogFile struct {
	Version  int    `yaml:"version"`
	Rules    []Rule `yaml:"rules"`
	HowToFix struct {
		Steps       []string `yaml:"steps"`
		CommonFixes []string `yaml:"common_fixes"`
	} `yaml:"how_to_fix"`
}

// Catalog is the immutable, process-wide rule table. Accessors return copies.
type Catalog struct {
	rules       []Rule
	steps       []string
	commonFixes []string
}

var defaultCatalog = mustParse(embeddedCatalog)

// Default returns the embedded catalog.
func Default() *Catalog {
	return defaultCatalog
}

// Load reads a catalog file, or returns the embedded one when path is empty.
func Load(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("invalid rules file %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes and validates catalog YAML.
func Parse(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	c := &Catalog{
		rules:       make([]Rule, 0, len(f.Rules)),
		steps:       append([]string(nil), f.HowToFix.Steps...),
		commonFixes: append([]string(nil), f.HowToFix.CommonFixes...),
	}
	for _, r := range f.Rules {
		r.Description = strings.TrimSpace(r.Description)
		c.rules = append(c.rules, r.clone())
	}
	return c, nil
}

func mustParse(data []byte) *Catalog {
	c, err := Parse(data)
	if err != nil {
		panic(fmt.Sprintf("embedded rule catalog: %v", err))
	}
	return c
}

func (f catalogFile) validate() error {
	if len(f.Rules) == 0 {
		return errors.New("catalog has no rules")
	}
	seen := make(map[string]struct{}, len(f.Rules))
	var errs []error
	for i, r := range f.Rules {
		if strings.TrimSpace(r.ID) == "" {
			errs = append(errs, fmt.Errorf("rule %d: id is required", i))
		} else if _, dup := seen[r.ID]; dup {
			errs = append(errs, fmt.Errorf("rule %s: duplicate id", r.ID))
		}
		seen[r.ID] = struct{}{}
		if !constants.IsRuleCategory(r.Category) {
			errs = append(errs, fmt.Errorf("rule %s: unknown category %q", r.ID, r.Category))
		}
		if !r.Severity.Valid() {
			errs = append(errs, fmt.Errorf("rule %s: unknown severity %q", r.ID, r.Severity))
		}
		if strings.TrimSpace(r.Description) == "" {
			errs = append(errs, fmt.Errorf("rule %s: description is required", r.ID))
		}
	}
	return errors.Join(errs...)
}

// Rules returns every rule in catalog order.
func (c *Catalog) Rules() []Rule {
	out := make([]Rule, len(c.rules))
	for i, r := range c.rules {
		out[i] = r.clone()
	}
	return out
}

// ByCategory returns the rules tagged with cat.
func (c *Catalog) ByCategory(cat constants.Category) []Rule {
	var out []Rule
	for _, r := range c.rules {
		if r.Category == cat {
			out = append(out, r.clone())
		}
	}
	return out
}

// Categories lists the categories present in the catalog, in priority order.
func (c *Catalog) Categories() []constants.Category {
	var out []constants.Category
	for _, cat := range constants.RuleCategories() {
		for _, r := range c.rules {
			if r.Category == cat {
				out = append(out, cat)
				break
			}
		}
	}
	return out
}

// Identity returns the exact-string identity rules.
func (c *Catalog) Identity() []Rule {
	var out []Rule
	for _, r := range c.rules {
		if r.Category == constants.CategoryIdentity && r.ExpectedValue != "" {
			out = append(out, r.clone())
		}
	}
	return out
}

// RequiredSections returns rules that test for the presence of a section.
func (c *Catalog) RequiredSections() []Rule {
	var out []Rule
	for _, r := range c.rules {
		if len(r.SearchTerms) > 0 {
			out = append(out, r.clone())
		}
	}
	return out
}

// HowToFix returns the numbered remediation steps shown in every report.
func (c *Catalog) HowToFix() []string {
	return append([]string(nil), c.steps...)
}

// CommonFixes returns the common-fix hints shown in every report.
func (c *Catalog) CommonFixes() []string {
	return append([]string(nil), c.commonFixes...)
}
