package constants

import (
	"strings"
)

// Category groups catalog rules. Finding categories are free-form; these are the canonical ones.
type Category string

const (
	CategoryIdentity   Category = "identity"
	CategoryStructure  Category = "structure"
	CategoryLanguage   Category = "language"
	CategoryFormatting Category = "formatting"
	CategoryCitations  Category = "citations"
	CategoryContent    Category = "content"

	// CategorySystem tags synthetic findings produced when the judgment call itself fails.
	CategorySystem Category = "system_error"
)

// allCategories is also the validation priority order.
var allCategories = []Category{
	CategoryIdentity,
	CategoryStructure,
	CategoryLanguage,
	CategoryFormatting,
	CategoryCitations,
	CategoryContent,
}

// RuleCategories returns the rule categories in priority order.
func RuleCategories() []Category {
	out := make([]Category, len(allCategories))
	copy(out, allCategories)
	return out
}

// IsRuleCategory reports whether c is a known catalog category.
func IsRuleCategory(c Category) bool {
	for _, cat := range allCategories {
		if cat == c {
			return true
		}
	}
	return false
}

// Canonicalize maps a model-supplied category tag onto a canonical one when it can,
// otherwise returns the trimmed lowercase tag and false. Empty input becomes formatting.
func Canonicalize(input string) (Category, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		return CategoryFormatting, false
	}

	// synonyms map
	synonyms := map[string]Category{
		"critical_identity":    CategoryIdentity,
		"critical_structure":   CategoryStructure,
		"major_language":       CategoryLanguage,
		"major_formatting":     CategoryFormatting,
		"major_citations":      CategoryCitations,
		"content_completeness": CategoryContent,
		"minor_style":          CategoryFormatting,
		"style":                CategoryFormatting,
		"format":               CategoryFormatting,
		"citation":             CategoryCitations,
		"references":           CategoryCitations,
		"apa":                  CategoryCitations,
		"section":              CategoryStructure,
		"missing_section":      CategoryStructure,
		"system":               CategorySystem,
	}

	if cat, ok := synonyms[normalized]; ok {
		return cat, true
	}
	if Category(normalized) == CategorySystem {
		return CategorySystem, true
	}
	for _, cat := range allCategories {
		if normalized == string(cat) {
			return cat, true
		}
	}
	return Category(normalized), false
}
