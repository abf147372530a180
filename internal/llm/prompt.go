package llm

import (
	"fmt"
	"strings"

	"github.com/joseph-ayodele/thesis-checker/constants"
	"github.com/joseph-ayodele/thesis-checker/internal/rules"
)

// Per-call caps in sectioned mode.
const (
	SectionMaxFindings   = 8
	SectionMaxTokens     = 1500
	StructureMaxFindings = 3
	StructureMaxTokens   = 1000
	structureContextLen  = 1000
)

const outputContract = `Return a JSON array of findings and nothing else:
[{"page_number": 2, "severity": "MAJOR", "message": "Slovenian abstract has 310 words; the maximum is 250", "category": "formatting", "fix_instruction": "Shorten the abstract to 250 words or fewer"}]
- page_number is 0-based: text under "--- PAGE n ---" is page_number n-1; use 0 when unknown.
- severity is exactly one of CRITICAL, MAJOR, MINOR.
- category is one of identity, structure, language, formatting, citations, content.
- Return [] when there are no violations.`

// sectionFocus scopes each sectioned call to the categories that can be judged from that window.
var sectionFocus = map[string]struct {
	title string
	cats  []constants.Category
}{
	LabelFront:  {"FRONT MATTER", []constants.Category{constants.CategoryIdentity, constants.CategoryStructure, constants.CategoryLanguage}},
	LabelMiddle: {"MAIN CONTENT", []constants.Category{constants.CategoryFormatting, constants.CategoryCitations, constants.CategoryContent, constants.CategoryLanguage}},
	LabelEnd:    {"END MATTER", []constants.Category{constants.CategoryStructure, constants.CategoryCitations, constants.CategoryContent}},
}

// BuildSinglePrompt composes the one-call prompt covering the whole catalog.
func BuildSinglePrompt(catalog *rules.Catalog, sample, properties string) string {
	var b strings.Builder
	b.WriteString("You are a STRICT FDV thesis validator. Check this thesis against ALL FDV requirements systematically.\n\n")
	b.WriteString(catalog.RenderInstructions())
	b.WriteString("\nVALIDATION INSTRUCTIONS:\n")
	b.WriteString("- Check EVERY group systematically, critical groups first\n")
	b.WriteString("- Report specific violations with exact location\n")
	b.WriteString("- Include fix instructions for each error\n")
	b.WriteString("- Only report what the text shows; do not invent problems\n")
	writeProperties(&b, properties)
	b.WriteString("\nTHESIS TEXT TO VALIDATE:\n")
	b.WriteString(sample)
	b.WriteString("\n\n")
	b.WriteString(outputContract)
	return b.String()
}

// BuildSectionPrompt composes the prompt for one sampling window in sectioned mode.
func BuildSectionPrompt(catalog *rules.Catalog, w Window, properties string) string {
	focus, ok := sectionFocus[w.Label]
	if !ok {
		focus = sectionFocus[LabelMiddle]
	}
	var b strings.Builder
	fmt.Fprintf(&b, "You are validating one section of an FDV thesis. FOCUS ON %s.\n\n", focus.title)
	b.WriteString(catalog.RenderInstructions(focus.cats...))
	b.WriteString("\nIMPORTANT VALIDATION RULES:\n")
	b.WriteString("- Only report CLEAR violations of FDV requirements, not suggestions\n")
	fmt.Fprintf(&b, "- Maximum %d findings for this section; prioritise the most important ones\n", SectionMaxFindings)
	b.WriteString("- If you find fewer real violations, report only those\n")
	writeProperties(&b, properties)
	b.WriteString("\nTEXT SECTION:\n")
	b.WriteString(windowHeader(w.Label))
	b.WriteString(w.Text)
	b.WriteString("\n\n")
	b.WriteString(outputContract)
	return b.String()
}

// BuildStructurePrompt asks only for missing required sections, using the first and
// last characters of the document as an overview.
func BuildStructurePrompt(catalog *rules.Catalog, fullText string) string {
	head, tail := headTail(fullText, structureContextLen)
	var b strings.Builder
	b.WriteString("Check if this FDV thesis has ALL required sections.\n\nREQUIRED SECTIONS:\n")
	b.WriteString(catalog.RenderRequiredSections())
	fmt.Fprintf(&b, "\nDOCUMENT OVERVIEW (first and last %d characters):\nSTART: %s\n...\nEND: %s\n\n", structureContextLen, head, tail)
	fmt.Fprintf(&b, "Only report MISSING sections as CRITICAL findings with category structure. Maximum %d findings.\n", StructureMaxFindings)
	b.WriteString(outputContract)
	return b.String()
}

func writeProperties(b *strings.Builder, properties string) {
	if strings.TrimSpace(properties) == "" {
		return
	}
	b.WriteString("\nDOCUMENT PROPERTIES (measured): ")
	b.WriteString(properties)
	b.WriteString("\n")
}
