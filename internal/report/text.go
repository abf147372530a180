package report

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// TextRenderer writes the report as plain lines. Output depends only on the report content.
type TextRenderer struct{}

func (TextRenderer) Name() string { return "text" }

func (TextRenderer) Render(w io.Writer, r Report) error {
	bw := bufio.NewWriter(w)
	rule := strings.Repeat("=", 60)

	fmt.Fprintln(bw, rule)
	fmt.Fprintln(bw, "FDV THESIS VALIDATION REPORT")
	fmt.Fprintln(bw, rule)
	fmt.Fprintf(bw, "Original file: %s\n", r.SourceFilename)
	fmt.Fprintf(bw, "Total errors found: %d\n\n", len(r.Findings))

	fmt.Fprintln(bw, "ERROR SUMMARY:")
	for _, c := range r.Counts() {
		fmt.Fprintf(bw, "%s errors: %d\n", titleCase(string(c.Severity)), c.Count)
	}
	fmt.Fprintln(bw)

	if len(r.Findings) > 0 {
		fmt.Fprintln(bw, "DETAILED ERRORS:")
		fmt.Fprintln(bw, strings.Repeat("-", 40))
		for i, f := range r.Findings {
			fmt.Fprintf(bw, "%d. Page %d - %s\n", i+1, f.PageNumber+1, f.Severity)
			fmt.Fprintf(bw, "   %s\n", f.Message)
			if f.Category != "" {
				fmt.Fprintf(bw, "   Category: %s\n", f.Category)
			}
			if f.FixInstruction != "" {
				fmt.Fprintf(bw, "   Fix: %s\n", f.FixInstruction)
			}
			fmt.Fprintln(bw)
		}
	}

	if len(r.HowToFix) > 0 {
		fmt.Fprintln(bw, "HOW TO FIX:")
		for i, step := range r.HowToFix {
			fmt.Fprintf(bw, "%d. %s\n", i+1, step)
		}
		fmt.Fprintln(bw)
	}
	if len(r.CommonFixes) > 0 {
		fmt.Fprintln(bw, "COMMON FIXES:")
		for _, fix := range r.CommonFixes {
			fmt.Fprintf(bw, "- %s\n", fix)
		}
	}
	return bw.Flush()
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}
