package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/joseph-ayodele/thesis-checker/constants"
	"github.com/joseph-ayodele/thesis-checker/internal/batch"
	"github.com/joseph-ayodele/thesis-checker/internal/entity"
	"github.com/joseph-ayodele/thesis-checker/internal/pipeline"
)

var (
	accent   = lipgloss.Color("#2563EB")
	dim      = lipgloss.Color("#6B7280")
	danger   = lipgloss.Color("#EF4444")
	orange   = lipgloss.Color("#FB923C")
	warning  = lipgloss.Color("#F59E0B")
	success  = lipgloss.Color("#22C55E")
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(0, 2)
	titleStyle   = lipgloss.NewStyle().Bold(true)
	dimStyle     = lipgloss.NewStyle().Foreground(dim)
	successStyle = lipgloss.NewStyle().Foreground(success).Bold(true)

	severityStyles = map[constants.Severity]lipgloss.Style{
		constants.SeverityCritical: lipgloss.NewStyle().Foreground(danger).Bold(true),
		constants.SeverityMajor:    lipgloss.NewStyle().Foreground(orange).Bold(true),
		constants.SeverityMinor:    lipgloss.NewStyle().Foreground(warning),
	}
)

// renderCheck formats a validation result for the terminal.
func renderCheck(res *pipeline.Result) string {
	var b strings.Builder

	counts := entity.SeverityCounts(res.Findings)
	header := titleStyle.Render("FDV Thesis Validation Report") + "\n" +
		dimStyle.Render(fmt.Sprintf("%s · %d pages", res.Filename, res.Extraction.PageCount))
	if p := res.Extraction.Properties; p != nil {
		header += "\n" + dimStyle.Render(p.Summary())
	}
	b.WriteString(boxStyle.Render(header))
	b.WriteString("\n\n")

	summary := make([]string, 0, len(constants.Severities))
	for _, s := range constants.Severities {
		summary = append(summary, severityStyles[s].Render(fmt.Sprintf("%s %d", s, counts[s])))
	}
	b.WriteString("  " + strings.Join(summary, dimStyle.Render("  ·  ")) + "\n\n")

	if len(res.Findings) == 0 {
		b.WriteString("  " + successStyle.Render("No errors found.") + "\n")
		return b.String()
	}
	for i, f := range res.Findings {
		tag := severityStyles[f.Severity].Render(fmt.Sprintf("%-8s", f.Severity))
		b.WriteString(fmt.Sprintf("  %3d. %s %s  %s\n", i+1, tag, dimStyle.Render(fmt.Sprintf("p.%d", f.PageNumber+1)), f.Message))
		if f.FixInstruction != "" {
			b.WriteString("             " + dimStyle.Render("fix: "+f.FixInstruction) + "\n")
		}
	}
	return b.String()
}

// renderBatch formats a directory run as one line per file followed by the totals.
func renderBatch(results []batch.FileResult, stats batch.DirStats) string {
	var b strings.Builder
	b.WriteString(boxStyle.Render(titleStyle.Render("FDV Thesis Batch Validation") + "\n" +
		dimStyle.Render(fmt.Sprintf("%d PDF files", stats.Matched))))
	b.WriteString("\n\n")
	for _, r := range results {
		if r.Err != "" {
			b.WriteString(fmt.Sprintf("  %s %s  %s\n", severityStyles[constants.SeverityCritical].Render("FAILED  "), r.Path, dimStyle.Render(r.Err)))
			continue
		}
		counts := entity.SeverityCounts(r.Findings)
		tag := successStyle.Render("OK      ")
		if counts[constants.SeverityCritical] > 0 {
			tag = severityStyles[constants.SeverityCritical].Render("CRITICAL")
		}
		parts := make([]string, 0, len(constants.Severities))
		for _, s := range constants.Severities {
			parts = append(parts, fmt.Sprintf("%s %d", s, counts[s]))
		}
		b.WriteString(fmt.Sprintf("  %s %s  %s\n", tag, r.Path, dimStyle.Render(strings.Join(parts, " · "))))
	}
	b.WriteString(fmt.Sprintf("\n  %d ok, %d with critical errors, %d failed\n", stats.Succeeded, stats.Critical, stats.Failed))
	return b.String()
}
