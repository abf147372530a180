package report

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"
)

const (
	findingsSheet = "Findings"
	summarySheet  = "Summary"
)

// XLSXRenderer writes the findings as a workbook: one row per finding plus a summary sheet.
type XLSXRenderer struct {
	Logger *slog.Logger
}

func (XLSXRenderer) Name() string { return "xlsx" }

func (x XLSXRenderer) Render(w io.Writer, r Report) error {
	start := time.Now()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	// the default sheet becomes the findings sheet
	if err := f.SetSheetName(f.GetSheetName(0), findingsSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("new sheet: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("style: %w", err)
	}

	headers := []string{"#", "Page", "Severity", "Category", "Message", "Fix Instruction"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(findingsSheet, cell, h)
	}
	_ = f.SetCellStyle(findingsSheet, "A1", "F1", bold)

	row := 2
	for i, fd := range r.Findings {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(findingsSheet, cell, v)
		}
		write(1, i+1)
		write(2, fd.PageNumber+1)
		write(3, string(fd.Severity))
		write(4, fd.Category)
		write(5, truncate(fd.Message, 2000))
		write(6, fd.FixInstruction)
		row++
	}

	_ = f.SetColWidth(findingsSheet, "A", "B", 6)
	_ = f.SetColWidth(findingsSheet, "C", "D", 14)
	_ = f.SetColWidth(findingsSheet, "E", "E", 80)
	_ = f.SetColWidth(findingsSheet, "F", "F", 48)

	summary := [][]any{
		{"Original file", r.SourceFilename},
		{"Total errors found", len(r.Findings)},
	}
	if !r.GeneratedAt.IsZero() {
		summary = append(summary, []any{"Generated", r.GeneratedAt.Format(time.RFC3339)})
	}
	for _, c := range r.Counts() {
		summary = append(summary, []any{fmt.Sprintf("%s errors", titleCase(string(c.Severity))), c.Count})
	}
	for i, pair := range summary {
		if err := f.SetSheetRow(summarySheet, fmt.Sprintf("A%d", i+1), &pair); err != nil {
			return fmt.Errorf("summary row: %w", err)
		}
	}
	_ = f.SetColWidth(summarySheet, "A", "A", 22)
	_ = f.SetColWidth(summarySheet, "B", "B", 40)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	x.logger().Info("report.xlsx.ok", "rows", len(r.Findings), "elapsed_ms", time.Since(start).Milliseconds())
	return nil
}

func (x XLSXRenderer) logger() *slog.Logger {
	if x.Logger == nil {
		return slog.Default()
	}
	return x.Logger
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
