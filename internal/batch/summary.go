package batch

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/thesis-checker/constants"
	"github.com/joseph-ayodele/thesis-checker/internal/entity"
)

const (
	filesSheet  = "Files"
	errorsSheet = "Errors"
)

// WriteSummary writes a workbook with one row per file and one row per finding.
func WriteSummary(w io.Writer, results []FileResult) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), filesSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(errorsSheet); err != nil {
		return fmt.Errorf("new sheet: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("style: %w", err)
	}

	fileHeader := []any{"File", "Pages", "Critical", "Major", "Minor", "Total", "Error"}
	if err := f.SetSheetRow(filesSheet, "A1", &fileHeader); err != nil {
		return err
	}
	_ = f.SetCellStyle(filesSheet, "A1", "G1", bold)
	errHeader := []any{"File", "Page", "Severity", "Category", "Message"}
	if err := f.SetSheetRow(errorsSheet, "A1", &errHeader); err != nil {
		return err
	}
	_ = f.SetCellStyle(errorsSheet, "A1", "E1", bold)

	errRow := 2
	for i, r := range results {
		counts := entity.SeverityCounts(r.Findings)
		row := []any{
			r.Path,
			r.Pages,
			counts[constants.SeverityCritical],
			counts[constants.SeverityMajor],
			counts[constants.SeverityMinor],
			len(r.Findings),
			r.Err,
		}
		if err := f.SetSheetRow(filesSheet, fmt.Sprintf("A%d", i+2), &row); err != nil {
			return fmt.Errorf("file row: %w", err)
		}
		for _, fd := range r.Findings {
			line := []any{r.Path, fd.PageNumber + 1, string(fd.Severity), fd.Category, fd.Message}
			if err := f.SetSheetRow(errorsSheet, fmt.Sprintf("A%d", errRow), &line); err != nil {
				return fmt.Errorf("error row: %w", err)
			}
			errRow++
		}
	}

	_ = f.SetColWidth(filesSheet, "A", "A", 48)
	_ = f.SetColWidth(filesSheet, "G", "G", 40)
	_ = f.SetColWidth(errorsSheet, "A", "A", 48)
	_ = f.SetColWidth(errorsSheet, "E", "E", 80)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	return nil
}
