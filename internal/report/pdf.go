package report

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"unicode"

	"github.com/go-pdf/fpdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/unicode/norm"

	"github.com/joseph-ayodele/thesis-checker/constants"
	"github.com/joseph-ayodele/thesis-checker/internal/common"
)

type rgb struct{ r, g, b int }

var severityColors = map[constants.Severity]rgb{
	constants.SeverityCritical: {200, 30, 30},
	constants.SeverityMajor:    {230, 120, 0},
	constants.SeverityMinor:    {190, 160, 0},
}

// PDFRenderer produces a paged, colour-coded report. The output is checked
// with pdfcpu before it is handed back; a document that fails the check counts
// as the rich capability being unavailable.
type PDFRenderer struct {
	Enabled bool
	Logger  *slog.Logger
}

func NewPDFRenderer(enabled bool, logger *slog.Logger) *PDFRenderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &PDFRenderer{Enabled: enabled, Logger: logger}
}

func (p *PDFRenderer) Name() string { return "pdf" }

func (p *PDFRenderer) Render(w io.Writer, r Report) (err error) {
	if !p.Enabled {
		return fmt.Errorf("rich renderer disabled: %w", common.ErrRenderUnavailable)
	}
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("pdf generator panic: %v: %w", rec, common.ErrRenderUnavailable)
		}
	}()

	data, err := buildPDF(r)
	if err != nil {
		return err
	}
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	if err := api.Validate(bytes.NewReader(data), conf); err != nil {
		return fmt.Errorf("generated report failed validation: %v: %w", err, common.ErrRenderUnavailable)
	}
	p.logger().Debug("report.pdf.rendered", "bytes", len(data), "findings", len(r.Findings))
	_, err = w.Write(data)
	return err
}

func (p *PDFRenderer) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.Default()
	}
	return p.Logger
}

func buildPDF(r Report) ([]byte, error) {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetTitle("FDV Thesis Validation Report", false)
	doc.SetMargins(20, 20, 20)
	doc.SetAutoPageBreak(true, 20)
	doc.AliasNbPages("")
	doc.SetFooterFunc(func() {
		doc.SetY(-15)
		doc.SetFont("Helvetica", "I", 8)
		doc.SetTextColor(120, 120, 120)
		doc.CellFormat(0, 10, fmt.Sprintf("Page %d/{nb}", doc.PageNo()), "", 0, "C", false, 0, "")
	})

	doc.AddPage()
	doc.SetFont("Helvetica", "B", 18)
	doc.SetTextColor(0, 0, 0)
	doc.CellFormat(0, 12, "FDV Thesis Validation Report", "", 1, "C", false, 0, "")
	doc.Ln(4)

	doc.SetFont("Helvetica", "", 11)
	doc.CellFormat(0, 7, pdfText("Original file: "+r.SourceFilename), "", 1, "L", false, 0, "")
	if !r.GeneratedAt.IsZero() {
		doc.CellFormat(0, 7, "Generated: "+r.GeneratedAt.Format("2006-01-02 15:04 MST"), "", 1, "L", false, 0, "")
	}
	doc.CellFormat(0, 7, fmt.Sprintf("Total errors found: %d", len(r.Findings)), "", 1, "L", false, 0, "")
	doc.Ln(4)

	doc.SetFont("Helvetica", "B", 13)
	doc.CellFormat(0, 8, "Error Summary", "", 1, "L", false, 0, "")
	doc.SetFont("Helvetica", "B", 11)
	for _, c := range r.Counts() {
		col := severityColors[c.Severity]
		doc.SetFillColor(col.r, col.g, col.b)
		doc.SetTextColor(255, 255, 255)
		doc.CellFormat(56, 9, fmt.Sprintf("%s: %d", c.Severity, c.Count), "1", 0, "C", true, 0, "")
	}
	doc.Ln(14)

	doc.SetTextColor(0, 0, 0)
	doc.SetFont("Helvetica", "B", 13)
	doc.CellFormat(0, 8, "Detailed Errors", "", 1, "L", false, 0, "")
	if len(r.Findings) == 0 {
		doc.SetFont("Helvetica", "", 11)
		doc.CellFormat(0, 7, "No errors found.", "", 1, "L", false, 0, "")
	}
	for i, f := range r.Findings {
		col := severityColors[f.Severity]
		doc.SetTextColor(col.r, col.g, col.b)
		doc.SetFont("Helvetica", "B", 11)
		heading := fmt.Sprintf("%d. Page %d - %s", i+1, f.PageNumber+1, f.Severity)
		if f.Category != "" {
			heading += " [" + f.Category + "]"
		}
		doc.CellFormat(0, 7, pdfText(heading), "", 1, "L", false, 0, "")

		doc.SetTextColor(0, 0, 0)
		doc.SetFont("Helvetica", "", 10)
		doc.SetX(26)
		doc.MultiCell(0, 5, pdfText(f.Message), "", "L", false)
		if f.FixInstruction != "" {
			doc.SetFont("Helvetica", "I", 10)
			doc.SetX(26)
			doc.MultiCell(0, 5, pdfText("Fix: "+f.FixInstruction), "", "L", false)
		}
		doc.Ln(2)
	}

	if len(r.HowToFix) > 0 || len(r.CommonFixes) > 0 {
		doc.AddPage()
		doc.SetTextColor(0, 0, 0)
		doc.SetFont("Helvetica", "B", 14)
		doc.CellFormat(0, 10, "How to Fix These Errors:", "", 1, "L", false, 0, "")
		doc.SetFont("Helvetica", "", 11)
		for i, step := range r.HowToFix {
			doc.MultiCell(0, 6, pdfText(fmt.Sprintf("%d. %s", i+1, step)), "", "L", false)
		}
		if len(r.CommonFixes) > 0 {
			doc.Ln(4)
			doc.SetFont("Helvetica", "B", 12)
			doc.CellFormat(0, 8, "Common fixes", "", 1, "L", false, 0, "")
			doc.SetFont("Helvetica", "", 11)
			for _, fix := range r.CommonFixes {
				doc.MultiCell(0, 6, pdfText("- "+fix), "", "L", false)
			}
		}
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf output: %v: %w", err, common.ErrRenderUnavailable)
	}
	return buf.Bytes(), nil
}

// pdfText encodes s for the core fonts (Windows-1252). Letters outside the
// code page lose their diacritics (č -> c); anything else becomes '?'.
func pdfText(s string) string {
	var b strings.Builder
	for _, r := range s {
		if c, ok := charmap.Windows1252.EncodeRune(r); ok {
			b.WriteByte(c)
			continue
		}
		if base, ok := stripMarks(r); ok {
			b.WriteByte(base)
			continue
		}
		b.WriteByte('?')
	}
	return b.String()
}

func stripMarks(r rune) (byte, bool) {
	for _, d := range norm.NFD.String(string(r)) {
		if unicode.Is(unicode.Mn, d) {
			continue
		}
		return charmap.Windows1252.EncodeRune(d)
	}
	return 0, false
}
