package extract

import (
	"bytes"
	"fmt"
	"math"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// A4 in PDF points and the tolerance allowed when matching it.
const (
	a4WidthPt   = 595.28
	a4HeightPt  = 841.89
	a4Tolerance = 2.0
)

// PageSize is a page's media box in points.
type PageSize struct {
	Width  float64 `json:"width_pt"`
	Height float64 `json:"height_pt"`
}

// IsA4 reports whether the size is A4 in either orientation.
func (s PageSize) IsA4() bool {
	near := func(a, b float64) bool { return math.Abs(a-b) <= a4Tolerance }
	return (near(s.Width, a4WidthPt) && near(s.Height, a4HeightPt)) ||
		(near(s.Width, a4HeightPt) && near(s.Height, a4WidthPt))
}

// Properties are structural facts read from the PDF object graph.
// Margins, fonts and line spacing are not measured.
type Properties struct {
	PageCount  int        `json:"page_count"`
	PageSizes  []PageSize `json:"page_sizes"`
	NonA4Pages []int      `json:"non_a4_pages,omitempty"` // 1-based
}

// AllA4 reports whether every page is A4.
func (p Properties) AllA4() bool {
	return len(p.PageSizes) > 0 && len(p.NonA4Pages) == 0
}

// Summary is the one-line form included in judgment prompts.
func (p Properties) Summary() string {
	if p.AllA4() {
		return fmt.Sprintf("%d pages, all A4", p.PageCount)
	}
	if len(p.NonA4Pages) == 0 {
		return fmt.Sprintf("%d pages", p.PageCount)
	}
	pages := make([]string, 0, len(p.NonA4Pages))
	for _, n := range p.NonA4Pages {
		pages = append(pages, fmt.Sprint(n))
	}
	return fmt.Sprintf("%d pages; pages not A4: %s", p.PageCount, strings.Join(pages, ", "))
}

// ReadProperties validates data with pdfcpu in relaxed mode and reads page dimensions.
func ReadProperties(data []byte) (Properties, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	if err := api.Validate(bytes.NewReader(data), conf); err != nil {
		return Properties{}, fmt.Errorf("pdfcpu validate: %w", err)
	}
	dims, err := api.PageDims(bytes.NewReader(data), conf)
	if err != nil {
		return Properties{}, fmt.Errorf("pdfcpu page dims: %w", err)
	}

	props := Properties{PageCount: len(dims), PageSizes: make([]PageSize, 0, len(dims))}
	for i, d := range dims {
		size := PageSize{Width: d.Width, Height: d.Height}
		props.PageSizes = append(props.PageSizes, size)
		if !size.IsA4() {
			props.NonA4Pages = append(props.NonA4Pages, i+1)
		}
	}
	return props, nil
}
