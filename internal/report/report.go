package report

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/thesis-checker/constants"
	"github.com/joseph-ayodele/thesis-checker/internal/common"
	"github.com/joseph-ayodele/thesis-checker/internal/entity"
	"github.com/joseph-ayodele/thesis-checker/internal/rules"
)

// Report is everything a renderer needs for one artifact.
type Report struct {
	SourceFilename string
	Findings       []entity.Finding
	GeneratedAt    time.Time
	HowToFix       []string
	CommonFixes    []string
}

// New assembles a report for findings, taking the fix guidance from catalog.
func New(filename string, findings []entity.Finding, catalog *rules.Catalog, at time.Time) Report {
	r := Report{
		SourceFilename: filename,
		Findings:       entity.CloneFindings(findings),
		GeneratedAt:    at.UTC(),
	}
	if catalog != nil {
		r.HowToFix = catalog.HowToFix()
		r.CommonFixes = catalog.CommonFixes()
	}
	return r
}

// Counts returns per-severity totals in display order.
func (r Report) Counts() []SeverityCount {
	counts := entity.SeverityCounts(r.Findings)
	out := make([]SeverityCount, 0, len(constants.Severities))
	for _, s := range constants.Severities {
		out = append(out, SeverityCount{Severity: s, Count: counts[s]})
	}
	return out
}

type SeverityCount struct {
	Severity constants.Severity
	Count    int
}

// Renderer turns a report into an artifact.
type Renderer interface {
	Name() string
	Render(w io.Writer, r Report) error
}

// Select returns a renderer that tries primary and, only when it reports
// ErrRenderUnavailable, renders with fallback instead. Other errors propagate.
func Select(primary, fallback Renderer, logger *slog.Logger) Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &selected{primary: primary, fallback: fallback, log: logger}
}

type selected struct {
	primary  Renderer
	fallback Renderer
	log      *slog.Logger
}

func (s *selected) Name() string {
	return fmt.Sprintf("%s|%s", s.primary.Name(), s.fallback.Name())
}

func (s *selected) Render(w io.Writer, r Report) error {
	// primary output is buffered so a failed attempt never leaks partial bytes
	var buf bytes.Buffer
	err := s.primary.Render(&buf, r)
	if err == nil {
		_, err = w.Write(buf.Bytes())
		return err
	}
	if !errors.Is(err, common.ErrRenderUnavailable) {
		return err
	}
	s.log.Warn("report.render.fallback", "primary", s.primary.Name(), "fallback", s.fallback.Name(), "reason", err)
	return s.fallback.Render(w, r)
}
