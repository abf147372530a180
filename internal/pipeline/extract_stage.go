package pipeline

import (
	"log/slog"

	"github.com/joseph-ayodele/thesis-checker/internal/extract"
	"github.com/joseph-ayodele/thesis-checker/internal/llm"
)

// Extraction is the extracted view of one document.
type Extraction struct {
	PageCount  int
	Pages      []string
	FullText   string
	Properties *extract.Properties // nil when pdfcpu could not read the structure
}

// JudgeInput converts the extraction into what the judgment engine consumes.
func (e Extraction) JudgeInput() llm.JudgeInput {
	in := llm.JudgeInput{FullText: e.FullText}
	if len(e.Pages) > 0 {
		in.FrontPage = e.Pages[0]
	}
	if e.Properties != nil {
		in.Properties = e.Properties.Summary()
	}
	return in
}

// ExtractStage opens the document and reads its text layer and properties.
type ExtractStage struct {
	Logger *slog.Logger
}

func NewExtractStage(logger *slog.Logger) *ExtractStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExtractStage{Logger: logger}
}

// Run fails only when the bytes are not a readable PDF; page-level and
// property failures degrade the extraction instead.
func (s *ExtractStage) Run(data []byte) (Extraction, error) {
	doc, err := extract.Open(data, s.Logger)
	if err != nil {
		return Extraction{}, err
	}
	pages := doc.Pages()
	out := Extraction{
		PageCount: doc.PageCount(),
		Pages:     pages,
		FullText:  extract.JoinPages(pages),
	}

	failed := 0
	for _, p := range pages {
		if extract.IsErrorText(p) {
			failed++
		}
	}

	props, err := extract.ReadProperties(data)
	if err != nil {
		s.Logger.Warn("pipeline.extract.properties_failed", "error", err)
	} else {
		out.Properties = &props
	}

	s.Logger.Info("pipeline.extract.ok",
		"pages", out.PageCount,
		"failed_pages", failed,
		"text_len", len([]rune(out.FullText)),
	)
	return out, nil
}
