// Package extract reads the text layer and basic structure of PDF documents.
package extract

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/joseph-ayodele/thesis-checker/constants"
	"github.com/joseph-ayodele/thesis-checker/internal/common"
)

// ErrorMarker prefixes the text of a page whose text layer could not be decoded.
const ErrorMarker = "[EXTRACTION ERROR]"

// Document is an opened PDF. Page indexes are 0-based.
type Document struct {
	reader *pdf.Reader
	pages  int
	logger *slog.Logger
}

// OpenFile reads path and opens it as a PDF.
func OpenFile(path string, logger *slog.Logger) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	return Open(data, logger)
}

// Open parses data as a PDF. Anything that is not a parseable PDF structure
// fails with common.ErrUnreadableDocument.
func Open(data []byte, logger *slog.Logger) (doc *Document, err error) {
	if logger == nil {
		logger = slog.Default()
	}
	if !bytes.HasPrefix(bytes.TrimLeft(data, "\x00\t\r\n "), []byte(constants.PDFMagic)) {
		return nil, common.NewAppError("UNREADABLE_DOCUMENT", "file is not a PDF document", common.ErrUnreadableDocument)
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Warn("extract.open.panic", "recovered", r)
			doc, err = nil, common.NewAppError("UNREADABLE_DOCUMENT", fmt.Sprintf("cannot parse PDF: %v", r), common.ErrUnreadableDocument)
		}
	}()

	r, perr := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if perr != nil {
		return nil, common.NewAppError("UNREADABLE_DOCUMENT", fmt.Sprintf("cannot parse PDF: %v", perr), common.ErrUnreadableDocument)
	}
	n := r.NumPage()
	logger.Debug("extract.open", "pages", n, "bytes", len(data))
	return &Document{reader: r, pages: n, logger: logger}, nil
}

// PageCount returns the number of pages.
func (d *Document) PageCount() int {
	return d.pages
}

// ExtractText returns the normalised text of one page. It never fails: a page whose
// text layer cannot be decoded yields a single ErrorMarker line describing the cause.
func (d *Document) ExtractText(pageIndex int) (text string) {
	if pageIndex < 0 || pageIndex >= d.pages {
		return marker(pageIndex, "page out of range")
	}

	defer func() {
		if r := recover(); r != nil {
			d.logger.Warn("extract.page.panic", "page", pageIndex+1, "recovered", r)
			text = marker(pageIndex, fmt.Sprint(r))
		}
	}()

	page := d.reader.Page(pageIndex + 1)
	if page.V.IsNull() {
		d.logger.Warn("extract.page.missing", "page", pageIndex+1)
		return marker(pageIndex, "page object missing")
	}
	raw, err := page.GetPlainText(nil)
	if err != nil {
		d.logger.Warn("extract.page.error", "page", pageIndex+1, "error", err)
		return marker(pageIndex, err.Error())
	}
	return Normalize(raw)
}

// Pages returns the text of every page in order.
func (d *Document) Pages() []string {
	out := make([]string, d.pages)
	for i := range out {
		out[i] = d.ExtractText(i)
	}
	return out
}

// ExtractFullText concatenates all pages, each preceded by a 1-based page delimiter.
func (d *Document) ExtractFullText() string {
	return JoinPages(d.Pages())
}

// JoinPages renders page texts with the "--- PAGE n ---" delimiter before each page.
func JoinPages(pages []string) string {
	var b strings.Builder
	for i, p := range pages {
		fmt.Fprintf(&b, "\n\n--- PAGE %d ---\n", i+1)
		b.WriteString(p)
	}
	return b.String()
}

// IsErrorText reports whether page text is an extraction failure marker.
func IsErrorText(text string) bool {
	return strings.HasPrefix(text, ErrorMarker)
}

func marker(pageIndex int, cause string) string {
	return fmt.Sprintf("%s page %d: %s", ErrorMarker, pageIndex+1, strings.TrimSpace(cause))
}
