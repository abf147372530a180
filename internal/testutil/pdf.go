// Package testutil builds in-memory fixtures shared by package tests.
package testutil

import (
	"bytes"
	"strings"

	"github.com/go-pdf/fpdf"
)

// PDF renders one A4 page per entry in pages, each holding its text in Helvetica.
// Text is translated to cp1252 so Slovenian letters survive.
func PDF(pages ...string) ([]byte, error) {
	doc := fpdf.New("P", "mm", "A4", "")
	tr := doc.UnicodeTranslatorFromDescriptor("cp1252")
	doc.SetFont("Helvetica", "", 12)
	for _, p := range pages {
		doc.AddPage()
		for _, line := range strings.Split(p, "\n") {
			doc.CellFormat(0, 7, tr(line), "", 1, "L", false, 0, "")
		}
	}
	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// LetterPDF renders a single US Letter page, used to exercise the A4 check.
func LetterPDF(text string) ([]byte, error) {
	doc := fpdf.New("P", "mm", "Letter", "")
	doc.SetFont("Helvetica", "", 12)
	doc.AddPage()
	doc.CellFormat(0, 7, text, "", 1, "L", false, 0, "")
	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
