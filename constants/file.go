package constants

import (
	"path/filepath"
	"strings"
)

// AllowedExtensions holds the recognised document extensions for validation uploads.
var AllowedExtensions = map[string]struct{}{
	"pdf": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// IsAllowedDocument reports whether filename carries a recognised document extension.
func IsAllowedDocument(filename string) bool {
	ext := NormalizeExt(filepath.Ext(strings.TrimSpace(filename)))
	if ext == "" {
		return false
	}
	_, ok := AllowedExtensions[ext]
	return ok
}

// ArtifactExt is the extension every rendered report is saved under, whatever renderer produced it.
const ArtifactExt = ".pdf"

// PDFMagic is the signature every PDF file starts with.
const PDFMagic = "%PDF-"
