// Package extractor turns a plan document byte stream into ordered,
// immutable page records: per-page text in reading order and, for PDFs,
// extracted page images. A failed image for one page never fails that
// page's text or any other page; such conditions surface as warnings.
package extractor

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dgallion1/planchunk/internal/plandoc"
)

// ErrDocumentTooLarge is returned before any parsing when the input
// exceeds the configured ceiling.
var ErrDocumentTooLarge = errors.New("document exceeds maximum size")

// ErrUnsupportedFormat is returned for file types outside the intake list.
var ErrUnsupportedFormat = errors.New("unsupported document format")

// Options configures one extraction run.
type Options struct {
	MaxBytes      int64  // size ceiling; <= 0 disables the check
	PageWorkers   int    // bounded parallelism for per-page work
	ExtractImages bool   // extract embedded page images (PDF only)
	ImageDir      string // destination for image files; empty disables
	DocID         string // prefixes image file names
}

// Result is the extractor output: pages in page-number order plus any
// degraded-condition warnings.
type Result struct {
	Pages    []plandoc.Page
	Warnings []plandoc.Warning
}

// SupportedExtensions lists the intake formats. PDF is the primary plan
// format; DOCX and CSV cover supplemental spec books and schedule exports.
var SupportedExtensions = map[string]bool{
	".pdf":  true,
	".docx": true,
	".csv":  true,
	".txt":  true,
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	return SupportedExtensions[strings.ToLower(filepath.Ext(filename))]
}

// Extract produces the page records for a document. It fails fast on the
// size ceiling and on structurally unreadable input (no pages could be
// opened at all); per-page degradation is reported in Result.Warnings
// instead.
func Extract(ctx context.Context, data []byte, filename string, opts Options) (*Result, error) {
	if opts.MaxBytes > 0 && int64(len(data)) > opts.MaxBytes {
		return nil, fmt.Errorf("%w: %d bytes (limit %d)", ErrDocumentTooLarge, len(data), opts.MaxBytes)
	}
	if opts.PageWorkers <= 0 {
		opts.PageWorkers = 4
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return extractPDF(ctx, data, opts)
	case ".docx":
		return extractDOCX(data)
	case ".csv":
		return extractCSV(data, filename)
	case ".txt":
		return extractText(data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(filename))
	}
}

// noTextWarning records a page with no extractable text layer (the
// scanned-page case); classification still proceeds with empty-text
// defaults.
func noTextWarning(page int) plandoc.Warning {
	return plandoc.Warning{
		Page:    page,
		Stage:   "extract",
		Message: "no text layer found; page retained with empty text",
	}
}
