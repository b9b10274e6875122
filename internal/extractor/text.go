package extractor

import (
	"strings"

	"github.com/dgallion1/planchunk/internal/plandoc"
)

// extractText ingests plain text. Form feeds act as page separators, the
// convention used by text exports of paged documents; without them the
// whole input is one page. Blank interior pages are retained so page
// numbers stay contiguous, with a warning each.
func extractText(data []byte) (*Result, error) {
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	parts := strings.Split(text, "\f")

	result := &Result{}
	for i, part := range parts {
		part = strings.TrimSpace(part)
		result.Pages = append(result.Pages, plandoc.Page{
			Number: i + 1,
			Text:   part,
		})
		if part == "" {
			result.Warnings = append(result.Warnings, noTextWarning(i+1))
		}
	}
	return result, nil
}
