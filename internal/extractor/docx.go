package extractor

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/fumiama/go-docx"

	"github.com/dgallion1/planchunk/internal/plandoc"
)

// docxPageChars is the paragraph-aligned page size for DOCX sources,
// which carry no page geometry of their own.
const docxPageChars = 3000

// extractDOCX ingests a supplemental DOCX document (spec books shipped
// alongside plan sets) as text-only pages. Paragraphs are batched into
// synthetic pages; classification degrades gracefully on them.
func extractDOCX(data []byte) (*Result, error) {
	doc, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	var paragraphs []string
	for _, item := range doc.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		text := docxParagraphText(para)
		if text != "" {
			paragraphs = append(paragraphs, text)
		}
	}
	if len(paragraphs) == 0 {
		return nil, fmt.Errorf("docx has no extractable text")
	}

	result := &Result{}
	var current strings.Builder
	flush := func() {
		if current.Len() == 0 {
			return
		}
		result.Pages = append(result.Pages, plandoc.Page{
			Number: len(result.Pages) + 1,
			Text:   current.String(),
		})
		current.Reset()
	}

	for _, para := range paragraphs {
		if current.Len() > 0 && current.Len()+len(para) > docxPageChars {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(para)
	}
	flush()

	return result, nil
}

func docxParagraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
	}
	return strings.TrimSpace(buf.String())
}
