package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"github.com/dgallion1/planchunk/internal/plandoc"
	"github.com/dgallion1/planchunk/internal/planset"
	"github.com/dgallion1/planchunk/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// handleReport renders an HTML ingest report for one document. The report
// is composed as Markdown and converted with goldmark, so the same text
// could be served raw if a client asks for it.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")
	db := s.orchestrator.Store()

	doc, err := db.GetDocument(r.Context(), docID)
	if err != nil {
		docError(w, err)
		return
	}
	entries, err := db.SheetIndex(r.Context(), docID)
	if err != nil {
		jsonError(w, "failed to load sheet index: "+err.Error(), http.StatusInternalServerError)
		return
	}
	chunks, err := db.Chunks(r.Context(), docID)
	if err != nil {
		jsonError(w, "failed to load chunks: "+err.Error(), http.StatusInternalServerError)
		return
	}

	md := reportMarkdown(doc, entries, planset.Group(entries), chunks)

	var buf bytes.Buffer
	converter := goldmark.New(goldmark.WithExtensions(extension.Table))
	if err := converter.Convert([]byte(md), &buf); err != nil {
		jsonError(w, "failed to render report: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

// reportMarkdown builds the Markdown source of the ingest report.
func reportMarkdown(doc *store.DocumentRecord, entries []plandoc.SheetIndexEntry, groups []plandoc.PlanSetGroup, chunks []plandoc.Chunk) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Ingest report: %s\n\n", doc.Filename)
	fmt.Fprintf(&b, "Document `%s`, ingested %s.\n\n", doc.ID, doc.CreatedAt.Format("2006-01-02 15:04 MST"))
	fmt.Fprintf(&b, "- Pages: %d\n", doc.TotalPages)
	fmt.Fprintf(&b, "- Chunks: %d (avg %d tokens)\n", doc.TotalChunks, doc.AvgChunkTokens)
	fmt.Fprintf(&b, "- Images extracted: %d\n\n", doc.ImagesExtracted)

	b.WriteString("## Sheet index\n\n")
	b.WriteString("| Page | Sheet | Type | Discipline | Scale |\n")
	b.WriteString("|------|-------|------|------------|-------|\n")
	for _, e := range entries {
		scale := e.Scale
		if scale == "" {
			scale = "-"
		}
		fmt.Fprintf(&b, "| %d | %s | %s | %s | %s |\n",
			e.PageNumber, e.SheetID, e.SheetType, e.Discipline, scale)
	}
	b.WriteString("\n")

	b.WriteString("## Plan-set groups\n\n")
	for _, g := range groups {
		fmt.Fprintf(&b, "- **%s** (%s): sheets %s, pages %s\n",
			g.Name, g.Discipline, strings.Join(g.SheetIDs, ", "), joinInts(g.PageNumbers))
	}
	b.WriteString("\n")

	b.WriteString("## Chunks\n\n")
	b.WriteString("| Index | Pages | Tokens | Sheets | Hints |\n")
	b.WriteString("|-------|-------|--------|--------|-------|\n")
	for _, c := range chunks {
		fmt.Fprintf(&b, "| %d | %d-%d | %d | %d | %d |\n",
			c.ChunkIndex, c.PageRange.Start, c.PageRange.End,
			c.TokenCount, len(c.SheetIndex), len(c.Safeguards.NoMultiplyHints))
	}

	return b.String()
}

func joinInts(nums []int) string {
	parts := make([]string, len(nums))
	for i, n := range nums {
		parts[i] = fmt.Sprintf("%d", n)
	}
	return strings.Join(parts, ", ")
}
