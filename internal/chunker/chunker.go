// Package chunker packs ordered plan pages into token-budgeted,
// overlapping chunks. Packing is page-granular: a page is never split
// across two chunks, so an oversized page yields one oversized chunk
// rather than an error. Overlap text carried into the next chunk is
// always a suffix of the previous chunk's text.
package chunker

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/dgallion1/planchunk/internal/plandoc"
)

// Config controls packing behavior. Values are copied in; the packer
// never mutates shared state.
type Config struct {
	TargetTokens   int     // finalize once the buffer reaches this estimate
	MinTokens      int     // advisory floor; a trailing chunk may be smaller
	MaxTokens      int     // never append another page beyond this estimate
	OverlapPercent float64 // share of TargetTokens duplicated into the next chunk
}

// DefaultConfig returns the packing defaults.
func DefaultConfig() Config {
	return Config{
		TargetTokens:   3000,
		MinTokens:      2000,
		MaxTokens:      4000,
		OverlapPercent: 17.5,
	}
}

func (c *Config) defaults() {
	if c.TargetTokens <= 0 {
		c.TargetTokens = 3000
	}
	if c.MinTokens <= 0 {
		c.MinTokens = 2000
	}
	if c.MaxTokens <= c.TargetTokens {
		c.MaxTokens = c.TargetTokens + 1000
	}
	if c.OverlapPercent <= 0 || c.OverlapPercent >= 100 {
		c.OverlapPercent = 17.5
	}
}

// buffer accumulates the chunk under construction.
type buffer struct {
	text   strings.Builder
	chars  int // running rune count of text
	pages  []plandoc.Page
	sheets []plandoc.SheetIndexEntry
	// carry is the sheet context seeded from the previous chunk's tail.
	// Carried sheets appear in the chunk's sheet-index subset (their text
	// is physically present via the overlap) but not in its page range.
	carry []plandoc.SheetIndexEntry
}

func (b *buffer) tokens() int {
	return b.chars / charsPerToken
}

func (b *buffer) append(pg plandoc.Page, entry plandoc.SheetIndexEntry) {
	if b.text.Len() > 0 {
		b.text.WriteByte('\n')
		b.chars++
	}
	b.text.WriteString(pg.Text)
	b.chars += utf8.RuneCountInString(pg.Text)
	b.pages = append(b.pages, pg)
	b.sheets = append(b.sheets, entry)
}

// Pack runs the greedy single-pass packing algorithm over the document's
// pages. The sheet index must hold exactly one entry per page; pages are
// assumed sorted by page number. The returned chunks have dense 0-based
// indices and derived neighbor links.
func Pack(pages []plandoc.Page, index []plandoc.SheetIndexEntry, cfg Config) []plandoc.Chunk {
	cfg.defaults()

	byPage := make(map[int]plandoc.SheetIndexEntry, len(index))
	for _, e := range index {
		byPage[e.PageNumber] = e
	}

	overlapTokens := int(float64(cfg.TargetTokens) * cfg.OverlapPercent / 100)

	var chunks []plandoc.Chunk
	buf := &buffer{}

	finalize := func() {
		chunk := buildChunk(buf, len(chunks), overlapTokens)
		chunks = append(chunks, chunk)

		// Seed the next buffer: overlap tail plus the last page's sheet
		// context, so context carries forward without duplicating the
		// page itself.
		next := &buffer{}
		tail := overlapTail(chunk.Text, overlapTokens)
		if tail != "" {
			next.text.WriteString(tail)
			next.chars = utf8.RuneCountInString(tail)
			last := buf.sheets[len(buf.sheets)-1]
			next.carry = []plandoc.SheetIndexEntry{last}
		}
		buf = next
	}

	for _, pg := range pages {
		pageTokens := EstimateTokens(pg.Text)

		// Finalize before appending a page that would blow the ceiling.
		// The check never truncates a page's own content: a single page
		// above MaxTokens still lands whole in its own chunk.
		if len(buf.pages) > 0 && buf.tokens()+pageTokens > cfg.MaxTokens {
			finalize()
		}

		buf.append(pg, byPage[pg.Number])

		if buf.tokens() >= cfg.TargetTokens {
			finalize()
		}
	}

	// The trailing buffer is emitted even below MinTokens; the floor is
	// advisory. A buffer holding only carried overlap is dropped.
	if len(buf.pages) > 0 {
		finalize()
	}

	return linkNeighbors(chunks)
}

// buildChunk freezes the buffer into a chunk value.
func buildChunk(buf *buffer, index, overlapTokens int) plandoc.Chunk {
	text := buf.text.String()

	pageNums := make([]int, len(buf.pages))
	var imageRefs []string
	for i, pg := range buf.pages {
		pageNums[i] = pg.Number
		imageRefs = append(imageRefs, pg.ImageRefs...)
	}

	sheets := make([]plandoc.SheetIndexEntry, 0, len(buf.carry)+len(buf.sheets))
	sheets = append(sheets, buf.carry...)
	sheets = append(sheets, buf.sheets...)

	return plandoc.Chunk{
		ChunkID:    uuid.NewString(),
		ChunkIndex: index,
		PageRange: plandoc.PageRange{
			Start: pageNums[0],
			End:   pageNums[len(pageNums)-1],
			Pages: pageNums,
		},
		SheetIndex: sheets,
		Text:       text,
		TokenCount: EstimateTokens(text),
		ImageRefs:  imageRefs,
		Anchors:    buildAnchors(buf),
		Overlap:    plandoc.OverlapInfo{OverlapTokens: overlapTokens},
	}
}

// buildAnchors creates one sheet anchor per member sheet and one page
// anchor per member page.
func buildAnchors(buf *buffer) []plandoc.Anchor {
	anchors := make([]plandoc.Anchor, 0, len(buf.sheets)+len(buf.pages))
	for _, s := range buf.sheets {
		anchors = append(anchors, plandoc.Anchor{
			AnchorID:    uuid.NewString(),
			Type:        "sheet",
			Value:       s.SheetID,
			Description: s.Title,
			PageNumber:  s.PageNumber,
		})
	}
	for _, pg := range buf.pages {
		anchors = append(anchors, plandoc.Anchor{
			AnchorID:   uuid.NewString(),
			Type:       "page",
			Value:      "page-" + strconv.Itoa(pg.Number),
			PageNumber: pg.Number,
		})
	}
	return anchors
}

// linkNeighbors derives the immutable neighbor-link view in one pass over
// the finished sequence. First and last chunks keep empty ids on the
// missing side.
func linkNeighbors(chunks []plandoc.Chunk) []plandoc.Chunk {
	linked := make([]plandoc.Chunk, len(chunks))
	for i, c := range chunks {
		if i > 0 {
			c.Overlap.PrevChunkID = chunks[i-1].ChunkID
		}
		if i < len(chunks)-1 {
			c.Overlap.NextChunkID = chunks[i+1].ChunkID
		}
		linked[i] = c
	}
	return linked
}

// overlapTail extracts up to overlapTokens worth of trailing text, trimmed
// forward to the nearest sentence or line boundary so the overlap never
// starts mid-word. Text that would be duplicated wholesale produces no
// overlap.
func overlapTail(text string, overlapTokens int) string {
	if overlapTokens <= 0 {
		return ""
	}
	runes := []rune(text)
	maxChars := overlapTokens * charsPerToken
	if len(runes) <= maxChars {
		return ""
	}

	window := runes[len(runes)-maxChars:]

	// Prefer a sentence or line boundary inside the window.
	for i := 0; i < len(window)-1; i++ {
		switch window[i] {
		case '\n':
			return strings.TrimLeft(string(window[i+1:]), " \t")
		case '.', '!', '?':
			if window[i+1] == ' ' || window[i+1] == '\n' {
				return strings.TrimLeft(string(window[i+1:]), " \t\n")
			}
		}
	}

	// Fall back to a word boundary.
	for i, r := range window {
		if r == ' ' {
			return string(window[i+1:])
		}
	}
	return ""
}
