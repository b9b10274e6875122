package chunker

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/dgallion1/planchunk/internal/plandoc"
)

// dedupePrefixChars is how much chunk text feeds the dedupe fingerprint.
const dedupePrefixChars = 500

// quantityPattern matches quantity-style tokens: a QTY/QUANTITY/COUNT
// label immediately followed by a number.
var quantityPattern = regexp.MustCompile(`(?i)\b(QTY|QUANTITY|COUNT)\s*[:.=]?\s*(\d+)\b`)

// Annotate returns a copy of the chunk with its safeguards populated.
// No numeric deduplication happens here: hints are advisory text for the
// downstream consumer, which performs cross-chunk reconciliation itself.
func Annotate(c plandoc.Chunk, enableDedupe bool) plandoc.Chunk {
	s := plandoc.Safeguards{
		LocationKeys:       locationKeys(c),
		QuantitySignatures: quantitySignatures(c.Text),
		NoMultiplyHints:    noMultiplyHints(c),
	}
	if enableDedupe {
		s.DedupeHash = dedupeHash(c)
	}
	c.Safeguards = s
	return c
}

// dedupeHash fingerprints the chunk over its sorted page numbers plus the
// first 500 characters of text. Identical input chunks always hash the
// same; the hash detects reprocessing, not cross-chunk similarity.
func dedupeHash(c plandoc.Chunk) string {
	pages := append([]int(nil), c.PageRange.Pages...)
	sort.Ints(pages)

	var sb strings.Builder
	for i, p := range pages {
		if i > 0 {
			sb.WriteByte(',')
		}
		fmt.Fprintf(&sb, "%d", p)
	}
	sb.WriteByte('|')

	runes := []rune(c.Text)
	if len(runes) > dedupePrefixChars {
		runes = runes[:dedupePrefixChars]
	}
	sb.WriteString(string(runes))

	sum := sha256.Sum256([]byte(sb.String()))
	return hex.EncodeToString(sum[:])
}

// locationKeys lists the sheet identifiers present in the chunk.
func locationKeys(c plandoc.Chunk) []string {
	keys := make([]string, 0, len(c.SheetIndex))
	seen := make(map[string]bool, len(c.SheetIndex))
	for _, s := range c.SheetIndex {
		if seen[s.SheetID] {
			continue
		}
		seen[s.SheetID] = true
		keys = append(keys, s.SheetID)
	}
	return keys
}

// quantitySignatures encodes every quantity-style token found in the text.
func quantitySignatures(text string) []string {
	var sigs []string
	for _, m := range quantityPattern.FindAllStringSubmatch(text, -1) {
		sigs = append(sigs, strings.ToUpper(m[1])+"="+m[2])
	}
	return sigs
}

// noMultiplyHints attaches advisory warnings when the chunk includes sheet
// types whose quantities risk double-counting: schedules aggregate
// quantities from individual sheets, and details usually reference a
// parent plan sheet.
func noMultiplyHints(c plandoc.Chunk) []string {
	var hints []string
	for _, s := range c.SheetIndex {
		switch s.SheetType {
		case "schedule":
			hints = append(hints, fmt.Sprintf(
				"sheet %s is a schedule: its quantities are likely aggregate summaries; do not sum them against quantities on plan or detail sheets", s.SheetID))
		case "detail":
			hints = append(hints, fmt.Sprintf(
				"sheet %s is a detail: its quantities likely reference a parent plan sheet and risk double-counting", s.SheetID))
		}
	}
	return hints
}
