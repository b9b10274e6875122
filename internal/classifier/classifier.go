// Package classifier infers a structured sheet-index entry from the
// extracted text of a single plan page. Classification is heuristic and
// never fails: absent signal degrades fields to defaults instead of
// returning an error, and classifying the same text twice yields the same
// entry.
package classifier

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dgallion1/planchunk/internal/plandoc"
)

// sheetIDPattern matches a discipline letter run followed by digits,
// optionally separated by a hyphen or period: A-101, S1, E.02, FP-3.
var sheetIDPattern = regexp.MustCompile(`\b([A-Z]{1,2})[-.]?(\d{1,3}(?:\.\d{1,2})?)\b`)

// disciplinePrefixes maps the leading identifier letter to a discipline.
// Prefix lookup takes precedence over the keyword scan below.
var disciplinePrefixes = map[byte]string{
	'A': "architectural",
	'S': "structural",
	'E': "electrical",
	'P': "plumbing",
	'M': "hvac",
	'C': "civil",
	'L': "landscape",
}

// disciplineKeywords is scanned in order when no identifier prefix decides
// the discipline. First match wins.
var disciplineKeywords = []struct {
	Keyword    string
	Discipline string
}{
	{"structural", "structural"},
	{"architectural", "architectural"},
	{"electrical", "electrical"},
	{"plumbing", "plumbing"},
	{"mechanical", "hvac"},
	{"hvac", "hvac"},
	{"civil", "civil"},
	{"landscape", "landscape"},
}

// sheetTypeRules is the ordered priority table for sheet type detection.
// The first rule with a matching keyword wins; new patterns are added as
// table rows, not branches.
var sheetTypeRules = []struct {
	Type     string
	Keywords []string
}{
	{"title", []string{"title sheet", "cover sheet", "sheet index", "index of drawings", "drawing index"}},
	{"floor_plan", []string{"floor plan", "foundation plan", "framing plan", "ceiling plan"}},
	{"elevation", []string{"elevation"}},
	{"section", []string{"section"}},
	{"detail", []string{"detail"}},
	{"schedule", []string{"schedule"}},
	{"legend", []string{"legend", "abbreviations", "symbols"}},
	{"site_plan", []string{"site plan"}},
	{"roof_plan", []string{"roof plan"}},
}

// keywordVocabulary is the fixed term list reported in detected_keywords.
// Matches are returned in vocabulary order.
var keywordVocabulary = []string{
	"beam", "column", "footing", "foundation", "rebar", "joist", "truss",
	"slab", "shear wall", "hvac", "duct", "diffuser", "panel", "circuit",
	"conduit", "fixture", "sprinkler", "water heater", "schedule",
	"quantity", "detail", "typ.",
}

// Classify builds the sheet-index entry for one page. It runs purely on
// the page's text and never looks at other pages; totalPages is only used
// for the page-1 title special case context.
func Classify(page plandoc.Page, totalPages int) plandoc.SheetIndexEntry {
	upper := strings.ToUpper(page.Text)
	lower := strings.ToLower(page.Text)

	sheetID, prefix := detectIdentifier(upper, page.Number)
	scale, ratio := ParseScale(page.Text)

	entry := plandoc.SheetIndexEntry{
		SheetID:      sheetID,
		Title:        detectTitle(page.Text),
		Discipline:   detectDiscipline(prefix, lower),
		SheetType:    detectSheetType(lower, page.Number),
		Scale:        scale,
		ScaleRatio:   ratio,
		Units:        detectUnits(scale),
		PageNumber:   page.Number,
		Rotation:     page.Rotation,
		HasTextLayer: page.HasTextLayer(),
		HasImage:     page.HasImage(),
		TextLength:   len(page.Text),
		Keywords:     detectKeywords(lower),
	}
	return entry
}

// detectIdentifier returns the sheet identifier and its letter prefix.
// With no match the identifier falls back to PAGE-N and the prefix is
// empty, which routes discipline detection to the keyword scan.
func detectIdentifier(upper string, pageNumber int) (id, prefix string) {
	m := sheetIDPattern.FindStringSubmatch(upper)
	if m == nil {
		return fmt.Sprintf("PAGE-%d", pageNumber), ""
	}
	return m[1] + "-" + m[2], m[1]
}

func detectDiscipline(prefix, lower string) string {
	if prefix != "" {
		if d, ok := disciplinePrefixes[prefix[0]]; ok {
			return d
		}
	}
	for _, dk := range disciplineKeywords {
		if strings.Contains(lower, dk.Keyword) {
			return dk.Discipline
		}
	}
	return "unknown"
}

func detectSheetType(lower string, pageNumber int) string {
	// The first sheet of a plan set is its title sheet whether or not the
	// title block says so.
	if pageNumber == 1 {
		return "title"
	}
	for _, rule := range sheetTypeRules {
		for _, kw := range rule.Keywords {
			if strings.Contains(lower, kw) {
				return rule.Type
			}
		}
	}
	return "other"
}

func detectKeywords(lower string) []string {
	var found []string
	for _, kw := range keywordVocabulary {
		if strings.Contains(lower, kw) {
			found = append(found, kw)
		}
	}
	return found
}

// detectTitle picks the first non-empty line as the sheet title, the same
// heuristic used for document titles elsewhere in the pipeline.
func detectTitle(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if len(line) > 200 {
			line = line[:200]
		}
		return line
	}
	return ""
}
