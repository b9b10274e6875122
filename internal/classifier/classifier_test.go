package classifier

import (
	"reflect"
	"testing"

	"github.com/dgallion1/planchunk/internal/plandoc"
)

func page(num int, text string) plandoc.Page {
	return plandoc.Page{Number: num, Text: text}
}

func TestClassify_Identifier(t *testing.T) {
	tests := []struct {
		name string
		text string
		page int
		want string
	}{
		{"hyphenated", "FLOOR PLAN A-101", 2, "A-101"},
		{"no separator", "sheet S1 foundation", 3, "S-1"},
		{"period separator", "ELECTRICAL E.02", 4, "E-02"},
		{"decimal suffix", "DETAIL A-5.1", 6, "A-5.1"},
		{"lowercase text", "floor plan a-7", 2, "A-7"},
		{"no identifier", "miscellaneous notes", 9, "PAGE-9"},
		{"empty text", "", 3, "PAGE-3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := Classify(page(tt.page, tt.text), 10)
			if entry.SheetID != tt.want {
				t.Errorf("sheet id: got %q, want %q", entry.SheetID, tt.want)
			}
		})
	}
}

func TestClassify_DisciplinePrefixWinsOverKeyword(t *testing.T) {
	// Identifier prefix S- decides structural even though the body text
	// names another discipline.
	entry := Classify(page(2, "S-1 framing plan for the architectural wing"), 5)
	if entry.Discipline != "structural" {
		t.Errorf("discipline: got %q, want structural", entry.Discipline)
	}
}

func TestClassify_DisciplineKeywordFallback(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"general structural notes apply throughout", "structural"},
		{"hvac equipment layout", "hvac"},
		{"nothing recognizable here", "unknown"},
	}
	for _, tt := range tests {
		entry := Classify(page(2, tt.text), 5)
		if entry.Discipline != tt.want {
			t.Errorf("%q: discipline got %q, want %q", tt.text, entry.Discipline, tt.want)
		}
	}
}

func TestClassify_SheetType(t *testing.T) {
	tests := []struct {
		name string
		text string
		page int
		want string
	}{
		{"page one is always title", "S-1 random content", 1, "title"},
		{"floor plan", "A-1 FIRST FLOOR PLAN", 2, "floor_plan"},
		{"foundation plan", "S-2 FOUNDATION PLAN", 5, "floor_plan"},
		{"elevation", "A-4 NORTH ELEVATION", 3, "elevation"},
		{"schedule", "S-1 COLUMN SCHEDULE", 3, "schedule"},
		{"detail", "A-8 TYPICAL WALL DETAIL", 4, "detail"},
		{"priority: floor plan before detail", "A-2 FLOOR PLAN see detail 3", 2, "floor_plan"},
		{"default", "A-9 miscellaneous", 7, "other"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := Classify(page(tt.page, tt.text), 10)
			if entry.SheetType != tt.want {
				t.Errorf("sheet type: got %q, want %q", entry.SheetType, tt.want)
			}
		})
	}
}

func TestClassify_Idempotent(t *testing.T) {
	p := page(2, `A-1 FIRST FLOOR PLAN SCALE: 1/8" = 1'-0" beam column schedule`)
	first := Classify(p, 5)
	second := Classify(p, 5)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("classification not idempotent:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestClassify_Keywords(t *testing.T) {
	entry := Classify(page(2, "S-3 beam and column layout with rebar schedule"), 5)
	want := []string{"beam", "column", "rebar", "schedule"}
	if !reflect.DeepEqual(entry.Keywords, want) {
		t.Errorf("keywords: got %v, want %v", entry.Keywords, want)
	}
}

func TestClassify_EmptyTextDegradesToDefaults(t *testing.T) {
	entry := Classify(page(4, ""), 5)
	if entry.SheetID != "PAGE-4" {
		t.Errorf("sheet id: got %q", entry.SheetID)
	}
	if entry.Discipline != "unknown" {
		t.Errorf("discipline: got %q", entry.Discipline)
	}
	if entry.SheetType != "other" {
		t.Errorf("sheet type: got %q", entry.SheetType)
	}
	if entry.HasTextLayer {
		t.Error("expected has_text_layer=false for empty text")
	}
	if entry.Scale != "" || entry.ScaleRatio != nil {
		t.Errorf("expected null scale, got %q / %v", entry.Scale, entry.ScaleRatio)
	}
}
