package extractor

import (
	"context"
	"errors"
	"strings"
	"testing"

	pdflib "github.com/ledongthuc/pdf"
)

func TestExtract_SizeCeiling(t *testing.T) {
	data := make([]byte, 100)
	_, err := Extract(context.Background(), data, "plan.pdf", Options{MaxBytes: 50})
	if !errors.Is(err, ErrDocumentTooLarge) {
		t.Fatalf("expected ErrDocumentTooLarge, got %v", err)
	}
}

func TestExtract_UnsupportedFormat(t *testing.T) {
	_, err := Extract(context.Background(), []byte("x"), "plan.dwg", Options{})
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestExtract_UnreadablePDF(t *testing.T) {
	_, err := Extract(context.Background(), []byte("not a pdf at all"), "plan.pdf", Options{})
	if err == nil {
		t.Fatal("expected an error for unreadable pdf")
	}
}

func TestExtract_TextPages(t *testing.T) {
	data := []byte("TITLE SHEET A-0\fFLOOR PLAN A-1\f\fDETAIL A-8")
	res, err := Extract(context.Background(), data, "plans.txt", Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Pages) != 4 {
		t.Fatalf("expected 4 pages, got %d", len(res.Pages))
	}
	for i, p := range res.Pages {
		if p.Number != i+1 {
			t.Errorf("page %d: number got %d", i, p.Number)
		}
	}
	if res.Pages[2].HasTextLayer() {
		t.Error("blank interior page must report no text layer")
	}
	if len(res.Warnings) != 1 || res.Warnings[0].Page != 3 {
		t.Errorf("expected one warning for page 3, got %v", res.Warnings)
	}
}

func TestExtract_CSVSchedule(t *testing.T) {
	data := []byte("Mark,Size,Qty\nB1,W8x10,12\nB2,W10x12,4\n")
	res, err := Extract(context.Background(), data, "beam_schedule.csv", Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Pages) != 1 {
		t.Fatalf("expected 1 page, got %d", len(res.Pages))
	}
	text := res.Pages[0].Text
	if !strings.Contains(text, "SCHEDULE") {
		t.Errorf("schedule marker missing: %q", text)
	}
	if !strings.Contains(text, "Qty: 12") {
		t.Errorf("labeled cells missing: %q", text)
	}
}

func TestIsSupportedExtension(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"plans.PDF", true},
		{"specs.docx", true},
		{"schedule.csv", true},
		{"notes.txt", true},
		{"model.dwg", false},
		{"archive.zip", false},
	}
	for _, tt := range tests {
		if got := IsSupportedExtension(tt.name); got != tt.want {
			t.Errorf("%s: got %v, want %v", tt.name, got, tt.want)
		}
	}
}

func item(x, y, w float64, s string) pdflib.Text {
	return pdflib.Text{X: x, Y: y, W: w, S: s}
}

func TestReadingOrderText_SortsArbitraryItemOrder(t *testing.T) {
	// Two lines emitted out of order, with jitter inside the tolerance
	// band on the first line.
	items := []pdflib.Text{
		item(200, 700.2, 30, "PLAN"),
		item(50, 650, 40, "SCALE:"),
		item(100, 699.9, 40, "FLOOR"),
		item(40, 700.4, 50, "FIRST"),
		item(95, 650.1, 30, "1/8\""),
	}
	got := readingOrderText(items)
	want := "FIRST FLOOR PLAN\nSCALE: 1/8\""
	if got != want {
		t.Errorf("reading order:\ngot  %q\nwant %q", got, want)
	}
}

func TestReadingOrderText_ContiguousItemsNotSplit(t *testing.T) {
	// Items closer than the word gap concatenate without a space.
	items := []pdflib.Text{
		item(10, 100, 20, "A-"),
		item(30.5, 100, 10, "101"),
	}
	if got := readingOrderText(items); got != "A-101" {
		t.Errorf("got %q, want A-101", got)
	}
}

func TestReadingOrderText_Empty(t *testing.T) {
	if got := readingOrderText(nil); got != "" {
		t.Errorf("got %q, want empty", got)
	}
}
