package chunker

import (
	"reflect"
	"strings"
	"testing"

	"github.com/dgallion1/planchunk/internal/plandoc"
)

func sampleChunk() plandoc.Chunk {
	return plandoc.Chunk{
		ChunkID:    "c-1",
		ChunkIndex: 0,
		PageRange:  plandoc.PageRange{Start: 2, End: 3, Pages: []int{2, 3}},
		SheetIndex: []plandoc.SheetIndexEntry{
			{SheetID: "A-1", SheetType: "floor_plan", PageNumber: 2},
			{SheetID: "S-1", SheetType: "schedule", PageNumber: 3},
		},
		Text: "COLUMN SCHEDULE QTY: 12 anchor bolts, QUANTITY 4 base plates, count: 89 studs",
	}
}

func TestAnnotate_DedupeHashDeterministic(t *testing.T) {
	a := Annotate(sampleChunk(), true)
	b := Annotate(sampleChunk(), true)
	if a.Safeguards.DedupeHash == "" {
		t.Fatal("expected a dedupe hash")
	}
	if a.Safeguards.DedupeHash != b.Safeguards.DedupeHash {
		t.Error("identical chunks must hash identically")
	}

	other := sampleChunk()
	other.Text = "different " + other.Text
	if Annotate(other, true).Safeguards.DedupeHash == a.Safeguards.DedupeHash {
		t.Error("different text must change the hash")
	}
}

func TestAnnotate_DedupeDisabled(t *testing.T) {
	c := Annotate(sampleChunk(), false)
	if c.Safeguards.DedupeHash != "" {
		t.Errorf("dedupe disabled but hash set: %q", c.Safeguards.DedupeHash)
	}
	if len(c.Safeguards.LocationKeys) == 0 {
		t.Error("location keys must be set regardless of dedupe")
	}
}

func TestAnnotate_DedupeHashUsesTextPrefixOnly(t *testing.T) {
	long := sampleChunk()
	long.Text = strings.Repeat("a", 600)
	same := sampleChunk()
	same.Text = strings.Repeat("a", 500) + strings.Repeat("b", 100)
	if Annotate(long, true).Safeguards.DedupeHash != Annotate(same, true).Safeguards.DedupeHash {
		t.Error("hash must only cover the first 500 characters")
	}
}

func TestAnnotate_LocationKeys(t *testing.T) {
	c := Annotate(sampleChunk(), true)
	want := []string{"A-1", "S-1"}
	if !reflect.DeepEqual(c.Safeguards.LocationKeys, want) {
		t.Errorf("location keys: got %v, want %v", c.Safeguards.LocationKeys, want)
	}
}

func TestAnnotate_QuantitySignatures(t *testing.T) {
	c := Annotate(sampleChunk(), true)
	want := []string{"QTY=12", "QUANTITY=4", "COUNT=89"}
	if !reflect.DeepEqual(c.Safeguards.QuantitySignatures, want) {
		t.Errorf("signatures: got %v, want %v", c.Safeguards.QuantitySignatures, want)
	}
}

func TestAnnotate_NoMultiplyHints(t *testing.T) {
	c := Annotate(sampleChunk(), true)
	if len(c.Safeguards.NoMultiplyHints) != 1 {
		t.Fatalf("expected 1 hint, got %v", c.Safeguards.NoMultiplyHints)
	}
	if !strings.Contains(c.Safeguards.NoMultiplyHints[0], "S-1") {
		t.Errorf("hint must name the schedule sheet: %q", c.Safeguards.NoMultiplyHints[0])
	}

	detail := sampleChunk()
	detail.SheetIndex = []plandoc.SheetIndexEntry{{SheetID: "A-8", SheetType: "detail", PageNumber: 4}}
	hints := Annotate(detail, true).Safeguards.NoMultiplyHints
	if len(hints) != 1 || !strings.Contains(hints[0], "double-counting") {
		t.Errorf("detail hint missing: %v", hints)
	}

	plain := sampleChunk()
	plain.SheetIndex = []plandoc.SheetIndexEntry{{SheetID: "A-1", SheetType: "floor_plan", PageNumber: 2}}
	if hints := Annotate(plain, true).Safeguards.NoMultiplyHints; len(hints) != 0 {
		t.Errorf("unexpected hints for plain sheet: %v", hints)
	}
}
