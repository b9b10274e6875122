package planset

import (
	"reflect"
	"testing"

	"github.com/dgallion1/planchunk/internal/plandoc"
)

func entry(page int, id, sheetType, discipline, scale string) plandoc.SheetIndexEntry {
	return plandoc.SheetIndexEntry{
		SheetID:    id,
		SheetType:  sheetType,
		Discipline: discipline,
		Scale:      scale,
		PageNumber: page,
	}
}

func TestGroup_PartitionsByTypeAndDiscipline(t *testing.T) {
	entries := []plandoc.SheetIndexEntry{
		entry(1, "A-0", "title", "architectural", ""),
		entry(2, "A-1", "floor_plan", "architectural", `1/8" = 1'-0"`),
		entry(3, "A-2", "floor_plan", "architectural", `1/8" = 1'-0"`),
		entry(4, "S-1", "floor_plan", "structural", `1/4" = 1'-0"`),
		entry(5, "A-8", "detail", "architectural", ""),
	}

	groups := Group(entries)
	if len(groups) != 4 {
		t.Fatalf("expected 4 groups, got %d", len(groups))
	}

	// Groups appear in order of their first page.
	wantIDs := []string{"title-architectural", "floor_plan-architectural", "floor_plan-structural", "detail-architectural"}
	for i, g := range groups {
		if g.GroupID != wantIDs[i] {
			t.Errorf("group %d: id got %q, want %q", i, g.GroupID, wantIDs[i])
		}
	}

	arch := groups[1]
	if !reflect.DeepEqual(arch.PageNumbers, []int{2, 3}) {
		t.Errorf("pages: got %v, want [2 3]", arch.PageNumbers)
	}
	if !reflect.DeepEqual(arch.SheetIDs, []string{"A-1", "A-2"}) {
		t.Errorf("sheet ids: got %v, want [A-1 A-2]", arch.SheetIDs)
	}
}

func TestGroup_CommonScale(t *testing.T) {
	uniform := Group([]plandoc.SheetIndexEntry{
		entry(2, "A-1", "floor_plan", "architectural", `1/8" = 1'-0"`),
		entry(3, "A-2", "floor_plan", "architectural", `1/8" = 1'-0"`),
	})
	if uniform[0].Scale != `1/8" = 1'-0"` {
		t.Errorf("uniform scale: got %q", uniform[0].Scale)
	}

	mixed := Group([]plandoc.SheetIndexEntry{
		entry(2, "A-1", "floor_plan", "architectural", `1/8" = 1'-0"`),
		entry(3, "A-2", "floor_plan", "architectural", `1/4" = 1'-0"`),
	})
	if mixed[0].Scale != "" {
		t.Errorf("mixed scales must clear the group scale, got %q", mixed[0].Scale)
	}
}

func TestGroup_EmptyIndex(t *testing.T) {
	if groups := Group(nil); len(groups) != 0 {
		t.Errorf("expected no groups for empty index, got %d", len(groups))
	}
}

func TestGroup_Deterministic(t *testing.T) {
	entries := []plandoc.SheetIndexEntry{
		entry(1, "A-0", "title", "architectural", ""),
		entry(2, "S-1", "schedule", "structural", ""),
		entry(3, "A-1", "floor_plan", "architectural", ""),
	}
	first := Group(entries)
	second := Group(entries)
	if !reflect.DeepEqual(first, second) {
		t.Error("grouping is not deterministic")
	}
}
