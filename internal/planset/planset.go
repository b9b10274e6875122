// Package planset derives logical plan-set groups from a sheet index.
// A group is a pure projection: it is recomputed whenever the sheet index
// changes and has no lifecycle of its own.
package planset

import (
	"fmt"

	"github.com/dgallion1/planchunk/internal/plandoc"
)

// groupNames maps sheet types to human-readable group names.
var groupNames = map[string]string{
	"title":      "Title Sheets",
	"floor_plan": "Floor Plans",
	"elevation":  "Elevations",
	"section":    "Sections",
	"detail":     "Details",
	"schedule":   "Schedules",
	"legend":     "Legends",
	"site_plan":  "Site Plans",
	"roof_plan":  "Roof Plans",
	"other":      "Other Sheets",
}

// Group partitions the sheet index by (sheet_type, discipline), preserving
// the original page order within each group and across groups (groups are
// ordered by their first page). A group carries a scale only when every
// member sheet reports the same one; mixed or missing scales leave it
// empty and consumers must not assume uniformity.
func Group(entries []plandoc.SheetIndexEntry) []plandoc.PlanSetGroup {
	if len(entries) == 0 {
		return nil
	}

	type key struct {
		sheetType  string
		discipline string
	}

	var order []key
	byKey := make(map[key]*plandoc.PlanSetGroup)

	for _, e := range entries {
		k := key{e.SheetType, e.Discipline}
		g, ok := byKey[k]
		if !ok {
			g = &plandoc.PlanSetGroup{
				GroupID:     fmt.Sprintf("%s-%s", e.SheetType, e.Discipline),
				Name:        groupName(e.SheetType),
				SheetType:   e.SheetType,
				Discipline:  e.Discipline,
				Description: fmt.Sprintf("%s (%s)", groupName(e.SheetType), e.Discipline),
			}
			byKey[k] = g
			order = append(order, k)
		}
		g.PageNumbers = append(g.PageNumbers, e.PageNumber)
		g.SheetIDs = append(g.SheetIDs, e.SheetID)
	}

	groups := make([]plandoc.PlanSetGroup, 0, len(order))
	for _, k := range order {
		g := byKey[k]
		g.Scale = commonScale(entries, k.sheetType, k.discipline)
		groups = append(groups, *g)
	}
	return groups
}

func groupName(sheetType string) string {
	if name, ok := groupNames[sheetType]; ok {
		return name
	}
	return "Other Sheets"
}

// commonScale returns the group's scale only when every member shares one.
func commonScale(entries []plandoc.SheetIndexEntry, sheetType, discipline string) string {
	scale := ""
	first := true
	for _, e := range entries {
		if e.SheetType != sheetType || e.Discipline != discipline {
			continue
		}
		if first {
			scale = e.Scale
			first = false
			continue
		}
		if e.Scale != scale {
			return ""
		}
	}
	return scale
}
