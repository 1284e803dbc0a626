package graph

import (
	"sort"

	"province-forge/internal/model"
)

// Rows holds the query parameters of one export.
type Rows struct {
	Provinces []map[string]any
	Countries []map[string]any
	Cultures  []map[string]any
}

// BuildRows flattens state into Cypher parameter rows, sorted by key so
// exports are deterministic.
func BuildRows(state *model.State) Rows {
	var rows Rows

	for i := range state.Provinces {
		p := &state.Provinces[i]
		owner := ""
		if p.Owner.Valid() {
			owner = p.Owner.Code
		}
		rows.Provinces = append(rows.Provinces, map[string]any{
			"index":   int64(p.Index),
			"name":    p.Names.Display(),
			"color":   p.Color.String(),
			"visible": p.Visible,
			"owner":   owner,
		})
	}

	codes := make([]string, 0, len(state.Countries))
	for code := range state.Countries {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	for _, code := range codes {
		c := state.Countries[code]
		culture := ""
		if c.Culture.Valid() {
			culture = c.Culture.Name
		}
		rows.Countries = append(rows.Countries, map[string]any{"code": code, "culture": culture})
	}

	names := make([]string, 0, len(state.Cultures))
	for name := range state.Cultures {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		c := state.Cultures[name]
		parent := ""
		if c.Group.Valid() {
			parent = c.Group.Name
		}
		rows.Cultures = append(rows.Cultures, map[string]any{"name": name, "parent": parent, "is_group": c.IsGroup})
	}
	return rows
}
