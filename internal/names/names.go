// Package names computes province visibility and dynamic display names.
package names

import "province-forge/internal/model"

// Policy controls which provinces are shown.
type Policy struct {
	// ShowAll shows RNW and unnamed provinces too.
	ShowAll bool
}

// Lookup returns a province's dynamic name by cascading owner, then the
// owner's culture, then that culture's group. The first table with an entry
// wins.
func Lookup(owner *model.Country, index int) (string, bool) {
	if !owner.Valid() {
		return "", false
	}
	if name, ok := owner.Names.Lookup(index); ok {
		return name, true
	}
	culture := owner.Culture
	if !culture.Valid() {
		return "", false
	}
	if name, ok := culture.Names.Lookup(index); ok {
		return name, true
	}
	if culture.Group.Valid() {
		return culture.Group.Names.Lookup(index)
	}
	return "", false
}

// Apply recomputes visibility and dynamic names for every province in the
// state. RNW provinces are hidden first; visible owned provinces get their
// dynamic name; a province left without any name is hidden.
func Apply(state *model.State, policy Policy) (visible int) {
	for i := range state.Provinces {
		p := &state.Provinces[i]
		p.Names.Dynamic = ""
		p.Visible = policy.ShowAll || !p.RNW

		if p.Visible && p.Owner != nil {
			if name, ok := Lookup(p.Owner, p.Index); ok {
				p.Names.Dynamic = name
			}
		}
		if !policy.ShowAll && p.Names.Display() == "" {
			p.Visible = false
		}
		if p.Visible {
			visible++
		}
	}
	return visible
}
