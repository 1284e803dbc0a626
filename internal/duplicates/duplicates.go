// Package duplicates links provinces that share a color into rings.
package duplicates

import "province-forge/internal/model"

// Options selects which provinces take part in detection.
type Options struct {
	// IgnoreRNW leaves RNW placeholder provinces out of every ring.
	IgnoreRNW bool
}

// Detect clears every ring link, then partitions visible provinces with a
// valid color by exact RGB and links each partition of two or more into a
// ring in arena order, the last member pointing back to the first. It
// returns the number of rings.
func Detect(state *model.State, opts Options) int {
	provinces := state.Provinces
	for i := range provinces {
		provinces[i].Next = model.NoDuplicate
	}

	classes := make(map[model.Color][]int)
	var order []model.Color
	for i := range provinces {
		p := &provinces[i]
		if !p.Visible || !p.Legal() || (opts.IgnoreRNW && p.RNW) {
			continue
		}
		if _, ok := classes[p.Color]; !ok {
			order = append(order, p.Color)
		}
		classes[p.Color] = append(classes[p.Color], i)
	}

	rings := 0
	for _, color := range order {
		members := classes[color]
		if len(members) < 2 {
			continue
		}
		for k, pos := range members {
			provinces[pos].Next = members[(k+1)%len(members)]
		}
		rings++
	}
	return rings
}

// Clear removes every ring link, for when duplicate checking is turned off.
func Clear(state *model.State) {
	for i := range state.Provinces {
		state.Provinces[i].Next = model.NoDuplicate
	}
}
