package model

import (
	"sort"
	"sync"
	"time"
)

// State owns every entity of one load. Stages receive it explicitly; the
// mutex guards the collections written by parallel fan-out.
type State struct {
	mu sync.Mutex

	// Provinces is the arena, ordered by index. Ring links point into it.
	Provinces []Province
	position  map[int]int

	Countries map[string]*Country
	Cultures  map[string]*Culture
	Bookmarks []Bookmark

	Mod           ModDescriptor
	StartDate     time.Time
	ReferenceDate time.Time
	MaxProvinces  int
}

// NewState returns an empty state.
func NewState() *State {
	return &State{
		position:  make(map[int]int),
		Countries: make(map[string]*Country),
		Cultures:  make(map[string]*Culture),
	}
}

// SetProvinces installs the arena, keeping the first occurrence of each index.
func (s *State) SetProvinces(provinces []Province) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[int]bool, len(provinces))
	arena := make([]Province, 0, len(provinces))
	for _, p := range provinces {
		if seen[p.Index] {
			continue
		}
		seen[p.Index] = true
		p.Next = NoDuplicate
		arena = append(arena, p)
	}
	sort.SliceStable(arena, func(i, j int) bool { return arena[i].Index < arena[j].Index })

	s.Provinces = arena
	s.position = make(map[int]int, len(arena))
	for i := range arena {
		s.position[arena[i].Index] = i
	}
}

// Province returns the province with the given index, or nil.
func (s *State) Province(index int) *Province {
	pos, ok := s.position[index]
	if !ok {
		return nil
	}
	return &s.Provinces[pos]
}

// SetOwner links a province to its owner under the state lock.
func (s *State) SetOwner(index int, owner *Country) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.Province(index)
	if p == nil {
		return false
	}
	p.Owner = owner
	return true
}

// AddCountry registers a country; a later file with the same code replaces it.
func (s *State) AddCountry(c *Country) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Countries[c.Code] = c
}

// AddCulture registers a culture or culture group.
func (s *State) AddCulture(c *Culture) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Cultures[c.Name] = c
}

// Culture returns a non-group culture by name.
func (s *State) Culture(name string) *Culture {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.Cultures[name]
	if c == nil || c.IsGroup {
		return nil
	}
	return c
}

// CultureOrGroup returns a culture or culture group by name.
func (s *State) CultureOrGroup(name string) *Culture {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Cultures[name]
}

// Country returns a country by code.
func (s *State) Country(code string) *Country {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Countries[code]
}

// Counts summarises the arena.
type Counts struct {
	Provinces    int
	Illegal      int
	MaxProvinces int
}

// Counts returns the province, illegal and max-province counts.
func (s *State) Counts() Counts {
	c := Counts{Provinces: len(s.Provinces), MaxProvinces: s.MaxProvinces}
	for i := range s.Provinces {
		if !s.Provinces[i].Legal() {
			c.Illegal++
		}
	}
	return c
}

// Rings returns each duplicate-color ring as province indices, starting from
// its lowest member.
func (s *State) Rings() [][]int {
	var rings [][]int
	for i := range s.Provinces {
		p := &s.Provinces[i]
		if p.Next == NoDuplicate || p.Next < i {
			continue
		}
		// A ring is reported from its first arena member only.
		first := true
		for j := p.Next; j != i; j = s.Provinces[j].Next {
			if j < i {
				first = false
				break
			}
		}
		if !first {
			continue
		}
		ring := []int{p.Index}
		for j := p.Next; j != i; j = s.Provinces[j].Next {
			ring = append(ring, s.Provinces[j].Index)
		}
		rings = append(rings, ring)
	}
	return rings
}
