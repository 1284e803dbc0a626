package parser

import (
	"path/filepath"
	"strconv"
	"strings"

	"province-forge/internal/extract"
	"province-forge/internal/model"
)

// Scope is the entity a province-name file belongs to. It is one of
// CountryScope, CultureScope or GroupScope.
type Scope interface {
	scope()
}

// CountryScope is a name table owned by a country tag.
type CountryScope struct{ Country *model.Country }

// CultureScope is a name table owned by a culture.
type CultureScope struct{ Culture *model.Culture }

// GroupScope is a name table owned by a culture group.
type GroupScope struct{ Group *model.Culture }

func (CountryScope) scope() {}
func (CultureScope) scope() {}
func (GroupScope) scope()   {}

// ResolveScope maps the stem of a province-name file to its owner: a known
// country tag first, then a culture or culture group by name.
func ResolveScope(state *model.State, stem string) (Scope, bool) {
	if c := state.Country(stem); c != nil {
		return CountryScope{Country: c}, true
	}
	c := state.CultureOrGroup(stem)
	if c == nil {
		return nil, false
	}
	if c.IsGroup {
		return GroupScope{Group: c}, true
	}
	return CultureScope{Culture: c}, true
}

// ParseNameTable reads `index = "name"` entries. Later entries for the same
// index win.
func ParseNameTable(text string) model.NameTable {
	table := make(model.NameTable)
	for _, pair := range extract.IndexedNames(text) {
		index, err := strconv.Atoi(pair[0])
		if err != nil {
			continue
		}
		table[index] = pair[1]
	}
	return table
}

// NameFile is a parsed common/province_names file.
type NameFile struct {
	Stem  string
	Table model.NameTable
}

// ReadNameFile reads one province-name file.
func ReadNameFile(path string) (NameFile, error) {
	text, err := readText(path)
	if err != nil {
		return NameFile{}, err
	}
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return NameFile{Stem: stem, Table: ParseNameTable(text)}, nil
}

// AttachNameTables attaches each table to its scope and returns how many
// found an owner. Must run after countries and cultures are registered.
func AttachNameTables(state *model.State, files []NameFile) int {
	attached := 0
	for _, f := range files {
		scope, ok := ResolveScope(state, f.Stem)
		if !ok {
			continue
		}
		switch s := scope.(type) {
		case CountryScope:
			s.Country.Names = f.Table
		case CultureScope:
			s.Culture.Names = f.Table
		case GroupScope:
			s.Group.Names = f.Table
		}
		attached++
	}
	return attached
}
