package cache

import (
	"regexp"
	"strconv"
)

// GameSource tags entries indexed from the base game.
const GameSource = "Game"

// Indexer is the cached name table of one localisation file. It is rebuilt
// only when the file's path or modification time changes.
type Indexer struct {
	Path          string            `json:"path"`
	ModTime       int64             `json:"mod_time"` // unix nanoseconds
	Source        string            `json:"source"`
	ProvinceNames map[int]string    `json:"province_names"`
	Strings       map[string]string `json:"strings"` // non-province keys
}

// FromGame reports whether the entry was indexed from the base game.
func (ix Indexer) FromGame() bool { return ix.Source == GameSource }

// localisationLine matches ` KEY:0 "value"` entries of a yml localisation file.
var localisationLine = regexp.MustCompile(`(?m)^[ \t]*([A-Za-z0-9_.\-]+):\d*[ \t]+"(.*)"`)

var provinceKey = regexp.MustCompile(`^PROV(\d+)$`)

// scanText splits a localisation file into PROV<n> names and every other
// key, so bookmark names can be picked by code when applied.
func scanText(text string) (map[int]string, map[string]string) {
	provinces := make(map[int]string)
	strings := make(map[string]string)
	for _, m := range localisationLine.FindAllStringSubmatch(text, -1) {
		key, value := m[1], m[2]
		if pm := provinceKey.FindStringSubmatch(key); pm != nil {
			if index, err := strconv.Atoi(pm[1]); err == nil {
				provinces[index] = value
			}
			continue
		}
		strings[key] = value
	}
	return provinces, strings
}
