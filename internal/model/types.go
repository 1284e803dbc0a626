// Package model holds the entities produced by the setup stages and the
// State that owns them for a single load.
package model

import (
	"regexp"
	"strconv"
	"time"
)

// Unset marks a color channel that failed to parse.
const Unset = -1

// NoDuplicate is the ring link of a province outside any duplicate ring.
const NoDuplicate = -1

// Color is an RGB triple; each channel is 0-255 or Unset.
type Color struct {
	R, G, B int
}

// Valid reports whether every channel is in range.
func (c Color) Valid() bool {
	return inByte(c.R) && inByte(c.G) && inByte(c.B)
}

// String renders the color as r;g;b with ? for unset channels.
func (c Color) String() string {
	return channel(c.R) + ";" + channel(c.G) + ";" + channel(c.B)
}

func channel(v int) string {
	if v == Unset {
		return "?"
	}
	return strconv.Itoa(v)
}

func inByte(v int) bool { return v >= 0 && v <= 255 }

// ParseChannel parses a color channel strictly as a byte.
func ParseChannel(s string) (int, bool) {
	v, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return Unset, false
	}
	return int(v), true
}

// Names holds the name slots of a province.
type Names struct {
	Definition string // name column of definition.csv
	Localized  string // PROV<n> from localisation
	Dynamic    string // owner/culture override
	Alternate  string // sixth definition column
}

// Display picks the dynamic name, then the localized one, then the
// definition name.
func (n Names) Display() string {
	switch {
	case n.Dynamic != "":
		return n.Dynamic
	case n.Localized != "":
		return n.Localized
	default:
		return n.Definition
	}
}

// Province is one row of definition.csv plus resolved history.
type Province struct {
	Index   int
	Names   Names
	Color   Color
	Owner   *Country
	Visible bool
	RNW     bool
	// Next is the arena position of the next province with the same color,
	// or NoDuplicate.
	Next int
}

// Valid reports whether the province came from a parsed definition line.
func (p *Province) Valid() bool {
	return p != nil && p.Index >= 0
}

// Legal reports whether all color channels are in range.
func (p *Province) Legal() bool {
	return p.Color.Valid()
}

var rnwPattern = regexp.MustCompile(`^(?i:RNW|Unused\d+|UnusedLand\d+)$`)

// IsRNWName reports whether a definition name is a reserved placeholder.
func IsRNWName(name string) bool {
	return rnwPattern.MatchString(name)
}

// NameTable maps province indices to override names.
type NameTable map[int]string

// Lookup returns the override for index, if the table has one.
func (t NameTable) Lookup(index int) (string, bool) {
	if t == nil {
		return "", false
	}
	name, ok := t[index]
	return name, ok && name != ""
}

// Culture is a culture or, when Group is nil and IsGroup is set, a culture group.
type Culture struct {
	Name    string
	Group   *Culture
	IsGroup bool
	Names   NameTable
}

// Valid reports whether the culture has a name.
func (c *Culture) Valid() bool {
	return c != nil && c.Name != ""
}

// Country is a tag with its resolved primary culture.
type Country struct {
	Code    string
	Culture *Culture
	Names   NameTable
}

// Valid reports whether the country has a three-letter code.
func (c *Country) Valid() bool {
	return c != nil && len(c.Code) == 3
}

// Bookmark is a selectable start date.
type Bookmark struct {
	Code    string
	Date    time.Time
	Name    string
	Default bool
}

// Valid reports whether the bookmark has a code. Dates are checked when the
// bookmark is parsed.
func (b Bookmark) Valid() bool {
	return b.Code != ""
}

// ModDescriptor is the parsed descriptor.mod of a mod.
type ModDescriptor struct {
	Name             string
	Version          string
	SupportedVersion string
	ReplacePaths     []string
}

// Valid reports whether the descriptor names the mod.
func (m ModDescriptor) Valid() bool {
	return m.Name != ""
}
