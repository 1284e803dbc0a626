// Package timeline resolves the value of a history attribute at a given date.
package timeline

import (
	"regexp"
	"strings"
	"time"

	"province-forge/internal/extract"
	"province-forge/internal/gamedate"
)

// Kind selects the attribute followed through a history file.
type Kind int

const (
	// Ownership follows `owner` in province history.
	Ownership Kind = iota
	// PrimaryCulture follows `primary_culture` in country history.
	PrimaryCulture
)

// Attribute returns the script key tracked for the kind.
func (k Kind) Attribute() string {
	switch k {
	case Ownership:
		return "owner"
	case PrimaryCulture:
		return "primary_culture"
	default:
		panic("timeline: unknown kind")
	}
}

// eventHeadPattern matches the `<date> = {` opening a dated block. The block
// body is delimited by brace counting, so nested blocks of any depth belong
// to it.
var eventHeadPattern = regexp.MustCompile(`(?:^|[^\w.\-])(-?\d{1,4}\.\d{1,2}\.\d{1,2})[ \t]*=[ \t]*\{`)

// block is one dated block: the raw date, its body, and its span in the text.
type block struct {
	date       string
	body       string
	start, end int
}

// eventBlocks returns the top-level dated blocks in file order. An unclosed
// block runs to the end of the text.
func eventBlocks(text string) []block {
	var blocks []block
	for pos := 0; pos < len(text); {
		loc := eventHeadPattern.FindStringSubmatchIndex(text[pos:])
		if loc == nil {
			break
		}
		open := pos + loc[1] - 1
		b := block{date: text[pos+loc[2] : pos+loc[3]], start: pos + loc[2]}
		if closing := extract.MatchingBrace(text, open); closing >= 0 {
			b.body, b.end = text[open+1:closing], closing+1
		} else {
			b.body, b.end = text[open+1:], len(text)
		}
		blocks = append(blocks, b)
		pos = b.end
	}
	return blocks
}

// Event is one dated assignment of the tracked attribute.
type Event struct {
	Date  time.Time
	Value string
}

// Events returns the dated blocks carrying the attribute, in file order.
// Blocks with unparseable dates are skipped.
func Events(text string, kind Kind) []Event {
	text = extract.StripComments(text)
	var events []Event
	for _, b := range eventBlocks(text) {
		value := extract.Value(b.body, kind.Attribute())
		if value == "" {
			continue
		}
		date, ok := gamedate.ParseAuto(b.date)
		if !ok {
			continue
		}
		events = append(events, Event{Date: date, Value: value})
	}
	return events
}

// AtDate returns the value of the latest event dated on or before ref. Blocks
// are walked in file order: a block dated before the current candidate is
// ignored, and the walk stops at the first block after ref.
func AtDate(text string, kind Kind, ref time.Time) (string, bool) {
	var (
		candidate Event
		found     bool
	)
	for _, ev := range Events(text, kind) {
		if ev.Date.After(ref) {
			break
		}
		if found && ev.Date.Before(candidate.Date) {
			continue
		}
		candidate, found = ev, true
	}
	return candidate.Value, found
}

// Static returns the top-level assignment of the attribute, ignoring every
// dated block. It is the day-one value of the history file.
func Static(text string, kind Kind) string {
	text = extract.StripComments(text)
	var top strings.Builder
	last := 0
	for _, b := range eventBlocks(text) {
		top.WriteString(text[last:b.start])
		top.WriteByte('\n')
		last = b.end
	}
	top.WriteString(text[last:])
	return extract.Value(top.String(), kind.Attribute())
}

// Resolve returns the value in effect at ref, falling back to the static
// assignment. It returns "" when neither yields a value.
func Resolve(text string, kind Kind, ref time.Time) string {
	if v, ok := AtDate(text, kind, ref); ok {
		return v
	}
	return Static(text, kind)
}
