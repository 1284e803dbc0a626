// Package gamedate parses the dotted dates used by game history files.
//
// time.Parse needs a four-digit year, so historical years 1-999 are parsed
// in extended mode: the literal year is shifted up by 1000, parsed, and the
// result shifted back.
package gamedate

import (
	"strconv"
	"strings"
	"time"
)

// Origin precedes every date the grammar accepts. History resolved at Origin
// yields only static values.
var Origin = time.Date(0, time.January, 1, 0, 0, 0, 0, time.UTC)

// layouts covers yyyy.M.dd, yyyy.MM.dd, yyyy.M.d and yyyy.MM.d.
var layouts = []string{
	"2006.1.02",
	"2006.01.02",
	"2006.1.2",
	"2006.01.2",
}

const yearShift = 1000

// Parse parses s against the accepted layouts. In extended mode the year is
// shifted to support years 1-999. ok is false when s is not a date.
func Parse(s string, extended bool) (t time.Time, ok bool) {
	s = strings.Trim(strings.TrimSpace(s), `"`)
	if !extended {
		return parseLayouts(s)
	}

	dot := strings.IndexByte(s, '.')
	if dot <= 0 {
		return time.Time{}, false
	}
	year, err := strconv.Atoi(s[:dot])
	if err != nil {
		return time.Time{}, false
	}
	t, ok = parseLayouts(strconv.Itoa(year+yearShift) + s[dot:])
	if !ok || t.Year() < yearShift {
		return time.Time{}, false
	}
	return t.AddDate(-yearShift, 0, 0), true
}

// ParseAuto parses s in extended mode only when its literal year lies in
// 1-999, the range time.Parse cannot read directly.
func ParseAuto(s string) (time.Time, bool) {
	s = strings.Trim(strings.TrimSpace(s), `"`)
	dot := strings.IndexByte(s, '.')
	if dot <= 0 {
		return time.Time{}, false
	}
	year, err := strconv.Atoi(s[:dot])
	if err != nil {
		return time.Time{}, false
	}
	return Parse(s, year >= 1 && year < yearShift)
}

// Format renders t in the game's yyyy.M.d form without zero padding.
func Format(t time.Time) string {
	return strconv.Itoa(t.Year()) + "." + strconv.Itoa(int(t.Month())) + "." + strconv.Itoa(t.Day())
}

func parseLayouts(s string) (time.Time, bool) {
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
