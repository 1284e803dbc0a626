package extract

import "strings"

// DepthTracker follows `{`/`}` nesting line by line. A line holding both an
// opening and a closing brace is treated as self-contained and leaves the
// depth unchanged.
type DepthTracker struct {
	depth int
}

// Depth returns the nesting depth after the last fed line.
func (d *DepthTracker) Depth() int { return d.depth }

// Feed consumes one line (comments already stripped) and returns the depth
// after it.
func (d *DepthTracker) Feed(line string) int {
	opens := strings.Count(line, "{")
	closes := strings.Count(line, "}")
	if opens > 0 && closes > 0 {
		return d.depth
	}
	d.depth += opens - closes
	if d.depth < 0 {
		d.depth = 0
	}
	return d.depth
}

// MatchingBrace returns the index of the `}` closing the `{` at open, or -1
// when the block is never closed. Braces inside quoted strings are ignored.
func MatchingBrace(text string, open int) int {
	depth := 0
	inQuote := false
	for i := open; i < len(text); i++ {
		switch text[i] {
		case '"':
			inQuote = !inQuote
		case '{':
			if !inQuote {
				depth++
			}
		case '}':
			if inQuote {
				continue
			}
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
