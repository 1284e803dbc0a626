// Package extract holds the stateless pattern matchers used to pull values out
// of Paradox script files.
package extract

import (
	"regexp"
	"strings"
	"sync"
)

var (
	// quotedPattern captures the contents of a double-quoted string.
	quotedPattern = regexp.MustCompile(`"([^"]*)"`)

	// indexPattern captures a leading province index.
	indexPattern = regexp.MustCompile(`^\s*(\d+)`)

	// indexedNamePattern matches `123 = "Name"` entries of a province-name table.
	indexedNamePattern = regexp.MustCompile(`(?m)^[ \t]*(\d+)[ \t]*=[ \t]*"([^"]*)"`)

	// assignmentLinePattern accepts a non-comment line containing an `=`.
	assignmentLinePattern = regexp.MustCompile(`^[ \t]*[^#\s][^#]*=`)

	// relaxedLinePattern accepts any non-comment, non-blank line.
	relaxedLinePattern = regexp.MustCompile(`^[ \t]*[^#\s]`)

	// blockKeyPattern captures the key of a `key = {` opener.
	blockKeyPattern = regexp.MustCompile(`^[ \t]*([A-Za-z0-9_\-\.]+)[ \t]*=[ \t]*\{`)
)

var assignmentCache sync.Map // key -> *regexp.Regexp

// Assignment returns the pattern for `key = value` on a line that is not
// commented out before the key. The value may be quoted.
func Assignment(key string) *regexp.Regexp {
	if re, ok := assignmentCache.Load(key); ok {
		return re.(*regexp.Regexp)
	}
	re := regexp.MustCompile(`(?m)^[^#\n]*?(?:^|[^A-Za-z0-9_#\n])` + regexp.QuoteMeta(key) +
		`[ \t]*=[ \t]*(?:"([^"\n]*)"|([^\s#{}"]+))`)
	actual, _ := assignmentCache.LoadOrStore(key, re)
	return actual.(*regexp.Regexp)
}

// Value returns the first value assigned to key in text, or "".
func Value(text, key string) string {
	m := Assignment(key).FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return firstNonEmpty(m[1:])
}

// Values returns every value assigned to key in text, in file order.
func Values(text, key string) []string {
	var out []string
	for _, m := range Assignment(key).FindAllStringSubmatch(text, -1) {
		out = append(out, firstNonEmpty(m[1:]))
	}
	return out
}

// Quoted returns the contents of the first quoted string in s.
func Quoted(s string) (string, bool) {
	m := quotedPattern.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// LeadingIndex returns the digits at the start of s, e.g. the province index in
// "123 - Name.txt".
func LeadingIndex(s string) (string, bool) {
	m := indexPattern.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// IndexedNames returns every `index = "name"` pair in text.
func IndexedNames(text string) [][2]string {
	var out [][2]string
	for _, m := range indexedNamePattern.FindAllStringSubmatch(StripComments(text), -1) {
		out = append(out, [2]string{m[1], m[2]})
	}
	return out
}

// Skippable reports whether a line carries no data. In strict mode a data line
// is a non-comment line containing `=`; relaxed mode accepts any non-comment,
// non-blank line.
func Skippable(line string, relaxed bool) bool {
	if relaxed {
		return !relaxedLinePattern.MatchString(line)
	}
	return !assignmentLinePattern.MatchString(line)
}

// BlockKey returns the key of a line opening a block (`key = {`).
func BlockKey(line string) (string, bool) {
	m := blockKeyPattern.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// StripComments removes `#` comments, leaving quoted strings intact.
func StripComments(text string) string {
	if !strings.Contains(text, "#") {
		return text
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = stripLineComment(line)
	}
	return strings.Join(lines, "\n")
}

func stripLineComment(line string) string {
	inQuote := false
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '"':
			inQuote = !inQuote
		case '#':
			if !inQuote {
				return line[:i]
			}
		}
	}
	return line
}

func firstNonEmpty(values []string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
