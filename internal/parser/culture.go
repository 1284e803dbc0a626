package parser

import (
	"strings"

	"province-forge/internal/extract"
	"province-forge/internal/model"
)

// nonCultureKeys are block keys inside culture files that never name a
// culture or a culture group.
var nonCultureKeys = map[string]bool{
	"graphical_culture":        true,
	"second_graphical_culture": true,
	"male_names":               true,
	"female_names":             true,
	"dynasty_names":            true,
	"country":                  true,
	"province":                 true,
}

// ParseCultures walks a culture file tracking brace depth. A depth-1 key
// opens a culture group and a depth-2 key under it is a culture.
func ParseCultures(text string) []*model.Culture {
	var (
		out   []*model.Culture
		group *model.Culture
		depth extract.DepthTracker
	)
	for _, line := range strings.Split(extract.StripComments(text), "\n") {
		key, opens := extract.BlockKey(line)
		level := depth.Depth() + 1
		if opens && !nonCultureKeys[key] {
			switch level {
			case 1:
				group = &model.Culture{Name: key, IsGroup: true}
				out = append(out, group)
			case 2:
				if group != nil {
					out = append(out, &model.Culture{Name: key, Group: group})
				}
			}
		}
		if depth.Feed(line) == 0 {
			group = nil
		}
	}
	return out
}

// ParseCultureFile reads one file of common/cultures.
func ParseCultureFile(path string) ([]*model.Culture, error) {
	text, err := readText(path)
	if err != nil {
		return nil, err
	}
	return ParseCultures(text), nil
}
