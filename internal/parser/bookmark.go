package parser

import (
	"sort"
	"time"

	"province-forge/internal/extract"
	"province-forge/internal/gamedate"
	"province-forge/internal/model"
)

// ParseBookmark extracts the code, start date and default flag of a bookmark
// file. Years 1-999 are read in extended mode.
func ParseBookmark(text string) (model.Bookmark, error) {
	text = extract.StripComments(text)
	b := model.Bookmark{
		Code:    extract.Value(text, "name"),
		Default: extract.Value(text, "default") == "yes",
	}
	if !b.Valid() {
		return model.Bookmark{}, rejectf("bookmark has no name")
	}
	date, ok := gamedate.ParseAuto(extract.Value(text, "date"))
	if !ok {
		return model.Bookmark{}, rejectf("bookmark %q has no usable date", b.Code)
	}
	b.Date = date
	return b, nil
}

// ParseBookmarkFile reads one file of common/bookmarks.
func ParseBookmarkFile(path string) (model.Bookmark, error) {
	text, err := readText(path)
	if err != nil {
		return model.Bookmark{}, err
	}
	return ParseBookmark(text)
}

// SortBookmarks groups bookmarks by date and orders the groups ascending.
// A group with several members keeps only its default bookmark when exactly
// one is flagged; otherwise the whole group is dropped as ambiguous.
func SortBookmarks(bookmarks []model.Bookmark) []model.Bookmark {
	sorted := append([]model.Bookmark(nil), bookmarks...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	out := make([]model.Bookmark, 0, len(sorted))
	for start := 0; start < len(sorted); {
		end := start + 1
		for end < len(sorted) && sorted[end].Date.Equal(sorted[start].Date) {
			end++
		}
		group := sorted[start:end]
		start = end

		if len(group) == 1 {
			out = append(out, group[0])
			continue
		}
		var defaults []model.Bookmark
		for _, b := range group {
			if b.Default {
				defaults = append(defaults, b)
			}
		}
		if len(defaults) == 1 {
			out = append(out, defaults[0])
		}
	}
	return out
}

// Earliest returns the first bookmark date. ok is false for an empty list.
func Earliest(bookmarks []model.Bookmark) (earliest time.Time, ok bool) {
	for _, b := range bookmarks {
		if !ok || b.Date.Before(earliest) {
			earliest, ok = b.Date, true
		}
	}
	return earliest, ok
}
