package parser

import (
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	"province-forge/internal/extract"
	"province-forge/internal/model"
	"province-forge/internal/timeline"

	"github.com/rs/zerolog/log"
)

var countryCodePattern = regexp.MustCompile(`^([A-Za-z0-9]{3})(?:\s|-|\.|$)`)

// HistoryRecord is the raw text of one history file, keyed by the province
// index or country code taken from its filename.
type HistoryRecord struct {
	Key  string
	Path string
	Text string
}

// CountryCode extracts the tag from a filename such as "SWE - Sweden.txt".
func CountryCode(filename string) (string, bool) {
	m := countryCodePattern.FindStringSubmatch(filepath.Base(filename))
	if m == nil {
		return "", false
	}
	return m[1], true
}

// ReadCountryHistory reads a history/countries file.
func ReadCountryHistory(path string) (HistoryRecord, error) {
	code, ok := CountryCode(path)
	if !ok {
		return HistoryRecord{}, rejectf("no country code in %s", filepath.Base(path))
	}
	text, err := readText(path)
	if err != nil {
		return HistoryRecord{}, err
	}
	return HistoryRecord{Key: code, Path: path, Text: text}, nil
}

// ReadProvinceHistory reads a history/provinces file.
func ReadProvinceHistory(path string) (HistoryRecord, error) {
	index, ok := extract.LeadingIndex(filepath.Base(path))
	if !ok {
		return HistoryRecord{}, rejectf("no province index in %s", filepath.Base(path))
	}
	text, err := readText(path)
	if err != nil {
		return HistoryRecord{}, err
	}
	return HistoryRecord{Key: index, Path: path, Text: text}, nil
}

// ResolveCountries registers one country per record with the primary culture
// in effect at ref. Group names never link as a primary culture.
func ResolveCountries(state *model.State, records []HistoryRecord, ref time.Time) int {
	linked := 0
	for _, rec := range records {
		country := &model.Country{Code: rec.Key}
		name := timeline.Resolve(rec.Text, timeline.PrimaryCulture, ref)
		if culture := state.Culture(name); culture != nil {
			country.Culture = culture
			linked++
		} else if name != "" {
			log.Debug().Str("country", rec.Key).Str("culture", name).Msg("Unknown primary culture")
		}
		state.AddCountry(country)
	}
	return linked
}

// ResolveOwnership links each province to the owner in effect at ref.
func ResolveOwnership(state *model.State, records []HistoryRecord, ref time.Time) int {
	linked := 0
	for _, rec := range records {
		index, err := strconv.Atoi(rec.Key)
		if err != nil {
			continue
		}
		code := timeline.Resolve(rec.Text, timeline.Ownership, ref)
		if code == "" {
			continue
		}
		owner := state.Country(code)
		if owner == nil {
			log.Debug().Int("province", index).Str("owner", code).Msg("Unknown owner")
			continue
		}
		if state.SetOwner(index, owner) {
			linked++
		}
	}
	return linked
}
