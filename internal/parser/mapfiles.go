package parser

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"

	"province-forge/internal/extract"
	"province-forge/internal/gamedate"
	"province-forge/internal/model"
)

var maxProvincesLine = regexp.MustCompile(`(?m)^([ \t]*max_provinces[ \t]*=[ \t]*)(\d+)`)

// ReadMaxProvinces returns the max_provinces value of default.map.
func ReadMaxProvinces(path string) (int, error) {
	text, err := readText(path)
	if err != nil {
		return 0, err
	}
	m := maxProvincesLine.FindStringSubmatch(text)
	if m == nil {
		return 0, fmt.Errorf("%s: max_provinces not found", path)
	}
	n, err := strconv.Atoi(m[2])
	if err != nil {
		return 0, fmt.Errorf("%s: max_provinces: %w", path, err)
	}
	return n, nil
}

// PatchMaxProvinces rewrites the max_provinces line of default.map in place,
// leaving every other byte untouched.
func PatchMaxProvinces(path string, n int) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	loc := maxProvincesLine.FindSubmatchIndex(raw)
	if loc == nil {
		return fmt.Errorf("%s: max_provinces not found", path)
	}

	patched := make([]byte, 0, len(raw)+4)
	patched = append(patched, raw[:loc[4]]...)
	patched = strconv.AppendInt(patched, int64(n), 10)
	patched = append(patched, raw[loc[5]:]...)
	return writeAtomic(path, patched)
}

// ParseStartDate returns START_DATE from defines.lua. ok is false when the
// file has no usable START_DATE.
func ParseStartDate(path string) (start time.Time, ok bool, err error) {
	text, err := readText(path)
	if err != nil {
		return time.Time{}, false, err
	}
	start, ok = gamedate.ParseAuto(extract.Value(text, "START_DATE"))
	return start, ok, nil
}

// ParseDescriptor reads a mod's descriptor.mod.
func ParseDescriptor(path string) (model.ModDescriptor, error) {
	text, err := readText(path)
	if err != nil {
		return model.ModDescriptor{}, err
	}
	text = extract.StripComments(text)
	return model.ModDescriptor{
		Name:             extract.Value(text, "name"),
		Version:          extract.Value(text, "version"),
		SupportedVersion: extract.Value(text, "supported_version"),
		ReplacePaths:     extract.Values(text, "replace_path"),
	}, nil
}
