package parser

import (
	"strconv"
	"strings"

	"province-forge/internal/model"
	"province-forge/internal/textutil"

	"github.com/rs/zerolog/log"
)

const definitionHeader = "province;red;green;blue;x;x"

// ParseDefinitionLine parses `index;R;G;B;name;alternate`. With validate set,
// a bad color channel rejects the line; otherwise it is stored as Unset.
func ParseDefinitionLine(line string, validate bool) (model.Province, error) {
	cols := strings.Split(strings.TrimRight(line, "\r\n"), ";")
	if len(cols) < 4 {
		return model.Province{}, rejectf("too few columns in %q", line)
	}

	index, err := strconv.Atoi(strings.TrimSpace(cols[0]))
	if err != nil || index < 0 {
		return model.Province{}, rejectf("non-numeric index %q", cols[0])
	}

	var channels [3]int
	for i := range channels {
		v, ok := model.ParseChannel(strings.TrimSpace(cols[i+1]))
		if !ok && validate {
			return model.Province{}, rejectf("province %d: bad color channel %q", index, cols[i+1])
		}
		channels[i] = v
	}

	p := model.Province{
		Index: index,
		Color: model.Color{R: channels[0], G: channels[1], B: channels[2]},
		Next:  model.NoDuplicate,
	}
	if len(cols) > 4 {
		p.Names.Definition = strings.TrimSpace(cols[4])
	}
	if len(cols) > 5 {
		if alt := strings.TrimSpace(cols[5]); alt != "x" {
			p.Names.Alternate = alt
		}
	}
	p.RNW = model.IsRNWName(p.Names.Definition)
	return p, nil
}

// ParseDefinitions reads definition.csv. Rejected lines are counted and
// skipped; the header line is rejected like any non-numeric index.
func ParseDefinitions(path string, validate bool) ([]model.Province, int, error) {
	text, err := readText(path)
	if err != nil {
		return nil, 0, err
	}

	var (
		provinces []model.Province
		rejected  int
	)
	for n, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		p, err := ParseDefinitionLine(line, validate)
		if err != nil {
			if n > 0 {
				rejected++
				log.Debug().Err(err).Int("line", n+1).Str("text", textutil.Truncate(line, 60)).Msg("Skipping definition line")
			}
			continue
		}
		provinces = append(provinces, p)
	}

	log.Info().Int("provinces", len(provinces)).Int("rejected", rejected).Str("path", path).Msg("Parsed definitions")
	return provinces, rejected, nil
}

// FormatDefinitionLine renders `index;R;G;B;name;suffix`. The suffix is the
// alternate name, else `x` for a legal province, else empty.
func FormatDefinitionLine(p model.Province) string {
	suffix := ""
	switch {
	case p.Names.Alternate != "":
		suffix = p.Names.Alternate
	case p.Legal():
		suffix = "x"
	}
	return strings.Join([]string{
		strconv.Itoa(p.Index),
		formatChannel(p.Color.R),
		formatChannel(p.Color.G),
		formatChannel(p.Color.B),
		p.Names.Definition,
		suffix,
	}, ";")
}

func formatChannel(v int) string {
	if v == model.Unset {
		return ""
	}
	return strconv.Itoa(v)
}

// WriteDefinitions regenerates definition.csv in the game's encoding.
func WriteDefinitions(path string, provinces []model.Province) error {
	var b strings.Builder
	b.WriteString(definitionHeader)
	b.WriteString("\r\n")
	for _, p := range provinces {
		b.WriteString(FormatDefinitionLine(p))
		b.WriteString("\r\n")
	}
	if err := writeAtomic(path, textutil.EncodeLegacy(b.String())); err != nil {
		return err
	}
	log.Info().Int("provinces", len(provinces)).Str("path", path).Msg("Wrote definitions")
	return nil
}
