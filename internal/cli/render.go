package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"province-forge/internal/gamedate"
	"province-forge/internal/model"
	"province-forge/internal/pipeline"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

func renderSummary(res *pipeline.Result) string {
	var b strings.Builder
	title := "Resolved at " + gamedate.Format(res.State.ReferenceDate)
	if res.State.ReferenceDate.Equal(gamedate.Origin) {
		title = "Resolved from static history"
	}
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")
	if res.State.Mod.Valid() {
		fmt.Fprintf(&b, "Mod:           %s %s\n", res.State.Mod.Name, res.State.Mod.Version)
	}
	fmt.Fprintf(&b, "Provinces:     %s (%s visible, %s illegal, %s rejected)\n",
		humanize.Comma(int64(res.Counts.Provinces)),
		humanize.Comma(int64(res.Visible)),
		humanize.Comma(int64(res.Counts.Illegal)),
		humanize.Comma(int64(res.Rejected)))
	fmt.Fprintf(&b, "Max provinces: %s\n", humanize.Comma(int64(res.Counts.MaxProvinces)))
	fmt.Fprintf(&b, "Countries:     %s\n", humanize.Comma(int64(len(res.State.Countries))))
	fmt.Fprintf(&b, "Cultures:      %s\n", humanize.Comma(int64(len(res.State.Cultures))))
	fmt.Fprintf(&b, "Duplicates:    %s rings", humanize.Comma(int64(len(res.Rings))))
	for source, s := range res.Localisation {
		b.WriteString("\n")
		b.WriteString(mutedStyle.Render(fmt.Sprintf("Localisation %s: %d reused, %d rescanned, %d dropped, %d failed",
			source, s.Reused, s.Rescanned, s.Dropped, s.Failed)))
	}
	return b.String()
}

func renderBookmarks(bookmarks []model.Bookmark, ref time.Time) string {
	t := newTable("", "CODE", "DATE", "NAME")
	for _, bm := range bookmarks {
		marker := ""
		if bm.Date.Equal(ref) {
			marker = "*"
		}
		t.Row(marker, bm.Code, gamedate.Format(bm.Date), bm.Name)
	}
	return t.Render()
}

// renderProvinces lists visible provinces, optionally only those of one
// owner tag.
func renderProvinces(provinces []model.Province, owner string) string {
	t := newTable("INDEX", "COLOR", "NAME", "OWNER", "CULTURE")
	for i := range provinces {
		p := &provinces[i]
		if !p.Visible {
			continue
		}
		code, culture := "", ""
		if p.Owner.Valid() {
			code = p.Owner.Code
			if p.Owner.Culture.Valid() {
				culture = p.Owner.Culture.Name
			}
		}
		if owner != "" && !strings.EqualFold(code, owner) {
			continue
		}
		t.Row(strconv.Itoa(p.Index), p.Color.String(), p.Names.Display(), code, culture)
	}
	return t.Render()
}

func renderRings(state *model.State, rings [][]int) string {
	t := newTable("COLOR", "PROVINCES")
	for _, ring := range rings {
		if len(ring) == 0 {
			continue
		}
		parts := make([]string, 0, len(ring)+1)
		for _, index := range ring {
			parts = append(parts, strconv.Itoa(index))
		}
		parts = append(parts, parts[0])
		t.Row(state.Province(ring[0]).Color.String(), strings.Join(parts, " -> "))
	}
	return t.Render()
}
