package parser

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"province-forge/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

const germanicCultures = `germanic = {
	graphical_culture = westerngfx

	swedish = {
		primary = SWE
		dynasty_names = {
			Vasa Bonde
		}
		male_names = { Erik Karl }
	}
	danish = { primary = DAN }
	# norwegian = {
	male_names = { Olaf }
}
latin = {
	italian = {
	}
}
`

func TestParseCultures(t *testing.T) {
	cultures := ParseCultures(germanicCultures)

	byName := make(map[string]*model.Culture)
	for _, c := range cultures {
		byName[c.Name] = c
	}
	require.Len(t, byName, 5)

	require.True(t, byName["germanic"].IsGroup)
	assert.Nil(t, byName["germanic"].Group)
	assert.Same(t, byName["germanic"], byName["swedish"].Group)
	assert.Same(t, byName["germanic"], byName["danish"].Group)
	assert.Same(t, byName["latin"], byName["italian"].Group)
	assert.NotContains(t, byName, "norwegian")
	assert.NotContains(t, byName, "dynasty_names")
	assert.NotContains(t, byName, "male_names")
}

func TestParseBookmark(t *testing.T) {
	b, err := ParseBookmark(`bookmark = {
	name = "SPLENDOR_NAME"
	desc = "SPLENDOR_DESC"
	date = 1444.11.11
	default = yes
}`)
	require.NoError(t, err)
	assert.Equal(t, model.Bookmark{Code: "SPLENDOR_NAME", Date: date(1444, 11, 11), Default: true}, b)

	early, err := ParseBookmark("bookmark = { name = \"FALL_OF_ROME\" date = 476.9.4 }")
	require.NoError(t, err)
	assert.Equal(t, date(476, 9, 4), early.Date)
	assert.False(t, early.Default)

	_, err = ParseBookmark("bookmark = { name = \"BROKEN\" date = 1444.2.31 }")
	assert.ErrorIs(t, err, ErrRejected)

	first, err := ParseBookmark("bookmark = { name = \"YEAR_ONE\" date = 1.1.1 }")
	require.NoError(t, err)
	assert.Equal(t, date(1, 1, 1), first.Date)
}

func TestSortBookmarks(t *testing.T) {
	tests := []struct {
		name  string
		input []model.Bookmark
		want  []string
	}{
		{
			name: "ascending by date",
			input: []model.Bookmark{
				{Code: "B", Date: date(1618, 5, 23)},
				{Code: "A", Date: date(1444, 11, 11)},
			},
			want: []string{"A", "B"},
		},
		{
			name: "single default survives",
			input: []model.Bookmark{
				{Code: "GAME", Date: date(1444, 11, 11)},
				{Code: "MOD", Date: date(1444, 11, 11), Default: true},
			},
			want: []string{"MOD"},
		},
		{
			// Ambiguous groups are dropped entirely, not resolved.
			name: "no default drops the group",
			input: []model.Bookmark{
				{Code: "X", Date: date(1444, 11, 11)},
				{Code: "Y", Date: date(1444, 11, 11)},
				{Code: "Z", Date: date(1492, 1, 1)},
			},
			want: []string{"Z"},
		},
		{
			name: "two defaults drop the group",
			input: []model.Bookmark{
				{Code: "X", Date: date(1444, 11, 11), Default: true},
				{Code: "Y", Date: date(1444, 11, 11), Default: true},
			},
			want: []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SortBookmarks(tt.input)
			codes := make([]string, 0, len(got))
			for _, b := range got {
				codes = append(codes, b.Code)
			}
			assert.Equal(t, tt.want, codes)
		})
	}
}

func TestEarliest(t *testing.T) {
	earliest, ok := Earliest([]model.Bookmark{
		{Code: "A", Date: date(1444, 11, 11)},
		{Code: "B", Date: date(1399, 10, 14)},
		{Code: "C", Date: date(1, 1, 1)},
	})
	require.True(t, ok)
	assert.Equal(t, date(1, 1, 1), earliest)

	_, ok = Earliest(nil)
	assert.False(t, ok)
}

func TestCountryCode(t *testing.T) {
	tests := []struct {
		file string
		want string
		ok   bool
	}{
		{"SWE - Sweden.txt", "SWE", true},
		{"history/countries/D01-Dummy.txt", "D01", true},
		{"TUR.txt", "TUR", true},
		{"Sweden.txt", "", false},
	}
	for _, tt := range tests {
		got, ok := CountryCode(tt.file)
		assert.Equal(t, tt.ok, ok, tt.file)
		assert.Equal(t, tt.want, got, tt.file)
	}
}

func newLinkedState(t *testing.T) *model.State {
	t.Helper()
	state := model.NewState()
	for _, c := range ParseCultures(germanicCultures) {
		state.AddCulture(c)
	}
	state.SetProvinces([]model.Province{{Index: 1}, {Index: 2}, {Index: 3}})
	return state
}

func TestResolveCountriesAndOwnership(t *testing.T) {
	state := newLinkedState(t)

	countries := []HistoryRecord{
		{Key: "SWE", Text: "primary_culture = swedish\n1700.1.1 = { primary_culture = danish }\n"},
		{Key: "DAN", Text: "primary_culture = danish\n"},
		{Key: "GER", Text: "primary_culture = germanic\n"},
	}
	linked := ResolveCountries(state, countries, date(1444, 11, 11))
	assert.Equal(t, 2, linked)
	assert.Equal(t, "swedish", state.Country("SWE").Culture.Name)
	assert.Nil(t, state.Country("GER").Culture, "a culture group is never a primary culture")

	provinces := []HistoryRecord{
		{Key: "1", Text: "owner = SWE\n1523.6.6 = { owner = DAN }\n"},
		{Key: "2", Text: "owner = NOR\n"},
		{Key: "3", Text: "culture = swedish\n"},
		{Key: "99", Text: "owner = SWE\n"},
	}
	owned := ResolveOwnership(state, provinces, date(1600, 1, 1))
	assert.Equal(t, 1, owned)
	assert.Equal(t, "DAN", state.Province(1).Owner.Code)
	assert.Nil(t, state.Province(2).Owner)
	assert.Nil(t, state.Province(3).Owner)
}

func TestReadHistoryFiles(t *testing.T) {
	dir := t.TempDir()
	provincePath := filepath.Join(dir, "151 - Constantinople.txt")
	countryPath := filepath.Join(dir, "BYZ - Byzantium.txt")
	require.NoError(t, os.WriteFile(provincePath, []byte("owner = BYZ\n"), 0o644))
	require.NoError(t, os.WriteFile(countryPath, []byte("primary_culture = greek\n"), 0o644))

	rec, err := ReadProvinceHistory(provincePath)
	require.NoError(t, err)
	assert.Equal(t, "151", rec.Key)

	rec, err = ReadCountryHistory(countryPath)
	require.NoError(t, err)
	assert.Equal(t, "BYZ", rec.Key)

	_, err = ReadProvinceHistory(countryPath)
	assert.ErrorIs(t, err, ErrRejected)
}

func TestAttachNameTables(t *testing.T) {
	state := newLinkedState(t)
	state.AddCountry(&model.Country{Code: "SWE"})

	files := []NameFile{
		{Stem: "SWE", Table: ParseNameTable("1 = \"Stockholm\"\n")},
		{Stem: "swedish", Table: ParseNameTable("1 = \"Holm\"\n2 = \"Uppsala\"\n")},
		{Stem: "germanic", Table: ParseNameTable("2 = \"Upsala\"\n")},
		{Stem: "unknown", Table: ParseNameTable("3 = \"Nowhere\"\n")},
	}
	assert.Equal(t, 3, AttachNameTables(state, files))

	name, ok := state.Country("SWE").Names.Lookup(1)
	require.True(t, ok)
	assert.Equal(t, "Stockholm", name)

	scope, ok := ResolveScope(state, "germanic")
	require.True(t, ok)
	assert.IsType(t, GroupScope{}, scope)

	scope, ok = ResolveScope(state, "swedish")
	require.True(t, ok)
	assert.IsType(t, CultureScope{}, scope)
}

func TestMapFiles(t *testing.T) {
	dir := t.TempDir()

	mapPath := filepath.Join(dir, "default.map")
	original := "width = 5632\r\nheight = 2048\r\nmax_provinces = 4942\r\nsea_starts = { 1 2 }\r\n"
	require.NoError(t, os.WriteFile(mapPath, []byte(original), 0o644))

	n, err := ReadMaxProvinces(mapPath)
	require.NoError(t, err)
	assert.Equal(t, 4942, n)

	require.NoError(t, PatchMaxProvinces(mapPath, 5000))
	raw, err := os.ReadFile(mapPath)
	require.NoError(t, err)
	assert.Equal(t, "width = 5632\r\nheight = 2048\r\nmax_provinces = 5000\r\nsea_starts = { 1 2 }\r\n", string(raw))

	definesPath := filepath.Join(dir, "defines.lua")
	require.NoError(t, os.WriteFile(definesPath, []byte("NDefines = {\n\tNGame = {\n\t\tSTART_DATE = \"1444.11.11\",\n\t\tEND_DATE = \"1821.1.2\",\n"), 0o644))
	start, ok, err := ParseStartDate(definesPath)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, date(1444, 11, 11), start)

	descPath := filepath.Join(dir, "descriptor.mod")
	require.NoError(t, os.WriteFile(descPath, []byte("name = \"Extended Timeline\"\nversion = \"1.2\"\nsupported_version = \"1.37.*\"\nreplace_path = \"history/provinces\"\nreplace_path = \"common/bookmarks\"\n"), 0o644))
	desc, err := ParseDescriptor(descPath)
	require.NoError(t, err)
	assert.Equal(t, model.ModDescriptor{
		Name:             "Extended Timeline",
		Version:          "1.2",
		SupportedVersion: "1.37.*",
		ReplacePaths:     []string{"history/provinces", "common/bookmarks"},
	}, desc)
}

func TestPatchMaxProvinces_MissingLine(t *testing.T) {
	mapPath := filepath.Join(t.TempDir(), "default.map")
	require.NoError(t, os.WriteFile(mapPath, []byte("width = 1\n"), 0o644))
	assert.Error(t, PatchMaxProvinces(mapPath, 10))

	raw, err := os.ReadFile(mapPath)
	require.NoError(t, err)
	assert.Equal(t, "width = 1\n", string(raw))
}
