package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"province-forge/internal/cache"
	"province-forge/internal/gamedate"
	"province-forge/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func gameFixture(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, root, DefinitionPath, "province;red;green;blue;x;x\n"+
		"1;10;20;30;Stockholm;x\n"+
		"2;10;20;30;Uppland;x\n"+
		"3;40;50;60;RNW;x\n"+
		"4;40;50;60;RNW;x\n"+
		"5;abc;0;0;Broken;x\n")
	writeFile(t, root, DefaultMapPath, "max_provinces = 10\nsea_starts = { }\n")
	writeFile(t, root, DefinesPath, "NDefines = {\n\tNGame = {\n\t\tSTART_DATE = \"1444.11.11\",\n\t},\n}\n")
	writeFile(t, root, CulturesDir+"/00_cultures.txt", `germanic = {
	graphical_culture = northerngfx
	swedish = {
		primary = SWE
	}
	danish = {
	}
}
`)
	writeFile(t, root, BookmarksDir+"/a_splendor.txt", "bookmark = {\n\tname = \"SPLENDOR\"\n\tdate = 1444.11.11\n}\n")
	writeFile(t, root, BookmarksDir+"/b_late.txt", "bookmark = {\n\tname = \"LATE\"\n\tdate = 1600.1.1\n}\n")
	writeFile(t, root, CountryHistoryDir+"/SWE - Sweden.txt", "primary_culture = swedish\n")
	writeFile(t, root, CountryHistoryDir+"/DAN - Denmark.txt", "primary_culture = danish\n1500.1.1 = { primary_culture = swedish }\n")
	writeFile(t, root, ProvinceHistoryDir+"/1 - Stockholm.txt", "owner = SWE\n")
	writeFile(t, root, ProvinceHistoryDir+"/2 - Uppland.txt", "owner = DAN\n1600.1.1 = { owner = SWE }\n")
	writeFile(t, root, ProvinceNamesDir+"/swedish.txt", "1 = \"Holmia\"\n")
	writeFile(t, root, LocalisationDir+"/prov_names_l_english.yml",
		"\ufeffl_english:\n PROV1:0 \"Stockholm Loc\"\n PROV2:0 \"Uppland Loc\"\n SPLENDOR:0 \"Age of Splendor\"\n")
	writeFile(t, root, LocalisationDir+"/prov_names_l_french.yml", "l_french:\n PROV1:0 \"Stockholm FR\"\n")
	return root
}

func checkAll() Policies {
	return Policies{CheckDuplicates: true, ValidateColors: true}
}

func TestLoad_DerivedReferenceDate(t *testing.T) {
	res, err := Load(context.Background(), Options{GameDir: gameFixture(t), Policies: checkAll()})
	require.NoError(t, err)

	state := res.State
	assert.Equal(t, "1444.11.11", gamedate.Format(state.ReferenceDate))
	assert.Equal(t, 1, res.Rejected)
	assert.Equal(t, 4, res.Counts.Provinces)
	assert.Equal(t, 0, res.Counts.Illegal)
	assert.Equal(t, 10, res.Counts.MaxProvinces)

	p1 := state.Province(1)
	require.NotNil(t, p1.Owner)
	assert.Equal(t, "SWE", p1.Owner.Code)
	assert.Equal(t, "Holmia", p1.Names.Display())

	p2 := state.Province(2)
	require.NotNil(t, p2.Owner)
	assert.Equal(t, "DAN", p2.Owner.Code)
	assert.Equal(t, "danish", p2.Owner.Culture.Name)
	assert.Equal(t, "Uppland Loc", p2.Names.Display())

	assert.False(t, state.Province(3).Visible)
	assert.False(t, state.Province(4).Visible)
	assert.Equal(t, 2, res.Visible)
	assert.Equal(t, [][]int{{1, 2}}, res.Rings)

	require.Len(t, res.Bookmarks, 2)
	assert.Equal(t, "Age of Splendor", res.Bookmarks[0].Name)
	assert.Equal(t, "LATE", res.Bookmarks[1].Code)
	assert.Equal(t, cache.Stats{Rescanned: 1}, res.Localisation[cache.GameSource])
}

func TestReferenceDate(t *testing.T) {
	yearOne := time.Date(1, time.January, 1, 0, 0, 0, 0, time.UTC)
	bookmarks := []model.Bookmark{
		{Code: "ANTIQUITY", Date: yearOne},
		{Code: "SPLENDOR", Date: time.Date(1444, time.November, 11, 0, 0, 0, 0, time.UTC)},
	}

	ref, err := referenceDate("", bookmarks, time.Time{}, false)
	require.NoError(t, err)
	assert.Equal(t, yearOne, ref)

	ref, err = referenceDate("ANTIQUITY", bookmarks, time.Time{}, false)
	require.NoError(t, err)
	assert.Equal(t, yearOne, ref)

	ref, err = referenceDate("", nil, yearOne, true)
	require.NoError(t, err)
	assert.Equal(t, yearOne, ref)

	ref, err = referenceDate("", nil, time.Time{}, false)
	require.NoError(t, err)
	assert.Equal(t, gamedate.Origin, ref)

	_, err = referenceDate("MISSING", bookmarks, time.Time{}, false)
	assert.Error(t, err)
}

func TestLoad_SelectedBookmark(t *testing.T) {
	res, err := Load(context.Background(), Options{GameDir: gameFixture(t), BookmarkCode: "LATE", Policies: checkAll()})
	require.NoError(t, err)

	p2 := res.State.Province(2)
	require.NotNil(t, p2.Owner)
	assert.Equal(t, "SWE", p2.Owner.Code)
	assert.Equal(t, "swedish", res.State.Country("DAN").Culture.Name)
	assert.Equal(t, "Uppland Loc", p2.Names.Display())
}

func TestLoad_PolicyFlags(t *testing.T) {
	res, err := Load(context.Background(), Options{
		GameDir:  gameFixture(t),
		Policies: Policies{ShowAll: true, CheckDuplicates: true, ValidateColors: false},
	})
	require.NoError(t, err)

	assert.Equal(t, 0, res.Rejected)
	assert.Equal(t, 5, res.Counts.Provinces)
	assert.Equal(t, 1, res.Counts.Illegal)
	assert.Equal(t, [][]int{{1, 2}, {3, 4}}, res.Rings)

	visible, rings := ApplyPolicies(res.State, Policies{ShowAll: true, CheckDuplicates: true, IgnoreRNW: true})
	assert.Equal(t, 5, visible)
	assert.Equal(t, [][]int{{1, 2}}, rings)

	_, rings = ApplyPolicies(res.State, Policies{ShowAll: true})
	assert.Empty(t, rings)
}

func TestLoad_ModOverlay(t *testing.T) {
	game := gameFixture(t)
	mod := t.TempDir()
	writeFile(t, mod, DescriptorFile, "name = \"Test Mod\"\nreplace_path = \"history/provinces\"\n")
	writeFile(t, mod, ProvinceHistoryDir+"/1 - Stockholm.txt", "owner = DAN\n")
	writeFile(t, mod, LocalisationDir+"/replace/names_l_english.yml", "l_english:\n PROV1:0 \"Mod Stockholm\"\n")

	res, err := Load(context.Background(), Options{GameDir: game, ModDir: mod, Policies: checkAll()})
	require.NoError(t, err)

	assert.Equal(t, "Test Mod", res.State.Mod.Name)
	p1 := res.State.Province(1)
	require.NotNil(t, p1.Owner)
	assert.Equal(t, "DAN", p1.Owner.Code)
	assert.Equal(t, "Mod Stockholm", p1.Names.Display())
	assert.Nil(t, res.State.Province(2).Owner)

	assert.Equal(t, 1, res.Localisation[cache.GameSource].Rescanned)
	assert.Equal(t, 1, res.Localisation["Test Mod"].Rescanned)
	assert.Equal(t, filepath.Join(mod, "map", "definition.csv"), WriteTarget(Options{GameDir: game, ModDir: mod}, DefinitionPath))
}

func TestLoad_ReusesPersistedIndex(t *testing.T) {
	ctx := context.Background()
	store := cache.NewMemoryStore()
	opts := Options{GameDir: gameFixture(t), Store: store}

	_, err := Load(ctx, opts)
	require.NoError(t, err)
	res, err := Load(ctx, opts)
	require.NoError(t, err)
	assert.Equal(t, cache.Stats{Reused: 1}, res.Localisation[cache.GameSource])
	assert.Equal(t, "Uppland Loc", res.State.Province(2).Names.Localized)
}

func TestLoad_SwitchingModsKeepsGameIndex(t *testing.T) {
	ctx := context.Background()
	store := cache.NewMemoryStore()
	game := gameFixture(t)
	mod := t.TempDir()
	writeFile(t, mod, DescriptorFile, "name = \"Loc Mod\"\nreplace_path = \"localisation\"\n")
	writeFile(t, mod, LocalisationDir+"/mod_names_l_english.yml", "l_english:\n PROV1:0 \"Mod Stockholm\"\n")

	res, err := Load(ctx, Options{GameDir: game, Store: store})
	require.NoError(t, err)
	assert.Equal(t, cache.Stats{Rescanned: 1}, res.Localisation[cache.GameSource])

	res, err = Load(ctx, Options{GameDir: game, ModDir: mod, Store: store})
	require.NoError(t, err)
	assert.Equal(t, cache.Stats{Reused: 1}, res.Localisation[cache.GameSource])
	assert.Equal(t, cache.Stats{Rescanned: 1}, res.Localisation["Loc Mod"])
	assert.Equal(t, "Mod Stockholm", res.State.Province(1).Names.Localized)
	assert.Empty(t, res.State.Province(2).Names.Localized)
	for _, b := range res.State.Bookmarks {
		assert.Empty(t, b.Name, b.Code)
	}

	res, err = Load(ctx, Options{GameDir: game, Store: store})
	require.NoError(t, err)
	assert.Equal(t, cache.Stats{Reused: 1}, res.Localisation[cache.GameSource])
	assert.Equal(t, "Uppland Loc", res.State.Province(2).Names.Localized)
	assert.Equal(t, "Age of Splendor", res.State.Bookmarks[0].Name)
}

func TestLoad_HardFailures(t *testing.T) {
	tests := []struct {
		name   string
		remove string
		code   string
		reason Reason
	}{
		{name: "definition", remove: DefinitionPath, reason: ReasonDefinition},
		{name: "default map", remove: DefaultMapPath, reason: ReasonDefaultMap},
		{name: "province history", remove: ProvinceHistoryDir, reason: ReasonProvinceHistory},
		{name: "country history", remove: CountryHistoryDir, reason: ReasonCountryHistory},
		{name: "unknown bookmark", code: "NOPE", reason: ReasonBookmarks},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := gameFixture(t)
			if tt.remove != "" {
				require.NoError(t, os.RemoveAll(filepath.Join(root, filepath.FromSlash(tt.remove))))
			}

			res, err := Load(context.Background(), Options{GameDir: root, BookmarkCode: tt.code})
			require.Error(t, err)
			assert.Nil(t, res)

			var loadErr *LoadError
			require.True(t, errors.As(err, &loadErr))
			assert.Equal(t, tt.reason, loadErr.Reason)
		})
	}
}

func TestWriteBack(t *testing.T) {
	root := gameFixture(t)
	res, err := Load(context.Background(), Options{GameDir: root, Policies: checkAll()})
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "out", "definition.csv")
	require.NoError(t, WriteDefinition(res.State, out))
	raw, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "province;red;green;blue;x;x\r\n"+
		"1;10;20;30;Stockholm;x\r\n"+
		"2;10;20;30;Uppland;x\r\n"+
		"3;40;50;60;RNW;x\r\n"+
		"4;40;50;60;RNW;x\r\n", string(raw))

	require.NoError(t, SetMaxProvinces(res.State, res.DefaultMapFile, 42))
	assert.Equal(t, 42, res.State.MaxProvinces)
	raw, err = os.ReadFile(res.DefaultMapFile)
	require.NoError(t, err)
	assert.Equal(t, "max_provinces = 42\nsea_starts = { }\n", string(raw))

	assert.Error(t, SetMaxProvinces(res.State, res.DefaultMapFile, 0))
}
