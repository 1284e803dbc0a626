package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"province-forge/internal/cache"
	"province-forge/internal/duplicates"
	"province-forge/internal/filewalker"
	"province-forge/internal/gamedate"
	"province-forge/internal/model"
	"province-forge/internal/names"
	"province-forge/internal/parser"
	"province-forge/internal/worker"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Relative paths under a game or mod root.
const (
	DefinitionPath     = "map/definition.csv"
	DefaultMapPath     = "map/default.map"
	DefinesPath        = "common/defines.lua"
	DescriptorFile     = "descriptor.mod"
	CulturesDir        = "common/cultures"
	BookmarksDir       = "common/bookmarks"
	CountryHistoryDir  = "history/countries"
	ProvinceHistoryDir = "history/provinces"
	ProvinceNamesDir   = "common/province_names"
	LocalisationDir    = "localisation"
)

// Policies are the caller's display and validation flags.
type Policies struct {
	ShowAll         bool
	CheckDuplicates bool
	ValidateColors  bool
	IgnoreRNW       bool
}

// Options configures one load.
type Options struct {
	GameDir string
	ModDir  string

	// BookmarkCode selects the reference date. Empty derives it from
	// defines.lua, then the earliest bookmark.
	BookmarkCode string

	Language string
	Workers  int
	Policies Policies

	// Store persists the localisation index. Nil keeps it in memory only.
	Store cache.Store
}

func (o Options) withDefaults() Options {
	if o.Language == "" {
		o.Language = "english"
	}
	if o.Store == nil {
		o.Store = cache.NewMemoryStore()
	}
	return o
}

// Result is everything a load resolves.
type Result struct {
	State     *model.State
	Bookmarks []model.Bookmark
	Counts    model.Counts
	Rings     [][]int
	Visible   int

	// Rejected counts definition lines that were skipped.
	Rejected int

	// DefinitionFile and DefaultMapFile are the files the load read.
	DefinitionFile string
	DefaultMapFile string

	Localisation map[string]cache.Stats
}

// inputs holds what the parallel read stage produced.
type inputs struct {
	definitionFile string
	provinces      []model.Province
	rejected       int

	defaultMapFile string
	maxProvinces   int

	startDate       time.Time
	hasStartDate    bool
	cultures        []*model.Culture
	bookmarks       []model.Bookmark
	countries       []parser.HistoryRecord
	provinceHistory []parser.HistoryRecord
	nameFiles       []parser.NameFile
}

// Load reads the game and optional mod roots and resolves ownership, names
// and duplicate rings at the selected reference date.
func Load(ctx context.Context, opts Options) (*Result, error) {
	opts = opts.withDefaults()
	start := time.Now()
	state := model.NewState()

	state.Mod = readDescriptor(opts.ModDir)
	w := filewalker.NewWalker(opts.GameDir, opts.ModDir, state.Mod.ReplacePaths)

	in, err := readInputs(ctx, w, opts)
	if err != nil {
		return nil, err
	}

	state.SetProvinces(in.provinces)
	state.MaxProvinces = in.maxProvinces
	state.StartDate = in.startDate
	for _, c := range in.cultures {
		state.AddCulture(c)
	}
	state.Bookmarks = parser.SortBookmarks(in.bookmarks)

	ref, err := referenceDate(opts.BookmarkCode, state.Bookmarks, state.StartDate, in.hasStartDate)
	if err != nil {
		return nil, fail(ReasonBookmarks, BookmarksDir, err)
	}
	state.ReferenceDate = ref

	linked := parser.ResolveCountries(state, in.countries, ref)
	attached := parser.AttachNameTables(state, in.nameFiles)
	owned := parser.ResolveOwnership(state, in.provinceHistory, ref)
	log.Info().
		Str("date", gamedate.Format(ref)).
		Int("countries", len(state.Countries)).
		Int("linked_cultures", linked).
		Int("name_tables", attached).
		Int("owned", owned).
		Msg("Resolved history")

	stats, err := loadLocalisation(ctx, w, state, opts)
	if err != nil {
		return nil, err
	}

	visible, rings := ApplyPolicies(state, opts.Policies)
	res := &Result{
		State:          state,
		Bookmarks:      state.Bookmarks,
		Counts:         state.Counts(),
		Rings:          rings,
		Visible:        visible,
		Rejected:       in.rejected,
		DefinitionFile: in.definitionFile,
		DefaultMapFile: in.defaultMapFile,
		Localisation:   stats,
	}

	log.Info().
		Int("provinces", res.Counts.Provinces).
		Int("illegal", res.Counts.Illegal).
		Int("visible", visible).
		Int("rings", len(rings)).
		Dur("elapsed", time.Since(start)).
		Msg("Load complete")
	return res, nil
}

// ApplyPolicies recomputes dynamic names, visibility and duplicate rings.
// Call it again whenever a policy changes.
func ApplyPolicies(state *model.State, p Policies) (visible int, rings [][]int) {
	visible = names.Apply(state, names.Policy{ShowAll: p.ShowAll})
	if p.CheckDuplicates {
		duplicates.Detect(state, duplicates.Options{IgnoreRNW: p.IgnoreRNW})
	} else {
		duplicates.Clear(state)
	}
	return visible, state.Rings()
}

func readDescriptor(modDir string) model.ModDescriptor {
	if modDir == "" {
		return model.ModDescriptor{}
	}
	desc, err := parser.ParseDescriptor(filepath.Join(modDir, DescriptorFile))
	if err != nil {
		log.Warn().Err(err).Str("mod", modDir).Msg("No usable descriptor.mod")
	}
	if desc.Name == "" {
		desc.Name = filepath.Base(filepath.Clean(modDir))
	}
	return desc
}

// readInputs reads every independent file set concurrently. Each branch
// writes only its own fields of in.
func readInputs(ctx context.Context, w *filewalker.Walker, opts Options) (*inputs, error) {
	var in inputs
	validate := opts.Policies.ValidateColors

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		path, ok := w.File(DefinitionPath)
		if !ok {
			return fail(ReasonDefinition, DefinitionPath, fs.ErrNotExist)
		}
		provinces, rejected, err := parser.ParseDefinitions(path, validate)
		if err != nil {
			return fail(ReasonDefinition, path, err)
		}
		in.definitionFile, in.provinces, in.rejected = path, provinces, rejected
		return nil
	})

	g.Go(func() error {
		path, ok := w.File(DefaultMapPath)
		if !ok {
			return fail(ReasonDefaultMap, DefaultMapPath, fs.ErrNotExist)
		}
		n, err := parser.ReadMaxProvinces(path)
		if err != nil {
			return fail(ReasonDefaultMap, path, err)
		}
		in.defaultMapFile, in.maxProvinces = path, n
		return nil
	})

	g.Go(func() error {
		path, ok := w.File(DefinesPath)
		if !ok {
			return nil
		}
		date, ok, err := parser.ParseStartDate(path)
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Failed to read defines")
			return nil
		}
		in.startDate, in.hasStartDate = date, ok
		return nil
	})

	g.Go(func() error {
		entries, err := optionalDir(w, CulturesDir)
		if err != nil {
			return fail(ReasonCultures, CulturesDir, err)
		}
		for _, list := range readAll(gctx, "cultures", opts.Workers, entries, parser.ParseCultureFile) {
			in.cultures = append(in.cultures, list...)
		}
		return nil
	})

	g.Go(func() error {
		entries, err := optionalDir(w, BookmarksDir)
		if err != nil {
			return fail(ReasonBookmarks, BookmarksDir, err)
		}
		in.bookmarks = readAll(gctx, "bookmarks", opts.Workers, entries, parser.ParseBookmarkFile)
		return nil
	})

	g.Go(func() error {
		entries, err := w.Dir(CountryHistoryDir, ".txt", false)
		if err != nil {
			return fail(ReasonCountryHistory, CountryHistoryDir, err)
		}
		in.countries = readAll(gctx, "country history", opts.Workers, entries, parser.ReadCountryHistory)
		return nil
	})

	g.Go(func() error {
		entries, err := w.Dir(ProvinceHistoryDir, ".txt", false)
		if err != nil {
			return fail(ReasonProvinceHistory, ProvinceHistoryDir, err)
		}
		in.provinceHistory = readAll(gctx, "province history", opts.Workers, entries, parser.ReadProvinceHistory)
		return nil
	})

	g.Go(func() error {
		entries, err := optionalDir(w, ProvinceNamesDir)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to list province names")
			return nil
		}
		in.nameFiles = readAll(gctx, "province names", opts.Workers, entries, parser.ReadNameFile)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	log.Info().
		Int("provinces", len(in.provinces)).
		Int("cultures", len(in.cultures)).
		Int("bookmarks", len(in.bookmarks)).
		Int("countries", len(in.countries)).
		Int("province_histories", len(in.provinceHistory)).
		Int("name_files", len(in.nameFiles)).
		Msg("Read game files")
	return &in, nil
}

// optionalDir lists a directory that may be absent from both layers.
func optionalDir(w *filewalker.Walker, rel string) ([]filewalker.FileEntry, error) {
	entries, err := w.Dir(rel, ".txt", false)
	if errors.Is(err, fs.ErrNotExist) {
		log.Debug().Str("dir", rel).Msg("Directory not present")
		return nil, nil
	}
	return entries, err
}

// readAll fans read out over entries and keeps the successful results in
// entry order. Failures are logged by the pool and skipped.
func readAll[R any](ctx context.Context, name string, workers int, entries []filewalker.FileEntry, read func(path string) (R, error)) []R {
	pool := worker.NewPool(name, workers, func(_ context.Context, e filewalker.FileEntry) (R, error) {
		return read(e.Path)
	})
	tasks := pool.Execute(ctx, entries)

	out := make([]R, 0, len(tasks))
	for _, t := range tasks {
		if t.OK() {
			out = append(out, t.Result)
		}
	}
	return out
}

// referenceDate picks the date history is resolved at: the selected
// bookmark, else START_DATE, else the earliest bookmark. Without any of them
// it returns gamedate.Origin, which leaves only static history in effect.
func referenceDate(code string, bookmarks []model.Bookmark, start time.Time, hasStart bool) (time.Time, error) {
	if code != "" {
		for _, b := range bookmarks {
			if b.Code == code {
				return b.Date, nil
			}
		}
		return gamedate.Origin, fmt.Errorf("unknown bookmark %q", code)
	}
	if hasStart {
		return start, nil
	}
	earliest, ok := parser.Earliest(bookmarks)
	if !ok {
		log.Warn().Msg("No start date or bookmark, using static history only")
		return gamedate.Origin, nil
	}
	return earliest, nil
}
