package cache

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"

	"province-forge/internal/filewalker"
	"province-forge/internal/model"
	"province-forge/internal/textutil"
	"province-forge/internal/worker"

	"github.com/rs/zerolog/log"
)

// Store persists the indexer list of one source.
type Store interface {
	Load(ctx context.Context, source string) ([]Indexer, error)
	Save(ctx context.Context, source string, entries []Indexer) error
}

// Stats reports what a refresh did.
type Stats struct {
	Reused    int
	Rescanned int
	Dropped   int
	Failed    int
}

// LocalisationCache keeps localisation name tables keyed by path and
// modification time, re-scanning only files that changed.
type LocalisationCache struct {
	store   Store
	workers int
	scan    func(path string) (map[int]string, map[string]string, error)
}

// NewLocalisationCache creates a cache backed by store.
func NewLocalisationCache(store Store, workers int) *LocalisationCache {
	return &LocalisationCache{
		store:   store,
		workers: workers,
		scan:    scanFile,
	}
}

func scanFile(path string) (map[int]string, map[string]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read localisation: %w", err)
	}
	provinces, strings := scanText(textutil.Decode(raw))
	return provinces, strings, nil
}

// Refresh diffs files against the persisted index of source. A file is stale
// when its path is new or its modification time differs. Stale files are
// re-scanned in parallel and entries for vanished files are dropped. A stale
// file that fails to re-scan keeps its previous entry. The merged list is
// persisted.
func (c *LocalisationCache) Refresh(ctx context.Context, source string, files []filewalker.FileEntry) ([]Indexer, Stats, error) {
	var stats Stats

	persisted, err := c.store.Load(ctx, source)
	if err != nil {
		log.Warn().Err(err).Str("source", source).Msg("Failed to load localisation index, rebuilding")
		persisted = nil
	}
	byPath := make(map[string]Indexer, len(persisted))
	for _, ix := range persisted {
		byPath[ix.Path] = ix
	}

	var (
		mu     sync.Mutex
		merged = make([]Indexer, 0, len(files))
		stale  []filewalker.FileEntry
	)
	present := make(map[string]bool, len(files))
	for _, f := range files {
		present[f.Path] = true
		old, ok := byPath[f.Path]
		if ok && old.ModTime == f.ModTime.UnixNano() {
			merged = append(merged, old)
			stats.Reused++
			continue
		}
		stale = append(stale, f)
	}
	for path := range byPath {
		if !present[path] {
			stats.Dropped++
		}
	}

	pool := worker.NewPool("localisation", c.workers, func(ctx context.Context, f filewalker.FileEntry) (struct{}, error) {
		provinces, strings, err := c.scan(f.Path)
		if err != nil {
			if old, ok := byPath[f.Path]; ok {
				mu.Lock()
				merged = append(merged, old)
				mu.Unlock()
			}
			return struct{}{}, err
		}
		ix := Indexer{
			Path:          f.Path,
			ModTime:       f.ModTime.UnixNano(),
			Source:        source,
			ProvinceNames: provinces,
			Strings:       strings,
		}
		mu.Lock()
		merged = append(merged, ix)
		mu.Unlock()
		return struct{}{}, nil
	})
	tasks := pool.Execute(ctx, stale)
	stats.Rescanned = worker.Succeeded(tasks)
	stats.Failed = len(tasks) - stats.Rescanned

	sort.Slice(merged, func(i, j int) bool { return merged[i].Path < merged[j].Path })

	if err := c.store.Save(ctx, source, merged); err != nil {
		return merged, stats, fmt.Errorf("save localisation index: %w", err)
	}

	log.Info().
		Str("source", source).
		Int("reused", stats.Reused).
		Int("rescanned", stats.Rescanned).
		Int("dropped", stats.Dropped).
		Int("failed", stats.Failed).
		Msg("Refreshed localisation index")
	return merged, stats, nil
}

// ApplyNames copies indexed names into the state. Bookmark names are looked
// up by bookmark code. Game entries only fill empty slots; mod entries always
// overwrite. Pass game entries first.
func ApplyNames(state *model.State, entries []Indexer) {
	for _, ix := range entries {
		overwrite := !ix.FromGame()
		for index, name := range ix.ProvinceNames {
			p := state.Province(index)
			if p == nil || name == "" {
				continue
			}
			if overwrite || p.Names.Localized == "" {
				p.Names.Localized = name
			}
		}
		for i := range state.Bookmarks {
			b := &state.Bookmarks[i]
			name := ix.Strings[b.Code]
			if name == "" {
				continue
			}
			if overwrite || b.Name == "" {
				b.Name = name
			}
		}
	}
}
