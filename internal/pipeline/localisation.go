package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"province-forge/internal/cache"
	"province-forge/internal/filewalker"
	"province-forge/internal/model"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// loadLocalisation refreshes the game and mod indexes side by side, then
// applies game names before mod names. The game index covers the whole game
// layer so it survives switching mods; the mod overlay is applied here.
func loadLocalisation(ctx context.Context, w *filewalker.Walker, state *model.State, opts Options) (map[string]cache.Stats, error) {
	lc := cache.NewLocalisationCache(opts.Store, opts.Workers)
	suffix := "_l_" + strings.ToLower(opts.Language) + ".yml"

	var (
		gameFiles               []filewalker.FileEntry
		gameEntries, modEntries []cache.Indexer
		gameStats, modStats     cache.Stats
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		gameFiles, err = listLayer(w.Unfiltered, filewalker.Game, suffix)
		if err != nil {
			return err
		}
		gameEntries, gameStats = refreshLayer(gctx, lc, cache.GameSource, gameFiles)
		return nil
	})
	if w.HasMod() {
		g.Go(func() error {
			files, err := listLayer(w.Layer, filewalker.Mod, suffix)
			if err != nil {
				return err
			}
			modEntries, modStats = refreshLayer(gctx, lc, state.Mod.Name, files)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	cache.ApplyNames(state, visibleGameEntries(w, gameFiles, gameEntries))
	cache.ApplyNames(state, modEntries)

	stats := map[string]cache.Stats{cache.GameSource: gameStats}
	if w.HasMod() {
		stats[state.Mod.Name] = modStats
	}
	return stats, nil
}

type lister func(rel, suffix string, recursive bool, layer filewalker.Layer) ([]filewalker.FileEntry, error)

func listLayer(list lister, layer filewalker.Layer, suffix string) ([]filewalker.FileEntry, error) {
	files, err := list(LocalisationDir, suffix, true, layer)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("list %s localisation: %w", layer, err)
	}
	return files, nil
}

func refreshLayer(ctx context.Context, lc *cache.LocalisationCache, source string, files []filewalker.FileEntry) ([]cache.Indexer, cache.Stats) {
	entries, stats, err := lc.Refresh(ctx, source, files)
	if err != nil {
		// The fresh entries are still usable; only persistence failed.
		log.Warn().Err(err).Str("source", source).Msg("Localisation index not persisted")
	}
	return entries, stats
}

// visibleGameEntries drops entries of game files the mod shadows or hides
// through replace_path.
func visibleGameEntries(w *filewalker.Walker, files []filewalker.FileEntry, entries []cache.Indexer) []cache.Indexer {
	if !w.HasMod() {
		return entries
	}
	hidden := make(map[string]bool)
	for _, f := range files {
		if w.Shadowed(f.Rel) {
			hidden[f.Path] = true
		}
	}
	if len(hidden) == 0 {
		return entries
	}
	visible := make([]cache.Indexer, 0, len(entries))
	for _, ix := range entries {
		if !hidden[ix.Path] {
			visible = append(visible, ix)
		}
	}
	log.Debug().Int("hidden", len(hidden)).Msg("Mod hides game localisation files")
	return visible
}
