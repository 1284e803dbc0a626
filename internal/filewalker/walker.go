package filewalker

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Layer identifies which root a file came from.
type Layer int

const (
	// Game is the base game installation.
	Game Layer = iota
	// Mod is the active mod, which overrides the game.
	Mod
)

func (l Layer) String() string {
	switch l {
	case Game:
		return "game"
	case Mod:
		return "mod"
	default:
		return fmt.Sprintf("layer(%d)", int(l))
	}
}

// FileEntry represents a discovered file ready for processing.
type FileEntry struct {
	Path    string
	Rel     string // slash-separated path relative to its root
	Layer   Layer
	ModTime time.Time
}

// Walker resolves relative game paths against the game root and an optional
// mod root. A mod file replaces the game file with the same relative path,
// and directories named in replacePaths hide the game directory entirely.
type Walker struct {
	gameDir      string
	modDir       string
	replacePaths []string
}

// NewWalker creates a Walker. modDir may be empty.
func NewWalker(gameDir, modDir string, replacePaths []string) *Walker {
	clean := make([]string, 0, len(replacePaths))
	for _, p := range replacePaths {
		p = strings.Trim(filepath.ToSlash(p), "/")
		if p != "" {
			clean = append(clean, p)
		}
	}
	return &Walker{gameDir: gameDir, modDir: modDir, replacePaths: clean}
}

// HasMod reports whether a mod root is configured.
func (w *Walker) HasMod() bool { return w.modDir != "" }

// ModDir returns the mod root.
func (w *Walker) ModDir() string { return w.modDir }

// File resolves a single relative file, preferring the mod's copy.
func (w *Walker) File(rel string) (string, bool) {
	if w.modDir != "" {
		p := filepath.Join(w.modDir, filepath.FromSlash(rel))
		if isFile(p) {
			return p, true
		}
	}
	if w.replaced(rel) {
		return "", false
	}
	p := filepath.Join(w.gameDir, filepath.FromSlash(rel))
	return p, isFile(p)
}

// Dir lists the merged files of a relative directory whose names end with
// suffix. It fails with fs.ErrNotExist if no layer has the directory.
func (w *Walker) Dir(rel, suffix string, recursive bool) ([]FileEntry, error) {
	merged := make(map[string]FileEntry)
	found := false

	for _, layer := range []Layer{Game, Mod} {
		entries, err := w.Layer(rel, suffix, recursive, layer)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		found = true
		for _, e := range entries {
			merged[e.Rel] = e
		}
	}
	if !found {
		return nil, fmt.Errorf("directory %s: %w", rel, fs.ErrNotExist)
	}

	out := make([]FileEntry, 0, len(merged))
	for _, e := range merged {
		out = append(out, e)
	}
	sortEntries(out)
	return out, nil
}

// Layer lists one layer of a relative directory. Game files shadowed by a mod
// file or hidden by replace_path are left out.
func (w *Walker) Layer(rel, suffix string, recursive bool, layer Layer) ([]FileEntry, error) {
	return w.list(rel, suffix, recursive, layer, true)
}

// Unfiltered lists one layer of a relative directory as it is on disk,
// ignoring the mod overlay. Callers that cache per-layer results apply the
// overlay themselves with Shadowed.
func (w *Walker) Unfiltered(rel, suffix string, recursive bool, layer Layer) ([]FileEntry, error) {
	return w.list(rel, suffix, recursive, layer, false)
}

func (w *Walker) list(rel, suffix string, recursive bool, layer Layer, overlay bool) ([]FileEntry, error) {
	root := w.gameDir
	if layer == Mod {
		if w.modDir == "" {
			return nil, fmt.Errorf("no mod configured: %w", fs.ErrNotExist)
		}
		root = w.modDir
	} else if overlay && w.replaced(rel) {
		return nil, fmt.Errorf("directory %s replaced by mod: %w", rel, fs.ErrNotExist)
	}

	dir := filepath.Join(root, filepath.FromSlash(rel))
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s: %w", dir, fs.ErrNotExist)
	}

	var entries []FileEntry
	err = filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Error walking path")
			return nil
		}
		if info.IsDir() {
			if path != dir && !recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(strings.ToLower(info.Name()), suffix) {
			return nil
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		relPath = filepath.ToSlash(relPath)
		if overlay && layer == Game && w.Shadowed(relPath) {
			return nil
		}

		entries = append(entries, FileEntry{
			Path:    path,
			Rel:     relPath,
			Layer:   layer,
			ModTime: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk directory: %w", err)
	}

	sortEntries(entries)
	log.Debug().Int("count", len(entries)).Str("dir", dir).Stringer("layer", layer).Msg("Discovered files")
	return entries, nil
}

func (w *Walker) replaced(rel string) bool {
	if w.modDir == "" {
		return false
	}
	rel = strings.Trim(filepath.ToSlash(rel), "/")
	for _, p := range w.replacePaths {
		if rel == p || strings.HasPrefix(rel, p+"/") {
			return true
		}
	}
	return false
}

// Shadowed reports whether the game file at rel is hidden by the mod, either
// through replace_path or by a mod file with the same relative path.
func (w *Walker) Shadowed(rel string) bool {
	if w.modDir == "" {
		return false
	}
	if w.replaced(filepath.ToSlash(filepath.Dir(rel))) {
		return true
	}
	return isFile(filepath.Join(w.modDir, filepath.FromSlash(rel)))
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func sortEntries(entries []FileEntry) {
	sort.Slice(entries, func(i, j int) bool { return entries[i].Rel < entries[j].Rel })
}
