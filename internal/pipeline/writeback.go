package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"province-forge/internal/model"
	"province-forge/internal/parser"

	"github.com/rs/zerolog/log"
)

// WriteTarget returns where a write-back of rel lands: inside the mod when
// one is active, else inside the game.
func WriteTarget(opts Options, rel string) string {
	root := opts.GameDir
	if opts.ModDir != "" {
		root = opts.ModDir
	}
	return filepath.Join(root, filepath.FromSlash(rel))
}

// WriteDefinition regenerates definition.csv at path from the state.
func WriteDefinition(state *model.State, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}
	return parser.WriteDefinitions(path, state.Provinces)
}

// SetMaxProvinces patches max_provinces in the default.map at path and
// records the new value in the state.
func SetMaxProvinces(state *model.State, path string, n int) error {
	if n < 1 {
		return fmt.Errorf("max_provinces must be positive, got %d", n)
	}
	if err := parser.PatchMaxProvinces(path, n); err != nil {
		return err
	}
	if state != nil {
		state.MaxProvinces = n
	}
	log.Info().Int("max_provinces", n).Str("path", path).Msg("Patched default.map")
	return nil
}
