package cli

import (
	"fmt"
	"strconv"

	"province-forge/internal/cache"
	"province-forge/internal/config"
	"province-forge/internal/graph"
	"province-forge/internal/pipeline"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func resolveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve province owners and names at a date and print them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := setupContext()
			defer cancel()

			res, _, err := runLoad(ctx, cmd, loadConfig(cmd))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderSummary(res))
			fmt.Fprintln(out, renderBookmarks(res.Bookmarks, res.State.ReferenceDate))

			if show, _ := cmd.Flags().GetBool("provinces"); show {
				owner, _ := cmd.Flags().GetString("owner")
				fmt.Fprintln(out, renderProvinces(res.State.Provinces, owner))
			}
			if len(res.Rings) > 0 {
				fmt.Fprintln(out, renderRings(res.State, res.Rings))
			}
			return nil
		},
	}
	addPolicyFlags(cmd)
	cmd.Flags().Bool("provinces", false, "Print the visible province table")
	cmd.Flags().String("owner", "", "Only print provinces owned by this country tag")
	return cmd
}

func writeDefinitionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "write-definition",
		Short: "Regenerate map/definition.csv from the loaded provinces",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := setupContext()
			defer cancel()

			res, opts, err := runLoad(ctx, cmd, loadConfig(cmd))
			if err != nil {
				return err
			}
			path, _ := cmd.Flags().GetString("out")
			if path == "" {
				path = pipeline.WriteTarget(opts, pipeline.DefinitionPath)
			}
			return pipeline.WriteDefinition(res.State, path)
		},
	}
	addPolicyFlags(cmd)
	cmd.Flags().String("out", "", "Output path (default: map/definition.csv of the mod, else the game)")
	return cmd
}

func setMaxProvincesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-max-provinces <n>",
		Short: "Patch max_provinces in map/default.map",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("max_provinces: %w", err)
			}
			cfg := loadConfig(cmd)
			if cfg.GameDir == "" && cfg.ModDir == "" {
				return fmt.Errorf("no game directory: set --game or GAME_DIR")
			}
			path := pipeline.WriteTarget(pipeline.Options{GameDir: cfg.GameDir, ModDir: cfg.ModDir}, pipeline.DefaultMapPath)
			return pipeline.SetMaxProvinces(nil, path, n)
		},
	}
}

func exportGraphCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export-graph",
		Short: "Export provinces, countries and cultures to Neo4j",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := setupContext()
			defer cancel()

			cfg := loadConfig(cmd)
			res, _, err := runLoad(ctx, cmd, cfg)
			if err != nil {
				return err
			}

			driver, err := connectNeo4j(ctx, cfg)
			if err != nil {
				return err
			}
			defer driver.Close(ctx)

			exporter := graph.NewExporter(driver)
			if err := exporter.EnsureSchema(ctx); err != nil {
				return fmt.Errorf("ensure graph schema: %w", err)
			}
			if err := exporter.Export(ctx, res.State); err != nil {
				return fmt.Errorf("export graph: %w", err)
			}

			if owner, _ := cmd.Flags().GetString("owner"); owner != "" {
				indices, err := exporter.OwnedBy(ctx, owner)
				if err != nil {
					return fmt.Errorf("query graph: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s owns %d provinces: %v\n", owner, len(indices), indices)
			}
			return nil
		},
	}
	addPolicyFlags(cmd)
	cmd.Flags().String("owner", "", "After exporting, list the provinces the graph records for this country tag")
	return cmd
}

func cacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the localisation index",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove every persisted localisation index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := setupContext()
			defer cancel()

			cfg := loadConfig(cmd)
			switch cfg.CacheBackend {
			case config.CacheNone:
				log.Info().Msg("Cache disabled, nothing to clear")
				return nil
			case config.CachePostgres:
				pool, err := connectPostgres(ctx, cfg)
				if err != nil {
					return err
				}
				defer pool.Close()
				store := cache.NewPostgresStore(pool)
				if err := store.EnsureSchema(ctx); err != nil {
					return err
				}
				if err := store.Clear(ctx); err != nil {
					return err
				}
			default:
				store, err := cache.OpenBadgerStore(cfg.CacheDir)
				if err != nil {
					return err
				}
				defer store.Close()
				if err := store.Clear(); err != nil {
					return fmt.Errorf("clear badger cache: %w", err)
				}
			}
			log.Info().Str("backend", cfg.CacheBackend).Msg("Localisation cache cleared")
			return nil
		},
	})
	return cmd
}
