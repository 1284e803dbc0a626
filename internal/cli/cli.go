package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"province-forge/internal/cache"
	"province-forge/internal/config"
	"province-forge/internal/pipeline"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// Execute runs the CLI application.
func Execute() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "province-forge",
		Short: "Resolve historical province state for a strategy game map and its mods",
		Long: `Reads province definitions, cultures, countries, bookmarks, history and
localisation from a game directory and an optional mod, then resolves every
province's owner, culture and display name at a chosen date.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.String("game", "", "Game root directory (GAME_DIR)")
	flags.String("mod", "", "Mod root directory (MOD_DIR)")
	flags.String("language", "", "Localisation language (LANGUAGE)")
	flags.Int("workers", 0, "Worker count for file fan-out (WORKER_COUNT)")
	flags.String("cache", "", "Localisation cache backend: badger, postgres or none (CACHE_BACKEND)")
	flags.String("cache-dir", "", "Badger cache directory (CACHE_DIR)")
	flags.BoolP("verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(resolveCmd())
	rootCmd.AddCommand(writeDefinitionCmd())
	rootCmd.AddCommand(setMaxProvincesCmd())
	rootCmd.AddCommand(exportGraphCmd())
	rootCmd.AddCommand(cacheCmd())

	return rootCmd
}

// addPolicyFlags registers the flags of commands that run a full load.
func addPolicyFlags(cmd *cobra.Command) {
	cmd.Flags().String("bookmark", "", "Resolve at this bookmark's date instead of the game start date")
	cmd.Flags().Bool("show-all", false, "Show RNW and unnamed provinces (SHOW_ALL_PROVINCES)")
	cmd.Flags().Bool("check-duplicates", false, "Link provinces sharing a color (CHECK_DUPLICATE_COLORS)")
	cmd.Flags().Bool("validate-colors", false, "Reject definition lines with invalid channels (VALIDATE_COLORS)")
	cmd.Flags().Bool("ignore-rnw", false, "Leave RNW provinces out of duplicate rings (IGNORE_RNW_DUPLICATES)")
}

// loadConfig reads the environment and lets explicitly set flags win.
func loadConfig(cmd *cobra.Command) *config.Config {
	cfg := config.Load()

	overrideString(cmd, "game", &cfg.GameDir)
	overrideString(cmd, "mod", &cfg.ModDir)
	overrideString(cmd, "language", &cfg.Language)
	overrideString(cmd, "cache", &cfg.CacheBackend)
	overrideString(cmd, "cache-dir", &cfg.CacheDir)
	if f := cmd.Flag("workers"); f != nil && f.Changed {
		cfg.WorkerCount, _ = cmd.Flags().GetInt("workers")
	}
	overrideBool(cmd, "show-all", &cfg.ShowAllProvinces)
	overrideBool(cmd, "check-duplicates", &cfg.CheckDuplicateColors)
	overrideBool(cmd, "validate-colors", &cfg.ValidateColors)
	overrideBool(cmd, "ignore-rnw", &cfg.IgnoreRNWDuplicates)
	return cfg
}

func overrideString(cmd *cobra.Command, name string, dst *string) {
	if f := cmd.Flag(name); f != nil && f.Changed {
		*dst = f.Value.String()
	}
}

func overrideBool(cmd *cobra.Command, name string, dst *bool) {
	if f := cmd.Flag(name); f != nil && f.Changed {
		*dst, _ = cmd.Flags().GetBool(name)
	}
}

// loadOptions builds pipeline options from the merged configuration.
func loadOptions(cmd *cobra.Command, cfg *config.Config, store cache.Store) (pipeline.Options, error) {
	if cfg.GameDir == "" {
		return pipeline.Options{}, fmt.Errorf("no game directory: set --game or GAME_DIR")
	}
	bookmark, _ := cmd.Flags().GetString("bookmark")
	return pipeline.Options{
		GameDir:      cfg.GameDir,
		ModDir:       cfg.ModDir,
		BookmarkCode: bookmark,
		Language:     cfg.Language,
		Workers:      cfg.WorkerCount,
		Store:        store,
		Policies: pipeline.Policies{
			ShowAll:         cfg.ShowAllProvinces,
			CheckDuplicates: cfg.CheckDuplicateColors,
			ValidateColors:  cfg.ValidateColors,
			IgnoreRNW:       cfg.IgnoreRNWDuplicates,
		},
	}, nil
}

// runLoad opens the configured cache and runs a full load.
func runLoad(ctx context.Context, cmd *cobra.Command, cfg *config.Config) (*pipeline.Result, pipeline.Options, error) {
	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return nil, pipeline.Options{}, err
	}
	defer closeStore()

	opts, err := loadOptions(cmd, cfg, store)
	if err != nil {
		return nil, opts, err
	}
	res, err := pipeline.Load(ctx, opts)
	return res, opts, err
}

// setupContext creates a cancellable context with signal handling.
func setupContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		log.Warn().Msg("Received shutdown signal, cancelling...")
		cancel()
	}()

	return ctx, cancel
}

// openStore opens the localisation cache backend. The returned func
// releases it.
func openStore(ctx context.Context, cfg *config.Config) (cache.Store, func(), error) {
	switch cfg.CacheBackend {
	case config.CacheNone:
		return nil, func() {}, nil
	case config.CachePostgres:
		pool, err := connectPostgres(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		store := cache.NewPostgresStore(pool)
		if err := store.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return store, pool.Close, nil
	case config.CacheBadger:
		store, err := cache.OpenBadgerStore(cfg.CacheDir)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {
			if err := store.Close(); err != nil {
				log.Warn().Err(err).Msg("Failed to close cache")
			}
		}, nil
	default:
		return nil, nil, fmt.Errorf("unknown cache backend %q", cfg.CacheBackend)
	}
}

func connectPostgres(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect PostgreSQL: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping PostgreSQL: %w", err)
	}
	log.Info().Msg("Connected to PostgreSQL")
	return pool, nil
}

func connectNeo4j(ctx context.Context, cfg *config.Config) (neo4j.DriverWithContext, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.Neo4jURI, neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPassword, ""))
	if err != nil {
		return nil, fmt.Errorf("connect Neo4j: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("verify Neo4j connectivity: %w", err)
	}
	log.Info().Msg("Connected to Neo4j")
	return driver, nil
}
