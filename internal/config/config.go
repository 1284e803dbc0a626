package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Cache backends.
const (
	CacheBadger   = "badger"
	CachePostgres = "postgres"
	CacheNone     = "none"
)

type Config struct {
	GameDir  string
	ModDir   string
	Language string

	WorkerCount int

	CacheBackend string
	CacheDir     string
	DatabaseURL  string

	Neo4jURI      string
	Neo4jUser     string
	Neo4jPassword string

	ShowAllProvinces     bool
	CheckDuplicateColors bool
	ValidateColors       bool
	IgnoreRNWDuplicates  bool
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found, using environment variables")
	}

	return &Config{
		GameDir:              getEnv("GAME_DIR", ""),
		ModDir:               getEnv("MOD_DIR", ""),
		Language:             getEnv("LANGUAGE", "english"),
		WorkerCount:          getEnvInt("WORKER_COUNT", 8),
		CacheBackend:         strings.ToLower(getEnv("CACHE_BACKEND", CacheBadger)),
		CacheDir:             getEnv("CACHE_DIR", ".province-forge/cache"),
		DatabaseURL:          getEnv("DATABASE_URL", "postgres://localhost:5432/province_forge?sslmode=disable"),
		Neo4jURI:             getEnv("NEO4J_URI", "bolt://localhost:7687"),
		Neo4jUser:            getEnv("NEO4J_USER", "neo4j"),
		Neo4jPassword:        getEnv("NEO4J_PASSWORD", "password"),
		ShowAllProvinces:     getEnvBool("SHOW_ALL_PROVINCES", false),
		CheckDuplicateColors: getEnvBool("CHECK_DUPLICATE_COLORS", true),
		ValidateColors:       getEnvBool("VALIDATE_COLORS", true),
		IgnoreRNWDuplicates:  getEnvBool("IGNORE_RNW_DUPLICATES", true),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Warn().Str("key", key).Str("value", v).Msg("Invalid boolean, using default")
		return fallback
	}
	return b
}
