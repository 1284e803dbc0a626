package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS localisation_index (
    source         TEXT   NOT NULL,
    path           TEXT   NOT NULL,
    mod_time       BIGINT NOT NULL,
    province_names JSONB  NOT NULL,
    strings        JSONB  NOT NULL,
    PRIMARY KEY (source, path)
)`

// PostgresStore persists indexer lists in PostgreSQL so several machines
// can share one index of a mod repository.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a store on an open pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema creates the index table if needed.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("create localisation_index: %w", err)
	}
	return nil
}

// Load returns the rows of source.
func (s *PostgresStore) Load(ctx context.Context, source string) ([]Indexer, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT path, mod_time, province_names, strings
		FROM localisation_index
		WHERE source = $1
		ORDER BY path`, source)
	if err != nil {
		return nil, fmt.Errorf("query localisation_index: %w", err)
	}
	defer rows.Close()

	var entries []Indexer
	for rows.Next() {
		ix := Indexer{Source: source}
		var provinces, strings []byte
		if err := rows.Scan(&ix.Path, &ix.ModTime, &provinces, &strings); err != nil {
			return nil, fmt.Errorf("scan localisation_index: %w", err)
		}
		if err := json.Unmarshal(provinces, &ix.ProvinceNames); err != nil {
			return nil, fmt.Errorf("decode province names of %s: %w", ix.Path, err)
		}
		if err := json.Unmarshal(strings, &ix.Strings); err != nil {
			return nil, fmt.Errorf("decode strings of %s: %w", ix.Path, err)
		}
		entries = append(entries, ix)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read localisation_index: %w", err)
	}
	return entries, nil
}

// Save replaces the rows of source in one transaction.
func (s *PostgresStore) Save(ctx context.Context, source string, entries []Indexer) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM localisation_index WHERE source = $1`, source); err != nil {
		return fmt.Errorf("clear localisation_index: %w", err)
	}

	batch := &pgx.Batch{}
	for _, ix := range entries {
		provinces, err := json.Marshal(ix.ProvinceNames)
		if err != nil {
			return fmt.Errorf("encode province names of %s: %w", ix.Path, err)
		}
		strings, err := json.Marshal(ix.Strings)
		if err != nil {
			return fmt.Errorf("encode strings of %s: %w", ix.Path, err)
		}
		batch.Queue(`
			INSERT INTO localisation_index (source, path, mod_time, province_names, strings)
			VALUES ($1, $2, $3, $4::jsonb, $5::jsonb)`,
			source, ix.Path, ix.ModTime, string(provinces), string(strings))
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert localisation_index: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	log.Debug().Str("source", source).Int("entries", len(entries)).Msg("Saved localisation index to PostgreSQL")
	return nil
}

// Clear removes every row.
func (s *PostgresStore) Clear(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM localisation_index`); err != nil {
		return fmt.Errorf("clear localisation_index: %w", err)
	}
	return nil
}
