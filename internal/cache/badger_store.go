package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/dgraph-io/badger/v4"
)

const keyPrefix = "locindex/"

// BadgerStore keeps each source's indexer list under one key of an embedded
// BadgerDB, so a save replaces the list atomically.
type BadgerStore struct {
	db *badger.DB
}

// OpenBadgerStore opens (or creates) a store in dir. An empty dir opens an
// in-memory database.
func OpenBadgerStore(dir string) (*BadgerStore, error) {
	var opts badger.Options
	if dir == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create cache directory %s: %w", dir, err)
		}
		opts = badger.DefaultOptions(dir).WithSyncWrites(true)
	}
	opts = opts.WithNumVersionsToKeep(1).WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

// Close closes the database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// Load returns the persisted list of source, or nil if none was saved.
func (s *BadgerStore) Load(_ context.Context, source string) ([]Indexer, error) {
	var entries []Indexer
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyPrefix + source))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &entries)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("load index %s: %w", source, err)
	}
	return entries, nil
}

// Save replaces the persisted list of source.
func (s *BadgerStore) Save(_ context.Context, source string, entries []Indexer) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode index %s: %w", source, err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyPrefix+source), data)
	})
	if err != nil {
		return fmt.Errorf("save index %s: %w", source, err)
	}
	return nil
}

// Clear removes every persisted list.
func (s *BadgerStore) Clear() error {
	return s.db.DropPrefix([]byte(keyPrefix))
}

// MemoryStore is a non-persistent Store.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string][]Indexer
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string][]Indexer)}
}

// Load returns a copy of the list of source.
func (s *MemoryStore) Load(_ context.Context, source string) ([]Indexer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Indexer(nil), s.entries[source]...), nil
}

// Save replaces the list of source.
func (s *MemoryStore) Save(_ context.Context, source string, entries []Indexer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[source] = append([]Indexer(nil), entries...)
	return nil
}
