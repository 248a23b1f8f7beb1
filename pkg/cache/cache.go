// Package cache memoizes tool results on disk so repeated searches and
// fetches within the TTL window cost no network calls. It is the only state
// shared across agent runs.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"
)

// Operation classes. TTLs are per class, not per key.
const (
	OpSearch = "search"
	OpFetch  = "fetch"
	OpRender = "render"
)

const (
	DefaultSearchTTL = 24 * time.Hour
	DefaultFetchTTL  = 7 * 24 * time.Hour

	// Identifiers longer than this are hashed to bound key size.
	maxRawKeyLen = 100
)

// Config controls the cache location and TTL classes.
type Config struct {
	Dir       string        `yaml:"dir"`
	SearchTTL time.Duration `yaml:"search_ttl"`
	FetchTTL  time.Duration `yaml:"fetch_ttl"`
}

func (c Config) WithDefaults() Config {
	if c.Dir == "" {
		c.Dir = ".cache"
	}
	if c.SearchTTL <= 0 {
		c.SearchTTL = DefaultSearchTTL
	}
	if c.FetchTTL <= 0 {
		c.FetchTTL = DefaultFetchTTL
	}
	return c
}

// Store is the get/set/TTL contract the tool executors depend on.
type Store interface {
	Get(op, id string) ([]byte, bool)
	Set(op, id string, value []byte) error
	Close() error
}

// Badger is a Store backed by BadgerDB. Writes are last-write-wins upserts;
// Badger serializes per-key writes, which is all the concurrency the
// executors need.
type Badger struct {
	db  *badger.DB
	cfg Config
	log zerolog.Logger
}

// Open opens (or creates) the cache at cfg.Dir.
func Open(cfg Config, log zerolog.Logger) (*Badger, error) {
	cfg = cfg.WithDefaults()
	opts := badger.DefaultOptions(cfg.Dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &Badger{db: db, cfg: cfg, log: log.With().Str("component", "cache").Logger()}, nil
}

// OpenInMemory opens a cache with no disk persistence, for tests.
func OpenInMemory(cfg Config, log zerolog.Logger) (*Badger, error) {
	cfg = cfg.WithDefaults()
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &Badger{db: db, cfg: cfg, log: log.With().Str("component", "cache").Logger()}, nil
}

// Key builds the storage key for an operation class and identifier. The
// identifier is trimmed and lowercased so trivially different spellings of
// the same URL or query share an entry; long identifiers are replaced by a
// SHA-256 digest.
func Key(op, id string) []byte {
	normalized := strings.ToLower(strings.TrimSpace(id))
	if len(normalized) > maxRawKeyLen {
		digest := sha256.Sum256([]byte(normalized))
		normalized = hex.EncodeToString(digest[:])
	}
	return []byte(op + ":" + normalized)
}

func (c *Badger) ttlFor(op string) time.Duration {
	if op == OpSearch {
		return c.cfg.SearchTTL
	}
	return c.cfg.FetchTTL
}

// Get returns the cached value for (op, id), or false on a miss. Expired
// entries are misses.
func (c *Badger) Get(op, id string) ([]byte, bool) {
	var value []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(Key(op, id))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if !errors.Is(err, badger.ErrKeyNotFound) {
			c.log.Warn().Err(err).Str("op", op).Msg("cache read failed")
		}
		return nil, false
	}
	c.log.Debug().Str("op", op).Str("id", id).Msg("cache hit")
	return value, true
}

// Set stores the value for (op, id) with the class TTL. Last write wins.
func (c *Badger) Set(op, id string, value []byte) error {
	return c.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(Key(op, id), value).WithTTL(c.ttlFor(op))
		return txn.SetEntry(entry)
	})
}

// Close releases the underlying database.
func (c *Badger) Close() error {
	return c.db.Close()
}
