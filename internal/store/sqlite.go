// Package store provides the durable local series cache.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/Arnobrizwan/ecosphere-ai-farming-simulator-sub001/internal/earthdata"
)

// SQLiteStore persists fetched time series in a local SQLite file, one
// row per cache key. There is no TTL or eviction: keys embed the date
// range, so a new range simply misses, and a repeat fetch overwrites
// the row wholesale. Concurrent fetches for the same key may both miss
// and both write; last write wins, which is acceptable because every
// tier produces equivalent output for the same request.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (and if needed creates) the cache database at
// dbPath, creating parent directories for file-backed paths.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		dbPath = filepath.Join("data", "earthdata.db")
	}
	if dir := filepath.Dir(dbPath); dbPath != ":memory:" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS series_cache (
		cache_key TEXT PRIMARY KEY,
		series TEXT NOT NULL,
		stored_at DATETIME NOT NULL
	);`

	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create cache table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Get returns the cached series for key. Absence is reported via the
// bool, not an error: a read before any write is a normal miss.
func (s *SQLiteStore) Get(key string) ([]earthdata.TimeSeriesPoint, bool, error) {
	var raw string
	err := s.db.QueryRow(
		`SELECT series FROM series_cache WHERE cache_key = ?`, key,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cache entry: %w", err)
	}

	var series []earthdata.TimeSeriesPoint
	if err := json.Unmarshal([]byte(raw), &series); err != nil {
		return nil, false, fmt.Errorf("failed to decode cache entry: %w", err)
	}
	return series, true, nil
}

// Put stores the series under key, replacing any existing entry.
func (s *SQLiteStore) Put(key string, series []earthdata.TimeSeriesPoint) error {
	raw, err := json.Marshal(series)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO series_cache (cache_key, series, stored_at)
		VALUES (?, ?, ?)
		ON CONFLICT(cache_key) DO UPDATE SET
			series = excluded.series,
			stored_at = excluded.stored_at`,
		key, string(raw), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
