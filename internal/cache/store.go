// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cache persists validation results in SQLite so repeat validations
// of the same citation do no network work. Entries expire passively: the TTL
// is checked on read, and an expired or corrupt entry counts as a miss and
// is overwritten by the next successful validation.
package cache

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/citecheck/pkg/types"
)

// Store is the validation result cache. Safe for concurrent readers and
// writers; the last writer for a key wins.
type Store struct {
	db  *sql.DB
	ttl time.Duration
}

// Open opens or creates the cache database, creating parent directories and
// the schema as needed.
func Open(cfg types.CacheConfig) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("cache path is empty")
	}
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}

	s := &Store{db: db, ttl: ttl}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cache schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// TTL returns the default entry lifetime.
func (s *Store) TTL() time.Duration { return s.ttl }

func (s *Store) createSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS validations (
		key TEXT PRIMARY KEY,
		result TEXT NOT NULL,
		stored_at TEXT NOT NULL,
		ttl_seconds INTEGER NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("executing schema statement: %w", err)
	}
	return nil
}

// Key derives the cache key from citation text: a hash of the
// whitespace-collapsed, case-preserved form.
func Key(citationText string) string {
	normalized := strings.Join(strings.Fields(citationText), " ")
	sum := sha256.Sum256([]byte(normalized))
	return fmt.Sprintf("%x", sum)
}

// Get returns the cached result for key, or ok=false on a miss. Expired
// entries are misses. A corrupt entry is deleted and reported as a miss so
// the caller revalidates and overwrites it.
func (s *Store) Get(ctx context.Context, key string) (types.ValidationResult, bool, error) {
	var (
		payload    string
		storedAt   string
		ttlSeconds int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT result, stored_at, ttl_seconds FROM validations WHERE key = ?`, key,
	).Scan(&payload, &storedAt, &ttlSeconds)
	if err == sql.ErrNoRows {
		return types.ValidationResult{}, false, nil
	}
	if err != nil {
		return types.ValidationResult{}, false, fmt.Errorf("reading cache entry: %w", err)
	}

	stored, err := time.Parse(time.RFC3339Nano, storedAt)
	if err != nil {
		s.evict(ctx, key)
		return types.ValidationResult{}, false, nil
	}
	if time.Since(stored) > time.Duration(ttlSeconds)*time.Second {
		return types.ValidationResult{}, false, nil
	}

	var result types.ValidationResult
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		s.evict(ctx, key)
		return types.ValidationResult{}, false, nil
	}
	return result, true, nil
}

// Put stores a result under key, overwriting any previous entry whole.
func (s *Store) Put(ctx context.Context, key string, result types.ValidationResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encoding cache entry: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO validations (key, result, stored_at, ttl_seconds)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET
			result=excluded.result, stored_at=excluded.stored_at,
			ttl_seconds=excluded.ttl_seconds`,
		key, string(payload), time.Now().UTC().Format(time.RFC3339Nano), int64(s.ttl.Seconds()),
	)
	if err != nil {
		return fmt.Errorf("writing cache entry: %w", err)
	}
	return nil
}

// Stats summarizes cache contents for the maintenance CLI.
type Stats struct {
	Total   int
	Expired int
}

// Stat counts total and expired entries.
func (s *Store) Stat(ctx context.Context) (Stats, error) {
	var st Stats
	rows, err := s.db.QueryContext(ctx, `SELECT stored_at, ttl_seconds FROM validations`)
	if err != nil {
		return st, fmt.Errorf("reading cache stats: %w", err)
	}
	defer rows.Close()

	now := time.Now()
	for rows.Next() {
		var storedAt string
		var ttlSeconds int64
		if err := rows.Scan(&storedAt, &ttlSeconds); err != nil {
			return st, fmt.Errorf("scanning cache row: %w", err)
		}
		st.Total++
		stored, err := time.Parse(time.RFC3339Nano, storedAt)
		if err != nil || now.Sub(stored) > time.Duration(ttlSeconds)*time.Second {
			st.Expired++
		}
	}
	return st, rows.Err()
}

// Purge deletes expired entries and returns how many were removed.
func (s *Store) Purge(ctx context.Context) (int64, error) {
	cutoff := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM validations
		 WHERE datetime(stored_at, '+' || ttl_seconds || ' seconds') < datetime(?)`,
		cutoff.Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("purging cache: %w", err)
	}
	return res.RowsAffected()
}

func (s *Store) evict(ctx context.Context, key string) {
	// Best-effort cleanup of an unreadable entry.
	s.db.ExecContext(ctx, `DELETE FROM validations WHERE key = ?`, key)
}
