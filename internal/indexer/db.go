package indexer

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteCache persists line counts across runs, keyed by content hash and
// tokenizer name.
type SQLiteCache struct {
	db *sql.DB
}

// NewSQLiteCache opens (or creates) the cache database at dbPath.
func NewSQLiteCache(ctx context.Context, dbPath string) (*SQLiteCache, error) {
	// WAL allows readers alongside the single writer.
	dsn := dbPath + "?_journal_mode=WAL&_busy_timeout=5000"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	c := &SQLiteCache{db: db}
	if err := c.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return c, nil
}

// Close closes the database connection.
func (c *SQLiteCache) Close() error {
	return c.db.Close()
}

func (c *SQLiteCache) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS line_counts (
		cache_key  TEXT PRIMARY KEY,
		num_lines  INTEGER NOT NULL,
		counts     TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);
	`
	_, err := c.db.ExecContext(ctx, schema)
	return err
}

// Get returns the cached counts for key.
func (c *SQLiteCache) Get(ctx context.Context, key string) ([]int, bool, error) {
	var raw string
	var numLines int
	err := c.db.QueryRowContext(ctx,
		`SELECT counts, num_lines FROM line_counts WHERE cache_key = ?`, key,
	).Scan(&raw, &numLines)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to query line counts: %w", err)
	}

	var counts []int
	if err := json.Unmarshal([]byte(raw), &counts); err != nil {
		return nil, false, fmt.Errorf("failed to decode line counts for %s: %w", key, err)
	}
	if len(counts) != numLines {
		return nil, false, fmt.Errorf("corrupt line counts for %s: %d lines stored, %d decoded", key, numLines, len(counts))
	}
	for line, n := range counts {
		if n < 0 {
			return nil, false, fmt.Errorf("corrupt line counts for %s: negative count %d at line %d", key, n, line)
		}
	}
	return counts, true, nil
}

// Put stores counts under key, replacing any previous entry.
func (c *SQLiteCache) Put(ctx context.Context, key string, counts []int) error {
	raw, err := json.Marshal(counts)
	if err != nil {
		return fmt.Errorf("failed to encode line counts: %w", err)
	}
	query := `
	INSERT INTO line_counts (cache_key, num_lines, counts, updated_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(cache_key) DO UPDATE SET
		num_lines = excluded.num_lines,
		counts = excluded.counts,
		updated_at = excluded.updated_at
	`
	if _, err := c.db.ExecContext(ctx, query, key, len(counts), string(raw), time.Now().Unix()); err != nil {
		return fmt.Errorf("failed to store line counts: %w", err)
	}
	return nil
}

// Len returns the number of cached entries.
func (c *SQLiteCache) Len(ctx context.Context) (int, error) {
	var n int
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM line_counts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count line counts: %w", err)
	}
	return n, nil
}
