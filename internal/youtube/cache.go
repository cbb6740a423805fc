package youtube

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Cache stores fetched transcripts keyed by video id so repeated runs
// over overlapping exports do not re-download them.
type Cache struct {
	db *sql.DB
}

const cacheSchema = `
CREATE TABLE IF NOT EXISTS transcripts (
	video_id   TEXT PRIMARY KEY,
	transcript TEXT NOT NULL,
	fetched_at TEXT NOT NULL
);
`

// OpenCache opens (or creates) the SQLite transcript cache at path.
func OpenCache(ctx context.Context, path string) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, cacheSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init transcript cache: %w", err)
	}
	return &Cache{db: db}, nil
}

// Get returns the cached transcript for a video id, if present.
func (c *Cache) Get(ctx context.Context, videoID string) (string, bool, error) {
	var text string
	err := c.db.QueryRowContext(ctx,
		"SELECT transcript FROM transcripts WHERE video_id = ?", videoID).Scan(&text)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return text, true, nil
}

// Put stores a transcript, replacing any previous entry for the id.
func (c *Cache) Put(ctx context.Context, videoID, transcript string) error {
	_, err := c.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO transcripts (video_id, transcript, fetched_at) VALUES (?, ?, ?)",
		videoID, transcript, time.Now().UTC().Format(time.RFC3339))
	return err
}

// Close releases the underlying database handle.
func (c *Cache) Close() error {
	return c.db.Close()
}
