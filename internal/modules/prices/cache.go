package prices

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// CacheRepository stores serialized fetch responses so repeated analyses of
// the same window do not hammer the remote source.
type CacheRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewCacheRepository creates a cache repository on an open database connection.
func NewCacheRepository(db *sql.DB, log zerolog.Logger) *CacheRepository {
	return &CacheRepository{
		db:  db,
		log: log.With().Str("component", "price_cache").Logger(),
	}
}

// Init creates the cache table when it does not exist yet.
func (r *CacheRepository) Init() error {
	_, err := r.db.Exec(`
		CREATE TABLE IF NOT EXISTS fetch_cache (
			source     TEXT NOT NULL,
			cache_key  TEXT NOT NULL,
			payload    BLOB NOT NULL,
			fetched_at INTEGER NOT NULL,
			PRIMARY KEY (source, cache_key)
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create fetch_cache table: %w", err)
	}
	return nil
}

// GetIfFresh returns the cached payload for a key when it was fetched within
// ttl, or ok=false when missing or expired.
func (r *CacheRepository) GetIfFresh(source, key string, ttl time.Duration) ([]byte, bool) {
	var payload []byte
	var fetchedAt int64
	err := r.db.QueryRow(`
		SELECT payload, fetched_at
		FROM fetch_cache
		WHERE source = ? AND cache_key = ?
	`, source, key).Scan(&payload, &fetchedAt)
	if err == sql.ErrNoRows {
		return nil, false
	}
	if err != nil {
		r.log.Warn().Err(err).Str("source", source).Msg("Cache lookup failed")
		return nil, false
	}

	age := time.Since(time.Unix(fetchedAt, 0))
	if age > ttl {
		return nil, false
	}

	return payload, true
}

// Set stores a payload for a key, stamping it with the current time.
func (r *CacheRepository) Set(source, key string, payload []byte) error {
	_, err := r.db.Exec(`
		INSERT OR REPLACE INTO fetch_cache (source, cache_key, payload, fetched_at)
		VALUES (?, ?, ?, ?)
	`, source, key, payload, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}
