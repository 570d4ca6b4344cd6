package prices

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

const dateLayout = "2006-01-02"

// Store persists daily closing prices in sqlite so benchmark replays keep
// working when the remote source is down.
type Store struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewStore creates a price store on an open database connection.
func NewStore(db *sql.DB, log zerolog.Logger) *Store {
	return &Store{
		db:  db,
		log: log.With().Str("component", "price_store").Logger(),
	}
}

// Init creates the price table when it does not exist yet.
func (s *Store) Init() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS daily_prices (
			symbol TEXT NOT NULL,
			date   TEXT NOT NULL,
			close  REAL NOT NULL CHECK (close > 0),
			PRIMARY KEY (symbol, date)
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create daily_prices table: %w", err)
	}
	return nil
}

// Upsert writes the series for a symbol, replacing existing rows on the same
// date. Non-positive closes are dropped, never stored.
func (s *Store) Upsert(symbol string, series Series) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO daily_prices (symbol, date, close) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	stored := 0
	for _, p := range series {
		if p.Close <= 0 {
			continue
		}
		if _, err := stmt.Exec(symbol, p.Date.UTC().Format(dateLayout), p.Close); err != nil {
			return fmt.Errorf("failed to upsert price: %w", err)
		}
		stored++
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit prices: %w", err)
	}

	s.log.Debug().Str("symbol", symbol).Int("rows", stored).Msg("Stored prices")
	return nil
}

// Range returns the stored prices for a symbol between from and to inclusive,
// date ascending.
func (s *Store) Range(symbol string, from, to time.Time) (Series, error) {
	rows, err := s.db.Query(`
		SELECT date, close
		FROM daily_prices
		WHERE symbol = ? AND date >= ? AND date <= ?
		ORDER BY date ASC
	`, symbol, from.UTC().Format(dateLayout), to.UTC().Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to query prices: %w", err)
	}
	defer rows.Close()

	var series Series
	for rows.Next() {
		var dateStr string
		var p Price
		if err := rows.Scan(&dateStr, &p.Close); err != nil {
			return nil, fmt.Errorf("failed to scan price: %w", err)
		}
		date, err := time.Parse(dateLayout, dateStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse stored date %q: %w", dateStr, err)
		}
		p.Date = date
		series = append(series, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating prices: %w", err)
	}

	return series, nil
}
