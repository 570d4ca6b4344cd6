package prices

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Service resolves price series for benchmark replay, preferring fresh remote
// data and falling back to the local store when the source is unreachable.
type Service struct {
	store  *Store
	client *Client
	log    zerolog.Logger
}

// NewService creates a price service.
func NewService(store *Store, client *Client, log zerolog.Logger) *Service {
	return &Service{
		store:  store,
		client: client,
		log:    log.With().Str("component", "price_service").Logger(),
	}
}

// Range returns daily closes for a symbol covering [from, to]. A remote fetch
// failure degrades to stored data when any exists for the window.
func (s *Service) Range(ctx context.Context, symbol string, from, to time.Time) (Series, error) {
	fetched, err := s.client.FetchDaily(ctx, symbol, from, to)
	if err != nil {
		stored, storeErr := s.store.Range(symbol,
			from.AddDate(0, 0, -bufferBeforeDays),
			to.AddDate(0, 0, bufferAfterDays))
		if storeErr == nil && len(stored) > 0 {
			s.log.Warn().Err(err).Str("symbol", symbol).
				Msg("Remote fetch failed, using stored prices")
			return stored, nil
		}
		return nil, fmt.Errorf("failed to resolve prices for %s: %w", symbol, err)
	}

	if err := s.store.Upsert(symbol, fetched); err != nil {
		s.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to persist fetched prices")
	}

	return fetched, nil
}

// Refresh fetches the trailing lookback window for a symbol and persists it.
// Used by the scheduled sync job.
func (s *Service) Refresh(ctx context.Context, symbol string, lookbackDays int) error {
	to := time.Now().UTC()
	from := to.AddDate(0, 0, -lookbackDays)

	fetched, err := s.client.FetchDaily(ctx, symbol, from, to)
	if err != nil {
		return fmt.Errorf("failed to refresh prices for %s: %w", symbol, err)
	}
	if err := s.store.Upsert(symbol, fetched); err != nil {
		return fmt.Errorf("failed to store refreshed prices for %s: %w", symbol, err)
	}

	s.log.Info().Str("symbol", symbol).Int("rows", len(fetched)).Msg("Refreshed prices")
	return nil
}
