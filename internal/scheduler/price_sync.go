package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/ankitjgd/xirrcalc/internal/modules/prices"
)

// priceSyncLookbackDays gives the sync enough overlap to backfill closes that
// were still provisional on the previous run.
const priceSyncLookbackDays = 30

// PriceSyncJob keeps the local price store current for the configured
// benchmark symbol.
type PriceSyncJob struct {
	symbol string
	svc    *prices.Service
	log    zerolog.Logger
}

// NewPriceSyncJob creates the sync job for a benchmark symbol.
func NewPriceSyncJob(symbol string, svc *prices.Service, log zerolog.Logger) *PriceSyncJob {
	return &PriceSyncJob{
		symbol: symbol,
		svc:    svc,
		log:    log.With().Str("component", "price_sync").Logger(),
	}
}

// Name returns the job name.
func (j *PriceSyncJob) Name() string {
	return "price_sync"
}

// Run refreshes the trailing price window for the benchmark symbol.
func (j *PriceSyncJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	return j.svc.Refresh(ctx, j.symbol, priceSyncLookbackDays)
}
