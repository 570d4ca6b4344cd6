// Package main is the entry point for the portfolio analysis service. It
// computes annualized returns over irregular cash flows, replays those flows
// against a benchmark index, and serves both over HTTP.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ankitjgd/xirrcalc/internal/config"
	"github.com/ankitjgd/xirrcalc/internal/database"
	"github.com/ankitjgd/xirrcalc/internal/modules/benchmark"
	"github.com/ankitjgd/xirrcalc/internal/modules/ledger"
	ledgerhandlers "github.com/ankitjgd/xirrcalc/internal/modules/ledger/handlers"
	"github.com/ankitjgd/xirrcalc/internal/modules/prices"
	"github.com/ankitjgd/xirrcalc/internal/modules/stats"
	statshandlers "github.com/ankitjgd/xirrcalc/internal/modules/stats/handlers"
	"github.com/ankitjgd/xirrcalc/internal/modules/xirr"
	"github.com/ankitjgd/xirrcalc/internal/scheduler"
	"github.com/ankitjgd/xirrcalc/internal/server"
	"github.com/ankitjgd/xirrcalc/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().
		Str("data_dir", cfg.DataDir).
		Str("benchmark", cfg.BenchmarkSymbol).
		Msg("Starting portfolio analysis service")

	db, err := database.New(database.Config{Path: cfg.PriceDBPath()})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open price database")
	}
	defer db.Close()

	priceStore := prices.NewStore(db.Conn(), log)
	if err := priceStore.Init(); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize price store")
	}
	priceCache := prices.NewCacheRepository(db.Conn(), log)
	if err := priceCache.Init(); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize price cache")
	}

	priceClient := prices.NewClient(cfg.PriceBaseURL, priceCache, log)
	priceService := prices.NewService(priceStore, priceClient, log)

	solver := xirr.NewWithOptions(xirr.Options{ExtremeLossNPV: cfg.ExtremeLossNPV}, log)
	replayEngine := benchmark.New(solver, log)
	statsService := stats.New(solver, replayEngine, log)
	statsHandlers := statshandlers.NewHandler(statsService, priceService, cfg.BenchmarkSymbol, log)
	ledgerParser := ledger.NewParser(log)
	ledgerHandlers := ledgerhandlers.NewHandler(ledgerParser, statsService, priceService, cfg.BenchmarkSymbol, log)

	sched := scheduler.New(log)
	syncJob := scheduler.NewPriceSyncJob(cfg.BenchmarkSymbol, priceService, log)
	if err := sched.AddJob(cfg.PriceSyncSpec, syncJob); err != nil {
		log.Fatal().Err(err).Str("spec", cfg.PriceSyncSpec).Msg("Failed to register price sync job")
	}
	sched.Start()
	defer sched.Stop()

	// Warm the store in the background so the first analysis does not stall
	// on the remote source.
	go func() {
		if err := sched.RunNow(syncJob); err != nil {
			log.Warn().Err(err).Msg("Initial price sync failed")
		}
	}()

	srv := server.New(server.Config{
		Log:            log,
		Port:           cfg.Port,
		DevMode:        cfg.DevMode,
		StatsHandlers:  statsHandlers,
		LedgerHandlers: ledgerHandlers,
	})

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		log.Fatal().Err(err).Msg("HTTP server failed")
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
