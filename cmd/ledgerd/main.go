package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/iotchain-dashboard/pkg/config"
	"github.com/iotchain-dashboard/pkg/db"
	"github.com/iotchain-dashboard/pkg/ledger"
	"github.com/iotchain-dashboard/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Init("info", os.Stderr)
		log.Fatal().Err(err).Msg("config load failed")
	}
	logger.Init(cfg.LogLevel, os.Stderr)
	log.Info().Msg("⛓️ ledger demo API starting...")

	store, err := db.NewStore(cfg.LedgerDBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("database init failed")
	}
	defer store.Close()

	seeded, err := store.SeedDemo(time.Now())
	if err != nil {
		log.Fatal().Err(err).Msg("seeding failed")
	}
	if seeded {
		log.Info().Msg("🌱 seeded demo records")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	srv := ledger.NewServer(store, ledger.Options{
		APIKey:    cfg.LedgerAPIKey,
		RateLimit: cfg.LedgerRateLimit,
		RateBurst: cfg.LedgerRateBurst,
	})

	printSummary(cfg, store)
	if err := srv.Run(ctx, cfg.LedgerPort); err != nil && err != context.Canceled {
		log.Error().Err(err).Msg("ledger API stopped")
	}
	log.Info().Msg("goodbye 👋")
}

func printSummary(cfg *config.Config, store *db.Store) {
	stats, _ := store.GetStats()
	fmt.Println("\n" + strings.Repeat("═", 60))
	fmt.Println("  ⛓️  IOT LEDGER DEMO API - RUNNING")
	fmt.Println(strings.Repeat("═", 60))
	fmt.Printf("  Listen:    http://localhost:%d\n", cfg.LedgerPort)
	fmt.Printf("  Database:  %s\n", cfg.LedgerDBPath)
	auth := "❌ open (set LEDGER_API_KEY)"
	if cfg.LedgerAPIKey != "" {
		auth = "✅ X-API-Key required"
	}
	fmt.Printf("  Auth:      %s\n", auth)
	fmt.Printf("  Limit:     %.1f req/s, burst %d\n", cfg.LedgerRateLimit, cfg.LedgerRateBurst)
	if stats != nil {
		fmt.Printf("  DB: %d history records, %d blocks\n", stats["history_records"], stats["blocks"])
	}
	fmt.Println(strings.Repeat("═", 60) + "\n")
}
