package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	"bank-limits/internal/limits"
	"bank-limits/internal/logger"
	"bank-limits/internal/models"
	"bank-limits/internal/postgres"
	"bank-limits/internal/rates"
	"bank-limits/internal/server"
	"bank-limits/internal/store"
	"bank-limits/internal/transactions"
	"bank-limits/internal/twelvedata"
)

const shutdownTimeout = 10 * time.Second

func main() {
	var (
		addr            = flag.String("addr", envOr("ADDR", ":8080"), "listen address")
		dsn             = flag.String("database-url", os.Getenv("DATABASE_URL"), "postgres connection string; empty runs the in-memory store")
		providerURL     = flag.String("provider-url", envOr("TWELVEDATA_API_URL", "https://api.twelvedata.com"), "exchange rate provider base URL")
		providerKey     = flag.String("provider-key", os.Getenv("TWELVEDATA_API_KEY"), "exchange rate provider API key")
		refreshInterval = flag.Duration("refresh-interval", rates.DefaultRefreshInterval, "exchange rate refresh interval")
		seed            = flag.Bool("seed", false, "seed demo accounts and limits (in-memory store only)")
	)
	flag.Parse()

	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var st store.Store
	if *dsn != "" {
		pg, err := postgres.Open(ctx, *dsn, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to open database")
		}
		defer pg.Close()

		if err := pg.Migrate(); err != nil {
			log.Fatal().Err(err).Msg("failed to migrate database")
		}
		st = pg
	} else {
		log.Warn().Msg("DATABASE_URL not set, using in-memory store")
		mem := store.NewMemory()
		if *seed {
			if err := seedDemo(ctx, mem); err != nil {
				log.Fatal().Err(err).Msg("failed to seed demo data")
			}
			log.Info().Msg("seeded demo accounts and limits")
		}
		st = mem
	}

	provider := twelvedata.New(*providerURL, *providerKey, log)
	rateSvc := rates.NewService(st, provider, log)
	registry := limits.NewRegistry(st, log)
	txSvc := transactions.NewService(st, log)

	go rates.NewRefresher(rateSvc, *refreshInterval, log).Run(ctx)

	srv := &http.Server{
		Addr:    *addr,
		Handler: server.New(registry, txSvc, rateSvc, log).Router(),
	}

	go func() {
		log.Info().Str("addr", *addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown failed")
	}
	log.Info().Msg("server stopped")
}

// seedDemo provisions two accounts, each with a default limit per expense
// category, so the service is usable out of the box without a database.
func seedDemo(ctx context.Context, st store.Store) error {
	defaultSum := decimal.NewFromInt(1000)

	for _, username := range []string{"alice", "bob"} {
		account := &models.Account{Username: username}
		if err := st.Accounts().Create(ctx, account); err != nil {
			return err
		}
		for _, category := range models.Categories() {
			remainder := defaultSum
			limit := &models.Limit{
				AccountID:   account.ID,
				Category:    category,
				Sum:         defaultSum,
				Remainder:   &remainder,
				Currency:    models.ReferenceCurrency,
				LastUpdated: time.Now().UTC(),
			}
			if err := st.Limits().Create(ctx, limit); err != nil {
				return err
			}
		}
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
