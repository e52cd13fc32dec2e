package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/ledger/internal/amqp"
	"github.com/MrJamesThe3rd/ledger/internal/cache"
	"github.com/MrJamesThe3rd/ledger/internal/category"
	categoryStore "github.com/MrJamesThe3rd/ledger/internal/category/store"
	"github.com/MrJamesThe3rd/ledger/internal/config"
	"github.com/MrJamesThe3rd/ledger/internal/database"
	ledgerHttp "github.com/MrJamesThe3rd/ledger/internal/http"
	categoryHandler "github.com/MrJamesThe3rd/ledger/internal/http/category"
	importHandler "github.com/MrJamesThe3rd/ledger/internal/http/importcsv"
	matchingHandler "github.com/MrJamesThe3rd/ledger/internal/http/matching"
	reportHandler "github.com/MrJamesThe3rd/ledger/internal/http/report"
	txHandler "github.com/MrJamesThe3rd/ledger/internal/http/transaction"
	"github.com/MrJamesThe3rd/ledger/internal/importer"
	"github.com/MrJamesThe3rd/ledger/internal/matching"
	matchingStore "github.com/MrJamesThe3rd/ledger/internal/matching/store"
	"github.com/MrJamesThe3rd/ledger/internal/report"
	"github.com/MrJamesThe3rd/ledger/internal/transaction"
	txStore "github.com/MrJamesThe3rd/ledger/internal/transaction/store"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if cfg.Auth.JWTSecret == "" {
		return errors.New("AUTH_JWT_SECRET is required")
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Level()})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg.ConnectionString())
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.DB.Migrate {
		if err := database.Migrate(db); err != nil {
			return err
		}
	}

	categories, err := cache.New[[]category.Category](cfg.Ledger.CacheSize)
	if err != nil {
		return fmt.Errorf("create category cache: %w", err)
	}
	defer categories.Close()

	centers, err := cache.New[[]category.CostCenter](cfg.Ledger.CacheSize)
	if err != nil {
		return fmt.Errorf("create cost center cache: %w", err)
	}
	defer centers.Close()

	categoryService := category.NewService(categoryStore.New(db), categories, centers)

	opts := []transaction.Option{
		transaction.WithCategoryDefault(categoryService, cfg.Ledger.DefaultCategory),
	}

	if cfg.AMQP.URL != "" {
		publisher, err := amqp.NewPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange)
		if err != nil {
			return err
		}
		defer publisher.Close()

		opts = append(opts, transaction.WithPublisher(publisher))
	}

	var (
		transactionService = transaction.NewService(txStore.New(db), opts...)
		reportService      = report.NewService(transactionService, time.Now)
		matchingService    = matching.NewService(matchingStore.New(db))
		importService      = importer.NewService(transactionService, importer.WithSuggester(matchingService))
	)

	router := ledgerHttp.New(
		ledgerHttp.Options{
			JWTSecret:      []byte(cfg.Auth.JWTSecret),
			AllowedOrigins: cfg.Server.AllowedOrigins,
			Timeout:        cfg.Server.Timeout,
		},
		txHandler.NewHandler(transactionService),
		categoryHandler.NewHandler(categoryService),
		reportHandler.NewHandler(reportService),
		importHandler.NewHandler(importService),
		matchingHandler.NewHandler(matchingService),
	)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		slog.Info("starting server", "app", cfg.App.Name, "port", server.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.Timeout)
	defer cancel()

	return server.Shutdown(shutdownCtx)
}
