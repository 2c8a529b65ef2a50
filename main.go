package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"github.com/username/dolarhistorico/src/actions"
	"github.com/username/dolarhistorico/src/config"
	"github.com/username/dolarhistorico/src/database"
	"github.com/username/dolarhistorico/src/handlers"
	"github.com/username/dolarhistorico/src/logger"
	"github.com/username/dolarhistorico/src/parsers/customers"
	"github.com/username/dolarhistorico/src/services"
	"github.com/username/dolarhistorico/src/store"
	"github.com/username/dolarhistorico/src/ui"
)

func openStore(cfg *config.AppConfig, log *slog.Logger) (store.TableStore, error) {
	if cfg.DatabasePath == "" {
		log.Warn("DATABASE_PATH is empty, sheets are kept in memory only")
		return store.NewMemory(), nil
	}
	log.Info("Initializing database...", "path", cfg.DatabasePath)
	db, err := database.Open(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}
	if err := database.RunMigrations(db, log); err != nil {
		db.Close()
		return nil, err
	}
	return database.NewSheetStore(db), nil
}

func main() {
	cfg := config.LoadConfig()
	log := logger.InitLogger(cfg.LogLevel)

	log.Info("Dólar Histórico starting...")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tables, err := openStore(cfg, log)
	if err != nil {
		log.Error("Failed to open table store", "error", err)
		os.Exit(1)
	}
	defer tables.Close()

	fetch := services.NewFetchService(
		services.WithTimeout(cfg.HTTPTimeout),
		services.WithRateLimit(cfg.HTTPRateLimit),
		services.WithDefaultTTL(cfg.RatesCacheTTL),
		services.WithLogger(log),
	)
	rates := services.NewRateService(fetch, cfg.CurrentRatesURL, cfg.HistoricalRatesURL, cfg.RatesCacheTTL, log)
	reconcile := services.NewReconcileService(
		services.ReconcileConfig{Sheet: cfg.RatesSheet, MinDate: cfg.MinHistoryDate},
		tables, rates, log, time.Now)
	if err := reconcile.Setup(ctx); err != nil {
		log.Error("Failed to prepare rates sheet", "sheet", cfg.RatesSheet, "error", err)
		os.Exit(1)
	}

	sink := logger.NewTableSink(tables, cfg.LogSheet, time.Now)
	deps := actions.Deps{
		Reconcile: reconcile,
		Rates:     rates,
		Customers: services.NewCustomerService(tables, cfg.CustomersSheet, customers.NewParser(), sink, log),
		Sink:      sink,
		Log:       log,
		Now:       time.Now,
	}

	if len(os.Args) > 1 && os.Args[1] == "console" {
		menu := actions.NewMenu(deps, ui.NewConsole(os.Stdin, os.Stdout))
		if err := menu.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("Console stopped with error", "error", err)
			os.Exit(1)
		}
		return
	}

	limiter := rate.NewLimiter(rate.Every(100*time.Millisecond), 30)
	router := handlers.NewRouter(log, limiter,
		handlers.NewRatesHandler(deps),
		handlers.NewCustomerHandler(deps, cfg.MaxUploadSizeBytes))

	serverAddr := ":" + cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute, // range updates fetch one day at a time
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("Server shutdown failed", "error", err)
		}
	}()

	log.Info("Server starting", "address", serverAddr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("Failed to start server", "error", err)
		os.Exit(1)
	}
	log.Info("Server stopped")
}
