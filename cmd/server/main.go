// Command server runs the maplecase evaluation API: case evaluation,
// history, readiness, lifecycle transitions, and tenant provisioning.
// Business logic lives in the internal module packages; main only wires
// dependencies and owns the process lifecycle.
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

	"maplecase/internal/autofill"
	"maplecase/internal/bundle"
	"maplecase/internal/evaluation"
	evalhandler "maplecase/internal/evaluation/handler"
	evalmetrics "maplecase/internal/evaluation/metrics"
	"maplecase/internal/events"
	"maplecase/internal/ledger"
	"maplecase/internal/lifecycle"
	"maplecase/internal/platform/config"
	"maplecase/internal/platform/httpserver"
	"maplecase/internal/platform/kafka/producer"
	"maplecase/internal/platform/logger"
	"maplecase/internal/platform/postgres"
	"maplecase/internal/platform/redis"
	"maplecase/internal/readiness"
	"maplecase/internal/tenant"
	httptransport "maplecase/internal/transport/http"
)

func main() {
	log := logger.New()
	if err := run(log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	cfg := config.FromEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bundles, err := bundle.NewHandle(cfg.BundleDir, log)
	if err != nil {
		return err
	}

	db, err := postgres.Open(cfg.DatabaseURL)
	if err != nil {
		return err
	}

	var (
		ledgerStore ledger.Store
		outbox      events.Store
		tenantStore tenant.Store
	)
	if db != nil {
		defer db.Close()
		if err := postgres.EnsureSchema(ctx, db); err != nil {
			return err
		}
		ledgerStore = ledger.NewPostgresStore(db)
		outbox = events.NewPostgresStore(db)
		tenantStore = tenant.NewPostgresStore(db)
	} else {
		log.Warn("no database configured, using in-memory stores")
		ledgerStore = ledger.NewMemoryStore()
		outbox = events.NewMemoryStore()
		tenantStore = tenant.NewMemoryStore()
	}

	rdb, err := redis.New(cfg.Redis)
	if err != nil {
		return err
	}
	var locker ledger.CaseLocker = ledger.NewShardedLocker()
	if rdb != nil {
		defer rdb.Close()
		locker = ledger.NewRedisLocker(rdb)
	}

	ledgerSvc := ledger.NewService(ledgerStore, outbox, locker, log, ledger.NewMetrics())
	lifecycleSvc := lifecycle.NewService(ledgerStore, outbox, locker, log)
	assessor := readiness.New(autofill.New(ledgerSvc))
	evalSvc := evaluation.NewService(bundles, ledgerSvc, assessor, log, evalmetrics.New())
	tenantSvc := tenant.NewService(tenantStore, log)

	prod, err := producer.New(ctx, cfg.Kafka)
	if err != nil {
		return err
	}
	if prod != nil {
		defer prod.Close()
		worker := events.NewWorker(outbox, prod, log, 0)
		go worker.Run(ctx)
	} else {
		log.Warn("no kafka brokers configured, case events stay in the outbox")
	}

	router := httptransport.NewRouter(
		evalhandler.New(evalSvc, lifecycleSvc, log),
		tenant.NewHandler(tenantSvc, log),
	)
	srv := httpserver.New(cfg.Addr, router)

	// SIGHUP swaps in a revalidated bundle without a restart.
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	go func() {
		for range hup {
			_ = bundles.Reload(ctx)
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	current := bundles.Current()
	log.Info("server started",
		"addr", cfg.Addr,
		"bundle_version", current.Version(),
		"bundle_fingerprint", current.Fingerprint(),
	)

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
