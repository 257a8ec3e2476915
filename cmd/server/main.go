package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/bucketpay/bucketpay-backend/internal/adapter/http"
	"github.com/bucketpay/bucketpay-backend/internal/adapter/repository/postgres"
	"github.com/bucketpay/bucketpay-backend/internal/platform/config"
	"github.com/bucketpay/bucketpay-backend/internal/platform/jobs"
	"github.com/bucketpay/bucketpay-backend/internal/platform/locks"
	"github.com/bucketpay/bucketpay-backend/internal/usecase/dashboard"
	"github.com/bucketpay/bucketpay-backend/internal/usecase/goals"
	"github.com/bucketpay/bucketpay-backend/internal/usecase/ledger"
	"github.com/bucketpay/bucketpay-backend/internal/usecase/payroll"
	"github.com/bucketpay/bucketpay-backend/internal/usecase/seeder"
	"github.com/bucketpay/bucketpay-backend/internal/usecase/yield"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 1. Database
	db, err := postgres.NewDB(cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	if cfg.RunMigrations {
		if err := postgres.Migrate(ctx, db); err != nil {
			slog.Error("migrations failed", "err", err)
			os.Exit(1)
		}
	}

	// 2. Repositories
	bucketRepo := postgres.NewBucketRepository(db)
	goalRepo := postgres.NewGoalRepository(db)
	payrollRepo := postgres.NewPayrollRepository(db)
	yieldRepo := postgres.NewYieldRepository(db)
	txRunner := postgres.NewTxRunner(db)
	keyed := locks.NewKeyed()

	// 3. Services
	ledgerSvc := ledger.NewService(bucketRepo, txRunner, keyed, cfg.OverflowThreshold)
	goalsSvc := goals.NewService(goalRepo, bucketRepo, txRunner, keyed)
	payrollSvc := payroll.NewService(payrollRepo, txRunner, keyed, payroll.LogPayer{}, cfg.MinSalary, cfg.MaxSalary, cfg.ScheduleHorizon)
	yieldSvc := yield.NewService(yieldRepo, bucketRepo, txRunner, keyed)
	dashboardSvc := dashboard.NewService(bucketRepo, goalRepo, yieldRepo)

	if cfg.RunSeed {
		if err := seeder.NewTokenSeeder(yieldRepo).Seed(ctx); err != nil {
			slog.Error("failed to seed yield tokens", "err", err)
			os.Exit(1)
		}
		slog.Info("yield tokens seeded")
	}

	// 4. Schedulers
	jobs.New(payrollSvc, yieldSvc, cfg.PayrollInterval, cfg.AccrualInterval).Start(ctx)

	// 5. HTTP server
	apiServer := httpapi.NewServer(ledgerSvc, goalsSvc, payrollSvc, yieldSvc, dashboardSvc)
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           apiServer.Router(cfg.APIToken),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("http server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("http server failed", "err", err)
			os.Exit(1)
		}
	}()

	waitForShutdown(srv, cancel)
}

// waitForShutdown waits for SIGTERM or SIGINT and gracefully shuts down.
func waitForShutdown(srv *http.Server, cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	sig := <-sigChan
	slog.Info("shutting down", "signal", sig.String())
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("http shutdown failed", "err", err)
	}
	slog.Info("http server stopped")
}
