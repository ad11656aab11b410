package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"stammtisch/internal/amqp"
	"stammtisch/internal/cli"
	"stammtisch/internal/config"
	applog "stammtisch/internal/log"
	"stammtisch/internal/services"
	"stammtisch/internal/sheets"
	gsheet "stammtisch/internal/sheets/google"
	mem "stammtisch/internal/sheets/memory"
	"stammtisch/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentWorker)

	logger.Info("Starting stammtisch-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	repo := cli.InitStorage(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	ledger, err := newLedgerWriter(cfg)
	if err != nil {
		logger.Error("Failed to initialize ledger export", "error", err, "backend", cfg.LedgerExport)
		os.Exit(1)
	}
	logger.Info("Ledger export initialized", "backend", cfg.LedgerExport)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	reconciler := services.NewReconciler(repo)
	changeWorker := worker.NewChangeWorker(
		repo,
		reconciler,
		services.NewBirthdayGenerator(repo),
		ledger,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// One run over the full snapshot at startup covers changes made while
	// the worker was down.
	if marked, reverted, err := reconciler.Reconcile(ctx); err != nil {
		logger.Error("Startup reconciliation failed", "error", err)
	} else if marked > 0 || reverted > 0 {
		logger.Info("Startup reconciliation applied changes", "marked", marked, "reverted", reverted)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return amqpClient.ConsumeChanges(ctx, func(msg *amqp.ChangeMessage) error {
			msgCtx, cancel := context.WithTimeout(ctx, cfg.ReconcileTimeout)
			defer cancel()
			return changeWorker.HandleChange(msgCtx, msg)
		})
	})

	logger.Info("Worker started, consuming change messages", "queue", cfg.AMQPQueue)
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}

func newLedgerWriter(cfg *config.Config) (sheets.LedgerWriter, error) {
	switch cfg.LedgerExport {
	case "sheets":
		return gsheet.New(context.Background(), cfg.GoogleSpreadsheetID, cfg.GoogleLedgerSheet)
	default:
		return mem.New(), nil
	}
}
