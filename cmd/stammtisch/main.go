package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stammtisch/internal/amqp"
	"stammtisch/internal/cli"
	apphttp "stammtisch/internal/http"
	applog "stammtisch/internal/log"
	"stammtisch/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)
	repo := cli.InitStorage(logger, cfg.SQLiteDBPath)

	// The API works without the broker; reconciliation just waits for the
	// next successful change message.
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		var err error
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, change messages will be skipped", "error", err)
			amqpClient = nil
		}
	}

	birthdays := services.NewBirthdayGenerator(repo)
	kasse := services.NewKasseService(repo, amqpClient, birthdays)
	defer kasse.Close()

	apiServer := apphttp.NewServer(kasse)
	defer apiServer.Close()
	srv := apiServer.HTTPServer(":" + cfg.Port)

	// Graceful shutdown handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting stammtisch server", "port", cfg.Port, "db", cfg.SQLiteDBPath)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
