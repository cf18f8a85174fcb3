package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"libretto/internal/amqp"
	"libretto/internal/cli"
	apphttp "libretto/internal/http"
	"libretto/internal/log"
	"libretto/internal/services"
	"libretto/internal/stats"
	"libretto/internal/storage"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger("")
	cfg := cli.LoadAndValidateConfig(logger)

	store := cli.OpenStore(logger, cfg)
	defer store.Close()

	if err := storage.SeedDefaultCategories(context.Background(), store); err != nil {
		logger.Error("Failed to seed categories", log.FieldError, err.Error())
		os.Exit(1)
	}

	// AMQP is optional: without it, mutations simply skip event publishing.
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		var err error
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err.Error())
			os.Exit(1)
		}
		logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	svc := services.NewTransactionService(store, amqpClient)
	defer svc.Close()

	// Week and month boundaries follow the configured time zone.
	loc := cfg.Location()
	now := func() time.Time { return time.Now().In(loc) }

	statistics := stats.NewStatistics(store, logger, stats.WithClock(now))
	defer statistics.Close()
	overview := stats.NewOverview(store, logger, stats.WithOverviewClock(now))
	defer overview.Close()

	srv := apphttp.NewServer(apphttp.Options{
		Addr:      ":" + cfg.Port,
		CacheSize: cfg.CacheSize,
		CacheTTL:  cfg.CacheTTL,
	}, svc, statistics, overview, logger)

	// No WriteTimeout: the stats event stream holds connections open.
	srv.ReadTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting libretto server", "port", cfg.Port, "backend", cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", log.FieldError, err.Error())
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
