package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/nemanja-m/gopool/internal/server/api/grpc"
	"github.com/nemanja-m/gopool/internal/server/api/rest"
	"github.com/nemanja-m/gopool/internal/server/service"
	"github.com/nemanja-m/gopool/internal/server/storage"
	"github.com/nemanja-m/gopool/internal/shared/config"
	"github.com/nemanja-m/gopool/internal/shared/logging"
	"github.com/nemanja-m/gopool/pkg/pool"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.LoadServer(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	logger, err := logging.New(os.Stdout, cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		slog.Error("Failed to create logger", "error", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	workerPool, err := pool.New(cfg.Pool.Size,
		pool.WithLogger(logger),
		pool.WithMetrics(pool.NewMetrics(registry, "gopool")),
		pool.WithQueueCapacity(cfg.Pool.QueueCapacity),
	)
	if err != nil {
		logger.Fatal("Failed to create worker pool", "error", err)
	}

	userStore := storage.NewInMemoryUserStore()
	userService := service.NewUserService(userStore, workerPool, logger)

	grpcServer := grpc.NewServer(cfg.GRPC, logger)
	api := rest.NewAPI(userService, workerPool, logger)
	httpServer := rest.NewServer(cfg.REST, api, registry, logger)
	reporter := service.NewStatsReporter(cfg.Stats.Interval, workerPool, grpcServer, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting REST API server", "addr", cfg.REST.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return grpcServer.Start()
	})

	g.Go(func() error {
		reporter.Start(gctx)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server")

		grpcServer.SetServing(false)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.REST.ShutdownTimeout)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("REST server forced to shutdown", "error", err)
		}
		if err := workerPool.ShutdownContext(shutdownCtx); err != nil {
			logger.Error("Worker pool did not drain in time", "error", err)
		}
		grpcServer.Stop()
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Fatal("Server error", "error", err)
	}

	logger.Info("Server stopped")
}
