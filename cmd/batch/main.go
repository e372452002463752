package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/nemanja-m/gopool/internal/shared/config"
	"github.com/nemanja-m/gopool/internal/shared/logging"
	"github.com/nemanja-m/gopool/pkg/batch"
)

type settings map[string]string

func (s settings) String() string {
	pairs := make([]string, 0, len(s))
	for k, v := range s {
		pairs = append(pairs, k+"="+v)
	}
	return strings.Join(pairs, ",")
}

func (s settings) Set(value string) error {
	key, val, ok := strings.Cut(value, "=")
	if !ok || key == "" {
		return fmt.Errorf("expected key=value, got %q", value)
	}
	s[key] = val
	return nil
}

func main() {
	analyzerConfig := settings{}

	var (
		configPath = flag.String("config", "", "path to config file")
		input      = flag.String("input", "", "comma separated input glob patterns")
		output     = flag.String("output", "", "report file (optional)")
		analyzer   = flag.String("analyzer", "wc", "analyzer to run (e.g., wc, grep)")
		workers    = flag.Int("workers", 0, "number of workers (overrides config)")
	)
	flag.Var(analyzerConfig, "set", "analyzer setting as key=value (repeatable)")
	flag.Parse()

	cfg, err := config.LoadBatch(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	logger, err := logging.New(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		slog.Error("Failed to create logger", "error", err)
		os.Exit(1)
	}

	if *input == "" {
		logger.Fatal("Input pattern must be specified using the -input flag")
	}
	if *workers < 0 {
		logger.Fatal("Number of workers must be > 0", "workers", *workers)
	}
	if *workers > 0 {
		cfg.Pool.Size = *workers
	}

	a, err := batch.Get(*analyzer, analyzerConfig)
	if err != nil {
		logger.Fatal("Unknown or misconfigured analyzer",
			"analyzer", *analyzer,
			"available", batch.List(),
			"error", err,
		)
	}

	engine, err := batch.NewEngine(batch.Config{
		Analyzer:      a,
		Input:         strings.Split(*input, ","),
		Output:        *output,
		Workers:       cfg.Pool.Size,
		QueueCapacity: cfg.Pool.QueueCapacity,
		Logger:        logger,
	})
	if err != nil {
		logger.Fatal("Failed to create engine", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	report, err := engine.Run(ctx)
	if err != nil {
		logger.Fatal("Batch run failed", "error", err)
	}

	if *output == "" {
		for _, line := range report.Lines() {
			fmt.Print(line)
		}
	}

	if report.Failed > 0 {
		logger.Warn("Some files could not be analyzed", "failed", report.Failed)
		os.Exit(2)
	}
}
