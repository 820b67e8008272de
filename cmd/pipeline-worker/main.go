package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"telemetry-pipeline/internal/config"
	"telemetry-pipeline/internal/directory"
	"telemetry-pipeline/internal/distribute"
	"telemetry-pipeline/internal/logging"
	"telemetry-pipeline/internal/metrics"
	"telemetry-pipeline/internal/pipeline"
	"telemetry-pipeline/internal/store"
)

func main() {
	cfgPath := flag.String("config", "", "path to config file (yaml)")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Log, "pipeline-worker")
	m := metrics.New(prometheus.DefaultRegisterer)

	st, err := store.Open(cfg.Store.Path, cfg.Schema)
	if err != nil {
		logger.Fatal().Err(err).Msg("open reading store")
	}
	defer st.Close()

	dir, err := loadDirectory(cfg.Directory)
	if err != nil {
		logger.Fatal().Err(err).Msg("load machine directory")
	}

	stages := pipeline.NewStages(cfg.Schema, dir, st, logger)

	worker, err := distribute.NewWorker(cfg.Pool.URL, stages, cfg.Pool.RequestTimeout, logger, m)
	if err != nil {
		logger.Fatal().Err(err).Str("url", cfg.Pool.URL).Msg("worker pool unreachable")
	}
	if err := worker.Start(); err != nil {
		logger.Fatal().Err(err).Msg("start worker")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logger.Info().Msg("draining worker")
	if err := worker.Stop(); err != nil {
		logger.Error().Err(err).Msg("worker drain failed")
	}
}

func loadDirectory(cfg config.DirectoryConfig) (*directory.Directory, error) {
	if cfg.Path != "" {
		return directory.LoadFile(cfg.Path)
	}
	return directory.New(cfg.Machines), nil
}
