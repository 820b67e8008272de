package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"telemetry-pipeline/internal/config"
	"telemetry-pipeline/internal/directory"
	"telemetry-pipeline/internal/distribute"
	"telemetry-pipeline/internal/generator"
	"telemetry-pipeline/internal/logging"
	"telemetry-pipeline/internal/metrics"
	"telemetry-pipeline/internal/pipeline"
	"telemetry-pipeline/internal/queue"
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
	logger := logging.New(cfg.Log, "pipeline")
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
	logger.Info().Int("machines", dir.Len()).Msg("machine directory loaded")

	stages := pipeline.NewStages(cfg.Schema, dir, st, logger)

	// The worker-pool endpoint is a startup dependency: if it cannot be
	// reached, no pipeline is constructed.
	var pool distribute.Pool
	switch cfg.Pool.Mode {
	case "nats":
		pool, err = distribute.NewNATSPool(cfg.Pool.URL, cfg.Pool.RequestTimeout, logger)
		if err != nil {
			logger.Fatal().Err(err).Str("url", cfg.Pool.URL).Msg("worker pool unreachable")
		}
	default:
		pool = distribute.NewLocalPool(cfg.Pool.Workers, stages, cfg.Pool.RequestTimeout, logger, m)
	}
	defer pool.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	q := queue.New(cfg.Queue.Capacity, queue.Policy(cfg.Queue.Policy))
	gen := generator.NewSynthetic(dir.MachineIDs(), 0.2, 0.05, time.Now().UnixNano())

	producer := pipeline.NewProducer(gen, q, cfg.Producer.Interval, logger, m)
	producer.Start(ctx)

	p := pipeline.New(q, pool, st, logger, m)
	p.Start(ctx)

	results := p.Consume(ctx, cfg.Consumer.SampleSize)

	var failed int
	for _, res := range results {
		if res.Failed() {
			failed++
		}
	}
	total, _ := st.CountReadings(ctx)
	warnings, _ := st.CountWarnings(ctx)
	logger.Info().
		Int("sampled", len(results)).
		Int("failed", failed).
		Int("stored_readings", total).
		Int("stored_warnings", warnings).
		Int("queue_depth", q.Len()).
		Msg("consumption loop finished; producer still running")

	// The loop is a bounded sample, not a terminator: the producer keeps
	// feeding the queue until the process is told to stop.
	<-ctx.Done()
	logger.Info().Msg("shutting down")
}

func loadDirectory(cfg config.DirectoryConfig) (*directory.Directory, error) {
	if cfg.Path != "" {
		return directory.LoadFile(cfg.Path)
	}
	return directory.New(cfg.Machines), nil
}
