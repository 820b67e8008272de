package main

import (
	"flag"
	"fmt"
	"os"

	"telemetry-pipeline/internal/api"
	"telemetry-pipeline/internal/api/handler"
	"telemetry-pipeline/internal/config"
	"telemetry-pipeline/internal/logging"
	"telemetry-pipeline/internal/store"
	"telemetry-pipeline/pkg/router"
)

func main() {
	cfgPath := flag.String("config", "", "path to config file (yaml)")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Log, "pipeline-api")

	st, err := store.Open(cfg.Store.Path, cfg.Schema)
	if err != nil {
		logger.Fatal().Err(err).Msg("open reading store")
	}
	defer st.Close()

	r := router.New(logger)
	api.RegisterRoutes(r, handler.NewAudit(st, logger))

	if err := r.Start(cfg.API.Addr); err != nil {
		logger.Fatal().Err(err).Msg("api server failed")
	}
}
