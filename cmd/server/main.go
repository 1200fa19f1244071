// Omni Fiber Service Mapper - Fiber Serviceability Tracking
// Copyright 2026 S. Demanett (scdemanett)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/scdemanett/omni-fiber-service-mapper-sub001

// Package main is the entry point for the Omni Fiber Service Mapper server.
//
// The server tracks fiber-internet serviceability for large address
// selections by checking each address against provider availability APIs
// (AT&T, Frontier) at a polite, provider-respecting pace, and records every
// result in DuckDB for analysis over time.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: layered Koanf v2 loading (defaults, config file, env)
//  2. Database: DuckDB with the address/job/check schema
//  3. Token cache: BadgerDB persistence for provider credentials (optional)
//  4. Provider registry: one adapter per enabled provider
//  5. Check manager: rate-limited, pausable batch jobs
//  6. Supervision tree: Suture supervisors for the data, checker, and API layers
//  7. HTTP server: job control REST API plus Prometheus metrics
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins): environment variables, config file (CONFIG_PATH or
// config.yaml), then built-in defaults. Common variables:
//
//	export HTTP_PORT=8485
//	export DUCKDB_PATH=/data/omnifiber.duckdb
//	export CHECKER_DELAY=2s
//	export ATT_ENABLED=true
//	export FRONTIER_ENABLED=true
//	export FRONTIER_CLIENT_ID=...
//	export FRONTIER_CLIENT_SECRET=...
//	./omni-fiber-server
//
// # Signal Handling
//
// The server shuts down gracefully on SIGINT and SIGTERM: running check
// jobs stop starting new items (already-started items still record their
// results), in-flight HTTP requests get 10s to complete, and the database
// is checkpointed on close.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/scdemanett/omni-fiber-service-mapper-sub001/internal/api"
	"github.com/scdemanett/omni-fiber-service-mapper-sub001/internal/checker"
	"github.com/scdemanett/omni-fiber-service-mapper-sub001/internal/config"
	"github.com/scdemanett/omni-fiber-service-mapper-sub001/internal/logging"
	"github.com/scdemanett/omni-fiber-service-mapper-sub001/internal/provider"
	"github.com/scdemanett/omni-fiber-service-mapper-sub001/internal/store"
	"github.com/scdemanett/omni-fiber-service-mapper-sub001/internal/supervisor"
)

func main() {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("db_path", cfg.Database.Path).
		Bool("att_enabled", cfg.Providers.ATT.Enabled).
		Bool("frontier_enabled", cfg.Providers.Frontier.Enabled).
		Msg("Configuration loaded")

	db, err := store.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	logging.Info().Msg("Database initialized")

	// Provider credentials survive restarts through the Badger token cache.
	var tokens provider.TokenStore
	if cfg.TokenCache.Enabled {
		badgerStore, err := provider.NewBadgerTokenStore(cfg.TokenCache.Path)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to open token cache")
		}
		defer func() {
			if err := badgerStore.Close(); err != nil {
				logging.Error().Err(err).Msg("Error closing token cache")
			}
		}()
		tokens = badgerStore
	}

	registry, err := buildRegistry(cfg, tokens)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to build provider registry")
	}
	for _, a := range registry.All() {
		logging.Info().
			Str("provider", a.ID()).
			Bool("stub", a.Stub()).
			Msg("Provider registered")
	}

	manager := checker.NewManager(db, registry, checker.RunnerConfig{
		DefaultDelay:       cfg.Checker.Delay,
		DefaultMaxInFlight: cfg.Checker.MaxInFlight,
		StatusPollInterval: cfg.Checker.StatusPollInterval,
	})

	handlers := api.NewHandlers(manager, db)
	router := api.NewRouter(&cfg.API, handlers)

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddDataService(supervisor.NewCheckpointService(db, 0))
	tree.AddCheckerService(supervisor.NewCheckerService(manager))
	tree.AddAPIService(supervisor.NewHTTPService(
		fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		router,
		cfg.Server.Timeout,
	))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Msg("Starting supervisor tree")

	if err := <-tree.ServeBackground(ctx); err != nil && err != context.Canceled {
		logging.Error().Err(err).Msg("Supervisor tree stopped with error")
	}

	if unstopped, err := tree.UnstoppedServiceReport(); err == nil && len(unstopped) > 0 {
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service did not stop in time")
		}
	}

	logging.Info().Msg("Shutdown complete")
}

// buildRegistry wires one adapter per enabled provider. Providers that exist
// in the product plan but have no adapter yet register as stubs so clients
// can discover the slug without being able to start jobs against it.
func buildRegistry(cfg *config.Config, tokens provider.TokenStore) (*provider.Registry, error) {
	var adapters []provider.Adapter

	if cfg.Providers.ATT.Enabled {
		adapters = append(adapters, provider.NewATTAdapter(cfg.Providers.ATT))
	}
	if cfg.Providers.Frontier.Enabled {
		adapters = append(adapters, provider.NewFrontierAdapter(cfg.Providers.Frontier, tokens))
	}
	if cfg.Providers.Metronet.Enabled {
		adapters = append(adapters, provider.NewStubAdapter("metronet", "Metronet"))
	}

	return provider.NewRegistry(adapters...)
}
