// Package main provides the simulation daemon: it polls the schedule for due
// games, simulates them in batches, persists results, and serves gRPC health.
package main

import (
	"context"
	"flag"
	"log"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/hockeysim/internal/config"
	"github.com/cory-johannsen/hockeysim/internal/game/sim"
	"github.com/cory-johannsen/hockeysim/internal/league"
	"github.com/cory-johannsen/hockeysim/internal/observability"
	"github.com/cory-johannsen/hockeysim/internal/server"
	"github.com/cory-johannsen/hockeysim/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	dbCheckInterval := flag.Duration("db-check", 30*time.Second, "database health check interval")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging, "simserver")
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("connecting to database", zap.Error(err))
	}

	lis, err := net.Listen("tcp", cfg.Server.Addr())
	if err != nil {
		logger.Fatal("listening for health checks", zap.String("addr", cfg.Server.Addr()), zap.Error(err))
	}
	health := server.NewHealthService(lis, logger)

	runner := league.NewRunner(cfg.Simulation, sim.New(logger), logger)
	scheduler := league.NewScheduler(cfg.Simulation,
		postgres.NewGameRepository(pool.DB()),
		postgres.NewTeamRepository(pool.DB()),
		runner, logger,
		league.WithReadiness(func(ready bool) { health.SetServing(server.SchedulerService, ready) }),
	)

	dbCheck := server.NewPeriodicCheck("postgres", *dbCheckInterval, 5*time.Second, pool.Health,
		func(healthy bool) { health.SetServing("", healthy) }, logger)

	lifecycle := server.NewLifecycle(logger)
	lifecycle.Add("postgres", &server.FuncService{
		StartFn: dbCheck.Start,
		StopFn: func() {
			dbCheck.Stop()
			pool.Close()
		},
	})
	lifecycle.Add("health", health)
	lifecycle.Add("scheduler", scheduler)

	logger.Info("simserver initialized",
		zap.Duration("startup", time.Since(start)),
		zap.String("health_addr", cfg.Server.Addr()),
		zap.Int("workers", cfg.Simulation.Workers),
		zap.Duration("poll_interval", cfg.Simulation.PollInterval),
		zap.Bool("seeded", cfg.Simulation.Seeded()),
	)

	if err := lifecycle.Run(ctx); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
