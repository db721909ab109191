package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"router_server/config"
	"router_server/internal/bootstrap"
	"router_server/pkg/logger"

	"github.com/joho/godotenv"
)

const (
	shutdownTimeout = 30 * time.Second // Maximum time to wait for graceful shutdown
)

func main() {
	// Initialize logger early
	logger.Init(logger.Config{
		Level:   logger.LevelInfo,
		Service: "router",
	})

	// Load .env file if exists (for local development)
	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file found, using environment variables")
	}

	mode := flag.String("mode", "worker", "Run mode: worker, rebuild, stats")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config: %v", err)
	}

	switch *mode {
	case "worker":
		runWorker(cfg)
	case "rebuild":
		runRebuild(cfg)
	case "stats":
		runStats(cfg)
	default:
		logger.Fatal("Unknown mode: %s", *mode)
	}
}

func runWorker(cfg *config.Config) {
	worker, cleanup, err := bootstrap.NewWorker(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize worker: %v", err)
	}
	defer cleanup()

	// Graceful shutdown with timeout
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutting down worker (timeout: %v)...", shutdownTimeout)

		done := make(chan struct{})
		go func() {
			worker.Stop()
			close(done)
		}()

		select {
		case <-done:
			logger.Info("Worker shut down gracefully")
		case <-time.After(shutdownTimeout):
			logger.Warn("Worker shutdown timed out, forcing exit")
			os.Exit(1)
		}
	}()

	logger.Info("Starting worker...")
	worker.Start()
}

// runRebuild replays the routing history into the pattern store once and
// exits. Used to seed a fresh database from the audit log.
func runRebuild(cfg *config.Config) {
	deps, cleanup, err := bootstrap.NewDependencies(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize dependencies: %v", err)
	}
	defer cleanup()

	if deps.Learner == nil {
		logger.Fatal("Rebuild requires a pattern store (DATABASE_URL)")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	replayed, err := deps.Learner.RebuildFromHistory(ctx)
	if err != nil {
		logger.Fatal("Rebuild failed: %v", err)
	}
	logger.Info("Rebuild complete: %d events replayed", replayed)
}

// runStats prints the current learning statistics and exits.
func runStats(cfg *config.Config) {
	deps, cleanup, err := bootstrap.NewDependencies(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize dependencies: %v", err)
	}
	defer cleanup()

	if deps.Learner == nil {
		logger.Fatal("Stats require a pattern store (DATABASE_URL)")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	stats, err := deps.Learner.Stats(ctx)
	if err != nil {
		logger.Fatal("Stats failed: %v", err)
	}

	logger.Info("Learning stats: %d keyword patterns, %d team patterns, %d feedback records, snapshot built %s from %d patterns",
		stats.KeywordPatterns, stats.TeamPatterns, stats.FeedbackRecords,
		stats.SnapshotBuiltAt.Format(time.RFC3339), stats.SnapshotPatterns)
}
