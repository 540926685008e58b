// Package cli is the shared entry point of the maintenance commands:
// configure, connect, run the steps in order, disconnect, exit.
package cli

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/giahuy0968/GrowNet-sub001/internal/config"
	"github.com/giahuy0968/GrowNet-sub001/internal/db"
	"github.com/giahuy0968/GrowNet-sub001/internal/migrate"
)

// BuildFunc returns the steps of a command. It runs before connecting, so
// file inputs are validated pre-flight.
type BuildFunc func(cfg *config.Config) ([]migrate.Step, error)

// disconnectTimeout bounds the final Close, which runs even after the main
// context was cancelled.
const disconnectTimeout = 10 * time.Second

// Run executes a command and returns its process exit code.
func Run(name string, build BuildFunc) int {
	logger := log.New(os.Stderr, name+": ", log.LstdFlags|log.Lmsgprefix)

	cfg, err := config.Load()
	if err != nil {
		logger.Printf("%v", err)
		return 1
	}

	// Graceful stop on SIGINT/SIGTERM; the current step may be left partially
	// applied and is safe to re-run.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return execute(ctx, logger, cfg, build)
}

func execute(ctx context.Context, logger *log.Logger, cfg *config.Config, build BuildFunc) int {
	steps, err := build(cfg)
	if err != nil {
		logger.Printf("%v", err)
		return 1
	}

	client, err := db.New(ctx, db.Options{
		URI:                    cfg.MongoURI,
		Database:               cfg.Database,
		ServerSelectionTimeout: cfg.ServerSelectionTimeout,
		OperationTimeout:       cfg.OperationTimeout,
		Logger:                 logger,
	})
	// Released exactly once on every path; Close tolerates a nil client
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), disconnectTimeout)
		defer cancel()
		if err := client.Close(closeCtx); err != nil {
			logger.Printf("disconnect: %v", err)
		}
	}()
	if err != nil {
		logger.Printf("%v", err)
		return 1
	}

	reports, err := migrate.NewRunner(logger).Run(ctx, client, steps...)
	if err != nil {
		logger.Printf("aborted after %d of %d steps: %v", len(reports), len(steps), err)
		return 1
	}

	logger.Printf("done: %d steps applied", len(reports))
	return 0
}
