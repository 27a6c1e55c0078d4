package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/shelfsense/shelfsense/internal/core"
	"github.com/shelfsense/shelfsense/internal/di"
	"github.com/shelfsense/shelfsense/internal/factory"
	"github.com/shelfsense/shelfsense/internal/ports"
	"github.com/shelfsense/shelfsense/internal/scheduler"
	"go.uber.org/zap"
)

func main() {
	// Build the dependency injection container
	container, err := di.BuildContainer()
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	// Run the application
	if err := container.Invoke(run); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

// run is the main application function that gets all dependencies injected
func run(
	logger *zap.Logger,
	ingestors []ports.Ingestor,
	sched *scheduler.Scheduler,
	extractor core.ItemExtractor,
	stores *factory.Stores,
) error {
	defer logger.Sync()

	// Start the intake surfaces
	for _, ingestor := range ingestors {
		if err := ingestor.Start(); err != nil {
			logger.Fatal("Failed to start ingestor", zap.Error(err))
			return err
		}
	}

	// Start the background loops
	if err := sched.Start(); err != nil {
		logger.Fatal("Failed to start scheduler", zap.Error(err))
		return err
	}

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	<-sigCh
	logger.Info("Shutting down...")

	if err := sched.Stop(); err != nil {
		logger.Error("Failed to stop scheduler", zap.Error(err))
	}
	for _, ingestor := range ingestors {
		if err := ingestor.Stop(); err != nil {
			logger.Error("Failed to stop ingestor", zap.Error(err))
		}
	}

	// Close any resources that need closing
	if closer, ok := extractor.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close item extractor", zap.Error(err))
		}
	}
	if err := stores.Close(); err != nil {
		logger.Error("Failed to close storage backend", zap.Error(err))
	}

	logger.Info("Shutdown complete")
	return nil
}
