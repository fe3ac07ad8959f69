package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"photostore/internal/config"
	"photostore/internal/database"
	"photostore/internal/logging"
	"photostore/internal/syncer"
)

// The worker process consumes sync:start tasks and runs push passes against
// the cloud endpoint. It shares the media store file with the daemon.
func main() {
	appConfig, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}
	if !appConfig.Sync.Enabled {
		log.Fatal("Sync is disabled; the worker has nothing to do")
	}

	logger := logging.InitGlobalLogger(logging.LogLevel(appConfig.Logging.Level), appConfig.Logging.Format, nil)

	dbManager, err := database.NewDatabaseManager(&appConfig.Database, logger.Zerolog())
	if err != nil {
		logger.Fatalf("Failed to open media store: %v", err)
	}
	defer dbManager.Close()

	coord := syncer.NewCoordinator()
	worker := syncer.NewWorker(appConfig.Sync, dbManager.GetGormDB(), coord, nil, logger.Zerolog())

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		logger.Info("Shutting down worker...")
		worker.Shutdown()
	}()

	logger.Infof("Worker consuming queue %q", appConfig.Sync.Queue)
	if err := worker.Run(); err != nil {
		logger.Fatalf("Worker stopped: %v", err)
	}
}
