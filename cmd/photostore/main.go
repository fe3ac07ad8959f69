package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"photostore/internal/capacity"
	"photostore/internal/config"
	"photostore/internal/database"
	"photostore/internal/health"
	"photostore/internal/logging"
	"photostore/internal/maintenance"
	"photostore/internal/metrics"
	"photostore/internal/store"
	"photostore/internal/syncer"
)

// Version of the application
var Version = "1.0.0"

func main() {
	appConfig, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}

	logger := logging.InitGlobalLogger(logging.LogLevel(appConfig.Logging.Level), appConfig.Logging.Format, nil)
	logger.Infof("Starting photostore v%s", Version)

	dbManager, err := database.NewDatabaseManager(&appConfig.Database, logger.Zerolog())
	if err != nil {
		logger.Fatalf("Failed to open media store: %v", err)
	}
	defer dbManager.Close()

	migrator := database.NewMigrationManager(dbManager.GetGormDB(), logger.Zerolog())
	if err := migrator.Migrate(); err != nil {
		logger.Fatalf("Failed to migrate media store: %v", err)
	}

	// Once the logs table exists, log entries also persist to it.
	logStorage := logging.NewLogStorage(dbManager.GetGormDB())
	logger = logging.InitGlobalLogger(logging.LogLevel(appConfig.Logging.Level), appConfig.Logging.Format, logStorage)

	m := metrics.InitializeMetrics()

	var coord *syncer.Coordinator
	var trigger store.SyncTrigger
	var syncCtl store.SyncController
	var asynqTrigger *syncer.Trigger
	if appConfig.Sync.Enabled {
		coord = syncer.NewCoordinator()
		syncCtl = coord
		asynqTrigger = syncer.NewTrigger(appConfig.Sync, logger.Zerolog())
		trigger = asynqTrigger
		defer asynqTrigger.Close()
	}

	st := store.NewStore(dbManager, appConfig.Engine, logger.Zerolog(), m, syncCtl, trigger)

	// Aggregates may be stale after an unclean shutdown; heal before serving.
	startupCtx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	if err := st.RefreshAllAlbums(startupCtx); err != nil {
		cancel()
		logger.Fatalf("Startup album recompute failed: %v", err)
	}
	cancel()

	sched := maintenance.NewScheduler(st, logStorage, appConfig.Maintenance, logger.Zerolog())
	if err := sched.Start(); err != nil {
		logger.Fatalf("Failed to start maintenance schedule: %v", err)
	}
	defer sched.Stop()

	stopProbe := make(chan struct{})
	probe := capacity.NewProbe(m)
	storageRoot := filepath.Dir(appConfig.Database.Path)
	probe.Monitor(storageRoot, time.Hour, stopProbe, func(usage capacity.UsageInfo, err error) {
		if err != nil {
			logger.Warnf("Storage capacity probe failed: %v", err)
			return
		}
		if usage.Status != "ok" {
			logger.Warnf("Storage volume %s at %.1f%% used (%s)", usage.Path, usage.UsedPercent, usage.Status)
		}
	})
	defer close(stopProbe)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", health.Handler(dbManager.GetGormDB()))
	metricsSrv := &http.Server{Addr: ":9190", Handler: mux}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorf("Metrics endpoint failed: %v", err)
		}
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	logger.Info("Shutting down gracefully...")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Error during metrics shutdown: %v", err)
	}
}
