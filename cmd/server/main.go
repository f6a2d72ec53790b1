// Package main is the entry point for the kalshigym dashboard server.
// It serves the live dashboard API and websocket stream that training and
// evaluation runs publish to, and runs the dashboard maintenance jobs.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aristath/kalshigym/internal/config"
	"github.com/aristath/kalshigym/internal/di"
	"github.com/aristath/kalshigym/internal/server"
	"github.com/aristath/kalshigym/pkg/logger"
)

func main() {
	// Load configuration first to get log level
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: true,
	})
	logger.SetGlobalLogger(log)

	log.Info().Msg("Starting kalshigym dashboard")

	// Databases, services and jobs
	container, jobs, err := di.Wire(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire dependencies")
	}
	defer container.Close()

	srv := server.New(server.Config{
		Log:        log,
		Port:       cfg.Port,
		DevMode:    cfg.DevMode,
		DataDir:    cfg.DataDir,
		DB:         container.DashboardDB,
		Bus:        container.EventBus,
		Dashboard:  container.Dashboard,
		Evaluation: container.Evaluation,
	})

	go func() {
		if err := srv.Start(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	container.Scheduler.Start()

	// Archive anything left over from runs that finished while we were down
	if jobs.RolloutArchive != nil {
		go func() {
			if err := container.Scheduler.RunNow(jobs.RolloutArchive); err != nil {
				log.Error().Err(err).Msg("Initial rollout archive failed")
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	container.Scheduler.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
