package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"leasing-backend/internal/audit"
	"leasing-backend/internal/config"
	"leasing-backend/internal/database"
	"leasing-backend/internal/logger"
	"leasing-backend/internal/repository"
	"leasing-backend/internal/scheduler"
	"leasing-backend/internal/server"

	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	l := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})
	logger.SetGlobalLogger(l)
	cfg.Warn()

	db, err := database.Init(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("database initialisation failed")
	}
	store := repository.NewGormStore(db)

	if cfg.SeedDemoData {
		if err := repository.SeedDemo(context.Background(), store, time.Now()); err != nil {
			log.Fatal().Err(err).Msg("demo seed failed")
		}
		log.Info().Msg("demo conventions, campaigns and catalog loaded")
	}

	sched := scheduler.New(l)
	if cfg.CampaignSweepSchedule != "" {
		expiry := scheduler.NewExpiryJob(store)
		if err := sched.AddJob(cfg.CampaignSweepSchedule, expiry); err != nil {
			log.Fatal().Err(err).Msg("register expiry sweep")
		}
		// deactivate anything that ended while the service was down
		if err := sched.RunNow(expiry); err != nil {
			log.Error().Err(err).Msg("initial expiry sweep failed")
		}
	}
	sched.Start()

	app := server.New(server.Deps{
		Config: cfg,
		Store:  store,
		Audit:  audit.NewService(db, store),
		Log:    l,
	})

	go func() {
		if err := app.Listen(":" + cfg.HTTPPort); err != nil {
			log.Fatal().Err(err).Msg("http server stopped")
		}
	}()
	log.Info().Str("port", cfg.HTTPPort).Msg("server started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Error().Err(err).Msg("server forced to shut down")
	}
	sched.Stop()

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info().Msg("server stopped")
}
