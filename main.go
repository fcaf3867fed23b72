package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"pharmapos/m/internal/alerts"
	"pharmapos/m/internal/api"
	"pharmapos/m/internal/config"
	"pharmapos/m/internal/database"
	"pharmapos/m/internal/logger"
	"pharmapos/m/internal/migrations"
	"pharmapos/m/internal/seed"
	"pharmapos/m/internal/store"
)

func main() {
	cfg := config.Load()

	log, err := logger.Init(cfg.LogLevel, cfg.Env)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer log.Sync()

	db, err := database.Connect(cfg.DBDriver, cfg.DatabaseDSN)
	if err != nil {
		log.Fatal("database", zap.Error(err))
	}
	defer db.Close()

	if err := migrations.Run(db); err != nil {
		log.Fatal("migrations", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.SeedCSV != "" {
		if _, err := seed.LoadDrugsFile(ctx, db, cfg.SeedCSV, log); err != nil {
			log.Error("seed failed", zap.Error(err))
		}
	}

	st := store.New(db)
	if _, err := seed.EnsureAdmin(ctx, st, seed.Admin{
		Email:    cfg.AdminEmail,
		Password: cfg.AdminPassword,
		FullName: cfg.AdminName,
	}, log); err != nil {
		log.Fatal("admin bootstrap", zap.Error(err))
	}
	poller := alerts.NewPoller(st, cfg.AlertInterval, log.Named("alerts"))
	go poller.Run(ctx)

	handler := api.New(st, poller, api.Options{
		Secret:   cfg.Secret,
		TokenTTL: cfg.TokenTTL,
		Logger:   log,
	})
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("shutdown", zap.Error(err))
		}
	}()

	log.Info("pharmacy POS server starting", zap.String("addr", srv.Addr), zap.String("driver", cfg.DBDriver))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("server error", zap.Error(err))
	}
}
