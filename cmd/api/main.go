package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"elearning-access/internal/adapters/auth/remote"
	"elearning-access/internal/adapters/notify"
	pg "elearning-access/internal/adapters/storage/postgres"
	"elearning-access/internal/jobs/expiryreminder"
	"elearning-access/internal/platform/config"
	"elearning-access/internal/platform/logger"
	"elearning-access/internal/platform/ratelimit"
	ratemem "elearning-access/internal/platform/ratelimit/memory"
	rateredis "elearning-access/internal/platform/ratelimit/redis"
	"elearning-access/internal/ports/auth"
	"elearning-access/internal/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.NewFromEnv().Error("config load failed", map[string]any{"err": err})
		os.Exit(1)
	}

	log := logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.LogLevel),
		Format: logger.ParseFormat(cfg.LogFormat),
		App:    cfg.AppName,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// DB opcional: sin DB_DSN todo queda in-memory (modo dev)
	var db *sql.DB
	if cfg.DBDSN != "" {
		db, err = pg.Open(cfg.DBDSN)
		if err != nil {
			log.Error("postgres open failed", map[string]any{"err": err})
			os.Exit(1)
		}
		defer db.Close()

		group, err := pg.Migrate(ctx, db)
		if err != nil {
			log.Error("postgres migrate failed", map[string]any{"err": err})
			os.Exit(1)
		}
		log.Info("postgres ready", map[string]any{"migrated_group": group})
	}

	limits := map[string]ratelimit.Limit{
		router.AdminAccessBucket: {Limit: cfg.AdminRateLimit, Window: cfg.AdminRateWindow},
	}
	var limiter ratelimit.Limiter = ratemem.New(limits)
	if cfg.RedisURL != "" {
		rdb, err := rateredis.Open(ctx, cfg.RedisURL)
		if err != nil {
			log.Error("redis open failed", map[string]any{"err": err})
			os.Exit(1)
		}
		defer rdb.Close()
		limiter = rateredis.New(rdb, limits, log.With(map[string]any{"component": "ratelimit"}))
	}

	// Sin AUTH_BASE_URL => modo dev con X-Debug-User-ID
	var verifier auth.AuthVerifier
	if cfg.AuthBaseURL != "" {
		v, err := remote.NewVerifier(remote.Config{
			BaseURL: cfg.AuthBaseURL,
			APIKey:  cfg.AuthAPIKey,
			Timeout: cfg.AuthTimeout,
		})
		if err != nil {
			log.Error("auth verifier setup failed", map[string]any{"err": err})
			os.Exit(1)
		}
		verifier = v
	} else {
		log.Warn("auth verifier disabled, debug headers accepted", nil)
	}

	handler, enrollSvc := router.NewRouter(router.Options{
		AuthVerifier: verifier,
		DB:           db,
		Limiter:      limiter,
		Logger:       log,
	})

	job, err := expiryreminder.New(enrollSvc, notify.NewLogNotifier(log), cfg.ReminderWindowDays, log)
	if err != nil {
		log.Error("expiry reminder setup failed", map[string]any{"err": err})
		os.Exit(1)
	}
	scheduler, err := job.Start(cfg.ReminderSchedule)
	if err != nil {
		log.Error("expiry reminder schedule invalid", map[string]any{"err": err, "schedule": cfg.ReminderSchedule})
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("starting server", map[string]any{"addr": srv.Addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", map[string]any{"err": err})
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down", nil)

	<-scheduler.Stop().Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown failed", map[string]any{"err": err})
	}
}
