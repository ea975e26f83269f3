package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"guardian/internal/auth"
	"guardian/internal/config"
	"guardian/internal/db"
	httpx "guardian/internal/http"
	"guardian/internal/jobs"
	"guardian/internal/mail"

	"go.uber.org/zap"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config load failed", zap.Error(err))
	}

	gdb, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("database connect failed", zap.Error(err))
	}
	if err := db.AutoMigrateAndIndexes(gdb); err != nil {
		logger.Fatal("migration failed", zap.Error(err))
	}

	store := auth.NewStore(gdb)
	engine := auth.NewEngine(store, cfg.CodeLength, cfg.CodeExpiry, logger)
	limiter := auth.NewLimiter(store, cfg.RateLimitRequests, cfg.RateLimitWindow, logger)
	sessions := auth.NewSessions(cfg.Secret, cfg.SessionExpiry)
	sender := mail.NewMailgun(cfg, logger)
	svc := auth.NewService(store, engine, limiter, sessions, sender, cfg.EmailWhitelist, logger)

	reaper := jobs.NewReaper(engine, logger)
	reaper.Start()

	r := httpx.NewRouter(cfg, svc, logger)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	// graceful shutdown
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	<-ch

	reaper.Stop()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
}
