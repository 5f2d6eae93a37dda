package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	webAdapter "mbs-manager/internal/adapters/web"
	"mbs-manager/internal/auth"
	"mbs-manager/internal/config"
	"mbs-manager/internal/db"
	"mbs-manager/internal/logger"
	"mbs-manager/internal/notify"
	"mbs-manager/internal/realtime"
	"mbs-manager/internal/repository"
	"mbs-manager/internal/store"
	"mbs-manager/migrations"
)

func main() {
	_ = godotenv.Load()

	cfg := config.LoadEnv()
	log := logger.New(cfg)
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.Database)
	if err != nil {
		log.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := migrations.Apply(ctx, pool, cfg.Realtime.Channel); err != nil {
		log.Fatal("migrations", zap.Error(err))
	}

	client := store.NewClient(pool)
	feed := store.NewFeed(client, cfg.Realtime.Channel, log)
	go func() {
		if err := feed.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("change feed stopped", zap.Error(err))
		}
	}()

	hub := realtime.NewHub(feed, log)
	sockets := realtime.NewSockets(log)
	repos := repository.New(client)
	authSvc := auth.NewService(client, auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL))

	handler := webAdapter.NewHandler(webAdapter.Deps{
		Auth:           authSvc,
		Repos:          repos,
		Changes:        hub,
		Sockets:        sockets,
		Notifier:       notify.NewService(repos.Notifications, sockets, log),
		Log:            log,
		AllowedOrigins: cfg.Server.Origins(),
		SessionTTL:     cfg.Auth.SessionTTL,
		SecureCookies:  !cfg.IsDevelopment(),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           handler,
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

	log.Info("server starting", zap.String("port", cfg.Server.Port), zap.String("env", cfg.Server.AppEnv))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("server", zap.Error(err))
	}
	log.Info("server stopped")
}
