package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"lockshare/api/internal/app"
	"lockshare/api/internal/auth"
	"lockshare/api/internal/config"
	"lockshare/api/internal/revoke"
	"lockshare/api/internal/store"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	dataStore, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer dataStore.Close()

	if err := store.ApplyMigrations(ctx, dataStore.DB(), cfg.MigrationsDir); err != nil {
		log.Fatalf("migrations failed: %v", err)
	}

	var revoked auth.RevocationSet
	if strings.TrimSpace(cfg.RedisURL) != "" {
		log.Printf("Using Redis for credential revocation")
		redisSet, err := revoke.NewRedisSet(cfg.RedisURL)
		if err != nil {
			log.Fatalf("redis connection failed: %v", err)
		}
		defer redisSet.Close()
		revoked = redisSet
	} else {
		log.Printf("Using in-memory credential revocation")
		revoked = revoke.NewMemorySet()
	}

	service := app.New(cfg, dataStore, revoked)
	httpServer := app.NewHTTPServer(service, cfg.CORSOrigin)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("Lockshare API listening on %s", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
