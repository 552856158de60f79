package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielhooper/roomrelay/internal/config"
	"github.com/danielhooper/roomrelay/internal/ratelimit"
	"github.com/danielhooper/roomrelay/internal/server"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	var limiter ratelimit.Limiter
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatalf("Failed to connect to Redis at %s: %v", cfg.RedisAddr, err)
		}
		log.Printf("Connected to Redis at %s", cfg.RedisAddr)
		limiter = ratelimit.NewRedisLimiter(rdb, cfg.RateLimit.Max, cfg.RateLimit.Window())
	} else {
		limiter = ratelimit.NewIPLimiter(cfg.RateLimit.Max, cfg.RateLimit.Window())
	}

	opts := []server.Option{
		server.WithLimiter(limiter),
		server.WithOriginPatterns(cfg.OriginPatterns()),
	}
	if cfg.PublicDir != "" {
		opts = append(opts, server.WithPublicDir(cfg.PublicDir))
	}

	srv := server.New(cfg.Addr(), opts...)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting room relay server on %s (%s)", cfg.Addr(), cfg.Env)
		errCh <- srv.Run()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	case sig := <-stop:
		log.Printf("Received %s, shutting down", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Fatalf("Shutdown error: %v", err)
		}
	}
}
