package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/time/rate"

	"github.com/devconnect-api/internal/config"
	jwtinfra "github.com/devconnect-api/internal/infrastructure/jwt"
	redisinfra "github.com/devconnect-api/internal/infrastructure/redis"
	s3infra "github.com/devconnect-api/internal/infrastructure/s3"
	"github.com/devconnect-api/internal/infrastructure/store"
	"github.com/devconnect-api/internal/pkg/id"
	"github.com/devconnect-api/internal/pkg/logging"
	"github.com/devconnect-api/internal/presence"
	"github.com/devconnect-api/internal/realtime"
	transporthttp "github.com/devconnect-api/internal/transport/http"
	appmiddleware "github.com/devconnect-api/internal/transport/http/middleware"
)

func main() {
	envErr := godotenv.Load()

	cfg := config.Load()
	log := logging.New(cfg)
	slog.SetDefault(log)
	if envErr != nil {
		log.Info("no .env file found, reading from environment")
	}

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend, err := store.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer backend.Close(context.Background())
	if err := backend.Bootstrap(ctx, log); err != nil {
		return fmt.Errorf("bootstrap store: %w", err)
	}

	// JWT provider is optional; without it requests are identified by X-User-ID.
	var jwtProvider *jwtinfra.Provider
	if p, err := jwtinfra.NewProvider(cfg); err == nil {
		jwtProvider = p
	} else if cfg.IsProduction() {
		return fmt.Errorf("jwt provider: %w", err)
	} else {
		log.Warn("JWT provider not available", "error", err)
	}

	s3Client, err := s3infra.NewClient(ctx, cfg)
	if err != nil {
		return err
	}
	objects := s3infra.NewStore(s3Client, cfg.S3BucketName, cfg.S3PresignTTL)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	registry := presence.NewRegistry()
	relayOpts := realtime.Options{
		Origin:  id.New(),
		Metrics: realtime.NewMetrics(reg, registry),
		Logger:  log,
	}
	var fanout *redisinfra.Fanout
	if cfg.RedisURL != "" {
		rc, err := redisinfra.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer rc.Close()
		fanout = redisinfra.NewFanout(rc, cfg.RelayChannel, log)
		relayOpts.Fanout = fanout
	}
	relay := realtime.NewRelay(registry, relayOpts)
	if fanout != nil {
		go func() {
			if err := fanout.Run(ctx, relay.DeliverRemote); err != nil {
				log.Error("relay fan-out stopped", "error", err)
			}
		}()
		log.Info("relay fan-out enabled", "channel", cfg.RelayChannel, "origin", relay.Origin())
	}

	// 5 requests/second, burst of 20 per client IP on mutating endpoints.
	writeLimiter := appmiddleware.NewRateLimiter(rate.Limit(5), 20, cfg.TrustProxyHeaders)
	defer writeLimiter.Stop()

	deps := backend.Deps()
	deps.ObjectStore = objects
	deps.JWTProvider = jwtProvider
	deps.Relay = relay
	deps.WriteLimiter = writeLimiter
	deps.Registerer = reg
	deps.Gatherer = reg
	deps.Logger = log

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.AppPort),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	// Shutdown does not track hijacked connections; the socket handler
	// closes its own sessions through this hook.
	deps.RegisterOnShutdown = srv.RegisterOnShutdown
	srv.Handler = transporthttp.NewRouter(cfg, deps)

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", "port", cfg.AppPort, "env", cfg.AppEnv, "store", backend.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}
	relay.Wait()
	log.Info("server stopped")
	return nil
}
