package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"statusboard-backend/internal/clock"
	"statusboard-backend/internal/config"
	"statusboard-backend/internal/database"
	"statusboard-backend/internal/handlers"
	"statusboard-backend/internal/middleware"
	"statusboard-backend/internal/router"
	"statusboard-backend/internal/services"
	"statusboard-backend/internal/websocket"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP + WebSocket API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer logger.Sync()
	logger.Info("starting statusboard backend", zap.String("env", cfg.Env), zap.String("store", cfg.StoreBackend))

	// ──── Step 2: Initialize Redis Clients ────
	redisClients, err := database.NewRedisClients(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	defer redisClients.Close()
	logger.Info("redis connected")

	// ──── Step 3: Open Store Backend ────
	st, err := openStores(cfg, redisClients, logger)
	if err != nil {
		return err
	}
	defer st.Close()
	logger.Info("store backend ready", zap.String("backend", cfg.StoreBackend))

	// ──── Initialize Services ────
	clk := clock.Real{}
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret)
	sessions := services.NewSessionManager(redisClients.Main, cfg.SessionTTL)
	publisher := services.NewRedisPublisher(redisClients.Main)

	engine := services.NewStatusEngine(st.statuses, st.logs, clk, publisher, services.EngineOptions{
		PersistInactive: cfg.InactivePolicy == config.InactivePolicyPersist,
		IndexedLookup:   cfg.DurationLookup == config.DurationLookupIndexed,
	}, logger.Named("engine"))
	authService := services.NewAuthService(st.users, st.statuses, sessions, publisher, jwtAuth, cfg.AdminCode, clk, logger.Named("auth"))

	// An interval of zero disables the background audit.
	if cfg.AuditInterval > 0 {
		auditor := services.NewConsistencyAuditor(st.users, st.statuses, st.logs, clk, cfg.AuditInterval, logger.Named("audit"))
		auditor.Start()
		defer auditor.Stop()
	}

	// ──── Initialize Handlers ────
	authHandler := handlers.NewAuthHandler(authService, sessions)
	statusHandler := handlers.NewStatusHandler(engine, sessions, logger.Named("http"))

	// ──── Step 4: Start WebSocket Hub ────
	wsHub := websocket.NewHub(redisClients.PubSub, jwtAuth, sessions, engine, clk, logger.Named("ws"))

	// ──── Step 5: Start HTTP Server ────
	authLimiter := middleware.NewRateLimiter(cfg.AuthRateLimitPerMin, time.Minute)
	defer authLimiter.Stop()

	r := router.New(jwtAuth, authLimiter, authHandler, statusHandler, wsHub, cfg.FrontendURL)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("statusboard backend ready",
			zap.String("api", fmt.Sprintf("http://localhost:%s/api/v1", cfg.Port)),
			zap.String("ws", fmt.Sprintf("ws://localhost:%s/api/v1/ws", cfg.Port)),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
