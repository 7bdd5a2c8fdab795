package main

import (
	"context"
	"errors"
	netHttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"plugfolio-deployer/internal/adapters/http"
	"plugfolio-deployer/internal/adapters/ws/runws"
	"plugfolio-deployer/internal/adapters/ws/runws/subscribers"
	"plugfolio-deployer/internal/bootstrap"
	"plugfolio-deployer/internal/config"
	"plugfolio-deployer/internal/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	log := logger.New(cfg)

	if cfg.JWTSecret == "" {
		log.Error("JWT_SECRET is mandatory for the server")
		os.Exit(1)
	}
	if cfg.WebhookSecret == "" {
		log.Warn("WEBHOOK_SECRET is empty, push webhooks are not authenticated")
	}

	app, err := bootstrap.New(cfg, log)
	if err != nil {
		log.Error("failed to wire pipeline", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Error("close", "error", err)
		}
	}()

	// WebSocket
	wsHub := runws.NewHub(ctx, log)
	wsHandler := runws.NewHandler(wsHub, log, cfg.JWTSecret, cfg.AllowedOrigins)

	// Register event subscribers
	subscribers.Register(app.Bus, wsHub)

	router := http.NewRouter(cfg, &http.RouterDeps{
		WsRuns:  wsHandler.Serve,
		Webhook: http.NewWebhookHandler(app.Trigger, log),
		Stage:   http.NewStageHandler(app.Runner, log),
		Run:     http.NewRunHandler(app.Runs),
		Metrics: app.Metrics.Handler(),
		Log:     log,
	})

	srv := http.NewServer(router, cfg.Address, cfg.ExecutionTimeout)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		wsHub.Run()
		return nil
	})

	g.Go(func() error {
		log.Info("http: starting server", "address", cfg.Address, "execution_backend", cfg.ExecutionBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, netHttp.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		wsHub.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("http: server shutdown error", "error", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error("http: server error", "error", err)
	}

	log.Info("server stopped")
}
