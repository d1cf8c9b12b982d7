package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nova-drive-be/internal/bootstrap"
	"nova-drive-be/internal/config"
	"nova-drive-be/internal/server"
	"nova-drive-be/internal/tracer"

	"golang.org/x/sync/errgroup"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Bootstrap Dependencies (Container)
	container, err := bootstrap.NewContainer(ctx, cfg)
	if err != nil {
		log.Fatalf("Bootstrap failed: %v", err)
	}
	defer container.Close()
	sysLogger := container.Logger

	// 3. Tracer
	shutdownTracer := tracer.InitTracer(ctx, cfg.App.OtelEnabled, cfg.App.OtelEndpoint, sysLogger)
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracer(sctx)
	}()

	srv := server.New(cfg, container)

	// 4. Background services share one lifetime with the HTTP server.
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		container.WebSocketHub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		return container.ConsumerService.Consume(gctx)
	})
	g.Go(func() error {
		if err := container.StartAlertFeed(gctx); err != nil {
			// The orchestrator treats an unreadable feed as safe.
			sysLogger.Error("MAIN", "Alert feed did not start", map[string]interface{}{"error": err.Error()})
		}
		return nil
	})
	g.Go(func() error {
		return container.Orchestrator.Run(gctx)
	})
	g.Go(func() error {
		return srv.Run()
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(sctx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		sysLogger.Error("MAIN", "Service stopped with error", map[string]interface{}{"error": err.Error()})
		return
	}
	sysLogger.Info("MAIN", "Shutdown complete", nil)
}
