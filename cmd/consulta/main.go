package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/bolivarlabs/consulta-gateway/internal/config"
	"github.com/bolivarlabs/consulta-gateway/internal/dispatch"
	"github.com/bolivarlabs/consulta-gateway/internal/domain"
	"github.com/bolivarlabs/consulta-gateway/internal/handlers"
	"github.com/bolivarlabs/consulta-gateway/internal/server"
	"github.com/bolivarlabs/consulta-gateway/internal/telemetry"
	"github.com/bolivarlabs/consulta-gateway/internal/upstream"
	"github.com/bolivarlabs/consulta-gateway/internal/validate"
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	level := slog.LevelInfo
	if cfg.Server.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	shutdownTracer, err := telemetry.InitTracer("consulta-gateway", cfg.Server.Environment, cfg.Server.Debug, logger)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			logger.Error("failed to shutdown tracer", slog.String("error", err.Error()))
		}
	}()

	clientOpts := []upstream.Option{upstream.WithLogger(logger)}
	if cfg.Upstream.TokenCache {
		clientOpts = append(clientOpts, upstream.WithTokenCache())
	}
	if cfg.Upstream.MaxRetries > 0 {
		clientOpts = append(clientOpts, upstream.WithMaxRetries(uint64(cfg.Upstream.MaxRetries)))
	}
	client := upstream.New(upstream.CredentialsFromEnv(), clientOpts...)

	svc := dispatch.New(client,
		dispatch.WithPlatePolicy(validate.PlatePolicy(cfg.Validation.PlatePolicy)),
		dispatch.WithCapabilities(capabilities(cfg)...),
		dispatch.WithLogger(logger),
	)

	srv := server.New(cfg.Server.Host, cfg.Server.Port, logger)
	handlers.New(svc, cfg.Server.Environment, logger).Routes(srv.Router)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	case sig := <-sigCh:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("server shutdown complete")
}

func capabilities(cfg *config.Config) []domain.QueryKind {
	kinds := make([]domain.QueryKind, 0, len(cfg.Capabilities))
	for _, c := range cfg.Capabilities {
		switch c {
		case "vehiculo":
			kinds = append(kinds, domain.KindVehicle)
		case "cliente":
			kinds = append(kinds, domain.KindCustomer)
		}
	}
	return kinds
}
