package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"uav-log-analyzer/internal/cache"
	"uav-log-analyzer/internal/config"
	"uav-log-analyzer/internal/handlers"
	"uav-log-analyzer/internal/logging"
	"uav-log-analyzer/internal/metrics"
	"uav-log-analyzer/internal/narrative"
	"uav-log-analyzer/internal/version"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg.Logging)
	logger.Info().Str("version", version.Version).Msg("Starting flight log analysis service...")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Хранилище сессий
	sessions, err := openSessions(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open session store")
	}
	defer sessions.Close()

	// Нарративный слой
	narrator := newNarrator(cfg, logger)

	// Инициализация HTTP handlers
	handler := handlers.NewHandler(sessions, narrator, handlers.Options{
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
		MaxFormBytes:   cfg.Server.MaxFormBytes,
		MaxSamples:     cfg.Decoder.MaxSamples,
	}, logger)

	// Настройка HTTP router
	mux := http.NewServeMux()
	handler.Register(mux)

	// Prometheus metrics endpoint
	mux.Handle("/prometheus", promhttp.Handler())

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handlers.WithAccessLog(logger, handlers.WithCORS(mux)),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info().Str("port", cfg.Server.Port).Msg("Server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Server error")
		}
	}()

	// Периодическое обновление метрик
	go updateMetrics(ctx, sessions, logger)

	<-ctx.Done()
	logger.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
		return
	}

	logger.Info().Msg("Server stopped gracefully")
}

// openSessions выбирает Redis, если задан адрес, иначе память процесса
func openSessions(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (cache.SessionStore, error) {
	if cfg.Redis.Addr == "" {
		logger.Info().Dur("ttl", cfg.Session.TTL).Msg("Using in-memory session store")
		return cache.NewMemoryStore(cfg.Session.TTL), nil
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	redisCache, err := cache.NewRedisCache(pingCtx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Session.TTL)
	if err != nil {
		return nil, err
	}
	logger.Info().Str("addr", cfg.Redis.Addr).Dur("ttl", cfg.Session.TTL).Msg("Connected to Redis")
	return redisCache, nil
}

func newNarrator(cfg *config.Config, logger zerolog.Logger) narrative.Narrator {
	if cfg.LLM.APIKey == "" {
		logger.Warn().Msg("llm.api_key not configured; chat answers contain detector output only")
		return narrative.EvidenceNarrator{}
	}
	return narrative.NewOpenAIClient(narrative.Options{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
	}, logger)
}

// updateMetrics периодически обновляет метрики
func updateMetrics(ctx context.Context, sessions cache.SessionStore, logger zerolog.Logger) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			count, err := sessions.Count(ctx)
			if err != nil {
				logger.Debug().Err(err).Msg("failed to count sessions")
				continue
			}
			metrics.ActiveSessions.Set(float64(count))
		}
	}
}
