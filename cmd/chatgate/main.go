// Package main is the entry point for the chat gateway server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"

	"chatgate/config"
	"chatgate/internal/cache"
	"chatgate/internal/catalog"
	"chatgate/internal/dispatch"
	"chatgate/internal/httpclient"
	"chatgate/internal/observability"
	"chatgate/internal/providers"
	"chatgate/internal/providers/ollama"
	"chatgate/internal/providers/openrouter"
	"chatgate/internal/server"
	"chatgate/internal/version"
)

func main() {
	versionFlag := flag.Bool("version", false, "Print version information")
	flag.Parse()

	if *versionFlag {
		fmt.Println(version.Info())
		os.Exit(0)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Setup structured logging
	var handler slog.Handler
	if cfg.Logging.Format == config.LogFormatText {
		handler = tint.NewHandler(os.Stdout, &tint.Options{TimeFormat: time.Kitchen})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, nil)
	}
	slog.SetDefault(slog.New(handler))

	// Log the version immediately on startup
	slog.Info("starting chatgate",
		"version", version.Version,
		"commit", version.Commit,
		"build_date", version.Date,
	)

	// Build the response cache backend
	var responseCache cache.Cache
	switch cfg.Cache.Backend {
	case config.CacheBackendRedis:
		responseCache, err = cache.NewRedisCache(cache.RedisConfig{
			URL: cfg.Cache.RedisURL,
			TTL: cfg.Cache.TTL,
		})
		if err != nil {
			slog.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		slog.Info("response cache enabled", "backend", "redis", "ttl", cfg.Cache.TTL)
	default:
		responseCache = cache.NewMemoryCache(cfg.Cache.TTL)
		slog.Info("response cache enabled", "backend", "memory", "ttl", cfg.Cache.TTL)
	}
	defer responseCache.Close()

	// Setup metrics collection (if enabled)
	var metrics *observability.Metrics
	if cfg.Metrics.Enabled {
		metrics = observability.New()
		slog.Info("prometheus metrics enabled", "endpoint", "/metrics")
	} else {
		slog.Info("prometheus metrics disabled")
	}

	// Register the two backend adapters
	httpClient := httpclient.NewDefault()
	localProvider := ollama.New(ollama.Config{
		BaseURL:      cfg.Ollama.BaseURL,
		DefaultModel: cfg.Ollama.DefaultModel,
		HTTPClient:   httpClient,
	})
	remoteProvider := openrouter.New(openrouter.Config{
		APIKey:     cfg.OpenRouter.APIKey,
		BaseURL:    cfg.OpenRouter.BaseURL,
		HTTPClient: httpClient,
	})

	registry := providers.NewRegistry()
	registry.Register(localProvider)
	registry.Register(remoteProvider)

	if cfg.OpenRouter.APIKey == "" {
		slog.Warn("OPENROUTER_API_KEY not set - remote requests and fallback will fail",
			"recommendation", "set OPENROUTER_API_KEY to enable the hosted backend")
	}

	dispatcher := dispatch.New(registry, responseCache, metrics)
	modelCatalog := catalog.New(localProvider)

	// Security check: warn if no master key is configured
	var verifier *server.StaticKeyVerifier
	if cfg.Auth.MasterKey == "" {
		slog.Warn("SECURITY WARNING: CHATGATE_MASTER_KEY not set - server running in UNSAFE MODE",
			"security_risk", "unauthenticated access allowed",
			"recommendation", "set CHATGATE_MASTER_KEY environment variable to secure this gateway")
	} else {
		verifier = server.NewStaticKeyVerifier(cfg.Auth.MasterKey)
		slog.Info("authentication enabled", "mode", "master_key")
	}

	serverCfg := &server.Config{
		MetricsEnabled: cfg.Metrics.Enabled,
	}
	if verifier != nil {
		serverCfg.Verifier = verifier
	}
	srv := server.New(server.NewHandler(dispatcher, modelCatalog), serverCfg)

	// Handle graceful shutdown
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		slog.Info("shutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	addr := ":" + cfg.Server.Port
	slog.Info("starting server", "address", addr)

	if err := srv.Start(addr); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			slog.Info("server stopped gracefully")
		} else {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}
}
