package main

import (
	"context"
	"errors"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"notebin/internal/auth"
	"notebin/internal/config"
	"notebin/internal/domain/services"
	"notebin/internal/handler"
	"notebin/internal/metrics"
	"notebin/internal/middleware"
	"notebin/internal/notify"
	"notebin/internal/pipeline"
	"notebin/internal/repository/remote"
	"notebin/internal/service"
	"notebin/internal/store"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/cors"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	// Setup structured logging
	logLevel := slog.LevelInfo
	if cfg.Environment == "dev" {
		logLevel = slog.LevelDebug
	}

	var logOutput io.Writer = os.Stdout
	if cfg.LogDir != "" {
		logFile, err := config.SetupLogFile(cfg.LogDir, "server", cfg.LogMaxFiles)
		if err != nil {
			log.Fatalf("Failed to set up log file: %v", err)
		}
		defer logFile.Close()
		logOutput = io.MultiWriter(os.Stdout, logFile)
	}

	logger := slog.New(slog.NewJSONHandler(logOutput, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"store_backend", cfg.StoreBackend,
		"store_path", cfg.StorePath,
	)

	ctx := context.Background()

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics("server", registry)

	// Blob store
	blobStore, closeStore, err := store.Open(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer closeStore()

	// Repository
	coordinator := remote.NewCoordinator(blobStore, cfg.StorePath, logger,
		remote.WithMaxAttempts(cfg.MaxAttempts),
		remote.WithRetryBackoff(cfg.RetryBackoff),
		remote.WithMetrics(m),
	)
	recordRepo := remote.NewRecordRepository(coordinator, cfg.CacheTTL, logger)

	// Content pipeline
	classifier, err := pipeline.LoadDefaultClassifier(cfg.ClassifierKeywords)
	if err != nil {
		log.Fatalf("Failed to load classifier: %v", err)
	}
	var obfuscator, filter services.ContentHook
	if cfg.ObfuscatorURL != "" {
		obfuscator = pipeline.NewObfuscationHook(cfg.ObfuscatorURL, cfg.HookTimeout)
	}
	if cfg.FilterURL != "" {
		filter = pipeline.NewFilterHook(cfg.FilterURL, cfg.HookTimeout)
	}
	contentPipeline := pipeline.NewPipeline(classifier, obfuscator, filter, m, logger)
	logger.Info("content pipeline initialized",
		"keywords", len(classifier.Keywords()),
		"obfuscator", obfuscator != nil,
		"filter", filter != nil,
	)

	// Notifications
	var notifier services.Notifier
	var webhook *notify.Webhook
	if cfg.WebhookURL != "" {
		webhook = notify.NewWebhook(cfg.WebhookURL, logger)
		notifier = webhook
	}

	// Write access
	authenticator, closeAuth, err := setupAuthenticator(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to set up authentication: %v", err)
	}
	defer closeAuth()

	// Services
	recordService := service.NewRecordService(recordRepo, contentPipeline, notifier, logger)
	importService := service.NewImportService(blobStore, recordRepo, logger)

	// Handlers
	recordHandler := handler.NewRecordHandler(recordService, auth.NewClientFilter(cfg.ClientUAMatch), logger)
	importHandler := handler.NewImportHandler(importService, cfg.LegacyDir, logger)

	logger.Info("services initialized")

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, recordHandler, importHandler, middleware.RequireWrite(authenticator, logger))
	mux.Handle("GET /metrics", m.Handler())

	// Build middleware chain
	// Order: CORS → Recovery → Logging → Body limit → Metrics → Routes
	// Metrics wraps the mux directly so the matched pattern is visible to it.
	var h http.Handler = mux
	h = m.Middleware(h)
	h = middleware.MaxBody(config.MaxRequestBytes)(h)
	h = middleware.RequestLogger(logger)(h)
	h = middleware.Recovery(logger)(h)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", auth.PasswordHeader},
	})
	h = corsHandler.Handler(h)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}
	if webhook != nil {
		webhook.Wait()
	}
	logger.Info("server stopped")
}

// setupAuthenticator builds the write authenticator for AUTH_MODE
func setupAuthenticator(cfg *config.Config, logger *slog.Logger) (auth.Authenticator, func() error, error) {
	noop := func() error { return nil }

	switch cfg.AuthMode {
	case "none":
		logger.Warn("write authentication disabled")
		return auth.AllowAll{}, noop, nil
	case "secret":
		secret, err := auth.NewSharedSecret(cfg.WriteSecret)
		if err != nil {
			return nil, noop, err
		}
		return secret, noop, nil
	case "jwt":
		verifier, err := auth.NewJWTVerifier(cfg.JWKSURL, cfg.JWTRole, logger)
		if err != nil {
			return nil, noop, err
		}
		return verifier, verifier.Close, nil
	default:
		return nil, noop, errors.New("unknown AUTH_MODE " + cfg.AuthMode)
	}
}
