// Package main is the entry point for the API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/wavelength-ai/chat-insights/internal/config"
	"github.com/wavelength-ai/chat-insights/internal/events"
	"github.com/wavelength-ai/chat-insights/internal/handler"
	"github.com/wavelength-ai/chat-insights/internal/insight"
	"github.com/wavelength-ai/chat-insights/internal/llm"
	"github.com/wavelength-ai/chat-insights/internal/middleware"
	"github.com/wavelength-ai/chat-insights/internal/service"
	"github.com/wavelength-ai/chat-insights/internal/store"
	"github.com/wavelength-ai/chat-insights/internal/ws"
	"github.com/wavelength-ai/chat-insights/pkg/logger"
	"github.com/wavelength-ai/chat-insights/pkg/tracing"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("starting API server")

	// Initialize tracing if enabled
	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "chat-insights", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// Open the message store
	st, err := store.NewSQLiteStore(cfg.DatabasePath, log)
	if err != nil {
		log.Error("failed to open store", zap.Error(err))
		os.Exit(1)
	}
	defer st.Close()

	// Initialize LLM client, preferring the configured default provider and
	// falling back to whichever key is present.
	var llmClient llm.Client
	if cfg.DefaultLLM == string(llm.ProviderOpenAI) && cfg.OpenAIAPIKey != "" {
		llmClient, err = llm.NewClient(llm.ProviderOpenAI, cfg.OpenAIAPIKey)
	} else if cfg.AnthropicAPIKey != "" {
		llmClient, err = llm.NewClient(llm.ProviderAnthropic, cfg.AnthropicAPIKey)
	} else if cfg.OpenAIAPIKey != "" {
		llmClient, err = llm.NewClient(llm.ProviderOpenAI, cfg.OpenAIAPIKey)
	}
	if err != nil {
		log.Warn("failed to create LLM client, insight features disabled", zap.Error(err))
		llmClient = nil
	}
	if llmClient == nil {
		log.Warn("no LLM API key configured, insight features disabled")
	}

	generator := insight.NewLLMGenerator(llmClient, insight.Options{
		Model:      cfg.GeneratorModel,
		Timeout:    cfg.GeneratorTimeout,
		MaxRetries: cfg.GeneratorMaxRetries,
	}, log)

	// Optional event publishing
	var publisher events.Publisher = events.Noop{}
	if cfg.NATSURL != "" {
		natsPub, err := events.Connect(cfg.NATSURL, log)
		if err != nil {
			log.Warn("failed to connect to NATS, event publishing disabled", zap.Error(err))
		} else {
			publisher = natsPub
			defer natsPub.Close()
		}
	}

	// Realtime hub and services
	hub := ws.NewHub(log)
	chatSvc := service.NewChatService(st, generator, hub, publisher, log, cfg.BroadcastTimeout)

	// Initialize handlers
	healthHandler := handler.NewHealthHandler(st)
	chatHandler := handler.NewChatHandler(chatSvc, log)
	wsHandler := handler.NewWSHandler(chatSvc, hub, log)

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"Link", "X-Correlation-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.Identity(cfg.JWTSecret))

	// Health endpoints
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// Metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	// Chat API
	r.Route("/chats", func(r chi.Router) {
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		r.Post("/", chatHandler.Create)
		r.Post("/summarize", chatHandler.Summarize)
		r.Get("/users/{user_id}/messages", chatHandler.UserMessages)
		r.Get("/ws/{conversation_id}", wsHandler.Serve)
		r.Get("/{conversation_id}", chatHandler.GetConversation)
		r.Delete("/{conversation_id}", chatHandler.Delete)
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      r,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}
