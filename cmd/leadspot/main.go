package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/MichaelrKraft/leadspot-ai-sub001/internal/config"
	dbRedis "github.com/MichaelrKraft/leadspot-ai-sub001/internal/db/redis"
	logpkg "github.com/MichaelrKraft/leadspot-ai-sub001/internal/logger"
	"github.com/MichaelrKraft/leadspot-ai-sub001/internal/metrics"
	cacherepo "github.com/MichaelrKraft/leadspot-ai-sub001/internal/repository/cache"
	sourcesrepo "github.com/MichaelrKraft/leadspot-ai-sub001/internal/repository/sources"
	chiTransport "github.com/MichaelrKraft/leadspot-ai-sub001/internal/transport/chi"
	openaiClient "github.com/MichaelrKraft/leadspot-ai-sub001/internal/transport/openai"
	"github.com/MichaelrKraft/leadspot-ai-sub001/internal/usecase/citation"
	"github.com/MichaelrKraft/leadspot-ai-sub001/internal/usecase/contextbuild"
	healthuc "github.com/MichaelrKraft/leadspot-ai-sub001/internal/usecase/health"
	queryuc "github.com/MichaelrKraft/leadspot-ai-sub001/internal/usecase/query"
	"github.com/MichaelrKraft/leadspot-ai-sub001/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting leadspot query API",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register pipeline metrics explicitly (no init())
	metrics.RegisterPipelineMetrics()

	// Provider clients
	embedder := openaiClient.NewEmbedder(&openaiClient.EmbedderConfig{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   cfg.Embedding.Provider,
		Timeout:    time.Duration(cfg.Embedding.TimeoutSec) * time.Second,
		Logger:     logger,
	})
	synthesizer := openaiClient.NewSynthesizer(&openaiClient.SynthesizerConfig{
		APIKey:   cfg.Synthesis.APIKey,
		BaseURL:  cfg.Synthesis.BaseURL,
		Model:    cfg.Synthesis.Model,
		Provider: cfg.Synthesis.Provider,
		Timeout:  time.Duration(cfg.Synthesis.TimeoutSec) * time.Second,
		Logger:   logger,
	})
	logger.Info("Provider clients created",
		zap.String("embedding_model", cfg.Embedding.Model),
		zap.String("synthesis_model", cfg.Synthesis.Model),
	)

	// Repositories
	cache := cacherepo.New(store, cacherepo.Config{
		KeyPrefix:    cfg.Storage.KeyPrefix,
		QueryTTL:     time.Duration(cfg.Pipeline.QueryCacheTTLSec) * time.Second,
		EmbeddingTTL: time.Duration(cfg.Pipeline.EmbeddingCacheTTLSec) * time.Second,
	}, metrics.CacheTotal, logger)
	searcher := sourcesrepo.New(store, cfg.Storage.KeyPrefix)

	// Pipeline components
	counter := contextbuild.NewCounter(cfg.Synthesis.Model, logger)
	builder := contextbuild.New(counter, contextbuild.Config{
		TotalTokenBudget: cfg.Pipeline.ContextTokenBudget,
		ReservedTokens:   cfg.Pipeline.ReservedTokens,
		MinExcerptChars:  cfg.Pipeline.MinExcerptChars,
	})
	matcher := citation.NewMatcher()

	querySvc := queryuc.New(
		cache, embedder, searcher, builder, matcher, synthesizer,
		queryuc.Config{
			DefaultMaxSources: cfg.Pipeline.DefaultMaxSources,
			Temperature:       cfg.Synthesis.Temperature,
			MaxAnswerTokens:   cfg.Synthesis.MaxTokens,
		},
		logger,
	)

	healthSvc := healthuc.New(store, embedder, synthesizer)

	server := chiTransport.NewServer(querySvc, healthSvc, logger)
	router := server.Router(cfg.Auth.APIKeys)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}
