// Copyright (C) 2026 Fathom Research (oss@fathomresearch.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/fathomresearch/shortscan/pkg/logging"
	"github.com/fathomresearch/shortscan/services/scanner/backend"
	"github.com/fathomresearch/shortscan/services/scanner/cache"
	"github.com/fathomresearch/shortscan/services/scanner/config"
	"github.com/fathomresearch/shortscan/services/scanner/corpus"
	"github.com/fathomresearch/shortscan/services/scanner/detectors"
	"github.com/fathomresearch/shortscan/services/scanner/engine"
	"github.com/fathomresearch/shortscan/services/scanner/handlers"
	"github.com/fathomresearch/shortscan/services/scanner/parser"
	"github.com/fathomresearch/shortscan/services/scanner/report"
	"github.com/fathomresearch/shortscan/services/scanner/retry"
	"github.com/fathomresearch/shortscan/services/scanner/routes"
)

// initTracer wires OTLP trace export when OTEL_EXPORTER_OTLP_ENDPOINT is
// set. Without it the service runs untraced, which is fine for local use.
func initTracer() (func(context.Context), error) {
	endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if endpoint == "" {
		return func(context.Context) {}, nil
	}

	ctx := context.Background()
	conn, err := grpc.NewClient(endpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	exporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, err
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String("scanner-service")))
	if err != nil {
		return nil, err
	}
	provider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(sdktrace.NewBatchSpanProcessor(exporter)))
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{}))

	return func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := exporter.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown OTLP exporter", "error", err)
		}
	}, nil
}

func main() {
	logger := logging.New(logging.Config{
		Level:   logging.LevelFromEnv("SHORTSCAN_LOG_LEVEL"),
		Service: "scanner",
	})
	defer logger.Close()
	slog.SetDefault(logger.Slog())

	configPath := os.Getenv("SHORTSCAN_CONFIG")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}

	cleanup, err := initTracer()
	if err != nil {
		log.Fatalf("failed to set up the OTLP tracer: %v", err)
	}
	defer cleanup(context.Background())

	be, err := backend.NewOpenAI(backend.OpenAIConfig{
		BaseURL:           cfg.Backend.BaseURL,
		APIKeys:           cfg.Backend.APIKeys,
		RequestsPerMinute: cfg.Backend.RequestsPerMinute,
	})
	if err != nil {
		log.Fatalf("backend init failed: %v", err)
	}

	var store cache.Cache
	if cfg.Cache.InMemory {
		store = cache.NewMemory()
	} else {
		badgerCfg := cache.DefaultBadgerConfig(cfg.Cache.Dir)
		badgerCfg.Logger = slog.Default()
		store, err = cache.OpenBadger(badgerCfg)
		if err != nil {
			log.Fatalf("cache init failed: %v", err)
		}
	}
	defer store.Close()

	p := parser.New(slog.Default())
	registry := detectors.NewRegistry(slog.Default(), detectors.Builtins(be, p, slog.Default())...)

	policy := retry.New(cfg.Retry.MaxAttempts, cfg.Retry.BaseDelay.Std())
	orchestrator, err := engine.New(engine.Config{
		Registry: registry,
		Cache:    store,
		Retry:    policy,
		Workers:  cfg.Engine.Workers,
		CacheTTL: cfg.Cache.TTL.Std(),
	})
	if err != nil {
		log.Fatalf("engine init failed: %v", err)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("scanner-service"))
	routes.SetupRoutes(router, handlers.ScanDeps{
		Engine:       orchestrator,
		Registry:     registry,
		Accessor:     corpus.NewDir(cfg.Corpus.Dir, slog.Default()),
		Reporter:     report.New(be, slog.Default()),
		DefaultModel: cfg.Backend.DefaultModel,
	}, registry, store)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("scanner service listening", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("graceful shutdown failed", "error", err)
	}
}
