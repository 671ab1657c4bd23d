// Copyright (C) 2025 Papermill Labs (oss@papermill.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/papermill-ai/papermill/pkg/logging"
	"github.com/papermill-ai/papermill/services/gather"
	"github.com/papermill-ai/papermill/services/llm"
	"github.com/papermill-ai/papermill/services/orchestrator/observability"
	"github.com/papermill-ai/papermill/services/sources"

	// --- OpenTelemetry imports ---
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"google.golang.org/grpc"
)

func initTracer() (func(context.Context), error) {
	ctx := context.Background()

	otelEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otelEndpoint == "" {
		otelEndpoint = "papermill-otel-collector:4317"
	}
	conn, err := grpc.NewClient(otelEndpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, err
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String("gather-service")))
	if err != nil {
		return nil, err
	}
	bsp := sdktrace.NewBatchSpanProcessor(traceExporter)
	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp))
	otel.SetTracerProvider(traceProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.
		TraceContext{}, propagation.Baggage{}))

	return func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, time.Second*5)
		defer cancel()
		if err := traceExporter.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown OTLP exporter", "error", err)
		}
	}, nil
}

// buildLLMClient picks the model backend from the environment. The pipeline
// runs deterministically without one, so a missing or broken backend only
// warns.
func buildLLMClient() llm.LLMClient {
	switch os.Getenv("LLM_BACKEND_TYPE") {
	case "openai":
		client, err := llm.NewOpenAIClientFromEnv()
		if err != nil {
			slog.Warn("OpenAI backend unavailable, model steps disabled", "error", err)
			return nil
		}
		slog.Info("Using OpenAI LLM backend")
		return client
	case "ollama":
		client, err := llm.NewOllamaClient()
		if err != nil {
			slog.Warn("Ollama backend unavailable, model steps disabled", "error", err)
			return nil
		}
		slog.Info("Using Ollama LLM backend")
		return client
	case "", "none":
		slog.Info("No LLM backend configured, running deterministic pipeline only")
		return nil
	default:
		slog.Warn("LLM_BACKEND_TYPE not recognized, model steps disabled",
			"value", os.Getenv("LLM_BACKEND_TYPE"))
		return nil
	}
}

func main() {
	port := os.Getenv("GATHER_PORT")
	if port == "" {
		port = "12310"
	}

	logger := logging.Default()

	// --- Init the tracer ---
	cleanup, err := initTracer()
	if err != nil {
		log.Fatalf("failed to setup the OTLP tracer: %v", err)
	}
	defer cleanup(context.Background())

	metrics := observability.InitMetrics()

	llmClient := buildLLMClient()
	httpClient := &http.Client{Timeout: 30 * time.Second}
	providers := sources.Build(sources.AllNames(), httpClient)

	svc := gather.NewService(
		providers,
		gather.NewExpander(llmClient, logger),
		gather.NewScorer(llmClient, logger),
		logger,
	)
	svc.OnSourceFailure = metrics.RecordSourceFailure

	router := gin.Default()
	router.Use(otelgin.Middleware("gather-service"))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	newGatherHandlers(svc, metrics, logger).registerRoutes(router)

	log.Println("Starting the gather server on port ", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
