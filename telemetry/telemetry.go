//
// Tencent is pleased to support the open source community by making trpc-mcp-adapter available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-mcp-adapter is licensed under the Apache License Version 2.0.
//
//

// Package telemetry wires OpenTelemetry tracing for the adapter.
package telemetry

import (
	"context"
	"fmt"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.34.0"
	"go.opentelemetry.io/otel/trace"
	noopt "go.opentelemetry.io/otel/trace/noop"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Tracer is the global OpenTelemetry tracer for trpc-mcp-adapter.
// It is a no-op until Start is called, so instrumented code never needs to
// check whether telemetry is configured.
var Tracer trace.Tracer = noopt.Tracer{}

// Start enables trace collection with optional configuration.
// The returned clean function flushes remaining spans and shuts the exporter down.
func Start(ctx context.Context, opts ...Option) (clean func() error, err error) {
	options := &options{
		endpoint:       tracesEndpoint(),
		serviceName:    "trpc-mcp-adapter",
		serviceVersion: "v0.1.0",
	}
	for _, opt := range opts {
		opt(options)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(options.serviceName),
			semconv.ServiceVersion(options.serviceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	conn, err := grpc.NewClient(options.endpoint,
		// Note the use of insecure transport here. TLS is recommended in production.
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC connection to collector: %w", err)
	}

	exporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(sdktrace.NewBatchSpanProcessor(exporter)),
	)
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	Tracer = otel.Tracer("trpc.mcp.adapter")

	return func() error {
		if shutdownErr := provider.Shutdown(context.Background()); shutdownErr != nil {
			return fmt.Errorf("failed to shutdown TracerProvider: %w", shutdownErr)
		}
		return nil
	}, nil
}

// tracesEndpoint resolves the collector endpoint from the standard OTLP
// environment variables, falling back to the default local collector port.
func tracesEndpoint() string {
	if endpoint := os.Getenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT"); endpoint != "" {
		return endpoint
	}
	if endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); endpoint != "" {
		return endpoint
	}
	return "localhost:4317"
}

// Option is a function that configures telemetry options.
type Option func(*options)

type options struct {
	endpoint       string
	serviceName    string
	serviceVersion string
}

// WithEndpoint sets the collector endpoint (host and port) the exporter will
// connect to. The provided endpoint should resemble "example.com:4317"
// (no scheme or path). The OTLP environment variables are used when this
// option is not passed.
func WithEndpoint(endpoint string) Option {
	return func(opts *options) {
		opts.endpoint = endpoint
	}
}

// WithServiceName sets the service name reported on exported spans.
func WithServiceName(name string) Option {
	return func(opts *options) {
		opts.serviceName = name
	}
}

// WithServiceVersion sets the service version reported on exported spans.
func WithServiceVersion(version string) Option {
	return func(opts *options) {
		opts.serviceVersion = version
	}
}
