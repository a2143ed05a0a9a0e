// Package oteladapters implements the observability interfaces of package library with OpenTelemetry.
//
// Wire them into the store with the postgresengine options:
//
//	service, err := postgresengine.NewServiceFromPGXPool(pool,
//		postgresengine.WithTracing(oteladapters.NewTracingCollector(otel.Tracer("library"))),
//		postgresengine.WithMetrics(oteladapters.NewMetricsCollector(otel.Meter("library"))),
//		postgresengine.WithContextualLogger(oteladapters.NewSlogBridgeLogger("library")),
//	)
//
// The package lives in its own module so the core library does not depend on OpenTelemetry.
package oteladapters
