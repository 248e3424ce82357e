// Package telemetry wires OpenTelemetry tracing and metrics for sitegen.
//
// # Overview
//
// Spans and metrics are exported over OTLP/gRPC to a collector. The job
// tracker and HTTP server keep their Prometheus metrics; the orchestrator and
// deployer record spans and OTEL instruments through the global providers
// this package installs.
//
// # Usage
//
//	tel, err := telemetry.New(ctx, cfg.Telemetry)
//	if err != nil {
//	    return err
//	}
//	defer tel.Shutdown(context.Background())
//
//	ctx, span := tel.Tracer("sitegen.http").Start(ctx, "generate")
//	defer span.End()
//
// # Configuration
//
//	telemetry:
//	  enabled: true
//	  endpoint: "localhost:4317"
//	  service_name: "sitegen"
//	  sample_rate: 1.0
//	  shutdown_timeout: 5s
//
// # Error Handling
//
// Exporter failures never stop the daemon. The instance reports itself as
// degraded and hands out the global (no-op) providers instead.
//
// # Testing
//
//	tt := telemetry.NewTestTelemetry()
//	_, span := tt.Tracer("test").Start(ctx, "sitegen.workflow")
//	span.End()
//	tt.AssertSpanExists(t, "sitegen.workflow")
package telemetry
