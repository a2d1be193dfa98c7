// Package telemetry installs the OpenTelemetry tracer provider. Tracing is
// opt-in and stays a no-op unless an OTLP endpoint is configured.
package telemetry
