// Package observability provides OpenTelemetry-based tracing, metrics, and
// structured logging for the harvest-translate binary.
package observability

import "log/slog"

// AppMode identifies the application execution mode.
type AppMode string

const (
	// ModeCLI is the one-shot CLI invocation mode (run a pipeline, exit).
	ModeCLI AppMode = "cli"
	// ModeWatch is the long-lived mode that re-runs the pipeline on input changes.
	ModeWatch AppMode = "watch"
)

const (
	// defaultServiceName is the default OTel service name.
	defaultServiceName = "harvest-translate"

	// defaultShutdownTimeoutSec is the default shutdown timeout in seconds.
	defaultShutdownTimeoutSec = 5
)

// Config holds all observability configuration.
type Config struct {
	// ServiceName is the OTel resource service name.
	ServiceName string

	// ServiceVersion is the semantic version of the running binary.
	ServiceVersion string

	// Environment is the deployment environment (e.g. "production", "staging", "dev").
	Environment string

	// Mode identifies how the binary was launched.
	Mode AppMode

	// LogLevel is the minimum slog level emitted.
	LogLevel slog.Level

	// LogJSON selects JSON log output over human-readable text.
	LogJSON bool

	// OTLPEndpoint is the OTLP gRPC collector endpoint. Empty disables export
	// and falls back to no-op tracer/meter providers.
	OTLPEndpoint string

	// OTLPInsecure disables TLS for the OTLP connection.
	OTLPInsecure bool

	// OTLPHeaders are additional gRPC metadata headers sent with every export.
	OTLPHeaders map[string]string

	// DebugTrace forces the always-on sampler and lowers the filter logger to warn.
	DebugTrace bool

	// TraceVerbose disables the span attribute allowlist filter, letting
	// every span attribute reach the exporter. Intended for local debugging.
	TraceVerbose bool

	// SampleRatio is the trace sampling ratio used when no OTEL_TRACES_SAMPLER
	// env var is set and DebugTrace is false. Zero falls back to always-sample.
	SampleRatio float64

	// ShutdownTimeoutSec bounds how long Shutdown waits for pending exports.
	ShutdownTimeoutSec int

	// PrometheusAddr, if set, starts an HTTP server on this address serving
	// /metrics in Prometheus exposition format, in addition to (or instead
	// of) OTLP metric export. Empty disables it.
	PrometheusAddr string
}

// DefaultConfig returns a Config with sensible defaults for CLI execution:
// no OTLP export (no-op providers), info-level text logging to stderr.
func DefaultConfig() Config {
	return Config{
		ServiceName:        defaultServiceName,
		Mode:               ModeCLI,
		LogLevel:           slog.LevelInfo,
		ShutdownTimeoutSec: defaultShutdownTimeoutSec,
	}
}
