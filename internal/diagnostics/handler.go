package diagnostics

import (
	"context"
	"log/slog"

	"github.com/Sumatoshi-tech/harvest-translate/internal/config"
)

// fanoutHandler dispatches every record to each inner handler in turn.
// It mirrors pkg/observability.TracingHandler's wrap-and-delegate shape,
// generalized from one inner handler to N, since a diagnostics event
// commonly needs to land in the global messages file, the console, and
// (when a tool run is active) a per-run log simultaneously.
type fanoutHandler struct {
	handlers []slog.Handler
}

func newFanoutHandler(handlers ...slog.Handler) *fanoutHandler {
	return &fanoutHandler{handlers: handlers}
}

func (f *fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}

	return false
}

func (f *fanoutHandler) Handle(ctx context.Context, record slog.Record) error {
	for _, h := range f.handlers {
		if !h.Enabled(ctx, record.Level) {
			continue
		}

		if err := h.Handle(ctx, record.Clone()); err != nil {
			return err
		}
	}

	return nil
}

func (f *fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(f.handlers))
	for i, h := range f.handlers {
		next[i] = h.WithAttrs(attrs)
	}

	return &fanoutHandler{handlers: next}
}

func (f *fanoutHandler) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(f.handlers))
	for i, h := range f.handlers {
		next[i] = h.WithGroup(name)
	}

	return &fanoutHandler{handlers: next}
}

// filteredHandler gates an inner handler behind a config.LogFilter,
// matching the collector's console sink against a fixed target (a tool
// name, or "" for the global logger).
type filteredHandler struct {
	inner  slog.Handler
	filter config.LogFilter
	target string
}

func newFilteredHandler(inner slog.Handler, filter config.LogFilter, target string) *filteredHandler {
	return &filteredHandler{inner: inner, filter: filter, target: target}
}

func (f *filteredHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return f.filter.Allows(f.target, level) && f.inner.Enabled(ctx, level)
}

func (f *filteredHandler) Handle(ctx context.Context, record slog.Record) error {
	return f.inner.Handle(ctx, record)
}

func (f *filteredHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &filteredHandler{inner: f.inner.WithAttrs(attrs), filter: f.filter, target: f.target}
}

func (f *filteredHandler) WithGroup(name string) slog.Handler {
	return &filteredHandler{inner: f.inner.WithGroup(name), filter: f.filter, target: f.target}
}
