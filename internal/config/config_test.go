package config_test

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/harvest-translate/internal/config"
)

func TestValidate_MissingInput(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{Output: "out", LogFilter: "info"}
	assert.ErrorIs(t, config.Validate(cfg, true), config.ErrMissingInput)
}

func TestValidate_DiagnosticsNotEmptyWithoutForce(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{Input: "in", Output: "out", Diagnostics: "diag", LogFilter: "info"}
	assert.ErrorIs(t, config.Validate(cfg, false), config.ErrDiagnosticsNotEmpty)
}

func TestValidate_ForceOverridesNonEmptyDiagnostics(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{Input: "in", Output: "out", Diagnostics: "diag", Force: true, LogFilter: "info"}
	assert.NoError(t, config.Validate(cfg, false))
}

func TestValidate_BadLogFilter(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{Input: "in", Output: "out", LogFilter: "nonsense"}
	assert.ErrorIs(t, config.Validate(cfg, true), config.ErrLogFilterInvalid)
}

func TestParseLogFilter_DefaultAndTargetOverride(t *testing.T) {
	t.Parallel()

	filter, err := config.ParseLogFilter("warn,load_raw_source=debug")
	require.NoError(t, err)

	assert.True(t, filter.Allows("", slog.LevelWarn), "warn level passes the default")
	assert.True(t, filter.Allows("load_raw_source", slog.LevelDebug), "debug passes the per-tool override")
	assert.False(t, filter.Allows("other_tool", slog.LevelDebug), "debug is below the default for tools without an override")
}

func TestLoadToolConfig_RoundTrips(t *testing.T) {
	t.Parallel()

	type toolConfig struct {
		Model string `toml:"model"`
		Retry int    `toml:"retry"`
	}

	raw := map[string]any{"model": "claude", "retry": int64(3)}

	var dst toolConfig
	require.NoError(t, config.LoadToolConfig(raw, &dst))

	assert.Equal(t, "claude", dst.Model)
	assert.Equal(t, 3, dst.Retry)
}
