package config

import (
	"fmt"
	"log/slog"
	"strings"
)

// LogFilter is a parsed environment-style filter string: a default level
// plus per-target level overrides, e.g. "info,try_cargo_build=debug".
// The diagnostics collector's console sink uses this to decide whether a
// given record should be written.
type LogFilter struct {
	Default slog.Level
	Targets map[string]slog.Level
}

// ParseLogFilter parses a comma-separated directive string. Each
// directive is either a bare level (sets the default) or
// "target=level" (sets an override for records of the tool whose name
// equals target). An empty string defaults to info.
func ParseLogFilter(s string) (LogFilter, error) {
	filter := LogFilter{Default: slog.LevelInfo, Targets: map[string]slog.Level{}}

	s = strings.TrimSpace(s)
	if s == "" {
		return filter, nil
	}

	for _, directive := range strings.Split(s, ",") {
		directive = strings.TrimSpace(directive)
		if directive == "" {
			continue
		}

		target, levelStr, hasTarget := strings.Cut(directive, "=")

		level, err := parseLevel(levelStr)
		if !hasTarget {
			level, err = parseLevel(target)
		}

		if err != nil {
			return LogFilter{}, err
		}

		if hasTarget {
			filter.Targets[target] = level
		} else {
			filter.Default = level
		}
	}

	return filter, nil
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug", "trace":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("log filter: unknown level %q", s)
	}
}

// Allows reports whether a record with the given target (empty if none)
// and level passes this filter.
func (f LogFilter) Allows(target string, level slog.Level) bool {
	if target != "" {
		if override, ok := f.Targets[target]; ok {
			return level >= override
		}
	}

	return level >= f.Default
}
