package tools

import (
	"github.com/Sumatoshi-tech/harvest-translate/internal/config"
)

// toolConfig decodes name's entry out of the run configuration's opaque
// per-tool table (threaded through tool.Context.Config as an untyped
// map[string]map[string]any) into dst. It is a no-op, leaving dst at its
// zero value, when cfg isn't that map or carries no entry for name, which
// is the case in every test harness and whenever a tool has no overrides
// in config.toml.
func toolConfig(cfg any, name string, dst any) error {
	tools, ok := cfg.(map[string]map[string]any)
	if !ok {
		return nil
	}

	raw, ok := tools[name]
	if !ok {
		return nil
	}

	return config.LoadToolConfig(raw, dst)
}
