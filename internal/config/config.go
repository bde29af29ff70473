// Package config implements the core's configuration boundary: a frozen
// value with an input directory, an output directory, an optional
// diagnostics directory, a force/empty flag, a log-filter string, and an
// opaque per-tool sub-configuration. The core never parses config files
// itself; this package is the CLI-side code that does.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Sentinel validation errors, reported to the caller before the main
// loop starts (initialization errors, per the core's error handling
// design).
var (
	ErrMissingInput        = errors.New("config: input directory is required")
	ErrMissingOutput       = errors.New("config: output directory is required")
	ErrDiagnosticsNotEmpty = errors.New("config: diagnostics directory is not empty; pass force to reuse it")
	ErrLogFilterInvalid    = errors.New("config: log filter string is unparseable")
)

// Default configuration values.
const (
	defaultLogFilter = "info"
)

// Config is the frozen value the core consumes for one pipeline run.
// Precedence, highest to lowest: command-line flags, a config file
// (TOML, via --config or the default search path), built-in defaults.
type Config struct {
	Input       string `mapstructure:"input"`
	Output      string `mapstructure:"output"`
	Diagnostics string `mapstructure:"diagnostics"`
	Force       bool   `mapstructure:"force"`
	LogFilter   string `mapstructure:"log_filter"`

	// Tools holds one opaque sub-configuration blob per tool name, keyed
	// by the tool's Name(). The core never inspects these; each tool
	// type-asserts or re-unmarshals its own entry.
	Tools map[string]map[string]any `mapstructure:"tools"`
}

// Load builds a Config from defaults, an optional TOML file at
// configPath (or the default search path if configPath is empty), and
// environment variables prefixed HARVEST_TRANSLATE_. It does not
// validate; call Validate separately once the diagnostics directory's
// emptiness can be checked.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType("toml")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/harvest-translate")
		v.AddConfigPath("/etc/harvest-translate")
	}

	v.SetEnvPrefix("HARVEST_TRANSLATE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

// LoadToolConfig decodes raw, a TOML document fragment, into dst (a
// pointer to the tool's own config struct). Tools use this to turn their
// entry in Config.Tools back into a typed value, since viper has already
// flattened it to a generic map by the time Load returns it.
func LoadToolConfig(raw map[string]any, dst any) error {
	var buf strings.Builder

	enc := toml.NewEncoder(&buf)
	if err := enc.Encode(raw); err != nil {
		return fmt.Errorf("re-encode tool config: %w", err)
	}

	if _, err := toml.Decode(buf.String(), dst); err != nil {
		return fmt.Errorf("decode tool config: %w", err)
	}

	return nil
}

// DumpYAML renders cfg as YAML for startup diagnostics logging, so the
// effective configuration (after flag overrides and env vars are
// applied) can be captured in the diagnostics tree without guessing at
// precedence after the fact.
func DumpYAML(cfg *Config) (string, error) {
	out, err := yaml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("dump config as yaml: %w", err)
	}

	return string(out), nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("input", "")
	v.SetDefault("output", "")
	v.SetDefault("diagnostics", "")
	v.SetDefault("force", false)
	v.SetDefault("log_filter", defaultLogFilter)
}

// Validate checks the fields Load cannot check on its own: whether the
// required paths are set and whether the log filter string parses.
// diagnosticsEmpty is supplied by the caller, which is the only party
// that knows how to inspect the filesystem for this run.
func Validate(cfg *Config, diagnosticsEmpty bool) error {
	if cfg.Input == "" {
		return ErrMissingInput
	}

	if cfg.Output == "" {
		return ErrMissingOutput
	}

	if cfg.Diagnostics != "" && !diagnosticsEmpty && !cfg.Force {
		return ErrDiagnosticsNotEmpty
	}

	if _, err := ParseLogFilter(cfg.LogFilter); err != nil {
		return fmt.Errorf("%w: %w", ErrLogFilterInvalid, err)
	}

	return nil
}
