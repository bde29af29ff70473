// Package commands implements the harvest-translate CLI's subcommands.
package commands

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/harvest-translate/internal/config"
	"github.com/Sumatoshi-tech/harvest-translate/internal/diagnostics"
	"github.com/Sumatoshi-tech/harvest-translate/internal/edit"
	"github.com/Sumatoshi-tech/harvest-translate/internal/ir"
	"github.com/Sumatoshi-tech/harvest-translate/internal/pipeline"
	"github.com/Sumatoshi-tech/harvest-translate/internal/runner"
	"github.com/Sumatoshi-tech/harvest-translate/internal/scheduler"
	"github.com/Sumatoshi-tech/harvest-translate/internal/tool"
	"github.com/Sumatoshi-tech/harvest-translate/internal/tools"
	"github.com/Sumatoshi-tech/harvest-translate/pkg/observability"
	"github.com/Sumatoshi-tech/harvest-translate/pkg/toolconfig"
	"github.com/Sumatoshi-tech/harvest-translate/pkg/version"
)

type runFlags struct {
	configFile  string
	input       string
	output      string
	diagnostics string
	force       bool
	logFilter   string
}

// NewRunCommand builds the "run" subcommand: load configuration, build the
// tool pipeline, and drive it to quiescence.
func NewRunCommand() *cobra.Command {
	flags := &runFlags{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Translate a C/C++ source tree into a Rust cargo package",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPipeline(cmd, flags)
		},
	}

	cmd.Flags().StringVar(&flags.configFile, "config", "", "path to a TOML configuration file")
	cmd.Flags().StringVar(&flags.input, "input", "", "source directory to translate")
	cmd.Flags().StringVar(&flags.output, "output", "", "directory to write the translated package into")
	cmd.Flags().StringVar(&flags.diagnostics, "diagnostics", "", "directory to write the diagnostics tree into (default: ephemeral)")
	cmd.Flags().BoolVar(&flags.force, "force", false, "reuse a non-empty diagnostics directory, clearing it first")
	cmd.Flags().StringVar(&flags.logFilter, "log-filter", "", "env_logger-style log filter, e.g. \"info,try_cargo_build=debug\"")

	registerToolFlags(cmd)

	return cmd
}

// describableTools lists, as zero values, every tool whose opaque
// sub-configuration the CLI should expose as flags. Tools with nothing
// worth overriding from the command line simply don't implement
// toolconfig.Describable and are skipped.
func describableTools() []tool.Tool {
	return []tool.Tool{
		tools.TryCargoBuild{},
		tools.TranspileWithLLM{},
	}
}

// registerToolFlags adds a --tool.<tool>.<flag> flag for every option
// each describable tool reports, so `run --help` documents them and the
// user can override config.toml's tools table from the command line.
func registerToolFlags(cmd *cobra.Command) {
	registered := map[string]bool{}

	for _, t := range describableTools() {
		describable, ok := t.(toolconfig.Describable)
		if !ok {
			continue
		}

		for _, opt := range describable.DescribeConfig() {
			if registered[opt.Flag] {
				continue
			}

			registered[opt.Flag] = true
			registerToolFlag(cmd, opt)
		}
	}
}

func registerToolFlag(cmd *cobra.Command, opt toolconfig.Option) {
	switch opt.Type {
	case toolconfig.BoolOption:
		if v, ok := opt.Default.(bool); ok {
			cmd.Flags().Bool(opt.Flag, v, opt.Description)
		}
	case toolconfig.IntOption:
		if v, ok := opt.Default.(int); ok {
			cmd.Flags().Int(opt.Flag, v, opt.Description)
		}
	case toolconfig.StringOption, toolconfig.PathOption:
		if v, ok := opt.Default.(string); ok {
			cmd.Flags().String(opt.Flag, v, opt.Description)
		}
	case toolconfig.StringsOption:
		if v, ok := opt.Default.([]string); ok {
			cmd.Flags().StringSlice(opt.Flag, v, opt.Description)
		}
	case toolconfig.FloatOption:
		if v, ok := opt.Default.(float64); ok {
			cmd.Flags().Float64(opt.Flag, v, opt.Description)
		}
	}
}

// collectToolFlagOverrides reads back every --tool.* flag the user
// actually set, keyed by tool name then option name, so it can be
// merged into cfg.Tools ahead of flag precedence over config.toml.
func collectToolFlagOverrides(cmd *cobra.Command) map[string]map[string]any {
	overrides := map[string]map[string]any{}

	for _, t := range describableTools() {
		describable, ok := t.(toolconfig.Describable)
		if !ok {
			continue
		}

		for _, opt := range describable.DescribeConfig() {
			if !cmd.Flags().Changed(opt.Flag) {
				continue
			}

			value := readToolFlagValue(cmd, opt)
			if value == nil {
				continue
			}

			if overrides[t.Name()] == nil {
				overrides[t.Name()] = map[string]any{}
			}

			overrides[t.Name()][opt.Name] = value
		}
	}

	return overrides
}

func readToolFlagValue(cmd *cobra.Command, opt toolconfig.Option) any {
	switch opt.Type {
	case toolconfig.BoolOption:
		if v, err := cmd.Flags().GetBool(opt.Flag); err == nil {
			return v
		}
	case toolconfig.IntOption:
		if v, err := cmd.Flags().GetInt(opt.Flag); err == nil {
			return v
		}
	case toolconfig.StringOption, toolconfig.PathOption:
		if v, err := cmd.Flags().GetString(opt.Flag); err == nil {
			return v
		}
	case toolconfig.StringsOption:
		if v, err := cmd.Flags().GetStringSlice(opt.Flag); err == nil {
			return v
		}
	case toolconfig.FloatOption:
		if v, err := cmd.Flags().GetFloat64(opt.Flag); err == nil {
			return v
		}
	}

	return nil
}

func runPipeline(cmd *cobra.Command, flags *runFlags) error {
	ctx := cmd.Context()

	cfg, err := config.Load(flags.configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	applyFlagOverrides(cfg, flags)

	for name, values := range collectToolFlagOverrides(cmd) {
		if cfg.Tools == nil {
			cfg.Tools = map[string]map[string]any{}
		}

		if cfg.Tools[name] == nil {
			cfg.Tools[name] = map[string]any{}
		}

		for k, v := range values {
			cfg.Tools[name][k] = v
		}
	}

	diagnosticsEmpty, err := dirIsEmptyOrAbsent(cfg.Diagnostics)
	if err != nil {
		return fmt.Errorf("inspect diagnostics directory: %w", err)
	}

	if err := config.Validate(cfg, diagnosticsEmpty); err != nil {
		return err
	}

	collector, err := diagnostics.New(cfg)
	if err != nil {
		return fmt.Errorf("start diagnostics collector: %w", err)
	}
	defer collector.Close()

	obsCfg := observability.DefaultConfig()
	obsCfg.ServiceVersion = version.Version

	providers, err := observability.Init(obsCfg)
	if err != nil {
		return fmt.Errorf("init observability: %w", err)
	}

	logger := collector.Logger()

	if dump, dumpErr := config.DumpYAML(cfg); dumpErr != nil {
		logger.Warn("failed to dump effective config", "error", dumpErr)
	} else {
		logger.Debug("effective configuration", "yaml", dump)
	}

	defer func() {
		if shutdownErr := providers.Shutdown(ctx); shutdownErr != nil {
			logger.Error("observability shutdown failed", "error", shutdownErr)
		}
	}()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	organizer := edit.NewOrganizer()
	sched := scheduler.New[tool.Tool]()

	for _, t := range buildTools(cfg) {
		sched.Queue(t)
	}

	r := runner.New(providers.Tracer, logger)

	pipelineMetrics, err := observability.NewPipelineMetrics(providers.Meter)
	if err != nil {
		logger.Warn("failed to create pipeline metrics; continuing without them", "error", err)
	} else {
		r.Metrics = pipelineMetrics
	}

	var versionCounter atomic.Uint64

	r.OnApplied = func(snapshot *ir.IR) {
		collector.ReportIRVersion(versionCounter.Add(1)-1, snapshot)
	}

	diagFactory := func(toolName string, attempt int) tool.Diagnostics {
		reporter, err := collector.StartToolRun(toolName, attempt)
		if err != nil {
			logger.Error("failed to start tool run diagnostics", "tool", toolName, "error", err)

			return nil
		}

		return reporter
	}

	p := pipeline.New(organizer, sched, r, cfg.Tools, diagFactory, logger)

	if err := p.Run(ctx); err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}

	final := organizer.Snapshot()
	printSummary(final)

	return materializeResult(final, cfg.Output, cfg.Force)
}

// printSummary writes a short human-facing report of the run's outcome
// to stdout: the detected project kind and, if a build was attempted,
// its artifacts or diagnostic. This is purely informational; the
// diagnostics directory is the source of truth for post-mortems.
func printSummary(snapshot *ir.IR) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Representation", "Result"})

	for _, entry := range snapshot.OfKind("ProjectKind") {
		if kind, ok := entry.Repr.(ir.ProjectKind); ok {
			t.AppendRow(table.Row{"project kind", kind.Value.String()})
		}
	}

	builds := snapshot.OfKind("CargoBuildResult")
	if len(builds) == 0 {
		t.Render()

		return
	}

	result, ok := builds[len(builds)-1].Repr.(ir.CargoBuildResult)
	if !ok {
		t.Render()

		return
	}

	if result.Ok {
		t.AppendRow(table.Row{"cargo build", color.GreenString("ok (%d artifacts)", len(result.Artifacts))})
	} else {
		t.AppendRow(table.Row{"cargo build", color.RedString("failed")})
	}

	t.Render()
}

func applyFlagOverrides(cfg *config.Config, flags *runFlags) {
	if flags.input != "" {
		cfg.Input = flags.input
	}

	if flags.output != "" {
		cfg.Output = flags.output
	}

	if flags.diagnostics != "" {
		cfg.Diagnostics = flags.diagnostics
	}

	if flags.force {
		cfg.Force = true
	}

	if flags.logFilter != "" {
		cfg.LogFilter = flags.logFilter
	}
}

func dirIsEmptyOrAbsent(path string) (bool, error) {
	if path == "" {
		return true, nil
	}

	entries, err := os.ReadDir(path)
	if errors.Is(err, os.ErrNotExist) {
		return true, nil
	}

	if err != nil {
		return false, err
	}

	return len(entries) == 0, nil
}

// buildTools assembles the fixed tool chain this binary runs. A future
// iteration could make this data-driven from cfg.Tools' key set, but the
// chain's ordering and dependencies are load-bearing enough that an
// explicit list is clearer than inferring it.
//
// try_cargo_build only ever becomes runnable once a CargoPackage exists,
// and nothing in this chain produces one without an Anthropic API key; it
// is queued only alongside transpile_with_llm so a key-less run reaches
// quiescence instead of leaving a permanently TryAgain tool in the queue.
func buildTools(cfg *config.Config) []tool.Tool {
	chain := []tool.Tool{
		tools.LoadRawSource{Directory: cfg.Input},
		tools.IdentifyProjectKind{},
	}

	if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" {
		chain = append(chain,
			tools.TranspileWithLLM{Client: tools.NewAnthropicClient(apiKey)},
			tools.TryCargoBuild{},
		)
	}

	return chain
}

func materializeResult(snapshot *ir.IR, output string, force bool) error {
	packages := snapshot.OfKind("CargoPackage")
	if len(packages) == 0 {
		return nil
	}

	pkg, ok := packages[len(packages)-1].Repr.(ir.CargoPackage)
	if !ok {
		return fmt.Errorf("materialize result: unexpected representation type %T", packages[len(packages)-1].Repr)
	}

	if force {
		if err := os.RemoveAll(output); err != nil {
			return fmt.Errorf("materialize result: clear output directory: %w", err)
		}
	}

	if err := pkg.Tree.Materialize(output); err != nil {
		return fmt.Errorf("materialize result: %w", err)
	}

	return nil
}
