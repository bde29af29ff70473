package tools

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/Sumatoshi-tech/harvest-translate/internal/ir"
	"github.com/Sumatoshi-tech/harvest-translate/internal/tool"
	"github.com/Sumatoshi-tech/harvest-translate/pkg/toolconfig"
)

// defaultBuildTimeout bounds the cargo build subprocess. A subprocess
// timeout is the only bounded-wait primitive the core itself imposes; tools
// that shell out are expected to set one rather than block the runner's
// worker goroutine indefinitely.
const defaultBuildTimeout = 5 * time.Minute

// TryCargoBuild materializes the single CargoPackage in the IR and runs
// `cargo build --release` against it, recording either the artifact paths
// or a diagnostic string as a CargoBuildResult.
type TryCargoBuild struct {
	// Timeout overrides defaultBuildTimeout when non-zero. The run
	// configuration's tools.try_cargo_build.timeout_seconds entry, when
	// present, overrides this in turn.
	Timeout time.Duration
}

// tryCargoBuildOptions is the decoded shape of this tool's entry in the
// run configuration's tools table.
type tryCargoBuildOptions struct {
	TimeoutSeconds int `toml:"timeout_seconds"`
}

// Name satisfies tool.Tool.
func (TryCargoBuild) Name() string { return "try_cargo_build" }

// DescribeConfig satisfies toolconfig.Describable, so the CLI can
// generate a --tool.try_cargo_build.timeout-seconds flag for it.
func (TryCargoBuild) DescribeConfig() []toolconfig.Option {
	return []toolconfig.Option{
		{
			Name:        "timeout_seconds",
			Flag:        "tool.try_cargo_build.timeout-seconds",
			Description: "seconds to allow `cargo build --release` to run before it is killed",
			Type:        toolconfig.IntOption,
			Default:     int(defaultBuildTimeout / time.Second),
		},
	}
}

// MightWrite satisfies tool.Tool: it waits for a CargoPackage and will not
// re-run once a CargoBuildResult already exists.
func (TryCargoBuild) MightWrite(snapshot *ir.IR) tool.Probe {
	if len(snapshot.OfKind("CargoBuildResult")) > 0 {
		return tool.Probe{Outcome: tool.NotRunnable}
	}

	if len(snapshot.OfKind("CargoPackage")) == 0 {
		return tool.Probe{Outcome: tool.TryAgain}
	}

	return tool.Probe{Outcome: tool.Runnable}
}

// Run satisfies tool.Tool.
func (t TryCargoBuild) Run(ctx tool.Context) error {
	packages := ctx.Snapshot.OfKind("CargoPackage")
	if len(packages) != 1 {
		return fmt.Errorf("try_cargo_build: expected exactly one CargoPackage, found %d", len(packages))
	}

	pkg, ok := packages[0].Repr.(ir.CargoPackage)
	if !ok {
		return fmt.Errorf("try_cargo_build: CargoPackage entry held unexpected type %T", packages[0].Repr)
	}

	pkgDir := filepath.Join(ctx.Diagnostics.WorkDir(), "pkg")
	if err := pkg.Tree.Materialize(pkgDir); err != nil {
		return fmt.Errorf("try_cargo_build: materialize package: %w", err)
	}

	timeout := t.Timeout
	if timeout == 0 {
		timeout = defaultBuildTimeout
	}

	var opts tryCargoBuildOptions
	if err := toolConfig(ctx.Config, t.Name(), &opts); err != nil {
		return fmt.Errorf("try_cargo_build: decode tool config: %w", err)
	}

	if opts.TimeoutSeconds > 0 {
		timeout = time.Duration(opts.TimeoutSeconds) * time.Second
	}

	runCtx, cancel := context.WithTimeout(ctx.Ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, "cargo", "build", "--release", "--message-format=json")
	cmd.Dir = pkgDir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	parsed := parseCargoMessages(bytes.NewReader(stdout.Bytes()))

	result := ir.CargoBuildResult{Ok: runErr == nil}
	for _, path := range parsed.Artifacts {
		result.Artifacts = append(result.Artifacts, ir.BuildArtifact{Path: path})
	}

	if runErr != nil {
		diag := strings.Join(parsed.Diagnostics, "\n")
		if diag == "" {
			diag = stderr.String()
		}

		result.Diagnostic = diag
	}

	id := ctx.Edit.AddRepresentation(result)

	ctx.Diagnostics.Logger().Info("cargo build finished",
		"ok", result.Ok, "artifacts", len(result.Artifacts), "id", id.String())

	return nil
}
