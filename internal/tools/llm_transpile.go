package tools

import (
	"context"
	"fmt"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/Sumatoshi-tech/harvest-translate/internal/ir"
	"github.com/Sumatoshi-tech/harvest-translate/internal/tool"
	"github.com/Sumatoshi-tech/harvest-translate/pkg/toolconfig"
)

// MessagesClient captures the subset of the Anthropic SDK used by
// TranspileWithLLM, so tests can substitute a fake without touching the
// network.
type MessagesClient interface {
	New(ctx context.Context, body sdk.MessageNewParams, opts ...option.RequestOption) (*sdk.Message, error)
}

// NewAnthropicClient builds a MessagesClient backed by the real Anthropic
// API using apiKey.
func NewAnthropicClient(apiKey string) MessagesClient {
	client := sdk.NewClient(option.WithAPIKey(apiKey))

	return &client.Messages
}

// TranspileWithLLM waits for a RawSource and, once one exists, asks an
// Anthropic model to produce an equivalent Cargo package (a Cargo.toml plus
// a src/ tree), publishing the result as a CargoPackage. It never re-runs
// once a CargoPackage already exists.
type TranspileWithLLM struct {
	Client MessagesClient
	// Model overrides the built-in default model when non-empty. The run
	// configuration's tools.transpile_with_llm.model entry, when present,
	// overrides this in turn.
	Model string
}

// transpileWithLLMOptions is the decoded shape of this tool's entry in
// the run configuration's tools table.
type transpileWithLLMOptions struct {
	Model string `toml:"model"`
}

// Name satisfies tool.Tool.
func (TranspileWithLLM) Name() string { return "transpile_with_llm" }

// DescribeConfig satisfies toolconfig.Describable, so the CLI can
// generate a --tool.transpile_with_llm.model flag for it.
func (TranspileWithLLM) DescribeConfig() []toolconfig.Option {
	return []toolconfig.Option{
		{
			Name:        "model",
			Flag:        "tool.transpile_with_llm.model",
			Description: "Anthropic model id used to generate the translated cargo package",
			Type:        toolconfig.StringOption,
			Default:     string(sdk.ModelClaudeSonnet4_5_20250929),
		},
	}
}

// MightWrite satisfies tool.Tool.
func (TranspileWithLLM) MightWrite(snapshot *ir.IR) tool.Probe {
	if len(snapshot.OfKind("CargoPackage")) > 0 {
		return tool.Probe{Outcome: tool.NotRunnable}
	}

	if len(snapshot.OfKind("RawSource")) == 0 {
		return tool.Probe{Outcome: tool.TryAgain}
	}

	return tool.Probe{Outcome: tool.Runnable}
}

// Run satisfies tool.Tool.
func (t TranspileWithLLM) Run(ctx tool.Context) error {
	sources := ctx.Snapshot.OfKind("RawSource")
	if len(sources) != 1 {
		return fmt.Errorf("transpile_with_llm: expected exactly one RawSource, found %d", len(sources))
	}

	source, ok := sources[0].Repr.(ir.RawSource)
	if !ok {
		return fmt.Errorf("transpile_with_llm: RawSource entry held unexpected type %T", sources[0].Repr)
	}

	prompt := buildTranspilePrompt(source.Tree)

	var opts transpileWithLLMOptions
	if err := toolConfig(ctx.Config, t.Name(), &opts); err != nil {
		return fmt.Errorf("transpile_with_llm: decode tool config: %w", err)
	}

	model := t.Model
	if model == "" {
		model = string(sdk.ModelClaudeSonnet4_5_20250929)
	}

	if opts.Model != "" {
		model = opts.Model
	}

	message, err := t.Client.New(ctx.Ctx, sdk.MessageNewParams{
		Model:     model,
		MaxTokens: 8192,
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return fmt.Errorf("transpile_with_llm: messages.new: %w", err)
	}

	files, err := parseTranspileResponse(message)
	if err != nil {
		return fmt.Errorf("transpile_with_llm: %w", err)
	}

	tree := ir.NewDir()
	for path, contents := range files {
		tree.SetFile(path, []byte(contents))
	}

	id := ctx.Edit.AddRepresentation(ir.CargoPackage{Tree: tree})

	ctx.Diagnostics.Logger().Info("generated cargo package via llm", "files", len(files), "id", id.String())

	return nil
}

// buildTranspilePrompt renders the source tree into a single prompt asking
// for a translated Cargo package, each output file fenced by a path marker
// the response parser can split on.
func buildTranspilePrompt(tree *ir.Dir) string {
	var b strings.Builder

	b.WriteString("Translate the following C/C++ project into an equivalent Rust cargo package.\n")
	b.WriteString("Respond with one or more files, each introduced by a line of the exact form:\n")
	b.WriteString("=== path/to/file ===\n")
	b.WriteString("followed by that file's full contents. Always include Cargo.toml.\n\n")

	for _, f := range tree.Files() {
		fmt.Fprintf(&b, "=== %s ===\n%s\n\n", f.Path, f.Contents)
	}

	return b.String()
}

// parseTranspileResponse splits the model's reply back into a path ->
// contents map along the "=== path ===" markers the prompt requested.
func parseTranspileResponse(message *sdk.Message) (map[string]string, error) {
	var text strings.Builder

	for _, block := range message.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	files := map[string]string{}

	var currentPath string

	var currentBody strings.Builder

	flush := func() {
		if currentPath != "" {
			files[currentPath] = strings.TrimRight(currentBody.String(), "\n")
		}
	}

	for _, line := range strings.Split(text.String(), "\n") {
		if strings.HasPrefix(line, "=== ") && strings.HasSuffix(line, " ===") {
			flush()

			currentPath = strings.TrimSuffix(strings.TrimPrefix(line, "=== "), " ===")
			currentBody.Reset()

			continue
		}

		if currentPath != "" {
			currentBody.WriteString(line)
			currentBody.WriteString("\n")
		}
	}

	flush()

	if len(files) == 0 {
		return nil, fmt.Errorf("no files found in model response")
	}

	return files, nil
}
