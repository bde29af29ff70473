package tools_test

import (
	"context"
	"testing"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/harvest-translate/internal/edit"
	"github.com/Sumatoshi-tech/harvest-translate/internal/ir"
	"github.com/Sumatoshi-tech/harvest-translate/internal/tool"
	"github.com/Sumatoshi-tech/harvest-translate/internal/tools"
)

type fakeMessagesClient struct {
	response *sdk.Message
	err      error
}

func (f *fakeMessagesClient) New(_ context.Context, _ sdk.MessageNewParams, _ ...option.RequestOption) (*sdk.Message, error) {
	return f.response, f.err
}

func textMessage(text string) *sdk.Message {
	return &sdk.Message{
		Content: []sdk.ContentBlockUnion{
			{Type: "text", Text: text},
		},
	}
}

func TestTranspileWithLLM_MightWrite_TryAgainWithoutRawSource(t *testing.T) {
	t.Parallel()

	tr := tools.TranspileWithLLM{}
	probe := tr.MightWrite(ir.Empty())

	assert.Equal(t, tool.TryAgain, probe.Outcome)
}

func TestTranspileWithLLM_Run_PublishesCargoPackageFromResponse(t *testing.T) {
	t.Parallel()

	org := edit.NewOrganizer()
	e, res, err := org.NewEdit(nil)
	require.NoError(t, err)
	e.AddRepresentation(ir.RawSource{Tree: ir.NewDir()})
	org.ApplyEdit(e, res)

	reply := "=== Cargo.toml ===\n[package]\nname = \"app\"\n\n" +
		"=== src/main.rs ===\nfn main() {}\n"

	tr := tools.TranspileWithLLM{Client: &fakeMessagesClient{response: textMessage(reply)}}

	snapshot, err := runTool(t, tr, org, t.TempDir())
	require.NoError(t, err)

	packages := snapshot.OfKind("CargoPackage")
	require.Len(t, packages, 1)

	pkg := packages[0].Repr.(ir.CargoPackage)

	cargoToml, ok := pkg.Tree.File("Cargo.toml")
	require.True(t, ok)
	assert.Contains(t, string(cargoToml), "name = \"app\"")
}

func TestTranspileWithLLM_Run_EmptyResponseErrors(t *testing.T) {
	t.Parallel()

	org := edit.NewOrganizer()
	e, res, err := org.NewEdit(nil)
	require.NoError(t, err)
	e.AddRepresentation(ir.RawSource{Tree: ir.NewDir()})
	org.ApplyEdit(e, res)

	tr := tools.TranspileWithLLM{Client: &fakeMessagesClient{response: textMessage("no markers here")}}

	_, err = runTool(t, tr, org, t.TempDir())
	assert.Error(t, err)
}
