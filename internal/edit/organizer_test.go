package edit_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/harvest-translate/internal/edit"
	"github.com/Sumatoshi-tech/harvest-translate/internal/id"
	"github.com/Sumatoshi-tech/harvest-translate/internal/ir"
)

func TestOrganizer_ApplyEditPublishesNewSnapshot(t *testing.T) {
	t.Parallel()

	org := edit.NewOrganizer()
	assert.Equal(t, 0, org.Snapshot().Len())

	e, res, err := org.NewEdit(nil)
	require.NoError(t, err)

	a := e.AddRepresentation(ir.ProjectKind{Value: ir.ProjectKindLibrary})
	org.ApplyEdit(e, res)

	snap := org.Snapshot()
	assert.Equal(t, 1, snap.Len())

	got, ok := snap.Get(a)
	require.True(t, ok)
	assert.Equal(t, "Library", got.Render())
}

func TestOrganizer_NewEditUnknownID(t *testing.T) {
	t.Parallel()

	org := edit.NewOrganizer()

	_, _, err := org.NewEdit([]id.ID{id.New()})
	assert.ErrorIs(t, err, edit.ErrUnknownID)
}

func TestOrganizer_NewEditIDInUse(t *testing.T) {
	t.Parallel()

	org := edit.NewOrganizer()

	e, res, err := org.NewEdit(nil)
	require.NoError(t, err)

	a := e.AddRepresentation(ir.ProjectKind{Value: ir.ProjectKindLibrary})
	org.ApplyEdit(e, res)

	e1, res1, err := org.NewEdit([]id.ID{a})
	require.NoError(t, err)

	_, _, err = org.NewEdit([]id.ID{a})
	assert.ErrorIs(t, err, edit.ErrIDInUse, "a second live edit cannot reserve the same id")

	org.Abandon(res1)
	_ = e1

	// After abandoning the first reservation, the id is reservable again.
	e2, res2, err := org.NewEdit([]id.ID{a})
	require.NoError(t, err)
	org.Abandon(res2)
	_ = e2
}

func TestOrganizer_AbandonLeavesSnapshotUnchanged(t *testing.T) {
	t.Parallel()

	org := edit.NewOrganizer()

	e, res, err := org.NewEdit(nil)
	require.NoError(t, err)

	e.AddRepresentation(ir.ProjectKind{Value: ir.ProjectKindLibrary})
	org.Abandon(res)

	assert.Equal(t, 0, org.Snapshot().Len(), "an abandoned edit must not affect the IR")
}

func TestOrganizer_ApplyEditOverwritesReservedID(t *testing.T) {
	t.Parallel()

	org := edit.NewOrganizer()

	e, res, err := org.NewEdit(nil)
	require.NoError(t, err)

	a := e.AddRepresentation(ir.ProjectKind{Value: ir.ProjectKindLibrary})
	org.ApplyEdit(e, res)

	e2, res2, err := org.NewEdit([]id.ID{a})
	require.NoError(t, err)

	require.NoError(t, e2.TryWrite(a, ir.ProjectKind{Value: ir.ProjectKindExecutable}))
	org.ApplyEdit(e2, res2)

	got, ok := org.Snapshot().Get(a)
	require.True(t, ok)
	assert.Equal(t, "Executable", got.Render())
	assert.Equal(t, 1, org.Snapshot().Len(), "overwriting a reserved id must not grow the IR")
}
