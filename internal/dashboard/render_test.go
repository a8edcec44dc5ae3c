package dashboard

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/planbook/internal/grid"
	"github.com/mesh-intelligence/planbook/internal/memstore"
	"github.com/mesh-intelligence/planbook/pkg/types"
)

func TestCellText(t *testing.T) {
	date := types.ColumnDef{Key: "date", Label: "Date", InputType: types.InputTypeDate}
	text := types.ColumnDef{Key: "name", Label: "Name"}

	assert.Equal(t, EmptyCell, CellText(text, nil))
	assert.Equal(t, EmptyCell, CellText(text, "   "))
	assert.Equal(t, "Alpha", CellText(text, "Alpha"))
	assert.Equal(t, "3", CellText(text, 3.0))
	assert.Equal(t, "Mar 05, 2024", CellText(date, "2024-03-05"))
}

func TestHeaderText(t *testing.T) {
	c := types.ColumnDef{Key: "name", Label: "Name"}
	assert.Equal(t, "Name", HeaderText(c, grid.SortState{}))
	assert.Equal(t, "Name ▲", HeaderText(c, grid.SortState{Key: "name", Direction: grid.Asc}))
	assert.Equal(t, "Name ▼", HeaderText(c, grid.SortState{Key: "name", Direction: grid.Desc}))
	assert.Equal(t, "Name", HeaderText(c, grid.SortState{Key: "other", Direction: grid.Desc}))
}

func TestRenderTable(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	_, err := store.Rows(project.ID, "M1", "revision_history").Create(ctx, types.Row{"revision_no": "1.0", "date": "2024-03-05"})
	require.NoError(t, err)

	v := openView(t, store, viewer)
	tbl, err := v.Table("M1", "revision_history")
	require.NoError(t, err)

	out := RenderTable(tbl)
	assert.Contains(t, out, "Document History")
	assert.Contains(t, out, "Revision No")
	assert.Contains(t, out, "1.0")
	assert.Contains(t, out, "Mar 05, 2024")
	assert.Contains(t, out, EmptyCell)

	tbl.SetQuery("zzz")
	assert.Contains(t, RenderTable(tbl), grid.MessageNoMatches)
}

func TestRenderEmptyTable(t *testing.T) {
	v := openView(t, memstore.New(), viewer)
	tbl, err := v.Table("M1", "revision_history")
	require.NoError(t, err)
	assert.Contains(t, RenderTable(tbl), grid.MessageNoData)
}

func TestRenderNarrative(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	require.NoError(t, store.Entries(project.ID).Put(ctx, "product_overview", types.SingleEntryValue{Content: "A pump controller"}))

	v := openView(t, store, editor)
	require.NoError(t, v.ActivateSection(ctx, "M4"))
	n, err := v.Entries("M4")
	require.NoError(t, err)

	out := RenderNarrative(n)
	assert.Contains(t, out, "Product Overview")
	assert.Contains(t, out, "A pump controller")
	assert.Contains(t, out, "No reference to pis provided yet.")

	require.NoError(t, n.SetContent("product_overview", "changed"))
	assert.Contains(t, RenderNarrative(n), "(unsaved)")
}

func TestProjectViewRender(t *testing.T) {
	v := openView(t, memstore.New(), viewer)
	out := v.Render()
	assert.Contains(t, out, "M1 Revision History")
	assert.Contains(t, out, grid.MessageNoData)
}
