package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/planbook/pkg/types"
)

func TestColumns_Lifecycle(t *testing.T) {
	ctx := context.Background()
	b := attachedBackend(t)
	p, err := b.CreateProject(ctx, "Alpha", "", "")
	require.NoError(t, err)
	cols := b.Columns(p.ID, "M12", "deliverables")
	rows := b.Rows(p.ID, "M12", "deliverables")

	listed, err := cols.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, listed)

	a, err := cols.Create(ctx, "  Milestone A ")
	require.NoError(t, err)
	assert.Equal(t, "Milestone A", a.Label)
	assert.Equal(t, 1, a.Order)
	m, err := cols.Create(ctx, "Go Live")
	require.NoError(t, err)
	assert.Equal(t, 2, m.Order)

	_, err = cols.Create(ctx, "MILESTONE A")
	assert.ErrorIs(t, err, types.ErrColumnExists)
	_, err = cols.Create(ctx, "Work Product")
	assert.ErrorIs(t, err, types.ErrColumnExists, "labels of schema columns are taken")

	created, err := rows.Create(ctx, types.Row{"sl_no": "1", a.Key(): "Mar 2025", m.Key(): "Jun 2025", "stray": "x"})
	require.NoError(t, err)
	assert.Equal(t, "Mar 2025", created[a.Key()])
	assert.NotContains(t, created, "stray")

	require.NoError(t, cols.Delete(ctx, a.ID))
	assert.ErrorIs(t, cols.Delete(ctx, a.ID), types.ErrNotFound)

	listed, err = cols.List(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, m.ID, listed[0].ID)

	stored, err := rows.List(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.NotContains(t, stored[0], a.Key())
	assert.Equal(t, "Jun 2025", stored[0][m.Key()])

	id, _ := stored[0].ID()
	updated, err := rows.Update(ctx, id, types.Row{"sl_no": "1", a.Key(): "back"})
	require.NoError(t, err)
	assert.NotContains(t, updated, a.Key(), "values of deleted columns are not stored")
}

func TestColumns_Validation(t *testing.T) {
	ctx := context.Background()
	b := attachedBackend(t)
	p, err := b.CreateProject(ctx, "Alpha", "", "")
	require.NoError(t, err)

	_, err = b.Columns(p.ID, "M4", "assumptions").List(ctx)
	assert.ErrorIs(t, err, types.ErrNoExtraColumns)
	_, err = b.Columns(p.ID, "M12", "nope").List(ctx)
	assert.ErrorIs(t, err, types.ErrUnknownTable)
	_, err = b.Columns("missing", "M12", "deliverables").Create(ctx, "X")
	assert.ErrorIs(t, err, types.ErrNotFound)
	_, err = b.Columns(p.ID, "M12", "deliverables").Create(ctx, " ")
	assert.ErrorIs(t, err, types.ErrInvalidData)
	assert.ErrorIs(t, b.Columns(p.ID, "M12", "deliverables").Delete(ctx, ""), types.ErrInvalidID)
}

func TestColumns_ScopedPerTable(t *testing.T) {
	ctx := context.Background()
	b := attachedBackend(t)
	p, err := b.CreateProject(ctx, "Alpha", "", "")
	require.NoError(t, err)
	q, err := b.CreateProject(ctx, "Beta", "", "")
	require.NoError(t, err)

	_, err = b.Columns(p.ID, "M12", "deliverables").Create(ctx, "Milestone A")
	require.NoError(t, err)
	_, err = b.Columns(p.ID, "M13", "sam_deliverables").Create(ctx, "Milestone A")
	require.NoError(t, err, "the same label may be used in another table")

	other, err := b.Columns(q.ID, "M12", "deliverables").List(ctx)
	require.NoError(t, err)
	assert.Empty(t, other)
}
