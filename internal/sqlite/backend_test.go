package sqlite

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/planbook/internal/schema"
	"github.com/mesh-intelligence/planbook/pkg/types"
)

var testSeedUsers = []types.SeedUser{
	{Email: "admin@example.com", Username: "Admin", Role: types.RoleAdmin, Password: "admin123"},
	{Email: "viewer@example.com", Username: "Viewer", Role: types.RoleViewer, Password: "viewer123"},
}

func testConfig(dir string) types.Config {
	return types.Config{
		Backend:   types.BackendSQLite,
		DataDir:   dir,
		SeedUsers: testSeedUsers,
	}
}

// attachedBackend returns a backend attached to a fresh temp dir. It is
// detached when the test ends.
func attachedBackend(t *testing.T) *Backend {
	t.Helper()
	reg, err := schema.Default()
	require.NoError(t, err)
	b := NewBackend(reg)
	require.NoError(t, b.Attach(testConfig(t.TempDir())))
	t.Cleanup(func() { b.Detach() })
	return b
}

func TestBackend_Attach(t *testing.T) {
	tmpDir := t.TempDir()
	reg, err := schema.Default()
	require.NoError(t, err)

	b := NewBackend(reg)
	config := testConfig(tmpDir)
	require.NoError(t, b.Attach(config))

	_, err = os.Stat(filepath.Join(tmpDir, DBFileName))
	assert.NoError(t, err, "database file created")

	assert.ErrorIs(t, b.Attach(config), types.ErrAlreadyAttached)
	require.NoError(t, b.Detach())
}

func TestBackend_AttachRejectsInvalidConfig(t *testing.T) {
	reg, err := schema.Default()
	require.NoError(t, err)
	b := NewBackend(reg)
	err = b.Attach(types.Config{Backend: "postgres"})
	assert.ErrorIs(t, err, types.ErrBackendUnknown)
}

func TestBackend_Detach(t *testing.T) {
	b := attachedBackend(t)
	require.NoError(t, b.Detach())
	require.NoError(t, b.Detach(), "Detach is idempotent")

	_, err := b.ListProjects(context.Background())
	assert.ErrorIs(t, err, types.ErrDetached)
	_, err = b.Rows("p", "M1", "revision_history").List(context.Background())
	assert.ErrorIs(t, err, types.ErrDetached)
}

func TestBackend_DataSurvivesReattach(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	reg, err := schema.Default()
	require.NoError(t, err)

	b := NewBackend(reg)
	require.NoError(t, b.Attach(testConfig(dir)))
	p, err := b.CreateProject(ctx, "Plant upgrade", "", "")
	require.NoError(t, err)
	_, err = b.Rows(p.ID, "M1", "revision_history").Create(ctx, types.Row{"revision_no": "1.0"})
	require.NoError(t, err)
	require.NoError(t, b.Detach())

	require.NoError(t, b.Attach(testConfig(dir)))
	defer b.Detach()

	rows, err := b.Rows(p.ID, "M1", "revision_history").List(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "1.0", rows[0]["revision_no"])

	users, err := b.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2, "seeding does not duplicate users")
}

func TestRows_CRUD(t *testing.T) {
	ctx := context.Background()
	b := attachedBackend(t)
	p, err := b.CreateProject(ctx, "Alpha", "first", "")
	require.NoError(t, err)
	repo := b.Rows(p.ID, "M4", "assumptions")

	rows, err := repo.List(ctx)
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)

	first, err := repo.Create(ctx, types.Row{"sl_no": "1", "brief_description": "Site access", "bogus": "dropped"})
	require.NoError(t, err)
	id, ok := first.ID()
	require.True(t, ok)
	assert.NotContains(t, first, "bogus", "only schema columns are stored")

	_, err = repo.Create(ctx, types.Row{"sl_no": "2", "brief_description": "Budget"})
	require.NoError(t, err)

	rows, err = repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, id, rows[0]["id"])
	assert.Equal(t, "Site access", rows[0]["brief_description"])
	assert.Equal(t, "Budget", rows[1]["brief_description"])

	_, err = repo.Update(ctx, id, types.Row{"sl_no": "1", "brief_description": "Site access granted"})
	require.NoError(t, err)
	rows, _ = repo.List(ctx)
	assert.Equal(t, "Site access granted", rows[0]["brief_description"], "update keeps position")

	require.NoError(t, repo.Delete(ctx, id))
	rows, _ = repo.List(ctx)
	assert.Len(t, rows, 1)

	assert.ErrorIs(t, repo.Delete(ctx, id), types.ErrNotFound)
	_, err = repo.Update(ctx, id, types.Row{})
	assert.ErrorIs(t, err, types.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, ""), types.ErrInvalidID)
}

func TestRows_Validation(t *testing.T) {
	ctx := context.Background()
	b := attachedBackend(t)
	p, err := b.CreateProject(ctx, "Alpha", "", "")
	require.NoError(t, err)

	tests := []struct {
		name    string
		repo    types.TableRepository
		wantErr error
	}{
		{"unknown section", b.Rows(p.ID, "M99", "x"), types.ErrUnknownSection},
		{"unknown table", b.Rows(p.ID, "M1", "nope"), types.ErrUnknownTable},
		{"unknown project", b.Rows("missing", "M1", "revision_history"), types.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.repo.Create(ctx, types.Row{"revision_no": "1"})
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestRows_TablesAreScoped(t *testing.T) {
	ctx := context.Background()
	b := attachedBackend(t)
	p1, _ := b.CreateProject(ctx, "One", "", "")
	p2, _ := b.CreateProject(ctx, "Two", "", "")

	_, err := b.Rows(p1.ID, "M4", "assumptions").Create(ctx, types.Row{"sl_no": "1"})
	require.NoError(t, err)

	other, err := b.Rows(p2.ID, "M4", "assumptions").List(ctx)
	require.NoError(t, err)
	assert.Empty(t, other)

	sibling, err := b.Rows(p1.ID, "M4", "constraints").List(ctx)
	require.NoError(t, err)
	assert.Empty(t, sibling)
}

func TestEntries(t *testing.T) {
	ctx := context.Background()
	b := attachedBackend(t)
	p, err := b.CreateProject(ctx, "Alpha", "", "")
	require.NoError(t, err)
	repo := b.Entries(p.ID)

	v, err := repo.Get(ctx, "life_cycle_model")
	require.NoError(t, err)
	assert.Equal(t, types.SingleEntryValue{}, v, "unsaved field is empty")

	img := "data:image/png;base64,iVBORw0KGgo="
	require.NoError(t, repo.Put(ctx, "life_cycle_model", types.SingleEntryValue{Content: "V-model", ImageData: &img}))
	require.NoError(t, repo.Put(ctx, "life_cycle_model", types.SingleEntryValue{Content: "Agile", ImageData: &img}))

	v, err = repo.Get(ctx, "life_cycle_model")
	require.NoError(t, err)
	assert.Equal(t, "Agile", v.Content)
	require.NotNil(t, v.ImageData)
	assert.Equal(t, img, *v.ImageData)

	require.NoError(t, repo.Put(ctx, "life_cycle_model", types.SingleEntryValue{Content: "Agile"}))
	v, _ = repo.Get(ctx, "life_cycle_model")
	assert.Nil(t, v.ImageData)

	_, err = repo.Get(ctx, "nope")
	assert.ErrorIs(t, err, types.ErrUnknownField)
	assert.ErrorIs(t, b.Entries("missing").Put(ctx, "life_cycle_model", v), types.ErrNotFound)
}

func TestProjects(t *testing.T) {
	ctx := context.Background()
	b := attachedBackend(t)

	_, err := b.CreateProject(ctx, "  ", "", "")
	assert.ErrorIs(t, err, types.ErrInvalidData)

	p, err := b.CreateProject(ctx, "Alpha", "desc", "u1")
	require.NoError(t, err)

	got, err := b.GetProject(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alpha", got.Name)
	assert.Equal(t, "desc", got.Description)
	assert.Equal(t, "u1", got.CreatedBy)
	assert.WithinDuration(t, p.CreatedAt, got.CreatedAt, time.Millisecond)

	list, err := b.ListProjects(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = b.GetProject(ctx, "missing")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestDeleteProjectPurgesChildren(t *testing.T) {
	ctx := context.Background()
	b := attachedBackend(t)
	p, err := b.CreateProject(ctx, "Alpha", "", "")
	require.NoError(t, err)

	_, err = b.Rows(p.ID, "M1", "revision_history").Create(ctx, types.Row{"revision_no": "1"})
	require.NoError(t, err)
	require.NoError(t, b.Entries(p.ID).Put(ctx, "life_cycle_model", types.SingleEntryValue{Content: "x"}))
	_, err = b.Columns(p.ID, "M12", "deliverables").Create(ctx, "Milestone A")
	require.NoError(t, err)

	require.NoError(t, b.DeleteProject(ctx, p.ID))
	assert.ErrorIs(t, b.DeleteProject(ctx, p.ID), types.ErrNotFound)

	err = b.withDB(func(db *sql.DB) error {
		var n int
		require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM section_rows").Scan(&n))
		assert.Zero(t, n)
		require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM single_entries").Scan(&n))
		assert.Zero(t, n)
		require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM extra_columns").Scan(&n))
		assert.Zero(t, n)
		return nil
	})
	require.NoError(t, err)
}
