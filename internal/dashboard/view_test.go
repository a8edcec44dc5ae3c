package dashboard

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/planbook/internal/grid"
	"github.com/mesh-intelligence/planbook/internal/memstore"
	"github.com/mesh-intelligence/planbook/internal/nav"
	"github.com/mesh-intelligence/planbook/internal/schema"
	"github.com/mesh-intelligence/planbook/internal/search"
	"github.com/mesh-intelligence/planbook/pkg/types"
)

var (
	project = types.Project{ID: "p1", Name: "Plan"}
	editor  = types.User{ID: "u1", Role: types.RoleEditor}
	viewer  = types.User{ID: "u2", Role: types.RoleViewer}
)

type recordingScroller struct {
	anchors []string
	tops    int
}

func (r *recordingScroller) ScrollToTop()      { r.tops++ }
func (r *recordingScroller) ScrollTo(a string) { r.anchors = append(r.anchors, a) }

// failingRepos fails every table list of one section.
type failingRepos struct {
	*memstore.Store
	section string
}

func (f failingRepos) Rows(p, s, t string) types.TableRepository {
	if s == f.section {
		return failingTable{}
	}
	return f.Store.Rows(p, s, t)
}

type failingTable struct{ types.TableRepository }

func (failingTable) List(context.Context) ([]types.Row, error) {
	return nil, errors.New("backend unavailable")
}

func openView(t *testing.T, repos Repositories, user types.User, opts ...Option) *ProjectView {
	t.Helper()
	reg, err := schema.Default()
	require.NoError(t, err)
	v, err := Open(context.Background(), reg, repos, project, user, opts...)
	require.NoError(t, err)
	t.Cleanup(v.Close)
	return v
}

func sourceCount(t *testing.T) int {
	reg, err := schema.Default()
	require.NoError(t, err)
	n := 0
	for _, s := range reg.Sections() {
		n += len(s.Tables)
		if len(s.SingleEntries) > 0 {
			n++
		}
	}
	return n
}

func TestOpenMountsEverySection(t *testing.T) {
	v := openView(t, memstore.New(), editor)

	require.Len(t, v.Sections(), 13)
	assert.Equal(t, "M1", v.ActiveSection())
	assert.True(t, v.Sections()[0].Loaded())
	assert.False(t, v.Sections()[1].Loaded(), "other sections load lazily")
	assert.Len(t, v.Search().Sources(), sourceCount(t))

	m4, err := v.Section("M4")
	require.NoError(t, err)
	items := m4.Shell().Items()
	require.NotEmpty(t, items)
	assert.Equal(t, NarrativeItemID, items[0].ID)
	assert.Equal(t, ItemTypeNarrative, items[0].Type)
	assert.Equal(t, TableItemID("project_details"), items[1].ID)
	assert.Equal(t, ItemTypeTable, items[1].Type)

	_, err = v.Section("M99")
	assert.ErrorIs(t, err, types.ErrUnknownSection)
	_, err = v.Table("M4", "nope")
	assert.ErrorIs(t, err, types.ErrUnknownTable)
}

func TestActivateSectionLoadsOnce(t *testing.T) {
	store := memstore.New()
	ctx := context.Background()
	_, err := store.Rows(project.ID, "M4", "assumptions").Create(ctx, types.Row{"sl_no": "1", "brief_description": "Site access"})
	require.NoError(t, err)

	v := openView(t, store, viewer)
	tbl, err := v.Table("M4", "assumptions")
	require.NoError(t, err)
	assert.Empty(t, tbl.Rows())

	require.NoError(t, v.ActivateSection(ctx, "M4"))
	assert.Equal(t, "M4", v.ActiveSection())
	assert.Len(t, tbl.Rows(), 1)

	_, err = store.Rows(project.ID, "M4", "assumptions").Create(ctx, types.Row{"sl_no": "2"})
	require.NoError(t, err)
	require.NoError(t, v.ActivateSection(ctx, "M4"))
	assert.Len(t, tbl.Rows(), 1, "second activation does not refetch")

	require.NoError(t, v.Reload(ctx))
	assert.Len(t, tbl.Rows(), 2)
}

func TestActivateSectionReportsLoadFailure(t *testing.T) {
	v := openView(t, failingRepos{Store: memstore.New(), section: "M3"}, editor)

	err := v.ActivateSection(context.Background(), "M3")
	require.Error(t, err)
	assert.Equal(t, "M3", v.ActiveSection())

	tbl, err := v.Table("M3", "definition_acronyms")
	require.NoError(t, err)
	assert.Equal(t, grid.MessageNoData, tbl.EmptyMessage())
}

func TestViewerCannotMutate(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	row, err := store.Rows(project.ID, "M1", "revision_history").Create(ctx, types.Row{"revision_no": "1.0"})
	require.NoError(t, err)
	id, _ := row.ID()

	v := openView(t, store, viewer)
	tbl, err := v.Table("M1", "revision_history")
	require.NoError(t, err)
	assert.False(t, tbl.CanEdit())

	assert.ErrorIs(t, tbl.Add(ctx, types.Row{"revision_no": "2.0"}), types.ErrForbidden)
	assert.ErrorIs(t, tbl.BeginEdit(id), types.ErrForbidden)
	assert.ErrorIs(t, tbl.SetField("revision_no", "x"), types.ErrForbidden)
	assert.ErrorIs(t, tbl.SaveEdit(ctx), types.ErrForbidden)
	assert.ErrorIs(t, tbl.Delete(ctx, id), types.ErrForbidden)

	rows, err := store.Rows(project.ID, "M1", "revision_history").List(ctx)
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	tbl.ToggleSort("revision_no")
	assert.Len(t, tbl.View(), 1, "reads stay available")

	_, err = v.Entries("M1")
	assert.ErrorIs(t, err, types.ErrUnknownField, "M1 has no narrative")
	n, err := v.Entries("M4")
	require.NoError(t, err)
	field := n.Defs()[0].Field
	assert.ErrorIs(t, n.SetContent(field, "x"), types.ErrForbidden)
	assert.ErrorIs(t, n.RemoveImage(field), types.ErrForbidden)
	assert.ErrorIs(t, n.Save(ctx, field), types.ErrForbidden)
}

func TestEditorMutatesThroughView(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	v := openView(t, store, editor)
	require.NoError(t, v.ActivateSection(ctx, "M4"))

	tbl, err := v.Table("M4", "assumptions")
	require.NoError(t, err)
	require.NoError(t, tbl.Add(ctx, types.Row{"sl_no": "1", "brief_description": "Budget"}))
	assert.ErrorIs(t, tbl.Add(ctx, types.Row{"sl_no": " 1 "}), types.ErrDuplicateKey)

	n, err := v.Entries("M4")
	require.NoError(t, err)
	require.NoError(t, n.SetContent("life_cycle_model", "Waterfall"))
	require.NoError(t, n.Save(ctx, "life_cycle_model"))

	got, err := store.Entries(project.ID).Get(ctx, "life_cycle_model")
	require.NoError(t, err)
	assert.Equal(t, "Waterfall", got.Content)
}

func TestSearchAndNavigate(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	_, err := store.Rows(project.ID, "M4", "assumptions").Create(ctx, types.Row{"sl_no": "1", "brief_description": "Vendor hardware arrives"})
	require.NoError(t, err)
	require.NoError(t, store.Entries(project.ID).Put(ctx, "life_cycle_model", types.SingleEntryValue{Content: "Spiral with hardware gates"}))

	sc := &recordingScroller{}
	v := openView(t, store, viewer, WithScroller(sc))

	assert.Empty(t, v.Search().Query("hardware"), "unloaded sections are not indexed")

	require.NoError(t, v.LoadAll(ctx))
	results := v.Search().Query("HARDWARE")
	require.Len(t, results, 2)
	assert.Equal(t, "Life Cycle Model", results[0].Label)
	assert.Equal(t, "assumptions", results[1].GroupID)
	assert.Equal(t, "1 Vendor hardware arrives", results[1].SearchableText)

	require.NoError(t, v.Search().Select(ctx, results[1]))
	assert.Equal(t, "M4", v.ActiveSection())
	m4, _ := v.Section("M4")
	assert.Equal(t, TableItemID("assumptions"), m4.Shell().Active())
	assert.Equal(t, results[1].Anchor, v.Anchor())
	assert.Contains(t, sc.anchors, results[1].Anchor)

	require.NoError(t, v.Navigate(ctx, results[0]))
	assert.Equal(t, NarrativeItemID, m4.Shell().Active())
}

func TestNavigateUnknownSection(t *testing.T) {
	v := openView(t, memstore.New(), viewer)
	err := v.Navigate(context.Background(), types.SearchItem{SectionID: "M99"})
	assert.ErrorIs(t, err, types.ErrUnknownSection)
}

func TestCloseUnregistersSources(t *testing.T) {
	agg := search.NewAggregator(nil)
	reg, err := schema.Default()
	require.NoError(t, err)
	v, err := Open(context.Background(), reg, memstore.New(), project, viewer, WithAggregator(agg))
	require.NoError(t, err)
	assert.NotEmpty(t, agg.Sources())

	v.Close()
	assert.Empty(t, agg.Sources())
	v.Close()
}

func TestScrollSpyMode(t *testing.T) {
	v := openView(t, memstore.New(), viewer, WithMode(nav.ScrollSpy))
	m4, err := v.Section("M4")
	require.NoError(t, err)
	assert.Equal(t, nav.ScrollSpy, m4.Shell().Mode())
}

func TestOpenWithSectionLoadsOnlyThatSection(t *testing.T) {
	v := openView(t, memstore.New(), viewer, WithSection("M4"))
	assert.Equal(t, "M4", v.ActiveSection())
	m1, err := v.Section("M1")
	require.NoError(t, err)
	assert.False(t, m1.Loaded())
	m4, err := v.Section("M4")
	require.NoError(t, err)
	assert.True(t, m4.Loaded())

	reg, err := schema.Default()
	require.NoError(t, err)
	_, err = Open(context.Background(), reg, memstore.New(), project, viewer, WithSection("M99"))
	assert.ErrorIs(t, err, types.ErrUnknownSection)
}

func TestMilestoneColumns(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()

	v := openView(t, store, viewer, WithSection("M12"))
	tbl, err := v.Table("M12", "deliverables")
	require.NoError(t, err)
	assert.True(t, tbl.SupportsExtraColumns())
	assert.Empty(t, tbl.ExtraColumns(), "viewers do not create the default columns")
	assert.ErrorIs(t, tbl.AddColumn(ctx, "Go Live"), types.ErrForbidden)

	ed := openView(t, store, editor, WithSection("M12"))
	tbl, err = ed.Table("M12", "deliverables")
	require.NoError(t, err)
	require.Len(t, tbl.ExtraColumns(), 4)
	require.NoError(t, tbl.AddColumn(ctx, "Go Live"))
	goLive := tbl.ExtraColumns()[4]
	require.NoError(t, tbl.Add(ctx, types.Row{"sl_no": "1", "work_product": "SRS", goLive.Key(): "Gate review"}))
	assert.Contains(t, RenderTable(tbl), "Go Live")

	results := ed.Search().Query("gate review")
	require.Len(t, results, 1)
	assert.Equal(t, TableItemID("deliverables"), results[0].ItemID)

	require.NoError(t, tbl.DeleteColumn(ctx, goLive.ID))
	assert.Empty(t, ed.Search().Query("gate review"))

	m4, err := ed.Table("M4", "assumptions")
	require.NoError(t, err)
	assert.False(t, m4.SupportsExtraColumns())
}

func TestNavigateUsesTheResultItem(t *testing.T) {
	ctx := context.Background()
	reg, err := schema.New([]types.SectionSchema{{
		ID:    "S1",
		Title: "Section",
		Tables: []types.TableSchema{
			{Key: "first", Title: "First", Columns: []types.ColumnDef{{Key: "name", Label: "Name"}}},
			{Key: NarrativeItemID, Title: "Entries", Columns: []types.ColumnDef{{Key: "name", Label: "Name"}}},
		},
	}})
	require.NoError(t, err)
	store := memstore.New()
	_, err = store.Rows(project.ID, "S1", NarrativeItemID).Create(ctx, types.Row{"name": "Kickoff"})
	require.NoError(t, err)

	v, err := Open(ctx, reg, store, project, viewer)
	require.NoError(t, err)
	t.Cleanup(v.Close)

	results := v.Search().Query("kickoff")
	require.Len(t, results, 1)
	require.NoError(t, v.Search().Select(ctx, results[0]))
	sec, err := v.Section("S1")
	require.NoError(t, err)
	assert.Equal(t, TableItemID(NarrativeItemID), sec.Shell().Active())
}
