package schema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/planbook/pkg/types"
)

func TestDefaultCatalogue(t *testing.T) {
	reg, err := Default()
	require.NoError(t, err)

	sections := reg.Sections()
	require.Len(t, sections, 13)
	assert.Equal(t, "M1", sections[0].ID)
	assert.Equal(t, "M13", sections[12].ID)

	table, err := reg.Table("M4", "assumptions")
	require.NoError(t, err)
	assert.Equal(t, []string{"sl_no"}, table.UniqueKeys)

	for _, key := range [][2]string{{"M12", "deliverables"}, {"M13", "sam_deliverables"}} {
		table, err := reg.Table(key[0], key[1])
		require.NoError(t, err)
		require.NotNil(t, table.ExtraColumns, key[1])
		assert.Equal(t, []string{"Milestone A", "Milestone B", "Milestone C", "Milestone D"}, table.ExtraColumns.Defaults)
	}

	def, sectionID, err := reg.SingleEntry("life_cycle_model")
	require.NoError(t, err)
	assert.Equal(t, "M4", sectionID)
	assert.True(t, def.SupportsImage)
}

func TestRegistryLookupErrors(t *testing.T) {
	reg, err := Default()
	require.NoError(t, err)

	_, err = reg.Section("M99")
	assert.ErrorIs(t, err, types.ErrUnknownSection)

	_, err = reg.Table("M1", "nope")
	assert.ErrorIs(t, err, types.ErrUnknownTable)

	_, err = reg.Table("M99", "revision_history")
	assert.ErrorIs(t, err, types.ErrUnknownSection)

	_, _, err = reg.SingleEntry("nope")
	assert.ErrorIs(t, err, types.ErrUnknownField)
}

func TestLoadRejectsInvalidCatalogues(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantMsg string
	}{
		{
			name:    "empty document",
			yaml:    "   ",
			wantMsg: "catalogue is empty",
		},
		{
			name:    "malformed yaml",
			yaml:    "sections: [",
			wantMsg: "decode catalogue",
		},
		{
			name: "missing section id",
			yaml: `
sections:
  - title: Untitled
`,
			wantMsg: "id is required",
		},
		{
			name: "duplicate section",
			yaml: `
sections:
  - id: A
  - id: A
`,
			wantMsg: "duplicate section A",
		},
		{
			name: "duplicate table",
			yaml: `
sections:
  - id: A
    tables:
      - key: t
        columns: [{key: x, label: X}]
      - key: t
        columns: [{key: x, label: X}]
`,
			wantMsg: "duplicate table t",
		},
		{
			name: "duplicate column",
			yaml: `
sections:
  - id: A
    tables:
      - key: t
        columns: [{key: x, label: X}, {key: x, label: Y}]
`,
			wantMsg: "duplicate column x",
		},
		{
			name: "table without columns",
			yaml: `
sections:
  - id: A
    tables:
      - key: t
`,
			wantMsg: "has no columns",
		},
		{
			name: "unique key not a column",
			yaml: `
sections:
  - id: A
    tables:
      - key: t
        unique_keys: [y]
        columns: [{key: x, label: X}]
`,
			wantMsg: "unique key y is not a column",
		},
		{
			name: "default extra column repeats a column",
			yaml: `
sections:
  - id: A
    tables:
      - key: t
        columns: [{key: x, label: Milestone}]
        extra_columns: {defaults: [milestone]}
`,
			wantMsg: "column already exists",
		},
		{
			name: "blank default extra column",
			yaml: `
sections:
  - id: A
    tables:
      - key: t
        columns: [{key: x, label: X}]
        extra_columns: {defaults: [A, " "]}
`,
			wantMsg: "column name is required",
		},
		{
			name: "single entry declared twice",
			yaml: `
sections:
  - id: A
    single_entries: [{field: f, label: F}]
  - id: B
    single_entries: [{field: f, label: F}]
`,
			wantMsg: "declared in A and B",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load([]byte(tt.yaml))
			require.Error(t, err)
			assert.ErrorIs(t, err, types.ErrSchemaInvalid)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestLoadFile(t *testing.T) {
	t.Run("empty path uses the embedded catalogue", func(t *testing.T) {
		reg, err := LoadFile("")
		require.NoError(t, err)
		assert.Len(t, reg.Sections(), 13)
	})

	t.Run("reads an override file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "sections.yaml")
		doc := `
sections:
  - id: X
    title: Custom
    tables:
      - key: items
        columns: [{key: name, label: Name}]
`
		require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

		reg, err := LoadFile(path)
		require.NoError(t, err)
		s, err := reg.Section("X")
		require.NoError(t, err)
		assert.Equal(t, "Custom", s.Title)
	})

	t.Run("missing file is an error", func(t *testing.T) {
		_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.Error(t, err)
	})
}
