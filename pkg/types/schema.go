package types

// TableSchema declares one editable table of a section.
type TableSchema struct {
	Key     string      `json:"key" yaml:"key"`
	Title   string      `json:"title" yaml:"title"`
	Columns []ColumnDef `json:"columns" yaml:"columns"`

	// UniqueKeys names columns whose combined values must be unique
	// across rows (compared trimmed and case-insensitively).
	UniqueKeys []string `json:"unique_keys,omitempty" yaml:"unique_keys,omitempty"`

	// PreventDuplicateRows rejects rows equal to another row on every
	// column.
	PreventDuplicateRows bool `json:"prevent_duplicate_rows,omitempty" yaml:"prevent_duplicate_rows,omitempty"`

	// AddLabel is the caption of the add action. Defaults to "Add Row".
	AddLabel string `json:"add_label,omitempty" yaml:"add_label,omitempty"`

	// ExtraColumns lets each project add its own columns to the table.
	ExtraColumns *ExtraColumns `json:"extra_columns,omitempty" yaml:"extra_columns,omitempty"`
}

// ExtraColumns configures the per-project columns of a table. Defaults
// are created the first time an editor opens the table of a project that
// has none.
type ExtraColumns struct {
	Defaults []string `json:"defaults,omitempty" yaml:"defaults,omitempty"`
}

// WithExtraColumns returns a copy of t with extra appended to its columns.
func (t TableSchema) WithExtraColumns(extra []ExtraColumn) TableSchema {
	cols := make([]ColumnDef, 0, len(t.Columns)+len(extra))
	cols = append(cols, t.Columns...)
	for _, c := range extra {
		cols = append(cols, c.Def())
	}
	t.Columns = cols
	return t
}

// Column returns the column with the given key.
func (t TableSchema) Column(key string) (ColumnDef, bool) {
	for _, c := range t.Columns {
		if c.Key == key {
			return c, true
		}
	}
	return ColumnDef{}, false
}

// ColumnLabel returns the label of key, or key itself when the column is
// unknown.
func (t TableSchema) ColumnLabel(key string) string {
	if c, ok := t.Column(key); ok && c.Label != "" {
		return c.Label
	}
	return key
}

// AddCaption returns AddLabel or the default caption.
func (t TableSchema) AddCaption() string {
	if t.AddLabel != "" {
		return t.AddLabel
	}
	return "Add Row"
}

// SingleEntryDef declares one long-form narrative field.
type SingleEntryDef struct {
	Field         string `json:"field" yaml:"field"`
	Label         string `json:"label" yaml:"label"`
	SupportsImage bool   `json:"supports_image,omitempty" yaml:"supports_image,omitempty"`
	Description   string `json:"description,omitempty" yaml:"description,omitempty"`
	Rows          int    `json:"rows,omitempty" yaml:"rows,omitempty"`
}

// SectionSchema declares one chapter of the project plan.
type SectionSchema struct {
	ID            string           `json:"id" yaml:"id"`
	Title         string           `json:"title" yaml:"title"`
	Tables        []TableSchema    `json:"tables,omitempty" yaml:"tables,omitempty"`
	SingleEntries []SingleEntryDef `json:"single_entries,omitempty" yaml:"single_entries,omitempty"`
}

// Table returns the table with the given key.
func (s SectionSchema) Table(key string) (TableSchema, bool) {
	for _, t := range s.Tables {
		if t.Key == key {
			return t, true
		}
	}
	return TableSchema{}, false
}
