package dashboard

import (
	"context"

	"github.com/mesh-intelligence/planbook/internal/grid"
	"github.com/mesh-intelligence/planbook/internal/narrative"
	"github.com/mesh-intelligence/planbook/pkg/types"
)

// Table is a table of the view. Reads pass straight to the grid engine;
// mutations return ErrForbidden unless the user may edit.
type Table struct {
	engine *grid.Engine
	role   types.Role
}

func (t *Table) allowed() error {
	if !t.role.CanEdit() {
		return types.ErrForbidden
	}
	return nil
}

// CanEdit reports whether mutations are allowed for the signed-in user.
func (t *Table) CanEdit() bool { return t.role.CanEdit() }

// Reads. Each forwards to the grid engine method of the same name.

// Schema returns the table schema, extra columns included.
func (t *Table) Schema() types.TableSchema { return t.engine.Schema() }

// Load refetches the extra columns and rows.
func (t *Table) Load(ctx context.Context) error { return t.engine.Load(ctx) }

// Loading reports whether a Load is in flight.
func (t *Table) Loading() bool { return t.engine.Loading() }

// Rows returns the cached rows in backend order.
func (t *Table) Rows() []types.Row { return t.engine.Rows() }

// View returns the filtered and sorted rows.
func (t *Table) View() []types.Row { return t.engine.View() }

// EmptyMessage returns the placeholder for an empty view.
func (t *Table) EmptyMessage() string { return t.engine.EmptyMessage() }

// ExtraColumns returns the project's own columns of the table.
func (t *Table) ExtraColumns() []types.ExtraColumn { return t.engine.ExtraColumns() }

// SupportsExtraColumns reports whether the table accepts extra columns.
func (t *Table) SupportsExtraColumns() bool { return t.engine.SupportsExtraColumns() }

// View state. These change only the local view and are open to every role.

// ToggleSort sorts by key or flips the direction of the current key.
func (t *Table) ToggleSort(key string) { t.engine.ToggleSort(key) }

// ClearSort restores backend order.
func (t *Table) ClearSort() { t.engine.ClearSort() }

// Sort returns the current sort state.
func (t *Table) Sort() grid.SortState { return t.engine.Sort() }

// SetQuery sets the filter query.
func (t *Table) SetQuery(q string) { t.engine.SetQuery(q) }

// Query returns the filter query.
func (t *Table) Query() string { return t.engine.Query() }

// ToggleColumn hides or shows a column.
func (t *Table) ToggleColumn(key string) { t.engine.ToggleColumn(key) }

// ShowAllColumns makes every column visible.
func (t *Table) ShowAllColumns() { t.engine.ShowAllColumns() }

// VisibleColumns returns the visible columns in schema order.
func (t *Table) VisibleColumns() []types.ColumnDef { return t.engine.VisibleColumns() }

// Editing returns the identity of the row being edited.
func (t *Table) Editing() (string, bool) { return t.engine.Editing() }

// EditValues returns a copy of the edit buffer.
func (t *Table) EditValues() types.Row { return t.engine.EditValues() }

// EditDirty reports whether the edit buffer has changes.
func (t *Table) EditDirty() bool { return t.engine.EditDirty() }

// CancelEdit discards the edit buffer.
func (t *Table) CancelEdit() { t.engine.CancelEdit() }

// BeginEdit opens the edit buffer on a row.
func (t *Table) BeginEdit(rowID string) error {
	if err := t.allowed(); err != nil {
		return err
	}
	return t.engine.BeginEdit(rowID)
}

// SetField writes one column of the edit buffer.
func (t *Table) SetField(key string, value any) error {
	if err := t.allowed(); err != nil {
		return err
	}
	return t.engine.SetField(key, value)
}

// SaveEdit stores the edit buffer.
func (t *Table) SaveEdit(ctx context.Context) error {
	if err := t.allowed(); err != nil {
		return err
	}
	return t.engine.SaveEdit(ctx)
}

// Add creates a row.
func (t *Table) Add(ctx context.Context, payload types.Row) error {
	if err := t.allowed(); err != nil {
		return err
	}
	return t.engine.Add(ctx, payload)
}

// Delete removes a row.
func (t *Table) Delete(ctx context.Context, rowID string) error {
	if err := t.allowed(); err != nil {
		return err
	}
	return t.engine.Delete(ctx, rowID)
}

// AddColumn adds an extra column.
func (t *Table) AddColumn(ctx context.Context, label string) error {
	if err := t.allowed(); err != nil {
		return err
	}
	return t.engine.AddColumn(ctx, label)
}

// DeleteColumn removes an extra column and its values.
func (t *Table) DeleteColumn(ctx context.Context, columnID string) error {
	if err := t.allowed(); err != nil {
		return err
	}
	return t.engine.DeleteColumn(ctx, columnID)
}

// Narrative is the single-entry group of a section, gated like Table.
type Narrative struct {
	engine *narrative.Engine
	role   types.Role
}

func (n *Narrative) allowed() error {
	if !n.role.CanEdit() {
		return types.ErrForbidden
	}
	return nil
}

// CanEdit reports whether mutations are allowed for the signed-in user.
func (n *Narrative) CanEdit() bool { return n.role.CanEdit() }

// Reads. Each forwards to the narrative engine method of the same name.

// Defs returns the field definitions in declaration order.
func (n *Narrative) Defs() []types.SingleEntryDef { return n.engine.Defs() }

// Load refetches every field.
func (n *Narrative) Load(ctx context.Context) error { return n.engine.Load(ctx) }

// Loading reports whether a Load is in flight.
func (n *Narrative) Loading() bool { return n.engine.Loading() }

// Value returns the current value of field.
func (n *Narrative) Value(field string) types.SingleEntryValue { return n.engine.Value(field) }

// Content returns the current text of field.
func (n *Narrative) Content(field string) string { return n.engine.Content(field) }

// Values returns a copy of every current value.
func (n *Narrative) Values() map[string]types.SingleEntryValue { return n.engine.Values() }

// Dirty reports whether field changed since the last Load or Save.
func (n *Narrative) Dirty(field string) bool { return n.engine.Dirty(field) }

// AnyDirty reports whether any field has unsaved changes.
func (n *Narrative) AnyDirty() bool { return n.engine.AnyDirty() }

// Display returns the text shown for field, or its placeholder.
func (n *Narrative) Display(field string) string { return n.engine.Display(field) }

// SetContent edits the text of field.
func (n *Narrative) SetContent(field, content string) error {
	if err := n.allowed(); err != nil {
		return err
	}
	return n.engine.SetContent(field, content)
}

// AttachImage reads f into the image of field.
func (n *Narrative) AttachImage(field string, f narrative.FileReader) error {
	if err := n.allowed(); err != nil {
		return err
	}
	return n.engine.AttachImage(field, f)
}

// RemoveImage clears the image of field.
func (n *Narrative) RemoveImage(field string) error {
	if err := n.allowed(); err != nil {
		return err
	}
	return n.engine.RemoveImage(field)
}

// Save stores field.
func (n *Narrative) Save(ctx context.Context, field string) error {
	if err := n.allowed(); err != nil {
		return err
	}
	return n.engine.Save(ctx, field)
}
