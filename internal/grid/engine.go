// Package grid implements the table engine behind every section table of
// the plan: a cached row set with sorting, filtering, column visibility,
// a single-row edit buffer and duplicate policies enforced before any
// mutation reaches the repository.
//
// An Engine is owned by one event loop and is not safe for concurrent use.
package grid

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/mesh-intelligence/planbook/pkg/types"
)

// Messages shown when the view is empty.
const (
	MessageNoData    = "No data available."
	MessageNoMatches = "No rows match the current search."
)

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for load failures.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithExtraColumns lets the table carry the per-project columns managed by
// repo. With seed, a project that has none gets the schema's defaults on
// the first Load.
func WithExtraColumns(repo types.ColumnRepository, seed bool) Option {
	return func(e *Engine) {
		e.columns = repo
		e.seed = seed
	}
}

// editBuffer holds the in-progress values of one row.
type editBuffer struct {
	rowID    string
	values   types.Row
	baseline types.Row
}

// Engine is the table engine for one table of one project.
type Engine struct {
	base   types.TableSchema
	schema types.TableSchema
	repo   types.TableRepository
	logger *slog.Logger

	columns types.ColumnRepository
	seed    bool
	seeded  bool
	extra   []types.ExtraColumn

	rows    []types.Row
	loading bool
	sort    SortState
	query   string
	hidden  map[string]bool
	edit    *editBuffer
}

// New creates an Engine over repo. Call Load before reading the view.
func New(schema types.TableSchema, repo types.TableRepository, opts ...Option) *Engine {
	e := &Engine{
		base:   schema,
		schema: schema,
		repo:   repo,
		logger: slog.New(slog.DiscardHandler),
		hidden: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Schema returns the table schema, extra columns included.
func (e *Engine) Schema() types.TableSchema { return e.schema }

// Load fetches the extra columns and the rows and replaces the cache. On
// failure the cache is emptied and the error returned.
func (e *Engine) Load(ctx context.Context) error {
	e.loading = true
	defer func() { e.loading = false }()

	if e.columns != nil {
		if err := e.loadColumns(ctx); err != nil {
			e.rows = nil
			e.logger.Warn("loading extra columns failed", "table", e.base.Key, "error", err)
			return fmt.Errorf("listing columns of %s: %w", e.base.Key, err)
		}
	}

	rows, err := e.repo.List(ctx)
	if err != nil {
		e.rows = nil
		e.logger.Warn("loading table rows failed", "table", e.schema.Key, "error", err)
		return fmt.Errorf("listing rows of %s: %w", e.schema.Key, err)
	}
	e.rows = rows
	return nil
}

func (e *Engine) loadColumns(ctx context.Context) error {
	cols, err := e.columns.List(ctx)
	if err != nil {
		return err
	}
	if len(cols) == 0 && e.seed && !e.seeded && e.base.ExtraColumns != nil {
		e.seeded = true
		for _, label := range e.base.ExtraColumns.Defaults {
			if _, err := e.columns.Create(ctx, label); err != nil {
				e.logger.Warn("creating default column failed", "table", e.base.Key, "column", label, "error", err)
			}
		}
		if cols, err = e.columns.List(ctx); err != nil {
			return err
		}
	}
	e.setExtra(cols)
	return nil
}

// setExtra widens the schema by cols and drops view state that refers to
// columns which no longer exist.
func (e *Engine) setExtra(cols []types.ExtraColumn) {
	e.extra = cols
	e.schema = e.base.WithExtraColumns(cols)
	for key := range e.hidden {
		if _, ok := e.schema.Column(key); !ok {
			delete(e.hidden, key)
		}
	}
	if e.sort.Key != "" {
		if _, ok := e.schema.Column(e.sort.Key); !ok {
			e.sort = SortState{}
		}
	}
}

// Loading reports whether a Load is in flight.
func (e *Engine) Loading() bool { return e.loading }

// Rows returns the cached rows in backend order.
func (e *Engine) Rows() []types.Row {
	out := make([]types.Row, len(e.rows))
	copy(out, e.rows)
	return out
}

// View returns the cached rows filtered by the current query and then
// sorted by the current sort state. The cache itself is not reordered.
func (e *Engine) View() []types.Row {
	out := filterRows(e.rows, e.schema.Columns, normalizeQuery(e.query))
	sortRows(out, e.schema, e.sort)
	return out
}

// EmptyMessage returns the placeholder for an empty view, or "" when the
// view has rows.
func (e *Engine) EmptyMessage() string {
	if len(e.rows) == 0 {
		return MessageNoData
	}
	if len(e.View()) == 0 {
		return MessageNoMatches
	}
	return ""
}

// ToggleSort sorts by key. Selecting the current key flips the direction;
// a new key starts ascending.
func (e *Engine) ToggleSort(key string) {
	if e.sort.Key == key {
		if e.sort.Direction == Asc {
			e.sort.Direction = Desc
		} else {
			e.sort.Direction = Asc
		}
		return
	}
	e.sort = SortState{Key: key, Direction: Asc}
}

// ClearSort restores backend order.
func (e *Engine) ClearSort() { e.sort = SortState{} }

// Sort returns the current sort state.
func (e *Engine) Sort() SortState { return e.sort }

// SetQuery sets the filter query.
func (e *Engine) SetQuery(q string) { e.query = q }

// Query returns the filter query as set.
func (e *Engine) Query() string { return e.query }

// ToggleColumn hides or shows a column. Hiding the last visible column is
// a no-op.
func (e *Engine) ToggleColumn(key string) {
	if _, ok := e.schema.Column(key); !ok {
		return
	}
	if e.hidden[key] {
		delete(e.hidden, key)
		return
	}
	if len(e.VisibleColumns()) <= 1 {
		return
	}
	e.hidden[key] = true
}

// ShowAllColumns makes every column visible.
func (e *Engine) ShowAllColumns() { clear(e.hidden) }

// VisibleColumns returns the visible columns in schema order.
func (e *Engine) VisibleColumns() []types.ColumnDef {
	out := make([]types.ColumnDef, 0, len(e.schema.Columns))
	for _, c := range e.schema.Columns {
		if !e.hidden[c.Key] {
			out = append(out, c)
		}
	}
	return out
}

// BeginEdit opens the edit buffer on the row with the given identity.
// A dirty buffer on another row is kept and ErrEditInProgress returned.
func (e *Engine) BeginEdit(rowID string) error {
	if e.edit != nil && e.edit.rowID != rowID && e.EditDirty() {
		return fmt.Errorf("%w: row %s", types.ErrEditInProgress, e.edit.rowID)
	}
	if e.edit != nil && e.edit.rowID == rowID {
		return nil
	}
	row, ok := e.find(rowID)
	if !ok {
		return fmt.Errorf("row %s: %w", rowID, types.ErrNotFound)
	}
	values := e.normalizeDates(row.Clone())
	e.edit = &editBuffer{rowID: rowID, values: values, baseline: values.Clone()}
	return nil
}

// Editing returns the identity of the row being edited.
func (e *Engine) Editing() (string, bool) {
	if e.edit == nil {
		return "", false
	}
	return e.edit.rowID, true
}

// EditValues returns a copy of the edit buffer.
func (e *Engine) EditValues() types.Row {
	if e.edit == nil {
		return nil
	}
	return e.edit.values.Clone()
}

// SetField writes one column of the edit buffer.
func (e *Engine) SetField(key string, value any) error {
	if e.edit == nil {
		return types.ErrNotEditing
	}
	if _, ok := e.schema.Column(key); !ok {
		return fmt.Errorf("%w: column %s", types.ErrUnknownField, key)
	}
	e.edit.values[key] = value
	return nil
}

// EditDirty reports whether any column of the buffer differs from the row
// it was opened on.
func (e *Engine) EditDirty() bool {
	if e.edit == nil {
		return false
	}
	for _, c := range e.schema.Columns {
		if types.Stringify(e.edit.values[c.Key]) != types.Stringify(e.edit.baseline[c.Key]) {
			return true
		}
	}
	return false
}

// CancelEdit discards the edit buffer.
func (e *Engine) CancelEdit() { e.edit = nil }

// SaveEdit validates the buffer, sends it as an update and reloads. On a
// duplicate or repository error the buffer is kept.
func (e *Engine) SaveEdit(ctx context.Context) error {
	if e.edit == nil {
		return types.ErrNotEditing
	}
	payload := e.normalizeDates(e.edit.values.Clone())
	if err := e.checkDuplicates(payload, e.edit.rowID); err != nil {
		return err
	}
	if _, err := e.repo.Update(ctx, e.edit.rowID, payload.StripIdentity()); err != nil {
		return &ActionError{Action: ActionUpdate, Err: err}
	}
	e.edit = nil
	return e.Load(ctx)
}

// Add validates payload, creates it and reloads.
func (e *Engine) Add(ctx context.Context, payload types.Row) error {
	p := e.normalizeDates(payload.Clone())
	if err := e.checkDuplicates(p, ""); err != nil {
		return err
	}
	if _, err := e.repo.Create(ctx, p); err != nil {
		return &ActionError{Action: ActionAdd, Err: err}
	}
	return e.Load(ctx)
}

// Delete removes the row with the given identity and reloads.
func (e *Engine) Delete(ctx context.Context, rowID string) error {
	if err := e.repo.Delete(ctx, rowID); err != nil {
		return &ActionError{Action: ActionDelete, Err: err}
	}
	if e.edit != nil && e.edit.rowID == rowID {
		e.edit = nil
	}
	return e.Load(ctx)
}

// SupportsExtraColumns reports whether columns can be added to the table.
func (e *Engine) SupportsExtraColumns() bool { return e.columns != nil }

// ExtraColumns returns the extra columns in display order.
func (e *Engine) ExtraColumns() []types.ExtraColumn {
	out := make([]types.ExtraColumn, len(e.extra))
	copy(out, e.extra)
	return out
}

// AddColumn creates an extra column and reloads.
func (e *Engine) AddColumn(ctx context.Context, label string) error {
	if e.columns == nil {
		return types.ErrNoExtraColumns
	}
	if _, err := e.columns.Create(ctx, label); err != nil {
		return &ActionError{Action: ActionAdd, Target: TargetColumn, Err: err}
	}
	return e.Load(ctx)
}

// DeleteColumn removes an extra column, with its values, and reloads.
func (e *Engine) DeleteColumn(ctx context.Context, columnID string) error {
	if e.columns == nil {
		return types.ErrNoExtraColumns
	}
	if err := e.columns.Delete(ctx, columnID); err != nil {
		return &ActionError{Action: ActionDelete, Target: TargetColumn, Err: err}
	}
	return e.Load(ctx)
}

func (e *Engine) find(rowID string) (types.Row, bool) {
	for _, r := range e.rows {
		if id, ok := r.ID(); ok && id == rowID {
			return r, true
		}
	}
	return nil, false
}

// normalizeDates rewrites the date columns present in row to YYYY-MM-DD.
func (e *Engine) normalizeDates(row types.Row) types.Row {
	for _, c := range e.schema.Columns {
		if !c.IsDate() {
			continue
		}
		v, ok := row[c.Key]
		if !ok || isNil(v) {
			continue
		}
		row[c.Key] = NormalizeDate(types.Stringify(v))
	}
	return row
}

// RowKey returns the identity of row, or a positional key for rows that
// have none. The positional key is for display only.
func RowKey(row types.Row, index int) string {
	if id, ok := row.ID(); ok {
		return id
	}
	return "index-" + strconv.Itoa(index)
}
