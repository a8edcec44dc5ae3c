// Package memstore is an in-memory implementation of the table, extra
// column and single-entry repositories. It backs the engine tests and any caller that
// needs a throwaway plan without a server.
package memstore

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/planbook/pkg/types"
)

type tableRef struct {
	project, section, table string
}

type entryRef struct {
	project, field string
}

// Store holds rows and narrative values for any number of projects.
type Store struct {
	mu      sync.RWMutex
	rows    map[tableRef][]types.Row
	columns map[tableRef][]types.ExtraColumn
	entries map[entryRef]types.SingleEntryValue
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		rows:    make(map[tableRef][]types.Row),
		columns: make(map[tableRef][]types.ExtraColumn),
		entries: make(map[entryRef]types.SingleEntryValue),
	}
}

// Rows returns the repository of one section table.
func (s *Store) Rows(projectID, sectionID, tableKey string) types.TableRepository {
	return &tableRepo{store: s, ref: tableRef{projectID, sectionID, tableKey}}
}

// Columns returns the extra column repository of one section table. Labels
// are checked against the other extra columns only; the store knows no
// schema.
func (s *Store) Columns(projectID, sectionID, tableKey string) types.ColumnRepository {
	return &columnRepo{store: s, ref: tableRef{projectID, sectionID, tableKey}}
}

// Entries returns the narrative repository of one project.
func (s *Store) Entries(projectID string) types.SingleEntryRepository {
	return &entryRepo{store: s, project: projectID}
}

type tableRepo struct {
	store *Store
	ref   tableRef
}

var _ types.TableRepository = (*tableRepo)(nil)

func (t *tableRepo) List(ctx context.Context) ([]types.Row, error) {
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()

	stored := t.store.rows[t.ref]
	out := make([]types.Row, len(stored))
	for i, r := range stored {
		out[i] = r.Clone()
	}
	return out, nil
}

func (t *tableRepo) Create(ctx context.Context, row types.Row) (types.Row, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generating row id: %w", err)
	}
	stored := row.StripIdentity()
	stored[types.FieldID] = id.String()

	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	t.store.rows[t.ref] = append(t.store.rows[t.ref], stored)
	return stored.Clone(), nil
}

func (t *tableRepo) Update(ctx context.Context, id string, row types.Row) (types.Row, error) {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	i, ok := t.index(id)
	if !ok {
		return nil, fmt.Errorf("row %s: %w", id, types.ErrNotFound)
	}
	stored := row.StripIdentity()
	stored[types.FieldID] = id
	t.store.rows[t.ref][i] = stored
	return stored.Clone(), nil
}

func (t *tableRepo) Delete(ctx context.Context, id string) error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	i, ok := t.index(id)
	if !ok {
		return fmt.Errorf("row %s: %w", id, types.ErrNotFound)
	}
	rows := t.store.rows[t.ref]
	t.store.rows[t.ref] = append(rows[:i:i], rows[i+1:]...)
	return nil
}

// index must be called with the lock held.
func (t *tableRepo) index(id string) (int, bool) {
	for i, r := range t.store.rows[t.ref] {
		if rid, ok := r.ID(); ok && rid == id {
			return i, true
		}
	}
	return 0, false
}

type columnRepo struct {
	store *Store
	ref   tableRef
}

var _ types.ColumnRepository = (*columnRepo)(nil)

func (c *columnRepo) List(ctx context.Context) ([]types.ExtraColumn, error) {
	c.store.mu.RLock()
	defer c.store.mu.RUnlock()
	return slices.Clone(c.store.columns[c.ref]), nil
}

func (c *columnRepo) Create(ctx context.Context, label string) (types.ExtraColumn, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return types.ExtraColumn{}, fmt.Errorf("generating column id: %w", err)
	}

	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	existing := c.store.columns[c.ref]
	label, err = types.CheckColumnLabel(label, nil, existing)
	if err != nil {
		return types.ExtraColumn{}, err
	}
	order := 1
	if n := len(existing); n > 0 {
		order = existing[n-1].Order + 1
	}
	col := types.ExtraColumn{
		ID:        id.String(),
		ProjectID: c.ref.project,
		Section:   c.ref.section,
		TableName: c.ref.table,
		Label:     label,
		Order:     order,
	}
	c.store.columns[c.ref] = append(existing, col)
	return col, nil
}

func (c *columnRepo) Delete(ctx context.Context, id string) error {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	cols := c.store.columns[c.ref]
	i := slices.IndexFunc(cols, func(col types.ExtraColumn) bool { return col.ID == id })
	if i < 0 {
		return fmt.Errorf("column %s: %w", id, types.ErrNotFound)
	}
	key := cols[i].Key()
	c.store.columns[c.ref] = slices.Delete(slices.Clone(cols), i, i+1)
	for _, row := range c.store.rows[c.ref] {
		delete(row, key)
	}
	return nil
}

type entryRepo struct {
	store   *Store
	project string
}

var _ types.SingleEntryRepository = (*entryRepo)(nil)

func (e *entryRepo) Get(ctx context.Context, field string) (types.SingleEntryValue, error) {
	e.store.mu.RLock()
	defer e.store.mu.RUnlock()
	return e.store.entries[entryRef{e.project, field}], nil
}

func (e *entryRepo) Put(ctx context.Context, field string, value types.SingleEntryValue) error {
	e.store.mu.Lock()
	defer e.store.mu.Unlock()
	e.store.entries[entryRef{e.project, field}] = value
	return nil
}
