package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mesh-intelligence/planbook/pkg/types"
)

// rowsTable is the repository of one section table of one project. The
// table is resolved against the registry on every call.
type rowsTable struct {
	backend   *Backend
	projectID string
	section   string
	table     string
}

var _ types.TableRepository = (*rowsTable)(nil)

// Rows returns the repository of one section table. Unknown sections and
// tables surface as errors from its methods.
func (b *Backend) Rows(projectID, sectionID, tableKey string) types.TableRepository {
	return &rowsTable{backend: b, projectID: projectID, section: sectionID, table: tableKey}
}

func (t *rowsTable) schema() (types.TableSchema, error) {
	return t.backend.registry.Table(t.section, t.table)
}

// storedSchema is the table schema widened by the project's extra columns.
func (t *rowsTable) storedSchema(ctx context.Context) (types.TableSchema, error) {
	ts, err := t.schema()
	if err != nil || ts.ExtraColumns == nil {
		return ts, err
	}
	cols, err := t.backend.Columns(t.projectID, t.section, t.table).List(ctx)
	if err != nil {
		return types.TableSchema{}, err
	}
	return ts.WithExtraColumns(cols), nil
}

// columnData keeps exactly the columns of ts. Missing columns are
// stored as null.
func columnData(ts types.TableSchema, row types.Row) map[string]any {
	data := make(map[string]any, len(ts.Columns))
	for _, c := range ts.Columns {
		data[c.Key] = row[c.Key]
	}
	return data
}

func decodeRow(id, raw string) (types.Row, error) {
	row := types.Row{}
	if err := json.Unmarshal([]byte(raw), &row); err != nil {
		return nil, fmt.Errorf("decoding row %s: %w", id, err)
	}
	row[types.FieldID] = id
	return row, nil
}

// List returns the rows in insertion order.
func (t *rowsTable) List(ctx context.Context) ([]types.Row, error) {
	if _, err := t.schema(); err != nil {
		return nil, err
	}
	var rows []types.Row
	err := t.backend.withDB(func(db *sql.DB) error {
		res, err := db.QueryContext(ctx,
			`SELECT row_id, data FROM section_rows
			 WHERE project_id = ? AND section = ? AND table_name = ?
			 ORDER BY ordinal`,
			t.projectID, t.section, t.table)
		if err != nil {
			return fmt.Errorf("querying rows: %w", err)
		}
		defer res.Close()
		for res.Next() {
			var id, raw string
			if err := res.Scan(&id, &raw); err != nil {
				return fmt.Errorf("scanning row: %w", err)
			}
			row, err := decodeRow(id, raw)
			if err != nil {
				return err
			}
			rows = append(rows, row)
		}
		return res.Err()
	})
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []types.Row{}
	}
	return rows, nil
}

// Create stores row and returns it with its id.
func (t *rowsTable) Create(ctx context.Context, row types.Row) (types.Row, error) {
	ts, err := t.storedSchema(ctx)
	if err != nil {
		return nil, err
	}
	data := columnData(ts, row)
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: encoding row: %v", types.ErrInvalidData, err)
	}
	id, err := generateUUID()
	if err != nil {
		return nil, err
	}

	err = t.backend.withDB(func(db *sql.DB) error {
		if err := projectExists(ctx, db, t.projectID); err != nil {
			return err
		}
		_, err := db.ExecContext(ctx,
			`INSERT INTO section_rows (row_id, project_id, section, table_name, data, ordinal, created_at)
			 VALUES (?, ?, ?, ?, ?,
			   (SELECT COALESCE(MAX(ordinal), 0) + 1 FROM section_rows
			    WHERE project_id = ? AND section = ? AND table_name = ?), ?)`,
			id, t.projectID, t.section, t.table, string(raw),
			t.projectID, t.section, t.table, formatTime(t.backend.now()))
		if err != nil {
			return fmt.Errorf("inserting row: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	out := types.Row(data)
	out[types.FieldID] = id
	return out, nil
}

// Update replaces the column values of the row with the given id.
func (t *rowsTable) Update(ctx context.Context, id string, row types.Row) (types.Row, error) {
	if id == "" {
		return nil, types.ErrInvalidID
	}
	ts, err := t.storedSchema(ctx)
	if err != nil {
		return nil, err
	}
	data := columnData(ts, row)
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: encoding row: %v", types.ErrInvalidData, err)
	}

	err = t.backend.withDB(func(db *sql.DB) error {
		res, err := db.ExecContext(ctx,
			`UPDATE section_rows SET data = ?
			 WHERE row_id = ? AND project_id = ? AND section = ? AND table_name = ?`,
			string(raw), id, t.projectID, t.section, t.table)
		if err != nil {
			return fmt.Errorf("updating row: %w", err)
		}
		return requireAffected(res, "row "+id)
	})
	if err != nil {
		return nil, err
	}
	out := types.Row(data)
	out[types.FieldID] = id
	return out, nil
}

// Delete removes the row with the given id.
func (t *rowsTable) Delete(ctx context.Context, id string) error {
	if id == "" {
		return types.ErrInvalidID
	}
	if _, err := t.schema(); err != nil {
		return err
	}
	return t.backend.withDB(func(db *sql.DB) error {
		res, err := db.ExecContext(ctx,
			`DELETE FROM section_rows
			 WHERE row_id = ? AND project_id = ? AND section = ? AND table_name = ?`,
			id, t.projectID, t.section, t.table)
		if err != nil {
			return fmt.Errorf("deleting row: %w", err)
		}
		return requireAffected(res, "row "+id)
	})
}

// requireAffected maps a zero-row result to ErrNotFound.
func requireAffected(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("counting affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, types.ErrNotFound)
	}
	return nil
}

type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func projectExists(ctx context.Context, db rowQuerier, projectID string) error {
	var one int
	err := db.QueryRowContext(ctx, "SELECT 1 FROM projects WHERE project_id = ?", projectID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("project %s: %w", projectID, types.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("looking up project: %w", err)
	}
	return nil
}
