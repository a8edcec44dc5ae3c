package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mesh-intelligence/planbook/pkg/types"
)

// columnsTable is the extra column repository of one section table of one
// project.
type columnsTable struct {
	backend   *Backend
	projectID string
	section   string
	table     string
}

var _ types.ColumnRepository = (*columnsTable)(nil)

// Columns returns the extra column repository of one section table. Tables
// that do not declare extra columns fail with ErrNoExtraColumns.
func (b *Backend) Columns(projectID, sectionID, tableKey string) types.ColumnRepository {
	return &columnsTable{backend: b, projectID: projectID, section: sectionID, table: tableKey}
}

func (c *columnsTable) schema() (types.TableSchema, error) {
	ts, err := c.backend.registry.Table(c.section, c.table)
	if err != nil {
		return ts, err
	}
	if ts.ExtraColumns == nil {
		return ts, fmt.Errorf("%w: %s/%s", types.ErrNoExtraColumns, c.section, c.table)
	}
	return ts, nil
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (c *columnsTable) list(ctx context.Context, q querier) ([]types.ExtraColumn, error) {
	res, err := q.QueryContext(ctx,
		`SELECT column_id, label, ordinal FROM extra_columns
		 WHERE project_id = ? AND section = ? AND table_name = ?
		 ORDER BY ordinal`,
		c.projectID, c.section, c.table)
	if err != nil {
		return nil, fmt.Errorf("querying columns: %w", err)
	}
	defer res.Close()
	cols := []types.ExtraColumn{}
	for res.Next() {
		col := types.ExtraColumn{ProjectID: c.projectID, Section: c.section, TableName: c.table}
		if err := res.Scan(&col.ID, &col.Label, &col.Order); err != nil {
			return nil, fmt.Errorf("scanning column: %w", err)
		}
		cols = append(cols, col)
	}
	return cols, res.Err()
}

// List returns the columns in creation order.
func (c *columnsTable) List(ctx context.Context) ([]types.ExtraColumn, error) {
	if _, err := c.schema(); err != nil {
		return nil, err
	}
	var cols []types.ExtraColumn
	err := c.backend.withDB(func(db *sql.DB) error {
		var err error
		cols, err = c.list(ctx, db)
		return err
	})
	return cols, err
}

// Create appends a column after the last one.
func (c *columnsTable) Create(ctx context.Context, label string) (types.ExtraColumn, error) {
	ts, err := c.schema()
	if err != nil {
		return types.ExtraColumn{}, err
	}
	id, err := generateUUID()
	if err != nil {
		return types.ExtraColumn{}, err
	}
	col := types.ExtraColumn{ID: id, ProjectID: c.projectID, Section: c.section, TableName: c.table}

	err = c.backend.withDB(func(db *sql.DB) error {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("beginning transaction: %w", err)
		}
		defer tx.Rollback()

		if err := projectExists(ctx, tx, c.projectID); err != nil {
			return err
		}
		existing, err := c.list(ctx, tx)
		if err != nil {
			return err
		}
		if col.Label, err = types.CheckColumnLabel(label, ts.Columns, existing); err != nil {
			return err
		}
		col.Order = 1
		if n := len(existing); n > 0 {
			col.Order = existing[n-1].Order + 1
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO extra_columns (column_id, project_id, section, table_name, label, ordinal, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			col.ID, c.projectID, c.section, c.table, col.Label, col.Order, formatTime(c.backend.now()))
		if err != nil {
			return fmt.Errorf("inserting column: %w", err)
		}
		return tx.Commit()
	})
	if err != nil {
		return types.ExtraColumn{}, err
	}
	return col, nil
}

// Delete removes the column and strips its key from every row of the
// table.
func (c *columnsTable) Delete(ctx context.Context, id string) error {
	if id == "" {
		return types.ErrInvalidID
	}
	if _, err := c.schema(); err != nil {
		return err
	}
	key := types.ExtraColumn{ID: id}.Key()
	return c.backend.withDB(func(db *sql.DB) error {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("beginning transaction: %w", err)
		}
		defer tx.Rollback()

		res, err := tx.ExecContext(ctx,
			`DELETE FROM extra_columns
			 WHERE column_id = ? AND project_id = ? AND section = ? AND table_name = ?`,
			id, c.projectID, c.section, c.table)
		if err != nil {
			return fmt.Errorf("deleting column: %w", err)
		}
		if err := requireAffected(res, "column "+id); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE section_rows SET data = json_remove(data, ?)
			 WHERE project_id = ? AND section = ? AND table_name = ?`,
			`$."`+key+`"`, c.projectID, c.section, c.table)
		if err != nil {
			return fmt.Errorf("clearing column values: %w", err)
		}
		return tx.Commit()
	})
}
