package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mesh-intelligence/planbook/pkg/types"
)

type entriesTable struct {
	backend   *Backend
	projectID string
}

var _ types.SingleEntryRepository = (*entriesTable)(nil)

// Entries returns the single-entry repository of one project.
func (b *Backend) Entries(projectID string) types.SingleEntryRepository {
	return &entriesTable{backend: b, projectID: projectID}
}

// Get returns the stored value of field, or the zero value when the field
// was never saved.
func (e *entriesTable) Get(ctx context.Context, field string) (types.SingleEntryValue, error) {
	if _, _, err := e.backend.registry.SingleEntry(field); err != nil {
		return types.SingleEntryValue{}, err
	}
	var v types.SingleEntryValue
	err := e.backend.withDB(func(db *sql.DB) error {
		var image sql.NullString
		err := db.QueryRowContext(ctx,
			"SELECT content, image_data FROM single_entries WHERE project_id = ? AND field = ?",
			e.projectID, field).Scan(&v.Content, &image)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading %s: %w", field, err)
		}
		if image.Valid {
			v.ImageData = &image.String
		}
		return nil
	})
	return v, err
}

// Put upserts the value of field.
func (e *entriesTable) Put(ctx context.Context, field string, v types.SingleEntryValue) error {
	if _, _, err := e.backend.registry.SingleEntry(field); err != nil {
		return err
	}
	var image sql.NullString
	if v.ImageData != nil {
		image = sql.NullString{String: *v.ImageData, Valid: true}
	}
	return e.backend.withDB(func(db *sql.DB) error {
		if err := projectExists(ctx, db, e.projectID); err != nil {
			return err
		}
		_, err := db.ExecContext(ctx,
			`INSERT INTO single_entries (project_id, field, content, image_data, updated_at)
			 VALUES (?, ?, ?, ?, ?)
			 ON CONFLICT (project_id, field) DO UPDATE SET
			   content = excluded.content,
			   image_data = excluded.image_data,
			   updated_at = excluded.updated_at`,
			e.projectID, field, v.Content, image, formatTime(e.backend.now()))
		if err != nil {
			return fmt.Errorf("saving %s: %w", field, err)
		}
		return nil
	})
}
