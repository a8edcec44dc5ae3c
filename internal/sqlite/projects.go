package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/planbook/pkg/types"
)

// CreateProject stores a new project.
func (b *Backend) CreateProject(ctx context.Context, name, description, createdBy string) (types.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return types.Project{}, fmt.Errorf("%w: project name is required", types.ErrInvalidData)
	}
	id, err := generateUUID()
	if err != nil {
		return types.Project{}, err
	}
	p := types.Project{
		ID:          id,
		Name:        name,
		Description: description,
		CreatedBy:   createdBy,
		CreatedAt:   b.now(),
	}
	err = b.withDB(func(db *sql.DB) error {
		_, err := db.ExecContext(ctx,
			"INSERT INTO projects (project_id, name, description, created_by, created_at) VALUES (?, ?, ?, ?, ?)",
			p.ID, p.Name, p.Description, p.CreatedBy, formatTime(p.CreatedAt))
		if err != nil {
			return fmt.Errorf("inserting project: %w", err)
		}
		return nil
	})
	if err != nil {
		return types.Project{}, err
	}
	return p, nil
}

// ListProjects returns every project, oldest first.
func (b *Backend) ListProjects(ctx context.Context) ([]types.Project, error) {
	projects := []types.Project{}
	err := b.withDB(func(db *sql.DB) error {
		rows, err := db.QueryContext(ctx,
			"SELECT project_id, name, description, created_by, created_at FROM projects ORDER BY created_at, project_id")
		if err != nil {
			return fmt.Errorf("querying projects: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			p, err := scanProject(rows)
			if err != nil {
				return err
			}
			projects = append(projects, p)
		}
		return rows.Err()
	})
	return projects, err
}

// GetProject returns one project.
func (b *Backend) GetProject(ctx context.Context, id string) (types.Project, error) {
	if id == "" {
		return types.Project{}, types.ErrInvalidID
	}
	var p types.Project
	err := b.withDB(func(db *sql.DB) error {
		row := db.QueryRowContext(ctx,
			"SELECT project_id, name, description, created_by, created_at FROM projects WHERE project_id = ?", id)
		var err error
		p, err = scanProject(row)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("project %s: %w", id, types.ErrNotFound)
		}
		return err
	})
	return p, err
}

// DeleteProject removes a project together with its rows, extra columns
// and single entries.
func (b *Backend) DeleteProject(ctx context.Context, id string) error {
	if id == "" {
		return types.ErrInvalidID
	}
	return b.withDB(func(db *sql.DB) error {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("beginning transaction: %w", err)
		}
		defer tx.Rollback()

		res, err := tx.ExecContext(ctx, "DELETE FROM projects WHERE project_id = ?", id)
		if err != nil {
			return fmt.Errorf("deleting project: %w", err)
		}
		if err := requireAffected(res, "project "+id); err != nil {
			return err
		}
		for _, stmt := range []string{
			"DELETE FROM section_rows WHERE project_id = ?",
			"DELETE FROM extra_columns WHERE project_id = ?",
			"DELETE FROM single_entries WHERE project_id = ?",
		} {
			if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
				return fmt.Errorf("purging project children: %w", err)
			}
		}
		return tx.Commit()
	})
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProject(s scanner) (types.Project, error) {
	var p types.Project
	var created string
	if err := s.Scan(&p.ID, &p.Name, &p.Description, &p.CreatedBy, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return p, err
		}
		return p, fmt.Errorf("scanning project: %w", err)
	}
	p.CreatedAt = parseTime(created)
	return p, nil
}
