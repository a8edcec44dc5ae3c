package types

import (
	"context"
	"errors"
	"fmt"
)

// TableRepository provides CRUD access to the rows of one section table of
// one project. The backing store is the source of truth; callers re-list
// after every successful mutation.
type TableRepository interface {
	// List returns every row in backend order.
	List(ctx context.Context) ([]Row, error)

	// Create stores a new row and returns it with its identity populated.
	Create(ctx context.Context, row Row) (Row, error)

	// Update replaces the column values of the row with the given ID.
	// Returns ErrNotFound if no such row exists.
	Update(ctx context.Context, id string, row Row) (Row, error)

	// Delete removes the row with the given ID.
	// Returns ErrNotFound if no such row exists.
	Delete(ctx context.Context, id string) error
}

// SingleEntryRepository reads and writes the narrative fields of one project.
type SingleEntryRepository interface {
	// Get returns the stored value of field. A field that was never saved
	// yields the zero SingleEntryValue and no error.
	Get(ctx context.Context, field string) (SingleEntryValue, error)

	// Put upserts the value of field.
	Put(ctx context.Context, field string, value SingleEntryValue) error
}

// ColumnRepository manages the extra columns of one table of one project.
type ColumnRepository interface {
	// List returns the columns in creation order.
	List(ctx context.Context) ([]ExtraColumn, error)

	// Create appends a column with the given label. Returns ErrColumnExists
	// when the table already has a column with that label.
	Create(ctx context.Context, label string) (ExtraColumn, error)

	// Delete removes the column and its value from every row.
	// Returns ErrNotFound if no such column exists.
	Delete(ctx context.Context, id string) error
}

// Repository errors.
var (
	ErrNotFound     = errors.New("entity not found")
	ErrInvalidID    = errors.New("invalid entity ID")
	ErrInvalidData  = errors.New("invalid entity data")
	ErrUnauthorized = errors.New("not authenticated")
	ErrForbidden    = errors.New("insufficient role")
)

// Extra column errors.
var (
	ErrColumnExists   = fmt.Errorf("%w: column already exists", ErrInvalidData)
	ErrNoExtraColumns = fmt.Errorf("%w: table does not accept extra columns", ErrInvalidData)
)

// ErrEmailTaken is returned when creating a user with a registered email.
var ErrEmailTaken = fmt.Errorf("%w: email already registered", ErrInvalidData)

// Backend lifecycle errors.
var (
	ErrAlreadyAttached = errors.New("backend already attached")
	ErrDetached        = errors.New("backend is detached")
)

// Schema errors.
var (
	ErrSchemaInvalid  = errors.New("invalid section schema")
	ErrUnknownSection = errors.New("unknown section")
	ErrUnknownTable   = errors.New("unknown table")
	ErrUnknownField   = errors.New("unknown single-entry field")
)

// Engine errors.
var (
	ErrDuplicateKey   = errors.New("duplicate unique key")
	ErrDuplicateRow   = errors.New("duplicate row")
	ErrEditInProgress = errors.New("another row has unsaved edits")
	ErrNotEditing     = errors.New("no row is being edited")
	ErrImageTooLarge  = errors.New("image exceeds the size limit")
	ErrImageType      = errors.New("unsupported image type")
)
