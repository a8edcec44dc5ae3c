package grid

import (
	"context"
	"errors"
	"fmt"

	"github.com/mesh-intelligence/planbook/pkg/types"
)

var errBackend = errors.New("backend unavailable")

// fakeRepo is a slice-backed TableRepository that records calls and can
// be told to fail.
type fakeRepo struct {
	rows   []types.Row
	nextID int

	failList   bool
	failWrites bool

	lists, creates, updates, deletes int
	lastUpdate                       types.Row
}

var _ types.TableRepository = (*fakeRepo)(nil)

func newFakeRepo(rows ...types.Row) *fakeRepo {
	return &fakeRepo{rows: rows, nextID: len(rows) + 1}
}

func (f *fakeRepo) List(ctx context.Context) ([]types.Row, error) {
	f.lists++
	if f.failList {
		return nil, errBackend
	}
	out := make([]types.Row, len(f.rows))
	for i, r := range f.rows {
		out[i] = r.Clone()
	}
	return out, nil
}

func (f *fakeRepo) Create(ctx context.Context, row types.Row) (types.Row, error) {
	f.creates++
	if f.failWrites {
		return nil, errBackend
	}
	r := row.Clone()
	r["id"] = f.nextID
	f.nextID++
	f.rows = append(f.rows, r)
	return r, nil
}

func (f *fakeRepo) Update(ctx context.Context, id string, row types.Row) (types.Row, error) {
	f.updates++
	f.lastUpdate = row.Clone()
	if f.failWrites {
		return nil, errBackend
	}
	for i, r := range f.rows {
		if rid, _ := r.ID(); rid == id {
			next := row.Clone()
			next["id"] = r["id"]
			f.rows[i] = next
			return next, nil
		}
	}
	return nil, fmt.Errorf("row %s: %w", id, types.ErrNotFound)
}

func (f *fakeRepo) Delete(ctx context.Context, id string) error {
	f.deletes++
	if f.failWrites {
		return errBackend
	}
	for i, r := range f.rows {
		if rid, _ := r.ID(); rid == id {
			f.rows = append(f.rows[:i], f.rows[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("row %s: %w", id, types.ErrNotFound)
}
