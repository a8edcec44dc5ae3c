package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/mesh-intelligence/planbook/pkg/types"
)

type rowsRepo struct {
	c    *Client
	path string
}

var _ types.TableRepository = (*rowsRepo)(nil)

// Rows returns the remote repository of one section table.
func (c *Client) Rows(projectID, sectionID, tableKey string) types.TableRepository {
	return &rowsRepo{
		c: c,
		path: "/projects/" + url.PathEscape(projectID) +
			"/sections/" + url.PathEscape(sectionID) +
			"/tables/" + url.PathEscape(tableKey),
	}
}

func (r *rowsRepo) List(ctx context.Context) ([]types.Row, error) {
	var wire []types.GenericRow
	if err := r.c.do(ctx, http.MethodGet, r.path, nil, &wire); err != nil {
		return nil, err
	}
	rows := make([]types.Row, 0, len(wire))
	for _, g := range wire {
		rows = append(rows, types.RowFromWire(g))
	}
	return rows, nil
}

func (r *rowsRepo) Create(ctx context.Context, row types.Row) (types.Row, error) {
	var g types.GenericRow
	if err := r.c.do(ctx, http.MethodPost, r.path, types.RowPayload{Data: row.StripIdentity()}, &g); err != nil {
		return nil, err
	}
	return types.RowFromWire(g), nil
}

func (r *rowsRepo) Update(ctx context.Context, id string, row types.Row) (types.Row, error) {
	if id == "" {
		return nil, types.ErrInvalidID
	}
	var g types.GenericRow
	if err := r.c.do(ctx, http.MethodPut, r.path+"/"+url.PathEscape(id), types.RowPayload{Data: row.StripIdentity()}, &g); err != nil {
		return nil, err
	}
	return types.RowFromWire(g), nil
}

func (r *rowsRepo) Delete(ctx context.Context, id string) error {
	if id == "" {
		return types.ErrInvalidID
	}
	return r.c.do(ctx, http.MethodDelete, r.path+"/"+url.PathEscape(id), nil, nil)
}

type columnsRepo struct {
	c    *Client
	path string
}

var _ types.ColumnRepository = (*columnsRepo)(nil)

// Columns returns the remote extra column repository of one section table.
func (c *Client) Columns(projectID, sectionID, tableKey string) types.ColumnRepository {
	return &columnsRepo{
		c: c,
		path: "/projects/" + url.PathEscape(projectID) +
			"/sections/" + url.PathEscape(sectionID) +
			"/columns/" + url.PathEscape(tableKey),
	}
}

func (r *columnsRepo) List(ctx context.Context) ([]types.ExtraColumn, error) {
	var cols []types.ExtraColumn
	if err := r.c.do(ctx, http.MethodGet, r.path, nil, &cols); err != nil {
		return nil, err
	}
	return cols, nil
}

func (r *columnsRepo) Create(ctx context.Context, label string) (types.ExtraColumn, error) {
	var col types.ExtraColumn
	err := r.c.do(ctx, http.MethodPost, r.path, types.ColumnCreate{ColumnName: label}, &col)
	return col, err
}

func (r *columnsRepo) Delete(ctx context.Context, id string) error {
	if id == "" {
		return types.ErrInvalidID
	}
	return r.c.do(ctx, http.MethodDelete, r.path+"/"+url.PathEscape(id), nil, nil)
}

type entriesRepo struct {
	c       *Client
	project string
}

var _ types.SingleEntryRepository = (*entriesRepo)(nil)

// Entries returns the remote single-entry repository of one project.
func (c *Client) Entries(projectID string) types.SingleEntryRepository {
	return &entriesRepo{c: c, project: projectID}
}

// Get returns the zero value when the server answers null.
func (e *entriesRepo) Get(ctx context.Context, field string) (types.SingleEntryValue, error) {
	var f *types.SingleEntryField
	path := "/projects/" + url.PathEscape(e.project) + "/single-entry/" + url.PathEscape(field)
	if err := e.c.do(ctx, http.MethodGet, path, nil, &f); err != nil {
		return types.SingleEntryValue{}, err
	}
	if f == nil {
		return types.SingleEntryValue{}, nil
	}
	return types.SingleEntryValue{Content: f.Content, ImageData: f.ImageData}, nil
}

func (e *entriesRepo) Put(ctx context.Context, field string, v types.SingleEntryValue) error {
	path := "/projects/" + url.PathEscape(e.project) + "/single-entry"
	in := types.SingleEntryPayload{FieldName: field, Content: v.Content, ImageData: v.ImageData}
	return e.c.do(ctx, http.MethodPost, path, in, nil)
}
