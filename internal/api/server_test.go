package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/planbook/internal/schema"
	"github.com/mesh-intelligence/planbook/internal/sqlite"
	"github.com/mesh-intelligence/planbook/pkg/types"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

type testEnv struct {
	t       *testing.T
	server  *httptest.Server
	backend *sqlite.Backend
}

func newTestEnv(t *testing.T, opts ...Option) *testEnv {
	t.Helper()
	reg, err := schema.Default()
	require.NoError(t, err)
	b := sqlite.NewBackend(reg)
	require.NoError(t, b.Attach(types.Config{
		Backend: types.BackendSQLite,
		DataDir: t.TempDir(),
		SeedUsers: []types.SeedUser{
			{Email: "admin@example.com", Username: "Admin", Role: types.RoleAdmin, Password: "admin123"},
			{Email: "editor@example.com", Username: "Editor", Role: types.RoleEditor, Password: "editor123"},
			{Email: "viewer@example.com", Username: "Viewer", Role: types.RoleViewer, Password: "viewer123"},
		},
	}))
	srv := httptest.NewServer(NewServer(b, reg, opts...).Handler())
	t.Cleanup(func() {
		srv.Close()
		b.Detach()
	})
	return &testEnv{t: t, server: srv, backend: b}
}

// do sends a JSON request and returns the status and raw body.
func (e *testEnv) do(method, path, token string, body any) (int, []byte) {
	e.t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(e.t, err)
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, e.server.URL+path, r)
	require.NoError(e.t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(e.t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(e.t, err)
	return resp.StatusCode, data
}

func (e *testEnv) login(email, password string) types.TokenResponse {
	e.t.Helper()
	status, body := e.do(http.MethodPost, "/api/auth/login", "", types.LoginRequest{Email: email, Password: password})
	require.Equal(e.t, http.StatusOK, status, string(body))
	var tok types.TokenResponse
	require.NoError(e.t, json.Unmarshal(body, &tok))
	return tok
}

func detail(t *testing.T, body []byte) string {
	t.Helper()
	var e types.ErrorBody
	require.NoError(t, json.Unmarshal(body, &e))
	return e.Detail
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)

	tok := env.login("admin@example.com", "admin123")
	assert.NotEmpty(t, tok.AccessToken)
	assert.Equal(t, "bearer", tok.TokenType)
	assert.Equal(t, types.RoleAdmin, tok.User.Role)

	status, body := env.do(http.MethodPost, "/api/auth/login", "", types.LoginRequest{Email: "admin@example.com", Password: "nope"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Incorrect email or password", detail(t, body))

	status, _ = env.do(http.MethodPost, "/api/auth/login", "", "not an object")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestAuthRequired(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name  string
		token string
	}{
		{"missing token", ""},
		{"unknown token", "bogus"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, _ := env.do(http.MethodGet, "/api/projects", tt.token, nil)
			assert.Equal(t, http.StatusUnauthorized, status)
		})
	}
}

func TestMeAndLogout(t *testing.T) {
	env := newTestEnv(t)
	tok := env.login("viewer@example.com", "viewer123")

	status, body := env.do(http.MethodGet, "/api/auth/me", tok.AccessToken, nil)
	require.Equal(t, http.StatusOK, status)
	var me types.User
	require.NoError(t, json.Unmarshal(body, &me))
	assert.Equal(t, "viewer@example.com", me.Email)

	status, _ = env.do(http.MethodPost, "/api/auth/logout", tok.AccessToken, nil)
	require.Equal(t, http.StatusOK, status)

	status, _ = env.do(http.MethodGet, "/api/auth/me", tok.AccessToken, nil)
	assert.Equal(t, http.StatusUnauthorized, status, "revoked token")
}

func TestRoleGating(t *testing.T) {
	env := newTestEnv(t)
	viewer := env.login("viewer@example.com", "viewer123").AccessToken
	editor := env.login("editor@example.com", "editor123").AccessToken

	status, body := env.do(http.MethodPost, "/api/projects", viewer, types.ProjectCreate{Name: "X"})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "Editor access required", detail(t, body))

	status, body = env.do(http.MethodGet, "/api/users", editor, nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "Admin access required", detail(t, body))

	status, _ = env.do(http.MethodPost, "/api/projects", editor, types.ProjectCreate{Name: "X"})
	assert.Equal(t, http.StatusOK, status)
}

func TestUserAdministration(t *testing.T) {
	env := newTestEnv(t)
	admin := env.login("admin@example.com", "admin123")

	status, body := env.do(http.MethodPost, "/api/users", admin.AccessToken,
		types.UserCreate{Email: "new@example.com", Username: "New", Password: "pw"})
	require.Equal(t, http.StatusOK, status, string(body))
	var created types.User
	require.NoError(t, json.Unmarshal(body, &created))
	assert.Equal(t, types.RoleViewer, created.Role)

	status, body = env.do(http.MethodPost, "/api/users", admin.AccessToken,
		types.UserCreate{Email: "new@example.com", Password: "pw"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Email already registered", detail(t, body))

	status, body = env.do(http.MethodPatch, "/api/users/"+created.ID+"/role", admin.AccessToken, types.RoleUpdate{Role: types.RoleEditor})
	require.Equal(t, http.StatusOK, status)
	var updated types.User
	require.NoError(t, json.Unmarshal(body, &updated))
	assert.Equal(t, types.RoleEditor, updated.Role)

	status, _ = env.do(http.MethodPatch, "/api/users/"+created.ID+"/role", admin.AccessToken, types.RoleUpdate{Role: "owner"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = env.do(http.MethodDelete, "/api/users/"+admin.User.ID, admin.AccessToken, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Cannot delete your own account", detail(t, body))

	status, _ = env.do(http.MethodDelete, "/api/users/"+created.ID, admin.AccessToken, nil)
	assert.Equal(t, http.StatusOK, status)
	status, body = env.do(http.MethodDelete, "/api/users/"+created.ID, admin.AccessToken, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "User not found", detail(t, body))

	status, body = env.do(http.MethodGet, "/api/users", admin.AccessToken, nil)
	require.Equal(t, http.StatusOK, status)
	var users []types.User
	require.NoError(t, json.Unmarshal(body, &users))
	assert.Len(t, users, 3)
}

func TestProjects(t *testing.T) {
	env := newTestEnv(t)
	editor := env.login("editor@example.com", "editor123")

	status, body := env.do(http.MethodPost, "/api/projects", editor.AccessToken, types.ProjectCreate{Name: "Alpha", Description: "d"})
	require.Equal(t, http.StatusOK, status)
	var p types.Project
	require.NoError(t, json.Unmarshal(body, &p))
	assert.Equal(t, editor.User.ID, p.CreatedBy)

	status, body = env.do(http.MethodGet, "/api/projects/"+p.ID, editor.AccessToken, nil)
	require.Equal(t, http.StatusOK, status)

	status, _ = env.do(http.MethodPost, "/api/projects", editor.AccessToken, types.ProjectCreate{Name: ""})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = env.do(http.MethodDelete, "/api/projects/"+p.ID, editor.AccessToken, nil)
	assert.Equal(t, http.StatusOK, status)
	status, body = env.do(http.MethodGet, "/api/projects/"+p.ID, editor.AccessToken, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Project not found", detail(t, body))
}

func TestTableRows(t *testing.T) {
	env := newTestEnv(t)
	editor := env.login("editor@example.com", "editor123").AccessToken
	viewer := env.login("viewer@example.com", "viewer123").AccessToken
	p, err := env.backend.CreateProject(context.Background(), "Alpha", "", "")
	require.NoError(t, err)
	base := "/api/projects/" + p.ID + "/sections/M4/tables/assumptions"

	status, body := env.do(http.MethodGet, base, viewer, nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, "[]", string(body))

	status, body = env.do(http.MethodPost, base, editor, types.RowPayload{Data: map[string]any{"sl_no": "1", "brief_description": "Alpha"}})
	require.Equal(t, http.StatusOK, status, string(body))
	var created types.GenericRow
	require.NoError(t, json.Unmarshal(body, &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "M4", created.Section)
	assert.Equal(t, "assumptions", created.TableName)
	assert.Equal(t, "Alpha", created.Data["brief_description"])
	assert.NotContains(t, created.Data, "id")

	status, _ = env.do(http.MethodPost, base, viewer, types.RowPayload{Data: map[string]any{"sl_no": "2"}})
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = env.do(http.MethodPut, base+"/"+created.ID, editor, types.RowPayload{Data: map[string]any{"sl_no": "1", "brief_description": "Beta"}})
	require.Equal(t, http.StatusOK, status)

	status, body = env.do(http.MethodGet, base, viewer, nil)
	require.Equal(t, http.StatusOK, status)
	var rows []types.GenericRow
	require.NoError(t, json.Unmarshal(body, &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "Beta", rows[0].Data["brief_description"])

	status, _ = env.do(http.MethodDelete, base+"/"+created.ID, editor, nil)
	assert.Equal(t, http.StatusOK, status)
	status, body = env.do(http.MethodDelete, base+"/"+created.ID, editor, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Item not found", detail(t, body))

	status, body = env.do(http.MethodGet, "/api/projects/"+p.ID+"/sections/M4/tables/nope", viewer, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Table not found", detail(t, body))
}

func TestExtraColumns(t *testing.T) {
	env := newTestEnv(t)
	editor := env.login("editor@example.com", "editor123").AccessToken
	viewer := env.login("viewer@example.com", "viewer123").AccessToken
	p, err := env.backend.CreateProject(context.Background(), "Alpha", "", "")
	require.NoError(t, err)
	base := "/api/projects/" + p.ID + "/sections/M12/columns/deliverables"

	status, body := env.do(http.MethodGet, base, viewer, nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, "[]", string(body))

	status, _ = env.do(http.MethodPost, base, viewer, types.ColumnCreate{ColumnName: "Milestone A"})
	assert.Equal(t, http.StatusForbidden, status)

	status, body = env.do(http.MethodPost, base, editor, types.ColumnCreate{ColumnName: "Milestone A"})
	require.Equal(t, http.StatusOK, status, string(body))
	var col types.ExtraColumn
	require.NoError(t, json.Unmarshal(body, &col))
	assert.Equal(t, "Milestone A", col.Label)
	assert.Equal(t, 1, col.Order)
	assert.Contains(t, string(body), `"column_name":"Milestone A"`)

	status, body = env.do(http.MethodPost, base, editor, types.ColumnCreate{ColumnName: "milestone a"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, detail(t, body), "column already exists")

	rows := "/api/projects/" + p.ID + "/sections/M12/tables/deliverables"
	status, body = env.do(http.MethodPost, rows, editor, types.RowPayload{Data: map[string]any{"sl_no": "1", col.Key(): "Q1"}})
	require.Equal(t, http.StatusOK, status, string(body))
	var created types.GenericRow
	require.NoError(t, json.Unmarshal(body, &created))
	assert.Equal(t, "Q1", created.Data[col.Key()])

	status, body = env.do(http.MethodGet, "/api/projects/"+p.ID+"/milestone-columns", viewer, nil)
	require.Equal(t, http.StatusOK, status)
	var cols []types.ExtraColumn
	require.NoError(t, json.Unmarshal(body, &cols))
	require.Len(t, cols, 1)
	assert.Equal(t, col.ID, cols[0].ID)

	status, _ = env.do(http.MethodDelete, "/api/projects/"+p.ID+"/milestone-columns/"+col.ID, editor, nil)
	assert.Equal(t, http.StatusOK, status)
	status, body = env.do(http.MethodDelete, base+"/"+col.ID, editor, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Column not found", detail(t, body))

	status, body = env.do(http.MethodGet, rows, viewer, nil)
	require.Equal(t, http.StatusOK, status)
	var listed []types.GenericRow
	require.NoError(t, json.Unmarshal(body, &listed))
	require.Len(t, listed, 1)
	assert.NotContains(t, listed[0].Data, col.Key())

	status, body = env.do(http.MethodPost, "/api/projects/"+p.ID+"/sam-milestone-columns", editor, types.ColumnCreate{ColumnName: "Milestone A"})
	require.Equal(t, http.StatusOK, status, string(body))
	require.NoError(t, json.Unmarshal(body, &col))
	assert.Equal(t, "sam_deliverables", col.TableName)

	status, body = env.do(http.MethodGet, "/api/projects/"+p.ID+"/sections/M4/columns/assumptions", viewer, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, detail(t, body), "does not accept extra columns")
}

func TestSingleEntries(t *testing.T) {
	env := newTestEnv(t, WithImageLimit(64))
	editor := env.login("editor@example.com", "editor123").AccessToken
	p, err := env.backend.CreateProject(context.Background(), "Alpha", "", "")
	require.NoError(t, err)
	get := "/api/projects/" + p.ID + "/single-entry/life_cycle_model"
	put := "/api/projects/" + p.ID + "/single-entry"

	status, body := env.do(http.MethodGet, get, editor, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "null", strings.TrimSpace(string(body)))

	img := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngHeader)
	status, body = env.do(http.MethodPost, put, editor, types.SingleEntryPayload{FieldName: "life_cycle_model", Content: "V-model", ImageData: &img})
	require.Equal(t, http.StatusOK, status, string(body))

	status, body = env.do(http.MethodGet, get, editor, nil)
	require.Equal(t, http.StatusOK, status)
	var field types.SingleEntryField
	require.NoError(t, json.Unmarshal(body, &field))
	assert.Equal(t, "V-model", field.Content)
	require.NotNil(t, field.ImageData)
	assert.Equal(t, img, *field.ImageData)

	big := "data:image/png;base64," + base64.StdEncoding.EncodeToString(append(pngHeader, make([]byte, 128)...))
	status, _ = env.do(http.MethodPost, put, editor, types.SingleEntryPayload{FieldName: "life_cycle_model", ImageData: &big})
	assert.Equal(t, http.StatusRequestEntityTooLarge, status)

	text := "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("plain text"))
	status, _ = env.do(http.MethodPost, put, editor, types.SingleEntryPayload{FieldName: "life_cycle_model", ImageData: &text})
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = env.do(http.MethodGet, "/api/projects/"+p.ID+"/single-entry/nope", editor, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Field not found", detail(t, body))
}

func TestSections(t *testing.T) {
	env := newTestEnv(t)
	viewer := env.login("viewer@example.com", "viewer123").AccessToken

	status, body := env.do(http.MethodGet, "/api/sections", viewer, nil)
	require.Equal(t, http.StatusOK, status)
	var sections []types.SectionSchema
	require.NoError(t, json.Unmarshal(body, &sections))
	assert.Len(t, sections, 13)
	assert.Equal(t, "M1", sections[0].ID)
}
