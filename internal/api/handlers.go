package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/mesh-intelligence/planbook/internal/narrative"
	"github.com/mesh-intelligence/planbook/pkg/types"
)

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req types.LoginRequest
	if err := decode(w, r, maxBodyBytes, &req); err != nil {
		s.fail(w, r, err, "")
		return
	}
	user, err := s.store.Authenticate(r.Context(), strings.TrimSpace(req.Email), req.Password)
	if errors.Is(err, types.ErrUnauthorized) {
		writeDetail(w, http.StatusUnauthorized, "Incorrect email or password")
		return
	}
	if err != nil {
		s.fail(w, r, err, "")
		return
	}
	token, expires, err := s.store.IssueSession(r.Context(), user.ID)
	if err != nil {
		s.fail(w, r, err, "")
		return
	}
	s.logger.Info("login", "user", user.Email, "role", user.Role)
	writeJSON(w, http.StatusOK, types.TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresAt:   expires,
		User:        user,
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.store.RevokeSession(r.Context(), currentToken(r)); err != nil {
		s.fail(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, types.Message{Message: "Logged out"})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, currentUser(r))
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.store.ListUsers(r.Context())
	if err != nil {
		s.fail(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var in types.UserCreate
	if err := decode(w, r, maxBodyBytes, &in); err != nil {
		s.fail(w, r, err, "")
		return
	}
	u, err := s.store.CreateUser(r.Context(), in)
	if err != nil {
		s.fail(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) handleUpdateRole(w http.ResponseWriter, r *http.Request) {
	var in types.RoleUpdate
	if err := decode(w, r, maxBodyBytes, &in); err != nil {
		s.fail(w, r, err, "")
		return
	}
	role, err := types.ParseRole(string(in.Role))
	if err != nil {
		s.fail(w, r, err, "")
		return
	}
	u, err := s.store.UpdateUserRole(r.Context(), r.PathValue("id"), role)
	if err != nil {
		s.fail(w, r, err, "User")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == currentUser(r).ID {
		writeDetail(w, http.StatusBadRequest, "Cannot delete your own account")
		return
	}
	if err := s.store.DeleteUser(r.Context(), id); err != nil {
		s.fail(w, r, err, "User")
		return
	}
	writeJSON(w, http.StatusOK, types.Message{Message: "User deleted successfully"})
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.store.ListProjects(r.Context())
	if err != nil {
		s.fail(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var in types.ProjectCreate
	if err := decode(w, r, maxBodyBytes, &in); err != nil {
		s.fail(w, r, err, "")
		return
	}
	p, err := s.store.CreateProject(r.Context(), in.Name, in.Description, currentUser(r).ID)
	if err != nil {
		s.fail(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	p, err := s.store.GetProject(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err, "Project")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteProject(r.Context(), r.PathValue("id")); err != nil {
		s.fail(w, r, err, "Project")
		return
	}
	writeJSON(w, http.StatusOK, types.Message{Message: "Project deleted successfully"})
}

// tableRoute is the project, section and table named by a row route.
type tableRoute struct {
	project, section, table string
}

func routeOf(r *http.Request) tableRoute {
	return tableRoute{r.PathValue("id"), r.PathValue("section"), r.PathValue("table")}
}

func (s *Server) repo(t tableRoute) types.TableRepository {
	return s.store.Rows(t.project, t.section, t.table)
}

func (t tableRoute) wire(row types.Row) types.GenericRow {
	return types.RowToWire(t.project, t.section, t.table, row)
}

func (s *Server) handleListRows(w http.ResponseWriter, r *http.Request) {
	route := routeOf(r)
	rows, err := s.repo(route).List(r.Context())
	if err != nil {
		s.fail(w, r, err, "")
		return
	}
	out := make([]types.GenericRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, route.wire(row))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateRow(w http.ResponseWriter, r *http.Request) {
	route := routeOf(r)
	var in types.RowPayload
	if err := decode(w, r, maxBodyBytes, &in); err != nil {
		s.fail(w, r, err, "")
		return
	}
	row, err := s.repo(route).Create(r.Context(), types.Row(in.Data).StripIdentity())
	if err != nil {
		s.fail(w, r, err, "Project")
		return
	}
	writeJSON(w, http.StatusOK, route.wire(row))
}

func (s *Server) handleUpdateRow(w http.ResponseWriter, r *http.Request) {
	route := routeOf(r)
	var in types.RowPayload
	if err := decode(w, r, maxBodyBytes, &in); err != nil {
		s.fail(w, r, err, "")
		return
	}
	row, err := s.repo(route).Update(r.Context(), r.PathValue("item"), types.Row(in.Data).StripIdentity())
	if err != nil {
		s.fail(w, r, err, "Item")
		return
	}
	writeJSON(w, http.StatusOK, route.wire(row))
}

func (s *Server) handleDeleteRow(w http.ResponseWriter, r *http.Request) {
	if err := s.repo(routeOf(r)).Delete(r.Context(), r.PathValue("item")); err != nil {
		s.fail(w, r, err, "Item")
		return
	}
	writeJSON(w, http.StatusOK, types.Message{Message: "Item deleted successfully"})
}

// fixedTable routes to one table of the project named in the path.
func fixedTable(section, table string) func(*http.Request) tableRoute {
	return func(r *http.Request) tableRoute {
		return tableRoute{r.PathValue("id"), section, table}
	}
}

// handleColumns registers the extra column routes of the table chosen by
// route under path.
func (s *Server) handleColumns(mux *http.ServeMux, path string, route func(*http.Request) tableRoute) {
	repo := func(r *http.Request) types.ColumnRepository {
		t := route(r)
		return s.store.Columns(t.project, t.section, t.table)
	}

	mux.Handle("GET "+path, s.authed(anyRole, func(w http.ResponseWriter, r *http.Request) {
		cols, err := repo(r).List(r.Context())
		if err != nil {
			s.fail(w, r, err, "")
			return
		}
		writeJSON(w, http.StatusOK, cols)
	}))

	mux.Handle("POST "+path, s.authed(editorRole, func(w http.ResponseWriter, r *http.Request) {
		var in types.ColumnCreate
		if err := decode(w, r, maxBodyBytes, &in); err != nil {
			s.fail(w, r, err, "")
			return
		}
		col, err := repo(r).Create(r.Context(), in.ColumnName)
		if err != nil {
			s.fail(w, r, err, "Project")
			return
		}
		writeJSON(w, http.StatusOK, col)
	}))

	mux.Handle("DELETE "+path+"/{column}", s.authed(editorRole, func(w http.ResponseWriter, r *http.Request) {
		if err := repo(r).Delete(r.Context(), r.PathValue("column")); err != nil {
			s.fail(w, r, err, "Column")
			return
		}
		writeJSON(w, http.StatusOK, types.Message{Message: "Column deleted successfully"})
	}))
}

// handleGetEntry answers null for a field that was never saved.
func (s *Server) handleGetEntry(w http.ResponseWriter, r *http.Request) {
	project, field := r.PathValue("id"), r.PathValue("field")
	v, err := s.store.Entries(project).Get(r.Context(), field)
	if err != nil {
		s.fail(w, r, err, "")
		return
	}
	if v.Content == "" && v.ImageData == nil {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	writeJSON(w, http.StatusOK, types.SingleEntryField{
		ProjectID: project,
		FieldName: field,
		Content:   v.Content,
		ImageData: v.ImageData,
	})
}

func (s *Server) handlePutEntry(w http.ResponseWriter, r *http.Request) {
	project := r.PathValue("id")
	var in types.SingleEntryPayload
	// base64 inflates by 4/3; leave room for the JSON around it.
	if err := decode(w, r, s.maxImage*4/3+maxBodyBytes, &in); err != nil {
		s.fail(w, r, err, "")
		return
	}
	if in.ImageData != nil {
		if err := narrative.CheckDataURL(*in.ImageData, s.maxImage); err != nil {
			s.fail(w, r, err, "")
			return
		}
	}
	v := types.SingleEntryValue{Content: in.Content, ImageData: in.ImageData}
	if err := s.store.Entries(project).Put(r.Context(), in.FieldName, v); err != nil {
		s.fail(w, r, err, "Project")
		return
	}
	writeJSON(w, http.StatusOK, types.SingleEntryField{
		ProjectID: project,
		FieldName: in.FieldName,
		Content:   in.Content,
		ImageData: in.ImageData,
	})
}

func (s *Server) handleSections(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.registry.Sections())
}
