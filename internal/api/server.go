// Package api serves the planbook REST API over a Store. All routes live
// under /api and, except login, require a bearer token issued by the
// store.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/mesh-intelligence/planbook/internal/schema"
	"github.com/mesh-intelligence/planbook/pkg/types"
)

// Store is the persistence the API serves. The sqlite backend satisfies it.
type Store interface {
	Authenticate(ctx context.Context, email, password string) (types.User, error)
	IssueSession(ctx context.Context, userID string) (string, time.Time, error)
	ResolveSession(ctx context.Context, token string) (types.User, time.Time, error)
	RevokeSession(ctx context.Context, token string) error

	CreateUser(ctx context.Context, in types.UserCreate) (types.User, error)
	ListUsers(ctx context.Context) ([]types.User, error)
	UpdateUserRole(ctx context.Context, id string, role types.Role) (types.User, error)
	DeleteUser(ctx context.Context, id string) error

	CreateProject(ctx context.Context, name, description, createdBy string) (types.Project, error)
	ListProjects(ctx context.Context) ([]types.Project, error)
	GetProject(ctx context.Context, id string) (types.Project, error)
	DeleteProject(ctx context.Context, id string) error

	Rows(projectID, sectionID, tableKey string) types.TableRepository
	Columns(projectID, sectionID, tableKey string) types.ColumnRepository
	Entries(projectID string) types.SingleEntryRepository
}

// Prefix is the path under which every route is mounted.
const Prefix = "/api"

// maxBodyBytes bounds non-image request bodies.
const maxBodyBytes = 1 << 20

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and error logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithImageLimit caps the decoded size of single-entry image payloads.
func WithImageLimit(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxImage = n
		}
	}
}

// Server routes REST requests to a Store.
type Server struct {
	store    Store
	registry *schema.Registry
	logger   *slog.Logger
	maxImage int64
}

// NewServer creates a server over store. reg is served by GET /sections.
func NewServer(store Store, reg *schema.Registry, opts ...Option) *Server {
	s := &Server{
		store:    store,
		registry: reg,
		logger:   slog.New(slog.DiscardHandler),
		maxImage: types.DefaultImageMaxBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed handler with request logging applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	mux.Handle("POST /api/auth/logout", s.authed(anyRole, s.handleLogout))
	mux.Handle("GET /api/auth/me", s.authed(anyRole, s.handleMe))

	mux.Handle("GET /api/users", s.authed(adminRole, s.handleListUsers))
	mux.Handle("POST /api/users", s.authed(adminRole, s.handleCreateUser))
	mux.Handle("PATCH /api/users/{id}/role", s.authed(adminRole, s.handleUpdateRole))
	mux.Handle("DELETE /api/users/{id}", s.authed(adminRole, s.handleDeleteUser))

	mux.Handle("GET /api/projects", s.authed(anyRole, s.handleListProjects))
	mux.Handle("POST /api/projects", s.authed(editorRole, s.handleCreateProject))
	mux.Handle("GET /api/projects/{id}", s.authed(anyRole, s.handleGetProject))
	mux.Handle("DELETE /api/projects/{id}", s.authed(editorRole, s.handleDeleteProject))

	const table = "/api/projects/{id}/sections/{section}/tables/{table}"
	mux.Handle("GET "+table, s.authed(anyRole, s.handleListRows))
	mux.Handle("POST "+table, s.authed(editorRole, s.handleCreateRow))
	mux.Handle("PUT "+table+"/{item}", s.authed(editorRole, s.handleUpdateRow))
	mux.Handle("DELETE "+table+"/{item}", s.authed(editorRole, s.handleDeleteRow))

	const columns = "/api/projects/{id}/sections/{section}/columns/{table}"
	s.handleColumns(mux, columns, routeOf)
	// Milestone routes of the deliverable tables.
	s.handleColumns(mux, "/api/projects/{id}/milestone-columns", fixedTable("M12", "deliverables"))
	s.handleColumns(mux, "/api/projects/{id}/sam-milestone-columns", fixedTable("M13", "sam_deliverables"))

	mux.Handle("GET /api/projects/{id}/single-entry/{field}", s.authed(anyRole, s.handleGetEntry))
	mux.Handle("POST /api/projects/{id}/single-entry", s.authed(editorRole, s.handlePutEntry))

	mux.Handle("GET /api/sections", s.authed(anyRole, s.handleSections))

	return s.logRequests(mux)
}
