package api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mesh-intelligence/planbook/pkg/types"
)

type contextKey int

const (
	userKey contextKey = iota
	tokenKey
)

// access is the minimum role a route requires.
type access int

const (
	anyRole access = iota
	editorRole
	adminRole
)

func (a access) allows(r types.Role) bool {
	switch a {
	case editorRole:
		return r.CanEdit()
	case adminRole:
		return r.IsAdmin()
	default:
		return true
	}
}

func (a access) denial() string {
	if a == adminRole {
		return "Admin access required"
	}
	return "Editor access required"
}

// authed resolves the bearer token and enforces the route's role before
// calling next.
func (s *Server) authed(need access, next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeDetail(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		user, _, err := s.store.ResolveSession(r.Context(), token)
		if err != nil {
			s.fail(w, r, err, "")
			return
		}
		if !need.allows(user.Role) {
			writeDetail(w, http.StatusForbidden, need.denial())
			return
		}
		ctx := context.WithValue(r.Context(), userKey, user)
		ctx = context.WithValue(ctx, tokenKey, token)
		next(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func currentUser(r *http.Request) types.User {
	u, _ := r.Context().Value(userKey).(types.User)
	return u
}

func currentToken(r *http.Request) string {
	t, _ := r.Context().Value(tokenKey).(string)
	return t
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		level := slog.LevelInfo
		if rec.status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		s.logger.Log(r.Context(), level, "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start))
	})
}
