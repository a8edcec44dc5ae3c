// Package session holds the authenticated session of a planbook client
// and the guard that ends it on idle timeout, token expiry or a 401 from
// the server.
package session

import (
	"sync"
	"time"

	"github.com/mesh-intelligence/planbook/pkg/types"
)

// State is the persisted form of a session.
type State struct {
	Token     string     `json:"token"`
	User      types.User `json:"user"`
	ExpiresAt time.Time  `json:"expires_at"`
}

// Context is the session shared by the client, the guard and the views.
// It is created empty, filled by Init after login and emptied by Teardown.
// Context is safe for concurrent use.
type Context struct {
	mu    sync.RWMutex
	state State
}

// NewContext returns a Context holding s. Use the zero State for a
// logged-out context.
func NewContext(s State) *Context {
	return &Context{state: s}
}

// Init stores a freshly issued session.
func (c *Context) Init(s State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = s
}

// Teardown forgets the session.
func (c *Context) Teardown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = State{}
}

// State returns a copy of the session.
func (c *Context) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Token returns the bearer token, or "" when logged out.
func (c *Context) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.Token
}

// User returns the signed-in user.
func (c *Context) User() types.User {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.User
}

// Authenticated reports whether a token is held.
func (c *Context) Authenticated() bool {
	return c.Token() != ""
}

// Expired reports whether the token has an expiry at or before now.
func (c *Context) Expired(now time.Time) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.Token != "" && !c.state.ExpiresAt.IsZero() && !now.Before(c.state.ExpiresAt)
}
