package session

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/mesh-intelligence/planbook/pkg/types"
)

// ActivityWatcher receives user interaction events.
type ActivityWatcher interface {
	MarkActivity()
}

// Redirector sends the user to the login boundary.
type Redirector interface {
	// AtLogin reports whether the user is already there.
	AtLogin() bool
	RedirectToLogin()
}

// GuardOption configures a Guard.
type GuardOption func(*Guard)

// WithIdleTimeout sets how long the session may be idle.
func WithIdleTimeout(d time.Duration) GuardOption {
	return func(g *Guard) {
		if d > 0 {
			g.idleTimeout = d
		}
	}
}

// WithCheckInterval sets the period of the background check.
func WithCheckInterval(d time.Duration) GuardOption {
	return func(g *Guard) {
		if d > 0 {
			g.interval = d
		}
	}
}

// WithClock replaces the wall clock.
func WithClock(c Clock) GuardOption { return func(g *Guard) { g.clock = c } }

// WithRedirector sets the login redirect.
func WithRedirector(r Redirector) GuardOption { return func(g *Guard) { g.redirector = r } }

// WithBroadcaster sets where logout events are published.
func WithBroadcaster(b *Broadcaster) GuardOption { return func(g *Guard) { g.broadcaster = b } }

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) GuardOption {
	return func(g *Guard) {
		if l != nil {
			g.logger = l
		}
	}
}

// Guard ends a session on idle timeout, token expiry or an observed 401.
// The transition from active to logged out happens once. Guard is safe
// for concurrent use.
type Guard struct {
	sess        *Context
	clock       Clock
	idleTimeout time.Duration
	interval    time.Duration
	redirector  Redirector
	broadcaster *Broadcaster
	logger      *slog.Logger

	mu           sync.Mutex
	lastActivity time.Time
	loggedOut    bool
	reason       Reason
}

var _ ActivityWatcher = (*Guard)(nil)

// NewGuard returns an active Guard over sess.
func NewGuard(sess *Context, opts ...GuardOption) *Guard {
	g := &Guard{
		sess:        sess,
		clock:       RealClock{},
		idleTimeout: types.DefaultIdleTimeout,
		interval:    types.DefaultCheckInterval,
		broadcaster: NewBroadcaster(),
		logger:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.lastActivity = g.clock.Now()
	return g
}

// Broadcaster returns the broadcaster logout events go to.
func (g *Guard) Broadcaster() *Broadcaster { return g.broadcaster }

// Run checks the session every interval until ctx is cancelled or the
// session ends. The ticker is stopped on return.
func (g *Guard) Run(ctx context.Context) error {
	t := g.clock.NewTicker(g.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			if g.Check() {
				return nil
			}
		}
	}
}

// Check evaluates idle time and token expiry and logs out when either
// has run out. It reports whether the session is logged out.
func (g *Guard) Check() bool {
	now := g.clock.Now()

	g.mu.Lock()
	if g.loggedOut {
		g.mu.Unlock()
		return true
	}
	idle := now.Sub(g.lastActivity)
	g.mu.Unlock()

	switch {
	case g.sess.Expired(now):
		g.Logout(ReasonExpired)
	case idle >= g.idleTimeout:
		g.Logout(ReasonIdle)
	default:
		return false
	}
	return true
}

// MarkActivity resets the idle timer.
func (g *Guard) MarkActivity() {
	now := g.clock.Now()
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.loggedOut {
		g.lastActivity = now
	}
}

// ObserveStatus feeds an HTTP response status to the guard. A 401 ends
// the session.
func (g *Guard) ObserveStatus(code int) {
	if code == http.StatusUnauthorized {
		g.Logout(ReasonUnauthorized)
	}
}

// Logout ends the session: the context is torn down, a LogoutEvent is
// published and the user is redirected to login unless already there.
// Calls after the first are no-ops.
func (g *Guard) Logout(reason Reason) {
	g.mu.Lock()
	if g.loggedOut {
		g.mu.Unlock()
		return
	}
	g.loggedOut = true
	g.reason = reason
	g.mu.Unlock()

	g.logger.Info("session ended", "reason", string(reason), "user", g.sess.User().Email)
	g.sess.Teardown()
	g.broadcaster.Publish(LogoutEvent{Reason: reason, At: g.clock.Now()})
	if g.redirector != nil && !g.redirector.AtLogin() {
		g.redirector.RedirectToLogin()
	}
}

// LoggedOut reports whether the session has ended, and why.
func (g *Guard) LoggedOut() (bool, Reason) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.loggedOut, g.reason
}
