package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mesh-intelligence/planbook/internal/client"
	"github.com/mesh-intelligence/planbook/internal/dashboard"
	"github.com/mesh-intelligence/planbook/internal/schema"
	"github.com/mesh-intelligence/planbook/internal/session"
)

var (
	errNotLoggedIn    = errors.New("not logged in; run `planbook login <email>`")
	errSessionExpired = errors.New("session expired; run `planbook login <email>`")
)

// conn is a REST client bound to the stored session and its guard.
type conn struct {
	client *client.Client
	guard  *session.Guard
	store  *session.FileStore
}

// connectMode says what a command expects of the stored session.
type connectMode int

const (
	// signedIn requires a stored session that is still valid.
	signedIn connectMode = iota
	// anySession works with or without a stored session.
	anySession
	// atLogin is the login command itself. A rejected login must leave
	// the stored session alone.
	atLogin
)

// loginRedirect forgets the stored session when the guard ends it, so the
// next command asks for a fresh login.
type loginRedirect struct {
	store   *session.FileStore
	atLogin bool
	logger  *slog.Logger
}

func (r *loginRedirect) AtLogin() bool { return r.atLogin }

func (r *loginRedirect) RedirectToLogin() {
	if err := r.store.Clear(); err != nil {
		r.logger.Warn("clearing session", "error", err)
	}
}

// connect loads session.json and builds the client. In signedIn mode the
// session must exist and still be valid, and the command counts as
// activity.
func (a *app) connect(mode connectMode) (*conn, error) {
	store := session.NewFileStore(a.configDir)
	st, err := store.Load()
	switch {
	case errors.Is(err, session.ErrNoSession):
		if mode == signedIn {
			return nil, userError(errNotLoggedIn)
		}
	case err != nil:
		return nil, sysError(err)
	}

	sess := session.NewContext(st)
	c := &conn{store: store}
	redirect := &loginRedirect{store: store, atLogin: mode == atLogin, logger: a.logger}
	c.guard = session.NewGuard(sess,
		session.WithIdleTimeout(a.cfg.GetIdleTimeout()),
		session.WithCheckInterval(a.cfg.GetCheckInterval()),
		session.WithRedirector(redirect),
		session.WithLogger(a.logger))
	c.client = client.New(a.serverURL(), sess,
		client.WithStatusHook(c.guard.ObserveStatus),
		client.WithLogger(a.logger))

	if mode == signedIn {
		c.guard.MarkActivity()
		if c.guard.Check() {
			return nil, userError(errSessionExpired)
		}
	}
	return c, nil
}

// openProject mounts the dashboard for projectID as the signed-in user.
// pick chooses the one section loaded up front; with a nil pick it is the
// first. The caller must Close the view.
func (a *app) openProject(ctx context.Context, c *conn, projectID string, pick func(*schema.Registry) (string, error)) (*dashboard.ProjectView, error) {
	reg, err := c.client.Sections(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch sections: %w", err)
	}
	opts := []dashboard.Option{
		dashboard.WithLogger(a.logger),
		dashboard.WithImageLimit(a.cfg.GetImageMaxBytes()),
	}
	if pick != nil {
		id, err := pick(reg)
		if err != nil {
			return nil, userError(err)
		}
		opts = append(opts, dashboard.WithSection(id))
	}
	project, err := c.client.Project(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("fetch project: %w", err)
	}
	return dashboard.Open(ctx, reg, c.client, project, c.client.Session().User(), opts...)
}
