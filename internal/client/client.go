// Package client talks to the planbook REST API. Requests carry the bearer
// token of a session.Context, and every response status is reported to a
// hook so a session guard can react to 401s.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mesh-intelligence/planbook/internal/schema"
	"github.com/mesh-intelligence/planbook/internal/session"
	"github.com/mesh-intelligence/planbook/pkg/types"
)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying client. Its transport is wrapped.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.base = hc
		}
	}
}

// WithStatusHook registers fn to receive the status of every response.
func WithStatusHook(fn func(status int)) Option {
	return func(c *Client) { c.onStatus = fn }
}

// WithLogger sets the logger for request failures.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// Client is a REST client bound to one session.
type Client struct {
	baseURL  string
	session  *session.Context
	base     *http.Client
	http     *http.Client
	onStatus func(int)
	logger   *slog.Logger
}

// New creates a client for the API at baseURL, e.g.
// "http://127.0.0.1:8080/api".
func New(baseURL string, sess *session.Context, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		session: sess,
		base:    &http.Client{Timeout: 30 * time.Second},
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	wrapped := *c.base
	wrapped.Transport = &bearerTransport{client: c, next: c.base.Transport}
	c.http = &wrapped
	return c
}

// Session returns the session the client authenticates with.
func (c *Client) Session() *session.Context { return c.session }

// bearerTransport attaches the session token and reports statuses.
type bearerTransport struct {
	client *Client
	next   http.RoundTripper
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	next := t.next
	if next == nil {
		next = http.DefaultTransport
	}
	if token := t.client.session.Token(); token != "" {
		req = req.Clone(req.Context())
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := next.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if hook := t.client.onStatus; hook != nil {
		hook(resp.StatusCode)
	}
	return resp, nil
}

// do sends in as JSON and decodes the response into out. Either may be
// nil.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		herr := &HTTPError{Status: resp.StatusCode}
		var eb types.ErrorBody
		if json.Unmarshal(data, &eb) == nil {
			herr.Detail = eb.Detail
		}
		c.logger.Debug("request failed", "method", method, "path", path, "status", resp.StatusCode, "detail", herr.Detail)
		return herr
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding %s %s: %w", method, path, err)
	}
	return nil
}

// Login authenticates and stores the issued token in the session.
func (c *Client) Login(ctx context.Context, email, password string) (types.TokenResponse, error) {
	var tok types.TokenResponse
	err := c.do(ctx, http.MethodPost, "/auth/login", types.LoginRequest{Email: email, Password: password}, &tok)
	if err != nil {
		return types.TokenResponse{}, err
	}
	c.session.Init(session.State{Token: tok.AccessToken, User: tok.User, ExpiresAt: tok.ExpiresAt})
	return tok, nil
}

// Logout revokes the token server-side and tears down the session. The
// session is torn down even when the server call fails.
func (c *Client) Logout(ctx context.Context) error {
	if !c.session.Authenticated() {
		return nil
	}
	err := c.do(ctx, http.MethodPost, "/auth/logout", nil, nil)
	c.session.Teardown()
	return err
}

// Me returns the signed-in user.
func (c *Client) Me(ctx context.Context) (types.User, error) {
	var u types.User
	err := c.do(ctx, http.MethodGet, "/auth/me", nil, &u)
	return u, err
}

// Projects lists every project.
func (c *Client) Projects(ctx context.Context) ([]types.Project, error) {
	var ps []types.Project
	err := c.do(ctx, http.MethodGet, "/projects", nil, &ps)
	return ps, err
}

// Project fetches one project.
func (c *Client) Project(ctx context.Context, id string) (types.Project, error) {
	var p types.Project
	err := c.do(ctx, http.MethodGet, "/projects/"+url.PathEscape(id), nil, &p)
	return p, err
}

// CreateProject creates a project. Requires the editor role.
func (c *Client) CreateProject(ctx context.Context, name, description string) (types.Project, error) {
	var p types.Project
	err := c.do(ctx, http.MethodPost, "/projects", types.ProjectCreate{Name: name, Description: description}, &p)
	return p, err
}

// DeleteProject removes a project and its content. Requires the editor role.
func (c *Client) DeleteProject(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/projects/"+url.PathEscape(id), nil, nil)
}

// Sections fetches the server's section catalogue as a registry.
func (c *Client) Sections(ctx context.Context) (*schema.Registry, error) {
	var sections []types.SectionSchema
	if err := c.do(ctx, http.MethodGet, "/sections", nil, &sections); err != nil {
		return nil, err
	}
	return schema.New(sections)
}

// Users lists accounts. Requires the admin role.
func (c *Client) Users(ctx context.Context) ([]types.User, error) {
	var us []types.User
	err := c.do(ctx, http.MethodGet, "/users", nil, &us)
	return us, err
}

// CreateUser registers an account. Requires the admin role.
func (c *Client) CreateUser(ctx context.Context, in types.UserCreate) (types.User, error) {
	var u types.User
	err := c.do(ctx, http.MethodPost, "/users", in, &u)
	return u, err
}

// UpdateUserRole changes a user's role. Requires the admin role.
func (c *Client) UpdateUserRole(ctx context.Context, id string, role types.Role) (types.User, error) {
	var u types.User
	err := c.do(ctx, http.MethodPatch, "/users/"+url.PathEscape(id)+"/role", types.RoleUpdate{Role: role}, &u)
	return u, err
}

// DeleteUser removes an account. Requires the admin role.
func (c *Client) DeleteUser(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/users/"+url.PathEscape(id), nil, nil)
}
