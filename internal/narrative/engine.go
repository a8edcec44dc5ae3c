// Package narrative implements the single-entry engine: the long-form text
// fields of a section, each with an optional image attachment, dirty
// tracking against the last loaded or saved value, and per-field saves.
package narrative

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mesh-intelligence/planbook/pkg/types"
)

// ActionError reports a repository failure while saving one field.
type ActionError struct {
	Field string
	Err   error
}

// Message is the user-facing text.
func (e *ActionError) Message() string { return "Failed to save" }

func (e *ActionError) Error() string {
	return fmt.Sprintf("saving %s: %v", e.Field, e.Err)
}

func (e *ActionError) Unwrap() error { return e.Err }

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for load failures.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithImageLimit sets the maximum attachment size in bytes.
func WithImageLimit(n int64) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxImage = n
		}
	}
}

// Engine holds the narrative fields of one section of one project. It is
// not safe for concurrent use.
type Engine struct {
	defs     []types.SingleEntryDef
	byField  map[string]types.SingleEntryDef
	repo     types.SingleEntryRepository
	logger   *slog.Logger
	maxImage int64

	values   map[string]types.SingleEntryValue
	baseline map[string]types.SingleEntryValue
	loading  bool
}

// New creates an Engine for defs backed by repo.
func New(defs []types.SingleEntryDef, repo types.SingleEntryRepository, opts ...Option) *Engine {
	e := &Engine{
		defs:     defs,
		byField:  make(map[string]types.SingleEntryDef, len(defs)),
		repo:     repo,
		logger:   slog.New(slog.DiscardHandler),
		maxImage: types.DefaultImageMaxBytes,
		values:   make(map[string]types.SingleEntryValue),
		baseline: make(map[string]types.SingleEntryValue),
	}
	for _, d := range defs {
		e.byField[d.Field] = d
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Defs returns the field definitions in declaration order.
func (e *Engine) Defs() []types.SingleEntryDef { return e.defs }

// Load fetches every field. If any fetch fails all values are reset to
// empty and the error is returned.
func (e *Engine) Load(ctx context.Context) error {
	e.loading = true
	defer func() { e.loading = false }()

	next := make(map[string]types.SingleEntryValue, len(e.defs))
	for _, d := range e.defs {
		v, err := e.repo.Get(ctx, d.Field)
		if err != nil {
			clear(e.values)
			clear(e.baseline)
			e.logger.Warn("loading single entries failed", "field", d.Field, "error", err)
			return fmt.Errorf("loading %s: %w", d.Field, err)
		}
		next[d.Field] = v
	}
	e.values = next
	e.baseline = make(map[string]types.SingleEntryValue, len(next))
	for k, v := range next {
		e.baseline[k] = v
	}
	return nil
}

// Loading reports whether a Load is in flight.
func (e *Engine) Loading() bool { return e.loading }

// Value returns the current value of field.
func (e *Engine) Value(field string) types.SingleEntryValue { return e.values[field] }

// Content returns the current text of field.
func (e *Engine) Content(field string) string { return e.values[field].Content }

// Values returns a copy of every current value.
func (e *Engine) Values() map[string]types.SingleEntryValue {
	out := make(map[string]types.SingleEntryValue, len(e.values))
	for k, v := range e.values {
		out[k] = v
	}
	return out
}

// SetContent replaces the text of field.
func (e *Engine) SetContent(field, content string) error {
	if _, err := e.def(field); err != nil {
		return err
	}
	v := e.values[field]
	v.Content = content
	e.values[field] = v
	return nil
}

// AttachImage reads f and stores it on field as a data URL.
func (e *Engine) AttachImage(field string, f FileReader) error {
	d, err := e.def(field)
	if err != nil {
		return err
	}
	if !d.SupportsImage {
		return fmt.Errorf("%w: %s does not accept images", types.ErrInvalidData, field)
	}
	url, err := ReadImage(f, e.maxImage)
	if err != nil {
		return err
	}
	v := e.values[field]
	v.ImageData = &url
	e.values[field] = v
	return nil
}

// RemoveImage clears the attachment of field.
func (e *Engine) RemoveImage(field string) error {
	if _, err := e.def(field); err != nil {
		return err
	}
	v := e.values[field]
	v.ImageData = nil
	e.values[field] = v
	return nil
}

// Dirty reports whether field differs from its value at the last
// successful Load or Save.
func (e *Engine) Dirty(field string) bool {
	return !e.values[field].Equal(e.baseline[field])
}

// AnyDirty reports whether any field is dirty.
func (e *Engine) AnyDirty() bool {
	for _, d := range e.defs {
		if e.Dirty(d.Field) {
			return true
		}
	}
	return false
}

// Save writes field to the repository. On success only that field's
// baseline moves.
func (e *Engine) Save(ctx context.Context, field string) error {
	if _, err := e.def(field); err != nil {
		return err
	}
	v := e.values[field]
	if err := e.repo.Put(ctx, field, v); err != nil {
		return &ActionError{Field: field, Err: err}
	}
	e.baseline[field] = v
	return nil
}

// Display returns the read-only text of field, or a placeholder when it
// is empty.
func (e *Engine) Display(field string) string {
	if c := e.values[field].Content; c != "" {
		return c
	}
	label := field
	if d, ok := e.byField[field]; ok && d.Label != "" {
		label = d.Label
	}
	return fmt.Sprintf("No %s provided yet.", strings.ToLower(label))
}

func (e *Engine) def(field string) (types.SingleEntryDef, error) {
	d, ok := e.byField[field]
	if !ok {
		return types.SingleEntryDef{}, fmt.Errorf("%w: %s", types.ErrUnknownField, field)
	}
	return d, nil
}
