// Package dashboard composes the engines of one project into a navigable,
// searchable view: a navigation shell per section, a grid engine per table,
// a narrative engine per section with single entries, and one search
// source per mounted item. Mutations are gated on the user's role.
//
// A ProjectView is not safe for concurrent use.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mesh-intelligence/planbook/internal/grid"
	"github.com/mesh-intelligence/planbook/internal/narrative"
	"github.com/mesh-intelligence/planbook/internal/nav"
	"github.com/mesh-intelligence/planbook/internal/schema"
	"github.com/mesh-intelligence/planbook/internal/search"
	"github.com/mesh-intelligence/planbook/pkg/types"
)

// Repositories opens the storage of one project. Both the REST client and
// the sqlite backend satisfy it.
type Repositories interface {
	Rows(projectID, sectionID, tableKey string) types.TableRepository
	Columns(projectID, sectionID, tableKey string) types.ColumnRepository
	Entries(projectID string) types.SingleEntryRepository
}

// NarrativeItemID is the navigation item id of a section's narrative group.
const NarrativeItemID = "entries"

// TableItemID returns the navigation item id of a table.
func TableItemID(key string) string { return "table-" + key }

// Item types shown by the navigation shells.
const (
	ItemTypeTable     = "Table"
	ItemTypeNarrative = "Narrative"
)

type options struct {
	logger     *slog.Logger
	mode       nav.Mode
	scroller   nav.Scroller
	aggregator *search.Aggregator
	imageLimit int64
	section    string
}

// Option configures Open.
type Option func(*options)

// WithLogger sets the logger handed to every engine.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMode sets the layout of every section shell. The default is Tabs.
func WithMode(m nav.Mode) Option { return func(o *options) { o.mode = m } }

// WithScroller sets the viewport driven by navigation.
func WithScroller(sc nav.Scroller) Option { return func(o *options) { o.scroller = sc } }

// WithAggregator registers search sources with a shared aggregator
// instead of a private one.
func WithAggregator(a *search.Aggregator) Option { return func(o *options) { o.aggregator = a } }

// WithImageLimit caps narrative image attachments.
func WithImageLimit(n int64) Option { return func(o *options) { o.imageLimit = n } }

// WithSection makes Open activate and load section id instead of the
// first section.
func WithSection(id string) Option { return func(o *options) { o.section = id } }

// Section is one mounted section of a project.
type Section struct {
	schema    types.SectionSchema
	shell     *nav.Shell
	tables    map[string]*Table
	narrative *Narrative
	loaded    bool
}

// Schema returns the section definition.
func (s *Section) Schema() types.SectionSchema { return s.schema }

// Shell returns the section's navigation shell.
func (s *Section) Shell() *nav.Shell { return s.shell }

// Loaded reports whether the section's content has been fetched.
func (s *Section) Loaded() bool { return s.loaded }

func (s *Section) load(ctx context.Context) error {
	var errs []error
	if s.narrative != nil {
		errs = append(errs, s.narrative.Load(ctx))
	}
	for _, ts := range s.schema.Tables {
		errs = append(errs, s.tables[ts.Key].Load(ctx))
	}
	s.loaded = true
	return errors.Join(errs...)
}

// ProjectView is the mounted dashboard of one project.
type ProjectView struct {
	project    types.Project
	user       types.User
	sections   []*Section
	byID       map[string]*Section
	active     string
	aggregator *search.Aggregator
	scroller   nav.Scroller
	unregister []func()
	anchor     string
	logger     *slog.Logger
	closed     bool
}

var _ search.Navigator = (*ProjectView)(nil)

// Open mounts every section of reg for project and loads the first one, or
// the one named by WithSection. The view becomes the aggregator's
// navigator. Call Close to unregister its search sources.
func Open(ctx context.Context, reg *schema.Registry, repos Repositories, project types.Project, user types.User, opts ...Option) (*ProjectView, error) {
	o := options{
		logger:     slog.New(slog.DiscardHandler),
		imageLimit: types.DefaultImageMaxBytes,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.aggregator == nil {
		o.aggregator = search.NewAggregator(nil)
	}

	v := &ProjectView{
		project:    project,
		user:       user,
		byID:       make(map[string]*Section),
		aggregator: o.aggregator,
		scroller:   o.scroller,
		logger:     o.logger.With("project", project.ID),
	}
	for _, ss := range reg.Sections() {
		sec := v.mount(ss, repos, o)
		v.sections = append(v.sections, sec)
		v.byID[ss.ID] = sec
	}
	o.aggregator.SetNavigator(v)

	first := o.section
	if first == "" {
		if len(v.sections) == 0 {
			return v, nil
		}
		first = v.sections[0].schema.ID
	}
	if err := v.ActivateSection(ctx, first); err != nil {
		v.Close()
		return nil, fmt.Errorf("loading section %s: %w", first, err)
	}
	return v, nil
}

func (v *ProjectView) mount(ss types.SectionSchema, repos Repositories, o options) *Section {
	shellOpts := []nav.Option{}
	if o.scroller != nil {
		shellOpts = append(shellOpts, nav.WithScroller(o.scroller))
	}
	sec := &Section{
		schema: ss,
		shell:  nav.New(o.mode, shellOpts...),
		tables: make(map[string]*Table, len(ss.Tables)),
	}
	logger := v.logger.With("section", ss.ID)

	var items []nav.Item
	if len(ss.SingleEntries) > 0 {
		eng := narrative.New(ss.SingleEntries, repos.Entries(v.project.ID),
			narrative.WithLogger(logger), narrative.WithImageLimit(o.imageLimit))
		sec.narrative = &Narrative{engine: eng, role: v.user.Role}
		src := search.Source{
			ProjectID:    v.project.ID,
			SectionID:    ss.ID,
			SectionLabel: ss.Title,
			ItemID:       NarrativeItemID,
			GroupID:      NarrativeItemID,
			GroupLabel:   ss.Title,
		}
		v.register(src, func() []types.SearchItem {
			return search.BuildEntryItems(src, eng.Defs(), eng.Values())
		})
		n := sec.narrative
		items = append(items, nav.Item{
			ID:     NarrativeItemID,
			Label:  ss.Title,
			Type:   ItemTypeNarrative,
			Render: func() string { return RenderNarrative(n) },
		})
	}

	for _, ts := range ss.Tables {
		gridOpts := []grid.Option{grid.WithLogger(logger)}
		if ts.ExtraColumns != nil {
			cols := repos.Columns(v.project.ID, ss.ID, ts.Key)
			gridOpts = append(gridOpts, grid.WithExtraColumns(cols, v.user.Role.CanEdit()))
		}
		eng := grid.New(ts, repos.Rows(v.project.ID, ss.ID, ts.Key), gridOpts...)
		t := &Table{engine: eng, role: v.user.Role}
		sec.tables[ts.Key] = t
		src := search.Source{
			ProjectID:    v.project.ID,
			SectionID:    ss.ID,
			SectionLabel: ss.Title,
			ItemID:       TableItemID(ts.Key),
			GroupID:      ts.Key,
			GroupLabel:   ts.Title,
		}
		v.register(src, func() []types.SearchItem {
			return search.BuildTableItems(src, eng.Schema().Columns, eng.Rows())
		})
		items = append(items, nav.Item{
			ID:     TableItemID(ts.Key),
			Label:  ts.Title,
			Type:   ItemTypeTable,
			Render: func() string { return RenderTable(t) },
		})
	}

	sec.shell.SetItems(items)
	return sec
}

func (v *ProjectView) register(src search.Source, p search.Provider) {
	v.unregister = append(v.unregister, v.aggregator.Register(src.ID(), p))
}

// Project returns the mounted project.
func (v *ProjectView) Project() types.Project { return v.project }

// User returns the signed-in user the view gates on.
func (v *ProjectView) User() types.User { return v.user }

// Search returns the aggregator the view's sources are registered with.
func (v *ProjectView) Search() *search.Aggregator { return v.aggregator }

// Sections returns the mounted sections in catalogue order.
func (v *ProjectView) Sections() []*Section { return v.sections }

// Section returns one mounted section.
func (v *ProjectView) Section(id string) (*Section, error) {
	sec, ok := v.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", types.ErrUnknownSection, id)
	}
	return sec, nil
}

// Table returns the gated table key of section sectionID.
func (v *ProjectView) Table(sectionID, key string) (*Table, error) {
	sec, err := v.Section(sectionID)
	if err != nil {
		return nil, err
	}
	t, ok := sec.tables[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", types.ErrUnknownTable, sectionID, key)
	}
	return t, nil
}

// Entries returns the gated narrative group of section sectionID.
func (v *ProjectView) Entries(sectionID string) (*Narrative, error) {
	sec, err := v.Section(sectionID)
	if err != nil {
		return nil, err
	}
	if sec.narrative == nil {
		return nil, fmt.Errorf("%w: section %s has no single entries", types.ErrUnknownField, sectionID)
	}
	return sec.narrative, nil
}

// ActiveSection returns the id of the active section.
func (v *ProjectView) ActiveSection() string { return v.active }

// ActivateSection makes id the active section, loading it on first
// activation. A failed load leaves the section active with its engines
// showing no data; the next activation does not retry.
func (v *ProjectView) ActivateSection(ctx context.Context, id string) error {
	sec, err := v.Section(id)
	if err != nil {
		return err
	}
	v.active = id
	if sec.loaded {
		return nil
	}
	if err := sec.load(ctx); err != nil {
		v.logger.Warn("section load failed", "section", id, "error", err)
		return err
	}
	return nil
}

// LoadAll loads every section that has not been loaded yet.
func (v *ProjectView) LoadAll(ctx context.Context) error {
	var errs []error
	for _, sec := range v.sections {
		if sec.loaded {
			continue
		}
		if err := sec.load(ctx); err != nil {
			errs = append(errs, fmt.Errorf("section %s: %w", sec.schema.ID, err))
		}
	}
	return errors.Join(errs...)
}

// Reload refetches every loaded section.
func (v *ProjectView) Reload(ctx context.Context) error {
	var errs []error
	for _, sec := range v.sections {
		if !sec.loaded {
			continue
		}
		if err := sec.load(ctx); err != nil {
			errs = append(errs, fmt.Errorf("section %s: %w", sec.schema.ID, err))
		}
	}
	return errors.Join(errs...)
}

// Navigate brings a search result into view: its section is activated,
// the item holding it is selected and the viewport scrolls to its anchor.
// A section that fails to load is still navigated to and the load error
// returned.
func (v *ProjectView) Navigate(ctx context.Context, item types.SearchItem) error {
	sec, err := v.Section(item.SectionID)
	if err != nil {
		return err
	}
	loadErr := v.ActivateSection(ctx, item.SectionID)

	itemID := item.ItemID
	if itemID == "" {
		itemID = TableItemID(item.GroupID)
	}
	if err := sec.shell.Select(itemID); err != nil {
		return err
	}
	v.anchor = item.Anchor
	if v.scroller != nil {
		v.scroller.ScrollTo(item.Anchor)
	}
	return loadErr
}

// Anchor returns the anchor of the last navigated search result.
func (v *ProjectView) Anchor() string { return v.anchor }

// Render returns the active section as text.
func (v *ProjectView) Render() string {
	sec, ok := v.byID[v.active]
	if !ok {
		return nav.DefaultEmptyMessage
	}
	return RenderSection(sec)
}

// Close unregisters every search source of the view. It is safe to call
// more than once.
func (v *ProjectView) Close() {
	if v.closed {
		return
	}
	v.closed = true
	for _, un := range v.unregister {
		un()
	}
	v.unregister = nil
}
