// Package nav implements the section navigation shell: the list of items
// a section renders (tables and narrative groups), which one is active,
// and how the viewport follows selection.
//
// Two layouts are supported. In Tabs mode one item renders at a time. In
// ScrollSpy mode every item renders and the active item follows what is
// visible in the viewport.
package nav

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownItem is returned when selecting an id that is not a valid item.
var ErrUnknownItem = errors.New("nav: unknown item")

// DefaultEmptyMessage is rendered when a shell has no valid items.
const DefaultEmptyMessage = "No content available for this section."

// Mode selects the shell layout.
type Mode int

// Layouts.
const (
	Tabs Mode = iota
	ScrollSpy
)

func (m Mode) String() string {
	if m == ScrollSpy {
		return "scroll-spy"
	}
	return "tabs"
}

// Item is one navigable unit of a section.
type Item struct {
	ID     string
	Label  string
	Type   string
	Render func() string
}

// Scroller moves the viewport.
type Scroller interface {
	ScrollToTop()
	ScrollTo(anchor string)
}

// VisibilityEntry reports whether an item currently crosses the viewport
// threshold band.
type VisibilityEntry struct {
	ItemID  string
	Visible bool
}

// ItemAnchor is the anchor of an item's rendered block.
func ItemAnchor(id string) string { return "item-" + id }

type scrollState int

const (
	idle scrollState = iota
	scrollingTo
)

type noopScroller struct{}

func (noopScroller) ScrollToTop()    {}
func (noopScroller) ScrollTo(string) {}

// Option configures a Shell.
type Option func(*Shell)

// WithDefaultItem sets the item that is active initially.
func WithDefaultItem(id string) Option { return func(s *Shell) { s.defaultID = id } }

// WithScroller sets the viewport driver.
func WithScroller(sc Scroller) Option {
	return func(s *Shell) {
		if sc != nil {
			s.scroller = sc
		}
	}
}

// WithEmptyMessage overrides DefaultEmptyMessage.
func WithEmptyMessage(m string) Option { return func(s *Shell) { s.empty = m } }

// Shell tracks the items of one section and the active one.
type Shell struct {
	mode      Mode
	items     []Item
	defaultID string
	active    string
	state     scrollState
	target    string
	scroller  Scroller
	empty     string
}

// New returns a Shell in the given mode with no items.
func New(mode Mode, opts ...Option) *Shell {
	s := &Shell{mode: mode, scroller: noopScroller{}, empty: DefaultEmptyMessage}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Mode returns the layout.
func (s *Shell) Mode() Mode { return s.mode }

// SetItems replaces the items. Items without an id or a renderer are
// dropped. The active item is kept when still present, otherwise the
// default is resolved again.
func (s *Shell) SetItems(items []Item) {
	valid := make([]Item, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, it := range items {
		if it.ID == "" || it.Render == nil || seen[it.ID] {
			continue
		}
		seen[it.ID] = true
		valid = append(valid, it)
	}
	s.items = valid
	if !s.has(s.active) {
		s.active = s.resolveDefault()
	}
	if s.state == scrollingTo && !s.has(s.target) {
		s.state, s.target = idle, ""
	}
}

func (s *Shell) resolveDefault() string {
	if s.defaultID != "" && s.has(s.defaultID) {
		return s.defaultID
	}
	if len(s.items) > 0 {
		return s.items[0].ID
	}
	return ""
}

func (s *Shell) has(id string) bool {
	_, ok := s.index(id)
	return ok
}

func (s *Shell) index(id string) (int, bool) {
	if id == "" {
		return 0, false
	}
	for i, it := range s.items {
		if it.ID == id {
			return i, true
		}
	}
	return 0, false
}

// Items returns the valid items in render order.
func (s *Shell) Items() []Item { return s.items }

// Active returns the active item id, or "" when there are no items.
func (s *Shell) Active() string { return s.active }

// ActiveItem returns the active item.
func (s *Shell) ActiveItem() (Item, bool) {
	i, ok := s.index(s.active)
	if !ok {
		return Item{}, false
	}
	return s.items[i], true
}

// Scrolling reports whether a programmatic scroll is in progress.
func (s *Shell) Scrolling() bool { return s.state == scrollingTo }

// Select makes id active. In Tabs mode the viewport returns to the top. In
// ScrollSpy mode the viewport scrolls to the item and visibility reports
// are ignored until SettleScroll.
func (s *Shell) Select(id string) error {
	if !s.has(id) {
		return fmt.Errorf("%w: %s", ErrUnknownItem, id)
	}
	switch s.mode {
	case Tabs:
		s.active = id
		s.scroller.ScrollToTop()
	case ScrollSpy:
		s.state, s.target = scrollingTo, id
		s.scroller.ScrollTo(ItemAnchor(id))
	}
	return nil
}

// SettleScroll completes a programmatic scroll started by Select.
func (s *Shell) SettleScroll() {
	if s.state != scrollingTo {
		return
	}
	if s.has(s.target) {
		s.active = s.target
	}
	s.state, s.target = idle, ""
}

// ObserveVisibility promotes the lowest-index visible item to active.
// Reports with no visible entries, and reports that arrive while a
// programmatic scroll is in progress, are ignored. Tabs mode ignores them
// entirely.
func (s *Shell) ObserveVisibility(entries []VisibilityEntry) {
	if s.mode != ScrollSpy || s.state == scrollingTo {
		return
	}
	best := -1
	for _, e := range entries {
		if !e.Visible {
			continue
		}
		if i, ok := s.index(e.ItemID); ok && (best < 0 || i < best) {
			best = i
		}
	}
	if best >= 0 {
		s.active = s.items[best].ID
	}
}

// Render returns the active item in Tabs mode and every item in ScrollSpy
// mode.
func (s *Shell) Render() string {
	if len(s.items) == 0 {
		return s.empty
	}
	if s.mode == Tabs {
		it, _ := s.ActiveItem()
		return it.Render()
	}
	parts := make([]string, len(s.items))
	for i, it := range s.items {
		parts[i] = it.Render()
	}
	return strings.Join(parts, "\n\n")
}
