package search

import (
	"context"
	"errors"
	"strings"
	"sync"

	"golang.org/x/text/cases"

	"github.com/mesh-intelligence/planbook/pkg/types"
)

// ErrNoNavigator is returned by Select when no navigator is set.
var ErrNoNavigator = errors.New("search: no navigator")

// Provider returns the current items of one source. It is called at query
// time, so results always reflect the latest state.
type Provider func() []types.SearchItem

// Navigator brings a search result into view.
type Navigator interface {
	Navigate(ctx context.Context, item types.SearchItem) error
}

type registration struct {
	provider Provider
	gen      uint64
}

// Aggregator maps source ids to providers and answers global queries.
// It is safe for concurrent use.
type Aggregator struct {
	mu      sync.RWMutex
	order   []string
	sources map[string]registration
	gen     uint64
	nav     Navigator
}

// NewAggregator returns an empty Aggregator. nav may be nil and set later.
func NewAggregator(nav Navigator) *Aggregator {
	return &Aggregator{
		sources: make(map[string]registration),
		nav:     nav,
	}
}

// SetNavigator replaces the navigator used by Select.
func (a *Aggregator) SetNavigator(nav Navigator) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nav = nav
}

// Register adds or replaces the provider of id. A replaced source keeps
// its position. The returned function unregisters this registration; it
// does nothing once id has been registered again.
func (a *Aggregator) Register(id string, p Provider) (unregister func()) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.gen++
	gen := a.gen
	if _, ok := a.sources[id]; !ok {
		a.order = append(a.order, id)
	}
	a.sources[id] = registration{provider: p, gen: gen}

	return func() {
		a.mu.Lock()
		defer a.mu.Unlock()
		reg, ok := a.sources[id]
		if !ok || reg.gen != gen {
			return
		}
		delete(a.sources, id)
		for i, s := range a.order {
			if s == id {
				a.order = append(a.order[:i], a.order[i+1:]...)
				break
			}
		}
	}
}

// Sources returns the registered ids in registration order.
func (a *Aggregator) Sources() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]string, len(a.order))
	copy(out, a.order)
	return out
}

// Query returns every item whose searchable text contains q, ignoring
// case, in source registration order. A blank query returns nil.
func (a *Aggregator) Query(q string) []types.SearchItem {
	caser := cases.Fold()
	q = caser.String(strings.TrimSpace(q))
	if q == "" {
		return nil
	}

	a.mu.RLock()
	providers := make([]Provider, 0, len(a.order))
	for _, id := range a.order {
		providers = append(providers, a.sources[id].provider)
	}
	a.mu.RUnlock()

	results := []types.SearchItem{}
	for _, p := range providers {
		if p == nil {
			continue
		}
		for _, item := range p() {
			if strings.Contains(caser.String(item.SearchableText), q) {
				results = append(results, item)
			}
		}
	}
	return results
}

// Select navigates to item.
func (a *Aggregator) Select(ctx context.Context, item types.SearchItem) error {
	a.mu.RLock()
	nav := a.nav
	a.mu.RUnlock()
	if nav == nil {
		return ErrNoNavigator
	}
	return nav.Navigate(ctx, item)
}
