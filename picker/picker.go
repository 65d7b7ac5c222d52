// Package picker chooses the replacement item for a page.
//
// The first Pick of a page lifetime samples the catalog, avoiding refs seen
// recently; every later Pick returns the same item.
package picker

import (
	"math/rand/v2"

	"github.com/hazyhaar/adswap/catalog"
)

// MaxAttempts bounds the non-repeat search. When every attempt lands on a
// recent ref, the last sample is used anyway.
const MaxAttempts = 10

// Rand is the sampling source. *rand.Rand satisfies it.
type Rand interface {
	IntN(n int) int
}

// State is the mutable selection state of one page lifetime.
type State struct {
	History History
	current *catalog.Item
}

// NewState returns an empty state, as at page load.
func NewState() *State { return &State{} }

// Current returns the cached pick, or nil before the first Pick.
func (s *State) Current() *catalog.Item { return s.current }

// Picker selects items from a catalog into a State.
type Picker struct {
	cat   *catalog.Catalog
	state *State
	rng   Rand
}

// Option configures a Picker.
type Option func(*Picker)

// WithRand sets the sampling source.
func WithRand(r Rand) Option {
	return func(p *Picker) { p.rng = r }
}

// New creates a Picker over cat, recording into state. A nil state gets a
// fresh one.
func New(cat *catalog.Catalog, state *State, opts ...Option) *Picker {
	if state == nil {
		state = NewState()
	}
	p := &Picker{
		cat:   cat,
		state: state,
		rng:   rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// State returns the state this picker records into.
func (p *Picker) State() *State { return p.state }

// Pick returns the session-sticky item, choosing it on first call.
func (p *Picker) Pick() *catalog.Item {
	if p.state.current != nil {
		return p.state.current
	}

	var item *catalog.Item
	for attempt := 0; attempt < MaxAttempts; attempt++ {
		item = p.cat.At(p.rng.IntN(p.cat.Len()))
		if !p.state.History.Contains(item.Ref) {
			break
		}
	}

	p.state.History.Push(item.Ref)
	p.state.current = item
	return item
}
