package filter

import (
	"sync"

	"github.com/GorkaAbad/Daily-Backdoor-Papers/internal/models"
)

// View is a reactive cell over a collection and a Filter. Every mutation
// recomputes the visible records from the full collection and then notifies
// subscribers with the new result.
type View[R models.Record] struct {
	mu     sync.Mutex
	all    []R
	state  Filter
	shown  []R
	subs   map[int]func([]R)
	nextID int
}

// NewView creates a view over all with no active filter.
func NewView[R models.Record](all []R) *View[R] {
	v := &View[R]{subs: make(map[int]func([]R))}
	v.all = all
	v.shown = Apply(all, v.state)
	return v
}

// SetCollection replaces the full collection, keeping the filter.
func (v *View[R]) SetCollection(all []R) {
	v.update(func() { v.all = all })
}

// SetSearch changes the search text.
func (v *View[R]) SetSearch(search string) {
	v.update(func() { v.state.Search = search })
}

// Select constrains facet to value.
func (v *View[R]) Select(facet models.Facet, value string) {
	v.update(func() { v.state = v.state.Select(facet, value) })
}

// Clear removes the constraint on facet.
func (v *View[R]) Clear(facet models.Facet) {
	v.update(func() { v.state = v.state.Clear(facet) })
}

// Reset drops the search text and every facet selection.
func (v *View[R]) Reset() {
	v.update(func() { v.state = Filter{} })
}

// Filter returns the current filter state.
func (v *View[R]) Filter() Filter {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state.clone()
}

// Shown returns a copy of the visible records.
func (v *View[R]) Shown() []R {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]R, len(v.shown))
	copy(out, v.shown)
	return out
}

// Len returns the size of the full collection.
func (v *View[R]) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.all)
}

// Options returns the selectable values of facet over the full collection.
func (v *View[R]) Options(facet models.Facet) []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return Options(v.all, facet)
}

// Subscribe registers fn to receive every recomputed view. The returned
// function unregisters it.
func (v *View[R]) Subscribe(fn func([]R)) (cancel func()) {
	v.mu.Lock()
	id := v.nextID
	v.nextID++
	v.subs[id] = fn
	v.mu.Unlock()

	return func() {
		v.mu.Lock()
		delete(v.subs, id)
		v.mu.Unlock()
	}
}

func (v *View[R]) update(mutate func()) {
	v.mu.Lock()
	mutate()
	shown := Apply(v.all, v.state)
	v.shown = shown
	subs := make([]func([]R), 0, len(v.subs))
	for _, fn := range v.subs {
		subs = append(subs, fn)
	}
	v.mu.Unlock()

	// Subscribers run outside the lock so they may read the view.
	for _, fn := range subs {
		out := make([]R, len(shown))
		copy(out, shown)
		fn(out)
	}
}
