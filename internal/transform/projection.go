package transform

import "jumbotrace/internal/model"

// ViewFunc renders one annotated event.
type ViewFunc[C, S, V any] func(e *model.Event, state S, ctx C) V

// Projection holds a view per annotated node and an index from event id to node.
// The index lives as long as the projection; it is not shared between transforms.
// A Projection is not safe for concurrent use.
type Projection[C, S, V any] struct {
	root  *Annotated[C, S]
	index map[int64]*Annotated[C, S]
	views map[int64]V
}

// Project computes the view of every node of root.
func Project[C, S, V any](root *Annotated[C, S], view ViewFunc[C, S, V]) *Projection[C, S, V] {
	p := &Projection[C, S, V]{
		root:  root,
		index: make(map[int64]*Annotated[C, S]),
		views: make(map[int64]V),
	}
	root.Walk(func(a *Annotated[C, S]) bool {
		p.index[a.Event.ID] = a
		p.views[a.Event.ID] = view(a.Event, a.State, a.Context)
		return true
	})
	return p
}

// Root returns the annotated tree the projection covers.
func (p *Projection[C, S, V]) Root() *Annotated[C, S] { return p.root }

// Node looks up an annotated node by event id.
func (p *Projection[C, S, V]) Node(id int64) (*Annotated[C, S], bool) {
	a, ok := p.index[id]
	return a, ok
}

// View returns the current view of an event.
func (p *Projection[C, S, V]) View(id int64) (V, bool) {
	v, ok := p.views[id]
	return v, ok
}

// Recompute re-renders the node with the given id and everything below it.
// Control flow nodes keep their view, their descendants are still re-rendered.
// Only views change; states and contexts stay as the transform left them.
func (p *Projection[C, S, V]) Recompute(id int64, view ViewFunc[C, S, V]) bool {
	a, ok := p.index[id]
	if !ok {
		return false
	}
	a.Walk(func(n *Annotated[C, S]) bool {
		if !n.Event.IsControlFlow() {
			p.views[n.Event.ID] = view(n.Event, n.State, n.Context)
		}
		return true
	})
	return true
}

// Refresh re-renders a single node, control flow included.
func (p *Projection[C, S, V]) Refresh(id int64, view ViewFunc[C, S, V]) bool {
	a, ok := p.index[id]
	if !ok {
		return false
	}
	p.views[id] = view(a.Event, a.State, a.Context)
	return true
}
