package transform

import (
	"slices"

	"jumbotrace/internal/model"
)

// Aggregate folds the states of a node's scoped children into the node's state.
type Aggregate[S any] func(e *model.Event, states []S) S

// Propagate derives the context handed to a node's children.
type Propagate[C any] func(e *model.Event, ctx C) C

// Engine runs the two-pass transform: context flows down, state flows up,
// and control flow events keep their state to themselves.
type Engine[C, S any] struct {
	Aggregate Aggregate[S]
	Propagate Propagate[C]
}

// Annotated is an event paired with its inherited context and synthesized state.
type Annotated[C, S any] struct {
	Event   *model.Event
	Context C
	State   S

	parent     *Annotated[C, S]
	index      int
	children   []*Annotated[C, S]
	executions []Execution[C, S]
}

// Execution is one child of an annotated node: Node for nested events, Step otherwise.
type Execution[C, S any] struct {
	Node *Annotated[C, S]
	Step *model.ExecutionStep
}

// Transform annotates a copy of root. root itself is left untouched.
func Transform[C, S any](root *model.Event, ctx C, aggregate Aggregate[S], propagate Propagate[C]) *Annotated[C, S] {
	return Engine[C, S]{Aggregate: aggregate, Propagate: propagate}.Transform(root, ctx)
}

// Transform annotates a copy of root, starting from the context ctx.
func (eng Engine[C, S]) Transform(root *model.Event, ctx C) *Annotated[C, S] {
	return eng.transform(root, ctx, nil, 0)
}

func (eng Engine[C, S]) transform(e *model.Event, inherited C, parent *Annotated[C, S], index int) *Annotated[C, S] {
	a := &Annotated[C, S]{Event: e, Context: inherited, parent: parent, index: index}
	childCtx := eng.Propagate(e, inherited)

	var states []S
	for _, ex := range e.Executions() {
		switch x := ex.(type) {
		case *model.Event:
			child := eng.transform(x, childCtx, a, len(a.children))
			a.children = append(a.children, child)
			a.executions = append(a.executions, Execution[C, S]{Node: child})
			if !x.IsControlFlow() {
				states = append(states, child.State)
			}
		case model.ExecutionStep:
			step := x
			a.executions = append(a.executions, Execution[C, S]{Step: &step})
		}
	}
	a.State = eng.Aggregate(e, states)
	return a
}

// StateSources lists, in order, the children of e whose states reach Aggregate.
func StateSources(e *model.Event) []*model.Event {
	var out []*model.Event
	for _, child := range e.Children() {
		if !child.IsControlFlow() {
			out = append(out, child)
		}
	}
	return out
}

// Parent returns the enclosing node, nil at the root.
func (a *Annotated[C, S]) Parent() *Annotated[C, S] { return a.parent }

// Index is the position of a among its parent's child nodes.
func (a *Annotated[C, S]) Index() int { return a.index }

// NumChildren is the number of nested events.
func (a *Annotated[C, S]) NumChildren() int { return len(a.children) }

// Child returns the i-th nested event.
func (a *Annotated[C, S]) Child(i int) *Annotated[C, S] { return a.children[i] }

// Children returns a copy of the nested events.
func (a *Annotated[C, S]) Children() []*Annotated[C, S] { return slices.Clone(a.children) }

// Executions returns a copy of the children, steps included, in trace order.
func (a *Annotated[C, S]) Executions() []Execution[C, S] { return slices.Clone(a.executions) }

// Walk visits a and its descendants in pre-order. Returning false skips the subtree.
func (a *Annotated[C, S]) Walk(fn func(*Annotated[C, S]) bool) {
	if !fn(a) {
		return
	}
	for _, c := range a.children {
		c.Walk(fn)
	}
}
