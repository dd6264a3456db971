package display

import "jumbotrace/internal/model"

// Mode is whether an event shows its children.
type Mode int

const (
	Collapsed Mode = iota
	Expanded
)

// Modes tracks the display mode of every event and which events are hidden by
// a collapsed ancestor. Everything starts collapsed except plain blocks.
type Modes struct {
	mode   map[int64]Mode
	hidden map[int64]bool
}

// NewModes computes the initial visibility of root. With expandFunctions set,
// function bodies start expanded.
func NewModes(root *Annotated, expandFunctions bool) *Modes {
	m := &Modes{mode: make(map[int64]Mode), hidden: make(map[int64]bool)}
	if expandFunctions {
		root.Walk(func(n *Annotated) bool {
			if isFunction(n.Event) {
				m.mode[n.Event.ID] = Expanded
			}
			return true
		})
	}
	m.place(root, true)
	return m
}

// Mode returns the mode of an event.
func (m *Modes) Mode(id int64) Mode { return m.mode[id] }

// Hidden reports whether a collapsed ancestor hides the event.
func (m *Modes) Hidden(id int64) bool { return m.hidden[id] }

// Toggle flips the mode of n. Expanding a statement also opens its direct
// sub-statements; collapsing cascades to every descendant. It reports whether
// anything changed.
func (m *Modes) Toggle(n *Annotated) bool {
	if !collapsible(n.Event) {
		return false
	}
	id := n.Event.ID
	if m.mode[id] == Collapsed {
		m.mode[id] = Expanded
		if !n.Event.IsControlFlow() {
			for _, c := range n.Children() {
				if _, ok := c.Event.Kind.(model.SubStatement); ok {
					m.mode[c.Event.ID] = Expanded
				}
			}
		}
	} else {
		n.Walk(func(d *Annotated) bool {
			m.mode[d.Event.ID] = Collapsed
			return true
		})
	}
	m.place(n, !m.hidden[id])
	return true
}

// place recomputes visibility below n given whether n itself is visible.
func (m *Modes) place(n *Annotated, visible bool) {
	m.hidden[n.Event.ID] = !visible
	open := visible && !(collapsible(n.Event) && m.mode[n.Event.ID] == Collapsed)
	for _, c := range n.Children() {
		m.place(c, open)
	}
}

func isFunction(e *model.Event) bool {
	cf, ok := e.Kind.(model.ControlFlow)
	if !ok {
		return false
	}
	_, ok = cf.Context.(model.FunctionContext)
	return ok
}

// collapsible events are function bodies and statements nesting more than updates.
func collapsible(e *model.Event) bool {
	switch e.Kind.(type) {
	case model.Statement, model.SubStatement, model.Expression:
		for _, c := range e.Children() {
			if !c.IsUpdate() {
				return true
			}
		}
		return false
	}
	return isFunction(e)
}
