package traceview

import (
	"fmt"

	"jumbotrace/internal/model"
	"jumbotrace/internal/transform"
)

// Position is where in the linear sequence an event shows up.
type Position int

const (
	Start Position = iota
	End
	Single
)

func (p Position) String() string {
	switch p {
	case Start:
		return "START"
	case End:
		return "END"
	case Single:
		return "SINGLE"
	}
	return fmt.Sprintf("Position(%d)", int(p))
}

// Index identifies one position of the linearized trace.
type Index struct {
	Event *model.Event
	Pos   Position
}

// Entry is an index together with the node's state and context.
type Entry[C, S any] struct {
	Index
	State   S
	Context C
	Node    *transform.Annotated[C, S]
}

func entry[C, S any](n *transform.Annotated[C, S], pos Position) Entry[C, S] {
	return Entry[C, S]{Index: Index{Event: n.Event, Pos: pos}, State: n.State, Context: n.Context, Node: n}
}

func opening[C, S any](n *transform.Annotated[C, S]) Position {
	if n.Event.IsUpdate() {
		return Single
	}
	return Start
}

func closing[C, S any](n *transform.Annotated[C, S]) Position {
	if n.Event.IsUpdate() {
		return Single
	}
	return End
}

// Linearize returns every position of root in document order:
// START, the children, END; updates appear once as SINGLE.
func Linearize[C, S any](root *transform.Annotated[C, S]) []Entry[C, S] {
	var out []Entry[C, S]
	var visit func(n *transform.Annotated[C, S])
	visit = func(n *transform.Annotated[C, S]) {
		if n.Event.IsUpdate() {
			out = append(out, entry(n, Single))
			return
		}
		out = append(out, entry(n, Start))
		for i := 0; i < n.NumChildren(); i++ {
			visit(n.Child(i))
		}
		out = append(out, entry(n, End))
	}
	visit(root)
	return out
}

// Cursor is a position in the linearized trace. It walks the tree through
// parent links, so the sequence is never materialized.
type Cursor[C, S any] struct {
	root *transform.Annotated[C, S]
	node *transform.Annotated[C, S]
	pos  Position
}

// First returns the cursor at the first position of root.
func First[C, S any](root *transform.Annotated[C, S]) *Cursor[C, S] {
	return &Cursor[C, S]{root: root, node: root, pos: opening(root)}
}

// Last returns the cursor at the last position of root.
func Last[C, S any](root *transform.Annotated[C, S]) *Cursor[C, S] {
	return &Cursor[C, S]{root: root, node: root, pos: closing(root)}
}

// At returns the cursor at (event id, pos) below root, if present.
func At[C, S any](root *transform.Annotated[C, S], id int64, pos Position) (*Cursor[C, S], bool) {
	var found *transform.Annotated[C, S]
	root.Walk(func(n *transform.Annotated[C, S]) bool {
		if found == nil && n.Event.ID == id {
			found = n
		}
		return found == nil
	})
	if found == nil {
		return nil, false
	}
	if found.Event.IsUpdate() {
		pos = Single
	} else if pos == Single {
		return nil, false
	}
	return &Cursor[C, S]{root: root, node: found, pos: pos}, true
}

// Element returns the entry under the cursor.
func (c *Cursor[C, S]) Element() Entry[C, S] { return entry(c.node, c.pos) }

// Successor returns the next position, or false at the end of the trace.
func (c *Cursor[C, S]) Successor() (*Cursor[C, S], bool) {
	if c.pos == Start {
		if c.node.NumChildren() > 0 {
			child := c.node.Child(0)
			return c.at(child, opening(child)), true
		}
		return c.at(c.node, End), true
	}
	if c.node == c.root {
		return nil, false
	}
	parent := c.node.Parent()
	if next := c.node.Index() + 1; next < parent.NumChildren() {
		sibling := parent.Child(next)
		return c.at(sibling, opening(sibling)), true
	}
	return c.at(parent, End), true
}

// Predecessor returns the previous position, or false at the start of the trace.
func (c *Cursor[C, S]) Predecessor() (*Cursor[C, S], bool) {
	if c.pos == End {
		if n := c.node.NumChildren(); n > 0 {
			child := c.node.Child(n - 1)
			return c.at(child, closing(child)), true
		}
		return c.at(c.node, Start), true
	}
	if c.node == c.root {
		return nil, false
	}
	parent := c.node.Parent()
	if prev := c.node.Index() - 1; prev >= 0 {
		sibling := parent.Child(prev)
		return c.at(sibling, closing(sibling)), true
	}
	return c.at(parent, Start), true
}

func (c *Cursor[C, S]) at(n *transform.Annotated[C, S], pos Position) *Cursor[C, S] {
	return &Cursor[C, S]{root: c.root, node: n, pos: pos}
}

// Predicate selects displayable entries.
type Predicate[C, S any] func(Entry[C, S]) bool

// FindNext moves forward from c, excluding c, until pred holds.
func FindNext[C, S any](c *Cursor[C, S], pred Predicate[C, S]) (*Cursor[C, S], bool) {
	for {
		next, ok := c.Successor()
		if !ok {
			return nil, false
		}
		if pred(next.Element()) {
			return next, true
		}
		c = next
	}
}

// FindPrevious moves backward from c, excluding c, until pred holds.
func FindPrevious[C, S any](c *Cursor[C, S], pred Predicate[C, S]) (*Cursor[C, S], bool) {
	for {
		prev, ok := c.Predecessor()
		if !ok {
			return nil, false
		}
		if pred(prev.Element()) {
			return prev, true
		}
		c = prev
	}
}

// Window collects up to n displayable cursors starting at start (inclusive).
// A trace without displayable positions yields an empty window.
func Window[C, S any](start *Cursor[C, S], n int, pred Predicate[C, S]) []*Cursor[C, S] {
	if start == nil || n <= 0 {
		return nil
	}
	c, ok := start, true
	if !pred(c.Element()) {
		c, ok = FindNext(c, pred)
	}
	var out []*Cursor[C, S]
	for ok && len(out) < n {
		out = append(out, c)
		c, ok = FindNext(c, pred)
	}
	return out
}

// WindowBefore collects up to n displayable cursors ending at end (inclusive), in trace order.
func WindowBefore[C, S any](end *Cursor[C, S], n int, pred Predicate[C, S]) []*Cursor[C, S] {
	if end == nil || n <= 0 {
		return nil
	}
	c, ok := end, true
	if !pred(c.Element()) {
		c, ok = FindPrevious(c, pred)
	}
	var out []*Cursor[C, S]
	for ok && len(out) < n {
		out = append(out, c)
		c, ok = FindPrevious(c, pred)
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// Equal reports whether two cursors point at the same position.
func (c *Cursor[C, S]) Equal(o *Cursor[C, S]) bool {
	return c != nil && o != nil && c.node == o.node && c.pos == o.pos
}
