package display

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"jumbotrace/internal/model"
	"jumbotrace/internal/objectstore"
	"jumbotrace/internal/traceview"
	"jumbotrace/internal/transform"
)

// ObjectResolver resolves heap references to their recorded snapshots.
type ObjectResolver interface {
	LookupValue(ctx context.Context, v model.Value) (objectstore.Snapshot, error)
}

// Document is one rendered trace: the annotated tree, its view projection and
// the display modes the views depend on.
type Document struct {
	Root       *Annotated
	Projection *Projection
	Modes      *Modes
	Renderer   *Renderer
	Objects    ObjectResolver

	view transform.ViewFunc[ItemContext, ItemState, ViewEvent]
}

// NewDocument annotates root and projects its initial views.
func NewDocument(root *model.Event, r *Renderer, expandFunctions bool) *Document {
	annotated := Annotate(root)
	modes := NewModes(annotated, expandFunctions)
	view := r.ViewFunc(modes)
	return &Document{
		Root:       annotated,
		Projection: transform.Project(annotated, view),
		Modes:      modes,
		Renderer:   r,
		view:       view,
	}
}

// Toggle expands or collapses an event and re-renders the affected subtree.
func (d *Document) Toggle(id int64) bool {
	n, ok := d.Projection.Node(id)
	if !ok || !d.Modes.Toggle(n) {
		return false
	}
	d.Projection.Recompute(id, d.view)
	// Recompute leaves flow views alone; function headers depend on modes too.
	n.Walk(func(c *Annotated) bool {
		if isFunction(c.Event) {
			d.Projection.Refresh(c.Event.ID, d.view)
		}
		return true
	})
	return true
}

// Lines returns what the entry displays.
func (d *Document) Lines(e Entry) []Line {
	v, _ := d.Projection.View(e.Event.ID)
	if e.Pos == traceview.Start {
		return v.Start
	}
	return v.End
}

// Displayable reports whether the entry shows at least one line.
func (d *Document) Displayable(e Entry) bool {
	return len(d.Lines(e)) > 0
}

// First returns the first displayable position, or nil for an empty view.
func (d *Document) First() *Cursor {
	return d.seek(traceview.First(d.Root), traceview.FindNext[ItemContext, ItemState])
}

// Last returns the last displayable position, or nil for an empty view.
func (d *Document) Last() *Cursor {
	return d.seek(traceview.Last(d.Root), traceview.FindPrevious[ItemContext, ItemState])
}

func (d *Document) seek(c *Cursor, find func(*Cursor, traceview.Predicate[ItemContext, ItemState]) (*Cursor, bool)) *Cursor {
	if d.Displayable(c.Element()) {
		return c
	}
	next, ok := find(c, d.Displayable)
	if !ok {
		return nil
	}
	return next
}

// Next and Prev step to the adjacent displayable position.
func (d *Document) Next(c *Cursor) (*Cursor, bool) { return traceview.FindNext(c, d.Displayable) }
func (d *Document) Prev(c *Cursor) (*Cursor, bool) { return traceview.FindPrevious(c, d.Displayable) }

// Window returns up to n displayable positions starting at c.
func (d *Document) Window(c *Cursor, n int) []*Cursor {
	return traceview.Window(c, n, d.Displayable)
}

// WindowBefore returns up to n displayable positions ending at c.
func (d *Document) WindowBefore(c *Cursor, n int) []*Cursor {
	return traceview.WindowBefore(c, n, d.Displayable)
}

// Text renders the whole visible document without styles.
func (d *Document) Text() string {
	var b strings.Builder
	for c := d.First(); c != nil; {
		for _, l := range d.Lines(c.Element()) {
			b.WriteString(d.Renderer.Plain(l))
			b.WriteString("\n")
		}
		next, ok := d.Next(c)
		if !ok {
			break
		}
		c = next
	}
	return b.String()
}

// Inspect describes the heap objects referenced by an event's step and writes.
func (d *Document) Inspect(ctx context.Context, e Entry) []string {
	var refs []model.Value
	if step, ok := e.Event.Step(); ok {
		switch k := step.Kind.(type) {
		case model.SimpleExpression:
			refs = append(refs, k.Result)
		case model.Call:
			refs = append(refs, k.Owner, k.Result)
			refs = append(refs, k.Args...)
		case model.VoidCall:
			refs = append(refs, k.Owner)
			refs = append(refs, k.Args...)
		}
	}
	for _, w := range e.State.Writes {
		refs = append(refs, w.Value)
	}

	var out []string
	seen := make(map[model.Value]bool)
	for _, v := range refs {
		switch v.(type) {
		case model.InstanceReference, model.ArrayReference:
		default:
			continue
		}
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, d.describe(ctx, v)...)
	}
	return out
}

func (d *Document) describe(ctx context.Context, v model.Value) []string {
	head := model.DescribeValue(v)
	if d.Objects == nil {
		return []string{head + ": " + objectstore.ErrNotFound.Error()}
	}
	snap, err := d.Objects.LookupValue(ctx, v)
	if errors.Is(err, objectstore.ErrNotFound) {
		return []string{head + ": " + objectstore.ErrNotFound.Error()}
	}
	if err != nil {
		return []string{fmt.Sprintf("%s: %v", head, err)}
	}

	return DescribeSnapshot(head, snap)
}

// DescribeSnapshot lists the fields or elements of a snapshot below head.
func DescribeSnapshot(head string, snap objectstore.Snapshot) []string {
	lines := []string{head}
	switch s := snap.(type) {
	case objectstore.ObjectData:
		for _, f := range s.Fields {
			name := fmt.Sprint(f.Identifier)
			if fi, ok := f.Identifier.(model.FieldIdentifier); ok {
				name = fi.Name
			}
			lines = append(lines, fmt.Sprintf("  %s = %s", name, model.DescribeValue(f.Value)))
		}
	case objectstore.ArrayData:
		for i, val := range s.Values {
			lines = append(lines, fmt.Sprintf("  [%d] = %s", i, model.DescribeValue(val)))
		}
	}
	return lines
}
