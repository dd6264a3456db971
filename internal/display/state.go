package display

import (
	"jumbotrace/internal/model"
	"jumbotrace/internal/traceview"
	"jumbotrace/internal/transform"
)

// ItemContext is inherited top-down: the indentation level of an event.
type ItemContext struct {
	Indent int
}

// ItemState is synthesized bottom-up: the writes performed within an event's scope.
type ItemState struct {
	Writes []model.Write
}

type (
	Annotated  = transform.Annotated[ItemContext, ItemState]
	Projection = transform.Projection[ItemContext, ItemState, ViewEvent]
	Entry      = traceview.Entry[ItemContext, ItemState]
	Cursor     = traceview.Cursor[ItemContext, ItemState]
)

// Propagate indents the children of control flow one level deeper.
func Propagate(e *model.Event, ctx ItemContext) ItemContext {
	if e.IsControlFlow() {
		return ItemContext{Indent: ctx.Indent + 1}
	}
	return ctx
}

// Aggregate collects writes. An update contributes its own write. A statement
// starts with the writes of its step; when that step already gathered the
// statement's update children, their states are not counted twice.
func Aggregate(e *model.Event, states []ItemState) ItemState {
	switch k := e.Kind.(type) {
	case model.Update:
		return ItemState{Writes: []model.Write{k.Write}}
	case model.Statement, model.SubStatement, model.Expression:
		var writes []model.Write
		gathered := false
		if step, ok := e.Step(); ok {
			writes = append(writes, step.Writes()...)
			_, gathered = step.Kind.(model.SimpleExpression)
		}
		for i, src := range transform.StateSources(e) {
			if gathered && src.IsUpdate() {
				continue
			}
			writes = append(writes, states[i].Writes...)
		}
		return ItemState{Writes: writes}
	default:
		var writes []model.Write
		for _, s := range states {
			writes = append(writes, s.Writes...)
		}
		return ItemState{Writes: writes}
	}
}

// Annotate runs the transform with the display context and state.
func Annotate(root *model.Event) *Annotated {
	return transform.Transform(root, ItemContext{}, Aggregate, Propagate)
}
