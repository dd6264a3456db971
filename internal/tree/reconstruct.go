package tree

import (
	"fmt"

	"jumbotrace/internal/label"
	"jumbotrace/internal/model"
	"jumbotrace/internal/sourceformat"

	"github.com/go-logr/logr"
)

// FunctionNamer names the function whose body a call statement enters.
type FunctionNamer interface {
	FunctionName(call model.NodeFormat) string
}

type options struct {
	namer FunctionNamer
	log   logr.Logger
}

// Option configures reconstruction.
type Option func(*options)

// WithFunctionNamer sets how function bodies are named.
func WithFunctionNamer(n FunctionNamer) Option {
	return func(o *options) { o.namer = n }
}

// WithLogger sets the logger.
func WithLogger(log logr.Logger) Option {
	return func(o *options) { o.log = log }
}

type reconstructor struct {
	labels []label.Label
	options
}

// parent is what a child needs to know about the event enclosing it.
type parent struct {
	typ  model.EventType
	node model.NodeFormat
}

// Build reconstructs the whole trace. The root event must span every label.
func Build(labels []label.Label, opts ...Option) (*model.Event, error) {
	if len(labels) == 0 {
		return nil, model.Malformed(-1, "empty trace")
	}
	root, last, err := Reconstruct(labels, 0, opts...)
	if err != nil {
		return nil, err
	}
	if last != len(labels)-1 {
		return nil, model.Malformed(last+1, "label after the end of root event %d", root.ID)
	}
	return root, nil
}

// Reconstruct builds the event whose first label is labels[start]. It returns
// the event and the index of its last label.
func Reconstruct(labels []label.Label, start int, opts ...Option) (*model.Event, int, error) {
	r := &reconstructor{labels: labels, options: options{namer: sourceformat.TextNamer{}, log: logr.Discard()}}
	for _, opt := range opts {
		opt(&r.options)
	}
	ev, last, err := r.event(start, nil)
	if err != nil {
		return nil, 0, err
	}
	r.log.V(1).Info("reconstructed event", "id", ev.ID, "labels", last-start+1)
	return ev, last, nil
}

func (r *reconstructor) event(i int, enclosing *parent) (*model.Event, int, error) {
	if i < 0 || i >= len(r.labels) {
		return nil, 0, model.Malformed(-1, "no label at index %d", i)
	}
	first := r.labels[i]
	switch first.Position {
	case label.Update:
		return model.NewEvent(first.EventID, first.Node, first.Type, model.Update{Write: first.Write()}, nil), i, nil
	case label.Start:
	default:
		return nil, 0, model.Malformed(i, "event %d opens with a %s label", first.EventID, first.Position)
	}

	self := &parent{typ: first.Type, node: first.Node}
	var (
		call, end *label.Label
		children  []model.Execution
		writes    []model.Write
	)

	j := i + 1
	for ; j < len(r.labels); j++ {
		next := r.labels[j]
		switch next.Position {
		case label.Call:
			if next.EventID != first.EventID {
				return nil, 0, model.Malformed(j, "call label of event %d inside event %d", next.EventID, first.EventID)
			}
			call = &r.labels[j]
		case label.Start, label.Update:
			child, last, err := r.event(j, self)
			if err != nil {
				return nil, 0, err
			}
			children = append(children, child)
			if u, ok := child.Kind.(model.Update); ok {
				writes = append(writes, u.Write)
			}
			j = last
		case label.End:
			if next.EventID != first.EventID {
				return nil, 0, model.Malformed(j, "end of event %d while event %d is open", next.EventID, first.EventID)
			}
			end = &r.labels[j]
		}
		if end != nil {
			break
		}
	}
	if end == nil {
		return nil, 0, model.Malformed(i, "event %d never ends", first.EventID)
	}
	if end.Type != first.Type {
		return nil, 0, model.Malformed(j, "event %d starts as %s but ends as %s", first.EventID, first.Type, end.Type)
	}
	if call != nil && call.Type != first.Type {
		return nil, 0, model.Malformed(call.Index, "event %d starts as %s but is called as %s", first.EventID, first.Type, call.Type)
	}

	kind, step := r.materialize(first, call, end, writes, enclosing)
	executions := make([]model.Execution, 0, len(children)+1)
	if step != nil {
		executions = append(executions, *step)
	}
	executions = append(executions, children...)
	return model.NewEvent(first.EventID, first.Node, first.Type, kind, executions), j, nil
}

// materialize turns the collected START/CALL/END slots into the event kind and
// its single execution step. A call statement yields one Call step.
func (r *reconstructor) materialize(start label.Label, call, end *label.Label, writes []model.Write, enclosing *parent) (model.EventKind, *model.ExecutionStep) {
	step := func(k model.StepKind) *model.ExecutionStep {
		return &model.ExecutionStep{Node: start.Node, Kind: k}
	}

	switch start.Type {
	case model.TypeResultCall:
		c := model.Call{Result: end.Result()}
		if call != nil {
			c.Owner, c.Args = call.Owner(), call.Args()
		}
		return model.Statement{}, step(c)
	case model.TypeCallVoid:
		c := model.VoidCall{}
		if call != nil {
			c.Owner, c.Args = call.Owner(), call.Args()
		}
		return model.Statement{}, step(c)
	case model.TypeExpression:
		expr := step(model.SimpleExpression{Result: end.Result(), Writes: writes})
		if enclosing == nil {
			return model.Expression{}, expr
		}
		return model.SubStatement{}, expr
	case model.TypeFlow:
		return model.ControlFlow{Context: r.flowContext(start, enclosing)}, nil
	default:
		return model.Statement{}, step(model.SimpleExpression{Result: end.Result(), Writes: writes})
	}
}

// flowContext marks a flow directly inside a call statement as that call's function body.
func (r *reconstructor) flowContext(start label.Label, enclosing *parent) model.FlowContext {
	if enclosing == nil || !enclosing.typ.IsCall() {
		return model.DefaultContext{}
	}
	name := ""
	if r.namer != nil {
		name = r.namer.FunctionName(enclosing.node)
	}
	if name == "" && enclosing.node != nil {
		name = enclosing.node.Identifier()
	}
	if name == "" {
		name = fmt.Sprintf("event %d", start.EventID)
	}
	return model.FunctionContext{Name: name}
}
