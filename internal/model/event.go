package model

import "slices"

// EventType is the (kind, subkind) pair a label declares.
type EventType struct {
	Kind    string
	Subkind string
}

func (t EventType) String() string { return t.Kind + "/" + t.Subkind }

var (
	TypeStatement  = EventType{Kind: "statement", Subkind: "simple"}
	TypeCallVoid   = EventType{Kind: "statement", Subkind: "callVoid"}
	TypeResultCall = EventType{Kind: "statement", Subkind: "resultCall"}
	TypeFlow       = EventType{Kind: "flow", Subkind: "simple"}
	TypeUpdate     = EventType{Kind: "update", Subkind: "simple"}
	TypeExpression = EventType{Kind: "expression", Subkind: "simple"}
)

// IsCall reports whether t is one of the call statement types.
func (t EventType) IsCall() bool {
	return t == TypeCallVoid || t == TypeResultCall
}

// EventKind classifies a reconstructed Event.
// Implementations: Statement, SubStatement, ControlFlow, Update, Expression.
type EventKind interface {
	isEventKind()
}

type (
	// Statement is a top-level statement of a block.
	Statement struct{}
	// SubStatement is an expression nested inside another event.
	SubStatement struct{}
	// Expression is an expression event that has no enclosing event.
	Expression struct{}
	// ControlFlow is a scope boundary such as a block or a function body.
	ControlFlow struct {
		Context FlowContext
	}
	// Update is a leaf carrying one write.
	Update struct {
		Write Write
	}
)

func (Statement) isEventKind()    {}
func (SubStatement) isEventKind() {}
func (Expression) isEventKind()   {}
func (ControlFlow) isEventKind()  {}
func (Update) isEventKind()       {}

// FlowContext says what kind of scope a ControlFlow opens.
// Implementations: DefaultContext, FunctionContext.
type FlowContext interface {
	isFlowContext()
}

// DefaultContext is a plain block.
type DefaultContext struct{}

// FunctionContext is the body of a called function.
type FunctionContext struct {
	Name string
}

func (DefaultContext) isFlowContext()  {}
func (FunctionContext) isFlowContext() {}

// Execution is one child of an Event: either a nested *Event or an ExecutionStep.
type Execution interface {
	isExecution()
}

// Event is a node of the reconstructed trace tree.
type Event struct {
	ID   int64
	Node NodeFormat
	Type EventType
	Kind EventKind

	executions []Execution
}

// NewEvent builds an event owning a copy of executions.
func NewEvent(id int64, node NodeFormat, typ EventType, kind EventKind, executions []Execution) *Event {
	return &Event{
		ID:         id,
		Node:       node,
		Type:       typ,
		Kind:       kind,
		executions: slices.Clone(executions),
	}
}

func (*Event) isExecution() {}

// Executions returns a copy of the event's children in trace order.
func (e *Event) Executions() []Execution {
	return slices.Clone(e.executions)
}

// Children returns only the nested events, in trace order.
func (e *Event) Children() []*Event {
	var out []*Event
	for _, ex := range e.executions {
		if child, ok := ex.(*Event); ok {
			out = append(out, child)
		}
	}
	return out
}

// Step returns the first execution step of the event, if any.
func (e *Event) Step() (ExecutionStep, bool) {
	for _, ex := range e.executions {
		if s, ok := ex.(ExecutionStep); ok {
			return s, true
		}
	}
	return ExecutionStep{}, false
}

// IsControlFlow reports whether e opens a new scope.
func (e *Event) IsControlFlow() bool {
	_, ok := e.Kind.(ControlFlow)
	return ok
}

// IsUpdate reports whether e is a write leaf.
func (e *Event) IsUpdate() bool {
	_, ok := e.Kind.(Update)
	return ok
}

// Walk visits e and its descendant events in pre-order.
// Returning false from fn skips the children of that event.
func (e *Event) Walk(fn func(*Event) bool) {
	if !fn(e) {
		return
	}
	for _, ex := range e.executions {
		if child, ok := ex.(*Event); ok {
			child.Walk(fn)
		}
	}
}

// ExecutionStep is a leaf execution: the evaluation of an expression or a call.
type ExecutionStep struct {
	Node NodeFormat
	Kind StepKind
}

func (ExecutionStep) isExecution() {}

// StepKind is the payload of an ExecutionStep.
// Implementations: SimpleExpression, Call, VoidCall.
type StepKind interface {
	isStepKind()
}

// SimpleExpression is an evaluated expression. Result is nil when unknown.
type SimpleExpression struct {
	Result Value
	Writes []Write
}

// Call is a call returning Result on Owner.
type Call struct {
	Owner  Reference
	Args   []Value
	Result Value
}

// VoidCall is a call without a result.
type VoidCall struct {
	Owner Reference
	Args  []Value
}

func (SimpleExpression) isStepKind() {}
func (Call) isStepKind()             {}
func (VoidCall) isStepKind()         {}

// Writes returns the writes attached to a step; only simple expressions carry them.
func (s ExecutionStep) Writes() []Write {
	if se, ok := s.Kind.(SimpleExpression); ok {
		return se.Writes
	}
	return nil
}

// Args returns the argument values of a call step.
func (s ExecutionStep) Args() []Value {
	switch k := s.Kind.(type) {
	case Call:
		return k.Args
	case VoidCall:
		return k.Args
	}
	return nil
}
