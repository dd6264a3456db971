package tree

import (
	"fmt"

	"jumbotrace/internal/label"
	"jumbotrace/internal/model"
)

// Imbalance is one START/END pairing problem found by CheckBalance.
type Imbalance struct {
	Row     int
	EventID int64
	Reason  string
}

func (i Imbalance) String() string {
	return fmt.Sprintf("row %d: event %d: %s", i.Row, i.EventID, i.Reason)
}

type open struct {
	row int
	id  int64
}

// CheckBalance matches START and END labels with a stack and reports every
// mismatch, where Reconstruct stops at the first one.
func CheckBalance(labels []label.Label) []Imbalance {
	var (
		stack    []open
		problems []Imbalance
	)
	for i, l := range labels {
		switch l.Position {
		case label.Start:
			stack = append(stack, open{row: i, id: l.EventID})
		case label.Call:
			if len(stack) == 0 || stack[len(stack)-1].id != l.EventID {
				problems = append(problems, Imbalance{Row: i, EventID: l.EventID, Reason: "call outside its event"})
			}
		case label.End:
			at := -1
			for k := len(stack) - 1; k >= 0; k-- {
				if stack[k].id == l.EventID {
					at = k
					break
				}
			}
			if at < 0 {
				problems = append(problems, Imbalance{Row: i, EventID: l.EventID, Reason: "end without start"})
				continue
			}
			for k := len(stack) - 1; k > at; k-- {
				problems = append(problems, Imbalance{Row: stack[k].row, EventID: stack[k].id, Reason: fmt.Sprintf("closed implicitly by end of event %d at row %d", l.EventID, i)})
			}
			stack = stack[:at]
		}
	}
	for _, o := range stack {
		problems = append(problems, Imbalance{Row: o.row, EventID: o.id, Reason: "never ended"})
	}
	return problems
}

// Violation is an event nested where the trace grammar does not allow it.
type Violation struct {
	ParentID int64
	ChildID  int64
	Parent   string
	Child    string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s %d cannot contain %s %d", v.Parent, v.ParentID, v.Child, v.ChildID)
}

// KindName is the lower camel case name of an event kind.
func KindName(k model.EventKind) string {
	switch k.(type) {
	case model.Statement:
		return "statement"
	case model.SubStatement:
		return "subStatement"
	case model.Expression:
		return "expression"
	case model.ControlFlow:
		return "controlFlow"
	case model.Update:
		return "update"
	}
	return "unknown"
}

var expressionChildren = map[string]bool{"controlFlow": true, "subStatement": true, "update": true}

var allowedChildren = map[string]map[string]bool{
	"controlFlow":  {"controlFlow": true, "statement": true, "expression": true, "update": true},
	"statement":    expressionChildren,
	"subStatement": expressionChildren,
	"expression":   expressionChildren,
	"update":       {},
}

// Verify walks the tree and reports nesting that breaks the grammar
// flow > statement > subStatement.
func Verify(root *model.Event) []Violation {
	var out []Violation
	root.Walk(func(e *model.Event) bool {
		parent := KindName(e.Kind)
		for _, child := range e.Children() {
			name := KindName(child.Kind)
			if !allowedChildren[parent][name] {
				out = append(out, Violation{ParentID: e.ID, ChildID: child.ID, Parent: parent, Child: name})
			}
		}
		return true
	})
	return out
}
