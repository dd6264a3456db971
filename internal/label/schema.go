package label

import (
	"fmt"

	"jumbotrace/internal/model"
	"jumbotrace/internal/wire"
)

// Position is where in its event's lifetime a label was emitted.
type Position int

const (
	Start Position = iota
	Call
	Update
	End
)

var positionNames = map[string]Position{
	"start":  Start,
	"call":   Call,
	"update": Update,
	"end":    End,
}

func (p Position) String() string {
	switch p {
	case Start:
		return "start"
	case Call:
		return "call"
	case Update:
		return "update"
	case End:
		return "end"
	}
	return fmt.Sprintf("Position(%d)", int(p))
}

// ParsePosition maps the wire name of a position.
func ParsePosition(s string) (Position, bool) {
	p, ok := positionNames[s]
	return p, ok
}

// FieldClass is the expected category of one payload field.
type FieldClass int

const (
	ClassResult FieldClass = iota
	ClassArgs
	ClassReference
	ClassIdentifier
	ClassValue
	ClassWrite
)

func (c FieldClass) String() string {
	return [...]string{"result", "args", "reference", "identifier", "value", "write"}[c]
}

// Accepts reports whether f is a member of class c.
func (c FieldClass) Accepts(f wire.Field) bool {
	switch c {
	case ClassResult:
		_, ok := f.(wire.ResultField)
		return ok
	case ClassArgs:
		_, ok := f.(wire.ArgsField)
		return ok
	case ClassReference:
		vf, ok := f.(wire.ValueField)
		if !ok {
			return false
		}
		_, ok = vf.Value.(model.Reference)
		return ok
	case ClassIdentifier:
		_, ok := f.(wire.IdentifierField)
		return ok
	case ClassValue:
		_, ok := f.(wire.ValueField)
		return ok
	case ClassWrite:
		_, ok := f.(wire.WriteField)
		return ok
	}
	return false
}

type schemaKey struct {
	Type     model.EventType
	Position Position
}

// eventTypes is the closed set of (kind, subkind) pairs.
var eventTypes = map[model.EventType]struct{}{
	model.TypeStatement:  {},
	model.TypeCallVoid:   {},
	model.TypeResultCall: {},
	model.TypeFlow:       {},
	model.TypeUpdate:     {},
	model.TypeExpression: {},
}

// payloadSchema lists, for every legal (type, position), the accepted field sequences.
var payloadSchema = map[schemaKey][][]FieldClass{
	{model.TypeStatement, Start}: {{}},
	{model.TypeStatement, End}:   {{ClassResult}},

	{model.TypeCallVoid, Start}: {{}},
	{model.TypeCallVoid, Call}:  {{ClassReference, ClassArgs}},
	{model.TypeCallVoid, End}:   {{}},

	{model.TypeResultCall, Start}: {{}},
	{model.TypeResultCall, Call}:  {{ClassReference, ClassArgs}},
	{model.TypeResultCall, End}:   {{ClassResult}},

	{model.TypeFlow, Start}: {{}},
	{model.TypeFlow, End}:   {{}},

	{model.TypeExpression, Start}: {{}},
	{model.TypeExpression, End}:   {{ClassResult}},

	{model.TypeUpdate, Update}: {{ClassIdentifier, ClassValue}, {ClassWrite}},
}

// IsEventType reports whether t is a recognized event type.
func IsEventType(t model.EventType) bool {
	_, ok := eventTypes[t]
	return ok
}

// ExpectedFields returns the accepted payload sequences for (t, p);
// ok is false when p is not a legal position for t.
func ExpectedFields(t model.EventType, p Position) (alternatives [][]FieldClass, ok bool) {
	alternatives, ok = payloadSchema[schemaKey{Type: t, Position: p}]
	return alternatives, ok
}

// matchesSchema applies the arity and class check. An empty payload always passes.
func matchesSchema(alternatives [][]FieldClass, fields []wire.Field) bool {
	if len(fields) == 0 {
		return true
	}
	for _, alt := range alternatives {
		if len(alt) != len(fields) {
			continue
		}
		ok := true
		for i, class := range alt {
			if !class.Accepts(fields[i]) {
				ok = false
				break
			}
		}
		if ok {
			return true
		}
	}
	return false
}
