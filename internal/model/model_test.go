package model

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvent_ExecutionsAreCopies(t *testing.T) {
	step := ExecutionStep{Node: Absent{ID: "n"}, Kind: SimpleExpression{}}
	child := NewEvent(2, Absent{ID: "c"}, TypeExpression, SubStatement{}, []Execution{step})
	execs := []Execution{step, child}
	e := NewEvent(1, Absent{ID: "n"}, TypeStatement, Statement{}, execs)

	execs[1] = step
	assert.Len(t, e.Children(), 1, "mutating the input slice must not leak into the event")

	got := e.Executions()
	got[0] = child
	_, isStep := e.Executions()[0].(ExecutionStep)
	assert.True(t, isStep, "mutating the returned slice must not leak into the event")
}

func TestEvent_Walk(t *testing.T) {
	leaf := NewEvent(3, Absent{}, TypeUpdate, Update{}, nil)
	flow := NewEvent(2, Absent{}, TypeFlow, ControlFlow{Context: DefaultContext{}}, []Execution{leaf})
	root := NewEvent(1, Absent{}, TypeStatement, Statement{}, []Execution{flow})

	var seen []int64
	root.Walk(func(e *Event) bool {
		seen = append(seen, e.ID)
		return true
	})
	assert.Equal(t, []int64{1, 2, 3}, seen)

	seen = nil
	root.Walk(func(e *Event) bool {
		seen = append(seen, e.ID)
		return !e.IsControlFlow()
	})
	assert.Equal(t, []int64{1, 2}, seen)
}

func TestPresentInSourceCode_Text(t *testing.T) {
	p := PresentInSourceCode{
		ID: "Main.java-3:9-3:18",
		Tokens: []Token{
			{Kind: TokenChild, Text: "x", ChildIndex: 0},
			{Kind: TokenText, Text: " = "},
			{Kind: TokenLineStart},
			{Kind: TokenChild, Text: "f(1)", ChildIndex: 1},
		},
	}
	assert.Equal(t, "x = f(1)", p.Text())
	assert.Equal(t, 9, p.StartColumn())
	assert.Equal(t, -1, PresentInSourceCode{ID: "broken"}.StartColumn())
}

func TestValues_String(t *testing.T) {
	tests := []struct {
		v    fmt.Stringer
		want string
	}{
		{Literal{Kind: KindInt, Raw: "5"}, "5"},
		{Literal{Kind: KindString, Raw: "hi"}, `"hi"`},
		{Literal{Kind: KindChar, Raw: "c"}, "'c'"},
		{Literal{Kind: KindNull}, "null"},
		{InstanceReference{Class: ClassName{Package: "p", Name: "Boid"}, Pointer: 42}, "Boid$42"},
		{ArrayReference{ElementType: "int", Pointer: 7}, "int[]$7"},
		{FieldIdentifier{Owner: StaticReference{Class: ClassName{Name: "Main"}}, Name: "count"}, "Main.count"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.v.String())
	}
	assert.Equal(t, ClassName{Package: "a.b", Name: "C"}, ParseClassName("a.b.C"))
	assert.Equal(t, ClassName{Name: "C"}, ParseClassName("C"))
}

func TestMalformedTraceError(t *testing.T) {
	cause := errors.New("bad json")
	err := fmt.Errorf("load: %w", &MalformedTraceError{Row: 4, Reason: "payload", Err: cause})

	var mte *MalformedTraceError
	require.True(t, errors.As(err, &mte))
	assert.Equal(t, 4, mte.Row)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "malformed trace: row 4: payload: bad json", mte.Error())
	assert.Equal(t, "malformed trace: unexpected end", Malformed(-1, "unexpected %s", "end").Error())
}
