package label

import (
	"errors"
	"strings"
	"testing"

	"jumbotrace/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const five = `{"dataType":"literal","kind":"int","value":5}`

type mapResolver map[string]model.NodeFormat

func (m mapResolver) Lookup(id string) model.NodeFormat {
	if f, ok := m[id]; ok {
		return f
	}
	return model.Absent{ID: id}
}

func TestParse_Scenario(t *testing.T) {
	raw := `{"trace": [
		["start", 1, "s1", "simple", "statement"],
		["start", 2, "e2", "simple", "expression"],
		["end", 2, "e2", "simple", "expression", {"dataType":"result","value":` + five + `}],
		["update", 3, "u3", "simple", "update", {"dataType":"localIdentifier","name":"x","parent":"s1"}, ` + five + `],
		["end", 1, "s1", "simple", "statement"]
	]}`
	resolver := mapResolver{"s1": model.PresentInSourceCode{ID: "s1", StartLine: 3, EndLine: 3}}

	labels, err := Parse([]byte(raw), resolver)
	require.NoError(t, err)
	require.Len(t, labels, 5)

	assert.Equal(t, Start, labels[0].Position)
	assert.Equal(t, int64(1), labels[0].EventID)
	assert.Equal(t, model.TypeStatement, labels[0].Type)
	assert.IsType(t, model.PresentInSourceCode{}, labels[0].Node)
	assert.Equal(t, model.Absent{ID: "e2"}, labels[1].Node)

	assert.Equal(t, model.Literal{Kind: model.KindInt, Raw: "5"}, labels[2].Result())
	assert.Equal(t, model.Write{
		Identifier: model.LocalIdentifier{Name: "x", Parent: "s1"},
		Value:      model.Literal{Kind: model.KindInt, Raw: "5"},
	}, labels[3].Write())

	// END of a statement/simple with its payload omitted is accepted
	assert.Nil(t, labels[4].Result())
	for i, l := range labels {
		assert.Equal(t, i, l.Index)
	}
}

func TestParse_CallAndWriteEncodings(t *testing.T) {
	raw := `{"trace": [
		["start", 7, "c", "resultCall", "statement"],
		["call", 7, "c", "resultCall", "statement",
			{"dataType":"staticRef","className":{"packageName":"sim","className":"Main"},"version":0},
			{"dataType":"argsValues","values":[` + five + `]}],
		["update", 8, "u", "simple", "update",
			{"dataType":"write","identifier":{"dataType":"localIdentifier","name":"y","parent":"c"},"value":` + five + `}],
		["end", 7, "c", "resultCall", "statement", {"dataType":"result","result":{"dataType":"int","value":6}}]
	]}`

	labels, err := Parse([]byte(raw), nil)
	require.NoError(t, err)
	require.Len(t, labels, 4)

	assert.Equal(t, model.StaticReference{Class: model.ClassName{Package: "sim", Name: "Main"}}, labels[1].Owner())
	assert.Equal(t, []model.Value{model.Literal{Kind: model.KindInt, Raw: "5"}}, labels[1].Args())
	assert.Equal(t, "y", labels[2].Write().Identifier.(model.LocalIdentifier).Name)
	assert.Equal(t, model.Literal{Kind: model.KindInt, Raw: "6"}, labels[3].Result())
}

func TestParse_Malformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		row  int
	}{
		{"not json", `{"trace": [`, -1},
		{"missing trace", `{"events": []}`, -1},
		{"row not array", `{"trace": [{"a":1}]}`, 0},
		{"short row", `{"trace": [["start", 1, "n", "simple"]]}`, 0},
		{"non numeric event id", `{"trace": [["start", "one", "n", "simple", "statement"]]}`, 0},
		{"fractional event id", `{"trace": [["start", 1.5, "n", "simple", "statement"]]}`, 0},
		{"unknown position", `{"trace": [["begin", 1, "n", "simple", "statement"]]}`, 0},
		{"unknown event type", `{"trace": [["start", 1, "n", "simple", "loop"]]}`, 0},
		{"call on simple statement", `{"trace": [["call", 1, "n", "simple", "statement"]]}`, 0},
		{"start on update", `{"trace": [["start", 1, "n", "simple", "update"]]}`, 0},
		{"payload on start", `{"trace": [["start", 1, "n", "simple", "statement", ` + five + `]]}`, 0},
		{"bare value where result expected", `{"trace": [["end", 1, "n", "simple", "expression", ` + five + `]]}`, 0},
		{"update missing value", `{"trace": [["update", 1, "n", "simple", "update", {"dataType":"localIdentifier","name":"x"}]]}`, 0},
		{"call owner is literal", `{"trace": [["call", 1, "n", "callVoid", "statement", ` + five + `, {"dataType":"argsValues","values":[]}]]}`, 0},
		{"invalid payload object", `{"trace": [["start", 1, "n", "simple", "flow"], ["end", 1, "n", "simple", "flow", {"dataType":"nope"}]]}`, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			labels, err := Parse([]byte(tt.raw), nil)
			require.Error(t, err)
			assert.Nil(t, labels)

			var mte *model.MalformedTraceError
			require.True(t, errors.As(err, &mte), "got %T", err)
			assert.Equal(t, tt.row, mte.Row)
		})
	}
}

func TestParseCSV(t *testing.T) {
	csvTrace := strings.Join([]string{
		`start, 1, s1, simple, statement`,
		`update, 2, u2, simple, update, "{""dataType"":""localIdentifier"",""name"":""x""}", "{""dataType"":""int"",""value"":1}"`,
		`end, 1, s1, simple, statement, "{""dataType"":""result"",""value"":{""dataType"":""int"",""value"":1}}"`,
	}, "\n")

	labels, err := ParseCSV(strings.NewReader(csvTrace), nil)
	require.NoError(t, err)
	require.Len(t, labels, 3)
	assert.Equal(t, Update, labels[1].Position)
	assert.Equal(t, "x", labels[1].Write().Identifier.(model.LocalIdentifier).Name)
	assert.Equal(t, model.Literal{Kind: model.KindInt, Raw: "1"}, labels[2].Result())

	t.Run("bad id", func(t *testing.T) {
		_, err := ParseCSV(strings.NewReader(`start, x, s1, simple, statement`), nil)
		var mte *model.MalformedTraceError
		require.True(t, errors.As(err, &mte))
		assert.Equal(t, 0, mte.Row)
	})

	t.Run("trailing empty cells", func(t *testing.T) {
		labels, err := ParseCSV(strings.NewReader("start, 1, s1, simple, statement, , \n"), nil)
		require.NoError(t, err)
		require.Len(t, labels, 1)
		assert.Empty(t, labels[0].Payload)
	})

	t.Run("empty cell inside payload", func(t *testing.T) {
		line := `end, 1, c1, resultCall, statement, , "{""dataType"":""result"",""value"":{""dataType"":""int"",""value"":1}}"`
		_, err := ParseCSV(strings.NewReader(line), nil)
		var mte *model.MalformedTraceError
		require.True(t, errors.As(err, &mte))
		assert.Equal(t, 0, mte.Row)
		assert.Contains(t, mte.Reason, "empty payload cell 5")
	})
}

func TestFieldClass_Membership(t *testing.T) {
	alts, ok := ExpectedFields(model.TypeUpdate, Update)
	require.True(t, ok)
	assert.Len(t, alts, 2)

	_, ok = ExpectedFields(model.TypeFlow, Call)
	assert.False(t, ok)
	assert.True(t, matchesSchema(alts, nil))
}

func TestLabel_Record(t *testing.T) {
	raw := `{"trace": [
		["call", 1, "c1", "resultCall", "statement", {"dataType":"staticRef","className":"sim.Main","version":0}, {"dataType":"argsValues","values":[` + five + `]}],
		["end", 1, "c1", "resultCall", "statement", {"dataType":"result","value":` + five + `}]
	]}`
	labels, err := Parse([]byte(raw), nil)
	require.NoError(t, err)

	call := labels[0].Record()
	assert.Equal(t, "call", call["position"])
	assert.Equal(t, 1, call["eventId"])
	assert.Equal(t, "resultCall", call["subkind"])
	assert.Equal(t, []any{
		map[string]any{"value": "Main"},
		map[string]any{"args": []any{"5"}},
	}, call["payload"])

	end := labels[1].Record()
	assert.Equal(t, []any{map[string]any{"result": "5"}}, end["payload"])
}
