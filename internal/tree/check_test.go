package tree

import (
	"testing"

	"jumbotrace/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckBalance(t *testing.T) {
	t.Run("balanced", func(t *testing.T) {
		assert.Empty(t, CheckBalance(parse(t, scenarioRows...)))
	})

	t.Run("reports every problem", func(t *testing.T) {
		labels := parse(t,
			`["start", 1, "s", "simple", "statement"]`,
			`["start", 2, "e", "simple", "expression"]`,
			`["end", 1, "s", "simple", "statement"]`,
			`["end", 7, "s", "simple", "statement"]`,
			`["call", 8, "c", "callVoid", "statement"]`,
			`["start", 3, "f", "simple", "flow"]`,
		)
		problems := CheckBalance(labels)
		require.Len(t, problems, 4)
		assert.Equal(t, Imbalance{Row: 1, EventID: 2, Reason: "closed implicitly by end of event 1 at row 2"}, problems[0])
		assert.Equal(t, Imbalance{Row: 3, EventID: 7, Reason: "end without start"}, problems[1])
		assert.Equal(t, Imbalance{Row: 4, EventID: 8, Reason: "call outside its event"}, problems[2])
		assert.Equal(t, Imbalance{Row: 5, EventID: 3, Reason: "never ended"}, problems[3])
		assert.Equal(t, "row 5: event 3: never ended", problems[3].String())
	})
}

func TestVerify(t *testing.T) {
	root, err := Build(parse(t, scenarioRows...))
	require.NoError(t, err)
	assert.Empty(t, Verify(root))

	inner := model.NewEvent(3, model.Absent{}, model.TypeStatement, model.Statement{}, nil)
	bad := model.NewEvent(1, model.Absent{}, model.TypeStatement, model.Statement{}, []model.Execution{inner})
	violations := Verify(bad)
	require.Len(t, violations, 1)
	assert.Equal(t, "statement 1 cannot contain statement 3", violations[0].String())
}
