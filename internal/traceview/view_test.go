package traceview

import (
	"testing"

	"jumbotrace/internal/model"
	"jumbotrace/internal/transform"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pos struct {
	id  int64
	pos Position
}

func ev(id int64, kind model.EventKind, children ...model.Execution) *model.Event {
	return model.NewEvent(id, model.Absent{}, model.TypeStatement, kind, children)
}

func annotate(root *model.Event) *transform.Annotated[int, int] {
	return transform.Transform(root, 0,
		func(e *model.Event, states []int) int { return len(states) },
		func(e *model.Event, ctx int) int { return ctx + 1 },
	)
}

// Flow 1 { Statement 2 { Update 3 }, Statement 4, Update 5 }
func sample() *transform.Annotated[int, int] {
	return annotate(ev(1, model.ControlFlow{Context: model.DefaultContext{}},
		ev(2, model.Statement{},
			model.ExecutionStep{Kind: model.SimpleExpression{}},
			ev(3, model.Update{}),
		),
		ev(4, model.Statement{}),
		ev(5, model.Update{}),
	))
}

func positions(entries []Entry[int, int]) []pos {
	var out []pos
	for _, e := range entries {
		out = append(out, pos{e.Event.ID, e.Pos})
	}
	return out
}

func TestLinearize(t *testing.T) {
	want := []pos{
		{1, Start}, {2, Start}, {3, Single}, {2, End}, {4, Start}, {4, End}, {5, Single}, {1, End},
	}
	assert.Equal(t, want, positions(Linearize(sample())))
}

func TestCursor_RoundTrip(t *testing.T) {
	root := sample()
	linear := positions(Linearize(root))

	var forward []Entry[int, int]
	for c, ok := First(root), true; ok; c, ok = c.Successor() {
		forward = append(forward, c.Element())
	}
	assert.Equal(t, linear, positions(forward))

	var backward []pos
	for c, ok := Last(root), true; ok; c, ok = c.Predecessor() {
		backward = append(backward, pos{c.Element().Event.ID, c.Element().Pos})
	}
	require.Len(t, backward, len(linear))
	for i := range linear {
		assert.Equal(t, linear[i], backward[len(backward)-1-i])
	}
}

func TestCursor_Boundaries(t *testing.T) {
	root := sample()

	_, ok := First(root).Predecessor()
	assert.False(t, ok)
	_, ok = Last(root).Successor()
	assert.False(t, ok)

	t.Run("single update root", func(t *testing.T) {
		leaf := annotate(ev(9, model.Update{}))
		c := First(leaf)
		assert.Equal(t, Single, c.Element().Pos)
		assert.True(t, c.Equal(Last(leaf)))
		_, ok := c.Successor()
		assert.False(t, ok)
		_, ok = c.Predecessor()
		assert.False(t, ok)
	})

	t.Run("subtree root is a boundary", func(t *testing.T) {
		sub := root.Child(0)
		start, ok := At(root, 2, Start)
		require.True(t, ok)
		inner := &Cursor[int, int]{root: sub, node: sub, pos: Start}
		_, ok = inner.Predecessor()
		assert.False(t, ok)
		prev, ok := start.Predecessor()
		require.True(t, ok)
		assert.Equal(t, pos{1, Start}, pos{prev.Element().Event.ID, prev.Element().Pos})
	})
}

func TestFind(t *testing.T) {
	root := sample()
	isEnd := func(e Entry[int, int]) bool { return e.Pos == End }

	c, ok := FindNext(First(root), isEnd)
	require.True(t, ok)
	assert.Equal(t, int64(2), c.Element().Event.ID)

	c, ok = FindPrevious(Last(root), isEnd)
	require.True(t, ok)
	assert.Equal(t, int64(4), c.Element().Event.ID, "the starting position itself is excluded")

	never := func(Entry[int, int]) bool { return false }
	_, ok = FindNext(First(root), never)
	assert.False(t, ok)
	_, ok = FindPrevious(Last(root), never)
	assert.False(t, ok)
}

func TestWindow(t *testing.T) {
	root := sample()
	starts := func(e Entry[int, int]) bool { return e.Pos != End }

	w := Window(First(root), 3, starts)
	require.Len(t, w, 3)
	assert.Equal(t, int64(1), w[0].Element().Event.ID)
	assert.Equal(t, int64(3), w[2].Element().Event.ID)

	end := WindowBefore(Last(root), 2, starts)
	require.Len(t, end, 2)
	assert.Equal(t, int64(4), end[0].Element().Event.ID)
	assert.Equal(t, int64(5), end[1].Element().Event.ID)

	assert.Empty(t, Window(First(root), 10, func(Entry[int, int]) bool { return false }))
	assert.Nil(t, Window[int, int](nil, 3, starts))
}

func TestAt(t *testing.T) {
	root := sample()
	c, ok := At(root, 3, Start)
	require.True(t, ok)
	assert.Equal(t, Single, c.Element().Pos)

	_, ok = At(root, 4, Single)
	assert.False(t, ok)
	_, ok = At(root, 42, Start)
	assert.False(t, ok)

	e := c.Element()
	assert.Equal(t, 2, e.Context)
	assert.Same(t, root.Child(0).Child(0), e.Node)
}
