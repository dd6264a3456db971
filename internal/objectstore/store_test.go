package objectstore

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"jumbotrace/internal/model"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boid(version int, x int) string {
	ref := `{"dataType":"instanceRef","className":{"packageName":"sim","className":"Boid"},"pointer":42,"version":` + strconv.Itoa(version) + `}`
	return `{"self":` + ref + `,"fields":[{"identifier":{"dataType":"fieldIdentifier","owner":` + ref + `,"name":"x"},"value":{"dataType":"int","value":` + strconv.Itoa(x) + `}}]}`
}

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(logr.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_LookupLatestVersion(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	n, err := s.Load(ctx, []byte(`{"42-1": `+boid(1, 1)+`, "42-3": `+boid(3, 7)+`}`))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	tests := []struct {
		version int
		wantX   string
	}{
		{1, "1"},
		{2, "1"},
		{3, "7"},
		{9, "7"},
	}
	for _, tt := range tests {
		snap, err := s.Lookup(ctx, 42, tt.version)
		require.NoError(t, err, "version %d", tt.version)
		obj, ok := snap.(ObjectData)
		require.True(t, ok)
		require.Len(t, obj.Fields, 1)
		assert.Equal(t, model.Literal{Kind: model.KindInt, Raw: tt.wantX}, obj.Fields[0].Value, "version %d", tt.version)
		assert.Equal(t, "x", obj.Fields[0].Identifier.(model.FieldIdentifier).Name)
	}

	t.Run("before first version", func(t *testing.T) {
		_, err := s.Lookup(ctx, 42, 0)
		assert.True(t, errors.Is(err, ErrNotFound))
	})
	t.Run("unknown pointer", func(t *testing.T) {
		_, err := s.Lookup(ctx, 7, 3)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestStore_ArraysAndListForm(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	doc := `[{"self":{"dataType":"arrayRef","elementType":"int","pointer":5,"version":2},"values":[{"dataType":"int","value":1},{"dataType":"int","value":2}]}]`
	_, err := s.Load(ctx, []byte(doc))
	require.NoError(t, err)

	snap, err := s.LookupValue(ctx, model.ArrayReference{ElementType: "int", Pointer: 5, Version: 4})
	require.NoError(t, err)
	arr, ok := snap.(ArrayData)
	require.True(t, ok)
	assert.Equal(t, int64(5), arr.Self.Pointer)
	assert.Len(t, arr.Values, 2)

	_, err = s.LookupValue(ctx, model.Literal{Kind: model.KindInt, Raw: "5"})
	assert.ErrorIs(t, err, ErrNotFound)

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestStore_LoadRejects(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	_, err := s.Load(ctx, []byte(`[{"self":{"dataType":"int","value":1}}]`))
	assert.Error(t, err)
	_, err = s.Load(ctx, []byte(`[`))
	assert.Error(t, err)

	n, err := s.Load(ctx, []byte(""))
	require.NoError(t, err)
	assert.Zero(t, n)

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count, "a failed load leaves nothing behind")
}
