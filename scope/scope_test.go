package scope_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/takoeight0821/kaleido/scope"
)

func TestLookup(t *testing.T) {
	t.Parallel()

	table := scope.NewTable[int]()
	table.Define("x", 1)

	value, ok := table.Lookup("x")
	require.True(t, ok)
	assert.Equal(t, 1, value)

	_, ok = table.Lookup("y")
	assert.False(t, ok)
}

func TestShadowAndRestore(t *testing.T) {
	t.Parallel()

	table := scope.NewTable[int]()
	table.Define("x", 1)

	table.Enter()
	table.Define("x", 2)
	value, ok := table.Lookup("x")
	require.True(t, ok)
	assert.Equal(t, 2, value)
	table.Leave()

	value, ok = table.Lookup("x")
	require.True(t, ok)
	assert.Equal(t, 1, value, "leaving the scope must restore the shadowed binding")
}

func TestShadowWithinOneScope(t *testing.T) {
	t.Parallel()

	table := scope.NewTable[int]()
	table.Enter()
	table.Define("x", 1)
	table.Define("x", 2)

	value, ok := table.Lookup("x")
	require.True(t, ok)
	assert.Equal(t, 2, value)

	table.Leave()
	_, ok = table.Lookup("x")
	assert.False(t, ok, "leaving the scope must drop every binding it created")
}

func TestNestedScopes(t *testing.T) {
	t.Parallel()

	table := scope.NewTable[string]()
	table.Enter()
	table.Define("a", "outer")
	table.Define("b", "outer")

	table.Enter()
	table.Define("a", "inner")
	assert.Equal(t, 2, table.Depth())

	value, ok := table.Lookup("a")
	require.True(t, ok)
	assert.Equal(t, "inner", value)
	value, ok = table.Lookup("b")
	require.True(t, ok)
	assert.Equal(t, "outer", value)

	table.Leave()
	value, ok = table.Lookup("a")
	require.True(t, ok)
	assert.Equal(t, "outer", value)

	table.Leave()
	assert.Equal(t, 0, table.Depth())
	_, ok = table.Lookup("a")
	assert.False(t, ok)
}

func TestLeaveWithoutEnterPanics(t *testing.T) {
	t.Parallel()

	table := scope.NewTable[int]()
	assert.Panics(t, func() { table.Leave() })
}
