package operator_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/takoeight0821/kaleido/operator"
)

func TestDefine(t *testing.T) {
	t.Parallel()

	table := operator.NewTable()
	require.NoError(t, table.Define('>', 5, operator.Binary))

	def, ok := table.Classify('>')
	require.True(t, ok)
	assert.Equal(t, operator.Def{Symbol: '>', Prec: 5, Fixity: operator.Binary}, def)
	assert.Equal(t, "binary>/5", def.String())
}

func TestDefineOverwrites(t *testing.T) {
	t.Parallel()

	table := operator.NewTable()
	require.NoError(t, table.Define(':', 3, operator.Binary))
	require.NoError(t, table.Define(':', 8, operator.Unary))

	def, ok := table.Classify(':')
	require.True(t, ok)
	assert.Equal(t, 8, def.Prec)
	assert.Equal(t, operator.Unary, def.Fixity)
}

func TestDefineRejectsInvalidPrecedence(t *testing.T) {
	t.Parallel()

	table := operator.NewTable()
	for _, prec := range []int{0, 11, -1} {
		err := table.Define('|', prec, operator.Binary)
		assert.ErrorAs(t, err, &operator.InvalidPrecedenceError{})

		_, ok := table.Classify('|')
		assert.False(t, ok, "precedence %d left a partial registration", prec)
	}
}

func TestClassifyUnknown(t *testing.T) {
	t.Parallel()

	_, ok := operator.NewTable().Classify('!')
	assert.False(t, ok)
}
