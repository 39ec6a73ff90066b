package uuid

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNanoIDGenerator_Generate(t *testing.T) {
	gen := NewNanoIDGenerator(16)

	a, err := gen.Generate()
	require.NoError(t, err)
	b, err := gen.Generate()
	require.NoError(t, err)

	assert.Len(t, a, 16)
	assert.NotEqual(t, a, b)
	for _, r := range a {
		assert.True(t, strings.ContainsRune(alphabet, r), "unexpected rune %q", r)
	}
}

func TestNanoIDGenerator_WithPrefix(t *testing.T) {
	base := NewNanoIDGenerator(10)
	gen := base.WithPrefix("act_")

	id, err := gen.Generate()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(id, "act_"))
	assert.Len(t, id, 14)
	assert.Empty(t, base.Prefix)
}

func TestNewNanoIDGenerator_PanicsOnZeroLength(t *testing.T) {
	assert.Panics(t, func() { NewNanoIDGenerator(0) })
}
