package fixture

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntryPointsPanic(t *testing.T) {
	for _, name := range EntryPoints {
		fn, err := Lookup(name)
		require.NoError(t, err)
		assert.PanicsWithError(t, "runtime error: integer divide by zero", fn, name)
	}
}

func TestLookupUnknown(t *testing.T) {
	_, err := Lookup("level4")
	assert.True(t, errors.Is(err, ErrUnknownEntry))
}

func TestExpectedChain(t *testing.T) {
	c, err := ExpectedChain("level1")
	require.NoError(t, err)
	assert.Equal(t, []string{"level1", "level2", "level3"}, c)

	c, err = ExpectedChain("level3")
	require.NoError(t, err)
	assert.Equal(t, []string{"level3"}, c)

	c[0] = "mutated"
	assert.Equal(t, "level3", EntryPoints[2])

	_, err = ExpectedChain("main")
	assert.True(t, errors.Is(err, ErrUnknownEntry))
}

func TestOrigin(t *testing.T) {
	assert.Equal(t, "level3", Origin())
}

func TestScriptEmbedded(t *testing.T) {
	for _, name := range EntryPoints {
		assert.Contains(t, Script, "def "+name+"():")
	}
	assert.Contains(t, Script, "1 // 0")
}
