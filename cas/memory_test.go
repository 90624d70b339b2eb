package cas

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timewinder-dev/faultchain/exec"
)

func TestMemoryCAS_DeduplicatesEqualShapes(t *testing.T) {
	c := NewMemoryCAS()

	a := &exec.Shape{Kind: exec.DivideByZero, Frames: []string{"level1", "level2", "level3"}}
	b := &exec.Shape{Kind: exec.DivideByZero, Frames: []string{"level1", "level2", "level3"}}
	inner := &exec.Shape{Kind: exec.DivideByZero, Frames: []string{"level3"}}

	ha, err := c.Put(a)
	require.NoError(t, err)
	hb, err := c.Put(b)
	require.NoError(t, err)
	hi, err := c.Put(inner)
	require.NoError(t, err)

	assert.Equal(t, ha, hb)
	assert.NotEqual(t, ha, hi)
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, 2, c.Hits(ha))
	assert.Equal(t, 1, c.Hits(hi))
	assert.True(t, c.Has(hi))
	assert.False(t, c.Has(Hash(1)))
}

func TestRetrieve(t *testing.T) {
	c := NewMemoryCAS()
	in := &exec.Shape{Kind: exec.DivideByZero, Frames: []string{"level2", "level3"}}
	h, err := c.Put(in)
	require.NoError(t, err)

	out, err := Retrieve[exec.Shape](c, h)
	require.NoError(t, err)
	assert.True(t, in.Equal(*out))

	_, err = Retrieve[exec.Shape](c, Hash(42))
	require.Error(t, err)
}

func TestMemoryCAS_ConcurrentPut(t *testing.T) {
	c := NewMemoryCAS()
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Put(&exec.Shape{Kind: exec.DivideByZero, Frames: []string{"level1", "level2", "level3"}})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, c.Len())
}
