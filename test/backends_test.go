package test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timewinder-dev/faultchain/exec"
	"github.com/timewinder-dev/faultchain/fixture"
	"github.com/timewinder-dev/faultchain/model"
)

// TestBackendsAgree checks that the Go and Starlark renditions of the
// fixture produce the same shape from every entry point.
func TestBackendsAgree(t *testing.T) {
	native, err := model.NewBackend("native", nil)
	require.NoError(t, err)
	script, err := model.NewBackend("script", nil)
	require.NoError(t, err)

	for _, entry := range fixture.EntryPoints {
		t.Run(entry, func(t *testing.T) {
			want, err := fixture.ExpectedChain(entry)
			require.NoError(t, err)

			n, err := native.Invoke(context.Background(), entry)
			require.NoError(t, err)
			s, err := script.Invoke(context.Background(), entry)
			require.NoError(t, err)

			assert.Equal(t, exec.Shape{Kind: exec.DivideByZero, Frames: want}, n.Shape())
			assert.True(t, n.Shape().Equal(s.Shape()), "native %s, script %s", n.Shape(), s.Shape())

			no, _ := n.Stack.Innermost()
			so, _ := s.Stack.Innermost()
			assert.Equal(t, fixture.Origin(), no.Name)
			assert.Equal(t, fixture.Origin(), so.Name)
		})
	}
}

// TestOuterChainScenario is the headline property: invoking the outer entry
// point fails with a division by zero raised three frames down.
func TestOuterChainScenario(t *testing.T) {
	for _, name := range []string{"native", "script"} {
		b, err := model.NewBackend(name, nil)
		require.NoError(t, err)
		tr, err := b.Invoke(context.Background(), "level1")
		require.NoError(t, err)
		assert.Equal(t, 3, tr.Stack.Depth(), name)
		assert.Equal(t, []string{"level1", "level2", "level3"}, tr.Stack.Names(), name)
		assert.Equal(t, exec.DivideByZero, tr.Fault.Kind, name)
	}
}

// TestInnerChainScenario invokes the inner entry point directly.
func TestInnerChainScenario(t *testing.T) {
	for _, name := range []string{"native", "script"} {
		b, err := model.NewBackend(name, nil)
		require.NoError(t, err)
		tr, err := b.Invoke(context.Background(), "level3")
		require.NoError(t, err)
		assert.Equal(t, []string{"level3"}, tr.Stack.Names(), name)
		assert.Equal(t, exec.DivideByZero, tr.Fault.Kind, name)
	}
}

func TestNewBackendUnknown(t *testing.T) {
	_, err := model.NewBackend("wasm", nil)
	require.ErrorIs(t, err, model.ErrUnknownBackend)
}
