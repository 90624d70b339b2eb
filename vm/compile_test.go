package vm

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timewinder-dev/faultchain/exec"
)

func TestScriptsInTestdata(t *testing.T) {
	filepath.WalkDir("../testdata/scripts", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".star") {
			return nil
		}
		t.Run(filepath.Base(path), func(t *testing.T) {
			p, err := CompilePath(path)
			require.NoError(t, err)
			require.NotEmpty(t, p.Definitions())
			t.Logf("%s: %v", p.Name, p.Definitions())
		})
		return nil
	})
}

func TestFixtureOuterEntry(t *testing.T) {
	p, err := Fixture()
	require.NoError(t, err)
	assert.Equal(t, []string{"level1", "level2", "level3"}, p.Definitions())

	tr, err := p.Call(context.Background(), "level1")
	require.NoError(t, err)
	assert.Equal(t, Backend, tr.Backend)
	assert.Equal(t, exec.DivideByZero, tr.Fault.Kind)
	assert.Contains(t, tr.Fault.Message, "division by zero")
	assert.Equal(t, []string{"level1", "level2", "level3"}, tr.Stack.Names())

	origin, ok := tr.Stack.Innermost()
	require.True(t, ok)
	assert.Equal(t, "level3", origin.Name)
	assert.Equal(t, "fixture.star", origin.File)
	assert.Equal(t, 4, origin.Line)
}

func TestFixtureInnerEntry(t *testing.T) {
	p, err := Fixture()
	require.NoError(t, err)
	tr, err := p.Call(context.Background(), "level3")
	require.NoError(t, err)
	assert.Equal(t, exec.DivideByZero, tr.Fault.Kind)
	assert.Equal(t, []string{"level3"}, tr.Stack.Names())
}

func TestDeepChain(t *testing.T) {
	p, err := CompilePath("../testdata/scripts/deep.star")
	require.NoError(t, err)
	tr, err := p.Call(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, tr.Stack.Names())
	assert.Equal(t, exec.DivideByZero, tr.Fault.Kind)
}

func TestModuloIsNotDivision(t *testing.T) {
	p, err := CompilePath("../testdata/scripts/modulo.star")
	require.NoError(t, err)
	tr, err := p.Call(context.Background(), "outer")
	require.NoError(t, err)
	assert.Equal(t, exec.Error, tr.Fault.Kind)
	assert.Equal(t, []string{"outer", "inner"}, tr.Stack.Names())
}

func TestCallWithoutFault(t *testing.T) {
	p, err := CompilePath("../testdata/scripts/clean.star")
	require.NoError(t, err)
	_, err = p.Call(context.Background(), "level1")
	assert.True(t, errors.Is(err, ErrNoFault))
}

func TestCallUnknownEntry(t *testing.T) {
	p, err := Fixture()
	require.NoError(t, err)
	_, err = p.Call(context.Background(), "level4")
	assert.True(t, errors.Is(err, ErrUnknownEntry))
}

func TestCallCancelled(t *testing.T) {
	p, err := Fixture()
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.Call(ctx, "level1")
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestCompileLiteralSyntaxError(t *testing.T) {
	_, err := CompileLiteral("def broken(:\n")
	require.Error(t, err)
}

func TestCompileLiteralFilename(t *testing.T) {
	p, err := CompileLiteral("def f():\n    return 1 // 0\n")
	require.NoError(t, err)
	tr, err := p.Call(context.Background(), "f")
	require.NoError(t, err)
	origin, _ := tr.Stack.Innermost()
	assert.Equal(t, "literal.star", origin.File)
	assert.Equal(t, 2, origin.Line)
}
