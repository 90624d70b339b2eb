package vm

import (
	"io"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/timewinder-dev/faultchain/fixture"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// CompilePath loads the Starlark file at path.
func CompilePath(path string) (*Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadFile(path, f)
}

// CompileLiteral loads Starlark source held in memory. Frames report the
// file as "literal.star".
func CompileLiteral(code string) (*Program, error) {
	return compile("literal.star", code)
}

// LoadFile loads Starlark source from r, reporting name in frame positions.
func LoadFile(name string, r io.Reader) (*Program, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return compile(name, b)
}

// Fixture loads the embedded fixture script.
func Fixture() (*Program, error) {
	return compile(fixture.ScriptName, fixture.Script)
}

func compile(name string, src any) (*Program, error) {
	opts := syntax.FileOptions{}
	thread := &starlark.Thread{Name: "load " + name}
	globals, err := starlark.ExecFileOptions(&opts, thread, name, src, nil)
	if err != nil {
		return nil, err
	}
	// Frozen globals make a Program safe to call from many threads at once.
	globals.Freeze()
	p := &Program{
		Name:    name,
		Globals: globals,
	}
	log.Trace().Str("file", name).Strs("definitions", p.Definitions()).Msg("loaded script")
	return p, nil
}
