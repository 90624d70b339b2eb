package model

import (
	"context"
	"errors"
	"fmt"

	"github.com/timewinder-dev/faultchain/capture"
	"github.com/timewinder-dev/faultchain/exec"
	"github.com/timewinder-dev/faultchain/fixture"
	"github.com/timewinder-dev/faultchain/vm"
)

var ErrUnknownBackend = errors.New("unknown backend")

// A Backend invokes a named entry point and returns the trace of the fault
// it raised. An entry point that returns normally is an error.
type Backend interface {
	Name() string
	Invoke(ctx context.Context, entry string) (*exec.Trace, error)
}

// NativeBackend runs the Go rendition of the fixture.
type NativeBackend struct{}

func (NativeBackend) Name() string { return capture.Backend }

func (NativeBackend) Invoke(ctx context.Context, entry string) (*exec.Trace, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fn, err := fixture.Lookup(entry)
	if err != nil {
		return nil, err
	}
	return capture.Run(entry, fn)
}

// ScriptBackend runs entry points of a loaded Starlark program.
type ScriptBackend struct {
	Program *vm.Program
}

func (ScriptBackend) Name() string { return vm.Backend }

func (b ScriptBackend) Invoke(ctx context.Context, entry string) (*exec.Trace, error) {
	return b.Program.Call(ctx, entry)
}

// NewBackend returns the backend with the given name. prog is only used by
// the script backend.
func NewBackend(name string, prog *vm.Program) (Backend, error) {
	switch name {
	case "", capture.Backend:
		return NativeBackend{}, nil
	case vm.Backend:
		if prog == nil {
			var err error
			prog, err = vm.Fixture()
			if err != nil {
				return nil, err
			}
		}
		return ScriptBackend{Program: prog}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, name)
}
