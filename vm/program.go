package vm

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"
	"github.com/timewinder-dev/faultchain/exec"
	"go.starlark.net/starlark"
)

const Backend = "script"

var (
	ErrUnknownEntry = errors.New("unknown entry point")
	ErrNoFault      = errors.New("entry point returned without a fault")
)

// Program is an executed Starlark file whose top-level functions can be
// called as entry points.
type Program struct {
	Name    string
	Globals starlark.StringDict
}

// Definitions returns the names of the callable globals, sorted.
func (p *Program) Definitions() []string {
	var out []string
	for _, k := range p.Globals.Keys() {
		if _, ok := p.Globals[k].(starlark.Callable); ok {
			out = append(out, k)
		}
	}
	return out
}

func (p *Program) Resolve(name string) (starlark.Callable, bool) {
	fn, ok := p.Globals[name].(starlark.Callable)
	return fn, ok
}

func (p *Program) DebugPrint(w io.Writer) {
	fmt.Fprintf(w, "File: %s\n", p.Name)
	for _, d := range p.Definitions() {
		fmt.Fprintf(w, "  def %s\n", d)
	}
}

// Call runs entry on a fresh thread and returns the trace of the error it
// fails with. The error is never handled inside the script: it unwinds
// through every Starlark frame and its call stack is read here.
func (p *Program) Call(ctx context.Context, entry string) (*exec.Trace, error) {
	fn, ok := p.Resolve(entry)
	if !ok {
		return nil, fmt.Errorf("%s: %w: %q", p.Name, ErrUnknownEntry, entry)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	thread := &starlark.Thread{Name: entry}
	stop := context.AfterFunc(ctx, func() {
		thread.Cancel(context.Cause(ctx).Error())
	})
	defer stop()

	_, err := starlark.Call(thread, fn, nil, nil)
	if err == nil {
		return nil, fmt.Errorf("%s: %w", entry, ErrNoFault)
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("%s: %w", entry, ctxErr)
	}
	var evalErr *starlark.EvalError
	if !errors.As(err, &evalErr) {
		return nil, err
	}

	stack := StackOf(evalErr.CallStack)
	fault := exec.Fault{
		Kind:    exec.ClassifyMessage(evalErr.Msg, false),
		Message: evalErr.Msg,
	}
	log.Debug().Str("entry", entry).Str("kind", string(fault.Kind)).Int("depth", stack.Depth()).Msg("captured script fault")
	return exec.NewTrace(Backend, entry, fault, stack), nil
}

// StackOf converts a Starlark call stack, which is already outermost first.
func StackOf(cs starlark.CallStack) exec.Stack {
	s := exec.Stack{Frames: make([]exec.Frame, 0, len(cs))}
	for _, cf := range cs {
		s.Frames = append(s.Frames, exec.Frame{
			Name: cf.Name,
			File: cf.Pos.Filename(),
			Line: int(cf.Pos.Line),
		})
	}
	return s
}
