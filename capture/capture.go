// Package capture observes a panic raised by a native entry point and
// records the call chain it travelled through.
package capture

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/timewinder-dev/faultchain/exec"
)

const (
	Backend = "native"

	initialStackDepth = 64
)

var ErrNoFault = errors.New("entry point returned without a fault")

// Run calls fn and returns the trace of the panic it raises. The panic is
// recovered only here, in Run's deferred function, while the panicking
// frames are still on the goroutine stack. Frames belonging to the runtime's
// panic machinery and to Run itself are dropped, so the chain starts at fn.
func Run(entry string, fn func()) (t *exec.Trace, err error) {
	pc, _, _, _ := runtime.Caller(0)
	boundary := runtime.FuncForPC(pc).Name()

	defer func() {
		r := recover()
		if r == nil {
			return
		}
		stack := callers(boundary)
		fault := faultOf(r)
		log.Debug().Str("entry", entry).Str("kind", string(fault.Kind)).Int("depth", stack.Depth()).Msg("captured native fault")
		t = exec.NewTrace(Backend, entry, fault, stack)
		err = nil
	}()

	fn()
	return nil, fmt.Errorf("%s: %w", entry, ErrNoFault)
}

func faultOf(r any) exec.Fault {
	var msg string
	switch v := r.(type) {
	case error:
		msg = v.Error()
	case string:
		msg = v
	default:
		msg = fmt.Sprint(v)
	}
	return exec.Fault{
		Kind:    exec.ClassifyMessage(msg, true),
		Message: msg,
	}
}

// callers walks the current goroutine from inside a deferred recover. The
// raw walk, innermost first, looks like:
//
//	capture.Run.func1, runtime.gopanic, runtime.panicdivide, <chain...>, capture.Run, ...
//
// Everything up to and including the last runtime frame after gopanic is
// skipped, and the walk stops at boundary. The pc buffer doubles until the
// whole goroutine stack fits, so the outermost frames of a deep chain are
// never cut off.
func callers(boundary string) exec.Stack {
	pcs := make([]uintptr, initialStackDepth)
	for {
		n := runtime.Callers(1, pcs)
		if n < len(pcs) {
			pcs = pcs[:n]
			break
		}
		pcs = make([]uintptr, 2*len(pcs))
	}
	frames := runtime.CallersFrames(pcs)

	var raw []runtime.Frame
	for {
		f, more := frames.Next()
		raw = append(raw, f)
		if !more {
			break
		}
	}

	start := 0
	for i, f := range raw {
		if f.Function == "runtime.gopanic" {
			start = i + 1
			break
		}
	}
	for start < len(raw) && strings.HasPrefix(raw[start].Function, "runtime.") {
		start++
	}

	var inner exec.Stack
	for _, f := range raw[start:] {
		if f.Function == boundary {
			break
		}
		inner.Frames = append(inner.Frames, exec.Frame{
			Name:     exec.ShortName(f.Function),
			Function: f.Function,
			File:     f.File,
			Line:     f.Line,
		})
	}
	return inner.Reverse()
}
