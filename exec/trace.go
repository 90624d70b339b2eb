package exec

import (
	"io"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/shamaton/msgpack/v2"
)

type FaultKind string

const (
	DivideByZero FaultKind = "divide-by-zero"
	Panic        FaultKind = "panic"
	Error        FaultKind = "error"
)

// ParseFaultKind accepts the names used in suite files. The empty string
// means DivideByZero, the only fault the fixture raises.
func ParseFaultKind(s string) (FaultKind, bool) {
	switch FaultKind(s) {
	case "", DivideByZero:
		return DivideByZero, true
	case Panic:
		return Panic, true
	case Error:
		return Error, true
	}
	return "", false
}

// ClassifyMessage maps a fault message from either backend onto a kind.
// Go reports "integer divide by zero", Starlark "floored division by zero".
func ClassifyMessage(msg string, panicked bool) FaultKind {
	if strings.Contains(msg, "divide by zero") || strings.Contains(msg, "division by zero") {
		return DivideByZero
	}
	if panicked {
		return Panic
	}
	return Error
}

type Fault struct {
	Kind    FaultKind `json:"kind" yaml:"kind"`
	Message string    `json:"message" yaml:"message"`
}

// Trace is one captured invocation: which entry point ran, on which
// backend, what fault came out and the chain it came through.
type Trace struct {
	ID      string `json:"id" yaml:"id"`
	Backend string `json:"backend" yaml:"backend"`
	Entry   string `json:"entry" yaml:"entry"`
	Fault   Fault  `json:"fault" yaml:"fault"`
	Stack   Stack  `json:"stack" yaml:"stack"`
}

func NewTrace(backend, entry string, fault Fault, stack Stack) *Trace {
	return &Trace{
		ID:      uuid.NewString(),
		Backend: backend,
		Entry:   entry,
		Fault:   fault,
		Stack:   stack,
	}
}

func (t *Trace) Shape() Shape {
	return Shape{
		Kind:   t.Fault.Kind,
		Frames: t.Stack.Names(),
	}
}

func (t *Trace) Serialize(w io.Writer) error {
	return msgpack.MarshalWrite(w, t)
}

func (t *Trace) Deserialize(r io.Reader) error {
	return msgpack.UnmarshalRead(r, t)
}

// Shape is the structural identity of a trace: the fault kind and the frame
// names in order. Locations and invocation IDs are not part of it, so
// repeated invocations compare equal.
type Shape struct {
	Kind   FaultKind `json:"kind" yaml:"kind"`
	Frames []string  `json:"frames" yaml:"frames"`
}

func (s Shape) Equal(o Shape) bool {
	return s.Kind == o.Kind && slices.Equal(s.Frames, o.Frames)
}

func (s Shape) Depth() int {
	return len(s.Frames)
}

func (s Shape) String() string {
	return string(s.Kind) + " [" + strings.Join(s.Frames, " -> ") + "]"
}

func (s *Shape) Serialize(w io.Writer) error {
	return msgpack.MarshalWrite(w, s)
}

func (s *Shape) Deserialize(r io.Reader) error {
	return msgpack.UnmarshalRead(r, s)
}
