package exec

import (
	"path/filepath"
	"slices"
	"strconv"
	"strings"
)

// Stack is a captured call chain, ordered from the outermost frame to the
// innermost one (the frame the fault was raised in).
type Stack struct {
	Frames []Frame `json:"frames" yaml:"frames"`
}

type Frame struct {
	Name     string `json:"name" yaml:"name"`
	Function string `json:"function,omitempty" yaml:"function,omitempty"`
	File     string `json:"file,omitempty" yaml:"file,omitempty"`
	Line     int    `json:"line,omitempty" yaml:"line,omitempty"`
}

func (f Frame) String() string {
	if f.File == "" {
		return f.Name
	}
	return f.Name + " (" + filepath.Base(f.File) + ":" + strconv.Itoa(f.Line) + ")"
}

func (s Stack) Depth() int {
	return len(s.Frames)
}

func (s Stack) Names() []string {
	out := make([]string, len(s.Frames))
	for i, f := range s.Frames {
		out[i] = f.Name
	}
	return out
}

func (s Stack) Outermost() (Frame, bool) {
	if len(s.Frames) == 0 {
		return Frame{}, false
	}
	return s.Frames[0], true
}

func (s Stack) Innermost() (Frame, bool) {
	if len(s.Frames) == 0 {
		return Frame{}, false
	}
	return s.Frames[len(s.Frames)-1], true
}

// Reverse returns a copy of s with the frame order flipped. Runtime walkers
// produce innermost-first stacks; Reverse turns them around.
func (s Stack) Reverse() Stack {
	out := Stack{Frames: slices.Clone(s.Frames)}
	slices.Reverse(out.Frames)
	return out
}

// ShortName trims a fully qualified Go symbol down to the name a reader
// would recognise: "example.com/pkg.level2" becomes "level2" and
// "example.com/pkg.(*T).Run" becomes "(*T).Run".
//
// The linker escapes dots in the last import path element ("yaml%2ev3"), so
// runtime symbols split cleanly at the first dot. Unescaped gopkg.in style
// paths such as "gopkg.in/yaml.v3.Marshal" are recognised by their ".vN"
// suffix.
func ShortName(function string) string {
	name := function
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	i := strings.Index(name, ".")
	if i < 0 {
		return name
	}
	name = name[i+1:]
	if rest, ok := trimMajorVersion(name); ok {
		name = rest
	}
	return name
}

// trimMajorVersion strips a leading "vN." element left over from an
// unescaped package name like "yaml.v3".
func trimMajorVersion(name string) (string, bool) {
	elem, rest, ok := strings.Cut(name, ".")
	if !ok || len(elem) < 2 || elem[0] != 'v' || rest == "" {
		return name, false
	}
	for _, r := range elem[1:] {
		if r < '0' || r > '9' {
			return name, false
		}
	}
	return rest, true
}
