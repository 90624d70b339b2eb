// Package fixture provides a fixed call chain that always fails at its
// deepest frame with an integer division by zero.
//
// The chain exists in two renditions with identical shape: native Go
// functions (Level1, Level2, Level3) and an embedded Starlark script
// (Script) defining level1, level2 and level3. Neither rendition recovers
// the fault; it propagates unmodified to whoever called the entry point.
package fixture

import (
	_ "embed"
	"errors"
	"fmt"
	"slices"
)

// ScriptName is the filename reported in frames of the embedded script.
const ScriptName = "fixture.star"

// Script is the Starlark rendition of the chain.
//
//go:embed fixture.star
var Script string

var ErrUnknownEntry = errors.New("unknown entry point")

// Entry points, outermost first. Each one takes no input and never returns
// normally.
var (
	Level1 = level1
	Level2 = level2
	Level3 = level3
)

// EntryPoints lists the entry point names ordered from outermost to innermost.
var EntryPoints = []string{"level1", "level2", "level3"}

//go:noinline
func level3() {
	zero := 0
	_ = 1 / zero
}

//go:noinline
func level2() {
	level3()
}

//go:noinline
func level1() {
	level2()
}

// Lookup returns the native entry point with the given name.
func Lookup(name string) (func(), error) {
	switch name {
	case "level1":
		return Level1, nil
	case "level2":
		return Level2, nil
	case "level3":
		return Level3, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownEntry, name)
}

// ExpectedChain returns the frame names a fault raised through the named
// entry point passes through, outermost first.
func ExpectedChain(name string) ([]string, error) {
	i := slices.Index(EntryPoints, name)
	if i < 0 {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEntry, name)
	}
	return slices.Clone(EntryPoints[i:]), nil
}

// Origin is the name of the frame every fault originates from.
func Origin() string {
	return EntryPoints[len(EntryPoints)-1]
}
