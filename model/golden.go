package model

import (
	"cmp"
	"fmt"
	"os"
	"slices"

	"github.com/shamaton/msgpack/v2"
	"github.com/timewinder-dev/faultchain/exec"
)

// Golden is a recorded snapshot of the shape each scenario produced. Later
// runs compare against it so a change in the chain fails loudly.
//
// Scenarios are kept sorted by name so the encoded file is byte-stable
// across rewrites.
type Golden struct {
	Suite     string
	Scenarios []GoldenEntry
}

type GoldenEntry struct {
	Name  string
	Shape exec.Shape
}

// NewGolden records the sample shape of every scenario in res.
func NewGolden(suite string, res *Result) *Golden {
	g := &Golden{Suite: suite}
	for _, sr := range res.Scenarios {
		if sr.Sample != nil {
			g.Set(sr.Name, sr.Sample.Shape())
		}
	}
	return g
}

// Lookup returns the recorded shape for a scenario.
func (g *Golden) Lookup(name string) (exec.Shape, bool) {
	i, ok := g.find(name)
	if !ok {
		return exec.Shape{}, false
	}
	return g.Scenarios[i].Shape, true
}

// Set records or replaces the shape for a scenario, keeping name order.
func (g *Golden) Set(name string, shape exec.Shape) {
	i, ok := g.find(name)
	if ok {
		g.Scenarios[i].Shape = shape
		return
	}
	g.Scenarios = slices.Insert(g.Scenarios, i, GoldenEntry{Name: name, Shape: shape})
}

func (g *Golden) find(name string) (int, bool) {
	return slices.BinarySearchFunc(g.Scenarios, name, func(e GoldenEntry, name string) int {
		return cmp.Compare(e.Name, name)
	})
}

func LoadGolden(path string) (*Golden, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var g Golden
	if err := msgpack.Unmarshal(b, &g); err != nil {
		return nil, fmt.Errorf("decoding golden %s: %w", path, err)
	}
	slices.SortFunc(g.Scenarios, func(a, b GoldenEntry) int {
		return cmp.Compare(a.Name, b.Name)
	})
	return &g, nil
}

func (g *Golden) Write(path string) error {
	b, err := msgpack.Marshal(g)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
