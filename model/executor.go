package model

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/rs/zerolog/log"
	"github.com/timewinder-dev/faultchain/capture"
	"github.com/timewinder-dev/faultchain/cas"
	"github.com/timewinder-dev/faultchain/exec"
	"github.com/timewinder-dev/faultchain/vm"
	"golang.org/x/sync/errgroup"
)

// A Scenario invokes one entry point on one backend and expects a fixed
// fault shape back.
type Scenario struct {
	Name    string
	Backend Backend
	Entry   string
	Want    exec.Shape
}

// An Executor is the context and entrypoint for running a suite.
type Executor struct {
	Spec      *Spec
	CAS       cas.CAS
	Program   *vm.Program
	Scenarios []*Scenario
	Golden    *Golden

	Repeat    int
	Parallel  int
	KeepGoing bool

	DebugWriter io.Writer
	Reporter    Reporter

	backends map[string]Backend
}

type Violation struct {
	Scenario string
	Backend  string
	Entry    string
	Message  string
	Want     exec.Shape
	Got      *exec.Trace
}

type ScenarioResult struct {
	Name        string
	Backend     string
	Entry       string
	Invocations int
	Shapes      []cas.Hash
	Sample      *exec.Trace
	Violations  []Violation
}

func (r ScenarioResult) Success() bool {
	return len(r.Violations) == 0
}

type Statistics struct {
	Scenarios       int
	Invocations     int
	Captured        int
	UniqueShapes    int
	DuplicateShapes int
	ViolationCount  int
}

type Result struct {
	Success    bool
	Scenarios  []ScenarioResult
	Violations []Violation
	Statistics Statistics
}

// Run executes every scenario in name order. Scenario failures are reported
// in the Result; the returned error is reserved for problems that stop the
// run itself, such as cancellation.
func (e *Executor) Run(ctx context.Context) (*Result, error) {
	res := &Result{}
	unique := make(map[cas.Hash]struct{})
	for _, sc := range e.Scenarios {
		e.Reporter.Started(sc, e.Repeat)
		sr, captured, err := e.runScenario(ctx, sc)
		if err != nil {
			return nil, fmt.Errorf("scenario %s: %w", sc.Name, err)
		}
		e.Reporter.Finished(*sr)
		res.Scenarios = append(res.Scenarios, *sr)
		res.Violations = append(res.Violations, sr.Violations...)
		res.Statistics.Invocations += sr.Invocations
		res.Statistics.Captured += captured
		for _, h := range sr.Shapes {
			unique[h] = struct{}{}
		}
		if !sr.Success() && !e.KeepGoing {
			break
		}
	}
	res.Statistics.Scenarios = len(res.Scenarios)
	res.Statistics.UniqueShapes = len(unique)
	res.Statistics.DuplicateShapes = res.Statistics.Captured - res.Statistics.UniqueShapes
	res.Statistics.ViolationCount = len(res.Violations)
	res.Success = len(res.Violations) == 0
	return res, nil
}

func (e *Executor) runScenario(ctx context.Context, sc *Scenario) (*ScenarioResult, int, error) {
	traces := make([]*exec.Trace, e.Repeat)
	faultless := make([]error, e.Repeat)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.Parallel)
	for i := range e.Repeat {
		g.Go(func() error {
			t, err := sc.Backend.Invoke(gctx, sc.Entry)
			if errors.Is(err, capture.ErrNoFault) || errors.Is(err, vm.ErrNoFault) {
				faultless[i] = err
				return nil
			}
			if err != nil {
				return err
			}
			traces[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	sr := &ScenarioResult{
		Name:        sc.Name,
		Backend:     sc.Backend.Name(),
		Entry:       sc.Entry,
		Invocations: e.Repeat,
	}
	violation := func(msg string, got *exec.Trace) {
		sr.Violations = append(sr.Violations, Violation{
			Scenario: sc.Name,
			Backend:  sr.Backend,
			Entry:    sc.Entry,
			Message:  msg,
			Want:     sc.Want,
			Got:      got,
		})
	}

	captured := 0
	distinct := make(map[cas.Hash]*exec.Trace)
	for i, t := range traces {
		if t == nil {
			violation(fmt.Sprintf("invocation %d: %v", i, faultless[i]), nil)
			continue
		}
		shape := t.Shape()
		h, err := e.CAS.Put(&shape)
		if err != nil {
			return nil, 0, err
		}
		captured++
		fmt.Fprintf(e.DebugWriter, "%s #%d: %s %s\n", sc.Name, i, h, shape)
		if _, ok := distinct[h]; !ok {
			distinct[h] = t
			sr.Shapes = append(sr.Shapes, h)
		}
	}

	for _, h := range sr.Shapes {
		t := distinct[h]
		if sr.Sample == nil {
			sr.Sample = t
		}
		for _, msg := range checkShape(sc.Want, t) {
			violation(msg, t)
		}
	}
	if len(sr.Shapes) > 1 {
		violation(fmt.Sprintf("chain is not stable: %d distinct shapes over %d invocations", len(sr.Shapes), e.Repeat), nil)
	}
	if e.Golden != nil && sr.Sample != nil {
		if want, ok := e.Golden.Lookup(sc.Name); ok && !want.Equal(sr.Sample.Shape()) {
			violation(fmt.Sprintf("golden snapshot mismatch: recorded %s", want), sr.Sample)
		}
	}

	log.Debug().Str("scenario", sc.Name).Int("invocations", e.Repeat).Int("shapes", len(sr.Shapes)).Int("violations", len(sr.Violations)).Msg("scenario finished")
	return sr, captured, nil
}

// checkShape compares a captured trace against the expected shape and
// returns one message per mismatch.
func checkShape(want exec.Shape, t *exec.Trace) []string {
	var out []string
	if t.Fault.Kind != want.Kind {
		out = append(out, fmt.Sprintf("fault kind %s, want %s (%s)", t.Fault.Kind, want.Kind, t.Fault.Message))
	}
	got := t.Stack.Names()
	if !slices.Equal(got, want.Frames) {
		out = append(out, fmt.Sprintf("chain %v, want %v", got, want.Frames))
	}
	if len(want.Frames) > 0 {
		origin, ok := t.Stack.Innermost()
		wantOrigin := want.Frames[len(want.Frames)-1]
		if !ok || origin.Name != wantOrigin {
			out = append(out, fmt.Sprintf("fault originated in %q, want %q", origin.Name, wantOrigin))
		}
	}
	return out
}
