package model

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/BurntSushi/toml"
	"github.com/timewinder-dev/faultchain/capture"
	"github.com/timewinder-dev/faultchain/cas"
	"github.com/timewinder-dev/faultchain/exec"
	"github.com/timewinder-dev/faultchain/fixture"
	"github.com/timewinder-dev/faultchain/vm"
)

// Spec is a suite file: which entry points to invoke, on which backend, and
// what fault shape each one must produce.
type Spec struct {
	Suite     SuiteDetails            `toml:"suite"`
	Scenarios map[string]ScenarioSpec `toml:"scenarios,omitempty"`
}

type SuiteDetails struct {
	Name     string `toml:"name,omitempty"`
	Script   string `toml:"script,omitempty"`
	Golden   string `toml:"golden,omitempty"`
	Repeat   int    `toml:"repeat,omitempty"`
	Parallel int    `toml:"parallel,omitempty"`
}

type ScenarioSpec struct {
	Backend    string   `toml:"backend,omitempty"`
	Entrypoint string   `toml:"entrypoint"`
	Fault      string   `toml:"fault,omitempty"`
	Chain      []string `toml:"chain,omitempty"`
}

func parseSpec(f io.Reader) (*Spec, error) {
	var out Spec
	_, err := toml.NewDecoder(f).Decode(&out)
	return &out, err
}

// LoadSpecFromFile reads a suite and resolves its script and golden paths
// relative to the suite file. A suite with no script runs against the
// embedded fixture.
func LoadSpecFromFile(path string) (*Spec, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	s, err := parseSpec(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	filedir := filepath.Dir(path)
	if s.Suite.Script != "" {
		s.Suite.Script = filepath.Clean(filepath.Join(filedir, s.Suite.Script))
	}
	if s.Suite.Golden != "" {
		s.Suite.Golden = filepath.Clean(filepath.Join(filedir, s.Suite.Golden))
	}
	if s.Suite.Name == "" {
		s.Suite.Name = filepath.Base(path)
	}
	return s, nil
}

// BuildExecutor validates the suite and prepares its backends. Shapes seen
// while running are stored in store.
func (s *Spec) BuildExecutor(store cas.CAS) (*Executor, error) {
	var (
		prog *vm.Program
		err  error
	)
	if s.Suite.Script != "" {
		prog, err = vm.CompilePath(s.Suite.Script)
	} else {
		prog, err = vm.Fixture()
	}
	if err != nil {
		return nil, fmt.Errorf("loading script: %w", err)
	}

	e := &Executor{
		Spec:        s,
		CAS:         store,
		Program:     prog,
		Repeat:      max(s.Suite.Repeat, 1),
		Parallel:    max(s.Suite.Parallel, 1),
		DebugWriter: io.Discard,
		Reporter:    &SilentReporter{},
		backends: map[string]Backend{
			capture.Backend: NativeBackend{},
			vm.Backend:      ScriptBackend{Program: prog},
		},
	}

	names := make([]string, 0, len(s.Scenarios))
	for name := range s.Scenarios {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		sc, err := e.buildScenario(name, s.Scenarios[name])
		if err != nil {
			return nil, fmt.Errorf("scenario %s: %w", name, err)
		}
		e.Scenarios = append(e.Scenarios, sc)
	}

	if s.Suite.Golden != "" {
		g, err := LoadGolden(s.Suite.Golden)
		switch {
		case err == nil:
			e.Golden = g
		case os.IsNotExist(err):
			// First run: nothing to compare against until --update-golden writes it.
		default:
			return nil, err
		}
	}
	return e, nil
}

func (e *Executor) buildScenario(name string, spec ScenarioSpec) (*Scenario, error) {
	backendName := spec.Backend
	if backendName == "" {
		backendName = capture.Backend
	}
	backend, ok := e.backends[backendName]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backendName)
	}
	if spec.Entrypoint == "" {
		return nil, fmt.Errorf("no entrypoint")
	}
	if err := e.checkEntry(backendName, spec.Entrypoint); err != nil {
		return nil, err
	}
	kind, ok := exec.ParseFaultKind(spec.Fault)
	if !ok {
		return nil, fmt.Errorf("unknown fault kind %q", spec.Fault)
	}
	chain := spec.Chain
	if len(chain) == 0 {
		var err error
		chain, err = fixture.ExpectedChain(spec.Entrypoint)
		if err != nil {
			return nil, fmt.Errorf("no chain given and %w", err)
		}
	}
	return &Scenario{
		Name:    name,
		Backend: backend,
		Entry:   spec.Entrypoint,
		Want:    exec.Shape{Kind: kind, Frames: chain},
	}, nil
}

func (e *Executor) checkEntry(backend, entry string) error {
	if backend == vm.Backend {
		if _, ok := e.Program.Resolve(entry); !ok {
			return fmt.Errorf("%s: %w: %q", e.Program.Name, vm.ErrUnknownEntry, entry)
		}
		return nil
	}
	_, err := fixture.Lookup(entry)
	return err
}
