package model

import (
	"fmt"
	"io"

	"github.com/gookit/color"
)

// Reporter is told when each scenario starts and finishes.
type Reporter interface {
	Started(sc *Scenario, repeat int)
	Finished(r ScenarioResult)
}

type SilentReporter struct{}

func (r *SilentReporter) Started(sc *Scenario, repeat int) {}
func (r *SilentReporter) Finished(res ScenarioResult)      {}

// ColorReporter writes one line per scenario to Writer (typically stderr).
type ColorReporter struct {
	Writer io.Writer
}

func (r *ColorReporter) Started(sc *Scenario, repeat int) {
	fmt.Fprint(r.Writer, color.Gray.Sprintf("… %s: %s(%s) x%d\n", sc.Name, sc.Entry, sc.Backend.Name(), repeat))
}

func (r *ColorReporter) Finished(res ScenarioResult) {
	fmt.Fprint(r.Writer, FormatScenario(res))
}
