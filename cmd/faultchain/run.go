package main

import (
	"fmt"
	"io"
	"os"

	"github.com/gookit/color"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/timewinder-dev/faultchain/cas"
	"github.com/timewinder-dev/faultchain/model"
)

var (
	debugFlag    bool
	keepGoing    bool
	updateGolden bool
	repeatFlag   int
	parallelFlag int
)

var runCmd = &cobra.Command{
	Use:   "run SUITEFILE",
	Short: "Run a fault chain suite",
	Args:  cobra.ExactArgs(1),
	RunE:  runCommand,
}

func init() {
	runCmd.Flags().BoolVar(&debugFlag, "debug", false, "Print the shape hash of every invocation")
	runCmd.Flags().BoolVar(&keepGoing, "keep-going", false, "Keep running scenarios after the first one fails")
	runCmd.Flags().BoolVar(&updateGolden, "update-golden", false, "Write the captured shapes to the suite's golden file")
	runCmd.Flags().IntVar(&repeatFlag, "repeat", 0, "Override the number of invocations per scenario")
	runCmd.Flags().IntVar(&parallelFlag, "parallel", 0, "Override the number of concurrent invocations")
}

func runCommand(cmd *cobra.Command, args []string) error {
	filename := args[0]
	spec, err := model.LoadSpecFromFile(filename)
	if err != nil {
		return fmt.Errorf("couldn't load suite: %w", err)
	}
	if repeatFlag > 0 {
		spec.Suite.Repeat = repeatFlag
	}
	if parallelFlag > 0 {
		spec.Suite.Parallel = parallelFlag
	}
	if updateGolden && spec.Suite.Golden == "" {
		return fmt.Errorf("--update-golden: suite %s has no golden file", spec.Suite.Name)
	}

	exec, err := spec.BuildExecutor(cas.NewMemoryCAS())
	if err != nil {
		return fmt.Errorf("couldn't build executor for suite: %w", err)
	}
	if debugFlag {
		exec.DebugWriter = os.Stderr
	} else {
		exec.DebugWriter = io.Discard
	}
	if updateGolden {
		// The golden file is being rewritten; don't judge against the old one.
		exec.Golden = nil
	}
	exec.KeepGoing = keepGoing
	exec.Reporter = &model.ColorReporter{Writer: os.Stderr}

	fmt.Fprintln(os.Stderr, color.Cyan.Sprintf("Running suite %s (%d scenarios)...", spec.Suite.Name, len(exec.Scenarios)))

	result, err := exec.Run(cmd.Context())
	if err != nil {
		return fmt.Errorf("error during suite run: %w", err)
	}

	if !result.Success {
		if keepGoing {
			fmt.Fprint(os.Stderr, model.FormatAllViolations(result.Violations))
		} else {
			fmt.Fprint(os.Stderr, model.FormatViolation(result.Violations[0]))
		}
	}
	fmt.Fprint(os.Stderr, model.FormatStatistics(result.Statistics))

	if !result.Success {
		return fmt.Errorf("%d violation(s) in suite %s", result.Statistics.ViolationCount, spec.Suite.Name)
	}

	if updateGolden {
		if err := model.NewGolden(spec.Suite.Name, result).Write(spec.Suite.Golden); err != nil {
			return fmt.Errorf("writing golden: %w", err)
		}
		log.Info().Str("path", spec.Suite.Golden).Int("scenarios", len(result.Scenarios)).Msg("golden snapshot updated")
	}

	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, color.Green.Sprint("✓ Every scenario produced its expected fault chain"))
	return nil
}
