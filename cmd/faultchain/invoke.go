package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/timewinder-dev/faultchain/exec"
	"github.com/timewinder-dev/faultchain/model"
	"github.com/timewinder-dev/faultchain/vm"
	"gopkg.in/yaml.v3"
)

var (
	backendFlag string
	scriptFlag  string
	formatFlag  string
)

var invokeCmd = &cobra.Command{
	Use:   "invoke ENTRY",
	Short: "Invoke one entry point and print the fault chain it produced",
	Args:  cobra.ExactArgs(1),
	RunE:  invokeCommand,
}

func init() {
	invokeCmd.Flags().StringVar(&backendFlag, "backend", "native", "Backend to invoke on (native, script)")
	invokeCmd.Flags().StringVar(&scriptFlag, "script", "", "Starlark file for the script backend (default: embedded fixture)")
	invokeCmd.Flags().StringVar(&formatFlag, "format", "text", "Output format (text, json, yaml)")
}

func invokeCommand(cmd *cobra.Command, args []string) error {
	entry := args[0]
	var prog *vm.Program
	if scriptFlag != "" {
		var err error
		prog, err = vm.CompilePath(scriptFlag)
		if err != nil {
			return fmt.Errorf("couldn't load script: %w", err)
		}
	}
	backend, err := model.NewBackend(backendFlag, prog)
	if err != nil {
		return err
	}
	t, err := backend.Invoke(cmd.Context(), entry)
	if err != nil {
		return err
	}
	log.Debug().Str("trace", t.ID).Str("shape", t.Shape().String()).Msg("invoked")
	return writeTrace(cmd.OutOrStdout(), formatFlag, t)
}

func writeTrace(w io.Writer, format string, t *exec.Trace) error {
	switch format {
	case "text":
		_, err := fmt.Fprint(w, model.FormatTrace(t))
		return err
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(t)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(t); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("unknown format %q", format)
}
