package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"splice/internal/diag"
	"splice/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "splice",
	Short: "Declaration injection and fragment reflection",
	Long: `splice runs injection scenarios: TOML descriptions of a translation unit
whose constexpr blocks copy reflected declarations and inject fragments.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		stopProfiles, err := setupProfiling(cmd)
		if err != nil {
			return err
		}
		stopTrace, err := setupTracing(cmd)
		if err != nil {
			stopProfiles()
			return err
		}
		cleanup = func(failed bool) {
			stopTrace(failed)
			stopProfiles()
		}
		return nil
	},
}

// cleanup stops the tracer and profilers; main runs it after every
// command, including failed ones.
var cleanup = func(failed bool) {}

// exitError carries a non-zero exit status without an error message:
// the command has already reported why it failed.
type exitError struct{ code int }

func (e *exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

func main() {
	rootCmd.Version = version.Current().String()

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")
	rootCmd.PersistentFlags().Bool("timings", false, "show timing information")
	rootCmd.PersistentFlags().String("min-severity", "info", "lowest severity shown (info|warning|error)")
	rootCmd.PersistentFlags().Int("max-diagnostics", 0, "maximum number of diagnostics kept per scenario (0 uses the scenario's setting)")
	rootCmd.PersistentFlags().String("trace", "", "trace output file (- for stderr)")
	rootCmd.PersistentFlags().String("trace-level", "off", "trace level (off|phase|detail|debug)")
	rootCmd.PersistentFlags().String("trace-mode", "stream", "trace storage (stream|ring|both)")
	rootCmd.PersistentFlags().String("trace-format", "auto", "trace encoding (auto|text|ndjson)")
	rootCmd.PersistentFlags().Int("trace-ring-size", 4096, "events kept in ring mode")
	rootCmd.PersistentFlags().String("cpu-profile", "", "write a CPU profile to this file")
	rootCmd.PersistentFlags().String("mem-profile", "", "write a heap profile to this file on exit")
	rootCmd.PersistentFlags().String("runtime-trace", "", "write a Go runtime trace to this file")

	err := rootCmd.Execute()
	cleanup(err != nil)
	if err == nil {
		return
	}
	var ee *exitError
	if errors.As(err, &ee) {
		os.Exit(ee.code)
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(2)
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// useColor resolves the --color flag for output written to f.
func useColor(cmd *cobra.Command, f *os.File) (bool, error) {
	mode, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return false, fmt.Errorf("failed to get color flag: %w", err)
	}
	return colorEnabled(mode, isTerminal(f))
}

func colorEnabled(mode string, tty bool) (bool, error) {
	switch mode {
	case "on":
		return true, nil
	case "off":
		return false, nil
	case "auto":
		return tty, nil
	}
	return false, fmt.Errorf("unknown color mode %q (must be auto, on or off)", mode)
}

func minSeverity(cmd *cobra.Command) (diag.Severity, error) {
	name, err := cmd.Root().PersistentFlags().GetString("min-severity")
	if err != nil {
		return diag.SevInfo, fmt.Errorf("failed to get min-severity flag: %w", err)
	}
	return diag.ParseSeverity(name)
}
