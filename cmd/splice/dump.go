package main

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"splice/internal/ast"
	"splice/internal/diagfmt"
	"splice/internal/scenario"
)

var dumpCmd = &cobra.Command{
	Use:   "dump [flags] <scenario.toml>",
	Short: "Print the translation unit a scenario produces",
	Long: `Dump runs one scenario and prints the resulting translation unit in
source form, or writes a msgpack snapshot of it.`,
	Args: cobra.ExactArgs(1),
	RunE: runDump,
}

func init() {
	dumpCmd.Flags().String("format", "text", "output format (text|msgpack)")
	dumpCmd.Flags().Bool("implicit", false, "include implicit declarations")
	dumpCmd.Flags().Bool("flags", false, "annotate declarations with their flags (text only)")
	dumpCmd.Flags().StringP("output", "o", "", "write to this file instead of stdout")
}

func runDump(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	implicit, err := cmd.Flags().GetBool("implicit")
	if err != nil {
		return fmt.Errorf("failed to get implicit flag: %w", err)
	}
	withFlags, err := cmd.Flags().GetBool("flags")
	if err != nil {
		return fmt.Errorf("failed to get flags flag: %w", err)
	}
	output, err := cmd.Flags().GetString("output")
	if err != nil {
		return fmt.Errorf("failed to get output flag: %w", err)
	}
	maxDiags, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	minSev, err := minSeverity(cmd)
	if err != nil {
		return err
	}
	switch format {
	case "text", "msgpack":
	default:
		return fmt.Errorf("unknown format %q (must be text or msgpack)", format)
	}

	res := scenario.Run(cmd.Context(), args[0], scenario.Options{MaxDiagnostics: maxDiags})
	if res.Bag.Len() > 0 {
		colored, err := useColor(cmd, os.Stderr)
		if err != nil {
			return err
		}
		if err := diagfmt.Pretty(cmd.ErrOrStderr(), res.Bag, res.Files, diagfmt.PrettyOpts{Color: colored, Context: 1, ShowNotes: true, MinSeverity: minSev}); err != nil {
			return fmt.Errorf("failed to format diagnostics: %w", err)
		}
	}
	if res.Unit == nil {
		return &exitError{code: 1}
	}

	if format == "msgpack" {
		if output == "" {
			return scenario.EncodeSnapshot(cmd.OutOrStdout(), scenario.TakeSnapshot(res, implicit))
		}
		return scenario.WriteSnapshot(output, scenario.TakeSnapshot(res, implicit))
	}
	return withOutput(cmd.OutOrStdout(), output, func(w io.Writer) error {
		return ast.Dump(w, res.Unit.TU, ast.PrintOptions{Implicit: implicit, Flags: withFlags})
	})
}

// withOutput runs write against path, or against def when path is empty.
func withOutput(def io.Writer, path string, write func(io.Writer) error) (err error) {
	if path == "" {
		return write(def)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	bw := bufio.NewWriter(f)
	if err := write(bw); err != nil {
		return err
	}
	return bw.Flush()
}
