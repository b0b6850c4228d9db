package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"splice/internal/diag"
	"splice/internal/diagfmt"
	"splice/internal/observ"
	"splice/internal/scenario"
)

var runCmd = &cobra.Command{
	Use:   "run [flags] <scenario.toml|directory>...",
	Short: "Run injection scenarios and check their expectations",
	Long: `Run builds the translation unit each scenario describes, evaluates its
constexpr blocks and compares the outcome with the [expect] table.
Directories are searched recursively for *.toml files.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runScenarios,
}

func init() {
	runCmd.Flags().String("format", "pretty", "diagnostic output format (pretty|json|summary|none)")
	runCmd.Flags().Int("jobs", 0, "max parallel scenarios per directory (0=auto)")
	runCmd.Flags().Bool("with-notes", true, "include diagnostic notes")
	runCmd.Flags().Int("context", 1, "source lines shown above each diagnostic")
	runCmd.Flags().Bool("basename", false, "show file basenames instead of paths")
	runCmd.Flags().Int("max-depth", 0, "maximum nested injection depth (0 uses the scenario's setting)")
	runCmd.Flags().Bool("lazy-bodies", false, "defer copied function bodies until the end of the run")
	runCmd.Flags().Bool("print", true, "echo reflections printed by constexpr blocks")
}

type runOptions struct {
	format    string
	jobs      int
	notes     bool
	context   int
	basename  bool
	quiet     bool
	timings   bool
	printed   bool
	color     bool
	minSev    diag.Severity
	scenarios scenario.Options
}

func readRunOptions(cmd *cobra.Command) (runOptions, error) {
	var (
		opts runOptions
		err  error
	)
	flags := cmd.Flags()
	root := cmd.Root().PersistentFlags()
	if opts.format, err = flags.GetString("format"); err != nil {
		return opts, fmt.Errorf("failed to get format flag: %w", err)
	}
	switch opts.format {
	case "pretty", "json", "summary", "none":
	default:
		return opts, fmt.Errorf("unknown format %q (must be pretty, json, summary or none)", opts.format)
	}
	if opts.jobs, err = flags.GetInt("jobs"); err != nil {
		return opts, fmt.Errorf("failed to get jobs flag: %w", err)
	}
	if opts.notes, err = flags.GetBool("with-notes"); err != nil {
		return opts, fmt.Errorf("failed to get with-notes flag: %w", err)
	}
	if opts.context, err = flags.GetInt("context"); err != nil {
		return opts, fmt.Errorf("failed to get context flag: %w", err)
	}
	if opts.basename, err = flags.GetBool("basename"); err != nil {
		return opts, fmt.Errorf("failed to get basename flag: %w", err)
	}
	if opts.printed, err = flags.GetBool("print"); err != nil {
		return opts, fmt.Errorf("failed to get print flag: %w", err)
	}
	if opts.scenarios.MaxInjectionDepth, err = flags.GetInt("max-depth"); err != nil {
		return opts, fmt.Errorf("failed to get max-depth flag: %w", err)
	}
	if opts.scenarios.LazyBodies, err = flags.GetBool("lazy-bodies"); err != nil {
		return opts, fmt.Errorf("failed to get lazy-bodies flag: %w", err)
	}
	if opts.scenarios.MaxDiagnostics, err = root.GetInt("max-diagnostics"); err != nil {
		return opts, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	if opts.quiet, err = root.GetBool("quiet"); err != nil {
		return opts, fmt.Errorf("failed to get quiet flag: %w", err)
	}
	if opts.timings, err = root.GetBool("timings"); err != nil {
		return opts, fmt.Errorf("failed to get timings flag: %w", err)
	}
	if opts.color, err = useColor(cmd, os.Stdout); err != nil {
		return opts, err
	}
	if opts.minSev, err = minSeverity(cmd); err != nil {
		return opts, err
	}
	return opts, nil
}

func runScenarios(cmd *cobra.Command, args []string) error {
	opts, err := readRunOptions(cmd)
	if err != nil {
		return err
	}

	var results []*scenario.Result
	for _, path := range args {
		st, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("failed to stat path: %w", err)
		}
		if !st.IsDir() {
			results = append(results, scenario.Run(cmd.Context(), path, opts.scenarios))
			continue
		}
		rs, err := scenario.RunDir(cmd.Context(), path, opts.scenarios, opts.jobs)
		if err != nil {
			return fmt.Errorf("failed to run %s: %w", path, err)
		}
		if len(rs) == 0 && !opts.quiet {
			fmt.Fprintf(cmd.ErrOrStderr(), "no scenarios under %s\n", path)
		}
		results = append(results, rs...)
	}

	out := cmd.OutOrStdout()
	if err := report(out, results, opts); err != nil {
		return err
	}
	failed := 0
	for _, res := range results {
		if !scenarioPassed(res) {
			failed++
		}
	}
	if !opts.quiet && opts.format != "json" {
		printTally(out, len(results), failed, opts.color)
	}
	if opts.timings {
		timer := observ.NewTimer()
		for _, res := range results {
			timer.Merge(res.Name, res.Timer)
		}
		fmt.Fprint(cmd.ErrOrStderr(), timer.Summary())
	}
	if failed > 0 {
		return &exitError{code: 1}
	}
	return nil
}

// scenarioPassed applies the expectations when there are some and falls
// back to "no errors" otherwise.
func scenarioPassed(res *scenario.Result) bool {
	if res.Checked {
		return res.Passed()
	}
	return res.Unit != nil && res.OK
}

type scenarioJSON struct {
	Path        string                    `json:"path"`
	Name        string                    `json:"name"`
	Passed      bool                      `json:"passed"`
	Mismatches  []string                  `json:"mismatches,omitempty"`
	Printed     []string                  `json:"printed,omitempty"`
	Diagnostics diagfmt.DiagnosticsOutput `json:"diagnostics"`
	Timing      *observ.Report            `json:"timing,omitempty"`
}

func report(w io.Writer, results []*scenario.Result, opts runOptions) error {
	pathMode := diagfmt.PathModeAsLoaded
	if opts.basename {
		pathMode = diagfmt.PathModeBasename
	}
	switch opts.format {
	case "json":
		payload := make([]scenarioJSON, 0, len(results))
		for _, res := range results {
			entry := scenarioJSON{
				Path:       res.Path,
				Name:       res.Name,
				Passed:     scenarioPassed(res),
				Mismatches: res.Mismatches,
				Printed:    printedLines(res.Printed),
				Diagnostics: diagfmt.BuildDiagnosticsOutput(res.Bag, res.Files, diagfmt.JSONOpts{
					IncludePositions: true,
					IncludeNotes:     opts.notes,
					PathMode:         pathMode,
					MinSeverity:      opts.minSev,
				}),
			}
			if opts.timings {
				timing := res.Timing
				entry.Timing = &timing
			}
			payload = append(payload, entry)
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(payload); err != nil {
			return fmt.Errorf("failed to encode results: %w", err)
		}
		return nil
	case "none":
		return nil
	}

	for i, res := range results {
		if opts.quiet && scenarioPassed(res) {
			continue
		}
		if i > 0 && !opts.quiet {
			fmt.Fprintln(w)
		}
		printHeader(w, res, opts.color)
		if opts.printed && res.Printed != "" {
			for _, line := range printedLines(res.Printed) {
				fmt.Fprintf(w, "  | %s\n", line)
			}
		}
		var err error
		if opts.format == "summary" {
			err = diagfmt.Summary(w, res.Bag)
		} else {
			err = diagfmt.Pretty(w, res.Bag, res.Files, diagfmt.PrettyOpts{
				Color:       opts.color,
				Context:     opts.context,
				PathMode:    pathMode,
				ShowNotes:   opts.notes,
				MinSeverity: opts.minSev,
			})
		}
		if err != nil {
			return fmt.Errorf("failed to format diagnostics: %w", err)
		}
		if n := res.Bag.Dropped(); n > 0 {
			fmt.Fprintf(w, "  (%d diagnostics over the limit were dropped)\n", n)
		}
		for _, m := range res.Mismatches {
			fmt.Fprintf(w, "  mismatch: %s\n", m)
		}
	}
	return nil
}

func printHeader(w io.Writer, res *scenario.Result, useColor bool) {
	status := color.New(color.FgGreen, color.Bold)
	word := "PASS"
	if !scenarioPassed(res) {
		status = color.New(color.FgRed, color.Bold)
		word = "FAIL"
	}
	if useColor {
		status.EnableColor()
	} else {
		status.DisableColor()
	}
	name := res.Name
	if name != res.Path && res.Path != "" {
		name += " (" + res.Path + ")"
	}
	fmt.Fprintf(w, "== %s %s ==\n", status.Sprint(word), name)
}

func printTally(w io.Writer, total, failed int, useColor bool) {
	c := color.New(color.Bold)
	if failed > 0 {
		c = color.New(color.FgRed, color.Bold)
	}
	if useColor {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	fmt.Fprintln(w, c.Sprintf("%d scenarios, %d passed, %d failed", total, total-failed, failed))
}

func printedLines(s string) []string {
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
