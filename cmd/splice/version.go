package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"splice/internal/scenario"
	"splice/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show splice build metadata",
	Long: `Version prints the release, and on request the commit, build date and
the msgpack snapshot layout this binary reads and writes.`,
	Args: cobra.NoArgs,
	RunE: runVersion,
}

func init() {
	versionCmd.Flags().Bool("hash", false, "include git commit hash")
	versionCmd.Flags().Bool("date", false, "include build timestamp")
	versionCmd.Flags().Bool("full", false, "include every field")
	versionCmd.Flags().String("format", "pretty", "output format (pretty|json)")
}

type versionOptions struct {
	format   string
	showHash bool
	showDate bool
	full     bool
	color    bool
}

func runVersion(cmd *cobra.Command, _ []string) error {
	var (
		opts versionOptions
		err  error
	)
	flags := cmd.Flags()
	if opts.showHash, err = flags.GetBool("hash"); err != nil {
		return fmt.Errorf("failed to get hash flag: %w", err)
	}
	if opts.showDate, err = flags.GetBool("date"); err != nil {
		return fmt.Errorf("failed to get date flag: %w", err)
	}
	if opts.full, err = flags.GetBool("full"); err != nil {
		return fmt.Errorf("failed to get full flag: %w", err)
	}
	if opts.format, err = flags.GetString("format"); err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	opts.showHash = opts.showHash || opts.full
	opts.showDate = opts.showDate || opts.full
	if opts.color, err = useColor(cmd, os.Stdout); err != nil {
		return err
	}

	info := version.Current()
	switch strings.ToLower(opts.format) {
	case "json":
		return renderVersionJSON(cmd.OutOrStdout(), info, opts)
	case "pretty":
		renderVersionPretty(cmd.OutOrStdout(), info, opts)
		return nil
	}
	return fmt.Errorf("unknown format %q (must be pretty or json)", opts.format)
}

// versionFields lists the optional lines in print order; empty values
// print as "unknown".
func versionFields(info version.Info, opts versionOptions) [][2]string {
	var out [][2]string
	if opts.showHash {
		out = append(out, [2]string{"commit", valueOrUnknown(info.GitCommit)})
	}
	if opts.showDate {
		out = append(out, [2]string{"built", valueOrUnknown(info.BuildDate)})
	}
	if opts.full {
		out = append(out, [2]string{"snapshot", fmt.Sprintf("v%d", scenario.SnapshotVersion)})
	}
	return out
}

func renderVersionPretty(w io.Writer, info version.Info, opts versionOptions) {
	release := info.Version
	if opts.color {
		release = info.Colored()
	}
	fmt.Fprintln(w, "splice", release)
	for _, f := range versionFields(info, opts) {
		fmt.Fprintf(w, "%-8s %s\n", f[0]+":", f[1])
	}
}

func renderVersionJSON(w io.Writer, info version.Info, opts versionOptions) error {
	payload := map[string]any{"tool": "splice", "version": info.Version}
	for _, f := range versionFields(info, opts) {
		switch f[0] {
		case "commit":
			payload["git_commit"] = f[1]
		case "built":
			payload["build_date"] = f[1]
		case "snapshot":
			payload["snapshot_version"] = scenario.SnapshotVersion
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

func valueOrUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
