package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"splice/internal/scenario"
	"splice/internal/version"
)

func TestColorEnabled(t *testing.T) {
	cases := []struct {
		mode string
		tty  bool
		want bool
	}{
		{"on", false, true},
		{"off", true, false},
		{"auto", true, true},
		{"auto", false, false},
	}
	for _, tc := range cases {
		got, err := colorEnabled(tc.mode, tc.tty)
		if err != nil || got != tc.want {
			t.Errorf("colorEnabled(%q, %t) = %t, %v; want %t", tc.mode, tc.tty, got, err, tc.want)
		}
	}
	if _, err := colorEnabled("always", true); err == nil {
		t.Error("unknown mode accepted")
	}
}

func TestRenderVersionJSON(t *testing.T) {
	var buf bytes.Buffer
	info := version.Info{Version: "1.2.3", GitCommit: "abcdef0123"}
	if err := renderVersionJSON(&buf, info, versionOptions{showHash: true, showDate: true}); err != nil {
		t.Fatalf("renderVersionJSON: %v", err)
	}
	var got map[string]string
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	want := map[string]string{
		"tool":       "splice",
		"version":    "1.2.3",
		"git_commit": "abcdef0123",
		"build_date": "unknown",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("payload (-want +got):\n%s", diff)
	}
}

func TestRenderVersionFull(t *testing.T) {
	var buf bytes.Buffer
	info := version.Info{Version: "1.2.3", BuildDate: "2026-01-02"}
	renderVersionPretty(&buf, info, versionOptions{showHash: true, showDate: true, full: true})
	want := "splice 1.2.3\ncommit:  unknown\nbuilt:   2026-01-02\nsnapshot: v" + strconv.Itoa(scenario.SnapshotVersion) + "\n"
	if buf.String() != want {
		t.Fatalf("got %q, want %q", buf.String(), want)
	}
}

func TestRenderVersionPretty(t *testing.T) {
	var buf bytes.Buffer
	renderVersionPretty(&buf, version.Info{Version: "1.2.3"}, versionOptions{showHash: true})
	want := "splice 1.2.3\ncommit:  unknown\n"
	if buf.String() != want {
		t.Fatalf("got %q, want %q", buf.String(), want)
	}
}

const failing = `
name = "failing"

[[decl]]
kind = "class"
name = "S"

[expect]
  [[expect.decl]]
  name = "S::x"
`

func TestReportPretty(t *testing.T) {
	res := scenario.RunSource(context.Background(), "failing.toml", []byte(failing), scenario.Options{})
	if scenarioPassed(res) {
		t.Fatal("scenario with a missing declaration passed")
	}
	var buf bytes.Buffer
	if err := report(&buf, []*scenario.Result{res}, runOptions{format: "pretty", printed: true}); err != nil {
		t.Fatalf("report: %v", err)
	}
	want := "== FAIL failing (failing.toml) ==\n  mismatch: S::x: not declared\n"
	if buf.String() != want {
		t.Fatalf("got %q, want %q", buf.String(), want)
	}
}

func TestReportQuietSkipsPassing(t *testing.T) {
	res := scenario.RunSource(context.Background(), "ok.toml", []byte("[[decl]]\nkind = \"class\"\nname = \"S\"\n"), scenario.Options{})
	if !scenarioPassed(res) {
		t.Fatalf("scenario without errors failed: %v", res.Bag.Codes())
	}
	var buf bytes.Buffer
	if err := report(&buf, []*scenario.Result{res}, runOptions{format: "pretty", quiet: true}); err != nil {
		t.Fatalf("report: %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("quiet output for a passing scenario: %q", buf.String())
	}
}

func TestReportJSON(t *testing.T) {
	res := scenario.RunSource(context.Background(), "failing.toml", []byte(failing), scenario.Options{})
	var buf bytes.Buffer
	if err := report(&buf, []*scenario.Result{res}, runOptions{format: "json"}); err != nil {
		t.Fatalf("report: %v", err)
	}
	var got []scenarioJSON
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if len(got) != 1 || got[0].Passed || got[0].Name != "failing" {
		t.Fatalf("payload = %+v", got)
	}
	if diff := cmp.Diff([]string{"S::x: not declared"}, got[0].Mismatches); diff != "" {
		t.Fatalf("mismatches (-want +got):\n%s", diff)
	}
}

func TestPrintTally(t *testing.T) {
	var buf bytes.Buffer
	printTally(&buf, 3, 1, false)
	if got := strings.TrimSpace(buf.String()); got != "3 scenarios, 2 passed, 1 failed" {
		t.Fatalf("tally = %q", got)
	}
}

func TestPrintedLines(t *testing.T) {
	if got := printedLines(""); got != nil {
		t.Fatalf("printedLines(\"\") = %v", got)
	}
	if diff := cmp.Diff([]string{"int", "bool"}, printedLines("int\nbool\n")); diff != "" {
		t.Fatalf("lines (-want +got):\n%s", diff)
	}
}
