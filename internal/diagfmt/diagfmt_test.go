package diagfmt

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"splice/internal/diag"
	"splice/internal/source"
)

const sample = "class S {\n  int x = 1;\n}\n"

func sampleBag(t *testing.T) (*diag.Bag, *source.FileSet) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("cases/f.toml", []byte(sample))
	bag := diag.NewBag(10)
	d := diag.NewError(diag.SemaPureWithoutVirtual, source.Span{File: id, Start: 16, End: 17}, "pure requires virtual").
		WithNote(source.Span{File: id, Start: 0, End: 5}, "declared here")
	bag.Add(d)
	return bag, fs
}

func TestPrettyLayout(t *testing.T) {
	bag, fs := sampleBag(t)
	var buf bytes.Buffer
	if err := Pretty(&buf, bag, fs, PrettyOpts{Context: 1, ShowNotes: true}); err != nil {
		t.Fatal(err)
	}
	want := strings.Join([]string{
		"cases/f.toml:2:7: ERROR SEM3208: pure requires virtual",
		"  1 | class S {",
		"  2 |   int x = 1;",
		"    |       ^",
		"  note: cases/f.toml:1:1: declared here",
		"",
	}, "\n")
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Fatalf("Pretty (-want +got):\n%s", diff)
	}
}

func TestPrettyBasenameAndMax(t *testing.T) {
	bag, fs := sampleBag(t)
	bag.Add(diag.NewError(diag.SemaRedefinition, source.Span{Start: 0, End: 5}, "redefinition of S"))
	var buf bytes.Buffer
	if err := Pretty(&buf, bag, fs, PrettyOpts{PathMode: PathModeBasename, Max: 1}); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "f.toml:2:7:") {
		t.Fatalf("basename not applied:\n%s", out)
	}
	if strings.Contains(out, "note:") || strings.Contains(out, "SEM3215") {
		t.Fatalf("notes or truncated diagnostics printed:\n%s", out)
	}
	if !strings.HasSuffix(out, "... 1 more diagnostics\n") {
		t.Fatalf("missing truncation line:\n%s", out)
	}
}

func TestPrettyColor(t *testing.T) {
	bag, fs := sampleBag(t)
	var plain, colored bytes.Buffer
	if err := Pretty(&plain, bag, fs, PrettyOpts{}); err != nil {
		t.Fatal(err)
	}
	if err := Pretty(&colored, bag, fs, PrettyOpts{Color: true}); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(plain.String(), "\x1b[") {
		t.Fatal("escape codes without Color")
	}
	if !strings.Contains(colored.String(), "\x1b[") {
		t.Fatal("no escape codes with Color")
	}
}

func TestUnderlineWidth(t *testing.T) {
	tests := []struct {
		text       string
		start, end uint32
		pad, mark  string
	}{
		{"int x = 1;", 5, 6, "    ", "^"},
		{"int value;", 5, 10, "    ", "^~~~~"},
		{"int value;", 5, 0, "    ", "^~~~~~"},
		{"名前 x", 8, 9, "     ", "^"},
		{"名前;", 1, 7, "", "^~~~"},
		{"short", 40, 41, "     ", "^"},
	}
	for _, tt := range tests {
		pad, mark := underline(tt.text, tt.start, tt.end)
		if pad != tt.pad || mark != tt.mark {
			t.Errorf("underline(%q, %d, %d) = %q, %q; want %q, %q", tt.text, tt.start, tt.end, pad, mark, tt.pad, tt.mark)
		}
	}
}

func TestJSON(t *testing.T) {
	bag, fs := sampleBag(t)
	var buf bytes.Buffer
	if err := JSON(&buf, bag, fs, JSONOpts{IncludePositions: true, IncludeNotes: true}); err != nil {
		t.Fatal(err)
	}
	var got DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}
	want := DiagnosticsOutput{
		Count: 1,
		Total: 1,
		Diagnostics: []DiagnosticJSON{{
			Severity: "ERROR",
			Code:     "SEM3208",
			Title:    "pure requires virtual",
			Message:  "pure requires virtual",
			Location: LocationJSON{File: "cases/f.toml", StartByte: 16, EndByte: 17, StartLine: 2, StartCol: 7, EndLine: 2, EndCol: 8},
			Notes: []NoteJSON{{
				Message:  "declared here",
				Location: LocationJSON{File: "cases/f.toml", StartByte: 0, EndByte: 5, StartLine: 1, StartCol: 1, EndLine: 1, EndCol: 6},
			}},
		}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("JSON (-want +got):\n%s", diff)
	}
}

func TestSummary(t *testing.T) {
	bag := diag.NewBag(10)
	bag.Add(diag.NewError(diag.SemaRedefinition, source.Span{}, "a"))
	bag.Add(diag.NewError(diag.SemaPureDefined, source.Span{}, "b"))
	bag.Add(diag.NewError(diag.SemaRedefinition, source.Span{}, "c"))

	rows := Summarize(bag)
	want := []SummaryRow{
		{Code: diag.SemaPureDefined, Title: diag.SemaPureDefined.Title(), Count: 1},
		{Code: diag.SemaRedefinition, Title: diag.SemaRedefinition.Title(), Count: 2},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Fatalf("Summarize (-want +got):\n%s", diff)
	}

	var buf bytes.Buffer
	if err := Summary(&buf, bag); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 || lines[2] != "3 diagnostics" {
		t.Fatalf("Summary:\n%s", buf.String())
	}
	if len(lines[0]) != len(lines[1]) {
		t.Fatalf("rows not aligned:\n%s", buf.String())
	}
}
