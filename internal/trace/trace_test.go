package trace

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestLevelGatesScopes(t *testing.T) {
	ring := NewRingTracer(16, LevelDetail)
	Begin(ring, ScopePass, "apply-effects", 0).End("")
	s := Begin(ring, ScopeInjection, "copy-decl", 0)
	Point(ring, ScopeDecl, "clone", "f", s.ID())
	s.Attr("decl", "f").End("ok")

	events := ring.Snapshot()
	if len(events) != 4 {
		t.Fatalf("expected 4 events, got %d", len(events))
	}
	last := events[3]
	if last.Kind != KindSpanEnd || last.Name != "copy-decl" || last.Attrs["decl"] != "f" {
		t.Fatalf("unexpected last event: %+v", last)
	}
	if events[2].Attrs != nil {
		t.Fatalf("begin event carries attrs: %+v", events[2])
	}
	for i := 1; i < len(events); i++ {
		if events[i].Seq <= events[i-1].Seq {
			t.Fatalf("sequence not increasing at %d", i)
		}
	}
}

func TestRingWraps(t *testing.T) {
	ring := NewRingTracer(2, LevelDebug)
	for _, name := range []string{"a", "b", "c"} {
		Point(ring, ScopeDecl, name, "", 0)
	}
	got := ring.Snapshot()
	if len(got) != 2 || got[0].Name != "b" || got[1].Name != "c" {
		t.Fatalf("unexpected snapshot: %+v", got)
	}
}

func TestDisabledSpanIsSafe(t *testing.T) {
	s := Begin(Nop, ScopeDriver, "run", 0)
	if s.ID() != 0 {
		t.Fatalf("disabled span should have id 0")
	}
	if d := s.Attr("k", "v").End(""); d != 0 {
		t.Fatalf("disabled span measured %v", d)
	}
	var nilSpan *Span
	nilSpan.Attr("k", "v").End("")
}

func TestStreamFormats(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelPhase, FormatNDJSON)
	Begin(tr, ScopeDriver, "scenario", 0).Attr("path", "a.toml").End("")
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("unexpected ndjson output:\n%s", buf.String())
	}
	var end jsonEvent
	if err := json.Unmarshal([]byte(lines[1]), &end); err != nil {
		t.Fatalf("bad json line %q: %v", lines[1], err)
	}
	if end.Kind != "end" || end.Scope != "driver" || end.Attrs["path"] != "a.toml" {
		t.Fatalf("unexpected end event: %+v", end)
	}

	buf.Reset()
	tr = NewStreamTracer(&buf, LevelPhase, FormatText)
	Point(tr, ScopePass, "evaluate", "block", 0)
	if !strings.Contains(buf.String(), "• evaluate (block)") {
		t.Fatalf("unexpected text output: %q", buf.String())
	}
}

func TestNewSelectsSinks(t *testing.T) {
	tr, err := New(Config{Level: LevelOff})
	if err != nil || tr != Nop {
		t.Fatalf("LevelOff gave %T, %v", tr, err)
	}
	tr, err = New(Config{Level: LevelPhase, Mode: ModeRing, RingSize: 8})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := tr.(*RingTracer); !ok {
		t.Fatalf("ring mode gave %T", tr)
	}
	var buf bytes.Buffer
	tr, err = New(Config{Level: LevelPhase, Mode: ModeBoth, Output: &buf})
	if err != nil {
		t.Fatal(err)
	}
	multi, ok := tr.(*MultiTracer)
	if !ok || multi.Ring() == nil {
		t.Fatalf("both mode gave %T", tr)
	}
	Point(tr, ScopePass, "x", "", 0)
	if buf.Len() == 0 || len(multi.Ring().Snapshot()) != 1 {
		t.Fatalf("event did not reach both sinks")
	}
}

func TestContextCarriesTracer(t *testing.T) {
	if FromContext(context.Background()) != Nop {
		t.Fatal("empty context should yield Nop")
	}
	ring := NewRingTracer(4, LevelPhase)
	ctx := WithTracer(context.Background(), ring)
	if FromContext(ctx) != Tracer(ring) {
		t.Fatal("tracer not carried")
	}
	s := Begin(ring, ScopeDriver, "run", 0)
	if got := CurrentSpan(WithSpan(ctx, s)); got != s.ID() {
		t.Fatalf("CurrentSpan = %d, want %d", got, s.ID())
	}
}

func TestParseNames(t *testing.T) {
	for in, want := range map[string]Level{"": LevelOff, "off": LevelOff, "PHASE": LevelPhase, "detail": LevelDetail, "debug": LevelDebug} {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Fatalf("ParseLevel(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseLevel("loud"); err == nil || !strings.Contains(err.Error(), "off|phase|detail|debug") {
		t.Fatalf("unexpected error: %v", err)
	}
	if m, err := ParseMode("Both"); err != nil || m != ModeBoth {
		t.Fatalf("ParseMode = %v, %v", m, err)
	}
	if _, err := ParseMode(""); err == nil {
		t.Fatal("empty mode accepted")
	}
	if f, err := ParseFormat("json"); err != nil || f != FormatNDJSON {
		t.Fatalf("ParseFormat(json) = %v, %v", f, err)
	}
	if FormatAuto.resolve("out.ndjson") != FormatNDJSON || FormatAuto.resolve("out.txt") != FormatText {
		t.Fatal("auto format not resolved from path")
	}
	if Scope(9).String() != "unknown" || ScopeInjection.String() != "injection" {
		t.Fatal("scope names")
	}
}
