package diag

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"splice/internal/source"
)

func TestBagLimitAndErrors(t *testing.T) {
	bag := NewBag(2)
	r := BagReporter{Bag: bag}
	ReportInfo(r, SemaReflectionPrint, source.Span{}, "printed").Emit()
	if bag.HasErrors() {
		t.Fatal("info diagnostic must not count as error")
	}
	ReportError(r, SemaInvalidInjection, source.Span{Start: 3, End: 4}, "bad").Emit()
	ReportError(r, SemaRedefinition, source.Span{}, "dropped").Emit()
	if bag.Len() != 2 || bag.Dropped() != 1 {
		t.Fatalf("len = %d, dropped = %d; want 2 and 1", bag.Len(), bag.Dropped())
	}
	if !bag.HasErrors() {
		t.Fatal("expected errors")
	}
	if bag.Count(SemaInvalidInjection) != 1 {
		t.Fatalf("count mismatch: %v", bag.Codes())
	}
	if got := bag.AtLeast(SevError); len(got) != 1 || got[0].Code != SemaInvalidInjection {
		t.Fatalf("AtLeast(SevError) = %+v", got)
	}
	if got := bag.AtLeast(SevInfo); len(got) != 2 {
		t.Fatalf("AtLeast(SevInfo) kept %d", len(got))
	}
}

func TestReportBuilderEmitsOnce(t *testing.T) {
	bag := NewBag(10)
	b := ReportError(BagReporter{Bag: bag}, SemaCloneFailed, source.Span{}, "x").
		WithNote(source.Span{Start: 1}, "first").
		WithNotes([]Note{{Span: source.Span{Start: 2}, Msg: "second"}})
	b.Emit()
	b.Emit()
	if bag.Len() != 1 {
		t.Fatalf("builder emitted %d times", bag.Len())
	}
	var msgs []string
	for _, n := range bag.Items()[0].Notes {
		msgs = append(msgs, n.Msg)
	}
	if diff := cmp.Diff([]string{"first", "second"}, msgs); diff != "" {
		t.Fatalf("notes (-want +got):\n%s", diff)
	}

	nilBuilder := ReportError(nil, SemaCloneFailed, source.Span{}, "no reporter")
	if nilBuilder != nil {
		t.Fatal("nil reporter should give a nil builder")
	}
	nilBuilder.WithNote(source.Span{}, "ignored").WithNotes(nil).Emit()
}

func TestDedupReporter(t *testing.T) {
	bag := NewBag(10)
	r := NewDedupReporter(BagReporter{Bag: bag})
	for range 3 {
		r.Report(SemaPureDefined, SevError, source.Span{Start: 1, End: 2}, "same", nil)
	}
	r.Report(SemaPureDefined, SevError, source.Span{Start: 1, End: 3}, "same", nil)
	r.Report(SemaPureDefined, SevInfo, source.Span{Start: 1, End: 2}, "same", nil)
	if bag.Len() != 3 {
		t.Fatalf("expected 3 unique diagnostics, got %d", bag.Len())
	}
}

func TestParseSeverity(t *testing.T) {
	for _, s := range []Severity{SevInfo, SevWarning, SevError} {
		got, err := ParseSeverity(s.String())
		if err != nil || got != s {
			t.Errorf("ParseSeverity(%q) = %v, %v", s, got, err)
		}
	}
	if got, err := ParseSeverity("error"); err != nil || got != SevError {
		t.Errorf("lower case not accepted: %v, %v", got, err)
	}
	if _, err := ParseSeverity("fatal"); err == nil {
		t.Error("unknown severity accepted")
	}
	if Severity(9).String() != "UNKNOWN" {
		t.Errorf("out of range severity = %q", Severity(9))
	}
}

func TestCodeIDs(t *testing.T) {
	cases := map[Code]string{
		SemaInvalidInjection: "SEM3200",
		IOLoadFileError:      "IO4001",
		ProjUnknownName:      "PRJ5002",
		UnknownCode:          "E0000",
	}
	for code, want := range cases {
		if got := code.ID(); got != want {
			t.Fatalf("%d.ID() = %q, want %q", code, got, want)
		}
	}
}
