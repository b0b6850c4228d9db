package source

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestResolve(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("a.toml", []byte("one\ntwo\nthree"))

	cases := []struct {
		off  uint32
		want LineCol
	}{
		{0, LineCol{Line: 1, Col: 1}},
		{2, LineCol{Line: 1, Col: 3}},
		{3, LineCol{Line: 1, Col: 4}},
		{4, LineCol{Line: 2, Col: 1}},
		{9, LineCol{Line: 3, Col: 2}},
	}
	for _, tc := range cases {
		got, _ := fs.Resolve(Span{File: id, Start: tc.off, End: tc.off})
		if got != tc.want {
			t.Fatalf("offset %d: got %+v, want %+v", tc.off, got, tc.want)
		}
	}
	if got, _ := fs.Resolve(Span{File: 7}); got != (LineCol{Line: 1, Col: 1}) {
		t.Fatalf("unknown file resolved to %+v", got)
	}
}

func TestLine(t *testing.T) {
	f := NewFileSet()
	file := f.Get(f.AddVirtual("a.toml", []byte("one\n\nthree\n")))
	var got []string
	for n := uint32(0); n <= 5; n++ {
		got = append(got, file.Line(n))
	}
	if diff := cmp.Diff([]string{"", "one", "", "three", "", ""}, got); diff != "" {
		t.Fatalf("lines (-want +got):\n%s", diff)
	}
}

func TestNormalize(t *testing.T) {
	out, flags := normalize([]byte{0xEF, 0xBB, 0xBF, 'a', '\r', '\n', 'b', '\r'})
	if string(out) != "a\nb\r" {
		t.Fatalf("content = %q", out)
	}
	if flags != FileHadBOM|FileNormalizedCRLF {
		t.Fatalf("flags = %b", flags)
	}
	fs := NewFileSet()
	if f := fs.Get(fs.AddVirtual("x", []byte("\r\n"))); f.Flags != FileVirtual|FileNormalizedCRLF || string(f.Content) != "\n" {
		t.Fatalf("virtual file = %+v", f)
	}
}

func TestInternerNormalizesNFC(t *testing.T) {
	in := NewInterner()
	composed := in.Canonical("caf\u00e9")
	decomposed := in.Canonical("cafe\u0301")
	if composed != decomposed || decomposed != "caf\u00e9" {
		t.Fatalf("NFC and NFD spellings differ: %q vs %q", composed, decomposed)
	}
	in.Canonical("x")
	if in.Len() != 2 {
		t.Fatalf("Len = %d, want 2", in.Len())
	}
}

func TestSpanCover(t *testing.T) {
	a := Span{File: 1, Start: 4, End: 6}
	b := Span{File: 1, Start: 2, End: 5}
	if got := a.Cover(b); got != (Span{File: 1, Start: 2, End: 6}) {
		t.Fatalf("cover = %v", got)
	}
	if got := a.Cover(Span{File: 2, Start: 0, End: 100}); got != a {
		t.Fatalf("cover across files must be a no-op, got %v", got)
	}
	if !(Span{Start: 3, End: 3}).Empty() {
		t.Fatal("zero-length span not empty")
	}
}
