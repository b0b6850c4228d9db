package source

import (
	"bytes"
	"sort"

	"fortio.org/safecast"
)

var (
	bom  = []byte{0xEF, 0xBB, 0xBF}
	crlf = []byte("\r\n")
	lf   = []byte("\n")
)

// normalize strips a UTF-8 byte order mark and folds CRLF pairs into LF.
// A lone CR is kept.
func normalize(content []byte) ([]byte, FileFlags) {
	var flags FileFlags
	if rest, ok := bytes.CutPrefix(content, bom); ok {
		content = rest
		flags |= FileHadBOM
	}
	if bytes.Contains(content, crlf) {
		content = bytes.ReplaceAll(content, crlf, lf)
		flags |= FileNormalizedCRLF
	}
	return content, flags
}

// newlineOffsets records the offset of every '\n' in content.
func newlineOffsets(content []byte) []uint32 {
	out := make([]uint32, 0, len(content)/32+1)
	for off := 0; ; {
		i := bytes.IndexByte(content[off:], '\n')
		if i < 0 {
			return out
		}
		n, err := safecast.Conv[uint32](off + i)
		if err != nil {
			// offsets past 4GiB resolve to the last indexed line
			return out
		}
		out = append(out, n)
		off += i + 1
	}
}

// Position resolves a byte offset of f.
func (f *File) Position(off uint32) LineCol {
	// newlines strictly before off
	line := sort.Search(len(f.newlines), func(i int) bool { return f.newlines[i] >= off })
	var start uint32
	if line > 0 {
		start = f.newlines[line-1] + 1
	}
	n, err := safecast.Conv[uint32](line + 1)
	if err != nil {
		n = ^uint32(0)
	}
	return LineCol{Line: n, Col: off - start + 1}
}

// Line returns the 1-based line n without its newline, or "" when f has
// no such line.
func (f *File) Line(n uint32) string {
	if f == nil || n == 0 || int(n) > len(f.newlines)+1 {
		return ""
	}
	start := 0
	if n > 1 {
		start = int(f.newlines[n-2]) + 1
	}
	end := len(f.Content)
	if int(n) <= len(f.newlines) {
		end = int(f.newlines[n-1])
	}
	return string(f.Content[start:end])
}
