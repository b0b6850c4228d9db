package source

import (
	"fmt"
	"os"
	"path/filepath"

	"fortio.org/safecast"
)

// FileFlags records where a file came from and how it was normalized.
type FileFlags uint8

const (
	FileVirtual FileFlags = 1 << iota // added from memory
	FileHadBOM
	FileNormalizedCRLF
)

// File is one registered source. Content has no byte order mark and uses
// LF line endings.
type File struct {
	ID      FileID
	Path    string
	Content []byte
	Flags   FileFlags

	newlines []uint32
}

// FileSet owns the scenario sources of one run and resolves spans
// against them.
type FileSet struct {
	files []File
}

func NewFileSet() *FileSet {
	return &FileSet{files: make([]File, 0, 2)}
}

// Add registers content under path. Every call allocates a new FileID.
func (fs *FileSet) Add(path string, content []byte, flags FileFlags) FileID {
	n, err := safecast.Conv[uint32](len(fs.files))
	if err != nil {
		panic(fmt.Errorf("file set overflow: %w", err))
	}
	id := FileID(n)
	fs.files = append(fs.files, File{
		ID:       id,
		Path:     filepath.ToSlash(filepath.Clean(path)),
		Content:  content,
		Flags:    flags,
		newlines: newlineOffsets(content),
	})
	return id
}

// Load reads path from disk and registers its normalized content.
func (fs *FileSet) Load(path string) (FileID, error) {
	// #nosec G304 -- path is provided by the caller
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	content, flags := normalize(content)
	return fs.Add(path, content, flags), nil
}

// AddVirtual registers in-memory content, normalized like a loaded file.
func (fs *FileSet) AddVirtual(name string, content []byte) FileID {
	content, flags := normalize(content)
	return fs.Add(name, content, flags|FileVirtual)
}

// Get returns the file for id, or nil.
func (fs *FileSet) Get(id FileID) *File {
	if int(id) >= len(fs.files) {
		return nil
	}
	return &fs.files[id]
}

// Resolve returns the positions of both ends of span. Spans of unknown
// files resolve to 1:1.
func (fs *FileSet) Resolve(span Span) (start, end LineCol) {
	f := fs.Get(span.File)
	if f == nil {
		return LineCol{Line: 1, Col: 1}, LineCol{Line: 1, Col: 1}
	}
	return f.Position(span.Start), f.Position(span.End)
}
