package scenario

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"

	"splice/internal/ast"
	"splice/internal/observ"
)

// SnapshotVersion is bumped when the encoded layout changes.
const SnapshotVersion = 1

// Snapshot is the serialisable outcome of a run: the injected translation
// unit, the diagnostics and the phase timings.
type Snapshot struct {
	Version     int            `msgpack:"version"`
	Name        string         `msgpack:"name"`
	Path        string         `msgpack:"path"`
	OK          bool           `msgpack:"ok"`
	Unit        *ast.Snapshot  `msgpack:"unit"`
	Diagnostics []SnapshotDiag `msgpack:"diagnostics"`
	Printed     string         `msgpack:"printed,omitempty"`
	Timing      observ.Report  `msgpack:"timing"`
}

type SnapshotDiag struct {
	Code     string `msgpack:"code"`
	Severity string `msgpack:"severity"`
	Message  string `msgpack:"message"`
	Line     uint32 `msgpack:"line"`
	Col      uint32 `msgpack:"col"`
}

// TakeSnapshot captures res. Implicit declarations are kept when
// implicit is set.
func TakeSnapshot(res *Result, implicit bool) *Snapshot {
	snap := &Snapshot{
		Version: SnapshotVersion,
		Name:    res.Name,
		Path:    res.Path,
		OK:      res.OK,
		Printed: res.Printed,
		Timing:  res.Timing,
	}
	if res.Unit != nil {
		opts := ast.SnapOptions{Implicit: implicit, Mask: ast.FlagReferenced | ast.FlagUsed | ast.FlagComplete | ast.FlagBeingDefined}
		snap.Unit = ast.SnapWith(res.Unit.TU, opts)
	}
	for _, d := range res.Bag.Items() {
		start, _ := res.Files.Resolve(d.Primary)
		snap.Diagnostics = append(snap.Diagnostics, SnapshotDiag{
			Code:     d.Code.ID(),
			Severity: d.Severity.String(),
			Message:  d.Message,
			Line:     start.Line,
			Col:      start.Col,
		})
	}
	return snap
}

func EncodeSnapshot(w io.Writer, snap *Snapshot) error {
	return msgpack.NewEncoder(w).Encode(snap)
}

func DecodeSnapshot(r io.Reader) (*Snapshot, error) {
	var snap Snapshot
	if err := msgpack.NewDecoder(r).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if snap.Version != SnapshotVersion {
		return nil, fmt.Errorf("snapshot version %d, want %d", snap.Version, SnapshotVersion)
	}
	return &snap, nil
}

// WriteSnapshot encodes snap to path through a temporary file in the same
// directory, so readers never observe a partial snapshot.
func WriteSnapshot(path string, snap *Snapshot) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, "tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if rmErr := os.Remove(f.Name()); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) && err == nil {
			err = rmErr
		}
	}()
	if err := EncodeSnapshot(f, snap); err != nil {
		_ = f.Close() //nolint:errcheck // the encode error wins
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), path)
}

func ReadSnapshot(path string) (snap *Snapshot, err error) {
	// #nosec G304 -- path is provided by the caller
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	return DecodeSnapshot(f)
}
