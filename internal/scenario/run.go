package scenario

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"splice/internal/ast"
	"splice/internal/diag"
	"splice/internal/inject"
	"splice/internal/meta"
	"splice/internal/observ"
	"splice/internal/source"
	"splice/internal/trace"
)

// Options override the [options] table of a scenario when non-zero.
type Options struct {
	MaxDiagnostics    int
	MaxInjectionDepth int
	LazyBodies        bool
}

// Result is the outcome of one scenario.
type Result struct {
	Path  string
	Name  string
	Files *source.FileSet
	Bag   *diag.Bag
	// Unit is nil when the scenario did not decode.
	Unit    *ast.Context
	Printed string
	// OK reports a run without error diagnostics.
	OK bool
	// Checked is set when the scenario has an [expect] table.
	Checked    bool
	Mismatches []string
	// Timer holds the phases of the run; Timing is its report.
	Timer  *observ.Timer
	Timing observ.Report
}

// Passed reports whether every expectation held. Scenarios that fail to
// load never pass.
func (r *Result) Passed() bool {
	return r.Unit != nil && len(r.Mismatches) == 0
}

// Run loads and runs the scenario at path. Load failures are reported as
// diagnostics on the result.
func Run(ctx context.Context, path string, opts Options) *Result {
	files := source.NewFileSet()
	id, err := files.Load(path)
	if err != nil {
		bag := diag.NewBag(opts.MaxDiagnostics)
		if b := diag.ReportError(diag.BagReporter{Bag: bag}, diag.IOLoadFileError, source.Span{}, "failed to load scenario: "+err.Error()); b != nil {
			b.Emit()
		}
		return &Result{Path: path, Name: filepath.Base(path), Files: files, Bag: bag}
	}
	return run(ctx, files, id, opts)
}

// RunSource runs in-memory scenario content registered under name.
func RunSource(ctx context.Context, name string, content []byte, opts Options) *Result {
	files := source.NewFileSet()
	id := files.AddVirtual(name, content)
	return run(ctx, files, id, opts)
}

func run(ctx context.Context, files *source.FileSet, id source.FileID, opts Options) *Result {
	timer := observ.NewTimer()
	f := files.Get(id)
	res := &Result{Path: f.Path, Name: filepath.Base(f.Path), Files: files, Timer: timer}

	done := timer.Track("decode")
	file, err := Decode(f.Content)
	if err != nil {
		done("failed")
		res.Bag = diag.NewBag(opts.MaxDiagnostics)
		if b := diag.ReportError(diag.BagReporter{Bag: res.Bag}, diag.ProjInvalidScenario, source.Span{File: id}, "invalid scenario: "+err.Error()); b != nil {
			b.Emit()
		}
		res.Timing = timer.Report()
		return res
	}
	done(fmt.Sprintf("%d decls", len(file.Decls)))
	if file.Name != "" {
		res.Name = file.Name
	}

	limit := opts.MaxDiagnostics
	if limit <= 0 {
		limit = file.Options.MaxDiagnostics
	}
	depth := opts.MaxInjectionDepth
	if depth <= 0 {
		depth = file.Options.MaxInjectionDepth
	}
	res.Bag = diag.NewBag(limit)
	var rep diag.Reporter = diag.BagReporter{Bag: res.Bag}
	if !file.Options.KeepDuplicates {
		rep = diag.NewDedupReporter(rep)
	}

	tracer := trace.FromContext(ctx)
	sp := trace.Begin(tracer, trace.ScopeDriver, "scenario", trace.CurrentSpan(ctx)).Attr("path", f.Path)
	var printed bytes.Buffer
	unit := ast.NewContext()
	s := inject.New(unit, meta.New(unit), inject.Options{
		Reporter:          rep,
		Tracer:            tracer,
		Output:            &printed,
		MaxInjectionDepth: depth,
		LazyBodies:        opts.LazyBodies || file.Options.LazyBodies,
	})

	done = timer.Track("build")
	b := newBuilder(s, rep, newLocator(f))
	b.build(file.Decls)
	b.finish()
	done(fmt.Sprintf("%d diagnostics", res.Bag.Len()))
	sp.End(fmt.Sprintf("%d diagnostics", res.Bag.Len()))

	res.Unit = unit
	res.Printed = printed.String()
	res.OK = !res.Bag.HasErrors()
	if file.HasExpectations() {
		done = timer.Track("check")
		res.Checked = true
		res.Mismatches = check(s, file, res)
		done(fmt.Sprintf("%d mismatches", len(res.Mismatches)))
	}
	res.Timing = timer.Report()
	return res
}

// List returns the *.toml files below dir in lexical order.
func List(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, ".toml") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// RunDir runs every scenario below dir with at most jobs running at once;
// jobs <= 0 selects GOMAXPROCS. Results follow the order of List.
// Scenarios share nothing, so each gets its own declaration graph.
func RunDir(ctx context.Context, dir string, opts Options, jobs int) ([]*Result, error) {
	files, err := List(dir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, nil
	}
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	// indices are unique per goroutine, no mutex needed
	results := make([]*Result, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(files)))
	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = Run(gctx, path, opts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
