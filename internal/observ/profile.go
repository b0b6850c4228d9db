package observ

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
	rtrace "runtime/trace"
)

// Profiles names the output files of the runtime profilers. Empty paths
// are skipped.
type Profiles struct {
	CPU   string
	Heap  string
	Trace string
}

// Start enables the CPU profiler and the runtime tracer. The returned stop
// function ends them and then writes the heap profile; it is safe to call
// more than once.
func (p Profiles) Start() (stop func() error, err error) {
	var closers []func() error
	undo := func() error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			errs = append(errs, closers[i]())
		}
		return errors.Join(errs...)
	}

	if p.CPU != "" {
		f, err := os.Create(p.CPU)
		if err != nil {
			return nil, fmt.Errorf("cpu profile: %w", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			_ = f.Close() //nolint:errcheck // the start error wins
			return nil, fmt.Errorf("cpu profile: %w", err)
		}
		closers = append(closers, func() error {
			pprof.StopCPUProfile()
			return f.Close()
		})
	}
	if p.Trace != "" {
		f, err := os.Create(p.Trace)
		if err != nil {
			_ = undo() //nolint:errcheck // the create error wins
			return nil, fmt.Errorf("runtime trace: %w", err)
		}
		if err := rtrace.Start(f); err != nil {
			_ = f.Close() //nolint:errcheck
			_ = undo()    //nolint:errcheck
			return nil, fmt.Errorf("runtime trace: %w", err)
		}
		closers = append(closers, func() error {
			rtrace.Stop()
			return f.Close()
		})
	}

	stopped := false
	return func() error {
		if stopped {
			return nil
		}
		stopped = true
		err := undo()
		if p.Heap != "" {
			err = errors.Join(err, writeHeap(p.Heap))
		}
		return err
	}, nil
}

func writeHeap(path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("heap profile: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	runtime.GC()
	if err := pprof.WriteHeapProfile(f); err != nil {
		return fmt.Errorf("heap profile: %w", err)
	}
	return nil
}
