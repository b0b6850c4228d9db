package trace

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Level selects which scopes are recorded.
type Level uint8

const (
	LevelOff    Level = iota
	LevelPhase        // scenario runs and passes
	LevelDetail       // plus every injection
	LevelDebug        // plus per-declaration clone points
)

var levelNames = names{"off", "phase", "detail", "debug"}

func (l Level) String() string { return levelNames.str(uint8(l)) }

func ParseLevel(s string) (Level, error) {
	v, err := levelNames.parse("level", s, map[string]uint8{"": 0})
	return Level(v), err
}

// maxScope is the finest scope recorded at l.
func (l Level) maxScope() Scope {
	switch l {
	case LevelPhase:
		return ScopePass
	case LevelDetail:
		return ScopeInjection
	case LevelDebug:
		return ScopeDecl
	}
	return 0
}

// ShouldEmit reports whether events of scope are recorded at l.
func (l Level) ShouldEmit(scope Scope) bool { return scope <= l.maxScope() && scope != 0 }

// StorageMode decides where events go.
type StorageMode uint8

const (
	ModeStream StorageMode = iota + 1 // written as they happen
	ModeRing                          // last N kept for a crash dump
	ModeBoth
)

var modeNames = names{"", "stream", "ring", "both"}

func (m StorageMode) String() string { return modeNames.str(uint8(m)) }

func ParseMode(s string) (StorageMode, error) {
	v, err := modeNames.parse("mode", s, nil)
	if err != nil {
		return ModeStream, err
	}
	return StorageMode(v), nil
}

// Format is the encoding of streamed events.
type Format uint8

const (
	FormatAuto Format = iota // ndjson for *.ndjson paths, text otherwise
	FormatText
	FormatNDJSON
)

var formatNames = names{"auto", "text", "ndjson"}

func (f Format) String() string { return formatNames.str(uint8(f)) }

func ParseFormat(s string) (Format, error) {
	v, err := formatNames.parse("format", s, map[string]uint8{"": 0, "json": uint8(FormatNDJSON)})
	return Format(v), err
}

func (f Format) resolve(path string) Format {
	if f != FormatAuto {
		return f
	}
	if strings.HasSuffix(path, ".ndjson") {
		return FormatNDJSON
	}
	return FormatText
}

// Config describes the tracer built by New.
type Config struct {
	Level      Level
	Mode       StorageMode
	Format     Format
	Output     io.Writer // wins over OutputPath
	OutputPath string    // "" and "-" mean stderr
	RingSize   int       // 0 means 4096
}

// New builds the tracer cfg describes. LevelOff yields Nop.
func New(cfg Config) (Tracer, error) {
	if cfg.Level == LevelOff {
		return Nop, nil
	}
	if cfg.Mode == ModeRing {
		return NewRingTracer(cfg.RingSize, cfg.Level), nil
	}
	if cfg.Mode != 0 && cfg.Mode != ModeStream && cfg.Mode != ModeBoth {
		return nil, fmt.Errorf("unknown storage mode: %v", cfg.Mode)
	}

	w := cfg.Output
	if w == nil {
		var err error
		if w, err = openOutput(cfg.OutputPath); err != nil {
			return nil, err
		}
	}
	stream := NewStreamTracer(w, cfg.Level, cfg.Format.resolve(cfg.OutputPath))
	if cfg.Mode == ModeBoth {
		return NewMultiTracer(cfg.Level, stream, NewRingTracer(cfg.RingSize, cfg.Level)), nil
	}
	return stream, nil
}

func openOutput(path string) (io.Writer, error) {
	if path == "" || path == "-" {
		return os.Stderr, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace output: %w", err)
	}
	return f, nil
}
