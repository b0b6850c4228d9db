// Package scenario drives the injection core from TOML descriptions of a
// translation unit. A scenario lists declarations in source order:
// classes, namespaces and their members, fragments, constexpr blocks
// whose effects inject or print reflections, injection declarations and
// generated types. An optional [expect] table states the outcome.
//
//	[[decl]]
//	kind = "class"
//	name = "S"
//	  [[decl.members]]
//	  kind = "field"
//	  name = "x"
//	  value = 1
//
//	[[decl]]
//	kind = "class"
//	name = "T"
//	  [[decl.members]]
//	  kind = "constexpr"
//	    [[decl.members.effects]]
//	    decl = "S::x"
//	    modifiers = ["make_static"]
//
//	[expect]
//	diagnostics = []
//	  [[expect.decl]]
//	  name = "T"
//	  members = ["x"]
package scenario

import (
	"fmt"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
)

// File is the decoded form of a scenario.
type File struct {
	Name        string     `toml:"name"`
	Description string     `toml:"description"`
	Options     FileOpts   `toml:"options"`
	Decls       []DeclSpec `toml:"decl"`
	Expect      Expect     `toml:"expect"`

	defined func(key ...string) bool
}

// FileOpts is the [options] table.
type FileOpts struct {
	MaxInjectionDepth int  `toml:"max_injection_depth"`
	LazyBodies        bool `toml:"lazy_bodies"`
	MaxDiagnostics    int  `toml:"max_diagnostics"`
	// KeepDuplicates reports a diagnostic again when the same block is
	// evaluated more than once.
	KeepDuplicates bool `toml:"keep_duplicates"`
}

// DeclSpec describes one declaration. Kind selects which keys apply.
type DeclSpec struct {
	Kind   string `toml:"kind"`
	Name   string `toml:"name"`
	Type   string `toml:"type"`
	Access string `toml:"access"`

	Value   *int64 `toml:"value"`
	Capture string `toml:"capture"`

	Static    bool   `toml:"static"`
	Constexpr bool   `toml:"constexpr"`
	Virtual   bool   `toml:"virtual"`
	Pure      bool   `toml:"pure"`
	Defaulted bool   `toml:"defaulted"`
	Deleted   bool   `toml:"deleted"`
	Body      bool   `toml:"body"`
	Returns   *int64 `toml:"returns"`

	Params     []ParamSpec `toml:"params"`
	ParamsFrom string      `toml:"params_from"`

	Bases   []string   `toml:"bases"`
	Members []DeclSpec `toml:"members"`

	// fragments
	Content  string        `toml:"content"`
	Captures []CaptureSpec `toml:"captures"`

	// constexpr blocks
	Effects []EffectSpec `toml:"effects"`

	// injection declarations and generated types
	Reflect   string   `toml:"reflect"`
	Fragment  string   `toml:"fragment"`
	Modifiers []string `toml:"modifiers"`
	Prototype string   `toml:"prototype"`
	Copy      []string `toml:"copy"`
	Class     bool     `toml:"class"`
}

type ParamSpec struct {
	Name string `toml:"name"`
	Type string `toml:"type"`
}

// CaptureSpec is a local of the function enclosing a fragment.
type CaptureSpec struct {
	Name  string `toml:"name"`
	Value int64  `toml:"value"`
}

// EffectSpec is one statement of a constexpr block. Exactly one of
// Fragment, Decl and Type names the reflected construct.
type EffectSpec struct {
	Action    string   `toml:"action"` // inject (default) or print
	Fragment  string   `toml:"fragment"`
	Decl      string   `toml:"decl"`
	Type      string   `toml:"type"`
	Modifiers []string `toml:"modifiers"`
	Target    string   `toml:"target"`
}

// Expect is the [expect] table.
type Expect struct {
	OK          bool         `toml:"ok"`
	Diagnostics []string     `toml:"diagnostics"`
	Printed     []string     `toml:"printed"`
	Decls       []DeclExpect `toml:"decl"`
}

// DeclExpect checks one declaration found by qualified name. Unset keys
// are not checked.
type DeclExpect struct {
	Name    string    `toml:"name"`
	Missing bool      `toml:"missing"`
	Kind    string    `toml:"kind"`
	Members *[]string `toml:"members"`
	Access  string    `toml:"access"`
	Flags   []string  `toml:"flags"`
	NoFlags []string  `toml:"no_flags"`
	Invalid *bool     `toml:"invalid"`
	Value   *int64    `toml:"value"`
	Type    string    `toml:"type"`
}

// Decode parses scenario source. Unknown keys are an error.
func Decode(content []byte) (*File, error) {
	var f File
	md, err := toml.Decode(string(content), &f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		slices.Sort(keys)
		return nil, fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	f.defined = md.IsDefined
	return &f, nil
}

// Defined reports whether key was present in the source.
func (f *File) Defined(key ...string) bool {
	return f.defined != nil && f.defined(key...)
}

// HasExpectations reports whether the scenario states an outcome.
func (f *File) HasExpectations() bool { return f.Defined("expect") }
