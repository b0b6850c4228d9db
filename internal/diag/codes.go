package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Semantic: injection and reflection
	SemaInfo                     Code = 3000
	SemaError                    Code = 3001
	SemaInvalidInjection         Code = 3200 // injection/injectee context kinds do not match
	SemaInjectLocalIntoBadScope  Code = 3201 // automatic variable copied outside a function
	SemaNotAReflection           Code = 3202
	SemaReflectionNotADecl       Code = 3203
	SemaAccessOnNonMember        Code = 3204
	SemaConstexprDestructor      Code = 3205
	SemaConstexprNotApplicable   Code = 3206
	SemaVirtualNonMethod         Code = 3207
	SemaPureWithoutVirtual       Code = 3208
	SemaPureDefined              Code = 3209
	SemaPureDefaulted            Code = 3210
	SemaPureDeleted              Code = 3211
	SemaConstexprVirtual         Code = 3212
	SemaConstexprVarNoInit       Code = 3213
	SemaCloneFailed              Code = 3214
	SemaRedefinition             Code = 3215
	SemaExtendingNonReflection   Code = 3216
	SemaInvalidInjectedParameter Code = 3217
	SemaInjectionDepthExceeded   Code = 3218
	SemaConstexprEvalFailed      Code = 3219
	SemaReflectionPrint          Code = 3220

	// I/O
	IOLoadFileError Code = 4001

	// Scenario / project
	ProjInfo            Code = 5000
	ProjInvalidScenario Code = 5001
	ProjUnknownName     Code = 5002
	ProjUnknownKind     Code = 5003

	// Observability
	ObsInfo    Code = 6000
	ObsTimings Code = 6001
)

var (
	codeDescription = map[Code]string{
		UnknownCode:                  "Unknown error",
		SemaInfo:                     "Semantic information",
		SemaError:                    "Semantic error",
		SemaInvalidInjection:         "cannot inject declaration into this context",
		SemaInjectLocalIntoBadScope:  "cannot inject a local variable outside a function",
		SemaNotAReflection:           "expression is not a reflection",
		SemaReflectionNotADecl:       "reflection does not name a declaration",
		SemaAccessOnNonMember:        "cannot change the access of a non-member",
		SemaConstexprDestructor:      "a destructor cannot be made constexpr",
		SemaConstexprNotApplicable:   "only variables and functions can be made constexpr",
		SemaVirtualNonMethod:         "only member functions can be made virtual",
		SemaPureWithoutVirtual:       "pure requires virtual",
		SemaPureDefined:              "cannot make a defined function pure virtual",
		SemaPureDefaulted:            "cannot make a defaulted function pure virtual",
		SemaPureDeleted:              "cannot make a deleted function pure virtual",
		SemaConstexprVirtual:         "a virtual function cannot be constexpr",
		SemaConstexprVarNoInit:       "constexpr variable requires an initializer",
		SemaCloneFailed:              "failed to copy declaration",
		SemaRedefinition:             "redefinition",
		SemaExtendingNonReflection:   "extension target is not a reflection",
		SemaInvalidInjectedParameter: "invalid injected parameter",
		SemaInjectionDepthExceeded:   "injection depth exceeded",
		SemaConstexprEvalFailed:      "constexpr evaluation failed",
		SemaReflectionPrint:          "reflection printed",
		IOLoadFileError:              "I/O load file error",
		ProjInfo:                     "Scenario information",
		ProjInvalidScenario:          "Invalid scenario",
		ProjUnknownName:              "Unknown name in scenario",
		ProjUnknownKind:              "Unknown declaration kind in scenario",
		ObsInfo:                      "Observability information",
		ObsTimings:                   "Pipeline timings",
	}
)

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("SEM%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("PRJ%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("OBS%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return c.ID()
}
