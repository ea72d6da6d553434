// Package classify implements the compiler-argument classifier: a pure
// function mapping a raw compiler argv to a structured CompilationIntent
// (spec.md §3, §4.1). Its only I/O is reading @response-files, and its
// only errors come from that expansion (an unreadable file, or nesting
// deeper than maxResponseFileDepth) — unknown flags default to "pass
// through as a compiler flag", per spec.md §4.1.
//
// The flag taxonomy is grounded on the teacher's compile/Facet.go and
// internal/hal/linux/{LLVM,GCC}.go, which encode a very similar table (flag
// name, arity, which phase it affects) in the *opposite* direction — the
// teacher builds an argv from structured options, while classify does the
// inverse: recovers structure from an argv. The record shape mirrors
// theirs so the two remain easy to compare flag-for-flag.
package classify

// Mode is the compilation mode spec.md §3 defines for CompilationIntent.
type Mode int

const (
	ModeCompileOnly Mode = iota
	ModeCompileAndLink
	ModeLinkOnly
	ModeAssemble
	ModePreprocessOnly
	ModeDependencyOnly
	ModePrintInfo
	ModeConfigureProbe
)

func (m Mode) String() string {
	switch m {
	case ModeCompileOnly:
		return "compile-only"
	case ModeCompileAndLink:
		return "compile-and-link"
	case ModeLinkOnly:
		return "link-only"
	case ModeAssemble:
		return "assemble"
	case ModePreprocessOnly:
		return "preprocess-only"
	case ModeDependencyOnly:
		return "dependency-only"
	case ModePrintInfo:
		return "print-info"
	case ModeConfigureProbe:
		return "configure-probe"
	default:
		return "unknown"
	}
}

// Language is the CompilationIntent language tag from spec.md §3.
type Language int

const (
	LanguageUnknown Language = iota
	LanguageC
	LanguageCXX
	LanguageAssembly
)

func (l Language) String() string {
	switch l {
	case LanguageC:
		return "c"
	case LanguageCXX:
		return "c++"
	case LanguageAssembly:
		return "assembly"
	default:
		return "unknown"
	}
}

// InputKind tags an input path the way spec.md §3 requires: "each tagged
// by kind (source, object, archive, shared-object, other)".
type InputKind int

const (
	InputSource InputKind = iota
	InputObject
	InputArchive
	InputSharedObject
	InputOther
)

func (k InputKind) String() string {
	switch k {
	case InputSource:
		return "source"
	case InputObject:
		return "object"
	case InputArchive:
		return "archive"
	case InputSharedObject:
		return "shared-object"
	default:
		return "other"
	}
}

// Input is one argv token classified as an input (as opposed to a flag).
type Input struct {
	Path     string
	Kind     InputKind
	Language Language
}

// WrapperKind selects the default language and default real-compiler
// identity for a wrapper invocation (spec.md §4.2): the C and C++ entry
// points differ only in this value, not in behavior.
type WrapperKind int

const (
	WrapperCC WrapperKind = iota
	WrapperCXX
)

func (k WrapperKind) DefaultLanguage() Language {
	if k == WrapperCXX {
		return LanguageCXX
	}
	return LanguageC
}

// CompilationIntent is the pure classifier's sole output (spec.md §3).
type CompilationIntent struct {
	Mode     Mode
	Language Language
	Inputs   []Input
	Outputs  []string

	CompilerFlags []string
	LinkFlags     []string
	BitcodeFlags  []string

	IsLTO                  bool
	IsEmitLLVM             bool
	IsPreprocessOrDepsOnly bool
	IsConfigureProbe       bool
}

// HasSourceOrObjectInput reports whether the intent has any input the
// wrapper could derive bitcode from — used by the wrapper's gate (spec.md
// §4.2 step 4, "no source or object inputs to process").
func (ci *CompilationIntent) HasSourceOrObjectInput() bool {
	for _, in := range ci.Inputs {
		if in.Kind == InputSource || in.Kind == InputObject {
			return true
		}
	}
	return false
}

// SourceInputs returns only the source-kind inputs, the set the wrapper's
// bitcode pass compiles one-by-one (spec.md §4.2 step 5).
func (ci *CompilationIntent) SourceInputs() []Input {
	var sources []Input
	for _, in := range ci.Inputs {
		if in.Kind == InputSource {
			sources = append(sources, in)
		}
	}
	return sources
}
