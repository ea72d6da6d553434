package classify

import "strings"

// arity describes how a known flag consumes its argument, mirroring the
// teacher's AddCompilationFlag / AddCompilationFlag_NoAnalysis split
// between flags that take a value and flags that don't.
type arity int

const (
	arityNone     arity = iota // no argument, e.g. -c
	aritySeparate              // next token is the argument, e.g. -o out.o / -x c
	arityAttached              // argument is glued on, e.g. -Dfoo, -Ifoo
)

// phase is which compile/link step a flag belongs to, echoing spec.md
// §4.1's "(b) which phases it affects (compile, link, both, neither)".
type phase int

const (
	phaseNeither phase = iota
	phaseCompile
	phaseLink
	phaseBoth
)

// forced is non-nil when a flag pins the CompilationIntent's Mode
// outright, per spec.md §4.1's precedence table.
type flagSpec struct {
	name       string
	arity      arity
	phase      phase
	forced     *Mode
	isLTO      bool
	isEmitLLVM bool
}

func mode(m Mode) *Mode { return &m }

// knownFlags is the first-class data table spec.md §9 ("Design Notes")
// recommends: flag spec records kept separate from the driver that
// consumes them, so extending the taxonomy is purely declarative.
var knownFlags = []flagSpec{
	{name: "-c", arity: arityNone, phase: phaseCompile, forced: mode(ModeCompileOnly)},
	{name: "-S", arity: arityNone, phase: phaseCompile, forced: mode(ModeAssemble)},
	{name: "-E", arity: arityNone, phase: phaseCompile, forced: mode(ModePreprocessOnly)},
	{name: "-M", arity: arityNone, phase: phaseCompile, forced: mode(ModeDependencyOnly)},
	{name: "-MM", arity: arityNone, phase: phaseCompile, forced: mode(ModeDependencyOnly)},
	{name: "-MG", arity: arityNone, phase: phaseCompile, forced: mode(ModeDependencyOnly)},
	{name: "-MP", arity: arityNone, phase: phaseCompile},
	{name: "-MD", arity: arityNone, phase: phaseCompile},
	{name: "-MMD", arity: arityNone, phase: phaseCompile},
	{name: "-MF", arity: aritySeparate, phase: phaseCompile},
	{name: "-MT", arity: aritySeparate, phase: phaseCompile},
	{name: "-MQ", arity: aritySeparate, phase: phaseCompile},
	{name: "--version", arity: arityNone, phase: phaseNeither, forced: mode(ModePrintInfo)},
	{name: "-v", arity: arityNone, phase: phaseBoth},
	{name: "-dumpmachine", arity: arityNone, phase: phaseNeither, forced: mode(ModePrintInfo)},
	{name: "-dumpversion", arity: arityNone, phase: phaseNeither, forced: mode(ModePrintInfo)},
	{name: "-emit-llvm", arity: arityNone, phase: phaseCompile, isEmitLLVM: true},
	{name: "-flto", arity: arityNone, phase: phaseBoth, isLTO: true},
	{name: "-o", arity: aritySeparate, phase: phaseBoth},
	{name: "-include", arity: aritySeparate, phase: phaseCompile},
	{name: "-shared", arity: arityNone, phase: phaseLink},
	{name: "-static", arity: arityNone, phase: phaseLink},
	{name: "-pie", arity: arityNone, phase: phaseLink},
	{name: "-rdynamic", arity: arityNone, phase: phaseLink},
}

func lookupFlag(token string) (flagSpec, bool) {
	for _, f := range knownFlags {
		if f.name == token {
			return f, true
		}
	}
	return flagSpec{}, false
}

// residualPattern matches flag families by prefix instead of an exact
// table entry, per spec.md §4.1 ("A residual regex table matches pattern
// families"). Go's regexp is overkill for plain prefix matching, so this
// mirrors the teacher's own preference for simple string tests
// (compile/Facet.go does the same for "-W", "-D", "-I" prefixes) rather
// than compiling actual regular expressions for this.
type residualPattern struct {
	prefix string
	phase  phase
	isLTO  bool
}

var residualPatterns = []residualPattern{
	{prefix: "-Wl,", phase: phaseLink},
	{prefix: "-Wa,", phase: phaseCompile},
	{prefix: "-fsanitize=", phase: phaseCompile},
	{prefix: "-march=", phase: phaseCompile},
	{prefix: "-mtune=", phase: phaseCompile},
	{prefix: "-std=", phase: phaseCompile},
	{prefix: "-flto=", phase: phaseBoth, isLTO: true},
	{prefix: "-D", phase: phaseCompile},
	{prefix: "-I", phase: phaseCompile},
	{prefix: "-U", phase: phaseCompile},
	{prefix: "-L", phase: phaseLink},
	{prefix: "-l", phase: phaseLink},
	{prefix: "-O", phase: phaseCompile},
	{prefix: "-W", phase: phaseCompile},
	{prefix: "-f", phase: phaseCompile},
	{prefix: "-m", phase: phaseCompile},
	{prefix: "-print-", phase: phaseNeither},
}

func matchResidual(token string) (residualPattern, bool) {
	for _, p := range residualPatterns {
		if strings.HasPrefix(token, p.prefix) {
			return p, true
		}
	}
	return residualPattern{}, false
}

// sourceExtensions / objectExtensions / archiveExtensions classify a bare
// (non-flag) token by its file extension, per spec.md §4.1.
var sourceExtensions = map[string]Language{
	".c":   LanguageC,
	".cc":  LanguageCXX,
	".cpp": LanguageCXX,
	".cxx": LanguageCXX,
	".c++": LanguageCXX,
	".m":   LanguageC,
	".mm":  LanguageCXX,
	".S":   LanguageAssembly,
	".s":   LanguageAssembly,
}

var objectExtensions = map[string]bool{".o": true, ".obj": true}
var archiveExtensions = map[string]bool{".a": true}
var sharedObjectExtensions = map[string]bool{".so": true, ".dylib": true}

func extOf(path string) string {
	dot := strings.LastIndexByte(path, '.')
	if dot < 0 || dot == len(path)-1 {
		return ""
	}
	// Handle versioned shared objects like libfoo.so.1.2 by checking the
	// whole trailing ".so"-rooted suffix first.
	if idx := strings.Index(path, ".so."); idx >= 0 {
		return ".so"
	}
	return path[dot:]
}

func classifyInputKind(path string) (InputKind, Language) {
	ext := extOf(path)
	if lang, ok := sourceExtensions[ext]; ok {
		return InputSource, lang
	}
	if objectExtensions[ext] {
		return InputObject, LanguageUnknown
	}
	if archiveExtensions[ext] {
		return InputArchive, LanguageUnknown
	}
	if sharedObjectExtensions[ext] {
		return InputSharedObject, LanguageUnknown
	}
	return InputOther, LanguageUnknown
}

// languageFromFlag maps a -x LANG argument to our Language enum, falling
// back to LanguageUnknown for values clang accepts but this classifier has
// no special handling for (e.g. "objective-c").
func languageFromFlag(value string) Language {
	switch value {
	case "c":
		return LanguageC
	case "c++":
		return LanguageCXX
	case "assembler", "assembler-with-cpp":
		return LanguageAssembly
	default:
		return LanguageUnknown
	}
}

// bitcodeFlagBlocklistPrefixes holds the flag families spec.md §4.1
// ("Bitcode-flag filtering") calls out as meaningless or harmful to
// IR-only emission: linker flags and output-object-format flags.
var bitcodeFlagBlocklistPrefixes = []string{"-Wl,", "-l", "-L", "-shared", "-rdynamic", "-static", "-pie"}

func isBitcodeFlagBlocked(flag string) bool {
	if flag == "-c" || flag == "-o" {
		return true // the wrapper re-adds these itself
	}
	for _, p := range bitcodeFlagBlocklistPrefixes {
		if strings.HasPrefix(flag, p) {
			return true
		}
	}
	return false
}
