// Package wrapper implements the compiler-wrapper state machine spec.md
// §4.2 describes: classify the argv, run the native compile unmodified,
// and — unless gated off — run a parallel bitcode-only compile per source
// file and attach references to the results into whatever native
// artifact just got produced. The whole argv is treated as compiler
// arguments: no wrapper-level flags (compiler override, verbosity, a
// leading "--" separator) are parsed, so such tokens reach both the
// classifier and the real compiler unchanged.
//
// Grounded on the teacher's compile/Environment.go CompileEnv.Build()
// method, which runs the same "invoke the real tool, then do
// bookkeeping on its output" two-step pattern for every translation
// unit, plus compile/CompilationDatabase.go for the supplemental
// compile_commands.json emission this package also performs.
package wrapper

import (
	"fmt"
	"os"
	"path/filepath"

	json "github.com/goccy/go-json"

	"github.com/ebcbuild/rllvm/bitcode"
	"github.com/ebcbuild/rllvm/classify"
	"github.com/ebcbuild/rllvm/internal/base"
	"github.com/ebcbuild/rllvm/internal/config"
	"github.com/ebcbuild/rllvm/internal/procrunner"
	"github.com/ebcbuild/rllvm/internal/toolchain"
	"github.com/ebcbuild/rllvm/section"
	"github.com/ebcbuild/rllvm/section/elfsection"
	"github.com/ebcbuild/rllvm/section/machosection"
)

var (
	LogWrapper = base.NewLogCategory("Wrapper")
	LogBitcode = base.NewLogCategory("Bitcode")
)

// Options configures one wrapper invocation.
type Options struct {
	WrapperKind classify.WrapperKind
	Argv        []string
	WorkingDir  string
	Config      config.Config
	Tools       toolchain.Tools
}

// Result is what the caller's main() needs to decide its own exit code
// and final stdio behavior.
type Result struct {
	ExitCode int
	Intent   classify.CompilationIntent
}

// Run executes the wrapper pipeline for one invocation (spec.md §4.2
// steps 2-6) and returns the process exit code to use — always the
// native compiler's exit code (invariant I5), regardless of whether
// classification or the bitcode side-pass succeeded. Only when the
// native compiler cannot be started at all is the exit code 1.
func Run(opts Options) (Result, error) {
	realCompiler := opts.Tools.Clang
	if opts.WrapperKind == classify.WrapperCXX {
		realCompiler = opts.Tools.Clangxx
	}

	intent, classifyErr := classify.Classify(opts.Argv, opts.WrapperKind)
	if classifyErr != nil {
		base.LogWarning(LogWrapper, "classifying argv failed, skipping bitcode pass: %v", classifyErr)
	} else {
		base.LogDebug(LogWrapper, "classified as mode=%s language=%s inputs=%d", intent.Mode, intent.Language, len(intent.Inputs))
	}

	exitCode, err := procrunner.RunInherit(realCompiler, opts.Argv, procrunner.Options{WorkingDir: opts.WorkingDir})
	if err != nil {
		return Result{ExitCode: 1, Intent: intent}, base.WrapErr(base.ErrNativeCompileFailed, err, "invoking %s", realCompiler)
	}
	if classifyErr != nil {
		return Result{ExitCode: exitCode, Intent: intent}, nil
	}

	emitCompileCommand(intent, opts, realCompiler)

	if exitCode != 0 {
		base.LogDebug(LogWrapper, "native compile failed with exit %d, skipping bitcode pass", exitCode)
		return Result{ExitCode: exitCode, Intent: intent}, nil
	}

	if shouldSkipBitcodePass(intent) {
		base.LogTrace(LogWrapper, "skipping bitcode pass: mode=%s emit-llvm=%v configure-probe=%v", intent.Mode, intent.IsEmitLLVM, intent.IsConfigureProbe)
		return Result{ExitCode: 0, Intent: intent}, nil
	}

	if err := runBitcodePass(intent, opts, realCompiler); err != nil {
		// Per spec.md §5 hazard 2: bitcode-pass failures are logged, never
		// surfaced as a wrapper failure — the native build must proceed
		// exactly as if rllvm were not involved.
		base.LogWarning(LogWrapper, "bitcode pass failed: %v", err)
		return Result{ExitCode: 0, Intent: intent}, nil
	}

	return Result{ExitCode: 0, Intent: intent}, nil
}

// shouldSkipBitcodePass implements the intent-based part of spec.md §4.2
// step 4's gate list: preprocess/deps-only, print-info, configure-probe
// classification, assemble mode, already-emitting-LLVM, and "no source or
// object inputs at all". The configure-only config override is checked
// separately, at the start of runBitcodePass.
func shouldSkipBitcodePass(intent classify.CompilationIntent) bool {
	if intent.IsPreprocessOrDepsOnly {
		return true
	}
	if intent.Mode == classify.ModePrintInfo || intent.Mode == classify.ModeConfigureProbe {
		return true
	}
	if intent.Mode == classify.ModeAssemble {
		return true
	}
	if intent.IsEmitLLVM {
		return true
	}
	if !intent.HasSourceOrObjectInput() {
		return true
	}
	return false
}

// runBitcodePass compiles each source input to standalone bitcode in the
// content-addressed store (spec.md §4.2 step 5), reads back the refs
// already embedded in any object/archive/shared-object inputs (a
// link-only invocation over previously compiled .o files carries no
// source to compile but must still propagate what its inputs already
// carry), and attaches the union into whatever artifact this invocation
// just produced natively (step 6, "Attach") — per invariants I2/I3 and
// property P3, the final artifact's section is always the union of its
// inputs' refs, not just the refs from sources compiled this call.
func runBitcodePass(intent classify.CompilationIntent, opts Options, _ string) error {
	if opts.Config.IsConfigureOnly {
		return nil
	}

	store := bitcode.NewStore(opts.Config.BitcodeStorePath)

	bitcodeCompiler := opts.Tools.Clang
	if opts.WrapperKind == classify.WrapperCXX {
		bitcodeCompiler = opts.Tools.Clangxx
	}

	nativeOutput := nativeOutputPath(intent)

	var refs []section.BitcodeRef
	for _, src := range intent.SourceInputs() {
		ref, err := compileOneToBitcode(store, bitcodeCompiler, src, nativeOutput, intent.BitcodeFlags, opts)
		if err != nil {
			return err
		}
		refs = append(refs, section.BitcodeRef{Path: ref.BitcodePath})
	}

	for _, in := range intent.Inputs {
		switch in.Kind {
		case classify.InputObject, classify.InputSharedObject:
			existing, err := readExistingRefs(in.Path, opts.Tools.LlvmObjcopy)
			if err != nil {
				base.LogTrace(LogWrapper, "no embedded bitcode section in %s: %v", in.Path, err)
				continue
			}
			refs = append(refs, existing...)
		case classify.InputArchive:
			existing, err := readArchiveRefs(in.Path, opts.Tools.LlvmObjcopy)
			if err != nil {
				base.LogTrace(LogWrapper, "no embedded bitcode sections in archive %s: %v", in.Path, err)
				continue
			}
			refs = append(refs, existing...)
		}
	}

	if len(refs) == 0 {
		return nil
	}
	if nativeOutput == "" {
		return nil
	}

	return attach(opts, nativeOutput, refs)
}

// readExistingRefs reads back the BitcodeRefs already embedded in a
// compiled object or shared object, used to propagate a link input's
// own refs into the artifact being linked (spec.md §4.2 step 6).
func readExistingRefs(path, objcopyPath string) ([]section.BitcodeRef, error) {
	format, err := section.SniffFormat(path)
	if err != nil {
		return nil, err
	}
	backend, err := backendFor(format, objcopyPath)
	if err != nil {
		return nil, err
	}
	return backend.ReadSection(path)
}

// readArchiveRefs walks every member of a static archive input and
// collects whatever BitcodeRefs each member object already carries,
// mirroring recovery's own archive-member extraction since a link-time
// input archive and a post-link recovery target are read the same way.
func readArchiveRefs(archivePath, objcopyPath string) ([]section.BitcodeRef, error) {
	var all []section.BitcodeRef
	err := section.IterArMembers(archivePath, func(memberName, tempPath string) error {
		refs, err := readExistingRefs(tempPath, objcopyPath)
		if err != nil {
			base.LogTrace(LogWrapper, "no bitcode section in archive member %s: %v", memberName, err)
			return nil
		}
		all = append(all, refs...)
		return nil
	})
	return all, err
}

func compileOneToBitcode(store *bitcode.Store, bitcodeCompiler string, src classify.Input, nativeOutput string, bitcodeFlags []string, opts Options) (bitcode.Ref, error) {
	outputHint := nativeOutput
	if outputHint == "" {
		outputHint = src.Path
	}
	if existing, ok := store.Lookup(src.Path, outputHint); ok {
		base.LogTrace(LogBitcode, "reusing cached bitcode for %s", src.Path)
		return existing, nil
	}

	tmp, err := os.CreateTemp("", "rllvm-bc-*.bc")
	if err != nil {
		return bitcode.Ref{}, err
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	args := append([]string{"-c", "-emit-llvm", "-o", tmpPath}, bitcodeFlags...)
	args = append(args, src.Path)

	base.LogVerbose(LogBitcode, "compiling bitcode for %s", src.Path)
	res, err := procrunner.Run(bitcodeCompiler, args, procrunner.Options{WorkingDir: opts.WorkingDir})
	if err != nil {
		return bitcode.Ref{}, base.WrapErr(base.ErrBitcodeCompileFailed, err, "invoking %s for %s", bitcodeCompiler, src.Path)
	}
	if res.ExitCode != 0 {
		return bitcode.Ref{}, base.Wrap(base.ErrBitcodeCompileFailed, "bitcode compile of %s exited %d: %s", src.Path, res.ExitCode, string(res.Output))
	}

	content, err := os.ReadFile(tmpPath)
	if err != nil {
		return bitcode.Ref{}, err
	}
	return store.Write(src.Path, outputHint, content)
}

// nativeOutputPath returns the single artifact path the native compile
// just produced, if any. Multi-output invocations (e.g. -MD producing a
// .d file alongside an .o) still only have one "real" compiled artifact
// for attach purposes; spec.md §4.1 guarantees Outputs[0] is it when the
// mode implies an object/binary is produced.
func nativeOutputPath(intent classify.CompilationIntent) string {
	if len(intent.Outputs) > 0 {
		return intent.Outputs[0]
	}
	// No -o: gcc/clang default a.out for link modes, or <base>.o for
	// compile-only mode of a single source.
	switch intent.Mode {
	case classify.ModeCompileOnly:
		if len(intent.Inputs) == 1 {
			baseName := filepath.Base(intent.Inputs[0].Path)
			ext := filepath.Ext(baseName)
			return baseName[:len(baseName)-len(ext)] + ".o"
		}
	case classify.ModeCompileAndLink, classify.ModeLinkOnly:
		return "a.out"
	}
	return ""
}

// attach embeds refs into the artifact at path, per spec.md §4.2's three
// cases: a plain object gets the section directly; an archive gets each
// contained member re-embedded is out of scope for the single-TU attach
// step (archives are built by ar/libtool outside the wrapper's control —
// recovery's archive case instead walks members individually); an
// executable or shared object gets the merged set of every constituent
// reference.
func attach(opts Options, path string, refs []section.BitcodeRef) error {
	format, err := section.SniffFormat(path)
	if err != nil {
		return err
	}

	backend, err := backendFor(format, opts.Tools.LlvmObjcopy)
	if err != nil {
		return err
	}

	existing, err := backend.ReadSection(path)
	if err != nil {
		base.LogTrace(LogWrapper, "no existing section on %s: %v", path, err)
	}
	merged := section.DedupeRefs(append(existing, refs...))

	base.LogDebug(LogWrapper, "attaching %d bitcode ref(s) to %s", len(merged), path)
	return backend.WriteSection(path, merged)
}

func backendFor(format section.Format, objcopyPath string) (section.Backend, error) {
	switch format {
	case section.FormatELF:
		return elfsection.New(objcopyPath), nil
	case section.FormatMachO:
		return machosection.New(objcopyPath), nil
	default:
		return nil, base.Wrap(base.ErrUnsupportedFormat, "cannot attach bitcode section to artifact of format %v", format)
	}
}

// compileCommandEntry mirrors the standard compile_commands.json schema
// (directory/command/file) that the teacher's CompilationDatabase.go
// also emits, per SPEC_FULL.md's RLLVM_COMPILE_COMMANDS supplemental
// feature.
type compileCommandEntry struct {
	Directory string `json:"directory"`
	Command   string `json:"command"`
	File      string `json:"file"`
}

// emitCompileCommand appends one compilation-database entry per source
// input when RLLVM_COMPILE_COMMANDS names an output file, failing soft
// since the build must never fail because of this optional feature.
func emitCompileCommand(intent classify.CompilationIntent, opts Options, realCompiler string) {
	dest := os.Getenv("RLLVM_COMPILE_COMMANDS")
	if dest == "" || len(intent.Inputs) == 0 {
		return
	}

	wd := opts.WorkingDir
	if wd == "" {
		wd, _ = os.Getwd()
	}

	var entries []compileCommandEntry
	if existing, err := os.ReadFile(dest); err == nil {
		_ = json.Unmarshal(existing, &entries)
	}

	for _, in := range intent.SourceInputs() {
		entries = append(entries, compileCommandEntry{
			Directory: wd,
			Command:   fmt.Sprintf("%s %s", realCompiler, base.JoinQuoted(opts.Argv)),
			File:      in.Path,
		})
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return
	}
	_ = os.WriteFile(dest, data, 0o644)
}
