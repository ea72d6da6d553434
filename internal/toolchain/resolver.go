// Package toolchain resolves the concrete paths to the LLVM/Clang tools
// this project shells out to: clang, clang++, llvm-ar, llvm-link,
// llvm-objcopy, llvm-config. Grounded on the teacher's
// internal/hal/linux/LLVM.go, which walks a near-identical precedence
// chain (explicit config path, then llvm-config, then PATH) to find
// clang on a developer's machine without requiring a hardcoded version.
package toolchain

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/ebcbuild/rllvm/internal/base"
	"github.com/ebcbuild/rllvm/internal/config"
	"github.com/ebcbuild/rllvm/internal/fs"
	"github.com/ebcbuild/rllvm/internal/procrunner"
)

var LogToolchain = base.NewLogCategory("Toolchain")

// Tools holds every resolved tool path the rest of the module needs.
type Tools struct {
	Clang       string
	Clangxx     string
	LlvmAr      string
	LlvmLink    string
	LlvmObjcopy string
}

// Resolve walks spec.md §4.4's precedence chain for each tool
// independently: an explicit config.toml path wins outright; otherwise
// `llvm-config --bindir` (if llvm-config itself can be found) supplies a
// directory to look relative to; otherwise PATH lookup; otherwise, on
// macOS, a Homebrew Cellar glob, since Homebrew's llvm formula is
// keg-only and never lands on PATH by default.
func Resolve(cfg config.Config) (Tools, error) {
	bindir := llvmConfigBindir(cfg.LlvmConfigFilepath)

	clang, err := resolveOne("clang", cfg.ClangFilepath, bindir)
	if err != nil {
		return Tools{}, err
	}
	clangxx, err := resolveOne("clang++", cfg.ClangxxFilepath, bindir)
	if err != nil {
		return Tools{}, err
	}
	ar, err := resolveOne("llvm-ar", cfg.LlvmArFilepath, bindir)
	if err != nil {
		return Tools{}, err
	}
	link, err := resolveOne("llvm-link", cfg.LlvmLinkFilepath, bindir)
	if err != nil {
		return Tools{}, err
	}
	objcopy, err := resolveOne("llvm-objcopy", cfg.LlvmObjcopyFilepath, bindir)
	if err != nil {
		return Tools{}, err
	}

	return Tools{
		Clang:       clang,
		Clangxx:     clangxx,
		LlvmAr:      ar,
		LlvmLink:    link,
		LlvmObjcopy: objcopy,
	}, nil
}

// resolveOne applies one tool's precedence chain: explicit path, then
// bindir/name, then PATH, then (macOS only) a Cellar heuristic glob.
func resolveOne(name, explicit, bindir string) (string, error) {
	if explicit != "" {
		if resolved, err := fs.Which(explicit); err == nil {
			base.LogDebug(LogToolchain, "resolved %s via config: %s", name, resolved)
			return resolved, nil
		}
		return "", base.Wrap(base.ErrToolNotFound, "configured %s path %q is not executable", name, explicit)
	}

	if bindir != "" {
		candidate := filepath.Join(bindir, name)
		if resolved, err := fs.Which(candidate); err == nil {
			base.LogDebug(LogToolchain, "resolved %s via llvm-config --bindir: %s", name, resolved)
			return resolved, nil
		}
	}

	if resolved, err := fs.Which(name); err == nil {
		base.LogDebug(LogToolchain, "resolved %s via PATH: %s", name, resolved)
		return resolved, nil
	}

	if runtime.GOOS == "darwin" {
		if resolved, ok := macOSCellarHeuristic(name); ok {
			base.LogDebug(LogToolchain, "resolved %s via Homebrew Cellar heuristic: %s", name, resolved)
			return resolved, nil
		}
	}
	if runtime.GOOS == "linux" {
		if resolved, ok := linuxMultiarchHeuristic(name); ok {
			base.LogDebug(LogToolchain, "resolved %s via distro package heuristic: %s", name, resolved)
			return resolved, nil
		}
	}

	return "", base.Wrap(base.ErrToolNotFound, "could not locate %s: no config path, llvm-config, or PATH entry found", name)
}

// llvmConfigBindir invokes llvm-config --bindir if llvm-config itself
// can be found, returning "" on any failure so callers simply fall
// through to the next precedence step.
func llvmConfigBindir(explicitLlvmConfig string) string {
	llvmConfigPath := explicitLlvmConfig
	if llvmConfigPath == "" {
		var err error
		llvmConfigPath, err = fs.Which("llvm-config")
		if err != nil {
			return ""
		}
	}
	res, err := procrunner.Run(llvmConfigPath, []string{"--bindir"}, procrunner.Options{})
	if err != nil || res.ExitCode != 0 {
		return ""
	}
	return strings.TrimSpace(string(res.Output))
}

// linuxMultiarchHeuristic globs the versioned paths Debian/Ubuntu's
// llvm.sh installer uses (/usr/lib/llvm-N/bin), which PATH usually
// omits since apt installs llvm-N-suffixed tool names into /usr/bin
// instead of unsuffixed ones into this directory. The uname() call via
// x/sys/unix only feeds the debug log — multiarch tool layouts under
// /usr/lib/llvm-N/bin are identical across architectures — but it lets
// a -v run attribute a resolution failure to the right machine.
func linuxMultiarchHeuristic(name string) (string, bool) {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err == nil {
		machine := charsToString(uts.Machine[:])
		base.LogTrace(LogToolchain, "searching distro llvm paths on %s", machine)
	}

	matches, err := filepath.Glob("/usr/lib/llvm-*/bin/" + name)
	if err != nil || len(matches) == 0 {
		return "", false
	}
	if info, err := os.Stat(matches[len(matches)-1]); err == nil && !info.IsDir() {
		return matches[len(matches)-1], true
	}
	return "", false
}

func charsToString(chars []byte) string {
	n := 0
	for n < len(chars) && chars[n] != 0 {
		n++
	}
	return string(chars[:n])
}

// macOSCellarHeuristic globs /usr/local/opt/llvm*/bin and
// /opt/homebrew/opt/llvm*/bin, the two locations Homebrew's keg-only
// llvm formula installs to depending on Intel vs Apple Silicon.
func macOSCellarHeuristic(name string) (string, bool) {
	globs := []string{
		"/opt/homebrew/opt/llvm*/bin/" + name,
		"/usr/local/opt/llvm*/bin/" + name,
	}
	for _, pattern := range globs {
		matches, err := filepath.Glob(pattern)
		if err != nil || len(matches) == 0 {
			continue
		}
		if info, err := os.Stat(matches[0]); err == nil && !info.IsDir() {
			return matches[0], true
		}
	}
	return "", false
}
