// Package procrunner executes external tools (clang, llvm-ar, llvm-link,
// llvm-objcopy, llvm-config) and captures their exit status and output.
// Grounded on the teacher's utils/Process.go: every invocation blocks
// synchronously (spec.md §5), and the caller always learns the exact
// subprocess exit code, since the wrapper's own exit code must equal the
// native compiler's (I5).
package procrunner

import (
	"bytes"
	"os"
	"os/exec"

	"github.com/ebcbuild/rllvm/internal/base"
)

var LogProcess = base.NewLogCategory("Process")

// Result captures everything a caller might need after a subprocess exits:
// the exit code (even on failure, unlike a bare error), and combined
// stdout+stderr for diagnostics.
type Result struct {
	ExitCode int
	Output   []byte
}

// Options mirrors the subset of the teacher's ProcessOptions this project
// needs — no response files, IO detours, or attached debuggers, since none
// of spec.md's components require them.
type Options struct {
	WorkingDir string
	Env        []string // appended to os.Environ()
	Stdin      []byte
}

// Run executes executable with the given argv and blocks until it exits.
// It never returns an error for a non-zero exit — callers that must
// distinguish "tool ran and failed" from "tool could not be started"
// inspect Result.ExitCode and the returned error separately: a non-nil
// error here means the process could not be started or waited on at all.
func Run(executable string, args []string, opts Options) (Result, error) {
	cmd := exec.Command(executable, args...)
	if opts.WorkingDir != "" {
		cmd.Dir = opts.WorkingDir
	}
	if len(opts.Env) > 0 {
		cmd.Env = append(os.Environ(), opts.Env...)
	}

	var combined bytes.Buffer
	cmd.Stdout = &combined
	cmd.Stderr = &combined
	if opts.Stdin != nil {
		cmd.Stdin = bytes.NewReader(opts.Stdin)
	}

	base.LogTrace(LogProcess, "run %s %s", executable, base.JoinQuoted(args))

	err := cmd.Run()
	result := Result{Output: combined.Bytes()}

	if exitErr, ok := err.(*exec.ExitError); ok {
		result.ExitCode = exitErr.ExitCode()
		return result, nil
	}
	if err != nil {
		return result, err
	}
	result.ExitCode = 0
	return result, nil
}

// RunInherit executes executable with stdio inherited from this process —
// used for the native compiler pass (spec.md §4.2 step 3), so the wrapped
// build sees identical compiler diagnostics to an unwrapped build.
func RunInherit(executable string, args []string, opts Options) (int, error) {
	cmd := exec.Command(executable, args...)
	if opts.WorkingDir != "" {
		cmd.Dir = opts.WorkingDir
	}
	if len(opts.Env) > 0 {
		cmd.Env = append(os.Environ(), opts.Env...)
	}
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin

	base.LogTrace(LogProcess, "run (inherit) %s %s", executable, base.JoinQuoted(args))

	err := cmd.Run()
	if exitErr, ok := err.(*exec.ExitError); ok {
		return exitErr.ExitCode(), nil
	}
	if err != nil {
		return -1, err
	}
	return 0, nil
}
