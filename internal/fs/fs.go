// Package fs holds the handful of filesystem helpers the rest of this
// module needs: canonicalizing paths, looking up tools on PATH, and
// writing files atomically. Grounded on the teacher's utils/UFS.go, but
// trimmed to what a single-process compiler wrapper actually touches —
// the teacher's virtual filesystem layer (UFS.Source / UFS.Cache / ...)
// models a whole build tree, which this project has no use for.
package fs

import (
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/ebcbuild/rllvm/internal/base"
)

var LogFS = base.NewLogCategory("FS")

// Canonicalize resolves symlinks and relative components, mirroring the
// "absolute or resolvable" requirement in spec.md invariant I3.
func Canonicalize(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	if real, err := filepath.EvalSymlinks(abs); err == nil {
		return real, nil
	}
	// Non-existent files (e.g. an output not yet written) cannot be
	// resolved through EvalSymlinks; fall back to the cleaned absolute path.
	return filepath.Clean(abs), nil
}

// Which resolves an executable the way exec.LookPath does, but also
// accepts an already-absolute, already-executable path unchanged — used by
// the tool resolver's config/llvm-config/PATH/heuristic precedence chain.
func Which(name string) (string, error) {
	if filepath.IsAbs(name) {
		if info, err := os.Stat(name); err == nil && !info.IsDir() && info.Mode()&0o111 != 0 {
			return name, nil
		}
	}
	return exec.LookPath(name)
}

// WriteFileAtomic writes to a temp file in the same directory then renames
// it into place, the same write-to-temp-then-rename pattern spec.md §5
// requires for concurrent bitcode-store writers (rename is atomic on the
// same filesystem).
func WriteFileAtomic(path string, mode os.FileMode, write func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".rllvm-tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once the rename below succeeds

	if err := write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpPath, mode); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}

// IsRegularFile reports whether path exists and is a regular file — used
// by the recovery engine to validate a resolved BitcodeRef (spec.md §4.3
// step 3).
func IsRegularFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// ReplaceExt swaps the file extension, matching the teacher's
// Filename.ReplaceExt used throughout compile/ to derive object/archive
// names from a source path.
func ReplaceExt(path, ext string) string {
	return path[:len(path)-len(filepath.Ext(path))] + ext
}
