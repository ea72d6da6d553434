package recovery

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ebcbuild/rllvm/internal/toolchain"
	"github.com/ebcbuild/rllvm/section"
)

func TestResolvePathsSplitsMissing(t *testing.T) {
	dir := t.TempDir()
	present := filepath.Join(dir, "present.bc")
	if err := os.WriteFile(present, []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	missingPath := filepath.Join(dir, "missing.bc")

	refs := []section.BitcodeRef{{Path: present}, {Path: missingPath}}
	resolved, missing := resolvePaths(refs)
	if len(resolved) != 1 || resolved[0] != present {
		t.Errorf("resolved = %v", resolved)
	}
	if len(missing) != 1 || missing[0] != missingPath {
		t.Errorf("missing = %v", missing)
	}
}

func TestEmitManifestWritesResolvedAndAnnotatesMissing(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "manifest.txt")
	opts := Options{OutputPath: out, Mode: EmitManifest}

	if err := emitManifest(opts, []string{"/a.bc", "/b.bc"}, []string{"/missing.bc"}); err != nil {
		t.Fatalf("emitManifest: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "/a.bc") || !strings.Contains(content, "/b.bc") {
		t.Errorf("manifest missing resolved entries: %q", content)
	}
	if !strings.Contains(content, "# missing: /missing.bc") {
		t.Errorf("manifest missing annotation for missing entry: %q", content)
	}
}

func TestDefaultOutputPathPerMode(t *testing.T) {
	cases := []struct {
		mode EmitMode
		want string
	}{
		{EmitLinkedBitcode, "libfoo.a.bc"},
		{EmitArchive, "libfoo.a.bca"},
		{EmitManifest, "libfoo.a.bc.manifest"},
	}
	for _, c := range cases {
		if got := DefaultOutputPath("libfoo.a", c.mode); got != c.want {
			t.Errorf("DefaultOutputPath(%v) = %q, want %q", c.mode, got, c.want)
		}
	}
}

func TestRunFailsOnArtifactWithNoSection(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plain.txt")
	if err := os.WriteFile(path, []byte("not a binary at all"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	_, err := Run(Options{
		InputPath:  path,
		OutputPath: filepath.Join(dir, "out.bc"),
		Mode:       EmitLinkedBitcode,
		Tools:      toolchain.Tools{},
	})
	if err == nil {
		t.Error("expected an error for an artifact with no embedded bitcode section")
	}
}
