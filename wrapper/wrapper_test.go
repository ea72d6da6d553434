package wrapper

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ebcbuild/rllvm/classify"
)

func TestShouldSkipBitcodePassForPrintInfo(t *testing.T) {
	intent, err := classify.Classify([]string{"--version"}, classify.WrapperCC)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if !shouldSkipBitcodePass(intent) {
		t.Error("expected the bitcode pass to be skipped for --version")
	}
}

func TestShouldSkipBitcodePassForEmitLLVM(t *testing.T) {
	intent, err := classify.Classify([]string{"-c", "-emit-llvm", "hello.c", "-o", "hello.bc"}, classify.WrapperCC)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if !shouldSkipBitcodePass(intent) {
		t.Error("expected the bitcode pass to be skipped when already emitting LLVM IR")
	}
}

func TestShouldSkipBitcodePassForConfigureProbe(t *testing.T) {
	intent, err := classify.Classify([]string{"-c", "conftest.c", "-o", "conftest.o"}, classify.WrapperCC)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if !shouldSkipBitcodePass(intent) {
		t.Error("expected the bitcode pass to be skipped for a configure probe")
	}
}

func TestShouldNotSkipBitcodePassForOrdinaryCompile(t *testing.T) {
	intent, err := classify.Classify([]string{"-c", "hello.c", "-o", "hello.o"}, classify.WrapperCC)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if shouldSkipBitcodePass(intent) {
		t.Error("expected the bitcode pass to run for an ordinary compile")
	}
}

func TestNativeOutputPathUsesExplicitOutput(t *testing.T) {
	intent, err := classify.Classify([]string{"-c", "hello.c", "-o", "hello.o"}, classify.WrapperCC)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if got := nativeOutputPath(intent); got != "hello.o" {
		t.Errorf("nativeOutputPath = %q, want hello.o", got)
	}
}

func TestNativeOutputPathDefaultsCompileOnly(t *testing.T) {
	intent, err := classify.Classify([]string{"-c", "hello.c"}, classify.WrapperCC)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if got := nativeOutputPath(intent); got != "hello.o" {
		t.Errorf("nativeOutputPath = %q, want hello.o", got)
	}
}

func TestNativeOutputPathDefaultsLink(t *testing.T) {
	intent, err := classify.Classify([]string{"hello.c"}, classify.WrapperCC)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if got := nativeOutputPath(intent); got != "a.out" {
		t.Errorf("nativeOutputPath = %q, want a.out", got)
	}
}

func TestLinkOnlyIntentHasNoSourceInputsButStillHasObjectInputs(t *testing.T) {
	// A link-only invocation over previously compiled .o files is the
	// normal multi-file build pattern: SourceInputs() is empty, so the
	// bitcode pass must still fall back to reading each object input's
	// own embedded refs rather than skipping the attach step entirely.
	intent, err := classify.Classify([]string{"a.o", "b.o", "-o", "prog"}, classify.WrapperCC)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if len(intent.SourceInputs()) != 0 {
		t.Fatalf("expected no source inputs, got %+v", intent.SourceInputs())
	}
	if shouldSkipBitcodePass(intent) {
		t.Error("a link-only invocation over objects must not skip the bitcode pass")
	}
	objectCount := 0
	for _, in := range intent.Inputs {
		if in.Kind == classify.InputObject {
			objectCount++
		}
	}
	if objectCount != 2 {
		t.Errorf("expected 2 object inputs, got %d", objectCount)
	}
}

func TestReadExistingRefsErrorsOnNonObjectFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plain.txt")
	if err := os.WriteFile(path, []byte("not an object file"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := readExistingRefs(path, ""); err == nil {
		t.Error("expected an error reading refs from a non-object file")
	}
}

func TestReadArchiveRefsSkipsNonObjectMembersWithoutError(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "lib.a")

	member := "bad.txt"
	content := "plain text, not an object"
	header := make([]byte, 60)
	copy(header[0:16], padRight(member, 16))
	copy(header[48:58], padLeft(len(content), 10))
	header[58], header[59] = '`', '\n'

	var buf []byte
	buf = append(buf, []byte("!<arch>\n")...)
	buf = append(buf, header...)
	buf = append(buf, []byte(content)...)

	if err := os.WriteFile(archivePath, buf, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	refs, err := readArchiveRefs(archivePath, "")
	if err != nil {
		t.Fatalf("readArchiveRefs: %v", err)
	}
	if len(refs) != 0 {
		t.Errorf("expected no refs from a non-object member, got %+v", refs)
	}
}

func padRight(s string, n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = ' '
	}
	copy(out, s)
	return out
}

func padLeft(v int, n int) []byte {
	s := itoa(v)
	out := make([]byte, n)
	for i := range out {
		out[i] = ' '
	}
	copy(out, s)
	return out
}

func itoa(v int) string {
	if v == 0 {
		return "0"
	}
	var digits []byte
	for v > 0 {
		digits = append([]byte{byte('0' + v%10)}, digits...)
		v /= 10
	}
	return string(digits)
}
