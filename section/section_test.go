package section

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestEncodeDecodeRefsRoundTrip(t *testing.T) {
	refs := []BitcodeRef{{Path: "/a/b.bc"}, {Path: "/c/d.bc"}}
	payload := EncodeRefs(refs)
	got := DecodeRefs(payload)
	if !reflect.DeepEqual(got, refs) {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, refs)
	}
}

func TestDecodeRefsTolerantOfMissingTrailingNUL(t *testing.T) {
	payload := []byte("/a/b.bc\x00/c/d.bc")
	got := DecodeRefs(payload)
	want := []BitcodeRef{{Path: "/a/b.bc"}, {Path: "/c/d.bc"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestDedupeRefsPreservesOrder(t *testing.T) {
	refs := []BitcodeRef{{Path: "a"}, {Path: "b"}, {Path: "a"}, {Path: "c"}, {Path: "b"}}
	got := DedupeRefs(refs)
	want := []BitcodeRef{{Path: "a"}, {Path: "b"}, {Path: "c"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestSniffFormatArchive(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lib.a")
	if err := os.WriteFile(path, []byte("!<arch>\nrest-of-archive-contents"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	format, err := SniffFormat(path)
	if err != nil {
		t.Fatalf("SniffFormat: %v", err)
	}
	if format != FormatArchive {
		t.Errorf("format = %v, want archive", format)
	}
}

func TestSniffFormatELF(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.out")
	if err := os.WriteFile(path, []byte{0x7f, 'E', 'L', 'F', 2, 1, 1, 0}, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	format, err := SniffFormat(path)
	if err != nil {
		t.Fatalf("SniffFormat: %v", err)
	}
	if format != FormatELF {
		t.Errorf("format = %v, want elf", format)
	}
}

func TestSniffFormatUnknown(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plain.txt")
	if err := os.WriteFile(path, []byte("just text"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	format, err := SniffFormat(path)
	if err != nil {
		t.Fatalf("SniffFormat: %v", err)
	}
	if format != FormatUnknown {
		t.Errorf("format = %v, want unknown", format)
	}
}
