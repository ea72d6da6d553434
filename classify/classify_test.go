package classify

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestClassifyCompileOnly(t *testing.T) {
	ci, err := Classify([]string{"-c", "hello.c", "-o", "hello.o"}, WrapperCC)
	if err != nil {
		t.Fatalf("Classify returned error: %v", err)
	}
	if ci.Mode != ModeCompileOnly {
		t.Errorf("Mode = %v, want %v", ci.Mode, ModeCompileOnly)
	}
	if len(ci.Inputs) != 1 || ci.Inputs[0].Path != "hello.c" || ci.Inputs[0].Kind != InputSource {
		t.Errorf("Inputs = %+v", ci.Inputs)
	}
	if !reflect.DeepEqual(ci.Outputs, []string{"hello.o"}) {
		t.Errorf("Outputs = %v", ci.Outputs)
	}
}

func TestClassifyVersionIsPrintInfoAndSuppressesBitcode(t *testing.T) {
	ci, err := Classify([]string{"--version"}, WrapperCC)
	if err != nil {
		t.Fatalf("Classify returned error: %v", err)
	}
	if ci.Mode != ModePrintInfo {
		t.Errorf("Mode = %v, want %v", ci.Mode, ModePrintInfo)
	}
	if len(ci.Inputs) != 0 {
		t.Errorf("expected no inputs, got %+v", ci.Inputs)
	}
}

func TestClassifyPreprocessOnly(t *testing.T) {
	ci, err := Classify([]string{"-E", "hello.c"}, WrapperCC)
	if err != nil {
		t.Fatalf("Classify returned error: %v", err)
	}
	if ci.Mode != ModePreprocessOnly {
		t.Errorf("Mode = %v, want %v", ci.Mode, ModePreprocessOnly)
	}
	if !ci.IsPreprocessOrDepsOnly {
		t.Error("expected IsPreprocessOrDepsOnly")
	}
}

func TestClassifyLinkOnly(t *testing.T) {
	ci, err := Classify([]string{"a.o", "b.o", "-o", "prog"}, WrapperCC)
	if err != nil {
		t.Fatalf("Classify returned error: %v", err)
	}
	if ci.Mode != ModeLinkOnly {
		t.Errorf("Mode = %v, want %v", ci.Mode, ModeLinkOnly)
	}
}

func TestClassifyCompileAndLink(t *testing.T) {
	ci, err := Classify([]string{"hello.c", "-o", "hello"}, WrapperCC)
	if err != nil {
		t.Fatalf("Classify returned error: %v", err)
	}
	if ci.Mode != ModeCompileAndLink {
		t.Errorf("Mode = %v, want %v", ci.Mode, ModeCompileAndLink)
	}
}

func TestClassifyEmitLLVMSuppressesParallelBitcode(t *testing.T) {
	ci, err := Classify([]string{"-c", "-emit-llvm", "hello.c", "-o", "hello.bc"}, WrapperCC)
	if err != nil {
		t.Fatalf("Classify returned error: %v", err)
	}
	if !ci.IsEmitLLVM {
		t.Error("expected IsEmitLLVM")
	}
}

func TestClassifyLTOFlagDetected(t *testing.T) {
	ci, err := Classify([]string{"-c", "-flto=thin", "hello.c"}, WrapperCC)
	if err != nil {
		t.Fatalf("Classify returned error: %v", err)
	}
	if !ci.IsLTO {
		t.Error("expected IsLTO")
	}
}

func TestClassifyConfigureProbe(t *testing.T) {
	ci, err := Classify([]string{"-c", "conftest.c", "-o", "conftest.o"}, WrapperCC)
	if err != nil {
		t.Fatalf("Classify returned error: %v", err)
	}
	if !ci.IsConfigureProbe {
		t.Error("expected IsConfigureProbe")
	}
	if ci.Mode != ModeConfigureProbe {
		t.Errorf("Mode = %v, want %v", ci.Mode, ModeConfigureProbe)
	}
}

func TestClassifyXLanguageOverrideAppliesToLaterInputs(t *testing.T) {
	ci, err := Classify([]string{"-x", "c++", "weird_ext.inc", "-x", "c", "other.inc"}, WrapperCC)
	if err != nil {
		t.Fatalf("Classify returned error: %v", err)
	}
	if len(ci.Inputs) != 2 {
		t.Fatalf("Inputs = %+v", ci.Inputs)
	}
	if ci.Inputs[0].Language != LanguageCXX {
		t.Errorf("Inputs[0].Language = %v, want c++", ci.Inputs[0].Language)
	}
	if ci.Inputs[1].Language != LanguageC {
		t.Errorf("Inputs[1].Language = %v, want c", ci.Inputs[1].Language)
	}
}

func TestClassifyBitcodeFlagsStripLinkerAndFormatFlags(t *testing.T) {
	ci, err := Classify([]string{"-c", "-Wl,--gc-sections", "-lm", "-static", "-O2", "hello.c", "-o", "hello.o"}, WrapperCC)
	if err != nil {
		t.Fatalf("Classify returned error: %v", err)
	}
	for _, f := range ci.BitcodeFlags {
		if f == "-static" || f == "-lm" {
			t.Errorf("BitcodeFlags retained a flag that should be stripped: %q (all: %v)", f, ci.BitcodeFlags)
		}
	}
	found := false
	for _, f := range ci.BitcodeFlags {
		if f == "-O2" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected -O2 to survive bitcode filtering, got %v", ci.BitcodeFlags)
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	argv := []string{"-c", "-O2", "-Wall", "hello.c", "-o", "hello.o"}
	first, err := Classify(argv, WrapperCC)
	if err != nil {
		t.Fatalf("Classify returned error: %v", err)
	}
	second, err := Classify(argv, WrapperCC)
	if err != nil {
		t.Fatalf("Classify returned error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Classify is not deterministic:\n%+v\n%+v", first, second)
	}
}

func TestClassifyResponseFileExpansion(t *testing.T) {
	dir := t.TempDir()
	respPath := filepath.Join(dir, "args.rsp")
	if err := os.WriteFile(respPath, []byte(`-c "hello world.c" -o hello.o`), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	ci, err := Classify([]string{"@" + respPath}, WrapperCC)
	if err != nil {
		t.Fatalf("Classify returned error: %v", err)
	}
	if ci.Mode != ModeCompileOnly {
		t.Errorf("Mode = %v, want %v", ci.Mode, ModeCompileOnly)
	}
	if len(ci.Inputs) != 1 || ci.Inputs[0].Path != "hello world.c" {
		t.Errorf("Inputs = %+v", ci.Inputs)
	}
}

func TestClassifyDoubleDashTerminatesFlagParsing(t *testing.T) {
	ci, err := Classify([]string{"-c", "--", "-oddly-named-file.c"}, WrapperCC)
	if err != nil {
		t.Fatalf("Classify returned error: %v", err)
	}
	if len(ci.Inputs) != 1 || ci.Inputs[0].Path != "-oddly-named-file.c" {
		t.Errorf("Inputs = %+v", ci.Inputs)
	}
}

func TestClassifyCXXWrapperDefaultLanguage(t *testing.T) {
	ci, err := Classify([]string{"-c", "thing.unknownext"}, WrapperCXX)
	if err != nil {
		t.Fatalf("Classify returned error: %v", err)
	}
	if ci.Inputs[0].Language != LanguageCXX {
		t.Errorf("Language = %v, want c++", ci.Inputs[0].Language)
	}
}
