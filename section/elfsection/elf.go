// Package elfsection implements section.Backend for ELF objects: reading
// the embedded bitcode-reference payload via the standard library's
// debug/elf, and writing it via an llvm-objcopy subprocess (stdlib has no
// ELF *writer*, and llvm-objcopy is the tool every platform's rllvm
// config already resolves, so reuse it rather than hand-rolling ELF
// section insertion).
//
// Layout grounded on spec.md §6 "ELF layout": section name ".llvm_bc",
// type SHT_PROGBITS, flags 0 (neither SHF_ALLOC nor SHF_EXECINSTR — the
// section carries metadata, not loadable content).
package elfsection

import (
	"debug/elf"
	"os"

	"github.com/ebcbuild/rllvm/internal/base"
	"github.com/ebcbuild/rllvm/internal/procrunner"
	"github.com/ebcbuild/rllvm/section"
)

const sectionName = ".llvm_bc"

var LogELF = base.NewLogCategory("ELF")

// Backend implements section.Backend for ELF objects and archives.
type Backend struct {
	ObjcopyPath string
}

// New constructs an ELF Backend that shells out to the llvm-objcopy
// found at objcopyPath for writes.
func New(objcopyPath string) *Backend {
	return &Backend{ObjcopyPath: objcopyPath}
}

func (b *Backend) Sniff(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()
	var magic [4]byte
	if _, err := f.Read(magic[:]); err != nil {
		return false, nil
	}
	return magic[0] == 0x7f && magic[1] == 'E' && magic[2] == 'L' && magic[3] == 'F', nil
}

func (b *Backend) ReadSection(path string) ([]section.BitcodeRef, error) {
	f, err := elf.Open(path)
	if err != nil {
		return nil, base.WrapErr(base.ErrUnsupportedFormat, err, "opening ELF file %q", path)
	}
	defer f.Close()

	sec := f.Section(sectionName)
	if sec == nil {
		return nil, nil
	}
	payload, err := sec.Data()
	if err != nil {
		return nil, base.WrapErr(base.ErrMissingBitcode, err, "reading %s section of %q", sectionName, path)
	}
	return section.DecodeRefs(payload), nil
}

func (b *Backend) WriteSection(path string, refs []section.BitcodeRef) error {
	payload := section.EncodeRefs(refs)
	tmp, err := os.CreateTemp("", "rllvm-elfsection-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)
	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		return err
	}
	tmp.Close()

	args := []string{
		"--remove-section=" + sectionName,
		"--add-section=" + sectionName + "=" + tmpPath,
		"--set-section-flags=" + sectionName + "=noload,readonly",
		path,
	}
	res, err := procrunner.Run(b.ObjcopyPath, args, procrunner.Options{})
	if err != nil {
		return base.WrapErr(base.ErrAttachFailed, err, "invoking llvm-objcopy on %q", path)
	}
	if res.ExitCode != 0 {
		return base.Wrap(base.ErrAttachFailed, "llvm-objcopy on %q exited %d: %s", path, res.ExitCode, string(res.Output))
	}
	return nil
}

func (b *Backend) IterArchiveMembers(archivePath string, fn func(memberName, tempPath string) error) error {
	return section.IterArMembers(archivePath, fn)
}
