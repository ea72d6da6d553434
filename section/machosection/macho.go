// Package machosection implements section.Backend for Mach-O objects:
// reading the embedded bitcode-reference payload via the standard
// library's debug/macho, and writing it via an llvm-objcopy subprocess,
// mirroring section/elfsection's split between a stdlib reader and a
// tool-shelled writer.
//
// Layout grounded on spec.md §6 "Mach-O layout": segment "__RLLVM",
// section "__llvm_bc".
package machosection

import (
	"debug/macho"
	"os"

	"github.com/ebcbuild/rllvm/internal/base"
	"github.com/ebcbuild/rllvm/internal/procrunner"
	"github.com/ebcbuild/rllvm/section"
)

const (
	segmentName = "__RLLVM"
	sectionName = "__llvm_bc"
)

var LogMachO = base.NewLogCategory("MachO")

// Backend implements section.Backend for Mach-O objects and archives.
type Backend struct {
	ObjcopyPath string
}

// New constructs a Mach-O Backend that shells out to the llvm-objcopy
// found at objcopyPath for writes.
func New(objcopyPath string) *Backend {
	return &Backend{ObjcopyPath: objcopyPath}
}

func (b *Backend) Sniff(path string) (bool, error) {
	f, err := macho.Open(path)
	if err != nil {
		return false, nil
	}
	f.Close()
	return true, nil
}

func (b *Backend) ReadSection(path string) ([]section.BitcodeRef, error) {
	f, err := macho.Open(path)
	if err != nil {
		return nil, base.WrapErr(base.ErrUnsupportedFormat, err, "opening Mach-O file %q", path)
	}
	defer f.Close()

	for _, sec := range f.Sections {
		if sec.Seg != segmentName || sec.Name != sectionName {
			continue
		}
		payload, err := sec.Data()
		if err != nil {
			return nil, base.WrapErr(base.ErrMissingBitcode, err, "reading %s,%s section of %q", segmentName, sectionName, path)
		}
		return section.DecodeRefs(payload), nil
	}
	return nil, nil
}

func (b *Backend) WriteSection(path string, refs []section.BitcodeRef) error {
	payload := section.EncodeRefs(refs)
	tmp, err := os.CreateTemp("", "rllvm-machosection-*")
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

	sectionSpec := segmentName + "," + sectionName
	args := []string{
		"--remove-section=" + sectionSpec,
		"--add-section=" + sectionSpec + "=" + tmpPath,
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
