// Package section defines the platform-neutral object-section I/O
// abstraction spec.md §4.5 describes: reading back an embedded bitcode
// reference from a compiled object/archive/executable, and writing one
// in during the attach step. The concrete ELF and Mach-O encodings live
// in section/elfsection and section/machosection; this package only
// knows the contract between them and the wrapper/recovery callers.
//
// Grounded on the teacher's internal/hal package split (hal/linux,
// hal/windows implementing a shared Linker/Compiler interface) — same
// idea, one interface with a platform-specific implementation selected
// at runtime rather than at build time, since a single rllvm binary may
// need to read artifacts produced on a different platform than it runs
// on (e.g. extracting bitcode from a committed .a in a cross-build).
package section

import "github.com/ebcbuild/rllvm/internal/fs"

// SectionName is the ELF/Mach-O-neutral base name of the bitcode
// section. The concrete backends define their own full names
// (".llvm_bc" for ELF, "__RLLVM,__llvm_bc" for Mach-O) and do not read
// this constant.
const SectionName = "llvm_bc"

// Format identifies the binary container kind a path was sniffed as.
type Format int

const (
	FormatUnknown Format = iota
	FormatELF
	FormatMachO
	FormatArchive
)

func (f Format) String() string {
	switch f {
	case FormatELF:
		return "elf"
	case FormatMachO:
		return "mach-o"
	case FormatArchive:
		return "archive"
	default:
		return "unknown"
	}
}

// BitcodeRef is one reference to a standalone bitcode file, as recorded
// in an object's embedded section (spec.md §4.3 "BitcodeRef").
type BitcodeRef struct {
	Path string
}

// Backend is the per-platform capability spec.md §4.5 requires: read the
// embedded section payload back out of a compiled artifact, and write
// one into a freshly compiled object.
type Backend interface {
	// Sniff reports whether path is a binary this backend understands.
	Sniff(path string) (bool, error)

	// ReadSection extracts and decodes the embedded bitcode-reference
	// payload from path. A file with no such section returns
	// (nil, nil) rather than an error — spec.md §4.3 treats "no
	// section" as a valid, if unhelpful, recovery state.
	ReadSection(path string) ([]BitcodeRef, error)

	// WriteSection embeds refs into path's object file, replacing any
	// existing section of the same name. This mutates path in place,
	// matching llvm-objcopy's own semantics, which every known backend
	// shells out to (spec.md §4.2 "Attach").
	WriteSection(path string, refs []BitcodeRef) error

	// IterArchiveMembers yields each member's extracted temp-file path
	// inside a static archive, for the recovery engine's archive case
	// (spec.md §4.3 "archive artifact"). The callback's error aborts
	// iteration.
	IterArchiveMembers(archivePath string, fn func(memberName, tempPath string) error) error
}

// EncodeRefs serializes BitcodeRefs into the section payload format:
// one NUL-terminated absolute path per reference, concatenated, matching
// llvm-link's own "-Xlinker --embed-bitcode-marker" sibling tools'
// convention of a flat concatenated path list (spec.md §6 "payload
// encoding").
func EncodeRefs(refs []BitcodeRef) []byte {
	var buf []byte
	for _, r := range refs {
		buf = append(buf, []byte(r.Path)...)
		buf = append(buf, 0)
	}
	return buf
}

// DecodeRefs is EncodeRefs' inverse, tolerant of a trailing NUL or its
// absence.
func DecodeRefs(payload []byte) []BitcodeRef {
	var refs []BitcodeRef
	start := 0
	for i, b := range payload {
		if b == 0 {
			if i > start {
				refs = append(refs, BitcodeRef{Path: string(payload[start:i])})
			}
			start = i + 1
		}
	}
	if start < len(payload) {
		refs = append(refs, BitcodeRef{Path: string(payload[start:])})
	}
	return refs
}

// DedupeRefs removes duplicate paths while preserving first-seen order,
// per spec.md invariant I2 ("order-preserving, canonicalized-path
// identity dedup").
func DedupeRefs(refs []BitcodeRef) []BitcodeRef {
	seen := make(map[string]bool, len(refs))
	out := make([]BitcodeRef, 0, len(refs))
	for _, r := range refs {
		key, err := fs.Canonicalize(r.Path)
		if err != nil {
			key = r.Path
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, r)
	}
	return out
}
