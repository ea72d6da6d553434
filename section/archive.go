package section

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ebcbuild/rllvm/internal/base"
)

// arHeaderSize is the fixed size of a classic Unix ar member header,
// shared by ELF and Mach-O toolchains alike (llvm-ar emits this same
// layout on every platform this project targets).
const arHeaderSize = 60

// IterArMembers walks a classic ar(1) archive, extracting each member to
// a temp file and invoking fn with its name and temp path. This is
// shared by both the ELF and Mach-O backends since the archive container
// format itself is platform-neutral; only the *member* object format
// differs, which the caller's fn is responsible for interpreting.
func IterArMembers(archivePath string, fn func(memberName, tempPath string) error) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return base.Wrap(base.ErrUnsupportedFormat, "opening archive %q: %v", archivePath, err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	magic := make([]byte, len(arMagic))
	if _, err := io.ReadFull(r, magic); err != nil || string(magic) != string(arMagic) {
		return base.Wrap(base.ErrUnsupportedFormat, "%q is not an ar archive", archivePath)
	}

	var longNames string

	for {
		header := make([]byte, arHeaderSize)
		_, err := io.ReadFull(r, header)
		if err == io.EOF {
			break
		}
		if err != nil {
			return base.WrapErr(base.ErrUnsupportedFormat, err, "reading archive member header in %q", archivePath)
		}

		name := strings.TrimRight(string(header[0:16]), " ")
		sizeField := strings.TrimSpace(string(header[48:58]))
		size, convErr := strconv.ParseInt(sizeField, 10, 64)
		if convErr != nil {
			return base.WrapErr(base.ErrUnsupportedFormat, convErr, "parsing archive member size in %q", archivePath)
		}

		// GNU ar's "//" member holds the long-name table; "/N" members
		// reference an offset into it.
		switch {
		case name == "//":
			buf := make([]byte, size)
			if _, err := io.ReadFull(r, buf); err != nil {
				return err
			}
			longNames = string(buf)
			if size%2 != 0 {
				r.Discard(1)
			}
			continue
		case strings.HasPrefix(name, "/") && name != "/":
			if off, err := strconv.Atoi(strings.TrimSpace(name[1:])); err == nil && off >= 0 && off < len(longNames) {
				end := strings.IndexByte(longNames[off:], '\n')
				if end >= 0 {
					name = strings.TrimRight(longNames[off:off+end], "/")
				}
			}
		default:
			name = strings.TrimRight(name, "/")
		}

		if name == "/" || name == "" {
			// Symbol table member; skip its contents.
			if _, err := r.Discard(int(size)); err != nil {
				return err
			}
			if size%2 != 0 {
				r.Discard(1)
			}
			continue
		}

		tmp, err := os.CreateTemp("", "rllvm-armember-*"+filepath.Ext(name))
		if err != nil {
			return err
		}
		if _, err := io.CopyN(tmp, r, size); err != nil {
			tmp.Close()
			return err
		}
		tmpPath := tmp.Name()
		tmp.Close()
		if size%2 != 0 {
			r.Discard(1)
		}

		if err := fn(name, tmpPath); err != nil {
			os.Remove(tmpPath)
			return err
		}
		os.Remove(tmpPath)
	}

	return nil
}
