// Command rllvm-get-bc recovers whole-program bitcode, a bitcode
// archive, or a manifest of standalone .bc files from a linked artifact
// previously built with rllvm-cc/rllvm-cxx (spec.md §4.3).
package main

import (
	"os"

	"github.com/ebcbuild/rllvm/internal/cli"
)

func main() {
	os.Exit(cli.RunGetBC(os.Args[1:]))
}
