// Command rllvm-cc is a drop-in replacement for the C compiler in a build
// invocation (spec.md §4.2): set CC=rllvm-cc and every native compile
// also gets tracked bitcode, transparently.
package main

import (
	"os"

	"github.com/ebcbuild/rllvm/classify"
	"github.com/ebcbuild/rllvm/internal/cli"
)

func main() {
	os.Exit(cli.RunWrapper(classify.WrapperCC, os.Args[1:]))
}
