// Command rllvm-cxx is rllvm-cc's C++ counterpart: set CXX=rllvm-cxx.
package main

import (
	"os"

	"github.com/ebcbuild/rllvm/classify"
	"github.com/ebcbuild/rllvm/internal/cli"
)

func main() {
	os.Exit(cli.RunWrapper(classify.WrapperCXX, os.Args[1:]))
}
