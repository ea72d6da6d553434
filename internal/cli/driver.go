// Package cli holds the shared driver behind both compiler-wrapper entry
// points (spec.md §9 Design Notes: "one configurable driver, two thin
// entry points" rather than duplicating main() logic per language).
// Grounded on the teacher's cmd/ppb/ppb.go, which likewise resolves
// config once and dispatches into a shared command layer.
package cli

import (
	"fmt"
	"os"

	"github.com/ebcbuild/rllvm/classify"
	"github.com/ebcbuild/rllvm/internal/base"
	"github.com/ebcbuild/rllvm/internal/config"
	"github.com/ebcbuild/rllvm/internal/toolchain"
	"github.com/ebcbuild/rllvm/wrapper"
)

// RunWrapper is the entry point cmd/rllvm-cc and cmd/rllvm-cxx both call,
// differing only in which WrapperKind they pass.
func RunWrapper(kind classify.WrapperKind, argv []string) int {
	cfg, err := config.Load(config.Locate())
	if err != nil {
		fmt.Fprintln(os.Stderr, "rllvm:", err)
		return 1
	}
	base.SetLevel(base.LevelFromVerbosity(cfg.LogLevel))

	tools, err := toolchain.Resolve(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "rllvm:", err)
		return 1
	}

	wd, _ := os.Getwd()
	result, err := wrapper.Run(wrapper.Options{
		WrapperKind: kind,
		Argv:        argv,
		WorkingDir:  wd,
		Config:      cfg,
		Tools:       tools,
	})
	if err != nil {
		base.LogError(base.NewLogCategory("CLI"), "%v", err)
	}
	return result.ExitCode
}
