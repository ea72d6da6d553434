package cli

import (
	"fmt"
	"os"

	"github.com/ebcbuild/rllvm/internal/base"
	"github.com/ebcbuild/rllvm/internal/config"
	"github.com/ebcbuild/rllvm/internal/toolchain"
	"github.com/ebcbuild/rllvm/recovery"
)

// RunGetBC implements the rllvm-get-bc entry point (spec.md §6): parses
// the optional "-o OUT" (defaulted per spec.md §4.3 step 4 when absent),
// the "-b" (archive) / "-m" (manifest) mode flags (the last one given
// wins),
// repeatable "-v" for verbosity, and a single positional input artifact.
func RunGetBC(argv []string) int {
	var inputPath, outputPath string
	mode := recovery.EmitLinkedBitcode
	verbosity := 0

	for i := 0; i < len(argv); i++ {
		switch argv[i] {
		case "-o":
			i++
			if i >= len(argv) {
				fmt.Fprintln(os.Stderr, "rllvm-get-bc: -o requires an argument")
				return 2
			}
			outputPath = argv[i]
		case "-b":
			mode = recovery.EmitArchive
		case "-m":
			mode = recovery.EmitManifest
		case "-v":
			verbosity++
		default:
			if inputPath != "" {
				fmt.Fprintln(os.Stderr, "rllvm-get-bc: unexpected extra argument:", argv[i])
				return 2
			}
			inputPath = argv[i]
		}
	}

	base.SetLevel(base.LevelFromVerbosity(verbosity))

	if inputPath == "" {
		fmt.Fprintln(os.Stderr, "usage: rllvm-get-bc [-b|-m] [-v...] [-o OUTPUT] INPUT")
		return 2
	}
	if outputPath == "" {
		outputPath = recovery.DefaultOutputPath(inputPath, mode)
	}

	cfg, err := config.Load(config.Locate())
	if err != nil {
		fmt.Fprintln(os.Stderr, "rllvm-get-bc:", err)
		return 2
	}
	tools, err := toolchain.Resolve(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "rllvm-get-bc:", err)
		return 2
	}

	exitCode, err := recovery.Run(recovery.Options{
		InputPath:  inputPath,
		OutputPath: outputPath,
		Mode:       mode,
		Tools:      tools,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "rllvm-get-bc:", err)
	}
	return exitCode
}
