// Package config loads the TOML configuration file spec.md §6 defines.
// This is deliberately the one place in the module that talks to the
// filesystem for configuration — every other package receives a *Config
// value explicitly (see DESIGN.md, "Open Question: global config"), rather
// than reaching for process-wide state the way the teacher's utils.UFS /
// utils.CommandEnv globals do.
package config

import (
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/ebcbuild/rllvm/internal/base"
)

var LogConfig = base.NewLogCategory("Config")

// Config mirrors the TOML keys from spec.md §6 verbatim.
type Config struct {
	LlvmConfigFilepath  string `toml:"llvm_config_filepath"`
	ClangFilepath       string `toml:"clang_filepath"`
	ClangxxFilepath     string `toml:"clangxx_filepath"`
	LlvmArFilepath      string `toml:"llvm_ar_filepath"`
	LlvmLinkFilepath    string `toml:"llvm_link_filepath"`
	LlvmObjcopyFilepath string `toml:"llvm_objcopy_filepath"`

	BitcodeStorePath string `toml:"bitcode_store_path"`

	LlvmLinkFlags          []string `toml:"llvm_link_flags"`
	LtoLdflags             []string `toml:"lto_ldflags"`
	BitcodeGenerationFlags []string `toml:"bitcode_generation_flags"`

	IsConfigureOnly bool `toml:"is_configure_only"`
	LogLevel        int  `toml:"log_level"`
}

// Default returns the zero-config fallback: an empty bitcode store path
// resolves to the OS temp directory's "rllvm-bitcode" subdirectory, and no
// tool paths pinned (the tool resolver then falls through to llvm-config /
// PATH / platform heuristics, spec.md §4.4).
func Default() Config {
	return Config{
		BitcodeStorePath: filepath.Join(os.TempDir(), "rllvm-bitcode"),
	}
}

// Locate implements the override chain: RLLVM_CONFIG env var, then
// $XDG_CONFIG_HOME/rllvm/config.toml, then /etc/rllvm/config.toml. Returns
// "" when none of those exist, meaning Default() should be used.
func Locate() string {
	if path := os.Getenv("RLLVM_CONFIG"); path != "" {
		return path
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		candidate := filepath.Join(xdg, "rllvm", "config.toml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	const systemWide = "/etc/rllvm/config.toml"
	if _, err := os.Stat(systemWide); err == nil {
		return systemWide
	}
	return ""
}

// Load reads and parses the TOML file at path, overlaying it onto
// Default(). An empty path is not an error: it returns Default() as-is,
// letting the tool resolver and bitcode store fall back to discovery.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, base.WrapErr(base.ErrConfig, err, "read config %q", path)
	}

	loaded := cfg
	if err := toml.Unmarshal(data, &loaded); err != nil {
		return cfg, base.WrapErr(base.ErrConfig, err, "parse config %q", path)
	}
	if loaded.BitcodeStorePath == "" {
		loaded.BitcodeStorePath = cfg.BitcodeStorePath
	}

	base.LogDebug(LogConfig, "loaded config from %q", path)
	return loaded, nil
}
