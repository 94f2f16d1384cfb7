// Package toolchain locates the native compiler toolchain, validates its
// layout, and drives it to produce instrumented executables.
package toolchain

import (
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"

	"github.com/codestep/codestep/internal/platform"
)

var (
	// ErrToolchainMissing means a required binary or directory of the
	// toolchain layout is absent or unusable. Nothing can be compiled.
	ErrToolchainMissing = goerr.New("toolchain missing or incomplete")

	// ErrCompileFailed means the compiler rejected the source. The wrapped
	// error carries the diagnostic text.
	ErrCompileFailed = goerr.New("compilation failed")

	// ErrInvalidLanguage means the request named a language this toolchain
	// does not drive.
	ErrInvalidLanguage = goerr.New("unsupported language")
)

// Language selects the compiler driver and source file extension.
type Language int

const (
	LangC Language = iota
	LangCPP
)

// ParseLanguage maps user-facing language names onto the enum.
func ParseLanguage(name string) (Language, error) {
	switch name {
	case "c":
		return LangC, nil
	case "cpp", "c++":
		return LangCPP, nil
	default:
		return 0, goerr.Wrap(ErrInvalidLanguage, "parse language", goerr.V("language", name))
	}
}

// String returns the canonical language name.
func (l Language) String() string {
	if l == LangCPP {
		return "cpp"
	}
	return "c"
}

// SourceExt returns the source filename extension including the dot.
func (l Language) SourceExt() string {
	if l == LangCPP {
		return ".cpp"
	}
	return ".c"
}

// driverName returns the compiler driver binary name for the language.
func (l Language) driverName() string {
	if l == LangCPP {
		return "clang++"
	}
	return "clang"
}

// Layout is the on-disk toolchain contract: a root with bin/ (compiler
// drivers, debugger, symbolizer), lib/ (instrumentation runtime shared
// objects), and headers/. A Layout with an empty root means drivers are
// resolved on PATH and no layout flags are produced.
type Layout struct {
	Root   string
	family platform.OSFamily
}

// NewLayout creates a Layout for root on the current platform. root may be
// empty.
func NewLayout(root string) *Layout {
	return &Layout{Root: root, family: platform.DetectFamily()}
}

// Driver returns the compiler driver path (or bare name, for PATH lookup)
// for the language.
func (t *Layout) Driver(lang Language) string {
	name := lang.driverName() + t.family.ExeSuffix()
	if t.Root == "" {
		return name
	}
	return filepath.Join(t.Root, "bin", name)
}

// binaries lists everything Validate probes: the two compiler drivers plus
// the debugger and symbolizer the downstream inspection tools expect.
func (t *Layout) binaries() []string {
	suffix := t.family.ExeSuffix()
	names := []string{"clang" + suffix, "clang++" + suffix, "lldb" + suffix, "llvm-symbolizer" + suffix}
	if t.Root == "" {
		return names
	}
	paths := make([]string, len(names))
	for i, n := range names {
		paths[i] = filepath.Join(t.Root, "bin", n)
	}
	return paths
}

// HeadersDir returns the shared headers directory, empty without a root.
func (t *Layout) HeadersDir() string {
	if t.Root == "" {
		return ""
	}
	return filepath.Join(t.Root, "headers")
}

// LibDir returns the runtime shared-object directory, empty without a root.
// It doubles as the library search path injected into the execution
// environment.
func (t *Layout) LibDir() string {
	if t.Root == "" {
		return ""
	}
	return filepath.Join(t.Root, "lib")
}

// LayoutFlags returns the include and library flags the layout adds to every
// compile.
func (t *Layout) LayoutFlags() []string {
	if t.Root == "" {
		return nil
	}
	return []string{"-I" + t.HeadersDir(), "-L" + t.LibDir()}
}
