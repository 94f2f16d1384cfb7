package toolchain

import (
	"context"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
)

const probeTimeout = 10 * time.Second

// Validate checks the toolchain layout before any compilation is attempted:
// every expected binary must be present, and each compiler driver must
// answer a version probe. With a layout root, lib/ and headers/ must exist
// too. The first failure is returned as an ErrToolchainMissing naming the
// absent piece.
func Validate(ctx context.Context, runner CommandRunner, layout *Layout) error {
	for _, dir := range []string{layout.HeadersDir(), layout.LibDir()} {
		if dir == "" {
			continue
		}
		if fi, err := os.Stat(dir); err != nil || !fi.IsDir() {
			return goerr.Wrap(ErrToolchainMissing, "toolchain directory absent", goerr.V("dir", dir))
		}
	}

	for _, bin := range layout.binaries() {
		if err := checkPresent(bin); err != nil {
			return err
		}
	}

	for _, lang := range []Language{LangC, LangCPP} {
		driver := layout.Driver(lang)
		if err := probeVersion(ctx, runner, driver); err != nil {
			return err
		}
	}
	return nil
}

// checkPresent verifies a binary exists: by stat for layout paths, by PATH
// lookup for bare names.
func checkPresent(bin string) error {
	if strings.ContainsRune(bin, os.PathSeparator) {
		if _, err := os.Stat(bin); err != nil {
			return goerr.Wrap(ErrToolchainMissing, "toolchain binary absent", goerr.V("binary", bin))
		}
		return nil
	}
	if _, err := exec.LookPath(bin); err != nil {
		return goerr.Wrap(ErrToolchainMissing, "toolchain binary not on PATH", goerr.V("binary", bin))
	}
	return nil
}

// probeVersion runs `driver --version` and requires a zero exit.
func probeVersion(ctx context.Context, runner CommandRunner, driver string) error {
	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	stdout, stderr, exitCode, err := runner.Run(probeCtx, "", driver, "--version")
	if err != nil {
		return goerr.Wrap(ErrToolchainMissing, "version probe failed", goerr.V("binary", driver), goerr.V("cause", err.Error()))
	}
	if exitCode != 0 {
		return goerr.Wrap(ErrToolchainMissing, "version probe exited non-zero",
			goerr.V("binary", driver), goerr.V("exit_code", exitCode),
			goerr.V("output", firstLine(stdout+stderr)))
	}
	return nil
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return line
}
