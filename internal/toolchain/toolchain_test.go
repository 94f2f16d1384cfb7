package toolchain

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// mockRunner records invocations and replays scripted responses keyed by
// binary name.
type mockRunner struct {
	calls     [][]string
	responses map[string]mockResponse
}

type mockResponse struct {
	stdout   string
	stderr   string
	exitCode int
	err      error
}

func (m *mockRunner) Run(ctx context.Context, dir string, name string, args ...string) (string, string, int, error) {
	m.calls = append(m.calls, append([]string{name}, args...))
	r, ok := m.responses[filepath.Base(name)]
	if !ok {
		return "", "", 0, nil
	}
	return r.stdout, r.stderr, r.exitCode, r.err
}

func TestParseLanguage(t *testing.T) {
	cases := []struct {
		name    string
		want    Language
		wantErr bool
	}{
		{"c", LangC, false},
		{"cpp", LangCPP, false},
		{"c++", LangCPP, false},
		{"rust", 0, true},
		{"", 0, true},
	}
	for _, tc := range cases {
		got, err := ParseLanguage(tc.name)
		if tc.wantErr {
			if !errors.Is(err, ErrInvalidLanguage) {
				t.Errorf("ParseLanguage(%q) err = %v, want ErrInvalidLanguage", tc.name, err)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Errorf("ParseLanguage(%q) = %v, %v", tc.name, got, err)
		}
	}
}

func TestLayoutDriverAndFlags(t *testing.T) {
	bare := NewLayout("")
	if d := bare.Driver(LangC); d != "clang" && d != "clang.exe" {
		t.Errorf("bare Driver(LangC) = %q", d)
	}
	if flags := bare.LayoutFlags(); flags != nil {
		t.Errorf("bare LayoutFlags = %v, want none", flags)
	}

	rooted := NewLayout(filepath.Join("/opt", "tc"))
	if d := rooted.Driver(LangCPP); !strings.Contains(d, filepath.Join("bin", "clang++")) {
		t.Errorf("rooted Driver(LangCPP) = %q", d)
	}
	flags := rooted.LayoutFlags()
	if len(flags) != 2 || !strings.HasPrefix(flags[0], "-I") || !strings.HasPrefix(flags[1], "-L") {
		t.Errorf("rooted LayoutFlags = %v", flags)
	}
}

func TestCompileSuccess(t *testing.T) {
	runner := &mockRunner{responses: map[string]mockResponse{
		"clang": {stderr: "main.c:3: warning: unused variable 'x'\n"},
	}}
	comp := NewCompiler(runner, NewLayout(""))

	res, err := comp.Compile(context.Background(), CompileRequest{
		Language:   LangC,
		SourcePath: "/tmp/s/main.c",
		OutputPath: "/tmp/s/program",
		UserFlags:  []string{"-Wall", "-O2"},
	})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if res.ExecutablePath != "/tmp/s/program" {
		t.Errorf("ExecutablePath = %q", res.ExecutablePath)
	}
	if !strings.Contains(res.Diagnostics, "warning") {
		t.Errorf("Diagnostics = %q, want the warning text", res.Diagnostics)
	}

	if len(runner.calls) != 1 {
		t.Fatalf("calls = %d, want 1", len(runner.calls))
	}
	argv := runner.calls[0]
	// Instrumentation flags lead, user flags follow, -O2 is filtered.
	if argv[1] != "-g" || argv[2] != "-O0" {
		t.Errorf("argv does not lead with instrumentation flags: %v", argv)
	}
	for _, a := range argv {
		if a == "-O2" {
			t.Errorf("conflicting -O2 survived: %v", argv)
		}
	}
	found := false
	for _, a := range argv {
		if a == "-Wall" {
			found = true
		}
	}
	if !found {
		t.Errorf("benign user flag dropped: %v", argv)
	}
}

func TestCompileFailureCarriesDiagnostics(t *testing.T) {
	runner := &mockRunner{responses: map[string]mockResponse{
		"clang++": {stderr: "main.cpp:1:1: error: expected unqualified-id\n", exitCode: 1},
	}}
	comp := NewCompiler(runner, NewLayout(""))

	res, err := comp.Compile(context.Background(), CompileRequest{
		Language:   LangCPP,
		SourcePath: "/tmp/s/main.cpp",
		OutputPath: "/tmp/s/program",
	})
	if !errors.Is(err, ErrCompileFailed) {
		t.Fatalf("err = %v, want ErrCompileFailed", err)
	}
	if res == nil || !strings.Contains(res.Diagnostics, "expected unqualified-id") {
		t.Errorf("failed compile did not carry diagnostics: %+v", res)
	}
	if res.ExecutablePath != "" {
		t.Errorf("failed compile produced executable path %q", res.ExecutablePath)
	}
}

func TestCompileMissingDriver(t *testing.T) {
	runner := &mockRunner{responses: map[string]mockResponse{
		"clang": {err: errors.New(`exec clang: executable file not found in $PATH`), exitCode: -1},
	}}
	comp := NewCompiler(runner, NewLayout(""))

	_, err := comp.Compile(context.Background(), CompileRequest{
		Language:   LangC,
		SourcePath: "/tmp/s/main.c",
		OutputPath: "/tmp/s/program",
	})
	if !errors.Is(err, ErrToolchainMissing) {
		t.Fatalf("err = %v, want ErrToolchainMissing", err)
	}
}

func TestValidateProbesDrivers(t *testing.T) {
	runner := &mockRunner{responses: map[string]mockResponse{
		"clang":   {stdout: "clang version 17.0.0\n"},
		"clang++": {stdout: "clang version 17.0.0\n", exitCode: 1},
	}}
	layout := NewLayout(makeLayoutDir(t))
	err := Validate(context.Background(), runner, layout)
	if !errors.Is(err, ErrToolchainMissing) {
		t.Fatalf("Validate = %v, want ErrToolchainMissing", err)
	}
	if s := err.Error(); !strings.Contains(s, "version probe") {
		t.Errorf("Validate error = %q, want a version probe failure", s)
	}
}

func TestValidateMissingLayoutDirs(t *testing.T) {
	runner := &mockRunner{}
	layout := NewLayout(t.TempDir())
	err := Validate(context.Background(), runner, layout)
	if !errors.Is(err, ErrToolchainMissing) {
		t.Fatalf("Validate = %v, want ErrToolchainMissing", err)
	}
	if len(runner.calls) != 0 {
		t.Errorf("Validate probed binaries despite broken layout: %v", runner.calls)
	}
}

// makeLayoutDir builds a complete-looking toolchain directory.
func makeLayoutDir(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	for _, dir := range []string{"bin", "lib", "headers"} {
		if err := os.Mkdir(filepath.Join(root, dir), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
	}
	for _, bin := range []string{"clang", "clang++", "lldb", "llvm-symbolizer"} {
		if err := os.WriteFile(filepath.Join(root, "bin", bin), []byte("#!/bin/sh\n"), 0o755); err != nil {
			t.Fatalf("write binary: %v", err)
		}
	}
	return root
}
