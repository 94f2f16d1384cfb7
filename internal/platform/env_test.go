package platform

import (
	"strings"
	"testing"
)

func envValue(env []string, key string) (string, bool) {
	for _, kv := range env {
		if k, v, ok := strings.Cut(kv, "="); ok && k == key {
			return v, true
		}
	}
	return "", false
}

func TestBuildEnv_PinsLocaleAndTimezone(t *testing.T) {
	env := BuildEnv(FamilyLinux, []string{"HOME=/home/u", "LANG=de_DE.UTF-8", "TZ=Europe/Berlin"}, nil)

	for key, want := range map[string]string{"LC_ALL": "C", "LANG": "C", "TZ": "UTC"} {
		got, ok := envValue(env, key)
		if !ok {
			t.Errorf("missing %s in built env", key)
			continue
		}
		if got != want {
			t.Errorf("%s = %q, want %q", key, got, want)
		}
	}
}

func TestBuildEnv_KeepsUnrelatedVars(t *testing.T) {
	env := BuildEnv(FamilyLinux, []string{"HOME=/home/u", "PATH=/usr/bin"}, nil)

	if v, ok := envValue(env, "HOME"); !ok || v != "/home/u" {
		t.Errorf("HOME = %q (present=%v), want /home/u", v, ok)
	}
	if v, ok := envValue(env, "PATH"); !ok || v != "/usr/bin" {
		t.Errorf("PATH = %q (present=%v), want /usr/bin", v, ok)
	}
}

func TestBuildEnv_NoDuplicatePins(t *testing.T) {
	env := BuildEnv(FamilyLinux, []string{"LC_ALL=en_US.UTF-8", "LANG=en_US.UTF-8"}, nil)

	counts := map[string]int{}
	for _, kv := range env {
		if k, _, ok := strings.Cut(kv, "="); ok {
			counts[k]++
		}
	}
	for _, key := range []string{"LC_ALL", "LANG", "TZ"} {
		if counts[key] != 1 {
			t.Errorf("%s appears %d times, want exactly once", key, counts[key])
		}
	}
}

func TestBuildEnv_InjectsLibraryPathLinux(t *testing.T) {
	env := BuildEnv(FamilyLinux, []string{"HOME=/home/u"}, []string{"/opt/trace/lib"})

	got, ok := envValue(env, "LD_LIBRARY_PATH")
	if !ok {
		t.Fatal("LD_LIBRARY_PATH not set")
	}
	if got != "/opt/trace/lib" {
		t.Errorf("LD_LIBRARY_PATH = %q, want /opt/trace/lib", got)
	}
}

func TestBuildEnv_PreservesExistingLibraryPath(t *testing.T) {
	env := BuildEnv(FamilyLinux, []string{"LD_LIBRARY_PATH=/usr/local/lib"}, []string{"/opt/trace/lib"})

	got, ok := envValue(env, "LD_LIBRARY_PATH")
	if !ok {
		t.Fatal("LD_LIBRARY_PATH not set")
	}
	if got != "/opt/trace/lib:/usr/local/lib" {
		t.Errorf("LD_LIBRARY_PATH = %q, want injected path first", got)
	}
}

func TestBuildEnv_DarwinUsesDyldVar(t *testing.T) {
	env := BuildEnv(FamilyDarwin, nil, []string{"/opt/trace/lib"})

	if _, ok := envValue(env, "LD_LIBRARY_PATH"); ok {
		t.Error("LD_LIBRARY_PATH set on darwin")
	}
	got, ok := envValue(env, "DYLD_LIBRARY_PATH")
	if !ok {
		t.Fatal("DYLD_LIBRARY_PATH not set on darwin")
	}
	if got != "/opt/trace/lib" {
		t.Errorf("DYLD_LIBRARY_PATH = %q", got)
	}
}

func TestBuildEnv_WindowsJoinsWithSemicolon(t *testing.T) {
	env := BuildEnv(FamilyWindows, []string{`PATH=C:\Windows`}, []string{`C:\trace\bin`, `C:\trace\lib`})

	got, ok := envValue(env, "PATH")
	if !ok {
		t.Fatal("PATH not set on windows")
	}
	want := `C:\trace\bin;C:\trace\lib;C:\Windows`
	if got != want {
		t.Errorf("PATH = %q, want %q", got, want)
	}
}

func TestBuildEnv_SkipsMalformedEntries(t *testing.T) {
	env := BuildEnv(FamilyLinux, []string{"NOEQUALS", "GOOD=1"}, nil)

	for _, kv := range env {
		if kv == "NOEQUALS" {
			t.Error("malformed entry passed through")
		}
	}
	if v, ok := envValue(env, "GOOD"); !ok || v != "1" {
		t.Errorf("GOOD = %q (present=%v), want 1", v, ok)
	}
}
