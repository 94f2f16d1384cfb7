package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	SetVersion("1.2.3")
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.Contains(out, "codestep version 1.2.3") {
		t.Errorf("output = %q", out)
	}
}

func TestInferLanguage(t *testing.T) {
	cases := []struct {
		path    string
		want    string
		wantErr bool
	}{
		{"main.c", "c", false},
		{"main.cpp", "cpp", false},
		{"Main.CC", "cpp", false},
		{"prog.cxx", "cpp", false},
		{"script.py", "", true},
		{"Makefile", "", true},
	}
	for _, tc := range cases {
		got, err := inferLanguage(tc.path)
		if tc.wantErr != (err != nil) || got != tc.want {
			t.Errorf("inferLanguage(%q) = %q, %v", tc.path, got, err)
		}
	}
}

func TestSplitFlags(t *testing.T) {
	got := splitFlags("  -Wall   -I/usr/include  ")
	if len(got) != 2 || got[0] != "-Wall" || got[1] != "-I/usr/include" {
		t.Errorf("splitFlags = %v", got)
	}
	if got := splitFlags(""); len(got) != 0 {
		t.Errorf("splitFlags(empty) = %v", got)
	}
}

func TestStepsCommandConvertsArtifact(t *testing.T) {
	artifact := `{"version":"1.0","functions":[],"events":[
  {"id":0,"type":"func_enter","func":"main","depth":1,"ts":10},
  {"id":1,"type":"loop_start","loopId":1,"loopType":"for","file":"main.c","line":3},
  {"id":2,"type":"loop_body_start","loopId":1,"iteration":1},
  {"id":3,"type":"assign","name":"x","value":1},
  {"id":4,"type":"loop_iteration_end","loopId":1},
  {"id":5,"type":"loop_end","loopId":1},
  {"id":6,"type":"func_exit","func":"main","depth":1,"ts":20}
],"tracked_functions":["main"],"total_events":7}`

	path := filepath.Join(t.TempDir(), "trace.json")
	if err := os.WriteFile(path, []byte(artifact), 0o644); err != nil {
		t.Fatalf("write artifact: %v", err)
	}

	out, err := execute(t, "steps", path, "--format", "json")
	if err != nil {
		t.Fatalf("steps: %v", err)
	}

	var res struct {
		Steps []struct {
			StepIndex int64  `json:"stepIndex"`
			EventType string `json:"eventType"`
		} `json:"steps"`
	}
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("output not JSON: %v\n%s", err, out)
	}

	var types []string
	for _, s := range res.Steps {
		types = append(types, s.EventType)
	}
	want := []string{"func_enter", "loop_start", "loop_body_start", "loop_body_summary", "loop_end", "func_exit"}
	if len(types) != len(want) {
		t.Fatalf("step types = %v, want %v", types, want)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Errorf("step %d = %q, want %q", i, types[i], want[i])
		}
	}
}

func TestConfigShowCommand(t *testing.T) {
	out, err := execute(t, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if !strings.Contains(out, "\"Limits\"") && !strings.Contains(out, "TimeMs") {
		t.Errorf("config show output = %q", out)
	}
}
