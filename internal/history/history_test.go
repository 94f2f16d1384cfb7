package history

import (
	"path/filepath"
	"testing"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	d, err := Open("sqlite", filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	if err := d.Migrate(); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return d
}

func TestMigrateIsIdempotent(t *testing.T) {
	d := openTestDB(t)
	if err := d.Migrate(); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
}

func TestRecordAndGetRun(t *testing.T) {
	d := openTestDB(t)

	code := 0
	run := &Run{
		ID:        "2f9d3a61-9f6e-4a38-a2fd-57f12c4c7b10",
		Language:  "c",
		Status:    "completed",
		ExitCode:  &code,
		Flags:     "-Wall",
		StepCount: 12,
		CompileMs: 340,
		ExecuteMs: 15,
		TotalMs:   360,
	}
	if err := d.RecordRun(run); err != nil {
		t.Fatalf("RecordRun: %v", err)
	}

	got, err := d.GetRun(run.ID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got == nil {
		t.Fatal("GetRun returned nil for recorded run")
	}
	if got.Language != "c" || got.StepCount != 12 || got.Status != "completed" {
		t.Errorf("GetRun = %+v", got)
	}
	if got.ExitCode == nil || *got.ExitCode != 0 {
		t.Errorf("ExitCode = %v, want 0", got.ExitCode)
	}
	if got.CreatedAt == "" {
		t.Error("CreatedAt not filled in")
	}
}

func TestGetRunByPrefix(t *testing.T) {
	d := openTestDB(t)
	if err := d.RecordRun(&Run{ID: "aaaa1111-0000-0000-0000-000000000000", Language: "c", Status: "completed"}); err != nil {
		t.Fatalf("RecordRun: %v", err)
	}
	if err := d.RecordRun(&Run{ID: "aabb2222-0000-0000-0000-000000000000", Language: "c", Status: "failed"}); err != nil {
		t.Fatalf("RecordRun: %v", err)
	}

	got, err := d.GetRun("aaaa")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got == nil || got.Status != "completed" {
		t.Errorf("GetRun by unique prefix = %+v", got)
	}

	// Ambiguous prefix matches nothing.
	got, err = d.GetRun("aa")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got != nil {
		t.Errorf("GetRun by ambiguous prefix = %+v, want nil", got)
	}
}

func TestListRunsNewestFirst(t *testing.T) {
	d := openTestDB(t)
	for i, r := range []*Run{
		{ID: "run-aaaa-1", Language: "c", Status: "completed", CreatedAt: "2026-08-01T10:00:00Z"},
		{ID: "run-bbbb-2", Language: "cpp", Status: "compile_error", CreatedAt: "2026-08-02T10:00:00Z"},
		{ID: "run-cccc-3", Language: "c", Status: "completed", CreatedAt: "2026-08-03T10:00:00Z"},
	} {
		if err := d.RecordRun(r); err != nil {
			t.Fatalf("RecordRun %d: %v", i, err)
		}
	}

	runs, err := d.ListRuns(2)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("len = %d, want limit 2", len(runs))
	}
	if runs[0].ID != "run-cccc-3" || runs[1].ID != "run-bbbb-2" {
		t.Errorf("order = %s, %s", runs[0].ID, runs[1].ID)
	}
}

func TestResetClearsRuns(t *testing.T) {
	d := openTestDB(t)
	if err := d.RecordRun(&Run{ID: "run-dddd-4", Language: "c", Status: "completed"}); err != nil {
		t.Fatalf("RecordRun: %v", err)
	}
	if err := d.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	runs, err := d.ListRuns(10)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("runs after reset = %v", runs)
	}
}

func TestRebindPostgres(t *testing.T) {
	d := &DB{postgres: true}
	got := d.rebind("INSERT INTO runs (a, b) VALUES (?, ?)")
	want := "INSERT INTO runs (a, b) VALUES ($1, $2)"
	if got != want {
		t.Errorf("rebind = %q, want %q", got, want)
	}

	sqlite := &DB{}
	if got := sqlite.rebind("SELECT ?"); got != "SELECT ?" {
		t.Errorf("sqlite rebind altered query: %q", got)
	}
}
