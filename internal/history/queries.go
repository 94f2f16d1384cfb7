package history

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Run represents a row in the runs table.
type Run struct {
	ID           string
	Language     string
	Status       string // "completed", "compile_error", "failed"
	ExitCode     *int
	Signal       string
	TimedOut     bool
	Truncated    bool
	Flags        string
	StepCount    int
	WarningCount int
	CompileMs    int
	ExecuteMs    int
	TotalMs      int
	CreatedAt    string
}

func nowUTC() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// RecordRun inserts one finished run.
func (d *DB) RecordRun(r *Run) error {
	if r.CreatedAt == "" {
		r.CreatedAt = nowUTC()
	}
	_, err := d.conn.Exec(d.rebind(
		`INSERT INTO runs (id, language, status, exit_code, signal, timed_out, truncated, flags,
		                   step_count, warning_count, compile_ms, execute_ms, total_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		r.ID, r.Language, r.Status, r.ExitCode, r.Signal, r.TimedOut, r.Truncated, r.Flags,
		r.StepCount, r.WarningCount, r.CompileMs, r.ExecuteMs, r.TotalMs, r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}

const runColumns = `id, language, status, exit_code, signal, timed_out, truncated, flags,
	step_count, warning_count, compile_ms, execute_ms, total_ms, created_at`

func scanRun(row interface{ Scan(...any) error }) (*Run, error) {
	var r Run
	var exitCode sql.NullInt64
	var signal, flags sql.NullString
	err := row.Scan(&r.ID, &r.Language, &r.Status, &exitCode, &signal, &r.TimedOut, &r.Truncated,
		&flags, &r.StepCount, &r.WarningCount, &r.CompileMs, &r.ExecuteMs, &r.TotalMs, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	if exitCode.Valid {
		v := int(exitCode.Int64)
		r.ExitCode = &v
	}
	r.Signal = signal.String
	r.Flags = flags.String
	return &r, nil
}

// GetRun returns one run by ID, or nil when absent. A unique ID prefix is
// accepted, so users can paste the short form the CLI prints.
func (d *DB) GetRun(id string) (*Run, error) {
	row := d.conn.QueryRow(d.rebind(
		`SELECT `+runColumns+` FROM runs WHERE id = ?`), id)
	r, err := scanRun(row)
	if err == sql.ErrNoRows {
		return d.getRunByPrefix(id)
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return r, nil
}

func (d *DB) getRunByPrefix(prefix string) (*Run, error) {
	if len(prefix) < 4 || strings.ContainsAny(prefix, "%_") {
		return nil, nil
	}
	rows, err := d.conn.Query(d.rebind(
		`SELECT `+runColumns+` FROM runs WHERE id LIKE ? LIMIT 2`), prefix+"%")
	if err != nil {
		return nil, fmt.Errorf("get run by prefix: %w", err)
	}
	defer rows.Close()

	var matches []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		matches = append(matches, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get run by prefix: %w", err)
	}
	if len(matches) != 1 {
		return nil, nil // absent or ambiguous
	}
	return matches[0], nil
}

// ListRuns returns the most recent runs, newest first.
func (d *DB) ListRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := d.conn.Query(d.rebind(
		`SELECT `+runColumns+` FROM runs ORDER BY created_at DESC, id LIMIT ?`), limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}
