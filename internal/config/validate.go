package config

import "fmt"

// ValidationError represents a single validation issue with a config.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// recognizedDrivers is the set of valid history store drivers.
var recognizedDrivers = map[string]bool{
	"sqlite":   true,
	"postgres": true,
}

// recognizedLevels is the set of valid log levels.
var recognizedLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks a Config for structural and semantic errors.
// It returns a slice of all validation errors found (empty if valid).
func Validate(cfg *Config) []ValidationError {
	var errs []ValidationError

	for _, f := range []struct {
		field string
		value int64
	}{
		{"limits.time_ms", int64(cfg.Limits.TimeMs)},
		{"limits.max_output_bytes", cfg.Limits.MaxOutputBytes},
		{"limits.memory_bytes", cfg.Limits.MemoryBytes},
		{"limits.cpu_seconds", cfg.Limits.CPUSeconds},
		{"limits.compile_time_ms", int64(cfg.Limits.CompileTimeMs)},
	} {
		if f.value < 0 {
			errs = append(errs, ValidationError{Field: f.field, Message: "must not be negative"})
		}
	}

	if !recognizedDrivers[cfg.History.Driver] {
		errs = append(errs, ValidationError{
			Field:   "history.driver",
			Message: fmt.Sprintf("unrecognized driver %q", cfg.History.Driver),
		})
	}
	if cfg.History.Driver == "postgres" && cfg.History.DSN == "" {
		errs = append(errs, ValidationError{
			Field:   "history.dsn",
			Message: "is required for the postgres driver",
		})
	}

	if !recognizedLevels[cfg.Log.Level] {
		errs = append(errs, ValidationError{
			Field:   "log.level",
			Message: fmt.Sprintf("unrecognized level %q", cfg.Log.Level),
		})
	}

	return errs
}
