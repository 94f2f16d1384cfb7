package platform

import (
	"os"
	"strconv"
	"time"
)

// DeterministicEnv is the environment toggle for reproducible timestamps.
// When set to a true value, step timestamps are derived from the emission
// counter instead of the wall clock, so two conversions of the same trace
// are byte-identical.
const DeterministicEnv = "CODESTEP_DETERMINISTIC_TS"

// Clock produces step timestamps. counter is the caller's emission counter,
// used only by deterministic implementations.
type Clock interface {
	Timestamp(counter int64) int64
}

// WallClock returns wall-clock microseconds.
type WallClock struct{}

func (WallClock) Timestamp(int64) int64 {
	return time.Now().UnixMicro()
}

// CounterClock maps the emission counter onto a synthetic microsecond
// timeline, one millisecond apart.
type CounterClock struct{}

func (CounterClock) Timestamp(counter int64) int64 {
	return counter * 1000
}

// NewClock selects the clock implementation: CounterClock when the
// deterministic toggle is set (by flag or environment), WallClock otherwise.
func NewClock(deterministic bool) Clock {
	if deterministic || DeterministicFromEnv() {
		return CounterClock{}
	}
	return WallClock{}
}

// DeterministicFromEnv reads the CODESTEP_DETERMINISTIC_TS toggle.
func DeterministicFromEnv() bool {
	v := os.Getenv(DeterministicEnv)
	if v == "" {
		return false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false
	}
	return b
}
