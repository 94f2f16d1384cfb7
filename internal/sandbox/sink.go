package sandbox

import (
	"strings"
	"sync"
)

// outputBudget is one byte allowance shared by all sinks of a run, so a
// program cannot double its effective cap by splitting output across stdout
// and stderr. The first write that would overdraw the budget drops the
// excess and fires onExceed exactly once.
type outputBudget struct {
	mu        sync.Mutex
	remaining int64
	tripped   bool
	onExceed  func()
}

func newOutputBudget(limit int64, onExceed func()) *outputBudget {
	return &outputBudget{remaining: limit, onExceed: onExceed}
}

func (b *outputBudget) sink() *cappedSink {
	return &cappedSink{budget: b}
}

func (b *outputBudget) exceeded() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.tripped
}

// cappedSink collects one stream against the shared budget. Write never
// returns an error: reporting a short write would tear down the pipe copier
// mid-run, and the kill triggered by the budget handles termination.
type cappedSink struct {
	budget *outputBudget
	buf    strings.Builder
}

func (s *cappedSink) Write(p []byte) (int, error) {
	b := s.budget
	b.mu.Lock()
	take := min(int64(len(p)), b.remaining)
	b.remaining -= take
	if take > 0 {
		s.buf.Write(p[:take])
	}
	trip := take < int64(len(p)) && !b.tripped
	if trip {
		b.tripped = true
	}
	b.mu.Unlock()

	if trip && b.onExceed != nil {
		b.onExceed()
	}
	return len(p), nil
}

func (s *cappedSink) String() string {
	s.budget.mu.Lock()
	defer s.budget.mu.Unlock()
	return s.buf.String()
}
