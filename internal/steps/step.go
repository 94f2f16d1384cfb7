package steps

import (
	"encoding/json"
	"fmt"
)

// LoopBodySummaryType is the eventType of the synthesized Step that carries
// a loop's buffered body events. Every other Step's eventType is the kind of
// the trace record it was emitted for.
const LoopBodySummaryType = "loop_body_summary"

// Step is one entry of the externally visible execution narrative. StepIndex
// increases by exactly 1 per emission and Timestamp is strictly increasing
// across the whole sequence. Loop control Steps promote loopId (plus
// loopType on loop_start and iteration on loop_body_start); summary Steps
// carry the buffered events; every Step emitted for a trace record keeps
// that record under Event.
type Step struct {
	StepIndex int64  `json:"stepIndex"`
	EventType string `json:"eventType"`
	Timestamp int64  `json:"timestamp"`

	LoopID    int64  `json:"loopId,omitempty"`
	LoopType  string `json:"loopType,omitempty"`
	Iteration *int64 `json:"iteration,omitempty"`

	Events []InternalEvent `json:"events,omitempty"`
	Event  json.RawMessage `json:"event,omitempty"`
}

// InternalEvent is a trace record captured inside a loop body buffer. It is
// indexed within its buffer only; it must never carry a global stepIndex,
// that is the boundary between loop-internal bookkeeping and the step
// sequence.
type InternalEvent struct {
	InternalStepIndex int64           `json:"internalStepIndex"`
	Iteration         int64           `json:"iteration"`
	Event             json.RawMessage `json:"event"`
}

// Warning records one structural defect the engine absorbed instead of
// failing the conversion.
type Warning struct {
	EventID int64  `json:"eventId,omitempty"`
	LoopID  int64  `json:"loopId,omitempty"`
	Message string `json:"message"`
}

func (w Warning) String() string {
	if w.LoopID != 0 {
		return fmt.Sprintf("loop %d: %s (event %d)", w.LoopID, w.Message, w.EventID)
	}
	return fmt.Sprintf("%s (event %d)", w.Message, w.EventID)
}

// Result is the converted sequence plus everything the engine had to
// tolerate along the way.
type Result struct {
	Steps    []Step    `json:"steps"`
	Warnings []Warning `json:"warnings,omitempty"`
}
