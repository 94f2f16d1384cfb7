// Package steps converts the flat trace event sequence into the ordered,
// summarized step sequence the rendering layer animates. Events inside a
// loop body are buffered per loop invocation and flushed as one
// loop_body_summary Step right before the loop's own end Step, so a
// thousand-iteration loop becomes a handful of steps instead of a thousand.
package steps

import (
	"log/slog"

	"github.com/codestep/codestep/internal/platform"
	"github.com/codestep/codestep/internal/trace"
)

// Engine converts trace events to Steps. It holds no per-conversion state;
// concurrent Convert calls are independent.
type Engine struct {
	clock platform.Clock
	log   *slog.Logger
}

// NewEngine creates an engine emitting timestamps from clock.
func NewEngine(clock platform.Clock) *Engine {
	return &Engine{clock: clock, log: slog.Default()}
}

// SetLogger overrides the logger (for testing or per-run debug logs).
func (e *Engine) SetLogger(l *slog.Logger) {
	e.log = l
}

// Convert runs the full event sequence through the loop engine. Structural
// defects (mismatched loop brackets, unterminated loops in a truncated
// trace) degrade to pass-through with a recorded warning; Convert never
// fails.
func (e *Engine) Convert(events []trace.Event) *Result {
	c := &conversion{clock: e.clock, log: e.log, lastTS: -1}
	for i := range events {
		c.route(&events[i])
	}
	c.flushRemaining()
	return &Result{Steps: c.steps, Warnings: c.warnings}
}

// loopContext is the per-loop-invocation bookkeeping held while that loop is
// active. Contexts live in a stack slice; a context's parent is simply the
// entry below it, never an owning reference.
type loopContext struct {
	loopID       int64
	loopType     string
	iteration    int64
	buffer       []InternalEvent
	nextInternal int64
}

// bufferEvent appends one record to the body buffer, tagged with the
// buffer-local index and the iteration it happened in.
func (lc *loopContext) bufferEvent(ev *trace.Event) {
	lc.buffer = append(lc.buffer, InternalEvent{
		InternalStepIndex: lc.nextInternal,
		Iteration:         lc.iteration,
		Event:             ev.Raw,
	})
	lc.nextInternal++
}

// conversion is the state of one Convert call.
type conversion struct {
	clock    platform.Clock
	log      *slog.Logger
	stack    []loopContext
	steps    []Step
	counter  int64
	lastTS   int64
	warnings []Warning
}

func (c *conversion) top() *loopContext {
	if len(c.stack) == 0 {
		return nil
	}
	return &c.stack[len(c.stack)-1]
}

func (c *conversion) pop() {
	c.stack = c.stack[:len(c.stack)-1]
}

// route applies the loop engine rules to one event.
func (c *conversion) route(ev *trace.Event) {
	switch ev.Kind {
	case trace.KindFuncEnter, trace.KindFuncExit, trace.KindArrayCreate:
		// Function boundaries and array creation stay visible as their own
		// steps even while a loop is buffering.
		c.emitEvent(ev)

	case trace.KindLoopStart:
		c.stack = append(c.stack, loopContext{loopID: ev.LoopID, loopType: ev.LoopType})
		s := c.eventStep(ev)
		s.LoopID = ev.LoopID
		s.LoopType = ev.LoopType
		c.emit(s)

	case trace.KindLoopBodyStart:
		top := c.top()
		if top == nil || top.loopID != ev.LoopID {
			c.malformed(ev, "loop_body_start for a loop that is not on top of the stack")
			c.emitEvent(ev)
			return
		}
		top.iteration++
		it := top.iteration
		s := c.eventStep(ev)
		s.LoopID = ev.LoopID
		s.Iteration = &it
		c.emit(s)

	case trace.KindLoopIterationEnd, trace.KindLoopCondition:
		top := c.top()
		if top == nil || top.loopID != ev.LoopID {
			c.malformed(ev, string(ev.Kind)+" for a loop that is not on top of the stack")
			c.emitEvent(ev)
			return
		}
		// Iteration delimiters stay inside the summary next to the body
		// events they delimit.
		top.bufferEvent(ev)

	case trace.KindLoopEnd:
		top := c.top()
		if top == nil || top.loopID != ev.LoopID {
			c.malformed(ev, "loop_end for a loop that is not on top of the stack")
			c.emitEvent(ev)
			return
		}
		c.summarize(top)
		s := c.eventStep(ev)
		s.LoopID = ev.LoopID
		c.emit(s)
		c.pop()

	default:
		if top := c.top(); top != nil {
			top.bufferEvent(ev)
			return
		}
		c.emitEvent(ev)
	}
}

// summarize flushes a context's buffer as a loop_body_summary Step. A loop
// whose body never recorded anything produces no summary.
func (c *conversion) summarize(lc *loopContext) {
	if len(lc.buffer) == 0 {
		return
	}
	it := lc.iteration
	c.emit(Step{
		EventType: LoopBodySummaryType,
		LoopID:    lc.loopID,
		Iteration: &it,
		Events:    lc.buffer,
	})
	lc.buffer = nil
}

// flushRemaining handles end of input with loops still open, which is what a
// killed process leaves behind. Innermost contexts flush first so summary
// order matches what loop_end would have produced; no loop_end Steps are
// fabricated.
func (c *conversion) flushRemaining() {
	for c.top() != nil {
		top := c.top()
		c.warnings = append(c.warnings, Warning{LoopID: top.loopID, Message: "loop unterminated at end of trace"})
		c.log.Debug("flushing unterminated loop", "loop_id", top.loopID, "buffered", len(top.buffer))
		c.summarize(top)
		c.pop()
	}
}

// emit assigns the next stepIndex and a strictly increasing timestamp, then
// appends the step.
func (c *conversion) emit(s Step) {
	s.StepIndex = c.counter
	ts := c.clock.Timestamp(c.counter)
	if ts <= c.lastTS {
		ts = c.lastTS + 1
	}
	s.Timestamp = ts
	c.lastTS = ts
	c.counter++
	c.steps = append(c.steps, s)
}

func (c *conversion) emitEvent(ev *trace.Event) {
	c.emit(c.eventStep(ev))
}

func (c *conversion) eventStep(ev *trace.Event) Step {
	return Step{EventType: string(ev.Kind), Event: ev.Raw}
}

func (c *conversion) malformed(ev *trace.Event, msg string) {
	c.warnings = append(c.warnings, Warning{EventID: ev.ID, LoopID: ev.LoopID, Message: msg})
	c.log.Debug("malformed loop structure", "event_id", ev.ID, "loop_id", ev.LoopID, "detail", msg)
}
