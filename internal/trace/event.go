// Package trace decodes the JSON artifact written by the instrumentation
// runtime into typed events. The artifact is framed as one record per line so
// a killed process still leaves a prefix this package can salvage.
package trace

import (
	"bytes"
	"encoding/json"
)

// Kind discriminates trace records. The values are the exact strings the
// instrumentation runtime writes into each record's leading type key.
type Kind string

const (
	KindFuncEnter         Kind = "func_enter"
	KindFuncExit          Kind = "func_exit"
	KindLoopStart         Kind = "loop_start"
	KindLoopBodyStart     Kind = "loop_body_start"
	KindLoopIterationEnd  Kind = "loop_iteration_end"
	KindLoopCondition     Kind = "loop_condition"
	KindLoopEnd           Kind = "loop_end"
	KindAssign            Kind = "assign"
	KindDeclare           Kind = "declare"
	KindVar               Kind = "var"
	KindArrayCreate       Kind = "array_create"
	KindArrayIndexAssign  Kind = "array_index_assign"
	KindPointerAlias      Kind = "pointer_alias"
	KindPointerDerefWrite Kind = "pointer_deref_write"
	KindHeapAlloc         Kind = "heap_alloc"
	KindHeapFree          Kind = "heap_free"
	KindHeapWrite         Kind = "heap_write"
	KindConditionEval     Kind = "condition_eval"
	KindBranchTaken       Kind = "branch_taken"
	KindControlFlow       Kind = "control_flow"
	KindReturn            Kind = "return"
	KindBlockEnter        Kind = "block_enter"
	KindBlockExit         Kind = "block_exit"
	KindOutputFlush       Kind = "output_flush"
)

var knownKinds = map[Kind]bool{
	KindFuncEnter:         true,
	KindFuncExit:          true,
	KindLoopStart:         true,
	KindLoopBodyStart:     true,
	KindLoopIterationEnd:  true,
	KindLoopCondition:     true,
	KindLoopEnd:           true,
	KindAssign:            true,
	KindDeclare:           true,
	KindVar:               true,
	KindArrayCreate:       true,
	KindArrayIndexAssign:  true,
	KindPointerAlias:      true,
	KindPointerDerefWrite: true,
	KindHeapAlloc:         true,
	KindHeapFree:          true,
	KindHeapWrite:         true,
	KindConditionEval:     true,
	KindBranchTaken:       true,
	KindControlFlow:       true,
	KindReturn:            true,
	KindBlockEnter:        true,
	KindBlockExit:         true,
	KindOutputFlush:       true,
}

// Known reports whether k is a record kind this package understands.
func (k Kind) Known() bool {
	return knownKinds[k]
}

// LoopControl reports whether k is one of the five loop bracketing kinds the
// step engine routes through its context stack.
func (k Kind) LoopControl() bool {
	switch k {
	case KindLoopStart, KindLoopBodyStart, KindLoopIterationEnd, KindLoopCondition, KindLoopEnd:
		return true
	}
	return false
}

// Event is one decoded trace record. Fields not present in a given kind stay
// at their zero value; pointer fields distinguish absent from false/zero
// where that matters.
//
// The runtime writes every record with a leading type key, and var records
// with a second type key carrying the value's C type ("int", "double", ...).
// Go's decoder keeps the last occurrence, so ValueType holds the value type
// for var records and simply repeats the kind everywhere else. Kind is
// recovered from the first occurrence during decode and is always the record
// discriminant.
type Event struct {
	ID    int64  `json:"id"`
	Kind  Kind   `json:"-"`
	Addr  string `json:"addr,omitempty"`
	Func  string `json:"func,omitempty"`
	Depth int    `json:"depth,omitempty"`
	TS    int64  `json:"ts,omitempty"`

	File string `json:"file,omitempty"`
	Line int    `json:"line,omitempty"`

	LoopID    int64  `json:"loopId,omitempty"`
	LoopType  string `json:"loopType,omitempty"`
	Iteration int64  `json:"iteration,omitempty"`
	Result    *int   `json:"result,omitempty"`

	Name      string          `json:"name,omitempty"`
	Value     json.RawMessage `json:"value,omitempty"`
	ValueType string          `json:"type,omitempty"`
	VarType   string          `json:"varType,omitempty"`
	Address   string          `json:"address,omitempty"`

	BaseType   string `json:"baseType,omitempty"`
	Dimensions []int  `json:"dimensions,omitempty"`
	IsStack    *bool  `json:"isStack,omitempty"`
	Indices    []int  `json:"indices,omitempty"`
	Char       string `json:"char,omitempty"`

	ConditionID int64  `json:"conditionId,omitempty"`
	Expression  string `json:"expression,omitempty"`
	BranchType  string `json:"branchType,omitempty"`
	ControlType string `json:"controlType,omitempty"`
	BlockDepth  int    `json:"blockDepth,omitempty"`

	ReturnType        string `json:"returnType,omitempty"`
	DestinationSymbol string `json:"destinationSymbol,omitempty"`

	Size   int64 `json:"size,omitempty"`
	IsHeap *bool `json:"isHeap,omitempty"`

	PointerName      string `json:"pointerName,omitempty"`
	TargetName       string `json:"targetName,omitempty"`
	AliasOf          string `json:"aliasOf,omitempty"`
	AliasedAddress   string `json:"aliasedAddress,omitempty"`
	DecayedFromArray *bool  `json:"decayedFromArray,omitempty"`

	Caller string `json:"caller,omitempty"`

	// Raw is the record exactly as it appeared in the artifact, used when a
	// record is re-emitted downstream so no field is lost in translation.
	Raw json.RawMessage `json:"-"`
}

// decodeEvent unmarshals one record and recovers its kind from the first
// type key. The fast path trusts ValueType; only records where a later type
// key overwrote it (var records, or records with no recognizable kind) pay
// for the token scan.
func decodeEvent(raw []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(raw, &e); err != nil {
		return Event{}, err
	}
	if k := Kind(e.ValueType); knownKinds[k] {
		e.Kind = k
	} else {
		e.Kind = scanKind(raw)
	}
	e.Raw = append(json.RawMessage(nil), raw...)
	return e, nil
}

// scanKind walks the record's top-level keys and returns the value of the
// first "type" key, which is the discriminant regardless of later
// duplicates.
func scanKind(raw []byte) Kind {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return ""
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return ""
	}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return ""
		}
		key, _ := keyTok.(string)
		if key == "type" {
			valTok, err := dec.Token()
			if err != nil {
				return ""
			}
			s, _ := valTok.(string)
			return Kind(s)
		}
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return ""
		}
	}
	return ""
}
