package trace

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

var (
	// ErrUnreadableTrace means the artifact is missing or could not be read
	// at all. Damage inside a readable artifact is reported through Result
	// warnings instead.
	ErrUnreadableTrace = goerr.New("trace artifact unreadable")

	// ErrMalformedTrace means the input is readable but is not a trace
	// artifact in any recoverable form.
	ErrMalformedTrace = goerr.New("trace artifact malformed")
)

// Warning records one recoverable defect found while decoding an artifact.
type Warning struct {
	Line    int    `json:"line,omitempty"`
	Message string `json:"message"`
}

func (w Warning) String() string {
	if w.Line > 0 {
		return fmt.Sprintf("line %d: %s", w.Line, w.Message)
	}
	return w.Message
}

// Result is the decoded artifact. Truncated means the footer never appeared,
// which is what a killed or timed-out process leaves behind. Skipped counts
// records dropped with a warning; TotalEvents is the footer's own record
// count, -1 when the footer is missing.
type Result struct {
	Version          string
	Events           []Event
	TrackedFunctions []string
	TotalEvents      int
	Skipped          int
	Truncated        bool
	Warnings         []Warning
}

func (r *Result) warnf(line int, format string, args ...any) {
	r.Warnings = append(r.Warnings, Warning{Line: line, Message: fmt.Sprintf(format, args...)})
}

// ParseFile reads and decodes the artifact at path.
func ParseFile(path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, goerr.Wrap(ErrUnreadableTrace, "open trace artifact", goerr.V("path", path), goerr.V("cause", err.Error()))
	}
	defer f.Close()
	res, err := Parse(f)
	if err != nil {
		return nil, goerr.Wrap(err, "parse trace artifact", goerr.V("path", path))
	}
	return res, nil
}

// Parse decodes a trace artifact. A complete artifact is one valid JSON
// document and is decoded strictly; anything else is salvaged line by line,
// keeping every record that decodes and recording a warning for each one
// that does not. Per-record damage never fails the parse.
func Parse(r io.Reader) (*Result, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, goerr.Wrap(ErrUnreadableTrace, "read trace artifact", goerr.V("cause", err.Error()))
	}
	if res, ok := parseComplete(data); ok {
		return res, nil
	}
	return parseSalvage(data)
}

// document mirrors the complete artifact.
type document struct {
	Version          string            `json:"version"`
	Events           []json.RawMessage `json:"events"`
	TrackedFunctions []string          `json:"tracked_functions"`
	TotalEvents      *int              `json:"total_events"`
}

func parseComplete(data []byte) (*Result, bool) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, false
	}
	if doc.Version == "" && doc.Events == nil && doc.TotalEvents == nil {
		// Valid JSON but not a trace document. Let the salvage path produce
		// the explanatory error.
		return nil, false
	}

	res := &Result{
		Version:          doc.Version,
		TrackedFunctions: doc.TrackedFunctions,
		TotalEvents:      -1,
	}
	if doc.TotalEvents != nil {
		res.TotalEvents = *doc.TotalEvents
	}
	for i, raw := range doc.Events {
		e, err := decodeEvent(raw)
		if err != nil {
			res.Skipped++
			res.warnf(0, "record %d undecodable: %v", i, err)
			continue
		}
		if !e.Kind.Known() {
			res.Skipped++
			res.warnf(0, "record %d has unrecognized event type %q", i, string(e.Kind))
			continue
		}
		res.Events = append(res.Events, e)
	}
	reconcileTotal(res)
	return res, true
}

// parseSalvage recovers what it can from a damaged or truncated artifact:
// header line, then one record per line, then (when the process lived long
// enough) the footer line. The last line may stop mid-record.
func parseSalvage(data []byte) (*Result, error) {
	res := &Result{TotalEvents: -1}
	br := bufio.NewReader(bytes.NewReader(data))

	sawHeader := false
	sawFooter := false
	sawAny := false
	lineNo := 0
	for {
		line, readErr := br.ReadString('\n')
		if line != "" {
			lineNo++
			s := strings.TrimSpace(line)
			switch {
			case s == "":
				// blank separator, nothing to do

			case strings.HasPrefix(s, `{"version"`):
				sawAny = true
				sawHeader = true
				res.Version = headerVersion(s)

			case strings.HasPrefix(s, "]"):
				sawAny = true
				if decodeFooter(s, res) {
					sawFooter = true
				} else {
					res.warnf(lineNo, "unparseable artifact footer")
				}

			case strings.HasPrefix(s, "{"):
				sawAny = true
				rec := strings.TrimSuffix(s, ",")
				e, err := decodeEvent([]byte(rec))
				if err != nil {
					res.Skipped++
					res.warnf(lineNo, "undecodable record: %v", err)
					continue
				}
				if !e.Kind.Known() {
					res.Skipped++
					res.warnf(lineNo, "unrecognized event type %q", string(e.Kind))
					continue
				}
				res.Events = append(res.Events, e)

			default:
				sawAny = true
				res.Skipped++
				res.warnf(lineNo, "unexpected content in events section")
			}
		}
		if readErr != nil {
			break
		}
	}

	if !sawAny {
		return nil, goerr.Wrap(ErrMalformedTrace, "artifact contains no trace document")
	}
	if !sawHeader && len(res.Events) == 0 {
		return nil, goerr.Wrap(ErrMalformedTrace, "input is neither a trace document nor a record stream")
	}
	if !sawFooter {
		res.Truncated = true
		res.warnf(0, "artifact footer missing; trace is truncated")
	}
	reconcileTotal(res)
	return res, nil
}

// headerVersion pulls the version string out of the (not independently
// valid) header line.
func headerVersion(s string) string {
	_, rest, ok := strings.Cut(s, `"version":"`)
	if !ok {
		return ""
	}
	v, _, ok := strings.Cut(rest, `"`)
	if !ok {
		return ""
	}
	return v
}

// decodeFooter parses the closing line, which re-becomes a JSON object once
// the leading array terminator is replaced by a brace.
func decodeFooter(s string, res *Result) bool {
	rest := strings.TrimPrefix(s, "],")
	if rest == s {
		return false
	}
	var foot struct {
		TrackedFunctions []string `json:"tracked_functions"`
		TotalEvents      *int     `json:"total_events"`
	}
	if err := json.Unmarshal([]byte("{"+rest), &foot); err != nil {
		return false
	}
	res.TrackedFunctions = foot.TrackedFunctions
	if foot.TotalEvents != nil {
		res.TotalEvents = *foot.TotalEvents
	}
	return true
}

// reconcileTotal cross-checks the footer's record count against what was
// actually decoded plus what was skipped.
func reconcileTotal(res *Result) {
	if res.TotalEvents < 0 {
		return
	}
	got := len(res.Events) + res.Skipped
	if got != res.TotalEvents {
		res.warnf(0, "footer claims %d events, found %d", res.TotalEvents, got)
	}
}
