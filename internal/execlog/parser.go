// Package execlog parses an attempt's submission and test log.
package execlog

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/verte-zerg/cbminer/internal/logline"
	"github.com/verte-zerg/cbminer/internal/model"
)

// AcceptGrade is the grade a submission must exceed to be accepted.
const AcceptGrade = 99.99

var errorNamePattern = regexp.MustCompile(`^([\w_.]+Error)`)

// State is a parser state.
type State int

const (
	Idle State = iota
	InSubmissionBlock
	InCode
	AwaitExecValue
	AwaitGradeValue
	SkipErrorHeader
	InErrorScan
	InTestBlock
	Accepted
	EndOfFile
)

var stateNames = [...]string{
	Idle:              "idle",
	InSubmissionBlock: "submission",
	InCode:            "code",
	AwaitExecValue:    "exec-value",
	AwaitGradeValue:   "grade-value",
	SkipErrorHeader:   "error-header",
	InErrorScan:       "error-scan",
	InTestBlock:       "test",
	Accepted:          "accepted",
	EndOfFile:         "eof",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Terminal reports whether parsing stops in this state.
func (s State) Terminal() bool {
	return s == Accepted || s == EndOfFile
}

// Result is the outcome of parsing one execution log.
type Result struct {
	Record model.ExecutionRecord
	// ErrorNames holds every matched error type name, with repetitions.
	ErrorNames []string
	// FieldErrors lists numeric fields that degraded to null.
	FieldErrors []*NumericFieldParseError
	Final       State
}

type transition func(m *machine, index int, line string) State

// transitions maps every non-terminal state to its line handler.
var transitions = map[State]transition{
	Idle:              (*machine).idle,
	InSubmissionBlock: (*machine).submission,
	InCode:            (*machine).code,
	AwaitExecValue:    (*machine).execValue,
	AwaitGradeValue:   (*machine).gradeValue,
	SkipErrorHeader:   (*machine).errorHeader,
	InErrorScan:       (*machine).errorScan,
	InTestBlock:       (*machine).test,
}

type machine struct {
	attempt string
	lines   []string
	result  Result

	blockGrade float64
	// errorOwner is the block kind an error scan belongs to.
	errorOwner State
	hasCode    bool
	codeStart  int
	codeEnd    int
}

// Parse runs the execution log state machine over lines (without trailing
// newlines). On a truncated block it returns the partial result together with
// a *MalformedLogError.
func Parse(attempt string, lines []string) (Result, error) {
	zero := 0.0
	m := &machine{
		attempt: attempt,
		lines:   lines,
	}
	m.result.Record.FinalGrade = &zero

	state := Idle
	for i := 0; i < len(lines) && !state.Terminal(); i++ {
		state = transitions[state](m, i, lines[i])
	}
	if state == Idle {
		state = EndOfFile
	}
	m.result.Final = state
	if !state.Terminal() {
		return m.result, &MalformedLogError{Attempt: attempt, Line: len(lines), State: state}
	}
	return m.result, nil
}

func (m *machine) idle(_ int, line string) State {
	marker, _ := logline.Split(line)
	switch marker {
	case logline.Submission:
		rec := &m.result.Record
		rec.SubmissionCount++
		rec.ExecutionTimeSeconds = nil
		rec.Accepted = false
		m.blockGrade = 0
		m.hasCode = false
		return InSubmissionBlock
	case logline.Test:
		m.result.Record.TestCount++
		return InTestBlock
	default:
		return Idle
	}
}

func (m *machine) submission(index int, line string) State {
	marker, _ := logline.Split(line)
	switch marker {
	case logline.BlockEnd:
		return m.endSubmission()
	case logline.Code:
		m.hasCode = true
		m.codeStart = index + 1
		m.codeEnd = index + 1
		return InCode
	case logline.Exec:
		return AwaitExecValue
	case logline.Grade:
		return AwaitGradeValue
	case logline.Error:
		m.result.Record.ErrorCount++
		m.errorOwner = InSubmissionBlock
		return SkipErrorHeader
	default:
		return InSubmissionBlock
	}
}

// code collects snippet lines until the next field line, which is then
// handled as a regular submission line.
func (m *machine) code(index int, line string) State {
	if !strings.HasPrefix(line, logline.PrefixField) {
		return InCode
	}
	m.codeEnd = index
	return m.submission(index, line)
}

func (m *machine) execValue(index int, line string) State {
	value := strings.TrimSpace(line)
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		m.result.Record.ExecutionTimeSeconds = nil
		m.fieldError("exec", index, value, err)
		return InSubmissionBlock
	}
	m.result.Record.ExecutionTimeSeconds = &parsed
	return InSubmissionBlock
}

func (m *machine) gradeValue(index int, line string) State {
	value := strings.TrimSpace(line)
	if value != "" {
		// Grades carry a trailing percent sign.
		value = value[:len(value)-1]
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		m.result.Record.FinalGrade = nil
		m.blockGrade = 0
		m.fieldError("grade", index, value, err)
		return InSubmissionBlock
	}
	m.result.Record.FinalGrade = &parsed
	m.blockGrade = parsed
	return InSubmissionBlock
}

func (m *machine) errorHeader(int, string) State {
	return InErrorScan
}

// errorScan consumes the rest of the block; the terminator closes the block
// that opened the scan.
func (m *machine) errorScan(_ int, line string) State {
	if strings.HasPrefix(line, logline.PrefixBlockEnd) {
		if m.errorOwner == InSubmissionBlock {
			return m.endSubmission()
		}
		return Idle
	}
	if name := errorNamePattern.FindString(line); name != "" {
		m.result.ErrorNames = append(m.result.ErrorNames, name)
	}
	return InErrorScan
}

func (m *machine) test(_ int, line string) State {
	marker, _ := logline.Split(line)
	switch marker {
	case logline.BlockEnd:
		return Idle
	case logline.Error:
		m.result.Record.ErrorCount++
		m.errorOwner = InTestBlock
		return SkipErrorHeader
	default:
		return InTestBlock
	}
}

func (m *machine) endSubmission() State {
	if m.blockGrade <= AcceptGrade {
		return Idle
	}
	source := ""
	if m.hasCode && m.codeEnd > m.codeStart {
		source = strings.Join(m.lines[m.codeStart:m.codeEnd], "\n") + "\n"
	}
	rec := &m.result.Record
	rec.Accepted = true
	rec.AcceptedSource = &source
	return Accepted
}

func (m *machine) fieldError(field string, index int, value string, err error) {
	m.result.FieldErrors = append(m.result.FieldErrors, &NumericFieldParseError{
		Attempt: m.attempt,
		Field:   field,
		Line:    index + 1,
		Value:   value,
		Err:     err,
	})
}
