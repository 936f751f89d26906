// Package logline splits raw Codebench log lines into markers and payloads.
package logline

import "strings"

// Marker classifies a line of an execution log.
type Marker int

const (
	// None is any line without a known prefix.
	None Marker = iota
	Submission
	Test
	BlockEnd
	Code
	Exec
	Grade
	Error
	// Field is a "-- " line not covered by a more specific marker.
	Field
)

// Prefixes of the execution log grammar. Matching is case and whitespace sensitive.
const (
	PrefixSubmission = "== S"
	PrefixTest       = "== T"
	PrefixBlockEnd   = "*-*"
	PrefixCode       = "-- CODE"
	PrefixExec       = "-- EXEC"
	PrefixGrade      = "-- GRAD"
	PrefixError      = "-- ERROR"
	PrefixField      = "-- "
)

// EventSeparator separates the fields of a timeline log line.
const EventSeparator = "#"

var markers = []struct {
	prefix string
	marker Marker
}{
	{PrefixSubmission, Submission},
	{PrefixTest, Test},
	{PrefixBlockEnd, BlockEnd},
	{PrefixCode, Code},
	{PrefixExec, Exec},
	{PrefixGrade, Grade},
	{PrefixError, Error},
	{PrefixField, Field},
}

// Split returns the line's marker and the text following the marker prefix.
// Lines without a known prefix return None and the whole line.
func Split(line string) (Marker, string) {
	for _, m := range markers {
		if strings.HasPrefix(line, m.prefix) {
			return m.marker, line[len(m.prefix):]
		}
	}
	return None, line
}

// SplitEvent splits a timeline line into timestamp, event name and message.
// ok is false when the line has no separator at all.
func SplitEvent(line string) (timestamp, name, message string, ok bool) {
	line = strings.TrimRight(line, "\r\n")
	timestamp, rest, found := strings.Cut(line, EventSeparator)
	if !found {
		return line, "", "", false
	}
	name, message, _ = strings.Cut(rest, EventSeparator)
	return timestamp, name, message, true
}

func (m Marker) String() string {
	switch m {
	case Submission:
		return "submission"
	case Test:
		return "test"
	case BlockEnd:
		return "block-end"
	case Code:
		return "code"
	case Exec:
		return "exec"
	case Grade:
		return "grade"
	case Error:
		return "error"
	case Field:
		return "field"
	default:
		return "none"
	}
}
