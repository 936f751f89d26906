// Package timeline rebuilds interaction time from editor focus and blur events.
package timeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/verte-zerg/cbminer/internal/logline"
	"github.com/verte-zerg/cbminer/internal/model"
)

// IdleThreshold is the largest gap still counted as focused work.
const IdleThreshold = 5 * time.Minute

const (
	// TimestampLayout is the event timestamp format, microsecond precision.
	TimestampLayout = "2006-01-02 15:04:05.999999"
	// WindowLayout is the activity start/end format.
	WindowLayout = "2006-01-02 15:04"
	// ExamKind is the activity type that widens the window.
	ExamKind = "exam"
)

// Event names that open and close an interaction interval.
const (
	EventFocus = "focus"
	EventBlur  = "blur"
)

// Event is one parsed timeline line.
type Event struct {
	At      time.Time
	Name    string
	Message string
}

// TimestampParseError reports a line whose timestamp could not be read.
type TimestampParseError struct {
	Line  int
	Value string
	Err   error
}

func (e *TimestampParseError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("line %d: no timestamp separator in %q", e.Line, e.Value)
	}
	return fmt.Sprintf("line %d: timestamp %q: %v", e.Line, e.Value, e.Err)
}

func (e *TimestampParseError) Unwrap() error {
	return e.Err
}

// Result is the outcome of analyzing one timeline log.
type Result struct {
	Record model.TimelineRecord
	// ParseErrors lists lines treated as absent events.
	ParseErrors []*TimestampParseError
	// Aborted is set when an event past the window end stopped the scan.
	Aborted bool
	// Sessions counts focus events that opened an interval.
	Sessions int
}

// ParseEvent parses a "timestamp#name#message" line.
func ParseEvent(line string) (Event, error) {
	ev, perr := parseEvent(line, 0)
	if perr != nil {
		return Event{}, perr
	}
	return ev, nil
}

func parseEvent(line string, lineNo int) (Event, *TimestampParseError) {
	ts, name, msg, ok := logline.SplitEvent(line)
	if !ok {
		return Event{}, &TimestampParseError{Line: lineNo, Value: ts}
	}
	at, err := time.Parse(TimestampLayout, ts)
	if err != nil {
		return Event{}, &TimestampParseError{Line: lineNo, Value: ts, Err: err}
	}
	return Event{At: at, Name: name, Message: msg}, nil
}

// ParseWindow builds an activity window from descriptor strings.
func ParseWindow(start, end, kind string) (model.ActivityWindow, error) {
	s, err := time.Parse(WindowLayout, strings.TrimSpace(start))
	if err != nil {
		return model.ActivityWindow{}, fmt.Errorf("invalid activity start: %w", err)
	}
	e, err := time.Parse(WindowLayout, strings.TrimSpace(end))
	if err != nil {
		return model.ActivityWindow{}, fmt.Errorf("invalid activity end: %w", err)
	}
	w := model.ActivityWindow{Start: s, End: e, IsExam: strings.TrimSpace(kind) == ExamKind}
	if !w.Valid() {
		return model.ActivityWindow{}, fmt.Errorf("activity window ends before it starts: %s > %s", start, end)
	}
	return w, nil
}

// Analyze accumulates total and focused interaction time over the window.
// An event later than the window end stops the scan immediately.
func Analyze(lines []string, window model.ActivityWindow, idle time.Duration) Result {
	var res Result
	start, end := window.Effective()

	inFocus := false
	var last time.Time
	for i, line := range lines {
		ev, perr := parseEvent(line, i+1)
		if perr != nil {
			res.ParseErrors = append(res.ParseErrors, perr)
			continue
		}
		if !inFocus {
			if ev.Name == EventFocus && !ev.At.Before(start) {
				inFocus = true
				last = ev.At
				res.Sessions++
			}
			continue
		}
		if ev.At.After(end) {
			res.Aborted = true
			break
		}
		interval := ev.At.Sub(last)
		res.Record.TotalInteraction += interval
		if interval <= idle {
			res.Record.FocusedInteraction += interval
		}
		last = ev.At
		if ev.Name == EventBlur {
			inFocus = false
		}
	}
	return res
}
