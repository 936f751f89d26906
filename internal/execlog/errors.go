package execlog

import "fmt"

// MalformedLogError reports a block that reached end of input before its terminator.
type MalformedLogError struct {
	Attempt string
	// Line is the number of lines consumed before input ran out.
	Line  int
	State State
}

func (e *MalformedLogError) Error() string {
	return fmt.Sprintf("malformed execution log %s: input ended in %s state after line %d", e.Attempt, e.State, e.Line)
}

// NumericFieldParseError reports an exec time or grade value that is not a number.
type NumericFieldParseError struct {
	Attempt string
	Field   string
	Line    int
	Value   string
	Err     error
}

func (e *NumericFieldParseError) Error() string {
	return fmt.Sprintf("%s: line %d: %s value %q: %v", e.Attempt, e.Line, e.Field, e.Value, e.Err)
}

func (e *NumericFieldParseError) Unwrap() error {
	return e.Err
}
