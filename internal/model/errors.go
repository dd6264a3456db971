package model

import "fmt"

// MalformedTraceError is returned when the trace cannot be turned into labels or
// into a tree. Nothing partial is produced alongside it.
type MalformedTraceError struct {
	Row    int // label index, -1 when not tied to one row
	Reason string
	Err    error
}

func (e *MalformedTraceError) Error() string {
	msg := e.Reason
	if e.Row >= 0 {
		msg = fmt.Sprintf("row %d: %s", e.Row, e.Reason)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return "malformed trace: " + msg
}

func (e *MalformedTraceError) Unwrap() error { return e.Err }

// Malformed builds a MalformedTraceError for row.
func Malformed(row int, format string, args ...any) *MalformedTraceError {
	return &MalformedTraceError{Row: row, Reason: fmt.Sprintf(format, args...)}
}
