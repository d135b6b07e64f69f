package compiler

import (
	"errors"
	"fmt"
	"strings"
)

// FormatError reports text that a required construct's grammar does not accept,
// such as a malformed parameter inside a function declaration.
type FormatError struct {
	Segment string
	Reason  string
}

func (e *FormatError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("malformed argument %q", e.Segment)
	}
	return fmt.Sprintf("%s: %q", e.Reason, e.Segment)
}

// UnbalancedGroupingError reports brackets or quotes that never close (or close
// without opening) in a parameter list or type expression.
type UnbalancedGroupingError struct {
	Text  string
	Depth int
}

func (e *UnbalancedGroupingError) Error() string {
	return fmt.Sprintf("unbalanced grouping (depth %d at end) in %q", e.Depth, e.Text)
}

// ProtectionStateError reports a directive that is not valid in the current
// protection state, e.g. protect-start inside an open block.
type ProtectionStateError struct {
	Directive string
	State     State
	Opened    int // line of the protect-start that is still open, if any
}

func (e *ProtectionStateError) Error() string {
	if e.Directive == "" {
		return fmt.Sprintf("protect-start opened on line %d is never closed", e.Opened)
	}
	return fmt.Sprintf("%s is not allowed while %s", e.Directive, e.State)
}

// InvalidDirectiveArgument reports a protect-for-<N> whose N is not a positive integer.
type InvalidDirectiveArgument struct {
	Directive string
	Arg       string
}

func (e *InvalidDirectiveArgument) Error() string {
	return fmt.Sprintf("%s: %q is not a positive line count", e.Directive, e.Arg)
}

// LineError attaches a source position to any compile error.
type LineError struct {
	Line   int
	Source string
	Err    error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %v\n  |> %s", e.Line, e.Err, e.Source)
}

func (e *LineError) Unwrap() error { return e.Err }

func lineError(l SourceLine, err error) error {
	var le *LineError
	if errors.As(err, &le) {
		return err
	}
	return &LineError{Line: l.Number, Source: strings.TrimSpace(l.Raw), Err: err}
}

// Diagnostic is a non-fatal compile message.
type Diagnostic struct {
	Line    int
	Message string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("line %d: %s", d.Line, d.Message)
}
