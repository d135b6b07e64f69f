package compiler

import (
	"fmt"
	"strconv"
	"strings"
)

// Directive lines, matched against the trimmed line text.
const (
	DirectiveProtectFile  = "protect-file"
	DirectiveProtectStart = "protect-start"
	DirectiveProtectEnd   = "protect-end"
	DirectiveSkip         = "skip"
	DirectiveProtectFor   = "protect-for-" // followed by a positive line count
)

// State is the per-file protection state.
type State int

const (
	Normal State = iota
	ProtectedFile
	ProtectedBlock
	ProtectedCountdown
	SkipNext
)

var stateNames = [...]string{
	Normal:             "normal",
	ProtectedFile:      "file protected",
	ProtectedBlock:     "inside a protect-start block",
	ProtectedCountdown: "inside a protect-for countdown",
	SkipNext:           "a skip is pending",
}

func (s State) String() string {
	if int(s) >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Action tells the compiler what to do with a line.
type Action int

const (
	// Transform: attempt declaration parsing.
	Transform Action = iota
	// Pass: copy the line through re-indented.
	Pass
	// Consume: the line was a directive; emit a blank line in its place.
	Consume
	// Stop: abort the file and write nothing.
	Stop
)

var actionNames = [...]string{
	Transform: "transform",
	Pass:      "pass",
	Consume:   "directive",
	Stop:      "stop",
}

func (a Action) String() string {
	if int(a) >= 0 && int(a) < len(actionNames) {
		return actionNames[a]
	}
	return fmt.Sprintf("Action(%d)", int(a))
}

// Machine is the protection state machine for one file. The zero value is ready
// to use and in the Normal state.
type Machine struct {
	state     State
	remaining int // lines left while ProtectedCountdown
	opened    int // line of the open protect-start
	seenCode  bool
	warnings  []Diagnostic
}

// NewMachine returns a machine in the Normal state.
func NewMachine() *Machine { return &Machine{} }

// Reset returns the machine to its start-of-file state.
func (m *Machine) Reset() { *m = Machine{} }

// State returns the current protection state.
func (m *Machine) State() State { return m.state }

// Remaining returns the lines left in a protect-for countdown.
func (m *Machine) Remaining() int { return m.remaining }

// Warnings returns the non-fatal directive misuse seen so far.
func (m *Machine) Warnings() []Diagnostic { return m.warnings }

// Step consumes one line and returns what to do with it.
func (m *Machine) Step(l SourceLine) (Action, error) {
	if m.state == ProtectedFile {
		return Stop, nil
	}
	// blank and comment lines never touch the bookkeeping
	if l.Blank() || l.Comment() {
		return Pass, nil
	}

	if act, ok, err := m.directive(l); ok || err != nil {
		m.seenCode = true
		return act, err
	}
	m.seenCode = true

	switch m.state {
	case ProtectedBlock:
		return Pass, nil
	case ProtectedCountdown:
		m.remaining--
		if m.remaining == 0 {
			m.state = Normal
		}
		return Pass, nil
	case SkipNext:
		m.state = Normal
		return Pass, nil
	}
	return Transform, nil
}

// Finish validates the end-of-file state.
func (m *Machine) Finish() error {
	if m.state == ProtectedBlock {
		return &ProtectionStateError{State: m.state, Opened: m.opened}
	}
	return nil
}

func (m *Machine) directive(l SourceLine) (Action, bool, error) {
	text := l.Content
	switch {
	case text == DirectiveProtectFile:
		if !m.seenCode {
			m.state = ProtectedFile
			return Stop, true, nil
		}
		m.warnings = append(m.warnings, Diagnostic{
			Line:    l.Number,
			Message: "protect-file must be the first line of the file; ignored",
		})
		return Consume, true, nil

	case text == DirectiveProtectStart:
		if err := m.enter(text); err != nil {
			return Consume, true, err
		}
		m.state = ProtectedBlock
		m.opened = l.Number
		return Consume, true, nil

	case text == DirectiveProtectEnd:
		if m.state != ProtectedBlock {
			return Consume, true, &ProtectionStateError{Directive: text, State: m.state}
		}
		m.state = Normal
		m.opened = 0
		return Consume, true, nil

	case text == DirectiveSkip:
		if err := m.enter(text); err != nil {
			return Consume, true, err
		}
		m.state = SkipNext
		return Consume, true, nil

	case strings.HasPrefix(text, DirectiveProtectFor):
		arg := strings.TrimPrefix(text, DirectiveProtectFor)
		n, err := strconv.Atoi(arg)
		if err != nil || n < 1 || !allDigits(arg) {
			return Consume, true, &InvalidDirectiveArgument{Directive: text, Arg: arg}
		}
		if err := m.enter(text); err != nil {
			return Consume, true, err
		}
		m.state = ProtectedCountdown
		m.remaining = n
		return Consume, true, nil
	}
	return Transform, false, nil
}

// enter rejects a protected state entered from anything but Normal.
func (m *Machine) enter(directive string) error {
	if m.state != Normal {
		return &ProtectionStateError{Directive: directive, State: m.state}
	}
	return nil
}

// allDigits reports whether s is a non-empty run of ASCII digits.
func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return s != ""
}
