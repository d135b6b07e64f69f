package compiler

import (
	"fmt"
	"sort"
	"strings"

	"typyc/pkg/enforce"
)

// Unit is the compiled output of one file. It is built in memory and written
// by the caller in one piece.
type Unit struct {
	Lines        []string
	NeedsLibrary bool
	Strict       bool
	TypingNames  []string // typing names used by rendered types, sorted
	Protected    bool     // protect-file: nothing may be written
	Warnings     []Diagnostic
}

// Header returns the text placed before Lines: the enforcement library, or a
// typing import when rendered types need one.
func (u *Unit) Header() string {
	switch {
	case u.NeedsLibrary:
		return enforce.Library(u.Strict)
	case len(u.TypingNames) > 0:
		return "from typing import " + strings.Join(u.TypingNames, ", ") + "\n"
	}
	return ""
}

// String returns the full file contents, or "" for a protected file.
func (u *Unit) String() string {
	if u.Protected {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(u.Header())
	for _, l := range u.Lines {
		sb.WriteString(l)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Bytes is String as a byte slice.
func (u *Unit) Bytes() []byte { return []byte(u.String()) }

// Emitter builds a Unit line by line.
type Emitter struct {
	enforce bool
	strict  bool
	trace   func(line int, src, out string)
	typing  map[string]bool
	unit    *Unit
}

// NewEmitter returns an emitter. strict implies enforcement.
func NewEmitter(enforcing, strict bool, trace func(line int, src, out string)) *Emitter {
	enforcing = enforcing || strict
	return &Emitter{
		enforce: enforcing,
		strict:  strict,
		trace:   trace,
		typing:  make(map[string]bool),
		unit:    &Unit{NeedsLibrary: enforcing, Strict: strict},
	}
}

// Blank appends an empty line.
func (e *Emitter) Blank() { e.unit.Lines = append(e.unit.Lines, "") }

// Verbatim appends the line at its measured indentation.
func (e *Emitter) Verbatim(l SourceLine) {
	e.unit.Lines = append(e.unit.Lines, l.Reindented())
}

// Warn records a non-fatal diagnostic.
func (e *Emitter) Warn(line int, format string, args ...any) {
	e.unit.Warnings = append(e.unit.Warnings, Diagnostic{Line: line, Message: fmt.Sprintf(format, args...)})
}

// Decl appends the host form of a declaration.
func (e *Emitter) Decl(l SourceLine, d Decl) {
	indent := strings.Repeat(" ", l.Indent)
	var out []string
	switch d := d.(type) {
	case *FunctionDecl:
		out = e.function(indent, d)
	case *VariableDecl:
		out = e.variable(indent, d, l.Number)
	default:
		e.Verbatim(l)
		return
	}
	e.unit.Lines = append(e.unit.Lines, out...)
	if e.trace != nil {
		e.trace(l.Number, l.Content, strings.Join(out, " / "))
	}
}

func (e *Emitter) function(indent string, d *FunctionDecl) []string {
	params := make([]string, len(d.Params))
	for i, p := range d.Params {
		params[i] = p.Render()
		if p.Type != nil {
			e.use(p.Type)
		}
	}
	e.use(d.ReturnType)

	def := fmt.Sprintf("%sdef %s(%s) -> %s:%s", indent, d.Name, strings.Join(params, ", "), d.ReturnType.Render(), d.Trailing)
	if !e.enforce {
		return []string{def}
	}
	return []string{indent + enforce.Decorator(e.strict), def}
}

func (e *Emitter) variable(indent string, d *VariableDecl, line int) []string {
	typ := d.Type.Render()
	e.use(d.Type)

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s%s: %s = %s", indent, d.Name, typ, d.Value)
	switch {
	case e.enforce && d.Continued:
		e.Warn(line, "%s: value continues past this line; runtime check not injected", d.Name)
	case e.enforce:
		if d.Value == "None" && MutableContainer(d.Type) {
			e.Warn(line, "%s is declared %s but initialised to None; the runtime check will reject it", d.Name, typ)
		}
		sb.WriteString("; ")
		sb.WriteString(enforce.CheckCall(d.Name, typ, e.strict))
	}
	if d.Comment != "" {
		sb.WriteString("  ")
		sb.WriteString(d.Comment)
	}
	return []string{sb.String()}
}

func (e *Emitter) use(t TypeExpr) {
	for _, name := range typingNames(t.Render()) {
		e.typing[name] = true
	}
}

// Unit finalises and returns the compiled unit.
func (e *Emitter) Unit() *Unit {
	if !e.enforce {
		names := make([]string, 0, len(e.typing))
		for name := range e.typing {
			names = append(names, name)
		}
		sort.Strings(names)
		e.unit.TypingNames = names
	}
	return e.unit
}

// Protect marks the unit as protected and drops anything emitted.
func (e *Emitter) Protect() {
	e.unit.Protected = true
	e.unit.Lines = nil
	e.unit.NeedsLibrary = false
}
