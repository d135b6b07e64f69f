package compiler

import "strings"

// Decl is a parsed declaration line: *FunctionDecl or *VariableDecl.
type Decl interface {
	declNode()
}

// Param is one entry of a function's parameter list.
type Param struct {
	Name       string
	Type       TypeExpr // nil for receivers and bare markers
	Default    string
	HasDefault bool
	Prefix     string // "", "*" or "**"
}

// Passthrough reports whether the parameter is emitted untouched (self, cls, * or /).
func (p Param) Passthrough() bool { return p.Type == nil }

// Render returns the host syntax for the parameter.
//
//	int b = 2   ->  b: int = 2
//	int *args   ->  *args: int
func (p Param) Render() string {
	if p.Type == nil {
		return p.Name
	}
	var sb strings.Builder
	sb.WriteString(p.Prefix)
	sb.WriteString(p.Name)
	sb.WriteString(": ")
	sb.WriteString(p.Type.Render())
	if p.HasDefault {
		sb.WriteString(" = ")
		sb.WriteString(p.Default)
	}
	return sb.String()
}

// FunctionDecl is `<type> <name>(<params>):<trailing>`.
type FunctionDecl struct {
	ReturnType TypeExpr
	Name       string
	Params     []Param
	Trailing   string // everything after the colon, unchanged
}

func (*FunctionDecl) declNode() {}

// VariableDecl is `<type> <name> = <value> [# comment]`.
type VariableDecl struct {
	Type    TypeExpr
	Name    string // may be dotted, e.g. self.count
	Value   string
	Comment string // including the leading '#'
	// Continued is set when the value runs onto following lines: an open
	// bracket or string, or a trailing backslash.
	Continued bool
}

func (*VariableDecl) declNode() {}

// receivers are parameter tokens copied through without a type.
var receivers = map[string]bool{
	"self": true,
	"cls":  true,
	"*":    true,
	"/":    true,
}
