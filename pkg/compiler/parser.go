package compiler

import (
	"regexp"
	"strings"
)

// Parser recognises declaration lines.
//
// Grammar (one physical line, leading whitespace already removed):
//
//	function = type IDENT "(" params ")" ":" trailing
//	variable = type NAME "=" value [ "#" comment ]
//	params   = [ param { "," param } [ "," ] ]
//	param    = "self" | "cls" | "*" | "/" | type [ "*" | "**" ] IDENT [ "=" default ]
//	type     = "types" "(" type { "," type } ")" | TOKEN { "[" ... "]" }
//	NAME     = IDENT { "." IDENT }
//
// A line is only considered when its leading TOKEN is registered; a registered
// line that matches neither grammar is ordinary code.
type Parser struct {
	reg *Registry
}

// NewParser returns a parser gated by reg, or by the builtin tokens when reg is nil.
func NewParser(reg *Registry) *Parser {
	if reg == nil {
		reg = DefaultRegistry()
	}
	return &Parser{reg: reg}
}

var (
	funcHead  = regexp.MustCompile(`^\s+([A-Za-z_][A-Za-z0-9_]*)\s*\(`)
	funcColon = regexp.MustCompile(`^\s*:`)
	varHead   = regexp.MustCompile(`^\s+([A-Za-z_][A-Za-z0-9_]*(?:\.[A-Za-z_][A-Za-z0-9_]*)*)\s*=`)
	paramTail = regexp.MustCompile(`^\s+(\*{0,2})([A-Za-z_][A-Za-z0-9_]*)\s*(=\s*(.*))?$`)
)

// Parse returns the declaration on the line, or nil if the line is not one.
func (p *Parser) Parse(content string) (Decl, error) {
	content = strings.TrimSpace(content)
	if !p.reg.Has(leadingToken(content)) {
		return nil, nil
	}
	typeText, rest, ok, err := scanType(content)
	if err != nil || !ok {
		return nil, err
	}

	if m := funcHead.FindStringSubmatchIndex(rest); m != nil {
		return parseFunction(typeText, rest, rest[m[2]:m[3]], m[1]-1)
	}
	if m := varHead.FindStringSubmatchIndex(rest); m != nil {
		return parseVariable(typeText, rest[m[2]:m[3]], rest[m[1]:])
	}
	return nil, nil
}

// scanType splits a leading type expression off s. ok is false when s does not
// start with one; err is set when a group opened by the type never closes.
func scanType(s string) (typ, rest string, ok bool, err error) {
	tok := leadingToken(s)
	if tok == "" {
		return "", s, false, nil
	}
	i := len(tok)
	if tok == UnionKeyword {
		if i >= len(s) || s[i] != '(' {
			return "", s, false, nil
		}
		end := matchClose(s, i)
		if end < 0 {
			return "", s, false, &UnbalancedGroupingError{Text: s[i:], Depth: 1}
		}
		return s[:end+1], s[end+1:], true, nil
	}
	for i < len(s) && s[i] == '[' {
		end := matchClose(s, i)
		if end < 0 {
			return "", s, false, &UnbalancedGroupingError{Text: s[i:], Depth: 1}
		}
		i = end + 1
	}
	return s[:i], s[i:], true, nil
}

func parseFunction(typeText, rest, name string, open int) (Decl, error) {
	end := matchClose(rest, open)
	if end < 0 {
		return nil, &UnbalancedGroupingError{Text: rest[open:], Depth: 1}
	}
	after := rest[end+1:]
	colon := funcColon.FindStringIndex(after)
	if colon == nil {
		return nil, nil
	}

	ret, err := Normalize(typeText)
	if err != nil {
		return nil, err
	}
	segments, err := SplitArgs(rest[open+1 : end])
	if err != nil {
		return nil, err
	}
	params := make([]Param, 0, len(segments))
	for _, seg := range segments {
		param, err := parseParam(seg)
		if err != nil {
			return nil, err
		}
		params = append(params, param)
	}
	return &FunctionDecl{
		ReturnType: ret,
		Name:       name,
		Params:     params,
		Trailing:   strings.TrimRight(after[colon[1]:], " \t"),
	}, nil
}

func parseVariable(typeText, name, rest string) (Decl, error) {
	// `int x == y` is a comparison, not an assignment
	if strings.HasPrefix(rest, "=") {
		return nil, nil
	}
	value, comment := splitComment(rest)
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	typ, err := Normalize(typeText)
	if err != nil {
		return nil, err
	}
	return &VariableDecl{Type: typ, Name: name, Value: value, Comment: comment, Continued: continues(value)}, nil
}

func parseParam(seg string) (Param, error) {
	if seg == "" {
		return Param{}, &FormatError{Segment: seg, Reason: "empty argument"}
	}
	if receivers[seg] {
		return Param{Name: seg}, nil
	}
	typeText, rest, ok, err := scanType(seg)
	if err != nil {
		return Param{}, err
	}
	m := paramTail.FindStringSubmatch(rest)
	if !ok || m == nil {
		return Param{}, &FormatError{Segment: seg}
	}
	typ, err := Normalize(typeText)
	if err != nil {
		return Param{}, err
	}
	param := Param{Type: typ, Prefix: m[1], Name: m[2]}
	if m[3] != "" {
		def := strings.TrimSpace(m[4])
		switch {
		case def == "":
			return Param{}, &FormatError{Segment: seg, Reason: "missing default value"}
		case param.Prefix != "":
			return Param{}, &FormatError{Segment: seg, Reason: "variadic argument cannot have a default"}
		}
		param.Default = def
		param.HasDefault = true
	}
	return param, nil
}
