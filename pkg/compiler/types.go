package compiler

import (
	"fmt"
	"strings"
)

// TypeExpr is a normalized DSL type expression. Render returns host syntax;
// String returns a structural description for diagnostics.
type TypeExpr interface {
	typeExpr()
	Render() string
	String() string
}

// Primitive is a host builtin named bare, e.g. int.
type Primitive struct {
	Name string
}

func (*Primitive) typeExpr() {}

func (p *Primitive) Render() string { return p.Name }
func (p *Primitive) String() string { return p.Name }

// Union is satisfied by any member. It always has at least two members; a
// one-member types(...) collapses to the member itself.
//
//	types(int, str)  ->  Union{int, str}  ->  Union[int, str]
type Union struct {
	Members []TypeExpr
}

func (*Union) typeExpr() {}
func (u *Union) Render() string {
	parts := make([]string, len(u.Members))
	for i, m := range u.Members {
		parts[i] = m.Render()
	}
	return "Union[" + strings.Join(parts, ", ") + "]"
}
func (u *Union) String() string {
	parts := make([]string, len(u.Members))
	for i, m := range u.Members {
		parts[i] = m.String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// NoneType is the DSL's void: the host's absence-of-value marker.
type NoneType struct{}

func (*NoneType) typeExpr() {}

func (*NoneType) Render() string { return "None" }
func (*NoneType) String() string { return "None" }

// Raw is any text the normalizer does not recognise; it renders verbatim.
type Raw struct {
	Text string
}

func (*Raw) typeExpr() {}

func (r *Raw) Render() string { return r.Text }
func (r *Raw) String() string { return r.Text }

// The bracketed forms below are recognised for analysis only. Each keeps the
// source text and renders it unchanged; inner syntax is never rewritten.

// ContainerOf is list/set/frozenset/dict with element types, e.g. list[int].
type ContainerOf struct {
	Kind string // list, set, frozenset, dict
	Args []TypeExpr
	Text string
}

func (*ContainerOf) typeExpr() {}

func (c *ContainerOf) Render() string { return c.Text }
func (c *ContainerOf) String() string { return c.Kind + "<" + describeArgs(c.Args) + ">" }

// FixedTuple is tuple[A, B]: exact arity, per-position types.
type FixedTuple struct {
	Elems []TypeExpr
	Text  string
}

func (*FixedTuple) typeExpr() {}

func (t *FixedTuple) Render() string { return t.Text }
func (t *FixedTuple) String() string { return "tuple<" + describeArgs(t.Elems) + ">" }

// VariadicTuple is tuple[T, ...]: any length, every element T.
type VariadicTuple struct {
	Elem TypeExpr
	Text string
}

func (*VariadicTuple) typeExpr() {}

func (t *VariadicTuple) Render() string { return t.Text }
func (t *VariadicTuple) String() string { return "tuple<" + t.Elem.String() + ", ...>" }

// Callable is Callable[...] in any form.
type Callable struct {
	Text string
}

func (*Callable) typeExpr() {}

func (c *Callable) Render() string { return c.Text }
func (c *Callable) String() string { return "callable" }

// Literal is Literal[...]: satisfied structurally.
type Literal struct {
	Text string
}

func (*Literal) typeExpr() {}

func (l *Literal) Render() string { return l.Text }
func (l *Literal) String() string { return l.Text }

// Annotated covers Annotated[T, ...] and Final[T]: markers around an inner type.
type Annotated struct {
	Marker string // Annotated or Final
	Inner  TypeExpr
	Text   string
}

func (*Annotated) typeExpr() {}

func (a *Annotated) Render() string { return a.Text }
func (a *Annotated) String() string { return a.Marker + "<" + a.Inner.String() + ">" }

func describeArgs(args []TypeExpr) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.String()
	}
	return strings.Join(parts, ", ")
}

var containerKinds = map[string]string{
	"list":      "list",
	"List":      "list",
	"set":       "set",
	"Set":       "set",
	"frozenset": "frozenset",
	"FrozenSet": "frozenset",
	"dict":      "dict",
	"Dict":      "dict",
}

// Normalize converts DSL type text into a TypeExpr.
func Normalize(text string) (TypeExpr, error) {
	text = strings.TrimSpace(text)
	switch {
	case text == "":
		return nil, &FormatError{Segment: text, Reason: "empty type expression"}
	case text == NoneKeyword:
		return &NoneType{}, nil
	case primitives[text]:
		return &Primitive{Name: text}, nil
	}

	if inner, ok := wrapped(text, UnionKeyword, '('); ok {
		parts, err := SplitArgs(inner)
		if err != nil {
			return nil, err
		}
		if len(parts) == 0 {
			return nil, &FormatError{Segment: text, Reason: "union needs at least one member"}
		}
		members := make([]TypeExpr, 0, len(parts))
		for _, p := range parts {
			m, err := Normalize(p)
			if err != nil {
				return nil, err
			}
			members = append(members, m)
		}
		if len(members) == 1 {
			return members[0], nil
		}
		return &Union{Members: members}, nil
	}

	if t := classify(text); t != nil {
		return t, nil
	}
	return &Raw{Text: text}, nil
}

// classify recognises Name[args] forms. It returns nil for anything else,
// including forms whose arguments do not normalize.
func classify(text string) TypeExpr {
	name := leadingToken(text)
	inner, ok := wrapped(text, name, '[')
	if name == "" || !ok {
		return nil
	}
	parts, err := SplitArgs(inner)
	if err != nil || len(parts) == 0 {
		return nil
	}

	switch name {
	case "Callable":
		return &Callable{Text: text}
	case "Literal":
		return &Literal{Text: text}
	}

	if name == "tuple" || name == "Tuple" {
		if len(parts) == 2 && parts[1] == "..." {
			elem, err := Normalize(parts[0])
			if err != nil {
				return nil
			}
			return &VariadicTuple{Elem: elem, Text: text}
		}
		elems, ok := normalizeAll(parts)
		if !ok {
			return nil
		}
		return &FixedTuple{Elems: elems, Text: text}
	}

	if name == "Annotated" || name == "Final" {
		in, err := Normalize(parts[0])
		if err != nil {
			return nil
		}
		return &Annotated{Marker: name, Inner: in, Text: text}
	}

	if kind, ok := containerKinds[name]; ok {
		args, ok := normalizeAll(parts)
		if !ok {
			return nil
		}
		return &ContainerOf{Kind: kind, Args: args, Text: text}
	}
	return nil
}

func normalizeAll(parts []string) ([]TypeExpr, bool) {
	out := make([]TypeExpr, 0, len(parts))
	for _, p := range parts {
		t, err := Normalize(p)
		if err != nil {
			return nil, false
		}
		out = append(out, t)
	}
	return out, true
}

// wrapped reports whether text is exactly name<open>...<close> and returns the inside.
func wrapped(text, name string, open byte) (string, bool) {
	if len(text) < len(name)+2 || !strings.HasPrefix(text, name) || text[len(name)] != open {
		return "", false
	}
	if matchClose(text, len(name)) != len(text)-1 {
		return "", false
	}
	return text[len(name)+1 : len(text)-1], true
}

// ContainerKind returns the effective container kind of t: the outer container
// for collection types, looking through Annotated/Final markers, or "" if t is
// not a container.
func ContainerKind(t TypeExpr) string {
	switch v := t.(type) {
	case *ContainerOf:
		return v.Kind
	case *FixedTuple, *VariadicTuple:
		return "tuple"
	case *Annotated:
		return ContainerKind(v.Inner)
	case *Primitive:
		switch v.Name {
		case "list", "dict", "set", "frozenset", "tuple", "bytearray", "memoryview":
			return v.Name
		}
	case *Raw:
		// bare typing aliases such as List
		if kind, ok := containerKinds[v.Text]; ok {
			return kind
		}
	}
	return ""
}

// MutableContainer reports whether t's container kind is one whose default
// value cannot be shared, so the host idiom is to default it to None.
func MutableContainer(t TypeExpr) bool {
	switch ContainerKind(t) {
	case "list", "dict", "set", "bytearray", "memoryview":
		return true
	}
	return false
}

// typingNames returns the typing-module names referenced by rendered text.
func typingNames(rendered string) []string {
	var out []string
	for i := 0; i < len(rendered); {
		if !isIdentStart(rendered[i]) {
			i++
			continue
		}
		j := i
		for j < len(rendered) && (isIdentStart(rendered[j]) || isDigit(rendered[j])) {
			j++
		}
		// skip attribute names such as typing.List
		if word := rendered[i:j]; typingForms[word] && (i == 0 || rendered[i-1] != '.') {
			out = append(out, word)
		}
		i = j
	}
	return out
}

// Describe renders t for humans, e.g. in warnings.
func Describe(t TypeExpr) string {
	if t == nil {
		return "<untyped>"
	}
	return fmt.Sprintf("%s (%s)", t.Render(), t.String())
}
