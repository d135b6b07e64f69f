package compiler

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Keywords with meaning to the normalizer.
const (
	UnionKeyword = "types"
	NoneKeyword  = "void"
)

// primitives are host builtins that render as their bare name.
var primitives = map[string]bool{
	"int":        true,
	"float":      true,
	"complex":    true,
	"bool":       true,
	"str":        true,
	"bytes":      true,
	"bytearray":  true,
	"memoryview": true,
	"list":       true,
	"tuple":      true,
	"set":        true,
	"frozenset":  true,
	"dict":       true,
	"object":     true,
}

// typingForms are names that live in the host's typing module.
var typingForms = map[string]bool{
	"List":      true,
	"Dict":      true,
	"Set":       true,
	"FrozenSet": true,
	"Tuple":     true,
	"Optional":  true,
	"Union":     true,
	"Callable":  true,
	"Any":       true,
	"Literal":   true,
	"Final":     true,
	"Annotated": true,
}

var tokenPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*$`)

// Registry is the set of tokens that may start a declaration line. A line whose
// first token is not registered is never parsed as a declaration.
type Registry struct {
	tokens map[string]bool
}

// NewRegistry returns a registry holding the builtin tokens plus custom.
func NewRegistry(custom ...string) (*Registry, error) {
	r := &Registry{tokens: make(map[string]bool, len(primitives)+len(typingForms)+2+len(custom))}
	for name := range primitives {
		r.tokens[name] = true
	}
	for name := range typingForms {
		r.tokens[name] = true
	}
	r.tokens[UnionKeyword] = true
	r.tokens[NoneKeyword] = true
	for _, tok := range custom {
		if err := r.Register(tok); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// DefaultRegistry returns the builtin tokens only.
func DefaultRegistry() *Registry {
	r, _ := NewRegistry()
	return r
}

// Register adds a custom type keyword such as a user class name.
func (r *Registry) Register(tok string) error {
	tok = strings.TrimSpace(tok)
	if !tokenPattern.MatchString(tok) {
		return fmt.Errorf("invalid type keyword %q", tok)
	}
	if tok == DirectiveSkip {
		return fmt.Errorf("type keyword %q collides with a directive", tok)
	}
	r.tokens[tok] = true
	return nil
}

// Has reports whether tok may start a declaration.
func (r *Registry) Has(tok string) bool {
	return r != nil && r.tokens[tok]
}

// Tokens returns the registered tokens in sorted order.
func (r *Registry) Tokens() []string {
	out := make([]string, 0, len(r.tokens))
	for tok := range r.tokens {
		out = append(out, tok)
	}
	sort.Strings(out)
	return out
}

// leadingToken returns the dotted identifier at the start of s.
func leadingToken(s string) string {
	i := 0
	for i < len(s) {
		c := s[i]
		if isIdentStart(c) || (i > 0 && (isDigit(c) || c == '.')) {
			i++
			continue
		}
		break
	}
	return strings.TrimRight(s[:i], ".")
}

func isIdentStart(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_'
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
