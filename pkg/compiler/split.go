package compiler

import "strings"

// scanner walks text tracking bracket depth and string literals so that
// separators inside nested groups or quotes are ignored.
type scanner struct {
	depth int
	quote byte
}

// step advances over s[i] and returns the index of the last byte consumed
// (escape sequences inside quotes consume two bytes). It returns false when a
// closing bracket has no opener.
func (sc *scanner) step(s string, i int) (int, bool) {
	c := s[i]
	if sc.quote != 0 {
		if c == '\\' && i+1 < len(s) {
			return i + 1, true
		}
		if c == sc.quote {
			sc.quote = 0
		}
		return i, true
	}
	switch c {
	case '"', '\'':
		sc.quote = c
	case '(', '[', '{':
		sc.depth++
	case ')', ']', '}':
		sc.depth--
		if sc.depth < 0 {
			return i, false
		}
	}
	return i, true
}

func (sc *scanner) balanced() bool { return sc.depth == 0 && sc.quote == 0 }

// SplitArgs splits a parameter list on top-level commas.
//
//	int a, list[int, str] b = [1, 2], str sep = ","
//	     ^                          ^   only these two commas separate
//
// A blank list yields no segments, and a single trailing comma is allowed.
// Brackets or quotes left open produce an UnbalancedGroupingError.
func SplitArgs(s string) ([]string, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var (
		parts []string
		sc    scanner
		start int
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		atTop := sc.balanced()
		j, ok := sc.step(s, i)
		if !ok {
			return nil, &UnbalancedGroupingError{Text: s, Depth: sc.depth}
		}
		if c == ',' && atTop {
			parts = append(parts, strings.TrimSpace(s[start:i]))
			start = i + 1
		}
		i = j
	}
	if !sc.balanced() {
		return nil, &UnbalancedGroupingError{Text: s, Depth: sc.depth}
	}
	if last := strings.TrimSpace(s[start:]); last != "" || len(parts) == 0 {
		parts = append(parts, last)
	}
	return parts, nil
}

// matchClose returns the index of the bracket closing the one at s[open], or -1
// if it never closes.
func matchClose(s string, open int) int {
	var sc scanner
	for i := open; i < len(s); i++ {
		j, ok := sc.step(s, i)
		if !ok {
			return -1
		}
		if sc.balanced() {
			return i
		}
		i = j
	}
	return -1
}

// continues reports whether s leaves a bracket or string open, or ends in a
// backslash, so the statement carries on past this line.
func continues(s string) bool {
	if strings.HasSuffix(s, "\\") {
		return true
	}
	var sc scanner
	for i := 0; i < len(s); i++ {
		j, ok := sc.step(s, i)
		if !ok {
			return false
		}
		i = j
	}
	return !sc.balanced()
}

// splitComment separates a trailing `# comment` that is outside any string literal.
func splitComment(s string) (code, comment string) {
	var sc scanner
	for i := 0; i < len(s); i++ {
		if s[i] == '#' && sc.quote == 0 {
			return strings.TrimRight(s[:i], " \t"), s[i:]
		}
		j, _ := sc.step(s, i)
		i = j
	}
	return strings.TrimRight(s, " \t"), ""
}
