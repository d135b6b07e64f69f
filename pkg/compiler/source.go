package compiler

import "strings"

// DefaultTabWidth is the tab stop used when measuring indentation.
const DefaultTabWidth = 4

// SourceLine is one physical line of DSL input.
//
//	\tint x = 1
//	^^^^ Indent: 4 (tab expanded to the next stop)
//	    ^^^^^^^^^ Content: "int x = 1"
type SourceLine struct {
	Raw     string
	Number  int // 1-based
	Indent  int // leading whitespace width after tab expansion
	Content string
}

// NewSourceLine measures raw's indentation with tabs expanded to multiples of tabWidth.
func NewSourceLine(raw string, number, tabWidth int) SourceLine {
	if tabWidth <= 0 {
		tabWidth = DefaultTabWidth
	}
	raw = strings.TrimSuffix(raw, "\r")
	col := 0
	for _, r := range raw {
		if r == ' ' {
			col++
		} else if r == '\t' {
			col += tabWidth - col%tabWidth
		} else {
			break
		}
	}
	return SourceLine{
		Raw:     raw,
		Number:  number,
		Indent:  col,
		Content: strings.TrimSpace(raw),
	}
}

// Blank reports whether the line has no content.
func (l SourceLine) Blank() bool { return l.Content == "" }

// Comment reports whether the line is a whole-line comment.
func (l SourceLine) Comment() bool { return strings.HasPrefix(l.Content, "#") }

// Reindented returns the content at the measured indentation, using spaces.
func (l SourceLine) Reindented() string {
	if l.Content == "" {
		return ""
	}
	return strings.Repeat(" ", l.Indent) + l.Content
}

// SplitLines splits src into physical lines. A trailing newline does not produce an
// extra empty line.
func SplitLines(src string) []string {
	if src == "" {
		return nil
	}
	lines := strings.Split(src, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
