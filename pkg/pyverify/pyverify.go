// Package pyverify parses generated Python with tree-sitter and rejects output
// that is not syntactically valid, before it is written.
package pyverify

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
)

// SyntaxError locates the first problem in a generated file. Line and Column
// are 1-based.
type SyntaxError struct {
	Path    string
	Line    int
	Column  int
	Missing string // token kind tree-sitter expected, if known
	Snippet string
}

func (e *SyntaxError) Error() string {
	msg := fmt.Sprintf("generated Python does not parse at %d:%d", e.Line, e.Column)
	if e.Path != "" {
		msg = e.Path + ": " + msg
	}
	if e.Missing != "" {
		msg += fmt.Sprintf(": expected %q", e.Missing)
	}
	if e.Snippet != "" {
		msg += "\n  |> " + e.Snippet
	}
	return msg
}

// Verifier checks Python source. The zero value is ready to use and safe for
// concurrent use; each call gets its own parser.
type Verifier struct{}

// New returns a Verifier.
func New() *Verifier { return &Verifier{} }

// Verify parses src and returns a *SyntaxError if it contains errors.
func (v *Verifier) Verify(ctx context.Context, path string, src []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p := sitter.NewParser()
	defer p.Close()
	if err := p.SetLanguage(sitter.NewLanguage(tree_sitter_python.Language())); err != nil {
		return fmt.Errorf("pyverify: %w", err)
	}

	tree := p.Parse(src, nil)
	if tree == nil {
		return fmt.Errorf("pyverify: parser returned no tree for %s", path)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil || !root.HasError() {
		return nil
	}
	node := firstNode(root, (*sitter.Node).IsMissing)
	missing := ""
	if node != nil {
		missing = node.Kind()
	} else if node = firstNode(root, (*sitter.Node).IsError); node == nil {
		node = root
	}
	pos := node.StartPosition()
	return &SyntaxError{
		Path:    path,
		Line:    int(pos.Row) + 1,
		Column:  int(pos.Column) + 1,
		Missing: missing,
		Snippet: lineAt(src, int(pos.Row)),
	}
}

// firstNode returns the earliest node in source order matching pred.
func firstNode(root *sitter.Node, pred func(*sitter.Node) bool) *sitter.Node {
	var best *sitter.Node
	walk(root, func(n *sitter.Node) {
		if pred(n) && (best == nil || n.StartByte() < best.StartByte()) {
			best = n
		}
	})
	return best
}

func walk(n *sitter.Node, visit func(*sitter.Node)) {
	if n == nil {
		return
	}
	visit(n)
	for i := uint(0); i < n.ChildCount(); i++ {
		walk(n.Child(i), visit)
	}
}

func lineAt(src []byte, row int) string {
	lines := strings.Split(string(src), "\n")
	if row < 0 || row >= len(lines) {
		return ""
	}
	return strings.TrimSpace(lines[row])
}
