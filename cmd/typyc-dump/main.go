// Command typyc-dump prints every stage of compiling one .typy file: the
// protection state and action per line, the parsed declarations with their
// normalized types, and the final output.
//
//	typyc-dump [file.typy] [enforce|strict]
package main

import (
	"fmt"
	"os"
	"strings"

	"typyc/pkg/compiler"
)

const testSource = `protect-for-1
raw = int("1")
types(int, str) pick(self, int a, list[int] *rest, int b = 2):
    return a
void log(str msg):
    print(msg)
dict[str, int] counts = {}  # by name
`

func main() {
	src := testSource
	if len(os.Args) > 1 {
		data, err := os.ReadFile(os.Args[1])
		if err != nil {
			fmt.Fprintln(os.Stderr, "read error:", err)
			os.Exit(1)
		}
		src = string(data)
	}
	var opts compiler.Options
	if len(os.Args) > 2 {
		switch os.Args[2] {
		case "enforce":
			opts.Enforce = true
		case "strict":
			opts.Strict = true
		default:
			fmt.Fprintf(os.Stderr, "unknown mode %q (want enforce or strict)\n", os.Args[2])
			os.Exit(2)
		}
	}

	fmt.Println("Lines")
	m := compiler.NewMachine()
	p := compiler.NewParser(nil)
	var decls []string
	for i, raw := range compiler.SplitLines(src) {
		l := compiler.NewSourceLine(raw, i+1, compiler.DefaultTabWidth)
		act, err := m.Step(l)
		if err != nil {
			fmt.Fprintf(os.Stderr, "line %d: %v\n", l.Number, err)
			os.Exit(1)
		}
		fmt.Printf("  %3d  %-10s %-30s %s\n", l.Number, act, m.State(), l.Content)
		if act == compiler.Stop {
			break
		}
		if act != compiler.Transform {
			continue
		}
		d, err := p.Parse(l.Content)
		if err != nil {
			fmt.Fprintf(os.Stderr, "line %d: parse error: %v\n", l.Number, err)
			os.Exit(1)
		}
		if d != nil {
			decls = append(decls, fmt.Sprintf("  %3d  %s", l.Number, describe(d)))
		}
	}
	if err := m.Finish(); err != nil {
		fmt.Fprintln(os.Stderr, "directive error:", err)
		os.Exit(1)
	}
	fmt.Println()

	fmt.Printf("Declarations (%d)\n", len(decls))
	for _, d := range decls {
		fmt.Println(d)
	}
	fmt.Println()

	unit, err := compiler.Compile(src, opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, "compile error:", err)
		os.Exit(1)
	}
	for _, w := range unit.Warnings {
		fmt.Println("warning:", w)
	}
	if unit.Protected {
		fmt.Println("Output: file is protected, nothing written")
		return
	}
	fmt.Println("Output")
	fmt.Print(unit.String())
}

func describe(d compiler.Decl) string {
	switch d := d.(type) {
	case *compiler.FunctionDecl:
		params := make([]string, len(d.Params))
		for i, p := range d.Params {
			if p.Passthrough() {
				params[i] = p.Name
				continue
			}
			params[i] = p.Prefix + p.Name + " " + compiler.Describe(p.Type)
			if p.HasDefault {
				params[i] += " = " + p.Default
			}
		}
		return fmt.Sprintf("func %s(%s) returns %s", d.Name, strings.Join(params, ", "), compiler.Describe(d.ReturnType))
	case *compiler.VariableDecl:
		return fmt.Sprintf("var %s %s = %s", d.Name, compiler.Describe(d.Type), d.Value)
	}
	return fmt.Sprintf("%T", d)
}
