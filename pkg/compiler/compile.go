package compiler

import "sort"

// Options configures one compilation.
type Options struct {
	Enforce  bool // inject runtime checks, lenient unless Strict
	Strict   bool // inject runtime checks that raise; implies Enforce
	TabWidth int
	Registry *Registry // nil means the builtin tokens

	// Trace, when set, is called for every declaration line that was rewritten.
	Trace func(line int, src, out string)
}

// Compile translates one .typy source into Python. A file that opens with
// protect-file yields a Unit with Protected set and no lines; callers must not
// write it. Any error aborts the whole file.
func Compile(src string, opts Options) (*Unit, error) {
	var (
		m = NewMachine()
		p = NewParser(opts.Registry)
		e = NewEmitter(opts.Enforce, opts.Strict, opts.Trace)
	)

	for i, raw := range SplitLines(src) {
		l := NewSourceLine(raw, i+1, opts.TabWidth)
		act, err := m.Step(l)
		if err != nil {
			return nil, lineError(l, err)
		}

		switch act {
		case Stop:
			e.Protect()
			return finish(e, m), nil
		case Consume:
			e.Blank()
		case Pass:
			e.Verbatim(l)
		case Transform:
			d, err := p.Parse(l.Content)
			if err != nil {
				return nil, lineError(l, err)
			}
			if d == nil {
				e.Verbatim(l)
				continue
			}
			e.Decl(l, d)
		}
	}

	if err := m.Finish(); err != nil {
		return nil, err
	}
	return finish(e, m), nil
}

func finish(e *Emitter, m *Machine) *Unit {
	u := e.Unit()
	if w := m.Warnings(); len(w) > 0 {
		u.Warnings = append(append([]Diagnostic(nil), w...), u.Warnings...)
		sort.SliceStable(u.Warnings, func(i, j int) bool { return u.Warnings[i].Line < u.Warnings[j].Line })
	}
	return u
}
