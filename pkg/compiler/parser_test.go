package compiler

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func renderParams(ps []Param) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.Render()
	}
	return out
}

func TestParseFunction(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		fn       string
		ret      string
		params   []string
		trailing string
	}{
		{
			name:   "simple",
			line:   "int add(int a, int b = 2):",
			fn:     "add",
			ret:    "int",
			params: []string{"a: int", "b: int = 2"},
		},
		{
			name:     "receiver and comment",
			line:     "void log(self, str msg):  # note",
			fn:       "log",
			ret:      "None",
			params:   []string{"self", "msg: str"},
			trailing: "  # note",
		},
		{
			name:   "unions and nested defaults",
			line:   "types(int, str) pick(types(int, void) x, list[int] xs = [1, 2]):",
			fn:     "pick",
			ret:    "Union[int, str]",
			params: []string{"x: Union[int, None]", "xs: list[int] = [1, 2]"},
		},
		{
			name:     "variadics and inline body",
			line:     "Dict[str, int] count(str *words, int **kw): return {}",
			fn:       "count",
			ret:      "Dict[str, int]",
			params:   []string{"*words: str", "**kw: int"},
			trailing: " return {}",
		},
		{
			name:   "markers",
			line:   "int f(self, *, int key = 1, /):",
			fn:     "f",
			ret:    "int",
			params: []string{"self", "*", "key: int = 1", "/"},
		},
		{
			name:   "no params",
			line:   "bool ready ():",
			fn:     "ready",
			ret:    "bool",
			params: []string{},
		},
		{
			name:   "trailing comma",
			line:   "int f(int a, ):",
			fn:     "f",
			ret:    "int",
			params: []string{"a: int"},
		},
		{
			name:   "user class argument",
			line:   "str name(Logger lg, str sep = \", \"):",
			fn:     "name",
			ret:    "str",
			params: []string{"lg: Logger", `sep: str = ", "`},
		},
	}
	p := NewParser(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := p.Parse(tt.line)
			if err != nil {
				t.Fatalf("Parse(%q): %v", tt.line, err)
			}
			fn, ok := d.(*FunctionDecl)
			if !ok {
				t.Fatalf("Parse(%q) = %#v, want *FunctionDecl", tt.line, d)
			}
			if fn.Name != tt.fn {
				t.Errorf("Name = %q, want %q", fn.Name, tt.fn)
			}
			if got := fn.ReturnType.Render(); got != tt.ret {
				t.Errorf("ReturnType = %q, want %q", got, tt.ret)
			}
			if diff := cmp.Diff(tt.params, renderParams(fn.Params)); diff != "" {
				t.Errorf("params mismatch (-want +got):\n%s", diff)
			}
			if fn.Trailing != tt.trailing {
				t.Errorf("Trailing = %q, want %q", fn.Trailing, tt.trailing)
			}
		})
	}
}

func TestParseParamCountAndOrder(t *testing.T) {
	p := NewParser(nil)
	for n := 0; n <= 12; n++ {
		args := make([]string, n)
		for i := range args {
			args[i] = fmt.Sprintf("Dict[str, types(int, str)] a%d = {%d: (1, 2)}", i, i)
		}
		line := "void f(" + strings.Join(args, ", ") + "):"
		d, err := p.Parse(line)
		if err != nil {
			t.Fatalf("n=%d: %v", n, err)
		}
		fn := d.(*FunctionDecl)
		if len(fn.Params) != n {
			t.Fatalf("n=%d: got %d params", n, len(fn.Params))
		}
		for i, param := range fn.Params {
			if want := fmt.Sprintf("a%d", i); param.Name != want {
				t.Errorf("n=%d: param %d = %q, want %q", n, i, param.Name, want)
			}
		}
	}
}

func TestParseVariable(t *testing.T) {
	tests := []struct {
		line    string
		name    string
		typ     string
		value   string
		comment string
	}{
		{line: "int x = 1", name: "x", typ: "int", value: "1"},
		{line: "str self.name = 'a'  # who", name: "self.name", typ: "str", value: "'a'", comment: "# who"},
		{line: "void result = None", name: "result", typ: "None", value: "None"},
		{line: "list[int] xs = [1, 2, 3]", name: "xs", typ: "list[int]", value: "[1, 2, 3]"},
		{line: "str tag = '#notcomment'", name: "tag", typ: "str", value: "'#notcomment'"},
		{line: "types(int, float) n=f(a, b)", name: "n", typ: "Union[int, float]", value: "f(a, b)"},
	}
	p := NewParser(nil)
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			d, err := p.Parse(tt.line)
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			v, ok := d.(*VariableDecl)
			if !ok {
				t.Fatalf("Parse(%q) = %#v, want *VariableDecl", tt.line, d)
			}
			got := []string{v.Name, v.Type.Render(), v.Value, v.Comment}
			want := []string{tt.name, tt.typ, tt.value, tt.comment}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseNotDeclaration(t *testing.T) {
	for _, line := range []string{
		"x = 1",
		"print(int(x))",
		"int(x)",
		"int x == 3",
		"int x",
		"int x =   ",
		"Logger log = Logger()",
		"types = [1]",
		"list[int]",
		"str.join(x)",
		"return int(x)",
		"int f(a) + 1",
		"",
	} {
		t.Run(line, func(t *testing.T) {
			d, err := NewParser(nil).Parse(line)
			if err != nil || d != nil {
				t.Errorf("Parse(%q) = %#v, %v; want nil, nil", line, d, err)
			}
		})
	}
}

func TestParseCustomKeyword(t *testing.T) {
	reg, err := NewRegistry("Logger", "models.User")
	if err != nil {
		t.Fatal(err)
	}
	p := NewParser(reg)

	d, err := p.Parse("Logger log = Logger()")
	if err != nil {
		t.Fatal(err)
	}
	if v, ok := d.(*VariableDecl); !ok || v.Type.Render() != "Logger" {
		t.Errorf("custom keyword variable = %#v", d)
	}

	d, err = p.Parse("models.User load(cls, int id):")
	if err != nil {
		t.Fatal(err)
	}
	if fn, ok := d.(*FunctionDecl); !ok || fn.ReturnType.Render() != "models.User" || len(fn.Params) != 2 {
		t.Errorf("dotted custom keyword function = %#v", d)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		line    string
		format  bool
		segment string
	}{
		{line: "int f(@@@):", format: true, segment: "@@@"},
		{line: "int f(int a, b):", format: true, segment: "b"},
		{line: "int f(int a, , int b):", format: true, segment: ""},
		{line: "int f(int a =):", format: true, segment: "int a ="},
		{line: "int f(int *a = 1):", format: true, segment: "int *a = 1"},
		{line: "int f(types() a):", format: true, segment: "types()"},
		{line: "int f(int a"},
		{line: "int f(list[int a):"},
		{line: "list[int f(x):"},
		{line: "types(int, str x = 1"},
	}
	p := NewParser(nil)
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			_, err := p.Parse(tt.line)
			if tt.format {
				var fe *FormatError
				if !errors.As(err, &fe) {
					t.Fatalf("error = %v, want FormatError", err)
				}
				if fe.Segment != tt.segment {
					t.Errorf("Segment = %q, want %q", fe.Segment, tt.segment)
				}
				return
			}
			var ue *UnbalancedGroupingError
			if !errors.As(err, &ue) {
				t.Fatalf("error = %v, want UnbalancedGroupingError", err)
			}
		})
	}
}

func TestFormatErrorNamesSegment(t *testing.T) {
	_, err := NewParser(nil).Parse("int f(@@@):")
	if err == nil || !strings.Contains(err.Error(), "@@@") {
		t.Errorf("error %v should name the malformed argument", err)
	}
}
