package compiler

import "testing"

func TestRegistryBuiltins(t *testing.T) {
	r := DefaultRegistry()
	for _, tok := range []string{"int", "str", "dict", "List", "Callable", "types", "void"} {
		if !r.Has(tok) {
			t.Errorf("builtin %q not registered", tok)
		}
	}
	for _, tok := range []string{"print", "return", "skip", "Logger"} {
		if r.Has(tok) {
			t.Errorf("%q should not be registered", tok)
		}
	}
}

func TestRegistryRegister(t *testing.T) {
	tests := []struct {
		tok     string
		wantErr bool
	}{
		{"Logger", false},
		{"models.User", false},
		{" Padded ", false},
		{"9lives", true},
		{"a-b", true},
		{"models.", true},
		{"", true},
		{"skip", true},
	}
	for _, tt := range tests {
		t.Run(tt.tok, func(t *testing.T) {
			r := DefaultRegistry()
			err := r.Register(tt.tok)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Register(%q) err = %v, wantErr %v", tt.tok, err, tt.wantErr)
			}
		})
	}
}

func TestRegistryNilIsEmpty(t *testing.T) {
	var r *Registry
	if r.Has("int") {
		t.Error("nil registry reported a token")
	}
}

func TestRegistryTokensSorted(t *testing.T) {
	r, err := NewRegistry("Zeta", "Alpha")
	if err != nil {
		t.Fatal(err)
	}
	toks := r.Tokens()
	for i := 1; i < len(toks); i++ {
		if toks[i-1] >= toks[i] {
			t.Fatalf("tokens not sorted at %d: %q >= %q", i, toks[i-1], toks[i])
		}
	}
}

func TestLeadingToken(t *testing.T) {
	tests := map[string]string{
		"int x = 1":           "int",
		"list[int] xs = []":   "list",
		"models.User u = x()": "models.User",
		"types(int, str) v":   "types",
		"self.x = 1":          "self.x",
		"3 + 4":               "",
		"x.":                  "x",
	}
	for in, want := range tests {
		if got := leadingToken(in); got != want {
			t.Errorf("leadingToken(%q) = %q, want %q", in, got, want)
		}
	}
}
