package compiler

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

const counterSource = `class Counter:
    int start = 0

    void __init__(self, int start = 0):
        self.start = start

    int bump(self, int by = 1):
        int total = self.start + by
        return total

types(int, str) label = "x"
Counter c = Counter(2)  # custom keyword
print(c.bump(3))
print(label)

skip
x = int("5")

try:
    c.bump("no")
except TypeMismatchError as e:
    print("error:", e)
`

func TestCompiledProgramRuns(t *testing.T) {
	py, err := exec.LookPath("python3")
	if err != nil {
		t.Skip("python3 not available")
	}
	if exec.Command(py, "-c", "import sys; sys.exit(sys.version_info < (3, 9))").Run() != nil {
		t.Skip("python3 >= 3.9 required")
	}

	reg, err := NewRegistry("Counter")
	if err != nil {
		t.Fatal(err)
	}
	u, err := Compile(counterSource, Options{Strict: true, Registry: reg})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	path := filepath.Join(t.TempDir(), "counter.py")
	if err := os.WriteFile(path, u.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	out, err := exec.Command(py, path).CombinedOutput()
	if err != nil {
		t.Fatalf("python failed: %v\n%s\n--- source ---\n%s", err, out, u.String())
	}
	want := "5\nx\nerror: Counter.bump(by): expected int, got str\n"
	if string(out) != want {
		t.Errorf("output = %q, want %q", out, want)
	}
}

func TestCompiledContinuedValueRuns(t *testing.T) {
	py, err := exec.LookPath("python3")
	if err != nil {
		t.Skip("python3 not available")
	}
	if exec.Command(py, "-c", "import sys; sys.exit(sys.version_info < (3, 9))").Run() != nil {
		t.Skip("python3 >= 3.9 required")
	}

	src := "list[int] xs = [\n    1,\n    2,\n]\nint total = sum(xs)\nprint(total)\n"
	u, err := Compile(src, Options{Strict: true})
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "continued.py")
	if err := os.WriteFile(path, u.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	out, err := exec.Command(py, path).CombinedOutput()
	if err != nil {
		t.Fatalf("python failed: %v\n%s\n--- source ---\n%s", err, out, u.String())
	}
	if got := strings.TrimSpace(string(out)); got != "3" {
		t.Errorf("output = %q", got)
	}
}

func TestCompiledProgramUnenforced(t *testing.T) {
	py, err := exec.LookPath("python3")
	if err != nil {
		t.Skip("python3 not available")
	}

	src := "List[int] xs = [1, 2]\ntypes(int, void) pick(Dict[str, int] m, str k):\n    return m.get(k)\nprint(pick({'a': 1}, 'a'), xs)\n"
	u, err := Compile(src, Options{})
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "plain.py")
	if err := os.WriteFile(path, u.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	out, err := exec.Command(py, path).CombinedOutput()
	if err != nil {
		t.Fatalf("python failed: %v\n%s", err, out)
	}
	if got := strings.TrimSpace(string(out)); got != "1 [1, 2]" {
		t.Errorf("output = %q", got)
	}
}
