// Package enforce holds the Python runtime that compiled output uses to check
// declared types, plus the exact text of the lines the emitter injects to call it.
//
// The runtime is generated once per compilation with its reporting mode baked in:
// strict raises TypeMismatchError, lenient prints a TypeMismatchWarning to stderr and
// lets the call proceed.
package enforce

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"
	"text/template"
)

//go:embed runtime.py.tmpl
var runtimeTemplate string

// Names exported into every enforced output file.
const (
	CheckFunc     = "check"
	DecoratorFunc = "enforce_types"
	ErrorType     = "TypeMismatchError"
	WarningType   = "TypeMismatchWarning"
)

// Typing lists the typing names the runtime imports at module level, so enforced
// output never needs a separate import line for them.
var Typing = []string{
	"Annotated", "Any", "Callable", "Dict", "Final", "FrozenSet",
	"List", "Literal", "Optional", "Set", "Tuple", "Union",
}

var (
	tmplOnce sync.Once
	tmpl     *template.Template
	tmplErr  error

	rendered sync.Map // bool -> string
)

func parsed() (*template.Template, error) {
	tmplOnce.Do(func() {
		tmpl, tmplErr = template.New("runtime").Delims("<%", "%>").Parse(runtimeTemplate)
	})
	return tmpl, tmplErr
}

// Library returns the runtime source for the given mode. The text always ends with
// a newline and is identical for every call with the same mode.
func Library(strict bool) string {
	if v, ok := rendered.Load(strict); ok {
		return v.(string)
	}
	t, err := parsed()
	if err != nil {
		// the template is embedded; a parse failure is a build defect
		panic(fmt.Sprintf("enforce: runtime template: %v", err))
	}
	var b strings.Builder
	if err := t.Execute(&b, struct{ Strict bool }{strict}); err != nil {
		panic(fmt.Sprintf("enforce: render runtime: %v", err))
	}
	out := b.String()
	if !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	v, _ := rendered.LoadOrStore(strict, out)
	return v.(string)
}

// Decorator is the wrapper line placed directly above an enforced def.
func Decorator(strict bool) string {
	return fmt.Sprintf("@%s(strict=%s)", DecoratorFunc, pyBool(strict))
}

// CheckCall is the inline statement appended to an enforced variable declaration.
func CheckCall(name, typ string, strict bool) string {
	return fmt.Sprintf("%s(%s, %s, %s)", CheckFunc, name, typ, pyBool(strict))
}

func pyBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}
