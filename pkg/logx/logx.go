// Package logx is the console logger: plain log lines gated by verbosity, with
// the level tag coloured when writing to a terminal.
package logx

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"typyc/pkg/config"
)

type Logger struct {
	l     *log.Logger
	level config.Verbosity
	color bool

	errTag, warnTag, infoTag, traceTag string
}

// New returns a logger writing to w. color is auto, always or never.
func New(w io.Writer, level config.Verbosity, color string) *Logger {
	lg := &Logger{
		l:     log.New(w, "", 0),
		level: level,
		color: useColor(w, color),
	}
	lg.errTag = lg.tag("error", "9")
	lg.warnTag = lg.tag("warn", "11")
	lg.infoTag = lg.tag("info", "12")
	lg.traceTag = lg.tag("trace", "8")
	return lg
}

// FromConfig builds the stderr logger described by cfg.
func FromConfig(cfg *config.Config) *Logger {
	return New(os.Stderr, cfg.Logging.Verbosity, cfg.Logging.Color)
}

// Discard returns a logger that writes nothing.
func Discard() *Logger { return New(io.Discard, config.VerbosityNone, "never") }

func useColor(w io.Writer, mode string) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (lg *Logger) tag(name, color string) string {
	if !lg.color {
		return name + ":"
	}
	return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(color)).Render(name) + ":"
}

// Level returns the configured verbosity.
func (lg *Logger) Level() config.Verbosity { return lg.level }

// Errorf always prints.
func (lg *Logger) Errorf(format string, args ...any) {
	lg.l.Println(lg.errTag, fmt.Sprintf(format, args...))
}

// Warnf always prints; warnings are non-fatal compile diagnostics.
func (lg *Logger) Warnf(format string, args ...any) {
	lg.l.Println(lg.warnTag, fmt.Sprintf(format, args...))
}

// Infof prints at summary verbosity and above.
func (lg *Logger) Infof(format string, args ...any) {
	if lg.level >= config.VerbositySummary {
		lg.l.Println(lg.infoTag, fmt.Sprintf(format, args...))
	}
}

// Tracef prints at full verbosity.
func (lg *Logger) Tracef(format string, args ...any) {
	if lg.level >= config.VerbosityFull {
		lg.l.Println(lg.traceTag, fmt.Sprintf(format, args...))
	}
}

// LineTracer returns a compiler trace hook for path, or nil below full verbosity.
func (lg *Logger) LineTracer(path string) func(line int, src, out string) {
	if lg.level < config.VerbosityFull {
		return nil
	}
	return func(line int, src, out string) {
		lg.Tracef("%s:%d: %s -> %s", path, line, src, out)
	}
}
