// Package compiler translates .typy sources into Python.
//
// Each file is processed one physical line at a time:
//
//	SourceLine → Machine (protection directives) → Parser (declarations)
//	           → Normalize (type expressions) → Emitter → Unit
//
// Lines that are not declarations are copied through at their original
// indentation. Nothing is written by this package; callers flush the Unit.
package compiler
