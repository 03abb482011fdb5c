// Package builtin holds the single canonical registry of host-provided
// functions. It is consulted by both the compiler (to seed global indices
// 0..B-1 in its prelude) and the VM (to construct matching runtime
// BuiltinFunctionRef values at init) - one source of truth replacing the
// source's separate __builtin_function_identifiers / fill_builtin_c_functions
// tables, per spec.md's design-notes redesign direction.
package builtin

import (
	"fmt"
	"strings"

	"nilan/value"
)

// Entry pairs a builtin's name with its host implementation. Canonical
// order (the order Registry lists them in) defines the global index both
// the compiler prelude and the VM init assign to that name.
type Entry struct {
	Name string
	Fn   func(args []value.Value) value.Value
}

// Registry is the canonical, ordered list of builtins. println must
// precede print only by convention; the order matters for index stability,
// not semantics.
var Registry = []Entry{
	{Name: "println", Fn: builtinPrintln},
	{Name: "print", Fn: builtinPrint},
}

func render(args []value.Value) string {
	var b strings.Builder
	for _, a := range args {
		b.WriteString(a.ToCstr())
	}
	return b.String()
}

func builtinPrintln(args []value.Value) value.Value {
	fmt.Println(render(args))
	return value.Unit()
}

func builtinPrint(args []value.Value) value.Value {
	fmt.Print(render(args))
	return value.Unit()
}

// Names returns the canonical builtin names in registry order.
func Names() []string {
	names := make([]string, len(Registry))
	for i, e := range Registry {
		names[i] = e.Name
	}
	return names
}

// Lookup returns the Entry for name and whether it was found.
func Lookup(name string) (Entry, bool) {
	for _, e := range Registry {
		if e.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}
