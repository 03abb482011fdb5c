// Package compile implements the compiler's pure compile-time collaborator:
// a stack of lexical scopes plus the growing global-symbol list, answering
// "is this name defined?" and "is this name already defined here?" before
// any opcode is emitted. Grounded on the teacher's ASTCompiler.locals /
// initialized bookkeeping, generalized into the single name-resolver
// spec.md's design notes call for (no separate global-list/scope-stack
// lookups, one walk that falls through innermost-first to the globals).
package compile

import (
	"fmt"

	"nilan/diag"
)

// NameError reports a compile-time name-resolution failure: either using
// an identifier never declared, or declaring one that shadows an existing
// binding, or exhausting the global-symbol list.
type NameError struct {
	Message string
}

func (e NameError) Error() string {
	return diag.Render("NameError", e.Message)
}

// Context is the compiler's scope stack. Scope 0 is the module scope and
// is always present; it is never popped.
type Context struct {
	scopes  []map[string]bool
	globals []string
}

// New constructs a Context with only the module scope open.
func New() *Context {
	return &Context{scopes: []map[string]bool{{}}}
}

// OpenScope pushes a fresh, empty lexical scope (entering a Block).
func (c *Context) OpenScope() {
	c.scopes = append(c.scopes, map[string]bool{})
}

// CloseScope pops the innermost lexical scope (leaving a Block). The
// module scope (index 0) is never popped.
func (c *Context) CloseScope() {
	if len(c.scopes) <= 1 {
		return
	}
	c.scopes = c.scopes[:len(c.scopes)-1]
}

// IsDefined reports whether name is visible in any open scope or already
// present in the global list.
func (c *Context) IsDefined(name string) bool {
	for i := len(c.scopes) - 1; i >= 0; i-- {
		if c.scopes[i][name] {
			return true
		}
	}
	return c.isGlobal(name)
}

func (c *Context) isGlobal(name string) bool {
	for _, g := range c.globals {
		if g == name {
			return true
		}
	}
	return false
}

// Declare inserts name into the innermost scope. The precondition - name
// not already visible anywhere - is the caller's responsibility to check
// via IsDefined; Declare itself returns a NameError if it is violated.
func (c *Context) Declare(name string) error {
	if c.IsDefined(name) {
		return NameError{Message: fmt.Sprintf("identifier `%s` is already defined", name)}
	}
	c.scopes[len(c.scopes)-1][name] = true
	return nil
}

// maxGlobals bounds the global-symbol list at the widest index the
// one-byte DEF_GLOBAL/LOAD_GLOBAL/SET_GLOBAL operand can address, per
// spec.md's one-byte operand width capping the constant pool and globals
// at 256 entries each - mirrored on pushConstant's identical bound.
const maxGlobals = 256

// DeclareGlobal appends name to the global-symbol list and returns its
// index, mirroring push_global. Builtin names are pre-loaded here at
// context init by the compiler's prelude before any `let` runs, so a
// colliding `let` trips the same "already defined" check as any other
// redeclaration. A 257th global would silently alias index 0 once narrowed
// to a single operand byte, so this is rejected here rather than left to
// wrap.
func (c *Context) DeclareGlobal(name string) (int, error) {
	if c.isGlobal(name) {
		return 0, NameError{Message: fmt.Sprintf("identifier `%s` is already defined", name)}
	}
	if len(c.globals) >= maxGlobals {
		return 0, NameError{Message: "global symbol list exhausted (256 entries, one-byte operand width)"}
	}
	c.globals = append(c.globals, name)
	return len(c.globals) - 1, nil
}

// ResolveGlobal looks up name's index in the global-symbol list.
func (c *Context) ResolveGlobal(name string) (int, bool) {
	for i, g := range c.globals {
		if g == name {
			return i, true
		}
	}
	return 0, false
}

// Globals returns the global-symbol list built so far, in declaration order.
func (c *Context) Globals() []string {
	return c.globals
}

// RequireDefined returns a NameError if name is not visible anywhere; used
// by the compiler before emitting a load/use of an identifier.
func (c *Context) RequireDefined(name string) error {
	if !c.IsDefined(name) {
		return NameError{Message: fmt.Sprintf("identifier `%s` was not defined", name)}
	}
	return nil
}
