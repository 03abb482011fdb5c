// Package value implements the tagged runtime value model the virtual
// machine operates on: a sum type over Unit, Integer, Boolean, a reference
// to a host builtin function, and heap-backed objects (strings today,
// functions reserved), each with its own vtable of supported operations.
package value

import (
	"fmt"

	"nilan/diag"
)

// Tag discriminates the variant a Value holds.
type Tag byte

const (
	TagUnit Tag = iota
	TagInteger
	TagBoolean
	TagBuiltinFunctionRef
	TagObject
)

func (t Tag) String() string {
	switch t {
	case TagUnit:
		return "Unit"
	case TagInteger:
		return "Integer"
	case TagBoolean:
		return "Boolean"
	case TagBuiltinFunctionRef:
		return "BuiltinFunctionRef"
	case TagObject:
		return "Object"
	default:
		return "Unknown"
	}
}

// ObjectTag discriminates the payload behind TagObject.
type ObjectTag byte

const (
	ObjString ObjectTag = iota
	ObjFunction
)

// StringObj is a heap-allocated, immutable byte buffer. Concatenation
// always allocates a fresh StringObj rather than mutating in place.
type StringObj struct {
	Bytes []byte
}

// FunctionObj is the reserved payload for user-defined functions; the
// compiler and VM construct the shape but never execute through it today.
type FunctionObj struct {
	Arity       int
	BodyOpcodes []byte
	Name        string
}

// Object is the heap header shared by every TagObject value.
type Object struct {
	Tag      ObjectTag
	Str      *StringObj
	Function *FunctionObj
	Refcount uint32
}

// BuiltinFunction is a host callable exposed to EARL source under a name.
type BuiltinFunction struct {
	Name string
	Fn   func(args []Value) Value
}

// Value is the runtime's tagged sum type. Only the field matching Tag is
// meaningful; the others are zero.
type Value struct {
	Tag     Tag
	Int     int32
	Bool    bool
	Builtin *BuiltinFunction
	Obj     *Object
}

// Unit is the distinguished "no value" result.
func Unit() Value { return Value{Tag: TagUnit} }

// Int32 wraps a signed 32-bit integer.
func Int32(i int32) Value { return Value{Tag: TagInteger, Int: i} }

// Bool wraps a boolean, produced by comparisons and logical not in this implementation.
func Bool(b bool) Value { return Value{Tag: TagBoolean, Bool: b} }

// BuiltinRef wraps a reference to a host builtin function.
func BuiltinRef(fn *BuiltinFunction) Value { return Value{Tag: TagBuiltinFunctionRef, Builtin: fn} }

// NewString allocates a fresh heap-backed string object.
func NewString(s string) Value {
	return Value{Tag: TagObject, Obj: &Object{Tag: ObjString, Str: &StringObj{Bytes: []byte(s)}, Refcount: 1}}
}

// TypeError reports an unsupported operation for a value's tag, or an
// incompatible-tag pairing in a binary operation.
type TypeError struct {
	Message string
}

func (e TypeError) Error() string {
	return diag.Render("TypeError", e.Message)
}

func unsupported(op string, v Value) error {
	return TypeError{Message: fmt.Sprintf("operation '%s' is not supported for type %s", op, v.Tag)}
}

func incompatible(op string, a, b Value) error {
	return TypeError{Message: fmt.Sprintf("incompatible types for '%s': %s and %s", op, a.Tag, b.Tag)}
}

// compatible reports whether a and b may appear together in a binary
// operation: two Integers are compatible, two Object(String)s are
// compatible, nothing else is. This is the explicit per-tag table spec.md
// calls for - reflexive, not transitive.
func compatible(a, b Value) bool {
	if a.Tag != b.Tag {
		return false
	}
	switch a.Tag {
	case TagInteger:
		return true
	case TagObject:
		return a.Obj != nil && b.Obj != nil && a.Obj.Tag == ObjString && b.Obj.Tag == ObjString
	default:
		return false
	}
}

// ToCstr renders the value the way println/print consume it.
func (v Value) ToCstr() string {
	switch v.Tag {
	case TagUnit:
		return "Unit"
	case TagInteger:
		return fmt.Sprintf("%d", v.Int)
	case TagBoolean:
		if v.Bool {
			return "true"
		}
		return "false"
	case TagBuiltinFunctionRef:
		return "<builtin>"
	case TagObject:
		if v.Obj != nil && v.Obj.Tag == ObjString {
			return string(v.Obj.Str.Bytes)
		}
		return "<object>"
	default:
		return "<unknown>"
	}
}

// Add implements "+": Integer addition (wrapping two's complement) and
// Object(String) concatenation (always a fresh allocation). Everything
// else is a TypeError.
func (v Value) Add(other Value) (Value, error) {
	if !compatible(v, other) {
		return Value{}, incompatible("add", v, other)
	}
	switch v.Tag {
	case TagInteger:
		return Int32(v.Int + other.Int), nil
	case TagObject:
		concatenated := append(append([]byte{}, v.Obj.Str.Bytes...), other.Obj.Str.Bytes...)
		return Value{Tag: TagObject, Obj: &Object{Tag: ObjString, Str: &StringObj{Bytes: concatenated}, Refcount: 1}}, nil
	default:
		return Value{}, unsupported("add", v)
	}
}

// Sub implements "-": Integer only.
func (v Value) Sub(other Value) (Value, error) {
	if v.Tag != TagInteger {
		return Value{}, unsupported("sub", v)
	}
	if !compatible(v, other) {
		return Value{}, incompatible("sub", v, other)
	}
	return Int32(v.Int - other.Int), nil
}

// Mul implements "*": Integer only.
func (v Value) Mul(other Value) (Value, error) {
	if v.Tag != TagInteger {
		return Value{}, unsupported("mul", v)
	}
	if !compatible(v, other) {
		return Value{}, incompatible("mul", v, other)
	}
	return Int32(v.Int * other.Int), nil
}

// ArithError reports division/modulo by zero - fatal, non-trapping per
// spec, distinct from TypeError.
type ArithError struct {
	Message string
}

func (e ArithError) Error() string {
	return diag.Render("ArithError", e.Message)
}

// Div implements "/": Integer only, division by zero is an ArithError.
func (v Value) Div(other Value) (Value, error) {
	if v.Tag != TagInteger {
		return Value{}, unsupported("div", v)
	}
	if !compatible(v, other) {
		return Value{}, incompatible("div", v, other)
	}
	if other.Int == 0 {
		return Value{}, ArithError{Message: "division by zero"}
	}
	return Int32(v.Int / other.Int), nil
}

// Mod implements "%": Integer only, modulo by zero is an ArithError.
func (v Value) Mod(other Value) (Value, error) {
	if v.Tag != TagInteger {
		return Value{}, unsupported("mod", v)
	}
	if !compatible(v, other) {
		return Value{}, incompatible("mod", v, other)
	}
	if other.Int == 0 {
		return Value{}, ArithError{Message: "modulo by zero"}
	}
	return Int32(v.Int % other.Int), nil
}

// Mutate overwrites v's payload in place with other's, used by SET_GLOBAL.
// Only Integer and Boolean support in-place mutation.
func (v *Value) Mutate(other Value) error {
	switch v.Tag {
	case TagInteger:
		if other.Tag != TagInteger {
			return incompatible("mutate", *v, other)
		}
		v.Int = other.Int
		return nil
	case TagBoolean:
		if other.Tag != TagBoolean {
			return incompatible("mutate", *v, other)
		}
		v.Bool = other.Bool
		return nil
	default:
		return unsupported("mutate", *v)
	}
}

// IsTruthy implements branch/condition truthiness: Integer is truthy when
// nonzero, Boolean is truthy by its own payload. Every other tag is a
// TypeError - there is no implicit truthiness coercion.
func (v Value) IsTruthy() (bool, error) {
	switch v.Tag {
	case TagInteger:
		return v.Int != 0, nil
	case TagBoolean:
		return v.Bool, nil
	default:
		return false, unsupported("is_truthy", v)
	}
}

// Eq implements structural equality among compatible tags; BuiltinFnRef
// compares by pointer identity, Object(String) compares bytewise. Unlike
// the other operations, every tag supports eq/neq.
func (v Value) Eq(other Value) bool {
	if v.Tag != other.Tag {
		return false
	}
	switch v.Tag {
	case TagUnit:
		return true
	case TagInteger:
		return v.Int == other.Int
	case TagBoolean:
		return v.Bool == other.Bool
	case TagBuiltinFunctionRef:
		return v.Builtin == other.Builtin
	case TagObject:
		if v.Obj == nil || other.Obj == nil || v.Obj.Tag != other.Obj.Tag {
			return false
		}
		if v.Obj.Tag != ObjString {
			return v.Obj == other.Obj
		}
		return string(v.Obj.Str.Bytes) == string(other.Obj.Str.Bytes)
	default:
		return false
	}
}

// Neq is the negation of Eq.
func (v Value) Neq(other Value) bool {
	return !v.Eq(other)
}

// Identifier is a global binding: a name, its current value, and a
// reserved refcount field (single-owner model today: the globals map owns
// each record).
type Identifier struct {
	Name     string
	Value    Value
	Refcount uint32
}
