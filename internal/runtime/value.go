// Package runtime implements the tree-walking evaluator and runtime value
// system for lume.
package runtime

import (
	"fmt"
	"strconv"

	"lume-lang/internal/ast"
	"lume-lang/internal/token"
)

// Value is the interface for all runtime values.
type Value interface {
	TypeName() string
	String() string
}

// ---- Primitive values ----

// NumberVal represents a number. All lume numbers are float64.
type NumberVal float64

func (v NumberVal) TypeName() string { return "number" }
func (v NumberVal) String() string   { return strconv.FormatFloat(float64(v), 'g', -1, 64) }

// StringVal represents a string value.
type StringVal string

func (v StringVal) TypeName() string { return "string" }
func (v StringVal) String() string   { return string(v) }

// BoolVal represents a boolean value.
type BoolVal bool

func (v BoolVal) TypeName() string { return "boolean" }
func (v BoolVal) String() string   { return strconv.FormatBool(bool(v)) }

// NilVal represents nil.
type NilVal struct{}

func (v NilVal) TypeName() string { return "nil" }
func (v NilVal) String() string   { return "nil" }

// ---- Callable values ----

// FuncVal represents a user-defined function. Closure is the environment
// the function was declared in, not the one it is called from.
type FuncVal struct {
	Name    string // "<anonymous>" for function expressions
	Params  []token.Token
	Body    []ast.Stmt
	Closure *Environment
}

func (v *FuncVal) TypeName() string { return "function" }
func (v *FuncVal) String() string   { return fmt.Sprintf("<fn %s>", v.Name) }

// BuiltinFn is the Go signature for built-in functions.
type BuiltinFn func(args []Value) (Value, error)

// BuiltinVal represents a built-in (native) function.
type BuiltinVal struct {
	Name  string
	Arity int
	Fn    BuiltinFn
}

func (v *BuiltinVal) TypeName() string { return "function" }
func (v *BuiltinVal) String() string   { return "<native fn>" }

// ---- Truthiness and equality ----

// IsTruthy reports the truthiness of a value: nil and false are falsy,
// everything else (including 0 and "") is truthy.
func IsTruthy(v Value) bool {
	switch val := v.(type) {
	case NilVal:
		return false
	case BoolVal:
		return bool(val)
	default:
		return true
	}
}

// valuesEqual compares two values without type coercion: values of
// different kinds are never equal, nil equals only nil, and functions
// compare by reference.
func valuesEqual(a, b Value) bool {
	switch av := a.(type) {
	case NilVal:
		_, ok := b.(NilVal)
		return ok
	case NumberVal:
		bv, ok := b.(NumberVal)
		return ok && float64(av) == float64(bv)
	case StringVal:
		bv, ok := b.(StringVal)
		return ok && string(av) == string(bv)
	case BoolVal:
		bv, ok := b.(BoolVal)
		return ok && bool(av) == bool(bv)
	default:
		return a == b
	}
}
