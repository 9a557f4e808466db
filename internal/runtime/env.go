package runtime

import "fmt"

// Environment represents a variable scope with a parent chain. The frame
// with a nil parent is the global frame; it allows free redefinition so the
// REPL can re-declare names and builtins can be reseeded.
type Environment struct {
	values map[string]Value
	parent *Environment
}

// NewEnvironment creates a new environment with an optional parent scope.
// A nil parent makes this the global frame.
func NewEnvironment(parent *Environment) *Environment {
	return &Environment{
		values: make(map[string]Value),
		parent: parent,
	}
}

// Define declares a new variable in this frame. Redeclaration is an error
// everywhere except the global frame. The resolver rejects local
// redeclaration statically too; this guard covers dynamically reached
// paths the resolver never saw.
func (e *Environment) Define(name string, value Value) error {
	if e.parent != nil {
		if _, exists := e.values[name]; exists {
			return fmt.Errorf("Variable '%s' has already been declared.", name)
		}
	}
	e.values[name] = value
	return nil
}

// Get looks the name up in this frame only. References with a resolved
// distance go through GetAt; everything else is a global reference and the
// caller passes the global frame.
func (e *Environment) Get(name string) (Value, bool) {
	val, exists := e.values[name]
	return val, exists
}

// Assign overwrites the name in this frame only, reporting whether it was
// present.
func (e *Environment) Assign(name string, value Value) bool {
	if _, exists := e.values[name]; !exists {
		return false
	}
	e.values[name] = value
	return true
}

// GetAt looks the name up in the frame exactly distance links up the chain.
// No further search happens: the resolver already fixed the frame.
func (e *Environment) GetAt(distance int, name string) (Value, bool) {
	return e.ancestor(distance).Get(name)
}

// AssignAt overwrites the name in the frame exactly distance links up.
func (e *Environment) AssignAt(distance int, name string, value Value) bool {
	return e.ancestor(distance).Assign(name, value)
}

func (e *Environment) ancestor(distance int) *Environment {
	env := e
	for i := 0; i < distance; i++ {
		env = env.parent
	}
	return env
}
