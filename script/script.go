// Package script evaluates JavaScript sources to read metadata out of them at
// build time.
//
// An Evaluator produces an Environment from source text; functions defined by
// that source can then be invoked by name. Each call to Evaluate starts from a
// fresh interpreter, so environments never share state.
package script

import (
	"context"
	"errors"
	"fmt"
)

// Evaluator runs a script and returns the resulting global environment.
type Evaluator interface {
	// Evaluate compiles and runs source in a fresh interpreter. name is used in
	// error positions (e.g. "shBrushXml.js").
	Evaluate(ctx context.Context, name, source string) (Environment, error)
}

// Environment is the global state left behind by an evaluated script.
type Environment interface {
	// Invoke calls the global function fn. It returns an error wrapping
	// ErrNoFunction when fn is not defined or is not callable.
	Invoke(ctx context.Context, fn string, args ...any) (Value, error)
}

// Value is a script result.
type Value interface {
	// IsDefined reports whether the value is neither undefined nor null.
	IsDefined() bool

	// String coerces the value to a string using the language's own rules.
	String() string
}

// ErrNoFunction is returned by Invoke when the named function does not exist.
var ErrNoFunction = errors.New("function not defined")

// Phase tells where in the life of a script a failure happened.
type Phase string

const (
	PhaseCompile Phase = "compile"
	PhaseRuntime Phase = "runtime"
)

// Error is a compile or runtime failure reported by the interpreter.
type Error struct {
	Phase  Phase
	Source string // script or function name
	Cause  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s error in %s: %v", e.Phase, e.Source, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// FuncEvaluator adapts a function to the Evaluator interface.
type FuncEvaluator func(ctx context.Context, name, source string) (Environment, error)

// Evaluate calls f.
func (f FuncEvaluator) Evaluate(ctx context.Context, name, source string) (Environment, error) {
	return f(ctx, name, source)
}
