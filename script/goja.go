package script

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dop251/goja"
)

// Goja is an Evaluator backed by the goja ECMAScript 5.1+ interpreter.
type Goja struct {
	logger *slog.Logger
}

// NewGoja creates a goja-backed Evaluator.
func NewGoja() *Goja {
	return &Goja{}
}

// WithLogger routes console.* output of evaluated scripts to logger at debug level.
// If not set, slog.Default() is used.
func (g *Goja) WithLogger(logger *slog.Logger) *Goja {
	g.logger = logger
	return g
}

// Evaluate compiles source and runs it in a new goja.Runtime.
// Cancelling ctx interrupts the running script.
func (g *Goja) Evaluate(ctx context.Context, name, source string) (Environment, error) {
	prog, err := goja.Compile(name, source, false)
	if err != nil {
		return nil, &Error{Phase: PhaseCompile, Source: name, Cause: err}
	}

	vm := goja.New()
	g.registerConsole(vm, name)

	if err := interruptible(ctx, vm, func() error {
		_, err := vm.RunProgram(prog)
		return err
	}); err != nil {
		return nil, &Error{Phase: PhaseRuntime, Source: name, Cause: err}
	}

	return &gojaEnv{vm: vm}, nil
}

func (g *Goja) registerConsole(vm *goja.Runtime, name string) {
	logger := g.logger
	if logger == nil {
		logger = slog.Default()
	}

	console := vm.NewObject()
	for _, level := range []string{"log", "info", "warn", "error", "debug"} {
		_ = console.Set(level, func(call goja.FunctionCall) goja.Value {
			parts := make([]string, len(call.Arguments))
			for i, arg := range call.Arguments {
				parts[i] = arg.String()
			}
			logger.Debug("script console",
				slog.String("script", name),
				slog.String("level", level),
				slog.String("message", strings.Join(parts, " ")),
			)
			return goja.Undefined()
		})
	}
	_ = vm.Set("console", console)
}

type gojaEnv struct {
	vm *goja.Runtime
}

func (e *gojaEnv) Invoke(ctx context.Context, fn string, args ...any) (Value, error) {
	callable, ok := goja.AssertFunction(e.vm.Get(fn))
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoFunction, fn)
	}

	vals := make([]goja.Value, len(args))
	for i, a := range args {
		vals[i] = e.vm.ToValue(a)
	}

	var res goja.Value
	if err := interruptible(ctx, e.vm, func() error {
		var err error
		res, err = callable(goja.Undefined(), vals...)
		return err
	}); err != nil {
		return nil, &Error{Phase: PhaseRuntime, Source: fn, Cause: err}
	}
	return gojaValue{v: res}, nil
}

type gojaValue struct {
	v goja.Value
}

func (v gojaValue) IsDefined() bool {
	return v.v != nil && !goja.IsUndefined(v.v) && !goja.IsNull(v.v)
}

func (v gojaValue) String() string {
	if v.v == nil {
		return "undefined"
	}
	return v.v.String()
}

// interruptible runs fn while ctx is live. When ctx ends, the runtime is
// interrupted and the context error is returned instead of goja's.
func interruptible(ctx context.Context, vm *goja.Runtime, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	stop := context.AfterFunc(ctx, func() {
		vm.Interrupt(ctx.Err())
	})
	defer stop()

	err := fn()
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		vm.ClearInterrupt()
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
	}
	return err
}
