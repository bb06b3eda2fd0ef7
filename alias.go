package brushgen

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/broady/brushgen/script"
)

// aliasFunc is the lookup function appended to every evaluated source.
const aliasFunc = "getAlias"

// aliasLookup returns the first alias of the first brush registered with
// SyntaxHighlighter.brushes. "First" is the interpreter's for-in order: goja
// lists integer-like keys in ascending order, then the remaining string keys
// in insertion order.
const aliasLookup = `function getAlias() {
    for (var item in SyntaxHighlighter.brushes) {
        return SyntaxHighlighter.brushes[item].aliases[0];
    }
}
`

// Source is a named script text.
type Source struct {
	Name string
	Text string
}

// ExtractAlias evaluates core, then target, then the alias lookup in one fresh
// environment and returns the first alias target registered.
//
// The three are concatenated and compiled as a single unit named
// "<core>+<target>", so error positions count lines from the start of core.
//
// Errors wrap ErrNoAlias when the lookup is missing or yields undefined, null
// or an empty string, and wrap a *script.Error when evaluation fails.
func ExtractAlias(ctx context.Context, ev script.Evaluator, core, target Source) (string, error) {
	var src strings.Builder
	src.Grow(len(core.Text) + len(target.Text) + len(aliasLookup) + 4)
	src.WriteString(core.Text)
	src.WriteString("\n\n")
	src.WriteString(target.Text)
	src.WriteString("\n\n")
	src.WriteString(aliasLookup)

	env, err := ev.Evaluate(ctx, core.Name+"+"+target.Name, src.String())
	if err != nil {
		return "", fmt.Errorf("evaluate %s with %s: %w", target.Name, core.Name, err)
	}

	v, err := env.Invoke(ctx, aliasFunc)
	if errors.Is(err, script.ErrNoFunction) {
		return "", fmt.Errorf("%w: %w", ErrNoAlias, err)
	}
	if err != nil {
		return "", fmt.Errorf("invoke %s: %w", aliasFunc, err)
	}

	if !v.IsDefined() {
		return "", fmt.Errorf("%w: %s returned %s", ErrNoAlias, aliasFunc, v)
	}
	alias := v.String()
	if alias == "" {
		return "", fmt.Errorf("%w: %s returned an empty string", ErrNoAlias, aliasFunc)
	}
	return alias, nil
}
