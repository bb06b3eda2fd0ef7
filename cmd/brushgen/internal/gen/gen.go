package gen

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/broady/brushgen/cmd/brushgen/internal/inputs"
	"github.com/broady/brushgen/internal/watch"
	"github.com/broady/brushgen/sink"
)

type Cmd struct {
	Out string `arg:"" optional:"" help:"Output directory for generated sources (default: manifest out, or current directory)." type:"path"`

	inputs.Flags `embed:""`

	Watch       bool `help:"Watch scripts, sources and the manifest and regenerate on change." short:"w"`
	NoOverwrite bool `help:"Fail instead of replacing existing files."`
}

func (c *Cmd) Run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return c.run(ctx, logger, os.Stdout)
}

func (c *Cmd) run(ctx context.Context, logger *slog.Logger, stdout io.Writer) error {
	in, err := c.Resolve(logger)
	if err != nil {
		return err
	}
	// absolute paths written so far; watch mode ignores its own output
	generated := make(map[string]bool)
	genErr := c.generate(ctx, logger, stdout, in, generated)
	if !c.Watch {
		return genErr
	}

	opts := watch.Options{
		Skip:   func(path string) bool { return generated[path] },
		Logger: logger,
	}
	// The output directory can only be ignored as a whole when no watched
	// path lives inside it, as with the default "." for both.
	if outDir := c.outDir(in); !containsAny(outDir, in.WatchPaths) {
		opts.Ignore = []string{outDir}
	}
	w, err := watch.New(opts, in.WatchPaths...)
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	fmt.Fprintf(stdout, "Watching %d paths for changes (Ctrl-C to stop)\n", len(in.WatchPaths))

	return w.Run(ctx, func(ctx context.Context) error {
		// the manifest itself may have changed
		in, err := c.Resolve(logger)
		if err != nil {
			return err
		}
		return c.generate(ctx, logger, stdout, in, generated)
	})
}

func (c *Cmd) generate(ctx context.Context, logger *slog.Logger, stdout io.Writer, in *inputs.Inputs, generated map[string]bool) error {
	outDir := c.outDir(in)
	out := sink.NewFilesystemSink(outDir)
	out.Overwrite = !c.NoOverwrite

	files, err := in.Generator(logger).GenerateAll(ctx, in.Descriptors, out)
	for _, f := range files {
		path := filepath.Join(outDir, filepath.FromSlash(f.Path))
		if abs, err := filepath.Abs(path); err == nil {
			generated[abs] = true
		}
		fmt.Fprintf(stdout, "✓ Generated %s (%s)\n", path, f.Alias)
	}
	if err != nil {
		return fmt.Errorf("%d of %d brushes failed: %w", len(in.Descriptors)-len(files), len(in.Descriptors), err)
	}
	return nil
}

func (c *Cmd) outDir(in *inputs.Inputs) string {
	switch {
	case c.Out != "":
		return c.Out
	case in.OutDir != "":
		return in.OutDir
	default:
		return "."
	}
}

// containsAny reports whether dir is, or is an ancestor of, any of paths.
func containsAny(dir string, paths []string) bool {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return true
	}
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			continue
		}
		if rel, err := filepath.Rel(dir, abs); err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return true
		}
	}
	return false
}
