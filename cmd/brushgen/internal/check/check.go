package check

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/broady/brushgen/cmd/brushgen/internal/inputs"
	"github.com/broady/brushgen/sink"
)

type Cmd struct {
	inputs.Flags `embed:""`
}

func (c *Cmd) Run(logger *slog.Logger) error {
	return c.run(context.Background(), logger, os.Stdout)
}

func (c *Cmd) run(ctx context.Context, logger *slog.Logger, stdout io.Writer) error {
	in, err := c.Resolve(logger)
	if err != nil {
		return err
	}

	out := sink.NewMemorySink()
	files, err := in.Generator(logger).GenerateAll(ctx, in.Descriptors, out)
	for _, f := range files {
		fmt.Fprintf(stdout, "✓ %s -> %s (%s)\n", f.Descriptor.HostType, f.Alias, f.Class)
	}
	if err != nil {
		return fmt.Errorf("%d of %d brushes failed: %w", len(in.Descriptors)-len(files), len(in.Descriptors), err)
	}

	fmt.Fprintf(stdout, "✓ %d brushes, %d files\n", len(files), out.Len())
	return nil
}
