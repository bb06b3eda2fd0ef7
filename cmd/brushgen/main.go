package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	"github.com/broady/brushgen/cmd/brushgen/internal/check"
	"github.com/broady/brushgen/cmd/brushgen/internal/gen"
)

type CLI struct {
	LogLevel  string `help:"Log level (debug, info, warn, error)." default:"warn" enum:"debug,info,warn,error" env:"BRUSHGEN_LOG_LEVEL"`
	LogFormat string `help:"Log format (text, json)." default:"text" enum:"text,json" env:"BRUSHGEN_LOG_FORMAT"`

	Version VersionCmd `cmd:"" help:"Print version information."`
	Gen     gen.Cmd    `cmd:"" help:"Generate Java brush classes."`
	Check   check.Cmd  `cmd:"" help:"Resolve every brush alias without writing files."`
}

type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Println(Version())
	return nil
}

// newLogger builds the slog logger selected by the global flags.
func newLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	opts := &slog.HandlerOptions{Level: lvl}

	switch format {
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "text", "":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
}

func main() {
	cli := &CLI{}
	ctx := kong.Parse(cli,
		kong.Name("brushgen"),
		kong.Description("Generate Java SyntaxHighlighter brush classes from brush scripts."),
		kong.UsageOnError(),
	)

	logger, err := newLogger(os.Stderr, cli.LogLevel, cli.LogFormat)
	ctx.FatalIfErrorf(err)
	slog.SetDefault(logger)

	err = ctx.Run(logger)
	ctx.FatalIfErrorf(err)
}
