package brushgen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/broady/brushgen/classpath"
	"github.com/broady/brushgen/javasrc"
	"github.com/broady/brushgen/script"
	"github.com/broady/brushgen/sink"
	"golang.org/x/sync/errgroup"
)

// File is one generated compilation unit.
type File struct {
	// Descriptor is the input the file was generated from.
	Descriptor Descriptor

	// Path is the slash-separated output path, e.g.
	// "com/example/com_example_BrushXml_shBrushXml_js.java".
	Path string

	// Class is the qualified name of the generated class.
	Class string

	// Alias is the brush alias extracted from the script.
	Alias string

	// Script is the classpath-relative path of the brush script.
	Script string

	Content []byte
}

// Generator turns brush descriptors into Java brush classes.
// A Generator holds no per-run state; every Generate call reads its own
// resources and evaluates in its own environment, so one Generator can serve
// concurrent calls as long as its Evaluator can.
type Generator struct {
	cfg       Config
	classpath *classpath.Classpath
	evaluator script.Evaluator
	logger    *slog.Logger
}

// New creates a Generator reading scripts from cp and extracting aliases with ev.
func New(cp *classpath.Classpath, ev script.Evaluator) *Generator {
	return &Generator{
		classpath: cp,
		evaluator: ev,
	}
}

// WithConfig replaces the generator configuration.
func (g *Generator) WithConfig(cfg Config) *Generator {
	g.cfg = cfg
	return g
}

// WithClasspath replaces the classpath scripts are read from.
func (g *Generator) WithClasspath(cp *classpath.Classpath) *Generator {
	g.classpath = cp
	return g
}

// WithEvaluator replaces the script evaluator.
func (g *Generator) WithEvaluator(ev script.Evaluator) *Generator {
	g.evaluator = ev
	return g
}

// WithLogger sets the logger for generation diagnostics.
// If not set, slog.Default() will be used.
func (g *Generator) WithLogger(logger *slog.Logger) *Generator {
	g.logger = logger
	return g
}

func (g *Generator) log() *slog.Logger {
	if g.logger == nil {
		return slog.Default()
	}
	return g.logger
}

// Generate produces the brush class for d. Nothing is written; see GenerateAll.
//
// Failures are logged and returned as *Error values matching
// ErrUnableToComplete. Checks run in a fixed order: descriptor fields, the
// interface precondition (before any resource access), script lookup (before
// any evaluation), alias extraction.
func (g *Generator) Generate(ctx context.Context, d Descriptor) (*File, error) {
	cfg := applyConfigDefaults(g.cfg)
	logger := g.log().With(slog.String("type", d.HostType))

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	f, err := g.generate(ctx, cfg, d, logger)
	if err != nil {
		logger.Error("brush generation failed",
			slog.String("script", d.Script),
			slog.Any("error", err),
		)
		return nil, err
	}
	return f, nil
}

func (g *Generator) generate(ctx context.Context, cfg Config, d Descriptor, logger *slog.Logger) (*File, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	if !d.IsInterface() {
		return nil, Errorf(KindConfig, "brush %q must be an interface, not %s", d.HostType, d.Kind).withType(d.HostType)
	}
	name := d.TypeName()
	if !javasrc.IsIdentifier(name) {
		return nil, Errorf(KindConfig, "script %q does not yield a legal class name (got %q)", d.Script, name).withType(d.HostType)
	}
	if g.classpath == nil || g.evaluator == nil {
		return nil, Errorf(KindConfig, "generator needs a classpath and an evaluator").withType(d.HostType)
	}

	scriptPath, err := g.classpath.Locate(d.Script)
	if err != nil {
		return nil, Errorf(KindResource, "unable to locate brush script %q", d.Script).withType(d.HostType).withCause(err)
	}
	logger.Debug("brush script located", slog.String("path", scriptPath))

	corePath, err := g.classpath.Locate(cfg.CoreScript)
	if err != nil {
		return nil, Errorf(KindResource, "unable to locate core script %q", cfg.CoreScript).withType(d.HostType).withCause(err)
	}
	coreText, err := g.classpath.ReadText(corePath)
	if err != nil {
		return nil, Errorf(KindResource, "read core script").withType(d.HostType).withCause(err)
	}
	scriptText, err := g.classpath.ReadText(scriptPath)
	if err != nil {
		return nil, Errorf(KindResource, "read brush script").withType(d.HostType).withCause(err)
	}

	logger.Debug("retrieving brush alias", slog.String("script", scriptPath))
	alias, err := ExtractAlias(ctx, g.evaluator,
		Source{Name: corePath, Text: coreText},
		Source{Name: scriptPath, Text: scriptText},
	)
	switch {
	case errors.Is(err, ErrNoAlias):
		return nil, Errorf(KindScript, "could not get the alias for %q", scriptPath).withType(d.HostType).withCause(err)
	case err != nil:
		return nil, Errorf(KindScript, "evaluate %q", scriptPath).withType(d.HostType).withCause(err)
	}
	logger.Debug("brush alias", slog.String("alias", alias))

	header := cfg.Header
	if header == "" {
		header = fmt.Sprintf("Code generated by brushgen from %s. DO NOT EDIT.", scriptPath)
	}
	composer := &javasrc.ClassComposer{
		Header:     header,
		Package:    d.Package(),
		Name:       name,
		Superclass: cfg.Superclass,
		Interfaces: []string{d.HostType},
		Imports:    cfg.Imports,
	}
	content, err := composer.Compose(func(w *javasrc.SourceWriter) {
		EmitBrush(w, Brush{Name: name, Alias: alias, Source: scriptPath})
	})
	if err != nil {
		return nil, Errorf(KindConfig, "compose %s", name).withType(d.HostType).withCause(err)
	}

	class := name
	if pkg := d.Package(); pkg != "" {
		class = pkg + "." + name
	}
	return &File{
		Descriptor: d,
		Path:       composer.Path(),
		Class:      class,
		Alias:      alias,
		Script:     scriptPath,
		Content:    content,
	}, nil
}

// GenerateAll generates every descriptor and writes each successful result to
// out. At most Config.Concurrency generations run at once. A failed
// descriptor writes nothing and does not stop the others; the returned error
// joins every failure and the returned files are the successes in input
// order. Descriptors that would produce the same class are rejected up front.
func (g *Generator) GenerateAll(ctx context.Context, ds []Descriptor, out sink.OutputSink) ([]*File, error) {
	cfg := applyConfigDefaults(g.cfg)

	seen := make(map[string]Descriptor, len(ds))
	for _, d := range ds {
		key := d.Package() + "." + d.TypeName()
		if prev, ok := seen[key]; ok {
			return nil, Errorf(KindConfig, "%s and %s both generate %s", prev, d, d.TypeName()).withType(d.HostType)
		}
		seen[key] = d
	}

	files := make([]*File, len(ds))
	errs := make([]error, len(ds))

	var eg errgroup.Group
	eg.SetLimit(cfg.Concurrency)
	for i, d := range ds {
		eg.Go(func() error {
			f, err := g.Generate(ctx, d)
			if err != nil {
				errs[i] = err
				return nil
			}
			if out != nil {
				if err := out.WriteFile(ctx, f.Path, f.Content); err != nil {
					werr := Errorf(KindResource, "write %s", f.Path).withType(d.HostType).withCause(err)
					g.log().Error("brush generation failed",
						slog.String("type", d.HostType),
						slog.Any("error", werr),
					)
					errs[i] = werr
					return nil
				}
			}
			g.log().Info("generated brush",
				slog.String("type", d.HostType),
				slog.String("class", f.Class),
				slog.String("alias", f.Alias),
			)
			files[i] = f
			return nil
		})
	}
	_ = eg.Wait()

	done := make([]*File, 0, len(files))
	for _, f := range files {
		if f != nil {
			done = append(done, f)
		}
	}
	return done, errors.Join(errs...)
}
