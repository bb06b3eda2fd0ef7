// Package inputs merges command-line flags, the manifest and scanned Java
// sources into one generation run.
package inputs

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"time"

	"github.com/broady/brushgen"
	"github.com/broady/brushgen/classpath"
	"github.com/broady/brushgen/internal/javascan"
	"github.com/broady/brushgen/internal/manifest"
	"github.com/broady/brushgen/script"
)

// Flags are shared by the gen and check commands. Flags win over the manifest.
type Flags struct {
	Manifest    string        `help:"Manifest file (default: nearest brushgen.toml)." short:"m" type:"path" env:"BRUSHGEN_MANIFEST"`
	NoManifest  bool          `help:"Do not look for a brushgen.toml."`
	Brush       []string      `help:"Brush descriptor, e.g. 'type=com.example.BrushXml&script=shBrushXml.js'. Repeatable." short:"b" sep:"none"`
	Scan        []string      `help:"Java source directories to scan for @Source annotated brushes." type:"path" env:"BRUSHGEN_SCAN"`
	Classpath   []string      `help:"Directories holding brush scripts, searched in order." short:"c" type:"path" env:"BRUSHGEN_CLASSPATH"`
	Search      []string      `help:"Path prefixes tried for every script name." env:"BRUSHGEN_SEARCH"`
	Core        string        `help:"Core script name (default: shCore.js)." env:"BRUSHGEN_CORE"`
	Concurrency int           `help:"Maximum parallel generations." short:"j" env:"BRUSHGEN_CONCURRENCY"`
	Timeout     time.Duration `help:"Per-brush time limit, e.g. 30s (0 disables)." env:"BRUSHGEN_TIMEOUT"`
}

// Inputs is a resolved generation run.
type Inputs struct {
	// ManifestPath is the loaded manifest, or "" if none was used.
	ManifestPath string

	// OutDir is the manifest's output directory, or "".
	OutDir string

	Descriptors []brushgen.Descriptor
	Classpath   *classpath.Classpath
	Config      brushgen.Config

	// WatchPaths are the files and directories whose changes affect the run.
	WatchPaths []string
}

// Resolve reads the manifest, parses --brush values and scans source
// directories. It fails if no brush is found at all.
func (f *Flags) Resolve(logger *slog.Logger) (*Inputs, error) {
	in := &Inputs{}

	m, err := f.loadManifest()
	if err != nil {
		return nil, err
	}

	var (
		cpDirs   []string
		search   []string
		scanDirs = slices.Clone(f.Scan)
	)
	if m != nil {
		in.ManifestPath = f.manifestPath(m)
		in.OutDir = m.OutDir()
		in.Config = m.Config()
		in.Descriptors = append(in.Descriptors, m.Brushes...)
		cpDirs = m.ClasspathDirs()
		search = m.Search
		scanDirs = append(scanDirs, m.ScanDirs()...)
		in.WatchPaths = append(in.WatchPaths, in.ManifestPath)
		logger.Debug("loaded manifest", slog.String("path", in.ManifestPath), slog.Int("brushes", len(m.Brushes)))
	}

	if len(f.Classpath) > 0 {
		cpDirs = f.Classpath
	}
	if len(cpDirs) == 0 {
		cpDirs = []string{"."}
	}
	if f.Search != nil {
		search = f.Search
	}
	if f.Core != "" {
		in.Config.CoreScript = f.Core
	}
	if f.Concurrency > 0 {
		in.Config.Concurrency = f.Concurrency
	}
	if f.Timeout > 0 {
		in.Config.Timeout = f.Timeout
	}

	for _, q := range f.Brush {
		d, err := brushgen.ParseDescriptor(q)
		if err != nil {
			return nil, fmt.Errorf("--brush %s: %w", q, err)
		}
		in.Descriptors = append(in.Descriptors, d)
	}

	for _, dir := range scanDirs {
		found, err := javascan.ScanDir(dir)
		if err != nil {
			return nil, err
		}
		for _, b := range found {
			logger.Debug("found brush",
				slog.String("type", b.Descriptor.HostType),
				slog.String("script", b.Descriptor.Script),
				slog.String("pos", b.Pos.String()),
			)
			in.Descriptors = append(in.Descriptors, b.Descriptor)
		}
	}
	in.Descriptors = dedupe(in.Descriptors)

	if len(in.Descriptors) == 0 {
		return nil, errors.New("no brushes to generate: use --brush, --scan or a manifest")
	}

	in.Classpath = classpath.New(search, classpath.Dirs(cpDirs...)...)
	in.WatchPaths = append(in.WatchPaths, cpDirs...)
	in.WatchPaths = append(in.WatchPaths, scanDirs...)
	return in, nil
}

// Generator returns a generator for the run.
func (in *Inputs) Generator(logger *slog.Logger) *brushgen.Generator {
	ev := script.NewGoja().WithLogger(logger)
	return brushgen.New(in.Classpath, ev).
		WithConfig(in.Config).
		WithLogger(logger)
}

func (f *Flags) loadManifest() (*manifest.Manifest, error) {
	path := f.Manifest
	if path == "" {
		if f.NoManifest {
			return nil, nil
		}
		found, err := manifest.Find(".")
		if err != nil {
			return nil, err
		}
		if found == "" {
			return nil, nil
		}
		path = found
	}
	return manifest.Load(path)
}

func (f *Flags) manifestPath(m *manifest.Manifest) string {
	if f.Manifest != "" {
		return f.Manifest
	}
	return filepath.Join(m.Dir, manifest.DefaultName)
}

// dedupe drops repeats of the same type and script, which happen when a
// brush is both listed in the manifest and found by a scan. The first
// occurrence wins.
func dedupe(ds []brushgen.Descriptor) []brushgen.Descriptor {
	type key struct{ host, script string }
	seen := make(map[key]bool, len(ds))
	var out []brushgen.Descriptor
	for _, d := range ds {
		k := key{d.HostType, d.Script}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, d)
	}
	return out
}
