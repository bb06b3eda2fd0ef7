// Package manifest handles brushgen.toml generation manifests.
//
// A manifest names the classpath, the output directory and the brushes of a
// generation run:
//
//	out = "gen"
//	classpath = ["src/main/resources"]
//	search = ["", "com/alexgorbatchev/syntaxhighlighter/public/scripts/"]
//	core = "shCore.js"
//	concurrency = 4
//	timeout = "30s"
//
//	[[brush]]
//	type = "com.example.BrushXml"
//	script = "shBrushXml.js"
//
// Relative paths are resolved against the directory holding the manifest.
package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/broady/brushgen"
	"github.com/go-playground/validator/v10"
)

// DefaultName is the manifest file name looked up by Find.
const DefaultName = "brushgen.toml"

var validate = validator.New()

// Manifest is a decoded brushgen.toml.
type Manifest struct {
	// Out is the output directory for generated sources.
	Out string `toml:"out"`

	// Classpath lists resource directories, searched in order.
	Classpath []string `toml:"classpath"`

	// Search lists path prefixes tried for every script name. Nil keeps the
	// classpath default.
	Search []string `toml:"search"`

	// Core overrides the core script name.
	Core string `toml:"core"`

	// Concurrency bounds parallel generations.
	Concurrency int `toml:"concurrency" validate:"gte=0"`

	// Timeout bounds one generation, e.g. "30s".
	Timeout time.Duration `toml:"timeout" validate:"gte=0"`

	// Scan lists Java source directories searched for annotated brushes.
	Scan []string `toml:"scan"`

	Brushes []brushgen.Descriptor `toml:"brush"`

	// Dir is the directory containing the manifest file (set at load time).
	Dir string `toml:"-"`
}

// Load parses the manifest at path.
//
// Keys that do not map to a manifest field are an error, as is a brush entry
// that fails descriptor validation.
func Load(path string) (*Manifest, error) {
	var m Manifest
	md, err := toml.DecodeFile(path, &m)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}

	m.Dir, err = filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", path, err)
	}

	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &m, nil
}

// Find walks up from startDir looking for a brushgen.toml file and returns
// its path, or "" if there is none.
func Find(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		path := filepath.Join(dir, DefaultName)
		if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
			return path, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

// Validate checks the manifest fields and every brush entry.
func (m *Manifest) Validate() error {
	if err := validate.Struct(m); err != nil {
		var valErrs validator.ValidationErrors
		if errors.As(err, &valErrs) {
			msgs := make([]string, len(valErrs))
			for i, ve := range valErrs {
				msgs[i] = fmt.Sprintf("%s: must be at least %s", strings.ToLower(ve.Field()), ve.Param())
			}
			return errors.New(strings.Join(msgs, "; "))
		}
		return err
	}

	var errs []error
	for i, d := range m.Brushes {
		if err := d.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("brush[%d]: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

// OutDir returns the absolute output directory, or "" if none is set.
func (m *Manifest) OutDir() string {
	if m.Out == "" {
		return ""
	}
	return m.resolve(m.Out)
}

// ClasspathDirs returns absolute paths for the classpath entries.
func (m *Manifest) ClasspathDirs() []string {
	return m.resolveAll(m.Classpath)
}

// ScanDirs returns absolute paths for the source scan directories.
func (m *Manifest) ScanDirs() []string {
	return m.resolveAll(m.Scan)
}

// Config returns the generator configuration described by the manifest.
func (m *Manifest) Config() brushgen.Config {
	return brushgen.Config{
		CoreScript:  m.Core,
		Concurrency: m.Concurrency,
		Timeout:     m.Timeout,
	}
}

func (m *Manifest) resolve(p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(m.Dir, filepath.FromSlash(p))
}

func (m *Manifest) resolveAll(ps []string) []string {
	var paths []string
	for _, p := range ps {
		paths = append(paths, m.resolve(p))
	}
	return paths
}
