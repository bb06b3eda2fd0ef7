package brushgen

import "time"

const (
	// DefaultCoreScript is the shared SyntaxHighlighter runtime every brush registers with.
	DefaultCoreScript = "shCore.js"

	// DefaultSuperclass is the runtime class generated brushes extend.
	DefaultSuperclass = "com.alexgorbatchev.syntaxhighlighter.client.BrushImpl"
)

// DefaultImports are the imports of every generated brush class.
var DefaultImports = []string{
	"com.google.gwt.core.client.GWT",
	"com.google.gwt.resources.client.ClientBundle",
	"com.google.gwt.resources.client.ClientBundle.Source",
	"com.google.gwt.resources.client.ExternalTextResource",
}

// Config holds the knobs of a Generator. The zero value is usable.
type Config struct {
	// CoreScript is the name of the core script, resolved on the classpath
	// like brush scripts. Default: "shCore.js".
	CoreScript string

	// Superclass is the qualified name of the class generated brushes extend.
	// Its constructor must accept (String alias, ExternalTextResource script).
	// Default: DefaultSuperclass.
	Superclass string

	// Imports replaces DefaultImports when non-nil.
	Imports []string

	// Concurrency bounds how many descriptors GenerateAll processes at once.
	// Each generation gets its own interpreter. Default: 1.
	Concurrency int

	// Timeout bounds a single generation, including script evaluation.
	// Zero means no limit; a script that never returns then blocks forever.
	Timeout time.Duration

	// Header is written as a comment at the top of each generated file.
	// Default: a "generated by brushgen" notice naming the script.
	Header string
}

// applyConfigDefaults returns a copy of cfg with defaults filled in.
func applyConfigDefaults(cfg Config) Config {
	if cfg.CoreScript == "" {
		cfg.CoreScript = DefaultCoreScript
	}
	if cfg.Superclass == "" {
		cfg.Superclass = DefaultSuperclass
	}
	if cfg.Imports == nil {
		cfg.Imports = DefaultImports
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return cfg
}
