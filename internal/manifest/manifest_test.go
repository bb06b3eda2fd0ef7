package manifest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/broady/brushgen"
	"github.com/google/go-cmp/cmp"
)

func writeManifest(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, DefaultName)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, `
out = "gen"
classpath = ["src/main/resources", "/opt/highlighter"]
search = ["", "com/alexgorbatchev/syntaxhighlighter/public/scripts/"]
core = "shCore.js"
concurrency = 4
timeout = "30s"
scan = ["src/main/java"]

[[brush]]
type = "com.example.BrushXml"
script = "shBrushXml.js"

[[brush]]
type = "com.example.BrushJava"
script = "shBrushJava.js"
kind = "interface"
`)

	m, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if got, want := m.OutDir(), filepath.Join(m.Dir, "gen"); got != want {
		t.Errorf("OutDir() = %q, want %q", got, want)
	}
	wantCP := []string{filepath.Join(m.Dir, "src", "main", "resources"), "/opt/highlighter"}
	if diff := cmp.Diff(wantCP, m.ClasspathDirs()); diff != "" {
		t.Errorf("ClasspathDirs() (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{filepath.Join(m.Dir, "src", "main", "java")}, m.ScanDirs()); diff != "" {
		t.Errorf("ScanDirs() (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"", "com/alexgorbatchev/syntaxhighlighter/public/scripts/"}, m.Search); diff != "" {
		t.Errorf("Search (-want +got):\n%s", diff)
	}

	wantBrushes := []brushgen.Descriptor{
		{HostType: "com.example.BrushXml", Script: "shBrushXml.js"},
		{HostType: "com.example.BrushJava", Script: "shBrushJava.js", Kind: brushgen.TypeInterface},
	}
	if diff := cmp.Diff(wantBrushes, m.Brushes); diff != "" {
		t.Errorf("Brushes (-want +got):\n%s", diff)
	}

	cfg := m.Config()
	if cfg.CoreScript != "shCore.js" || cfg.Concurrency != 4 || cfg.Timeout != 30*time.Second {
		t.Errorf("Config() = %+v", cfg)
	}
}

func TestLoad_Minimal(t *testing.T) {
	path := writeManifest(t, t.TempDir(), `
[[brush]]
type = "Brush"
script = "shBrushSql.js"
`)

	m, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if m.OutDir() != "" {
		t.Errorf("OutDir() = %q, want empty", m.OutDir())
	}
	if m.ClasspathDirs() != nil || m.Search != nil {
		t.Errorf("unset lists should stay nil: %+v", m)
	}
	if len(m.Brushes) != 1 {
		t.Errorf("brushes = %d, want 1", len(m.Brushes))
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "syntax",
			content: `out = `,
			wantErr: "parse error",
		},
		{
			name:    "unknown top-level key",
			content: "output = \"gen\"\n",
			wantErr: "unknown keys: output",
		},
		{
			name:    "unknown brush key",
			content: "[[brush]]\ntype = \"p.A\"\nscript = \"a.js\"\nalias = \"a\"\n",
			wantErr: "unknown keys: brush.alias",
		},
		{
			name:    "missing script",
			content: "[[brush]]\ntype = \"p.A\"\n",
			wantErr: "brush[0]: config: p.A: script: required",
		},
		{
			name:    "second brush invalid",
			content: "[[brush]]\ntype = \"p.A\"\nscript = \"a.js\"\n\n[[brush]]\ntype = \"p.1B\"\nscript = \"b.js\"\n",
			wantErr: "brush[1]",
		},
		{
			name:    "negative concurrency",
			content: "concurrency = -1\n",
			wantErr: "concurrency: must be at least 0",
		},
		{
			name:    "wrong type",
			content: "concurrency = \"four\"\n",
			wantErr: "parse error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeManifest(t, t.TempDir(), tt.content)
			_, err := Load(path)
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_Missing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), DefaultName)); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestFind(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}

	got, err := Find(nested)
	if err != nil {
		t.Fatal(err)
	}
	// t.TempDir lives under the system temp dir, which has no manifest.
	if got != "" {
		t.Errorf("Find() = %q before writing a manifest", got)
	}

	want := writeManifest(t, root, "")
	got, err = Find(nested)
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Errorf("Find() = %q, want %q", got, want)
	}
}
