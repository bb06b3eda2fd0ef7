package inputs

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/broady/brushgen"
	"github.com/google/go-cmp/cmp"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestResolve_Flags(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"res/scripts/shCore.js":     "var SyntaxHighlighter = { brushes: {} };",
		"res/scripts/shBrushXml.js": "SyntaxHighlighter.brushes.Xml = { aliases: ['xml'] };",
	})

	f := &Flags{
		NoManifest:  true,
		Brush:       []string{"type=com.example.BrushXml&script=shBrushXml.js"},
		Classpath:   []string{filepath.Join(root, "res")},
		Concurrency: 3,
		Timeout:     time.Second,
	}
	in, err := f.Resolve(quietLogger())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	want := []brushgen.Descriptor{{HostType: "com.example.BrushXml", Script: "shBrushXml.js"}}
	if diff := cmp.Diff(want, in.Descriptors); diff != "" {
		t.Errorf("descriptors (-want +got):\n%s", diff)
	}
	if in.Config.Concurrency != 3 || in.Config.Timeout != time.Second {
		t.Errorf("config = %+v", in.Config)
	}
	if in.ManifestPath != "" || in.OutDir != "" {
		t.Errorf("no manifest expected, got %q", in.ManifestPath)
	}

	p, err := in.Classpath.Locate("shBrushXml.js")
	if err != nil || p != "scripts/shBrushXml.js" {
		t.Errorf("Locate = %q, %v", p, err)
	}
}

func TestResolve_Manifest(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"brushgen.toml": `out = "gen"
classpath = ["res"]
search = ["js/"]
concurrency = 2
scan = ["src"]

[[brush]]
type = "com.example.BrushXml"
script = "shBrushXml.js"
`,
		"res/js/shCore.js": "",
		"src/com/example/BrushXml.java": `package com.example;
@Brush.Source("shBrushXml.js")
public interface BrushXml extends Brush {}
`,
		"src/com/example/BrushJava.java": `package com.example;
@Brush.Source("shBrushJava.js")
public interface BrushJava extends Brush {}
`,
	})
	manifestPath := filepath.Join(root, "brushgen.toml")

	f := &Flags{
		Manifest:    manifestPath,
		Brush:       []string{"type=com.example.BrushSql&script=shBrushSql.js"},
		Concurrency: 8,
	}
	in, err := f.Resolve(quietLogger())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	want := []brushgen.Descriptor{
		{HostType: "com.example.BrushXml", Script: "shBrushXml.js"},
		{HostType: "com.example.BrushSql", Script: "shBrushSql.js"},
		{HostType: "com.example.BrushJava", Kind: brushgen.TypeInterface, Script: "shBrushJava.js"},
	}
	if diff := cmp.Diff(want, in.Descriptors); diff != "" {
		t.Errorf("descriptors (-want +got):\n%s", diff)
	}
	if in.Config.Concurrency != 8 {
		t.Errorf("flag should override manifest concurrency, got %d", in.Config.Concurrency)
	}
	if in.OutDir != filepath.Join(root, "gen") {
		t.Errorf("OutDir = %q", in.OutDir)
	}
	if p, err := in.Classpath.Locate("shCore.js"); err != nil || p != "js/shCore.js" {
		t.Errorf("Locate = %q, %v", p, err)
	}

	wantWatch := []string{manifestPath, filepath.Join(root, "res"), filepath.Join(root, "src")}
	if diff := cmp.Diff(wantWatch, in.WatchPaths); diff != "" {
		t.Errorf("watch paths (-want +got):\n%s", diff)
	}
}

func TestResolve_Errors(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"bad.toml":       "outdir = \"x\"\n",
		"src/Bad.java":   "/* never closed",
		"empty/.gitkeep": "",
	})

	tests := []struct {
		name    string
		flags   Flags
		wantErr string
	}{
		{
			name:    "nothing to do",
			flags:   Flags{NoManifest: true, Scan: []string{filepath.Join(root, "empty")}},
			wantErr: "no brushes to generate",
		},
		{
			name:    "bad brush flag",
			flags:   Flags{NoManifest: true, Brush: []string{"type=p.A"}},
			wantErr: "--brush type=p.A",
		},
		{
			name:    "bad manifest",
			flags:   Flags{Manifest: filepath.Join(root, "bad.toml")},
			wantErr: "unknown keys: outdir",
		},
		{
			name:    "bad source",
			flags:   Flags{NoManifest: true, Scan: []string{filepath.Join(root, "src")}},
			wantErr: "unterminated comment",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.flags.Resolve(quietLogger())
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestDedupe(t *testing.T) {
	got := dedupe([]brushgen.Descriptor{
		{HostType: "p.A", Script: "a.js"},
		{HostType: "p.A", Script: "a.js", Kind: brushgen.TypeInterface},
		{HostType: "p.A", Script: "b.js"},
		{HostType: "p.A", Script: "a.js"},
	})
	want := []brushgen.Descriptor{
		{HostType: "p.A", Script: "a.js"},
		{HostType: "p.A", Script: "b.js"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("dedupe (-want +got):\n%s", diff)
	}
}
