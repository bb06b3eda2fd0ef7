package gen

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/broady/brushgen/cmd/brushgen/internal/inputs"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

// syncBuffer is a bytes.Buffer safe for use by a background command.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func setup(t *testing.T) (res, out string) {
	t.Helper()
	root := t.TempDir()
	res = filepath.Join(root, "res")
	out = filepath.Join(root, "gen")
	writeFile(t, filepath.Join(res, "shCore.js"), "var SyntaxHighlighter = { brushes: {} };\n")
	writeFile(t, filepath.Join(res, "shBrushXml.js"), "SyntaxHighlighter.brushes.Xml = { aliases: ['xml'] };\n")
	return res, out
}

const xmlBrush = "type=com.example.BrushXml&script=shBrushXml.js"

func TestRun(t *testing.T) {
	res, out := setup(t)
	c := &Cmd{
		Out: out,
		Flags: inputs.Flags{
			NoManifest: true,
			Brush:      []string{xmlBrush},
			Classpath:  []string{res},
		},
	}

	var stdout bytes.Buffer
	if err := c.run(context.Background(), quietLogger(), &stdout); err != nil {
		t.Fatalf("run: %v", err)
	}

	path := filepath.Join(out, "com", "example", "com_example_BrushXml_shBrushXml_js.java")
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("generated file missing: %v", err)
	}
	if !strings.Contains(string(content), `super("xml", RES.script());`) {
		t.Errorf("unexpected content:\n%s", content)
	}
	if want := "✓ Generated " + path + " (xml)\n"; stdout.String() != want {
		t.Errorf("stdout = %q, want %q", stdout.String(), want)
	}

	// regenerating replaces the file
	if err := c.run(context.Background(), quietLogger(), &stdout); err != nil {
		t.Fatalf("second run: %v", err)
	}

	c.NoOverwrite = true
	err = c.run(context.Background(), quietLogger(), &stdout)
	if err == nil || !strings.Contains(err.Error(), "file already exists") {
		t.Errorf("NoOverwrite run error = %v", err)
	}
}

func TestRun_PartialFailure(t *testing.T) {
	res, out := setup(t)
	c := &Cmd{
		Out: out,
		Flags: inputs.Flags{
			NoManifest: true,
			Brush: []string{
				xmlBrush,
				"type=com.example.BrushNope&script=shBrushNope.js",
			},
			Classpath: []string{res},
		},
	}

	var stdout bytes.Buffer
	err := c.run(context.Background(), quietLogger(), &stdout)
	if err == nil || !strings.Contains(err.Error(), "1 of 2 brushes failed") {
		t.Fatalf("error = %v", err)
	}
	if !strings.Contains(err.Error(), `unable to locate brush script "shBrushNope.js"`) {
		t.Errorf("error should name the missing script: %v", err)
	}

	if _, err := os.Stat(filepath.Join(out, "com", "example", "com_example_BrushXml_shBrushXml_js.java")); err != nil {
		t.Errorf("successful brush not written: %v", err)
	}
	if _, err := os.Stat(filepath.Join(out, "com", "example", "com_example_BrushNope_shBrushNope_js.java")); !os.IsNotExist(err) {
		t.Errorf("failed brush should write nothing, stat err = %v", err)
	}
}

func TestRun_ManifestOut(t *testing.T) {
	res, _ := setup(t)
	dir := filepath.Dir(res)
	writeFile(t, filepath.Join(dir, "brushgen.toml"), `out = "java"
classpath = ["res"]

[[brush]]
type = "com.example.BrushXml"
script = "shBrushXml.js"
`)

	c := &Cmd{Flags: inputs.Flags{Manifest: filepath.Join(dir, "brushgen.toml")}}
	var stdout bytes.Buffer
	if err := c.run(context.Background(), quietLogger(), &stdout); err != nil {
		t.Fatalf("run: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "java", "com", "example", "com_example_BrushXml_shBrushXml_js.java")); err != nil {
		t.Errorf("file not written to manifest out dir: %v", err)
	}
}

func TestRun_Watch(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T) (c *Cmd, res, out string)
	}{
		{
			name: "separate out dir",
			setup: func(t *testing.T) (*Cmd, string, string) {
				res, out := setup(t)
				return &Cmd{
					Out: out,
					Flags: inputs.Flags{
						NoManifest: true,
						Brush:      []string{xmlBrush},
						Classpath:  []string{res},
					},
				}, res, out
			},
		},
		{
			// out dir and classpath both default to the working directory
			name: "default out dir",
			setup: func(t *testing.T) (*Cmd, string, string) {
				res, _ := setup(t)
				t.Chdir(res)
				return &Cmd{
					Flags: inputs.Flags{
						NoManifest: true,
						Brush:      []string{xmlBrush},
					},
				}, ".", "."
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, res, out := tt.setup(t)
			c.Watch = true

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			var stdout syncBuffer
			done := make(chan error, 1)
			go func() {
				done <- c.run(ctx, quietLogger(), &stdout)
			}()

			waitFor(t, func() bool { return strings.Contains(stdout.String(), "Watching") })

			writeFile(t, filepath.Join(res, "shBrushXml.js"), "SyntaxHighlighter.brushes.Xml = { aliases: ['xhtml'] };\n")

			path := filepath.Join(out, "com", "example", "com_example_BrushXml_shBrushXml_js.java")
			waitFor(t, func() bool {
				content, err := os.ReadFile(path)
				return err == nil && strings.Contains(string(content), `super("xhtml", RES.script());`)
			})

			// rewriting its own output must not make the watcher loop
			time.Sleep(300 * time.Millisecond)
			if n := strings.Count(stdout.String(), "✓ Generated"); n != 2 {
				t.Errorf("generated %d times, want 2:\n%s", n, stdout.String())
			}

			cancel()
			select {
			case err := <-done:
				if err != nil {
					t.Errorf("run returned %v", err)
				}
			case <-time.After(5 * time.Second):
				t.Fatal("watch did not stop after cancel")
			}
		})
	}
}

func TestContainsAny(t *testing.T) {
	root := t.TempDir()
	tests := []struct {
		dir   string
		paths []string
		want  bool
	}{
		{root, []string{root}, true},
		{root, []string{filepath.Join(root, "res")}, true},
		{filepath.Join(root, "gen"), []string{filepath.Join(root, "res"), root}, false},
		{filepath.Join(root, "gen"), []string{filepath.Join(root, "generated")}, false},
		{filepath.Join(root, "gen"), nil, false},
	}
	for _, tt := range tests {
		if got := containsAny(tt.dir, tt.paths); got != tt.want {
			t.Errorf("containsAny(%q, %q) = %v, want %v", tt.dir, tt.paths, got, tt.want)
		}
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}
