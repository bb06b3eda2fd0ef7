// Package classpath locates and reads brush scripts from an ordered list of
// resource roots.
//
// A lookup tries every search prefix against every root, in order, and the
// first regular file wins. Paths handed out by Locate are slash-separated and
// relative to the root they were found in, which is the form the generated
// @Source annotation expects.
package classpath

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

var (
	// ErrNotFound is returned when no root holds the requested resource.
	ErrNotFound = errors.New("resource not found")

	// ErrEncoding is returned when a resource is not valid UTF-8 text.
	ErrEncoding = errors.New("resource is not valid UTF-8")

	// ErrInvalidName is returned for names that cannot be resolved on a classpath.
	ErrInvalidName = errors.New("invalid resource name")
)

// DefaultSearch is the search prefix list used when none is configured.
var DefaultSearch = []string{"", "scripts/"}

// Root is one classpath entry.
type Root struct {
	// Name identifies the root in log output and errors, usually a directory.
	Name string
	FS   fs.FS
}

// Dir returns a Root backed by the directory dir.
func Dir(dir string) Root {
	return Root{Name: dir, FS: os.DirFS(dir)}
}

// Dirs returns a Root for each directory, preserving order.
func Dirs(dirs ...string) []Root {
	roots := make([]Root, 0, len(dirs))
	for _, d := range dirs {
		roots = append(roots, Dir(d))
	}
	return roots
}

// Classpath is an ordered set of roots searched under a list of prefixes.
// It holds no open handles and is safe for concurrent use.
type Classpath struct {
	roots  []Root
	search []string
}

// New creates a Classpath. A nil search list means DefaultSearch.
func New(search []string, roots ...Root) *Classpath {
	if search == nil {
		search = DefaultSearch
	}
	prefixes := make([]string, 0, len(search))
	for _, s := range search {
		s = strings.Trim(filepath.ToSlash(s), "/")
		prefixes = append(prefixes, s)
	}
	return &Classpath{roots: roots, search: prefixes}
}

// Roots returns the configured roots.
func (c *Classpath) Roots() []Root {
	return append([]Root(nil), c.roots...)
}

// Locate resolves name to the classpath-relative path of an existing file.
// OS-specific separators in name are accepted and converted.
func (c *Classpath) Locate(name string) (string, error) {
	clean, err := cleanName(name)
	if err != nil {
		return "", err
	}

	for _, prefix := range c.search {
		p := path.Join(prefix, clean)
		for _, root := range c.roots {
			info, err := fs.Stat(root.FS, p)
			if err == nil && info.Mode().IsRegular() {
				return p, nil
			}
		}
	}
	return "", fmt.Errorf("%w: %q", ErrNotFound, name)
}

// ReadText reads the resource at the classpath-relative path p from the
// first root that has it.
//
// The text is returned the way a line reader would rebuild it: a leading
// byte order mark is dropped, CRLF and CR line endings become LF, and the
// result always ends with a newline.
func (c *Classpath) ReadText(p string) (string, error) {
	if !fs.ValidPath(p) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, p)
	}

	for _, root := range c.roots {
		data, err := readFile(root.FS, p)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("read %s from %s: %w", p, root.Name, err)
		}
		text, err := normalize(data)
		if err != nil {
			return "", fmt.Errorf("%s: %w", p, err)
		}
		return text, nil
	}
	return "", fmt.Errorf("%w: %q", ErrNotFound, p)
}

// readFile reads a whole file; the handle is closed on every path.
func readFile(fsys fs.FS, p string) (data []byte, err error) {
	f, err := fsys.Open(p)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return io.ReadAll(f)
}

var bom = []byte{0xEF, 0xBB, 0xBF}

func normalize(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, bom)
	if !utf8.Valid(data) {
		return "", ErrEncoding
	}
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	if text != "" && !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	return text, nil
}

func cleanName(name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("%w: empty name", ErrInvalidName)
	}
	clean := path.Clean(strings.ReplaceAll(filepath.ToSlash(name), `\`, "/"))
	clean = strings.TrimPrefix(clean, "/")
	if !fs.ValidPath(clean) || clean == "." {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return clean, nil
}
