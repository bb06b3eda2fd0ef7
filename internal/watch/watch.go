// Package watch reruns a callback when files under a set of paths change.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the watcher waits for changes to settle.
const DefaultDebounce = 100 * time.Millisecond

// Watcher watches files and directories. Directories are watched
// recursively, including ones created after the watcher starts.
type Watcher struct {
	fsw      *fsnotify.Watcher
	debounce time.Duration
	ignore   []string
	skip     func(string) bool
	logger   *slog.Logger

	// Single files are watched through their directory so that editors
	// replacing the file by rename keep it watched.
	files    map[string]bool // absolute file paths
	fileDirs map[string]bool // directories watched only for files
	dirs     map[string]bool // directories watched recursively
}

// Options configure a Watcher. The zero value is usable.
type Options struct {
	// Debounce is the quiet period after the last change before the callback
	// runs. Default: DefaultDebounce.
	Debounce time.Duration

	// Ignore lists paths whose changes never trigger the callback, typically
	// the generator's own output directory. Ignored directories are not
	// watched at all.
	Ignore []string

	// Skip reports whether a change to the absolute path should be dropped.
	// It is called from Run's goroutine only.
	Skip func(path string) bool

	Logger *slog.Logger
}

// New starts watching paths. Every path must exist.
func New(opts Options, paths ...string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		fsw:      fsw,
		debounce: opts.Debounce,
		skip:     opts.Skip,
		logger:   opts.Logger,
		files:    make(map[string]bool),
		fileDirs: make(map[string]bool),
		dirs:     make(map[string]bool),
	}
	if w.debounce <= 0 {
		w.debounce = DefaultDebounce
	}
	if w.logger == nil {
		w.logger = slog.Default()
	}
	for _, p := range opts.Ignore {
		if abs, err := filepath.Abs(p); err == nil {
			w.ignore = append(w.ignore, abs)
		}
	}

	for _, p := range paths {
		if err := w.add(p); err != nil {
			fsw.Close()
			return nil, fmt.Errorf("failed to watch %s: %w", p, err)
		}
	}
	return w, nil
}

// add watches p, and every directory below it if p is a directory.
func (w *Watcher) add(p string) error {
	info, err := os.Stat(p)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		abs, err := filepath.Abs(p)
		if err != nil {
			return err
		}
		dir := filepath.Dir(abs)
		if err := w.fsw.Add(dir); err != nil {
			return err
		}
		w.files[abs] = true
		w.fileDirs[dir] = true
		return nil
	}
	return filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if w.ignored(path) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return err
		}
		if abs, err := filepath.Abs(path); err == nil {
			w.dirs[abs] = true
		}
		return nil
	})
}

func (w *Watcher) ignored(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	if strings.HasPrefix(filepath.Base(abs), ".brushgen-") {
		// in-flight temp files from the filesystem sink
		return true
	}
	for _, dir := range w.ignore {
		if abs == dir || strings.HasPrefix(abs, dir+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// Run calls fn after each settled batch of changes until ctx is done.
// Errors from fn are logged and do not stop the watcher. Run closes the
// watcher before returning.
func (w *Watcher) Run(ctx context.Context, fn func(context.Context) error) error {
	defer w.fsw.Close()

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debug("watcher detected change",
				slog.String("file", event.Name),
				slog.String("op", event.Op.String()),
			)
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.add(event.Name); err != nil {
						w.logger.Warn("watcher cannot follow new directory",
							slog.String("dir", event.Name),
							slog.Any("error", err),
						)
					}
				}
			}
			timer.Reset(w.debounce)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", slog.Any("error", err))

		case <-timer.C:
			if err := fn(ctx); err != nil {
				w.logger.Error("watch callback failed", slog.Any("error", err))
			}
		}
	}
}

// Close stops watching. It is only needed when Run is never called.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	if w.ignored(event.Name) {
		return false
	}
	abs, err := filepath.Abs(event.Name)
	if err != nil {
		return true
	}
	if dir := filepath.Dir(abs); w.fileDirs[dir] && !w.dirs[dir] && !w.files[abs] {
		// a sibling of a single watched file
		return false
	}
	return w.skip == nil || !w.skip(abs)
}
