// Package watch regenerates on definition file changes.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDelay is how long the watcher waits for a burst of events to end.
const DefaultDelay = 100 * time.Millisecond

// Watcher reports changes of a fixed set of files. The parent directories
// are watched so that editors replacing files by rename are seen too.
type Watcher struct {
	fs    *fsnotify.Watcher
	files map[string]bool
	delay time.Duration
	log   *zap.Logger
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDelay sets the debounce delay.
func WithDelay(d time.Duration) Option {
	return func(w *Watcher) { w.delay = d }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(w *Watcher) { w.log = l }
}

// New watches the given files.
func New(paths []string, opts ...Option) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create watcher: %w", err)
	}
	w := &Watcher{fs: fs, files: make(map[string]bool), delay: DefaultDelay, log: zap.NewNop()}
	for _, opt := range opts {
		opt(w)
	}
	var dirs []string
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			fs.Close()
			return nil, fmt.Errorf("watch: %s: %w", p, err)
		}
		w.files[abs] = true
		if dir := filepath.Dir(abs); !slices.Contains(dirs, dir) {
			dirs = append(dirs, dir)
		}
	}
	for _, dir := range dirs {
		if err := fs.Add(dir); err != nil {
			fs.Close()
			return nil, fmt.Errorf("watch: directory %s: %w", dir, err)
		}
		w.log.Debug("watching directory", zap.String("dir", dir))
	}
	return w, nil
}

// Run calls fn with the changed files after each burst of events until ctx
// is done. Errors returned by fn are logged and do not stop the watcher.
func (w *Watcher) Run(ctx context.Context, fn func(ctx context.Context, changed []string) error) error {
	d := NewDebouncer(w.delay, func(changed []string) {
		if err := fn(ctx, changed); err != nil {
			w.log.Error("change handler failed", zap.Strings("files", changed), zap.Error(err))
		}
	})
	defer func() {
		d.Stop()
		w.fs.Close()
	}()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if !w.files[ev.Name] || !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			w.log.Debug("file changed", zap.String("path", ev.Name), zap.Stringer("op", ev.Op))
			d.Add(ev.Name)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", zap.Error(err))
		}
	}
}

// Debouncer collects names and flushes them once no new name arrived
// for the delay.
type Debouncer struct {
	delay   time.Duration
	fn      func([]string)
	mu      sync.Mutex
	pending map[string]bool
	timer   *time.Timer
	stopped bool
}

// NewDebouncer returns a debouncer calling fn with the sorted names.
func NewDebouncer(delay time.Duration, fn func([]string)) *Debouncer {
	return &Debouncer{delay: delay, fn: fn, pending: make(map[string]bool)}
}

// Add records a name and restarts the delay.
func (d *Debouncer) Add(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.pending[name] = true
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.flush)
}

func (d *Debouncer) flush() {
	d.mu.Lock()
	if d.stopped || len(d.pending) == 0 {
		d.mu.Unlock()
		return
	}
	names := make([]string, 0, len(d.pending))
	for n := range d.pending {
		names = append(names, n)
	}
	clear(d.pending)
	d.mu.Unlock()
	slices.Sort(names)
	d.fn(names)
}

// Stop drops pending names. Later calls to Add are ignored.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
	clear(d.pending)
}
