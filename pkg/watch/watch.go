// Package watch signals when an annotation document changes on disk.
package watch

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"github.com/matzehuels/annoview/pkg/errors"
)

// DefaultDebounce is how long the watcher waits for writes to settle.
const DefaultDebounce = 100 * time.Millisecond

// Watcher monitors one document file. Bursts of writes collapse into a
// single signal on [Watcher.Changes].
type Watcher struct {
	watcher  *fsnotify.Watcher
	path     string
	debounce time.Duration
	logger   *log.Logger
	onChange chan struct{}
	done     chan struct{}
	once     sync.Once
}

// Option configures a [Watcher].
type Option func(*Watcher)

// WithDebounce sets the quiet period before a change is signaled.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithLogger reports watch errors to logger.
func WithLogger(logger *log.Logger) Option { return func(w *Watcher) { w.logger = logger } }

// New watches the document at path. The parent directory is watched so
// that editors which save by renaming a temporary file are noticed.
func New(path string, opts ...Option) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "create watcher")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		fw.Close()
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "resolve %s", path)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, errors.Wrap(errors.ErrCodeNotFound, err, "watch %s", filepath.Dir(abs))
	}

	w := &Watcher{
		watcher:  fw,
		path:     abs,
		debounce: DefaultDebounce,
		onChange: make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	go w.loop()
	return w, nil
}

// Path is the absolute path being watched.
func (w *Watcher) Path() string { return w.path }

// Changes receives a signal after the document settles.
func (w *Watcher) Changes() <-chan struct{} { return w.onChange }

// Close stops the watcher. It is safe to call more than once.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		err = w.watcher.Close()
	})
	return err
}

func (w *Watcher) loop() {
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, w.signal)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			if w.logger != nil {
				w.logger.Warn("watch error", "path", w.path, "err", err)
			}
		}
	}
}

func (w *Watcher) signal() {
	select {
	case w.onChange <- struct{}{}:
	default:
	}
}
