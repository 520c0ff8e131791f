// Package hotreload watches asset files and reports edits in debounced batches.
//
// Directories are watched rather than files so that editors which save by
// renaming a temporary file over the original are still seen.
package hotreload

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/Faultbox/oglrenderer/internal/logger"
)

// DefaultDelay is the quiet period before a batch is delivered.
const DefaultDelay = 150 * time.Millisecond

// Watcher delivers sets of changed files on Changes.
type Watcher struct {
	fs    *fsnotify.Watcher
	delay time.Duration

	mu    sync.Mutex
	files map[string]struct{}
	dirs  map[string]struct{}

	out     chan []string
	done    chan struct{}
	started sync.Once
	closed  sync.Once
	wg      sync.WaitGroup
}

// New creates a watcher. A delay <= 0 uses DefaultDelay.
func New(delay time.Duration) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("hotreload: %w", err)
	}
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Watcher{
		fs:    fw,
		delay: delay,
		files: make(map[string]struct{}),
		dirs:  make(map[string]struct{}),
		out:   make(chan []string, 1),
		done:  make(chan struct{}),
	}, nil
}

// Add starts watching files. Each must exist.
func (w *Watcher) Add(paths ...string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("hotreload: %w", err)
		}
		if _, err := os.Stat(abs); err != nil {
			return fmt.Errorf("hotreload: %w", err)
		}
		dir := filepath.Dir(abs)
		if _, ok := w.dirs[dir]; !ok {
			if err := w.fs.Add(dir); err != nil {
				return fmt.Errorf("hotreload: watch %s: %w", dir, err)
			}
			w.dirs[dir] = struct{}{}
		}
		w.files[abs] = struct{}{}
	}
	return nil
}

// Files returns the watched files, sorted.
func (w *Watcher) Files() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, 0, len(w.files))
	for f := range w.files {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// Changes returns the channel batches arrive on. It is closed by Close.
func (w *Watcher) Changes() <-chan []string {
	return w.out
}

// Start launches the event loop. Extra calls do nothing.
func (w *Watcher) Start() {
	w.started.Do(func() {
		w.wg.Add(1)
		go w.loop()
	})
}

// Close stops the loop and releases the OS watcher.
func (w *Watcher) Close() error {
	var err error
	w.closed.Do(func() {
		close(w.done)
		err = w.fs.Close()
		w.wg.Wait()
		w.started.Do(func() {}) // a later Start must not spawn a loop
		select {
		case <-w.out:
		default:
		}
		close(w.out)
	})
	return err
}

func (w *Watcher) watching(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.files[path]
	return ok
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	pending := make(map[string]struct{})
	timer := time.NewTimer(w.delay)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-w.done:
			return

		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			path := filepath.Clean(ev.Name)
			if !w.watching(path) {
				continue
			}
			pending[path] = struct{}{}
			timer.Reset(w.delay)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			logger.Warn("file watcher error", zap.Error(err))

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			batch := make([]string, 0, len(pending))
			for p := range pending {
				batch = append(batch, p)
			}
			sort.Strings(batch)
			pending = make(map[string]struct{})

			logger.Debug("files changed", zap.Strings("paths", batch))
			select {
			case w.out <- batch:
			case <-w.done:
				return
			}
		}
	}
}
