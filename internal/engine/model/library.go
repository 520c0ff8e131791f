package model

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/oglrenderer/internal/logger"
)

// ErrModelInUse is returned when unloading a model scene objects still reference.
var ErrModelInUse = errors.New("model is in use")

// ErrNotLoaded is returned for paths the library does not hold.
var ErrNotLoaded = errors.New("model not loaded")

// Library imports each asset path once and hands out the shared model.
type Library struct {
	loader *Loader

	mu     sync.Mutex
	models map[string]*Model
}

// NewLibrary creates an empty library backed by loader.
func NewLibrary(loader *Loader) *Library {
	return &Library{
		loader: loader,
		models: make(map[string]*Model),
	}
}

// Loader returns the loader used for imports.
func (l *Library) Loader() *Loader {
	return l.loader
}

func key(path string) string {
	if IsBuiltin(path) {
		return path
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

// Load returns the model for path, importing it on first use. A failed
// import is kept as an empty model so a later Reload can fill it in.
func (l *Library) Load(path string) (*Model, error) {
	k := key(path)

	l.mu.Lock()
	defer l.mu.Unlock()

	if m, ok := l.models[k]; ok {
		return m, nil
	}
	m, err := l.loader.Load(path)
	l.models[k] = m
	return m, err
}

// Get returns a loaded model without importing.
func (l *Library) Get(path string) (*Model, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.models[key(path)]
	return m, ok
}

// Reload re-imports path and moves the result into the existing model, so
// scene objects holding it see the new meshes. On failure the old data stays.
func (l *Library) Reload(path string) error {
	k := key(path)

	l.mu.Lock()
	defer l.mu.Unlock()

	m, ok := l.models[k]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotLoaded, path)
	}
	fresh, err := l.loader.Load(m.Path)
	if err != nil {
		fresh.Destroy()
		return err
	}
	m.MoveFrom(fresh)
	logger.Info("model reloaded", zap.String("name", m.Name), zap.Int("meshes", len(m.Meshes)))
	return nil
}

// Unload destroys the model for path. It fails while references remain.
func (l *Library) Unload(path string) error {
	k := key(path)

	l.mu.Lock()
	defer l.mu.Unlock()

	m, ok := l.models[k]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotLoaded, path)
	}
	if n := m.Refs(); n > 0 {
		return fmt.Errorf("%w: %s has %d references", ErrModelInUse, m.Name, n)
	}
	m.Destroy()
	delete(l.models, k)
	return nil
}

// Paths returns the loaded asset paths in sorted order.
func (l *Library) Paths() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, 0, len(l.models))
	for k := range l.models {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Prune unloads every unreferenced model whose path is not in keep and
// returns the paths it dropped.
func (l *Library) Prune(keep []string) []string {
	want := make(map[string]bool, len(keep))
	for _, p := range keep {
		want[key(p)] = true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	var dropped []string
	for k, m := range l.models {
		if want[k] || m.Refs() > 0 {
			continue
		}
		m.Destroy()
		delete(l.models, k)
		dropped = append(dropped, k)
	}
	sort.Strings(dropped)
	return dropped
}

// Close destroys every model regardless of references.
func (l *Library) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for k, m := range l.models {
		m.Destroy()
		delete(l.models, k)
	}
}
