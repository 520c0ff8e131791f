package scene

import (
	"fmt"
	"path/filepath"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/oglrenderer/internal/engine/model"
	"github.com/Faultbox/oglrenderer/internal/logger"
)

// Stage owns the scene built from a description file and keeps it in step
// with edits to that file and to the models it references.
type Stage struct {
	path  string
	lib   *model.Library
	file  *File
	scene *Scene
}

// Update reports what Apply changed.
type Update struct {
	Scene  bool // description re-read and scene rebuilt
	Models int  // models re-imported in place
}

// NewStage creates a stage for the description at path. Nothing is loaded
// until Load.
func NewStage(path string, lib *model.Library) (*Stage, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("scene path: %w", err)
	}
	return &Stage{path: abs, lib: lib}, nil
}

// Path returns the absolute description path.
func (s *Stage) Path() string { return s.path }

// Scene returns the current scene, nil before the first successful Load.
func (s *Stage) Scene() *Scene { return s.scene }

// Load reads the description and rebuilds the scene. A file that fails to
// parse leaves the current scene in place. Model import failures still
// replace the scene; the affected objects draw nothing.
func (s *Stage) Load() error {
	f, err := LoadFile(s.path)
	if err != nil {
		return err
	}
	next, buildErr := f.Build(s.lib)

	if s.scene != nil {
		s.scene.Clear()
	}
	s.file = f
	s.scene = next
	s.prune()
	return buildErr
}

// prune unloads library models the description no longer references.
func (s *Stage) prune() {
	if dropped := s.lib.Prune(s.file.ModelPaths()); len(dropped) > 0 {
		logger.Debug("models unloaded", zap.Strings("paths", dropped))
	}
}

// Watched lists the description and every referenced model file.
// Builtin models have no file and are left out.
func (s *Stage) Watched() []string {
	out := []string{s.path}
	if s.file == nil {
		return out
	}
	for _, p := range s.file.ModelPaths() {
		if !model.IsBuiltin(p) {
			out = append(out, p)
		}
	}
	return out
}

// Apply handles a batch of changed files. Model files are re-imported in
// place so objects keep their model; a changed description rebuilds the
// scene after the models are refreshed.
func (s *Stage) Apply(paths []string) (Update, error) {
	var u Update
	var errs error
	for _, p := range paths {
		if p == s.path {
			u.Scene = true
			continue
		}
		if _, ok := s.lib.Get(p); !ok {
			continue
		}
		errs = multierr.Append(errs, s.lib.Reload(p))
		u.Models++
	}
	if u.Scene {
		errs = multierr.Append(errs, s.Load())
	}
	if u.Scene || u.Models > 0 {
		logger.Info("stage updated",
			zap.Bool("scene", u.Scene),
			zap.Int("models", u.Models),
			zap.Int("errors", len(multierr.Errors(errs))),
		)
	}
	return u, errs
}

// Close clears the scene and destroys every model.
func (s *Stage) Close() {
	if s.scene != nil {
		s.scene.Clear()
		s.scene = nil
	}
	s.lib.Close()
}
