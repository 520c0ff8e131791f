package scene

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/oglrenderer/internal/engine/lighting"
	"github.com/Faultbox/oglrenderer/internal/engine/model"
	"github.com/Faultbox/oglrenderer/internal/logger"
)

// File is the YAML scene description.
type File struct {
	Skybox      []string              `yaml:"skybox"`
	Marker      string                `yaml:"marker"`
	Sun         *SunSpec              `yaml:"sun"`
	PointLights []lighting.PointLight `yaml:"point_lights"`
	SpotLight   *lighting.SpotLight   `yaml:"spot_light"`
	Objects     []ObjectSpec          `yaml:"objects"`
	Grids       []GridSpec            `yaml:"grids"`

	// dir resolves relative paths; set by LoadFile.
	dir string
}

// SunSpec sets the directional light either by direction or by sun angles.
type SunSpec struct {
	Direction *mgl32.Vec3 `yaml:"direction"`
	Longitude float32     `yaml:"longitude"`
	Latitude  float32     `yaml:"latitude"`
	Color     *mgl32.Vec3 `yaml:"color"`
}

// ObjectSpec places one object.
type ObjectSpec struct {
	Name     string     `yaml:"name"`
	Model    string     `yaml:"model"`
	Position mgl32.Vec3 `yaml:"position"`
	Rotation mgl32.Vec3 `yaml:"rotation"`
	Scale    *float32   `yaml:"scale"`
	Hidden   bool       `yaml:"hidden"`
}

// GridSpec spawns count instances of a model on a grid.
type GridSpec struct {
	Model   string     `yaml:"model"`
	Count   int        `yaml:"count"`
	Spacing float32    `yaml:"spacing"`
	Origin  mgl32.Vec3 `yaml:"origin"`
	Scale   *float32   `yaml:"scale"`
}

// LoadFile reads and validates a scene description.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scene file: %w", err)
	}
	f, err := ParseFile(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	f.dir = filepath.Dir(path)
	return f, nil
}

// ParseFile decodes and validates YAML scene data. Unknown keys are errors.
func ParseFile(data []byte) (*File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing scene file: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks counts and required fields.
func (f *File) Validate() error {
	if n := len(f.Skybox); n != 0 && n != 6 {
		return fmt.Errorf("skybox needs 6 faces, got %d", n)
	}
	if len(f.PointLights) > lighting.MaxPointLights {
		return fmt.Errorf("too many point lights: %d (max %d)", len(f.PointLights), lighting.MaxPointLights)
	}
	for i, o := range f.Objects {
		if o.Model == "" {
			return fmt.Errorf("object %d (%q) has no model", i, o.Name)
		}
		if o.Scale != nil && *o.Scale <= 0 {
			return fmt.Errorf("object %d (%q) has non-positive scale", i, o.Name)
		}
	}
	for i, g := range f.Grids {
		if g.Model == "" {
			return fmt.Errorf("grid %d has no model", i)
		}
		if g.Count <= 0 {
			return fmt.Errorf("grid %d has count %d", i, g.Count)
		}
	}
	return nil
}

// Resolve returns p relative to the scene file's directory.
func (f *File) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || model.IsBuiltin(p) || f.dir == "" {
		return p
	}
	return filepath.Join(f.dir, p)
}

// ModelPaths lists every resolved model path the file references.
func (f *File) ModelPaths() []string {
	seen := make(map[string]bool)
	var out []string
	add := func(p string) {
		if p == "" {
			return
		}
		p = f.Resolve(p)
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	add(f.Marker)
	for _, o := range f.Objects {
		add(o.Model)
	}
	for _, g := range f.Grids {
		add(g.Model)
	}
	return out
}

// Build creates a scene, loading models through lib. Import failures are
// collected in the returned error; the affected objects still exist and
// draw nothing until the model is reloaded.
func (f *File) Build(lib *model.Library) (*Scene, error) {
	s := New()
	var errs error

	load := func(p string) *model.Model {
		m, err := lib.Load(f.Resolve(p))
		errs = multierr.Append(errs, err)
		return m
	}

	for i, face := range f.Skybox {
		s.Skybox[i] = f.Resolve(face)
	}
	if f.Marker != "" {
		s.Marker = load(f.Marker)
	}

	f.applyLights(s.Lights)

	for _, spec := range f.Objects {
		m := load(spec.Model)
		name := spec.Name
		if name == "" {
			name = fmt.Sprintf("%s_%d", m.Name, len(s.Objects))
		}
		o := s.Add(name, m)
		o.Position = spec.Position
		o.Rotation = spec.Rotation
		if spec.Scale != nil {
			o.Scale = *spec.Scale
		}
		o.Visible = !spec.Hidden
	}

	for _, g := range f.Grids {
		m := load(g.Model)
		spacing := g.Spacing
		if spacing <= 0 {
			spacing = 2
		}
		for _, o := range s.SpawnGrid(m, g.Count, spacing, g.Origin) {
			if g.Scale != nil {
				o.Scale = *g.Scale
			}
		}
	}

	logger.Info("scene built",
		zap.Int("objects", len(s.Objects)),
		zap.Int("pointLights", s.Lights.Points.Count()),
		zap.Bool("spotLight", s.Lights.Spot.Enabled),
	)
	return s, errs
}

func (f *File) applyLights(rig *lighting.Rig) {
	if f.Sun != nil {
		color := mgl32.Vec3{1, 1, 1}
		if f.Sun.Color != nil {
			color = *f.Sun.Color
		}
		if f.Sun.Direction != nil {
			rig.Sun = lighting.DirectionalLight{Direction: *f.Sun.Direction, Color: color}
		} else {
			rig.Sun = lighting.FromSun(f.Sun.Longitude, f.Sun.Latitude, color)
		}
	}
	rig.Points.SetLights(f.PointLights)
	if f.SpotLight != nil {
		spot := lighting.NewSpotLight()
		spot.Enabled = f.SpotLight.Enabled
		if f.SpotLight.Color != (mgl32.Vec3{}) {
			spot.Color = f.SpotLight.Color
		}
		if f.SpotLight.CutOff > 0 {
			spot.CutOff = f.SpotLight.CutOff
		}
		if f.SpotLight.OuterCutOff > 0 {
			spot.OuterCutOff = f.SpotLight.OuterCutOff
		}
		spot.Position = f.SpotLight.Position
		if f.SpotLight.Direction != (mgl32.Vec3{}) {
			spot.Direction = f.SpotLight.Direction
		}
		rig.Spot = spot
	}
}
