package model

import (
	"fmt"
	"strings"
)

// BuiltinPrefix marks model paths that are generated rather than imported,
// e.g. "builtin:sphere".
const BuiltinPrefix = "builtin:"

var builtins = map[string]func() *Mesh{
	"sphere": func() *Mesh { return Sphere(1, 32, 16) },
	"marker": func() *Mesh { return Sphere(1, 12, 6) },
	"plane":  func() *Mesh { return Plane(20, 10) },
}

// IsBuiltin reports whether path names a generated model.
func IsBuiltin(path string) bool {
	return strings.HasPrefix(path, BuiltinPrefix)
}

func (l *Loader) builtin(name string) (*Model, error) {
	gen, ok := builtins[name]
	if !ok {
		m := l.newModel(name)
		m.Path = BuiltinPrefix + name
		return m, fmt.Errorf("%w: unknown builtin %q", ErrImport, name)
	}
	m := l.FromMeshes(name, []*Mesh{gen()})
	m.Path = BuiltinPrefix + name
	return m, nil
}
