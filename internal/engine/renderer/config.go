package renderer

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/oglrenderer/internal/config"
	"github.com/Faultbox/oglrenderer/internal/engine/shadow"
)

// OptionsFromConfig maps the graphics and render config onto Options.
func OptionsFromConfig(cfg *config.Config) Options {
	r := cfg.Render
	return Options{
		Width:            int32(cfg.Graphics.Width),
		Height:           int32(cfg.Graphics.Height),
		ShadowResolution: r.ShadowResolution,
		Shadow: shadow.Projection{
			Extent:   r.ShadowExtent,
			Near:     r.ShadowNear,
			Far:      r.ShadowFar,
			Distance: r.LightDistance,
		},
		ClearColor:       mgl32.Vec3(r.ClearColor),
		DefaultAlbedo:    r.DefaultAlbedo,
		DefaultMetallic:  r.DefaultMetallic,
		DefaultRoughness: r.DefaultRoughness,
		DefaultAO:        r.DefaultAO,
		UseNormalMaps:    r.UseNormalMaps,
		Wireframe:        r.Wireframe,
		MarkerScale:      r.MarkerScale,
	}
}
