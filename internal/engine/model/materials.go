package model

import (
	"path/filepath"
	"strings"

	"github.com/Faultbox/oglrenderer/internal/engine/importer"
	"github.com/Faultbox/oglrenderer/internal/engine/texture"
)

// roleSlots lists, per role, the material slots searched in order. The first
// slot holding a texture wins.
var roleSlots = [texture.NumRoles][]importer.Slot{
	texture.Albedo:    {importer.SlotBaseColor, importer.SlotDiffuse},
	texture.Normal:    {importer.SlotNormalCamera, importer.SlotNormals, importer.SlotHeight},
	texture.Metallic:  {importer.SlotMetalness, importer.SlotSpecular},
	texture.Roughness: {importer.SlotDiffuseRoughness},
	texture.AO:        {importer.SlotAmbientOcclusion, importer.SlotLightmap},
	texture.Height:    {importer.SlotDisplacement},
	texture.Emissive:  {importer.SlotEmissive},
}

// ResolveRole returns the texture path a material provides for role r, or "".
func ResolveRole(m *importer.Material, r texture.Role) string {
	if r < 0 || r >= texture.NumRoles {
		return ""
	}
	for _, slot := range roleSlots[r] {
		if p := m.Texture(slot); p != "" {
			return p
		}
	}
	return ""
}

// materialTextures resolves every role of a material through the cache.
// Roles without a source are skipped; failed loads stay in the list with a
// zero ID and are skipped at draw time.
func materialTextures(s *importer.Scene, m *importer.Material, dir string, cache *texture.Cache) []*texture.Texture {
	var out []*texture.Texture
	for _, r := range texture.Roles() {
		p := ResolveRole(m, r)
		if p == "" {
			continue
		}
		if strings.HasPrefix(p, "*") {
			img, ok := s.Images[p]
			if !ok {
				out = append(out, cache.GetEmbedded(p, nil, "", r))
				continue
			}
			out = append(out, cache.GetEmbedded(p, img.Data, img.MimeType, r))
			continue
		}
		out = append(out, cache.Get(texturePath(dir, p), r))
	}
	return out
}

func texturePath(dir, p string) string {
	p = filepath.FromSlash(strings.ReplaceAll(p, `\`, "/"))
	if filepath.IsAbs(p) || dir == "" {
		return p
	}
	return filepath.Join(dir, p)
}
