package texture

// Role is the material slot a texture feeds.
type Role int

const (
	Albedo Role = iota
	Normal
	Metallic // also carries legacy specular maps
	Roughness
	AO
	Height
	Emissive
	NumRoles
)

// ShadowUnit is the texture unit reserved for the shadow depth map.
const ShadowUnit = 5

// Binding says where a role's texture goes in the lit program.
type Binding struct {
	Unit    uint32
	Sampler string // sampler uniform
	Flag    string // bool uniform telling the shader the map is present
}

var bindings = [NumRoles]Binding{
	Albedo:    {0, "material.albedoMap", "hasAlbedoMap"},
	Normal:    {1, "material.normalMap", "hasNormalMap"},
	Metallic:  {2, "material.metallicMap", "hasMetallicMap"},
	Roughness: {3, "material.roughnessMap", "hasRoughnessMap"},
	AO:        {4, "material.aoMap", "hasAOMap"},
	Height:    {6, "material.heightMap", "hasHeightMap"},
	Emissive:  {7, "material.emissiveMap", "hasEmissiveMap"},
}

var roleNames = [NumRoles]string{"albedo", "normal", "metallic", "roughness", "ao", "height", "emissive"}

// Binding returns the unit and uniform names for r.
func (r Role) Binding() Binding {
	return bindings[r]
}

func (r Role) String() string {
	if r < 0 || r >= NumRoles {
		return "unknown"
	}
	return roleNames[r]
}

// Roles lists every role in binding order.
func Roles() []Role {
	rs := make([]Role, NumRoles)
	for i := range rs {
		rs[i] = Role(i)
	}
	return rs
}
