package lighting

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// SunDirection converts longitude/latitude angles in degrees to a unit
// vector pointing towards the sun. Longitude rotates around Y, latitude is
// the elevation above the horizon.
func SunDirection(longitude, latitude float32) mgl32.Vec3 {
	lon := mgl32.DegToRad(longitude)
	lat := mgl32.DegToRad(latitude)

	sinLat, cosLat := math32.Sincos(lat)
	sinLon, cosLon := math32.Sincos(lon)
	return mgl32.Vec3{cosLat * sinLon, sinLat, cosLat * cosLon}
}

// DirectionalLight is a light at infinity shining along Direction.
type DirectionalLight struct {
	Direction mgl32.Vec3 `yaml:"direction"`
	Color     mgl32.Vec3 `yaml:"color"`
}

// FromSun returns a light shining from the sun position down into the scene.
func FromSun(longitude, latitude float32, color mgl32.Vec3) DirectionalLight {
	return DirectionalLight{
		Direction: SunDirection(longitude, latitude).Mul(-1),
		Color:     color,
	}
}

// Dir returns the normalized direction, or straight down for a zero vector.
func (d DirectionalLight) Dir() mgl32.Vec3 {
	if d.Direction.Len() == 0 {
		return mgl32.Vec3{0, -1, 0}
	}
	return d.Direction.Normalize()
}
