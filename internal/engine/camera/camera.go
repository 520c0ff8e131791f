// Package camera provides camera implementations for 3D rendering.
package camera

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Camera is what the renderer needs from any camera.
type Camera interface {
	ViewMatrix() mgl32.Mat4
	Position() mgl32.Vec3
	Front() mgl32.Vec3
	FOV() float32
}

// Projection returns a perspective projection for cam.
func Projection(cam Camera, aspect, near, far float32) mgl32.Mat4 {
	if aspect <= 0 {
		aspect = 1
	}
	return mgl32.Perspective(mgl32.DegToRad(cam.FOV()), aspect, near, far)
}
