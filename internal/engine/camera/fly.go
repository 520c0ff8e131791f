package camera

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// FlyCamera is a free first-person camera driven by yaw and pitch.
type FlyCamera struct {
	Pos   mgl32.Vec3
	Yaw   float32 // degrees, -90 looks down -Z
	Pitch float32 // degrees

	Speed       float32 // units per second
	Sensitivity float32 // degrees per pixel
	Zoom        float32 // field of view in degrees

	MinZoom float32
	MaxZoom float32
}

// NewFlyCamera creates a camera at pos looking down -Z.
func NewFlyCamera(pos mgl32.Vec3, fov float32) *FlyCamera {
	if fov <= 0 {
		fov = 45
	}
	return &FlyCamera{
		Pos:         pos,
		Yaw:         -90,
		Speed:       2.5,
		Sensitivity: 0.1,
		Zoom:        fov,
		MinZoom:     1,
		MaxZoom:     fov,
	}
}

// Position returns the camera position.
func (c *FlyCamera) Position() mgl32.Vec3 {
	return c.Pos
}

// Front returns the unit view direction.
func (c *FlyCamera) Front() mgl32.Vec3 {
	sinYaw, cosYaw := math32.Sincos(mgl32.DegToRad(c.Yaw))
	sinPitch, cosPitch := math32.Sincos(mgl32.DegToRad(c.Pitch))
	return mgl32.Vec3{cosYaw * cosPitch, sinPitch, sinYaw * cosPitch}.Normalize()
}

// Right returns the unit vector to the camera's right on the horizon.
func (c *FlyCamera) Right() mgl32.Vec3 {
	return c.Front().Cross(mgl32.Vec3{0, 1, 0}).Normalize()
}

// FOV returns the current zoom.
func (c *FlyCamera) FOV() float32 {
	return c.Zoom
}

// ViewMatrix returns the view matrix for this camera.
func (c *FlyCamera) ViewMatrix() mgl32.Mat4 {
	front := c.Front()
	up := c.Right().Cross(front)
	return mgl32.LookAtV(c.Pos, c.Pos.Add(front), up)
}

// Move translates the camera along its axes for dt seconds.
func (c *FlyCamera) Move(forward, right, up, dt float32) {
	step := c.Speed * dt
	c.Pos = c.Pos.
		Add(c.Front().Mul(forward * step)).
		Add(c.Right().Mul(right * step)).
		Add(mgl32.Vec3{0, up * step, 0})
}

// Look turns the camera by a mouse delta in pixels. Pitch stays within
// ±89 degrees so the view never flips.
func (c *FlyCamera) Look(dx, dy float32) {
	c.Yaw += dx * c.Sensitivity
	c.Pitch = mgl32.Clamp(c.Pitch-dy*c.Sensitivity, -89, 89)
}

// Scroll zooms in for positive delta.
func (c *FlyCamera) Scroll(delta float32) {
	c.Zoom = mgl32.Clamp(c.Zoom-delta, c.MinZoom, c.MaxZoom)
}
