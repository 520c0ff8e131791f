package camera

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func approx(a, b mgl32.Vec3) bool {
	return a.Sub(b).Len() < 1e-5
}

func TestFlyCameraDefaults(t *testing.T) {
	c := NewFlyCamera(mgl32.Vec3{0, 0, 3}, 45)
	if !approx(c.Front(), mgl32.Vec3{0, 0, -1}) {
		t.Errorf("Front = %v, want -Z", c.Front())
	}
	if !approx(c.Right(), mgl32.Vec3{1, 0, 0}) {
		t.Errorf("Right = %v, want +X", c.Right())
	}

	// the view matrix puts the camera at the origin
	eye := c.ViewMatrix().Mul4x1(c.Pos.Vec4(1)).Vec3()
	if !approx(eye, mgl32.Vec3{}) {
		t.Errorf("camera in view space = %v", eye)
	}
}

func TestFlyCameraMove(t *testing.T) {
	c := NewFlyCamera(mgl32.Vec3{}, 45)
	c.Speed = 2
	c.Move(1, 0, 0, 0.5)
	if !approx(c.Pos, mgl32.Vec3{0, 0, -1}) {
		t.Errorf("after forward Pos = %v", c.Pos)
	}
	c.Move(0, 1, 1, 1)
	if !approx(c.Pos, mgl32.Vec3{2, 2, -1}) {
		t.Errorf("after right+up Pos = %v", c.Pos)
	}
}

func TestFlyCameraLookClamps(t *testing.T) {
	c := NewFlyCamera(mgl32.Vec3{}, 45)
	c.Look(0, -10000)
	if c.Pitch != 89 {
		t.Errorf("Pitch = %v, want 89", c.Pitch)
	}
	c.Look(0, 10000)
	if c.Pitch != -89 {
		t.Errorf("Pitch = %v, want -89", c.Pitch)
	}
	c.Look(900, 0)
	if c.Yaw != 0 {
		t.Errorf("Yaw = %v, want 0", c.Yaw)
	}
}

func TestFlyCameraZoom(t *testing.T) {
	tests := []struct {
		delta float32
		want  float32
	}{
		{10, 35},
		{100, 1},
		{-100, 45},
	}
	c := NewFlyCamera(mgl32.Vec3{}, 45)
	for _, tt := range tests {
		c.Scroll(tt.delta)
		if c.FOV() != tt.want {
			t.Errorf("Scroll(%v) FOV = %v, want %v", tt.delta, c.FOV(), tt.want)
		}
	}
}

func TestProjection(t *testing.T) {
	var cam Camera = NewFlyCamera(mgl32.Vec3{}, 45)
	p := Projection(cam, 0, 0.1, 100)
	want := mgl32.Perspective(mgl32.DegToRad(45), 1, 0.1, 100)
	if p != want {
		t.Errorf("zero aspect should fall back to 1")
	}
}
