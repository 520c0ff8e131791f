package input

import (
	"testing"

	"github.com/veandco/go-sdl2/sdl"
)

func keyDown(code sdl.Scancode) *sdl.KeyboardEvent {
	return &sdl.KeyboardEvent{Type: sdl.KEYDOWN, Keysym: sdl.Keysym{Scancode: code}}
}

func keyUp(code sdl.Scancode) *sdl.KeyboardEvent {
	return &sdl.KeyboardEvent{Type: sdl.KEYUP, Keysym: sdl.Keysym{Scancode: code}}
}

func pressed(in *Input, key sdl.Scancode) bool {
	for _, e := range in.Events() {
		if e.Type == EventKeyDown && e.Key == key {
			return true
		}
	}
	return false
}

func TestHeldKeysAndMovement(t *testing.T) {
	in := New()
	in.handle(keyDown(sdl.SCANCODE_W))
	in.handle(keyDown(sdl.SCANCODE_A))
	in.handle(keyDown(sdl.SCANCODE_SPACE))

	f, r, u := in.Movement()
	if f != 1 || r != -1 || u != 1 {
		t.Errorf("Movement = %v %v %v, want 1 -1 1", f, r, u)
	}
	if !pressed(in, sdl.SCANCODE_W) {
		t.Error("W should be reported as pressed")
	}

	in.handle(keyUp(sdl.SCANCODE_W))
	if in.IsKeyHeld(sdl.SCANCODE_W) {
		t.Error("W released but still held")
	}
	f, _, _ = in.Movement()
	if f != 0 {
		t.Errorf("forward = %v after release", f)
	}
}

func TestKeyRepeatNotPressed(t *testing.T) {
	in := New()
	ev := keyDown(sdl.SCANCODE_F)
	ev.Repeat = 1
	in.handle(ev)
	if pressed(in, sdl.SCANCODE_F) {
		t.Error("auto-repeat should not count as a press")
	}
	if !in.IsKeyHeld(sdl.SCANCODE_F) {
		t.Error("auto-repeat keeps the key held")
	}
}

func TestMouseAccumulates(t *testing.T) {
	in := New()
	in.handle(&sdl.MouseMotionEvent{XRel: 3, YRel: -2})
	in.handle(&sdl.MouseMotionEvent{XRel: 1, YRel: 1})
	in.handle(&sdl.MouseWheelEvent{Y: 2})

	dx, dy := in.MouseDelta()
	if dx != 4 || dy != -1 {
		t.Errorf("MouseDelta = %v %v", dx, dy)
	}
	if in.Wheel() != 2 {
		t.Errorf("Wheel = %v", in.Wheel())
	}
	if got := len(in.Events()); got != 3 {
		t.Errorf("events = %d, want 3", got)
	}
}

func TestQuitAndResize(t *testing.T) {
	in := New()
	if !in.handle(&sdl.QuitEvent{}) {
		t.Error("quit event should request exit")
	}
	in.handle(&sdl.WindowEvent{Event: sdl.WINDOWEVENT_RESIZED, Data1: 800, Data2: 600})
	last := in.Events()[len(in.Events())-1]
	if last.Type != EventWindowResize || last.Width != 800 || last.Height != 600 {
		t.Errorf("resize event = %+v", last)
	}
}
