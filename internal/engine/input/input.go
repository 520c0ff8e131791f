// Package input handles SDL2 input events.
package input

import (
	"github.com/veandco/go-sdl2/sdl"
)

// EventType classifies processed events.
type EventType int

const (
	EventNone EventType = iota
	EventQuit
	EventWindowResize
	EventKeyDown
	EventKeyUp
	EventMouseMove
	EventMouseDown
	EventMouseUp
	EventMouseWheel
)

// Event represents a processed input event.
type Event struct {
	Type   EventType
	Key    sdl.Scancode
	Width  int
	Height int
	MouseX int
	MouseY int
	DeltaX int
	DeltaY int
	Wheel  float32
	Button uint8
}

// Input handles all input processing.
type Input struct {
	events []Event
	held   map[sdl.Scancode]bool
	mouseX float32
	mouseY float32
	wheel  float32
}

// New creates a new input handler.
func New() *Input {
	return &Input{
		events: make([]Event, 0, 16),
		held:   make(map[sdl.Scancode]bool),
	}
}

// Update polls SDL events for this frame.
// Returns true if the application should quit.
func (i *Input) Update() bool {
	i.events = i.events[:0]
	i.mouseX, i.mouseY, i.wheel = 0, 0, 0

	quit := false
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		if i.handle(event) {
			quit = true
		}
	}
	return quit
}

func (i *Input) handle(event sdl.Event) bool {
	switch e := event.(type) {
	case *sdl.QuitEvent:
		i.events = append(i.events, Event{Type: EventQuit})
		return true

	case *sdl.WindowEvent:
		if e.Event == sdl.WINDOWEVENT_RESIZED || e.Event == sdl.WINDOWEVENT_SIZE_CHANGED {
			i.events = append(i.events, Event{
				Type:   EventWindowResize,
				Width:  int(e.Data1),
				Height: int(e.Data2),
			})
		}

	case *sdl.KeyboardEvent:
		switch e.Type {
		case sdl.KEYDOWN:
			i.held[e.Keysym.Scancode] = true
			if e.Repeat == 0 {
				i.events = append(i.events, Event{Type: EventKeyDown, Key: e.Keysym.Scancode})
			}
		case sdl.KEYUP:
			delete(i.held, e.Keysym.Scancode)
			i.events = append(i.events, Event{Type: EventKeyUp, Key: e.Keysym.Scancode})
		}

	case *sdl.MouseMotionEvent:
		i.mouseX += float32(e.XRel)
		i.mouseY += float32(e.YRel)
		i.events = append(i.events, Event{
			Type:   EventMouseMove,
			MouseX: int(e.X),
			MouseY: int(e.Y),
			DeltaX: int(e.XRel),
			DeltaY: int(e.YRel),
		})

	case *sdl.MouseWheelEvent:
		i.wheel += float32(e.Y)
		i.events = append(i.events, Event{Type: EventMouseWheel, Wheel: float32(e.Y)})

	case *sdl.MouseButtonEvent:
		t := EventMouseDown
		if e.Type == sdl.MOUSEBUTTONUP {
			t = EventMouseUp
		}
		i.events = append(i.events, Event{
			Type:   t,
			MouseX: int(e.X),
			MouseY: int(e.Y),
			Button: e.Button,
		})
	}
	return false
}

// Events returns the events from the last Update.
func (i *Input) Events() []Event {
	return i.events
}

// IsKeyHeld reports whether a key is currently down.
func (i *Input) IsKeyHeld(scancode sdl.Scancode) bool {
	return i.held[scancode]
}

// MouseDelta returns the relative mouse motion accumulated this frame.
func (i *Input) MouseDelta() (dx, dy float32) {
	return i.mouseX, i.mouseY
}

// Wheel returns the vertical scroll accumulated this frame.
func (i *Input) Wheel() float32 {
	return i.wheel
}

// Movement maps WASD, Space and Left Ctrl to forward, right and up axes
// in -1..1.
func (i *Input) Movement() (forward, right, up float32) {
	axis := func(pos, neg sdl.Scancode) float32 {
		var v float32
		if i.IsKeyHeld(pos) {
			v++
		}
		if i.IsKeyHeld(neg) {
			v--
		}
		return v
	}
	return axis(sdl.SCANCODE_W, sdl.SCANCODE_S),
		axis(sdl.SCANCODE_D, sdl.SCANCODE_A),
		axis(sdl.SCANCODE_SPACE, sdl.SCANCODE_LCTRL)
}
