// Package input turns SDL2 events into camera controls.
package input

import (
	"github.com/veandco/go-sdl2/sdl"
)

// EventType classifies a processed event.
type EventType int

const (
	EventNone EventType = iota
	EventQuit
	EventKeyDown
	EventDrag
	EventZoom
)

// Event is a processed input event.
type Event struct {
	Type   EventType
	Key    sdl.Scancode
	DX, DY float32
	Zoom   float32
}

// Orbiter is the camera surface the events drive.
type Orbiter interface {
	HandleDrag(deltaX, deltaY float32)
	HandleZoom(delta float32)
}

// Input polls SDL and tracks the drag button.
type Input struct {
	events   []Event
	dragging bool
}

// New creates a new input handler.
func New() *Input {
	return &Input{
		events: make([]Event, 0, 16),
	}
}

// Update polls SDL events. Returns true if a quit was requested.
func (i *Input) Update() bool {
	i.events = i.events[:0]

	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch e := event.(type) {
		case *sdl.QuitEvent:
			i.events = append(i.events, Event{Type: EventQuit})

		case *sdl.KeyboardEvent:
			if e.Type == sdl.KEYDOWN {
				i.push(Event{Type: EventKeyDown, Key: e.Keysym.Scancode})
			}

		case *sdl.MouseButtonEvent:
			if e.Button == sdl.BUTTON_LEFT {
				i.dragging = e.Type == sdl.MOUSEBUTTONDOWN
			}

		case *sdl.MouseMotionEvent:
			if i.dragging {
				i.push(Event{Type: EventDrag, DX: float32(e.XRel), DY: float32(e.YRel)})
			}

		case *sdl.MouseWheelEvent:
			i.push(Event{Type: EventZoom, Zoom: float32(e.Y)})
		}
	}

	return i.Quit()
}

// push appends an event. Escape is reported as a quit.
func (i *Input) push(e Event) {
	if e.Type == EventKeyDown && e.Key == sdl.SCANCODE_ESCAPE {
		e = Event{Type: EventQuit}
	}
	i.events = append(i.events, e)
}

// Events returns the events from the last Update.
func (i *Input) Events() []Event {
	return i.events
}

// Quit reports whether the last Update saw a quit request.
func (i *Input) Quit() bool {
	for _, e := range i.events {
		if e.Type == EventQuit {
			return true
		}
	}
	return false
}

// IsKeyPressed checks if a specific key was pressed this frame.
func (i *Input) IsKeyPressed(scancode sdl.Scancode) bool {
	for _, e := range i.events {
		if e.Type == EventKeyDown && e.Key == scancode {
			return true
		}
	}
	return false
}

// Apply feeds drag and zoom events to the camera.
func Apply(events []Event, cam Orbiter) {
	for _, e := range events {
		switch e.Type {
		case EventDrag:
			cam.HandleDrag(e.DX, e.DY)
		case EventZoom:
			cam.HandleZoom(e.Zoom)
		}
	}
}
