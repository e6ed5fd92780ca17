// Package capture defines the minimal collaborator interfaces a
// StreamSession drives at its edges: screen capture on the encoder side,
// input injection on the host, and frame delivery on the viewer side.
// These sit outside the core codec and transport, consumed only at their
// interfaces.
package capture

import "github.com/kulaginds/screenrelay/internal/frame"

// Cursor is the pointer position reported alongside a captured frame.
type Cursor struct {
	X, Y int
}

// ScreenCapturer grabs the current screen contents and cursor position.
type ScreenCapturer interface {
	Capture() (frame.Frame, Cursor, error)
}

// EventKind distinguishes the input events an InputInjector can replay.
type EventKind int

const (
	EventMouseMove EventKind = iota
	EventMouseButton
	EventKeyPress
	EventKeyRelease
)

// Event is a single remote input event forwarded from the viewer.
type Event struct {
	Kind   EventKind
	X, Y   int
	Button int
	Key    int
}

// InputInjector replays a remote input event on the host's local input
// devices.
type InputInjector interface {
	Inject(Event) error
}

// Renderer delivers a decoded frame and cursor position to the viewer's
// display surface.
type Renderer interface {
	Deliver(frame.Frame, Cursor) error
}
