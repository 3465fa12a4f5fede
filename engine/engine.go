// Package engine defines the boundary between the decor package and
// the decoration engine that does the actual work of negotiating with
// the compositor.
//
// Engines identify the application's callbacks only through an opaque
// userData token that they hand back unchanged, and report errors
// through a single per-instance function that carries no user data at
// all. Bitsets and enumerations cross the boundary as plain integers
// with the values listed below.
package engine

import (
	"time"

	wl "deedles.dev/decor/client"
	"deedles.dev/decor/xdg"
)

type ErrorCode int

const (
	ErrorCompositorIncompatible ErrorCode = iota
	ErrorInvalidFrameConfiguration
)

// Window state bits.
const (
	WindowStateNone        uint32 = 0
	WindowStateActive      uint32 = 1 << 0
	WindowStateMaximized   uint32 = 1 << 1
	WindowStateFullscreen  uint32 = 1 << 2
	WindowStateTiledLeft   uint32 = 1 << 3
	WindowStateTiledRight  uint32 = 1 << 4
	WindowStateTiledTop    uint32 = 1 << 5
	WindowStateTiledBottom uint32 = 1 << 6

	// WindowStateConstrained is the set of states that make a window
	// not floating.
	WindowStateConstrained = WindowStateMaximized | WindowStateFullscreen |
		WindowStateTiledLeft | WindowStateTiledRight | WindowStateTiledTop | WindowStateTiledBottom
)

// Capability bits.
const (
	ActionMove       uint32 = 1 << 0
	ActionResize     uint32 = 1 << 1
	ActionMinimize   uint32 = 1 << 2
	ActionFullscreen uint32 = 1 << 3
	ActionClose      uint32 = 1 << 4
)

// Resize edges.
const (
	ResizeEdgeNone uint32 = iota
	ResizeEdgeTop
	ResizeEdgeBottom
	ResizeEdgeLeft
	ResizeEdgeTopLeft
	ResizeEdgeBottomLeft
	ResizeEdgeRight
	ResizeEdgeTopRight
	ResizeEdgeBottomRight
)

// Engine opens instances and allocates states.
type Engine interface {
	// New opens an instance bound to display. It is assumed to
	// succeed.
	New(display *wl.Client, iface *Interface) Instance

	NewState(width, height int) State
}

// Interface holds the instance-level callbacks.
type Interface struct {
	Error func(inst Instance, code ErrorCode, message string)
}

// FrameInterface holds the frame-level callbacks. Each is given back
// the userData that was passed to Decorate.
type FrameInterface struct {
	Configure    func(frame Frame, config Configuration, userData uintptr)
	Close        func(frame Frame, userData uintptr)
	Commit       func(frame Frame, userData uintptr)
	DismissPopup func(frame Frame, seat string, userData uintptr)
}

type Instance interface {
	// Unref releases the instance.
	Unref()

	// Fd returns a descriptor that is readable when Dispatch has
	// something to do.
	Fd() int

	// Dispatch processes pending events, waiting up to timeout for
	// some to arrive. A timeout of zero or less does not block. It
	// returns the number of events processed, or an error if the
	// connection is no longer usable.
	Dispatch(timeout time.Duration) (int, error)

	// Decorate creates a frame for surface. It returns nil if the
	// surface can not be decorated.
	Decorate(surface *wl.Surface, iface *FrameInterface, userData uintptr) Frame
}

// State is a content state that is about to be committed.
type State interface {
	Size() (width, height int)
	Free()
}

// Configuration is a configuration proposed by the compositor. It is
// only valid for the duration of the Configure callback that it is
// passed to.
type Configuration interface {
	// ContentSize returns the content size that the configuration
	// proposes for frame, if any.
	ContentSize(frame Frame) (width, height int, ok bool)

	// WindowState returns the window state of the configuration, if
	// it has one.
	WindowState() (state uint32, ok bool)
}

type Frame interface {
	Ref()
	Unref()

	SetParent(parent Frame)
	SetTitle(title string)
	Title() string
	SetAppID(id string)

	SetCapabilities(caps uint32)
	UnsetCapabilities(caps uint32)
	HasCapability(caps uint32) bool

	ShowWindowMenu(seat *wl.Seat, serial uint32, x, y int)
	PopupGrab(seat string)
	PopupUngrab(seat string)
	TranslateCoordinate(x, y int) (int, int)

	SetMinContentSize(width, height int)
	MinContentSize() (width, height int)
	SetMaxContentSize(width, height int)
	MaxContentSize() (width, height int)

	Resize(seat *wl.Seat, serial uint32, edge uint32)
	Move(seat *wl.Seat, serial uint32)

	// Commit applies state. config is the configuration that caused
	// the commit, or nil.
	Commit(state State, config Configuration)

	SetMinimized()
	SetMaximized()
	UnsetMaximized()
	SetFullscreen(output *wl.Output)
	UnsetFullscreen()
	IsFloating() bool

	Close()
	Map()

	SetVisibility(visible bool)
	IsVisible() bool

	XdgSurface() *xdg.Surface
	XdgToplevel() *xdg.Toplevel
}
