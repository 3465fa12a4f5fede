package xdg

import (
	"unsafe"

	wl "deedles.dev/decor/client"
	"deedles.dev/decor/wire"
)

const toplevelInterface = "xdg_toplevel"

type ToplevelState uint32

const (
	ToplevelStateMaximized ToplevelState = 1 + iota
	ToplevelStateFullscreen
	ToplevelStateResizing
	ToplevelStateActivated
	ToplevelStateTiledLeft
	ToplevelStateTiledRight
	ToplevelStateTiledTop
	ToplevelStateTiledBottom
	ToplevelStateSuspended
)

type ToplevelResizeEdge uint32

const (
	ToplevelResizeEdgeNone        ToplevelResizeEdge = 0
	ToplevelResizeEdgeTop         ToplevelResizeEdge = 1
	ToplevelResizeEdgeBottom      ToplevelResizeEdge = 2
	ToplevelResizeEdgeLeft        ToplevelResizeEdge = 4
	ToplevelResizeEdgeTopLeft     ToplevelResizeEdge = 5
	ToplevelResizeEdgeBottomLeft  ToplevelResizeEdge = 6
	ToplevelResizeEdgeRight       ToplevelResizeEdge = 8
	ToplevelResizeEdgeTopRight    ToplevelResizeEdge = 9
	ToplevelResizeEdgeBottomRight ToplevelResizeEdge = 10
)

type ToplevelWmCapability uint32

const (
	ToplevelWmCapabilityWindowMenu ToplevelWmCapability = 1 + iota
	ToplevelWmCapabilityMaximize
	ToplevelWmCapabilityFullscreen
	ToplevelWmCapabilityMinimize
)

type Toplevel struct {
	wl.Proxy

	Configure       func(width, height int32, states []ToplevelState)
	Close           func()
	ConfigureBounds func(width, height int32)
	WmCapabilities  func([]ToplevelWmCapability)
}

func (t *Toplevel) Interface() string {
	return toplevelInterface
}

func (t *Toplevel) MethodName(op uint16) string {
	switch op {
	case 0:
		return "configure"
	case 1:
		return "close"
	case 2:
		return "configure_bounds"
	case 3:
		return "wm_capabilities"
	}
	return "unknown method"
}

func (t *Toplevel) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case 0:
		w, h, states := msg.ReadInt(), msg.ReadInt(), msg.ReadArray()
		if err := msg.Err(); err != nil {
			return err
		}
		if t.Configure != nil {
			t.Configure(w, h, uint32Array[ToplevelState](states))
		}

	case 1:
		if t.Close != nil {
			t.Close()
		}

	case 2:
		w, h := msg.ReadInt(), msg.ReadInt()
		if err := msg.Err(); err != nil {
			return err
		}
		if t.ConfigureBounds != nil {
			t.ConfigureBounds(w, h)
		}

	case 3:
		caps := msg.ReadArray()
		if err := msg.Err(); err != nil {
			return err
		}
		if t.WmCapabilities != nil {
			t.WmCapabilities(uint32Array[ToplevelWmCapability](caps))
		}

	default:
		return wire.UnknownOpError{Interface: toplevelInterface, Type: "event", Op: msg.Op()}
	}

	return nil
}

func (t *Toplevel) Destroy() {
	t.Enqueue(wire.Request(t, 0, "destroy"))
	t.MarkDestroyed()
}

// SetParent sets the toplevel's parent. A nil parent unsets it.
func (t *Toplevel) SetParent(parent *Toplevel) {
	t.Enqueue(wire.Request(t, 1, "set_parent", parent))
}

func (t *Toplevel) SetTitle(title string) {
	t.Enqueue(wire.Request(t, 2, "set_title", title))
}

func (t *Toplevel) SetAppID(id string) {
	t.Enqueue(wire.Request(t, 3, "set_app_id", id))
}

func (t *Toplevel) ShowWindowMenu(seat *wl.Seat, serial uint32, x, y int32) {
	t.Enqueue(wire.Request(t, 4, "show_window_menu", seat, serial, x, y))
}

func (t *Toplevel) Move(seat *wl.Seat, serial uint32) {
	t.Enqueue(wire.Request(t, 5, "move", seat, serial))
}

func (t *Toplevel) Resize(seat *wl.Seat, serial uint32, edges ToplevelResizeEdge) {
	t.Enqueue(wire.Request(t, 6, "resize", seat, serial, uint32(edges)))
}

// SetMaxSize sets the maximum window geometry size. Zero means no
// limit in that dimension.
func (t *Toplevel) SetMaxSize(width, height int32) {
	t.Enqueue(wire.Request(t, 7, "set_max_size", width, height))
}

// SetMinSize sets the minimum window geometry size. Zero means no
// limit in that dimension.
func (t *Toplevel) SetMinSize(width, height int32) {
	t.Enqueue(wire.Request(t, 8, "set_min_size", width, height))
}

func (t *Toplevel) SetMaximized() {
	t.Enqueue(wire.Request(t, 9, "set_maximized"))
}

func (t *Toplevel) UnsetMaximized() {
	t.Enqueue(wire.Request(t, 10, "unset_maximized"))
}

// SetFullscreen asks for the toplevel to be made fullscreen on
// output, or on an output of the compositor's choosing if output is
// nil.
func (t *Toplevel) SetFullscreen(output *wl.Output) {
	t.Enqueue(wire.Request(t, 11, "set_fullscreen", output))
}

func (t *Toplevel) UnsetFullscreen() {
	t.Enqueue(wire.Request(t, 12, "unset_fullscreen"))
}

func (t *Toplevel) SetMinimized() {
	t.Enqueue(wire.Request(t, 13, "set_minimized"))
}

func uint32Array[T ~uint32](data []byte) []T {
	if len(data) < 4 {
		return nil
	}
	return unsafe.Slice((*T)(unsafe.Pointer(&data[0])), len(data)/4)
}
