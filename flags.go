package decor

import (
	"fmt"
	"strings"

	"deedles.dev/decor/engine"
)

type flag[T ~uint32] struct {
	bit  T
	name string
}

func eachFlag[T ~uint32](v T, flags []flag[T], yield func(T) bool) {
	for _, f := range flags {
		if v&f.bit == 0 {
			continue
		}
		if !yield(f.bit) {
			return
		}
	}
}

func flagString[T ~uint32](v T, flags []flag[T], none string) string {
	if v == 0 {
		return none
	}

	var sb strings.Builder
	for _, f := range flags {
		if v&f.bit == 0 {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte('|')
		}
		sb.WriteString(f.name)
		v &^= f.bit
	}
	if v != 0 {
		if sb.Len() > 0 {
			sb.WriteByte('|')
		}
		fmt.Fprintf(&sb, "%#x", uint32(v))
	}
	return sb.String()
}

// WindowState is a set of window state flags.
type WindowState uint32

const (
	WindowStateNone        = WindowState(engine.WindowStateNone)
	WindowStateActive      = WindowState(engine.WindowStateActive)
	WindowStateMaximized   = WindowState(engine.WindowStateMaximized)
	WindowStateFullscreen  = WindowState(engine.WindowStateFullscreen)
	WindowStateTiledLeft   = WindowState(engine.WindowStateTiledLeft)
	WindowStateTiledRight  = WindowState(engine.WindowStateTiledRight)
	WindowStateTiledTop    = WindowState(engine.WindowStateTiledTop)
	WindowStateTiledBottom = WindowState(engine.WindowStateTiledBottom)
)

var windowStateFlags = []flag[WindowState]{
	{WindowStateActive, "active"},
	{WindowStateMaximized, "maximized"},
	{WindowStateFullscreen, "fullscreen"},
	{WindowStateTiledLeft, "tiled_left"},
	{WindowStateTiledRight, "tiled_right"},
	{WindowStateTiledTop, "tiled_top"},
	{WindowStateTiledBottom, "tiled_bottom"},
}

// Has returns true if every flag in flags is set in s.
func (s WindowState) Has(flags WindowState) bool {
	return s&flags == flags
}

// Each yields each named flag that is set in s.
func (s WindowState) Each(yield func(WindowState) bool) {
	eachFlag(s, windowStateFlags, yield)
}

// IsFloating returns true if none of the flags that constrain a
// window's size are set.
func (s WindowState) IsFloating() bool {
	return uint32(s)&engine.WindowStateConstrained == 0
}

func (s WindowState) String() string {
	return flagString(s, windowStateFlags, "none")
}

// Capabilities is a set of actions that a frame allows.
type Capabilities uint32

const (
	CapabilityMove       = Capabilities(engine.ActionMove)
	CapabilityResize     = Capabilities(engine.ActionResize)
	CapabilityMinimize   = Capabilities(engine.ActionMinimize)
	CapabilityFullscreen = Capabilities(engine.ActionFullscreen)
	CapabilityClose      = Capabilities(engine.ActionClose)

	// CapabilityAll is every capability.
	CapabilityAll = CapabilityMove | CapabilityResize | CapabilityMinimize | CapabilityFullscreen | CapabilityClose
)

var capabilityFlags = []flag[Capabilities]{
	{CapabilityMove, "move"},
	{CapabilityResize, "resize"},
	{CapabilityMinimize, "minimize"},
	{CapabilityFullscreen, "fullscreen"},
	{CapabilityClose, "close"},
}

func (c Capabilities) Has(flags Capabilities) bool {
	return c&flags == flags
}

func (c Capabilities) Each(yield func(Capabilities) bool) {
	eachFlag(c, capabilityFlags, yield)
}

func (c Capabilities) String() string {
	return flagString(c, capabilityFlags, "none")
}

// ResizeEdge is the edge or corner that an interactive resize is
// started from.
type ResizeEdge uint32

const (
	ResizeEdgeNone        = ResizeEdge(engine.ResizeEdgeNone)
	ResizeEdgeTop         = ResizeEdge(engine.ResizeEdgeTop)
	ResizeEdgeBottom      = ResizeEdge(engine.ResizeEdgeBottom)
	ResizeEdgeLeft        = ResizeEdge(engine.ResizeEdgeLeft)
	ResizeEdgeTopLeft     = ResizeEdge(engine.ResizeEdgeTopLeft)
	ResizeEdgeBottomLeft  = ResizeEdge(engine.ResizeEdgeBottomLeft)
	ResizeEdgeRight       = ResizeEdge(engine.ResizeEdgeRight)
	ResizeEdgeTopRight    = ResizeEdge(engine.ResizeEdgeTopRight)
	ResizeEdgeBottomRight = ResizeEdge(engine.ResizeEdgeBottomRight)
)

func (e ResizeEdge) String() string {
	switch e {
	case ResizeEdgeNone:
		return "none"
	case ResizeEdgeTop:
		return "top"
	case ResizeEdgeBottom:
		return "bottom"
	case ResizeEdgeLeft:
		return "left"
	case ResizeEdgeTopLeft:
		return "top_left"
	case ResizeEdgeBottomLeft:
		return "bottom_left"
	case ResizeEdgeRight:
		return "right"
	case ResizeEdgeTopRight:
		return "top_right"
	case ResizeEdgeBottomRight:
		return "bottom_right"
	}
	return fmt.Sprintf("ResizeEdge(%d)", uint32(e))
}
