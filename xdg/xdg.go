// Package xdg implements the client side of the xdg-shell and
// xdg-decoration protocols.
package xdg

import (
	wl "deedles.dev/decor/client"
	"deedles.dev/decor/wire"
)

const (
	wmBaseInterface = "xdg_wm_base"
	wmBaseVersion   = 5

	decorationManagerInterface = "zxdg_decoration_manager_v1"
	decorationManagerVersion   = 1
)

type WmBase struct {
	wl.Proxy

	// Ping is called after the pong has already been queued.
	Ping func(serial uint32)
}

func IsWmBase(i wl.Interface) bool {
	return i.Is(wmBaseInterface, 1)
}

func BindWmBase(registry *wl.Registry, name, version uint32) *WmBase {
	var wm WmBase
	registry.Bind(name, &wm, min(version, wmBaseVersion))
	return &wm
}

func (wm *WmBase) Interface() string {
	return wmBaseInterface
}

func (wm *WmBase) MethodName(op uint16) string {
	if op == 0 {
		return "ping"
	}
	return "unknown method"
}

func (wm *WmBase) Dispatch(msg *wire.MessageBuffer) error {
	if msg.Op() != 0 {
		return wire.UnknownOpError{Interface: wmBaseInterface, Type: "event", Op: msg.Op()}
	}

	serial := msg.ReadUint()
	if err := msg.Err(); err != nil {
		return err
	}

	wm.Pong(serial)
	if wm.Ping != nil {
		wm.Ping(serial)
	}
	return nil
}

func (wm *WmBase) Destroy() {
	wm.Enqueue(wire.Request(wm, 0, "destroy"))
	wm.MarkDestroyed()
}

func (wm *WmBase) CreatePositioner() *Positioner {
	var p Positioner
	wm.Adopt(&p)
	wm.Enqueue(wire.Request(wm, 1, "create_positioner", &p))
	return &p
}

func (wm *WmBase) GetXdgSurface(surface *wl.Surface) *Surface {
	var s Surface
	wm.Adopt(&s)
	wm.Enqueue(wire.Request(wm, 2, "get_xdg_surface", &s, surface))
	return &s
}

func (wm *WmBase) Pong(serial uint32) {
	wm.Enqueue(wire.Request(wm, 3, "pong", serial))
}

// DecorationManager is zxdg_decoration_manager_v1.
type DecorationManager struct {
	wl.Proxy
}

func IsDecorationManager(i wl.Interface) bool {
	return i.Is(decorationManagerInterface, 1)
}

func BindDecorationManager(registry *wl.Registry, name, version uint32) *DecorationManager {
	var m DecorationManager
	registry.Bind(name, &m, min(version, decorationManagerVersion))
	return &m
}

func (m *DecorationManager) Interface() string {
	return decorationManagerInterface
}

func (m *DecorationManager) MethodName(op uint16) string {
	return "unknown method"
}

func (m *DecorationManager) Dispatch(msg *wire.MessageBuffer) error {
	return wire.UnknownOpError{Interface: decorationManagerInterface, Type: "event", Op: msg.Op()}
}

func (m *DecorationManager) Destroy() {
	m.Enqueue(wire.Request(m, 0, "destroy"))
	m.MarkDestroyed()
}

// GetToplevelDecoration creates the decoration object for a toplevel.
// A toplevel may have only one.
func (m *DecorationManager) GetToplevelDecoration(toplevel *Toplevel) *ToplevelDecoration {
	var d ToplevelDecoration
	m.Adopt(&d)
	m.Enqueue(wire.Request(m, 1, "get_toplevel_decoration", &d, toplevel))
	return &d
}
