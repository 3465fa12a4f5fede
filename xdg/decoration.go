package xdg

import (
	wl "deedles.dev/decor/client"
	"deedles.dev/decor/wire"
)

const toplevelDecorationInterface = "zxdg_toplevel_decoration_v1"

type DecorationMode uint32

const (
	DecorationModeClientSide DecorationMode = 1
	DecorationModeServerSide DecorationMode = 2
)

func (m DecorationMode) String() string {
	switch m {
	case DecorationModeClientSide:
		return "client_side"
	case DecorationModeServerSide:
		return "server_side"
	}
	return "unknown"
}

// ToplevelDecoration is zxdg_toplevel_decoration_v1. It must be
// destroyed before its toplevel.
type ToplevelDecoration struct {
	wl.Proxy

	Configure func(DecorationMode)
}

func (d *ToplevelDecoration) Interface() string {
	return toplevelDecorationInterface
}

func (d *ToplevelDecoration) MethodName(op uint16) string {
	if op == 0 {
		return "configure"
	}
	return "unknown method"
}

func (d *ToplevelDecoration) Dispatch(msg *wire.MessageBuffer) error {
	if msg.Op() != 0 {
		return wire.UnknownOpError{Interface: toplevelDecorationInterface, Type: "event", Op: msg.Op()}
	}

	mode := msg.ReadUint()
	if err := msg.Err(); err != nil {
		return err
	}
	if d.Configure != nil {
		d.Configure(DecorationMode(mode))
	}
	return nil
}

func (d *ToplevelDecoration) Destroy() {
	d.Enqueue(wire.Request(d, 0, "destroy"))
	d.MarkDestroyed()
}

func (d *ToplevelDecoration) SetMode(mode DecorationMode) {
	d.Enqueue(wire.Request(d, 1, "set_mode", uint32(mode)))
}

func (d *ToplevelDecoration) UnsetMode() {
	d.Enqueue(wire.Request(d, 2, "unset_mode"))
}
