package xdg

import (
	wl "deedles.dev/decor/client"
	"deedles.dev/decor/wire"
)

const surfaceInterface = "xdg_surface"

// Surface is an xdg_surface.
type Surface struct {
	wl.Proxy

	// Configure marks the end of a configure sequence. The serial
	// must be passed to AckConfigure before the next commit that
	// applies the configuration.
	Configure func(serial uint32)
}

func (s *Surface) Interface() string {
	return surfaceInterface
}

func (s *Surface) MethodName(op uint16) string {
	if op == 0 {
		return "configure"
	}
	return "unknown method"
}

func (s *Surface) Dispatch(msg *wire.MessageBuffer) error {
	if msg.Op() != 0 {
		return wire.UnknownOpError{Interface: surfaceInterface, Type: "event", Op: msg.Op()}
	}

	serial := msg.ReadUint()
	if err := msg.Err(); err != nil {
		return err
	}
	if s.Configure != nil {
		s.Configure(serial)
	}
	return nil
}

func (s *Surface) Destroy() {
	s.Enqueue(wire.Request(s, 0, "destroy"))
	s.MarkDestroyed()
}

func (s *Surface) GetToplevel() *Toplevel {
	var t Toplevel
	s.Adopt(&t)
	s.Enqueue(wire.Request(s, 1, "get_toplevel", &t))
	return &t
}

// GetPopup assigns the popup role. parent may be nil if it will be
// set through another protocol.
func (s *Surface) GetPopup(parent *Surface, positioner *Positioner) *Popup {
	var p Popup
	s.Adopt(&p)
	s.Enqueue(wire.Request(s, 2, "get_popup", &p, parent, positioner))
	return &p
}

func (s *Surface) SetWindowGeometry(x, y, width, height int32) {
	s.Enqueue(wire.Request(s, 3, "set_window_geometry", x, y, width, height))
}

func (s *Surface) AckConfigure(serial uint32) {
	s.Enqueue(wire.Request(s, 4, "ack_configure", serial))
}
