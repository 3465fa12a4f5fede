package wl

import "deedles.dev/decor/wire"

const surfaceInterface = "wl_surface"

type Surface struct {
	Proxy

	Enter func(*Output)
	Leave func(*Output)
}

func (s *Surface) Interface() string {
	return surfaceInterface
}

func (s *Surface) MethodName(op uint16) string {
	switch op {
	case 0:
		return "enter"
	case 1:
		return "leave"
	}
	return "unknown method"
}

func (s *Surface) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case 0, 1:
		id := msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}

		output, _ := s.client.Get(id).(*Output)
		f := s.Enter
		if msg.Op() == 1 {
			f = s.Leave
		}
		if f != nil {
			f(output)
		}
		return nil

	default:
		return wire.UnknownOpError{Interface: surfaceInterface, Type: "event", Op: msg.Op()}
	}
}

func (s *Surface) Destroy() {
	s.Enqueue(wire.Request(s, 0, "destroy"))
	s.MarkDestroyed()
}

// Attach attaches buf as the surface's pending content. A nil buf
// unmaps the surface on the next commit.
func (s *Surface) Attach(buf *Buffer, x, y int32) {
	s.Enqueue(wire.Request(s, 1, "attach", buf, x, y))
}

func (s *Surface) Damage(x, y, width, height int32) {
	s.Enqueue(wire.Request(s, 2, "damage", x, y, width, height))
}

// Frame requests a callback for when it is a good time to draw the
// next frame.
func (s *Surface) Frame(done func(uint32)) *Callback {
	callback := Callback{Done: done}
	s.Adopt(&callback)
	s.Enqueue(wire.Request(s, 3, "frame", &callback))
	return &callback
}

func (s *Surface) Commit() {
	s.Enqueue(wire.Request(s, 6, "commit"))
}

func (s *Surface) SetBufferScale(scale int32) {
	s.Enqueue(wire.Request(s, 8, "set_buffer_scale", scale))
}

func (s *Surface) DamageBuffer(x, y, width, height int32) {
	s.Enqueue(wire.Request(s, 9, "damage_buffer", x, y, width, height))
}
