package wl

import "deedles.dev/decor/wire"

const pointerInterface = "wl_pointer"

type Pointer struct {
	Proxy

	Enter        func(serial uint32, s *Surface, x, y wire.Fixed)
	Leave        func(serial uint32, s *Surface)
	Motion       func(time uint32, x, y wire.Fixed)
	Button       func(serial, time uint32, button PointerButton, state PointerButtonState)
	Axis         func(time uint32, axis PointerAxis, value wire.Fixed)
	Frame        func()
	AxisSource   func(PointerAxisSource)
	AxisStop     func(time uint32, axis PointerAxis)
	AxisDiscrete func(axis PointerAxis, discrete int32)
}

func (p *Pointer) Interface() string {
	return pointerInterface
}

func (p *Pointer) MethodName(op uint16) string {
	switch op {
	case 0:
		return "enter"
	case 1:
		return "leave"
	case 2:
		return "motion"
	case 3:
		return "button"
	case 4:
		return "axis"
	case 5:
		return "frame"
	case 6:
		return "axis_source"
	case 7:
		return "axis_stop"
	case 8:
		return "axis_discrete"
	}
	return "unknown method"
}

func (p *Pointer) surface(id uint32) *Surface {
	s, _ := p.client.Get(id).(*Surface)
	return s
}

func (p *Pointer) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case 0:
		serial, surface, x, y := msg.ReadUint(), msg.ReadUint(), msg.ReadFixed(), msg.ReadFixed()
		if err := msg.Err(); err != nil {
			return err
		}
		if p.Enter != nil {
			p.Enter(serial, p.surface(surface), x, y)
		}

	case 1:
		serial, surface := msg.ReadUint(), msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}
		if p.Leave != nil {
			p.Leave(serial, p.surface(surface))
		}

	case 2:
		time, x, y := msg.ReadUint(), msg.ReadFixed(), msg.ReadFixed()
		if err := msg.Err(); err != nil {
			return err
		}
		if p.Motion != nil {
			p.Motion(time, x, y)
		}

	case 3:
		serial, time, button, state := msg.ReadUint(), msg.ReadUint(), msg.ReadUint(), msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}
		if p.Button != nil {
			p.Button(serial, time, PointerButton(button), PointerButtonState(state))
		}

	case 4:
		time, axis, value := msg.ReadUint(), msg.ReadUint(), msg.ReadFixed()
		if err := msg.Err(); err != nil {
			return err
		}
		if p.Axis != nil {
			p.Axis(time, PointerAxis(axis), value)
		}

	case 5:
		if p.Frame != nil {
			p.Frame()
		}

	case 6:
		source := msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}
		if p.AxisSource != nil {
			p.AxisSource(PointerAxisSource(source))
		}

	case 7:
		time, axis := msg.ReadUint(), msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}
		if p.AxisStop != nil {
			p.AxisStop(time, PointerAxis(axis))
		}

	case 8:
		axis, discrete := msg.ReadUint(), msg.ReadInt()
		if err := msg.Err(); err != nil {
			return err
		}
		if p.AxisDiscrete != nil {
			p.AxisDiscrete(PointerAxis(axis), discrete)
		}

	default:
		return wire.UnknownOpError{Interface: pointerInterface, Type: "event", Op: msg.Op()}
	}

	return nil
}

// SetCursor sets the pointer image. A nil surface hides the cursor.
func (p *Pointer) SetCursor(serial uint32, surface *Surface, hotspotX, hotspotY int32) {
	p.Enqueue(wire.Request(p, 0, "set_cursor", serial, surface, hotspotX, hotspotY))
}

func (p *Pointer) Release() {
	p.Enqueue(wire.Request(p, 1, "release"))
	p.MarkDestroyed()
}

// PointerButton is a Linux evdev button code.
type PointerButton uint32

const (
	PointerButtonLeft PointerButton = 0x110 + iota
	PointerButtonRight
	PointerButtonMiddle
	PointerButtonSide
	PointerButtonExtra
	PointerButtonForward
	PointerButtonBack
	PointerButtonTask
)

func (b PointerButton) String() string {
	switch b {
	case PointerButtonLeft:
		return "left"
	case PointerButtonRight:
		return "right"
	case PointerButtonMiddle:
		return "middle"
	case PointerButtonSide:
		return "side"
	case PointerButtonExtra:
		return "extra"
	case PointerButtonForward:
		return "forward"
	case PointerButtonBack:
		return "back"
	case PointerButtonTask:
		return "task"
	}

	return "unknown"
}

type PointerButtonState uint32

const (
	PointerButtonStateReleased PointerButtonState = iota
	PointerButtonStatePressed
)

type PointerAxis uint32

const (
	PointerAxisVerticalScroll PointerAxis = iota
	PointerAxisHorizontalScroll
)

type PointerAxisSource uint32

const (
	PointerAxisSourceWheel PointerAxisSource = iota
	PointerAxisSourceFinger
	PointerAxisSourceContinuous
	PointerAxisSourceWheelTilt
)
