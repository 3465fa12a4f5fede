package wl

import "deedles.dev/decor/wire"

const (
	seatInterface = "wl_seat"
	seatVersion   = 5
)

type SeatCapability uint32

const (
	SeatCapabilityPointer SeatCapability = 1 << iota
	SeatCapabilityKeyboard
	SeatCapabilityTouch
)

func (c SeatCapability) Has(cap SeatCapability) bool {
	return c&cap == cap
}

type Seat struct {
	Proxy

	Capabilities func(SeatCapability)
	Name         func(string)

	version uint32
	name    string
}

func IsSeat(i Interface) bool {
	return i.Is(seatInterface, 1)
}

func BindSeat(registry *Registry, name, version uint32) *Seat {
	seat := Seat{version: min(version, seatVersion)}
	registry.Bind(name, &seat, seat.version)
	return &seat
}

func (seat *Seat) Interface() string {
	return seatInterface
}

func (seat *Seat) MethodName(op uint16) string {
	switch op {
	case 0:
		return "capabilities"
	case 1:
		return "name"
	}
	return "unknown method"
}

func (seat *Seat) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case 0:
		caps := msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}
		if seat.Capabilities != nil {
			seat.Capabilities(SeatCapability(caps))
		}
		return nil

	case 1:
		name := msg.ReadString()
		if err := msg.Err(); err != nil {
			return err
		}
		seat.name = name
		if seat.Name != nil {
			seat.Name(name)
		}
		return nil

	default:
		return wire.UnknownOpError{Interface: seatInterface, Type: "event", Op: msg.Op()}
	}
}

// SeatName returns the name of the seat, once the compositor has
// sent it.
func (seat *Seat) SeatName() string {
	return seat.name
}

func (seat *Seat) GetPointer() *Pointer {
	var p Pointer
	seat.Adopt(&p)
	seat.Enqueue(wire.Request(seat, 0, "get_pointer", &p))
	return &p
}

func (seat *Seat) GetKeyboard() *Keyboard {
	var kb Keyboard
	seat.Adopt(&kb)
	seat.Enqueue(wire.Request(seat, 1, "get_keyboard", &kb))
	return &kb
}

// Release destroys the seat. Seats bound at versions older than 5
// have no destructor, so Release only forgets them locally.
func (seat *Seat) Release() {
	if seat.version >= 5 {
		seat.Enqueue(wire.Request(seat, 3, "release"))
	}
	seat.MarkDestroyed()
}
