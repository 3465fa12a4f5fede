package xdg

import (
	wl "deedles.dev/decor/client"
	"deedles.dev/decor/wire"
)

const (
	positionerInterface = "xdg_positioner"
	popupInterface      = "xdg_popup"
)

type PositionerAnchor uint32

const (
	PositionerAnchorNone PositionerAnchor = iota
	PositionerAnchorTop
	PositionerAnchorBottom
	PositionerAnchorLeft
	PositionerAnchorRight
	PositionerAnchorTopLeft
	PositionerAnchorBottomLeft
	PositionerAnchorTopRight
	PositionerAnchorBottomRight
)

type PositionerGravity uint32

const (
	PositionerGravityNone PositionerGravity = iota
	PositionerGravityTop
	PositionerGravityBottom
	PositionerGravityLeft
	PositionerGravityRight
	PositionerGravityTopLeft
	PositionerGravityBottomLeft
	PositionerGravityTopRight
	PositionerGravityBottomRight
)

type PositionerConstraintAdjustment uint32

const (
	PositionerConstraintAdjustmentSlideX PositionerConstraintAdjustment = 1 << iota
	PositionerConstraintAdjustmentSlideY
	PositionerConstraintAdjustmentFlipX
	PositionerConstraintAdjustmentFlipY
	PositionerConstraintAdjustmentResizeX
	PositionerConstraintAdjustmentResizeY

	PositionerConstraintAdjustmentNone PositionerConstraintAdjustment = 0
)

// Positioner describes where a popup is placed relative to its
// parent.
type Positioner struct {
	wl.Proxy
}

func (p *Positioner) Interface() string {
	return positionerInterface
}

func (p *Positioner) MethodName(op uint16) string {
	return "unknown method"
}

func (p *Positioner) Dispatch(msg *wire.MessageBuffer) error {
	return wire.UnknownOpError{Interface: positionerInterface, Type: "event", Op: msg.Op()}
}

func (p *Positioner) Destroy() {
	p.Enqueue(wire.Request(p, 0, "destroy"))
	p.MarkDestroyed()
}

func (p *Positioner) SetSize(width, height int32) {
	p.Enqueue(wire.Request(p, 1, "set_size", width, height))
}

func (p *Positioner) SetAnchorRect(x, y, width, height int32) {
	p.Enqueue(wire.Request(p, 2, "set_anchor_rect", x, y, width, height))
}

func (p *Positioner) SetAnchor(anchor PositionerAnchor) {
	p.Enqueue(wire.Request(p, 3, "set_anchor", uint32(anchor)))
}

func (p *Positioner) SetGravity(gravity PositionerGravity) {
	p.Enqueue(wire.Request(p, 4, "set_gravity", uint32(gravity)))
}

func (p *Positioner) SetConstraintAdjustment(adj PositionerConstraintAdjustment) {
	p.Enqueue(wire.Request(p, 5, "set_constraint_adjustment", uint32(adj)))
}

func (p *Positioner) SetOffset(x, y int32) {
	p.Enqueue(wire.Request(p, 6, "set_offset", x, y))
}

type Popup struct {
	wl.Proxy

	Configure    func(x, y, width, height int32)
	PopupDone    func()
	Repositioned func(token uint32)
}

func (p *Popup) Interface() string {
	return popupInterface
}

func (p *Popup) MethodName(op uint16) string {
	switch op {
	case 0:
		return "configure"
	case 1:
		return "popup_done"
	case 2:
		return "repositioned"
	}
	return "unknown method"
}

func (p *Popup) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case 0:
		x, y, w, h := msg.ReadInt(), msg.ReadInt(), msg.ReadInt(), msg.ReadInt()
		if err := msg.Err(); err != nil {
			return err
		}
		if p.Configure != nil {
			p.Configure(x, y, w, h)
		}

	case 1:
		if p.PopupDone != nil {
			p.PopupDone()
		}

	case 2:
		token := msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}
		if p.Repositioned != nil {
			p.Repositioned(token)
		}

	default:
		return wire.UnknownOpError{Interface: popupInterface, Type: "event", Op: msg.Op()}
	}

	return nil
}

func (p *Popup) Destroy() {
	p.Enqueue(wire.Request(p, 0, "destroy"))
	p.MarkDestroyed()
}

// Grab makes the popup take an explicit grab on seat. It must be
// called before the popup's first commit with the serial of the
// input event that caused it to open.
func (p *Popup) Grab(seat *wl.Seat, serial uint32) {
	p.Enqueue(wire.Request(p, 1, "grab", seat, serial))
}

func (p *Popup) Reposition(positioner *Positioner, token uint32) {
	p.Enqueue(wire.Request(p, 2, "reposition", positioner, token))
}
