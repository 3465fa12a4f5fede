package wl

import "deedles.dev/decor/wire"

const callbackInterface = "wl_callback"

type Callback struct {
	Proxy

	Done func(data uint32)
}

func (c *Callback) Interface() string {
	return callbackInterface
}

func (c *Callback) MethodName(op uint16) string {
	if op == 0 {
		return "done"
	}
	return "unknown method"
}

func (c *Callback) Dispatch(msg *wire.MessageBuffer) error {
	if msg.Op() != 0 {
		return wire.UnknownOpError{Interface: callbackInterface, Type: "event", Op: msg.Op()}
	}

	data := msg.ReadUint()
	if err := msg.Err(); err != nil {
		return err
	}

	// The compositor destroys callbacks as soon as they fire.
	c.MarkDestroyed()
	if c.Done != nil {
		c.Done(data)
	}
	return nil
}
