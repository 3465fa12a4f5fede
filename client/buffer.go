package wl

import "deedles.dev/decor/wire"

const bufferInterface = "wl_buffer"

type Buffer struct {
	Proxy

	Release func()
}

func (buf *Buffer) Interface() string {
	return bufferInterface
}

func (buf *Buffer) MethodName(op uint16) string {
	if op == 0 {
		return "release"
	}
	return "unknown method"
}

func (buf *Buffer) Dispatch(msg *wire.MessageBuffer) error {
	if msg.Op() != 0 {
		return wire.UnknownOpError{Interface: bufferInterface, Type: "event", Op: msg.Op()}
	}
	if buf.Release != nil {
		buf.Release()
	}
	return nil
}

func (buf *Buffer) Destroy() {
	buf.Enqueue(wire.Request(buf, 0, "destroy"))
	buf.MarkDestroyed()
}
