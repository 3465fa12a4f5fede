package wl

import (
	"fmt"

	"deedles.dev/decor/wire"
)

const displayInterface = "wl_display"

// Display is the wl_display singleton of a connection.
type Display struct {
	Proxy

	// Error is called when the compositor reports a fatal protocol
	// error. The connection is unusable afterwards.
	Error func(objectID, code uint32, message string)

	registry *Registry
}

// WithQueue returns a view of display whose new objects, such as the
// callbacks created by Sync and the registry returned by GetRegistry,
// deliver their events to q.
func (display *Display) WithQueue(q *Queue) *Display {
	return &Display{
		Proxy: Proxy{
			id:     display.id,
			client: display.client,
			queue:  q,
		},
	}
}

func (display *Display) Interface() string {
	return displayInterface
}

func (display *Display) MethodName(op uint16) string {
	switch op {
	case 0:
		return "error"
	case 1:
		return "delete_id"
	}
	return "unknown method"
}

func (display *Display) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case 0:
		obj := msg.ReadUint()
		code := msg.ReadUint()
		message := msg.ReadString()
		if err := msg.Err(); err != nil {
			return err
		}

		err := &DisplayError{ObjectID: obj, Code: code, Message: message}
		display.client.fail(err)
		if display.Error != nil {
			display.Error(obj, code, message)
		}
		return err

	case 1:
		id := msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}
		display.client.release(id)
		return nil

	default:
		return wire.UnknownOpError{Interface: displayInterface, Type: "event", Op: msg.Op()}
	}
}

// Sync asks the compositor to call done once it has processed every
// request sent before this one.
func (display *Display) Sync(done func(uint32)) *Callback {
	callback := Callback{Done: done}
	display.Adopt(&callback)
	display.Enqueue(wire.Request(display, 0, "sync", &callback))
	return &callback
}

// GetRegistry returns the registry of globals. Only one registry is
// created per Display value.
func (display *Display) GetRegistry() *Registry {
	if display.registry != nil {
		return display.registry
	}

	registry := Registry{globals: make(map[uint32]Interface)}
	display.Adopt(&registry)
	display.Enqueue(wire.Request(display, 1, "get_registry", &registry))
	display.registry = &registry
	return &registry
}

// DisplayError is a fatal error reported by the compositor.
type DisplayError struct {
	ObjectID uint32
	Code     uint32
	Message  string
}

func (err *DisplayError) Error() string {
	return fmt.Sprintf("protocol error on object %v: code %v: %v", err.ObjectID, err.Code, err.Message)
}
