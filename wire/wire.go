// Package wire defines types helpful for dealing with the Wayland
// wire protocol. It is primarly intended for usage by the protocol
// object implementations in the wl and xdg packages.
package wire

import (
	"fmt"
)

// Object represents a Wayland protocol object.
type Object interface {
	// ID returns the object's ID. An ID of zero means that the object
	// has not been added to a connection yet.
	ID() uint32

	// SetID sets the object's ID. It is called by the object store
	// when the object is added.
	SetID(id uint32)

	// Interface is the protocol interface name of the object, such as
	// "wl_surface".
	Interface() string

	// Dispatch performs the operation requested by the message in the
	// buffer.
	Dispatch(msg *MessageBuffer) error

	// MethodName returns the name of the event with the given opcode.
	// It is used purely for debugging.
	MethodName(op uint16) string

	// Delete is called when the object's ID is released.
	Delete()
}

// FileReceiver is implemented by objects that have events which carry
// file descriptors. EventFiles reports how many descriptors an event
// with the given opcode carries so that they can be claimed from the
// connection at the time that the message is read.
type FileReceiver interface {
	EventFiles(op uint16) int
}

// Name returns a debug representation of obj, such as
// "wl_surface@3".
func Name(obj Object) string {
	if isNil(obj) {
		return "nil"
	}
	return fmt.Sprintf("%v@%v", obj.Interface(), obj.ID())
}

// NewID is a new_id argument without a fixed interface, as used by
// wl_registry.bind.
type NewID struct {
	Interface string
	Version   uint32
	ID        uint32
}

// padding returns the number of bytes necessary to pad a value of
// length bytes to a 32-bit boundary.
func padding(length uint32) uint32 {
	return (4 - (length % 4)) % 4
}
