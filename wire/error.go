package wire

import (
	"fmt"
)

// UnknownOpError is returned by Object.Dispatch if it is given a
// message with an opcode that its interface does not define. Type is
// either "event" or "request".
type UnknownOpError struct {
	Interface string
	Type      string
	Op        uint16
}

func (err UnknownOpError) Error() string {
	return fmt.Sprintf("%v: unknown %v opcode %v", err.Interface, err.Type, err.Op)
}

// UnknownSenderIDError is returned when a message arrives for an
// object ID that is not live on the connection, such as one that has
// already been destroyed locally.
type UnknownSenderIDError struct {
	Sender uint32
	Op     uint16
}

func (err UnknownSenderIDError) Error() string {
	return fmt.Sprintf("message %v for unknown object %v", err.Op, err.Sender)
}
