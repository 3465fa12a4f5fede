package wl

import (
	"os"
	"unsafe"

	"deedles.dev/decor/wire"
)

const keyboardInterface = "wl_keyboard"

type KeyboardKeymapFormat uint32

const (
	KeyboardKeymapFormatNoKeymap KeyboardKeymapFormat = iota
	KeyboardKeymapFormatXkbV1
)

type KeyboardKeyState uint32

const (
	KeyboardKeyStateReleased KeyboardKeyState = iota
	KeyboardKeyStatePressed
)

type Keyboard struct {
	Proxy

	// Keymap is handed ownership of file. If Keymap is nil, the file
	// is closed.
	Keymap     func(format KeyboardKeymapFormat, file *os.File, size uint32)
	Enter      func(serial uint32, s *Surface, keys []uint32)
	Leave      func(serial uint32, s *Surface)
	Key        func(serial, time, key uint32, state KeyboardKeyState)
	Modifiers  func(serial, depressed, latched, locked, group uint32)
	RepeatInfo func(rate, delay int32)
}

func (kb *Keyboard) Interface() string {
	return keyboardInterface
}

func (kb *Keyboard) MethodName(op uint16) string {
	switch op {
	case 0:
		return "keymap"
	case 1:
		return "enter"
	case 2:
		return "leave"
	case 3:
		return "key"
	case 4:
		return "modifiers"
	case 5:
		return "repeat_info"
	}
	return "unknown method"
}

func (kb *Keyboard) EventFiles(op uint16) int {
	if op == 0 {
		return 1
	}
	return 0
}

func (kb *Keyboard) surface(id uint32) *Surface {
	s, _ := kb.client.Get(id).(*Surface)
	return s
}

func (kb *Keyboard) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case 0:
		format, file, size := msg.ReadUint(), msg.ReadFile(), msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}
		if kb.Keymap == nil {
			return file.Close()
		}
		kb.Keymap(KeyboardKeymapFormat(format), file, size)

	case 1:
		serial, surface, keys := msg.ReadUint(), msg.ReadUint(), msg.ReadArray()
		if err := msg.Err(); err != nil {
			return err
		}
		if kb.Enter != nil {
			kb.Enter(serial, kb.surface(surface), keyArray(keys))
		}

	case 2:
		serial, surface := msg.ReadUint(), msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}
		if kb.Leave != nil {
			kb.Leave(serial, kb.surface(surface))
		}

	case 3:
		serial, time, key, state := msg.ReadUint(), msg.ReadUint(), msg.ReadUint(), msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}
		if kb.Key != nil {
			kb.Key(serial, time, key, KeyboardKeyState(state))
		}

	case 4:
		serial, depressed, latched, locked, group := msg.ReadUint(), msg.ReadUint(), msg.ReadUint(), msg.ReadUint(), msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}
		if kb.Modifiers != nil {
			kb.Modifiers(serial, depressed, latched, locked, group)
		}

	case 5:
		rate, delay := msg.ReadInt(), msg.ReadInt()
		if err := msg.Err(); err != nil {
			return err
		}
		if kb.RepeatInfo != nil {
			kb.RepeatInfo(rate, delay)
		}

	default:
		return wire.UnknownOpError{Interface: keyboardInterface, Type: "event", Op: msg.Op()}
	}

	return nil
}

func (kb *Keyboard) Release() {
	kb.Enqueue(wire.Request(kb, 0, "release"))
	kb.MarkDestroyed()
}

// keyArray reinterprets a wire array as the host-order key codes that
// it contains.
func keyArray(data []byte) []uint32 {
	if len(data) < 4 {
		return nil
	}
	return unsafe.Slice((*uint32)(unsafe.Pointer(&data[0])), len(data)/4)
}
