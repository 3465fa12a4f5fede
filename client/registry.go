package wl

import (
	"deedles.dev/decor/wire"
	"golang.org/x/exp/maps"
)

const registryInterface = "wl_registry"

// Interface describes a global advertised by the registry.
type Interface struct {
	Name    string
	Version uint32
}

// Is returns true if i is the named interface with at least the given
// version.
func (i Interface) Is(name string, version uint32) bool {
	return (i.Name == name) && (i.Version >= version)
}

type Registry struct {
	Proxy

	Global       func(name uint32, inter string, version uint32)
	GlobalRemove func(name uint32)

	globals map[uint32]Interface
}

func (r *Registry) Interface() string {
	return registryInterface
}

func (r *Registry) MethodName(op uint16) string {
	switch op {
	case 0:
		return "global"
	case 1:
		return "global_remove"
	}
	return "unknown method"
}

func (r *Registry) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case 0:
		name := msg.ReadUint()
		inter := msg.ReadString()
		version := msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}

		r.globals[name] = Interface{Name: inter, Version: version}
		if r.Global != nil {
			r.Global(name, inter, version)
		}
		return nil

	case 1:
		name := msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}

		delete(r.globals, name)
		if r.GlobalRemove != nil {
			r.GlobalRemove(name)
		}
		return nil

	default:
		return wire.UnknownOpError{Interface: registryInterface, Type: "event", Op: msg.Op()}
	}
}

// Globals returns a copy of the globals that are currently known.
func (r *Registry) Globals() map[uint32]Interface {
	return maps.Clone(r.globals)
}

// Bind binds the global with the given name to obj, which must not
// have been added to a client yet.
func (r *Registry) Bind(name uint32, obj Object, version uint32) {
	r.Adopt(obj)
	r.Enqueue(wire.Request(r, 0, "bind", name, wire.NewID{
		Interface: obj.Interface(),
		Version:   version,
		ID:        obj.ID(),
	}))
}
