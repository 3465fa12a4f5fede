package wl

import "deedles.dev/decor/wire"

const (
	compositorInterface = "wl_compositor"
	compositorVersion   = 4
)

type Compositor struct {
	Proxy
}

func IsCompositor(i Interface) bool {
	return i.Is(compositorInterface, 1)
}

func BindCompositor(registry *Registry, name, version uint32) *Compositor {
	var compositor Compositor
	registry.Bind(name, &compositor, min(version, compositorVersion))
	return &compositor
}

func (c *Compositor) Interface() string {
	return compositorInterface
}

func (c *Compositor) MethodName(op uint16) string {
	return "unknown method"
}

func (c *Compositor) Dispatch(msg *wire.MessageBuffer) error {
	return wire.UnknownOpError{Interface: compositorInterface, Type: "event", Op: msg.Op()}
}

func (c *Compositor) CreateSurface() *Surface {
	var s Surface
	c.Adopt(&s)
	c.Enqueue(wire.Request(c, 0, "create_surface", &s))
	return &s
}
