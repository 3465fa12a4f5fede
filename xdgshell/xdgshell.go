// Package xdgshell is a decoration engine that speaks xdg-shell
// directly. It asks the compositor to draw decorations through
// xdg-decoration when that is available and otherwise leaves windows
// undecorated.
//
// Setting $DECOR_MODE to "none" keeps the engine from ever asking for
// server-side decorations.
package xdgshell

import (
	"errors"
	"fmt"
	"os"
	"time"

	wl "deedles.dev/decor/client"
	"deedles.dev/decor/engine"
	"deedles.dev/decor/internal/debug"
	"deedles.dev/decor/xdg"
)

var errReleased = errors.New("instance released")

// Engine is the engine.Engine for xdg-shell.
type Engine struct{}

func (Engine) New(display *wl.Client, iface *engine.Interface) engine.Instance {
	return newInstance(display, iface)
}

func (Engine) NewState(width, height int) engine.State {
	return &state{width: width, height: height}
}

type state struct {
	width, height int
}

func (s *state) Size() (int, int) {
	return s.width, s.height
}

func (s *state) Free() {}

// Instance is the engine.Instance for xdg-shell. It has an event queue
// of its own, separate from the client's default queue.
type Instance struct {
	client *wl.Client
	iface  *engine.Interface
	queue  *wl.Queue

	registry   *wl.Registry
	wm         *xdg.WmBase
	decoration *xdg.DecorationManager
	serverSide bool

	initialized  bool
	incompatible bool
	frames       []*Frame

	// pending holds engine events that were generated outside of the
	// queue's own events, such as by requests that the application
	// made. They are delivered during the next Dispatch.
	pending []func()
	err     error
}

func newInstance(display *wl.Client, iface *engine.Interface) *Instance {
	inst := Instance{
		client:     display,
		iface:      iface,
		serverSide: os.Getenv("DECOR_MODE") != "none",
	}

	q, err := display.NewQueue()
	if err != nil {
		inst.err = fmt.Errorf("create queue: %w", err)
		return &inst
	}
	inst.queue = q

	d := display.Display().WithQueue(q)
	inst.registry = d.GetRegistry()
	inst.registry.Global = inst.global
	d.Sync(func(uint32) { inst.init() })

	return &inst
}

func (inst *Instance) global(name uint32, inter string, version uint32) {
	i := wl.Interface{Name: inter, Version: version}
	switch {
	case xdg.IsWmBase(i):
		if inst.wm != nil {
			return
		}
		inst.wm = xdg.BindWmBase(inst.registry, name, version)
		inst.wm.Ping = func(serial uint32) {
			debug.Engine.Debug("ping", "serial", serial)
		}

	case xdg.IsDecorationManager(i):
		if (inst.decoration != nil) || !inst.serverSide {
			return
		}
		inst.decoration = xdg.BindDecorationManager(inst.registry, name, version)
	}
}

// init runs once the initial burst of globals has arrived.
func (inst *Instance) init() {
	inst.initialized = true
	if inst.wm == nil {
		inst.incompatible = true
		inst.report(engine.ErrorCompositorIncompatible, "Compositor is missing xdg_wm_base")
		return
	}

	debug.Engine.Debug("initialized", "frames", len(inst.frames), "decoration_manager", inst.decoration != nil)
	for _, f := range inst.frames {
		f.createShell()
	}
}

// report queues an error for delivery during dispatch.
func (inst *Instance) report(code engine.ErrorCode, message string) {
	debug.Engine.Debug("error", "code", code, "message", message)
	inst.post(func() { inst.iface.Error(inst, code, message) })
}

func (inst *Instance) post(ev func()) {
	inst.pending = append(inst.pending, ev)
	if inst.queue != nil {
		inst.queue.Wake()
	}
}

func (inst *Instance) flushPending() int {
	var n int
	for len(inst.pending) > 0 {
		ev := inst.pending[0]
		inst.pending = inst.pending[1:]
		ev()
		n++
	}
	return n
}

// Unref releases the instance and the globals that it bound. Frames
// must be released first.
func (inst *Instance) Unref() {
	if inst.err == errReleased {
		return
	}

	if inst.decoration != nil {
		inst.decoration.Destroy()
	}
	if inst.wm != nil {
		inst.wm.Destroy()
	}
	if inst.queue != nil {
		if err := inst.queue.Destroy(); err != nil {
			debug.Engine.Warn("destroy queue", "err", err)
		}
		inst.queue = nil
	}
	inst.pending = nil
	inst.err = errReleased
}

func (inst *Instance) Fd() int {
	if inst.queue == nil {
		return -1
	}
	return inst.queue.Fd()
}

func (inst *Instance) Dispatch(timeout time.Duration) (int, error) {
	if inst.err != nil {
		return 0, inst.err
	}

	n := inst.flushPending()
	if n > 0 {
		timeout = 0
	}

	m, err := inst.queue.Dispatch(timeout)
	n += m + inst.flushPending()
	return n, err
}

// Decorate creates a frame for surface. Before the initial round trip
// has completed, the frame's xdg objects are not yet created. It
// returns nil if the compositor is incompatible.
func (inst *Instance) Decorate(surface *wl.Surface, iface *engine.FrameInterface, userData uintptr) engine.Frame {
	if inst.incompatible || (inst.err != nil) {
		return nil
	}

	f := newFrame(inst, surface, iface, userData)
	inst.frames = append(inst.frames, f)
	if inst.initialized {
		f.createShell()
	}
	return f
}

func (inst *Instance) remove(f *Frame) {
	for i, other := range inst.frames {
		if other == f {
			inst.frames = append(inst.frames[:i], inst.frames[i+1:]...)
			return
		}
	}
}

// Available reports whether the compositor that display is connected
// to advertises xdg_wm_base. It blocks for a round trip on a private
// queue.
func Available(display *wl.Client) bool {
	q, err := display.NewQueue()
	if err != nil {
		return false
	}
	defer q.Destroy()

	registry := display.Display().WithQueue(q).GetRegistry()
	err = q.RoundTrip()
	if err != nil {
		debug.Engine.Warn("availability check failed", "err", err)
		return false
	}

	for _, i := range registry.Globals() {
		if xdg.IsWmBase(i) {
			return true
		}
	}
	return false
}
