package decor

import (
	"sync"
	"time"

	wl "deedles.dev/decor/client"
	"deedles.dev/decor/engine"
	"deedles.dev/decor/internal/debug"
	"deedles.dev/decor/internal/handle"
	"deedles.dev/decor/internal/set"
)

// registry maps engine instances to the Contexts that own them. The
// engine's error callback identifies only the instance, so this is
// how errors find their way to the right Context.
var registry = struct {
	sync.Mutex
	m map[engine.Instance]*Context
}{m: make(map[engine.Instance]*Context)}

func register(ctx *Context) {
	registry.Lock()
	defer registry.Unlock()

	if _, ok := registry.m[ctx.inst]; ok {
		panic("decor: engine instance is already owned by another context")
	}
	registry.m[ctx.inst] = ctx
}

func unregister(ctx *Context) {
	registry.Lock()
	defer registry.Unlock()

	delete(registry.m, ctx.inst)
}

func lookup(inst engine.Instance) *Context {
	registry.Lock()
	defer registry.Unlock()

	return registry.m[inst]
}

var instanceInterface = engine.Interface{
	Error: func(inst engine.Instance, code engine.ErrorCode, message string) {
		ctx := lookup(inst)
		if ctx == nil {
			debug.Engine.Warn("error for unknown instance", "kind", ErrorKind(code), "message", message)
			return
		}
		ctx.onRequest(Request{Error: &Error{Kind: ErrorKind(code), Message: message}})
	},
}

// Context owns an engine instance for one connection. It stays alive
// until it has been closed and every Frame that it created has been
// destroyed.
type Context struct {
	eng       engine.Engine
	inst      engine.Instance
	onRequest func(Request)

	refs   int
	closed bool
}

// NewContext creates a Context using the given engine. onRequest is
// called during Dispatch whenever the engine reports an error.
func NewContext(eng engine.Engine, display *wl.Client, onRequest func(Request)) *Context {
	if onRequest == nil {
		onRequest = func(Request) {}
	}

	ctx := Context{
		eng:       eng,
		onRequest: onRequest,
		refs:      1,
	}
	ctx.inst = eng.New(display, &instanceInterface)
	register(&ctx)

	return &ctx
}

func (ctx *Context) release() {
	ctx.refs--
	if ctx.refs > 0 {
		return
	}

	unregister(ctx)
	ctx.inst.Unref()
}

// Close releases the Context. The engine instance is released once the
// last Frame has been destroyed as well. Calling Close more than once
// has no effect.
func (ctx *Context) Close() {
	if ctx.closed {
		return
	}
	ctx.closed = true
	ctx.release()
}

// Fd returns a descriptor that becomes readable when Dispatch has
// events to process.
func (ctx *Context) Fd() int {
	return ctx.inst.Fd()
}

// Dispatch processes pending engine events, waiting up to timeout for
// some to arrive. A timeout of zero or less does not block. Every
// frame and error callback is called from inside Dispatch.
//
// Dispatch returns false if the connection has become unusable.
func (ctx *Context) Dispatch(timeout time.Duration) bool {
	_, err := ctx.inst.Dispatch(timeout)
	if err != nil {
		debug.Engine.Error("dispatch failed", "err", err)
		return false
	}
	return true
}

// DispatchWith is like Dispatch, but binds data for the duration of
// the call so that callbacks can retrieve it from their DispatchData.
func (ctx *Context) DispatchWith(data any, timeout time.Duration) (ok bool) {
	with(data, func() { ok = ctx.Dispatch(timeout) })
	return ok
}

// Decorate creates a Frame for surface. onEvent is called during
// dispatch with requests from the engine. It returns nil if the
// surface can't be decorated, in which case the surface remains
// usable without decorations.
func (ctx *Context) Decorate(surface *wl.Surface, onEvent FrameCallback) *Frame {
	ref := FrameRef{ctx: ctx, grabs: set.New[string]()}
	cell := handle.New(&frameCell{ref: &ref, onEvent: onEvent})

	ef := ctx.inst.Decorate(surface, &frameInterface, uintptr(cell))
	if ef == nil {
		cell.Delete()
		return nil
	}
	ref.frame = ef
	ctx.refs++

	return &Frame{FrameRef: &ref, cell: cell}
}
