// Package decor negotiates window decorations for Wayland toplevel
// surfaces.
//
// A Context is created for a connection and used to decorate
// surfaces, yielding a Frame for each. The compositor's proposals
// arrive as ConfigureRequests during Context.Dispatch, and the
// application answers each one by committing a State:
//
//	frame := ctx.Decorate(surface, func(frame *decor.FrameRef, req decor.FrameRequest, data decor.DispatchData) {
//		switch req := req.(type) {
//		case decor.ConfigureRequest:
//			w, h, ok := req.Config.ContentSize(frame)
//			if !ok {
//				w, h = floatingWidth, floatingHeight
//			}
//			frame.Commit(decor.NewState(w, h), req.Config)
//		case decor.CloseRequest:
//			running = false
//		}
//	})
//	frame.SetTitle("Example")
//	frame.Map()
//
// Everything in this package, including the callbacks, runs on the
// goroutine that calls Dispatch. Contexts and Frames must not be used
// from any other goroutine.
package decor

import (
	"fmt"

	wl "deedles.dev/decor/client"
	"deedles.dev/decor/engine"
	"deedles.dev/decor/xdgshell"
)

// ErrorKind classifies errors reported by the engine.
type ErrorKind int

const (
	// ErrCompositorIncompatible means that the compositor is missing
	// something that decorations need, most likely xdg_wm_base.
	ErrCompositorIncompatible ErrorKind = ErrorKind(engine.ErrorCompositorIncompatible)

	// ErrInvalidFrameConfiguration means that a frame was configured
	// in a way that can't be satisfied, such as with a minimum size
	// larger than its maximum size.
	ErrInvalidFrameConfiguration ErrorKind = ErrorKind(engine.ErrorInvalidFrameConfiguration)
)

func (k ErrorKind) String() string {
	switch k {
	case ErrCompositorIncompatible:
		return "compositor incompatible"
	case ErrInvalidFrameConfiguration:
		return "invalid frame configuration"
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Error is an error reported asynchronously by the engine.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (err *Error) Error() string {
	return err.Message
}

// Request is delivered to the function passed to New.
type Request struct {
	// Error is set if the engine reported an error.
	Error *Error
}

// New creates a Context using the default engine, which speaks
// xdg-shell directly.
func New(display *wl.Client, onRequest func(Request)) *Context {
	return NewContext(xdgshell.Engine{}, display, onRequest)
}

// Available reports whether the compositor that display is connected
// to offers what the default engine needs. It blocks for a round trip.
func Available(display *wl.Client) bool {
	return xdgshell.Available(display)
}
