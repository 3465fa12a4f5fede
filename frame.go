package decor

import (
	wl "deedles.dev/decor/client"
	"deedles.dev/decor/engine"
	"deedles.dev/decor/internal/debug"
	"deedles.dev/decor/internal/handle"
	"deedles.dev/decor/internal/set"
	"deedles.dev/decor/xdg"
)

// FrameCallback receives requests from the engine for a frame.
type FrameCallback func(frame *FrameRef, req FrameRequest, data DispatchData)

// FrameRequest is one of ConfigureRequest, CloseRequest,
// CommitRequest or DismissPopupRequest.
type FrameRequest interface {
	frameRequest()
}

// ConfigureRequest asks the application to commit a new State that
// answers Config.
type ConfigureRequest struct {
	Config *Configuration
}

// CloseRequest means that the window should be closed. Acting on it is
// up to the application.
type CloseRequest struct{}

// CommitRequest asks the application to commit its content surface.
type CommitRequest struct{}

// DismissPopupRequest asks the application to unmap any popup that
// holds a grab on Seat.
type DismissPopupRequest struct {
	Seat string
}

func (ConfigureRequest) frameRequest()    {}
func (CloseRequest) frameRequest()        {}
func (CommitRequest) frameRequest()       {}
func (DismissPopupRequest) frameRequest() {}

type frameCell struct {
	ref     *FrameRef
	onEvent FrameCallback
}

func cellFor(userData uintptr) *frameCell {
	v, ok := handle.Handle(userData).Lookup()
	if !ok {
		debug.Engine.Warn("request for destroyed frame", "handle", userData)
		return nil
	}
	return v.(*frameCell)
}

func (c *frameCell) deliver(req FrameRequest) {
	if c.onEvent != nil {
		c.onEvent(c.ref, req, current())
	}
}

var frameInterface = engine.FrameInterface{
	Configure: func(_ engine.Frame, config engine.Configuration, userData uintptr) {
		cell := cellFor(userData)
		if cell == nil {
			return
		}

		c := Configuration{config: config}
		defer func() { c.config = nil }()
		cell.deliver(ConfigureRequest{Config: &c})
	},
	Close: func(_ engine.Frame, userData uintptr) {
		if cell := cellFor(userData); cell != nil {
			cell.deliver(CloseRequest{})
		}
	},
	Commit: func(_ engine.Frame, userData uintptr) {
		if cell := cellFor(userData); cell != nil {
			cell.deliver(CommitRequest{})
		}
	},
	DismissPopup: func(_ engine.Frame, seat string, userData uintptr) {
		if cell := cellFor(userData); cell != nil {
			cell.deliver(DismissPopupRequest{Seat: seat})
		}
	},
}

// FrameRef is a reference to a Frame that does not own it. It is what
// callbacks receive. Every method panics once the Frame has been
// destroyed.
type FrameRef struct {
	ctx   *Context
	frame engine.Frame
	grabs set.Set[string]
}

func (f *FrameRef) engine() engine.Frame {
	if f.frame == nil {
		panic("decor: frame used after it was destroyed")
	}
	return f.frame
}

func (f *FrameRef) Title() string {
	return f.engine().Title()
}

func (f *FrameRef) SetTitle(title string) {
	f.engine().SetTitle(title)
}

func (f *FrameRef) SetAppID(id string) {
	f.engine().SetAppID(id)
}

// SetParent makes parent the parent of the frame. A nil parent unsets
// it.
func (f *FrameRef) SetParent(parent *FrameRef) {
	if parent == nil {
		f.engine().SetParent(nil)
		return
	}
	f.engine().SetParent(parent.engine())
}

// SetCapabilities adds caps to the frame's capabilities. Capabilities
// that are not in caps are left alone.
func (f *FrameRef) SetCapabilities(caps Capabilities) {
	f.engine().SetCapabilities(uint32(caps))
}

// UnsetCapabilities removes caps from the frame's capabilities.
func (f *FrameRef) UnsetCapabilities(caps Capabilities) {
	f.engine().UnsetCapabilities(uint32(caps))
}

func (f *FrameRef) HasCapability(caps Capabilities) bool {
	return f.engine().HasCapability(uint32(caps))
}

func (f *FrameRef) IsVisible() bool {
	return f.engine().IsVisible()
}

// SetVisibility shows or hides the decorations of the frame.
func (f *FrameRef) SetVisibility(visible bool) {
	f.engine().SetVisibility(visible)
}

// IsFloating reports whether the frame is neither maximized,
// fullscreen nor tiled, as of the last commit.
func (f *FrameRef) IsFloating() bool {
	return f.engine().IsFloating()
}

// SetMinContentSize sets the minimum content size. Zero means no
// limit.
func (f *FrameRef) SetMinContentSize(width, height int) {
	f.engine().SetMinContentSize(width, height)
}

func (f *FrameRef) MinContentSize() (width, height int) {
	return f.engine().MinContentSize()
}

// SetMaxContentSize sets the maximum content size. Zero means no
// limit.
func (f *FrameRef) SetMaxContentSize(width, height int) {
	f.engine().SetMaxContentSize(width, height)
}

func (f *FrameRef) MaxContentSize() (width, height int) {
	return f.engine().MaxContentSize()
}

func (f *FrameRef) SetMinimized() {
	f.engine().SetMinimized()
}

func (f *FrameRef) SetMaximized() {
	f.engine().SetMaximized()
}

func (f *FrameRef) UnsetMaximized() {
	f.engine().UnsetMaximized()
}

// SetFullscreen asks for the frame to be made fullscreen on output. If
// output is nil, the compositor picks one.
func (f *FrameRef) SetFullscreen(output *wl.Output) {
	f.engine().SetFullscreen(output)
}

func (f *FrameRef) UnsetFullscreen() {
	f.engine().UnsetFullscreen()
}

// Close asks the engine to close the frame, which results in a
// CloseRequest.
func (f *FrameRef) Close() {
	f.engine().Close()
}

// Map maps the frame. The first ConfigureRequest follows.
func (f *FrameRef) Map() {
	f.engine().Map()
}

// Move starts an interactive move. serial must be the serial of the
// input event that triggered it.
func (f *FrameRef) Move(seat *wl.Seat, serial uint32) {
	f.engine().Move(seat, serial)
}

// Resize starts an interactive resize from edge. serial must be the
// serial of the input event that triggered it.
func (f *FrameRef) Resize(seat *wl.Seat, serial uint32, edge ResizeEdge) {
	f.engine().Resize(seat, serial, uint32(edge))
}

// ShowWindowMenu shows the window menu at the given surface-local
// position.
func (f *FrameRef) ShowWindowMenu(seat *wl.Seat, serial uint32, x, y int) {
	f.engine().ShowWindowMenu(seat, serial, x, y)
}

// PopupGrab tells the engine that a popup holding a grab on the named
// seat has been mapped. Every call must be paired with a call to
// PopupUngrab once the popup is unmapped.
func (f *FrameRef) PopupGrab(seat string) {
	fr := f.engine()
	if !f.grabs.Add(seat) {
		debug.Engine.Warn("popup grab without matching ungrab", "seat", seat)
	}
	fr.PopupGrab(seat)
}

func (f *FrameRef) PopupUngrab(seat string) {
	fr := f.engine()
	if !f.grabs.Delete(seat) {
		debug.Engine.Warn("popup ungrab without grab", "seat", seat)
	}
	fr.PopupUngrab(seat)
}

// PopupGrabs returns the names of the seats that currently hold popup
// grabs on the frame.
func (f *FrameRef) PopupGrabs() []string {
	f.engine()
	return set.Sorted(f.grabs)
}

// TranslateCoordinate translates content surface coordinates to frame
// coordinates.
func (f *FrameRef) TranslateCoordinate(x, y int) (int, int) {
	return f.engine().TranslateCoordinate(x, y)
}

// XdgSurface returns the frame's xdg_surface, or nil if it hasn't been
// created yet.
func (f *FrameRef) XdgSurface() *xdg.Surface {
	return f.engine().XdgSurface()
}

// XdgToplevel returns the frame's xdg_toplevel, or nil if it hasn't
// been created yet.
func (f *FrameRef) XdgToplevel() *xdg.Toplevel {
	return f.engine().XdgToplevel()
}

// Commit commits state. config must be the Configuration that the
// commit answers, or nil for a commit that the application initiated
// on its own while floating. state may not be committed again.
func (f *FrameRef) Commit(state *State, config *Configuration) {
	fr := f.engine()

	var ec engine.Configuration
	if config != nil {
		ec = config.get()
	}

	es := f.ctx.eng.NewState(state.take())
	defer es.Free()
	fr.Commit(es, ec)
}

// Frame is a decorated surface.
type Frame struct {
	*FrameRef
	cell handle.Handle
}

// Destroy releases the frame. It panics if the frame has already been
// destroyed.
func (f *Frame) Destroy() {
	fr := f.engine()
	for _, seat := range f.PopupGrabs() {
		debug.Engine.Warn("frame destroyed with outstanding popup grab", "seat", seat)
	}

	f.frame = nil
	fr.Unref()
	f.cell.Delete()
	f.ctx.release()
}

// Dispatch calls fn with data bound so that callbacks triggered
// during it can retrieve data from their DispatchData.
func (f *Frame) Dispatch(data any, fn func(*FrameRef)) {
	DispatchFrame(f, data, func(ref *FrameRef) struct{} {
		fn(ref)
		return struct{}{}
	})
}

// DispatchFrame is like Frame.Dispatch, but returns the result of fn.
func DispatchFrame[R any](f *Frame, data any, fn func(*FrameRef) R) (r R) {
	ref := f.FrameRef
	f.engine()
	with(data, func() { r = fn(ref) })
	return r
}
