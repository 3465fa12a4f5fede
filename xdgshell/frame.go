package xdgshell

import (
	"fmt"

	wl "deedles.dev/decor/client"
	"deedles.dev/decor/engine"
	"deedles.dev/decor/internal/debug"
	"deedles.dev/decor/internal/set"
	"deedles.dev/decor/xdg"
)

// configuration accumulates a configure sequence. xdg_toplevel
// configure events are collected until the xdg_surface configure that
// ends the sequence.
type configuration struct {
	serial uint32

	hasSize       bool
	width, height int

	hasState bool
	state    uint32
}

func (c *configuration) ContentSize(frame engine.Frame) (int, int, bool) {
	if !c.hasSize || (c.width <= 0) || (c.height <= 0) {
		return 0, 0, false
	}

	f := frame.(*Frame)
	ws := f.windowState
	if c.hasState {
		ws = c.state
	}
	if ws&engine.WindowStateConstrained != 0 {
		return c.width, c.height, true
	}

	w, h := c.width, c.height
	if f.minWidth > 0 {
		w = max(w, f.minWidth)
	}
	if f.minHeight > 0 {
		h = max(h, f.minHeight)
	}
	if f.maxWidth > 0 {
		w = min(w, f.maxWidth)
	}
	if f.maxHeight > 0 {
		h = min(h, f.maxHeight)
	}
	return w, h, true
}

func (c *configuration) WindowState() (uint32, bool) {
	return c.state, c.hasState
}

func windowState(states []xdg.ToplevelState) (ws uint32) {
	for _, s := range states {
		switch s {
		case xdg.ToplevelStateMaximized:
			ws |= engine.WindowStateMaximized
		case xdg.ToplevelStateFullscreen:
			ws |= engine.WindowStateFullscreen
		case xdg.ToplevelStateActivated:
			ws |= engine.WindowStateActive
		case xdg.ToplevelStateTiledLeft:
			ws |= engine.WindowStateTiledLeft
		case xdg.ToplevelStateTiledRight:
			ws |= engine.WindowStateTiledRight
		case xdg.ToplevelStateTiledTop:
			ws |= engine.WindowStateTiledTop
		case xdg.ToplevelStateTiledBottom:
			ws |= engine.WindowStateTiledBottom
		}
	}
	return ws
}

var resizeEdges = [...]xdg.ToplevelResizeEdge{
	engine.ResizeEdgeNone:        xdg.ToplevelResizeEdgeNone,
	engine.ResizeEdgeTop:         xdg.ToplevelResizeEdgeTop,
	engine.ResizeEdgeBottom:      xdg.ToplevelResizeEdgeBottom,
	engine.ResizeEdgeLeft:        xdg.ToplevelResizeEdgeLeft,
	engine.ResizeEdgeTopLeft:     xdg.ToplevelResizeEdgeTopLeft,
	engine.ResizeEdgeBottomLeft:  xdg.ToplevelResizeEdgeBottomLeft,
	engine.ResizeEdgeRight:       xdg.ToplevelResizeEdgeRight,
	engine.ResizeEdgeTopRight:    xdg.ToplevelResizeEdgeTopRight,
	engine.ResizeEdgeBottomRight: xdg.ToplevelResizeEdgeBottomRight,
}

// Frame is the engine.Frame for xdg-shell.
type Frame struct {
	inst     *Instance
	iface    *engine.FrameInterface
	userData uintptr
	refs     int

	surface    *wl.Surface
	xsurface   *xdg.Surface
	toplevel   *xdg.Toplevel
	decoration *xdg.ToplevelDecoration
	pending    *configuration

	parent *Frame
	title  string
	appID  string
	caps   uint32

	visible bool
	mapped  bool
	grabs   set.Set[string]

	minWidth, minHeight int
	maxWidth, maxHeight int

	windowState   uint32
	contentWidth  int
	contentHeight int
}

func newFrame(inst *Instance, surface *wl.Surface, iface *engine.FrameInterface, userData uintptr) *Frame {
	return &Frame{
		inst:     inst,
		iface:    iface,
		userData: userData,
		refs:     1,
		surface:  surface,
		visible:  true,
		caps:     engine.ActionMove | engine.ActionResize | engine.ActionMinimize | engine.ActionFullscreen | engine.ActionClose,
		grabs:    set.New[string](),
	}
}

// createShell creates the xdg objects of the frame and applies
// everything that was set before they existed.
func (f *Frame) createShell() {
	f.xsurface = f.inst.wm.GetXdgSurface(f.surface)
	f.xsurface.Configure = f.configure

	f.toplevel = f.xsurface.GetToplevel()
	f.toplevel.Configure = f.configureToplevel
	f.toplevel.Close = func() { f.iface.Close(f, f.userData) }

	if f.title != "" {
		f.toplevel.SetTitle(f.title)
	}
	if f.appID != "" {
		f.toplevel.SetAppID(f.appID)
	}
	if (f.parent != nil) && (f.parent.toplevel != nil) {
		f.toplevel.SetParent(f.parent.toplevel)
	}
	for _, child := range f.inst.frames {
		if (child.parent == f) && (child.toplevel != nil) {
			child.toplevel.SetParent(f.toplevel)
		}
	}

	if f.inst.decoration != nil {
		f.decoration = f.inst.decoration.GetToplevelDecoration(f.toplevel)
		f.decoration.Configure = func(mode xdg.DecorationMode) {
			debug.Engine.Debug("decoration mode", "surface", f.surface.ID(), "mode", mode)
		}
		f.applyVisibility()
	}

	if f.mapped {
		f.surface.Commit()
	}
}

func (f *Frame) applyVisibility() {
	if f.decoration == nil {
		return
	}

	if f.visible {
		f.decoration.SetMode(xdg.DecorationModeServerSide)
		return
	}
	f.decoration.SetMode(xdg.DecorationModeClientSide)
}

func (f *Frame) configureToplevel(width, height int32, states []xdg.ToplevelState) {
	f.pending = &configuration{
		hasSize:  true,
		width:    int(width),
		height:   int(height),
		hasState: true,
		state:    windowState(states),
	}
}

func (f *Frame) configure(serial uint32) {
	c := f.pending
	if c == nil {
		c = new(configuration)
	}
	f.pending = nil
	c.serial = serial

	debug.Engine.Debug("configure", "surface", f.surface.ID(), "serial", serial, "size", fmt.Sprintf("%vx%v", c.width, c.height), "state", c.state)
	f.iface.Configure(f, c, f.userData)
}

// applyLimits sends the size limits for the given content size. A
// frame that can't be resized is fixed at its content size, and limits
// only apply while floating.
func (f *Frame) applyLimits(width, height int) {
	if f.toplevel == nil {
		return
	}

	switch {
	case f.caps&engine.ActionResize == 0:
		f.toplevel.SetMinSize(int32(width), int32(height))
		f.toplevel.SetMaxSize(int32(width), int32(height))
	case f.IsFloating():
		f.toplevel.SetMinSize(int32(f.minWidth), int32(f.minHeight))
		f.toplevel.SetMaxSize(int32(f.maxWidth), int32(f.maxHeight))
	default:
		f.toplevel.SetMinSize(0, 0)
		f.toplevel.SetMaxSize(0, 0)
	}
}

func (f *Frame) validLimits() error {
	if (f.minWidth < 0) || (f.minHeight < 0) || (f.maxWidth < 0) || (f.maxHeight < 0) {
		return fmt.Errorf("negative content size limit: min %vx%v, max %vx%v", f.minWidth, f.minHeight, f.maxWidth, f.maxHeight)
	}
	if ((f.maxWidth > 0) && (f.minWidth > f.maxWidth)) || ((f.maxHeight > 0) && (f.minHeight > f.maxHeight)) {
		return fmt.Errorf("min content size (%vx%v) is larger than max content size (%vx%v)", f.minWidth, f.minHeight, f.maxWidth, f.maxHeight)
	}
	return nil
}

func (f *Frame) Ref() {
	f.refs++
}

// Unref releases the frame. The xdg objects are destroyed once the
// last reference is gone. The content surface belongs to the
// application and is left alone.
func (f *Frame) Unref() {
	f.refs--
	if f.refs > 0 {
		return
	}

	if f.decoration != nil {
		f.decoration.Destroy()
	}
	if f.toplevel != nil {
		f.toplevel.Destroy()
	}
	if f.xsurface != nil {
		f.xsurface.Destroy()
	}
	f.inst.remove(f)
}

func (f *Frame) SetParent(parent engine.Frame) {
	p, _ := parent.(*Frame)
	f.parent = p
	if f.toplevel == nil {
		return
	}

	if p == nil {
		f.toplevel.SetParent(nil)
		return
	}
	// Otherwise the parent's createShell sets it.
	if p.toplevel != nil {
		f.toplevel.SetParent(p.toplevel)
	}
}

func (f *Frame) SetTitle(title string) {
	if title == f.title {
		return
	}

	f.title = title
	if f.toplevel != nil {
		f.toplevel.SetTitle(title)
	}
}

func (f *Frame) Title() string {
	return f.title
}

func (f *Frame) SetAppID(id string) {
	f.appID = id
	if f.toplevel != nil {
		f.toplevel.SetAppID(id)
	}
}

func (f *Frame) setCapabilities(caps uint32) {
	if caps == f.caps {
		return
	}

	changed := f.caps ^ caps
	f.caps = caps
	if (changed&engine.ActionResize != 0) && (f.contentWidth > 0) {
		f.applyLimits(f.contentWidth, f.contentHeight)
	}
}

func (f *Frame) SetCapabilities(caps uint32) {
	f.setCapabilities(f.caps | caps)
}

func (f *Frame) UnsetCapabilities(caps uint32) {
	f.setCapabilities(f.caps &^ caps)
}

func (f *Frame) HasCapability(caps uint32) bool {
	return f.caps&caps == caps
}

// ShowWindowMenu shows the compositor's window menu. Popups that hold
// a grab on the same seat are dismissed first.
func (f *Frame) ShowWindowMenu(seat *wl.Seat, serial uint32, x, y int) {
	if name := seat.SeatName(); f.grabs.Has(name) {
		f.inst.post(func() { f.iface.DismissPopup(f, name, f.userData) })
	}

	if f.toplevel != nil {
		f.toplevel.ShowWindowMenu(seat, serial, int32(x), int32(y))
	}
}

func (f *Frame) PopupGrab(seat string) {
	f.grabs.Add(seat)
}

func (f *Frame) PopupUngrab(seat string) {
	f.grabs.Delete(seat)
}

// TranslateCoordinate returns its arguments unchanged. Decorations
// are either drawn by the compositor or not at all, so the content
// surface is the whole frame.
func (f *Frame) TranslateCoordinate(x, y int) (int, int) {
	return x, y
}

func (f *Frame) SetMinContentSize(width, height int) {
	f.minWidth, f.minHeight = width, height
}

func (f *Frame) MinContentSize() (int, int) {
	return f.minWidth, f.minHeight
}

func (f *Frame) SetMaxContentSize(width, height int) {
	f.maxWidth, f.maxHeight = width, height
}

func (f *Frame) MaxContentSize() (int, int) {
	return f.maxWidth, f.maxHeight
}

func (f *Frame) Resize(seat *wl.Seat, serial uint32, edge uint32) {
	if (f.toplevel == nil) || (f.caps&engine.ActionResize == 0) {
		return
	}
	if edge >= uint32(len(resizeEdges)) {
		debug.Engine.Warn("invalid resize edge", "edge", edge)
		return
	}
	f.toplevel.Resize(seat, serial, resizeEdges[edge])
}

func (f *Frame) Move(seat *wl.Seat, serial uint32) {
	if (f.toplevel == nil) || (f.caps&engine.ActionMove == 0) {
		return
	}
	f.toplevel.Move(seat, serial)
}

// Commit applies state, acknowledging config if it isn't nil.
func (f *Frame) Commit(s engine.State, config engine.Configuration) {
	w, h := s.Size()
	if (w <= 0) || (h <= 0) {
		f.inst.report(engine.ErrorInvalidFrameConfiguration, fmt.Sprintf("invalid content size %vx%v", w, h))
		return
	}
	if err := f.validLimits(); err != nil {
		f.inst.report(engine.ErrorInvalidFrameConfiguration, err.Error())
		return
	}

	if c, ok := config.(*configuration); ok {
		if c.hasState {
			f.windowState = c.state
		}
		if f.xsurface != nil {
			f.xsurface.AckConfigure(c.serial)
		}
	}

	f.contentWidth, f.contentHeight = w, h
	debug.Engine.Debug("commit", "surface", f.surface.ID(), "size", fmt.Sprintf("%vx%v", w, h), "floating", f.IsFloating())

	f.applyLimits(w, h)
	if f.xsurface != nil {
		f.xsurface.SetWindowGeometry(0, 0, int32(w), int32(h))
	}
}

// ContentSize returns the last committed content size.
func (f *Frame) ContentSize() (int, int) {
	return f.contentWidth, f.contentHeight
}

func (f *Frame) SetMinimized() {
	if (f.toplevel != nil) && (f.caps&engine.ActionMinimize != 0) {
		f.toplevel.SetMinimized()
	}
}

func (f *Frame) SetMaximized() {
	if f.toplevel != nil {
		f.toplevel.SetMaximized()
	}
}

func (f *Frame) UnsetMaximized() {
	if f.toplevel != nil {
		f.toplevel.UnsetMaximized()
	}
}

func (f *Frame) SetFullscreen(output *wl.Output) {
	if (f.toplevel != nil) && (f.caps&engine.ActionFullscreen != 0) {
		f.toplevel.SetFullscreen(output)
	}
}

func (f *Frame) UnsetFullscreen() {
	if f.toplevel != nil {
		f.toplevel.UnsetFullscreen()
	}
}

func (f *Frame) IsFloating() bool {
	return f.windowState&engine.WindowStateConstrained == 0
}

// Close delivers a close request during the next dispatch.
func (f *Frame) Close() {
	f.inst.post(func() { f.iface.Close(f, f.userData) })
}

// Map commits the content surface so that the compositor sends the
// initial configure. If the xdg objects don't exist yet, this happens
// once they do.
func (f *Frame) Map() {
	if f.mapped {
		return
	}

	f.mapped = true
	if f.xsurface != nil {
		f.surface.Commit()
	}
}

func (f *Frame) SetVisibility(visible bool) {
	if visible == f.visible {
		return
	}

	f.visible = visible
	f.applyVisibility()
}

func (f *Frame) IsVisible() bool {
	return f.visible
}

func (f *Frame) XdgSurface() *xdg.Surface {
	return f.xsurface
}

func (f *Frame) XdgToplevel() *xdg.Toplevel {
	return f.toplevel
}
