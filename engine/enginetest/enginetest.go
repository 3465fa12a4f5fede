// Package enginetest provides a scripted engine for testing code that
// sits on top of the engine boundary.
//
// Nothing is sent anywhere. Frames record what is done to them, and
// the test queues up engine events which are delivered during the next
// call to Dispatch, the same way that a real engine delivers them.
package enginetest

import (
	"errors"
	"fmt"
	"time"

	wl "deedles.dev/decor/client"
	"deedles.dev/decor/engine"
	"deedles.dev/decor/xdg"
)

// Engine is an engine.Engine that creates scripted instances. The zero
// value is ready to use.
type Engine struct {
	// Instances holds every instance that has been created, in order.
	Instances []*Instance

	// States holds every state that has been created, in order.
	States []*State
}

func (e *Engine) New(display *wl.Client, iface *engine.Interface) engine.Instance {
	inst := Instance{
		Display: display,
		iface:   iface,
		refs:    1,
	}
	e.Instances = append(e.Instances, &inst)
	return &inst
}

func (e *Engine) NewState(width, height int) engine.State {
	s := State{Width: width, Height: height}
	e.States = append(e.States, &s)
	return &s
}

// State is a scripted engine.State.
type State struct {
	Width, Height int
	Freed         bool
}

func (s *State) Size() (int, int) {
	return s.Width, s.Height
}

func (s *State) Free() {
	if s.Freed {
		panic("enginetest: state freed twice")
	}
	s.Freed = true
}

// Configuration is a scripted engine.Configuration. A zero width or
// height means that no size was proposed.
type Configuration struct {
	Width, Height int

	State    uint32
	HasState bool
}

func (c *Configuration) ContentSize(frame engine.Frame) (int, int, bool) {
	if (c.Width <= 0) || (c.Height <= 0) {
		return 0, 0, false
	}
	return c.Width, c.Height, true
}

func (c *Configuration) WindowState() (uint32, bool) {
	return c.State, c.HasState
}

// Instance is a scripted engine.Instance.
type Instance struct {
	Display *wl.Client

	// Reject makes Decorate return nil.
	Reject bool

	// Frames holds every frame that has been created, in order.
	Frames []*Frame

	iface   *engine.Interface
	refs    int
	pending []func()
	err     error
}

func (inst *Instance) Unref() {
	if inst.refs <= 0 {
		panic("enginetest: instance released too many times")
	}
	inst.refs--
}

// Released reports whether the instance has been released.
func (inst *Instance) Released() bool {
	return inst.refs == 0
}

// Fd returns -1. Scripted instances have nothing to poll.
func (inst *Instance) Fd() int {
	return -1
}

// Dispatch delivers every event queued since the last call. Events
// queued by callbacks during Dispatch are delivered by the same call.
func (inst *Instance) Dispatch(timeout time.Duration) (int, error) {
	if inst.err != nil {
		return 0, inst.err
	}

	var n int
	for len(inst.pending) > 0 {
		ev := inst.pending[0]
		inst.pending = inst.pending[1:]
		ev()
		n++
	}
	return n, nil
}

func (inst *Instance) Decorate(surface *wl.Surface, iface *engine.FrameInterface, userData uintptr) engine.Frame {
	if inst.Reject {
		inst.Error(engine.ErrorCompositorIncompatible, "surface rejected")
		return nil
	}

	f := Frame{
		Surface:  surface,
		inst:     inst,
		iface:    iface,
		userData: userData,
		refs:     1,
		floating: true,
		visible:  true,
		caps:     engine.ActionMove | engine.ActionResize | engine.ActionMinimize | engine.ActionFullscreen | engine.ActionClose,
	}
	inst.Frames = append(inst.Frames, &f)
	return &f
}

func (inst *Instance) queue(ev func()) {
	inst.pending = append(inst.pending, ev)
}

// Error queues an error report.
func (inst *Instance) Error(code engine.ErrorCode, message string) {
	inst.queue(func() { inst.iface.Error(inst, code, message) })
}

// Fail makes every subsequent Dispatch return err.
func (inst *Instance) Fail(err error) {
	if err == nil {
		err = errors.New("enginetest: connection failed")
	}
	inst.err = err
}

// Configure queues a configure event for f.
func (inst *Instance) Configure(f *Frame, config *Configuration) {
	inst.queue(func() { f.iface.Configure(f, config, f.userData) })
}

// Close queues a close event for f.
func (inst *Instance) Close(f *Frame) {
	inst.queue(func() { f.iface.Close(f, f.userData) })
}

// Commit queues a commit event for f.
func (inst *Instance) Commit(f *Frame) {
	inst.queue(func() { f.iface.Commit(f, f.userData) })
}

// DismissPopup queues a dismiss popup event for f.
func (inst *Instance) DismissPopup(f *Frame, seat string) {
	inst.queue(func() { f.iface.DismissPopup(f, seat, f.userData) })
}

// Commit records a call to Frame.Commit.
type Commit struct {
	Width, Height int
	Config        *Configuration
}

// Frame is a scripted engine.Frame.
type Frame struct {
	Surface *wl.Surface

	// Calls records the name of every request made on the frame.
	Calls []string

	// Commits records every commit.
	Commits []Commit

	// Grabs holds one entry per PopupGrab that has not been matched
	// by a PopupUngrab.
	Grabs []string

	AppID      string
	Parent     engine.Frame
	Mapped     bool
	Serials    []uint32
	LastEdge   uint32
	MenuX      int
	MenuY      int
	Fullscreen *wl.Output

	inst     *Instance
	iface    *engine.FrameInterface
	userData uintptr
	refs     int

	title       string
	caps        uint32
	visible     bool
	floating    bool
	windowState uint32
	minW, minH  int
	maxW, maxH  int
}

func (f *Frame) call(name string, args ...any) {
	if f.refs <= 0 {
		panic("enginetest: frame used after release")
	}
	if len(args) > 0 {
		name += fmt.Sprint(args)
	}
	f.Calls = append(f.Calls, name)
}

func (f *Frame) Ref() {
	f.refs++
}

func (f *Frame) Unref() {
	f.call("unref")
	f.refs--
}

// Released reports whether the frame's last reference was dropped.
func (f *Frame) Released() bool {
	return f.refs == 0
}

// UserData returns the token that the frame was decorated with.
func (f *Frame) UserData() uintptr {
	return f.userData
}

func (f *Frame) SetParent(parent engine.Frame) {
	f.call("set_parent")
	f.Parent = parent
}

func (f *Frame) SetTitle(title string) {
	f.call("set_title", title)
	f.title = title
}

func (f *Frame) Title() string {
	return f.title
}

func (f *Frame) SetAppID(id string) {
	f.call("set_app_id", id)
	f.AppID = id
}

func (f *Frame) SetCapabilities(caps uint32) {
	f.call("set_capabilities", caps)
	f.caps |= caps
}

func (f *Frame) UnsetCapabilities(caps uint32) {
	f.call("unset_capabilities", caps)
	f.caps &^= caps
}

func (f *Frame) HasCapability(caps uint32) bool {
	return f.caps&caps == caps
}

func (f *Frame) ShowWindowMenu(seat *wl.Seat, serial uint32, x, y int) {
	f.call("show_window_menu")
	f.Serials = append(f.Serials, serial)
	f.MenuX, f.MenuY = x, y
}

func (f *Frame) PopupGrab(seat string) {
	f.call("popup_grab", seat)
	f.Grabs = append(f.Grabs, seat)
}

func (f *Frame) PopupUngrab(seat string) {
	f.call("popup_ungrab", seat)
	for i, s := range f.Grabs {
		if s == seat {
			f.Grabs = append(f.Grabs[:i], f.Grabs[i+1:]...)
			return
		}
	}
}

func (f *Frame) TranslateCoordinate(x, y int) (int, int) {
	return x, y
}

func (f *Frame) SetMinContentSize(width, height int) {
	f.call("set_min_content_size", width, height)
	f.minW, f.minH = width, height
}

func (f *Frame) MinContentSize() (int, int) {
	return f.minW, f.minH
}

func (f *Frame) SetMaxContentSize(width, height int) {
	f.call("set_max_content_size", width, height)
	f.maxW, f.maxH = width, height
}

func (f *Frame) MaxContentSize() (int, int) {
	return f.maxW, f.maxH
}

func (f *Frame) Resize(seat *wl.Seat, serial uint32, edge uint32) {
	f.call("resize")
	f.Serials = append(f.Serials, serial)
	f.LastEdge = edge
}

func (f *Frame) Move(seat *wl.Seat, serial uint32) {
	f.call("move")
	f.Serials = append(f.Serials, serial)
}

// Commit records the commit and, if config carries a window state,
// applies it.
func (f *Frame) Commit(state engine.State, config engine.Configuration) {
	f.call("commit")

	w, h := state.Size()
	c := Commit{Width: w, Height: h}
	if config != nil {
		c.Config = config.(*Configuration)
		if ws, ok := config.WindowState(); ok {
			f.windowState = ws
			f.floating = ws&engine.WindowStateConstrained == 0
		}
	}
	f.Commits = append(f.Commits, c)
}

// WindowState returns the last committed window state.
func (f *Frame) WindowState() uint32 {
	return f.windowState
}

func (f *Frame) SetMinimized() {
	f.call("set_minimized")
}

func (f *Frame) SetMaximized() {
	f.call("set_maximized")
}

func (f *Frame) UnsetMaximized() {
	f.call("unset_maximized")
}

func (f *Frame) SetFullscreen(output *wl.Output) {
	f.call("set_fullscreen")
	f.Fullscreen = output
}

func (f *Frame) UnsetFullscreen() {
	f.call("unset_fullscreen")
	f.Fullscreen = nil
}

func (f *Frame) IsFloating() bool {
	return f.floating
}

// Close queues a close event, as a real engine would.
func (f *Frame) Close() {
	f.call("close")
	f.inst.Close(f)
}

func (f *Frame) Map() {
	f.call("map")
	f.Mapped = true
}

func (f *Frame) SetVisibility(visible bool) {
	f.call("set_visibility", visible)
	f.visible = visible
}

func (f *Frame) IsVisible() bool {
	return f.visible
}

func (f *Frame) XdgSurface() *xdg.Surface {
	return nil
}

func (f *Frame) XdgToplevel() *xdg.Toplevel {
	return nil
}
