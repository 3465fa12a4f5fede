package xdgshell_test

import (
	"testing"
	"time"

	wl "deedles.dev/decor/client"
	"deedles.dev/decor/engine"
	"deedles.dev/decor/internal/wltest"
	"deedles.dev/decor/xdg"
	"deedles.dev/decor/xdgshell"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var globals = []wltest.Global{
	{Interface: "wl_compositor", Version: 4},
	{Interface: "xdg_wm_base", Version: 5},
	{Interface: "zxdg_decoration_manager_v1", Version: 1},
	{Interface: "wl_seat", Version: 5},
}

type configure struct {
	serial        int
	width, height int
	ok            bool
	state         uint32
	hasState      bool
}

type errorEvent struct {
	code    engine.ErrorCode
	message string
}

type harness struct {
	t        *testing.T
	comp     *wltest.Compositor
	client   *wl.Client
	registry *wl.Registry
	inst     engine.Instance

	errs       []errorEvent
	configures []configure
	closes     int
	dismissed  []string

	// commit decides the size committed in response to a configure.
	// If it is nil, configurations are not answered.
	commit func(w, h int, ok bool) (int, int)
}

func newHarness(t *testing.T, globals ...wltest.Global) *harness {
	t.Helper()

	h := harness{t: t}
	h.comp, h.client = wltest.New(t, globals...)

	h.registry = h.client.Display().GetRegistry()
	require.NoError(t, h.client.RoundTrip())

	h.inst = xdgshell.Engine{}.New(h.client, &engine.Interface{
		Error: func(inst engine.Instance, code engine.ErrorCode, message string) {
			h.errs = append(h.errs, errorEvent{code: code, message: message})
		},
	})
	t.Cleanup(h.inst.Unref)

	return &h
}

func (h *harness) global(iface string) (uint32, uint32) {
	for name, i := range h.registry.Globals() {
		if i.Name == iface {
			return name, i.Version
		}
	}
	require.FailNow(h.t, "missing global", iface)
	return 0, 0
}

func (h *harness) surface() *wl.Surface {
	name, version := h.global("wl_compositor")
	compositor := wl.BindCompositor(h.registry, name, version)
	return compositor.CreateSurface()
}

func (h *harness) seat(name string) *wl.Seat {
	global, version := h.global("wl_seat")
	seat := wl.BindSeat(h.registry, global, version)
	require.NoError(h.t, h.client.RoundTrip())

	res := h.comp.Objects("wl_seat")
	require.NotEmpty(h.t, res)
	require.NoError(h.t, h.comp.Send(res[len(res)-1], "name", name))
	wltest.Pump(h.t, func() { h.client.Dispatch(10 * time.Millisecond) }, func() bool { return seat.SeatName() == name })
	return seat
}

func (h *harness) iface() *engine.FrameInterface {
	return &engine.FrameInterface{
		Configure: func(frame engine.Frame, config engine.Configuration, userData uintptr) {
			w, ht, ok := config.ContentSize(frame)
			state, hasState := config.WindowState()
			h.configures = append(h.configures, configure{
				serial:   len(h.configures),
				width:    w,
				height:   ht,
				ok:       ok,
				state:    state,
				hasState: hasState,
			})

			if h.commit != nil {
				w, ht = h.commit(w, ht, ok)
				frame.Commit(xdgshell.Engine{}.NewState(w, ht), config)
			}
		},
		Close: func(frame engine.Frame, userData uintptr) {
			h.closes++
		},
		DismissPopup: func(frame engine.Frame, seat string, userData uintptr) {
			h.dismissed = append(h.dismissed, seat)
		},
	}
}

func (h *harness) dispatch() {
	_, err := h.inst.Dispatch(10 * time.Millisecond)
	require.NoError(h.t, err)
}

func (h *harness) until(cond func() bool) {
	h.t.Helper()
	wltest.Pump(h.t, h.dispatch, cond)
}

// decorate decorates a new surface and waits for its xdg objects to be
// created.
func (h *harness) decorate() (engine.Frame, *wltest.Resource) {
	h.t.Helper()

	f := h.inst.Decorate(h.surface(), h.iface(), 0)
	require.NotNil(h.t, f)
	h.until(func() bool { return f.XdgToplevel() != nil })
	require.NoError(h.t, h.client.Flush())

	h.comp.Expect(h.t, "xdg_surface.get_toplevel")
	toplevels := h.comp.Objects("xdg_toplevel")
	require.NotEmpty(h.t, toplevels)
	return f, toplevels[len(toplevels)-1]
}

func TestInit(t *testing.T) {
	h := newHarness(t, globals...)

	f := h.inst.Decorate(h.surface(), h.iface(), 0)
	require.NotNil(t, f)
	assert.Nil(t, f.XdgToplevel(), "xdg objects created before the initial round trip")

	f.SetTitle("Example")
	f.SetAppID("dev.deedles.decor.test")
	f.Map()

	h.until(func() bool { return f.XdgToplevel() != nil })
	require.NoError(t, h.client.Flush())

	h.comp.Expect(t, "xdg_wm_base.get_xdg_surface")
	h.comp.Expect(t, "xdg_surface.get_toplevel")
	assert.Equal(t, "Example", h.comp.Expect(t, "xdg_toplevel.set_title").Str(0))
	assert.Equal(t, "dev.deedles.decor.test", h.comp.Expect(t, "xdg_toplevel.set_app_id").Str(0))
	h.comp.Expect(t, "zxdg_decoration_manager_v1.get_toplevel_decoration")
	assert.Equal(t, uint32(xdg.DecorationModeServerSide), h.comp.Expect(t, "zxdg_toplevel_decoration_v1.set_mode").Uint(0))
	h.comp.Expect(t, "wl_surface.commit")

	assert.Empty(t, h.errs)
}

func TestMissingWmBase(t *testing.T) {
	h := newHarness(t, wltest.Global{Interface: "wl_compositor", Version: 4})

	f := h.inst.Decorate(h.surface(), h.iface(), 0)
	require.NotNil(t, f, "frames decorated before the initial round trip exist")

	h.until(func() bool { return len(h.errs) > 0 })
	require.Len(t, h.errs, 1)
	assert.Equal(t, engine.ErrorCompositorIncompatible, h.errs[0].code)
	assert.Equal(t, "Compositor is missing xdg_wm_base", h.errs[0].message)
	assert.Nil(t, f.XdgToplevel())

	assert.Nil(t, h.inst.Decorate(h.surface(), h.iface(), 0))
	f.Unref()
}

func TestAvailable(t *testing.T) {
	_, client := wltest.New(t, globals...)
	assert.True(t, xdgshell.Available(client))

	_, client = wltest.New(t, wltest.Global{Interface: "wl_compositor", Version: 4})
	assert.False(t, xdgshell.Available(client))
}

func TestConfigure(t *testing.T) {
	h := newHarness(t, globals...)
	h.commit = func(w, ht int, ok bool) (int, int) {
		if !ok {
			return 800, 600
		}
		return w, ht
	}

	f, toplevel := h.decorate()

	serial := h.comp.Configure(toplevel, 0, 0)
	h.until(func() bool { return len(h.configures) == 1 })
	assert.False(t, h.configures[0].ok, "0x0 should leave the size to the client")
	assert.True(t, h.configures[0].hasState)
	assert.Equal(t, engine.WindowStateNone, h.configures[0].state)
	assert.True(t, f.IsFloating())

	require.NoError(t, h.client.Flush())
	assert.Equal(t, serial, h.comp.Expect(t, "xdg_surface.ack_configure").Uint(0))
	geom := h.comp.Expect(t, "xdg_surface.set_window_geometry")
	assert.Equal(t, []any{int32(0), int32(0), int32(800), int32(600)}, geom.Args)

	serial = h.comp.Configure(toplevel, 1024, 768, uint32(xdg.ToplevelStateMaximized), uint32(xdg.ToplevelStateActivated))
	h.until(func() bool { return len(h.configures) == 2 })
	c := h.configures[1]
	assert.True(t, c.ok)
	assert.Equal(t, 1024, c.width)
	assert.Equal(t, 768, c.height)
	assert.Equal(t, engine.WindowStateMaximized|engine.WindowStateActive, c.state)
	assert.False(t, f.IsFloating())

	require.NoError(t, h.client.Flush())
	assert.Equal(t, serial, h.comp.Expect(t, "xdg_surface.ack_configure").Uint(0))
	geom = h.comp.Expect(t, "xdg_surface.set_window_geometry")
	assert.Equal(t, []any{int32(0), int32(0), int32(1024), int32(768)}, geom.Args)

	assert.Empty(t, h.errs)
}

func TestConfigureClamp(t *testing.T) {
	h := newHarness(t, globals...)
	f, toplevel := h.decorate()

	f.SetMinContentSize(300, 200)
	f.SetMaxContentSize(1000, 1000)

	h.comp.Configure(toplevel, 100, 2000)
	h.until(func() bool { return len(h.configures) == 1 })
	assert.Equal(t, 300, h.configures[0].width)
	assert.Equal(t, 1000, h.configures[0].height)

	h.comp.Configure(toplevel, 100, 2000, uint32(xdg.ToplevelStateFullscreen))
	h.until(func() bool { return len(h.configures) == 2 })
	assert.Equal(t, 100, h.configures[1].width, "limits don't apply when not floating")
	assert.Equal(t, 2000, h.configures[1].height)
}

func TestInvalidCommit(t *testing.T) {
	h := newHarness(t, globals...)
	f, _ := h.decorate()

	f.SetMinContentSize(500, 500)
	f.SetMaxContentSize(100, 100)
	f.Commit(xdgshell.Engine{}.NewState(200, 200), nil)
	h.until(func() bool { return len(h.errs) > 0 })
	assert.Equal(t, engine.ErrorInvalidFrameConfiguration, h.errs[0].code)

	f.SetMinContentSize(0, 0)
	f.SetMaxContentSize(0, 0)
	f.Commit(xdgshell.Engine{}.NewState(0, 10), nil)
	h.until(func() bool { return len(h.errs) > 1 })
	assert.Equal(t, engine.ErrorInvalidFrameConfiguration, h.errs[1].code)
}

func TestLimits(t *testing.T) {
	h := newHarness(t, globals...)
	f, _ := h.decorate()

	f.SetMinContentSize(100, 50)
	f.SetMaxContentSize(400, 300)
	f.Commit(xdgshell.Engine{}.NewState(200, 150), nil)
	require.NoError(t, h.client.Flush())
	assert.Equal(t, []any{int32(100), int32(50)}, h.comp.Expect(t, "xdg_toplevel.set_min_size").Args)
	assert.Equal(t, []any{int32(400), int32(300)}, h.comp.Expect(t, "xdg_toplevel.set_max_size").Args)

	f.UnsetCapabilities(engine.ActionResize)
	require.NoError(t, h.client.Flush())
	assert.Equal(t, []any{int32(200), int32(150)}, h.comp.Expect(t, "xdg_toplevel.set_min_size").Args)
	assert.Equal(t, []any{int32(200), int32(150)}, h.comp.Expect(t, "xdg_toplevel.set_max_size").Args)
}

func TestClose(t *testing.T) {
	h := newHarness(t, globals...)
	f, toplevel := h.decorate()

	require.NoError(t, h.comp.Send(toplevel, "close"))
	h.until(func() bool { return h.closes == 1 })

	f.Close()
	h.until(func() bool { return h.closes == 2 })
}

func TestPing(t *testing.T) {
	h := newHarness(t, globals...)
	h.decorate()

	wm := h.comp.Objects("xdg_wm_base")
	require.Len(t, wm, 1)
	serial := h.comp.Ping(wm[0])

	var pong wltest.Request
	h.until(func() bool {
		req, ok := h.comp.Find("xdg_wm_base.pong")
		pong = req
		return ok
	})
	assert.Equal(t, serial, pong.Uint(0))
}

func TestInteractive(t *testing.T) {
	h := newHarness(t, globals...)
	f, _ := h.decorate()
	seat := h.seat("seat0")
	seatRes := h.comp.Objects("wl_seat")[0]

	f.PopupGrab("seat0")
	f.ShowWindowMenu(seat, 5, 10, 20)
	h.until(func() bool { return len(h.dismissed) == 1 })
	assert.Equal(t, []string{"seat0"}, h.dismissed)

	require.NoError(t, h.client.Flush())
	menu := h.comp.Expect(t, "xdg_toplevel.show_window_menu")
	assert.Equal(t, []any{seatRes, uint32(5), int32(10), int32(20)}, menu.Args)

	f.PopupUngrab("seat0")
	f.ShowWindowMenu(seat, 6, 0, 0)
	f.Move(seat, 7)
	f.Resize(seat, 8, engine.ResizeEdgeBottomRight)
	require.NoError(t, h.client.Flush())
	h.comp.Expect(t, "xdg_toplevel.show_window_menu")
	assert.Equal(t, uint32(7), h.comp.Expect(t, "xdg_toplevel.move").Uint(1))
	resize := h.comp.Expect(t, "xdg_toplevel.resize")
	assert.Equal(t, uint32(8), resize.Uint(1))
	assert.Equal(t, uint32(xdg.ToplevelResizeEdgeBottomRight), resize.Uint(2))
	assert.Len(t, h.dismissed, 1)

	f.UnsetCapabilities(engine.ActionMove | engine.ActionResize)
	f.Move(seat, 9)
	f.Resize(seat, 10, engine.ResizeEdgeTop)
	require.NoError(t, h.client.Flush())
	require.NoError(t, h.client.RoundTrip())
	_, ok := h.comp.Find("xdg_toplevel.move")
	assert.False(t, ok, "moved without the move capability")
	_, ok = h.comp.Find("xdg_toplevel.resize")
	assert.False(t, ok, "resized without the resize capability")
}

func TestWindowState(t *testing.T) {
	h := newHarness(t, globals...)
	f, _ := h.decorate()

	f.SetMaximized()
	f.UnsetMaximized()
	f.SetFullscreen(nil)
	f.UnsetFullscreen()
	f.SetMinimized()
	require.NoError(t, h.client.Flush())

	h.comp.Expect(t, "xdg_toplevel.set_maximized")
	h.comp.Expect(t, "xdg_toplevel.unset_maximized")
	assert.Nil(t, h.comp.Expect(t, "xdg_toplevel.set_fullscreen").Resource(0))
	h.comp.Expect(t, "xdg_toplevel.unset_fullscreen")
	h.comp.Expect(t, "xdg_toplevel.set_minimized")
}

func TestVisibility(t *testing.T) {
	h := newHarness(t, globals...)
	f, _ := h.decorate()
	h.comp.Expect(t, "zxdg_toplevel_decoration_v1.set_mode")

	assert.True(t, f.IsVisible())
	f.SetVisibility(false)
	assert.False(t, f.IsVisible())
	require.NoError(t, h.client.Flush())
	assert.Equal(t, uint32(xdg.DecorationModeClientSide), h.comp.Expect(t, "zxdg_toplevel_decoration_v1.set_mode").Uint(0))

	f.SetVisibility(true)
	require.NoError(t, h.client.Flush())
	assert.Equal(t, uint32(xdg.DecorationModeServerSide), h.comp.Expect(t, "zxdg_toplevel_decoration_v1.set_mode").Uint(0))
}

func TestDecorationModeNone(t *testing.T) {
	t.Setenv("DECOR_MODE", "none")

	h := newHarness(t, globals...)
	h.decorate()
	require.NoError(t, h.client.RoundTrip())
	assert.Empty(t, h.comp.Names("zxdg_"))
}

func TestParent(t *testing.T) {
	h := newHarness(t, globals...)
	parent, ptop := h.decorate()
	child, _ := h.decorate()

	child.SetParent(parent)
	child.SetParent(nil)
	require.NoError(t, h.client.Flush())
	assert.Equal(t, ptop, h.comp.Expect(t, "xdg_toplevel.set_parent").Resource(0))
	assert.Nil(t, h.comp.Expect(t, "xdg_toplevel.set_parent").Resource(0))
}

func TestParentBeforeInit(t *testing.T) {
	h := newHarness(t, globals...)

	child := h.inst.Decorate(h.surface(), h.iface(), 0)
	parent := h.inst.Decorate(h.surface(), h.iface(), 0)
	require.NotNil(t, child)
	require.NotNil(t, parent)
	child.SetParent(parent)

	h.until(func() bool { return parent.XdgToplevel() != nil })
	require.NoError(t, h.client.Flush())

	req := h.comp.Expect(t, "xdg_toplevel.set_parent")
	toplevels := h.comp.Objects("xdg_toplevel")
	require.Len(t, toplevels, 2)
	assert.Equal(t, toplevels[0], req.Object, "child toplevel")
	assert.Equal(t, toplevels[1], req.Resource(0), "parent toplevel")
}

func TestUnref(t *testing.T) {
	h := newHarness(t, globals...)
	f, _ := h.decorate()

	f.Ref()
	f.Unref()
	require.NoError(t, h.client.Flush())
	require.NoError(t, h.client.RoundTrip())
	assert.Empty(t, h.comp.Names("xdg_toplevel.destroy"))

	f.Unref()
	require.NoError(t, h.client.Flush())
	h.comp.Expect(t, "zxdg_toplevel_decoration_v1.destroy")
	h.comp.Expect(t, "xdg_toplevel.destroy")
	h.comp.Expect(t, "xdg_surface.destroy")

	names := h.comp.Names("")
	var order []string
	for _, name := range names {
		switch name {
		case "zxdg_toplevel_decoration_v1.destroy", "xdg_toplevel.destroy", "xdg_surface.destroy":
			order = append(order, name)
		}
	}
	assert.Equal(t, []string{"zxdg_toplevel_decoration_v1.destroy", "xdg_toplevel.destroy", "xdg_surface.destroy"}, order)
}
