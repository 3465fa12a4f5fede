package decor_test

import (
	"os"
	"testing"
	"time"

	"deedles.dev/decor"
	wl "deedles.dev/decor/client"
	"deedles.dev/decor/internal/wltest"
	"deedles.dev/decor/xdg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func connect(t *testing.T, globals ...wltest.Global) (*wltest.Compositor, *wl.Client, *wl.Surface) {
	t.Helper()

	comp, client := wltest.New(t, globals...)
	registry := client.Display().GetRegistry()
	require.NoError(t, client.RoundTrip())

	for name, i := range registry.Globals() {
		if wl.IsCompositor(i) {
			compositor := wl.BindCompositor(registry, name, i.Version)
			return comp, client, compositor.CreateSurface()
		}
	}
	require.FailNow(t, "no wl_compositor")
	return nil, nil, nil
}

func TestWayland(t *testing.T) {
	comp, client, surface := connect(t,
		wltest.Global{Interface: "wl_compositor", Version: 4},
		wltest.Global{Interface: "xdg_wm_base", Version: 5},
	)
	require.True(t, decor.Available(client))

	var errs []*decor.Error
	ctx := decor.New(client, func(req decor.Request) { errs = append(errs, req.Error) })
	defer ctx.Close()

	a := app{floatingWidth: 640, floatingHeight: 480}
	frame := ctx.Decorate(surface, handleApp)
	require.NotNil(t, frame)
	defer frame.Destroy()

	frame.SetTitle("Example")
	frame.Map()

	dispatch := func() { require.True(t, ctx.DispatchWith(&a, 10*time.Millisecond)) }
	wltest.Pump(t, dispatch, func() bool { return frame.XdgToplevel() != nil })
	require.NoError(t, client.Flush())
	assert.Equal(t, "Example", comp.Expect(t, "xdg_toplevel.set_title").Str(0))
	comp.Expect(t, "wl_surface.commit")

	toplevel := comp.Objects("xdg_toplevel")[0]
	serial := comp.Configure(toplevel, 800, 600, uint32(xdg.ToplevelStateActivated))
	wltest.Pump(t, dispatch, func() bool { return a.configures == 1 })
	assert.Equal(t, [2]int{800, 600}, [2]int{a.width, a.height})
	assert.True(t, frame.IsFloating())

	require.NoError(t, client.Flush())
	assert.Equal(t, serial, comp.Expect(t, "xdg_surface.ack_configure").Uint(0))

	comp.Configure(toplevel, 1920, 1080, uint32(xdg.ToplevelStateMaximized))
	wltest.Pump(t, dispatch, func() bool { return a.configures == 2 })
	assert.Equal(t, [2]int{1920, 1080}, [2]int{a.width, a.height})
	assert.Equal(t, [2]int{800, 600}, [2]int{a.floatingWidth, a.floatingHeight})
	assert.False(t, frame.IsFloating())

	require.NoError(t, comp.Send(toplevel, "close"))
	wltest.Pump(t, dispatch, func() bool { return a.closed })

	assert.Empty(t, errs)
}

func TestWaylandIncompatible(t *testing.T) {
	_, client, surface := connect(t, wltest.Global{Interface: "wl_compositor", Version: 4})
	require.False(t, decor.Available(client))

	var errs []*decor.Error
	ctx := decor.New(client, func(req decor.Request) { errs = append(errs, req.Error) })
	defer ctx.Close()

	wltest.Pump(t, func() { ctx.Dispatch(10 * time.Millisecond) }, func() bool { return len(errs) > 0 })
	assert.Equal(t, decor.ErrCompositorIncompatible, errs[0].Kind)
	assert.Equal(t, "Compositor is missing xdg_wm_base", errs[0].Message)

	assert.Nil(t, ctx.Decorate(surface, handleApp))
}

func TestWaylandRelease(t *testing.T) {
	_, client, _ := connect(t,
		wltest.Global{Interface: "wl_compositor", Version: 4},
		wltest.Global{Interface: "xdg_wm_base", Version: 5},
	)

	openFiles := func() int {
		fds, err := os.ReadDir("/proc/self/fd")
		require.NoError(t, err)
		return len(fds)
	}

	before := openFiles()
	for i := 0; i < 20; i++ {
		ctx := decor.New(client, nil)
		require.True(t, ctx.Dispatch(10*time.Millisecond))
		ctx.Close()
		require.True(t, decor.Available(client))
	}
	require.NoError(t, client.RoundTrip())
	assert.Equal(t, before, openFiles())
}
